package store

import (
	"fmt"
	"maps"
)

// Method is a store method. Private methods may mutate ctx fields; public
// methods should only read them.
type Method func(ctx *Context, args ...any) (any, error)

// InitFunc sets a store's initial fields and binds its actions.
type InitFunc func(ctx *Context) error

// Handler is an inline action handler. It receives the frozen payload.
type Handler func(ctx *Context, payload any) error

// Config describes a store.
type Config struct {
	// DisplayName names the store in logs and errors.
	DisplayName string

	// Init is required.
	Init InitFunc

	// Public is required and must not be empty.
	Public map[string]Method

	// Private is required but may be empty.
	Private map[string]Method
}

func (c Config) validate() error {
	if c.Init == nil {
		return fmt.Errorf("%w: init is required", ErrInvalidStoreConfiguration)
	}
	if len(c.Public) == 0 {
		return fmt.Errorf("%w: at least one public method is required", ErrInvalidStoreConfiguration)
	}
	if c.Private == nil {
		return fmt.Errorf("%w: private methods are required", ErrInvalidStoreConfiguration)
	}
	for name, m := range c.Public {
		if m == nil {
			return fmt.Errorf("%w: public method %q is nil", ErrInvalidStoreConfiguration, name)
		}
		if _, dup := c.Private[name]; dup {
			return fmt.Errorf("%w: %q is both public and private", ErrInvalidStoreConfiguration, name)
		}
	}
	for name, m := range c.Private {
		if m == nil {
			return fmt.Errorf("%w: private method %q is nil", ErrInvalidStoreConfiguration, name)
		}
	}
	return nil
}

// clone copies the method tables so later edits to the caller's maps cannot
// change a constructed store.
func (c Config) clone() Config {
	c.Public = maps.Clone(c.Public)
	c.Private = maps.Clone(c.Private)
	return c
}
