package compiler

import (
	"github.com/roach88/strictflux/internal/actions"
)

// Declarations is the compiled content of a directory of CUE files.
type Declarations struct {
	Creators []CreatorDecl `json:"creators"`
	Stores   []StoreDecl   `json:"stores"`
}

// CreatorDecl declares an action creator set.
type CreatorDecl struct {
	Name    string       `json:"name"`
	Source  string       `json:"source"`
	Methods []MethodDecl `json:"methods"`
}

// MethodDecl declares one creator method. Payload is the CUE source of the
// payload schema, empty when the action carries none.
type MethodDecl struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Payload string `json:"payload,omitempty"`
}

// StoreDecl declares which identifiers a store handles and which stores it
// waits for. It drives static checks only; stores are built in Go.
type StoreDecl struct {
	Name    string   `json:"name"`
	Handles []string `json:"handles"`
	WaitFor []string `json:"wait_for,omitempty"`
}

// Config converts the declaration into an actions.CreatorConfig.
func (c CreatorDecl) Config() actions.CreatorConfig {
	methods := make(map[string]actions.MethodSpec, len(c.Methods))
	for _, m := range c.Methods {
		methods[m.Name] = actions.MethodSpec{
			ActionType:  m.Type,
			PayloadType: m.Payload,
		}
	}
	return actions.CreatorConfig{
		DisplayName:  c.Name,
		ActionSource: c.Source,
		Methods:      methods,
	}
}

// Creator returns the creator declaration named name.
func (d *Declarations) Creator(name string) (CreatorDecl, bool) {
	for _, c := range d.Creators {
		if c.Name == name {
			return c, true
		}
	}
	return CreatorDecl{}, false
}
