// Package view connects UI components to stores.
//
// A component pulls its whole state from the stores it depends on; it never
// receives a diff. Bind subscribes the component to each store and pulls
// fresh state once immediately and again after every change notification.
package view

import (
	"slices"
	"sync"
)

// Component is a view that derives its state from stores.
type Component interface {
	GetStateFromStores() any
	SetState(state any)
}

// Source is a store a component can subscribe to. *store.Store implements it.
type Source interface {
	Subscribe(fn func()) (unsubscribe func())
}

// Bind subscribes c to every store and sets its initial state. The returned
// func removes all subscriptions and is safe to call more than once.
//
// A dispatch that changes several bound stores triggers one refresh per
// store; each refresh reads all of them, so the component only ever sees
// consistent post-dispatch state.
func Bind(c Component, stores ...Source) (unbind func()) {
	refresh := func() { c.SetState(c.GetStateFromStores()) }

	unsubs := make([]func(), 0, len(stores))
	for _, s := range stores {
		unsubs = append(unsubs, s.Subscribe(refresh))
	}
	refresh()

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, u := range slices.Backward(unsubs) {
				u()
			}
		})
	}
}
