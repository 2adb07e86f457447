// Package observable provides named-property change notification for
// stateful values. Handlers are invoked synchronously, in subscription
// order, and only when a value actually changes.
package observable

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// Event describes a change to a named property.
type Event struct {
	Property string
}

// Handler receives change events.
type Handler func(Event)

// SubscriptionID identifies a registered handler.
type SubscriptionID string

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// Notifier fans out change events to its subscribers.
// The zero value is ready to use. A nil *Notifier delivers nothing.
type Notifier struct {
	mu       sync.Mutex
	handlers []subscription
}

// Subscribe registers h and returns an ID for Unsubscribe.
// Changes that happened before the call are not replayed.
// A nil *Notifier accepts nothing and returns an empty ID.
func (n *Notifier) Subscribe(h Handler) SubscriptionID {
	if n == nil {
		return ""
	}
	id := SubscriptionID(ulid.Make().String())
	n.mu.Lock()
	n.handlers = append(n.handlers, subscription{id: id, handler: h})
	n.mu.Unlock()
	return id
}

// Unsubscribe removes the handler registered under id.
// Returns false if no such handler exists.
func (n *Notifier) Unsubscribe(id SubscriptionID) bool {
	if n == nil {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, s := range n.handlers {
		if s.id == id {
			// Copy so that an in-flight Notify snapshot is left untouched.
			next := make([]subscription, 0, len(n.handlers)-1)
			next = append(next, n.handlers[:i]...)
			n.handlers = append(next, n.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered handlers.
func (n *Notifier) Len() int {
	if n == nil {
		return 0
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.handlers)
}

// Notify delivers a change event for property to every subscriber.
// Handlers run on the calling goroutine against a snapshot of the
// subscriber list, so they may subscribe or unsubscribe freely.
func (n *Notifier) Notify(property string) {
	if n == nil {
		return
	}
	n.mu.Lock()
	snapshot := n.handlers
	n.mu.Unlock()

	ev := Event{Property: property}
	for _, s := range snapshot {
		s.handler(ev)
	}
}

// SetValue stores value into *field when it differs (by ==) from the
// current value. On change the callback, if any, is invoked with the new
// value and then subscribers of n are notified. Returns whether a change
// happened.
//
// The compare-and-store runs under n's lock; callback and handlers run
// after it is released.
func SetValue[T comparable](n *Notifier, field *T, value T, property string, callback func(T)) bool {
	return SetValueFunc(n, field, value, property, func(a, b T) bool { return a == b }, callback)
}

// SetValueFunc is SetValue for types that need a structural equality.
func SetValueFunc[T any](n *Notifier, field *T, value T, property string, equal func(a, b T) bool, callback func(T)) bool {
	if n != nil {
		n.mu.Lock()
	}
	if equal(*field, value) {
		if n != nil {
			n.mu.Unlock()
		}
		return false
	}
	*field = value
	if n != nil {
		n.mu.Unlock()
	}

	if callback != nil {
		callback(value)
	}
	n.Notify(property)
	return true
}

// Load reads *field under n's lock.
func Load[T any](n *Notifier, field *T) T {
	if n == nil {
		return *field
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return *field
}
