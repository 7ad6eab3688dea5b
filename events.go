package streams

import (
	"fmt"

	"github.com/gokit/es"
)

// Handler defines a function type for representing a watcher of events.
type Handler func(interface{})

// Predicate enforces a filter on giving events for a watcher.
type Predicate func(interface{}) bool

//***************************************************************************
// Eventer
//***************************************************************************

// Eventer implements synchronous broadcast of lifecycle events to
// registered watchers by decorating the gokit es event implementation.
type Eventer struct {
	es es.EventStream
}

// NewEventer returns a instance of a Eventer.
func NewEventer() *Eventer {
	return &Eventer{es: es.New()}
}

// EventerWith returns a instance of a Eventer using provided es.EventStream.
func EventerWith(em es.EventStream) *Eventer {
	return &Eventer{es: em}
}

// Publish publishes a giving message to all watchers.
func (e *Eventer) Publish(m interface{}) {
	e.es.Publish(m)
}

// Subscribe adds a giving watcher using the provided handler and predicate.
func (e *Eventer) Subscribe(handler Handler, predicate Predicate) Stopper {
	sub := e.es.Subscribe(func(m interface{}) {
		handler(m)
	})
	if predicate == nil {
		return sub
	}
	return sub.WithPredicate(func(m interface{}) bool {
		return predicate(m)
	})
}

//***************************************************************************
// Lifecycle events
//***************************************************************************

// SubscriptionEvent is broadcast once a subscriber has accepted its
// subscription, before its start hook runs, so watchers always observe
// acceptance ahead of any terminal broadcast.
type SubscriptionEvent struct {
	ID           string
	Subscription Subscription
}

// Message implements the streams.LogMessage interface.
func (s SubscriptionEvent) Message() string {
	return fmt.Sprintf("subscriber %q accepted subscription", s.ID)
}

// TerminationEvent is broadcast exactly once when a subscriber's stream
// terminates. Err is non-nil only when Kind is ERRORED.
type TerminationEvent struct {
	ID   string
	Kind Termination
	Err  error
}

// Message implements the streams.LogMessage interface.
func (t TerminationEvent) Message() string {
	if t.Err != nil {
		return fmt.Sprintf("subscriber %q terminated with %s: %s", t.ID, t.Kind, t.Err)
	}
	return fmt.Sprintf("subscriber %q terminated with %s", t.ID, t.Kind)
}

// ViolationEvent describes a protocol signal which was rejected or
// dropped by a subscriber, with the operation it arrived through.
type ViolationEvent struct {
	ID  string
	Op  string
	Err error
}

// Message implements the streams.LogMessage interface.
func (v ViolationEvent) Message() string {
	if v.Err != nil {
		return fmt.Sprintf("subscriber %q dropped %s signal: %s", v.ID, v.Op, v.Err)
	}
	return fmt.Sprintf("subscriber %q dropped %s signal", v.ID, v.Op)
}
