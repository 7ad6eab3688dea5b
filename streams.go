package streams

import "math"

//***************************************************************************
// Termination
//***************************************************************************

// Termination identifies which terminal event ended a subscriber's stream.
// Exactly one termination occurs per subscription.
type Termination uint8

// constants of terminal events a subscriber can experience.
const (
	COMPLETED Termination = iota + 1
	ERRORED
	CANCELLED
)

// String implements the Stringer interface.
func (t Termination) String() string {
	switch t {
	case COMPLETED:
		return "COMPLETED"
	case ERRORED:
		return "ERRORED"
	case CANCELLED:
		return "CANCELLED"
	}
	return "UNKNOWN"
}

//***************************************************************************
// Subscription
//***************************************************************************

// Unbounded is the maximum representable demand, used to request
// every item the source will ever emit.
const Unbounded = math.MaxInt64

// Subscription defines the single capability link between a subscriber
// and the source it is subscribed to. It must never be shared between
// subscribers.
type Subscription interface {
	// Request asks the source for up to n more items. Demand must be
	// a strictly positive count.
	Request(n int64)

	// Cancel asks the source to stop emitting. Safe to call more
	// than once.
	Cancel()
}

// Trackable defines an optional capability a Subscription may expose to
// allow introspection of whether its stream has already terminated.
// Implementations query for it with a type assertion.
type Trackable interface {
	Terminated() bool
}

//***************************************************************************
// Subscriber & Publisher
//***************************************************************************

// Subscriber defines the inbound callback surface of the streaming
// protocol. A source delivers OnSubscribe at most once, then any
// sequence of OnNext calls terminated by at most one of OnComplete or
// OnError, all serialized.
type Subscriber interface {
	OnSubscribe(Subscription)
	OnNext(interface{})
	OnError(error)
	OnComplete()
}

// Publisher defines the subscribe side of a source of values.
type Publisher interface {
	Subscribe(Subscriber)
}

//***********************************
//  Watchers
//***********************************

// Stopper defines a method which exposes a single method
// to remove giving watcher.
type Stopper interface {
	Stop()
}

// Watchable defines a in interface that exposes methods to add
// functions to be called on some status change of the implementing
// instance.
type Watchable interface {
	Watch(func(interface{})) Stopper
}
