package streams

import (
	"sync/atomic"
	"unsafe"
)

// AtomicBool implements a safe atomic boolean.
type AtomicBool struct {
	flag int32
}

// IsTrue returns true/false if giving atomic bool is in true state.
func (a *AtomicBool) IsTrue() bool {
	return atomic.LoadInt32(&a.flag) == 1
}

// Off sets the atomic bool as false.
func (a *AtomicBool) Off() {
	atomic.StoreInt32(&a.flag, 0)
}

// On sets the atomic bool as true.
func (a *AtomicBool) On() {
	atomic.StoreInt32(&a.flag, 1)
}

// TurnOn flips the atomic bool from false to true, returning true only
// for the single caller which performed the flip.
func (a *AtomicBool) TurnOn() bool {
	return atomic.CompareAndSwapInt32(&a.flag, 0, 1)
}

//***************************************************************************
// AtomicSubscription
//***************************************************************************

// subscriptionRef boxes a Subscription so the holder can swap it with
// pointer compare-and-set operations.
type subscriptionRef struct {
	sub Subscription
}

// cancelledRef marks a holder whose subscription has been released.
// The state is absorbing: no subscription can be collected after it.
var cancelledRef = new(subscriptionRef)

// AtomicSubscription holds the single subscription reference owned by a
// subscriber, moving it through three states: empty, active and
// cancelled. All transitions are lock-free, so a racing Cancel and
// Request can never both observe a live subscription once one caller
// has released it.
//
// The zero value is an empty holder ready for use.
type AtomicSubscription struct {
	ref unsafe.Pointer
}

// Collect stores sub if no subscription is held and cancellation has not
// occurred, returning true when the holder accepted it.
func (a *AtomicSubscription) Collect(sub Subscription) bool {
	next := &subscriptionRef{sub: sub}
	return atomic.CompareAndSwapPointer(&a.ref, nil, unsafe.Pointer(next))
}

// Release moves the holder into its cancelled state, returning the
// subscription held at the time. The boolean is true only for the single
// caller which performed the transition.
func (a *AtomicSubscription) Release() (Subscription, bool) {
	for {
		current := atomic.LoadPointer(&a.ref)
		if current == unsafe.Pointer(cancelledRef) {
			return nil, false
		}
		if atomic.CompareAndSwapPointer(&a.ref, current, unsafe.Pointer(cancelledRef)) {
			if current == nil {
				return nil, true
			}
			return (*subscriptionRef)(current).sub, true
		}
	}
}

// Get returns the currently held subscription, returning nil when the
// holder is empty or cancelled.
func (a *AtomicSubscription) Get() Subscription {
	ref := (*subscriptionRef)(atomic.LoadPointer(&a.ref))
	if ref == nil || ref == cancelledRef {
		return nil
	}
	return ref.sub
}

// Started returns true/false if a live subscription is currently held.
func (a *AtomicSubscription) Started() bool {
	return a.Get() != nil
}

// Cancelled returns true/false if the holder has been released.
func (a *AtomicSubscription) Cancelled() bool {
	return atomic.LoadPointer(&a.ref) == unsafe.Pointer(cancelledRef)
}
