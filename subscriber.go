package streams

import (
	"fmt"

	"github.com/gokit/errors"
	"github.com/gokit/xid"
)

//***************************************************************************
// Hooks
//***************************************************************************

// Hooks defines the set of optional extension points a SubscriberImpl
// dispatches into while it enforces the streaming protocol. Override only
// the hooks you need; every field has a stated default.
//
// Happy-path hooks (OnStart, OnItem, OnFinish, OnCancelled) report failure
// by returning an error or by panicking; either way the failure is
// contained and routed into the error path. OnFailure and OnTerminated are
// not protected when running on the error path: a failure there has no
// further channel to be routed to and propagates to the caller.
type Hooks struct {
	// OnStart is invoked once the subscriber has accepted its
	// subscription. Defaults to requesting an Unbounded amount of items.
	OnStart func(Subscription) error

	// OnItem is invoked for every value the source delivers.
	// Defaults to doing nothing.
	OnItem func(interface{}) error

	// OnFinish is invoked when the source reports completion, before the
	// termination hook. Defaults to doing nothing.
	OnFinish func() error

	// OnFailure is invoked with every error reaching the error path.
	// Defaults to panicking with a ErrUnhandledError wrap: silently
	// discarded stream errors are rejected as a default.
	OnFailure func(error)

	// OnCancelled is invoked after this subscriber has released and
	// cancelled its subscription. Defaults to doing nothing.
	OnCancelled func() error

	// OnTerminated is invoked exactly once with the terminal event which
	// ended the stream, after the corresponding specific hook has run.
	// Defaults to doing nothing.
	OnTerminated func(Termination)
}

//***************************************************************************
// SubscriberImpl
//***************************************************************************

var (
	_ Subscriber   = (*SubscriberImpl)(nil)
	_ Subscription = (*SubscriberImpl)(nil)
	_ Trackable    = (*SubscriberImpl)(nil)
	_ Watchable    = (*SubscriberImpl)(nil)
)

// SubscriberImpl implements a protocol adapter for the Subscriber side of
// a push-based stream: it owns at most one Subscription, dispatches the
// inbound protocol callbacks into the user's Hooks and guarantees the
// termination contract (exactly one of COMPLETED, ERRORED or CANCELLED
// reaches the termination hook, which itself runs at most once).
//
// A SubscriberImpl adds no locking around hook invocation: it relies on
// the source serializing OnSubscribe, OnNext, OnError and OnComplete as
// the protocol requires, and is not safe against concurrent inbound
// signals. Request and Cancel however may be called from any goroutine,
// concurrently with inbound signals and with each other.
type SubscriberImpl struct {
	id     xid.ID
	log    Logs
	hooks  Hooks
	events *Eventer
	sub    AtomicSubscription

	// terminating latches when a terminal sequence has begun,
	// terminated when the termination hook has run.
	terminating AtomicBool
	terminated  AtomicBool
}

// NewSubscriber returns a new SubscriberImpl dispatching into the
// provided hooks.
func NewSubscriber(hooks Hooks) *SubscriberImpl {
	return NewSubscriberWith(DrainLog{}, hooks)
}

// NewSubscriberWith returns a new SubscriberImpl dispatching into the
// provided hooks and emitting protocol diagnostics into log.
func NewSubscriberWith(log Logs, hooks Hooks) *SubscriberImpl {
	if log == nil {
		log = DrainLog{}
	}
	return &SubscriberImpl{
		id:     xid.New(),
		log:    log,
		hooks:  hooks,
		events: NewEventer(),
	}
}

// ID returns the unique identity of the subscriber.
func (s *SubscriberImpl) ID() string {
	return s.id.String()
}

// String implements the Stringer interface.
func (s *SubscriberImpl) String() string {
	return fmt.Sprintf("streams.Subscriber<%s>", s.id)
}

// Watch adds giving function as a watcher of this subscriber's lifecycle
// events. Watchers receive SubscriptionEvent, TerminationEvent and
// ViolationEvent values synchronously on whatever goroutine produced them.
func (s *SubscriberImpl) Watch(fn func(interface{})) Stopper {
	return s.events.Subscribe(fn, nil)
}

//***************************************************************************
// Inbound protocol callbacks
//***************************************************************************

// OnSubscribe accepts the subscription linking this subscriber to its
// source, then runs the OnStart hook. A second subscription is rejected
// and cancelled, never overwritten. If Cancel was observed before any
// subscription arrived, the incoming subscription is cancelled on arrival
// and no demand is ever issued.
//
// A nil subscription panics: it marks a protocol defect in the source
// which this subscriber cannot recover from.
func (s *SubscriberImpl) OnSubscribe(sub Subscription) {
	if sub == nil {
		panic(errors.WrapOnly(ErrNilSubscription))
	}

	if !s.sub.Collect(sub) {
		s.rejectSubscription(sub)
		return
	}

	// Broadcast acceptance before the start hook runs: the hook may
	// drive the whole stream to its terminal event inline, and watchers
	// must observe acceptance before termination.
	s.events.Publish(SubscriptionEvent{ID: s.id.String(), Subscription: sub})

	if err := s.protect(func() error { return s.doStart(sub) }); err != nil {
		s.failWith(NewOpError(sub, err, nil))
	}
}

// OnNext delivers a value from the source into the OnItem hook. A hook
// failure is wrapped with the held subscription and the offending value
// and routed into the error path. Values arriving after termination are
// dropped.
//
// A nil value panics: it marks a protocol defect in the source.
func (s *SubscriberImpl) OnNext(value interface{}) {
	if value == nil {
		panic(errors.WrapOnly(ErrNilValue))
	}

	if s.terminating.IsTrue() {
		s.dropSignal("OnNext", nil)
		return
	}

	if err := s.protect(func() error { return s.doItem(value) }); err != nil {
		s.failWith(NewOpError(s.sub.Get(), err, value))
	}
}

// OnError delivers a terminal error from the source into the error path:
// the OnFailure hook runs, then the termination hook with ERRORED. Errors
// arriving after termination are dropped. The error path is deliberately
// unprotected: a hook failing here propagates to the caller, as no
// further error channel exists.
//
// A nil error panics: it marks a protocol defect in the source.
func (s *SubscriberImpl) OnError(err error) {
	if err == nil {
		panic(errors.WrapOnly(ErrNilError))
	}

	if !s.terminating.TurnOn() {
		s.dropSignal("OnError", err)
		return
	}

	s.deliverError(err)
}

// OnComplete delivers the source's completion signal into the OnFinish
// hook, then the termination hook with COMPLETED. A failure raised before
// the termination hook has run re-enters the error path; a failure inside
// the termination hook itself still reaches OnFailure but can never run a
// second termination hook. Completions arriving after termination are
// dropped.
func (s *SubscriberImpl) OnComplete() {
	if !s.terminating.TurnOn() {
		s.dropSignal("OnComplete", nil)
		return
	}

	err := s.protect(func() error {
		if err := s.doFinish(); err != nil {
			return err
		}
		s.finalize(COMPLETED, nil)
		return nil
	})
	if err != nil {
		s.deliverError(NewOpError(s.sub.Get(), err, nil))
	}
}

//***************************************************************************
// Outbound control operations
//***************************************************************************

// Request validates n and forwards it to the held subscription. Invalid
// demand aborts the stream: the subscription is released and cancelled
// and the failure enters the error path. Requests made while no live
// subscription is held are silently ignored, in particular after Cancel.
func (s *SubscriberImpl) Request(n int64) {
	if err := ValidateDemand(n); err != nil {
		s.abortRequest(err)
		return
	}

	err := s.protect(func() error {
		if sub := s.sub.Get(); sub != nil {
			sub.Request(n)
		}
		return nil
	})
	if err != nil {
		s.abortRequest(err)
	}
}

// RequestUnbounded requests the maximum representable demand, asking the
// source for every item it will ever emit.
func (s *SubscriberImpl) RequestUnbounded() {
	s.Request(Unbounded)
}

// Cancel releases the held subscription, forwards the cancellation to the
// source, then runs the OnCancelled hook and the termination hook with
// CANCELLED. The release happens exactly once no matter how many callers
// race on it, and no demand reaches the source afterwards. Cancelling
// before any subscription arrived is remembered: the terminal sequence
// runs now and a late subscription is cancelled on arrival.
//
// Failures from the forwarded cancellation or the OnCancelled hook are
// wrapped with the subscription captured before release and routed into
// the error path.
func (s *SubscriberImpl) Cancel() {
	prev, _ := s.sub.Release()

	err := s.protect(func() error {
		if prev != nil {
			prev.Cancel()
		}
		return nil
	})
	if err != nil {
		s.failWith(NewOpError(prev, err, nil))
		return
	}

	if !s.terminating.TurnOn() {
		// Already terminated: releasing the handle is all that is left.
		return
	}

	if err := s.protect(s.doCancelled); err != nil {
		s.deliverError(NewOpError(prev, err, nil))
		return
	}

	s.finalize(CANCELLED, nil)
}

//***************************************************************************
// Introspection
//***************************************************************************

// Upstream returns the subscription currently held, returning nil before
// OnSubscribe and after cancellation.
func (s *SubscriberImpl) Upstream() Subscription {
	return s.sub.Get()
}

// Started returns true/false if a live subscription is currently held.
func (s *SubscriberImpl) Started() bool {
	return s.sub.Started()
}

// Cancelled returns true/false if this subscriber has released its
// subscription through Cancel.
func (s *SubscriberImpl) Cancelled() bool {
	return s.sub.Cancelled()
}

// Terminated returns true/false if a terminal event has run its course,
// or if the held subscription exposes the Trackable capability and
// reports its stream terminated.
func (s *SubscriberImpl) Terminated() bool {
	if s.terminated.IsTrue() {
		return true
	}
	if tracker, ok := s.sub.Get().(Trackable); ok {
		return tracker.Terminated()
	}
	return false
}

//***************************************************************************
// Hook dispatch
//***************************************************************************

func (s *SubscriberImpl) doStart(sub Subscription) error {
	if s.hooks.OnStart != nil {
		return s.hooks.OnStart(sub)
	}
	s.RequestUnbounded()
	return nil
}

func (s *SubscriberImpl) doItem(value interface{}) error {
	if s.hooks.OnItem != nil {
		return s.hooks.OnItem(value)
	}
	return nil
}

func (s *SubscriberImpl) doFinish() error {
	if s.hooks.OnFinish != nil {
		return s.hooks.OnFinish()
	}
	return nil
}

func (s *SubscriberImpl) doCancelled() error {
	if s.hooks.OnCancelled != nil {
		return s.hooks.OnCancelled()
	}
	return nil
}

func (s *SubscriberImpl) doFailure(err error) {
	if s.hooks.OnFailure != nil {
		s.hooks.OnFailure(err)
		return
	}
	panic(errors.Wrap(ErrUnhandledError, "subscriber %q received error: %+s", s.id, err))
}

// deliverError runs the error path: the OnFailure hook, then the
// termination hook if it has not run yet. Callers must hold the
// terminating latch. Failures raised here are fatal and propagate.
func (s *SubscriberImpl) deliverError(err error) {
	s.doFailure(err)
	s.finalize(ERRORED, err)
}

// failWith routes a wrapped hook failure into the error path unless a
// terminal sequence has already begun, in which case it is dropped.
func (s *SubscriberImpl) failWith(err *OpError) {
	if !s.terminating.TurnOn() {
		s.dropSignal("error", err)
		return
	}
	s.deliverError(err)
}

// finalize runs the termination hook at most once per subscriber and
// broadcasts the matching TerminationEvent. The broadcast is deferred
// so watchers still receive their single terminal event when the
// termination hook itself fails.
func (s *SubscriberImpl) finalize(kind Termination, err error) {
	if !s.terminated.TurnOn() {
		return
	}
	defer s.events.Publish(TerminationEvent{ID: s.id.String(), Kind: kind, Err: err})
	if s.hooks.OnTerminated != nil {
		s.hooks.OnTerminated(kind)
	}
}

// abortRequest implements the demand-violation policy: release and cancel
// the subscription, then enter the error path with the failure.
func (s *SubscriberImpl) abortRequest(reason error) {
	prev, _ := s.sub.Release()
	if prev != nil {
		if err := s.protect(func() error { prev.Cancel(); return nil }); err != nil {
			s.log.Emit(ERROR, ViolationEvent{ID: s.id.String(), Op: "Cancel", Err: err})
		}
	}
	s.failWith(NewOpError(prev, reason, nil))
}

// rejectSubscription refuses a subscription which cannot be collected:
// either one is already held, which is a protocol violation by the
// source, or cancellation was observed first and the late arrival is
// cancelled without ever receiving demand.
func (s *SubscriberImpl) rejectSubscription(sub Subscription) {
	if err := s.protect(func() error { sub.Cancel(); return nil }); err != nil {
		s.log.Emit(ERROR, ViolationEvent{ID: s.id.String(), Op: "Cancel", Err: err})
	}

	if s.sub.Cancelled() {
		s.log.Emit(DEBUG, Message(fmt.Sprintf("subscriber %q cancelled late subscription", s.id)))
		return
	}

	err := errors.Wrap(ErrSubscriptionSet, "subscriber %q rejected extra subscription", s.id)
	violation := ViolationEvent{ID: s.id.String(), Op: "OnSubscribe", Err: err}
	s.log.Emit(ERROR, violation)
	s.events.Publish(violation)
}

// dropSignal records a signal ignored because a terminal sequence has
// already begun.
func (s *SubscriberImpl) dropSignal(op string, err error) {
	violation := ViolationEvent{ID: s.id.String(), Op: op, Err: err}
	s.log.Emit(WARN, violation)
	s.events.Publish(violation)
}

// protect invokes fn, converting a panic into a returned error so hook
// failures can be routed instead of escaping the adapter.
func (s *SubscriberImpl) protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = errors.WrapOnly(rerr)
				return
			}
			err = errors.Wrap(ErrHookPanic, "subscriber %q recovered: %+v", s.id, r)
		}
	}()
	return fn()
}
