package mocks

import (
	"math"
	"sync"

	"github.com/gokit/streams"
)

//****************************************
// Test Subscription Implementation
//****************************************

// SubscriptionImpl implements the streams.Subscription interface,
// recording every demand and cancellation signal it receives. The
// optional function fields inject behaviour on top of the recording.
type SubscriptionImpl struct {
	RequestFn func(int64)
	CancelFn  func()

	mu       sync.Mutex
	requests []int64
	cancels  int
}

// Request records n and invokes RequestFn when provided.
func (s *SubscriptionImpl) Request(n int64) {
	s.mu.Lock()
	s.requests = append(s.requests, n)
	s.mu.Unlock()

	if s.RequestFn != nil {
		s.RequestFn(n)
	}
}

// Cancel records the cancellation and invokes CancelFn when provided.
func (s *SubscriptionImpl) Cancel() {
	s.mu.Lock()
	s.cancels++
	s.mu.Unlock()

	if s.CancelFn != nil {
		s.CancelFn()
	}
}

// Requests returns a copy of all demand received so far.
func (s *SubscriptionImpl) Requests() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.requests))
	copy(out, s.requests)
	return out
}

// Cancels returns how many cancellation signals were received.
func (s *SubscriptionImpl) Cancels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancels
}

//****************************************
// Test Trackable Subscription
//****************************************

// TrackableImpl implements both the streams.Subscription and the optional
// streams.Trackable capability.
type TrackableImpl struct {
	SubscriptionImpl
	TerminatedFlag bool
}

// Terminated implements the streams.Trackable interface.
func (t *TrackableImpl) Terminated() bool {
	return t.TerminatedFlag
}

//****************************************
// Test Publisher Implementation
//****************************************

// PublisherImpl implements the streams.Publisher interface, replaying a
// scripted set of values to each subscriber while honoring requested
// demand, then delivering Err when set or completion otherwise.
type PublisherImpl struct {
	Items []interface{}
	Err   error
}

// Subscribe delivers a fresh subscription to sub and replays the script
// against the demand it requests.
func (p *PublisherImpl) Subscribe(sub streams.Subscriber) {
	state := &replay{items: p.Items, err: p.Err, sub: sub}
	state.handle = &SubscriptionImpl{
		RequestFn: state.deliver,
		CancelFn:  state.stop,
	}
	sub.OnSubscribe(state.handle)
}

// replay drives a single subscriber through the scripted sequence. The
// emitting flag trampolines re-entrant Request calls made from inside
// OnNext back into the already running drain loop.
type replay struct {
	sub    streams.Subscriber
	handle *SubscriptionImpl

	mu       sync.Mutex
	items    []interface{}
	err      error
	demand   int64
	pos      int
	emitting bool
	stopped  bool
}

func (r *replay) deliver(n int64) {
	r.mu.Lock()
	r.demand += n
	if r.demand < 0 {
		r.demand = math.MaxInt64
	}
	if r.emitting || r.stopped {
		r.mu.Unlock()
		return
	}
	r.emitting = true

	for !r.stopped && r.demand > 0 && r.pos < len(r.items) {
		item := r.items[r.pos]
		r.pos++
		r.demand--

		r.mu.Unlock()
		r.sub.OnNext(item)
		r.mu.Lock()
	}

	done := !r.stopped && r.pos == len(r.items)
	r.stopped = r.stopped || done
	r.emitting = false
	r.mu.Unlock()

	if done {
		if r.err != nil {
			r.sub.OnError(r.err)
			return
		}
		r.sub.OnComplete()
	}
}

func (r *replay) stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
}
