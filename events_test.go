package streams_test

import (
	"testing"

	"github.com/gokit/errors"
	"github.com/stretchr/testify/assert"

	"github.com/gokit/streams"
)

func TestEventerBroadcast(t *testing.T) {
	eventer := streams.NewEventer()

	var seen []interface{}
	sub := eventer.Subscribe(func(m interface{}) {
		seen = append(seen, m)
	}, nil)

	eventer.Publish("one")
	eventer.Publish("two")
	assert.Equal(t, []interface{}{"one", "two"}, seen)

	sub.Stop()
	eventer.Publish("three")
	assert.Equal(t, []interface{}{"one", "two"}, seen)
}

func TestEventerPredicate(t *testing.T) {
	eventer := streams.NewEventer()

	var terminals []streams.TerminationEvent
	eventer.Subscribe(func(m interface{}) {
		terminals = append(terminals, m.(streams.TerminationEvent))
	}, func(m interface{}) bool {
		_, ok := m.(streams.TerminationEvent)
		return ok
	})

	eventer.Publish(streams.SubscriptionEvent{ID: "x"})
	eventer.Publish(streams.TerminationEvent{ID: "x", Kind: streams.CANCELLED})

	assert.Len(t, terminals, 1)
	assert.Equal(t, streams.CANCELLED, terminals[0].Kind)
}

func TestEventMessages(t *testing.T) {
	accepted := streams.SubscriptionEvent{ID: "sub-1"}
	assert.Contains(t, accepted.Message(), "sub-1")

	terminal := streams.TerminationEvent{ID: "sub-1", Kind: streams.ERRORED, Err: errors.New("broke")}
	assert.Contains(t, terminal.Message(), "ERRORED")
	assert.Contains(t, terminal.Message(), "broke")

	clean := streams.TerminationEvent{ID: "sub-1", Kind: streams.COMPLETED}
	assert.Contains(t, clean.Message(), "COMPLETED")

	violation := streams.ViolationEvent{ID: "sub-1", Op: "OnNext"}
	assert.Contains(t, violation.Message(), "OnNext")

	violated := streams.ViolationEvent{ID: "sub-1", Op: "OnError", Err: errors.New("late")}
	assert.Contains(t, violated.Message(), "late")
}
