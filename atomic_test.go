package streams_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gokit/streams"
	"github.com/gokit/streams/mocks"
)

func TestAtomicBool(t *testing.T) {
	var flag streams.AtomicBool

	assert.False(t, flag.IsTrue())
	assert.True(t, flag.TurnOn())
	assert.False(t, flag.TurnOn())
	assert.True(t, flag.IsTrue())

	flag.Off()
	assert.False(t, flag.IsTrue())

	flag.On()
	assert.True(t, flag.IsTrue())
}

func TestAtomicSubscription(t *testing.T) {
	var holder streams.AtomicSubscription

	assert.Nil(t, holder.Get())
	assert.False(t, holder.Started())
	assert.False(t, holder.Cancelled())

	first := &mocks.SubscriptionImpl{}
	second := &mocks.SubscriptionImpl{}

	assert.True(t, holder.Collect(first))
	assert.False(t, holder.Collect(second))
	assert.Equal(t, streams.Subscription(first), holder.Get())
	assert.True(t, holder.Started())

	prev, ok := holder.Release()
	assert.True(t, ok)
	assert.Equal(t, streams.Subscription(first), prev)
	assert.True(t, holder.Cancelled())
	assert.Nil(t, holder.Get())

	prev, ok = holder.Release()
	assert.False(t, ok)
	assert.Nil(t, prev)

	assert.False(t, holder.Collect(second))
}

func TestAtomicSubscriptionReleaseBeforeCollect(t *testing.T) {
	var holder streams.AtomicSubscription

	prev, ok := holder.Release()
	assert.True(t, ok)
	assert.Nil(t, prev)
	assert.True(t, holder.Cancelled())

	assert.False(t, holder.Collect(&mocks.SubscriptionImpl{}))
}

func TestAtomicSubscriptionConcurrentRelease(t *testing.T) {
	var holder streams.AtomicSubscription
	holder.Collect(&mocks.SubscriptionImpl{})

	var wg sync.WaitGroup
	var wins int32
	results := make(chan bool, 20)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := holder.Release()
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	for ok := range results {
		if ok {
			wins++
		}
	}
	assert.Equal(t, int32(1), wins)
}
