package streams_test

import (
	"testing"

	"github.com/gokit/errors"
	"github.com/stretchr/testify/assert"

	"github.com/gokit/streams"
	"github.com/gokit/streams/mocks"
)

func TestValidateDemand(t *testing.T) {
	assert.NoError(t, streams.ValidateDemand(1))
	assert.NoError(t, streams.ValidateDemand(streams.Unbounded))

	assert.True(t, errors.IsAny(streams.ValidateDemand(0), streams.ErrInvalidDemand))
	assert.True(t, errors.IsAny(streams.ValidateDemand(-1), streams.ErrInvalidDemand))
}

func TestOpError(t *testing.T) {
	cause := errors.New("processing broke")
	handle := &mocks.SubscriptionImpl{}

	op := streams.NewOpError(handle, cause, 42)

	assert.True(t, errors.IsAny(op.Err, cause))
	assert.Equal(t, 42, op.Value)
	assert.Equal(t, streams.Subscription(handle), op.Subscription)
	assert.Equal(t, "processing broke (value: 42)", op.Error())
	assert.Equal(t, op.Error(), op.Message())
	assert.Equal(t, op.Err, op.Unwrap())
}

func TestOpErrorWithoutContext(t *testing.T) {
	cause := errors.New("bare failure")

	op := streams.NewOpError(nil, cause, nil)

	assert.Nil(t, op.Value)
	assert.Nil(t, op.Subscription)
	assert.Equal(t, "bare failure", op.Error())
}
