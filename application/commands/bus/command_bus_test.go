package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingCommand struct {
	Value string
}

func (c pingCommand) Validate() error {
	if c.Value == "" {
		return errors.New("value is required")
	}
	return nil
}

type recordingMetrics struct {
	names []string
	errs  []error
}

func (r *recordingMetrics) RecordCommandExecution(_ context.Context, name string, _ time.Duration, err error) {
	r.names = append(r.names, name)
	r.errs = append(r.errs, err)
}

func TestCommandBusDispatchesWithMiddleware(t *testing.T) {
	metrics := &recordingMetrics{}
	b := NewCommandBus(MetricsMiddleware(metrics))

	require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		return "pong:" + cmd.(pingCommand).Value, nil
	})))

	result, err := b.Send(context.Background(), pingCommand{Value: "x"})
	require.NoError(t, err)
	assert.Equal(t, "pong:x", result)
	assert.Equal(t, []string{"pingCommand"}, metrics.names)
}

func TestCommandBusValidatesBeforeDispatch(t *testing.T) {
	called := false
	b := NewCommandBus()
	require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		called = true
		return nil, nil
	})))

	_, err := b.Send(context.Background(), pingCommand{})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestCommandBusRejectsDuplicatesAndUnknown(t *testing.T) {
	b := NewCommandBus()
	h := CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) { return nil, nil })

	require.NoError(t, b.Register(pingCommand{}, h))
	assert.Error(t, b.Register(pingCommand{}, h))

	type otherCommand struct{ pingCommand }
	_, err := b.Send(context.Background(), otherCommand{pingCommand{Value: "x"}})
	assert.Error(t, err)
}

func TestCommandBusPreservesHandlerErrors(t *testing.T) {
	sentinel := errors.New("boom")
	b := NewCommandBus()
	require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		return nil, sentinel
	})))

	_, err := b.Send(context.Background(), pingCommand{Value: "x"})
	assert.ErrorIs(t, err, sentinel)
}
