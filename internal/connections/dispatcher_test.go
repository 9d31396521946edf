package connections

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchReturnsResultOnSuccess(t *testing.T) {
	d := NewDispatcher("test-curator", DispatcherConfig{RequestsPerSecond: 100, Burst: 10})
	result, err := d.Dispatch(context.Background(), func(ctx context.Context) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestDispatchWrapsFailureAsAgentFailure(t *testing.T) {
	d := NewDispatcher("test-curator", DispatcherConfig{RequestsPerSecond: 100, Burst: 10})
	_, err := d.Dispatch(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)
	var agentErr *AgentError
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, KindAgentFailure, agentErr.Kind)
}

func TestDispatchOpensCircuitAfterConsecutiveFailures(t *testing.T) {
	d := NewDispatcher("test-curator", DispatcherConfig{
		RequestsPerSecond: 100, Burst: 10,
		Breaker: BreakerConfig{MaxFailures: 2, Timeout: time.Minute},
	})
	failing := func(ctx context.Context) (interface{}, error) { return nil, errors.New("boom") }

	_, _ = d.Dispatch(context.Background(), failing)
	_, _ = d.Dispatch(context.Background(), failing)
	assert.Equal(t, "open", d.State())

	_, err := d.Dispatch(context.Background(), func(ctx context.Context) (interface{}, error) {
		t.Fatal("should not be called while circuit is open")
		return nil, nil
	})
	require.Error(t, err)
	var agentErr *AgentError
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, KindAgentFailure, agentErr.Kind)
}

func TestDispatchTimesOutOnSlowCall(t *testing.T) {
	d := NewDispatcher("test-curator", DispatcherConfig{
		RequestsPerSecond: 100, Burst: 10, HardTimeout: 20 * time.Millisecond,
	})
	_, err := d.Dispatch(context.Background(), func(ctx context.Context) (interface{}, error) {
		select {
		case <-time.After(200 * time.Millisecond):
			return "late", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	require.Error(t, err)
	var agentErr *AgentError
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, KindTimeout, agentErr.Kind)
}
