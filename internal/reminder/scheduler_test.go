package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRunner struct {
	calls chan struct{}
}

func (r *countingRunner) RunOnce(ctx context.Context) (Result, error) {
	r.calls <- struct{}{}
	return Result{}, nil
}

func TestNewScheduler_RejectsBadSpec(t *testing.T) {
	_, err := NewScheduler("every hour please", &countingRunner{}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewScheduler_DefaultSpec(t *testing.T) {
	s, err := NewScheduler("", &countingRunner{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultSchedule, s.spec)
}

func TestScheduler_RunsAndStops(t *testing.T) {
	runner := &countingRunner{calls: make(chan struct{}, 10)}
	s, err := NewScheduler("@every 1s", runner, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	assert.Equal(t, 1, s.Entries())

	select {
	case <-runner.calls:
	case <-time.After(3 * time.Second):
		t.Fatal("sweep did not run")
	}

	cancel()
	select {
	case <-s.Stop().Done():
	case <-time.After(3 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
