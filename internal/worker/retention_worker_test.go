package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingSweeper struct {
	mu     sync.Mutex
	actors []string
	err    error
}

func (s *countingSweeper) Sweep(_ context.Context, actor string) (usecase.SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors = append(s.actors, actor)
	return usecase.SweepResult{}, s.err
}

func (s *countingSweeper) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actors)
}

func TestRetentionWorker_RunsUntilCancelled(t *testing.T) {
	s := &countingSweeper{}
	w := NewRetentionWorker(s, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return s.calls() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, retentionActor, s.actors[0])
}

func TestRetentionWorker_KeepsRunningAfterError(t *testing.T) {
	s := &countingSweeper{err: errors.New("db down")}
	w := NewRetentionWorker(s, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	assert.Eventually(t, func() bool { return s.calls() >= 2 }, time.Second, 5*time.Millisecond)
}
