// File: internal/infra/sched/expiry_worker_test.go
package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingSweeper struct {
	calls int64
	err   error
}

func (s *countingSweeper) SweepExpired(ctx context.Context) (int, error) {
	atomic.AddInt64(&s.calls, 1)
	return 1, s.err
}

func TestExpiryWorkerSweeps(t *testing.T) {
	sweeper := &countingSweeper{}
	logger := zerolog.Nop()
	w := NewExpiryWorker(10*time.Millisecond, sweeper, &logger)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := w.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run = %v, want deadline exceeded", err)
	}

	// One startup sweep plus at least one tick.
	if n := atomic.LoadInt64(&sweeper.calls); n < 2 {
		t.Fatalf("sweeps = %d, want at least 2", n)
	}
}

func TestExpiryWorkerSurvivesErrors(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("store down")}
	logger := zerolog.Nop()
	w := NewExpiryWorker(10*time.Millisecond, sweeper, &logger)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	_ = w.Run(ctx)

	if n := atomic.LoadInt64(&sweeper.calls); n < 2 {
		t.Fatalf("sweeps = %d, worker must keep ticking after errors", n)
	}
}
