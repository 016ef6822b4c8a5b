package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hilthontt/spinwheel/internal/infrastructure/logging"
)

type countingReaper struct {
	calls atomic.Int32
	err   error
}

func (r *countingReaper) ReapExpired(context.Context) (int64, error) {
	r.calls.Add(1)
	return 2, r.err
}

func TestReaperRunsImmediatelyAndOnTick(t *testing.T) {
	reaper := &countingReaper{}
	job := NewSessionReaperJob(reaper, logging.NewNop(), 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		job.Start(context.Background())
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for reaper.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("should have run at least 3 times, ran %d", reaper.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	job.Stop()
	job.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Start should return after Stop")
	}
}

func TestReaperStopsOnContext(t *testing.T) {
	reaper := &countingReaper{err: errors.New("db down")}
	job := NewSessionReaperJob(reaper, logging.NewNop(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Start should return when the context is cancelled")
	}
	if reaper.calls.Load() != 1 {
		t.Fatalf("failing passes should not stop the job, got %d calls", reaper.calls.Load())
	}
}
