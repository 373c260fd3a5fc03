package sched

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ymgch/visasq-watch/internal/app"
)

type stubRunner struct {
	mu    sync.Mutex
	calls int
	block chan struct{}
	err   error
}

func (r *stubRunner) RunOnce(context.Context) (app.RunReport, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.block != nil {
		<-r.block
	}
	return app.RunReport{RunID: "scheduled"}, r.err
}

func (r *stubRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestRunNowRunsOnce(t *testing.T) {
	r := &stubRunner{}
	s := New(r, zap.NewNop())

	s.RunNow()

	if r.callCount() != 1 {
		t.Fatalf("expected one run, got %d", r.callCount())
	}
}

func TestTickSkipsOverlappingRun(t *testing.T) {
	r := &stubRunner{block: make(chan struct{})}
	s := New(r, zap.NewNop())

	done := make(chan struct{})
	go func() {
		s.tick()
		close(done)
	}()
	waitFor(t, func() bool { return r.callCount() == 1 })

	// Second tick arrives while the first run is still blocked.
	s.tick()
	if r.callCount() != 1 {
		t.Fatalf("overlapping tick should be skipped, got %d runs", r.callCount())
	}

	close(r.block)
	<-done

	s.tick()
	if r.callCount() != 2 {
		t.Fatalf("expected tick to run again after drain, got %d", r.callCount())
	}
}

func TestTickSurvivesRunError(t *testing.T) {
	r := &stubRunner{err: context.DeadlineExceeded}
	s := New(r, zap.NewNop())

	s.tick()
	s.tick()

	if r.callCount() != 2 {
		t.Fatalf("runs after a failure should continue, got %d", r.callCount())
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New(&stubRunner{}, zap.NewNop())
	if err := s.Start("not a schedule"); err == nil {
		t.Fatal("expected error for malformed schedule")
	}
}

func TestStartStop(t *testing.T) {
	s := New(&stubRunner{}, zap.NewNop())
	if err := s.Start("@every 1h"); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop()
}
