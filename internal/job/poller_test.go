package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func TestNewPollerIntervals(t *testing.T) {
	poller := NewPoller(testTracer, &stubCatalog{}, &stubSweeper{}, 300, 60)
	if poller.catalogInterval != 5*time.Minute {
		t.Fatalf("expected 5m catalog interval, got %v", poller.catalogInterval)
	}
	if poller.sweepInterval != time.Minute {
		t.Fatalf("expected 1m sweep interval, got %v", poller.sweepInterval)
	}
}

func TestPollerStartRunsBothTasks(t *testing.T) {
	t.Parallel()

	catalog := &stubCatalog{}
	sweeper := &stubSweeper{}
	poller := NewPoller(testTracer, catalog, sweeper, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Start(ctx)
		close(done)
	}()

	eventually(t, func() bool { return catalog.calls.Load() > 0 && sweeper.calls.Load() > 0 })
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestPollerSkipsDisabledTasks(t *testing.T) {
	t.Parallel()

	catalog := &stubCatalog{}
	poller := NewPoller(testTracer, catalog, nil, 0, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	poller.Start(ctx)

	if catalog.calls.Load() != 0 {
		t.Fatalf("disabled catalog refresh should not run, got %d", catalog.calls.Load())
	}
}

func TestPollLoopKeepsRunningAfterError(t *testing.T) {
	t.Parallel()

	poller := NewPoller(testTracer, nil, nil, 0, 0)
	var calls atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go poller.pollLoop(ctx, "failing", 5*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return errors.New("boom")
	})

	eventually(t, func() bool { return calls.Load() >= 3 })
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

type stubCatalog struct {
	calls atomic.Int32
}

func (s *stubCatalog) RefreshCatalog(ctx context.Context) error {
	s.calls.Add(1)
	return nil
}

type stubSweeper struct {
	calls atomic.Int32
}

func (s *stubSweeper) Sweep() int {
	s.calls.Add(1)
	return 1
}
