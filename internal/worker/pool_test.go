package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func sleepTask(d time.Duration, err error, executed *atomic.Int32) Task[error] {
	return func(ctx context.Context) error {
		if executed != nil {
			executed.Add(1)
		}
		if d > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return err
	}
}

func TestNewPool_Size(t *testing.T) {
	for in, want := range map[int]int{5: 5, 0: 1, -1: 1} {
		if p := NewPool[error](context.Background(), in); p.size != want {
			t.Errorf("expected %d workers for %d, got %d", want, in, p.size)
		}
	}
}

func TestPool_Execution(t *testing.T) {
	pool := NewPool[error](context.Background(), 2)
	pool.Start()

	var executed atomic.Int32
	const count = 10
	for i := 0; i < count; i++ {
		if !pool.Submit(sleepTask(0, nil, &executed)) {
			t.Fatalf("submit %d rejected", i)
		}
	}

	results := pool.Wait()
	if len(results) != count {
		t.Errorf("expected %d results, got %d", count, len(results))
	}
	if executed.Load() != count {
		t.Errorf("expected %d executed tasks, got %d", count, executed.Load())
	}
	submitted, completed := pool.Stats()
	if submitted != count || completed != count {
		t.Errorf("expected stats %d/%d, got %d/%d", count, count, submitted, completed)
	}
}

func TestPool_Concurrency(t *testing.T) {
	const workers = 3
	pool := NewPool[int32](context.Background(), workers)
	pool.Start()

	var active, peak atomic.Int32
	for i := 0; i < 12; i++ {
		pool.Submit(func(ctx context.Context) int32 {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			active.Add(-1)
			return n
		})
	}
	pool.Wait()

	if peak.Load() > workers {
		t.Errorf("expected at most %d concurrent tasks, saw %d", workers, peak.Load())
	}
	if peak.Load() < 2 {
		t.Errorf("expected tasks to overlap, peak %d", peak.Load())
	}
}

func TestPool_ErrorResults(t *testing.T) {
	pool := NewPool[error](context.Background(), 2)
	pool.Start()

	boom := errors.New("task error")
	pool.Submit(sleepTask(0, nil, nil))
	pool.Submit(sleepTask(0, boom, nil))
	pool.Submit(sleepTask(0, nil, nil))

	failed := 0
	for _, err := range pool.Wait() {
		if errors.Is(err, boom) {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("expected 1 failed result, got %d", failed)
	}
}

func TestPool_SubmitAfterClose(t *testing.T) {
	pool := NewPool[error](context.Background(), 1)
	pool.Start()
	pool.Close()

	if pool.Submit(sleepTask(0, nil, nil)) {
		t.Error("expected submit after close to be rejected")
	}
	// Close twice is safe
	pool.Close()
	for range pool.Results() {
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool[error](context.Background(), 1)
	pool.Start()
	pool.Shutdown()

	if pool.Submit(sleepTask(0, nil, nil)) {
		t.Error("expected submit after shutdown to be rejected")
	}
	if _, ok := <-pool.Results(); ok {
		t.Error("expected results closed after shutdown")
	}
}

func TestPool_ShutdownCancelsRunning(t *testing.T) {
	pool := NewPool[error](context.Background(), 2)
	pool.Start()

	var executed atomic.Int32
	pool.Submit(sleepTask(5*time.Second, nil, &executed))
	pool.Submit(sleepTask(5*time.Second, nil, &executed))

	for executed.Load() < 2 {
		time.Sleep(time.Millisecond)
	}

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("shutdown did not cancel running tasks")
	}
}

func TestPool_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool[error](ctx, 1)
	pool.Start()

	cancel()
	if pool.Submit(sleepTask(0, nil, nil)) {
		t.Error("expected submit to be rejected once the parent context is done")
	}
	pool.Shutdown()
}
