package pool

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/kiranroy/workpool/queue"
	"github.com/kiranroy/workpool/task"
	"github.com/kiranroy/workpool/worker"
)

func TestBuilder_RejectsInconsistentBounds(t *testing.T) {
	_, err := NewBuilder().MinWorkers(5).MaxWorkers(2).Build()
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected a ConfigurationError, got %v", err)
	}
}

func TestBuilder_RejectsInitWorkersOutOfRange(t *testing.T) {
	_, err := NewBuilder().MinWorkers(2).MaxWorkers(10).InitWorkers(1).Build()
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected a ConfigurationError, got %v", err)
	}
}

func TestPresets_Bounds(t *testing.T) {
	presets := []*Builder{Blank(), Common(), CPUBound(), IOBound(), TimeBound()}
	for _, b := range presets {
		p, err := b.Build()
		if err != nil {
			t.Fatalf("preset failed to build: %v", err)
		}
		defer p.Close(2 * time.Second)

		active := p.ActiveCount()
		if active < p.cfg.minWorkers || active > p.cfg.maxWorkers {
			t.Fatalf("active count %d outside [%d, %d]", active, p.cfg.minWorkers, p.cfg.maxWorkers)
		}
	}
}

func TestThreadPool_Compute(t *testing.T) {
	p, err := Blank().Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer p.Close(2 * time.Second)

	const n = 50
	futures := make([]*task.Future[int], n)
	for i := 0; i < n; i++ {
		i := i
		futures[i] = Emplace(p, 0, func() (int, error) { return i * i, nil })
	}

	for i, future := range futures {
		value, err := future.Get()
		if err != nil {
			t.Fatalf("task %d failed: %v", i, err)
		}
		if value != i*i {
			t.Fatalf("task %d: expected %d, got %d", i, i*i, value)
		}
	}
}

func TestThreadPool_TaskExceptionDoesNotCrashPool(t *testing.T) {
	p, err := Blank().Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer p.Close(2 * time.Second)

	failing := Emplace(p, 0, func() (int, error) { panic("deliberate") })
	_, err = failing.Get()
	if err == nil {
		t.Fatal("expected the panic to surface as an error through the Future")
	}

	ok := Emplace(p, 0, func() (int, error) { return 7, nil })
	value, err := ok.Get()
	if err != nil || value != 7 {
		t.Fatalf("pool should still process tasks after a prior failure, got (%d, %v)", value, err)
	}
}

func TestThreadPool_ResizeGrowAndShrink(t *testing.T) {
	p, err := NewBuilder().MinWorkers(1).MaxWorkers(10).InitWorkers(2).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer p.Close(2 * time.Second)

	applied, _ := p.ResizeWorkers(6)
	if applied != 6 || p.ActiveCount() != 6 {
		t.Fatalf("expected 6 active workers, got applied=%d active=%d", applied, p.ActiveCount())
	}

	applied, _ = p.ResizeWorkers(3)
	if applied != 3 || p.ActiveCount() != 3 {
		t.Fatalf("expected 3 active workers, got applied=%d active=%d", applied, p.ActiveCount())
	}
}

func TestThreadPool_ResizeClampsToBounds(t *testing.T) {
	p, err := NewBuilder().MinWorkers(2).MaxWorkers(5).InitWorkers(3).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer p.Close(2 * time.Second)

	applied, _ := p.ResizeWorkers(0)
	if applied != 2 {
		t.Fatalf("ResizeWorkers(0) should clamp up to min_workers=2, got %d", applied)
	}

	applied, _ = p.ResizeWorkers(1 << 30)
	if applied != 5 {
		t.Fatalf("ResizeWorkers(huge) should clamp down to max_workers=5, got %d", applied)
	}
}

func TestThreadPool_ResizeSameValueTwiceIsIdempotent(t *testing.T) {
	p, err := NewBuilder().MinWorkers(1).MaxWorkers(10).InitWorkers(4).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer p.Close(2 * time.Second)

	p.ResizeWorkers(4)
	before := p.ActiveCount()
	p.ResizeWorkers(4)
	after := p.ActiveCount()

	if before != after {
		t.Fatalf("resizing to the same value changed active count: %d -> %d", before, after)
	}
}

func TestThreadPool_ReuseCancelledWorkersOnGrow(t *testing.T) {
	p, err := NewBuilder().MinWorkers(1).MaxWorkers(10).InitWorkers(4).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer p.Close(2 * time.Second)

	p.ResizeWorkers(1)
	p.mu.Lock()
	cancelledBefore := len(p.cancelled)
	p.mu.Unlock()
	if cancelledBefore == 0 {
		t.Fatal("expected shrink to move workers into the cancelled collection")
	}

	p.ResizeWorkers(4)
	p.mu.Lock()
	cancelledAfter := len(p.cancelled)
	p.mu.Unlock()
	if cancelledAfter >= cancelledBefore {
		t.Fatalf("expected growth to reuse cancelled workers, cancelled count %d -> %d", cancelledBefore, cancelledAfter)
	}
}

func TestThreadPool_RemoveCancelledPrunesOnResize(t *testing.T) {
	p, err := NewBuilder().MinWorkers(1).MaxWorkers(10).InitWorkers(4).RemoveCancelled(true).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer p.Close(2 * time.Second)

	p.ResizeWorkers(1)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		p.mu.Lock()
		allCancelled := true
		for _, w := range p.cancelled {
			if w.Status() != worker.Cancelled {
				allCancelled = false
			}
		}
		p.mu.Unlock()
		if allCancelled {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	p.ResizeWorkers(1) // triggers pruneCancelledLocked with nothing left to grow into
	p.mu.Lock()
	remaining := len(p.cancelled)
	p.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("expected RemoveCancelled to prune fully-cancelled workers, %d remain", remaining)
	}
}

func TestThreadPool_ReleaseThenCloseJoinsEveryWorker(t *testing.T) {
	p, err := Blank().Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if err := p.Close(2 * time.Second); err != nil {
		t.Fatalf("Close returned an error: %v", err)
	}

	report := p.Report()
	if report.Running != 0 || report.CancelWait != 0 {
		t.Fatalf("expected every worker Cancelled after Close, got %+v", report)
	}
}

func TestThreadPool_PendingTaskWaitsForResize(t *testing.T) {
	p, err := NewBuilder().MinWorkers(0).MaxWorkers(4).InitWorkers(0).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer p.Close(2 * time.Second)

	future := Emplace(p, 0, func() (int, error) { return 1, nil })

	select {
	case <-future.Done():
		t.Fatal("task should remain pending with zero active workers")
	case <-time.After(50 * time.Millisecond):
	}

	p.ResizeWorkers(1)

	value, err := future.Get()
	if err != nil || value != 1 {
		t.Fatalf("expected (1, nil) once a worker appeared, got (%d, %v)", value, err)
	}
}

func TestThreadPool_SubmitAfterReleaseResolvesCancelled(t *testing.T) {
	p, err := Blank().Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	p.Release()

	future := Emplace(p, 0, func() (int, error) { return 1, nil })

	_, err = future.Get()
	if !errors.Is(err, task.ErrCancelled) {
		t.Fatalf("expected task.ErrCancelled after release, got %v", err)
	}
}

func TestThreadPool_ReleaseCancelsQueuedTask(t *testing.T) {
	p, err := NewBuilder().MinWorkers(0).MaxWorkers(4).InitWorkers(0).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	future := Emplace(p, 0, func() (int, error) { return 1, nil })

	select {
	case <-future.Done():
		t.Fatal("task should remain queued with zero active workers")
	case <-time.After(50 * time.Millisecond):
	}

	p.Release()

	_, err = future.Get()
	if !errors.Is(err, task.ErrCancelled) {
		t.Fatalf("expected a task still queued at Release to resolve with task.ErrCancelled, got %v", err)
	}
}

func TestReport_Fprint(t *testing.T) {
	r := Report{Running: 2, CancelWait: 1, Cancelled: 3}
	var buf bytes.Buffer
	r.Fprint(&buf)

	if buf.Len() == 0 {
		t.Fatal("expected Fprint to write a non-empty report")
	}
}

func TestThreadPool_QueuePolicyMatchesBuilder(t *testing.T) {
	p, err := NewBuilder().Policy(queue.LIFO).InitWorkers(1).MinWorkers(1).MaxWorkers(4).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer p.Close(2 * time.Second)

	if p.Policy() != queue.LIFO {
		t.Fatalf("expected LIFO policy, got %v", p.Policy())
	}
}
