package pool

import (
	"fmt"
	"runtime"

	"github.com/kiranroy/workpool/queue"
)

// ConfigurationError reports, from Build, a builder whose bounds are
// internally inconsistent or whose init_workers falls outside
// [min_workers, max_workers]. ResizeWorkers clamps its argument to
// the bounds instead and does not return it.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "pool: configuration error: " + e.Reason
}

// config is the immutable snapshot a ThreadPool was built with.
type config struct {
	policy          queue.Policy
	maxWorkers      int
	minWorkers      int
	initWorkers     int
	removeCancelled bool
	pinToCPU        bool
}

// hardwareConcurrency returns runtime.NumCPU, falling back to 16 if
// the runtime reports zero or a negative value (never observed in
// practice, but the fallback keeps presets well-defined regardless).
func hardwareConcurrency() int {
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 16
}

// Builder accumulates ThreadPool configuration via chained setters,
// terminating in Build.
type Builder struct {
	cfg config
	err error
}

// NewBuilder returns a Builder seeded with the Blank preset's values.
func NewBuilder() *Builder {
	b := &Builder{}
	b.cfg = blankConfig()
	return b
}

// Policy sets the queue ordering policy.
func (b *Builder) Policy(p queue.Policy) *Builder {
	b.cfg.policy = p
	return b
}

// MaxWorkers sets the upper bound on active workers.
func (b *Builder) MaxWorkers(n int) *Builder {
	b.cfg.maxWorkers = n
	return b
}

// MinWorkers sets the lower bound on active workers.
func (b *Builder) MinWorkers(n int) *Builder {
	b.cfg.minWorkers = n
	return b
}

// InitWorkers sets the number of workers spawned at construction.
func (b *Builder) InitWorkers(n int) *Builder {
	b.cfg.initWorkers = n
	return b
}

// RemoveCancelled controls whether ResizeWorkers prunes workers that
// have reached Cancelled from the reuse pool, instead of keeping them
// around for a later Uncancel.
func (b *Builder) RemoveCancelled(v bool) *Builder {
	b.cfg.removeCancelled = v
	return b
}

// PinToCPU enables best-effort OS-thread CPU affinity pinning for
// every worker spawned by the pool.
func (b *Builder) PinToCPU(v bool) *Builder {
	b.cfg.pinToCPU = v
	return b
}

// Build validates the accumulated configuration and constructs a
// ThreadPool, starting init_workers workers immediately.
func (b *Builder) Build() (*ThreadPool, error) {
	if b.cfg.minWorkers > b.cfg.maxWorkers {
		return nil, &ConfigurationError{Reason: fmt.Sprintf(
			"min_workers (%d) > max_workers (%d)", b.cfg.minWorkers, b.cfg.maxWorkers)}
	}
	if b.cfg.initWorkers < b.cfg.minWorkers || b.cfg.initWorkers > b.cfg.maxWorkers {
		return nil, &ConfigurationError{Reason: fmt.Sprintf(
			"init_workers (%d) outside [min_workers, max_workers] = [%d, %d]",
			b.cfg.initWorkers, b.cfg.minWorkers, b.cfg.maxWorkers)}
	}

	p := newThreadPool(b.cfg)
	if _, err := p.ResizeWorkers(b.cfg.initWorkers); err != nil {
		return nil, err
	}
	return p, nil
}

// blankConfig returns the Blank preset's values.
func blankConfig() config {
	return config{
		policy:      queue.FIFO,
		maxWorkers:  16,
		initWorkers: 8,
		minWorkers:  1,
	}
}

// Blank is a small, general-purpose preset: 16 max, 8 initial, FIFO.
func Blank() *Builder {
	b := NewBuilder()
	b.cfg = blankConfig()
	return b
}

// Common scales to detected hardware concurrency H: H max, H/2
// initial, FIFO. A reasonable default for mixed workloads.
func Common() *Builder {
	h := hardwareConcurrency()
	b := NewBuilder()
	b.cfg = config{
		policy:      queue.FIFO,
		maxWorkers:  h,
		initWorkers: h / 2,
		minWorkers:  1,
	}
	return b
}

// CPUBound sizes the pool at about half the detected hardware
// concurrency H, for compute-heavy tasks: H/2+1 max, H/2 initial,
// FIFO.
func CPUBound() *Builder {
	h := hardwareConcurrency()
	b := NewBuilder()
	b.cfg = config{
		policy:      queue.FIFO,
		maxWorkers:  h/2 + 1,
		initWorkers: h / 2,
		minWorkers:  1,
	}
	return b
}

// IOBound favors a large worker count suited to tasks that spend most
// of their time blocked on I/O rather than a core: 200 max, 30
// initial, FIFO.
func IOBound() *Builder {
	b := NewBuilder()
	b.cfg = config{
		policy:      queue.FIFO,
		maxWorkers:  200,
		initWorkers: 30,
		minWorkers:  1,
	}
	return b
}

// TimeBound sizes the pool for tasks with a deadline at a fixed half
// of the detected hardware concurrency H: H/2 max, H/2 initial, FIFO.
func TimeBound() *Builder {
	h := hardwareConcurrency()
	b := NewBuilder()
	b.cfg = config{
		policy:      queue.FIFO,
		maxWorkers:  h / 2,
		initWorkers: h / 2,
		minWorkers:  1,
	}
	return b
}
