// Command workpoolstress is a reference consumer of the pool package:
// it submits a configurable number of synthetic tasks to a pool built
// from a named preset, retrying failed tasks with backoff between
// attempts, optionally paced by a rate limiter, and prints a
// throughput summary plus a worker-state report. It is not part of
// the core library.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kiranroy/workpool/internal/backoff"
	"github.com/kiranroy/workpool/pool"
	"github.com/kiranroy/workpool/queue"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "workpoolstress:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("workpoolstress", flag.ContinueOnError)
	presetName := fs.String("preset", "common", "pool preset: blank|common|cpu-bound|io-bound|time-bound")
	policyName := fs.String("policy", "fifo", "queue policy: fifo|lifo|prio|rand")
	tasks := fs.Int("tasks", 1000, "number of synthetic tasks to submit")
	workers := fs.Int("workers", 0, "override the preset's initial worker count (0 = preset default)")
	ratePerSec := fs.Float64("rate", 0, "max task submissions per second (0 = unlimited)")
	failRate := fs.Float64("fail-rate", 0, "probability a synthetic task fails on a given attempt (0..1)")
	maxAttempts := fs.Int("max-attempts", 1, "max attempts per task before giving up (1 = no retry)")
	backoffName := fs.String("backoff", "exponential", "retry backoff: exponential|jittered|decorrelated")
	if err := fs.Parse(args); err != nil {
		return err
	}

	builder, err := presetByName(*presetName)
	if err != nil {
		return err
	}
	policy, err := policyByName(*policyName)
	if err != nil {
		return err
	}
	builder.Policy(policy)

	p, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build pool: %w", err)
	}
	defer p.Close(10 * time.Second)

	if *workers > 0 {
		if _, err := p.ResizeWorkers(*workers); err != nil {
			return fmt.Errorf("resize workers: %w", err)
		}
	}

	var limiter *rate.Limiter
	if *ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(*ratePerSec), 1)
	}

	strategy := backoffStrategy(*backoffName)
	bar := progressbar.Default(int64(*tasks), "submitting")

	ctx := context.Background()
	group, groupCtx := errgroup.WithContext(ctx)

	start := time.Now()
	for i := 0; i < *tasks; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}

		priority := int8(rand.IntN(256) - 128)
		group.Go(func() error {
			return submitWithRetry(groupCtx, p, priority, *failRate, *maxAttempts, strategy)
		})
		_ = bar.Add(1)
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("await tasks: %w", err)
	}

	elapsed := time.Since(start)
	fmt.Printf("\nsubmitted %d tasks in %s (%.1f tasks/sec)\n",
		*tasks, elapsed.Round(time.Millisecond), float64(*tasks)/elapsed.Seconds())

	p.Report().Fprint(os.Stdout)
	return nil
}

var errSynthetic = errors.New("workpoolstress: synthetic task failure")

// submitWithRetry submits a synthetic task and, on failure, resubmits
// a fresh task up to maxAttempts times, waiting strategy.NextDelay
// between attempts. The pool never retries on its own; retrying is
// entirely this caller's concern.
func submitWithRetry(ctx context.Context, p *pool.ThreadPool, priority int8, failRate float64, maxAttempts int, strategy backoff.Strategy) error {
	strategy.Reset()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(strategy.NextDelay(attempt))
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}

		future := pool.Emplace(p, priority, func() (time.Duration, error) {
			return syntheticTask(failRate)
		})
		_, err := future.GetContext(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("giving up after %d attempts: %w", maxAttempts, lastErr)
}

// syntheticTask stands in for real work: a short, randomized sleep,
// timed so the caller can report how long it took, failing with
// probability failRate so -max-attempts has something to exercise.
func syntheticTask(failRate float64) (time.Duration, error) {
	d := time.Duration(rand.IntN(5)) * time.Millisecond
	time.Sleep(d)
	if failRate > 0 && rand.Float64() < failRate {
		return 0, errSynthetic
	}
	return d, nil
}

func backoffStrategy(name string) backoff.Strategy {
	const (
		initialDelay = 10 * time.Millisecond
		maxDelay     = time.Second
	)
	switch name {
	case "jittered":
		return &backoff.Jittered{InitialDelay: initialDelay, MaxDelay: maxDelay, JitterFactor: 0.2}
	case "decorrelated":
		return &backoff.DecorrelatedJitter{InitialDelay: initialDelay, MaxDelay: maxDelay}
	default:
		return backoff.Exponential{InitialDelay: initialDelay, MaxDelay: maxDelay}
	}
}

func presetByName(name string) (*pool.Builder, error) {
	switch name {
	case "blank":
		return pool.Blank(), nil
	case "common":
		return pool.Common(), nil
	case "cpu-bound":
		return pool.CPUBound(), nil
	case "io-bound":
		return pool.IOBound(), nil
	case "time-bound":
		return pool.TimeBound(), nil
	default:
		return nil, fmt.Errorf("unknown preset %q", name)
	}
}

func policyByName(name string) (queue.Policy, error) {
	switch name {
	case "fifo":
		return queue.FIFO, nil
	case "lifo":
		return queue.LIFO, nil
	case "prio":
		return queue.PRIO, nil
	case "rand":
		return queue.RAND, nil
	default:
		return 0, fmt.Errorf("unknown policy %q", name)
	}
}
