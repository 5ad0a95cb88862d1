package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"rifas/internal/metrics"
)

// ticker runs fn immediately and then on every interval. Runs happen on a
// single goroutine, so a slow run delays the next one instead of overlapping.
type ticker struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) (int, error)

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newTicker(name string, interval time.Duration, fn func(ctx context.Context) (int, error)) *ticker {
	return &ticker{name: name, interval: interval, fn: fn, done: make(chan struct{})}
}

func (t *ticker) start(ctx context.Context) {
	slog.Info("Starting job", "job", t.name, "interval", t.interval.String())

	t.ticker = time.NewTicker(t.interval)
	t.wg.Add(1)
	go t.loop(ctx)
}

func (t *ticker) loop(ctx context.Context) {
	defer t.wg.Done()

	for {
		if t.stopped(ctx) {
			slog.Info("Job stopped", "job", t.name)
			return
		}
		t.run(ctx)

		select {
		case <-t.ticker.C:
		case <-ctx.Done():
		case <-t.done:
		}
	}
}

func (t *ticker) stopped(ctx context.Context) bool {
	select {
	case <-t.done:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (t *ticker) run(ctx context.Context) {
	start := time.Now()
	n, err := t.fn(ctx)
	metrics.JobDuration.WithLabelValues(t.name).Observe(time.Since(start).Seconds())

	if err != nil {
		slog.Error("Job run failed", "job", t.name, "error", err, "processed", n)
		return
	}
	if n > 0 {
		slog.Info("Job run finished", "job", t.name, "processed", n, "elapsed", time.Since(start).String())
	}
}

// stop halts the ticker and waits for the run in progress. No run starts
// after stop returns.
func (t *ticker) stop() {
	t.stopOnce.Do(func() {
		if t.ticker != nil {
			t.ticker.Stop()
		}
		close(t.done)
	})
	t.wg.Wait()
}
