package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batchExpirer struct {
	mu      sync.Mutex
	batches []int
	calls   int
}

func (b *batchExpirer) ExpireDue(_ context.Context, limit int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.calls >= len(b.batches) {
		b.calls++
		return 0, nil
	}
	n := b.batches[b.calls]
	b.calls++
	if n > limit {
		n = limit
	}
	return n, nil
}

func TestExpireDueDrainsFullBatches(t *testing.T) {
	expirer := &batchExpirer{batches: []int{expirationBatchSize, expirationBatchSize, 3}}
	job := NewReservationExpirationJob(expirer, time.Hour)

	n, err := job.expireDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2*expirationBatchSize+3, n)
	assert.Equal(t, 3, expirer.calls)
}

type failingExpirer struct{}

func (failingExpirer) ExpireDue(context.Context, int) (int, error) {
	return 0, errors.New("db down")
}

func TestExpireDueStopsOnError(t *testing.T) {
	job := NewReservationExpirationJob(failingExpirer{}, time.Hour)
	_, err := job.expireDue(context.Background())
	assert.Error(t, err)
}

type countingCloser struct{ runs atomic.Int32 }

func (c *countingCloser) CloseDue(context.Context) (int, error) {
	c.runs.Add(1)
	return 1, nil
}

func TestJobRunsImmediatelyAndOnTicks(t *testing.T) {
	closer := &countingCloser{}
	job := NewRaffleClosingJob(closer, 10*time.Millisecond)

	job.Start(context.Background())
	assert.Eventually(t, func() bool { return closer.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	job.Stop()
	after := closer.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, closer.runs.Load())

	job.Stop()
}

type slowAnalyzer struct {
	active  atomic.Int32
	overlap atomic.Bool
	runs    atomic.Int32
}

func (s *slowAnalyzer) Analyze(context.Context) (int, error) {
	if s.active.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.active.Add(-1)
	s.runs.Add(1)
	time.Sleep(25 * time.Millisecond)
	return 0, nil
}

func TestJobRunsNeverOverlap(t *testing.T) {
	analyzer := &slowAnalyzer{}
	job := NewAntifraudJob(analyzer, 2*time.Millisecond)

	job.Start(context.Background())
	time.Sleep(100 * time.Millisecond)
	job.Stop()

	assert.False(t, analyzer.overlap.Load())
	assert.GreaterOrEqual(t, analyzer.runs.Load(), int32(2))
}

type stopAwareAnalyzer struct {
	stopped atomic.Bool
	late    atomic.Int32
}

func (s *stopAwareAnalyzer) Analyze(context.Context) (int, error) {
	if s.stopped.Load() {
		s.late.Add(1)
	}
	return 0, nil
}

func TestNoRunStartsAfterStop(t *testing.T) {
	for i := 0; i < 500; i++ {
		analyzer := &stopAwareAnalyzer{}
		job := NewAntifraudJob(analyzer, time.Microsecond)

		job.Start(context.Background())
		time.Sleep(time.Duration(i%5) * time.Microsecond)
		job.Stop()
		analyzer.stopped.Store(true)

		time.Sleep(50 * time.Microsecond)
		require.Zero(t, analyzer.late.Load(), "iteration %d", i)
	}
}

func TestStopBeforeStartIsSafe(t *testing.T) {
	job := NewRaffleClosingJob(&countingCloser{}, time.Millisecond)
	job.Stop()
}
