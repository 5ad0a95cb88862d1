package jobs

import (
	"context"
	"time"
)

type RaffleCloser interface {
	CloseDue(ctx context.Context) (int, error)
}

// RaffleClosingJob moves active raffles past their betting deadline to encerrada
type RaffleClosingJob struct {
	*ticker
}

func NewRaffleClosingJob(closer RaffleCloser, interval time.Duration) *RaffleClosingJob {
	return &RaffleClosingJob{ticker: newTicker("raffle_closing", interval, closer.CloseDue)}
}

func (j *RaffleClosingJob) Start(ctx context.Context) { j.start(ctx) }

func (j *RaffleClosingJob) Stop() { j.stop() }
