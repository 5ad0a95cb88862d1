package jobs

import (
	"context"
	"time"
)

type FraudAnalyzer interface {
	Analyze(ctx context.Context) (int, error)
}

// AntifraudJob blocks IPs and users with abusive reservation patterns
type AntifraudJob struct {
	*ticker
}

func NewAntifraudJob(analyzer FraudAnalyzer, interval time.Duration) *AntifraudJob {
	return &AntifraudJob{ticker: newTicker("antifraud_analysis", interval, analyzer.Analyze)}
}

func (j *AntifraudJob) Start(ctx context.Context) { j.start(ctx) }

func (j *AntifraudJob) Stop() { j.stop() }
