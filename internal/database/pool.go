package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	healthTimeout = 2 * time.Second

	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

type PoolStats struct {
	MaxOpenConns int           `json:"max_open_connections"`
	OpenConns    int           `json:"open_connections"`
	InUse        int           `json:"in_use"`
	Idle         int           `json:"idle"`
	WaitCount    int64         `json:"wait_count"`
	WaitDuration time.Duration `json:"wait_duration"`
}

// Health is the result of one database health check
type Health struct {
	Status       string        `json:"status"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
	Stats        PoolStats     `json:"stats"`
}

func (h Health) Healthy() bool {
	return h.Status == StatusHealthy
}

func (db *DB) PoolStats() PoolStats {
	stats := db.Stats()
	return PoolStats{
		MaxOpenConns: stats.MaxOpenConnections,
		OpenConns:    stats.OpenConnections,
		InUse:        stats.InUse,
		Idle:         stats.Idle,
		WaitCount:    stats.WaitCount,
		WaitDuration: stats.WaitDuration,
	}
}

// CheckHealth pings the database and reports the pool usage
func (db *DB) CheckHealth(ctx context.Context) Health {
	start := time.Now()
	health := Health{Stats: db.PoolStats()}

	pingCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	err := db.PingContext(pingCtx)
	health.ResponseTime = time.Since(start)
	if err != nil {
		health.Status = StatusUnhealthy
		health.Error = err.Error()
		slog.Error("Database health check failed", "error", err)
		return health
	}
	health.Status = StatusHealthy
	return health
}

// QueryWithRetry retries read queries that fail on a dropped connection.
// Only use it outside transactions.
func (db *DB) QueryWithRetry(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	const maxAttempts = 3
	const backoff = 100 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		rows, err := db.QueryContext(ctx, query, args...)
		if err == nil {
			return rows, nil
		}

		lastErr = err
		if !IsRetryableError(err) {
			return nil, err
		}

		if attempt < maxAttempts {
			slog.Warn("Database read failed, retrying", "attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * backoff):
			}
		}
	}

	return nil, fmt.Errorf("query failed after %d attempts: %w", maxAttempts, lastErr)
}

var retryableErrors = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"driver: bad connection",
	"i/o timeout",
}

// IsRetryableError reports connection errors that may succeed on retry
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range retryableErrors {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
