package jobs

import (
	"context"
	"time"
)

const expirationBatchSize = 200

// ReservationExpirer releases reservations whose reserved_until has passed
type ReservationExpirer interface {
	ExpireDue(ctx context.Context, limit int) (int, error)
}

// ReservationExpirationJob returns overdue reservado numbers to livre
type ReservationExpirationJob struct {
	*ticker
	expirer ReservationExpirer
}

func NewReservationExpirationJob(expirer ReservationExpirer, interval time.Duration) *ReservationExpirationJob {
	j := &ReservationExpirationJob{expirer: expirer}
	j.ticker = newTicker("reservation_expiration", interval, j.expireDue)
	return j
}

func (j *ReservationExpirationJob) Start(ctx context.Context) { j.start(ctx) }

func (j *ReservationExpirationJob) Stop() { j.stop() }

// expireDue drains overdue reservations in batches
func (j *ReservationExpirationJob) expireDue(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := j.expirer.ExpireDue(ctx, expirationBatchSize)
		total += n
		if err != nil || n < expirationBatchSize {
			return total, err
		}
	}
}
