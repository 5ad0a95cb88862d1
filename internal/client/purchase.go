package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"rifas/internal/i18n"
	"rifas/internal/logger"
	"rifas/internal/models"
)

const refetchTimeout = 10 * time.Second

// PurchaseView is what the purchase screen shows at a given moment
type PurchaseView struct {
	RifaID      string
	Numbers     []models.NumberView
	Reservation *Reservation
	Instrument  *PaymentInstrument
	Notice      string
	Watchdog    WatchdogState
}

// PurchaseFlow drives one player's purchase: catalog, reservation, PIX
// instrument and the expiry countdown. The catalog is always re-fetched
// after a change instead of being patched locally.
type PurchaseFlow struct {
	client   *Client
	watchdog *Watchdog

	mu          sync.Mutex
	rifaID      string
	numbers     []models.NumberView
	reservation *Reservation
	instrument  *PaymentInstrument
	notice      string

	released chan struct{}
}

// NewPurchaseFlow creates a flow whose watchdog ticks every interval
func NewPurchaseFlow(c *Client, interval time.Duration) *PurchaseFlow {
	f := &PurchaseFlow{client: c, released: make(chan struct{}, 1)}
	f.watchdog = NewWatchdog(interval, f.expired)
	return f
}

// Released signals every reservation release after its catalog refetch
func (f *PurchaseFlow) Released() <-chan struct{} {
	return f.released
}

// Load fetches the catalog of a raffle and makes it the current one
func (f *PurchaseFlow) Load(ctx context.Context, rifaID string) ([]models.NumberView, error) {
	numbers, err := f.client.Catalog(ctx, rifaID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.rifaID = rifaID
	f.numbers = numbers
	f.mu.Unlock()
	return numbers, nil
}

// Buy reserves numero and requests its PIX instrument. The countdown
// starts as soon as the reservation exists, even when the instrument
// request fails. ErrReservationExpired is returned when the hold was
// released while the instrument was being requested.
func (f *PurchaseFlow) Buy(ctx context.Context, rifaID, numero string) (*PaymentInstrument, error) {
	res, err := f.client.Reserve(ctx, rifaID, numero)
	if err != nil {
		if errors.Is(err, ErrNumberUnavailable) {
			if _, lerr := f.Load(ctx, rifaID); lerr != nil {
				logger.WithContext(ctx).Warn("Failed to refresh catalog after conflict", "rifa_id", rifaID, "error", lerr)
			}
		}
		return nil, err
	}

	f.mu.Lock()
	f.rifaID = rifaID
	f.reservation = res
	f.instrument = nil
	f.notice = i18n.T(i18n.MsgReservationCreated, map[string]any{"Numero": res.Numero})
	f.mu.Unlock()

	f.watchdog.Start(res.PaymentID, res.ExpiresAt)

	if _, err := f.Load(ctx, rifaID); err != nil {
		logger.WithContext(ctx).Warn("Failed to refresh catalog after reservation", "rifa_id", rifaID, "error", err)
	}

	instrument, err := f.client.RequestPix(ctx, res.PaymentID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reservation == nil || f.reservation.PaymentID != res.PaymentID {
		return nil, ErrReservationExpired
	}
	f.instrument = instrument
	return instrument, nil
}

// Cancel stops tracking the current reservation locally. The server keeps
// the hold until it expires or is paid.
func (f *PurchaseFlow) Cancel() {
	f.watchdog.Cancel()

	f.mu.Lock()
	f.reservation = nil
	f.instrument = nil
	f.notice = ""
	f.mu.Unlock()
}

func (f *PurchaseFlow) View() PurchaseView {
	f.mu.Lock()
	defer f.mu.Unlock()

	view := PurchaseView{
		RifaID:   f.rifaID,
		Numbers:  append([]models.NumberView(nil), f.numbers...),
		Notice:   f.notice,
		Watchdog: f.watchdog.State(),
	}
	if f.reservation != nil {
		r := *f.reservation
		view.Reservation = &r
	}
	if f.instrument != nil {
		p := *f.instrument
		view.Instrument = &p
	}
	return view
}

// Remaining is the countdown shown next to the instrument
func (f *PurchaseFlow) Remaining() time.Duration {
	return f.watchdog.Remaining()
}

func (f *PurchaseFlow) expired(paymentID string) {
	f.mu.Lock()
	if f.reservation == nil || f.reservation.PaymentID != paymentID {
		f.mu.Unlock()
		return
	}
	rifaID := f.rifaID
	f.reservation = nil
	f.instrument = nil
	f.notice = i18n.T(i18n.MsgReservationReleased)
	f.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), refetchTimeout)
	defer cancel()

	if _, err := f.Load(ctx, rifaID); err != nil {
		logger.WithContext(ctx).Warn("Failed to refresh catalog after expiry", "rifa_id", rifaID, "error", err)
	}

	select {
	case f.released <- struct{}{}:
	default:
	}
}
