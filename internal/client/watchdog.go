package client

import (
	"sync"
	"time"
)

// WatchdogState is the countdown state of the tracked reservation
type WatchdogState int

const (
	WatchdogIdle WatchdogState = iota
	WatchdogCounting
	WatchdogExpired
)

func (s WatchdogState) String() string {
	switch s {
	case WatchdogCounting:
		return "counting"
	case WatchdogExpired:
		return "expired"
	}
	return "idle"
}

const DefaultWatchdogInterval = time.Second

// Watchdog tracks the expiry of one reservation at a time and calls
// OnExpired once the server-supplied instant has passed.
type Watchdog struct {
	interval  time.Duration
	onExpired func(reservationID string)
	now       func() time.Time

	mu        sync.Mutex
	state     WatchdogState
	id        string
	expiresAt time.Time
	gen       uint64
	stop      chan struct{}
}

// NewWatchdog creates an idle watchdog. A non-positive interval falls back
// to DefaultWatchdogInterval.
func NewWatchdog(interval time.Duration, onExpired func(reservationID string)) *Watchdog {
	if interval <= 0 {
		interval = DefaultWatchdogInterval
	}
	return &Watchdog{
		interval:  interval,
		onExpired: onExpired,
		now:       time.Now,
	}
}

// Start tracks a reservation, replacing any previous one
func (w *Watchdog) Start(reservationID string, expiresAt time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopLocked()
	w.gen++
	w.state = WatchdogCounting
	w.id = reservationID
	w.expiresAt = expiresAt
	w.stop = make(chan struct{})

	go w.run(w.gen, w.stop)
}

// Cancel stops tracking. It is local only and safe to call at any time.
func (w *Watchdog) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == WatchdogIdle {
		return
	}
	w.stopLocked()
	w.gen++
	w.reset()
}

func (w *Watchdog) State() WatchdogState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Tracking returns the id of the tracked reservation, empty when idle
func (w *Watchdog) Tracking() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.id
}

// Remaining is the time left before expiry, zero when nothing counts down
func (w *Watchdog) Remaining() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != WatchdogCounting {
		return 0
	}
	if d := w.expiresAt.Sub(w.now()); d > 0 {
		return d
	}
	return 0
}

func (w *Watchdog) stopLocked() {
	if w.stop != nil {
		close(w.stop)
		w.stop = nil
	}
}

func (w *Watchdog) reset() {
	w.state = WatchdogIdle
	w.id = ""
	w.expiresAt = time.Time{}
}

// run is the single tick loop of one tracked reservation
func (w *Watchdog) run(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if w.tick(gen) {
			return
		}
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// tick reports whether the loop is done
func (w *Watchdog) tick(gen uint64) bool {
	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		return true
	}
	if w.now().Before(w.expiresAt) {
		w.mu.Unlock()
		return false
	}

	id := w.id
	w.state = WatchdogExpired
	w.stop = nil
	w.mu.Unlock()

	if w.onExpired != nil {
		w.onExpired(id)
	}

	w.mu.Lock()
	if gen == w.gen {
		w.reset()
	}
	w.mu.Unlock()
	return true
}
