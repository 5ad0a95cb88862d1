package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rifas/internal/i18n"
	"rifas/internal/models"
	"rifas/internal/numbering"
)

func findNumber(numbers []models.NumberView, numero string) (models.NumberView, bool) {
	for _, n := range numbers {
		if n.Numero == numero {
			return n, true
		}
	}
	return models.NumberView{}, false
}

func TestMilharPurchaseExpiresAndReleasesNumber(t *testing.T) {
	clock := newTestClock()
	backend := newFakeBackend(numbering.Milhar, 20*time.Minute)
	backend.now = clock.Now
	c := newTestClient(t, backend, "u1", models.RolePlayer)
	ctx := context.Background()

	raffle, err := c.Raffle(ctx, testRifaID)
	require.NoError(t, err)
	assert.Equal(t, "5.00", raffle.PrecoNumero.String())

	flow := NewPurchaseFlow(c, 5*time.Millisecond)
	flow.watchdog.now = clock.Now
	numbers, err := flow.Load(ctx, testRifaID)
	require.NoError(t, err)
	require.Len(t, numbers, 10000)

	start := clock.Now()
	instrument, err := flow.Buy(ctx, testRifaID, "1234")
	require.NoError(t, err)
	assert.NotEmpty(t, instrument.QRCode)
	assert.NotEmpty(t, instrument.PixCode)

	view := flow.View()
	require.NotNil(t, view.Reservation)
	assert.Equal(t, "1234", view.Reservation.Numero)
	assert.True(t, view.Reservation.ExpiresAt.After(start))
	require.NotNil(t, view.Instrument)
	assert.Equal(t, WatchdogCounting, view.Watchdog)

	reserved, ok := findNumber(view.Numbers, "1234")
	require.True(t, ok)
	assert.Equal(t, models.NumberReserved, reserved.Status)
	assert.True(t, reserved.IsOwner)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, WatchdogCounting, flow.View().Watchdog)
	assert.Equal(t, 20*time.Minute, flow.Remaining())

	clock.Advance(20*time.Minute + time.Second)

	select {
	case <-flow.Released():
	case <-time.After(2 * time.Second):
		t.Fatal("reservation was not released")
	}

	view = flow.View()
	assert.Nil(t, view.Reservation)
	assert.Nil(t, view.Instrument)
	assert.Equal(t, "Tempo de reserva expirado! O número foi liberado.", view.Notice)
	assert.Eventually(t, func() bool { return flow.watchdog.State() == WatchdogIdle }, time.Second, time.Millisecond)

	released, ok := findNumber(view.Numbers, "1234")
	require.True(t, ok)
	assert.Equal(t, models.NumberFree, released.Status)
	assert.False(t, released.IsOwner)
	assert.Nil(t, released.UserID)
}

func TestPurchaseConflictRefetchesCatalog(t *testing.T) {
	backend := newFakeBackend(numbering.Dezena, time.Minute)
	backend.setStatus("13", models.NumberPaid, "u2")
	c := newTestClient(t, backend, "u1", models.RolePlayer)

	flow := NewPurchaseFlow(c, time.Millisecond)
	_, err := flow.Buy(context.Background(), testRifaID, "13")
	require.ErrorIs(t, err, ErrNumberUnavailable)

	view := flow.View()
	assert.Nil(t, view.Reservation)
	assert.Equal(t, WatchdogIdle, view.Watchdog)
	n, ok := findNumber(view.Numbers, "13")
	require.True(t, ok)
	assert.Equal(t, models.NumberPaid, n.Status)
	assert.False(t, n.IsOwner)
}

func TestPurchaseCancelIsLocal(t *testing.T) {
	backend := newFakeBackend(numbering.Dezena, time.Minute)
	c := newTestClient(t, backend, "u1", models.RolePlayer)

	flow := NewPurchaseFlow(c, time.Millisecond)
	_, err := flow.Buy(context.Background(), testRifaID, "05")
	require.NoError(t, err)
	assert.Equal(t, i18n.T(i18n.MsgReservationCreated, map[string]any{"Numero": "05"}), flow.View().Notice)

	flow.Cancel()
	flow.Cancel()

	view := flow.View()
	assert.Nil(t, view.Reservation)
	assert.Equal(t, WatchdogIdle, view.Watchdog)
	assert.Zero(t, flow.Remaining())

	numbers, err := c.Catalog(context.Background(), testRifaID)
	require.NoError(t, err)
	n, _ := findNumber(numbers, "05")
	assert.Equal(t, models.NumberReserved, n.Status)
}

func TestPurchaseExpiredDuringPixRequest(t *testing.T) {
	clock := newTestClock()
	backend := newFakeBackend(numbering.Dezena, time.Minute)
	backend.now = clock.Now
	c := newTestClient(t, backend, "u1", models.RolePlayer)

	flow := NewPurchaseFlow(c, time.Millisecond)
	flow.watchdog.now = clock.Now

	releasedDuringPix := false
	backend.beforePix = func() {
		clock.Advance(2 * time.Minute)
		select {
		case <-flow.Released():
			releasedDuringPix = true
		case <-time.After(2 * time.Second):
		}
	}

	instrument, err := flow.Buy(context.Background(), testRifaID, "42")
	require.ErrorIs(t, err, ErrReservationExpired)
	assert.Nil(t, instrument)
	assert.True(t, releasedDuringPix)
	assert.Equal(t, i18n.T(i18n.MsgReservationExpired), MapError(err))

	view := flow.View()
	assert.Nil(t, view.Reservation)
	assert.Nil(t, view.Instrument)
	n, ok := findNumber(view.Numbers, "42")
	require.True(t, ok)
	assert.Equal(t, models.NumberFree, n.Status)
}
