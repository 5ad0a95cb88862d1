package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rifas/internal/models"
)

type recordingNotifier struct {
	events []*models.RaffleSettledEvent
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, event *models.RaffleSettledEvent) error {
	r.events = append(r.events, event)
	return r.err
}

type recordingIndexer struct {
	enabled bool
	rifas   []string
	err     error
}

func (r *recordingIndexer) Enabled() bool { return r.enabled }

func (r *recordingIndexer) Reindex(_ context.Context, tenantID, rifaID string) error {
	r.rifas = append(r.rifas, tenantID+"/"+rifaID)
	return r.err
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestRaffleSettledNotifies(t *testing.T) {
	notifier := &recordingNotifier{}
	h := NewHandlers(notifier, &recordingIndexer{})

	redeliver := h.processRaffleSettled(mustJSON(t, models.RaffleSettledEvent{TenantID: "t1", RifaID: "r1", Resultado: "1234"}))
	assert.False(t, redeliver)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, "1234", notifier.events[0].Resultado)

	notifier.err = errors.New("twilio down")
	assert.True(t, h.processRaffleSettled(mustJSON(t, models.RaffleSettledEvent{RifaID: "r1"})))
}

func TestUndecodableMessagesAreDropped(t *testing.T) {
	notifier := &recordingNotifier{}
	indexer := &recordingIndexer{enabled: true}
	h := NewHandlers(notifier, indexer)

	assert.False(t, h.processRaffleSettled([]byte("{")))
	assert.False(t, h.processNumberEvent(models.EventNumberPaid, []byte("nope")))
	assert.Empty(t, notifier.events)
	assert.Empty(t, indexer.rifas)
}

func TestNumberEventsReindexRaffle(t *testing.T) {
	indexer := &recordingIndexer{enabled: true}
	h := NewHandlers(&recordingNotifier{}, indexer)

	event := models.NumberEvent{TenantID: "t1", RifaID: "r1", Numero: "07", Status: models.NumberPaid}
	assert.False(t, h.processNumberEvent(models.EventNumberPaid, mustJSON(t, event)))
	assert.False(t, h.processRaffleEvent(models.EventRaffleClosed, mustJSON(t, models.RaffleEvent{TenantID: "t1", RifaID: "r2"})))
	assert.Equal(t, []string{"t1/r1", "t1/r2"}, indexer.rifas)

	indexer.err = errors.New("es timeout")
	assert.True(t, h.processNumberEvent(models.EventNumberPaid, mustJSON(t, event)))
}

func TestDisabledIndexerAcksWithoutWork(t *testing.T) {
	indexer := &recordingIndexer{}
	h := NewHandlers(&recordingNotifier{}, indexer)

	assert.False(t, h.processRaffleEvent(models.EventRaffleActivated, mustJSON(t, models.RaffleEvent{RifaID: "r1"})))
	assert.Empty(t, indexer.rifas)
}
