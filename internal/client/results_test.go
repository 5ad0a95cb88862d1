package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rifas/internal/models"
	"rifas/internal/numbering"
)

const apurarRoute = "/api/v1/admin/rifas/:id/apurar"

func TestDraftTruncatesToTypeWidth(t *testing.T) {
	r := NewResultReader(New("http://unused", nil))

	assert.Equal(t, "12", r.Draft(numbering.Dezena, "1234"))
	assert.Equal(t, "0123", r.Draft(numbering.Milhar, "01-23 "))
	assert.Equal(t, "", r.Draft(numbering.Centena, "abc"))
}

func TestComputeWithoutResultSkipsNetwork(t *testing.T) {
	backend := newFakeBackend(numbering.Dezena, time.Minute)
	r := NewResultReader(newTestClient(t, backend, "admin", models.RoleAdmin))

	assert.False(t, r.CanCompute(testRifaID))
	_, err := r.Compute(context.Background(), testRifaID)
	assert.ErrorIs(t, err, ErrResultRequired)
	assert.Equal(t, 0, backend.calls(apurarRoute))
}

func TestSubmitRejectsIncompleteInput(t *testing.T) {
	backend := newFakeBackend(numbering.Dezena, time.Minute)
	r := NewResultReader(newTestClient(t, backend, "admin", models.RoleAdmin))

	_, err := r.Submit(context.Background(), testRifaID, ResultInput{Resultado: "  ", LocalSorteio: "Loteria Federal", DataResultado: time.Now()})
	assert.ErrorIs(t, err, ErrValidation)
	assert.False(t, r.CanCompute(testRifaID))
}

func TestComputeTwiceYieldsSameWinners(t *testing.T) {
	backend := newFakeBackend(numbering.Milhar, time.Minute)
	backend.setStatus("1234", models.NumberPaid, "u1")
	backend.setStatus("4321", models.NumberPaid, "u2")
	r := NewResultReader(newTestClient(t, backend, "admin", models.RoleAdmin))
	ctx := context.Background()

	_, err := r.Submit(ctx, testRifaID, ResultInput{
		Resultado:     r.Draft(numbering.Milhar, "1234-5"),
		LocalSorteio:  "Loteria Federal",
		DataResultado: time.Now(),
	})
	require.NoError(t, err)
	require.True(t, r.CanCompute(testRifaID))

	first, err := r.Compute(ctx, testRifaID)
	require.NoError(t, err)
	second, err := r.Compute(ctx, testRifaID)
	require.NoError(t, err)

	assert.Equal(t, 2, backend.calls(apurarRoute))
	assert.Equal(t, 1, first.Ganhadores)
	assert.Equal(t, first.Ganhadores, second.Ganhadores)
	assert.Equal(t, "1234", second.Vencedor)

	winners, err := r.Load(ctx, testRifaID)
	require.NoError(t, err)
	assert.Len(t, winners.Ganhadores, second.Ganhadores)
	seen := map[string]bool{}
	for _, w := range winners.Ganhadores {
		assert.False(t, seen[w.Numero], "duplicate winner %s", w.Numero)
		seen[w.Numero] = true
	}
}

func TestLoadLearnsRecordedResult(t *testing.T) {
	backend := newFakeBackend(numbering.Dezena, time.Minute)
	backend.setStatus("34", models.NumberPaid, "u1")
	backend.result = &models.ResultView{Valor: "1234", LocalSorteio: "Loteria Federal"}
	r := NewResultReader(newTestClient(t, backend, "admin", models.RoleAdmin))

	_, err := r.Load(context.Background(), testRifaID)
	require.NoError(t, err)
	assert.True(t, r.CanCompute(testRifaID))

	resp, err := r.Compute(context.Background(), testRifaID)
	require.NoError(t, err)
	assert.Equal(t, "34", resp.Vencedor)
	assert.Equal(t, 1, resp.Ganhadores)
}
