package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "rifas/internal/errors"
	"rifas/internal/models"
	"rifas/internal/repository"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestDecideReservation(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := timePtr(now.Add(10 * time.Minute))
	past := timePtr(now.Add(-time.Minute))

	tests := []struct {
		name   string
		number models.Number
		want   reservationDecision
	}{
		{"free", models.Number{Status: models.NumberFree}, decisionReserve},
		{"expired", models.Number{Status: models.NumberExpired}, decisionReserve},
		{"reserved by caller", models.Number{Status: models.NumberReserved, UserID: strPtr("u1"), PaymentID: strPtr("p1"), ReservedUntil: future}, decisionRecheckout},
		{"reserved by other user", models.Number{Status: models.NumberReserved, UserID: strPtr("u2"), PaymentID: strPtr("p2"), ReservedUntil: future}, decisionUnavailable},
		{"stale reservation of other user", models.Number{Status: models.NumberReserved, UserID: strPtr("u2"), PaymentID: strPtr("p2"), ReservedUntil: past}, decisionReserve},
		{"paid", models.Number{Status: models.NumberPaid, UserID: strPtr("u1")}, decisionUnavailable},
		{"cancelled", models.Number{Status: models.NumberCancelled}, decisionUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decideReservation(&tt.number, "u1", now))
		})
	}
}

func paidNumber(id, numero, user string) models.Number {
	return models.Number{ID: id, Numero: numero, Status: models.NumberPaid, UserID: strPtr(user)}
}

func TestClassifyNumbers(t *testing.T) {
	paid := []models.Number{
		paidNumber("c", "9999", "u3"),
		paidNumber("a", "1234", "u1"),
		paidNumber("b", "0001", "u2"),
	}

	winners, losers := classifyNumbers(paid, "1234")
	require.Len(t, winners, 1)
	assert.Equal(t, "a", winners[0].ID)
	assert.Equal(t, []string{"b", "c"}, numberIDs(losers))
}

func TestClassifyNumbersIsDeterministic(t *testing.T) {
	paid := []models.Number{
		paidNumber("n2", "34", "u2"),
		paidNumber("n1", "34", "u1"),
		paidNumber("n1", "34", "u1"),
		paidNumber("n3", "12", "u3"),
	}

	w1, l1 := classifyNumbers(paid, "34")
	w2, l2 := classifyNumbers(paid, "34")

	assert.Equal(t, []string{"n1", "n2"}, numberIDs(w1), "duplicate rows must not produce duplicate winners")
	assert.Equal(t, numberIDs(w1), numberIDs(w2))
	assert.Equal(t, numberIDs(l1), numberIDs(l2))
}

func TestClassifyNumbersWithoutWinner(t *testing.T) {
	winners, losers := classifyNumbers([]models.Number{paidNumber("a", "0000", "u1")}, "1111")
	assert.Empty(t, winners)
	assert.Len(t, losers, 1)
}

func TestWebhookTransition(t *testing.T) {
	assert.Equal(t, models.NumberPaid, webhookTransition(models.NumberReserved, models.WebhookStatusPaid))
	assert.Equal(t, models.NumberPaid, webhookTransition(models.NumberExpired, models.WebhookStatusPaid))
	assert.Equal(t, models.NumberStatus(""), webhookTransition(models.NumberPaid, models.WebhookStatusPaid))
	assert.Equal(t, models.NumberStatus(""), webhookTransition(models.NumberFree, models.WebhookStatusPaid))

	assert.Equal(t, models.NumberCancelled, webhookTransition(models.NumberReserved, models.WebhookStatusCanceled))
	assert.Equal(t, models.NumberCancelled, webhookTransition(models.NumberPaid, models.WebhookStatusCanceled))
	assert.Equal(t, models.NumberStatus(""), webhookTransition(models.NumberCancelled, models.WebhookStatusCanceled))
}

func TestCheckPayable(t *testing.T) {
	now := time.Now()

	live := &models.Number{Status: models.NumberReserved, ReservedUntil: timePtr(now.Add(time.Minute))}
	assert.NoError(t, checkPayable(live, now))

	overdue := &models.Number{Status: models.NumberReserved, ReservedUntil: timePtr(now.Add(-time.Second))}
	assert.ErrorIs(t, checkPayable(overdue, now), apperrors.ErrReservationExpired)

	released := &models.Number{Status: models.NumberFree}
	assert.ErrorIs(t, checkPayable(released, now), apperrors.ErrReservationExpired)

	paid := &models.Number{Status: models.NumberPaid, Numero: "0001"}
	assert.ErrorIs(t, checkPayable(paid, now), apperrors.ErrValidation)
}

func TestGroupPurchases(t *testing.T) {
	row := func(rifaID, titulo, numero string, premio models.PrizeStatus) repository.PurchaseRow {
		return repository.PurchaseRow{
			Raffle: models.Raffle{ID: rifaID, Titulo: titulo, Status: models.RaffleSettled},
			Number: models.Number{Numero: numero, Status: models.NumberPaid, PremioStatus: premio},
		}
	}

	grouped := groupPurchases([]repository.PurchaseRow{
		row("r2", "Moto", "0001", models.PrizeLoser),
		row("r2", "Moto", "1234", models.PrizeWinner),
		row("r1", "Pix", "07", models.PrizePending),
	})

	require.Len(t, grouped, 2)
	assert.Equal(t, "r2", grouped[0].ID)
	require.Len(t, grouped[0].NumerosComprados, 2)
	assert.Equal(t, models.PrizeWinner, grouped[0].NumerosComprados[1].PremioStatus)
	assert.Equal(t, "Pix", grouped[1].Titulo)

	assert.NotNil(t, groupPurchases(nil))
}

func TestApplySettings(t *testing.T) {
	settings := models.DefaultAdminSettings("t1")
	timeout := 5
	accept := models.FlexibleBool(true)

	applySettings(settings, &models.UpdateSettingsRequest{
		PixKey:                    strPtr("  pix@rifas.dev "),
		AcceptCredito:             &accept,
		ReservationTimeoutMinutes: &timeout,
	})

	assert.Equal(t, "pix@rifas.dev", settings.PixKey)
	assert.True(t, settings.AcceptCredito)
	assert.False(t, settings.AcceptDebito)
	assert.Equal(t, 5, settings.ReservationTimeoutMinutes)
	assert.Equal(t, models.DefaultFechamentoMinutos, settings.FechamentoMinutos)
}

func TestNormalizeHost(t *testing.T) {
	assert.Equal(t, "rifas.example.com", normalizeHost("Rifas.Example.com:8081"))
	assert.Equal(t, "demo", normalizeHost(" demo "))
	assert.Equal(t, "", normalizeHost(""))
}

func TestAuditEntryCarriesActor(t *testing.T) {
	actor := models.Actor{ID: "u1", Role: models.RoleAdmin, TenantID: "t1", IP: "10.0.0.1", UserAgent: "rifactl"}

	entry, err := auditEntry(actor, models.AuditReserveNumber, entityNumber, "n1", nil, map[string]string{"status": "reservado"})
	require.NoError(t, err)

	assert.Equal(t, "t1", *entry.TenantID)
	assert.Equal(t, "u1", *entry.ActorID)
	assert.Equal(t, models.RoleAdmin, entry.ActorRole)
	assert.Equal(t, "10.0.0.1", *entry.IPAddress)
	assert.Nil(t, entry.OldValue)
	assert.JSONEq(t, `{"status":"reservado"}`, string(entry.NewValue))

	system, err := auditEntry(models.SystemActor("t1"), models.AuditReservationExpired, entityNumber, "n1", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, system.ActorID)
	assert.Equal(t, "system", system.ActorRole)
}

func TestBuildPaymentsWorkbook(t *testing.T) {
	raffle := &models.Raffle{ID: "r1", Titulo: "Milhar da sorte"}
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	logs := []models.PaymentLog{
		{Numero: "1234", PaymentID: "p1", UserID: strPtr("u1"), Valor: 500, Metodo: models.PaymentMethodPix, Status: models.PaymentLogPago, CreatedAt: created},
		{Numero: "4321", PaymentID: "p2", Valor: 500, Metodo: models.PaymentMethodPix, Status: models.PaymentLogPago, CreatedAt: created},
		{Numero: "4321", PaymentID: "p2", Valor: 500, Metodo: models.PaymentMethodPix, Status: models.PaymentLogEstornado, CreatedAt: created},
	}

	buf, err := buildPaymentsWorkbook(raffle, logs)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(reportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 6)

	assert.Equal(t, "Milhar da sorte", rows[0][0])
	assert.Equal(t, "Número", rows[1][1])
	assert.Equal(t, []string{"2026-03-01 10:00:00", "1234", "p1", "u1", "pix", "pago", "5.00"}, rows[2])

	last := rows[5]
	assert.Equal(t, "Total", last[5])
	assert.Equal(t, "5.00", last[6])
}

func TestAnnounceWinners(t *testing.T) {
	assert.Equal(t, "nenhum", announceWinners(nil))
	assert.Equal(t, "1234 (Ana), 1234 (Bia)", announceWinners([]repository.WinnerDetail{
		{Numero: "1234", Name: "Ana"},
		{Numero: "1234", Name: "Bia"},
	}))
}
