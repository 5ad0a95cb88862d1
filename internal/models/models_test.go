package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumberStatus(t *testing.T) {
	for _, s := range []string{"livre", "reservado", "pago", "expirado", "cancelado"} {
		st, err := ParseNumberStatus(s)
		require.NoError(t, err)
		assert.Equal(t, NumberStatus(s), st)
	}

	_, err := ParseNumberStatus("bloqueado")
	assert.Error(t, err)

	var n Number
	err = json.Unmarshal([]byte(`{"numero":"1234","status":"vendido"}`), &n)
	assert.Error(t, err)
}

func TestClaimable(t *testing.T) {
	assert.True(t, NumberFree.Claimable())
	assert.True(t, NumberExpired.Claimable())
	assert.False(t, NumberReserved.Claimable())
	assert.False(t, NumberPaid.Claimable())
	assert.False(t, NumberCancelled.Claimable())
}

func TestRaffleStatusTransitions(t *testing.T) {
	assert.True(t, RaffleDraft.CanTransitionTo(RaffleActive))
	assert.True(t, RaffleActive.CanTransitionTo(RaffleClosed))

	assert.False(t, RaffleClosed.CanTransitionTo(RaffleSettled), "settlement only through apuração")
	assert.False(t, RaffleActive.CanTransitionTo(RaffleDraft))
	assert.False(t, RaffleDraft.CanTransitionTo(RaffleClosed))
	assert.False(t, RaffleSettled.CanTransitionTo(RaffleClosed))
	assert.False(t, RaffleStatus("x").CanTransitionTo(RaffleActive))
}

func TestMoney(t *testing.T) {
	cases := map[string]Money{
		"5":     500,
		"5.00":  500,
		"5.5":   550,
		"5,25":  525,
		"0.07":  7,
		"-1.50": -150,
	}
	for in, want := range cases {
		got, err := ParseMoney(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMoney("1.234")
	assert.Error(t, err)

	assert.Equal(t, "5.00", Money(500).String())
	assert.Equal(t, "0.07", Money(7).String())

	var r Raffle
	require.NoError(t, json.Unmarshal([]byte(`{"preco_numero":5.00,"valor_premio":"1500.50"}`), &r))
	assert.Equal(t, Money(500), r.PrecoNumero)
	assert.Equal(t, Money(150050), r.ValorPremio)

	out, err := json.Marshal(struct {
		Valor Money `json:"valor"`
	}{Valor: 500})
	require.NoError(t, err)
	assert.JSONEq(t, `{"valor":5.00}`, string(out))

	var scanned Money
	require.NoError(t, scanned.Scan([]byte("12.30")))
	assert.Equal(t, Money(1230), scanned)
}

func TestNumberViewFor(t *testing.T) {
	owner := "user-1"
	payment := "pay-1"
	n := Number{ID: "n1", Numero: "1234", Status: NumberReserved, UserID: &owner, PaymentID: &payment}

	mine := n.ViewFor(owner)
	assert.True(t, mine.IsOwner)
	assert.Equal(t, &payment, mine.PaymentID)

	theirs := n.ViewFor("user-2")
	assert.False(t, theirs.IsOwner)
	assert.Nil(t, theirs.UserID)
	assert.Nil(t, theirs.PaymentID)
	assert.Equal(t, NumberReserved, theirs.Status)

	anonymous := n.ViewFor("")
	assert.False(t, anonymous.IsOwner)
	assert.Nil(t, anonymous.UserID)
}
