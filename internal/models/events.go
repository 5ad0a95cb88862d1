package models

import "time"

// NATS subjects
const (
	EventNumberReserved  = "number.reserved"
	EventNumberExpired   = "number.expired"
	EventNumberPaid      = "number.paid"
	EventNumberCancelled = "number.cancelled"
	EventRaffleActivated = "raffle.activated"
	EventRaffleUpdated   = "raffle.updated"
	EventRaffleClosed    = "raffle.closed"
	EventRaffleSettled   = "raffle.settled"
)

// NumberEvent is published on every ticket number transition
type NumberEvent struct {
	TenantID  string       `json:"tenant_id"`
	RifaID    string       `json:"rifa_id"`
	NumeroID  string       `json:"numero_id"`
	Numero    string       `json:"numero"`
	Status    NumberStatus `json:"status"`
	UserID    *string      `json:"user_id,omitempty"`
	PaymentID *string      `json:"payment_id,omitempty"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// RaffleEvent is published when a raffle changes status
type RaffleEvent struct {
	TenantID  string       `json:"tenant_id"`
	RifaID    string       `json:"rifa_id"`
	Status    RaffleStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
}

// RaffleSettledEvent carries the apuração outcome to the notifiers
type RaffleSettledEvent struct {
	TenantID  string    `json:"tenant_id"`
	RifaID    string    `json:"rifa_id"`
	Titulo    string    `json:"titulo"`
	Resultado string    `json:"resultado"`
	Vencedor  string    `json:"numero_vencedor"`
	WinnerIDs []string  `json:"winner_ids"`
	Timestamp time.Time `json:"timestamp"`
}
