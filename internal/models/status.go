package models

import "fmt"

// NumberStatus is the lifecycle status of a ticket number
type NumberStatus string

const (
	NumberFree      NumberStatus = "livre"
	NumberReserved  NumberStatus = "reservado"
	NumberPaid      NumberStatus = "pago"
	NumberExpired   NumberStatus = "expirado"
	NumberCancelled NumberStatus = "cancelado"
)

// ParseNumberStatus accepts only the five known statuses
func ParseNumberStatus(s string) (NumberStatus, error) {
	switch st := NumberStatus(s); st {
	case NumberFree, NumberReserved, NumberPaid, NumberExpired, NumberCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown number status %q", s)
}

// Claimable reports whether a new reservation may take the number
func (s NumberStatus) Claimable() bool {
	return s == NumberFree || s == NumberExpired
}

// UnmarshalText rejects unknown statuses when decoding JSON
func (s *NumberStatus) UnmarshalText(text []byte) error {
	st, err := ParseNumberStatus(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// PrizeStatus is the outcome of a paid number after apuração
type PrizeStatus string

const (
	PrizePending PrizeStatus = "PENDING"
	PrizeWinner  PrizeStatus = "WINNER"
	PrizeLoser   PrizeStatus = "LOSER"
)

// RaffleStatus is the lifecycle status of a raffle
type RaffleStatus string

const (
	RaffleDraft   RaffleStatus = "rascunho"
	RaffleActive  RaffleStatus = "ativa"
	RaffleClosed  RaffleStatus = "encerrada"
	RaffleSettled RaffleStatus = "apurada"
)

var raffleStatusOrder = map[RaffleStatus]int{
	RaffleDraft:   0,
	RaffleActive:  1,
	RaffleClosed:  2,
	RaffleSettled: 3,
}

// ParseRaffleStatus validates a raffle status string
func ParseRaffleStatus(s string) (RaffleStatus, error) {
	st := RaffleStatus(s)
	if _, ok := raffleStatusOrder[st]; !ok {
		return "", fmt.Errorf("unknown raffle status %q", s)
	}
	return st, nil
}

// CanTransitionTo allows only the next forward step. Settlement is not a
// manual transition, it happens through apuração.
func (s RaffleStatus) CanTransitionTo(next RaffleStatus) bool {
	from, ok := raffleStatusOrder[s]
	if !ok {
		return false
	}
	to, ok := raffleStatusOrder[next]
	if !ok || next == RaffleSettled {
		return false
	}
	return to == from+1
}

// Settleable reports whether results and apuração are accepted
func (s RaffleStatus) Settleable() bool {
	return s == RaffleClosed || s == RaffleSettled
}
