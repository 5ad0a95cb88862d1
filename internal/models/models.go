package models

import (
	"fmt"
	"strings"
	"time"

	"rifas/internal/numbering"
)

// FlexibleBool accepts JSON booleans, numbers and strings
type FlexibleBool bool

func (fb *FlexibleBool) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)

	switch strings.ToLower(str) {
	case "true", "1", "yes", "on", "sim":
		*fb = true
	case "false", "0", "no", "off", "nao", "não":
		*fb = false
	default:
		return fmt.Errorf("invalid boolean value: %s", str)
	}
	return nil
}

func (fb FlexibleBool) Bool() bool {
	return bool(fb)
}

// Auth

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type RegisterRequest struct {
	Email         string       `json:"email" binding:"required,email"`
	Password      string       `json:"password" binding:"required,min=6"`
	Name          string       `json:"name" binding:"required"`
	Phone         *string      `json:"phone,omitempty"`
	WhatsappOptIn FlexibleBool `json:"whatsapp_opt_in,omitempty"`
}

type MeResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	TenantID string `json:"tenant_id"`
}

// Raffles

type CreateRaffleRequest struct {
	Titulo           string     `json:"titulo" binding:"required"`
	Descricao        *string    `json:"descricao,omitempty"`
	PrecoNumero      Money      `json:"preco_numero" binding:"required,gt=0"`
	ValorPremio      Money      `json:"valor_premio"`
	TipoRifa         string     `json:"tipo_rifa" binding:"required,rifatipo"`
	LocalSorteio     string     `json:"local_sorteio" binding:"required"`
	DataSorteio      time.Time  `json:"data_sorteio" binding:"required"`
	HoraEncerramento *time.Time `json:"hora_encerramento,omitempty"`
	Status           string     `json:"status,omitempty" binding:"omitempty,rifastatus"`
}

type UpdateRaffleRequest struct {
	Titulo           *string    `json:"titulo,omitempty"`
	Descricao        *string    `json:"descricao,omitempty"`
	PrecoNumero      *Money     `json:"preco_numero,omitempty"`
	ValorPremio      *Money     `json:"valor_premio,omitempty"`
	LocalSorteio     *string    `json:"local_sorteio,omitempty"`
	DataSorteio      *time.Time `json:"data_sorteio,omitempty"`
	HoraEncerramento *time.Time `json:"hora_encerramento,omitempty"`
}

type UpdateRaffleStatusRequest struct {
	Status string `json:"status" binding:"required,rifastatus"`
}

// NumberView is a ticket number as shown to a given caller
type NumberView struct {
	ID            string       `json:"id"`
	Numero        string       `json:"numero"`
	Status        NumberStatus `json:"status"`
	PremioStatus  PrizeStatus  `json:"premio_status"`
	UserID        *string      `json:"user_id"`
	PaymentID     *string      `json:"payment_id"`
	ReservedUntil *time.Time   `json:"reserved_until"`
	IsOwner       bool         `json:"is_owner"`
}

// ViewFor hides other users' ownership details
func (n *Number) ViewFor(userID string) NumberView {
	view := NumberView{
		ID:            n.ID,
		Numero:        n.Numero,
		Status:        n.Status,
		PremioStatus:  n.PremioStatus,
		ReservedUntil: n.ReservedUntil,
	}
	if userID != "" && n.OwnedBy(userID) {
		view.IsOwner = true
		view.UserID = n.UserID
		view.PaymentID = n.PaymentID
	}
	return view
}

// Reservations and payments

type ReserveResponse struct {
	Message   string    `json:"message"`
	Numero    string    `json:"numero"`
	PaymentID string    `json:"payment_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PixRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
}

type PixResponse struct {
	PaymentID string    `json:"payment_id"`
	QRCode    string    `json:"qr_code"`
	PixCode   string    `json:"pix_code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PixWebhookPayload struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

const (
	WebhookStatusPaid     = "paid"
	WebhookStatusCanceled = "canceled"
)

type MessageResponse struct {
	Message string `json:"message"`
}

// Purchase history

type PurchasedNumber struct {
	Numero       string       `json:"numero"`
	Status       NumberStatus `json:"status"`
	PremioStatus PrizeStatus  `json:"premio_status"`
	DataCompra   time.Time    `json:"data_compra"`
}

type MyRaffle struct {
	ID               string            `json:"id"`
	Titulo           string            `json:"titulo"`
	Status           RaffleStatus      `json:"status"`
	DataSorteio      time.Time         `json:"data_sorteio"`
	Resultado        *string           `json:"resultado"`
	NumerosComprados []PurchasedNumber `json:"numeros_comprados"`
}

type RecentWinner struct {
	UserName  string    `json:"user_name"`
	RifaTitle string    `json:"rifa_title"`
	Numero    string    `json:"numero"`
	DataGanho time.Time `json:"data_ganho"`
}

// Results and apuração

type RecordResultRequest struct {
	Resultado     string    `json:"resultado" binding:"required"`
	LocalSorteio  string    `json:"local_sorteio" binding:"required"`
	DataResultado time.Time `json:"data_resultado" binding:"required"`
}

type ApurarResponse struct {
	RifaID     string       `json:"rifa_id"`
	Status     RaffleStatus `json:"status"`
	Vencedor   string       `json:"numero_vencedor"`
	Ganhadores int          `json:"ganhadores"`
}

type ResultView struct {
	Valor         string    `json:"valor"`
	LocalSorteio  string    `json:"local_sorteio"`
	DataResultado time.Time `json:"data_resultado"`
	Apurado       bool      `json:"apurado"`
}

type WinnerView struct {
	Numero       string         `json:"numero"`
	Email        string         `json:"email"`
	Name         string         `json:"name"`
	TipoRifa     numbering.Tipo `json:"tipo_rifa"`
	LocalSorteio string         `json:"local_sorteio"`
}

type WinnersResponse struct {
	RifaID     string       `json:"rifa_id"`
	Resultado  *ResultView  `json:"resultado"`
	Ganhadores []WinnerView `json:"ganhadores"`
}

type RaffleSummary struct {
	RifaID               string       `json:"rifa_id"`
	Titulo               string       `json:"titulo"`
	Status               RaffleStatus `json:"status"`
	TotalArrecadado      Money        `json:"total_arrecadado"`
	TotalNumerosPagos    int          `json:"total_numeros_pagos"`
	ResultadoLancado     bool         `json:"resultado_lancado"`
	Resultado            *ResultView  `json:"resultado"`
	QuantidadeGanhadores int          `json:"quantidade_ganhadores"`
}

// Settings

type UpdateSettingsRequest struct {
	PixKey                    *string       `json:"pix_key,omitempty"`
	AcceptPix                 *FlexibleBool `json:"accept_pix,omitempty"`
	AcceptDebito              *FlexibleBool `json:"accept_debito,omitempty"`
	AcceptCredito             *FlexibleBool `json:"accept_credito,omitempty"`
	ReservationTimeoutMinutes *int          `json:"reservation_timeout_minutes,omitempty" binding:"omitempty,min=1,max=1440"`
	FechamentoMinutos         *int          `json:"fechamento_minutos,omitempty" binding:"omitempty,min=0,max=1440"`
}

// Sorteios

type CreateSorteioRequest struct {
	Nome    string        `json:"nome" binding:"required,max=255"`
	Horario string        `json:"horario" binding:"required"`
	Ativo   *FlexibleBool `json:"ativo,omitempty"`
}

type UpdateSorteioRequest struct {
	Nome    *string       `json:"nome,omitempty" binding:"omitempty,max=255"`
	Horario *string       `json:"horario,omitempty"`
	Ativo   *FlexibleBool `json:"ativo,omitempty"`
}

// Users

type UpdateUserRequest struct {
	IsActive      *FlexibleBool `json:"is_active,omitempty"`
	Role          *string       `json:"role,omitempty" binding:"omitempty,oneof=player admin global_admin"`
	Phone         *string       `json:"phone,omitempty"`
	WhatsappOptIn *FlexibleBool `json:"whatsapp_opt_in,omitempty"`
	Password      *string       `json:"password,omitempty" binding:"omitempty,min=6"`
}

// Page bounds a listing
type Page struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

const DefaultPageLimit = 100

// Normalize applies the default limit
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type UserList struct {
	Users  []User `json:"users"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// Audit and finance

type AuditQuery struct {
	EntityType string `form:"entity_type"`
	Action     string `form:"action"`
	ActorID    string `form:"user_id"`
	EntityID   string `form:"entity"`
	Page
}

type AuditPage struct {
	Logs   []AuditLog `json:"logs"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

type FinanceQuery struct {
	StartDate *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"end_date" time_format:"2006-01-02"`
}

// FinanceReport lists the latest payment records with the paid and
// reversed totals over the same filter
type FinanceReport struct {
	RifaID          string       `json:"rifa_id,omitempty"`
	Rifa            string       `json:"rifa,omitempty"`
	TotalArrecadado Money        `json:"total_arrecadado"`
	TotalCancelado  Money        `json:"total_cancelado"`
	Logs            []PaymentLog `json:"logs"`
}

type DashboardSummary struct {
	TotalArrecadado Money   `json:"total_arrecadado"`
	TotalCancelado  Money   `json:"total_cancelado"`
	TotalPagoCount  int     `json:"total_pago_count"`
	RifasAtivas     int     `json:"rifas_ativas"`
	RifasEncerradas int     `json:"rifas_encerradas"`
	UsuariosAtivos  int     `json:"usuarios_ativos"`
	TaxaConversao   float64 `json:"taxa_conversao"`
}
