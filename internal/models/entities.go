package models

import (
	"encoding/json"
	"time"

	"rifas/internal/numbering"
)

// Roles
const (
	RolePlayer      = "player"
	RoleAdmin       = "admin"
	RoleGlobalAdmin = "global_admin"
)

// IsAdminRole reports whether role may use the admin endpoints.
func IsAdminRole(role string) bool {
	return role == RoleAdmin || role == RoleGlobalAdmin
}

// Tenant is an isolated owner scope for raffles and users
type Tenant struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	Host      string    `json:"host" db:"host"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// User represents a player or an administrator of a tenant
type User struct {
	ID            string    `json:"id" db:"id"`
	TenantID      string    `json:"tenant_id" db:"tenant_id"`
	Email         string    `json:"email" db:"email"`
	Name          string    `json:"name" db:"name"`
	Phone         *string   `json:"phone,omitempty" db:"phone"`
	PasswordHash  string    `json:"-" db:"password_hash"`
	Role          string    `json:"role" db:"role"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	WhatsappOptIn bool      `json:"whatsapp_opt_in" db:"whatsapp_opt_in"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Sorteio is a draw a tenant's raffles can be tied to, such as a
// lottery extraction at a fixed time of day
type Sorteio struct {
	ID        string    `json:"id" db:"id"`
	TenantID  string    `json:"-" db:"tenant_id"`
	Nome      string    `json:"nome" db:"nome"`
	Horario   string    `json:"horario" db:"horario"`
	Ativo     bool      `json:"ativo" db:"ativo"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Raffle is a sellable pool of numbered tickets tied to a future draw
type Raffle struct {
	ID               string         `json:"id" db:"id"`
	TenantID         string         `json:"tenant_id" db:"tenant_id"`
	OwnerID          string         `json:"owner_id" db:"owner_id"`
	Titulo           string         `json:"titulo" db:"titulo"`
	Descricao        *string        `json:"descricao,omitempty" db:"descricao"`
	PrecoNumero      Money          `json:"preco_numero" db:"preco_numero"`
	ValorPremio      Money          `json:"valor_premio" db:"valor_premio"`
	TipoRifa         numbering.Tipo `json:"tipo_rifa" db:"tipo_rifa"`
	LocalSorteio     string         `json:"local_sorteio" db:"local_sorteio"`
	DataSorteio      time.Time      `json:"data_sorteio" db:"data_sorteio"`
	HoraEncerramento *time.Time     `json:"hora_encerramento,omitempty" db:"hora_encerramento"`
	Status           RaffleStatus   `json:"status" db:"status"`
	Resultado        *string        `json:"resultado,omitempty" db:"resultado"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// Number is one ticket of a raffle
type Number struct {
	ID            string       `json:"id" db:"id"`
	RifaID        string       `json:"rifa_id" db:"rifa_id"`
	TenantID      string       `json:"-" db:"tenant_id"`
	Numero        string       `json:"numero" db:"numero"`
	Status        NumberStatus `json:"status" db:"status"`
	PremioStatus  PrizeStatus  `json:"premio_status" db:"premio_status"`
	UserID        *string      `json:"user_id" db:"user_id"`
	PaymentID     *string      `json:"payment_id" db:"payment_id"`
	ReservedUntil *time.Time   `json:"reserved_until" db:"reserved_until"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// OwnedBy reports whether the number is claimed by userID
func (n *Number) OwnedBy(userID string) bool {
	return n.UserID != nil && *n.UserID == userID
}

// Result is the official drawn value of a raffle
type Result struct {
	ID            string         `json:"id" db:"id"`
	RifaID        string         `json:"rifa_id" db:"rifa_id"`
	TenantID      string         `json:"-" db:"tenant_id"`
	TipoRifa      numbering.Tipo `json:"tipo_rifa" db:"tipo_rifa"`
	Resultado     string         `json:"resultado" db:"resultado"`
	LocalSorteio  string         `json:"local_sorteio" db:"local_sorteio"`
	DataResultado time.Time      `json:"data_resultado" db:"data_resultado"`
	Apurado       bool           `json:"apurado" db:"apurado"`
	CreatedBy     string         `json:"created_by" db:"created_by"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// Winner links a winning paid number to its owner
type Winner struct {
	ID           string    `json:"id" db:"id"`
	RifaID       string    `json:"rifa_id" db:"rifa_id"`
	RifaNumeroID string    `json:"rifa_numero_id" db:"rifa_numero_id"`
	UserID       string    `json:"user_id" db:"user_id"`
	TenantID     string    `json:"-" db:"tenant_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// AdminSettings holds the per-tenant sales configuration
type AdminSettings struct {
	TenantID                  string    `json:"-" db:"tenant_id"`
	PixKey                    string    `json:"pix_key" db:"pix_key"`
	AcceptPix                 bool      `json:"accept_pix" db:"accept_pix"`
	AcceptDebito              bool      `json:"accept_debito" db:"accept_debito"`
	AcceptCredito             bool      `json:"accept_credito" db:"accept_credito"`
	ReservationTimeoutMinutes int       `json:"reservation_timeout_minutes" db:"reservation_timeout_minutes"`
	FechamentoMinutos         int       `json:"fechamento_minutos" db:"fechamento_minutos"`
	UpdatedAt                 time.Time `json:"updated_at" db:"updated_at"`
}

const (
	DefaultReservationTimeoutMinutes = 20
	DefaultFechamentoMinutos         = 20
)

// DefaultAdminSettings is used until an admin saves settings for a tenant
func DefaultAdminSettings(tenantID string) *AdminSettings {
	return &AdminSettings{
		TenantID:                  tenantID,
		AcceptPix:                 true,
		ReservationTimeoutMinutes: DefaultReservationTimeoutMinutes,
		FechamentoMinutos:         DefaultFechamentoMinutos,
	}
}

// AuditLog records a state change for later inspection
type AuditLog struct {
	ID         string          `json:"id" db:"id"`
	TenantID   *string         `json:"tenant_id" db:"tenant_id"`
	ActorID    *string         `json:"actor_id" db:"actor_id"`
	ActorRole  string          `json:"actor_role" db:"actor_role"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   string          `json:"entity_id" db:"entity_id"`
	OldValue   json.RawMessage `json:"old_value,omitempty" db:"old_value"`
	NewValue   json.RawMessage `json:"new_value,omitempty" db:"new_value"`
	IPAddress  *string         `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  *string         `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// Audit actions
const (
	AuditReserveNumber      = "RESERVE_NUMBER"
	AuditReservationExpired = "RESERVATION_EXPIRED_JOB"
	AuditRaffleClosed       = "RIFA_CLOSED_JOB"
	AuditPaymentConfirmed   = "PAYMENT_CONFIRMED_WEBHOOK"
	AuditPaymentCanceled    = "PAYMENT_CANCELED_WEBHOOK"
	AuditAdminCancelNumber  = "ADMIN_CANCEL_NUMBER"
	AuditAdminMarkPaid      = "ADMIN_MARK_PAID"
	AuditResultRecorded     = "RESULTADO_LANCADO"
	AuditRaffleSettled      = "RIFA_APURADA"
	AuditWinnerDefined      = "GANHADOR_DEFINIDO"
	AuditWinnerNotified     = "WINNER_NOTIFIED"
	AuditRaffleStatus       = "RIFA_STATUS"
	AuditSettingsUpdated    = "ADMIN_SETTINGS"
	AuditSorteioChanged     = "SORTEIO"
	AuditUserUpdated        = "ADMIN_UPDATE_USER"
)

// PaymentLog is the finance record of a payment or its reversal
type PaymentLog struct {
	ID        string    `json:"id" db:"id"`
	TenantID  string    `json:"-" db:"tenant_id"`
	RifaID    string    `json:"rifa_id" db:"rifa_id"`
	NumeroID  string    `json:"numero_id" db:"numero_id"`
	Numero    string    `json:"numero" db:"-"`
	UserID    *string   `json:"user_id" db:"user_id"`
	PaymentID string    `json:"payment_id" db:"payment_id"`
	Valor     Money     `json:"valor" db:"valor"`
	Metodo    string    `json:"metodo" db:"metodo"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

const (
	PaymentMethodPix     = "pix"
	PaymentMethodDebito  = "debito"
	PaymentMethodCredito = "credito"

	PaymentLogPago      = "pago"
	PaymentLogCancelado = "cancelado"
	PaymentLogEstornado = "estornado"
)

// BlockedEntity is an IP or user refused by the antifraud checks
type BlockedEntity struct {
	ID        string    `json:"id" db:"id"`
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	Type      string    `json:"type" db:"type"`
	Value     string    `json:"value" db:"value"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

const (
	BlockedIP   = "ip"
	BlockedUser = "user"
)
