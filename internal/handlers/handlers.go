package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rifas/internal/database"
	apperrors "rifas/internal/errors"
	"rifas/internal/i18n"
	"rifas/internal/logger"
	"rifas/internal/middleware"
	"rifas/internal/models"
	"rifas/internal/service"
)

type AuthAPI interface {
	Login(ctx context.Context, tenantID string, req *models.LoginRequest) (*models.TokenResponse, error)
	Register(ctx context.Context, tenantID string, req *models.RegisterRequest) (*models.TokenResponse, error)
	Me(ctx context.Context, actor models.Actor) (*models.MeResponse, error)
}

type RaffleAPI interface {
	Create(ctx context.Context, actor models.Actor, req *models.CreateRaffleRequest) (*models.Raffle, error)
	Update(ctx context.Context, actor models.Actor, rifaID string, req *models.UpdateRaffleRequest) (*models.Raffle, error)
	UpdateStatus(ctx context.Context, actor models.Actor, rifaID, status string) (*models.Raffle, error)
	Get(ctx context.Context, tenantID, rifaID string) (*models.Raffle, error)
	List(ctx context.Context, tenantID, status, q string) ([]models.Raffle, error)
	Numbers(ctx context.Context, tenantID, userID, rifaID string) ([]models.NumberView, error)
	MyRaffles(ctx context.Context, actor models.Actor) ([]models.MyRaffle, error)
	RecentWinners(ctx context.Context, tenantID string, limit int) ([]models.RecentWinner, error)
}

type ReservationAPI interface {
	Reserve(ctx context.Context, actor models.Actor, rifaID, numero string) (*models.ReserveResponse, error)
	AdminCancel(ctx context.Context, actor models.Actor, rifaID, numero string) (*models.MessageResponse, error)
	AdminMarkPaid(ctx context.Context, actor models.Actor, rifaID, numero, metodo string) (*models.MessageResponse, error)
}

type PaymentAPI interface {
	CreatePix(ctx context.Context, actor models.Actor, paymentID string) (*models.PixResponse, error)
	HandleWebhook(ctx context.Context, payload *models.PixWebhookPayload) error
}

type ResultAPI interface {
	Record(ctx context.Context, actor models.Actor, rifaID string, req *models.RecordResultRequest) (*models.Result, error)
	Apurar(ctx context.Context, actor models.Actor, rifaID string) (*models.ApurarResponse, error)
	Winners(ctx context.Context, tenantID, rifaID string) (*models.WinnersResponse, error)
	Summary(ctx context.Context, tenantID, rifaID string) (*models.RaffleSummary, error)
}

type SettingsAPI interface {
	Get(ctx context.Context, tenantID string) (*models.AdminSettings, error)
	Update(ctx context.Context, actor models.Actor, req *models.UpdateSettingsRequest) (*models.AdminSettings, error)
}

type ReportAPI interface {
	PaymentsWorkbook(ctx context.Context, tenantID, rifaID string) ([]byte, string, error)
}

type SorteioAPI interface {
	List(ctx context.Context, tenantID string, onlyActive bool) ([]models.Sorteio, error)
	Create(ctx context.Context, actor models.Actor, req *models.CreateSorteioRequest) (*models.Sorteio, error)
	Update(ctx context.Context, actor models.Actor, id string, req *models.UpdateSorteioRequest) (*models.Sorteio, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
}

type AdminAPI interface {
	ListUsers(ctx context.Context, tenantID string, page models.Page) (*models.UserList, error)
	GetUser(ctx context.Context, tenantID, userID string) (*models.User, error)
	UpdateUser(ctx context.Context, actor models.Actor, userID string, req *models.UpdateUserRequest) (*models.User, error)
	Audit(ctx context.Context, tenantID string, q models.AuditQuery) (*models.AuditPage, error)
	Finance(ctx context.Context, tenantID string, q models.FinanceQuery) (*models.FinanceReport, error)
	RaffleFinance(ctx context.Context, tenantID, rifaID string) (*models.FinanceReport, error)
	Dashboard(ctx context.Context, tenantID string) (*models.DashboardSummary, error)
}

// HealthChecker reports database health
type HealthChecker interface {
	CheckHealth(ctx context.Context) database.Health
}

type Deps struct {
	Auth         AuthAPI
	Raffles      RaffleAPI
	Reservations ReservationAPI
	Payments     PaymentAPI
	Results      ResultAPI
	Settings     SettingsAPI
	Reports      ReportAPI
	Sorteios     SorteioAPI
	Admin        AdminAPI
	DB           HealthChecker
	Version      string
}

type Handlers struct {
	auth         AuthAPI
	raffles      RaffleAPI
	reservations ReservationAPI
	payments     PaymentAPI
	results      ResultAPI
	settings     SettingsAPI
	reports      ReportAPI
	sorteios     SorteioAPI
	admin        AdminAPI
	db           HealthChecker
	version      string
}

func NewHandlers(deps Deps) *Handlers {
	return &Handlers{
		auth:         deps.Auth,
		raffles:      deps.Raffles,
		reservations: deps.Reservations,
		payments:     deps.Payments,
		results:      deps.Results,
		settings:     deps.Settings,
		reports:      deps.Reports,
		sorteios:     deps.Sorteios,
		admin:        deps.Admin,
		db:           deps.DB,
		version:      deps.Version,
	}
}

// FromServices wires the handlers to the service layer
func FromServices(s *service.Services, db HealthChecker, version string) *Handlers {
	return NewHandlers(Deps{
		Auth:         s.Auth,
		Raffles:      s.Raffles,
		Reservations: s.Reservations,
		Payments:     s.Payments,
		Results:      s.Results,
		Settings:     s.Settings,
		Reports:      s.Reports,
		Sorteios:     s.Sorteios,
		Admin:        s.Admin,
		DB:           db,
		Version:      version,
	})
}

type errorMapping struct {
	err       error
	status    int
	code      string
	messageID string
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", i18n.MsgInvalidCredentials},
	{apperrors.ErrInactiveUser, http.StatusForbidden, "INACTIVE_USER", i18n.MsgInactiveUser},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, "TOKEN_EXPIRED", i18n.MsgTokenExpired},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", i18n.MsgTokenExpired},
	{apperrors.ErrUserAlreadyExists, http.StatusConflict, "USER_ALREADY_EXISTS", i18n.MsgUserExists},
	{apperrors.ErrForbidden, http.StatusForbidden, "ACCESS_DENIED", i18n.MsgAccessDenied},
	{apperrors.ErrTenantNotFound, http.StatusNotFound, "TENANT_NOT_FOUND", i18n.MsgNotFound},
	{apperrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND", i18n.MsgNotFound},
	{apperrors.ErrNumberUnavailable, http.StatusConflict, "NUMBER_UNAVAILABLE", i18n.MsgNumberUnavailable},
	{apperrors.ErrRaffleNotActive, http.StatusBadRequest, "RAFFLE_NOT_ACTIVE", i18n.MsgRaffleNotActive},
	{apperrors.ErrRaffleNotClosed, http.StatusBadRequest, "RAFFLE_NOT_CLOSED", i18n.MsgRaffleNotClosed},
	{apperrors.ErrResultRequired, http.StatusBadRequest, "RESULT_REQUIRED", i18n.MsgResultRequired},
	{apperrors.ErrNoPaidNumbers, http.StatusBadRequest, "NO_PAID_NUMBERS", i18n.MsgNoPaidNumbers},
	{apperrors.ErrInvalidTransition, http.StatusBadRequest, "INVALID_TRANSITION", i18n.MsgInvalidTransition},
	{apperrors.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED", i18n.MsgRateLimited},
	{apperrors.ErrReservationExpired, http.StatusGone, "RESERVATION_EXPIRED", i18n.MsgReservationExpired},
	{apperrors.ErrPaymentProvider, http.StatusBadGateway, "PAYMENT_ERROR", i18n.MsgPaymentError},
	{apperrors.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR", i18n.MsgInvalidData},
}

// handleServiceError answers with the status and code of a known error.
// Unknown errors are logged and answered with a generic 500.
func handleServiceError(c *gin.Context, err error, action string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			c.JSON(m.status, gin.H{"error": i18n.T(m.messageID), "code": m.code})
			return
		}
	}

	logger.WithContext(c.Request.Context()).Error("Failed to "+action, "error", err)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": i18n.T(i18n.MsgUnexpected), "code": "INTERNAL"})
}

// badRequest answers a binding failure
func badRequest(c *gin.Context, err error) {
	logger.WithContext(c.Request.Context()).Debug("Invalid request", "error", err)
	c.JSON(http.StatusBadRequest, gin.H{"error": i18n.T(i18n.MsgInvalidData), "code": "VALIDATION_ERROR"})
}

func tenantID(c *gin.Context) string {
	if tenant, ok := middleware.CurrentTenant(c); ok {
		return tenant.ID
	}
	return ""
}

// actor returns the authenticated caller. The auth middleware guarantees one
// on protected routes.
func actor(c *gin.Context) models.Actor {
	a, _ := middleware.CurrentActor(c)
	return a
}

// Health - GET /health
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":   "ok",
		"service":  "rifas-api",
		"version":  h.version,
		"database": "ok",
	}
	status := http.StatusOK

	if h.db != nil {
		health := h.db.CheckHealth(c.Request.Context())
		resp["pool"] = health.Stats
		if !health.Healthy() {
			resp["status"] = "degraded"
			resp["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, resp)
}
