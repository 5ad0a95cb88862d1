package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rifas/internal/config"
	"rifas/internal/handlers"
	"rifas/internal/middleware"
	"rifas/internal/platform"
	"rifas/internal/validation"
)

// Server is the HTTP API
type Server struct {
	router   *gin.Engine
	config   *config.Config
	platform *platform.Platform
}

// NewServer connects the platform, runs migrations and builds the router
func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.GinMode)

	if err := validation.Register(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	p, err := platform.Open(cfg, "api")
	if err != nil {
		return nil, err
	}

	if err := p.DB.RunMigrations(); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s := &Server{
		router:   gin.New(),
		config:   cfg,
		platform: p,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	svc := s.platform.Services
	h := handlers.FromServices(svc, s.platform.DB, s.config.Version)

	var idempotency middleware.IdempotencyStore
	if s.platform.Redis != nil {
		idempotency = s.platform.Redis
	}

	Routes(s.router, h, RouteConfig{
		Tokens:        svc.Auth,
		Tenants:       svc.Tenants,
		Idempotency:   idempotency,
		DefaultTenant: s.config.DefaultTenant,
		WebhookToken:  s.config.WebhookToken,
		CORSOrigins:   s.config.CORSOrigins,
	})
}

// RouteConfig carries the middleware dependencies of the router
type RouteConfig struct {
	Tokens        middleware.TokenValidator
	Tenants       middleware.TenantResolver
	Idempotency   middleware.IdempotencyStore
	DefaultTenant string
	WebhookToken  string
	CORSOrigins   []string
}

// Routes registers every endpoint on r
func Routes(r *gin.Engine, h *handlers.Handlers, rc RouteConfig) {
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(rc.CORSOrigins))
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")

	// The provider callback is not tenant scoped; payment ids are global.
	v1.POST("/webhooks/pix", middleware.WebhookToken(rc.WebhookToken), h.PixWebhook)

	tenant := v1.Group("", middleware.Tenant(rc.Tenants, rc.DefaultTenant))
	authed := middleware.Auth(rc.Tokens)

	authGroup := tenant.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/register", h.Register)
		authGroup.GET("/me", authed, h.Me)
	}

	rifas := tenant.Group("/rifas")
	{
		rifas.GET("/", h.ListRaffles)
		rifas.GET("/recent-winners", h.RecentWinners)
		rifas.GET("/user/minhas-rifas", authed, h.MyRaffles)
		rifas.GET("/:id", h.GetRaffle)
		rifas.GET("/:id/numeros", middleware.OptionalAuth(rc.Tokens), h.ListNumbers)
		rifas.POST("/:id/numeros/:numero/reservar", authed, middleware.Idempotency(rc.Idempotency), h.ReserveNumber)
	}

	tenant.POST("/pagamentos/pix", authed, h.CreatePix)
	tenant.GET("/sorteios", h.ListSorteios)

	admin := tenant.Group("/admin", authed, middleware.RequireAdmin())
	{
		admin.POST("/rifas", h.CreateRaffle)
		admin.PUT("/rifas/:id", h.UpdateRaffle)
		admin.PATCH("/rifas/:id/status", h.UpdateRaffleStatus)
		admin.POST("/rifas/:id/numeros/:numero/cancelar", h.CancelNumber)
		admin.POST("/rifas/:id/numeros/:numero/pagar", h.MarkNumberPaid)
		admin.POST("/rifas/:id/resultado", h.RecordResult)
		admin.POST("/rifas/:id/apurar", h.Apurar)
		admin.GET("/rifas/:id/ganhadores", h.Winners)
		admin.GET("/rifas/:id/resumo", h.Summary)
		admin.GET("/rifas/:id/relatorio.xlsx", h.PaymentsReport)
		admin.GET("/settings", h.GetSettings)
		admin.PUT("/settings", h.UpdateSettings)

		admin.GET("/sorteios", h.AdminListSorteios)
		admin.POST("/sorteios", h.CreateSorteio)
		admin.PUT("/sorteios/:id", h.UpdateSorteio)
		admin.DELETE("/sorteios/:id", h.DeleteSorteio)

		admin.GET("/users", h.ListUsers)
		admin.GET("/users/:id", h.GetUser)
		admin.PUT("/users/:id", h.UpdateUser)
		admin.GET("/auditoria", h.AuditLogs)
		admin.GET("/financeiro", h.Finance)
		admin.GET("/financeiro/rifas/:id", h.RaffleFinance)
		admin.GET("/dashboard/resumo", h.Dashboard)
	}
}

// Handler returns the router for the HTTP server and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Cleanup closes the platform connections
func (s *Server) Cleanup() error {
	slog.Info("Closing API connections")
	return s.platform.Close()
}
