package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rifas/internal/auth"
	apperrors "rifas/internal/errors"
	"rifas/internal/handlers"
	"rifas/internal/models"
)

type staticTenant struct{}

func (staticTenant) Resolve(_ context.Context, lookup string) (*models.Tenant, error) {
	if lookup == "demo" {
		return &models.Tenant{ID: "t1", Slug: "demo"}, nil
	}
	return nil, apperrors.ErrTenantNotFound
}

func newTestEngine(t *testing.T) (*gin.Engine, *auth.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := auth.NewTokenService("secret", "rifas", time.Hour)
	r := gin.New()
	Routes(r, handlers.NewHandlers(handlers.Deps{Version: "test"}), RouteConfig{
		Tokens:       tokens,
		Tenants:      staticTenant{},
		WebhookToken: "hook",
		CORSOrigins:  []string{"*"},
	})
	return r, tokens
}

func TestInfrastructureRoutes(t *testing.T) {
	r, _ := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"service":"rifas-api"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rifas_http_requests_total")
}

func TestProtectedRoutes(t *testing.T) {
	r, tokens := newTestEngine(t)

	player, err := tokens.GenerateToken("u1", "t1", "p@rifas.dev", "Ana", models.RolePlayer)
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"reserve needs a session", http.MethodPost, "/api/v1/rifas/r1/numeros/0001/reservar", "", http.StatusUnauthorized},
		{"pix needs a session", http.MethodPost, "/api/v1/pagamentos/pix", "", http.StatusUnauthorized},
		{"history needs a session", http.MethodGet, "/api/v1/rifas/user/minhas-rifas", "", http.StatusUnauthorized},
		{"admin rejects players", http.MethodPost, "/api/v1/admin/rifas/r1/apurar", player, http.StatusForbidden},
		{"webhook needs the shared token", http.MethodPost, "/api/v1/webhooks/pix", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("X-Tenant", "demo")
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestUnknownTenant(t *testing.T) {
	r, _ := newTestEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rifas/", nil)
	req.Header.Set("X-Tenant", "nope")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
