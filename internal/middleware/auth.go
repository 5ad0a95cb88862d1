package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rifas/internal/auth"
	apperrors "rifas/internal/errors"
	"rifas/internal/i18n"
	"rifas/internal/logger"
	"rifas/internal/models"
)

const (
	TenantHeader  = "X-Tenant"
	WebhookHeader = "X-Webhook-Token"

	actorKey  = "actor"
	tenantKey = "tenant"
)

type ctxKey string

const actorCtxKey ctxKey = "actor"

// TokenValidator turns a bearer token into claims
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// TenantResolver finds the tenant of a slug or host
type TenantResolver interface {
	Resolve(ctx context.Context, lookup string) (*models.Tenant, error)
}

func ContextWithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey, actor)
}

func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorCtxKey).(models.Actor)
	return actor, ok
}

// CurrentActor returns the authenticated caller of the request
func CurrentActor(c *gin.Context) (models.Actor, bool) {
	if v, ok := c.Get(actorKey); ok {
		actor, ok := v.(models.Actor)
		return actor, ok
	}
	return models.Actor{}, false
}

// CurrentTenant returns the tenant resolved for the request
func CurrentTenant(c *gin.Context) (*models.Tenant, bool) {
	if v, ok := c.Get(tenantKey); ok {
		tenant, ok := v.(*models.Tenant)
		return tenant, ok && tenant != nil
	}
	return nil, false
}

// Tenant resolves the tenant from X-Tenant when the header is sent, else
// from Host and then the fallback slug. An unknown X-Tenant is a 404.
func Tenant(resolver TenantResolver, fallback string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		lookups := []string{c.Request.Host, fallback}
		if header := strings.TrimSpace(c.GetHeader(TenantHeader)); header != "" {
			lookups = []string{header}
		}

		var tenant *models.Tenant
		var err error
		for _, lookup := range lookups {
			if strings.TrimSpace(lookup) == "" {
				continue
			}
			tenant, err = resolver.Resolve(ctx, lookup)
			if err == nil {
				break
			}
			if !errors.Is(err, apperrors.ErrTenantNotFound) {
				logger.WithContext(ctx).Error("Failed to resolve tenant", "error", err, "lookup", lookup)
				abort(c, http.StatusInternalServerError, "INTERNAL", i18n.MsgUnexpected)
				return
			}
		}
		if tenant == nil {
			abort(c, http.StatusNotFound, "TENANT_NOT_FOUND", i18n.MsgNotFound)
			return
		}

		SetTenant(c, tenant)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// authenticate validates the bearer token and stores the actor. It reports
// false after aborting the request.
func authenticate(c *gin.Context, validator TokenValidator, token string) bool {
	claims, err := validator.ValidateToken(token)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenExpired) {
			abort(c, http.StatusUnauthorized, "TOKEN_EXPIRED", i18n.MsgTokenExpired)
		} else {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", i18n.MsgTokenExpired)
		}
		return false
	}

	if tenant, ok := CurrentTenant(c); ok && claims.TenantID != tenant.ID && claims.Role != models.RoleGlobalAdmin {
		abort(c, http.StatusForbidden, "ACCESS_DENIED", i18n.MsgAccessDenied)
		return false
	}

	tenantID := claims.TenantID
	if tenant, ok := CurrentTenant(c); ok {
		tenantID = tenant.ID
	}

	actor := models.Actor{
		ID:        claims.UserID,
		Role:      claims.Role,
		TenantID:  tenantID,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	SetActor(c, actor)
	return true
}

// SetActor stores the caller on the gin and request contexts
func SetActor(c *gin.Context, actor models.Actor) {
	c.Set(actorKey, actor)
	ctx := ContextWithActor(c.Request.Context(), actor)
	c.Request = c.Request.WithContext(logger.ContextWithUserID(ctx, actor.ID))
}

// SetTenant stores the resolved tenant on the gin and request contexts
func SetTenant(c *gin.Context, tenant *models.Tenant) {
	c.Set(tenantKey, tenant)
	c.Request = c.Request.WithContext(logger.ContextWithTenantID(c.Request.Context(), tenant.ID))
}

// Auth requires a valid bearer token
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", i18n.MsgTokenExpired)
			return
		}
		if !authenticate(c, validator, token) {
			return
		}
		c.Next()
	}
}

// OptionalAuth authenticates when a bearer token is present. A bad token is
// still rejected.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" && !authenticate(c, validator, token) {
			return
		}
		c.Next()
	}
}

// RequireRole lets through callers whose role is one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", i18n.MsgTokenExpired)
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "ACCESS_DENIED", i18n.MsgAccessDenied)
	}
}

// RequireAdmin is RequireRole for the tenant and global admin roles
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin, models.RoleGlobalAdmin)
}

// WebhookToken checks the shared secret of the PIX provider callback. An
// empty secret disables the check.
func WebhookToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret != "" && subtle.ConstantTimeCompare([]byte(c.GetHeader(WebhookHeader)), []byte(secret)) != 1 {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", i18n.MsgAccessDenied)
			return
		}
		c.Next()
	}
}
