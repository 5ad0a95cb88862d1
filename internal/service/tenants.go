package service

import (
	"context"
	"fmt"
	"strings"

	"rifas/internal/cache"
	apperrors "rifas/internal/errors"
	"rifas/internal/logger"
	"rifas/internal/models"
	"rifas/internal/repository"
)

type TenantService struct {
	repos *repository.Repositories
	cache *cache.RedisClient
}

func NewTenantService(repos *repository.Repositories, redis *cache.RedisClient) *TenantService {
	return &TenantService{repos: repos, cache: redis}
}

// Resolve finds a tenant by slug or host, going through the Redis cache
func (s *TenantService) Resolve(ctx context.Context, lookup string) (*models.Tenant, error) {
	lookup = normalizeHost(lookup)
	if lookup == "" {
		return nil, apperrors.ErrTenantNotFound
	}

	if s.cache != nil {
		tenant, err := s.cache.GetTenant(ctx, lookup)
		if err != nil {
			logger.WithContext(ctx).Warn("Tenant cache lookup failed", "error", err, "lookup", lookup)
		} else if tenant != nil {
			return tenant, nil
		}
	}

	tenant, err := s.repos.Tenants.GetBySlugOrHost(ctx, lookup)
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	if tenant == nil {
		return nil, apperrors.ErrTenantNotFound
	}

	if s.cache != nil {
		if err := s.cache.SetTenant(ctx, lookup, tenant); err != nil {
			logger.WithContext(ctx).Warn("Failed to cache tenant", "error", err, "lookup", lookup)
		}
	}
	return tenant, nil
}

// normalizeHost lowercases and drops the port of a Host header value
func normalizeHost(lookup string) string {
	lookup = strings.ToLower(strings.TrimSpace(lookup))
	if i := strings.LastIndex(lookup, ":"); i > 0 && !strings.Contains(lookup[i:], "]") {
		lookup = lookup[:i]
	}
	return lookup
}
