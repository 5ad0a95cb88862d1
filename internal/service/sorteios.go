package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "rifas/internal/errors"
	"rifas/internal/logger"
	"rifas/internal/models"
	"rifas/internal/repository"
)

const entitySorteio = "sorteio"

// SorteioService manages the draws a tenant's raffles can point at
type SorteioService struct {
	repos *repository.Repositories
}

func NewSorteioService(repos *repository.Repositories) *SorteioService {
	return &SorteioService{repos: repos}
}

func (s *SorteioService) List(ctx context.Context, tenantID string, onlyActive bool) ([]models.Sorteio, error) {
	sorteios, err := s.repos.Sorteios.List(ctx, tenantID, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list sorteios: %w", err)
	}
	return sorteios, nil
}

func (s *SorteioService) Create(ctx context.Context, actor models.Actor, req *models.CreateSorteioRequest) (*models.Sorteio, error) {
	sorteio := &models.Sorteio{TenantID: actor.TenantID, Ativo: true}
	if req.Ativo != nil {
		sorteio.Ativo = req.Ativo.Bool()
	}
	if err := applySorteio(sorteio, &req.Nome, &req.Horario); err != nil {
		return nil, err
	}

	if err := s.repos.Sorteios.Create(ctx, sorteio); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: sorteio %q already exists", apperrors.ErrValidation, sorteio.Nome)
		}
		return nil, fmt.Errorf("failed to create sorteio: %w", err)
	}

	s.audit(ctx, actor, sorteio.ID, nil, sorteio)
	return sorteio, nil
}

// Update applies the fields present in req
func (s *SorteioService) Update(ctx context.Context, actor models.Actor, id string, req *models.UpdateSorteioRequest) (*models.Sorteio, error) {
	sorteio, err := s.get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	old := *sorteio

	if err := applySorteio(sorteio, req.Nome, req.Horario); err != nil {
		return nil, err
	}
	if req.Ativo != nil {
		sorteio.Ativo = req.Ativo.Bool()
	}

	found, err := s.repos.Sorteios.Update(ctx, sorteio)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: sorteio %q already exists", apperrors.ErrValidation, sorteio.Nome)
		}
		return nil, fmt.Errorf("failed to update sorteio: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("sorteio %s: %w", id, apperrors.ErrNotFound)
	}

	s.audit(ctx, actor, sorteio.ID, old, sorteio)
	return sorteio, nil
}

// Delete removes the sorteio. Raffles keep the name they were created with.
func (s *SorteioService) Delete(ctx context.Context, actor models.Actor, id string) error {
	sorteio, err := s.get(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}

	found, err := s.repos.Sorteios.Delete(ctx, actor.TenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete sorteio: %w", err)
	}
	if !found {
		return fmt.Errorf("sorteio %s: %w", id, apperrors.ErrNotFound)
	}

	s.audit(ctx, actor, id, sorteio, nil)
	return nil
}

func (s *SorteioService) get(ctx context.Context, tenantID, id string) (*models.Sorteio, error) {
	sorteio, err := s.repos.Sorteios.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sorteio: %w", err)
	}
	if sorteio == nil {
		return nil, fmt.Errorf("sorteio %s: %w", id, apperrors.ErrNotFound)
	}
	return sorteio, nil
}

func (s *SorteioService) audit(ctx context.Context, actor models.Actor, id string, oldValue, newValue interface{}) {
	if err := writeAudit(ctx, s.repos.Audit, actor, models.AuditSorteioChanged, entitySorteio, id, oldValue, newValue); err != nil {
		logger.WithContext(ctx).Error("Failed to audit sorteio change", "error", err, "sorteio_id", id)
	}
}

func applySorteio(sorteio *models.Sorteio, nome, horario *string) error {
	if nome != nil {
		sorteio.Nome = strings.TrimSpace(*nome)
		if sorteio.Nome == "" {
			return fmt.Errorf("%w: nome is required", apperrors.ErrValidation)
		}
	}
	if horario != nil {
		h, err := parseHorario(*horario)
		if err != nil {
			return err
		}
		sorteio.Horario = h
	}
	return nil
}

// parseHorario accepts HH:MM or HH:MM:SS and keeps HH:MM
func parseHorario(value string) (string, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("%w: horario %q must be HH:MM", apperrors.ErrValidation, value)
}

// requireActiveSorteio checks that nome is one of the tenant's active
// sorteios and returns its stored spelling
func requireActiveSorteio(ctx context.Context, repo *repository.SorteioRepository, tenantID, nome string) (string, error) {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		return "", fmt.Errorf("%w: local_sorteio is required", apperrors.ErrValidation)
	}
	sorteio, err := repo.GetActiveByName(ctx, tenantID, nome)
	if err != nil {
		return "", fmt.Errorf("failed to look up sorteio: %w", err)
	}
	if sorteio == nil {
		return "", fmt.Errorf("%w: local_sorteio %q is not an active sorteio", apperrors.ErrValidation, nome)
	}
	return sorteio.Nome, nil
}
