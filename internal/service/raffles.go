package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"rifas/internal/database"
	apperrors "rifas/internal/errors"
	"rifas/internal/logger"
	"rifas/internal/messaging"
	"rifas/internal/metrics"
	"rifas/internal/models"
	"rifas/internal/numbering"
	"rifas/internal/repository"
)

const (
	searchLimit        = 100
	defaultRecentLimit = 10
	maxRecentLimit     = 50
)

type RaffleService struct {
	db        *database.DB
	repos     *repository.Repositories
	publisher messaging.Publisher
	now       func() time.Time
}

func NewRaffleService(db *database.DB, repos *repository.Repositories, publisher messaging.Publisher) *RaffleService {
	return &RaffleService{db: db, repos: repos, publisher: publisher, now: time.Now}
}

// Create stores a raffle and generates its whole number space
func (s *RaffleService) Create(ctx context.Context, actor models.Actor, req *models.CreateRaffleRequest) (*models.Raffle, error) {
	tipo, err := numbering.ParseTipo(req.TipoRifa)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	status := models.RaffleDraft
	if req.Status != "" {
		status, err = models.ParseRaffleStatus(req.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		if status != models.RaffleDraft && status != models.RaffleActive {
			return nil, fmt.Errorf("%w: a raffle starts as rascunho or ativa", apperrors.ErrValidation)
		}
	}
	if req.HoraEncerramento != nil && req.HoraEncerramento.After(req.DataSorteio) {
		return nil, fmt.Errorf("%w: hora_encerramento after data_sorteio", apperrors.ErrValidation)
	}
	local, err := requireActiveSorteio(ctx, s.repos.Sorteios, actor.TenantID, req.LocalSorteio)
	if err != nil {
		return nil, err
	}

	raffle := &models.Raffle{
		TenantID:         actor.TenantID,
		OwnerID:          actor.ID,
		Titulo:           strings.TrimSpace(req.Titulo),
		Descricao:        req.Descricao,
		PrecoNumero:      req.PrecoNumero,
		ValorPremio:      req.ValorPremio,
		TipoRifa:         tipo,
		LocalSorteio:     local,
		DataSorteio:      req.DataSorteio,
		HoraEncerramento: req.HoraEncerramento,
		Status:           status,
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)
		if err := repos.Raffles.Create(ctx, raffle); err != nil {
			return err
		}
		if err := repos.Numbers.BulkCreate(ctx, actor.TenantID, raffle.ID, numbering.Generate(tipo)); err != nil {
			return fmt.Errorf("failed to generate numbers: %w", err)
		}
		return writeAudit(ctx, repos.Audit, actor, models.AuditRaffleStatus, entityRaffle, raffle.ID, nil,
			map[string]interface{}{"status": raffle.Status, "tipo_rifa": tipo, "numeros": tipo.Size()})
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("Raffle created",
		"rifa_id", raffle.ID,
		"tipo_rifa", tipo,
		"numeros", tipo.Size())

	if raffle.Status == models.RaffleActive {
		publish(ctx, s.publisher, models.EventRaffleActivated, s.raffleEvent(raffle))
	}
	return raffle, nil
}

// Update edits the descriptive fields of a raffle that is not closed yet
func (s *RaffleService) Update(ctx context.Context, actor models.Actor, rifaID string, req *models.UpdateRaffleRequest) (*models.Raffle, error) {
	raffle, err := s.repos.Raffles.GetByID(ctx, actor.TenantID, rifaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle: %w", err)
	}
	if raffle == nil {
		return nil, fmt.Errorf("raffle %s: %w", rifaID, apperrors.ErrNotFound)
	}
	if raffle.Status.Settleable() {
		return nil, fmt.Errorf("%w: raffle is %s", apperrors.ErrInvalidTransition, raffle.Status)
	}

	if req.Titulo != nil {
		raffle.Titulo = strings.TrimSpace(*req.Titulo)
	}
	if req.Descricao != nil {
		raffle.Descricao = req.Descricao
	}
	if req.PrecoNumero != nil {
		if *req.PrecoNumero <= 0 {
			return nil, fmt.Errorf("%w: preco_numero must be positive", apperrors.ErrValidation)
		}
		if raffle.Status != models.RaffleDraft {
			return nil, fmt.Errorf("%w: price is fixed once the raffle is active", apperrors.ErrValidation)
		}
		raffle.PrecoNumero = *req.PrecoNumero
	}
	if req.ValorPremio != nil {
		raffle.ValorPremio = *req.ValorPremio
	}
	if req.LocalSorteio != nil {
		local, err := requireActiveSorteio(ctx, s.repos.Sorteios, actor.TenantID, *req.LocalSorteio)
		if err != nil {
			return nil, err
		}
		raffle.LocalSorteio = local
	}
	if req.DataSorteio != nil {
		raffle.DataSorteio = *req.DataSorteio
	}
	if req.HoraEncerramento != nil {
		raffle.HoraEncerramento = req.HoraEncerramento
	}
	if raffle.Titulo == "" {
		return nil, fmt.Errorf("%w: titulo is required", apperrors.ErrValidation)
	}
	if raffle.HoraEncerramento != nil && raffle.HoraEncerramento.After(raffle.DataSorteio) {
		return nil, fmt.Errorf("%w: hora_encerramento after data_sorteio", apperrors.ErrValidation)
	}

	if err := s.repos.Raffles.Update(ctx, raffle); err != nil {
		return nil, fmt.Errorf("failed to update raffle: %w", err)
	}

	publish(ctx, s.publisher, models.EventRaffleUpdated, s.raffleEvent(raffle))
	return raffle, nil
}

// UpdateStatus moves a raffle one step forward. apurada is only reached
// through Apurar.
func (s *RaffleService) UpdateStatus(ctx context.Context, actor models.Actor, rifaID, status string) (*models.Raffle, error) {
	next, err := models.ParseRaffleStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	var raffle *models.Raffle

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)

		var err error
		raffle, err = repos.Raffles.GetForUpdate(ctx, actor.TenantID, rifaID)
		if err != nil {
			return fmt.Errorf("failed to get raffle: %w", err)
		}
		if raffle == nil {
			return fmt.Errorf("raffle %s: %w", rifaID, apperrors.ErrNotFound)
		}
		if !raffle.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, raffle.Status, next)
		}

		if err := repos.Raffles.UpdateStatus(ctx, actor.TenantID, rifaID, next); err != nil {
			return fmt.Errorf("failed to update raffle status: %w", err)
		}
		if err := writeAudit(ctx, repos.Audit, actor, models.AuditRaffleStatus, entityRaffle, rifaID,
			map[string]interface{}{"status": raffle.Status},
			map[string]interface{}{"status": next}); err != nil {
			return err
		}

		raffle.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch next {
	case models.RaffleActive:
		publish(ctx, s.publisher, models.EventRaffleActivated, s.raffleEvent(raffle))
	case models.RaffleClosed:
		publish(ctx, s.publisher, models.EventRaffleClosed, s.raffleEvent(raffle))
	}

	logger.WithContext(ctx).Info("Raffle status changed", "rifa_id", rifaID, "status", next)
	return raffle, nil
}

func (s *RaffleService) Get(ctx context.Context, tenantID, rifaID string) (*models.Raffle, error) {
	raffle, err := s.repos.Raffles.GetByID(ctx, tenantID, rifaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle: %w", err)
	}
	if raffle == nil {
		return nil, fmt.Errorf("raffle %s: %w", rifaID, apperrors.ErrNotFound)
	}
	return raffle, nil
}

// List returns the tenant's raffles. A text query goes to Elasticsearch
// and falls back to ILIKE when the index is unavailable.
func (s *RaffleService) List(ctx context.Context, tenantID, status, q string) ([]models.Raffle, error) {
	if status != "" {
		if _, err := models.ParseRaffleStatus(status); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
	}
	q = strings.TrimSpace(q)

	if q != "" && s.repos.Search != nil {
		ids, err := s.repos.Search.SearchIDs(ctx, tenantID, q, status, searchLimit)
		if err == nil {
			raffles, err := s.repos.Raffles.ListByIDs(ctx, tenantID, ids)
			if err != nil {
				return nil, fmt.Errorf("failed to load raffles: %w", err)
			}
			return raffles, nil
		}
		logger.WithContext(ctx).Warn("Raffle search failed, falling back to SQL", "error", err, "query", q)
	}

	raffles, err := s.repos.Raffles.List(ctx, tenantID, status, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list raffles: %w", err)
	}
	return raffles, nil
}

// Numbers returns the inventory of a raffle as seen by userID
func (s *RaffleService) Numbers(ctx context.Context, tenantID, userID, rifaID string) ([]models.NumberView, error) {
	if _, err := s.Get(ctx, tenantID, rifaID); err != nil {
		return nil, err
	}

	numbers, err := s.repos.Numbers.ListByRaffle(ctx, tenantID, rifaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list numbers: %w", err)
	}

	views := make([]models.NumberView, len(numbers))
	for i := range numbers {
		views[i] = numbers[i].ViewFor(userID)
	}
	return views, nil
}

// MyRaffles returns the actor's purchase history grouped by raffle
func (s *RaffleService) MyRaffles(ctx context.Context, actor models.Actor) ([]models.MyRaffle, error) {
	rows, err := s.repos.Numbers.ListOwnedByUser(ctx, actor.TenantID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return groupPurchases(rows), nil
}

// groupPurchases folds owned numbers into one entry per raffle, keeping
// the row order
func groupPurchases(rows []repository.PurchaseRow) []models.MyRaffle {
	out := []models.MyRaffle{}
	index := make(map[string]int)

	for _, row := range rows {
		i, ok := index[row.Raffle.ID]
		if !ok {
			i = len(out)
			index[row.Raffle.ID] = i
			out = append(out, models.MyRaffle{
				ID:               row.Raffle.ID,
				Titulo:           row.Raffle.Titulo,
				Status:           row.Raffle.Status,
				DataSorteio:      row.Raffle.DataSorteio,
				Resultado:        row.Raffle.Resultado,
				NumerosComprados: []models.PurchasedNumber{},
			})
		}
		out[i].NumerosComprados = append(out[i].NumerosComprados, models.PurchasedNumber{
			Numero:       row.Number.Numero,
			Status:       row.Number.Status,
			PremioStatus: row.Number.PremioStatus,
			DataCompra:   row.Number.UpdatedAt,
		})
	}
	return out
}

func (s *RaffleService) RecentWinners(ctx context.Context, tenantID string, limit int) ([]models.RecentWinner, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	winners, err := s.repos.Winners.Recent(ctx, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent winners: %w", err)
	}
	return winners, nil
}

// CloseDue closes active raffles past their betting close and returns how
// many were closed
func (s *RaffleService) CloseDue(ctx context.Context) (int, error) {
	closed, err := s.repos.Raffles.CloseDue(ctx, models.DefaultFechamentoMinutos)
	if err != nil {
		return 0, err
	}

	for i := range closed {
		raffle := &closed[i]
		if err := writeAudit(ctx, s.repos.Audit, models.SystemActor(raffle.TenantID), models.AuditRaffleClosed, entityRaffle, raffle.ID,
			map[string]interface{}{"status": models.RaffleActive},
			map[string]interface{}{"status": models.RaffleClosed}); err != nil {
			logger.WithContext(ctx).Error("Failed to audit raffle closing", "error", err, "rifa_id", raffle.ID)
		}
		publish(ctx, s.publisher, models.EventRaffleClosed, s.raffleEvent(raffle))
		metrics.RafflesClosed.Inc()

		logger.WithContext(ctx).Info("Raffle closed for betting", "rifa_id", raffle.ID, "tenant_id", raffle.TenantID)
	}
	return len(closed), nil
}

func (s *RaffleService) raffleEvent(raffle *models.Raffle) models.RaffleEvent {
	return models.RaffleEvent{
		TenantID:  raffle.TenantID,
		RifaID:    raffle.ID,
		Status:    raffle.Status,
		Timestamp: s.now(),
	}
}
