package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
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

type ResultService struct {
	db        *database.DB
	repos     *repository.Repositories
	publisher messaging.Publisher
	now       func() time.Time
}

func NewResultService(db *database.DB, repos *repository.Repositories, publisher messaging.Publisher) *ResultService {
	return &ResultService{db: db, repos: repos, publisher: publisher, now: time.Now}
}

// Record stores the official drawn value of a closed raffle. Resubmitting
// overwrites it and requires a new apuração.
func (s *ResultService) Record(ctx context.Context, actor models.Actor, rifaID string, req *models.RecordResultRequest) (*models.Result, error) {
	resultado := strings.TrimSpace(req.Resultado)
	if resultado == "" {
		return nil, fmt.Errorf("%w: resultado is empty", apperrors.ErrValidation)
	}

	var res *models.Result

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)

		raffle, err := repos.Raffles.GetForUpdate(ctx, actor.TenantID, rifaID)
		if err != nil {
			return fmt.Errorf("failed to get raffle: %w", err)
		}
		if raffle == nil {
			return fmt.Errorf("raffle %s: %w", rifaID, apperrors.ErrNotFound)
		}
		if !raffle.Status.Settleable() {
			return apperrors.ErrRaffleNotClosed
		}
		if _, err := numbering.Normalize(raffle.TipoRifa, resultado); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}

		previous, err := repos.Results.GetByRaffle(ctx, actor.TenantID, rifaID)
		if err != nil {
			return fmt.Errorf("failed to get result: %w", err)
		}

		localSorteio := strings.TrimSpace(req.LocalSorteio)
		if localSorteio == "" {
			localSorteio = raffle.LocalSorteio
		}

		res = &models.Result{
			RifaID:        rifaID,
			TenantID:      actor.TenantID,
			TipoRifa:      raffle.TipoRifa,
			Resultado:     resultado,
			LocalSorteio:  localSorteio,
			DataResultado: req.DataResultado,
			CreatedBy:     actor.ID,
		}
		if err := repos.Results.Upsert(ctx, res); err != nil {
			return err
		}
		if err := repos.Raffles.SetResultado(ctx, actor.TenantID, rifaID, resultado); err != nil {
			return fmt.Errorf("failed to update raffle result: %w", err)
		}

		var old interface{}
		if previous != nil {
			old = map[string]interface{}{"resultado": previous.Resultado, "apurado": previous.Apurado}
		}
		return writeAudit(ctx, repos.Audit, actor, models.AuditResultRecorded, entityResult, res.ID, old,
			map[string]interface{}{"resultado": resultado, "local_sorteio": localSorteio, "data_resultado": req.DataResultado})
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("Result recorded", "rifa_id", rifaID, "resultado", resultado)
	return res, nil
}

// classifyNumbers splits paid numbers into winners and losers of vencedor.
// Output is sorted by numero and free of duplicate ids.
func classifyNumbers(paid []models.Number, vencedor string) (winners, losers []models.Number) {
	seen := make(map[string]bool, len(paid))
	for _, n := range paid {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		if n.Numero == vencedor {
			winners = append(winners, n)
		} else {
			losers = append(losers, n)
		}
	}

	byNumero := func(list []models.Number) func(i, j int) bool {
		return func(i, j int) bool {
			if list[i].Numero == list[j].Numero {
				return list[i].ID < list[j].ID
			}
			return list[i].Numero < list[j].Numero
		}
	}
	sort.Slice(winners, byNumero(winners))
	sort.Slice(losers, byNumero(losers))
	return winners, losers
}

func numberIDs(list []models.Number) []string {
	ids := make([]string, 0, len(list))
	for _, n := range list {
		ids = append(ids, n.ID)
	}
	return ids
}

// Apurar computes the winners of a closed raffle. Re-running recomputes
// them from scratch.
func (s *ResultService) Apurar(ctx context.Context, actor models.Actor, rifaID string) (*models.ApurarResponse, error) {
	var (
		raffle   *models.Raffle
		result   *models.Result
		vencedor string
		winners  []models.Number
	)

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)

		var err error
		raffle, err = repos.Raffles.GetForUpdate(ctx, actor.TenantID, rifaID)
		if err != nil {
			return fmt.Errorf("failed to get raffle: %w", err)
		}
		if raffle == nil {
			return fmt.Errorf("raffle %s: %w", rifaID, apperrors.ErrNotFound)
		}
		if !raffle.Status.Settleable() {
			return apperrors.ErrRaffleNotClosed
		}

		result, err = repos.Results.GetByRaffle(ctx, actor.TenantID, rifaID)
		if err != nil {
			return fmt.Errorf("failed to get result: %w", err)
		}
		if result == nil {
			return apperrors.ErrResultRequired
		}

		vencedor, err = numbering.Normalize(raffle.TipoRifa, result.Resultado)
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}

		paid, err := repos.Numbers.ListPaidByRaffle(ctx, actor.TenantID, rifaID)
		if err != nil {
			return fmt.Errorf("failed to list paid numbers: %w", err)
		}
		if len(paid) == 0 {
			return apperrors.ErrNoPaidNumbers
		}

		if err := repos.Winners.DeleteByRaffle(ctx, rifaID); err != nil {
			return fmt.Errorf("failed to clear winners: %w", err)
		}

		var losers []models.Number
		winners, losers = classifyNumbers(paid, vencedor)
		if err := repos.Numbers.SetPrizeStatus(ctx, numberIDs(winners), models.PrizeWinner); err != nil {
			return fmt.Errorf("failed to mark winners: %w", err)
		}
		if err := repos.Numbers.SetPrizeStatus(ctx, numberIDs(losers), models.PrizeLoser); err != nil {
			return fmt.Errorf("failed to mark losers: %w", err)
		}

		for _, n := range winners {
			if n.UserID == nil {
				continue
			}
			if err := repos.Winners.Insert(ctx, &models.Winner{
				RifaID:       rifaID,
				RifaNumeroID: n.ID,
				UserID:       *n.UserID,
				TenantID:     actor.TenantID,
			}); err != nil {
				return fmt.Errorf("failed to insert winner: %w", err)
			}
			if err := writeAudit(ctx, repos.Audit, actor, models.AuditWinnerDefined, entityNumber, n.ID, nil,
				map[string]interface{}{"numero": n.Numero, "user_id": n.UserID}); err != nil {
				return err
			}
		}

		if err := repos.Results.MarkApurado(ctx, result.ID); err != nil {
			return fmt.Errorf("failed to mark result settled: %w", err)
		}
		if err := repos.Raffles.UpdateStatus(ctx, actor.TenantID, rifaID, models.RaffleSettled); err != nil {
			return fmt.Errorf("failed to update raffle status: %w", err)
		}

		return writeAudit(ctx, repos.Audit, actor, models.AuditRaffleSettled, entityRaffle, rifaID,
			map[string]interface{}{"status": raffle.Status},
			map[string]interface{}{"status": models.RaffleSettled, "resultado": result.Resultado, "numero_vencedor": vencedor, "ganhadores": len(winners)})
	})
	if err != nil {
		return nil, err
	}

	winnerIDs := make([]string, 0, len(winners))
	for _, n := range winners {
		if n.UserID != nil {
			winnerIDs = append(winnerIDs, *n.UserID)
		}
	}

	publish(ctx, s.publisher, models.EventRaffleSettled, models.RaffleSettledEvent{
		TenantID:  actor.TenantID,
		RifaID:    rifaID,
		Titulo:    raffle.Titulo,
		Resultado: result.Resultado,
		Vencedor:  vencedor,
		WinnerIDs: winnerIDs,
		Timestamp: s.now(),
	})
	metrics.RafflesSettled.Inc()

	logger.WithContext(ctx).Info("Raffle settled",
		"rifa_id", rifaID,
		"numero_vencedor", vencedor,
		"ganhadores", len(winners))

	return &models.ApurarResponse{
		RifaID:     rifaID,
		Status:     models.RaffleSettled,
		Vencedor:   vencedor,
		Ganhadores: len(winners),
	}, nil
}

// Winners returns the recorded result and the winner list of a raffle
func (s *ResultService) Winners(ctx context.Context, tenantID, rifaID string) (*models.WinnersResponse, error) {
	raffle, err := s.repos.Raffles.GetByID(ctx, tenantID, rifaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle: %w", err)
	}
	if raffle == nil {
		return nil, fmt.Errorf("raffle %s: %w", rifaID, apperrors.ErrNotFound)
	}

	result, err := s.repos.Results.GetByRaffle(ctx, tenantID, rifaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	details, err := s.repos.Winners.ListByRaffle(ctx, tenantID, rifaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list winners: %w", err)
	}

	resp := &models.WinnersResponse{
		RifaID:     rifaID,
		Resultado:  resultView(result),
		Ganhadores: make([]models.WinnerView, 0, len(details)),
	}
	for _, w := range details {
		resp.Ganhadores = append(resp.Ganhadores, models.WinnerView{
			Numero:       w.Numero,
			Email:        w.Email,
			Name:         w.Name,
			TipoRifa:     raffle.TipoRifa,
			LocalSorteio: raffle.LocalSorteio,
		})
	}
	return resp, nil
}

// Summary returns the sales and settlement figures of a raffle
func (s *ResultService) Summary(ctx context.Context, tenantID, rifaID string) (*models.RaffleSummary, error) {
	raffle, err := s.repos.Raffles.GetByID(ctx, tenantID, rifaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle: %w", err)
	}
	if raffle == nil {
		return nil, fmt.Errorf("raffle %s: %w", rifaID, apperrors.ErrNotFound)
	}

	total, pagos, err := s.repos.PaymentLogs.PaidTotals(ctx, rifaID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payments: %w", err)
	}

	result, err := s.repos.Results.GetByRaffle(ctx, tenantID, rifaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	ganhadores, err := s.repos.Winners.CountByRaffle(ctx, rifaID)
	if err != nil {
		return nil, fmt.Errorf("failed to count winners: %w", err)
	}

	return &models.RaffleSummary{
		RifaID:               rifaID,
		Titulo:               raffle.Titulo,
		Status:               raffle.Status,
		TotalArrecadado:      total,
		TotalNumerosPagos:    pagos,
		ResultadoLancado:     result != nil,
		Resultado:            resultView(result),
		QuantidadeGanhadores: ganhadores,
	}, nil
}

func resultView(res *models.Result) *models.ResultView {
	if res == nil {
		return nil
	}
	return &models.ResultView{
		Valor:         res.Resultado,
		LocalSorteio:  res.LocalSorteio,
		DataResultado: res.DataResultado,
		Apurado:       res.Apurado,
	}
}
