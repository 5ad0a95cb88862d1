package repository

import (
	"context"

	"rifas/internal/models"
	"rifas/internal/search"
)

// RaffleSearchRepository keeps the Elasticsearch raffle index in sync
type RaffleSearchRepository struct {
	es *search.ElasticsearchClient
}

func NewRaffleSearchRepository(es *search.ElasticsearchClient) *RaffleSearchRepository {
	return &RaffleSearchRepository{es: es}
}

func (r *RaffleSearchRepository) SearchIDs(ctx context.Context, tenantID, query, status string, limit int) ([]string, error) {
	return r.es.SearchIDs(ctx, tenantID, query, status, limit)
}

// Index writes the raffle document with its free and paid counters
func (r *RaffleSearchRepository) Index(ctx context.Context, raffle *models.Raffle, counts map[models.NumberStatus]int) error {
	livres := counts[models.NumberFree] + counts[models.NumberExpired]
	return r.es.IndexRaffle(ctx, search.NewRaffleDocument(raffle, livres, counts[models.NumberPaid]))
}

func (r *RaffleSearchRepository) Delete(ctx context.Context, id string) error {
	return r.es.DeleteRaffle(ctx, id)
}
