package service

import (
	"context"
	"fmt"

	"rifas/internal/logger"
	"rifas/internal/repository"
)

// SearchIndexer keeps the raffle search index in line with the database
type SearchIndexer struct {
	repos *repository.Repositories
}

func NewSearchIndexer(repos *repository.Repositories) *SearchIndexer {
	return &SearchIndexer{repos: repos}
}

func (s *SearchIndexer) Enabled() bool {
	return s.repos.Search != nil
}

// Reindex refreshes the document of one raffle, deleting it when the
// raffle no longer exists
func (s *SearchIndexer) Reindex(ctx context.Context, tenantID, rifaID string) error {
	if !s.Enabled() {
		return nil
	}

	raffle, err := s.repos.Raffles.GetByID(ctx, tenantID, rifaID)
	if err != nil {
		return fmt.Errorf("failed to get raffle: %w", err)
	}
	if raffle == nil {
		return s.repos.Search.Delete(ctx, rifaID)
	}

	counts, err := s.repos.Numbers.StatusCounts(ctx, rifaID)
	if err != nil {
		return fmt.Errorf("failed to count numbers: %w", err)
	}
	return s.repos.Search.Index(ctx, raffle, counts)
}

// ReindexAll rebuilds the documents of every raffle and returns how many
// were indexed
func (s *SearchIndexer) ReindexAll(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, fmt.Errorf("search is disabled")
	}

	raffles, err := s.repos.Raffles.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list raffles: %w", err)
	}

	indexed := 0
	for i := range raffles {
		raffle := &raffles[i]
		counts, err := s.repos.Numbers.StatusCounts(ctx, raffle.ID)
		if err != nil {
			return indexed, fmt.Errorf("failed to count numbers of %s: %w", raffle.ID, err)
		}
		if err := s.repos.Search.Index(ctx, raffle, counts); err != nil {
			logger.WithContext(ctx).Error("Failed to index raffle", "error", err, "rifa_id", raffle.ID)
			continue
		}
		indexed++
	}
	return indexed, nil
}
