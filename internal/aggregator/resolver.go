package aggregator

import (
	"context"
	"sync"

	"workpulse/internal/database"
	"workpulse/internal/models"
)

// StoreResolver resolves category ids against the category table, caching
// every answer for the lifetime of the resolver. A missing row resolves to
// Neutral so events with stale category references still aggregate.
type StoreResolver struct {
	repo *database.Repository

	mu    sync.Mutex
	cache map[string]models.Productivity
}

func NewStoreResolver(repo *database.Repository) *StoreResolver {
	return &StoreResolver{
		repo:  repo,
		cache: make(map[string]models.Productivity),
	}
}

func (r *StoreResolver) Resolve(ctx context.Context, categoryID string) (models.Productivity, error) {
	r.mu.Lock()
	cached, ok := r.cache[categoryID]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	category, err := r.repo.CategoryByID(ctx, categoryID)
	if err != nil {
		return models.Neutral, err
	}

	productivity := models.Neutral
	if category != nil {
		productivity = category.Productivity
	}

	r.mu.Lock()
	r.cache[categoryID] = productivity
	r.mu.Unlock()

	return productivity, nil
}

// StaticResolver resolves from a fixed map; unmapped ids are Neutral.
type StaticResolver map[string]models.Productivity

func (r StaticResolver) Resolve(_ context.Context, categoryID string) (models.Productivity, error) {
	if productivity, ok := r[categoryID]; ok {
		return productivity, nil
	}
	return models.Neutral, nil
}
