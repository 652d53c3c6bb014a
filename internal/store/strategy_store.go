package store

import (
	"context"
	"sync"

	"github.com/leeduo/marketdeck/internal/api"
)

// StrategyStore caches the strategy list for the template editor.
// The list is replaced wholesale on refresh, last write wins.
type StrategyStore struct {
	client *api.Client

	mu         sync.RWMutex
	strategies []api.Strategy
}

// NewStrategyStore creates an empty strategy cache over the API client.
func NewStrategyStore(client *api.Client) *StrategyStore {
	return &StrategyStore{client: client}
}

// Refresh fetches all strategies and replaces the cache.
func (s *StrategyStore) Refresh(ctx context.Context) ([]api.Strategy, error) {
	strategies, err := s.client.ListStrategies(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.strategies = strategies
	s.mu.Unlock()
	return strategies, nil
}

// List returns the cached strategies.
func (s *StrategyStore) List() []api.Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.strategies
}

// BySlug returns the cached strategy with the given slug.
func (s *StrategyStore) BySlug(slug string) (api.Strategy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.strategies {
		if st.Slug == slug {
			return st, true
		}
	}
	return api.Strategy{}, false
}

// Get returns the strategy with the given slug, consulting the cache first
// and fetching from the backend on a miss.
func (s *StrategyStore) Get(ctx context.Context, slug string) (api.Strategy, error) {
	if st, ok := s.BySlug(slug); ok {
		return st, nil
	}

	st, err := s.client.GetStrategy(ctx, slug)
	if err != nil {
		return api.Strategy{}, err
	}
	s.mu.Lock()
	s.strategies = append(s.strategies, *st)
	s.mu.Unlock()
	return *st, nil
}

// UpdateTemplate replaces a strategy's prompt template on the backend and
// re-fetches the list so the cache reflects the persisted state.
func (s *StrategyStore) UpdateTemplate(ctx context.Context, id int, template string) error {
	if _, err := s.client.UpdateStrategyTemplate(ctx, id, template); err != nil {
		return err
	}
	_, err := s.Refresh(ctx)
	return err
}

// UpdateParam sets one strategy parameter on the backend and re-fetches.
func (s *StrategyStore) UpdateParam(ctx context.Context, id int, key, value string) error {
	if _, err := s.client.UpdateStrategyParam(ctx, id, key, value); err != nil {
		return err
	}
	_, err := s.Refresh(ctx)
	return err
}
