package store

import (
	"context"
	"sync"
	"time"

	"github.com/leeduo/marketdeck/internal/api"
)

// MarketStore caches the last-fetched market snapshot. Refreshes replace
// the snapshot wholesale; there is no merge logic.
type MarketStore struct {
	client *api.Client

	mu          sync.RWMutex
	snapshot    *api.MarketSnapshot
	refreshedAt time.Time
}

// NewMarketStore creates an empty market cache over the API client.
func NewMarketStore(client *api.Client) *MarketStore {
	return &MarketStore{client: client}
}

// Refresh fetches the backend's current snapshot and replaces the cache.
func (s *MarketStore) Refresh(ctx context.Context) (*api.MarketSnapshot, error) {
	snap, err := s.client.GetStatus(ctx)
	if err != nil {
		return nil, err
	}
	s.replace(snap)
	return snap, nil
}

// ForceRefresh asks the backend to re-pull realtime quotes, then caches
// the result.
func (s *MarketStore) ForceRefresh(ctx context.Context) (*api.MarketSnapshot, error) {
	snap, err := s.client.RefreshRealtime(ctx)
	if err != nil {
		return nil, err
	}
	s.replace(snap)
	return snap, nil
}

func (s *MarketStore) replace(snap *api.MarketSnapshot) {
	s.mu.Lock()
	s.snapshot = snap
	s.refreshedAt = time.Now()
	s.mu.Unlock()
}

// Snapshot returns the cached snapshot, or nil before the first refresh.
func (s *MarketStore) Snapshot() *api.MarketSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Quote returns the cached quote for a symbol.
func (s *MarketStore) Quote(symbol string) (api.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return api.Quote{}, false
	}
	for _, q := range s.snapshot.Stocks {
		if q.Symbol == symbol {
			return q, true
		}
	}
	return api.Quote{}, false
}

// RefreshedAt returns when the cache was last replaced.
func (s *MarketStore) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}
