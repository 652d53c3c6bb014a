package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/leeduo/marketdeck/internal/api"
)

// strategyBackend is a tiny in-memory stand-in for the strategy endpoints.
type strategyBackend struct {
	mu         sync.Mutex
	strategies []api.Strategy
	slugCalls  int
}

func (b *strategyBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/strategies", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		json.NewEncoder(w).Encode(b.strategies)
	})
	mux.HandleFunc("/api/strategies/swing", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.slugCalls++
		b.mu.Unlock()
		json.NewEncoder(w).Encode(api.Strategy{ID: 9, Slug: "swing", Name: "Swing Pullback", Category: "swing"})
	})
	mux.HandleFunc("/api/strategies/1/template", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.strategies[0].Template = body["template"]
		b.mu.Unlock()
		fmt.Fprint(w, `{"status":"success","message":"ok"}`)
	})
	mux.HandleFunc("/api/strategies/1/params", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.strategies[0].Params[body["key"]] = body["value"]
		b.mu.Unlock()
		fmt.Fprint(w, `{"status":"success","message":"ok"}`)
	})
	return mux
}

func TestStrategyStoreRefreshAndLookup(t *testing.T) {
	backend := &strategyBackend{strategies: []api.Strategy{
		{ID: 1, Slug: "momentum", Name: "Momentum Breakout", Category: "trend", Template: "v1", Params: map[string]string{"min_score": "60"}},
		{ID: 2, Slug: "mean-revert", Name: "Mean Reversion", Category: "reversal"},
	}}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	s := NewStrategyStore(api.NewClient(srv.URL, 5*time.Second))
	if len(s.List()) != 0 {
		t.Fatal("cache must start empty")
	}

	strategies, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(strategies) != 2 || len(s.List()) != 2 {
		t.Fatalf("strategies = %d cached = %d", len(strategies), len(s.List()))
	}

	st, ok := s.BySlug("momentum")
	if !ok || st.ID != 1 || st.Params["min_score"] != "60" {
		t.Fatalf("BySlug = %+v ok=%v", st, ok)
	}
	if _, ok := s.BySlug("missing"); ok {
		t.Fatal("unknown slug must miss")
	}
}

func TestStrategyStoreGetUsesCacheThenBackend(t *testing.T) {
	backend := &strategyBackend{strategies: []api.Strategy{
		{ID: 1, Slug: "momentum", Name: "Momentum Breakout", Category: "trend"},
	}}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	s := NewStrategyStore(api.NewClient(srv.URL, 5*time.Second))
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	st, err := s.Get(context.Background(), "momentum")
	if err != nil {
		t.Fatalf("Get cached: %v", err)
	}
	if st.ID != 1 || backend.slugCalls != 0 {
		t.Fatalf("cached lookup must not hit the backend: %+v calls=%d", st, backend.slugCalls)
	}

	st, err = s.Get(context.Background(), "swing")
	if err != nil {
		t.Fatalf("Get miss: %v", err)
	}
	if st.ID != 9 || backend.slugCalls != 1 {
		t.Fatalf("miss must fetch from the backend: %+v calls=%d", st, backend.slugCalls)
	}

	// The fetched strategy joins the cache.
	if _, err := s.Get(context.Background(), "swing"); err != nil {
		t.Fatalf("Get cached after miss: %v", err)
	}
	if backend.slugCalls != 1 {
		t.Fatalf("second lookup refetched: calls=%d", backend.slugCalls)
	}
}

func TestStrategyStoreUpdateTemplateRefetches(t *testing.T) {
	backend := &strategyBackend{strategies: []api.Strategy{
		{ID: 1, Slug: "momentum", Name: "Momentum Breakout", Template: "old", Params: map[string]string{}},
	}}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	s := NewStrategyStore(api.NewClient(srv.URL, 5*time.Second))
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if err := s.UpdateTemplate(context.Background(), 1, "new template"); err != nil {
		t.Fatalf("UpdateTemplate: %v", err)
	}
	st, _ := s.BySlug("momentum")
	if st.Template != "new template" {
		t.Fatalf("cache not refetched after update: %q", st.Template)
	}

	if err := s.UpdateParam(context.Background(), 1, "min_score", "75"); err != nil {
		t.Fatalf("UpdateParam: %v", err)
	}
	st, _ = s.BySlug("momentum")
	if st.Params["min_score"] != "75" {
		t.Fatalf("param not visible after refetch: %v", st.Params)
	}
}
