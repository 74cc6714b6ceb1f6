package infra

import (
	"context"
	"maps"
	"sync"

	"leaderboard-service/middleware/ratelimit/domain"
)

// MemoryStatsStore guarda os contadores de decisões em memória.
// É o padrão quando RATE_STATS_ENABLED=false; zera a cada restart.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   domain.Counters
	byRoute map[string]domain.Counters
	byKey   map[string]domain.Counters

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byRoute: make(map[string]domain.Counters),
		byKey:   make(map[string]domain.Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	bump(&s.total, ev.Allowed)
	s.byRoute[route] = bumped(s.byRoute[route], ev.Allowed)
	if s.trackKeys {
		key := string(ev.Key)
		s.byKey[key] = bumped(s.byKey[key], ev.Allowed)
	}
	return nil
}

func (s *MemoryStatsStore) Total() domain.Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Snapshot implementa domain.StatsReader com cópias dos mapas internos.
func (s *MemoryStatsStore) Snapshot(context.Context) (domain.StatsSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := domain.StatsSnapshot{
		Total:   s.total,
		ByRoute: maps.Clone(s.byRoute),
	}
	if s.trackKeys {
		snap.ByKey = maps.Clone(s.byKey)
	}
	return snap, nil
}

func bump(c *domain.Counters, allowed bool) {
	if allowed {
		c.Allowed++
		return
	}
	c.Denied++
}

func bumped(c domain.Counters, allowed bool) domain.Counters {
	bump(&c, allowed)
	return c
}
