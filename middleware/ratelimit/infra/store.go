package infra

import (
	"context"
	"sync"
	"time"

	"leaderboard-service/middleware/ratelimit/domain"

	"golang.org/x/time/rate"
)

// BucketStore é a alternativa à janela deslizante: token-bucket (x/time/rate)
// com um limiter por chave e limpeza periódica das chaves ociosas.
//
// Ativada com RATE_ALGORITHM=bucket. Para equivaler a "max por janela",
// use NewBucketStoreForWindow.
type BucketStore struct {
	mu           sync.Mutex
	entries      map[string]*bucketEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type bucketEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type BucketOption func(*BucketStore)

func WithIdleTTL(d time.Duration) BucketOption {
	return func(s *BucketStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) BucketOption {
	return func(s *BucketStore) { s.cleanupEvery = d }
}

func NewBucketStore(rps float64, burst int, opts ...BucketOption) *BucketStore {
	s := &BucketStore{
		entries:      make(map[string]*bucketEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewBucketStoreForWindow: burst = max, reposição de max tokens por janela.
func NewBucketStoreForWindow(max int, window time.Duration, opts ...BucketOption) *BucketStore {
	rps := float64(max) / window.Seconds()
	opts = append([]BucketOption{WithIdleTTL(window)}, opts...)
	return NewBucketStore(rps, max, opts...)
}

func (s *BucketStore) RPS() float64                { return float64(s.rps) }
func (s *BucketStore) Burst() int                  { return s.burst }
func (s *BucketStore) CleanupEvery() time.Duration { return s.cleanupEvery }

// Get implementa domain.LimiterStore.
func (s *BucketStore) Get(key domain.Key) domain.Limiter {
	return s.GetString(string(key))
}

func (s *BucketStore) Admit(key string) bool {
	return s.GetString(key).Allow()
}

func (s *BucketStore) GetString(key string) *rate.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &bucketEntry{lim: lim, lastSeen: now}
	return lim
}

func (s *BucketStore) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto.
func (s *BucketStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
