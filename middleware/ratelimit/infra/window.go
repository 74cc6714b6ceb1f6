package infra

import (
	"context"
	"sync"
	"time"

	"leaderboard-service/middleware/ratelimit/domain"
)

// WindowStore implementa rate limit por janela deslizante (log de timestamps por chave).
//
// Cada chamada a Admit poda os timestamps fora da janela, registra o instante atual
// e admite se o total resultante for <= max. Requisições rejeitadas também são
// registradas: um cliente insistente continua bloqueado até parar por uma janela inteira.
type WindowStore struct {
	mu         sync.Mutex
	records    map[string][]time.Time
	max        int
	window     time.Duration
	sweepEvery time.Duration

	now func() time.Time
}

type WindowOption func(*WindowStore)

func WithSweepEvery(d time.Duration) WindowOption {
	return func(s *WindowStore) { s.sweepEvery = d }
}

// WithClock troca a fonte de tempo (usado nos testes).
func WithClock(now func() time.Time) WindowOption {
	return func(s *WindowStore) { s.now = now }
}

func NewWindowStore(max int, window time.Duration, opts ...WindowOption) *WindowStore {
	s := &WindowStore{
		records:    make(map[string][]time.Time),
		max:        max,
		window:     window,
		sweepEvery: 5 * time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WindowStore) Max() int                  { return s.max }
func (s *WindowStore) Window() time.Duration     { return s.window }
func (s *WindowStore) SweepEvery() time.Duration { return s.sweepEvery }

// RPS e Burst permitem que o middleware publique os headers X-RateLimit-*.
func (s *WindowStore) RPS() float64 {
	if s.window <= 0 {
		return 0
	}
	return float64(s.max) / s.window.Seconds()
}
func (s *WindowStore) Burst() int { return s.max }

// Admit decide se a requisição da chave é aceita agora.
func (s *WindowStore) Admit(key string) bool {
	now := s.now()
	cutoff := now.Add(-s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	hits := prune(s.records[key], cutoff)
	hits = append(hits, now)
	s.records[key] = hits

	return len(hits) <= s.max
}

// Get implementa domain.LimiterStore.
func (s *WindowStore) Get(key domain.Key) domain.Limiter {
	return windowLimiter{store: s, key: string(key)}
}

// Len retorna quantas chaves estão sendo rastreadas.
func (s *WindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Sweep poda todos os registros e remove as chaves que ficaram vazias.
func (s *WindowStore) Sweep() {
	cutoff := s.now().Add(-s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, hits := range s.records {
		valid := prune(hits, cutoff)
		if len(valid) == 0 {
			delete(s.records, k)
			continue
		}
		s.records[k] = valid
	}
}

// StartJanitor roda Sweep periodicamente até o contexto encerrar.
func (s *WindowStore) StartJanitor(ctx context.Context) {
	if s.sweepEvery <= 0 {
		return
	}

	t := time.NewTicker(s.sweepEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Sweep()
			}
		}
	}()
}

// prune mantém apenas timestamps estritamente depois de cutoff (now - t < window).
// Os timestamps são crescentes, então basta achar o primeiro válido.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return hits
	}
	valid := make([]time.Time, len(hits)-i, len(hits)-i+1)
	copy(valid, hits[i:])
	return valid
}

type windowLimiter struct {
	store *WindowStore
	key   string
}

func (l windowLimiter) Allow() bool { return l.store.Admit(l.key) }
