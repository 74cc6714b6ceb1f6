package application

import (
	"context"
	"time"

	"leaderboard-service/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status): recebe a chave e a rota,
// registra o evento nas estatísticas (best-effort) e retorna uma decisão.
type Service struct {
	Store      domain.LimiterStore
	Stats      domain.StatsStore
	RetryAfter time.Duration

	// Now é a fonte de tempo dos eventos de estatística.
	Now func() time.Time
}

// Request descreve a requisição sendo avaliada.
type Request struct {
	Key    domain.Key
	Method string
	Path   string
}

func (s Service) Decide(ctx context.Context, req Request) domain.Decision {
	dec := s.decide(req.Key)
	if s.Stats != nil {
		now := time.Now
		if s.Now != nil {
			now = s.Now
		}
		_ = s.Stats.Record(ctx, domain.StatsEvent{
			Key:     req.Key,
			Allowed: dec.Allowed,
			Method:  req.Method,
			Path:    req.Path,
			At:      now(),
		})
	}
	return dec
}

func (s Service) decide(key domain.Key) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}
	if s.RetryAfter <= 0 {
		s.RetryAfter = 1 * time.Second
	}

	lim := s.Store.Get(key)
	if lim == nil {
		return domain.Decision{Allowed: true}
	}
	if lim.Allow() {
		return domain.Decision{Allowed: true}
	}
	return domain.Decision{Allowed: false, RetryAfter: s.RetryAfter}
}
