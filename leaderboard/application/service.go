package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"leaderboard-service/leaderboard/domain"
)

// Notifier recebe o novo top após cada submit bem-sucedido (ex: feed ao vivo).
// Publish não pode bloquear.
type Notifier interface {
	Publish(top []domain.Entry)
}

// Service é o dono do ciclo load-modify-save do leaderboard.
//
// O mutex serializa os submits: o net/http atende requisições em paralelo e,
// sem ele, dois submits simultâneos perderiam um dos updates.
type Service struct {
	mu       sync.Mutex
	store    domain.Store
	notifier Notifier
	now      func() time.Time
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store domain.Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result é o retorno de Submit: rank 1-based (ou domain.Unranked) e o top 50.
type Result struct {
	Rank int
	Top  []domain.Entry
}

func (s *Service) Submit(ctx context.Context, sub Submission) (Result, error) {
	in, err := Validate(sub)
	if err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.store.Load(ctx)
	now := s.now().UTC().Truncate(time.Millisecond)

	if i := b.IndexOf(in.Name); i >= 0 {
		if cur := &b.Scores[i]; in.Score > cur.Score {
			cur.Score = in.Score
			cur.Coin = in.Coin
			cur.Time = in.Time
			cur.Date = now
		}
	} else {
		b.Scores = append(b.Scores, domain.Entry{
			Name:  in.Name,
			Score: in.Score,
			Coin:  in.Coin,
			Time:  in.Time,
			Date:  now,
		})
	}

	b.Sort()
	b.Truncate(domain.MaxEntries)

	if err := s.store.Save(ctx, b); err != nil {
		return Result{}, fmt.Errorf("save leaderboard: %w", err)
	}

	res := Result{Rank: b.Rank(in.Name), Top: b.Top(domain.TopN)}
	if s.notifier != nil {
		s.notifier.Publish(res.Top)
	}
	return res, nil
}

// Top devolve as n melhores entradas (n <= 0 usa domain.TopN).
func (s *Service) Top(ctx context.Context, n int) []domain.Entry {
	if n <= 0 {
		n = domain.TopN
	}
	b := s.store.Load(ctx)
	b.Sort()
	return b.Top(n)
}

type Stats struct {
	TotalPlayers int           `json:"totalPlayers"`
	TopPlayer    *domain.Entry `json:"topPlayer"`
}

func (s *Service) Stats(ctx context.Context) Stats {
	b := s.store.Load(ctx)
	st := Stats{TotalPlayers: len(b.Scores)}
	if len(b.Scores) > 0 {
		b.Sort()
		top := b.Scores[0]
		st.TopPlayer = &top
	}
	return st
}
