package domain

import (
	"context"
	"time"
)

// StatsEvent representa um evento de decisão do rate limit.
//
// Method/Path são strings genéricas; aqui vêm da rota HTTP protegida
// (na prática só POST /api/score).
//
// Observação: cuidado com cardinalidade ao rastrear Key (um IP por chave).
type StatsEvent struct {
	Key     Key
	Allowed bool

	Method string
	Path   string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas do rate limit.
//
// O middleware trata erro como best-effort (não derruba o request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}

type Counters struct {
	Allowed int64 `json:"allowed"`
	Denied  int64 `json:"denied"`
}

// StatsSnapshot é a visão agregada exposta em /api/ratelimit/stats.
type StatsSnapshot struct {
	Total   Counters            `json:"total"`
	ByRoute map[string]Counters `json:"byRoute"`
	ByKey   map[string]Counters `json:"byKey,omitempty"`
}

// StatsReader é implementado pelos stores que conseguem devolver um agregado.
type StatsReader interface {
	Snapshot(ctx context.Context) (StatsSnapshot, error)
}
