package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"leaderboard-service/leaderboard/application"
	"leaderboard-service/leaderboard/domain"
	"leaderboard-service/leaderboard/httpapi"
	lbinfra "leaderboard-service/leaderboard/infra"
	"leaderboard-service/leaderboard/live"
	"leaderboard-service/middleware/ratelimit"
	rldomain "leaderboard-service/middleware/ratelimit/domain"
	rlinfra "leaderboard-service/middleware/ratelimit/infra"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

type janitor interface {
	StartJanitor(ctx context.Context)
}

// limiterStore é o que o middleware e o janitor precisam de um store de rate limit.
type limiterStore interface {
	rldomain.LimiterStore
	janitor
}

// app agrupa o estado do processo; nada disso vive em variáveis globais.
type app struct {
	server  *http.Server
	service *application.Service
	hub     *live.Hub
	limiter limiterStore
	closers []func() error
}

func openStore(ctx context.Context, cfg config) (domain.Store, func() error, error) {
	var (
		store  domain.Store
		closer = func() error { return nil }
	)
	switch cfg.storeBackend {
	case storeBackendSQLite:
		s, err := lbinfra.NewSQLiteStore(cfg.sqlitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		store, closer = s, s.Close
	default:
		store = lbinfra.NewFileStore(cfg.dataFile)
	}
	if err := store.Init(ctx); err != nil {
		_ = closer()
		return nil, nil, fmt.Errorf("init store: %w", err)
	}
	return store, closer, nil
}

func newLimiterStore(cfg config) limiterStore {
	if cfg.rateAlgorithm == rateAlgorithmBucket {
		return rlinfra.NewBucketStoreForWindow(cfg.rateMax, cfg.rateWindow, rlinfra.WithCleanupEvery(cfg.rateSweepEvery))
	}
	return rlinfra.NewWindowStore(cfg.rateMax, cfg.rateWindow, rlinfra.WithSweepEvery(cfg.rateSweepEvery))
}

func newStatsStore(ctx context.Context, cfg config) (rldomain.StatsStore, rldomain.StatsReader, func() error, error) {
	if !cfg.rateStatsEnabled {
		mem := rlinfra.NewMemoryStatsStore(rlinfra.WithTrackKeys(cfg.rateStatsTrackKeys))
		return mem, mem, func() error { return nil }, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.rateStatsRedisAddr,
		Password: cfg.rateStatsRedisPassword,
		DB:       cfg.rateStatsRedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	_, err := rdb.Ping(pingCtx).Result()
	cancel()
	if err != nil {
		_ = rdb.Close()
		return nil, nil, nil, fmt.Errorf("redis stats ping: %w", err)
	}

	rs := rlinfra.NewRedisStatsStore(
		rdb,
		rlinfra.WithStatsPrefix(cfg.rateStatsPrefix),
		rlinfra.WithStatsTTL(cfg.rateStatsTTL),
		rlinfra.WithStatsBucket(cfg.rateStatsBucket),
		rlinfra.WithStatsTrackKeys(cfg.rateStatsTrackKeys),
	)
	return rs, rs, rdb.Close, nil
}

func newApp(ctx context.Context, cfg config) (*app, error) {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{closers: []func() error{closeStore}}

	stats, statsReader, closeStats, err := newStatsStore(ctx, cfg)
	if err != nil {
		_ = a.close()
		return nil, err
	}
	a.closers = append(a.closers, closeStats)

	a.hub = live.NewHub()
	a.service = application.NewService(store, application.WithNotifier(a.hub))
	a.limiter = newLimiterStore(cfg)

	api := &httpapi.Server{
		Leaderboard: a.service,
		Concurrency: ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
			Max:            cfg.concurrencyMax,
			RejectStatus:   http.StatusServiceUnavailable,
			AcquireTimeout: cfg.concurrencyTimeout,
		}),
		Live: &live.Handler{
			Hub: a.hub,
			Snapshot: func(ctx context.Context) []domain.Entry {
				return a.service.Top(ctx, domain.TopN)
			},
			Upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		},
		LimitStats:      statsReader,
		StaticDir:       cfg.staticDir,
		CORSAllowOrigin: cfg.corsAllowOrigin,
	}
	if cfg.rateEnabled {
		api.RateLimit = ratelimit.Middleware(ratelimit.Options{
			Store:               a.limiter,
			Stats:               stats,
			KeyHeader:           cfg.rateKeyHeader,
			TrustXForwardedFor:  cfg.trustXFF,
			RejectStatus:        http.StatusTooManyRequests,
			RejectMessage:       ratelimit.DefaultRejectMessage,
			RetryAfter:          cfg.retryAfter,
			AddRateLimitHeaders: cfg.addHeaders,
		})
	}

	a.server = &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	return a, nil
}

// start liga os janitors; eles param quando ctx for cancelado.
func (a *app) start(ctx context.Context) {
	a.limiter.StartJanitor(ctx)
}

func (a *app) shutdown(ctx context.Context) error {
	a.hub.Close()
	err := a.server.Shutdown(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

func (a *app) close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
