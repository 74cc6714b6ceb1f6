package main

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	storeBackendFile   = "file"
	storeBackendSQLite = "sqlite"

	rateAlgorithmWindow = "window"
	rateAlgorithmBucket = "bucket"
)

type config struct {
	listenAddr      string
	storeBackend    string
	dataFile        string
	sqlitePath      string
	staticDir       string
	corsAllowOrigin string

	rateEnabled        bool
	rateAlgorithm      string
	rateMax            int
	rateWindow         time.Duration
	rateSweepEvery     time.Duration
	rateKeyHeader      string
	trustXFF           bool
	retryAfter         time.Duration
	addHeaders         bool
	concurrencyMax     int
	concurrencyTimeout time.Duration

	rateStatsEnabled       bool
	rateStatsRedisAddr     string
	rateStatsRedisPassword string
	rateStatsRedisDB       int
	rateStatsPrefix        string
	rateStatsTTL           time.Duration
	rateStatsBucket        string
	rateStatsTrackKeys     bool
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":"+getenvDefault("PORT", "3000"))
	cfg.storeBackend = strings.ToLower(getenvDefault("STORE_BACKEND", storeBackendFile))
	cfg.dataFile = getenvDefault("DATA_FILE", "leaderboard.json")
	cfg.sqlitePath = getenvDefault("SQLITE_PATH", "leaderboard.db")
	cfg.staticDir = getenvDefault("STATIC_DIR", "public")
	cfg.corsAllowOrigin = getenvDefault("CORS_ALLOW_ORIGIN", "*")

	cfg.rateEnabled = getenvBoolDefault("RATE_ENABLED", true)
	cfg.rateAlgorithm = strings.ToLower(getenvDefault("RATE_ALGORITHM", rateAlgorithmWindow))
	cfg.rateMax = getenvIntDefault("RATE_MAX", 10)
	cfg.rateWindow = getenvDurationDefault("RATE_WINDOW", time.Minute)
	cfg.rateSweepEvery = getenvDurationDefault("RATE_SWEEP_EVERY", 5*time.Minute)
	cfg.rateKeyHeader = os.Getenv("RATE_KEY_HEADER")
	// o jogo roda atrás de proxy na maioria dos deploys
	cfg.trustXFF = getenvBoolDefault("TRUST_XFF", true)
	cfg.retryAfter = getenvDurationDefault("RETRY_AFTER", cfg.rateWindow)
	cfg.addHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", false)
	cfg.concurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 100)
	cfg.concurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 0)

	cfg.rateStatsEnabled = getenvBoolDefault("RATE_STATS_ENABLED", false)
	cfg.rateStatsRedisAddr = getenvDefault("RATE_STATS_REDIS_ADDR", "")
	cfg.rateStatsRedisPassword = os.Getenv("RATE_STATS_REDIS_PASSWORD")
	cfg.rateStatsRedisDB = getenvIntDefault("RATE_STATS_REDIS_DB", 0)
	cfg.rateStatsPrefix = getenvDefault("RATE_STATS_PREFIX", "leaderboard:ratelimit")
	cfg.rateStatsTTL = getenvDurationDefault("RATE_STATS_TTL", 24*time.Hour)
	cfg.rateStatsBucket = getenvDefault("RATE_STATS_BUCKET", "minute")
	cfg.rateStatsTrackKeys = getenvBoolDefault("RATE_STATS_TRACK_KEYS", false)

	if cfg.rateStatsEnabled && strings.TrimSpace(cfg.rateStatsRedisAddr) == "" {
		return config{}, errors.New("RATE_STATS_REDIS_ADDR is required when RATE_STATS_ENABLED=true")
	}

	switch cfg.storeBackend {
	case storeBackendFile:
		if strings.TrimSpace(cfg.dataFile) == "" {
			return config{}, errors.New("DATA_FILE is required when STORE_BACKEND=file")
		}
	case storeBackendSQLite:
		if strings.TrimSpace(cfg.sqlitePath) == "" {
			return config{}, errors.New("SQLITE_PATH is required when STORE_BACKEND=sqlite")
		}
	default:
		return config{}, errors.New("STORE_BACKEND must be file or sqlite")
	}

	if cfg.rateAlgorithm != rateAlgorithmWindow && cfg.rateAlgorithm != rateAlgorithmBucket {
		return config{}, errors.New("RATE_ALGORITHM must be window or bucket")
	}
	if cfg.rateMax <= 0 {
		return config{}, errors.New("RATE_MAX must be > 0")
	}
	if cfg.rateWindow <= 0 {
		return config{}, errors.New("RATE_WINDOW must be > 0")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
