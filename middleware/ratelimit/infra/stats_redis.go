package infra

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"leaderboard-service/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore grava as decisões do rate limit em hashes do Redis:
//
//	<prefix>:total            allowed/denied (cumulativo, sem TTL)
//	<prefix>:minute:<yyyymmddhhmm>  série por minuto (com TTL)
//	<prefix>:route            "<METHOD> <path>:allowed|denied"
//	<prefix>:key:<key>        por cliente, se trackKeys
type RedisStatsStore struct {
	rdb *redis.Client

	prefix string
	// ttl aplica apenas em chaves de série temporal / por key.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"

	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb *redis.Client, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "leaderboard:ratelimit",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := counterField(ev.Allowed)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.totalKey(), field, 1)

	if s.bucket == "minute" {
		bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
		pipe.HIncrBy(ctx, bucketKey, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, bucketKey, s.ttl)
		}
	}

	if routeField := routeName(ev.Method, ev.Path); routeField != "" {
		pipe.HIncrBy(ctx, s.routeKey(), routeField+":"+field, 1)
	}

	if s.trackKeys {
		if k := strings.TrimSpace(string(ev.Key)); k != "" {
			keyKey := s.prefix + ":key:" + k
			pipe.HIncrBy(ctx, keyKey, field, 1)
			if s.ttl > 0 {
				pipe.Expire(ctx, keyKey, s.ttl)
			}
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}

// Snapshot implementa domain.StatsReader (total + por rota; por chave exigiria SCAN).
func (s *RedisStatsStore) Snapshot(ctx context.Context) (domain.StatsSnapshot, error) {
	if s == nil || s.rdb == nil {
		return domain.StatsSnapshot{ByRoute: map[string]domain.Counters{}}, nil
	}

	pipe := s.rdb.Pipeline()
	totalCmd := pipe.HGetAll(ctx, s.totalKey())
	routeCmd := pipe.HGetAll(ctx, s.routeKey())
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return domain.StatsSnapshot{}, fmt.Errorf("redis stats snapshot: %w", err)
	}

	return domain.StatsSnapshot{
		Total:   parseCounters(totalCmd.Val()),
		ByRoute: parseRouteCounters(routeCmd.Val()),
	}, nil
}

func (s *RedisStatsStore) totalKey() string { return s.prefix + ":total" }
func (s *RedisStatsStore) routeKey() string { return s.prefix + ":route" }

func counterField(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}

func routeName(method, path string) string {
	return strings.TrimSpace(strings.TrimSpace(method) + " " + strings.TrimSpace(path))
}

func parseCounters(h map[string]string) domain.Counters {
	var c domain.Counters
	c.Allowed, _ = strconv.ParseInt(h["allowed"], 10, 64)
	c.Denied, _ = strconv.ParseInt(h["denied"], 10, 64)
	return c
}

func parseRouteCounters(h map[string]string) map[string]domain.Counters {
	out := make(map[string]domain.Counters)
	for field, raw := range h {
		i := strings.LastIndexByte(field, ':')
		if i <= 0 {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		route := field[:i]
		c := out[route]
		switch field[i+1:] {
		case "allowed":
			c.Allowed += n
		case "denied":
			c.Denied += n
		default:
			continue
		}
		out[route] = c
	}
	return out
}
