package store

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/openadmet/admet-server/internal/config"
	"github.com/openadmet/admet-server/internal/domain/admet"
	"github.com/openadmet/admet-server/internal/infrastructure/database/redis"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/prometheus"
	"github.com/openadmet/admet-server/pkg/errors"
)

const (
	redisBackend      = "redis"
	defaultKeyPrefix  = "admet:predictions:"
	redisUnavailable  = "prediction store backend unavailable"
	redisDecodeFailed = "failed to decode stored predictions"
)

// RedisStore keeps entries as JSON values with a native TTL, so expiry needs
// no sweeper and survives server restarts.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	metrics   *prometheus.AppMetrics
}

// NewRedisStore builds a store over an already-connected Redis client.
func NewRedisStore(client *redis.Client, cfg config.Config, metrics *prometheus.AppMetrics) *RedisStore {
	prefix := cfg.Redis.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{
		client:    client,
		keyPrefix: prefix,
		ttl:       cfg.Store.TTL,
		metrics:   metrics,
	}
}

func (s *RedisStore) key(userID string) string {
	return s.keyPrefix + userID
}

func (s *RedisStore) Set(ctx context.Context, userID string, table *admet.Table, prefs Preferences) error {
	entry := Entry{
		Table:       table,
		Preferences: prefs,
		LastSeen:    time.Now(),
	}
	payload, err := json.Marshal(&entry)
	if err != nil {
		s.recordOp("set", "error")
		return errors.New(errors.ErrCodeSerialization, "failed to encode predictions entry").WithCause(err)
	}

	if err := s.client.Set(ctx, s.key(userID), payload, s.ttl).Err(); err != nil {
		s.recordOp("set", "error")
		return errors.New(errors.ErrCodeStoreUnavailable, redisUnavailable).WithCause(err)
	}
	s.recordOp("set", "ok")
	return nil
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*Entry, error) {
	payload, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err == goredis.Nil {
		s.recordOp("get", "miss")
		return nil, ErrNotFound(userID)
	}
	if err != nil {
		s.recordOp("get", "error")
		return nil, errors.New(errors.ErrCodeStoreUnavailable, redisUnavailable).WithCause(err)
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		s.recordOp("get", "error")
		return nil, errors.New(errors.ErrCodeSerialization, redisDecodeFailed).WithCause(err)
	}
	s.recordOp("get", "ok")
	return &entry, nil
}

// Touch extends the TTL of an existing entry. EXPIRE on a missing key is a
// no-op, which matches the contract that heartbeats never create entries.
func (s *RedisStore) Touch(ctx context.Context, userID string) error {
	refreshed, err := s.client.Expire(ctx, s.key(userID), s.ttl).Result()
	if err != nil {
		s.recordOp("touch", "error")
		return errors.New(errors.ErrCodeStoreUnavailable, redisUnavailable).WithCause(err)
	}
	if refreshed {
		s.recordOp("touch", "ok")
	} else {
		s.recordOp("touch", "miss")
	}
	return nil
}

func (s *RedisStore) SetPreferences(ctx context.Context, userID string, prefs Preferences) error {
	entry, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	entry.Preferences = prefs
	entry.LastSeen = time.Now()

	payload, err := json.Marshal(entry)
	if err != nil {
		s.recordOp("set_preferences", "error")
		return errors.New(errors.ErrCodeSerialization, "failed to encode predictions entry").WithCause(err)
	}
	if err := s.client.Set(ctx, s.key(userID), payload, s.ttl).Err(); err != nil {
		s.recordOp("set_preferences", "error")
		return errors.New(errors.ErrCodeStoreUnavailable, redisUnavailable).WithCause(err)
	}
	s.recordOp("set_preferences", "ok")
	return nil
}

func (s *RedisStore) Close() error {
	return nil
}

func (s *RedisStore) recordOp(op, status string) {
	if s.metrics != nil {
		s.metrics.StoreOpsTotal.WithLabelValues(redisBackend, op, status).Inc()
	}
}
