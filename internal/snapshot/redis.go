package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/KaramelBytes/dataprep-cli/internal/dataset"
)

// RedisStore keeps snapshots in Redis with a key TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore connects to cfg.RedisURL and verifies the connection.
func NewRedisStore(ctx context.Context, cfg Config, log *zap.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	s := &RedisStore{client: redis.NewClient(opts), prefix: cfg.KeyPrefix, ttl: cfg.TTL, logger: log}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Ping(pingCtx).Err(); err != nil {
		_ = s.client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("snapshot store connected", zap.String("backend", "redis"), zap.Duration("ttl", cfg.TTL))
	return s, nil
}

func (s *RedisStore) key(token string) string { return s.prefix + token }

func (s *RedisStore) Put(ctx context.Context, ds *dataset.Dataset) (Ticket, error) {
	data, err := json.Marshal(ds)
	if err != nil {
		return Ticket{}, fmt.Errorf("encode snapshot: %w", err)
	}
	t := Ticket{Token: newToken(), ExpiresAt: time.Now().Add(s.ttl)}
	if err := s.client.Set(ctx, s.key(t.Token), data, s.ttl).Err(); err != nil {
		return Ticket{}, fmt.Errorf("store snapshot: %w", err)
	}
	return t, nil
}

// Take reads and deletes the snapshot in one MULTI transaction.
func (s *RedisStore) Take(ctx context.Context, token string) (*dataset.Dataset, error) {
	var get *redis.StringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.Get(ctx, s.key(token))
		pipe.Del(ctx, s.key(token))
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("take snapshot: %w", err)
	}
	data, err := get.Bytes()
	if err != nil {
		return nil, fmt.Errorf("take snapshot: %w", err)
	}
	var ds dataset.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		s.logger.Error("corrupt snapshot discarded", zap.String("token", token), zap.Error(err))
		return nil, ErrNotFound
	}
	return &ds, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
