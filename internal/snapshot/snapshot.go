package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/dataprep-cli/internal/dataset"
)

// ErrNotFound is returned for tokens that are unknown, expired or already taken.
var ErrNotFound = errors.New("snapshot not found or expired")

// Ticket identifies a stored snapshot.
type Ticket struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store keeps datasets between the profile and clean requests. A snapshot
// can be taken at most once.
type Store interface {
	Put(ctx context.Context, ds *dataset.Dataset) (Ticket, error)
	// Take returns the snapshot for token and deletes it.
	Take(ctx context.Context, token string) (*dataset.Dataset, error)
	Close() error
}

// Config selects and tunes a store backend.
type Config struct {
	Backend       string        `mapstructure:"backend" yaml:"backend" validate:"oneof=memory redis"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl" validate:"gt=0"`
	SweepSchedule string        `mapstructure:"sweep_schedule" yaml:"sweep_schedule"`
	RedisURL      string        `mapstructure:"redis_url" yaml:"redis_url" validate:"required_if=Backend redis"`
	KeyPrefix     string        `mapstructure:"key_prefix" yaml:"key_prefix"`
}

// Open builds the store described by cfg.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		s := NewMemoryStore(cfg.TTL)
		if cfg.SweepSchedule != "" {
			if err := s.StartSweeper(cfg.SweepSchedule, log); err != nil {
				return nil, err
			}
		}
		return s, nil
	case "redis":
		return NewRedisStore(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
}

func newToken() string { return uuid.NewString() }
