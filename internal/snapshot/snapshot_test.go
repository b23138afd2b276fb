package snapshot

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KaramelBytes/dataprep-cli/internal/dataset"
)

func sample() *dataset.Dataset {
	return dataset.MustNew("s.csv",
		dataset.Infer("id", []string{"1", "2"}, []bool{false, false}),
		dataset.Infer("name", []string{"a", ""}, []bool{false, true}),
	)
}

func TestMemoryStoreTakeOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	ds := sample()

	tk, err := s.Put(ctx, ds)
	require.NoError(t, err)
	assert.NotEmpty(t, tk.Token)

	got, err := s.Take(ctx, tk.Token)
	require.NoError(t, err)
	assert.True(t, got.Equal(ds))

	_, err = s.Take(ctx, tk.Token)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreSnapshotIsIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	ds := sample()
	tk, err := s.Put(ctx, ds)
	require.NoError(t, err)

	ds.Columns()[0].(*dataset.NumericColumn).Ints[0] = 99
	got, err := s.Take(ctx, tk.Token)
	require.NoError(t, err)
	assert.Equal(t, "1", got.Columns()[0].Format(0))
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Minute)
	s.now = func() time.Time { return now }

	a, err := s.Put(ctx, sample())
	require.NoError(t, err)
	b, err := s.Put(ctx, sample())
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Minute), a.ExpiresAt)

	now = now.Add(2 * time.Minute)
	_, err = s.Take(ctx, a.Token)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 0, s.Len())
	_, err = s.Take(ctx, b.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreUnknownToken(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	_, err := s.Take(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenMemoryWithSweeper(t *testing.T) {
	s, err := Open(context.Background(), Config{Backend: "memory", TTL: time.Minute, SweepSchedule: "@every 1m"}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, s.Close())

	_, err = Open(context.Background(), Config{Backend: "memory", TTL: time.Minute, SweepSchedule: "not a schedule"}, zap.NewNop())
	assert.Error(t, err)

	_, err = Open(context.Background(), Config{Backend: "etcd"}, zap.NewNop())
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("DATAPREP_TEST_REDIS_URL")
	if url == "" {
		t.Skip("DATAPREP_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, Config{Backend: "redis", RedisURL: url, TTL: time.Minute, KeyPrefix: "dataprep:test:"}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	ds := sample()
	tk, err := s.Put(ctx, ds)
	require.NoError(t, err)

	got, err := s.Take(ctx, tk.Token)
	require.NoError(t, err)
	assert.True(t, got.Equal(ds))

	_, err = s.Take(ctx, tk.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}
