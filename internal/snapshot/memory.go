package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/KaramelBytes/dataprep-cli/internal/dataset"
)

type memEntry struct {
	ds      *dataset.Dataset
	expires time.Time
}

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memEntry
	cron    *cron.Cron
}

// NewMemoryStore returns an empty store whose snapshots live for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]memEntry)}
}

func (s *MemoryStore) Put(_ context.Context, ds *dataset.Dataset) (Ticket, error) {
	t := Ticket{Token: newToken(), ExpiresAt: s.now().Add(s.ttl)}
	s.mu.Lock()
	s.entries[t.Token] = memEntry{ds: ds.Clone(), expires: t.ExpiresAt}
	s.mu.Unlock()
	return t, nil
}

func (s *MemoryStore) Take(_ context.Context, token string) (*dataset.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.entries, token)
	if !s.now().Before(e.expires) {
		return nil, ErrNotFound
	}
	return e.ds, nil
}

// Len returns the number of stored snapshots, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops expired snapshots and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// StartSweeper runs Sweep on a cron schedule such as "@every 1m".
func (s *MemoryStore) StartSweeper(schedule string, log *zap.Logger) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if n := s.Sweep(); n > 0 {
			log.Debug("swept expired snapshots", zap.Int("count", n))
		}
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c
	return nil
}

// Close stops the sweeper, if any, and waits for a running sweep to finish.
func (s *MemoryStore) Close() error {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	return nil
}
