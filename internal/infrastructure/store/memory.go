package store

import (
	"context"
	"sync"
	"time"

	"github.com/openadmet/admet-server/internal/config"
	"github.com/openadmet/admet-server/internal/domain/admet"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/prometheus"
)

const memoryBackend = "memory"

// MemoryStore keeps entries in a map guarded by a mutex, with a background
// sweeper that drops entries idle longer than the configured TTL.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry

	ttl     time.Duration
	logger  logging.Logger
	metrics *prometheus.AppMetrics

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// now is swappable so expiry tests don't have to sleep.
	now func() time.Time
}

// NewMemoryStore builds the in-process store and starts its sweeper.
func NewMemoryStore(cfg config.StoreConfig, log logging.Logger, metrics *prometheus.AppMetrics) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*Entry),
		ttl:     cfg.TTL,
		logger:  log,
		metrics: metrics,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		now:     time.Now,
	}

	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	go s.sweepLoop(interval)

	return s
}

func (s *MemoryStore) Set(ctx context.Context, userID string, table *admet.Table, prefs Preferences) error {
	s.mu.Lock()
	s.entries[userID] = &Entry{
		Table:       table,
		Preferences: prefs,
		LastSeen:    s.now(),
	}
	size := len(s.entries)
	s.mu.Unlock()

	s.recordOp("set", "ok")
	s.gaugeEntries(size)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (*Entry, error) {
	s.mu.RLock()
	entry, ok := s.entries[userID]
	var snapshot Entry
	if ok {
		// Touch and SetPreferences mutate the stored entry under the lock;
		// callers get a snapshot so they never observe those writes mid-read.
		// The table itself is immutable once stored (Set replaces it wholesale).
		snapshot = *entry
	}
	s.mu.RUnlock()

	if !ok {
		s.recordOp("get", "miss")
		return nil, ErrNotFound(userID)
	}
	s.recordOp("get", "ok")
	return &snapshot, nil
}

func (s *MemoryStore) Touch(ctx context.Context, userID string) error {
	s.mu.Lock()
	entry, ok := s.entries[userID]
	if ok {
		entry.LastSeen = s.now()
	}
	s.mu.Unlock()

	if ok {
		s.recordOp("touch", "ok")
	} else {
		s.recordOp("touch", "miss")
	}
	return nil
}

func (s *MemoryStore) SetPreferences(ctx context.Context, userID string, prefs Preferences) error {
	s.mu.Lock()
	entry, ok := s.entries[userID]
	if ok {
		entry.Preferences = prefs
		entry.LastSeen = s.now()
	}
	s.mu.Unlock()

	if !ok {
		s.recordOp("set_preferences", "miss")
		return ErrNotFound(userID)
	}
	s.recordOp("set_preferences", "ok")
	return nil
}

func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
	return nil
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep removes entries whose LastSeen is older than the TTL. A TTL of zero
// disables expiry.
func (s *MemoryStore) sweep() {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var evicted int
	for userID, entry := range s.entries {
		if entry.LastSeen.Before(cutoff) {
			delete(s.entries, userID)
			evicted++
		}
	}
	size := len(s.entries)
	s.mu.Unlock()

	if evicted > 0 {
		s.logger.Info("evicted idle prediction entries",
			logging.Int("count", evicted),
			logging.Duration("ttl", s.ttl),
		)
		if s.metrics != nil {
			s.metrics.StoreEvictionsTotal.WithLabelValues(memoryBackend, "expired").Add(float64(evicted))
		}
	}
	s.gaugeEntries(size)
}

func (s *MemoryStore) recordOp(op, status string) {
	if s.metrics != nil {
		s.metrics.StoreOpsTotal.WithLabelValues(memoryBackend, op, status).Inc()
	}
}

func (s *MemoryStore) gaugeEntries(size int) {
	if s.metrics != nil {
		s.metrics.StoreEntries.WithLabelValues(memoryBackend).Set(float64(size))
	}
}
