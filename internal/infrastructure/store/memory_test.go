package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openadmet/admet-server/internal/config"
	"github.com/openadmet/admet-server/internal/domain/admet"
	"github.com/openadmet/admet-server/internal/infrastructure/monitoring/logging"
	"github.com/openadmet/admet-server/pkg/errors"
)

func newTestStore(t *testing.T, ttl time.Duration) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(config.StoreConfig{
		Backend:       "memory",
		TTL:           ttl,
		SweepInterval: time.Hour, // sweeps are driven manually in tests
	}, logging.NewNopLogger(), nil)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTable() *admet.Table {
	table := admet.NewTable()
	table.Append("CCO", map[string]float64{"hia": 0.92})
	return table
}

func TestMemoryStoreSetGetRoundTrip(t *testing.T) {
	s := newTestStore(t, 2*time.Hour)
	ctx := context.Background()

	prefs := Preferences{ATCCode: "all", XProperty: "hia", YProperty: "clinical_toxicity"}
	require.NoError(t, s.Set(ctx, "user-1", sampleTable(), prefs))

	entry, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, prefs, entry.Preferences)
	require.Len(t, entry.Table.Rows, 1)
	assert.Equal(t, "CCO", entry.Table.Rows[0].SMILES)
	assert.False(t, entry.LastSeen.IsZero())
}

func TestMemoryStoreGetUnknownUser(t *testing.T) {
	s := newTestStore(t, 2*time.Hour)

	entry, err := s.Get(context.Background(), "nobody")
	assert.Nil(t, entry)
	assert.True(t, errors.IsCode(err, errors.ErrCodePredictionsNotFound))
}

func TestMemoryStoreSetOverwrites(t *testing.T) {
	s := newTestStore(t, 2*time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "user-1", sampleTable(), Preferences{}))

	second := admet.NewTable()
	second.Append("c1ccccc1", map[string]float64{"hia": 0.5})
	second.Append("CCN", map[string]float64{"hia": 0.7})
	require.NoError(t, s.Set(ctx, "user-1", second, Preferences{ATCCode: "j"}))

	entry, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, entry.Table.Rows, 2)
	assert.Equal(t, "j", entry.Preferences.ATCCode)
}

func TestMemoryStoreTouchNeverCreates(t *testing.T) {
	s := newTestStore(t, 2*time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Touch(ctx, "ghost"))

	_, err := s.Get(ctx, "ghost")
	assert.True(t, errors.IsCode(err, errors.ErrCodePredictionsNotFound))
}

func TestMemoryStoreTouchRefreshesExpiry(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base }
	require.NoError(t, s.Set(ctx, "user-1", sampleTable(), Preferences{}))

	// Heartbeat arrives 50 minutes in, pushing expiry past the original TTL.
	s.now = func() time.Time { return base.Add(50 * time.Minute) }
	require.NoError(t, s.Touch(ctx, "user-1"))

	s.now = func() time.Time { return base.Add(90 * time.Minute) }
	s.sweep()

	_, err := s.Get(ctx, "user-1")
	assert.NoError(t, err)
}

func TestMemoryStoreSweepEvictsIdleEntries(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base }
	require.NoError(t, s.Set(ctx, "stale", sampleTable(), Preferences{}))

	s.now = func() time.Time { return base.Add(55 * time.Minute) }
	require.NoError(t, s.Set(ctx, "fresh", sampleTable(), Preferences{}))

	s.now = func() time.Time { return base.Add(65 * time.Minute) }
	s.sweep()

	_, err := s.Get(ctx, "stale")
	assert.True(t, errors.IsCode(err, errors.ErrCodePredictionsNotFound))

	_, err = s.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestMemoryStoreZeroTTLDisablesExpiry(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base }
	require.NoError(t, s.Set(ctx, "user-1", sampleTable(), Preferences{}))

	s.now = func() time.Time { return base.Add(1000 * time.Hour) }
	s.sweep()

	_, err := s.Get(ctx, "user-1")
	assert.NoError(t, err)
}

// Entries handed out by Get must be snapshots: concurrent Touch and
// SetPreferences calls mutate the stored entry under the lock, and readers
// must never observe those writes. Run with -race.
func TestMemoryStoreGetReturnsSnapshot(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "user-1", sampleTable(), Preferences{ATCCode: "all"}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = s.SetPreferences(ctx, "user-1", Preferences{ATCCode: "j"})
			_ = s.Touch(ctx, "user-1")
		}
	}()

	for i := 0; i < 200; i++ {
		entry, err := s.Get(ctx, "user-1")
		require.NoError(t, err)
		code := entry.Preferences.ATCCode
		assert.Contains(t, []string{"all", "j"}, code)
		_ = entry.LastSeen
	}
	<-done

	// Mutating the snapshot must not write through to the store.
	entry, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	entry.Preferences.ATCCode = "scribbled"
	again, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, "scribbled", again.Preferences.ATCCode)
}

func TestMemoryStoreSetPreferences(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	err := s.SetPreferences(ctx, "nobody", Preferences{ATCCode: "all"})
	assert.True(t, errors.IsCode(err, errors.ErrCodePredictionsNotFound))

	require.NoError(t, s.Set(ctx, "user-1", sampleTable(), Preferences{ATCCode: "all"}))
	require.NoError(t, s.SetPreferences(ctx, "user-1", Preferences{
		ATCCode:   "n",
		XProperty: "aqueous_solubility",
		YProperty: "herg_blocking",
	}))

	entry, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "n", entry.Preferences.ATCCode)
	assert.Equal(t, "aqueous_solubility", entry.Preferences.XProperty)
	assert.Len(t, entry.Table.Rows, 1)
}
