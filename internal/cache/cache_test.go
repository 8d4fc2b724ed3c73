package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PatternSentinel/internal/model"
)

// fakeClock is advanced by hand in tests.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newStores(t *testing.T, clock *fakeClock) map[string]Store {
	t.Helper()
	mem := NewMemoryStore()
	mem.now = clock.now

	sq, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	sq.now = clock.now
	t.Cleanup(func() { sq.Close() })

	return map[string]Store{"memory": mem, "sqlite": sq}
}

func TestStore_SetGetExpire(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	for name, s := range newStores(t, clock) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set("analyze:BTCUSDT:15m:60", []byte(`{"ok":true}`), time.Minute))

			v, ok, err := s.Get("analyze:BTCUSDT:15m:60")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"ok":true}`, string(v))

			_, ok, err = s.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			clock.t = clock.t.Add(2 * time.Minute)
			_, ok, err = s.Get("analyze:BTCUSDT:15m:60")
			require.NoError(t, err)
			assert.False(t, ok, "expired entries are misses")

			n, err := s.Len()
			require.NoError(t, err)
			assert.Equal(t, 0, n, "expired entries are evicted on read")
		})
	}
}

func TestStore_OverwriteAndDelete(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	for name, s := range newStores(t, clock) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set("k", []byte("a"), time.Minute))
			require.NoError(t, s.Set("k", []byte("b"), time.Minute))

			v, ok, err := s.Get("k")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "b", string(v))

			require.NoError(t, s.Delete("k"))
			_, ok, _ = s.Get("k")
			assert.False(t, ok)
		})
	}
}

func TestStore_Cleanup(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	for name, s := range newStores(t, clock) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set("short", []byte("1"), 30*time.Second))
			require.NoError(t, s.Set("long", []byte("2"), time.Hour))

			clock.t = clock.t.Add(time.Minute)
			removed, err := s.Cleanup()
			require.NoError(t, err)
			assert.Equal(t, 1, removed)

			n, err := s.Len()
			require.NoError(t, err)
			assert.Equal(t, 1, n)
			clock.t = clock.t.Add(-time.Minute)
		})
	}
}

func TestMemoryStore_CopiesValue(t *testing.T) {
	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Set("k", buf, time.Minute))
	buf[0] = 'x'

	v, _, _ := s.Get("k")
	assert.Equal(t, "abc", string(v))
}

func TestNoopStore(t *testing.T) {
	s := NewNoopStore()
	require.NoError(t, s.Set("k", []byte("v"), time.Minute))
	_, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "analyze:BTCUSDT:15m:60", Key("analyze", "BTCUSDT", "15m", "60"))
	assert.Equal(t, "cleanup", Key("cleanup"))
}

func TestTTLForInterval(t *testing.T) {
	tests := []struct {
		interval model.Interval
		want     time.Duration
	}{
		{model.Interval1m, 30 * time.Second},
		{model.Interval5m, 2 * time.Minute},
		{model.Interval15m, 5 * time.Minute},
		{model.Interval1h, 15 * time.Minute},
		{model.Interval4h, 30 * time.Minute},
		{model.Interval1d, 5 * time.Minute},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TTLForInterval(tt.interval), tt.interval.String())
	}
}
