package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-sprite/engine/spritelist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestProfiler_ReportsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var buf bytes.Buffer
	p := NewProfiler(
		WithClock(clock.now),
		WithInterval(time.Second),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)

	for range 9 {
		clock.advance(100 * time.Millisecond)
		_, ok := p.Tick(spritelist.SyncStats{})
		assert.False(t, ok)
	}
	assert.Empty(t, buf.String())

	clock.advance(100 * time.Millisecond)
	r, ok := p.Tick(spritelist.SyncStats{Uploads: 4, Bytes: 64, Draws: 10})
	require.True(t, ok)
	assert.InDelta(t, 10.0, r.FPS, 1e-9)
	assert.Equal(t, uint64(4), r.Sync.Uploads)
	assert.Equal(t, uint64(64), r.Sync.Bytes)
	assert.Equal(t, uint64(10), r.Sync.Draws)
	assert.Contains(t, buf.String(), "fps=10")
	assert.Contains(t, buf.String(), "uploads=4")
}

func TestProfiler_SyncIsDeltaSincePreviousReport(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(
		WithClock(clock.now),
		WithInterval(time.Second),
		WithLogger(slog.New(slog.DiscardHandler)),
	)

	clock.advance(time.Second)
	_, ok := p.Tick(spritelist.SyncStats{Syncs: 3, Uploads: 5, Bytes: 100})
	require.True(t, ok)

	clock.advance(time.Second)
	r, ok := p.Tick(spritelist.SyncStats{Syncs: 4, Uploads: 9, Bytes: 160, Grows: 1})
	require.True(t, ok)
	assert.Equal(t, spritelist.SyncStats{Syncs: 1, Uploads: 4, Bytes: 60, Grows: 1}, r.Sync)
	assert.InDelta(t, 1.0, r.FPS, 1e-9)
}

func TestProfiler_OptionsIgnoreInvalidValues(t *testing.T) {
	p := NewProfiler(WithInterval(0), WithLogger(nil), WithClock(nil))
	assert.Equal(t, time.Second, p.updateInterval)
	assert.NotNil(t, p.log)
	assert.NotNil(t, p.now)
}
