package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-sprite/engine/spritelist"
)

// Report is one interval's worth of frame, memory and device traffic statistics.
type Report struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64

	// Sync is the device traffic of every tracked sprite list during the interval.
	Sync spritelist.SyncStats
}

// Profiler tracks frame rate, memory and sprite list sync statistics.
// Reports are logged at a configurable interval.
type Profiler struct {
	log            *slog.Logger
	now            func() time.Time
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	lastSync       spritelist.SyncStats
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second and reports go to
// slog.Default.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		log:            slog.Default(),
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame with the cumulative sync statistics of every drawn sprite
// list. When the update interval has elapsed it logs and returns a Report.
//
// Parameters:
//   - sync: cumulative statistics summed over the tracked lists
//
// Returns:
//   - Report: the interval's statistics, zero if none were produced
//   - bool: true if a report was produced this tick
func (p *Profiler) Tick(sync spritelist.SyncStats) (Report, bool) {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return Report{}, false
	}

	runtime.ReadMemStats(&p.memStats)
	r := Report{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
		Sync:        sync.Sub(p.lastSync),
	}
	r.LastPauseUs, r.MaxPauseUs = p.pauses()

	p.log.Info("profiler",
		slog.Float64("fps", r.FPS),
		slog.Float64("heap_mb", r.HeapMB),
		slog.Float64("alloc_mb_s", r.AllocRateMB),
		slog.Uint64("gc", uint64(r.GCCount)),
		slog.Uint64("gc_last_us", r.LastPauseUs),
		slog.Uint64("gc_max_us", r.MaxPauseUs),
		slog.Float64("sys_mb", r.SysMB),
		slog.Uint64("syncs", r.Sync.Syncs),
		slog.Uint64("uploads", r.Sync.Uploads),
		slog.Uint64("upload_bytes", r.Sync.Bytes),
		slog.Uint64("grows", r.Sync.Grows),
		slog.Uint64("draws", r.Sync.Draws),
	)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = r.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.lastSync = sync
	return r, true
}

// pauses returns the most recent GC pause and the longest pause since the previous report.
// PauseNs is a circular buffer of the last 256 pauses.
func (p *Profiler) pauses() (last, longest uint64) {
	gcCount := p.memStats.NumGC
	if gcCount == 0 {
		return 0, 0
	}
	last = p.memStats.PauseNs[(gcCount-1)%256] / 1000

	start := p.lastGCCount
	if gcCount-start > 256 {
		start = gcCount - 256
	}
	for i := start; i < gcCount; i++ {
		longest = max(longest, p.memStats.PauseNs[i%256]/1000)
	}
	return last, longest
}
