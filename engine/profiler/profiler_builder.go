package profiler

import (
	"log/slog"
	"time"
)

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often reports are produced. Non-positive values keep the default.
//
// Parameters:
//   - interval: the reporting interval
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithLogger sets the logger reports are written to.
//
// Parameters:
//   - log: the logger, nil keeps the default
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithLogger(log *slog.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		if log != nil {
			p.log = log
		}
	}
}

// WithClock replaces the time source.
//
// Parameters:
//   - now: the function returning the current time
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		if now != nil {
			p.now = now
		}
	}
}
