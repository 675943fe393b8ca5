package spritelist

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-sprite/engine/device"
)

const (
	// DefaultInitialCapacity is the slot count preallocated when WithInitialCapacity is not given.
	DefaultInitialCapacity = 100

	// DefaultSpatialCellSize is the spatial index cell edge used when WithSpatialCellSize is not given.
	DefaultSpatialCellSize = 128
)

// SpriteListBuilderOption is a functional option for configuring a SpriteList.
type SpriteListBuilderOption func(*spriteList)

// WithInitialCapacity sets the number of slots allocated up front.
//
// Parameters:
//   - n: the slot count (default 100)
//
// Returns:
//   - SpriteListBuilderOption: option function to apply
func WithInitialCapacity(n int) SpriteListBuilderOption {
	return func(l *spriteList) {
		l.initialCapacity = uint32(max(n, 0))
	}
}

// WithLazy defers device buffer creation until the first Sync, Draw or Realize.
//
// Parameters:
//   - lazy: whether to defer realization
//
// Returns:
//   - SpriteListBuilderOption: option function to apply
func WithLazy(lazy bool) SpriteListBuilderOption {
	return func(l *spriteList) {
		l.lazy = lazy
	}
}

// WithSpatialIndex enables the grid spatial index used by Query.
//
// Parameters:
//   - enabled: whether to maintain the index
//
// Returns:
//   - SpriteListBuilderOption: option function to apply
func WithSpatialIndex(enabled bool) SpriteListBuilderOption {
	return func(l *spriteList) {
		l.useSpatial = enabled
	}
}

// WithSpatialCellSize sets the edge length of a spatial index cell. Non-positive values fall back
// to the default.
//
// Parameters:
//   - size: the cell edge in world units (default 128)
//
// Returns:
//   - SpriteListBuilderOption: option function to apply
func WithSpatialCellSize(size float32) SpriteListBuilderOption {
	return func(l *spriteList) {
		l.cellSize = size
	}
}

// WithDevice sets the device the list's buffers are created on. Without it the list uses a
// private headless device.
//
// Parameters:
//   - d: the device
//
// Returns:
//   - SpriteListBuilderOption: option function to apply
func WithDevice(d device.Device) SpriteListBuilderOption {
	return func(l *spriteList) {
		l.dev = d
	}
}

// WithLogger sets a logger for this list instead of the package logger.
//
// Parameters:
//   - log: the logger
//
// Returns:
//   - SpriteListBuilderOption: option function to apply
func WithLogger(log *slog.Logger) SpriteListBuilderOption {
	return func(l *spriteList) {
		l.log = log
	}
}

// WithRebuildWorkers sets how many workers a full spatial index rebuild may use.
//
// Parameters:
//   - n: the worker count (default 1, meaning rebuild on the calling goroutine)
//
// Returns:
//   - SpriteListBuilderOption: option function to apply
func WithRebuildWorkers(n int) SpriteListBuilderOption {
	return func(l *spriteList) {
		l.rebuildWorkers = max(n, 1)
	}
}

// WithLabel sets the debug label used in logs and device buffer names.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - SpriteListBuilderOption: option function to apply
func WithLabel(label string) SpriteListBuilderOption {
	return func(l *spriteList) {
		l.label = label
	}
}
