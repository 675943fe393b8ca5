package engine

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-sprite/engine/profiler"
	"github.com/Carmen-Shannon/oxy-sprite/engine/spritelist"
	"github.com/Carmen-Shannon/oxy-sprite/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables periodic profiler reports.
//
// Parameters:
//   - enabled: if true, enables profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the default profiler.
//
// Parameters:
//   - p: the profiler to tick each frame
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithTickRate sets the frame rate used when running without a window.
// Values <= 0 are treated as the default (60Hz).
//
// Parameters:
//   - fps: target frames per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.frameInterval = frameInterval(fps)
	}
}

// WithWindow runs the engine on the given window's message loop and forwards resizes to the
// FrameTarget when it implements Resizer.
//
// Parameters:
//   - w: the window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithFrameTarget sets what frames are opened and presented on.
//
// Parameters:
//   - target: the frame target, nil keeps NopFrameTarget
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameTarget(target FrameTarget) EngineBuilderOption {
	return func(e *engine) {
		if target != nil {
			e.target = target
		}
	}
}

// WithLayer registers a sprite list at the given key.
//
// Parameters:
//   - key: the layer order, lower keys are drawn first
//   - l: the sprite list
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLayer(key int, l spritelist.SpriteList) EngineBuilderOption {
	return func(e *engine) {
		e.layers[key] = l
	}
}

// WithLogger sets the engine logger. The default profiler also reports through it.
//
// Parameters:
//   - log: the logger, nil keeps slog.Default
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(log *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if log != nil {
			e.log = log
		}
	}
}
