package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/Carmen-Shannon/oxy-sprite/engine/profiler"
	"github.com/Carmen-Shannon/oxy-sprite/engine/spritelist"
	"github.com/Carmen-Shannon/oxy-sprite/engine/window"
)

// engine implements the Engine interface.
type engine struct {
	window window.Window
	target FrameTarget
	log    *slog.Logger

	profiler         *profiler.Profiler
	profilingEnabled bool

	frameInterval time.Duration
	tickCallback  func(deltaTime float32)

	layers map[int]spritelist.SpriteList

	lastFrame time.Time
	cancel    context.CancelFunc
	err       error
}

// Engine runs the frame loop for a stack of sprite list layers.
//
// Every frame calls the tick callback, then opens a frame on the FrameTarget, draws each layer in
// ascending key order, closes and presents the frame. Everything runs on the calling goroutine;
// with a window that is the window's thread.
type Engine interface {
	// Window returns the window the engine runs on, or nil for windowless targets.
	Window() window.Window

	// Target returns the FrameTarget frames are opened on.
	Target() FrameTarget

	// EnableProfiler enables periodic profiler reports.
	EnableProfiler()

	// DisableProfiler disables profiler reports.
	DisableProfiler()

	// SetTickRate sets the frame rate used when running without a window.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called at the start of every frame, before any layer
	// is drawn. Use it to mutate sprites and lists.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// AddLayer registers a sprite list at the given key, replacing any list already there.
	// Lower keys are drawn first, so higher keys paint over them.
	//
	// Parameters:
	//   - key: the layer order
	//   - l: the sprite list
	AddLayer(key int, l spritelist.SpriteList)

	// RemoveLayer removes the layer at the given key. The list is not released.
	//
	// Parameters:
	//   - key: the layer to remove
	RemoveLayer(key int)

	// Layer returns the sprite list at the given key, or nil.
	//
	// Parameters:
	//   - key: the layer order
	//
	// Returns:
	//   - spritelist.SpriteList: the list, or nil if none is registered
	Layer(key int) spritelist.SpriteList

	// LayerKeys returns the registered keys in draw order.
	//
	// Returns:
	//   - []int: ascending layer keys
	LayerKeys() []int

	// Stats returns the sync statistics summed over every layer.
	//
	// Returns:
	//   - spritelist.SyncStats: the summed statistics
	Stats() spritelist.SyncStats

	// Frame runs one frame with the given delta time.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous frame
	//
	// Returns:
	//   - error: the joined errors of every layer that failed to draw
	Frame(deltaTime float32) error

	// Run runs frames until ctx is done, the window closes, Quit is called, or a frame fails.
	//
	// Parameters:
	//   - ctx: the context bounding the run
	//
	// Returns:
	//   - error: the first frame error, or nil
	Run(ctx context.Context) error

	// Quit stops a running engine after the current frame. Safe to call from any goroutine.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine with the provided options. Without WithFrameTarget frames are
// drawn without any surface lifecycle, which suits headless devices.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		target:        NopFrameTarget(),
		log:           slog.Default(),
		layers:        make(map[int]spritelist.SpriteList),
		frameInterval: time.Second / 60,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.log))
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			if r, ok := e.target.(Resizer); ok {
				r.Resize(width, height)
			}
		})
	}
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Target() FrameTarget {
	return e.target
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetTickRate(fps float64) {
	e.frameInterval = frameInterval(fps)
}

func frameInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) AddLayer(key int, l spritelist.SpriteList) {
	e.layers[key] = l
}

func (e *engine) RemoveLayer(key int) {
	delete(e.layers, key)
}

func (e *engine) Layer(key int) spritelist.SpriteList {
	return e.layers[key]
}

func (e *engine) LayerKeys() []int {
	return slices.Sorted(maps.Keys(e.layers))
}

func (e *engine) Stats() spritelist.SyncStats {
	var total spritelist.SyncStats
	for _, l := range e.layers {
		total = total.Add(l.Stats())
	}
	return total
}

func (e *engine) Frame(deltaTime float32) error {
	if e.tickCallback != nil {
		e.tickCallback(deltaTime)
	}

	if err := e.target.BeginFrame(); err != nil {
		// A lost or outdated surface skips the frame; the next resize reconfigures it.
		e.log.Debug("skipping frame", slog.Any("error", err))
		return nil
	}

	var errs []error
	for _, key := range e.LayerKeys() {
		if err := e.layers[key].Draw(); err != nil {
			errs = append(errs, fmt.Errorf("engine: layer %d: %w", key, err))
		}
	}
	e.target.EndFrame()
	e.target.Present()

	if e.profilingEnabled {
		e.profiler.Tick(e.Stats())
	}
	return errors.Join(errs...)
}

// step runs one frame timed against the previous one.
func (e *engine) step() error {
	now := time.Now()
	var dt float32
	if !e.lastFrame.IsZero() {
		dt = float32(now.Sub(e.lastFrame).Seconds())
	}
	e.lastFrame = now
	return e.Frame(dt)
}

func (e *engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	defer cancel()
	e.err = nil

	if e.window != nil {
		e.window.SetUpdateCallback(func() {
			if ctx.Err() != nil {
				e.window.RequestClose()
				return
			}
			if err := e.step(); err != nil {
				e.err = err
				e.window.RequestClose()
			}
		})
		e.window.ProcessMessages()
		e.window.SetUpdateCallback(nil)
		return e.err
	}

	ticker := time.NewTicker(e.frameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := e.step(); err != nil {
				return err
			}
		}
	}
}

func (e *engine) Quit() {
	if e.cancel != nil {
		e.cancel()
	}
}
