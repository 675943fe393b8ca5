// Command spritedemo animates a sprite list on a WebGPU window or in the terminal.
//
//	spritedemo -backend terminal -count 200
//	spritedemo -backend wgpu -config list.toml -profile cpu
//
// Keys: S shuffle, R reverse, Space toggle depth sort, X pop the top sprite, C clear, Esc quit.
// Clicking removes the sprite under the cursor or spawns one there.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/Carmen-Shannon/oxy-sprite/common"
	"github.com/Carmen-Shannon/oxy-sprite/engine"
	"github.com/Carmen-Shannon/oxy-sprite/engine/device"
	"github.com/Carmen-Shannon/oxy-sprite/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sprite/engine/spritelist"
	"github.com/Carmen-Shannon/oxy-sprite/engine/window"
	"github.com/gdamore/tcell/v2"
	"github.com/pkg/profile"
)

type options struct {
	backend  string
	config   string
	count    int
	profile  string
	logFile  string
	verbose  bool
	seed     uint64
	tickRate float64
}

func main() {
	var opts options
	flag.StringVar(&opts.backend, "backend", "terminal", "render backend: terminal or wgpu")
	flag.StringVar(&opts.config, "config", "", "sprite list TOML config file")
	flag.IntVar(&opts.count, "count", 200, "number of sprites to spawn")
	flag.StringVar(&opts.profile, "profile", "", "write a cpu or mem profile to the working directory")
	flag.StringVar(&opts.logFile, "log", "", "write logs to this file (default stderr for wgpu, discarded for terminal)")
	flag.BoolVar(&opts.verbose, "v", false, "log sprite list debug output")
	flag.Uint64Var(&opts.seed, "seed", uint64(time.Now().UnixNano()), "random seed")
	flag.Float64Var(&opts.tickRate, "fps", 30, "terminal frame rate")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "spritedemo: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	switch opts.profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile %q", opts.profile)
	}

	cfg := spritelist.DefaultConfig()
	if opts.config != "" {
		var err error
		if cfg, err = spritelist.LoadConfig(opts.config); err != nil {
			return err
		}
	}
	cfg.Label = common.Coalesce(cfg.Label, "Demo Sprites")
	if opts.count < 0 {
		return fmt.Errorf("count must not be negative, got %d", opts.count)
	}

	log, closeLog, err := newLogger(opts)
	if err != nil {
		return err
	}
	defer closeLog()
	if opts.verbose {
		spritelist.SetLogger(log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch opts.backend {
	case "wgpu":
		return runWGPU(ctx, opts, cfg, log)
	case "terminal":
		return runTerminal(ctx, opts, cfg, log)
	default:
		return fmt.Errorf("unknown backend %q", opts.backend)
	}
}

func newLogger(opts options) (*slog.Logger, func(), error) {
	handlerOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if opts.verbose {
		handlerOpts.Level = slog.LevelDebug
	}
	switch {
	case opts.logFile != "":
		f, err := os.Create(opts.logFile)
		if err != nil {
			return nil, nil, err
		}
		return slog.New(slog.NewTextHandler(f, handlerOpts)), func() { _ = f.Close() }, nil
	case opts.backend == "terminal":
		// The terminal owns stdout and stderr while the demo runs.
		return slog.New(slog.NewTextHandler(io.Discard, handlerOpts)), func() {}, nil
	default:
		return slog.New(slog.NewTextHandler(os.Stderr, handlerOpts)), func() {}, nil
	}
}

func runWGPU(ctx context.Context, opts options, cfg spritelist.Config, log *slog.Logger) error {
	win, err := window.NewWindow(window.WithTitle("Sprite Demo"), window.WithSize(1280, 720))
	if err != nil {
		return err
	}
	defer func() { _ = win.Close() }()

	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
		renderer.WithPresentMode(renderer.PresentModeVSync),
	)
	if err != nil {
		return err
	}
	defer r.Release()

	list, err := spritelist.NewSpriteList(append(cfg.Options(),
		spritelist.WithDevice(r.SpriteDevice()),
		spritelist.WithLogger(log),
	)...)
	if err != nil {
		return err
	}
	defer list.Release()

	sc, err := newScene(list, opts.count, float32(win.Width()), float32(win.Height()), opts.seed)
	if err != nil {
		return err
	}

	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithFrameTarget(r),
		engine.WithLayer(0, list),
		engine.WithLogger(log),
		engine.WithProfiling(true),
	)
	var inputErr error
	fail := func(err error) {
		if err != nil && inputErr == nil {
			inputErr = err
			eng.Quit()
		}
	}
	win.SetResizeCallback(func(width, height int) {
		r.Resize(width, height)
		sc.resize(width, height)
	})
	win.SetKeyDownCallback(func(keyCode uint32) { fail(sc.key(keyCode)) })
	win.SetClickCallback(func(x, y float32) { fail(sc.click(x, y)) })
	eng.SetTickCallback(sc.tick)

	if err := eng.Run(ctx); err != nil {
		return err
	}
	return inputErr
}

func runTerminal(ctx context.Context, opts options, cfg spritelist.Config, log *slog.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()

	const cellWidth, cellHeight = 8, 16
	dev := device.NewTerminalDevice(screen,
		device.WithCellSize(cellWidth, cellHeight),
		device.WithAutoPresent(false),
	)

	list, err := spritelist.NewSpriteList(append(cfg.Options(),
		spritelist.WithDevice(dev),
		spritelist.WithLogger(log),
	)...)
	if err != nil {
		return err
	}
	defer list.Release()

	cols, rows := screen.Size()
	sc, err := newScene(list, opts.count, float32(cols*cellWidth), float32(rows*cellHeight), opts.seed)
	if err != nil {
		return err
	}

	eng := engine.NewEngine(
		engine.WithFrameTarget(engine.TerminalFrameTarget(dev)),
		engine.WithLayer(0, list),
		engine.WithTickRate(opts.tickRate),
		engine.WithLogger(log),
		engine.WithProfiling(true),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan tcell.Event, 64)
	go pollEvents(ctx, screen, events)

	var inputErr error
	eng.SetTickCallback(func(dt float32) {
	drain:
		for {
			select {
			case ev := <-events:
				if err := handleTerminalEvent(ev, sc, eng, cellWidth, cellHeight); err != nil && inputErr == nil {
					inputErr = err
					eng.Quit()
				}
			default:
				break drain
			}
		}
		sc.tick(dt)
	})

	if err := eng.Run(ctx); err != nil {
		return err
	}
	return inputErr
}

// pollEvents forwards screen events to events until the screen is finalized or ctx is done.
func pollEvents(ctx context.Context, screen tcell.Screen, events chan<- tcell.Event) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// handleTerminalEvent maps tcell input onto the scene. Cell coordinates are converted to the
// center of the cell in world space.
func handleTerminalEvent(ev tcell.Event, sc *scene, eng engine.Engine, cellWidth, cellHeight float32) error {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			eng.Quit()
			return nil
		}
		if ev.Key() == tcell.KeyRune {
			if code, ok := terminalKey(ev.Rune()); ok {
				return sc.key(code)
			}
		}
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			col, row := ev.Position()
			return sc.click((float32(col)+0.5)*cellWidth, (float32(row)+0.5)*cellHeight)
		}
	case *tcell.EventResize:
		cols, rows := ev.Size()
		sc.resize(int(float32(cols)*cellWidth), int(float32(rows)*cellHeight))
	}
	return nil
}

// terminalKey maps a typed rune onto the shared key codes, which follow GLFW's upper-case ASCII values.
func terminalKey(r rune) (uint32, bool) {
	switch r {
	case 's', 'S':
		return common.KeyS, true
	case 'r', 'R':
		return common.KeyR, true
	case ' ':
		return common.KeySpace, true
	case 'x', 'X':
		return common.KeyX, true
	case 'c', 'C':
		return common.KeyC, true
	}
	return 0, false
}
