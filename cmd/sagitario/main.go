// Command sagitario opens a window and draws a triangle with the
// renderer until the window is closed.
package main

//go:generate glslc shaders/triangle.vert -o shaders/vert.spv
//go:generate glslc shaders/triangle.frag -o shaders/frag.spv

import (
	"context"
	"flag"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sagitario/engine/gpu"
	"github.com/sagitario/engine/gpu/vk"
	"github.com/sagitario/engine/renderer"
	"github.com/veandco/go-sdl2/sdl"
)

const statsInterval = 5 * time.Second

type options struct {
	shaders    string
	validation bool
	frames     int
	width      int
	height     int
	logLevel   string
}

type app struct {
	opts options
	log  *slog.Logger

	window   *sdl.Window
	renderer *renderer.Renderer
}

func (a *app) run() error {
	if err := a.initWindow(); err != nil {
		return err
	}
	defer a.cleanup()

	if err := a.initRenderer(); err != nil {
		return err
	}

	return a.mainLoop()
}

func (a *app) initWindow() error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return errors.Wrap(err, "init sdl")
	}

	window, err := sdl.CreateWindow("Sagitario", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(a.opts.width), int32(a.opts.height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return errors.Wrap(err, "create window")
	}
	a.window = window
	return nil
}

func (a *app) initRenderer() error {
	shaders, err := loadShaders(a.opts.shaders)
	if err != nil {
		return err
	}

	loader, err := vk.NewSDLLoader()
	if err != nil {
		return err
	}

	cfg := renderer.DefaultConfig()
	cfg.Validation = a.opts.validation
	cfg.FramesInFlight = a.opts.frames

	a.renderer, err = renderer.New(loader, vk.NewSDLWindow(a.window), shaders, cfg)
	return err
}

func (a *app) mainLoop() error {
	rendering := true
	resized := false
	lastStats := time.Now()

appLoop:
	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				break appLoop
			case *sdl.WindowEvent:
				switch e.Event {
				case sdl.WINDOWEVENT_MINIMIZED:
					rendering = false
				case sdl.WINDOWEVENT_RESTORED:
					rendering = true
				case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
					resized = true
				}
			}
		}

		if resized || a.renderer.Stale() {
			if err := a.renderer.Rebuild(); err != nil {
				return err
			}
			resized = false
			// A zero-sized drawable leaves the renderer stale; wait for the
			// next resize instead of spinning.
			rendering = !a.renderer.Stale()
		}
		if !rendering {
			sdl.Delay(100)
			continue
		}

		err := a.renderer.Render()
		if errors.Is(err, gpu.ErrOutOfDate) {
			continue
		}
		if err != nil {
			return err
		}

		if time.Since(lastStats) >= statsInterval {
			stats := a.renderer.Stats()
			a.log.Info("frame stats",
				"frames", stats.Frames,
				"mean", stats.Mean(),
				"min", stats.Min,
				"max", stats.Max)
			lastStats = time.Now()
		}
	}

	return nil
}

func (a *app) cleanup() {
	if a.renderer != nil {
		if err := a.renderer.Destroy(); err != nil {
			a.log.Error("destroy renderer", "err", err)
		}
	}
	if a.window != nil {
		_ = a.window.Destroy()
	}
	sdl.Quit()
}

// loadShaders reads vert.spv and frag.spv from dir. The repository only
// carries the GLSL sources, so a missing file gets a pointer to the
// generate step.
func loadShaders(dir string) (renderer.Shaders, error) {
	shaders, err := renderer.LoadShaders(context.Background(), os.DirFS(dir), "vert.spv", "frag.spv")
	if errors.Is(err, fs.ErrNotExist) {
		return shaders, errors.Wrapf(err,
			"compiled shaders missing from %s: run go generate ./cmd/sagitario (requires glslc) or pass -shaders", dir)
	}
	return shaders, err
}

func parseLevel(s string) (slog.Level, error) {
	if strings.EqualFold(s, "trace") {
		return renderer.LevelTrace, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.Wrapf(err, "log level %q", s)
	}
	return level, nil
}

func main() {
	runtime.LockOSThread()

	var opts options
	flag.StringVar(&opts.shaders, "shaders", "cmd/sagitario/shaders", "directory holding vert.spv and frag.spv")
	flag.BoolVar(&opts.validation, "validation", false, "enable validation layers")
	flag.IntVar(&opts.frames, "frames", renderer.MaxFramesInFlight, "frames in flight")
	flag.IntVar(&opts.width, "width", 800, "initial window width")
	flag.IntVar(&opts.height, "height", 600, "initial window height")
	flag.StringVar(&opts.logLevel, "log-level", "info", "trace, debug, info, warn or error")
	flag.Parse()

	level, err := parseLevel(opts.logLevel)
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	renderer.SetLogger(logger)

	a := &app{opts: opts, log: logger}
	if err := a.run(); err != nil {
		log.Fatalf("%+v\n", err)
	}
}
