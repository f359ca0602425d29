package renderer

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/sagitario/engine/gpu"
	"github.com/sagitario/engine/gpu/gputest"
	"github.com/stretchr/testify/require"
)

// SPIR-V magic followed by a version word; enough for the fake backend.
var testShaders = Shaders{
	Vertex:   []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00},
	Fragment: []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00},
}

func testWindow() *gputest.Window {
	return &gputest.Window{Width: 800, Height: 600}
}

// captureLogs routes the package logger into a buffer for the duration of
// the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: LevelTrace})))
	t.Cleanup(func() { SetLogger(nil) })

	return &buf
}

func newTestRenderer(t *testing.T, b *gputest.Backend, cfg Config) *Renderer {
	t.Helper()

	r, err := New(b, testWindow(), testShaders, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = r.Destroy()
	})

	return r
}

// twoImageDevice reports a surface on which the renderer ends up with a
// two-image swapchain.
func twoImageDevice(name string) gputest.PhysicalDevice {
	dev := gputest.StandardDevice(name)
	dev.Capabilities.MinImageCount = 1
	dev.Capabilities.MaxImageCount = 2
	return dev
}

func opsWithPrefix(calls []gputest.Call, prefix string, skip ...string) []gpu.Handle {
	var out []gpu.Handle
outer:
	for _, c := range calls {
		if !strings.HasPrefix(c.Op, prefix) || c.Handle == 0 {
			continue
		}
		for _, s := range skip {
			if c.Op == s {
				continue outer
			}
		}
		out = append(out, c.Handle)
	}
	return out
}

func indexOf(calls []gputest.Call, op string) int {
	for i, c := range calls {
		if c.Op == op {
			return i
		}
	}
	return -1
}
