package renderer

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/sagitario/engine/gpu"
	"github.com/sagitario/engine/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameSyncSizes(t *testing.T) {
	for _, frames := range []int{1, 2, 3} {
		b := gputest.New(gputest.StandardDevice("GPU"))
		cfg := DefaultConfig()
		cfg.FramesInFlight = frames

		r := newTestRenderer(t, b, cfg)
		fs := r.Frames()

		assert.Len(t, fs.ImageAvailable, frames)
		assert.Len(t, fs.RenderFinished, frames)
		assert.Len(t, fs.InFlight, frames)
		assert.Len(t, fs.ImagesInFlight, len(r.Swapchain().Images))
		assert.Equal(t, frames, fs.FramesInFlight())
		for _, fence := range fs.ImagesInFlight {
			assert.Zero(t, fence)
		}
	}
}

func TestRenderTwiceFramesInFlightOnTwoImages(t *testing.T) {
	b := gputest.New(twoImageDevice("GPU"))
	r := newTestRenderer(t, b, DefaultConfig())
	require.Len(t, r.Swapchain().Images, 2)

	for i := 0; i < 2*MaxFramesInFlight; i++ {
		require.NoError(t, r.Render(), "frame %d", i)
		assert.Equal(t, (i+1)%MaxFramesInFlight, r.Frames().FrameIndex())
	}

	assert.Equal(t, 2*MaxFramesInFlight, b.Count("QueueSubmit"))
	assert.Equal(t, 2*MaxFramesInFlight, b.Count("QueuePresent"))
	assert.Empty(t, b.Violations())
}

func TestRenderProtocolOrder(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	r := newTestRenderer(t, b, DefaultConfig())
	fence := r.Frames().InFlight[0]

	before := len(b.Calls())
	require.NoError(t, r.Render())

	var ops []string
	for _, c := range b.Calls()[before:] {
		ops = append(ops, c.Op)
	}
	assert.Equal(t, []string{"WaitForFences", "AcquireNextImage", "ResetFences", "QueueSubmit", "QueuePresent"}, ops)

	frame := b.Calls()[before:]
	assert.Equal(t, gpu.Handle(fence), frame[0].Handle)
	assert.Equal(t, gpu.Handle(fence), frame[3].Handle, "submit signals the slot fence")
	assert.Equal(t, fence, r.Frames().ImagesInFlight[0])
	assert.Equal(t, SlotPresented, r.Frames().SlotState(0))
	assert.Equal(t, SlotIdle, r.Frames().SlotState(1))
}

// With more slots than images an image comes back while the slot that last
// used it is still in flight; its fence must be waited on before the new
// submission.
func TestRenderWaitsForImageStillInFlight(t *testing.T) {
	b := gputest.New(twoImageDevice("GPU"))
	cfg := DefaultConfig()
	cfg.FramesInFlight = 3
	r := newTestRenderer(t, b, cfg)
	fs := r.Frames()

	require.NoError(t, r.Render())
	require.NoError(t, r.Render())
	assert.Equal(t, fs.InFlight[0], fs.ImagesInFlight[0])
	assert.Equal(t, fs.InFlight[1], fs.ImagesInFlight[1])

	before := len(b.Calls())
	require.NoError(t, r.Render())
	frame := b.Calls()[before:]

	waitImage := -1
	submit := -1
	for i, c := range frame {
		if c.Op == "WaitForFences" && c.Handle == gpu.Handle(fs.InFlight[0]) {
			waitImage = i
		}
		if c.Op == "QueueSubmit" {
			submit = i
		}
	}
	require.GreaterOrEqual(t, waitImage, 0, "fence of slot 0 was not waited: %v", frame)
	assert.Less(t, waitImage, submit)
	assert.Equal(t, fs.InFlight[2], fs.ImagesInFlight[0])

	for i := 0; i < 6; i++ {
		require.NoError(t, r.Render())
	}
	assert.Empty(t, b.Violations())
}

func TestRenderDoesNotWaitOnOwnFenceTwice(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	b.AcquireOrder = []int{0}
	cfg := DefaultConfig()
	cfg.FramesInFlight = 1
	r := newTestRenderer(t, b, cfg)

	require.NoError(t, r.Render())
	before := len(b.Calls())
	require.NoError(t, r.Render())

	waits := 0
	for _, c := range b.Calls()[before:] {
		if c.Op == "WaitForFences" {
			waits++
		}
	}
	assert.Equal(t, 1, waits)
	assert.Empty(t, b.Violations())
}

func TestSlotReturnsToIdleOnError(t *testing.T) {
	tests := []struct {
		name   string
		inject func(b *gputest.Backend)
	}{
		{"acquire", func(b *gputest.Backend) {
			b.AcquireErr = func(int) error { return gpu.ErrOutOfDate }
		}},
		{"submit", func(b *gputest.Backend) {
			b.SubmitErr = func(int) error { return errors.New("queue lost") }
		}},
		{"present", func(b *gputest.Backend) {
			b.PresentErr = func(int) error { return gpu.ErrOutOfDate }
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := gputest.New(gputest.StandardDevice("GPU"))
			r := newTestRenderer(t, b, DefaultConfig())
			tt.inject(b)

			require.Error(t, r.Render())
			assert.Equal(t, SlotIdle, r.Frames().SlotState(0))
			assert.Equal(t, 0, r.Frames().FrameIndex())
		})
	}
}
