package renderer

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sagitario/engine/gpu"
	"github.com/sagitario/engine/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuildsEveryStage(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	r := newTestRenderer(t, b, DefaultConfig())

	n := len(r.Swapchain().Images)
	require.Equal(t, 3, n)

	assert.Equal(t, n, b.Count("CreateImageView"))
	assert.Equal(t, n, b.Count("CreateFramebuffer"))
	assert.Equal(t, 1, b.Count("CreateRenderPass"))
	assert.Equal(t, 1, b.Count("CreatePipelineLayout"))
	assert.Equal(t, 1, b.Count("CreateGraphicsPipeline"))
	assert.Equal(t, 1, b.Count("CreateCommandPool"))
	assert.Equal(t, n, b.Count("CmdDraw"))
	assert.Equal(t, 2*MaxFramesInFlight, b.Count("CreateSemaphore"))
	assert.Equal(t, MaxFramesInFlight, b.Count("CreateFence"))

	assert.Zero(t, b.Count("CreateDebugMessenger"))
	assert.Empty(t, b.Violations())
}

func TestShaderModulesAreTransient(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	newTestRenderer(t, b, DefaultConfig())

	calls := b.Calls()
	pipeline := indexOf(calls, "CreateGraphicsPipeline")
	require.GreaterOrEqual(t, pipeline, 0)

	assert.Equal(t, 2, b.Count("CreateShaderModule"))
	assert.Equal(t, 2, b.Count("DestroyShaderModule"))
	assert.Greater(t, indexOf(calls, "DestroyShaderModule"), pipeline)
	assert.Empty(t, b.Violations())
}

func TestShaderModulesDestroyedWhenPipelineFails(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	b.Fail["CreateGraphicsPipeline"] = errors.New("pipeline compile failed")

	_, err := New(b, testWindow(), testShaders, DefaultConfig())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create graphics pipeline")
	assert.Equal(t, 2, b.Count("DestroyShaderModule"))
	assert.Zero(t, b.Live())
	assert.Empty(t, b.Violations())
}

func TestPipelineFixedState(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	newTestRenderer(t, b, DefaultConfig())

	info := b.PipelineInfo
	require.Len(t, info.Stages, 2)
	assert.Equal(t, gpu.StageVertex, info.Stages[0].Stage)
	assert.Equal(t, gpu.StageFragment, info.Stages[1].Stage)
	assert.Equal(t, "main", info.Stages[0].Name)
	assert.Equal(t, gpu.PrimitiveTopologyTriangleList, info.InputAssemblyState.Topology)
	assert.Equal(t, gpu.CullModeBack, info.RasterizationState.CullMode)
	assert.Equal(t, gpu.FrontFaceClockwise, info.RasterizationState.FrontFace)
	assert.Equal(t, float32(1), info.RasterizationState.LineWidth)
	assert.Equal(t, 1, info.MultisampleState.RasterizationSamples)
	assert.Equal(t, []gpu.Rect2D{{Extent: gpu.Extent2D{Width: 800, Height: 600}}}, info.ViewportState.Scissors)
	require.Len(t, info.ColorBlendState.Attachments, 1)
	assert.False(t, info.ColorBlendState.Attachments[0].BlendEnabled)

	pass := b.RenderPassInfo
	require.Len(t, pass.Attachments, 1)
	assert.Equal(t, gpu.AttachmentLoadOpClear, pass.Attachments[0].LoadOp)
	assert.Equal(t, gpu.ImageLayoutPresentSrc, pass.Attachments[0].FinalLayout)
	require.Len(t, pass.SubpassDependencies, 1)
	assert.Equal(t, gpu.SubpassExternal, pass.SubpassDependencies[0].SrcSubpass)
}

func TestClearColorIsRecorded(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	cfg := DefaultConfig()
	cfg.ClearColor = mgl32.Vec4{0.1, 0.2, 0.3, 1}

	newTestRenderer(t, b, cfg)

	require.Len(t, b.BeginInfos, 3)
	for _, info := range b.BeginInfos {
		assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, info.ClearColor)
		assert.Equal(t, gpu.Extent2D{Width: 800, Height: 600}, info.RenderArea.Extent)
	}
}

func TestMisalignedBytecodeRejectedBeforeAPI(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	shaders := Shaders{Vertex: make([]byte, 7), Fragment: make([]byte, 8)}

	_, err := New(b, testWindow(), shaders, DefaultConfig())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMisalignedBytecode))
	assert.Empty(t, b.Calls())
}

func TestInvalidConfigRejectedBeforeAPI(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	cfg := DefaultConfig()
	cfg.FramesInFlight = 0

	_, err := New(b, testWindow(), testShaders, cfg)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Empty(t, b.Calls())
}

func TestDestroyWaitsIdleThenReleasesInReverse(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	b.InstanceExtensions = []string{gpu.ExtensionDebugUtils}
	b.Layers = []string{gpu.LayerKhronosValidation}
	cfg := DefaultConfig()
	cfg.Validation = true

	r, err := New(b, testWindow(), testShaders, cfg)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, r.Render())
	}

	before := len(b.Calls())
	require.NoError(t, r.Destroy())
	teardown := b.Calls()[before:]

	require.NotEmpty(t, teardown)
	assert.Equal(t, "DeviceWaitIdle", teardown[0].Op)

	created := opsWithPrefix(b.Calls()[:before], "Create", "CreateShaderModule")
	destroyed := opsWithPrefix(teardown, "Destroy")
	require.Len(t, destroyed, len(created))
	for i := range created {
		assert.Equal(t, created[len(created)-1-i], destroyed[i], "destroy #%d", i)
	}

	assert.Equal(t, "DestroyDebugMessenger", teardown[len(teardown)-2].Op)
	assert.Equal(t, "DestroyInstance", teardown[len(teardown)-1].Op)
	assert.Zero(t, b.Live())
	assert.Empty(t, b.Violations())
}

func TestDestroyIsIdempotent(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	r, err := New(b, testWindow(), testShaders, DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, r.Destroy())
	calls := len(b.Calls())

	require.NoError(t, r.Destroy())
	assert.Len(t, b.Calls(), calls)
	assert.Equal(t, 1, b.Count("DestroyInstance"))
	assert.Empty(t, b.Violations())

	assert.True(t, errors.Is(r.Render(), ErrDestroyed))
	assert.True(t, errors.Is(r.Rebuild(), ErrDestroyed))
}

func TestDestroyReportsIdleFailure(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	r, err := New(b, testWindow(), testShaders, DefaultConfig())
	require.NoError(t, err)

	b.Fail["DeviceWaitIdle"] = gpu.ErrDeviceLost
	err = r.Destroy()

	require.Error(t, err)
	assert.True(t, errors.Is(err, gpu.ErrDeviceLost))
	assert.Zero(t, b.Live(), "objects are released even without an idle device")
}

func TestRebuild(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	r := newTestRenderer(t, b, DefaultConfig())

	require.NoError(t, r.Render())
	require.Equal(t, 1, r.Frames().FrameIndex())
	oldSwapchain := r.Swapchain().Handle

	b.PhysicalDevices[0].Capabilities.MinImageCount = 1
	b.PhysicalDevices[0].Capabilities.CurrentExtent = gpu.Extent2D{Width: 1024, Height: 768}

	require.NoError(t, r.Rebuild())

	assert.NotEqual(t, oldSwapchain, r.Swapchain().Handle)
	assert.Equal(t, gpu.Extent2D{Width: 1024, Height: 768}, r.Swapchain().Extent)
	assert.Len(t, r.Frames().ImagesInFlight, 2)
	assert.Len(t, r.Frames().InFlight, MaxFramesInFlight)
	assert.Equal(t, 0, r.Frames().FrameIndex())
	assert.False(t, r.Stale())

	for i := 0; i < 4; i++ {
		require.NoError(t, r.Render())
	}
	assert.Empty(t, b.Violations())

	require.NoError(t, r.Destroy())
	assert.Zero(t, b.Live())
	assert.Empty(t, b.Violations())
}

func TestRebuildSkipsZeroSizedWindow(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	window := testWindow()
	r, err := New(b, window, testShaders, DefaultConfig())
	require.NoError(t, err)
	defer r.Destroy()

	window.Width, window.Height = 0, 0
	calls := len(b.Calls())

	require.NoError(t, r.Rebuild())
	assert.Len(t, b.Calls(), calls)
	assert.True(t, r.Stale())
}

func TestOutOfDateIsReportedNotRecovered(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	b.AcquireErr = func(call int) error {
		if call == 1 {
			return errors.Wrap(gpu.ErrOutOfDate, "acquire")
		}
		return nil
	}
	r := newTestRenderer(t, b, DefaultConfig())

	require.NoError(t, r.Render())

	err := r.Render()
	require.Error(t, err)
	assert.True(t, errors.Is(err, gpu.ErrOutOfDate))
	assert.True(t, r.Stale())
	assert.Equal(t, 1, b.Count("CreateSwapchain"), "render must not rebuild in place")

	require.NoError(t, r.Rebuild())
	require.NoError(t, r.Render())
	assert.False(t, r.Stale())
	assert.Empty(t, b.Violations())
}

func TestOutOfDatePresent(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	b.PresentErr = func(call int) error {
		if call == 0 {
			return gpu.ErrOutOfDate
		}
		return nil
	}
	r := newTestRenderer(t, b, DefaultConfig())

	err := r.Render()
	require.Error(t, err)
	assert.True(t, errors.Is(err, gpu.ErrOutOfDate))
	assert.Equal(t, 0, r.Frames().FrameIndex())

	require.NoError(t, r.Rebuild())
	require.NoError(t, r.Render())
	assert.Empty(t, b.Violations())
}

func TestSuboptimalPresentMarksStale(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	b.PresentErr = func(call int) error { return gpu.ErrSuboptimal }
	r := newTestRenderer(t, b, DefaultConfig())

	require.NoError(t, r.Render())
	assert.True(t, r.Stale())
	assert.Equal(t, 1, r.Frames().FrameIndex())
	assert.Equal(t, uint64(1), r.Stats().Frames)
}

func TestSuboptimalAcquireStillPresents(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	b.AcquireErr = func(call int) error {
		if call == 0 {
			return errors.Wrap(gpu.ErrSuboptimal, "acquire")
		}
		return nil
	}
	r := newTestRenderer(t, b, DefaultConfig())

	require.NoError(t, r.Render())
	assert.True(t, r.Stale())
	assert.Equal(t, 1, b.Count("QueueSubmit"))
	assert.Equal(t, 1, b.Count("QueuePresent"))
	assert.Equal(t, 1, r.Frames().FrameIndex())
	assert.Equal(t, uint64(1), r.Stats().Frames)

	// Every slot comes round again without reusing a signaled semaphore.
	for i := 0; i < 2*MaxFramesInFlight; i++ {
		require.NoError(t, r.Render())
	}
	assert.Empty(t, b.Violations())
}

func TestRenderAfterFailedRebuild(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	r := newTestRenderer(t, b, DefaultConfig())

	b.Fail["CreateSwapchain"] = errors.New("surface lost")
	require.Error(t, r.Rebuild())

	err := r.Render()
	require.Error(t, err)
	assert.True(t, errors.Is(err, gpu.ErrOutOfDate))

	delete(b.Fail, "CreateSwapchain")
	require.NoError(t, r.Rebuild())
	require.NoError(t, r.Render())

	require.NoError(t, r.Destroy())
	assert.Zero(t, b.Live())
	assert.Empty(t, b.Violations())
}

func TestStats(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("GPU"))
	r := newTestRenderer(t, b, DefaultConfig())

	assert.Zero(t, r.Stats().Mean())
	for i := 0; i < 5; i++ {
		require.NoError(t, r.Render())
	}

	stats := r.Stats()
	assert.Equal(t, uint64(5), stats.Frames)
	assert.GreaterOrEqual(t, stats.Total, stats.Last)
	assert.LessOrEqual(t, stats.Min, stats.Max)
	assert.Equal(t, stats.Total/5, stats.Mean())
}
