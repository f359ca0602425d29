package renderer

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/sagitario/engine/gpu"
	"github.com/sagitario/engine/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectsSecondDeviceWhenFirstLacksSwapchain(t *testing.T) {
	logs := captureLogs(t)

	first := gputest.StandardDevice("No Swapchain GPU")
	first.Extensions = nil
	second := gputest.StandardDevice("Good GPU")
	b := gputest.New(first, second)

	r := newTestRenderer(t, b, DefaultConfig())

	assert.Equal(t, "Good GPU", r.Selection().Properties.DeviceName)
	assert.Contains(t, logs.String(), "skipping physical device")
	assert.Contains(t, logs.String(), "No Swapchain GPU")
	assert.Contains(t, logs.String(), "missing required device extension")
	assert.Contains(t, logs.String(), "selected physical device")
}

func TestSelectsSecondDeviceWhenFirstQueryFails(t *testing.T) {
	logs := captureLogs(t)

	first := gputest.StandardDevice("Lost Surface GPU")
	first.QueryErr = errors.New("VK_ERROR_SURFACE_LOST_KHR")
	second := gputest.StandardDevice("Good GPU")
	b := gputest.New(first, second)

	r := newTestRenderer(t, b, DefaultConfig())

	assert.Equal(t, "Good GPU", r.Selection().Properties.DeviceName)
	assert.Contains(t, logs.String(), "skipping physical device")
	assert.Contains(t, logs.String(), "Lost Surface GPU")
	assert.Contains(t, logs.String(), "VK_ERROR_SURFACE_LOST_KHR")
	assert.Empty(t, b.Violations())
}

func TestNoSuitableDevice(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*gputest.PhysicalDevice)
	}{
		{"no graphics family", func(d *gputest.PhysicalDevice) {
			d.QueueFamilies = []gpu.QueueFamilyProperties{{QueueFlags: gpu.QueueCompute, QueueCount: 1}}
		}},
		{"no present family", func(d *gputest.PhysicalDevice) { d.PresentFamilies = nil }},
		{"no formats", func(d *gputest.PhysicalDevice) { d.Formats = nil }},
		{"no present modes", func(d *gputest.PhysicalDevice) { d.PresentModes = nil }},
		{"missing extension", func(d *gputest.PhysicalDevice) { d.Extensions = []string{"VK_KHR_other"} }},
		{"failing surface queries", func(d *gputest.PhysicalDevice) { d.QueryErr = errors.New("surface lost") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := gputest.StandardDevice("bad")
			tt.mutate(&dev)
			b := gputest.New(dev)

			_, err := New(b, testWindow(), testShaders, DefaultConfig())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNoSuitableDevice), "got %v", err)
			assert.Empty(t, b.Violations())
			assert.Zero(t, b.Live(), "partial setup must be released")
		})
	}
}

func TestNoDevicesAtAll(t *testing.T) {
	b := gputest.New()

	_, err := New(b, testWindow(), testShaders, DefaultConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSuitableDevice))
}

func TestQueueFamilyDiscoveryPicksFirstMatch(t *testing.T) {
	dev := gputest.StandardDevice("families")
	dev.QueueFamilies = []gpu.QueueFamilyProperties{
		{QueueFlags: gpu.QueueCompute, QueueCount: 1},
		{QueueFlags: gpu.QueueGraphics, QueueCount: 1},
		{QueueFlags: gpu.QueueGraphics | gpu.QueueCompute, QueueCount: 1},
	}
	dev.PresentFamilies = []int{2, 1}
	b := gputest.New(dev)

	r := newTestRenderer(t, b, DefaultConfig())

	assert.Equal(t, QueueFamilyIndices{Graphics: 1, Present: 1}, r.Selection().Queues)
}

func TestQueueCreateInfosPerUniqueFamily(t *testing.T) {
	t.Run("shared family", func(t *testing.T) {
		b := gputest.New(gputest.StandardDevice("shared"))
		newTestRenderer(t, b, DefaultConfig())

		require.Len(t, b.DeviceInfo.QueueCreateInfos, 1)
		assert.Equal(t, 0, b.DeviceInfo.QueueCreateInfos[0].QueueFamilyIndex)
		assert.Equal(t, []float32{1.0}, b.DeviceInfo.QueueCreateInfos[0].QueuePriorities)
	})

	t.Run("distinct families", func(t *testing.T) {
		dev := gputest.StandardDevice("split")
		dev.QueueFamilies = []gpu.QueueFamilyProperties{
			{QueueFlags: gpu.QueueGraphics, QueueCount: 1},
			{QueueFlags: gpu.QueueTransfer, QueueCount: 1},
		}
		dev.PresentFamilies = []int{1}
		b := gputest.New(dev)
		newTestRenderer(t, b, DefaultConfig())

		require.Len(t, b.DeviceInfo.QueueCreateInfos, 2)
		assert.Equal(t, 0, b.DeviceInfo.QueueCreateInfos[0].QueueFamilyIndex)
		assert.Equal(t, 1, b.DeviceInfo.QueueCreateInfos[1].QueueFamilyIndex)
	})
}

func TestLogicalDeviceExtensionsAndLayers(t *testing.T) {
	t.Run("validation off", func(t *testing.T) {
		b := gputest.New(gputest.StandardDevice("plain"))
		newTestRenderer(t, b, DefaultConfig())

		assert.Equal(t, []string{gpu.ExtensionSwapchain}, b.DeviceInfo.EnabledExtensionNames)
		assert.Empty(t, b.DeviceInfo.EnabledLayerNames)
	})

	t.Run("portability subset", func(t *testing.T) {
		dev := gputest.StandardDevice("portable")
		dev.Extensions = append(dev.Extensions, gpu.ExtensionPortabilitySubset)
		b := gputest.New(dev)
		newTestRenderer(t, b, DefaultConfig())

		assert.Equal(t, []string{gpu.ExtensionSwapchain, gpu.ExtensionPortabilitySubset}, b.DeviceInfo.EnabledExtensionNames)
	})

	t.Run("validation on", func(t *testing.T) {
		b := gputest.New(gputest.StandardDevice("validated"))
		b.InstanceExtensions = []string{gpu.ExtensionDebugUtils}
		b.Layers = []string{gpu.LayerKhronosValidation}

		cfg := DefaultConfig()
		cfg.Validation = true
		newTestRenderer(t, b, cfg)

		assert.Equal(t, []string{gpu.LayerKhronosValidation}, b.DeviceInfo.EnabledLayerNames)
	})
}

func TestDeviceCreationFailurePropagates(t *testing.T) {
	b := gputest.New(gputest.StandardDevice("broken"))
	b.Fail["CreateDevice"] = errors.New("out of host memory")

	_, err := New(b, testWindow(), testShaders, DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create logical device")
	assert.Contains(t, err.Error(), "out of host memory")
	assert.Equal(t, 1, b.Count("CreateDevice"))
	assert.Zero(t, b.Live())
}
