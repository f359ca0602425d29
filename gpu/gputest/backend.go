// Package gputest provides an in-memory gpu backend that records every
// call made through it.
//
// The backend models just enough GPU behaviour to check the frame
// protocol: a submitted fence completes when something waits on it,
// semaphores must be signaled before they are waited on, and destroying
// an object twice or before its children is reported as a violation.
package gputest

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/sagitario/engine/gpu"
)

// ErrDeadlock is returned by WaitForFences when a fence is neither
// signaled nor pending on a queue, so the wait could never return.
var ErrDeadlock = errors.New("wait on a fence that can never signal")

type Call struct {
	Op     string
	Handle gpu.Handle
}

func (c Call) String() string {
	return fmt.Sprintf("%s(%d)", c.Op, c.Handle)
}

// PhysicalDevice describes one device reported by EnumeratePhysicalDevices.
type PhysicalDevice struct {
	Properties      gpu.PhysicalDeviceProperties
	QueueFamilies   []gpu.QueueFamilyProperties
	PresentFamilies []int
	Extensions      []string
	Capabilities    gpu.SurfaceCapabilities
	Formats         []gpu.SurfaceFormat
	PresentModes    []gpu.PresentMode
	// QueryErr, when set, is returned by every extension and surface query
	// against this device.
	QueryErr error
}

// StandardDevice returns a device with one graphics+present queue family,
// the swapchain extension, a fixed 800x600 surface and two images minimum.
func StandardDevice(name string) PhysicalDevice {
	return PhysicalDevice{
		Properties: gpu.PhysicalDeviceProperties{
			DeviceName: name,
			DeviceType: gpu.DeviceTypeDiscreteGPU,
		},
		QueueFamilies: []gpu.QueueFamilyProperties{
			{QueueFlags: gpu.QueueGraphics | gpu.QueueCompute | gpu.QueueTransfer, QueueCount: 1},
		},
		PresentFamilies: []int{0},
		Extensions:      []string{gpu.ExtensionSwapchain},
		Capabilities: gpu.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  8,
			CurrentExtent:  gpu.Extent2D{Width: 800, Height: 600},
			MinImageExtent: gpu.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: gpu.Extent2D{Width: 4096, Height: 4096},
		},
		Formats: []gpu.SurfaceFormat{
			{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: gpu.ColorSpaceSRGBNonlinear},
		},
		PresentModes: []gpu.PresentMode{gpu.PresentModeFIFO, gpu.PresentModeMailbox},
	}
}

// Window is a fixed-size gpu.Window.
type Window struct {
	Width      int
	Height     int
	Extensions []string
}

func (w *Window) RequiredInstanceExtensions() []string { return w.Extensions }
func (w *Window) DrawableSize() (int, int)             { return w.Width, w.Height }

type fenceState struct {
	signaled bool
	pending  bool
}

// Backend is a gpu.Loader whose instances and devices all share its call
// log and object tables. Exported fields configure behaviour and should be
// set before the first call.
type Backend struct {
	InstanceExtensions []string
	Layers             []string
	PhysicalDevices    []PhysicalDevice

	// AcquireOrder, when non-empty, is cycled through to pick image indices;
	// otherwise images are handed out round-robin.
	AcquireOrder []int
	// AcquireErr, SubmitErr and PresentErr are consulted with the 0-based
	// call number and may inject a failure. An acquire error wrapping
	// gpu.ErrSuboptimal still acquires an image and signals the semaphore,
	// as a driver does.
	AcquireErr func(call int) error
	SubmitErr  func(call int) error
	PresentErr func(call int) error
	// Fail maps an operation name such as "CreateGraphicsPipeline" to the
	// error that operation returns.
	Fail map[string]error

	InstanceInfo   gpu.InstanceCreateInfo
	DeviceInfo     gpu.DeviceCreateInfo
	SwapchainInfo  gpu.SwapchainCreateInfo
	RenderPassInfo gpu.RenderPassCreateInfo
	PipelineInfo   gpu.GraphicsPipelineCreateInfo
	BeginInfos     []gpu.RenderPassBeginInfo

	calls      []Call
	violations []string
	next       gpu.Handle
	live       map[gpu.Handle]string
	fences     map[gpu.Fence]*fenceState
	semaphores map[gpu.Semaphore]bool
	images     map[gpu.Swapchain][]gpu.Image
	cursor     map[gpu.Swapchain]int
	physical   map[gpu.PhysicalDevice]int
	callbacks  []gpu.DebugCallback

	acquires int
	submits  int
	presents int
}

func New(devices ...PhysicalDevice) *Backend {
	return &Backend{
		PhysicalDevices: devices,
		Fail:            map[string]error{},
		live:            map[gpu.Handle]string{},
		fences:          map[gpu.Fence]*fenceState{},
		semaphores:      map[gpu.Semaphore]bool{},
		images:          map[gpu.Swapchain][]gpu.Image{},
		cursor:          map[gpu.Swapchain]int{},
		physical:        map[gpu.PhysicalDevice]int{},
	}
}

func (b *Backend) Calls() []Call {
	return append([]Call(nil), b.calls...)
}

func (b *Backend) Ops() []string {
	ops := make([]string, 0, len(b.calls))
	for _, c := range b.calls {
		ops = append(ops, c.Op)
	}
	return ops
}

// Count reports how many times op was called.
func (b *Backend) Count(op string) int {
	n := 0
	for _, c := range b.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (b *Backend) Violations() []string {
	return append([]string(nil), b.violations...)
}

// Live returns the number of objects created and not yet destroyed.
func (b *Backend) Live() int {
	return len(b.live)
}

// Emit delivers msg to every registered debug callback, as a driver would.
func (b *Backend) Emit(msg gpu.DebugMessage) {
	for _, cb := range b.callbacks {
		cb(msg)
	}
}

func (b *Backend) record(op string, h gpu.Handle) {
	b.calls = append(b.calls, Call{Op: op, Handle: h})
}

func (b *Backend) violate(format string, args ...interface{}) {
	b.violations = append(b.violations, fmt.Sprintf(format, args...))
}

func (b *Backend) create(op, kind string) (gpu.Handle, error) {
	if err := b.Fail[op]; err != nil {
		b.record(op, 0)
		return 0, err
	}
	b.next++
	h := b.next
	b.live[h] = kind
	b.record(op, h)
	return h, nil
}

func (b *Backend) destroy(op, kind string, h gpu.Handle) {
	if h == 0 {
		return
	}
	b.record(op, h)
	got, ok := b.live[h]
	if !ok {
		b.violate("%s(%d): object already destroyed or never created", op, h)
		return
	}
	if got != kind {
		b.violate("%s(%d): handle is a %s, not a %s", op, h, got, kind)
	}
	delete(b.live, h)
}

func (b *Backend) liveOf(kinds ...string) []string {
	var out []string
	for h, k := range b.live {
		for _, want := range kinds {
			if k == want {
				out = append(out, fmt.Sprintf("%s(%d)", k, h))
			}
		}
	}
	return out
}

func set(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

func (b *Backend) AvailableExtensions() (map[string]struct{}, error) {
	b.record("AvailableExtensions", 0)
	return set(b.InstanceExtensions), nil
}

func (b *Backend) AvailableLayers() (map[string]struct{}, error) {
	b.record("AvailableLayers", 0)
	return set(b.Layers), nil
}

func (b *Backend) CreateInstance(info gpu.InstanceCreateInfo) (gpu.Instance, error) {
	h, err := b.create("CreateInstance", "instance")
	if err != nil {
		return nil, err
	}
	b.InstanceInfo = info
	return &instance{b: b, h: h}, nil
}
