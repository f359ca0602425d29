package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/sagitario/engine/gpu"
)

// QueueFamilyIndices names the families used for graphics and presentation.
// They may be the same family.
type QueueFamilyIndices struct {
	Graphics int
	Present  int
}

// Unique returns the distinct families, graphics first.
func (q QueueFamilyIndices) Unique() []int {
	if q.Graphics == q.Present {
		return []int{q.Graphics}
	}
	return []int{q.Graphics, q.Present}
}

// FindQueueFamilies scans the queue families of device once and picks the
// first graphics-capable family and the first family that can present to
// the context's surface.
func (c *Context) FindQueueFamilies(device gpu.PhysicalDevice) (QueueFamilyIndices, error) {
	graphics, present := -1, -1

	for index, family := range c.Instance.QueueFamilyProperties(device) {
		if graphics < 0 && family.QueueFlags&gpu.QueueGraphics != 0 {
			graphics = index
		}

		if present < 0 {
			supported, err := c.Instance.SurfaceSupport(device, c.Surface, index)
			if err != nil {
				return QueueFamilyIndices{}, errors.Wrapf(err, "query surface support for family %d", index)
			}
			if supported {
				present = index
			}
		}

		if graphics >= 0 && present >= 0 {
			break
		}
	}

	if graphics < 0 {
		return QueueFamilyIndices{}, errors.Wrap(ErrMissingQueueFamily, "no graphics queue family")
	}
	if present < 0 {
		return QueueFamilyIndices{}, errors.Wrap(ErrMissingQueueFamily, "no present queue family")
	}

	return QueueFamilyIndices{Graphics: graphics, Present: present}, nil
}
