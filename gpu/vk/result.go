package vk

import (
	"github.com/cockroachdb/errors"
	"github.com/sagitario/engine/gpu"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// check folds a driver result into an error, marking the results the
// renderer reacts to with the gpu sentinels.
func check(res common.VkResult, err error, op string) error {
	switch res {
	case khr_swapchain.VKErrorOutOfDate:
		return errors.Wrap(gpu.ErrOutOfDate, op)
	case khr_swapchain.VKSuboptimal:
		return errors.Wrap(gpu.ErrSuboptimal, op)
	case core1_0.VKErrorDeviceLost:
		if err == nil {
			return errors.Wrap(gpu.ErrDeviceLost, op)
		}
		return errors.Mark(errors.Wrap(err, op), gpu.ErrDeviceLost)
	}
	if err != nil {
		return errors.Wrap(err, op)
	}
	return nil
}

var errUnknownHandle = errors.New("unknown handle")

func unknown(kind string, h gpu.Handle) error {
	return errors.Wrapf(errUnknownHandle, "%s %d", kind, h)
}
