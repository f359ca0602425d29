package renderer

import "github.com/cockroachdb/errors"

// Selection failures. The renderer cannot run on this machine when one of
// these reaches the caller.
var (
	ErrNoSuitableDevice         = errors.New("failed to find a suitable GPU")
	ErrMissingQueueFamily       = errors.New("missing required queue family")
	ErrMissingExtension         = errors.New("missing required device extension")
	ErrMissingInstanceExtension = errors.New("missing required instance extension")
	ErrMissingValidationLayer   = errors.New("validation layer not available")
	ErrNoSurfaceFormats         = errors.New("surface reports no formats")
	ErrNoPresentModes           = errors.New("surface reports no present modes")
)

var (
	ErrMisalignedBytecode = errors.New("shader bytecode length is not a multiple of 4")
	ErrInvalidConfig      = errors.New("invalid renderer configuration")
	ErrDestroyed          = errors.New("renderer already destroyed")
)
