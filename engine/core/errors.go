package core

import (
	"errors"
)

var (
	// ErrFrameSkipped is returned by frame entry points while the swapchain
	// is being resized or the device graph rebuilt; the frame should simply
	// be dropped and the loop continued.
	ErrFrameSkipped = errors.New("frame skipped, swapchain resizing or device rebuilding")

	// ErrUnsupportedOS is returned when no native renderer backend exists
	// for the current platform.
	ErrUnsupportedOS = errors.New("renderer backend not supported on this platform")
)
