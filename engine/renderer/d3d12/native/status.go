package native

import (
	"errors"
	"fmt"
)

// Status is a native HRESULT.
type Status int32

const (
	StatusOK    Status = 0
	StatusFalse Status = 1

	StatusFail        Status = -2147467259 // E_FAIL
	StatusNoInterface Status = -2147467262 // E_NOINTERFACE
	StatusInvalidArg  Status = -2147024809 // E_INVALIDARG
	StatusOutOfMemory Status = -2147024882 // E_OUTOFMEMORY

	StatusNotFound      Status = -2005270526 // DXGI_ERROR_NOT_FOUND
	StatusDeviceRemoved Status = -2005270523 // DXGI_ERROR_DEVICE_REMOVED
	StatusDeviceHung    Status = -2005270522 // DXGI_ERROR_DEVICE_HUNG
	StatusDeviceReset   Status = -2005270521 // DXGI_ERROR_DEVICE_RESET
)

func (s Status) Succeeded() bool {
	return s >= 0
}

func (s Status) Failed() bool {
	return s < 0
}

// DeviceLost reports whether s is one of the device-removal statuses that
// require the whole device graph to be rebuilt.
func (s Status) DeviceLost() bool {
	return s == StatusDeviceRemoved || s == StatusDeviceReset || s == StatusDeviceHung
}

func (s Status) String() string {
	return fmt.Sprintf("0x%08X", uint32(s))
}

// Sentinel error kinds, discriminated with errors.Is.
var (
	// ErrDeviceLost marks a device-removed/device-reset condition; the
	// caller must tear down and recreate the device graph.
	ErrDeviceLost = errors.New("device removed or reset")
	// ErrNoInterface marks an optional interface the object does not
	// implement; callers fall back to a baseline path.
	ErrNoInterface = errors.New("interface not supported")
)

// CallError names the native operation that failed and its status code.
type CallError struct {
	Op     string
	Status Status
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s failed with status %s", e.Op, e.Status)
}

func (e *CallError) Unwrap() error {
	switch {
	case e.Status.DeviceLost():
		return ErrDeviceLost
	case e.Status == StatusNoInterface:
		return ErrNoInterface
	default:
		return nil
	}
}

// Check converts a failed status into a *CallError, nil otherwise.
func Check(op string, s Status) error {
	if s.Failed() {
		return &CallError{Op: op, Status: s}
	}
	return nil
}
