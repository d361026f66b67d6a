package dispatch

import "errors"

// ErrStalled is returned when the device misses too many acknowledgements in
// a row.
var ErrStalled = errors.New("device stalled: too many consecutive timeouts")

// DeviceError is a failed read, write or flush on the device.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string { return "device " + e.Op + ": " + e.Err.Error() }
func (e *DeviceError) Unwrap() error { return e.Err }
