package scan

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied is returned when camera or NFC access is refused or unavailable.
	ErrPermissionDenied = errors.New("scan: permission denied")

	// ErrNoDeviceFound is returned when no capture device is enumerated.
	// The UI treats it exactly like ErrPermissionDenied.
	ErrNoDeviceFound = errors.New("scan: no capture device found")

	// ErrNotFound is the per-frame "nothing decoded" outcome. It is expected on
	// most frames and never surfaced.
	ErrNotFound = errors.New("scan: no code found in frame")

	// ErrUnsupported is returned when the platform has no NFC capability.
	ErrUnsupported = errors.New("scan: nfc not supported")

	// ErrEmptyMessage is reported when a tag carries no data records.
	ErrEmptyMessage = errors.New("scan: nfc message has no records")
)

// AdapterError is an unexpected failure inside a decode or read adapter.
type AdapterError struct {
	Op  string
	Err error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("scan adapter %s: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// ActivationError is returned when an NFC reader cannot be put into scanning mode.
type ActivationError struct {
	Err error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("scan: nfc activation failed: %v", e.Err)
}

func (e *ActivationError) Unwrap() error {
	return e.Err
}

// IsTransientMiss reports whether err is the expected per-frame miss.
func IsTransientMiss(err error) bool {
	return errors.Is(err, ErrNotFound)
}
