// ABOUTME: Capture source abstraction
// ABOUTME: Common contract for the system tap and local input capture variants
package capture

import "errors"

// DataFunc receives interleaved float32 samples from a device callback. It
// runs on the device's own real-time thread and must not block.
type DataFunc func(samples []float32, frames int)

// Source produces audio frames from one origin. Stop and Close are
// idempotent and safe to call from a non-realtime teardown goroutine.
type Source interface {
	Start() error
	Stop() error
	Close() error
}

var (
	// ErrTapCreation indicates the platform declined to create the system
	// audio tap, e.g. the target has no tappable stream.
	ErrTapCreation = errors.New("tap creation failed")

	// ErrAggregateDevice indicates the virtual capture device wrapping the
	// tap could not be created or started.
	ErrAggregateDevice = errors.New("aggregate capture device failed")

	// ErrTargetNotFound indicates the selected capture target no longer exists.
	ErrTargetNotFound = errors.New("capture target not found")

	// ErrNoInputDevice indicates no usable local input device is available.
	ErrNoInputDevice = errors.New("no audio input device found")
)
