// ABOUTME: System tap capture source with explicit device lifecycle
// ABOUTME: Binds a target, wraps it in a virtual loopback capture device and drives the mix callback
package capture

import (
	"fmt"
	"log"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/tapmix-audio/tapmix-go/internal/audio"
)

// TapState tracks the tap's device lifecycle.
type TapState int

const (
	StateUnbound TapState = iota
	StateTapCreated
	StateFormatKnown
	StateDeviceAggregated
	StateRunning
	StateStopped
	StateDestroyed
)

func (s TapState) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateTapCreated:
		return "tap-created"
	case StateFormatKnown:
		return "format-known"
	case StateDeviceAggregated:
		return "device-aggregated"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// TapSource captures the system (or a process's) audio output. The audio
// backend context is the tap; the loopback capture device wrapping the
// default output is the virtual aggregate device the platform routes
// through. Its data callback is the sole entry point that drives the mixer.
type TapSource struct {
	mu     sync.Mutex
	state  TapState
	target Target

	ctx      *malgo.AllocatedContext
	playback malgo.DeviceInfo
	hasDev   bool
	device   *malgo.Device
	format   audio.Format
	onData   DataFunc
}

// NewTapSource creates an unbound tap for the given target.
func NewTapSource(target Target) *TapSource {
	return &TapSource{state: StateUnbound, target: target}
}

// Bind creates the tap and reads its native stream format
// (Unbound -> TapCreated -> FormatKnown). On failure no partial state is
// left behind.
func (t *TapSource) Bind() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateUnbound {
		return fmt.Errorf("%w: bind from state %s", ErrTapCreation, t.state)
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTapCreation, err)
	}
	t.ctx = ctx
	t.state = StateTapCreated

	t.playback, t.hasDev = defaultPlaybackDevice(ctx)
	if t.hasDev {
		t.format = deviceFormat(ctx, malgo.Playback, t.playback)
	} else {
		t.format = audio.DefaultFormat()
	}
	t.state = StateFormatKnown

	log.Printf("Tap bound to %s (format: %s)", t.target.Name, t.format)
	return nil
}

// Format returns the tap's native stream format. Valid once Bind succeeds;
// it becomes the session-wide format.
func (t *TapSource) Format() audio.Format {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.format
}

// SetDataFunc installs the callback invoked with each hardware period's
// samples. Must be called before Start.
func (t *TapSource) SetDataFunc(fn DataFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onData = fn
}

// State returns the current lifecycle state.
func (t *TapSource) State() TapState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start wraps the tap in the virtual capture device and starts its clock
// (FormatKnown -> DeviceAggregated -> Running). Failure unwinds the device
// and the tap itself; the source ends up Destroyed.
func (t *TapSource) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateRunning {
		return nil
	}
	if t.state != StateFormatKnown && t.state != StateStopped {
		return fmt.Errorf("%w: start from state %s", ErrAggregateDevice, t.state)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Loopback)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = t.format.Channels
	deviceConfig.SampleRate = uint32(t.format.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = 10
	deviceConfig.Alsa.NoMMap = 1
	if t.hasDev {
		deviceConfig.Capture.DeviceID = t.playback.ID.Pointer()
	}

	// Captured here so the real-time callback never touches the mutex.
	fn := t.onData
	onRecvFrames := func(pOutputSample, pInputSamples []byte, frameCount uint32) {
		if fn == nil || frameCount == 0 {
			return
		}
		fn(audio.BytesToFloat32(pInputSamples), int(frameCount))
	}

	device, err := malgo.InitDevice(t.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onRecvFrames,
	})
	if err != nil {
		t.destroyLocked()
		return fmt.Errorf("%w: %v", ErrAggregateDevice, err)
	}
	t.device = device
	t.state = StateDeviceAggregated

	if err := device.Start(); err != nil {
		t.destroyLocked()
		return fmt.Errorf("%w: %v", ErrAggregateDevice, err)
	}

	t.state = StateRunning
	log.Printf("Tap capture running (%s)", t.format)
	return nil
}

// Stop halts the device callback (Running -> Stopped). Idempotent.
func (t *TapSource) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning {
		return nil
	}
	if err := t.device.Stop(); err != nil {
		log.Printf("Warning: tap device stop error: %v", err)
	}
	t.state = StateStopped
	return nil
}

// Close releases the virtual device and the tap (-> Destroyed). Idempotent
// and safe from a non-realtime teardown goroutine.
func (t *TapSource) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateDestroyed {
		return nil
	}
	t.destroyLocked()
	return nil
}

func (t *TapSource) destroyLocked() {
	if t.device != nil {
		if t.state == StateRunning {
			if err := t.device.Stop(); err != nil {
				log.Printf("Warning: tap device stop error: %v", err)
			}
		}
		t.device.Uninit()
		t.device = nil
	}

	if t.ctx != nil {
		if err := t.ctx.Uninit(); err != nil {
			log.Printf("Warning: tap context uninit error: %v", err)
		}
		t.ctx.Free()
		t.ctx = nil
	}

	t.state = StateDestroyed
}
