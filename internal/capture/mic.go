// ABOUTME: Microphone driving source for mic-only recording
// ABOUTME: Delivers input device frames straight to the data callback, pacing the pipeline
package capture

import (
	"fmt"
	"log"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/tapmix-audio/tapmix-go/internal/audio"
)

// MicSource records the microphone alone. It fills the same driving-source
// role as TapSource: its hardware callback paces the session, and its native
// format becomes the session format. Shares the tap's lifecycle states.
type MicSource struct {
	mu         sync.Mutex
	state      TapState
	deviceName string

	ctx    *malgo.AllocatedContext
	info   malgo.DeviceInfo
	device *malgo.Device
	format audio.Format
	onData DataFunc
}

// NewMicSource creates an unbound microphone source. deviceName selects an
// input device by substring; empty means the default input.
func NewMicSource(deviceName string) *MicSource {
	return &MicSource{state: StateUnbound, deviceName: deviceName}
}

// Bind opens the audio backend, locates the input device and reads its native
// format. On failure no partial state is left behind.
func (m *MicSource) Bind() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateUnbound {
		return fmt.Errorf("bind from state %s", m.state)
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize input context: %w", err)
	}

	info, err := findCaptureDevice(ctx, m.deviceName)
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return err
	}

	m.ctx = ctx
	m.info = info
	m.state = StateTapCreated
	m.format = deviceFormat(ctx, malgo.Capture, info)
	m.state = StateFormatKnown

	log.Printf("Microphone bound: %s (format: %s)", info.Name(), m.format)
	return nil
}

// Format returns the microphone's native stream format. Valid once Bind
// succeeds; it becomes the session-wide format.
func (m *MicSource) Format() audio.Format {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.format
}

// SetDataFunc installs the callback invoked with each hardware period's
// samples. Must be called before Start.
func (m *MicSource) SetDataFunc(fn DataFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onData = fn
}

// State returns the current lifecycle state.
func (m *MicSource) State() TapState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start opens the capture device and starts its clock. Failure releases the
// device and the backend context; the source ends up Destroyed.
func (m *MicSource) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateRunning {
		return nil
	}
	if m.state != StateFormatKnown && m.state != StateStopped {
		return fmt.Errorf("%w: start from state %s", ErrNoInputDevice, m.state)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = m.format.Channels
	deviceConfig.Capture.DeviceID = m.info.ID.Pointer()
	deviceConfig.SampleRate = uint32(m.format.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = 10
	deviceConfig.Alsa.NoMMap = 1

	// Captured here so the real-time callback never touches the mutex.
	fn := m.onData
	onRecvFrames := func(pOutputSample, pInputSamples []byte, frameCount uint32) {
		if fn == nil || frameCount == 0 {
			return
		}
		fn(audio.BytesToFloat32(pInputSamples), int(frameCount))
	}

	device, err := malgo.InitDevice(m.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onRecvFrames,
	})
	if err != nil {
		m.destroyLocked()
		return fmt.Errorf("%w: %v", ErrNoInputDevice, err)
	}
	m.device = device
	m.state = StateDeviceAggregated

	if err := device.Start(); err != nil {
		m.destroyLocked()
		return fmt.Errorf("%w: %v", ErrNoInputDevice, err)
	}

	m.state = StateRunning
	log.Printf("Microphone capture running (%s)", m.format)
	return nil
}

// Stop halts the device callback (Running -> Stopped). Idempotent.
func (m *MicSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateRunning {
		return nil
	}
	if err := m.device.Stop(); err != nil {
		log.Printf("Warning: input device stop error: %v", err)
	}
	m.state = StateStopped
	return nil
}

// Close releases the device and the backend context (-> Destroyed).
// Idempotent and safe from a non-realtime teardown goroutine.
func (m *MicSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateDestroyed {
		return nil
	}
	m.destroyLocked()
	return nil
}

func (m *MicSource) destroyLocked() {
	if m.device != nil {
		if m.state == StateRunning {
			if err := m.device.Stop(); err != nil {
				log.Printf("Warning: input device stop error: %v", err)
			}
		}
		m.device.Uninit()
		m.device = nil
	}
	if m.ctx != nil {
		if err := m.ctx.Uninit(); err != nil {
			log.Printf("Warning: input context uninit error: %v", err)
		}
		m.ctx.Free()
		m.ctx = nil
	}
	m.state = StateDestroyed
}
