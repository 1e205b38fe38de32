// ABOUTME: Local microphone input source
// ABOUTME: Runs its own capture graph and stages frames for the mixer without blocking
package capture

import (
	"fmt"
	"log"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/tapmix-audio/tapmix-go/internal/audio"
	"github.com/tapmix-audio/tapmix-go/internal/staging"
)

// LocalInput reads the chosen input device and pushes frames into the
// staging buffer. It owns its own backend context, so its callback period is
// independent of the tap's. The microphone is captured mono at the session
// rate and duplicated to the session channel layout before staging.
type LocalInput struct {
	mu         sync.Mutex
	buf        *staging.Buffer
	format     audio.Format
	deviceName string

	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	running bool
}

// NewLocalInput creates an input source staging into buf at the session
// format. deviceName selects an input device by substring; empty means the
// default input.
func NewLocalInput(buf *staging.Buffer, format audio.Format, deviceName string) *LocalInput {
	return &LocalInput{buf: buf, format: format, deviceName: deviceName}
}

// Start opens the input device and begins staging frames.
func (l *LocalInput) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return nil
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize input context: %w", err)
	}

	info, err := findCaptureDevice(ctx, l.deviceName)
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.Capture.DeviceID = info.ID.Pointer()
	deviceConfig.SampleRate = uint32(l.format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	buf := l.buf
	channels := int(l.format.Channels)
	onRecvFrames := func(pOutputSample, pInputSamples []byte, frameCount uint32) {
		if frameCount == 0 {
			return
		}
		// Conversion happens before the staging lock; the lock only covers
		// the bounded copy. A full buffer overwrites the oldest frames
		// instead of pushing back into the hardware callback.
		samples := audio.BytesToFloat32(pInputSamples)
		buf.Write(audio.AdaptChannels(samples, 1, channels))
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onRecvFrames,
	})
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to initialize input device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to start input device: %w", err)
	}

	l.ctx = ctx
	l.device = device
	l.running = true
	log.Printf("Local input running: %s", info.Name())
	return nil
}

// Stop halts the input callback. Idempotent.
func (l *LocalInput) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return nil
	}
	if err := l.device.Stop(); err != nil {
		log.Printf("Warning: input device stop error: %v", err)
	}
	l.running = false
	return nil
}

// Close releases the device and context. Idempotent.
func (l *LocalInput) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.device != nil {
		if l.running {
			if err := l.device.Stop(); err != nil {
				log.Printf("Warning: input device stop error: %v", err)
			}
			l.running = false
		}
		l.device.Uninit()
		l.device = nil
	}
	if l.ctx != nil {
		if err := l.ctx.Uninit(); err != nil {
			log.Printf("Warning: input context uninit error: %v", err)
		}
		l.ctx.Free()
		l.ctx = nil
	}
	return nil
}
