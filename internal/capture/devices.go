// ABOUTME: malgo device helpers shared by the capture sources
// ABOUTME: Finds default/selected devices and detects their native formats
package capture

import (
	"fmt"
	"strings"

	"github.com/gen2brain/malgo"

	"github.com/tapmix-audio/tapmix-go/internal/audio"
)

// defaultPlaybackDevice returns the system's default output device, which is
// what the tap's virtual capture device wraps.
func defaultPlaybackDevice(ctx *malgo.AllocatedContext) (malgo.DeviceInfo, bool) {
	devices, err := ctx.Devices(malgo.Playback)
	if err != nil || len(devices) == 0 {
		return malgo.DeviceInfo{}, false
	}

	for _, info := range devices {
		if info.IsDefault != 0 {
			return info, true
		}
	}
	return devices[0], true
}

// findCaptureDevice returns the input device whose name contains name, or the
// default input device when name is empty.
func findCaptureDevice(ctx *malgo.AllocatedContext, name string) (malgo.DeviceInfo, error) {
	devices, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return malgo.DeviceInfo{}, fmt.Errorf("failed to enumerate capture devices: %w", err)
	}
	if len(devices) == 0 {
		return malgo.DeviceInfo{}, ErrNoInputDevice
	}

	if name == "" {
		for _, info := range devices {
			if info.IsDefault != 0 {
				return info, nil
			}
		}
		return devices[0], nil
	}

	lower := strings.ToLower(name)
	for _, info := range devices {
		if strings.Contains(strings.ToLower(info.Name()), lower) {
			return info, nil
		}
	}
	return malgo.DeviceInfo{}, fmt.Errorf("%w: no input device matching %q", ErrNoInputDevice, name)
}

// deviceFormat detects the native stream format of a device. The pipeline
// always carries float32, so only the rate and channel layout come from the
// device; anything the pipeline cannot carry falls back to the default.
func deviceFormat(ctx *malgo.AllocatedContext, kind malgo.DeviceType, info malgo.DeviceInfo) audio.Format {
	format := audio.DefaultFormat()

	full, err := ctx.DeviceInfo(kind, info.ID, malgo.Shared)
	if err != nil || len(full.Formats) == 0 {
		return format
	}

	native := full.Formats[0]
	if native.SampleRate > 0 {
		format.SampleRate = float64(native.SampleRate)
	}
	if native.Channels == 1 {
		format.Channels = 1
	}
	return format
}
