// ABOUTME: Input backend selection
// ABOUTME: Maps a backend name to a local input source implementation
package capture

import (
	"fmt"

	"github.com/tapmix-audio/tapmix-go/internal/audio"
	"github.com/tapmix-audio/tapmix-go/internal/staging"
)

// NewInput creates a local input source for the named backend.
func NewInput(backend string, buf *staging.Buffer, format audio.Format, deviceName string) (Source, error) {
	switch backend {
	case "", "malgo":
		return NewLocalInput(buf, format, deviceName), nil
	case "portaudio":
		return NewPortAudioInput(buf, format), nil
	default:
		return nil, fmt.Errorf("unknown input backend: %s (supported: malgo, portaudio)", backend)
	}
}
