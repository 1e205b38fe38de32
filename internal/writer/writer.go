// ABOUTME: Streaming output writer interface
// ABOUTME: Appends mixed frame batches to an open container on disk
package writer

import (
	"fmt"
	"time"

	"github.com/tapmix-audio/tapmix-go/internal/audio"
)

// Writer owns an open output handle at the session format and appends mixed
// batches as they arrive from the mixer. It is single-producer: only the tap
// callback writes. The file is valid for playback only after Close patches
// the container's size fields; interruption before Close leaves a corrupt
// file.
type Writer interface {
	// WriteFrames appends a batch of interleaved samples.
	WriteFrames(samples []float32) error
	// Close flushes and finalizes the container metadata.
	Close() error

	Path() string
	FramesWritten() uint64
	BytesWritten() int64
	Duration() time.Duration
}

// Open creates a writer for the named container format at path.
func Open(container, path string, format audio.Format) (Writer, error) {
	switch container {
	case "", "wav":
		return NewWAV(path, format)
	case "caf":
		return NewCAF(path, format)
	default:
		return nil, fmt.Errorf("unsupported container: %s (supported: wav, caf)", container)
	}
}
