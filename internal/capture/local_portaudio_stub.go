//go:build !portaudio

// ABOUTME: PortAudio input stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package capture

import (
	"fmt"

	"github.com/tapmix-audio/tapmix-go/internal/audio"
	"github.com/tapmix-audio/tapmix-go/internal/staging"
)

// PortAudioInput local input implementation (stub)
type PortAudioInput struct{}

// NewPortAudioInput creates a PortAudio-backed input source
func NewPortAudioInput(buf *staging.Buffer, format audio.Format) *PortAudioInput {
	return &PortAudioInput{}
}

// Start opens the input stream
func (p *PortAudioInput) Start() error {
	return fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)")
}

// Stop halts the input callback
func (p *PortAudioInput) Stop() error { return nil }

// Close releases the stream
func (p *PortAudioInput) Close() error { return nil }
