//go:build portaudio

// ABOUTME: PortAudio local input backend
// ABOUTME: Alternate microphone capture path behind the portaudio build tag
package capture

import (
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/tapmix-audio/tapmix-go/internal/audio"
	"github.com/tapmix-audio/tapmix-go/internal/staging"
)

// PortAudioInput captures the default input device via PortAudio and stages
// frames exactly like LocalInput.
type PortAudioInput struct {
	mu      sync.Mutex
	buf     *staging.Buffer
	format  audio.Format
	stream  *portaudio.Stream
	running bool
}

// NewPortAudioInput creates a PortAudio-backed input source.
func NewPortAudioInput(buf *staging.Buffer, format audio.Format) *PortAudioInput {
	return &PortAudioInput{buf: buf, format: format}
}

// Start opens the default input stream and begins staging frames.
func (p *PortAudioInput) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	buf := p.buf
	channels := int(p.format.Channels)
	stream, err := portaudio.OpenDefaultStream(1, 0, p.format.SampleRate, 0, func(in []float32) {
		buf.Write(audio.AdaptChannels(in, 1, channels))
	})
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	p.stream = stream
	p.running = true
	log.Printf("Local input running (portaudio)")
	return nil
}

// Stop halts the input callback. Idempotent.
func (p *PortAudioInput) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}
	if err := p.stream.Stop(); err != nil {
		log.Printf("Warning: input stream stop error: %v", err)
	}
	p.running = false
	return nil
}

// Close releases the stream and PortAudio. Idempotent.
func (p *PortAudioInput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		if p.running {
			if err := p.stream.Stop(); err != nil {
				log.Printf("Warning: input stream stop error: %v", err)
			}
			p.running = false
		}
		p.stream.Close()
		p.stream = nil
		portaudio.Terminate()
	}
	return nil
}
