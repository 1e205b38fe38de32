// ABOUTME: Session audio format definition
// ABOUTME: Fixed once detected from the tap device and shared by every stage of the pipeline
package audio

import "fmt"

// Format describes the interleaved PCM stream flowing through one recording
// session. It is detected from the system output device when the tap binds and
// never changes for the lifetime of the session.
type Format struct {
	SampleRate    float64
	Channels      uint32
	BitsPerSample uint32
	Float         bool
}

// DefaultFormat is used when the platform reports no native format.
func DefaultFormat() Format {
	return Format{SampleRate: 48000, Channels: 2, BitsPerSample: 32, Float: true}
}

// Validate checks that the format is something the pipeline can carry.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %v", f.SampleRate)
	}
	if f.Channels < 1 || f.Channels > 2 {
		return fmt.Errorf("unsupported channel count: %d (supported: 1, 2)", f.Channels)
	}
	if f.Float && f.BitsPerSample != 32 {
		return fmt.Errorf("float format must be 32-bit, got %d", f.BitsPerSample)
	}
	if !f.Float && f.BitsPerSample != 16 {
		return fmt.Errorf("integer format must be 16-bit, got %d", f.BitsPerSample)
	}
	return nil
}

// BytesPerSample returns the storage size of one sample on disk.
func (f Format) BytesPerSample() int {
	return int(f.BitsPerSample) / 8
}

// BytesPerFrame returns the storage size of one frame (all channels).
func (f Format) BytesPerFrame() int {
	return f.BytesPerSample() * int(f.Channels)
}

// SamplesPerSecond returns interleaved samples per second across all channels.
func (f Format) SamplesPerSecond() int {
	return int(f.SampleRate) * int(f.Channels)
}

func (f Format) String() string {
	enc := "int"
	if f.Float {
		enc = "float"
	}
	return fmt.Sprintf("%.0fHz/%dch/%d-bit %s", f.SampleRate, f.Channels, f.BitsPerSample, enc)
}
