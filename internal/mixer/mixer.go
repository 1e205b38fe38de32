// ABOUTME: Real-time two-source mixer invoked from the tap device callback
// ABOUTME: Combines tap samples with staged microphone samples at a fixed 60/40 weighting
package mixer

import (
	"github.com/tapmix-audio/tapmix-go/internal/audio"
	"github.com/tapmix-audio/tapmix-go/internal/staging"
)

const (
	// TapWeight and MicWeight favor intelligibility of system audio over
	// microphone bleed. The ratio is fixed; surface-level volume controls
	// belong to the surrounding application.
	TapWeight = 0.6
	MicWeight = 0.4
)

// Mixer pulls microphone samples out of the staging buffer and combines them
// with the tap's samples. Mix runs on the tap device's real-time callback, so
// the microphone scratch buffer is reused across invocations and only grows
// when the callback period does.
type Mixer struct {
	staging *staging.Buffer
	mic     []float32
}

// New creates a mixer reading microphone samples from buf.
func New(buf *staging.Buffer) *Mixer {
	return &Mixer{staging: buf}
}

// NewPassthrough creates a mixer with no second source: the driving source's
// samples pass through at full weight, still hard-clamped. Used by the
// single-source record modes.
func NewPassthrough() *Mixer {
	return &Mixer{}
}

// Mix fills out with clamp(0.6*tap + 0.4*mic, -1, 1) per sample, where mic
// samples come from the staging buffer (zero-filled on underrun). A
// passthrough mixer fills out with clamp(tap, -1, 1) instead. It returns the
// normalized level of the mixed batch for the session's level callback.
// Clipping is hard clamping, not soft limiting.
func (m *Mixer) Mix(tap []float32, out []float32) float64 {
	n := len(tap)
	if len(out) < n {
		n = len(out)
	}

	if m.staging == nil {
		for i := 0; i < n; i++ {
			out[i] = clamp(tap[i])
		}
		return audio.RMSLevel(out[:n])
	}

	if cap(m.mic) < n {
		m.mic = make([]float32, n)
	}
	mic := m.mic[:n]
	m.staging.Read(mic)

	for i := 0; i < n; i++ {
		out[i] = clamp(tap[i]*TapWeight + mic[i]*MicWeight)
	}

	return audio.RMSLevel(out[:n])
}

func clamp(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
