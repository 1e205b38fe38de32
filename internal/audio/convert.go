// ABOUTME: Sample conversion helpers
// ABOUTME: Converts between device byte buffers, float32 samples and int16 PCM
package audio

import (
	"encoding/binary"
	"math"
)

// BytesToFloat32 decodes an F32LE device buffer into interleaved samples.
func BytesToFloat32(buf []byte) []float32 {
	n := len(buf) / 4
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return samples
}

// Float32ToBytes encodes interleaved samples as F32LE.
func Float32ToBytes(samples []float32, buf []byte) {
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
}

// SampleToInt16 converts a [-1, 1] float sample to 16-bit PCM with clamping.
func SampleToInt16(sample float32) int16 {
	if sample > 1 {
		sample = 1
	}
	if sample < -1 {
		sample = -1
	}
	return int16(sample * 32767)
}

// SampleFromInt16 converts a 16-bit PCM sample to [-1, 1] float.
func SampleFromInt16(sample int16) float32 {
	return float32(sample) / 32768
}

// AdaptChannels converts interleaved samples from srcChannels to dstChannels.
// Mono is duplicated across the destination layout, stereo is averaged down
// to mono. Matching layouts return the input unchanged.
func AdaptChannels(samples []float32, srcChannels, dstChannels int) []float32 {
	if srcChannels == dstChannels || srcChannels < 1 || dstChannels < 1 {
		return samples
	}

	frames := len(samples) / srcChannels
	out := make([]float32, frames*dstChannels)

	switch {
	case srcChannels == 1:
		for i := 0; i < frames; i++ {
			for ch := 0; ch < dstChannels; ch++ {
				out[i*dstChannels+ch] = samples[i]
			}
		}
	case dstChannels == 1:
		for i := 0; i < frames; i++ {
			var sum float32
			for ch := 0; ch < srcChannels; ch++ {
				sum += samples[i*srcChannels+ch]
			}
			out[i] = sum / float32(srcChannels)
		}
	default:
		// Copy the overlapping channels, zero-fill any extras.
		for i := 0; i < frames; i++ {
			for ch := 0; ch < dstChannels; ch++ {
				if ch < srcChannels {
					out[i*dstChannels+ch] = samples[i*srcChannels+ch]
				}
			}
		}
	}

	return out
}
