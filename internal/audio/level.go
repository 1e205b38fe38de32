// ABOUTME: Level metering for mixed audio batches
// ABOUTME: Computes normalized RMS levels for the session's level callback
package audio

import "math"

// LevelSensitivity scales raw RMS into the 0.0-1.0 meter range. Typical
// speech mixes have RMS well below full scale, so the meter is boosted to
// stay readable.
const LevelSensitivity = 4.0

// RMSLevel returns the normalized level of a batch of interleaved samples,
// clamped to [0, 1]. An empty batch reports silence.
func RMSLevel(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sumSquares float64
	for _, s := range samples {
		sumSquares += float64(s) * float64(s)
	}

	level := math.Sqrt(sumSquares/float64(len(samples))) * LevelSensitivity
	if level > 1 {
		level = 1
	}
	return level
}
