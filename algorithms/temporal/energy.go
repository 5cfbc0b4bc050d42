package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-analyzer/algorithms/common"
)

// Energy computes frame-wise RMS energy
type Energy struct {
	frameSize int
	hopSize   int
}

// NewEnergy creates a new energy calculator
func NewEnergy(frameSize, hopSize int) *Energy {
	return &Energy{
		frameSize: frameSize,
		hopSize:   hopSize,
	}
}

// FrameCount is the number of analysis frames for a signal of n samples:
// floor((n-frameSize)/hopSize), never negative. The last full frame is not
// counted.
func (e *Energy) FrameCount(n int) int {
	if e.frameSize <= 0 || e.hopSize <= 0 || n < e.frameSize {
		return 0
	}
	return (n - e.frameSize) / e.hopSize
}

// ComputeFrameRMS returns sqrt(mean(x²)) for each of FrameCount(len(signal)) frames
func (e *Energy) ComputeFrameRMS(signal []float64) []float64 {
	numFrames := e.FrameCount(len(signal))
	energies := make([]float64, numFrames)

	for i := range numFrames {
		start := i * e.hopSize
		energies[i] = common.RMS(signal[start : start+e.frameSize])
	}

	return energies
}

// Decimate keeps every ratio-th sample, ratio = round(sampleRate/targetRate)
// clamped to at least 1. No anti-alias filter is applied. It returns the
// decimated signal and its effective sample rate.
func Decimate(signal []float64, sampleRate, targetRate int) ([]float64, float64) {
	ratio := 1
	if targetRate > 0 {
		ratio = max(1, int(math.Round(float64(sampleRate)/float64(targetRate))))
	}
	if ratio == 1 {
		return signal, float64(sampleRate)
	}

	out := make([]float64, len(signal)/ratio)
	for i := range out {
		out[i] = signal[i*ratio]
	}
	return out, float64(sampleRate) / float64(ratio)
}
