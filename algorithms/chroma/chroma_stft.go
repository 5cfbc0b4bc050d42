package chroma

import (
	"github.com/RyanBlaney/sonido-analyzer/algorithms/common"
	"github.com/RyanBlaney/sonido-analyzer/algorithms/spectral"
	"github.com/RyanBlaney/sonido-analyzer/algorithms/windowing"
	"github.com/RyanBlaney/sonido-analyzer/config"
)

// Chromagram is spectral power folded onto the 12 pitch classes, 0=C..11=B
type Chromagram [12]float64

// Sum returns the total of all bins
func (c *Chromagram) Sum() float64 {
	total := 0.0
	for _, v := range c {
		total += v
	}
	return total
}

// Normalize scales the bins to sum to 1. An all-zero chromagram is left alone.
func (c *Chromagram) Normalize() {
	common.NormalizeSum(c[:])
}

// Dominant returns the pitch class holding the most energy, lowest index on ties
func (c *Chromagram) Dominant() int {
	best := 0
	for pc := 1; pc < len(c); pc++ {
		if c[pc] > c[best] {
			best = pc
		}
	}
	return best
}

// ChromaSTFT accumulates a chromagram from overlapping Hann-windowed FFT frames
type ChromaSTFT struct {
	config config.KeyConfig
	window *windowing.Hann
	power  *spectral.PowerSpectrum
}

// NewChromaSTFT creates a chroma extractor with default parameters
func NewChromaSTFT() *ChromaSTFT {
	return NewChromaSTFTWithConfig(config.DefaultKeyConfig())
}

// NewChromaSTFTWithConfig creates a chroma extractor with custom parameters
func NewChromaSTFTWithConfig(cfg config.KeyConfig) *ChromaSTFT {
	return &ChromaSTFT{
		config: cfg,
		window: windowing.NewHann(cfg.FrameSize, true),
		power:  spectral.NewPowerSpectrum(),
	}
}

// FrameCount returns floor((n-frame)/hop), at least 1: a signal shorter than
// one frame is still analyzed once, zero padded
func (cs *ChromaSTFT) FrameCount(n int) int {
	frames := (n - cs.config.FrameSize) / cs.config.HopSize
	return max(1, frames)
}

// Compute returns the unnormalized chromagram of a mono signal.
// Each positive-frequency bin between MinFreq and MaxFreq adds its power to
// the pitch class of the nearest equal-tempered note.
func (cs *ChromaSTFT) Compute(signal []float64, sampleRate int) Chromagram {
	var chroma Chromagram
	if sampleRate <= 0 {
		return chroma
	}

	size := cs.config.FrameSize
	half := size / 2

	// bin -> pitch class, -1 outside the analyzed band
	pitchClass := make([]int, half)
	for bin := range pitchClass {
		pitchClass[bin] = -1
		if bin == 0 {
			continue
		}
		freq := spectral.BinFrequency(bin, sampleRate, size)
		if freq < cs.config.MinFreq || freq > cs.config.MaxFreq {
			continue
		}
		pitchClass[bin] = FrequencyToPitchClass(freq, cs.config.TuningFreq)
	}

	re := make([]float64, size)
	im := make([]float64, size)
	for f := range cs.FrameCount(len(signal)) {
		cs.window.Frame(re, signal, f*cs.config.HopSize)
		clear(im)
		spectral.DFT(re, im)

		for bin, pc := range pitchClass {
			if pc >= 0 {
				chroma[pc] += cs.power.Bin(re, im, bin)
			}
		}
	}

	return chroma
}

// ComputeNormalized returns the chromagram scaled to sum to 1
func (cs *ChromaSTFT) ComputeNormalized(signal []float64, sampleRate int) Chromagram {
	chroma := cs.Compute(signal, sampleRate)
	chroma.Normalize()
	return chroma
}
