package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-analyzer/config"
)

// TempoEstimate describes how a BPM value was reached
type TempoEstimate struct {
	BPM         int     `json:"bpm"`         // final rounded tempo
	RawBPM      float64 `json:"raw_bpm"`     // tempo at the best lag, before octave correction
	Lag         int     `json:"lag"`         // best lag in frames
	Correlation float64 `json:"correlation"` // weighted autocorrelation at Lag
	Frames      int     `json:"frames"`      // onset frames analyzed
	Doubled     bool    `json:"doubled"`
	Halved      bool    `json:"halved"`
	Fallback    bool    `json:"fallback"` // too little signal, BPM is the configured fallback
}

// TempoEstimation estimates tempo by autocorrelating an onset-strength curve
type TempoEstimation struct {
	config config.TempoConfig
	energy *Energy
}

// NewTempoEstimation creates a tempo estimator with default parameters
func NewTempoEstimation() *TempoEstimation {
	return NewTempoEstimationWithConfig(config.DefaultTempoConfig())
}

// NewTempoEstimationWithConfig creates a tempo estimator with custom parameters
func NewTempoEstimationWithConfig(cfg config.TempoConfig) *TempoEstimation {
	return &TempoEstimation{
		config: cfg,
		energy: NewEnergy(cfg.FrameSize, cfg.HopSize),
	}
}

// EstimateBPM returns the rounded tempo of a mono signal
func (te *TempoEstimation) EstimateBPM(signal []float64, sampleRate int) int {
	return te.Estimate(signal, sampleRate).BPM
}

// Estimate runs the full pipeline: decimate, RMS envelope, onset strength,
// prior-weighted autocorrelation over the BPM range, octave correction.
// It never fails; degenerate input yields the fallback tempo.
func (te *TempoEstimation) Estimate(signal []float64, sampleRate int) TempoEstimate {
	fallback := TempoEstimate{BPM: te.config.FallbackBPM, RawBPM: float64(te.config.FallbackBPM), Fallback: true}
	if len(signal) == 0 || sampleRate <= 0 {
		return fallback
	}

	decimated, rate := Decimate(signal, sampleRate, te.config.TargetSampleRate)

	envelope := te.energy.ComputeFrameRMS(decimated)
	numFrames := len(envelope)
	fallback.Frames = numFrames
	if numFrames < te.config.MinFrames {
		return fallback
	}

	onset := NormalizedOnsetStrength(envelope)

	framesPerSec := rate / float64(te.config.HopSize)
	minLag := max(1, int(math.Floor(framesPerSec*60/te.config.MaxBPM)))
	maxLag := min(int(math.Ceil(framesPerSec*60/te.config.MinBPM)), numFrames-1)
	if minLag >= maxLag {
		return fallback
	}

	bestLag := minLag
	bestCorr := -1.0
	for lag := minLag; lag <= maxLag; lag++ {
		corr := lagCorrelation(onset, lag) * te.priorWeight(framesPerSec*60/float64(lag))
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	est := TempoEstimate{
		RawBPM:      framesPerSec * 60 / float64(bestLag),
		Lag:         bestLag,
		Correlation: bestCorr,
		Frames:      numFrames,
	}
	bpm := est.RawBPM

	// A double-tempo pulse shows up at half the lag.
	doubleLag := int(math.Round(float64(bestLag) / 2))
	if doubleLag >= minLag && doubleLag <= maxLag {
		if bpm < te.config.DoubleBelowBPM && lagCorrelation(onset, doubleLag) >= bestCorr*te.config.DoubleRatio {
			bpm *= 2
			est.Doubled = true
		}
	}

	halfLag := bestLag * 2
	if halfLag <= maxLag && numFrames-halfLag > 0 {
		if bpm > te.config.HalveAboveBPM && lagCorrelation(onset, halfLag) >= bestCorr*te.config.HalveRatio {
			bpm /= 2
			est.Halved = true
		}
	}

	est.BPM = int(math.Round(bpm))
	return est
}

// priorWeight returns the weight of the first prior band containing bpm, or 1
func (te *TempoEstimation) priorWeight(bpm float64) float64 {
	for _, band := range te.config.Prior {
		if bpm >= band.MinBPM && bpm <= band.MaxBPM {
			return band.Weight
		}
	}
	return 1.0
}

// ClassifyTempoCategory classifies tempo into broad categories
func ClassifyTempoCategory(tempo float64) string {
	if tempo < 60 {
		return "very_slow"
	} else if tempo < 90 {
		return "slow"
	} else if tempo < 120 {
		return "moderate"
	} else if tempo < 150 {
		return "fast"
	} else {
		return "very_fast"
	}
}
