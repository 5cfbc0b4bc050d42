package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
)

// ErrInvalidConfig is wrapped by every Validate failure
var ErrInvalidConfig = errors.New("invalid analysis config")

// TempoBand is a BPM range whose lags get their autocorrelation multiplied by Weight
type TempoBand struct {
	MinBPM float64 `json:"min_bpm"`
	MaxBPM float64 `json:"max_bpm"`
	Weight float64 `json:"weight"`
}

// TempoConfig configures onset-autocorrelation tempo estimation
type TempoConfig struct {
	TargetSampleRate int     `json:"target_sample_rate"` // decimation target (Hz)
	FrameSize        int     `json:"frame_size"`         // RMS frame, at the decimated rate
	HopSize          int     `json:"hop_size"`
	MinBPM           float64 `json:"min_bpm"`
	MaxBPM           float64 `json:"max_bpm"`
	MinFrames        int     `json:"min_frames"`
	FallbackBPM      int     `json:"fallback_bpm"`

	// Checked in order, first match wins
	Prior []TempoBand `json:"prior"`

	// Octave ambiguity resolution
	DoubleBelowBPM float64 `json:"double_below_bpm"`
	DoubleRatio    float64 `json:"double_ratio"`
	HalveAboveBPM  float64 `json:"halve_above_bpm"`
	HalveRatio     float64 `json:"halve_ratio"`
}

// KeyConfig configures chromagram construction
type KeyConfig struct {
	FrameSize  int     `json:"frame_size"`
	HopSize    int     `json:"hop_size"`
	MinFreq    float64 `json:"min_freq"` // Hz
	MaxFreq    float64 `json:"max_freq"` // Hz
	TuningFreq float64 `json:"tuning_freq"`
}

// AnalysisConfig groups everything the analyzer needs
type AnalysisConfig struct {
	Tempo   TempoConfig `json:"tempo"`
	Key     KeyConfig   `json:"key"`
	Workers int         `json:"workers"` // concurrent buffers in batch analysis
}

// DefaultTempoConfig returns the reference tempo parameters
func DefaultTempoConfig() TempoConfig {
	return TempoConfig{
		TargetSampleRate: 11025,
		FrameSize:        1024,
		HopSize:          512,
		MinBPM:           60,
		MaxBPM:           200,
		MinFrames:        4,
		FallbackBPM:      120,
		Prior: []TempoBand{
			{MinBPM: 100, MaxBPM: 140, Weight: 1.15},
			{MinBPM: 80, MaxBPM: 160, Weight: 1.05},
		},
		DoubleBelowBPM: 90,
		DoubleRatio:    0.8,
		HalveAboveBPM:  170,
		HalveRatio:     0.7,
	}
}

// DefaultKeyConfig returns the reference chromagram parameters
func DefaultKeyConfig() KeyConfig {
	return KeyConfig{
		FrameSize:  8192,
		HopSize:    4096,
		MinFreq:    65,
		MaxFreq:    2000,
		TuningFreq: 440,
	}
}

// DefaultAnalysisConfig returns defaults for every section
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Tempo:   DefaultTempoConfig(),
		Key:     DefaultKeyConfig(),
		Workers: runtime.NumCPU(),
	}
}

// Load overlays the JSON file at path onto the defaults and validates the result.
// An empty path returns the defaults.
func Load(path string) (AnalysisConfig, error) {
	cfg := DefaultAnalysisConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first parameter that would make an estimator misbehave
func (c AnalysisConfig) Validate() error {
	if err := c.Tempo.Validate(); err != nil {
		return err
	}
	if err := c.Key.Validate(); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

func (c TempoConfig) Validate() error {
	switch {
	case c.TargetSampleRate <= 0:
		return fmt.Errorf("%w: tempo target_sample_rate must be > 0", ErrInvalidConfig)
	case c.FrameSize <= 0 || c.HopSize <= 0:
		return fmt.Errorf("%w: tempo frame_size and hop_size must be > 0", ErrInvalidConfig)
	case c.MinBPM <= 0 || c.MaxBPM <= c.MinBPM:
		return fmt.Errorf("%w: tempo range [%g, %g] is empty", ErrInvalidConfig, c.MinBPM, c.MaxBPM)
	case c.FallbackBPM <= 0:
		return fmt.Errorf("%w: tempo fallback_bpm must be > 0", ErrInvalidConfig)
	case c.DoubleRatio < 0 || c.HalveRatio < 0:
		return fmt.Errorf("%w: octave ratios must be >= 0", ErrInvalidConfig)
	}
	for i, band := range c.Prior {
		if band.MaxBPM < band.MinBPM || band.Weight <= 0 {
			return fmt.Errorf("%w: tempo prior band %d is malformed", ErrInvalidConfig, i)
		}
	}
	return nil
}

func (c KeyConfig) Validate() error {
	switch {
	case c.FrameSize < 2:
		return fmt.Errorf("%w: key frame_size must be >= 2", ErrInvalidConfig)
	case c.HopSize <= 0:
		return fmt.Errorf("%w: key hop_size must be > 0", ErrInvalidConfig)
	case c.MinFreq <= 0 || c.MaxFreq < c.MinFreq:
		return fmt.Errorf("%w: key frequency range [%g, %g] is invalid", ErrInvalidConfig, c.MinFreq, c.MaxFreq)
	case c.TuningFreq <= 0:
		return fmt.Errorf("%w: key tuning_freq must be > 0", ErrInvalidConfig)
	}
	return nil
}
