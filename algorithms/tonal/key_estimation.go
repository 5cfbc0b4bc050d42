package tonal

import (
	"math"
	"sort"

	"github.com/RyanBlaney/sonido-analyzer/algorithms/chroma"
	"github.com/RyanBlaney/sonido-analyzer/algorithms/common"
)

// Scale is the mode of a key
type Scale string

const (
	ScaleMajor Scale = "major"
	ScaleMinor Scale = "minor"
)

// Krumhansl-Kessler probe-tone profiles, tonic first
var (
	MajorProfile = [12]float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
	MinorProfile = [12]float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}
)

// KeyCandidate is one of the 24 keys scored against a chromagram
type KeyCandidate struct {
	Key         string  `json:"key"`
	Scale       Scale   `json:"scale"`
	PitchClass  int     `json:"pitch_class"`
	Correlation float64 `json:"correlation"`
}

// Name returns e.g. "A minor"
func (kc KeyCandidate) Name() string {
	return kc.Key + " " + string(kc.Scale)
}

// KeyEstimate is the best matching key plus every candidate ranked by correlation
type KeyEstimate struct {
	Key         string         `json:"key"`
	Scale       Scale          `json:"scale"`
	PitchClass  int            `json:"pitch_class"`
	Correlation float64        `json:"correlation"`
	Candidates  []KeyCandidate `json:"candidates"`
}

// Name returns e.g. "C major"
func (ke KeyEstimate) Name() string {
	return ke.Key + " " + string(ke.Scale)
}

// KeyEstimator matches chromagrams against rotated major and minor profiles
type KeyEstimator struct {
	major [12][12]float64
	minor [12][12]float64
}

// NewKeyEstimator creates a key estimator with all 24 templates precomputed
func NewKeyEstimator() *KeyEstimator {
	ke := &KeyEstimator{}
	for tonic := range 12 {
		ke.major[tonic] = RotateProfile(MajorProfile, tonic)
		ke.minor[tonic] = RotateProfile(MinorProfile, tonic)
	}
	return ke
}

// RotateProfile returns profile transposed so its tonic sits at pitch class tonic
func RotateProfile(profile [12]float64, tonic int) [12]float64 {
	var rotated [12]float64
	for i := range rotated {
		rotated[i] = profile[((i-tonic)%12+12)%12]
	}
	return rotated
}

// EstimateKey returns the key whose template correlates best with c.
// Keys are tried tonic 0..11, major before minor, and only a strictly higher
// correlation replaces the current best, so an all-zero chromagram gives C major.
func (ke *KeyEstimator) EstimateKey(c chroma.Chromagram) KeyEstimate {
	candidates := make([]KeyCandidate, 0, 24)
	best := KeyCandidate{Correlation: math.Inf(-1)}

	for tonic := range 12 {
		for _, scale := range []Scale{ScaleMajor, ScaleMinor} {
			template := ke.major[tonic]
			if scale == ScaleMinor {
				template = ke.minor[tonic]
			}

			candidate := KeyCandidate{
				Key:         chroma.PitchClassName(tonic),
				Scale:       scale,
				PitchClass:  tonic,
				Correlation: common.Correlation(c[:], template[:]),
			}
			candidates = append(candidates, candidate)

			if candidate.Correlation > best.Correlation {
				best = candidate
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Correlation > candidates[j].Correlation
	})

	return KeyEstimate{
		Key:         best.Key,
		Scale:       best.Scale,
		PitchClass:  best.PitchClass,
		Correlation: best.Correlation,
		Candidates:  candidates,
	}
}

// GetRelativeKey returns the relative major/minor of a key
func GetRelativeKey(pitchClass int, scale Scale) (int, Scale) {
	if scale == ScaleMajor {
		// Relative minor is 3 semitones down
		return (pitchClass + 9) % 12, ScaleMinor
	}
	return (pitchClass + 3) % 12, ScaleMajor
}

// GetParallelKey returns the same tonic in the other mode
func GetParallelKey(pitchClass int, scale Scale) (int, Scale) {
	if scale == ScaleMajor {
		return pitchClass, ScaleMinor
	}
	return pitchClass, ScaleMajor
}
