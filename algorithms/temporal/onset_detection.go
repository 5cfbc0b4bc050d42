package temporal

import (
	"github.com/RyanBlaney/sonido-analyzer/algorithms/common"
)

// OnsetStrength is the half-wave rectified first difference of an energy
// envelope: onset[0] = 0, onset[f] = max(0, env[f]-env[f-1]). Decays are
// dropped, attacks kept.
func OnsetStrength(envelope []float64) []float64 {
	onset := make([]float64, len(envelope))
	for f := 1; f < len(envelope); f++ {
		if diff := envelope[f] - envelope[f-1]; diff > 0 {
			onset[f] = diff
		}
	}
	return onset
}

// NormalizedOnsetStrength is OnsetStrength scaled so its peak is 1.
// A flat or silent envelope stays all zero.
func NormalizedOnsetStrength(envelope []float64) []float64 {
	onset := OnsetStrength(envelope)
	common.NormalizeMax(onset)
	return onset
}

// lagCorrelation is mean(onset[f]·onset[f+lag]) over the valid overlap
func lagCorrelation(onset []float64, lag int) float64 {
	count := len(onset) - lag
	if lag < 0 || count <= 0 {
		return 0
	}

	sum := 0.0
	for f := range count {
		sum += onset[f] * onset[f+lag]
	}
	return sum / float64(count)
}
