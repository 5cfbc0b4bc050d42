package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical helpers shared by the estimators, backed by gonum

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sumSquares := 0.0
	for _, val := range data {
		sumSquares += val * val
	}

	return math.Sqrt(sumSquares / float64(len(data)))
}

// Correlation calculates the Pearson correlation coefficient between two series.
// It is 0 when the lengths differ, the series are empty, or either has zero variance.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0.0
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return 0.0
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0.0
	}
	return r
}

// NormalizeMax divides data in place by its maximum.
// Nothing happens when the maximum is not positive.
func NormalizeMax(data []float64) {
	if len(data) == 0 {
		return
	}
	peak := floats.Max(data)
	if peak <= 0 {
		return
	}
	floats.Scale(1/peak, data)
}

// NormalizeSum divides data in place by its sum so it sums to 1.
// Nothing happens when the sum is 0.
func NormalizeSum(data []float64) {
	total := floats.Sum(data)
	if total == 0 {
		return
	}
	floats.Scale(1/total, data)
}

// IsPowerOfTwo checks if n is a power of 2
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
