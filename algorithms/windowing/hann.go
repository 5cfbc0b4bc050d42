package windowing

import (
	"math"
)

// Hann represents a Hann window function
type Hann struct {
	size         int
	symmetric    bool
	coefficients []float64
}

// NewHann creates a new Hann window.
// A symmetric window divides by size-1, a periodic one by size.
func NewHann(size int, symmetric bool) *Hann {
	h := &Hann{
		size:      size,
		symmetric: symmetric,
	}
	h.generate()
	return h
}

func (h *Hann) generate() {
	h.coefficients = make([]float64, h.size)
	if h.size == 1 {
		h.coefficients[0] = 1
		return
	}

	denominator := float64(h.size)
	if h.symmetric {
		denominator = float64(h.size - 1)
	}

	for i := range h.size {
		h.coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/denominator))
	}
}

// Frame writes the windowed frame signal[offset:offset+size] into dst.
// Samples past the end of signal read as zero. dst must hold size values.
func (h *Hann) Frame(dst, signal []float64, offset int) {
	for i := 0; i < h.size; i++ {
		idx := offset + i
		if idx >= 0 && idx < len(signal) {
			dst[i] = signal[idx] * h.coefficients[i]
		} else {
			dst[i] = 0
		}
	}
}

// GetCoefficients returns a copy of the window coefficients
func (h *Hann) GetCoefficients() []float64 {
	coeffs := make([]float64, len(h.coefficients))
	copy(coeffs, h.coefficients)
	return coeffs
}
