package spectral

import (
	"errors"
	"math"

	"github.com/mjibson/go-dsp/fft"

	"github.com/RyanBlaney/sonido-analyzer/algorithms/common"
)

// ErrLengthMismatch is returned when real and imaginary parts differ in length
var ErrLengthMismatch = errors.New("fft: real and imaginary lengths differ")

// Radix2 computes the DFT of re + i·im in place with an iterative radix-2
// Cooley-Tukey transform. No 1/N scaling is applied.
//
// Both slices are overwritten with the spectrum. len(re) must equal len(im)
// and be a power of two; other lengths produce garbage. Use FFT.Transform
// for unchecked input.
func Radix2(re, im []float64) {
	n := len(re)

	// bit-reversal permutation, j walks the reversed counter
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		angle := -2 * math.Pi / float64(size)
		wRe, wIm := math.Cos(angle), math.Sin(angle)

		for start := 0; start < n; start += size {
			curRe, curIm := 1.0, 0.0
			for k := 0; k < half; k++ {
				a, b := start+k, start+k+half

				vRe := re[b]*curRe - im[b]*curIm
				vIm := re[b]*curIm + im[b]*curRe

				re[b], im[b] = re[a]-vRe, im[a]-vIm
				re[a], im[a] = re[a]+vRe, im[a]+vIm

				curRe, curIm = curRe*wRe-curIm*wIm, curRe*wIm+curIm*wRe
			}
		}
	}
}

// FFT provides Fast Fourier Transform functionality
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Transform computes the DFT of re + i·im in place, rejecting slices of
// different lengths
func (f *FFT) Transform(re, im []float64) error {
	if len(re) != len(im) {
		return ErrLengthMismatch
	}
	DFT(re, im)
	return nil
}

// Compute returns the spectrum of a real signal without touching the input
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	re := make([]float64, len(x))
	im := make([]float64, len(x))
	copy(re, x)
	DFT(re, im)

	out := make([]complex128, len(x))
	for i := range out {
		out[i] = complex(re[i], im[i])
	}
	return out
}

// DFT computes the DFT of re + i·im in place for any length.
// Power-of-two lengths run through Radix2; any other length goes through
// mjibson/go-dsp, which handles arbitrary sizes. len(im) must equal len(re).
func DFT(re, im []float64) {
	if len(re) <= 1 {
		return
	}

	if common.IsPowerOfTwo(len(re)) {
		Radix2(re, im)
		return
	}

	x := make([]complex128, len(re))
	for i := range x {
		x[i] = complex(re[i], im[i])
	}
	for i, v := range fft.FFT(x) {
		re[i], im[i] = real(v), imag(v)
	}
}
