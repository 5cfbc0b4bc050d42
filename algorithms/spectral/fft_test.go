package spectral

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/dsp/fourier"
)

func naiveDFT(x []complex128) []complex128 {
	n := len(x)
	out := make([]complex128, n)
	for k := 0; k < n; k++ {
		var sum complex128
		for t := 0; t < n; t++ {
			angle := -2 * math.Pi * float64(k*t) / float64(n)
			sum += x[t] * cmplx.Exp(complex(0, angle))
		}
		out[k] = sum
	}
	return out
}

func TestRadix2_BinAlignedSinePeak(t *testing.T) {
	const (
		n   = 8192
		bin = 100
	)
	re := make([]float64, n)
	im := make([]float64, n)
	for i := range re {
		re[i] = math.Sin(2 * math.Pi * bin * float64(i) / n)
	}

	Radix2(re, im)

	ps := NewPowerSpectrum()
	power := ps.Compute(re, im)
	peak := 0
	for i := 1; i < len(power); i++ {
		if power[i] > power[peak] {
			peak = i
		}
	}
	if peak < bin-1 || peak > bin+1 {
		t.Fatalf("peak at bin %d, want %d±1", peak, bin)
	}

	// A bin-aligned sine of unit amplitude has |X[bin]| = N/2.
	if got := math.Sqrt(power[bin]); math.Abs(got-n/2) > 1e-6*n {
		t.Errorf("|X[%d]| = %g, want %d", bin, got, n/2)
	}
	for i, p := range power {
		if i >= bin-1 && i <= bin+1 {
			continue
		}
		if p > 1e-9*power[bin] {
			t.Fatalf("bin %d has power %g, expected near zero", i, p)
		}
	}
}

func TestRadix2_MatchesGonum(t *testing.T) {
	const n = 1024
	rng := rand.New(rand.NewSource(7))
	x := make([]float64, n)
	for i := range x {
		x[i] = rng.Float64()*2 - 1
	}

	re := append([]float64(nil), x...)
	im := make([]float64, n)
	Radix2(re, im)

	want := fourier.NewFFT(n).Coefficients(nil, x)
	for k, w := range want {
		got := complex(re[k], im[k])
		if cmplx.Abs(got-w) > 1e-8 {
			t.Fatalf("bin %d: got %v, want %v", k, got, w)
		}
	}
}

func TestRadix2_SmallSizes(t *testing.T) {
	re, im := []float64{3}, []float64{-2}
	Radix2(re, im)
	if re[0] != 3 || im[0] != -2 {
		t.Errorf("N=1 should be a no-op, got %v %v", re, im)
	}

	re, im = []float64{1, 2}, []float64{0, 0}
	Radix2(re, im)
	if re[0] != 3 || re[1] != -1 || im[0] != 0 || im[1] != 0 {
		t.Errorf("N=2: got re=%v im=%v", re, im)
	}
}

func TestTransform_NonPowerOfTwo(t *testing.T) {
	x := []complex128{1, 2 - 1i, 0.5, -3, 4i, 2, 1, 0, -1, 0.25, 7, -2}
	re := make([]float64, len(x))
	im := make([]float64, len(x))
	for i, v := range x {
		re[i], im[i] = real(v), imag(v)
	}

	if err := NewFFT().Transform(re, im); err != nil {
		t.Fatal(err)
	}

	for k, w := range naiveDFT(x) {
		if got := complex(re[k], im[k]); cmplx.Abs(got-w) > 1e-9 {
			t.Errorf("bin %d: got %v, want %v", k, got, w)
		}
	}
}

func TestDFT_MatchesNaive(t *testing.T) {
	for _, n := range []int{8, 12, 15, 16} {
		x := make([]complex128, n)
		re := make([]float64, n)
		im := make([]float64, n)
		for i := range x {
			x[i] = complex(math.Sin(float64(i)*0.7), math.Cos(float64(i)*1.3))
			re[i], im[i] = real(x[i]), imag(x[i])
		}

		DFT(re, im)

		for k, w := range naiveDFT(x) {
			if got := complex(re[k], im[k]); cmplx.Abs(got-w) > 1e-9 {
				t.Errorf("N=%d bin %d: got %v, want %v", n, k, got, w)
			}
		}
	}
}

func TestTransform_LengthMismatch(t *testing.T) {
	err := NewFFT().Transform(make([]float64, 4), make([]float64, 3))
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestCompute_LeavesInputAlone(t *testing.T) {
	x := []float64{1, 0, -1, 0, 1, 0, -1, 0}
	orig := append([]float64(nil), x...)

	spectrum := NewFFT().Compute(x)

	for i := range x {
		if x[i] != orig[i] {
			t.Fatalf("input mutated at %d", i)
		}
	}
	// period-4 cosine lands in bins 2 and 6
	if cmplx.Abs(spectrum[2]) < 3.99 || cmplx.Abs(spectrum[6]) < 3.99 || cmplx.Abs(spectrum[1]) > 1e-12 {
		t.Errorf("unexpected spectrum %v", spectrum)
	}
}

func TestBinFrequency(t *testing.T) {
	if got := BinFrequency(100, 44100, 8192); math.Abs(got-538.330078125) > 1e-9 {
		t.Errorf("BinFrequency = %g", got)
	}
}
