package spectral

// PowerSpectrum turns an in-place FFT result into per-bin power
type PowerSpectrum struct{}

// NewPowerSpectrum creates a new power spectrum calculator
func NewPowerSpectrum() *PowerSpectrum {
	return &PowerSpectrum{}
}

// Bin returns re²+im² for one bin
func (ps *PowerSpectrum) Bin(re, im []float64, bin int) float64 {
	return re[bin]*re[bin] + im[bin]*im[bin]
}

// Compute returns the power of the positive-frequency half, bins 0..N/2
func (ps *PowerSpectrum) Compute(re, im []float64) []float64 {
	if len(re) == 0 || len(re) != len(im) {
		return []float64{}
	}

	power := make([]float64, len(re)/2+1)
	for i := range power {
		power[i] = ps.Bin(re, im, i)
	}
	return power
}

// BinFrequency returns the centre frequency of bin for an fftSize-point transform
func BinFrequency(bin, sampleRate, fftSize int) float64 {
	return float64(bin) * float64(sampleRate) / float64(fftSize)
}
