package common

// Downmix collapses a planar multi-channel signal to mono.
//
// A single channel is returned as is, sharing its backing array. With two or
// more channels each output sample is the mean of the first two channels at
// that index; further channels are ignored. The output has the length of the
// first channel, and a shorter second channel reads as silence past its end.
func Downmix(channels [][]float64) []float64 {
	switch len(channels) {
	case 0:
		return nil
	case 1:
		return channels[0]
	}

	left, right := channels[0], channels[1]
	mono := make([]float64, len(left))
	for i := range left {
		r := 0.0
		if i < len(right) {
			r = right[i]
		}
		mono[i] = (left[i] + r) / 2
	}
	return mono
}

// Deinterleave splits interleaved frames (L R L R ...) into planar channels.
// A trailing partial frame is dropped.
func Deinterleave(samples []float64, numChannels int) [][]float64 {
	if numChannels <= 0 {
		return nil
	}

	frames := len(samples) / numChannels
	channels := make([][]float64, numChannels)
	for ch := range channels {
		channels[ch] = make([]float64, frames)
	}

	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChannels; ch++ {
			channels[ch][i] = samples[i*numChannels+ch]
		}
	}
	return channels
}
