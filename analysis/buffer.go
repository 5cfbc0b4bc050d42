package analysis

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-analyzer/algorithms/common"
)

var (
	ErrEmptyBuffer   = errors.New("analysis: buffer has no samples")
	ErrNoChannels    = errors.New("analysis: buffer has no channels")
	ErrChannelLength = errors.New("analysis: channels differ in length")
	ErrSampleRate    = errors.New("analysis: sample rate must be positive")
)

// Buffer is planar PCM audio: one slice per channel, samples nominally in [-1, 1].
// Only the first two channels are used; a mono buffer has one.
type Buffer struct {
	Channels   [][]float64
	SampleRate int
}

// Validate reports why a buffer cannot be analyzed meaningfully
func (b Buffer) Validate() error {
	if len(b.Channels) == 0 {
		return ErrNoChannels
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrSampleRate, b.SampleRate)
	}
	n := len(b.Channels[0])
	for i, ch := range b.Channels[1:] {
		if len(ch) != n {
			return fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d", ErrChannelLength, i+1, len(ch), n)
		}
	}
	if n == 0 {
		return ErrEmptyBuffer
	}
	return nil
}

// Len returns the number of samples per channel
func (b Buffer) Len() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the buffer length in seconds
func (b Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Len()) / float64(b.SampleRate)
}

// Mono returns the downmixed signal. A mono buffer's channel is returned as is.
func (b Buffer) Mono() []float64 {
	return common.Downmix(b.Channels)
}
