package transcode

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrInvalidWAV = errors.New("transcode: invalid WAV file")

// wavFormatFloat is the WAVE_FORMAT_IEEE_FLOAT tag; those files go through ffmpeg
const wavFormatFloat = 3

// decodeWAV reads integer PCM WAV files in-process
func (d *Decoder) decodeWAV(filename string) (*AudioData, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	if decoder.WavAudioFormat == wavFormatFloat {
		return nil, fmt.Errorf("%w: float samples", ErrInvalidWAV)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("could not read PCM buffer: %w", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: missing format", ErrInvalidWAV)
	}

	channels := intBufferToPlanar(buf, d.outputChannels(buf.Format.NumChannels))
	if len(channels) == 0 || len(channels[0]) == 0 {
		return nil, ErrNoSamples
	}

	frames := len(channels[0])
	if d.config.MaxDuration > 0 {
		limit := int(d.config.MaxDuration.Seconds() * float64(buf.Format.SampleRate))
		if limit > 0 && frames > limit {
			for ch := range channels {
				channels[ch] = channels[ch][:limit]
			}
			frames = limit
		}
	}

	return &AudioData{
		Channels:   channels,
		SampleRate: buf.Format.SampleRate,
		Duration:   time.Duration(frames) * time.Second / time.Duration(buf.Format.SampleRate),
		Format:     "wav",
	}, nil
}

// intBufferToPlanar scales interleaved integer PCM to [-1, 1] and keeps the
// first keep channels
func intBufferToPlanar(buf *audio.IntBuffer, keep int) [][]float64 {
	numChannels := buf.Format.NumChannels
	keep = min(keep, numChannels)
	frames := len(buf.Data) / numChannels

	// 8-bit WAV is unsigned, centred on 128
	offset := 0
	if buf.SourceBitDepth == 8 {
		offset = 128
	}
	scale := fullScale(buf.SourceBitDepth)

	channels := make([][]float64, keep)
	for ch := range channels {
		channels[ch] = make([]float64, frames)
	}
	for i := range frames {
		for ch := range keep {
			channels[ch][i] = float64(buf.Data[i*numChannels+ch]-offset) / scale
		}
	}
	return channels
}

func fullScale(bitDepth int) float64 {
	switch bitDepth {
	case 8:
		return 128.0
	case 16:
		return 32768.0
	case 24:
		return 8388608.0
	case 32:
		return 2147483648.0
	default:
		return 32768.0
	}
}
