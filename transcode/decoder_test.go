package transcode

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(t *testing.T, name string, sampleRate, numChannels int, data []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, numChannels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	return path
}

func TestDecodeFile_WAVStereo(t *testing.T) {
	// interleaved L R frames
	path := writeWAV(t, "stereo.wav", 22050, 2, []int{16384, -16384, 0, 32767, -32768, 8192})

	data, err := NewDecoder(nil).DecodeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}

	if data.SampleRate != 22050 || data.NumChannels() != 2 || data.Format != "wav" {
		t.Fatalf("decoded %d Hz, %d channels, format %q", data.SampleRate, data.NumChannels(), data.Format)
	}
	wantLeft := []float64{0.5, 0, -1}
	wantRight := []float64{-0.5, 32767.0 / 32768, 0.25}
	for i := range wantLeft {
		if math.Abs(data.Channels[0][i]-wantLeft[i]) > 1e-9 || math.Abs(data.Channels[1][i]-wantRight[i]) > 1e-9 {
			t.Errorf("frame %d = (%g, %g), want (%g, %g)", i, data.Channels[0][i], data.Channels[1][i], wantLeft[i], wantRight[i])
		}
	}
	if want := 3 * time.Second / 22050; data.Duration != want {
		t.Errorf("duration = %v, want %v", data.Duration, want)
	}
}

func TestDecodeFile_WAVKeepsTwoChannels(t *testing.T) {
	path := writeWAV(t, "surround.WAV", 8000, 3, []int{1, 2, 3, 4, 5, 6})

	data, err := NewDecoder(nil).DecodeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}

	if data.NumChannels() != 2 || len(data.Channels[0]) != 2 {
		t.Fatalf("got %d channels of %d frames, want 2 of 2", data.NumChannels(), len(data.Channels[0]))
	}
	if data.Channels[1][1] != 5.0/32768 {
		t.Errorf("right channel frame 1 = %g", data.Channels[1][1])
	}
}

func TestDecodeFile_WAVMaxDuration(t *testing.T) {
	samples := make([]int, 8000)
	path := writeWAV(t, "long.wav", 8000, 1, samples)

	cfg := DefaultDecoderConfig()
	cfg.MaxDuration = 250 * time.Millisecond

	data, err := NewDecoder(cfg).DecodeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if len(data.Channels[0]) != 2000 {
		t.Errorf("frames = %d, want 2000", len(data.Channels[0]))
	}
}

func TestDecodeFile_MissingFFprobe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mp3")
	if err := os.WriteFile(path, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultDecoderConfig()
	cfg.FFprobePath = filepath.Join(t.TempDir(), "no-such-ffprobe")

	if _, err := NewDecoder(cfg).DecodeFile(context.Background(), path); err == nil {
		t.Error("expected an error without ffprobe")
	}
}

func TestParseFFprobeOutput(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr error
		want    AudioMetadata
	}{
		{
			name: "mp3 stereo",
			json: `{"streams":[{"codec_type":"audio","codec_name":"mp3","sample_rate":"44100","channels":2,"duration":"12.5","bit_rate":"320000","codec_long_name":"MP3 (MPEG audio layer 3)"}]}`,
			want: AudioMetadata{SampleRate: 44100, Channels: 2, Codec: "mp3", Duration: 12.5, Bitrate: 320000, Format: "MP3 (MPEG audio layer 3)"},
		},
		{
			name: "missing duration and bitrate",
			json: `{"streams":[{"codec_type":"audio","codec_name":"flac","sample_rate":"48000","channels":1}]}`,
			want: AudioMetadata{SampleRate: 48000, Channels: 1, Codec: "flac"},
		},
		{
			name:    "no streams",
			json:    `{"streams":[]}`,
			wantErr: ErrNoAudioStream,
		},
		{
			name:    "video stream",
			json:    `{"streams":[{"codec_type":"video","sample_rate":"0","channels":0}]}`,
			wantErr: ErrNoAudioStream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFFprobeOutput([]byte(tt.json))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *got != tt.want {
				t.Errorf("got %+v, want %+v", *got, tt.want)
			}
		})
	}

	if _, err := parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"audio","sample_rate":"x","channels":2}]}`)); err == nil {
		t.Error("expected an error for a bad sample rate")
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	mono := DefaultDecoderConfig()
	mono.MaxChannels = 1
	limited := DefaultDecoderConfig()
	limited.MaxDuration = 90 * time.Second
	unlimited := DefaultDecoderConfig()
	unlimited.MaxChannels = 0

	tests := []struct {
		name     string
		cfg      *DecoderConfig
		metadata AudioMetadata
		want     []string
	}{
		{
			name:     "5.1 keeps front left and right",
			metadata: AudioMetadata{SampleRate: 48000, Channels: 6},
			want:     []string{"-f", "f64le", "-af", "pan=stereo|c0=c0|c1=c1", "-ar", "48000", "-v", "error"},
		},
		{
			name:     "stereo into mono keeps left",
			cfg:      mono,
			metadata: AudioMetadata{SampleRate: 44100, Channels: 2},
			want:     []string{"-f", "f64le", "-af", "pan=mono|c0=c0", "-ar", "44100", "-v", "error"},
		},
		{
			name:     "stereo passes through",
			metadata: AudioMetadata{SampleRate: 44100, Channels: 2},
			want:     []string{"-f", "f64le", "-ac", "2", "-ar", "44100", "-v", "error"},
		},
		{
			name:     "mono with duration limit",
			cfg:      limited,
			metadata: AudioMetadata{SampleRate: 22050, Channels: 1},
			want:     []string{"-f", "f64le", "-ac", "1", "-ar", "22050", "-t", "90.00", "-v", "error"},
		},
		{
			name:     "no channel cap",
			cfg:      unlimited,
			metadata: AudioMetadata{SampleRate: 48000, Channels: 6},
			want:     []string{"-f", "f64le", "-ac", "6", "-ar", "48000", "-v", "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := NewDecoder(tt.cfg).buildFFmpegArgs(&tt.metadata)
			if !slices.Equal(args, tt.want) {
				t.Errorf("args = %v, want %v", args, tt.want)
			}
		})
	}
}

func TestPanFilter(t *testing.T) {
	if got := panFilter(4); got != "pan=4c|c0=c0|c1=c1|c2=c2|c3=c3" {
		t.Errorf("panFilter(4) = %q", got)
	}
}

func TestUsesFFmpeg(t *testing.T) {
	d := NewDecoder(nil)
	if d.UsesFFmpeg("take.WAV") {
		t.Error(".WAV should decode natively")
	}
	if !d.UsesFFmpeg("take.mp3") {
		t.Error(".mp3 needs ffmpeg")
	}

	cfg := DefaultDecoderConfig()
	cfg.NativeWAV = false
	if !NewDecoder(cfg).UsesFFmpeg("take.wav") {
		t.Error("with native WAV off every file needs ffmpeg")
	}
}

func TestValidateConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-ffmpeg")

	tests := []struct {
		name   string
		modify func(*DecoderConfig)
	}{
		{"negative channels", func(c *DecoderConfig) { c.MaxChannels = -1 }},
		{"negative timeout", func(c *DecoderConfig) { c.Timeout = -time.Second }},
		{"missing ffmpeg", func(c *DecoderConfig) { c.FFmpegPath = missing }},
		{"missing ffprobe", func(c *DecoderConfig) {
			c.FFmpegPath = os.Args[0]
			c.FFprobePath = missing
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultDecoderConfig()
			tt.modify(cfg)
			if err := NewDecoder(cfg).ValidateConfig(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}

	// the test binary itself stands in for both tools
	cfg := DefaultDecoderConfig()
	cfg.FFmpegPath = os.Args[0]
	cfg.FFprobePath = os.Args[0]
	if err := NewDecoder(cfg).ValidateConfig(); err != nil {
		t.Errorf("ValidateConfig: %v", err)
	}
}

func TestBytesToFloat64(t *testing.T) {
	values := []float64{0.25, -1, 0.125}
	raw := make([]byte, 0, len(values)*8+3)
	for _, v := range values {
		raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(v))
	}
	raw = append(raw, 1, 2, 3) // partial trailing sample

	if got := bytesToFloat64(raw); !slices.Equal(got, values) {
		t.Errorf("bytesToFloat64 = %v, want %v", got, values)
	}
	if bytesToFloat64([]byte{1, 2}) != nil {
		t.Error("short input should decode to nil")
	}
}
