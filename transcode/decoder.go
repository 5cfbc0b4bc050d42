package transcode

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-analyzer/algorithms/common"
	"github.com/RyanBlaney/sonido-analyzer/logging"
)

var (
	ErrNoAudioStream = errors.New("transcode: no audio stream found")
	ErrNoSamples     = errors.New("transcode: no audio samples decoded")
)

// AudioData is decoded planar PCM in [-1, 1]
type AudioData struct {
	Channels   [][]float64   `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Duration   time.Duration `json:"duration"`
	Format     string        `json:"format"` // "wav" for native decodes, otherwise the ffprobe codec name
}

// NumChannels returns the number of decoded channels
func (a *AudioData) NumChannels() int {
	return len(a.Channels)
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	MaxChannels int           `json:"max_channels"` // channels kept; analysis only reads two
	MaxDuration time.Duration `json:"max_duration"` // 0 decodes everything
	NativeWAV   bool          `json:"native_wav"`   // decode .wav in-process instead of through ffmpeg
	FFmpegPath  string        `json:"ffmpeg_path"`  // Path to ffmpeg binary
	FFprobePath string        `json:"ffprobe_path"` // Path to ffprobe binary
	Timeout     time.Duration `json:"timeout"`      // Timeout for each ffmpeg/ffprobe run
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		MaxChannels: 2,
		MaxDuration: 0, // No limit
		NativeWAV:   true,
		FFmpegPath:  "ffmpeg",  // Assume in PATH
		FFprobePath: "ffprobe", // Assume in PATH
		Timeout:     60 * time.Second,
	}
}

// Decoder turns audio files into planar float64 PCM at their native sample rate
type Decoder struct {
	config *DecoderConfig
}

// AudioMetadata holds detected audio properties from FFprobe
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
	Format     string  `json:"format"`
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// DecodeFile decodes an audio file. WAV files are read natively when enabled,
// falling back to ffmpeg for encodings the native reader rejects.
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeFile",
		"filename":  filename,
	})

	logger.Debug("Starting audio file decode")

	if !d.UsesFFmpeg(filename) {
		data, err := d.decodeWAV(filename)
		if err == nil {
			logger.Debug("WAV decoded natively", logging.Fields{
				"sample_rate": data.SampleRate,
				"channels":    data.NumChannels(),
				"duration":    data.Duration.Seconds(),
			})
			return data, nil
		}
		logger.Debug("Native WAV decode failed, trying ffmpeg", logging.Fields{
			"error": err.Error(),
		})
	}

	metadata, err := d.ProbeFile(ctx, filename)
	if err != nil {
		logger.Error(err, "Failed to probe audio file")
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
		"input_bitrate":     metadata.Bitrate,
	})

	return d.decodeFileWithFFmpeg(ctx, filename, metadata, logger)
}

// ProbeFile uses ffprobe to read the first audio stream's properties
func (d *Decoder) ProbeFile(ctx context.Context, filename string) (*AudioMetadata, error) {
	args := []string{
		"-v", "quiet", // Suppress verbose output
		"-print_format", "json", // JSON output
		"-show_streams",          // Show stream info
		"-select_streams", "a:0", // First audio stream only
		filename,
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	output, err := exec.CommandContext(ctx, d.config.FFprobePath, args...).Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseFFprobeOutput(output)
}

// parseFFprobeOutput parses ffprobe JSON to extract audio metadata
func parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType     string `json:"codec_type"`
			CodecName     string `json:"codec_name"`
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			Duration      string `json:"duration"`
			BitRate       string `json:"bit_rate"`
			CodecLongName string `json:"codec_long_name"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, ErrNoAudioStream
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("%w: stream is %s", ErrNoAudioStream, stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %q", stream.SampleRate)
	}

	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}

	bitrate, err := strconv.Atoi(stream.BitRate)
	if err != nil {
		bitrate = 0
	}

	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
		Format:     stream.CodecLongName,
	}, nil
}

// decodeFileWithFFmpeg decodes to interleaved f64le at the native rate
func (d *Decoder) decodeFileWithFFmpeg(ctx context.Context, filename string, metadata *AudioMetadata, logger logging.Logger) (*AudioData, error) {
	channels := d.outputChannels(metadata.Channels)

	args := append([]string{"-i", filename}, d.buildFFmpegArgs(metadata)...)
	args = append(args, "pipe:1") // Output to stdout

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	logger.Debug("Running ffmpeg command", logging.Fields{
		"args": strings.Join(args, " "),
	})

	output, err := exec.CommandContext(ctx, d.config.FFmpegPath, args...).Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			logger.Error(err, "Ffmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	samples := bytesToFloat64(output)
	if len(samples) < channels {
		return nil, ErrNoSamples
	}

	planar := common.Deinterleave(samples, channels)
	frames := len(planar[0])
	duration := time.Duration(frames) * time.Second / time.Duration(metadata.SampleRate)

	logger.Debug("FFmpeg decode completed successfully", logging.Fields{
		"output_frames":   frames,
		"output_channels": channels,
		"output_duration": duration.Seconds(),
	})

	return &AudioData{
		Channels:   planar,
		SampleRate: metadata.SampleRate,
		Duration:   duration,
		Format:     metadata.Codec,
	}, nil
}

// buildFFmpegArgs builds the output arguments: raw float64, native rate, at
// most MaxChannels channels. Surplus channels are dropped with a pan map
// rather than downmixed, matching the native WAV path.
func (d *Decoder) buildFFmpegArgs(metadata *AudioMetadata) []string {
	channels := d.outputChannels(metadata.Channels)
	args := []string{"-f", "f64le"} // Output raw float64 little-endian

	if metadata.Channels > channels {
		args = append(args, "-af", panFilter(channels))
	} else {
		args = append(args, "-ac", strconv.Itoa(channels))
	}
	args = append(args, "-ar", strconv.Itoa(metadata.SampleRate))

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.2f", d.config.MaxDuration.Seconds()))
	}

	// Suppress ffmpeg output
	args = append(args, "-v", "error")

	return args
}

// panFilter keeps input channels 0..n-1 as they are
func panFilter(n int) string {
	var layout string
	switch n {
	case 1:
		layout = "mono"
	case 2:
		layout = "stereo"
	default:
		layout = strconv.Itoa(n) + "c"
	}

	var b strings.Builder
	b.WriteString("pan=" + layout)
	for i := range n {
		fmt.Fprintf(&b, "|c%d=c%d", i, i)
	}
	return b.String()
}

func (d *Decoder) outputChannels(input int) int {
	if d.config.MaxChannels > 0 && input > d.config.MaxChannels {
		return d.config.MaxChannels
	}
	return max(1, input)
}

func (d *Decoder) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.config.Timeout > 0 {
		return context.WithTimeout(ctx, d.config.Timeout)
	}
	return context.WithCancel(ctx)
}

// bytesToFloat64 converts raw float64 bytes to []float64
func bytesToFloat64(data []byte) []float64 {
	if len(data)%8 != 0 {
		// Trim to multiple of 8 bytes
		data = data[:len(data)-(len(data)%8)]
	}

	if len(data) == 0 {
		return nil
	}

	sampleCount := len(data) / 8
	samples := make([]float64, sampleCount)

	for i := range sampleCount {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}

// UsesFFmpeg reports whether DecodeFile starts with ffmpeg for filename.
// Native WAV decodes can still fall back to ffmpeg for unsupported encodings.
func (d *Decoder) UsesFFmpeg(filename string) bool {
	return !d.config.NativeWAV || !strings.EqualFold(filepath.Ext(filename), ".wav")
}

// ValidateConfig validates the decoder configuration and that both ffmpeg
// binaries resolve
func (d *Decoder) ValidateConfig() error {
	if d.config.MaxChannels < 0 {
		return fmt.Errorf("max channels must not be negative: %d", d.config.MaxChannels)
	}

	if d.config.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %v", d.config.Timeout)
	}

	if err := d.checkFFmpegAvailability(); err != nil {
		return fmt.Errorf("ffmpeg not available: %w", err)
	}

	return nil
}

// checkFFmpegAvailability checks if ffmpeg and ffprobe are available
func (d *Decoder) checkFFmpegAvailability() error {
	if _, err := exec.LookPath(d.config.FFmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", d.config.FFmpegPath, err)
	}

	if _, err := exec.LookPath(d.config.FFprobePath); err != nil {
		return fmt.Errorf("ffprobe not found at %s: %w", d.config.FFprobePath, err)
	}

	return nil
}
