package analysis

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-analyzer/algorithms/chroma"
	"github.com/RyanBlaney/sonido-analyzer/algorithms/temporal"
	"github.com/RyanBlaney/sonido-analyzer/algorithms/tonal"
	"github.com/RyanBlaney/sonido-analyzer/config"
	"github.com/RyanBlaney/sonido-analyzer/logging"
)

// Result is the musical summary of a buffer
type Result struct {
	BPM     int    `json:"bpm"`
	Key     string `json:"key"`     // tonic, sharps only, e.g. "F#"
	Scale   string `json:"scale"`   // "major" or "minor"
	KeyFull string `json:"keyFull"` // Key + " " + Scale
}

// Report is a Result with the intermediate estimates behind it
type Report struct {
	Result
	Duration float64               `json:"duration"`
	Tempo    temporal.TempoEstimate `json:"tempo"`
	Tonality tonal.KeyEstimate      `json:"tonality"`
	Chroma   chroma.Chromagram      `json:"chroma"`
}

// Analyzer runs tempo and key estimation over audio buffers.
// It holds no per-call state and is safe for concurrent use.
type Analyzer struct {
	config config.AnalysisConfig
	tempo  *temporal.TempoEstimation
	chroma *chroma.ChromaSTFT
	key    *tonal.KeyEstimator
	logger logging.Logger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithLogger sets the logger used for debug output
func WithLogger(logger logging.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an analyzer from cfg. The config is assumed valid; see config.Load.
func New(cfg config.AnalysisConfig, opts ...Option) *Analyzer {
	a := &Analyzer{
		config: cfg,
		tempo:  temporal.NewTempoEstimationWithConfig(cfg.Tempo),
		chroma: chroma.NewChromaSTFTWithConfig(cfg.Key),
		key:    tonal.NewKeyEstimator(),
		logger: logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.WithFields(logging.Fields{"component": "analyzer"})
	return a
}

// NewDefault creates an analyzer with the default configuration
func NewDefault(opts ...Option) *Analyzer {
	return New(config.DefaultAnalysisConfig(), opts...)
}

// Analyze estimates BPM and key. It never fails: too little signal yields the
// fallback tempo and silence yields C major. The buffer is not modified.
func (a *Analyzer) Analyze(buf Buffer) Result {
	return a.AnalyzeDetailed(buf).Result
}

// AnalyzeDetailed is Analyze plus the tempo estimate, ranked key candidates
// and normalized chromagram
func (a *Analyzer) AnalyzeDetailed(buf Buffer) Report {
	mono := buf.Mono()

	tempo := a.tempo.Estimate(mono, buf.SampleRate)
	if tempo.Fallback {
		a.logger.Debug("Not enough onset frames, using fallback tempo", logging.Fields{
			"function": "AnalyzeDetailed",
			"samples":  len(mono),
			"frames":   tempo.Frames,
			"bpm":      tempo.BPM,
		})
	}

	chromagram := a.chroma.ComputeNormalized(mono, buf.SampleRate)
	if chromagram.Sum() == 0 {
		a.logger.Debug("No pitched energy in band, key defaults to C major", logging.Fields{
			"function": "AnalyzeDetailed",
			"samples":  len(mono),
		})
	}
	key := a.key.EstimateKey(chromagram)

	return Report{
		Result: Result{
			BPM:     tempo.BPM,
			Key:     key.Key,
			Scale:   string(key.Scale),
			KeyFull: key.Name(),
		},
		Duration: buf.Duration(),
		Tempo:    tempo,
		Tonality: key,
		Chroma:   chromagram,
	}
}

// AnalyzeAll analyzes bufs concurrently, at most config.Workers at a time,
// returning results in input order. The first invalid buffer or a cancelled
// context aborts the batch.
func (a *Analyzer) AnalyzeAll(ctx context.Context, bufs []Buffer) ([]Result, error) {
	results := make([]Result, len(bufs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, a.config.Workers))

	for i, buf := range bufs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := buf.Validate(); err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			results[i] = a.Analyze(buf)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.logger.Debug("Batch analysis completed", logging.Fields{
		"function": "AnalyzeAll",
		"buffers":  len(bufs),
		"workers":  a.config.Workers,
	})
	return results, nil
}
