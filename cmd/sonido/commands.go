package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-analyzer/analysis"
	"github.com/RyanBlaney/sonido-analyzer/config"
	"github.com/RyanBlaney/sonido-analyzer/logging"
	"github.com/RyanBlaney/sonido-analyzer/transcode"
)

var errDecodeFailed = errors.New("one or more files could not be decoded")

type analyzeOptions struct {
	configPath string
	logLevel   string
	noColor    bool
	jsonOutput bool
	verbose    bool
	workers    int
	ffmpeg     string
	ffprobe    string
}

// fileResult is the outcome for one input file
type fileResult struct {
	Path   string
	Report analysis.Report
	Err    error
}

func newRootCmd() *cobra.Command {
	opts := &analyzeOptions{}

	root := &cobra.Command{
		Use:           "sonido",
		Short:         "Estimate tempo and musical key of audio files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "JSON analysis config overlaid on the defaults")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output (also set by NO_COLOR)")

	root.AddCommand(newAnalyzeCmd(opts), newVersionCmd())
	return root
}

func newAnalyzeCmd(opts *analyzeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Print BPM and key for each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "include tempo details, key candidates and chroma")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "files analyzed in parallel (default from config, then NumCPU)")
	flags.StringVar(&opts.ffmpeg, "ffmpeg", "ffmpeg", "path to the ffmpeg binary")
	flags.StringVar(&opts.ffprobe, "ffprobe", "ffprobe", "path to the ffprobe binary")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sonido %s\n", version)
		},
	}
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions, files []string) error {
	level, ok := logging.ParseLevel(opts.logLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", opts.logLevel)
	}
	logger := newLogger(opts.noColor || os.Getenv("NO_COLOR") != "")
	logger.SetLevel(level)
	logging.SetGlobalLogger(logger)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		logging.Error(err, "Failed to load config", logging.Fields{"path": opts.configPath})
		return err
	}
	if cmd.Flags().Changed("workers") {
		if opts.workers <= 0 {
			return fmt.Errorf("--workers must be positive, got %d", opts.workers)
		}
		cfg.Workers = opts.workers
	}

	decoderConfig := transcode.DefaultDecoderConfig()
	decoderConfig.FFmpegPath = opts.ffmpeg
	decoderConfig.FFprobePath = opts.ffprobe

	decoder := transcode.NewDecoder(decoderConfig)
	if slices.ContainsFunc(files, decoder.UsesFFmpeg) {
		if err := decoder.ValidateConfig(); err != nil {
			logging.Error(err, "Decoder unavailable")
			return err
		}
	}

	results := analyzeFiles(cmd, cfg, decoder, files)

	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		if err := writeJSON(out, results, opts.verbose); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			fmt.Fprintln(out, renderResult(r, opts.verbose))
		}
	}

	for _, r := range results {
		if r.Err != nil {
			return errDecodeFailed
		}
	}
	return nil
}

// newLogger drops ANSI colors from both log lines and rendered results when noColor is set
func newLogger(noColor bool) *logging.DefaultLogger {
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
		return logging.NewDefaultLoggerNoColor()
	}
	return logging.NewDefaultLogger()
}

// analyzeFiles decodes and analyzes files concurrently. Decode failures are
// recorded per file and never stop the batch.
func analyzeFiles(cmd *cobra.Command, cfg config.AnalysisConfig, decoder *transcode.Decoder, files []string) []fileResult {
	ctx := cmd.Context()
	analyzer := analysis.New(cfg)
	results := make([]fileResult, len(files))

	var progress *mpb.Progress
	var bar *mpb.Bar
	if len(files) > 1 && isatty.IsTerminal(os.Stderr.Fd()) {
		progress = mpb.NewWithContext(ctx, mpb.WithOutput(cmd.ErrOrStderr()), mpb.WithWidth(48))
		bar = progress.AddBar(int64(len(files)),
			mpb.PrependDecorators(
				decor.Name("Analyzing: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.EwmaETA(decor.ET_STYLE_GO, 30),
			),
		)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, cfg.Workers))
	for i, path := range files {
		g.Go(func() error {
			results[i] = fileResult{Path: path}
			defer func() {
				if bar != nil {
					bar.Increment()
				}
			}()

			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}

			data, err := decoder.DecodeFile(gctx, path)
			if err != nil {
				logging.Error(err, "Failed to decode file", logging.Fields{"file": path})
				results[i].Err = err
				return nil
			}

			results[i].Report = analyzer.AnalyzeDetailed(analysis.Buffer{
				Channels:   data.Channels,
				SampleRate: data.SampleRate,
			})
			return nil
		})
	}
	_ = g.Wait()

	if progress != nil {
		progress.Wait()
	}
	return results
}

type jsonResult struct {
	File string `json:"file"`
	analysis.Result
	Error   string           `json:"error,omitempty"`
	Details *analysis.Report `json:"details,omitempty"`
}

func writeJSON(w io.Writer, results []fileResult, verbose bool) error {
	entries := make([]jsonResult, len(results))
	for i, r := range results {
		entries[i] = jsonResult{File: r.Path}
		if r.Err != nil {
			entries[i].Error = r.Err.Error()
			continue
		}
		entries[i].Result = r.Report.Result
		if verbose {
			entries[i].Details = &results[i].Report
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
