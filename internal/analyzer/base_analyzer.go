package analyzer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"

	"github.com/threaddump-analysis/internal/advisor"
	"github.com/threaddump-analysis/internal/parser"
	"github.com/threaddump-analysis/internal/parser/threaddump"
	"github.com/threaddump-analysis/internal/statistics"
	"github.com/threaddump-analysis/pkg/model"
	"github.com/threaddump-analysis/pkg/telemetry"
	"github.com/threaddump-analysis/pkg/utils"
	"github.com/threaddump-analysis/pkg/writer"
)

// Output file names written into the task directory.
const (
	SummaryFileName = "summary.json"
	ThreadsFileName = "threads.json.gz"
)

// BaseAnalyzerConfig holds configuration for the base analyzer.
type BaseAnalyzerConfig struct {
	// OutputDir is the parent directory of per-task output directories.
	// Empty means os.TempDir().
	OutputDir string

	// MaxThreads stops parsing after this many threads. 0 means no limit.
	MaxThreads int

	// StrictMode fails parsing when a non-empty dump has no thread header.
	StrictMode bool

	// Parser replaces the thread dump parser built from MaxThreads and
	// StrictMode.
	Parser parser.Parser

	// Logger is used for debug logging. If nil, debug logs are suppressed.
	Logger utils.Logger

	// Verbose logs per-stage timings.
	Verbose bool
}

// DefaultBaseAnalyzerConfig returns default configuration.
func DefaultBaseAnalyzerConfig() *BaseAnalyzerConfig {
	return &BaseAnalyzerConfig{}
}

// Outcome is the in-memory result of one analysis run.
type Outcome struct {
	Parse       *model.ParseResult
	Summary     *model.Summary
	Suggestions []model.Suggestion
	Timings     map[string]int64
}

// BaseAnalyzer provides the parse, summarize and advise pipeline shared by analyzers.
type BaseAnalyzer struct {
	config  *BaseAnalyzerConfig
	parser  parser.Parser
	advisor *advisor.Advisor
}

// NewBaseAnalyzer creates a new base analyzer.
func NewBaseAnalyzer(config *BaseAnalyzerConfig) *BaseAnalyzer {
	if config == nil {
		config = DefaultBaseAnalyzerConfig()
	}

	p := config.Parser
	if p == nil {
		p = threaddump.NewParser(&threaddump.ParserOptions{
			MaxThreads: config.MaxThreads,
			StrictMode: config.StrictMode,
		})
	}

	return &BaseAnalyzer{
		config:  config,
		parser:  p,
		advisor: advisor.NewAdvisor(),
	}
}

// Config returns the analyzer configuration.
func (a *BaseAnalyzer) Config() *BaseAnalyzerConfig {
	return a.config
}

func (a *BaseAnalyzer) logger() utils.Logger {
	if a.config.Logger == nil {
		return &utils.NullLogger{}
	}
	return a.config.Logger
}

// Parse parses the input data.
func (a *BaseAnalyzer) Parse(ctx context.Context, reader io.Reader) (*model.ParseResult, error) {
	return a.parser.Parse(ctx, reader)
}

// Summarize aggregates parsed threads into a summary.
func (a *BaseAnalyzer) Summarize(threads []*model.ThreadRecord) *model.Summary {
	return statistics.Summarize(threads)
}

// Advise runs the advisor rules over summary.
func (a *BaseAnalyzer) Advise(summary *model.Summary) []model.Suggestion {
	return a.advisor.Advise(advisor.NewRuleContext(summary))
}

// Run parses, summarizes and advises. A dump without threads is not an
// error here; callers decide how to treat an empty summary.
func (a *BaseAnalyzer) Run(ctx context.Context, reader io.Reader) (*Outcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "analyzer.Run")
	var runErr error
	defer func() { telemetry.EndSpan(span, runErr) }()

	timer := utils.NewTimer("analyze")
	out := &Outcome{}

	runErr = timer.Time("parse", func() error {
		parsed, err := a.Parse(ctx, reader)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrParseError, err)
		}
		out.Parse = parsed
		return nil
	})
	if runErr != nil {
		return nil, runErr
	}

	_ = timer.Time("summarize", func() error {
		out.Summary = a.Summarize(out.Parse.Threads)
		return nil
	})
	_ = timer.Time("advise", func() error {
		out.Suggestions = a.Advise(out.Summary)
		return nil
	})

	out.Timings = timer.ToMap()
	span.SetAttributes(
		attribute.Int("threads", out.Summary.TotalThreads),
		attribute.Int("dropped_blocks", out.Parse.DroppedBlocks),
		attribute.Int("deadlock_cycles", len(out.Summary.DeadlockCycles)),
	)
	if a.config.Verbose {
		timer.Log(a.logger())
	}
	return out, nil
}

// WriteSummaryJSON writes summary as pretty JSON.
func (a *BaseAnalyzer) WriteSummaryJSON(summary *model.Summary, outputPath string) error {
	return writer.NewPrettyJSONWriter[*model.Summary]().WriteToFile(summary, outputPath)
}

// WriteThreadsGzip writes the ordered thread records as gzipped JSON.
func (a *BaseAnalyzer) WriteThreadsGzip(threads []*model.ThreadRecord, outputPath string) (*writer.WriteResult, error) {
	return writer.NewGzipWriter[[]*model.ThreadRecord]().WriteToFileWithStats(threads, outputPath)
}

// EnsureOutputDir ensures the output directory exists.
func (a *BaseAnalyzer) EnsureOutputDir(taskUUID string) (string, error) {
	outputDir := a.config.OutputDir
	if outputDir == "" {
		outputDir = os.TempDir()
	}

	taskDir := filepath.Join(outputDir, taskUUID)
	if err := os.MkdirAll(taskDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	return taskDir, nil
}

// CleanupOutputDir removes the output directory.
func (a *BaseAnalyzer) CleanupOutputDir(taskDir string) error {
	return os.RemoveAll(taskDir)
}
