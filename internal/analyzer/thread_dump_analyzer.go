package analyzer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/threaddump-analysis/pkg/model"
)

// ThreadDumpAnalyzer analyzes Java thread dumps.
type ThreadDumpAnalyzer struct {
	*BaseAnalyzer
}

// NewThreadDumpAnalyzer creates a new thread dump analyzer.
func NewThreadDumpAnalyzer(config *BaseAnalyzerConfig) *ThreadDumpAnalyzer {
	return &ThreadDumpAnalyzer{
		BaseAnalyzer: NewBaseAnalyzer(config),
	}
}

// Name returns the analyzer name.
func (a *ThreadDumpAnalyzer) Name() string {
	return "thread_dump_analyzer"
}

// SupportedTypes returns the task types supported by this analyzer.
func (a *ThreadDumpAnalyzer) SupportedTypes() []model.TaskType {
	return []model.TaskType{model.TaskTypeThreadDump}
}

// Analyze analyzes the dump stored in req.InputFile.
func (a *ThreadDumpAnalyzer) Analyze(ctx context.Context, req *model.AnalysisRequest) (*model.AnalysisResponse, error) {
	file, err := os.Open(req.InputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return a.AnalyzeFromReader(ctx, req, file)
}

// AnalyzeFromReader analyzes a dump and writes summary.json and
// threads.json.gz into the task output directory.
func (a *ThreadDumpAnalyzer) AnalyzeFromReader(ctx context.Context, req *model.AnalysisRequest, dataReader io.Reader) (*model.AnalysisResponse, error) {
	log := a.logger().WithField("task", req.TaskUUID)

	outcome, err := a.Run(ctx, dataReader)
	if err != nil {
		return nil, err
	}
	if outcome.Summary.TotalThreads == 0 {
		return nil, fmt.Errorf("%w: %d blocks dropped", ErrEmptyData, outcome.Parse.DroppedBlocks)
	}
	if outcome.Parse.Truncated {
		log.Warn("thread limit %d reached, remaining threads ignored", a.config.MaxThreads)
	}

	taskDir := req.OutputDir
	if taskDir == "" {
		taskDir, err = a.EnsureOutputDir(req.TaskUUID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOutputFailed, err)
		}
	}

	summaryFile := filepath.Join(taskDir, SummaryFileName)
	if err := a.WriteSummaryJSON(outcome.Summary, summaryFile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputFailed, err)
	}

	threadsFile := filepath.Join(taskDir, ThreadsFileName)
	stats, err := a.WriteThreadsGzip(outcome.Summary.Threads, threadsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputFailed, err)
	}
	log.Debug("wrote %s (%d bytes, %.1f%% of json)", threadsFile, stats.CompressedSize, stats.CompressionPct)

	suggestions := make([]model.SuggestionItem, 0, len(outcome.Suggestions))
	for i := range outcome.Suggestions {
		suggestions = append(suggestions, outcome.Suggestions[i].ToItem())
	}

	return &model.AnalysisResponse{
		TaskUUID:     req.TaskUUID,
		TaskType:     req.TaskType,
		TotalRecords: outcome.Summary.TotalThreads,
		OutputFiles:  a.GetOutputFiles(req.TaskUUID, taskDir),
		Data: &model.ThreadDumpData{
			Result:        outcome.Summary,
			SummaryFile:   summaryFile,
			ThreadsFile:   threadsFile,
			DroppedBlocks: outcome.Parse.DroppedBlocks,
		},
		Suggestions: suggestions,
	}, nil
}

// GetOutputFiles returns the list of output files generated by the analyzer.
func (a *ThreadDumpAnalyzer) GetOutputFiles(taskUUID, taskDir string) []model.OutputFile {
	return []model.OutputFile{
		{
			Name:        "Summary",
			LocalPath:   filepath.Join(taskDir, SummaryFileName),
			COSKey:      taskUUID + "/" + SummaryFileName,
			ContentType: "application/json",
		},
		{
			Name:        "Threads",
			LocalPath:   filepath.Join(taskDir, ThreadsFileName),
			COSKey:      taskUUID + "/" + ThreadsFileName,
			ContentType: "application/gzip",
		},
	}
}
