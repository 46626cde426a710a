package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/threaddump-analysis/internal/analyzer"
	"github.com/threaddump-analysis/internal/formatter"
	"github.com/threaddump-analysis/internal/storage"
	"github.com/threaddump-analysis/pkg/model"
	"github.com/threaddump-analysis/pkg/parallel"
)

var (
	// Analyze command flags
	inputFiles []string
	outputDir  string
	jsonOutput bool
	workers    int
	maxThreads int
	strictMode bool
	upload     bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one or more thread dump files",
	Long: `Analyze Java thread dumps and report thread states, lock contention,
deadlock cycles and stuck threads.

For every input the analyze command writes, under <output>/<task-uuid>/:
  - summary.json    : the analysis summary
  - threads.json.gz : every parsed thread, gzipped

Several inputs are analyzed in parallel. With --upload the dump and its
output files are copied to the storage backend from the config file.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	binName := BinName()
	analyzeCmd.Example = `  # Analyze a jstack dump
  ` + binName + ` analyze -i ./jstack.txt -o ./output

  # Analyze several dumps with 8 workers and print JSON summaries
  ` + binName + ` analyze -i ./a.txt -i ./b.txt -w 8 --json

  # Analyze and upload results to the configured storage
  ` + binName + ` analyze -i ./jstack.txt -c ./configs/config.yaml --upload`

	analyzeCmd.Flags().StringArrayVarP(&inputFiles, "input", "i", nil, "Thread dump file (repeatable, required)")
	analyzeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: analysis.data_dir from config)")
	analyzeCmd.MarkFlagRequired("input")

	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON summaries to stdout instead of text")
	analyzeCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent analyses (default: analysis.workers from config)")
	analyzeCmd.Flags().IntVar(&maxThreads, "max-threads", 0, "Stop parsing after this many threads (default: analysis.max_threads)")
	analyzeCmd.Flags().BoolVar(&strictMode, "strict", false, "Fail when a non-empty dump has no thread header")
	analyzeCmd.Flags().BoolVar(&upload, "upload", false, "Upload dumps and output files to the configured storage")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	conf := GetConfig()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	tasks := make([]*model.Task, 0, len(inputFiles))
	for _, path := range inputFiles {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("input file not found: %s", path)
		}
		if !model.IsDumpFile(path) {
			log.Warn("%s does not have a dump extension %v, analyzing anyway", path, model.DumpExtensions)
		}
		task := model.NewTask(uuid.NewString(), filepath.Base(path))
		task.InputFile = path
		tasks = append(tasks, task)
	}

	var archiver *storage.Archiver
	if upload {
		store, err := storage.New(&conf.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage: %w", err)
		}
		if store == nil {
			return fmt.Errorf("--upload requires storage.enabled in the config file")
		}
		archiver = storage.NewArchiver(store, log)
	}

	outDir := outputDir
	if outDir == "" {
		if err := conf.EnsureDataDir(); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		outDir = conf.Analysis.DataDir
	}

	analyzerConfig := &analyzer.BaseAnalyzerConfig{
		OutputDir:  outDir,
		MaxThreads: conf.Analysis.MaxThreads,
		StrictMode: conf.Analysis.StrictMode || strictMode,
		Logger:     log,
		Verbose:    verbose,
	}
	if maxThreads > 0 {
		analyzerConfig.MaxThreads = maxThreads
	}
	ana, err := analyzer.NewFactory(analyzerConfig).CreateAnalyzer(model.TaskTypeThreadDump)
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}

	n := workers
	if n <= 0 {
		n = conf.Analysis.Workers
	}
	pool := parallel.NewWorkerPool[*model.Task, *model.AnalysisResponse](parallel.DefaultPoolConfig().WithWorkers(n))

	log.Info("=== Thread Dump Analysis CLI ===")
	log.Info("Inputs:     %d", len(tasks))
	log.Info("Output dir: %s", outDir)
	log.Info("Analyzer:   %s", ana.Name())
	log.Info("Workers:    %d", pool.Workers())
	log.Info("")

	start := time.Now()
	results := pool.Execute(ctx, tasks, func(ctx context.Context, task *model.Task) (*model.AnalysisResponse, error) {
		resp, err := ana.Analyze(ctx, task.ToRequest(""))
		if err != nil {
			return nil, err
		}
		if archiver != nil {
			if err := uploadResults(ctx, archiver, task, resp); err != nil {
				return nil, err
			}
		}
		return resp, nil
	})

	registry := formatter.NewRegistry()
	summaries := make([]map[string]interface{}, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			log.Error("%s: %v", r.Input.InputFile, r.Error)
			continue
		}
		if jsonOutput {
			summary := registry.FormatSummary(r.Result)
			summary["input_file"] = r.Input.InputFile
			summaries = append(summaries, summary)
			continue
		}
		log.Info("--- %s (%s) ---", r.Input.InputFile, r.Input.TaskUUID)
		registry.Format(r.Result, log)
		log.Info("")
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(summaries); err != nil {
			return fmt.Errorf("failed to write JSON output: %w", err)
		}
	}

	log.Info("=== Analysis Complete: %d ok, %d failed in %s ===",
		len(results)-failed, failed, time.Since(start).Round(time.Millisecond))

	if failed > 0 {
		return fmt.Errorf("%d of %d dumps failed", failed, len(results))
	}
	return nil
}

// uploadResults archives the raw dump and the analyzer output files, and
// records the uploaded keys on resp.
func uploadResults(ctx context.Context, archiver *storage.Archiver, task *model.Task, resp *model.AnalysisResponse) error {
	content, err := os.ReadFile(task.InputFile)
	if err != nil {
		return fmt.Errorf("failed to read dump for upload: %w", err)
	}
	if _, err := archiver.ArchiveDump(ctx, task.TaskUUID, task.FileName, content); err != nil {
		return err
	}

	uploaded, err := archiver.ArchiveOutputs(ctx, task.TaskUUID, resp.OutputFiles)
	if err != nil {
		return err
	}
	resp.OutputFiles = uploaded
	return nil
}
