package analyzer

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threaddump-analysis/internal/testutil"
	"github.com/threaddump-analysis/pkg/model"
)

func TestThreadDumpAnalyzer_Metadata(t *testing.T) {
	analyzer := NewThreadDumpAnalyzer(nil)

	assert.Equal(t, "thread_dump_analyzer", analyzer.Name())
	assert.Equal(t, []model.TaskType{model.TaskTypeThreadDump}, analyzer.SupportedTypes())
}

func TestThreadDumpAnalyzer_Analyze(t *testing.T) {
	outputDir := t.TempDir()
	analyzer := NewThreadDumpAnalyzer(&BaseAnalyzerConfig{OutputDir: outputDir})

	task := model.NewTask("task-42", "jstack_deadlock.txt")
	task.InputFile = testutil.GetTestDataPath(t, "jstack_deadlock.txt")

	resp, err := analyzer.Analyze(context.Background(), task.ToRequest(""))
	require.NoError(t, err)

	assert.Equal(t, "task-42", resp.TaskUUID)
	assert.Equal(t, model.TaskTypeThreadDump, resp.TaskType)
	assert.Equal(t, 7, resp.TotalRecords)
	assert.Len(t, resp.Suggestions, 2)

	data, ok := resp.Data.(*model.ThreadDumpData)
	require.True(t, ok)
	assert.Equal(t, model.DataTypeThreadDump, data.Type())
	assert.Equal(t, 1, data.DroppedBlocks)
	assert.Equal(t, filepath.Join(outputDir, "task-42", SummaryFileName), data.SummaryFile)

	require.Len(t, resp.OutputFiles, 2)
	assert.Equal(t, "task-42/summary.json", resp.OutputFiles[0].COSKey)
	assert.Equal(t, "task-42/threads.json.gz", resp.OutputFiles[1].COSKey)

	var summary model.Summary
	require.NoError(t, json.Unmarshal([]byte(testutil.ReadFile(t, data.SummaryFile)), &summary))
	assert.Equal(t, 7, summary.TotalThreads)
	assert.Equal(t, 2, summary.BlockedThreads)

	file, err := os.Open(data.ThreadsFile)
	require.NoError(t, err)
	defer file.Close()
	zr, err := gzip.NewReader(file)
	require.NoError(t, err)
	var threads []model.ThreadRecord
	require.NoError(t, json.NewDecoder(zr).Decode(&threads))
	require.Len(t, threads, 7)
	assert.Equal(t, "scheduler-1", threads[0].Name)
}

func TestThreadDumpAnalyzer_AnalyzeFromReader_ExplicitOutputDir(t *testing.T) {
	taskDir := t.TempDir()
	analyzer := NewThreadDumpAnalyzer(nil)

	req := &model.AnalysisRequest{TaskUUID: "t1", TaskType: model.TaskTypeThreadDump, OutputDir: taskDir}
	resp, err := analyzer.AnalyzeFromReader(context.Background(), req, testutil.LoadFixtureReader(t, "jstack_stuck.txt"))
	require.NoError(t, err)

	assert.Equal(t, 3, resp.TotalRecords)
	assert.True(t, testutil.FileExists(t, filepath.Join(taskDir, SummaryFileName)))
	assert.True(t, testutil.FileExists(t, filepath.Join(taskDir, ThreadsFileName)))
}

func TestThreadDumpAnalyzer_EmptyDump(t *testing.T) {
	analyzer := NewThreadDumpAnalyzer(&BaseAnalyzerConfig{OutputDir: t.TempDir()})

	req := &model.AnalysisRequest{TaskUUID: "empty", TaskType: model.TaskTypeThreadDump}
	_, err := analyzer.AnalyzeFromReader(context.Background(), req, strings.NewReader("JNI global refs: 15\n"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyData)
	assert.Contains(t, err.Error(), "1 blocks dropped")
}

func TestThreadDumpAnalyzer_MissingFile(t *testing.T) {
	analyzer := NewThreadDumpAnalyzer(nil)

	_, err := analyzer.Analyze(context.Background(), &model.AnalysisRequest{InputFile: "/nonexistent/dump.txt"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open input file")
}
