package analyzer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threaddump-analysis/internal/mock"
	"github.com/threaddump-analysis/internal/parser"
	"github.com/threaddump-analysis/internal/testutil"
	"github.com/threaddump-analysis/pkg/model"
	"github.com/threaddump-analysis/pkg/utils"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk gone")
}

func TestNewBaseAnalyzer(t *testing.T) {
	analyzer := NewBaseAnalyzer(nil)
	assert.NotNil(t, analyzer.config)
	assert.NotNil(t, analyzer.parser)
	assert.NotNil(t, analyzer.advisor)

	config := &BaseAnalyzerConfig{
		OutputDir:  "/tmp/test",
		MaxThreads: 100,
	}
	analyzer = NewBaseAnalyzer(config)
	assert.Equal(t, "/tmp/test", analyzer.Config().OutputDir)
	assert.Equal(t, 100, analyzer.Config().MaxThreads)
}

func TestBaseAnalyzer_Run(t *testing.T) {
	analyzer := NewBaseAnalyzer(nil)

	outcome, err := analyzer.Run(context.Background(), testutil.LoadFixtureReader(t, "jstack_deadlock.txt"))
	require.NoError(t, err)

	assert.Equal(t, 7, outcome.Summary.TotalThreads)
	assert.Equal(t, 1, outcome.Parse.DroppedBlocks)
	require.Len(t, outcome.Summary.DeadlockCycles, 1)

	var types []string
	for _, s := range outcome.Suggestions {
		types = append(types, s.Type)
	}
	assert.ElementsMatch(t, []string{"deadlock", "blocked_threads"}, types)

	for _, stage := range []string{"parse", "summarize", "advise", "total"} {
		assert.Contains(t, outcome.Timings, stage)
	}
}

func TestBaseAnalyzer_Run_CustomParser(t *testing.T) {
	running := &model.ThreadRecord{Name: "worker", State: model.ThreadStateRunnable}

	t.Run("result", func(t *testing.T) {
		p := &mock.MockParser{}
		p.ExpectParse(&model.ParseResult{Threads: []*model.ThreadRecord{running}, TotalBlocks: 1}, nil)

		outcome, err := NewBaseAnalyzer(&BaseAnalyzerConfig{Parser: p}).Run(context.Background(), strings.NewReader("ignored"))
		require.NoError(t, err)
		assert.Equal(t, 1, outcome.Summary.TotalThreads)
		assert.Equal(t, 1, outcome.Summary.TotalRunnableThreads)
		p.AssertExpectations(t)
	})

	t.Run("error", func(t *testing.T) {
		p := &mock.MockParser{}
		p.ExpectParse(nil, parser.ErrInvalidFormat)

		_, err := NewBaseAnalyzer(&BaseAnalyzerConfig{Parser: p}).Run(context.Background(), strings.NewReader("ignored"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrParseError)
		assert.Contains(t, err.Error(), parser.ErrInvalidFormat.Error())
		p.AssertExpectations(t)
	})
}

func TestBaseAnalyzer_Run_EmptyInput(t *testing.T) {
	outcome, err := NewBaseAnalyzer(nil).Run(context.Background(), strings.NewReader(""))
	require.NoError(t, err)

	assert.Equal(t, 0, outcome.Summary.TotalThreads)
	assert.NotNil(t, outcome.Summary.Threads)
	assert.Empty(t, outcome.Suggestions)
}

func TestBaseAnalyzer_Run_ParseErrors(t *testing.T) {
	t.Run("read failure", func(t *testing.T) {
		_, err := NewBaseAnalyzer(nil).Run(context.Background(), failingReader{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrParseError)
	})

	t.Run("strict mode", func(t *testing.T) {
		a := NewBaseAnalyzer(&BaseAnalyzerConfig{StrictMode: true})
		_, err := a.Run(context.Background(), strings.NewReader("no threads here\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrParseError)
		assert.Contains(t, err.Error(), parser.ErrInvalidFormat.Error())
	})
}

func TestBaseAnalyzer_Run_VerboseLogsTimings(t *testing.T) {
	buf := &bytes.Buffer{}
	a := NewBaseAnalyzer(&BaseAnalyzerConfig{
		Logger:  utils.NewDefaultLogger(utils.LevelDebug, buf),
		Verbose: true,
	})

	_, err := a.Run(context.Background(), strings.NewReader(`"main" prio=5 tid=0x1 nid=0x2 runnable`))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "analyze: parse=")
}

func TestBaseAnalyzer_EnsureOutputDir(t *testing.T) {
	tmpDir := t.TempDir()
	analyzer := NewBaseAnalyzer(&BaseAnalyzerConfig{OutputDir: tmpDir})

	taskDir, err := analyzer.EnsureOutputDir("task-123")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmpDir, "task-123"), taskDir)
	info, err := os.Stat(taskDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.NoError(t, analyzer.CleanupOutputDir(taskDir))
	_, err = os.Stat(taskDir)
	assert.True(t, os.IsNotExist(err))
}

func TestBaseAnalyzer_WriteOutputs(t *testing.T) {
	analyzer := NewBaseAnalyzer(nil)
	dir := t.TempDir()
	summary := model.NewSummary()

	summaryPath := filepath.Join(dir, SummaryFileName)
	require.NoError(t, analyzer.WriteSummaryJSON(summary, summaryPath))
	content := testutil.ReadFile(t, summaryPath)
	assert.Contains(t, content, `"totalThreads": 0`)

	stats, err := analyzer.WriteThreadsGzip([]*model.ThreadRecord{{Name: "main"}}, filepath.Join(dir, ThreadsFileName))
	require.NoError(t, err)
	assert.Greater(t, stats.CompressedSize, int64(0))
}
