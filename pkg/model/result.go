package model

import (
	"sort"
	"time"
)

// ParseResult holds the result of parsing a thread dump.
type ParseResult struct {
	Threads       []*ThreadRecord `json:"threads"`
	TotalBlocks   int             `json:"total_blocks"`
	DroppedBlocks int             `json:"dropped_blocks"`
	Truncated     bool            `json:"truncated,omitempty"`
}

// AnalysisRequest represents a request to analyze a thread dump.
type AnalysisRequest struct {
	TaskUUID  string
	TaskType  TaskType
	FileName  string
	InputFile string
	OutputDir string
}

// AnalysisResponse represents the response from an analysis.
type AnalysisResponse struct {
	TaskUUID     string           `json:"task_uuid"`
	TaskType     TaskType         `json:"task_type"`
	TotalRecords int              `json:"total_records"`
	OutputFiles  []OutputFile     `json:"output_files"`
	Data         AnalysisData     `json:"data"`
	Suggestions  []SuggestionItem `json:"suggestions"`
	Error        string           `json:"error,omitempty"`
}

// OutputFile describes a file produced by an analyzer.
type OutputFile struct {
	Name        string `json:"name"`
	LocalPath   string `json:"local_path"`
	COSKey      string `json:"cos_key,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// SuggestionItem represents a single suggestion from analysis.
type SuggestionItem struct {
	Suggestion string `json:"suggestion"`
	Type       string `json:"type,omitempty"`
	Severity   string `json:"severity,omitempty"`
	FuncName   string `json:"func,omitempty"`
}

// AnalysisDataType identifies the concrete AnalysisData carried by a response.
type AnalysisDataType string

const (
	DataTypeThreadDump AnalysisDataType = "thread_dump"
)

// TopItem is a ranked entry shown by formatters.
type TopItem struct {
	Name       string  `json:"name"`
	Value      int     `json:"value"`
	Percentage float64 `json:"percentage"`
}

// AnalysisData is the analyzer-specific payload of a response.
type AnalysisData interface {
	Type() AnalysisDataType
	Summary() map[string]interface{}
	TopItems() []TopItem
}

// ThreadDumpData is the payload produced by the thread dump analyzer.
type ThreadDumpData struct {
	Result        *Summary `json:"summary"`
	SummaryFile   string   `json:"summary_file"`
	ThreadsFile   string   `json:"threads_file"`
	DroppedBlocks int      `json:"dropped_blocks"`
}

// Type implements AnalysisData.
func (d *ThreadDumpData) Type() AnalysisDataType {
	return DataTypeThreadDump
}

// Summary implements AnalysisData.
func (d *ThreadDumpData) Summary() map[string]interface{} {
	s := d.Result
	if s == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}{
		"total_threads":      s.TotalThreads,
		"deadlocks":          s.Deadlocks,
		"deadlock_cycles":    len(s.DeadlockCycles),
		"blocked_threads":    s.BlockedThreads,
		"runnable_threads":   s.TotalRunnableThreads,
		"daemon_threads":     s.TotalDaemonThreads,
		"non_daemon_threads": s.TotalNonDaemonThreads,
		"stuck_threads":      len(s.StuckThreads),
		"thread_states":      s.ThreadStates,
	}
}

// TopItems implements AnalysisData. It ranks the state counts.
func (d *ThreadDumpData) TopItems() []TopItem {
	s := d.Result
	if s == nil || s.TotalThreads == 0 {
		return []TopItem{}
	}
	items := make([]TopItem, 0, len(s.ThreadStates))
	for state, count := range s.ThreadStates {
		items = append(items, TopItem{
			Name:       state,
			Value:      count,
			Percentage: float64(count) * 100 / float64(s.TotalThreads),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Value != items[j].Value {
			return items[i].Value > items[j].Value
		}
		return items[i].Name < items[j].Name
	})
	return items
}

// AnalysisRecord is a persisted or cached analysis of one uploaded dump.
type AnalysisRecord struct {
	ID          string       `json:"id"`
	FileName    string       `json:"fileName"`
	ContentHash string       `json:"contentHash"`
	CreatedAt   time.Time    `json:"createdAt"`
	Summary     *Summary     `json:"summary"`
	Suggestions []Suggestion `json:"suggestions"`
	Cached      bool         `json:"cached"`
}
