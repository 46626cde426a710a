package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/threaddump-analysis/pkg/model"
)

// ThreadDumpAnalysis represents the thread_dump_analyses table.
type ThreadDumpAnalysis struct {
	ID             int64                `gorm:"column:id;primaryKey;autoIncrement"`
	UUID           string               `gorm:"column:uuid;type:varchar(64);uniqueIndex"`
	FileName       string               `gorm:"column:file_name;type:varchar(512)"`
	ContentHash    string               `gorm:"column:content_hash;type:varchar(64);index"`
	AnalysisStatus model.AnalysisStatus `gorm:"column:analysis_status"`
	TotalThreads   int                  `gorm:"column:total_threads"`
	BlockedThreads int                  `gorm:"column:blocked_threads"`
	Deadlocks      int                  `gorm:"column:deadlocks"`
	Summary        JSONField            `gorm:"column:summary;type:json"`
	CreatedAt      time.Time            `gorm:"column:created_at"`
}

// TableName returns the table name for ThreadDumpAnalysis.
func (ThreadDumpAnalysis) TableName() string {
	return "thread_dump_analyses"
}

// NewThreadDumpAnalysis builds a row from a record.
func NewThreadDumpAnalysis(rec *model.AnalysisRecord) (*ThreadDumpAnalysis, error) {
	row := &ThreadDumpAnalysis{
		UUID:           rec.ID,
		FileName:       rec.FileName,
		ContentHash:    rec.ContentHash,
		AnalysisStatus: model.AnalysisStatusEmpty,
		CreatedAt:      rec.CreatedAt,
	}

	if rec.Summary != nil {
		data, err := json.Marshal(rec.Summary)
		if err != nil {
			return nil, err
		}
		row.Summary = data
		row.TotalThreads = rec.Summary.TotalThreads
		row.BlockedThreads = rec.Summary.BlockedThreads
		row.Deadlocks = rec.Summary.Deadlocks
		if rec.Summary.TotalThreads > 0 {
			row.AnalysisStatus = model.AnalysisStatusCompleted
		}
	}

	return row, nil
}

// ToModel converts ThreadDumpAnalysis to model.AnalysisRecord. Without
// withSummary, the summary only carries the indexed counters.
func (a *ThreadDumpAnalysis) ToModel(withSummary bool) (*model.AnalysisRecord, error) {
	rec := &model.AnalysisRecord{
		ID:          a.UUID,
		FileName:    a.FileName,
		ContentHash: a.ContentHash,
		CreatedAt:   a.CreatedAt,
		Summary:     model.NewSummary(),
		Suggestions: make([]model.Suggestion, 0),
	}

	if !withSummary || a.Summary == nil {
		rec.Summary.TotalThreads = a.TotalThreads
		rec.Summary.BlockedThreads = a.BlockedThreads
		rec.Summary.Deadlocks = a.Deadlocks
		return rec, nil
	}

	if err := json.Unmarshal(a.Summary, rec.Summary); err != nil {
		return nil, err
	}
	return rec, nil
}

// AnalysisSuggestion represents the analysis_suggestions table.
type AnalysisSuggestion struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	AnalysisUUID string    `gorm:"column:analysis_uuid;type:varchar(64);index"`
	Type         string    `gorm:"column:type;type:varchar(64)"`
	Severity     string    `gorm:"column:severity;type:varchar(16)"`
	Suggestion   string    `gorm:"column:suggestion;type:text"`
	Func         string    `gorm:"column:func;type:varchar(512)"`
	Threads      JSONField `gorm:"column:threads;type:json"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

// TableName returns the table name for AnalysisSuggestion.
func (AnalysisSuggestion) TableName() string {
	return "analysis_suggestions"
}

// NewAnalysisSuggestion builds a row owned by analysisUUID.
func NewAnalysisSuggestion(analysisUUID string, s model.Suggestion) *AnalysisSuggestion {
	return &AnalysisSuggestion{
		AnalysisUUID: analysisUUID,
		Type:         s.Type,
		Severity:     s.Severity,
		Suggestion:   s.Suggestion,
		Func:         s.FuncName,
		Threads:      JSONField(s.Threads),
		CreatedAt:    s.CreatedAt,
	}
}

// ToModel converts AnalysisSuggestion to model.Suggestion.
func (s *AnalysisSuggestion) ToModel() model.Suggestion {
	return model.Suggestion{
		ID:         s.ID,
		AnalysisID: s.AnalysisUUID,
		Type:       s.Type,
		Severity:   s.Severity,
		Suggestion: s.Suggestion,
		FuncName:   s.Func,
		Threads:    json.RawMessage(s.Threads),
		CreatedAt:  s.CreatedAt,
	}
}

// JSONField is a custom type for handling JSON fields in GORM.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}

// MarshalJSON implements json.Marshaler interface.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if data == nil || string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}
