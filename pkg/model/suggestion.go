package model

import (
	"encoding/json"
	"time"
)

// Suggestion severities.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Suggestion represents an analysis suggestion.
type Suggestion struct {
	ID         int64           `json:"id,omitempty"`
	AnalysisID string          `json:"analysisId,omitempty"`
	Type       string          `json:"type,omitempty"`
	Severity   string          `json:"severity,omitempty"`
	Suggestion string          `json:"suggestion"`
	FuncName   string          `json:"func,omitempty"`
	Threads    json.RawMessage `json:"threads,omitempty"`
	CreatedAt  time.Time       `json:"createdAt,omitempty"`
}

// SuggestionBuilder helps build suggestions with a fluent interface.
type SuggestionBuilder struct {
	suggestion Suggestion
}

// NewSuggestionBuilder creates a new SuggestionBuilder.
func NewSuggestionBuilder() *SuggestionBuilder {
	return &SuggestionBuilder{
		suggestion: Suggestion{
			CreatedAt: time.Now(),
		},
	}
}

// WithAnalysisID sets the owning analysis id.
func (b *SuggestionBuilder) WithAnalysisID(id string) *SuggestionBuilder {
	b.suggestion.AnalysisID = id
	return b
}

// WithType sets the rule type.
func (b *SuggestionBuilder) WithType(typ string) *SuggestionBuilder {
	b.suggestion.Type = typ
	return b
}

// WithSeverity sets the severity.
func (b *SuggestionBuilder) WithSeverity(severity string) *SuggestionBuilder {
	b.suggestion.Severity = severity
	return b
}

// WithSuggestion sets the suggestion text.
func (b *SuggestionBuilder) WithSuggestion(text string) *SuggestionBuilder {
	b.suggestion.Suggestion = text
	return b
}

// WithFunc sets the related stack frame.
func (b *SuggestionBuilder) WithFunc(funcName string) *SuggestionBuilder {
	b.suggestion.FuncName = funcName
	return b
}

// WithThreads sets the names of the threads involved.
func (b *SuggestionBuilder) WithThreads(names []string) *SuggestionBuilder {
	if len(names) > 0 {
		data, err := json.Marshal(names)
		if err == nil {
			b.suggestion.Threads = data
		}
	}
	return b
}

// Build returns the built Suggestion.
func (b *SuggestionBuilder) Build() Suggestion {
	return b.suggestion
}

// IsEmpty returns true if the suggestion text is empty.
func (s *Suggestion) IsEmpty() bool {
	return s.Suggestion == ""
}

// ToItem converts the suggestion to a response item.
func (s *Suggestion) ToItem() SuggestionItem {
	return SuggestionItem{
		Suggestion: s.Suggestion,
		Type:       s.Type,
		Severity:   s.Severity,
		FuncName:   s.FuncName,
	}
}

// ThreadNames decodes the thread names attached to the suggestion.
func (s *Suggestion) ThreadNames() []string {
	if len(s.Threads) == 0 {
		return nil
	}
	var names []string
	if err := json.Unmarshal(s.Threads, &names); err != nil {
		return nil
	}
	return names
}
