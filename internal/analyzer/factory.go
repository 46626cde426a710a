package analyzer

import (
	"github.com/threaddump-analysis/pkg/model"
)

// Factory creates analyzers based on task type.
type Factory struct {
	config *BaseAnalyzerConfig
}

// NewFactory creates a new analyzer factory.
func NewFactory(config *BaseAnalyzerConfig) *Factory {
	if config == nil {
		config = DefaultBaseAnalyzerConfig()
	}
	return &Factory{config: config}
}

// CreateAnalyzer creates an analyzer for the given task type.
func (f *Factory) CreateAnalyzer(taskType model.TaskType) (Analyzer, error) {
	switch taskType {
	case model.TaskTypeThreadDump:
		return NewThreadDumpAnalyzer(f.config), nil
	default:
		return nil, ErrUnsupportedTaskType
	}
}

// CreateManager creates a new analyzer manager with all registered analyzers.
func (f *Factory) CreateManager() *Manager {
	manager := NewManager()
	manager.Register(NewThreadDumpAnalyzer(f.config))
	return manager
}
