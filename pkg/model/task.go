// Package model defines the core data structures used throughout the application.
package model

import (
	"path/filepath"
	"strings"
	"time"
)

// TaskType represents the type of analysis task.
type TaskType int

const (
	TaskTypeUnknown    TaskType = 0
	TaskTypeThreadDump TaskType = 1 // Java thread dump (jstack / kill -3)
)

// String returns the string representation of TaskType.
func (t TaskType) String() string {
	switch t {
	case TaskTypeThreadDump:
		return "thread_dump"
	default:
		return "unknown"
	}
}

// AnalysisStatus represents the analysis status of a stored record.
type AnalysisStatus int

const (
	AnalysisStatusPending   AnalysisStatus = 0 // Not started
	AnalysisStatusRunning   AnalysisStatus = 1 // Running
	AnalysisStatusCompleted AnalysisStatus = 2 // Completed
	AnalysisStatusFailed    AnalysisStatus = 3 // Failed
	AnalysisStatusEmpty     AnalysisStatus = 5 // No threads found
)

// String returns the string representation of AnalysisStatus.
func (s AnalysisStatus) String() string {
	switch s {
	case AnalysisStatusPending:
		return "pending"
	case AnalysisStatusRunning:
		return "running"
	case AnalysisStatusCompleted:
		return "completed"
	case AnalysisStatusFailed:
		return "failed"
	case AnalysisStatusEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// DumpExtensions lists the file extensions accepted as thread dumps.
var DumpExtensions = []string{".txt", ".log", ".dump"}

// IsDumpFile reports whether name carries an accepted dump extension.
func IsDumpFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range DumpExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Task represents one thread dump analysis job.
type Task struct {
	TaskUUID   string     `json:"tid"`
	Type       TaskType   `json:"type"`
	FileName   string     `json:"file_name"`
	InputFile  string     `json:"input_file,omitempty"`
	CreateTime time.Time  `json:"create_time"`
	BeginTime  *time.Time `json:"begin_time,omitempty"`
	EndTime    *time.Time `json:"end_time,omitempty"`
}

// NewTask creates a new thread dump Task.
func NewTask(taskUUID, fileName string) *Task {
	return &Task{
		TaskUUID:   taskUUID,
		Type:       TaskTypeThreadDump,
		FileName:   fileName,
		CreateTime: time.Now(),
	}
}

// ToRequest builds the analysis request for this task.
func (t *Task) ToRequest(outputDir string) *AnalysisRequest {
	return &AnalysisRequest{
		TaskUUID:  t.TaskUUID,
		TaskType:  t.Type,
		FileName:  t.FileName,
		InputFile: t.InputFile,
		OutputDir: outputDir,
	}
}
