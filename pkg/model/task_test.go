package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskType_String(t *testing.T) {
	assert.Equal(t, "thread_dump", TaskTypeThreadDump.String())
	assert.Equal(t, "unknown", TaskType(99).String())
}

func TestIsDumpFile(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"jstack.txt", true},
		{"app.LOG", true},
		{"threads.dump", true},
		{"heap.hprof", false},
		{"noext", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsDumpFile(tt.name))
		})
	}
}

func TestNewTask(t *testing.T) {
	task := NewTask("uuid-1", "jstack.txt")
	task.InputFile = "/tmp/jstack.txt"

	assert.Equal(t, TaskTypeThreadDump, task.Type)
	assert.False(t, task.CreateTime.IsZero())

	req := task.ToRequest("/tmp/out")
	assert.Equal(t, "uuid-1", req.TaskUUID)
	assert.Equal(t, "/tmp/jstack.txt", req.InputFile)
	assert.Equal(t, "/tmp/out", req.OutputDir)
	assert.Equal(t, TaskTypeThreadDump, req.TaskType)
}
