package analyzer

import "errors"

var (
	// ErrUnsupportedTaskType is returned when no analyzer is registered for a task type.
	ErrUnsupportedTaskType = errors.New("unsupported task type")

	// ErrParseError is returned when reading or parsing the dump fails.
	ErrParseError = errors.New("failed to parse thread dump")

	// ErrEmptyData is returned when the dump contains no thread.
	ErrEmptyData = errors.New("thread dump contains no threads")

	// ErrOutputFailed is returned when result files cannot be written.
	ErrOutputFailed = errors.New("failed to write analysis output")
)
