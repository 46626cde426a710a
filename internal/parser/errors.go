package parser

import "errors"

var (
	// ErrInvalidFormat is returned in strict mode when no thread could be parsed.
	ErrInvalidFormat = errors.New("invalid input format")

	// ErrReadFailed is returned when the input could not be read.
	ErrReadFailed = errors.New("read input failed")

	// ErrUnsupportedFormat is returned when the format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported format")
)
