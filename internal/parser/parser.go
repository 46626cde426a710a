// Package parser defines the interfaces for parsing thread dumps.
package parser

import (
	"context"
	"io"

	"github.com/threaddump-analysis/pkg/model"
)

// Parser is the interface for parsing thread dump text.
type Parser interface {
	// Parse parses a thread dump from the reader.
	Parse(ctx context.Context, reader io.Reader) (*model.ParseResult, error)

	// SupportedFormats returns the formats supported by this parser.
	SupportedFormats() []string

	// Name returns the name of this parser.
	Name() string
}

// ParserFactory is a function that creates a new Parser instance.
type ParserFactory func(opts ...ParserOption) (Parser, error)

// ParserOption is a function that configures a Parser.
type ParserOption func(interface{})

// Registry holds registered parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a new parser Registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string]Parser),
	}
}

// Register registers a parser with the given format name.
func (r *Registry) Register(format string, parser Parser) {
	r.parsers[format] = parser
}

// Get returns a parser for the given format.
func (r *Registry) Get(format string) (Parser, bool) {
	parser, ok := r.parsers[format]
	return parser, ok
}

// Formats returns the registered format names.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.parsers))
	for f := range r.parsers {
		formats = append(formats, f)
	}
	return formats
}
