package threaddump

import (
	"github.com/threaddump-analysis/internal/parser"
)

// Factory creates new thread dump parsers.
type Factory struct{}

// NewFactory creates a new thread dump parser factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create creates a new thread dump parser with the given options.
func (f *Factory) Create(opts ...parser.ParserOption) (parser.Parser, error) {
	parserOpts := DefaultParserOptions()

	for _, opt := range opts {
		opt(parserOpts)
	}

	return NewParser(parserOpts), nil
}

// RegisterWithRegistry registers the thread dump parser with the given registry.
func RegisterWithRegistry(registry *parser.Registry, opts ...parser.ParserOption) {
	factory := NewFactory()
	p, _ := factory.Create(opts...)
	for _, format := range p.SupportedFormats() {
		registry.Register(format, p)
	}
}

// WithMaxThreadsOption returns a parser option that limits the number of parsed threads.
func WithMaxThreadsOption(n int) parser.ParserOption {
	return func(opts interface{}) {
		if o, ok := opts.(*ParserOptions); ok {
			o.MaxThreads = n
		}
	}
}

// WithStrictModeOption returns a parser option that enables strict mode.
func WithStrictModeOption(strict bool) parser.ParserOption {
	return func(opts interface{}) {
		if o, ok := opts.(*ParserOptions); ok {
			o.StrictMode = strict
		}
	}
}
