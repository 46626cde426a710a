// Package threaddump parses Java thread dumps (jstack, kill -3 output) into
// thread records.
package threaddump

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/threaddump-analysis/internal/parser"
	"github.com/threaddump-analysis/pkg/model"
)

// ParserOptions holds configuration options for the thread dump parser.
type ParserOptions struct {
	// MaxThreads stops parsing after this many threads. 0 means no limit.
	MaxThreads int

	// StrictMode fails when a non-empty input yields no thread.
	StrictMode bool
}

// DefaultParserOptions returns default parser options.
func DefaultParserOptions() *ParserOptions {
	return &ParserOptions{
		MaxThreads: 0,
		StrictMode: false,
	}
}

// Parser implements parser.Parser for thread dumps.
type Parser struct {
	opts *ParserOptions
}

// NewParser creates a new thread dump parser.
func NewParser(opts *ParserOptions) *Parser {
	if opts == nil {
		opts = DefaultParserOptions()
	}
	return &Parser{opts: opts}
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "threaddump"
}

// SupportedFormats returns the formats supported by this parser.
func (p *Parser) SupportedFormats() []string {
	return []string{"jstack", "threaddump"}
}

// Parse reads the whole dump from reader and parses it.
func (p *Parser) Parse(ctx context.Context, reader io.Reader) (*model.ParseResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", parser.ErrReadFailed, err)
	}
	return p.ParseText(ctx, string(data))
}

// ParseText parses dump text. It only fails on context cancellation, or in
// strict mode when no thread is found.
func (p *Parser) ParseText(ctx context.Context, text string) (*model.ParseResult, error) {
	result := &model.ParseResult{
		Threads: make([]*model.ThreadRecord, 0),
	}

	for _, block := range splitBlocks(text) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if isBlank(block) {
			continue
		}
		result.TotalBlocks++

		rec, ok := parseBlock(block)
		if !ok {
			result.DroppedBlocks++
			continue
		}

		if p.opts.MaxThreads > 0 && len(result.Threads) >= p.opts.MaxThreads {
			result.Truncated = true
			break
		}
		result.Threads = append(result.Threads, rec)
	}

	if p.opts.StrictMode && len(result.Threads) == 0 && strings.TrimSpace(text) != "" {
		return nil, fmt.Errorf("%w: no thread header found in %d blocks", parser.ErrInvalidFormat, result.TotalBlocks)
	}

	SortThreads(result.Threads)
	return result, nil
}

// ParseString parses dump text into ordered thread records. It never fails:
// blocks without a quoted thread name are dropped.
func ParseString(text string) []*model.ThreadRecord {
	result, err := NewParser(nil).ParseText(context.Background(), text)
	if err != nil {
		// Unreachable without a deadline or strict mode.
		return make([]*model.ThreadRecord, 0)
	}
	return result.Threads
}

// splitBlocks splits text into blocks, starting a new block at every line
// that begins with a double quote.
func splitBlocks(text string) [][]string {
	var blocks [][]string
	var current []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(line, `"`) && len(current) > 0 {
			blocks = append(blocks, current)
			current = nil
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

func isBlank(block []string) bool {
	for _, line := range block {
		if strings.TrimSpace(line) != "" {
			return false
		}
	}
	return true
}

// parseBlock extracts a thread record from one block. The second return
// value is false when the block has no valid header.
func parseBlock(block []string) (*model.ThreadRecord, bool) {
	headerIdx := 0
	for headerIdx < len(block) && strings.TrimSpace(block[headerIdx]) == "" {
		headerIdx++
	}
	if headerIdx == len(block) {
		return nil, false
	}

	header := block[headerIdx]
	name, ok := headerName(header)
	if !ok {
		return nil, false
	}

	rec := &model.ThreadRecord{
		Name:            name,
		Daemon:          strings.Contains(header, "daemon"),
		State:           model.ThreadStateUnknown,
		StackFrames:     make([]string, 0),
		LockIdentifiers: make([]string, 0),
		LockRefs:        make([]model.LockRef, 0),
	}

	if m := tidPattern.FindStringSubmatch(header); m != nil {
		tid := m[1]
		rec.ThreadID = &tid
	}
	if m := nidPattern.FindStringSubmatch(header); m != nil {
		nid := m[1]
		rec.NativeID = &nid
	}
	if m := prioPattern.FindStringSubmatch(header); m != nil {
		if prio, err := strconv.Atoi(m[1]); err == nil {
			rec.Priority = &prio
		}
	}

	stateIdx := -1
	inOwnable := false
	for i, line := range block[headerIdx:] {
		if stateIdx < 0 && strings.Contains(line, stateMarker) {
			stateIdx = headerIdx + i
			rec.State = extractState(line)
		}

		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, ownableSyncMarker) {
			inOwnable = true
		}
		if strings.HasPrefix(trimmed, "at ") {
			rec.StackFrames = append(rec.StackFrames, strings.TrimPrefix(trimmed, "at "))
		}

		tokens := lockPattern.FindAllString(line, -1)
		if len(tokens) == 0 {
			continue
		}
		relation := classifyLockLine(trimmed, inOwnable)
		for _, token := range tokens {
			rec.LockIdentifiers = append(rec.LockIdentifiers, token)
			rec.LockRefs = append(rec.LockRefs, model.LockRef{Token: token, Relation: relation})
		}
	}

	if stateIdx >= 0 {
		rec.RawTrailingTrace = strings.Join(block[stateIdx:], "\n")
	}

	if rec.State == model.ThreadStateRunnable && stuckPattern.MatchString(header) {
		rec.State = model.ThreadStateStucked
	}

	return rec, true
}
