// Package threaddump is the entry point for analyzing a Java thread dump.
//
// Usage:
//
//	summary := threaddump.Analyze(string(data))
//	fmt.Println(summary.TotalThreads, summary.Deadlocks)
//
// Analyze is total over all inputs: malformed blocks are dropped and an
// empty or non-dump input yields a zeroed summary. It holds no state and is
// safe for concurrent use.
package threaddump

import (
	tdparser "github.com/threaddump-analysis/internal/parser/threaddump"
	"github.com/threaddump-analysis/internal/statistics"
	"github.com/threaddump-analysis/pkg/model"
)

// Analyze parses dumpText and summarizes the threads found in it.
func Analyze(dumpText string) *model.Summary {
	return statistics.Summarize(Parse(dumpText))
}

// Parse returns the threads of dumpText in display order.
func Parse(dumpText string) []*model.ThreadRecord {
	return tdparser.ParseString(dumpText)
}
