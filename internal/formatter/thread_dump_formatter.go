package formatter

import (
	"strings"

	"github.com/threaddump-analysis/pkg/model"
	"github.com/threaddump-analysis/pkg/utils"
)

const maxContentionRows = 5

// ThreadDumpFormatter formats thread dump analysis results.
type ThreadDumpFormatter struct{}

// SupportedTypes returns the data types this formatter supports.
func (f *ThreadDumpFormatter) SupportedTypes() []model.AnalysisDataType {
	return []model.AnalysisDataType{model.DataTypeThreadDump}
}

// Format outputs the thread dump result to the logger.
func (f *ThreadDumpFormatter) Format(resp *model.AnalysisResponse, log utils.Logger) {
	log.Info("=== Thread Dump Analysis ===")
	log.Info("Task UUID:      %s", resp.TaskUUID)
	log.Info("Total Threads:  %d", resp.TotalRecords)

	data, ok := resp.Data.(*model.ThreadDumpData)
	if !ok || data.Result == nil {
		log.Info("(No detailed data available)")
		return
	}
	s := data.Result

	log.Info("Daemon:         %d", s.TotalDaemonThreads)
	log.Info("Non-daemon:     %d", s.TotalNonDaemonThreads)
	log.Info("Runnable:       %d", s.TotalRunnableThreads)
	log.Info("Blocked:        %d", s.BlockedThreads)
	log.Info("Stuck:          %d", len(s.StuckThreads))
	log.Info("Deadlocks:      %d (lock cycles: %d)", s.Deadlocks, len(s.DeadlockCycles))
	if data.DroppedBlocks > 0 {
		log.Info("Skipped blocks: %d", data.DroppedBlocks)
	}
	log.Info("")

	log.Info("=== Thread States ===")
	for _, item := range data.TopItems() {
		log.Info("  %-14s %5d  %6.2f%%", item.Name, item.Value, item.Percentage)
	}
	log.Info("")

	if len(s.DeadlockCycles) > 0 {
		log.Info("=== Deadlock Cycles ===")
		for i, cycle := range s.DeadlockCycles {
			log.Info("  #%d %s", i+1, describeCycle(cycle))
		}
		log.Info("")
	}

	if len(s.LockContention) > 0 {
		log.Info("=== Lock Contention ===")
		for i, lc := range s.LockContention {
			if i >= maxContentionRows {
				log.Info("  ... and %d more locks", len(s.LockContention)-maxContentionRows)
				break
			}
			log.Info("  %s held by %s, %d waiting: %s", lc.Token, lc.Holder, len(lc.Waiters),
				truncateString(strings.Join(lc.Waiters, ", "), 80))
		}
		log.Info("")
	}

	printOutputFiles(resp, log)
	printSuggestions(resp, log)
}

// FormatSummary returns a summary map for serialization.
func (f *ThreadDumpFormatter) FormatSummary(resp *model.AnalysisResponse) map[string]interface{} {
	summary := baseSummary(resp)
	summary["suggestions"] = resp.Suggestions

	if resp.Data == nil {
		return summary
	}
	summary["data"] = resp.Data.Summary()
	summary["top_items"] = resp.Data.TopItems()

	if data, ok := resp.Data.(*model.ThreadDumpData); ok && data.Result != nil {
		summary["dropped_blocks"] = data.DroppedBlocks
		summary["deadlock_cycles"] = data.Result.DeadlockCycles
		summary["lock_contention"] = data.Result.LockContention
	}

	return summary
}

// describeCycle renders "a -> b -> a (locks: x, y)".
func describeCycle(cycle model.DeadlockCycle) string {
	if len(cycle.Threads) == 0 {
		return ""
	}
	path := strings.Join(cycle.Threads, " -> ") + " -> " + cycle.Threads[0]
	return path + " (locks: " + strings.Join(cycle.Locks, ", ") + ")"
}
