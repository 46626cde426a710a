// Package statistics aggregates parsed thread records into a dump summary.
package statistics

import (
	"github.com/threaddump-analysis/pkg/model"
)

// Summarize buckets threads, counts states and deadlocks, and assembles the
// summary. It never fails; an empty input yields a zeroed summary.
func Summarize(threads []*model.ThreadRecord) *model.Summary {
	s := model.NewSummary()
	s.Threads = append(s.Threads, threads...)
	s.TotalThreads = len(threads)

	for _, t := range threads {
		s.ThreadStates[t.State.CountKey()]++

		switch t.State {
		case model.ThreadStateRunnable:
			s.RunnableThreads = append(s.RunnableThreads, t)
		case model.ThreadStateBlocked, model.ThreadStateWaiting, model.ThreadStateTimedWaiting:
			s.WaitingBlockedThreads = append(s.WaitingBlockedThreads, t)
		case model.ThreadStateDeadlock:
			s.DeadlockedThreads = append(s.DeadlockedThreads, t)
		case model.ThreadStateStucked:
			s.StuckThreads = append(s.StuckThreads, t)
		}

		if t.State == model.ThreadStateBlocked {
			s.BlockedThreads++
		}

		if t.Daemon {
			s.DaemonThreads = append(s.DaemonThreads, t)
		} else {
			s.NonDaemonThreads = append(s.NonDaemonThreads, t)
		}
	}

	s.TotalDaemonThreads = len(s.DaemonThreads)
	s.TotalNonDaemonThreads = len(s.NonDaemonThreads)
	s.TotalRunnableThreads = len(s.RunnableThreads)

	s.Deadlocks = CountHeuristicDeadlocks(threads)
	s.DeadlockCycles = DetectDeadlockCycles(threads)
	s.LockContention = FindLockContention(threads)

	applyPlaceholders(s)
	return s
}
