package threaddump

import (
	"sort"
	"strings"

	"github.com/threaddump-analysis/pkg/model"
)

// unrankedPriority is the rank given to states and frames outside the tables.
const unrankedPriority = 99

var statePriority = map[model.ThreadState]int{
	model.ThreadStateStucked:      1,
	model.ThreadStateDeadlock:     2,
	model.ThreadStateWaiting:      3,
	model.ThreadStateTimedWaiting: 3,
	model.ThreadStateBlocked:      4,
	model.ThreadStateRunnable:     5,
}

// waitPatterns are known blocking call signatures, in precedence order.
var waitPatterns = []struct {
	signature string
	rank      int
}{
	{"doDescribe", 1},             // JDBC statement describe
	{"java.lang.Object.wait", 2},  // monitor wait
	{"socketRead0", 3},            // blocking socket read
	{"java.lang.Thread.sleep", 4}, // sleep
}

// StatePriority returns the display priority of a state. Lower sorts first.
func StatePriority(state model.ThreadState) int {
	if p, ok := statePriority[state]; ok {
		return p
	}
	return unrankedPriority
}

// WaitPatternRank returns the rank of the first wait pattern, in precedence
// order, that any of the frames contains.
func WaitPatternRank(frames []string) int {
	for _, p := range waitPatterns {
		for _, frame := range frames {
			if strings.Contains(frame, p.signature) {
				return p.rank
			}
		}
	}
	return unrankedPriority
}

type sortEntry struct {
	thread  *model.ThreadRecord
	state   int
	pattern int
}

// SortThreads stably orders threads by state priority. Two waiting threads
// are further ordered by wait pattern rank.
func SortThreads(threads []*model.ThreadRecord) {
	entries := make([]sortEntry, len(threads))
	for i, t := range threads {
		entries[i] = sortEntry{thread: t, state: StatePriority(t.State)}
		if t.State.IsWaiting() {
			entries[i].pattern = WaitPatternRank(t.StackFrames)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.state != b.state {
			return a.state < b.state
		}
		if a.thread.State.IsWaiting() && b.thread.State.IsWaiting() {
			return a.pattern < b.pattern
		}
		return false
	})

	for i := range entries {
		threads[i] = entries[i].thread
	}
}
