package statistics

import (
	"sort"
	"strconv"
	"strings"

	"github.com/threaddump-analysis/pkg/model"
)

// CountHeuristicDeadlocks counts (thread, lock) pairs where the recorded
// owner of the lock itself references a lock recorded as owned by the thread.
//
// Ownership is last-writer-wins over every lock reference of threads that
// have a tid, regardless of whether the reference is held or waited on. Only
// two-party cycles are found and one cycle may be counted several times.
// Threads without a tid never participate.
func CountHeuristicDeadlocks(threads []*model.ThreadRecord) int {
	lockOwner := make(map[string]string)
	for _, t := range threads {
		if !t.HasThreadID() {
			continue
		}
		for _, lock := range t.LockIdentifiers {
			lockOwner[lock] = t.TID()
		}
	}

	byTID := make(map[string]*model.ThreadRecord)
	for _, t := range threads {
		if !t.HasThreadID() {
			continue
		}
		if _, ok := byTID[t.TID()]; !ok {
			byTID[t.TID()] = t
		}
	}

	count := 0
	for _, t := range threads {
		if !t.HasThreadID() {
			continue
		}
		tid := t.TID()
		for _, lock := range t.LockIdentifiers {
			owner, ok := lockOwner[lock]
			if !ok || owner == tid {
				continue
			}
			other, ok := byTID[owner]
			if !ok {
				continue
			}
			for _, ol := range other.LockIdentifiers {
				if lockOwner[ol] == tid {
					count++
					break
				}
			}
		}
	}
	return count
}

// waitEdge is an edge of the wait-for graph: from waits for lock held by to.
type waitEdge struct {
	to   int
	lock string
}

// buildWaitForGraph links each thread waiting for a lock to the last thread
// holding it.
func buildWaitForGraph(threads []*model.ThreadRecord) [][]waitEdge {
	holder := make(map[string]int)
	for i, t := range threads {
		for _, ref := range t.LockRefs {
			if ref.Relation == model.LockRelationHeld {
				holder[ref.Token] = i
			}
		}
	}

	graph := make([][]waitEdge, len(threads))
	for i, t := range threads {
		seen := make(map[int]bool)
		for _, ref := range t.LockRefs {
			if ref.Relation != model.LockRelationWaitingFor {
				continue
			}
			h, ok := holder[ref.Token]
			if !ok || h == i || seen[h] {
				continue
			}
			seen[h] = true
			graph[i] = append(graph[i], waitEdge{to: h, lock: ref.Token})
		}
	}
	return graph
}

const (
	white = iota
	gray
	black
)

// DetectDeadlockCycles finds cycles in the wait-for graph with a tri-color
// depth-first search. Each distinct cycle is reported once, starting from
// the thread that appears first in the input.
func DetectDeadlockCycles(threads []*model.ThreadRecord) []model.DeadlockCycle {
	graph := buildWaitForGraph(threads)
	color := make([]int, len(threads))
	cycles := make([]model.DeadlockCycle, 0)
	seen := make(map[string]bool)

	var stack []int
	var stackLocks []string

	var visit func(u int)
	visit = func(u int) {
		color[u] = gray
		stack = append(stack, u)

		for _, e := range graph[u] {
			switch color[e.to] {
			case white:
				stackLocks = append(stackLocks, e.lock)
				visit(e.to)
				stackLocks = stackLocks[:len(stackLocks)-1]
			case gray:
				start := indexOf(stack, e.to)
				nodes := append([]int(nil), stack[start:]...)
				locks := append(append([]string(nil), stackLocks[start:]...), e.lock)
				addCycle(threads, nodes, locks, seen, &cycles)
			}
		}

		stack = stack[:len(stack)-1]
		color[u] = black
	}

	for i := range threads {
		if color[i] == white {
			visit(i)
		}
	}
	return cycles
}

func indexOf(stack []int, v int) int {
	for i, n := range stack {
		if n == v {
			return i
		}
	}
	return -1
}

// addCycle rotates the cycle to start at its lowest index and records it
// unless already seen. locks[i] is the lock nodes[i] waits for.
func addCycle(threads []*model.ThreadRecord, nodes []int, locks []string, seen map[string]bool, cycles *[]model.DeadlockCycle) {
	minPos := 0
	for i, n := range nodes {
		if n < nodes[minPos] {
			minPos = i
		}
	}

	cycle := model.DeadlockCycle{
		Threads: make([]string, 0, len(nodes)),
		Locks:   make([]string, 0, len(locks)),
	}
	keyParts := make([]string, 0, len(nodes))
	for i := range nodes {
		pos := (minPos + i) % len(nodes)
		cycle.Threads = append(cycle.Threads, threads[nodes[pos]].Name)
		cycle.Locks = append(cycle.Locks, locks[pos])
		keyParts = append(keyParts, strconv.Itoa(nodes[pos]))
	}

	key := strings.Join(keyParts, ",")
	if seen[key] {
		return
	}
	seen[key] = true
	*cycles = append(*cycles, cycle)
}

// FindLockContention lists locks that are held by one thread and waited for
// by others, most contended first.
func FindLockContention(threads []*model.ThreadRecord) []model.LockContention {
	holder := make(map[string]string)
	waiters := make(map[string][]string)
	var order []string

	for _, t := range threads {
		for _, ref := range t.LockRefs {
			switch ref.Relation {
			case model.LockRelationHeld:
				holder[ref.Token] = t.Name
			case model.LockRelationWaitingFor:
				if _, ok := waiters[ref.Token]; !ok {
					order = append(order, ref.Token)
				}
				waiters[ref.Token] = append(waiters[ref.Token], t.Name)
			}
		}
	}

	result := make([]model.LockContention, 0)
	for _, token := range order {
		h, ok := holder[token]
		if !ok {
			continue
		}
		var ws []string
		for _, w := range waiters[token] {
			if w != h {
				ws = append(ws, w)
			}
		}
		if len(ws) == 0 {
			continue
		}
		result = append(result, model.LockContention{
			Token:   token,
			Holder:  h,
			Waiters: ws,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if len(result[i].Waiters) != len(result[j].Waiters) {
			return len(result[i].Waiters) > len(result[j].Waiters)
		}
		return result[i].Token < result[j].Token
	})
	return result
}
