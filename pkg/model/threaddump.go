package model

// ThreadState is the execution state of a thread as reported by the JVM,
// plus the derived STUCKED and DEADLOCK states.
type ThreadState string

const (
	ThreadStateRunnable     ThreadState = "RUNNABLE"
	ThreadStateWaiting      ThreadState = "WAITING"
	ThreadStateTimedWaiting ThreadState = "TIMED_WAITING"
	ThreadStateBlocked      ThreadState = "BLOCKED"
	ThreadStateStucked      ThreadState = "STUCKED"  // derived from a [STUCK] header
	ThreadStateDeadlock     ThreadState = "DEADLOCK" // derived, never printed by the JVM
	ThreadStateUnknown      ThreadState = "UNKNOWN"
)

// String returns the state name.
func (s ThreadState) String() string {
	return string(s)
}

// IsKnown reports whether s is one of the enumerated states.
func (s ThreadState) IsKnown() bool {
	switch s {
	case ThreadStateRunnable, ThreadStateWaiting, ThreadStateTimedWaiting,
		ThreadStateBlocked, ThreadStateStucked, ThreadStateDeadlock, ThreadStateUnknown:
		return true
	default:
		return false
	}
}

// CountKey returns the key under which s is counted in Summary.ThreadStates.
// Unrecognized state names are counted as UNKNOWN.
func (s ThreadState) CountKey() string {
	if s.IsKnown() {
		return string(s)
	}
	return string(ThreadStateUnknown)
}

// IsWaiting reports whether s is WAITING or TIMED_WAITING.
func (s ThreadState) IsWaiting() bool {
	return s == ThreadStateWaiting || s == ThreadStateTimedWaiting
}

// LockRelation describes how a thread references a lock token.
type LockRelation string

const (
	LockRelationHeld       LockRelation = "held"
	LockRelationWaitingFor LockRelation = "waiting_for"
	LockRelationWaitingOn  LockRelation = "waiting_on"
	LockRelationUnknown    LockRelation = "unknown"
)

// LockRef is a single lock token reference tagged with its relation.
type LockRef struct {
	Token    string       `json:"token"`
	Relation LockRelation `json:"relation"`
}

// ThreadRecord is one parsed thread of a dump.
type ThreadRecord struct {
	Name             string      `json:"name"`
	ThreadID         *string     `json:"threadId"`
	NativeID         *string     `json:"nativeId"`
	Daemon           bool        `json:"daemon"`
	Priority         *int        `json:"priority"`
	State            ThreadState `json:"state"`
	StackFrames      []string    `json:"stackFrames"`
	LockIdentifiers  []string    `json:"lockIdentifiers"`
	RawTrailingTrace string      `json:"rawTrailingTrace"`
	LockRefs         []LockRef   `json:"lockRefs"`
}

// HasThreadID reports whether the header carried a tid.
func (t *ThreadRecord) HasThreadID() bool {
	return t.ThreadID != nil
}

// TID returns the thread id or an empty string when absent.
func (t *ThreadRecord) TID() string {
	if t.ThreadID == nil {
		return ""
	}
	return *t.ThreadID
}

// ReferencesLock reports whether token appears in the thread's lock identifiers.
func (t *ThreadRecord) ReferencesLock(token string) bool {
	for _, l := range t.LockIdentifiers {
		if l == token {
			return true
		}
	}
	return false
}

// LocksWithRelation returns the tokens referenced with the given relation, in order.
func (t *ThreadRecord) LocksWithRelation(rel LockRelation) []string {
	var tokens []string
	for _, ref := range t.LockRefs {
		if ref.Relation == rel {
			tokens = append(tokens, ref.Token)
		}
	}
	return tokens
}

// TimelinePoint is one point of a placeholder metric series.
type TimelinePoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// DeadlockCycle is one distinct cycle of the wait-for graph.
type DeadlockCycle struct {
	Threads []string `json:"threads"`
	Locks   []string `json:"locks"`
}

// LockContention lists the waiters of a lock that some thread holds.
type LockContention struct {
	Token   string   `json:"token"`
	Holder  string   `json:"holder"`
	Waiters []string `json:"waiters"`
}

// Summary is the aggregate result of analyzing one thread dump.
//
// The bucket slices reference the same records as Threads.
type Summary struct {
	TotalThreads          int            `json:"totalThreads"`
	Deadlocks             int            `json:"deadlocks"`
	BlockedThreads        int            `json:"blockedThreads"`
	TotalDaemonThreads    int            `json:"totalDaemonThreads"`
	TotalNonDaemonThreads int            `json:"totalNonDaemonThreads"`
	TotalRunnableThreads  int            `json:"totalRunnableThreads"`
	ThreadStates          map[string]int `json:"threadStates"`

	RunnableThreads       []*ThreadRecord `json:"runnableThreads"`
	WaitingBlockedThreads []*ThreadRecord `json:"waitingBlockedThreads"`
	DeadlockedThreads     []*ThreadRecord `json:"deadlockedThreads"`
	StuckThreads          []*ThreadRecord `json:"stuckThreads"`
	DaemonThreads         []*ThreadRecord `json:"daemonThreads"`
	NonDaemonThreads      []*ThreadRecord `json:"nonDaemonThreads"`
	Threads               []*ThreadRecord `json:"threads"`

	// Placeholder metrics. These are fixed constants and are not derived
	// from the dump.
	CPUUsage             float64         `json:"cpuUsage"`
	AvgResponseTime      float64         `json:"avgResponseTime"`
	CPUTimeline          []TimelinePoint `json:"cpuTimeline"`
	MemoryTimeline       []TimelinePoint `json:"memoryTimeline"`
	ThreadTimeline       []TimelinePoint `json:"threadTimeline"`
	ResponseTimeTimeline []TimelinePoint `json:"responseTimeTimeline"`

	DeadlockCycles []DeadlockCycle  `json:"deadlockCycles"`
	LockContention []LockContention `json:"lockContention"`
}

// NewSummary returns a zeroed summary with empty, non-nil buckets.
func NewSummary() *Summary {
	return &Summary{
		ThreadStates:          make(map[string]int),
		RunnableThreads:       make([]*ThreadRecord, 0),
		WaitingBlockedThreads: make([]*ThreadRecord, 0),
		DeadlockedThreads:     make([]*ThreadRecord, 0),
		StuckThreads:          make([]*ThreadRecord, 0),
		DaemonThreads:         make([]*ThreadRecord, 0),
		NonDaemonThreads:      make([]*ThreadRecord, 0),
		Threads:               make([]*ThreadRecord, 0),
		DeadlockCycles:        make([]DeadlockCycle, 0),
		LockContention:        make([]LockContention, 0),
	}
}

// CountState returns the number of threads counted under state.
func (s *Summary) CountState(state ThreadState) int {
	return s.ThreadStates[string(state)]
}
