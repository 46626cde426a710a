package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Stage is one timed step of a pipeline run.
type Stage struct {
	Name     string
	Duration time.Duration
}

// Timer records the duration of sequential pipeline stages.
type Timer struct {
	mu     sync.Mutex
	name   string
	clock  Clock
	stages []Stage
}

// TimerOption configures a Timer.
type TimerOption func(*Timer)

// WithClock sets the clock used for measurements.
func WithClock(clock Clock) TimerOption {
	return func(t *Timer) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// NewTimer creates a new Timer.
func NewTimer(name string, opts ...TimerOption) *Timer {
	t := &Timer{
		name:  name,
		clock: NewRealClock(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Time runs fn as stage name and records its duration, even when fn fails.
func (t *Timer) Time(name string, fn func() error) error {
	start := t.clock.Now()
	err := fn()
	t.record(name, t.clock.Since(start))
	return err
}

func (t *Timer) record(name string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stages = append(t.stages, Stage{Name: name, Duration: d})
}

// Stages returns a copy of the recorded stages in execution order.
func (t *Timer) Stages() []Stage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Stage, len(t.stages))
	copy(out, t.stages)
	return out
}

// Total returns the sum of all stage durations.
func (t *Timer) Total() time.Duration {
	var total time.Duration
	for _, s := range t.Stages() {
		total += s.Duration
	}
	return total
}

// ToMap returns stage durations in milliseconds, keyed by stage name.
func (t *Timer) ToMap() map[string]int64 {
	stages := t.Stages()
	m := make(map[string]int64, len(stages)+1)
	for _, s := range stages {
		m[s.Name] += s.Duration.Milliseconds()
	}
	m["total"] = t.Total().Milliseconds()
	return m
}

// Summary renders the stages as a single line, e.g. "analyze: parse=3ms summarize=1ms total=4ms".
func (t *Timer) Summary() string {
	var sb strings.Builder
	sb.WriteString(t.name)
	sb.WriteString(":")
	for _, s := range t.Stages() {
		fmt.Fprintf(&sb, " %s=%s", s.Name, s.Duration.Round(time.Microsecond))
	}
	fmt.Fprintf(&sb, " total=%s", t.Total().Round(time.Microsecond))
	return sb.String()
}

// Log writes the summary to logger at debug level.
func (t *Timer) Log(logger Logger) {
	if logger == nil {
		return
	}
	logger.Debug("%s", t.Summary())
}
