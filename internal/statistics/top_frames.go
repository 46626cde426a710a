package statistics

import (
	"sort"

	"github.com/threaddump-analysis/pkg/model"
)

// TopFramesCalculator ranks the frames threads are currently executing.
type TopFramesCalculator struct {
	topN       int
	minThreads int
}

// TopFramesOption configures the TopFramesCalculator.
type TopFramesOption func(*TopFramesCalculator)

// WithTopN sets the number of top frames to return.
func WithTopN(n int) TopFramesOption {
	return func(c *TopFramesCalculator) {
		c.topN = n
	}
}

// WithMinThreads drops frames shared by fewer threads.
func WithMinThreads(n int) TopFramesOption {
	return func(c *TopFramesCalculator) {
		c.minThreads = n
	}
}

// NewTopFramesCalculator creates a new TopFramesCalculator.
func NewTopFramesCalculator(opts ...TopFramesOption) *TopFramesCalculator {
	c := &TopFramesCalculator{
		topN:       15,
		minThreads: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TopFrameEntry is a frame with the threads currently in it.
type TopFrameEntry struct {
	Frame      string   `json:"frame"`
	Count      int      `json:"count"`
	Percentage float64  `json:"percentage"`
	Threads    []string `json:"threads"`
}

// TopFramesResult holds the calculation result.
type TopFramesResult struct {
	Frames       []TopFrameEntry `json:"frames"`
	TotalThreads int             `json:"total_threads"`
}

// Calculate groups threads by their innermost frame.
func (c *TopFramesCalculator) Calculate(threads []*model.ThreadRecord) *TopFramesResult {
	result := &TopFramesResult{
		Frames:       make([]TopFrameEntry, 0),
		TotalThreads: len(threads),
	}
	if len(threads) == 0 {
		return result
	}

	byFrame := make(map[string]*TopFrameEntry)
	var order []string
	for _, t := range threads {
		if len(t.StackFrames) == 0 {
			continue
		}
		frame := t.StackFrames[0]
		entry, ok := byFrame[frame]
		if !ok {
			entry = &TopFrameEntry{Frame: frame}
			byFrame[frame] = entry
			order = append(order, frame)
		}
		entry.Count++
		entry.Threads = append(entry.Threads, t.Name)
	}

	for _, frame := range order {
		entry := byFrame[frame]
		if entry.Count < c.minThreads {
			continue
		}
		entry.Percentage = float64(entry.Count) / float64(len(threads)) * 100
		result.Frames = append(result.Frames, *entry)
	}

	sort.SliceStable(result.Frames, func(i, j int) bool {
		return result.Frames[i].Count > result.Frames[j].Count
	})

	if c.topN > 0 && len(result.Frames) > c.topN {
		result.Frames = result.Frames[:c.topN]
	}
	return result
}

// GetFrame returns the entry for frame, or nil.
func (r *TopFramesResult) GetFrame(frame string) *TopFrameEntry {
	for i := range r.Frames {
		if r.Frames[i].Frame == frame {
			return &r.Frames[i]
		}
	}
	return nil
}
