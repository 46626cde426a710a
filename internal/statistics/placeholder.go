package statistics

import "github.com/threaddump-analysis/pkg/model"

// Placeholder metrics. These are fixed illustrative values, not measured
// from the dump, and must stay byte-stable.
const (
	PlaceholderCPUUsage        = 42.5
	PlaceholderAvgResponseTime = 120.0
)

var (
	placeholderCPUTimeline = []model.TimelinePoint{
		{Time: "00:00", Value: 35}, {Time: "00:05", Value: 42}, {Time: "00:10", Value: 38},
		{Time: "00:15", Value: 51}, {Time: "00:20", Value: 47}, {Time: "00:25", Value: 42.5},
	}
	placeholderMemoryTimeline = []model.TimelinePoint{
		{Time: "00:00", Value: 512}, {Time: "00:05", Value: 548}, {Time: "00:10", Value: 530},
		{Time: "00:15", Value: 602}, {Time: "00:20", Value: 587}, {Time: "00:25", Value: 575},
	}
	placeholderThreadTimeline = []model.TimelinePoint{
		{Time: "00:00", Value: 48}, {Time: "00:05", Value: 52}, {Time: "00:10", Value: 50},
		{Time: "00:15", Value: 61}, {Time: "00:20", Value: 58}, {Time: "00:25", Value: 55},
	}
	placeholderResponseTimeTimeline = []model.TimelinePoint{
		{Time: "00:00", Value: 95}, {Time: "00:05", Value: 110}, {Time: "00:10", Value: 102},
		{Time: "00:15", Value: 140}, {Time: "00:20", Value: 131}, {Time: "00:25", Value: 120},
	}
)

func copyTimeline(points []model.TimelinePoint) []model.TimelinePoint {
	out := make([]model.TimelinePoint, len(points))
	copy(out, points)
	return out
}

// applyPlaceholders sets the placeholder metrics on s using fresh slices.
func applyPlaceholders(s *model.Summary) {
	s.CPUUsage = PlaceholderCPUUsage
	s.AvgResponseTime = PlaceholderAvgResponseTime
	s.CPUTimeline = copyTimeline(placeholderCPUTimeline)
	s.MemoryTimeline = copyTimeline(placeholderMemoryTimeline)
	s.ThreadTimeline = copyTimeline(placeholderThreadTimeline)
	s.ResponseTimeTimeline = copyTimeline(placeholderResponseTimeTimeline)
}
