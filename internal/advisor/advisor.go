// Package advisor turns a thread dump summary into actionable suggestions.
package advisor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/threaddump-analysis/internal/statistics"
	"github.com/threaddump-analysis/pkg/model"
)

// Rule thresholds.
const (
	BlockedRatioThreshold    = 20.0
	HotLockWaiterThreshold   = 3
	ThreadCountThreshold     = 500
	JDBCDescribeThreshold    = 5
	HotFrameMinThreads       = 3
	HotFramePercentThreshold = 50.0
)

// Advisor generates analysis suggestions from a thread dump summary.
type Advisor struct {
	rules []Rule
}

// Rule represents a suggestion rule.
type Rule struct {
	Type        string
	Name        string
	Description string
	Threshold   float64
	Check       RuleCheckFunc
}

// RuleCheckFunc is a function that checks if a rule applies.
type RuleCheckFunc func(ctx *RuleContext) []model.Suggestion

// RuleContext provides context for rule checking.
type RuleContext struct {
	TaskType model.TaskType
	Summary  *model.Summary

	// TopFrames ranks the innermost frames of RUNNABLE threads.
	TopFrames *statistics.TopFramesResult
}

// NewRuleContext builds a context for summary, ranking the frames of its
// runnable threads.
func NewRuleContext(summary *model.Summary) *RuleContext {
	ctx := &RuleContext{
		TaskType: model.TaskTypeThreadDump,
		Summary:  summary,
	}
	if summary != nil {
		ctx.TopFrames = statistics.NewTopFramesCalculator(
			statistics.WithMinThreads(HotFrameMinThreads),
		).Calculate(summary.RunnableThreads)
	}
	return ctx
}

// NewAdvisor creates a new Advisor with default rules.
func NewAdvisor() *Advisor {
	return &Advisor{
		rules: defaultRules(),
	}
}

// NewAdvisorWithRules creates a new Advisor with custom rules.
func NewAdvisorWithRules(rules []Rule) *Advisor {
	return &Advisor{
		rules: rules,
	}
}

// Rules returns the configured rules.
func (a *Advisor) Rules() []Rule {
	return a.rules
}

// Advise generates suggestions based on the analysis context.
func (a *Advisor) Advise(ctx *RuleContext) []model.Suggestion {
	suggestions := make([]model.Suggestion, 0)
	if ctx == nil || ctx.Summary == nil {
		return suggestions
	}

	for _, rule := range a.rules {
		if rule.Check != nil {
			suggestions = append(suggestions, rule.Check(ctx)...)
		}
	}

	return suggestions
}

func defaultRules() []Rule {
	return []Rule{
		{
			Type:        "deadlock",
			Name:        "deadlock_detected",
			Description: "Check for lock cycles and heuristic deadlocks",
			Threshold:   1,
			Check:       checkDeadlock,
		},
		{
			Type:        "stuck",
			Name:        "stuck_threads",
			Description: "Check for threads flagged [STUCK]",
			Threshold:   1,
			Check:       checkStuckThreads,
		},
		{
			Type:        "blocked",
			Name:        "high_blocked_ratio",
			Description: "Check for a high share of BLOCKED threads",
			Threshold:   BlockedRatioThreshold,
			Check:       checkBlockedRatio,
		},
		{
			Type:        "lock",
			Name:        "hot_lock",
			Description: "Check for locks with many waiters",
			Threshold:   HotLockWaiterThreshold,
			Check:       checkHotLock,
		},
		{
			Type:        "thread",
			Name:        "high_thread_count",
			Description: "Check for an unusually large number of threads",
			Threshold:   ThreadCountThreshold,
			Check:       checkThreadCount,
		},
		{
			Type:        "jdbc",
			Name:        "jdbc_describe_wait",
			Description: "Check for many threads waiting in JDBC statement describe",
			Threshold:   JDBCDescribeThreshold,
			Check:       checkJDBCDescribe,
		},
		{
			Type:        "cpu",
			Name:        "hot_frame",
			Description: "Check for runnable threads piling up in the same frame",
			Threshold:   HotFramePercentThreshold,
			Check:       checkHotFrame,
		},
	}
}

func checkDeadlock(ctx *RuleContext) []model.Suggestion {
	suggestions := make([]model.Suggestion, 0)
	s := ctx.Summary

	for _, cycle := range s.DeadlockCycles {
		if len(cycle.Threads) == 0 {
			continue
		}
		path := append(append([]string{}, cycle.Threads...), cycle.Threads[0])
		suggestions = append(suggestions, model.NewSuggestionBuilder().
			WithType("deadlock").
			WithSeverity(model.SeverityCritical).
			WithSuggestion("检测到死锁：" + strings.Join(path, " -> ") +
				"，涉及锁 " + strings.Join(cycle.Locks, ", ") + "，建议统一加锁顺序或使用带超时的tryLock").
			WithThreads(cycle.Threads).
			Build())
	}

	if len(s.DeadlockCycles) == 0 && s.Deadlocks > 0 {
		suggestions = append(suggestions, model.NewSuggestionBuilder().
			WithType("deadlock").
			WithSeverity(model.SeverityCritical).
			WithSuggestion("检测到 " + strconv.Itoa(s.Deadlocks) + " 处疑似死锁（同一线程ID出现交叉持锁），建议检查是否为多次dump拼接并核对加锁顺序").
			Build())
	}

	return suggestions
}

func checkStuckThreads(ctx *RuleContext) []model.Suggestion {
	stuck := ctx.Summary.StuckThreads
	if len(stuck) == 0 {
		return nil
	}

	return []model.Suggestion{model.NewSuggestionBuilder().
		WithType("stuck_thread").
		WithSeverity(model.SeverityWarning).
		WithSuggestion(strconv.Itoa(len(stuck)) + " 个线程被标记为[STUCK]，建议检查长时间运行的请求或外部调用超时设置").
		WithThreads(threadNames(stuck)).
		Build()}
}

func checkBlockedRatio(ctx *RuleContext) []model.Suggestion {
	s := ctx.Summary
	if s.BlockedThreads < 1 || s.TotalThreads == 0 {
		return nil
	}

	ratio := float64(s.BlockedThreads) / float64(s.TotalThreads) * 100
	if ratio <= BlockedRatioThreshold {
		return nil
	}

	return []model.Suggestion{model.NewSuggestionBuilder().
		WithType("blocked_threads").
		WithSeverity(model.SeverityWarning).
		WithSuggestion("BLOCKED线程占比较高(" + formatPercent(ratio) + "%，共 " +
			strconv.Itoa(s.BlockedThreads) + " 个)，建议检查synchronized代码块的锁粒度").
		Build()}
}

func checkHotLock(ctx *RuleContext) []model.Suggestion {
	suggestions := make([]model.Suggestion, 0)

	for _, lc := range ctx.Summary.LockContention {
		if len(lc.Waiters) < HotLockWaiterThreshold {
			continue
		}
		suggestions = append(suggestions, model.NewSuggestionBuilder().
			WithType("lock_contention").
			WithSeverity(model.SeverityWarning).
			WithSuggestion(fmt.Sprintf("锁 %s 被线程 %s 持有，另有 %d 个线程在等待，建议缩小临界区或拆分锁",
				lc.Token, lc.Holder, len(lc.Waiters))).
			WithThreads(lc.Waiters).
			Build())
	}

	return suggestions
}

func checkThreadCount(ctx *RuleContext) []model.Suggestion {
	total := ctx.Summary.TotalThreads
	if total <= ThreadCountThreshold {
		return nil
	}

	return []model.Suggestion{model.NewSuggestionBuilder().
		WithType("thread_count").
		WithSeverity(model.SeverityInfo).
		WithSuggestion("线程总数较多(" + strconv.Itoa(total) + ")，建议检查线程池配置是否合理，是否存在线程泄漏").
		Build()}
}

func checkJDBCDescribe(ctx *RuleContext) []model.Suggestion {
	var names []string
	for _, t := range ctx.Summary.Threads {
		for _, frame := range t.StackFrames {
			if strings.Contains(frame, "doDescribe") {
				names = append(names, t.Name)
				break
			}
		}
	}
	if len(names) < JDBCDescribeThreshold {
		return nil
	}

	return []model.Suggestion{model.NewSuggestionBuilder().
		WithType("jdbc_wait").
		WithSeverity(model.SeverityWarning).
		WithSuggestion(strconv.Itoa(len(names)) + " 个线程阻塞在JDBC语句描述(doDescribe)，建议检查数据库响应时间及语句缓存配置").
		WithFunc("doDescribe").
		WithThreads(names).
		Build()}
}

func checkHotFrame(ctx *RuleContext) []model.Suggestion {
	suggestions := make([]model.Suggestion, 0)
	if ctx.TopFrames == nil {
		return suggestions
	}

	for _, entry := range ctx.TopFrames.Frames {
		if entry.Count < HotFrameMinThreads || entry.Percentage < HotFramePercentThreshold {
			continue
		}
		suggestions = append(suggestions, model.NewSuggestionBuilder().
			WithType("hot_frame").
			WithSeverity(model.SeverityInfo).
			WithSuggestion("函数 " + entry.Frame + " 上有 " + strconv.Itoa(entry.Count) +
				" 个运行中线程(" + formatPercent(entry.Percentage) + "%)，可能是热点代码").
			WithFunc(entry.Frame).
			WithThreads(entry.Threads).
			Build())
	}

	return suggestions
}

func threadNames(threads []*model.ThreadRecord) []string {
	names := make([]string, 0, len(threads))
	for _, t := range threads {
		names = append(names, t.Name)
	}
	return names
}

// formatPercent formats a percentage with up to 2 decimals, without trailing zeros.
func formatPercent(pct float64) string {
	s := strconv.FormatFloat(pct, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
