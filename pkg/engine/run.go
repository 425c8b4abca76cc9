// Package engine 编排排班流程：分析、修复、生成、预览、发布
package engine

import (
	"sync"

	"github.com/nextera/workforce/pkg/engine/analyzer"
	"github.com/nextera/workforce/pkg/errors"
)

// State 排班流程状态
type State string

const (
	StateIdle       State = "idle"
	StateAnalyzing  State = "analyzing"
	StateConflicted State = "conflicted"
	StateClean      State = "clean"
	StateFixing     State = "fixing"
	StateGenerating State = "generating"
	StatePreviewing State = "previewing"
	StatePublished  State = "published"
	StateDiscarded  State = "discarded"
)

// DefaultMaxFixRounds 自动修复循环的默认轮数上限
const DefaultMaxFixRounds = 5

// ProceedPolicy 决定冲突状态下是否允许带警告继续
// 仅在分析结果 CanProceed 为真时被询问。
type ProceedPolicy func(result *analyzer.ConflictAnalysisResult) bool

// AllowWarnings 默认策略：无 critical 冲突即放行
func AllowWarnings(result *analyzer.ConflictAnalysisResult) bool {
	return result != nil && result.CanProceed
}

// Run 一次排班流程的状态机
// 并发安全；终态（published/discarded）通过 Reset 回到 idle 复用。
type Run struct {
	mu            sync.Mutex
	state         State
	fixRounds     int
	maxFixRounds  int
	proceedPolicy ProceedPolicy
	analysis      *analyzer.ConflictAnalysisResult
}

// Option 状态机配置项
type Option func(*Run)

// WithMaxFixRounds 设置修复循环轮数上限
func WithMaxFixRounds(n int) Option {
	return func(r *Run) {
		if n > 0 {
			r.maxFixRounds = n
		}
	}
}

// WithProceedPolicy 设置带警告继续的放行策略
func WithProceedPolicy(p ProceedPolicy) Option {
	return func(r *Run) {
		if p != nil {
			r.proceedPolicy = p
		}
	}
}

// NewRun 创建流程状态机
func NewRun(opts ...Option) *Run {
	r := &Run{
		state:         StateIdle,
		maxFixRounds:  DefaultMaxFixRounds,
		proceedPolicy: AllowWarnings,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State 返回当前状态
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// FixRounds 返回已执行的修复轮数
func (r *Run) FixRounds() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fixRounds
}

// Analysis 返回最近一次分析结果
func (r *Run) Analysis() *analyzer.ConflictAnalysisResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.analysis
}

// StartAnalysis 开始冲突分析 (idle -> analyzing)
func (r *Run) StartAnalysis() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		return errors.InvalidTransition(string(r.state), "start_analysis")
	}
	r.state = StateAnalyzing
	return nil
}

// CompleteAnalysis 记录分析结果 (analyzing -> conflicted/clean)
func (r *Run) CompleteAnalysis(result *analyzer.ConflictAnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateAnalyzing {
		return errors.InvalidTransition(string(r.state), "complete_analysis")
	}
	r.analysis = result
	if result != nil && result.ConflictCount > 0 {
		r.state = StateConflicted
	} else {
		r.state = StateClean
	}
	return nil
}

// BeginFixing 进入自动修复 (conflicted -> fixing)
// 超过轮数上限后拒绝，强制转入手动处理。
func (r *Run) BeginFixing() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateConflicted {
		return errors.InvalidTransition(string(r.state), "begin_fixing")
	}
	if r.fixRounds >= r.maxFixRounds {
		return errors.New(errors.CodeConstraintViolation, "自动修复轮数已达上限，请手动处理剩余冲突").
			WithField("fix_rounds", r.fixRounds).
			WithField("max_fix_rounds", r.maxFixRounds)
	}
	r.fixRounds++
	r.state = StateFixing
	return nil
}

// CompleteFixing 修复结束，回到分析 (fixing -> analyzing)
func (r *Run) CompleteFixing() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateFixing {
		return errors.InvalidTransition(string(r.state), "complete_fixing")
	}
	r.state = StateAnalyzing
	return nil
}

// Proceed 进入候选生成 (clean -> generating；conflicted 仅当放行策略允许)
func (r *Run) Proceed() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateClean:
		r.state = StateGenerating
		return nil
	case StateConflicted:
		if r.analysis == nil || !r.analysis.CanProceed {
			return errors.InvalidTransition(string(r.state), "proceed").
				WithDetails("存在 critical 冲突，必须先解决")
		}
		if !r.proceedPolicy(r.analysis) {
			return errors.InvalidTransition(string(r.state), "proceed").
				WithDetails("放行策略拒绝带警告继续")
		}
		r.state = StateGenerating
		return nil
	default:
		return errors.InvalidTransition(string(r.state), "proceed")
	}
}

// CompleteGeneration 生成结束，进入预览 (generating -> previewing)
func (r *Run) CompleteGeneration() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateGenerating {
		return errors.InvalidTransition(string(r.state), "complete_generation")
	}
	r.state = StatePreviewing
	return nil
}

// Publish 发布预览结果 (previewing -> published)
func (r *Run) Publish() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePreviewing {
		return errors.InvalidTransition(string(r.state), "publish")
	}
	r.state = StatePublished
	return nil
}

// Discard 放弃预览结果 (previewing -> discarded)
func (r *Run) Discard() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePreviewing {
		return errors.InvalidTransition(string(r.state), "discard")
	}
	r.state = StateDiscarded
	return nil
}

// Abandon 中途放弃，回到 idle
// 终态不可放弃，只能 Reset。
func (r *Run) Abandon() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StatePublished, StateDiscarded, StateIdle:
		return errors.InvalidTransition(string(r.state), "abandon")
	}
	r.reset()
	return nil
}

// Reset 从终态回到 idle (published/discarded -> idle)
func (r *Run) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePublished && r.state != StateDiscarded {
		return errors.InvalidTransition(string(r.state), "reset")
	}
	r.reset()
	return nil
}

// reset 清空流程状态，调用方必须持锁
func (r *Run) reset() {
	r.state = StateIdle
	r.fixRounds = 0
	r.analysis = nil
}
