package engine

import (
	"testing"

	"github.com/nextera/workforce/pkg/engine/analyzer"
	"github.com/nextera/workforce/pkg/errors"
)

func TestRun_HappyPath(t *testing.T) {
	r := NewRun()

	if r.State() != StateIdle {
		t.Fatalf("初始状态应为 idle，got %s", r.State())
	}

	mustOK(t, r.StartAnalysis())
	mustOK(t, r.CompleteAnalysis(cleanResult()))
	if r.State() != StateClean {
		t.Fatalf("无冲突应进入 clean，got %s", r.State())
	}

	mustOK(t, r.Proceed())
	mustOK(t, r.CompleteGeneration())
	if r.State() != StatePreviewing {
		t.Fatalf("生成后应进入 previewing，got %s", r.State())
	}

	mustOK(t, r.Publish())
	if r.State() != StatePublished {
		t.Fatalf("发布后应进入 published，got %s", r.State())
	}

	mustOK(t, r.Reset())
	if r.State() != StateIdle {
		t.Fatalf("Reset 后应回到 idle，got %s", r.State())
	}
}

func TestRun_FixingLoop(t *testing.T) {
	r := NewRun()

	mustOK(t, r.StartAnalysis())
	mustOK(t, r.CompleteAnalysis(conflictedResult(true)))
	if r.State() != StateConflicted {
		t.Fatalf("有冲突应进入 conflicted，got %s", r.State())
	}

	mustOK(t, r.BeginFixing())
	if r.FixRounds() != 1 {
		t.Errorf("修复轮数应为1，got %d", r.FixRounds())
	}
	mustOK(t, r.CompleteFixing())
	if r.State() != StateAnalyzing {
		t.Fatalf("修复后应回到 analyzing，got %s", r.State())
	}

	mustOK(t, r.CompleteAnalysis(cleanResult()))
	mustOK(t, r.Proceed())
}

func TestRun_FixRoundsCapped(t *testing.T) {
	r := NewRun(WithMaxFixRounds(2))

	for i := 0; i < 2; i++ {
		mustOK(t, r.StartAnalysis())
		mustOK(t, r.CompleteAnalysis(conflictedResult(true)))
		mustOK(t, r.BeginFixing())
		mustOK(t, r.CompleteFixing())
		mustOK(t, r.CompleteAnalysis(conflictedResult(true)))
		mustOK(t, r.Abandon())
	}

	// 注意 Abandon 会清零轮数，上限在单次流程内生效
	mustOK(t, r.StartAnalysis())
	mustOK(t, r.CompleteAnalysis(conflictedResult(true)))
	mustOK(t, r.BeginFixing())
	mustOK(t, r.CompleteFixing())
	mustOK(t, r.CompleteAnalysis(conflictedResult(true)))
	mustOK(t, r.BeginFixing())
	mustOK(t, r.CompleteFixing())
	mustOK(t, r.CompleteAnalysis(conflictedResult(true)))

	if err := r.BeginFixing(); err == nil {
		t.Fatal("超过轮数上限应拒绝继续修复")
	}
}

func TestRun_ProceedWithWarnings(t *testing.T) {
	r := NewRun()

	mustOK(t, r.StartAnalysis())
	mustOK(t, r.CompleteAnalysis(conflictedResult(true))) // 仅警告
	mustOK(t, r.Proceed())
	if r.State() != StateGenerating {
		t.Fatalf("CanProceed 时应允许带警告继续，got %s", r.State())
	}
}

func TestRun_ProceedBlockedByCritical(t *testing.T) {
	r := NewRun()

	mustOK(t, r.StartAnalysis())
	mustOK(t, r.CompleteAnalysis(conflictedResult(false))) // 有 critical

	err := r.Proceed()
	if err == nil {
		t.Fatal("存在 critical 冲突时不应允许继续")
	}
	if !errors.Is(err, errors.CodeInvalidTransition) {
		t.Errorf("应返回非法转换错误，got %v", err)
	}
}

func TestRun_ProceedBlockedByPolicy(t *testing.T) {
	deny := func(result *analyzer.ConflictAnalysisResult) bool { return false }
	r := NewRun(WithProceedPolicy(deny))

	mustOK(t, r.StartAnalysis())
	mustOK(t, r.CompleteAnalysis(conflictedResult(true)))

	if err := r.Proceed(); err == nil {
		t.Fatal("放行策略拒绝时不应允许继续")
	}
}

func TestRun_InvalidTransitions(t *testing.T) {
	r := NewRun()

	if err := r.Publish(); err == nil {
		t.Error("idle 状态不应允许发布")
	}
	if err := r.CompleteGeneration(); err == nil {
		t.Error("idle 状态不应允许完成生成")
	}
	if err := r.Reset(); err == nil {
		t.Error("非终态不应允许 Reset")
	}
	if err := r.Abandon(); err == nil {
		t.Error("idle 状态不应允许 Abandon")
	}
}

func TestRun_Discard(t *testing.T) {
	r := NewRun()

	mustOK(t, r.StartAnalysis())
	mustOK(t, r.CompleteAnalysis(cleanResult()))
	mustOK(t, r.Proceed())
	mustOK(t, r.CompleteGeneration())
	mustOK(t, r.Discard())

	if r.State() != StateDiscarded {
		t.Fatalf("放弃后应进入 discarded，got %s", r.State())
	}
	mustOK(t, r.Reset())
}

// 辅助函数

func mustOK(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("意外的转换错误: %v", err)
	}
}

func cleanResult() *analyzer.ConflictAnalysisResult {
	return &analyzer.ConflictAnalysisResult{CanProceed: true}
}

// conflictedResult 构造带冲突的分析结果；canProceed=true 表示仅警告
func conflictedResult(canProceed bool) *analyzer.ConflictAnalysisResult {
	severity := analyzer.SeverityCritical
	critical := 1
	if canProceed {
		severity = analyzer.SeverityWarning
		critical = 0
	}
	return &analyzer.ConflictAnalysisResult{
		Conflicts:            []analyzer.Conflict{{Type: "test", Severity: severity}},
		ConflictCount:        1,
		CriticalCount:        critical,
		HasCriticalConflicts: critical > 0,
		CanProceed:           canProceed,
	}
}
