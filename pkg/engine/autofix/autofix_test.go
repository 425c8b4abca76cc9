package autofix

import (
	"testing"

	"github.com/google/uuid"

	"github.com/nextera/workforce/pkg/engine/analyzer"
	"github.com/nextera/workforce/pkg/model"
)

func TestApply_ReduceMinStaff(t *testing.T) {
	tmpl := newTestTemplate()
	tmpl.Window(1).MinStaff = 3
	dow := 1

	e := New()
	result := e.Apply(tmpl, []analyzer.Suggestion{{
		Type:           "reduce_min_staff",
		Category:       analyzer.CategoryAutoFix,
		Priority:       analyzer.PriorityCritical,
		AutoFixable:    true,
		DayOfWeek:      &dow,
		CurrentValue:   3,
		SuggestedValue: 2,
	}})

	if result.FixCount != 1 {
		t.Fatalf("应应用1个修复，got %d", result.FixCount)
	}
	if result.Template.Window(1).MinStaff != 2 {
		t.Errorf("副本周一最少人数应为2，got %d", result.Template.Window(1).MinStaff)
	}
	// 原模板不被修改
	if tmpl.Window(1).MinStaff != 3 {
		t.Errorf("原模板不应被修改，got %d", tmpl.Window(1).MinStaff)
	}
}

func TestApply_Idempotent(t *testing.T) {
	tmpl := newTestTemplate()
	tmpl.Window(1).MinStaff = 3
	dow := 1

	suggestions := []analyzer.Suggestion{{
		Type:           "reduce_min_staff",
		Category:       analyzer.CategoryAutoFix,
		Priority:       analyzer.PriorityCritical,
		AutoFixable:    true,
		DayOfWeek:      &dow,
		CurrentValue:   3,
		SuggestedValue: 2,
	}}

	e := New()
	first := e.Apply(tmpl, suggestions)
	if first.FixCount != 1 {
		t.Fatalf("首次应用应生效，got %d", first.FixCount)
	}

	// 在已修复的模板上重复应用同一批建议，结果应为0
	second := e.Apply(first.Template, suggestions)
	if second.FixCount != 0 {
		t.Errorf("重复应用 fix_count 应为0，got %d", second.FixCount)
	}
}

func TestApply_StaleSuggestionSkipped(t *testing.T) {
	tmpl := newTestTemplate()
	tmpl.Window(1).MinStaff = 5 // 分析后字段已被改动
	dow := 1

	e := New()
	result := e.Apply(tmpl, []analyzer.Suggestion{{
		Type:           "reduce_min_staff",
		Category:       analyzer.CategoryAutoFix,
		Priority:       analyzer.PriorityCritical,
		AutoFixable:    true,
		DayOfWeek:      &dow,
		CurrentValue:   3, // 与当前值5不符
		SuggestedValue: 2,
	}})

	if result.FixCount != 0 {
		t.Errorf("过期建议应跳过，got %d", result.FixCount)
	}
	if result.Skipped != 1 {
		t.Errorf("应记录1个跳过，got %d", result.Skipped)
	}
	if result.Template.Window(1).MinStaff != 5 {
		t.Errorf("过期建议不应改动字段，got %d", result.Template.Window(1).MinStaff)
	}
}

func TestApply_EnableBusinessDays(t *testing.T) {
	tmpl := newTestTemplate()
	for i := range tmpl.OperatingWindows {
		tmpl.OperatingWindows[i].IsOpen = false
	}

	e := New()
	result := e.Apply(tmpl, []analyzer.Suggestion{{
		Type:           "enable_business_days",
		Category:       analyzer.CategoryAutoFix,
		Priority:       analyzer.PriorityCritical,
		AutoFixable:    true,
		SuggestedValue: []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
	}})

	if result.FixCount != 1 {
		t.Fatalf("应应用1个修复，got %d", result.FixCount)
	}
	if got := len(result.Template.OpenWindows()); got != 5 {
		t.Errorf("应启用5个营业日，got %d", got)
	}
	// 周末保持停业
	if result.Template.Window(0).IsOpen || result.Template.Window(6).IsOpen {
		t.Error("周末不应被启用")
	}
}

func TestApply_ManualSuggestionIgnored(t *testing.T) {
	tmpl := newTestTemplate()

	e := New()
	result := e.Apply(tmpl, []analyzer.Suggestion{{
		Type:        "add_manager_coverage",
		Category:    analyzer.CategoryManual,
		Priority:    analyzer.PriorityHigh,
		AutoFixable: false,
	}})

	if result.FixCount != 0 {
		t.Errorf("手动建议不应被应用，got %d", result.FixCount)
	}
}

func TestApply_PriorityOrder(t *testing.T) {
	tmpl := newTestTemplate()
	tmpl.MaxConsecutiveDays = 1
	tmpl.AllowOvertime = false

	e := New()
	result := e.Apply(tmpl, []analyzer.Suggestion{
		{
			Type:           "allow_overtime",
			Category:       analyzer.CategoryAutoFix,
			Priority:       analyzer.PriorityMedium,
			AutoFixable:    true,
			CurrentValue:   false,
			SuggestedValue: true,
		},
		{
			Type:           "increase_consecutive_limit",
			Category:       analyzer.CategoryAutoFix,
			Priority:       analyzer.PriorityCritical,
			AutoFixable:    true,
			CurrentValue:   1,
			SuggestedValue: 3,
		},
	})

	if result.FixCount != 2 {
		t.Fatalf("应应用2个修复，got %d", result.FixCount)
	}
	// critical 优先于 medium
	if result.AppliedFixes[0].Type != "increase_consecutive_limit" {
		t.Errorf("critical 建议应先应用，got %s", result.AppliedFixes[0].Type)
	}
	if result.Template.MaxConsecutiveDays != 3 {
		t.Errorf("最大连续天数应为3，got %d", result.Template.MaxConsecutiveDays)
	}
	if !result.Template.AllowOvertime {
		t.Error("应已开启允许加班")
	}
}

func TestApply_JSONNumericValues(t *testing.T) {
	// JSON 反序列化产生 float64，引擎应兼容
	tmpl := newTestTemplate()
	tmpl.Window(1).MinStaff = 3
	dow := 1

	e := New()
	result := e.Apply(tmpl, []analyzer.Suggestion{{
		Type:           "reduce_min_staff",
		Category:       analyzer.CategoryAutoFix,
		Priority:       analyzer.PriorityCritical,
		AutoFixable:    true,
		DayOfWeek:      &dow,
		CurrentValue:   float64(3),
		SuggestedValue: float64(2),
	}})

	if result.FixCount != 1 {
		t.Fatalf("float64 数值应被接受，got %d", result.FixCount)
	}
	if result.Template.Window(1).MinStaff != 2 {
		t.Errorf("周一最少人数应为2，got %d", result.Template.Window(1).MinStaff)
	}
}

// newTestTemplate 周一至周五营业的基础模板
func newTestTemplate() *model.ConstraintTemplate {
	tmpl := &model.ConstraintTemplate{
		BaseModel: model.BaseModel{ID: uuid.New()},
		Name:      "测试模板",
	}
	for day := 1; day <= 5; day++ {
		tmpl.OperatingWindows = append(tmpl.OperatingWindows, model.OperatingWindow{
			DayOfWeek: day,
			IsOpen:    true,
			OpenTime:  "09:00",
			CloseTime: "17:00",
			MinStaff:  1,
		})
	}
	tmpl.ApplyDefaults()
	return tmpl
}
