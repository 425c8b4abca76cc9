package templates

import "testing"

func TestGetPreset_KnownIndustries(t *testing.T) {
	for _, industry := range []string{"retail", "healthcare", "hospitality", "general"} {
		preset, ok := GetPreset(industry)
		if !ok {
			t.Fatalf("预设 %s 应存在", industry)
		}
		if preset.Template == nil {
			t.Fatalf("预设 %s 缺少模板", industry)
		}
		if issues := preset.Template.Validate(); len(issues) > 0 {
			t.Errorf("预设 %s 模板校验失败: %+v", industry, issues)
		}
		// ApplyDefaults 之后每周七天都应有配置
		if len(preset.Template.OperatingWindows) != 7 {
			t.Errorf("预设 %s 应配置7天，got %d", industry, len(preset.Template.OperatingWindows))
		}
	}
}

func TestGetPreset_Unknown(t *testing.T) {
	if _, ok := GetPreset("mining"); ok {
		t.Error("未知行业不应返回预设")
	}
}

func TestGetPreset_ReturnsCopy(t *testing.T) {
	first, _ := GetPreset("retail")
	first.Template.Name = "修改过的名字"
	first.Template.OperatingWindows[0].MinStaff = 99

	second, _ := GetPreset("retail")
	if second.Template.Name == "修改过的名字" {
		t.Error("预设应返回深拷贝，修改不应影响后续获取")
	}
	if second.Template.OperatingWindows[0].MinStaff == 99 {
		t.Error("营业窗口应为深拷贝")
	}
}

func TestListIndustries(t *testing.T) {
	industries := ListIndustries()
	if len(industries) != 4 {
		t.Fatalf("应支持4个行业，got %d", len(industries))
	}
}
