package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nextera/workforce/internal/config"
)

func newEngineMux(h *EngineHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/schedules/analyze-conflicts", h.AnalyzeConflicts)
	mux.HandleFunc("POST /api/v1/schedules/publish", h.Publish)
	mux.HandleFunc("POST /api/v1/schedules/apply-auto-fixes", h.ApplyAutoFixes)
	return mux
}

func newTestEngineHandler() *EngineHandler {
	return NewEngineHandler(nil, nil, nil, config.EngineConfig{
		RangeCapDays: 28,
		MaxFixRounds: 5,
	})
}

func TestEngineHandler_Analyze_MissingDates(t *testing.T) {
	mux := newEngineMux(newTestEngineHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules/analyze-conflicts", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("缺少日期应返回400，got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if body["code"] != "VALIDATION_FAILED" {
		t.Errorf("错误码应为VALIDATION_FAILED，got %v", body["code"])
	}
}

func TestEngineHandler_Analyze_InvalidDateRange(t *testing.T) {
	mux := newEngineMux(newTestEngineHandler())

	// 结束早于开始
	payload := `{"template_id":"00000000-0000-0000-0000-000000000001","start_date":"2026-01-20","end_date":"2026-01-12"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules/analyze-conflicts", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("非法日期范围应返回400，got %d", rec.Code)
	}
}

func TestEngineHandler_Publish_EmptyIDs(t *testing.T) {
	mux := newEngineMux(newTestEngineHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules/publish", strings.NewReader(`{"schedule_ids":[]}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("空班次列表应返回400，got %d", rec.Code)
	}
}

func TestEngineHandler_Publish_BadID(t *testing.T) {
	mux := newEngineMux(newTestEngineHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules/publish", strings.NewReader(`{"schedule_ids":["not-a-uuid"]}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("非法班次ID应返回400，got %d", rec.Code)
	}
}

func TestEngineHandler_ApplyFixes_EmptySuggestions(t *testing.T) {
	mux := newEngineMux(newTestEngineHandler())

	payload := `{"template_id":"00000000-0000-0000-0000-000000000001","suggestions":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedules/apply-auto-fixes", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("空建议列表应返回400，got %d", rec.Code)
	}
}
