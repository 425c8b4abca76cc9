package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTemplateMux(h *TemplateHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/templates", h.Create)
	mux.HandleFunc("GET /api/v1/templates/presets", h.PresetLibrary)
	mux.HandleFunc("GET /api/v1/templates/presets/{industry}", h.Presets)
	return mux
}

func TestTemplateHandler_Presets(t *testing.T) {
	mux := newTemplateMux(NewTemplateHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/templates/presets/retail", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("预设请求应返回200，got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if body["industry"] != "retail" {
		t.Errorf("行业应为retail，got %v", body["industry"])
	}
	if body["template"] == nil {
		t.Error("响应应包含模板")
	}
}

func TestTemplateHandler_Presets_Unknown(t *testing.T) {
	mux := newTemplateMux(NewTemplateHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/templates/presets/mining", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("未知行业应返回404，got %d", rec.Code)
	}
}

func TestTemplateHandler_PresetLibrary(t *testing.T) {
	mux := newTemplateMux(NewTemplateHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/templates/presets", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("预设库请求应返回200，got %d", rec.Code)
	}

	var body struct {
		Presets []json.RawMessage `json:"presets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if len(body.Presets) != 4 {
		t.Errorf("预设库应包含4个行业，got %d", len(body.Presets))
	}
}

func TestTemplateHandler_Create_ValidationFailure(t *testing.T) {
	mux := newTemplateMux(NewTemplateHandler(nil))

	// 缺少名称且开门晚于关门
	payload := `{
		"name": "",
		"operating_hours": [
			{"day_of_week": 1, "is_open": true, "open_time": "18:00", "close_time": "09:00", "min_staff": 1}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/templates", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("校验失败应返回400，got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if body["code"] != "VALIDATION_FAILED" {
		t.Errorf("错误码应为VALIDATION_FAILED，got %v", body["code"])
	}
}

func TestTemplateHandler_Create_BadJSON(t *testing.T) {
	mux := newTemplateMux(NewTemplateHandler(nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/templates", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("非法JSON应返回400，got %d", rec.Code)
	}
}
