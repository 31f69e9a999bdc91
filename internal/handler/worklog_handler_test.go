package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/timetracker/internal/middleware"
	"github.com/hitoshi/timetracker/internal/model"
	"github.com/hitoshi/timetracker/internal/worklog"
)

// --- モック定義 ---

// mockWorkLogService はWorkLogServiceInterfaceのモック実装。
type mockWorkLogService struct {
	createFn  func(ctx context.Context, input worklog.CreateInput, userID string) (*model.WorkLog, error)
	listFn    func(ctx context.Context, userID string) ([]*model.WorkLog, error)
	replaceFn func(ctx context.Context, input worklog.CreateInput, id, userID string) (*model.WorkLog, error)
	deleteFn  func(ctx context.Context, id, userID string) error
}

func (m *mockWorkLogService) Create(ctx context.Context, input worklog.CreateInput, userID string) (*model.WorkLog, error) {
	if m.createFn != nil {
		return m.createFn(ctx, input, userID)
	}
	return nil, nil
}

func (m *mockWorkLogService) List(ctx context.Context, userID string) ([]*model.WorkLog, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockWorkLogService) Replace(ctx context.Context, input worklog.CreateInput, id, userID string) (*model.WorkLog, error) {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, input, id, userID)
	}
	return nil, nil
}

func (m *mockWorkLogService) Delete(ctx context.Context, id, userID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, userID)
	}
	return nil
}

// --- テストヘルパー ---

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// --- POST /api/worklogs テスト ---

func TestWorkLogHandler_CreateWorkLog_Success(t *testing.T) {
	rate := 5000.0
	svc := &mockWorkLogService{
		createFn: func(ctx context.Context, input worklog.CreateInput, userID string) (*model.WorkLog, error) {
			if userID != "user-123" {
				t.Errorf("userID = %q, want %q", userID, "user-123")
			}
			if input.Name != "Backend開発" {
				t.Errorf("input.Name = %q, want %q", input.Name, "Backend開発")
			}
			return &model.WorkLog{
				ID:         "wl-1",
				Name:       input.Name,
				HourlyRate: input.HourlyRate,
				Activated:  true,
				OwnerID:    userID,
				CreatedAt:  time.Now(),
			}, nil
		},
	}

	h := NewWorkLogHandler(svc)

	body := `{"name": "Backend開発", "hourly_rate": 5000}`
	req := httptest.NewRequest(http.MethodPost, "/api/worklogs", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.CreateWorkLog(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var got workLogResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != "wl-1" {
		t.Errorf("ID = %q, want %q", got.ID, "wl-1")
	}
	if got.HourlyRate == nil || *got.HourlyRate != rate {
		t.Errorf("HourlyRate = %v, want %v", got.HourlyRate, rate)
	}
	if !got.Activated {
		t.Error("expected activated work log")
	}
}

func TestWorkLogHandler_CreateWorkLog_InvalidJSON_Returns400(t *testing.T) {
	h := NewWorkLogHandler(&mockWorkLogService{})

	req := httptest.NewRequest(http.MethodPost, "/api/worklogs", bytes.NewBufferString("{invalid"))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.CreateWorkLog(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestWorkLogHandler_CreateWorkLog_ValidationError_Returns400(t *testing.T) {
	svc := &mockWorkLogService{
		createFn: func(ctx context.Context, input worklog.CreateInput, userID string) (*model.WorkLog, error) {
			return nil, model.NewValidationError("ワークログ名は必須です")
		},
	}
	h := NewWorkLogHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/worklogs", bytes.NewBufferString(`{"name": ""}`))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.CreateWorkLog(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}

	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeValidation {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeValidation)
	}
}

func TestWorkLogHandler_CreateWorkLog_NoUserID_Returns401(t *testing.T) {
	h := NewWorkLogHandler(&mockWorkLogService{})

	req := httptest.NewRequest(http.MethodPost, "/api/worklogs", bytes.NewBufferString(`{"name": "x"}`))
	w := httptest.NewRecorder()

	h.CreateWorkLog(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// --- GET /api/worklogs テスト ---

func TestWorkLogHandler_ListWorkLogs_Success(t *testing.T) {
	svc := &mockWorkLogService{
		listFn: func(ctx context.Context, userID string) ([]*model.WorkLog, error) {
			return []*model.WorkLog{
				{ID: "wl-1", Name: "Backend", Activated: true, OwnerID: userID},
				{ID: "wl-2", Name: "Frontend", Activated: false, OwnerID: userID},
			}, nil
		},
	}
	h := NewWorkLogHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/worklogs", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.ListWorkLogs(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got []workLogResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d work logs, want 2", len(got))
	}
}

func TestWorkLogHandler_ListWorkLogs_Empty_ReturnsEmptyArray(t *testing.T) {
	h := NewWorkLogHandler(&mockWorkLogService{})

	req := httptest.NewRequest(http.MethodGet, "/api/worklogs", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.ListWorkLogs(w, req)

	// nullではなく[]が返ること
	if w.Body.String() != "[]\n" {
		t.Errorf("body = %q, want %q", w.Body.String(), "[]\n")
	}
}

// --- PUT /api/worklogs/:workLogId テスト ---

func TestWorkLogHandler_ReplaceWorkLog_Success(t *testing.T) {
	svc := &mockWorkLogService{
		replaceFn: func(ctx context.Context, input worklog.CreateInput, id, userID string) (*model.WorkLog, error) {
			if id != "wl-1" {
				t.Errorf("id = %q, want %q", id, "wl-1")
			}
			return &model.WorkLog{
				ID:        "wl-2",
				Name:      input.Name,
				Activated: true,
				OwnerID:   userID,
			}, nil
		},
	}
	h := NewWorkLogHandler(svc)

	body := `{"name": "Backend v2"}`
	req := httptest.NewRequest(http.MethodPut, "/api/worklogs/wl-1", bytes.NewBufferString(body))
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "workLogId", "wl-1")
	w := httptest.NewRecorder()

	h.ReplaceWorkLog(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got workLogResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	// 置き換えは新しいIDのレコードを返す
	if got.ID != "wl-2" {
		t.Errorf("ID = %q, want %q", got.ID, "wl-2")
	}
}

func TestWorkLogHandler_ReplaceWorkLog_Unowned_Returns403(t *testing.T) {
	svc := &mockWorkLogService{
		replaceFn: func(ctx context.Context, input worklog.CreateInput, id, userID string) (*model.WorkLog, error) {
			return nil, model.NewWorkLogForbiddenError(id)
		},
	}
	h := NewWorkLogHandler(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/worklogs/wl-1", bytes.NewBufferString(`{"name": "x"}`))
	req = withUserID(req, "user-456")
	req = withChiURLParam(req, "workLogId", "wl-1")
	w := httptest.NewRecorder()

	h.ReplaceWorkLog(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

// --- DELETE /api/worklogs/:workLogId テスト ---

func TestWorkLogHandler_DeleteWorkLog_Success(t *testing.T) {
	deleted := false
	svc := &mockWorkLogService{
		deleteFn: func(ctx context.Context, id, userID string) error {
			deleted = true
			if id != "wl-1" {
				t.Errorf("id = %q, want %q", id, "wl-1")
			}
			return nil
		},
	}
	h := NewWorkLogHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/worklogs/wl-1", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "workLogId", "wl-1")
	w := httptest.NewRecorder()

	h.DeleteWorkLog(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
	if !deleted {
		t.Error("expected Delete to be called")
	}
}

func TestWorkLogHandler_DeleteWorkLog_Unowned_Returns403(t *testing.T) {
	svc := &mockWorkLogService{
		deleteFn: func(ctx context.Context, id, userID string) error {
			return model.NewWorkLogForbiddenError(id)
		},
	}
	h := NewWorkLogHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/worklogs/wl-1", nil)
	req = withUserID(req, "user-456")
	req = withChiURLParam(req, "workLogId", "wl-1")
	w := httptest.NewRecorder()

	h.DeleteWorkLog(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

// --- ステータスコードマッピングのテスト ---

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{model.ErrCodeWorkLogNotFound, http.StatusNotFound},
		{model.ErrCodeTimerNotFound, http.StatusNotFound},
		{model.ErrCodeWorkLogForbidden, http.StatusForbidden},
		{model.ErrCodeTimerAlreadyRunning, http.StatusConflict},
		{model.ErrCodeTimerNotRunning, http.StatusConflict},
		{model.ErrCodeDuplicateEmail, http.StatusConflict},
		{model.ErrCodeValidation, http.StatusBadRequest},
		{model.ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{model.ErrCodeUnauthorized, http.StatusUnauthorized},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := mapAPIErrorToHTTPStatus(&model.APIError{Code: tt.code})
			if got != tt.want {
				t.Errorf("mapAPIErrorToHTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}
