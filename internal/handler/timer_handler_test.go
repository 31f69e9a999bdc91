package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/timetracker/internal/model"
)

// mockTimerService はTimerServiceInterfaceのモック実装。
type mockTimerService struct {
	startFn     func(ctx context.Context, workLogID, userID string) (*model.Timer, error)
	stopFn      func(ctx context.Context, workLogID, userID string) (*model.Timer, error)
	stopByIDFn  func(ctx context.Context, timerID, userID string) (*model.Timer, error)
	getActiveFn func(ctx context.Context, workLogID, userID string) (*model.Timer, error)
	listFn      func(ctx context.Context, workLogID, userID string) ([]*model.Timer, error)
}

func (m *mockTimerService) Start(ctx context.Context, workLogID, userID string) (*model.Timer, error) {
	if m.startFn != nil {
		return m.startFn(ctx, workLogID, userID)
	}
	return nil, nil
}

func (m *mockTimerService) Stop(ctx context.Context, workLogID, userID string) (*model.Timer, error) {
	if m.stopFn != nil {
		return m.stopFn(ctx, workLogID, userID)
	}
	return nil, nil
}

func (m *mockTimerService) StopByID(ctx context.Context, timerID, userID string) (*model.Timer, error) {
	if m.stopByIDFn != nil {
		return m.stopByIDFn(ctx, timerID, userID)
	}
	return nil, nil
}

func (m *mockTimerService) GetActive(ctx context.Context, workLogID, userID string) (*model.Timer, error) {
	if m.getActiveFn != nil {
		return m.getActiveFn(ctx, workLogID, userID)
	}
	return nil, nil
}

func (m *mockTimerService) List(ctx context.Context, workLogID, userID string) ([]*model.Timer, error) {
	if m.listFn != nil {
		return m.listFn(ctx, workLogID, userID)
	}
	return nil, nil
}

// --- POST /api/worklogs/:workLogId/startTimer テスト ---

func TestTimerHandler_StartTimer_Success(t *testing.T) {
	startedAt := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := &mockTimerService{
		startFn: func(ctx context.Context, workLogID, userID string) (*model.Timer, error) {
			if workLogID != "wl-1" {
				t.Errorf("workLogID = %q, want %q", workLogID, "wl-1")
			}
			if userID != "user-123" {
				t.Errorf("userID = %q, want %q", userID, "user-123")
			}
			return &model.Timer{
				ID:        "timer-1",
				WorkLogID: workLogID,
				StartedAt: startedAt,
				Status:    model.TimerStatusRunning,
			}, nil
		},
	}
	h := NewTimerHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/worklogs/wl-1/startTimer", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "workLogId", "wl-1")
	w := httptest.NewRecorder()

	h.StartTimer(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var got timerResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Status != "RUNNING" {
		t.Errorf("Status = %q, want %q", got.Status, "RUNNING")
	}
	if got.StoppedAt != nil || got.DurationInSeconds != nil {
		t.Error("expected null stopped_at and duration_in_seconds while running")
	}
}

func TestTimerHandler_StartTimer_AlreadyRunning_Returns409(t *testing.T) {
	svc := &mockTimerService{
		startFn: func(ctx context.Context, workLogID, userID string) (*model.Timer, error) {
			return nil, model.NewTimerAlreadyRunningError(workLogID)
		},
	}
	h := NewTimerHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/worklogs/wl-1/startTimer", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "workLogId", "wl-1")
	w := httptest.NewRecorder()

	h.StartTimer(w, req)

	if w.Result().StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusConflict)
	}

	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeTimerAlreadyRunning {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeTimerAlreadyRunning)
	}
}

func TestTimerHandler_StartTimer_UnownedWorkLog_Returns403(t *testing.T) {
	svc := &mockTimerService{
		startFn: func(ctx context.Context, workLogID, userID string) (*model.Timer, error) {
			return nil, model.NewWorkLogForbiddenError(workLogID)
		},
	}
	h := NewTimerHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/worklogs/wl-1/startTimer", nil)
	req = withUserID(req, "user-456")
	req = withChiURLParam(req, "workLogId", "wl-1")
	w := httptest.NewRecorder()

	h.StartTimer(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

// --- POST /api/worklogs/:workLogId/stopTimer テスト ---

func TestTimerHandler_StopTimer_Success(t *testing.T) {
	startedAt := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	stoppedAt := startedAt.Add(30 * time.Minute)
	duration := int64(1800)
	svc := &mockTimerService{
		stopFn: func(ctx context.Context, workLogID, userID string) (*model.Timer, error) {
			return &model.Timer{
				ID:                "timer-1",
				WorkLogID:         workLogID,
				StartedAt:         startedAt,
				StoppedAt:         &stoppedAt,
				DurationInSeconds: &duration,
				Status:            model.TimerStatusStopped,
			}, nil
		},
	}
	h := NewTimerHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/worklogs/wl-1/stopTimer", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "workLogId", "wl-1")
	w := httptest.NewRecorder()

	h.StopTimer(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got timerResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Status != "STOPPED" {
		t.Errorf("Status = %q, want %q", got.Status, "STOPPED")
	}
	if got.DurationInSeconds == nil || *got.DurationInSeconds != 1800 {
		t.Errorf("DurationInSeconds = %v, want 1800", got.DurationInSeconds)
	}
}

func TestTimerHandler_StopTimer_NotRunning_Returns409(t *testing.T) {
	svc := &mockTimerService{
		stopFn: func(ctx context.Context, workLogID, userID string) (*model.Timer, error) {
			return nil, model.NewTimerNotRunningError(workLogID)
		},
	}
	h := NewTimerHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/worklogs/wl-1/stopTimer", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "workLogId", "wl-1")
	w := httptest.NewRecorder()

	h.StopTimer(w, req)

	if w.Result().StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusConflict)
	}
}

// --- POST /api/timers/:id/stop テスト ---

func TestTimerHandler_StopTimerByID_Success(t *testing.T) {
	startedAt := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	stoppedAt := startedAt.Add(time.Hour)
	duration := int64(3600)
	svc := &mockTimerService{
		stopByIDFn: func(ctx context.Context, timerID, userID string) (*model.Timer, error) {
			if timerID != "timer-1" {
				t.Errorf("timerID = %q, want %q", timerID, "timer-1")
			}
			return &model.Timer{
				ID:                timerID,
				WorkLogID:         "wl-1",
				StartedAt:         startedAt,
				StoppedAt:         &stoppedAt,
				DurationInSeconds: &duration,
				Status:            model.TimerStatusStopped,
			}, nil
		},
	}
	h := NewTimerHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/timers/timer-1/stop", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "timer-1")
	w := httptest.NewRecorder()

	h.StopTimerByID(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestTimerHandler_StopTimerByID_NotFound_Returns404(t *testing.T) {
	svc := &mockTimerService{
		stopByIDFn: func(ctx context.Context, timerID, userID string) (*model.Timer, error) {
			return nil, model.NewTimerNotFoundError(timerID)
		},
	}
	h := NewTimerHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/timers/timer-x/stop", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "timer-x")
	w := httptest.NewRecorder()

	h.StopTimerByID(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

// --- GET /api/worklogs/:workLogId/timers/active テスト ---

func TestTimerHandler_GetActiveTimer_Success(t *testing.T) {
	svc := &mockTimerService{
		getActiveFn: func(ctx context.Context, workLogID, userID string) (*model.Timer, error) {
			return &model.Timer{
				ID:        "timer-1",
				WorkLogID: workLogID,
				StartedAt: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
				Status:    model.TimerStatusRunning,
			}, nil
		},
	}
	h := NewTimerHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/worklogs/wl-1/timers/active", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "workLogId", "wl-1")
	w := httptest.NewRecorder()

	h.GetActiveTimer(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestTimerHandler_GetActiveTimer_None_Returns404(t *testing.T) {
	svc := &mockTimerService{
		getActiveFn: func(ctx context.Context, workLogID, userID string) (*model.Timer, error) {
			return nil, model.NewActiveTimerNotFoundError(workLogID)
		},
	}
	h := NewTimerHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/worklogs/wl-1/timers/active", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "workLogId", "wl-1")
	w := httptest.NewRecorder()

	h.GetActiveTimer(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

// --- GET /api/worklogs/:workLogId/timers テスト ---

func TestTimerHandler_ListTimers_Success(t *testing.T) {
	svc := &mockTimerService{
		listFn: func(ctx context.Context, workLogID, userID string) ([]*model.Timer, error) {
			return []*model.Timer{
				{ID: "timer-2", WorkLogID: workLogID, StartedAt: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC), Status: model.TimerStatusRunning},
				{ID: "timer-1", WorkLogID: workLogID, StartedAt: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), Status: model.TimerStatusStopped},
			}, nil
		},
	}
	h := NewTimerHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/worklogs/wl-1/timers", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "workLogId", "wl-1")
	w := httptest.NewRecorder()

	h.ListTimers(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got []timerResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d timers, want 2", len(got))
	}
	// started_at降順の順序がそのまま返ること
	if got[0].ID != "timer-2" {
		t.Errorf("first timer = %q, want %q", got[0].ID, "timer-2")
	}
}

func TestTimerHandler_ListTimers_Empty_ReturnsEmptyArray(t *testing.T) {
	h := NewTimerHandler(&mockTimerService{})

	req := httptest.NewRequest(http.MethodGet, "/api/worklogs/wl-1/timers", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "workLogId", "wl-1")
	w := httptest.NewRecorder()

	h.ListTimers(w, req)

	if w.Body.String() != "[]\n" {
		t.Errorf("body = %q, want %q", w.Body.String(), "[]\n")
	}
}

func TestTimerHandler_ListTimers_Unowned_Returns403(t *testing.T) {
	svc := &mockTimerService{
		listFn: func(ctx context.Context, workLogID, userID string) ([]*model.Timer, error) {
			return nil, model.NewWorkLogForbiddenError(workLogID)
		},
	}
	h := NewTimerHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/worklogs/wl-1/timers", nil)
	req = withUserID(req, "user-456")
	req = withChiURLParam(req, "workLogId", "wl-1")
	w := httptest.NewRecorder()

	h.ListTimers(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}
