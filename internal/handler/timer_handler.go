package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/timetracker/internal/middleware"
	"github.com/hitoshi/timetracker/internal/model"
)

// TimerServiceInterface はタイマーハンドラーが必要とするサービスインターフェース。
type TimerServiceInterface interface {
	// Start は指定ワークログの新しいタイマーを開始する。
	Start(ctx context.Context, workLogID, userID string) (*model.Timer, error)
	// Stop は指定ワークログの稼働中タイマーを停止する。
	Stop(ctx context.Context, workLogID, userID string) (*model.Timer, error)
	// StopByID は指定IDのタイマーを停止する。
	StopByID(ctx context.Context, timerID, userID string) (*model.Timer, error)
	// GetActive は指定ワークログの稼働中タイマーを返す。
	GetActive(ctx context.Context, workLogID, userID string) (*model.Timer, error)
	// List は指定ワークログの全タイマーを返す。
	List(ctx context.Context, workLogID, userID string) ([]*model.Timer, error)
}

// TimerHandler はタイマー操作のHTTPハンドラー。
type TimerHandler struct {
	service TimerServiceInterface
}

// NewTimerHandler はTimerHandlerを生成する。
func NewTimerHandler(service TimerServiceInterface) *TimerHandler {
	return &TimerHandler{service: service}
}

// timerResponse はタイマー情報のAPIレスポンス。
type timerResponse struct {
	ID                string     `json:"id"`
	WorkLogID         string     `json:"work_log_id"`
	StartedAt         time.Time  `json:"started_at"`
	StoppedAt         *time.Time `json:"stopped_at"`
	DurationInSeconds *int64     `json:"duration_in_seconds"`
	Status            string     `json:"status"`
	Note              string     `json:"note,omitempty"`
}

// StartTimer はタイマー開始を処理する。
// POST /api/worklogs/:workLogId/startTimer
func (h *TimerHandler) StartTimer(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	workLogID := chi.URLParam(r, "workLogId")

	timer, err := h.service.Start(r.Context(), workLogID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toTimerResponse(timer))
}

// StopTimer はワークログ単位のタイマー停止を処理する。
// 日付を跨いでいた場合、レスポンスは分割後半のタイマーになる。
// POST /api/worklogs/:workLogId/stopTimer
func (h *TimerHandler) StopTimer(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	workLogID := chi.URLParam(r, "workLogId")

	timer, err := h.service.Stop(r.Context(), workLogID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTimerResponse(timer))
}

// StopTimerByID はタイマーID指定の停止を処理する。
// POST /api/timers/:id/stop
func (h *TimerHandler) StopTimerByID(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	timerID := chi.URLParam(r, "id")

	timer, err := h.service.StopByID(r.Context(), timerID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTimerResponse(timer))
}

// GetActiveTimer は稼働中タイマーの取得を処理する。
// GET /api/worklogs/:workLogId/timers/active
func (h *TimerHandler) GetActiveTimer(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	workLogID := chi.URLParam(r, "workLogId")

	timer, err := h.service.GetActive(r.Context(), workLogID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTimerResponse(timer))
}

// ListTimers はワークログのタイマー一覧を返す。
// GET /api/worklogs/:workLogId/timers
func (h *TimerHandler) ListTimers(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	workLogID := chi.URLParam(r, "workLogId")

	timers, err := h.service.List(r.Context(), workLogID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]timerResponse, 0, len(timers))
	for _, timer := range timers {
		responses = append(responses, toTimerResponse(timer))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// toTimerResponse はmodel.TimerからAPIレスポンスに変換する。
func toTimerResponse(timer *model.Timer) timerResponse {
	return timerResponse{
		ID:                timer.ID,
		WorkLogID:         timer.WorkLogID,
		StartedAt:         timer.StartedAt,
		StoppedAt:         timer.StoppedAt,
		DurationInSeconds: timer.DurationInSeconds,
		Status:            string(timer.Status),
		Note:              timer.Note,
	}
}
