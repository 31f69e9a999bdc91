package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/timetracker/internal/middleware"
	"github.com/hitoshi/timetracker/internal/model"
	"github.com/hitoshi/timetracker/internal/worklog"
)

// WorkLogServiceInterface はワークログハンドラーが必要とするサービスインターフェース。
type WorkLogServiceInterface interface {
	// Create は新しいワークログを作成する。
	Create(ctx context.Context, input worklog.CreateInput, userID string) (*model.WorkLog, error)
	// List は指定ユーザーの全ワークログを返す。
	List(ctx context.Context, userID string) ([]*model.WorkLog, error)
	// Replace は指定ワークログをコピーオンライトで置き換える。
	Replace(ctx context.Context, input worklog.CreateInput, id, userID string) (*model.WorkLog, error)
	// Delete は指定ワークログを削除する。
	Delete(ctx context.Context, id, userID string) error
}

// WorkLogHandler はワークログ管理のHTTPハンドラー。
type WorkLogHandler struct {
	service WorkLogServiceInterface
}

// NewWorkLogHandler はWorkLogHandlerを生成する。
func NewWorkLogHandler(service WorkLogServiceInterface) *WorkLogHandler {
	return &WorkLogHandler{service: service}
}

// workLogRequest はワークログ作成・置き換えリクエストのボディ。
type workLogRequest struct {
	Name       string   `json:"name"`
	HourlyRate *float64 `json:"hourly_rate"`
}

// workLogResponse はワークログ情報のAPIレスポンス。
type workLogResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	HourlyRate *float64  `json:"hourly_rate"`
	Activated  bool      `json:"activated"`
	CreatedAt  time.Time `json:"created_at"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// CreateWorkLog はワークログ作成を処理する。
// POST /api/worklogs
func (h *WorkLogHandler) CreateWorkLog(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req workLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBodyResponse(w)
		return
	}

	workLog, err := h.service.Create(r.Context(), worklog.CreateInput{
		Name:       req.Name,
		HourlyRate: req.HourlyRate,
	}, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toWorkLogResponse(workLog))
}

// ListWorkLogs は呼び出しユーザーのワークログ一覧を返す。
// GET /api/worklogs
func (h *WorkLogHandler) ListWorkLogs(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	workLogs, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]workLogResponse, 0, len(workLogs))
	for _, wl := range workLogs {
		responses = append(responses, toWorkLogResponse(wl))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// ReplaceWorkLog はワークログの置き換えを処理する。
// PUT /api/worklogs/:workLogId
func (h *WorkLogHandler) ReplaceWorkLog(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id := chi.URLParam(r, "workLogId")

	var req workLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBodyResponse(w)
		return
	}

	replacement, err := h.service.Replace(r.Context(), worklog.CreateInput{
		Name:       req.Name,
		HourlyRate: req.HourlyRate,
	}, id, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toWorkLogResponse(replacement))
}

// DeleteWorkLog はワークログの削除を処理する。
// DELETE /api/worklogs/:workLogId
func (h *WorkLogHandler) DeleteWorkLog(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id := chi.URLParam(r, "workLogId")

	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// toWorkLogResponse はmodel.WorkLogからAPIレスポンスに変換する。
func toWorkLogResponse(workLog *model.WorkLog) workLogResponse {
	return workLogResponse{
		ID:         workLog.ID,
		Name:       workLog.Name,
		HourlyRate: workLog.HourlyRate,
		Activated:  workLog.Activated,
		CreatedAt:  workLog.CreatedAt,
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeInvalidRequestBodyResponse はJSONボディ解析失敗の400レスポンスを書き込む。
func writeInvalidRequestBodyResponse(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeWorkLogNotFound, model.ErrCodeTimerNotFound:
		return http.StatusNotFound
	case model.ErrCodeWorkLogForbidden:
		return http.StatusForbidden
	case model.ErrCodeTimerAlreadyRunning, model.ErrCodeTimerNotRunning, model.ErrCodeDuplicateEmail:
		return http.StatusConflict
	case model.ErrCodeValidation:
		return http.StatusBadRequest
	case model.ErrCodeInvalidCredentials, model.ErrCodeUnauthorized, model.ErrCodeUserNotFound:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
