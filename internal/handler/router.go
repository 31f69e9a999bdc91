package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/timetracker/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ヘルスチェック・メトリクス
	HealthChecker  HealthChecker
	MetricsHandler http.Handler
	HTTPMetrics    middleware.HTTPMetricsRecorder

	// ミドルウェア依存
	UserResolver      middleware.UserResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface
	AuthMetrics AuthMetricsRecorder

	// ワークログ
	WorkLogService WorkLogServiceInterface

	// タイマー
	TimerService TimerServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics
//	→ AuthMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// 認証ルート（/api/auth/*）はミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthMetrics)
	workLogHandler := NewWorkLogHandler(deps.WorkLogService)
	timerHandler := NewTimerHandler(deps.TimerService)

	// --- 認証不要のルート ---

	// ヘルスチェック
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Prometheusスクレイプ
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.UserResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ワークログ管理
		r.Route("/api/worklogs", func(r chi.Router) {
			r.Get("/", workLogHandler.ListWorkLogs)
			r.Post("/", workLogHandler.CreateWorkLog)

			r.Route("/{workLogId}", func(r chi.Router) {
				r.Put("/", workLogHandler.ReplaceWorkLog)
				r.Delete("/", workLogHandler.DeleteWorkLog)

				// タイマー操作（開始・停止には専用レート制限を追加）
				r.With(deps.RateLimiter.TimerOperationMiddleware()).Post("/startTimer", timerHandler.StartTimer)
				r.With(deps.RateLimiter.TimerOperationMiddleware()).Post("/stopTimer", timerHandler.StopTimer)

				r.Get("/timers", timerHandler.ListTimers)
				r.Get("/timers/active", timerHandler.GetActiveTimer)
			})
		})

		// タイマーID指定の停止
		r.Route("/api/timers/{id}", func(r chi.Router) {
			r.With(deps.RateLimiter.TimerOperationMiddleware()).Post("/stop", timerHandler.StopTimerByID)
		})
	})

	return r
}
