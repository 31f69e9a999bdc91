// Package timer はタイマーのライフサイクル管理を提供する。
// 開始・停止の状態遷移と、日付を跨いだタイマーの分割を担当する。
package timer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/timetracker/internal/model"
	"github.com/hitoshi/timetracker/internal/repository"
)

// Clock は現在時刻の取得を抽象化する。
// テストで開始・停止・日付境界の時刻を決定的に制御するために注入する。
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock はtime.Nowを返すClockを返す。
func SystemClock() Clock { return systemClock{} }

// MetricsRecorder はタイマー操作のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordTimerStarted()
	RecordTimerStopped()
	RecordTimerSplit()
}

// Service はタイマーのライフサイクルを管理するサービス層。
//
// 状態遷移はRUNNING→STOPPEDの一方向のみ。STOPPEDは終端状態で、
// 再開は存在しない。1つのワークログにつきRUNNINGタイマーは最大1つ。
type Service struct {
	timerRepo   repository.TimerRepository
	workLogRepo repository.WorkLogRepository
	clock       Clock
	metrics     MetricsRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
// clockがnilの場合はシステムクロックを使用する。metricsはnil可。
func NewService(
	timerRepo repository.TimerRepository,
	workLogRepo repository.WorkLogRepository,
	clock Clock,
	metrics MetricsRecorder,
) *Service {
	if clock == nil {
		clock = SystemClock()
	}
	return &Service{
		timerRepo:   timerRepo,
		workLogRepo: workLogRepo,
		clock:       clock,
		metrics:     metrics,
	}
}

// Start は指定ワークログの新しいタイマーを開始する。
//
// ワークログが存在しないか呼び出しユーザーの所有でない場合は拒否する
// （どちらの理由かは呼び出し側から区別できない）。
// 既にRUNNINGタイマーが存在する場合はTIMER_ALREADY_RUNNINGを返す。
// 存在チェック通過後の並行挿入はDBの部分ユニークインデックスが弾き、
// リポジトリが同じエラーに変換するため、不変条件はレース下でも保たれる。
func (s *Service) Start(ctx context.Context, workLogID, userID string) (*model.Timer, error) {
	workLog, err := s.workLogRepo.FindByIDAndOwner(ctx, workLogID, userID)
	if err != nil {
		return nil, fmt.Errorf("ワークログの取得に失敗しました: %w", err)
	}
	if workLog == nil {
		return nil, model.NewWorkLogForbiddenError(workLogID)
	}

	running, err := s.timerRepo.ExistsRunningForWorkLog(ctx, workLogID)
	if err != nil {
		return nil, fmt.Errorf("稼働中タイマーの確認に失敗しました: %w", err)
	}
	if running {
		return nil, model.NewTimerAlreadyRunningError(workLogID)
	}

	timer := &model.Timer{
		ID:        uuid.New().String(),
		WorkLogID: workLog.ID,
		StartedAt: s.clock.Now(),
		Status:    model.TimerStatusRunning,
	}

	if err := s.timerRepo.Create(ctx, timer); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordTimerStarted()
	}

	slog.Info("timer started",
		slog.String("timer_id", timer.ID),
		slog.String("work_log_id", workLog.ID),
	)

	return timer, nil
}

// Stop は指定ワークログの稼働中タイマーを停止する。
//
// 所有者スコープで最新のRUNNINGタイマーを探し、見つからない場合は
// TIMER_NOT_RUNNINGを返す。日付を跨いでいた場合は2レコードに分割され、
// 返り値は分割後半（停止時刻を含む側）のタイマーになる。
func (s *Service) Stop(ctx context.Context, workLogID, userID string) (*model.Timer, error) {
	running, err := s.timerRepo.FindLatestRunningForWorkLog(ctx, workLogID, userID)
	if err != nil {
		return nil, fmt.Errorf("稼働中タイマーの取得に失敗しました: %w", err)
	}
	if running == nil {
		return nil, model.NewTimerNotRunningError(workLogID)
	}

	return s.stopAndSplit(ctx, running)
}

// StopByID は指定IDのタイマーを停止する。
//
// タイマーは所属ワークログの所有者スコープで検索する。
// RUNNING以外の状態への停止要求はTIMER_NOT_RUNNINGで拒否する
// （STOPPEDは終端状態であり、許される「更新」は停止のみ）。
func (s *Service) StopByID(ctx context.Context, timerID, userID string) (*model.Timer, error) {
	timer, err := s.timerRepo.FindByIDAndWorkLogOwner(ctx, timerID, userID)
	if err != nil {
		return nil, fmt.Errorf("タイマーの取得に失敗しました: %w", err)
	}
	if timer == nil {
		return nil, model.NewTimerNotFoundError(timerID)
	}

	if timer.Status != model.TimerStatusRunning {
		return nil, model.NewTimerNotRunningError(timerID)
	}

	return s.stopAndSplit(ctx, timer)
}

// GetActive は指定ワークログの稼働中タイマーを返す。
// 見つからない場合はTIMER_NOT_FOUNDを返す。
func (s *Service) GetActive(ctx context.Context, workLogID, userID string) (*model.Timer, error) {
	running, err := s.timerRepo.FindLatestRunningForWorkLog(ctx, workLogID, userID)
	if err != nil {
		return nil, fmt.Errorf("稼働中タイマーの取得に失敗しました: %w", err)
	}
	if running == nil {
		return nil, model.NewActiveTimerNotFoundError(workLogID)
	}

	return running, nil
}

// List は指定ワークログの全タイマーをstarted_at降順（新しい順）で返す。
//
// 所有権チェックはワークログ本体をロードせず存在判定クエリで行う。
// チェックを通過した空のワークログは正当に空リストを返す。
// 非所有・非存在はリスト取得前に拒否され、「空」とは区別される。
func (s *Service) List(ctx context.Context, workLogID, userID string) ([]*model.Timer, error) {
	owned, err := s.workLogRepo.ExistsByIDAndOwner(ctx, workLogID, userID)
	if err != nil {
		return nil, fmt.Errorf("ワークログの所有確認に失敗しました: %w", err)
	}
	if !owned {
		return nil, model.NewWorkLogForbiddenError(workLogID)
	}

	timers, err := s.timerRepo.ListByWorkLog(ctx, workLogID)
	if err != nil {
		return nil, fmt.Errorf("タイマー一覧の取得に失敗しました: %w", err)
	}

	return timers, nil
}

// stopAndSplit はRUNNINGタイマーを停止し、必要なら日付境界で分割して永続化する。
// 返り値は最後に保存されたタイマー（分割時は後半）。
func (s *Service) stopAndSplit(ctx context.Context, running *model.Timer) (*model.Timer, error) {
	stoppedAt := s.clock.Now()
	parts := splitAtMidnight(running, stoppedAt)

	if len(parts) == 1 {
		if err := s.timerRepo.Update(ctx, parts[0]); err != nil {
			return nil, err
		}
	} else {
		// 分割の2書き込みは単一トランザクション。片方だけ残る状態を作らない。
		if err := s.timerRepo.SaveSplit(ctx, parts[0], parts[1]); err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.RecordTimerSplit()
		}
	}

	if s.metrics != nil {
		s.metrics.RecordTimerStopped()
	}

	last := parts[len(parts)-1]

	slog.Info("timer stopped",
		slog.String("timer_id", last.ID),
		slog.String("work_log_id", last.WorkLogID),
		slog.Bool("split", len(parts) == 2),
	)

	return last, nil
}

// splitAtMidnight は停止処理の中核となる決定的な分割ロジック。
//
// 開始と停止が同じカレンダー日付（壁時計基準、UTC正規化しない）なら
// 既存タイマーに停止時刻・秒単位の継続時間を設定して1要素を返す。
//
// 日付が異なる場合は開始日の翌日0時を境界として2つのSTOPPEDレコードに
// 分割する: 前半は既存レコードの更新（開始〜境界）、後半は新規レコード
// （境界〜停止時刻）。日次集計が日跨ぎ計算なしに各レコードを1日分として
// 扱えるようにするための分割で、境界を2つ以上跨ぐケースは一般化しない。
//
// 継続時間は秒未満を切り捨てた整数秒で保存する。
func splitAtMidnight(running *model.Timer, stoppedAt time.Time) []*model.Timer {
	startY, startM, startD := running.StartedAt.Date()
	stopY, stopM, stopD := stoppedAt.Date()

	if startY == stopY && startM == stopM && startD == stopD {
		duration := durationSeconds(running.StartedAt, stoppedAt)
		running.StoppedAt = &stoppedAt
		running.DurationInSeconds = &duration
		running.Status = model.TimerStatusStopped
		return []*model.Timer{running}
	}

	// 境界 = 開始日の翌日0時（開始時刻と同じタイムゾーンで計算する）
	boundary := time.Date(startY, startM, startD+1, 0, 0, 0, 0, running.StartedAt.Location())

	firstDuration := durationSeconds(running.StartedAt, boundary)
	running.StoppedAt = &boundary
	running.DurationInSeconds = &firstDuration
	running.Status = model.TimerStatusStopped

	secondDuration := durationSeconds(boundary, stoppedAt)
	second := &model.Timer{
		ID:                uuid.New().String(),
		WorkLogID:         running.WorkLogID,
		StartedAt:         boundary,
		StoppedAt:         &stoppedAt,
		DurationInSeconds: &secondDuration,
		Status:            model.TimerStatusStopped,
	}

	return []*model.Timer{running, second}
}

// durationSeconds は2時刻間の継続時間を秒単位（切り捨て）で返す。
func durationSeconds(from, to time.Time) int64 {
	return int64(to.Sub(from) / time.Second)
}
