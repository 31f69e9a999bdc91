// Package worklog はワークログ（作業プロジェクト）管理のドメインロジックを提供する。
package worklog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/timetracker/internal/model"
	"github.com/hitoshi/timetracker/internal/repository"
)

// CreateInput はワークログ作成・置き換えの入力。
type CreateInput struct {
	Name       string
	HourlyRate *float64
}

// Service はワークログ管理のサービス層。
// 作成・一覧・置き換え・削除のビジネスロジックを提供する。
type Service struct {
	workLogRepo repository.WorkLogRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(workLogRepo repository.WorkLogRepository) *Service {
	return &Service{workLogRepo: workLogRepo}
}

// Create は新しいワークログを作成する。
// 名前は必須（空白のみは不可）、時給は指定する場合0以上。
// activated=trueかつサーバー採番のcreated_atで保存する。
func (s *Service) Create(ctx context.Context, input CreateInput, userID string) (*model.WorkLog, error) {
	workLog, err := buildWorkLog(input, userID)
	if err != nil {
		return nil, err
	}

	if err := s.workLogRepo.Create(ctx, workLog); err != nil {
		return nil, fmt.Errorf("ワークログの作成に失敗しました: %w", err)
	}

	slog.Info("work log created",
		slog.String("work_log_id", workLog.ID),
		slog.String("owner_id", userID),
	)

	return workLog, nil
}

// List は指定ユーザーの全ワークログを返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.WorkLog, error) {
	workLogs, err := s.workLogRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ワークログ一覧の取得に失敗しました: %w", err)
	}
	return workLogs, nil
}

// Replace は指定ワークログをコピーオンライトで置き換える。
//
// 旧レコードはactivated=falseにして保持し（削除しない）、新しい内容で
// 別IDの新レコードを作成して返す。旧新レコード間に外部キーの関連は
// 持たせない。時給などの設定変更履歴を旧レコードの連なりとして残すための
// 挙動で、旧レコードに紐づくタイマーもそのまま残る。
func (s *Service) Replace(ctx context.Context, input CreateInput, id, userID string) (*model.WorkLog, error) {
	// 所有者スコープでロード。非存在と非所有はどちらも同じ拒否になる。
	old, err := s.workLogRepo.FindByIDAndOwner(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("ワークログの取得に失敗しました: %w", err)
	}
	if old == nil {
		return nil, model.NewWorkLogForbiddenError(id)
	}

	replacement, err := buildWorkLog(input, userID)
	if err != nil {
		return nil, err
	}

	old.Activated = false
	if err := s.workLogRepo.Update(ctx, old); err != nil {
		return nil, fmt.Errorf("旧ワークログの無効化に失敗しました: %w", err)
	}

	if err := s.workLogRepo.Create(ctx, replacement); err != nil {
		return nil, fmt.Errorf("新ワークログの作成に失敗しました: %w", err)
	}

	slog.Info("work log replaced",
		slog.String("old_work_log_id", old.ID),
		slog.String("new_work_log_id", replacement.ID),
	)

	return replacement, nil
}

// Delete は指定ワークログを削除する。
// 所有者スコープでのロードが認可チェックを兼ねる。
// 関連タイマーはDBのCASCADEで同一単位として削除される。
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	workLog, err := s.workLogRepo.FindByIDAndOwner(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("ワークログの取得に失敗しました: %w", err)
	}
	if workLog == nil {
		return model.NewWorkLogForbiddenError(id)
	}

	if err := s.workLogRepo.Delete(ctx, workLog.ID); err != nil {
		return fmt.Errorf("ワークログの削除に失敗しました: %w", err)
	}

	slog.Info("work log deleted",
		slog.String("work_log_id", workLog.ID),
	)

	return nil
}

// buildWorkLog は入力を検証して新規ワークログを組み立てる。
func buildWorkLog(input CreateInput, userID string) (*model.WorkLog, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, model.NewValidationError("ワークログ名は必須です")
	}
	if input.HourlyRate != nil && *input.HourlyRate < 0 {
		return nil, model.NewValidationError("時給は0以上で指定してください")
	}

	return &model.WorkLog{
		ID:         uuid.New().String(),
		Name:       name,
		HourlyRate: input.HourlyRate,
		Activated:  true,
		OwnerID:    userID,
		CreatedAt:  time.Now(),
	}, nil
}
