// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/timetracker/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。usernameが重複している場合はエラーを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername はusername（メールアドレス）でユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// ExistsByUsername はusernameが登録済みかを返す。
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// WorkLogRepository はワークログデータの永続化インターフェース。
// 読み書きはすべて所有者スコープで行い、アクセス制御をデータアクセス層で担保する。
type WorkLogRepository interface {
	// Create はワークログを作成する。
	Create(ctx context.Context, workLog *model.WorkLog) error

	// FindByIDAndOwner は指定IDかつ指定所有者のワークログを取得する。
	// 存在しない場合と所有者が異なる場合はどちらもnilを返す。
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.WorkLog, error)

	// ExistsByIDAndOwner は指定IDのワークログを指定ユーザーが所有しているかを返す。
	ExistsByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error)

	// ListByOwner は指定ユーザーの全ワークログを作成日時の降順で返す。
	ListByOwner(ctx context.Context, ownerID string) ([]*model.WorkLog, error)

	// Update はワークログを上書き更新する（activatedフラグの変更に使用）。
	Update(ctx context.Context, workLog *model.WorkLog) error

	// Delete は指定IDのワークログを削除する。
	// 関連するtimersはFOREIGN KEYのCASCADEで削除される。
	Delete(ctx context.Context, id string) error
}

// TimerRepository はタイマーデータの永続化インターフェース。
type TimerRepository interface {
	// Create はタイマーを作成する。
	// 同一ワークログにRUNNINGタイマーが既に存在する場合は
	// 部分ユニークインデックス違反としてErrCodeTimerAlreadyRunningのエラーを返す。
	Create(ctx context.Context, timer *model.Timer) error

	// Update はタイマーを上書き更新する（停止処理で使用）。
	Update(ctx context.Context, timer *model.Timer) error

	// SaveSplit は日跨ぎ分割の2レコードを同一トランザクションで保存する。
	// firstは既存レコードの更新、secondは新規レコードの挿入。
	// どちらかが失敗した場合は全体をロールバックする。
	SaveSplit(ctx context.Context, first, second *model.Timer) error

	// FindLatestRunningForWorkLog は指定ワークログ・所有者の最新のRUNNING
	// タイマーを取得する。見つからない場合はnilを返す。
	FindLatestRunningForWorkLog(ctx context.Context, workLogID, ownerID string) (*model.Timer, error)

	// FindByIDAndWorkLogOwner は指定IDのタイマーを、所属ワークログの
	// 所有者スコープで取得する。見つからない場合はnilを返す。
	FindByIDAndWorkLogOwner(ctx context.Context, id, ownerID string) (*model.Timer, error)

	// ListByWorkLog は指定ワークログの全タイマーをstarted_at降順で返す。
	ListByWorkLog(ctx context.Context, workLogID string) ([]*model.Timer, error)

	// ExistsRunningForWorkLog は指定ワークログにRUNNINGタイマーが存在するかを返す。
	ExistsRunningForWorkLog(ctx context.Context, workLogID string) (bool, error)
}
