package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/timetracker/internal/model"
)

// PostgresTimerRepo はPostgreSQLを使用したタイマーリポジトリ。
type PostgresTimerRepo struct {
	db *sql.DB
}

// NewPostgresTimerRepo はPostgresTimerRepoを生成する。
func NewPostgresTimerRepo(db *sql.DB) *PostgresTimerRepo {
	return &PostgresTimerRepo{db: db}
}

// Create はタイマーを作成する。
// 部分ユニークインデックス timers_one_running_per_work_log により
// 同一ワークログへの2つ目のRUNNING挿入は23505違反となり、
// TIMER_ALREADY_RUNNINGエラーに変換して返す。
// 存在チェックと挿入の間のcheck-then-actレースはこの制約で閉じる。
func (r *PostgresTimerRepo) Create(ctx context.Context, timer *model.Timer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO timers (id, work_log_id, started_at, stopped_at, duration_in_seconds, status, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		timer.ID, timer.WorkLogID, timer.StartedAt, timer.StoppedAt, timer.DurationInSeconds, timer.Status, timer.Note,
	)
	if isUniqueViolation(err) {
		return model.NewTimerAlreadyRunningError(timer.WorkLogID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert timer: %w", err)
	}
	return nil
}

// Update はタイマーを上書き更新する。
func (r *PostgresTimerRepo) Update(ctx context.Context, timer *model.Timer) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE timers SET stopped_at = $2, duration_in_seconds = $3, status = $4, note = $5
		 WHERE id = $1`,
		timer.ID, timer.StoppedAt, timer.DurationInSeconds, timer.Status, timer.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to update timer: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewTimerNotFoundError(timer.ID)
	}
	return nil
}

// SaveSplit は日跨ぎ分割の2レコードを同一トランザクションで保存する。
// firstの更新とsecondの挿入のどちらかが失敗した場合は全体をロールバックし、
// 境界で止まった前半だけが残る不整合を防ぐ。
func (r *PostgresTimerRepo) SaveSplit(ctx context.Context, first, second *model.Timer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 前半: 既存RUNNINGレコードを境界で停止
	_, err = tx.ExecContext(ctx,
		`UPDATE timers SET stopped_at = $2, duration_in_seconds = $3, status = $4 WHERE id = $1`,
		first.ID, first.StoppedAt, first.DurationInSeconds, first.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update first split part: %w", err)
	}

	// 後半: 境界から停止時刻までの新規レコード
	_, err = tx.ExecContext(ctx,
		`INSERT INTO timers (id, work_log_id, started_at, stopped_at, duration_in_seconds, status, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		second.ID, second.WorkLogID, second.StartedAt, second.StoppedAt, second.DurationInSeconds, second.Status, second.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to insert second split part: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit split transaction: %w", err)
	}

	return nil
}

// FindLatestRunningForWorkLog は指定ワークログ・所有者の最新のRUNNING
// タイマーを取得する。見つからない場合はnilを返す。
func (r *PostgresTimerRepo) FindLatestRunningForWorkLog(ctx context.Context, workLogID, ownerID string) (*model.Timer, error) {
	timer := &model.Timer{}
	err := r.db.QueryRowContext(ctx,
		`SELECT t.id, t.work_log_id, t.started_at, t.stopped_at, t.duration_in_seconds, t.status, t.note
		 FROM timers t
		 JOIN work_logs w ON w.id = t.work_log_id
		 WHERE t.work_log_id = $1 AND w.owner_id = $2 AND t.status = $3
		 ORDER BY t.started_at DESC
		 LIMIT 1`,
		workLogID, ownerID, model.TimerStatusRunning,
	).Scan(&timer.ID, &timer.WorkLogID, &timer.StartedAt, &timer.StoppedAt, &timer.DurationInSeconds, &timer.Status, &timer.Note)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find running timer: %w", err)
	}

	return timer, nil
}

// FindByIDAndWorkLogOwner は指定IDのタイマーを所有者スコープで取得する。
// 見つからない場合はnilを返す。
func (r *PostgresTimerRepo) FindByIDAndWorkLogOwner(ctx context.Context, id, ownerID string) (*model.Timer, error) {
	timer := &model.Timer{}
	err := r.db.QueryRowContext(ctx,
		`SELECT t.id, t.work_log_id, t.started_at, t.stopped_at, t.duration_in_seconds, t.status, t.note
		 FROM timers t
		 JOIN work_logs w ON w.id = t.work_log_id
		 WHERE t.id = $1 AND w.owner_id = $2`,
		id, ownerID,
	).Scan(&timer.ID, &timer.WorkLogID, &timer.StartedAt, &timer.StoppedAt, &timer.DurationInSeconds, &timer.Status, &timer.Note)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find timer by ID and owner: %w", err)
	}

	return timer, nil
}

// ListByWorkLog は指定ワークログの全タイマーをstarted_at降順で返す。
func (r *PostgresTimerRepo) ListByWorkLog(ctx context.Context, workLogID string) ([]*model.Timer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, work_log_id, started_at, stopped_at, duration_in_seconds, status, note
		 FROM timers WHERE work_log_id = $1 ORDER BY started_at DESC`,
		workLogID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list timers: %w", err)
	}
	defer rows.Close()

	var timers []*model.Timer
	for rows.Next() {
		timer := &model.Timer{}
		if err := rows.Scan(&timer.ID, &timer.WorkLogID, &timer.StartedAt, &timer.StoppedAt, &timer.DurationInSeconds, &timer.Status, &timer.Note); err != nil {
			return nil, fmt.Errorf("failed to scan timer: %w", err)
		}
		timers = append(timers, timer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate timers: %w", err)
	}

	return timers, nil
}

// ExistsRunningForWorkLog は指定ワークログにRUNNINGタイマーが存在するかを返す。
func (r *PostgresTimerRepo) ExistsRunningForWorkLog(ctx context.Context, workLogID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM timers WHERE work_log_id = $1 AND status = $2)`,
		workLogID, model.TimerStatusRunning,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check running timer existence: %w", err)
	}
	return exists, nil
}

// compile-time interface check
var _ TimerRepository = (*PostgresTimerRepo)(nil)
