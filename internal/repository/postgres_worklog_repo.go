package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/timetracker/internal/model"
)

// PostgresWorkLogRepo はPostgreSQLを使用したワークログリポジトリ。
type PostgresWorkLogRepo struct {
	db *sql.DB
}

// NewPostgresWorkLogRepo はPostgresWorkLogRepoを生成する。
func NewPostgresWorkLogRepo(db *sql.DB) *PostgresWorkLogRepo {
	return &PostgresWorkLogRepo{db: db}
}

// Create はワークログを作成する。
func (r *PostgresWorkLogRepo) Create(ctx context.Context, workLog *model.WorkLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO work_logs (id, name, hourly_rate, activated, owner_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		workLog.ID, workLog.Name, workLog.HourlyRate, workLog.Activated, workLog.OwnerID, workLog.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert work log: %w", err)
	}
	return nil
}

// FindByIDAndOwner は指定IDかつ指定所有者のワークログを取得する。
// 非存在と所有者不一致はどちらもnilを返す（呼び出し側で区別できない）。
func (r *PostgresWorkLogRepo) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.WorkLog, error) {
	workLog := &model.WorkLog{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, hourly_rate, activated, owner_id, created_at
		 FROM work_logs WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	).Scan(&workLog.ID, &workLog.Name, &workLog.HourlyRate, &workLog.Activated, &workLog.OwnerID, &workLog.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find work log by ID and owner: %w", err)
	}

	return workLog, nil
}

// ExistsByIDAndOwner は指定IDのワークログを指定ユーザーが所有しているかを返す。
func (r *PostgresWorkLogRepo) ExistsByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM work_logs WHERE id = $1 AND owner_id = $2)`,
		id, ownerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check work log ownership: %w", err)
	}
	return exists, nil
}

// ListByOwner は指定ユーザーの全ワークログを作成日時の降順で返す。
func (r *PostgresWorkLogRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.WorkLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, hourly_rate, activated, owner_id, created_at
		 FROM work_logs WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list work logs: %w", err)
	}
	defer rows.Close()

	var workLogs []*model.WorkLog
	for rows.Next() {
		workLog := &model.WorkLog{}
		if err := rows.Scan(&workLog.ID, &workLog.Name, &workLog.HourlyRate, &workLog.Activated, &workLog.OwnerID, &workLog.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan work log: %w", err)
		}
		workLogs = append(workLogs, workLog)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate work logs: %w", err)
	}

	return workLogs, nil
}

// Update はワークログを上書き更新する。
func (r *PostgresWorkLogRepo) Update(ctx context.Context, workLog *model.WorkLog) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE work_logs SET name = $2, hourly_rate = $3, activated = $4 WHERE id = $1`,
		workLog.ID, workLog.Name, workLog.HourlyRate, workLog.Activated,
	)
	if err != nil {
		return fmt.Errorf("failed to update work log: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewWorkLogNotFoundError(workLog.ID)
	}
	return nil
}

// Delete は指定IDのワークログを削除する。
// 関連timersはON DELETE CASCADEで削除される。
func (r *PostgresWorkLogRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM work_logs WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete work log: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewWorkLogNotFoundError(id)
	}
	return nil
}

// compile-time interface check
var _ WorkLogRepository = (*PostgresWorkLogRepo)(nil)
