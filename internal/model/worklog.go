package model

import "time"

// WorkLog は時間を記録するプロジェクト（作業ログ）を表す。
// 更新はコピーオンライト: 旧レコードをactivated=falseにして
// 新レコードを作成するため、時給などの設定履歴が保存される。
type WorkLog struct {
	ID         string
	Name       string
	HourlyRate *float64
	Activated  bool
	OwnerID    string
	CreatedAt  time.Time
}
