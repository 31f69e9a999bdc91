package model

import "time"

// TimerStatus はタイマーの状態を表す。DB上は文字列として保存する。
type TimerStatus string

const (
	// TimerStatusRunning は計測中のタイマー状態。
	TimerStatusRunning TimerStatus = "RUNNING"
	// TimerStatusStopped は停止済みのタイマー状態。終端状態であり再開はできない。
	TimerStatusStopped TimerStatus = "STOPPED"
)

// Timer はWorkLogに属する1つの計測区間を表す。
// RUNNING中はStoppedAtとDurationInSecondsがnil。
// 停止時に秒単位の継続時間を計算して保存する。
type Timer struct {
	ID                string
	WorkLogID         string
	StartedAt         time.Time
	StoppedAt         *time.Time
	DurationInSeconds *int64
	Status            TimerStatus
	Note              string
}
