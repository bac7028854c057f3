package models

import "time"

// SessionStatus represents the lifecycle of a scheduled session.
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// Session is a scheduled occurrence belonging to a training.
// EndTime is always after StartTime.
type Session struct {
	ID         int64         `db:"id" json:"id"`
	TrainingID int64         `db:"training_id" json:"training_id"`
	Title      string        `db:"title" json:"title"`
	StartTime  time.Time     `db:"start_time" json:"start_time"`
	EndTime    time.Time     `db:"end_time" json:"end_time"`
	Status     SessionStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// SessionFilter scopes session listing queries.
type SessionFilter struct {
	TrainingID int64
	DateFrom   *time.Time
	DateTo     *time.Time
}
