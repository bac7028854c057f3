package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusExcused AttendanceStatus = "excused"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusExcused:
		return true
	default:
		return false
	}
}

// Attendance records a user's presence at a session.
type Attendance struct {
	ID        int64            `db:"id" json:"id"`
	UserID    int64            `db:"user_id" json:"user_id"`
	SessionID int64            `db:"session_id" json:"session_id"`
	Status    AttendanceStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// AttendanceDetail carries the session join needed for training-level
// scoping and time-range filtering.
type AttendanceDetail struct {
	Attendance
	TrainingID       *int64     `db:"training_id" json:"training_id,omitempty"`
	SessionTitle     *string    `db:"session_title" json:"session_title,omitempty"`
	SessionStartTime *time.Time `db:"session_start_time" json:"session_start_time,omitempty"`
}

// AttendanceFilter scopes attendance listing queries.
type AttendanceFilter struct {
	UserID     int64
	SessionID  int64
	TrainingID int64
	Status     *AttendanceStatus
	DateFrom   *time.Time
	DateTo     *time.Time
}
