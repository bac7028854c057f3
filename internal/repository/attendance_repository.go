package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Rzouga01/learnhub-api/internal/models"
)

// AttendanceRepository handles persistence of attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceDetailColumns = `a.id, a.user_id, a.session_id, a.status, a.created_at,
        s.training_id AS training_id, s.title AS session_title, s.start_time AS session_start_time`

const attendanceDetailBase = `FROM attendances a
LEFT JOIN sessions s ON s.id = a.session_id`

// List returns attendance records joined with their session. Training
// and date scoping resolve through the session row.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.UserID != 0 {
		conditions = append(conditions, fmt.Sprintf("a.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.SessionID != 0 {
		conditions = append(conditions, fmt.Sprintf("a.session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.TrainingID != 0 {
		conditions = append(conditions, fmt.Sprintf("s.training_id = $%d", len(args)+1))
		args = append(args, filter.TrainingID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("s.start_time >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("s.start_time <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY a.created_at ASC", attendanceDetailColumns, attendanceDetailBase+clause)

	var records []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// ListByUser returns a user's attendance records with session context.
func (r *AttendanceRepository) ListByUser(ctx context.Context, userID int64) ([]models.AttendanceDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE a.user_id = $1 ORDER BY a.created_at DESC", attendanceDetailColumns, attendanceDetailBase)
	var records []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("list user attendance: %w", err)
	}
	return records, nil
}

// Create persists a new attendance record.
func (r *AttendanceRepository) Create(ctx context.Context, attendance *models.Attendance) error {
	if attendance.CreatedAt.IsZero() {
		attendance.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendances (user_id, session_id, status, created_at)
        VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.GetContext(ctx, &attendance.ID, query,
		attendance.UserID, attendance.SessionID, attendance.Status, attendance.CreatedAt); err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}
