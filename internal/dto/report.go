package dto

import "github.com/Rzouga01/learnhub-api/internal/models"

// EnrollmentReportResponse lists matching enrollments with counters.
type EnrollmentReportResponse struct {
	Enrollments []models.EnrollmentDetail `json:"enrollments"`
	Summary     EnrollmentReportSummary   `json:"summary"`
}

// EnrollmentReportSummary aggregates the filtered collection.
type EnrollmentReportSummary struct {
	Total           int            `json:"total"`
	ByStatus        map[string]int `json:"by_status"`
	ByPaymentStatus map[string]int `json:"by_payment_status"`
}

// AttendanceReportResponse lists matching attendance records.
type AttendanceReportResponse struct {
	Attendances []models.AttendanceDetail `json:"attendances"`
	Summary     AttendanceReportSummary   `json:"summary"`
}

// AttendanceReportSummary aggregates the filtered collection.
type AttendanceReportSummary struct {
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"by_status"`
	AttendanceRate float64        `json:"attendance_rate"`
}

// RevenueReportResponse breaks paid-enrollment revenue down by training
// and by calendar month. Group order is first-occurrence order.
type RevenueReportResponse struct {
	TotalRevenue      float64               `json:"total_revenue"`
	RevenueByTraining []TrainingRevenueItem `json:"revenue_by_training"`
	RevenueByMonth    []MonthlyRevenueItem  `json:"revenue_by_month"`
}

// TrainingRevenueItem groups revenue per training.
type TrainingRevenueItem struct {
	TrainingID      int64   `json:"training_id"`
	Title           string  `json:"title"`
	EnrollmentCount int     `json:"enrollment_count"`
	Revenue         float64 `json:"revenue"`
}

// MonthlyRevenueItem groups revenue per calendar year-month (YYYY-MM).
type MonthlyRevenueItem struct {
	Month           string  `json:"month"`
	EnrollmentCount int     `json:"enrollment_count"`
	Revenue         float64 `json:"revenue"`
}

// UserActivityReportResponse annotates users with activity metrics.
type UserActivityReportResponse struct {
	Users   []UserActivityItem  `json:"users"`
	Summary UserActivitySummary `json:"summary"`
}

// UserActivityItem is one annotated user row.
type UserActivityItem struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Role             models.UserRole `json:"role"`
	EnrollmentsCount int             `json:"enrollments_count"`
	AttendanceRate   float64         `json:"attendance_rate"`
}

// UserActivitySummary aggregates the filtered user set.
type UserActivitySummary struct {
	TotalUsers         int            `json:"total_users"`
	ByRole             map[string]int `json:"by_role"`
	AverageEnrollments float64        `json:"average_enrollments"`
}

// ExportRequest captures POST /reports/export payload.
type ExportRequest struct {
	Type          models.ReportType   `json:"type" validate:"required"`
	Format        models.ReportFormat `json:"format" validate:"required"`
	TrainingID    *int64              `json:"training_id,omitempty"`
	SessionID     *int64              `json:"session_id,omitempty"`
	Status        string              `json:"status,omitempty"`
	PaymentStatus string              `json:"payment_status,omitempty"`
	Role          string              `json:"role,omitempty"`
	DateFrom      string              `json:"date_from,omitempty"`
	DateTo        string              `json:"date_to,omitempty"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
