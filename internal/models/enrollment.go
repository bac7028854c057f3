package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusPending   EnrollmentStatus = "pending"
	EnrollmentStatusApproved  EnrollmentStatus = "approved"
	EnrollmentStatusRejected  EnrollmentStatus = "rejected"
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
)

// Valid returns true when the status is a supported value.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusPending, EnrollmentStatusApproved, EnrollmentStatusRejected,
		EnrollmentStatusActive, EnrollmentStatusCompleted:
		return true
	default:
		return false
	}
}

// PaymentStatus tracks the payment state of an enrollment.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Valid returns true when the payment status is a supported value.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// Enrollment captures a user's registration in a training.
// Progress is an integer percentage in [0,100].
type Enrollment struct {
	ID            int64            `db:"id" json:"id"`
	UserID        int64            `db:"user_id" json:"user_id"`
	TrainingID    int64            `db:"training_id" json:"training_id"`
	Status        EnrollmentStatus `db:"status" json:"status"`
	PaymentStatus PaymentStatus    `db:"payment_status" json:"payment_status"`
	Progress      int              `db:"progress" json:"progress"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with training and user metadata.
// Pointer fields stay nil when the relation no longer exists.
type EnrollmentDetail struct {
	Enrollment
	TrainingTitle *string  `db:"training_title" json:"training_title,omitempty"`
	TrainerName   *string  `db:"trainer_name" json:"trainer_name,omitempty"`
	Rating        *float64 `db:"rating" json:"rating,omitempty"`
	UserName      *string  `db:"user_name" json:"user_name,omitempty"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	UserID        int64
	TrainingID    int64
	Status        EnrollmentStatus
	PaymentStatus PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
}
