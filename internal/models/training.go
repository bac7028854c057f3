package models

import "time"

// Training is a course owned by a trainer. Rating arrives pre-aggregated
// on the row; price is the live catalogue price, not a historical snapshot.
type Training struct {
	ID          int64      `db:"id" json:"id"`
	OwnerUserID int64      `db:"owner_user_id" json:"owner_user_id"`
	Title       string     `db:"title" json:"title"`
	Price       float64    `db:"price" json:"price"`
	Rating      float64    `db:"rating" json:"rating"`
	StartDate   *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate     *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// TrainingDetail enriches Training with the owning trainer's name.
type TrainingDetail struct {
	Training
	TrainerName *string `db:"trainer_name" json:"trainer_name,omitempty"`
}
