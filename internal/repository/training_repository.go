package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Rzouga01/learnhub-api/internal/models"
)

// TrainingRepository handles persistence of trainings.
type TrainingRepository struct {
	db *sqlx.DB
}

// NewTrainingRepository constructs the repository.
func NewTrainingRepository(db *sqlx.DB) *TrainingRepository {
	return &TrainingRepository{db: db}
}

const trainingColumns = `id, owner_user_id, title, price, rating, start_date, end_date, created_at, updated_at`

// ListAll returns every training.
func (r *TrainingRepository) ListAll(ctx context.Context) ([]models.Training, error) {
	query := fmt.Sprintf("SELECT %s FROM trainings ORDER BY created_at ASC", trainingColumns)
	var trainings []models.Training
	if err := r.db.SelectContext(ctx, &trainings, query); err != nil {
		return nil, fmt.Errorf("list trainings: %w", err)
	}
	return trainings, nil
}

// ListByOwner returns trainings owned by the given trainer.
func (r *TrainingRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Training, error) {
	query := fmt.Sprintf("SELECT %s FROM trainings WHERE owner_user_id = $1 ORDER BY created_at ASC", trainingColumns)
	var trainings []models.Training
	if err := r.db.SelectContext(ctx, &trainings, query, ownerID); err != nil {
		return nil, fmt.Errorf("list owned trainings: %w", err)
	}
	return trainings, nil
}

// FindByID returns a training with its trainer name.
func (r *TrainingRepository) FindByID(ctx context.Context, id int64) (*models.TrainingDetail, error) {
	const query = `SELECT t.id, t.owner_user_id, t.title, t.price, t.rating, t.start_date, t.end_date, t.created_at, t.updated_at,
        u.name AS trainer_name
        FROM trainings t
        LEFT JOIN users u ON u.id = t.owner_user_id
        WHERE t.id = $1`
	var detail models.TrainingDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find training: %w", err)
	}
	return &detail, nil
}

// Create persists a new training.
func (r *TrainingRepository) Create(ctx context.Context, training *models.Training) error {
	now := time.Now().UTC()
	training.CreatedAt = now
	training.UpdatedAt = now
	const query = `INSERT INTO trainings (owner_user_id, title, price, rating, start_date, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.GetContext(ctx, &training.ID, query,
		training.OwnerUserID, training.Title, training.Price, training.Rating,
		training.StartDate, training.EndDate, training.CreatedAt, training.UpdatedAt); err != nil {
		return fmt.Errorf("create training: %w", err)
	}
	return nil
}
