package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Rzouga01/learnhub-api/internal/models"
	appErrors "github.com/Rzouga01/learnhub-api/pkg/errors"
)

type enrollmentStore interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id int64, status models.EnrollmentStatus) error
	UpdateProgress(ctx context.Context, id int64, progress int) error
}

// EnrollmentService handles enrollment lifecycle operations. Every
// write invalidates the dashboard and report caches since both derive
// from enrollment rows.
type EnrollmentService struct {
	store  enrollmentStore
	cache  *CacheService
	logger *zap.Logger
}

// NewEnrollmentService constructs the service.
func NewEnrollmentService(store enrollmentStore, cache *CacheService, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{store: store, cache: cache, logger: logger}
}

// List returns enrollments matching the filter.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	rows, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return rows, nil
}

// Apply creates a pending enrollment for the given user and training.
func (s *EnrollmentService) Apply(ctx context.Context, userID, trainingID int64) (*models.Enrollment, error) {
	enrollment := &models.Enrollment{
		UserID:     userID,
		TrainingID: trainingID,
		Status:     models.EnrollmentStatusPending,
	}
	if err := s.store.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	s.invalidate(ctx)
	return enrollment, nil
}

// UpdateStatus moves an enrollment through its lifecycle.
func (s *EnrollmentService) UpdateStatus(ctx context.Context, id int64, status models.EnrollmentStatus) error {
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown enrollment status "+string(status))
	}
	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	s.invalidate(ctx)
	return nil
}

// UpdateProgress records course progress, clamped to [0, 100].
func (s *EnrollmentService) UpdateProgress(ctx context.Context, id int64, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if err := s.store.UpdateProgress(ctx, id, progress); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update progress")
	}
	s.invalidate(ctx)
	return nil
}

func (s *EnrollmentService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	invalidateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	for _, prefix := range []string{"dashboard:", "report:"} {
		if err := s.cache.InvalidatePrefix(invalidateCtx, prefix); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("prefix", prefix), zap.Error(err))
		}
	}
}
