package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rzouga01/learnhub-api/internal/dto"
	"github.com/Rzouga01/learnhub-api/internal/models"
	"github.com/Rzouga01/learnhub-api/internal/repository"
	appErrors "github.com/Rzouga01/learnhub-api/pkg/errors"
	"github.com/Rzouga01/learnhub-api/pkg/jobs"
	"github.com/Rzouga01/learnhub-api/pkg/storage"
)

type fakeJobStore struct {
	jobs map[string]*models.ReportJob
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: map[string]*models.ReportJob{}}
}

func (f *fakeJobStore) Create(_ context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = fmt.Sprintf("job-%d", len(f.jobs)+1)
	}
	copied := *job
	f.jobs[job.ID] = &copied
	return nil
}

func (f *fakeJobStore) GetByID(_ context.Context, id string) (*models.ReportJob, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s not found", id)
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobStore) Update(_ context.Context, id string, params repository.UpdateReportJobParams) error {
	job, ok := f.jobs[id]
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (f *fakeJobStore) ListQueued(context.Context, int) ([]models.ReportJob, error) {
	return nil, nil
}

func (f *fakeJobStore) ListFinishedBefore(context.Context, time.Time, int) ([]models.ReportJob, error) {
	return nil, nil
}

type fakeReportBuilder struct {
	enrollments *dto.EnrollmentReportResponse
	err         error
}

func (f *fakeReportBuilder) Enrollments(context.Context, ReportFilter) (*dto.EnrollmentReportResponse, bool, error) {
	return f.enrollments, false, f.err
}

func (f *fakeReportBuilder) Attendance(context.Context, ReportFilter) (*dto.AttendanceReportResponse, bool, error) {
	return &dto.AttendanceReportResponse{}, false, nil
}

func (f *fakeReportBuilder) Revenue(context.Context, ReportFilter) (*dto.RevenueReportResponse, bool, error) {
	return &dto.RevenueReportResponse{}, false, nil
}

func (f *fakeReportBuilder) UserActivity(context.Context, ReportFilter) (*dto.UserActivityReportResponse, bool, error) {
	return &dto.UserActivityReportResponse{}, false, nil
}

func newTestExportService(t *testing.T, store reportJobStore, builder reportBuilder) *ExportService {
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewExportService(ExportServiceParams{
		Jobs:    store,
		Reports: builder,
		Storage: local,
		Signer:  storage.NewSignedURLSigner("test-secret", time.Hour),
	})
}

func sampleEnrollmentReport() *dto.EnrollmentReportResponse {
	name := "Lea Ray"
	title := "Go Fundamentals"
	return &dto.EnrollmentReportResponse{
		Enrollments: []models.EnrollmentDetail{
			{
				Enrollment: models.Enrollment{
					ID: 1, UserID: 7, TrainingID: 3,
					Status:        models.EnrollmentStatusActive,
					PaymentStatus: models.PaymentStatusPaid,
					Progress:      40,
					CreatedAt:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
				},
				TrainingTitle: &title,
				UserName:      &name,
			},
		},
		Summary: dto.EnrollmentReportSummary{Total: 1},
	}
}

func TestCreateJobValidatesTypeAndFormat(t *testing.T) {
	store := newFakeJobStore()
	svc := newTestExportService(t, store, &fakeReportBuilder{})

	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{Type: "bogus", Format: models.ReportFormatCSV}, 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.CreateJob(context.Background(), dto.ExportRequest{Type: models.ReportTypeRevenue, Format: "xlsx"}, 1)
	require.Error(t, err)

	_, err = svc.CreateJob(context.Background(), dto.ExportRequest{
		Type: models.ReportTypeRevenue, Format: models.ReportFormatCSV, DateFrom: "not-a-date",
	}, 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidFilter.Code, appErrors.FromError(err).Code)
}

func TestExportJobLifecycle(t *testing.T) {
	store := newFakeJobStore()
	builder := &fakeReportBuilder{enrollments: sampleEnrollmentReport()}
	svc := newTestExportService(t, store, builder)

	job := &models.ReportJob{
		Type:      models.ReportTypeEnrollments,
		Params:    models.ReportJobParams{Format: models.ReportFormatCSV},
		Status:    models.ReportStatusQueued,
		CreatedBy: 7,
	}
	require.NoError(t, store.Create(context.Background(), job))

	err := svc.process(context.Background(), jobs.Job{ID: job.ID, Type: string(job.Type)})
	require.NoError(t, err)

	stored, err := store.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, stored.Status)
	assert.Equal(t, 100, stored.Progress)
	require.NotNil(t, stored.ResultURL)
	require.NotNil(t, stored.FinishedAt)

	token := strings.TrimPrefix(*stored.ResultURL, "/api/reports/download/")
	filename, data, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "report-"+job.ID+".csv", filename)
	assert.Contains(t, string(data), "Go Fundamentals")
	assert.Contains(t, string(data), "Lea Ray")
}

func TestExportJobFailureRecordsError(t *testing.T) {
	store := newFakeJobStore()
	builder := &fakeReportBuilder{err: fmt.Errorf("store offline")}
	svc := newTestExportService(t, store, builder)

	job := &models.ReportJob{
		Type:   models.ReportTypeEnrollments,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV},
		Status: models.ReportStatusQueued,
	}
	require.NoError(t, store.Create(context.Background(), job))

	err := svc.process(context.Background(), jobs.Job{ID: job.ID})
	require.Error(t, err)

	stored, err := store.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "store offline")
}

func TestGetStatusEnforcesOwnership(t *testing.T) {
	store := newFakeJobStore()
	svc := newTestExportService(t, store, &fakeReportBuilder{})

	job := &models.ReportJob{
		Type:      models.ReportTypeRevenue,
		Params:    models.ReportJobParams{Format: models.ReportFormatPDF},
		Status:    models.ReportStatusQueued,
		CreatedBy: 7,
	}
	require.NoError(t, store.Create(context.Background(), job))

	_, err := svc.GetStatus(context.Background(), job.ID, 8, models.RoleStudent)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	status, err := svc.GetStatus(context.Background(), job.ID, 7, models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, status.Status)

	status, err = svc.GetStatus(context.Background(), job.ID, 99, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, job.ID, status.ID)
}

func TestResolveDownloadRejectsBadToken(t *testing.T) {
	svc := newTestExportService(t, newFakeJobStore(), &fakeReportBuilder{})
	_, _, err := svc.ResolveDownload(context.Background(), "garbage-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
