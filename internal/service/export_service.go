package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Rzouga01/learnhub-api/internal/dto"
	"github.com/Rzouga01/learnhub-api/internal/models"
	"github.com/Rzouga01/learnhub-api/internal/repository"
	appErrors "github.com/Rzouga01/learnhub-api/pkg/errors"
	"github.com/Rzouga01/learnhub-api/pkg/export"
	"github.com/Rzouga01/learnhub-api/pkg/jobs"
	"github.com/Rzouga01/learnhub-api/pkg/storage"
)

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
}

type reportBuilder interface {
	Enrollments(ctx context.Context, filter ReportFilter) (*dto.EnrollmentReportResponse, bool, error)
	Attendance(ctx context.Context, filter ReportFilter) (*dto.AttendanceReportResponse, bool, error)
	Revenue(ctx context.Context, filter ReportFilter) (*dto.RevenueReportResponse, bool, error)
	UserActivity(ctx context.Context, filter ReportFilter) (*dto.UserActivityReportResponse, bool, error)
}

// ExportService turns report payloads into downloadable CSV/PDF files.
// Generation runs on the background queue; files land in local storage
// and are handed out through signed URLs.
type ExportService struct {
	jobsRepo reportJobStore
	reports  reportBuilder
	storage  *storage.LocalStorage
	signer   *storage.SignedURLSigner
	queue    *jobs.Queue
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	metrics  *MetricsService
	logger   *zap.Logger
}

// ExportServiceParams groups constructor dependencies.
type ExportServiceParams struct {
	Jobs    reportJobStore
	Reports reportBuilder
	Storage *storage.LocalStorage
	Signer  *storage.SignedURLSigner
	Metrics *MetricsService
	Logger  *zap.Logger

	Workers    int
	MaxRetries int
}

// NewExportService constructs the service and its worker queue. Call
// Start to begin processing.
func NewExportService(params ExportServiceParams) *ExportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		jobsRepo: params.Jobs,
		reports:  params.Reports,
		storage:  params.Storage,
		signer:   params.Signer,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		metrics:  params.Metrics,
		logger:   logger,
	}
	s.queue = jobs.NewQueue("report-export", s.process, jobs.QueueConfig{
		Workers:    params.Workers,
		MaxRetries: params.MaxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool and requeues jobs left over from a
// previous run.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	queued, err := s.jobsRepo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued export jobs", zap.Error(err))
		return
	}
	for _, job := range queued {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
			s.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

// Stop drains the worker pool.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// CreateJob validates the request, persists a queued job row and hands
// it to the workers.
func (s *ExportService) CreateJob(ctx context.Context, req dto.ExportRequest, userID int64) (*dto.ExportJobResponse, error) {
	switch req.Type {
	case models.ReportTypeEnrollments, models.ReportTypeAttendance, models.ReportTypeRevenue, models.ReportTypeUserActivity:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown report type "+string(req.Type))
	}
	switch req.Format {
	case models.ReportFormatCSV, models.ReportFormatPDF:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown export format "+string(req.Format))
	}
	// Fail loudly now rather than inside the worker.
	if _, err := ParseReportFilter(RawReportFilter{
		TrainingID:    formatID(req.TrainingID),
		SessionID:     formatID(req.SessionID),
		Status:        req.Status,
		PaymentStatus: req.PaymentStatus,
		Role:          req.Role,
		DateFrom:      req.DateFrom,
		DateTo:        req.DateTo,
	}); err != nil {
		return nil, err
	}

	job := &models.ReportJob{
		Type: req.Type,
		Params: models.ReportJobParams{
			TrainingID:    req.TrainingID,
			SessionID:     req.SessionID,
			Status:        req.Status,
			PaymentStatus: req.PaymentStatus,
			Role:          req.Role,
			DateFrom:      req.DateFrom,
			DateTo:        req.DateTo,
			Format:        req.Format,
		},
		Status:    models.ReportStatusQueued,
		CreatedBy: userID,
	}
	if err := s.jobsRepo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus returns job progress for the owning user. Admins may read
// any job.
func (s *ExportService) GetStatus(ctx context.Context, jobID string, userID int64, role models.UserRole) (*dto.ExportStatusResponse, error) {
	job, err := s.jobsRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	if job.CreatedBy != userID && role != models.RoleAdmin && role != models.RoleCoordinator {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export job belongs to another user")
	}
	resp := &dto.ExportStatusResponse{
		ID:       job.ID,
		Status:   job.Status,
		Progress: job.Progress,
		Error:    job.ErrorMessage,
	}
	if job.Status == models.ReportStatusFinished && job.ResultURL != nil {
		resp.ResultURL = job.ResultURL
	}
	return resp, nil
}

// ResolveDownload validates a signed token and opens the stored file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (string, []byte, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	if _, err := s.jobsRepo.GetByID(ctx, jobID); err != nil {
		return "", nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return "", nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export file")
	}
	return relPath, data, nil
}

// CleanupExpired deletes stored files for jobs finished before cutoff.
func (s *ExportService) CleanupExpired(ctx context.Context, ttl time.Duration) {
	cutoff := time.Now().UTC().Add(-ttl)
	finished, err := s.jobsRepo.ListFinishedBefore(ctx, cutoff, 50)
	if err != nil {
		s.logger.Warn("failed to list expired export jobs", zap.Error(err))
		return
	}
	for _, job := range finished {
		filename := exportFilename(job.ID, job.Params.Format)
		if err := s.storage.Delete(filename); err != nil {
			s.logger.Warn("failed to delete export file", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	removed, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("storage cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("removed stale export files", zap.Int("count", len(removed)))
	}
}

// process executes one export job end to end.
func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	record, err := s.jobsRepo.GetByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", job.ID, err)
	}
	if record.Status == models.ReportStatusFinished {
		return nil
	}

	s.updateJob(ctx, job.ID, repository.UpdateReportJobParams{
		Status:   statusPtr(models.ReportStatusProcessing),
		Progress: intPtr(10),
	})

	table, err := s.buildTable(ctx, record)
	if err != nil {
		s.failJob(ctx, job.ID, err)
		return err
	}
	s.updateJob(ctx, job.ID, repository.UpdateReportJobParams{Progress: intPtr(60)})

	var payload []byte
	switch record.Params.Format {
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(table, fmt.Sprintf("%s report", record.Type))
	default:
		payload, err = s.csv.Render(table)
	}
	if err != nil {
		s.failJob(ctx, job.ID, err)
		return err
	}

	filename := exportFilename(record.ID, record.Params.Format)
	if _, err := s.storage.Save(filename, payload); err != nil {
		s.failJob(ctx, job.ID, err)
		return err
	}

	token, _, err := s.signer.Generate(record.ID, filename)
	if err != nil {
		s.failJob(ctx, job.ID, err)
		return err
	}
	resultURL := "/api/reports/download/" + token

	now := time.Now().UTC()
	s.updateJob(ctx, job.ID, repository.UpdateReportJobParams{
		Status:     statusPtr(models.ReportStatusFinished),
		Progress:   intPtr(100),
		ResultURL:  &resultURL,
		FinishedAt: &now,
	})
	if s.metrics != nil {
		s.metrics.IncReportJob(string(models.ReportStatusFinished))
	}
	s.logger.Info("export job finished", zap.String("job_id", record.ID), zap.String("type", string(record.Type)))
	return nil
}

func (s *ExportService) buildTable(ctx context.Context, record *models.ReportJob) (export.Table, error) {
	filter, err := ParseReportFilter(RawReportFilter{
		TrainingID:    formatID(record.Params.TrainingID),
		SessionID:     formatID(record.Params.SessionID),
		Status:        record.Params.Status,
		PaymentStatus: record.Params.PaymentStatus,
		Role:          record.Params.Role,
		DateFrom:      record.Params.DateFrom,
		DateTo:        record.Params.DateTo,
	})
	if err != nil {
		return export.Table{}, err
	}

	switch record.Type {
	case models.ReportTypeEnrollments:
		report, _, err := s.reports.Enrollments(ctx, filter)
		if err != nil {
			return export.Table{}, err
		}
		return enrollmentTable(report), nil
	case models.ReportTypeAttendance:
		report, _, err := s.reports.Attendance(ctx, filter)
		if err != nil {
			return export.Table{}, err
		}
		return attendanceTable(report), nil
	case models.ReportTypeRevenue:
		report, _, err := s.reports.Revenue(ctx, filter)
		if err != nil {
			return export.Table{}, err
		}
		return revenueTable(report), nil
	case models.ReportTypeUserActivity:
		report, _, err := s.reports.UserActivity(ctx, filter)
		if err != nil {
			return export.Table{}, err
		}
		return userActivityTable(report), nil
	default:
		return export.Table{}, fmt.Errorf("unknown report type %q", record.Type)
	}
}

func enrollmentTable(report *dto.EnrollmentReportResponse) export.Table {
	table := export.Table{
		Columns: []string{"id", "user", "training", "status", "payment_status", "progress", "created_at"},
	}
	for _, e := range report.Enrollments {
		user := ""
		if e.UserName != nil {
			user = *e.UserName
		}
		training := ""
		if e.TrainingTitle != nil {
			training = *e.TrainingTitle
		}
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(e.ID, 10),
			user,
			training,
			string(e.Status),
			string(e.PaymentStatus),
			strconv.Itoa(e.Progress),
			e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return table
}

func attendanceTable(report *dto.AttendanceReportResponse) export.Table {
	table := export.Table{
		Columns: []string{"id", "user_id", "session", "status", "session_start"},
	}
	for _, a := range report.Attendances {
		session := ""
		if a.SessionTitle != nil {
			session = *a.SessionTitle
		}
		start := ""
		if a.SessionStartTime != nil {
			start = a.SessionStartTime.UTC().Format(time.RFC3339)
		}
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(a.ID, 10),
			strconv.FormatInt(a.UserID, 10),
			session,
			string(a.Status),
			start,
		})
	}
	return table
}

func revenueTable(report *dto.RevenueReportResponse) export.Table {
	table := export.Table{
		Columns: []string{"training_id", "title", "enrollments", "revenue"},
	}
	for _, item := range report.RevenueByTraining {
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(item.TrainingID, 10),
			item.Title,
			strconv.Itoa(item.EnrollmentCount),
			strconv.FormatFloat(item.Revenue, 'f', 2, 64),
		})
	}
	return table
}

func userActivityTable(report *dto.UserActivityReportResponse) export.Table {
	table := export.Table{
		Columns: []string{"id", "name", "email", "role", "enrollments_count", "attendance_rate"},
	}
	for _, u := range report.Users {
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(u.ID, 10),
			u.Name,
			u.Email,
			string(u.Role),
			strconv.Itoa(u.EnrollmentsCount),
			strconv.FormatFloat(u.AttendanceRate, 'f', 2, 64),
		})
	}
	return table
}

func (s *ExportService) updateJob(ctx context.Context, id string, params repository.UpdateReportJobParams) {
	if err := s.jobsRepo.Update(ctx, id, params); err != nil {
		s.logger.Warn("failed to update export job", zap.String("job_id", id), zap.Error(err))
	}
}

func (s *ExportService) failJob(ctx context.Context, id string, cause error) {
	message := cause.Error()
	now := time.Now().UTC()
	s.updateJob(ctx, id, repository.UpdateReportJobParams{
		Status:       statusPtr(models.ReportStatusFailed),
		ErrorMessage: &message,
		FinishedAt:   &now,
	})
	if s.metrics != nil {
		s.metrics.IncReportJob(string(models.ReportStatusFailed))
	}
	s.logger.Error("export job failed", zap.String("job_id", id), zap.Error(cause))
}

func exportFilename(jobID string, format models.ReportFormat) string {
	ext := "csv"
	if format == models.ReportFormatPDF {
		ext = "pdf"
	}
	return fmt.Sprintf("report-%s.%s", jobID, ext)
}

func formatID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func statusPtr(s models.ReportStatus) *models.ReportStatus { return &s }

func intPtr(v int) *int { return &v }
