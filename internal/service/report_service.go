package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Rzouga01/learnhub-api/internal/dto"
	"github.com/Rzouga01/learnhub-api/internal/models"
	"github.com/Rzouga01/learnhub-api/internal/stats"
	appErrors "github.com/Rzouga01/learnhub-api/pkg/errors"
)

type reportEnrollmentStore interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error)
}

type reportAttendanceStore interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, error)
}

type reportTrainingStore interface {
	ListAll(ctx context.Context) ([]models.Training, error)
}

type reportUserStore interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
}

// ReportFilter carries the recognized filter keys. Nil/empty fields
// impose no constraint. Unrecognized query keys never reach this struct;
// they are ignored at the parsing boundary.
type ReportFilter struct {
	TrainingID    *int64
	SessionID     *int64
	Status        string
	PaymentStatus string
	Role          string
	DateFrom      *time.Time
	DateTo        *time.Time
}

// RawReportFilter is the unparsed form taken from query parameters or
// persisted job params.
type RawReportFilter struct {
	TrainingID    string
	SessionID     string
	Status        string
	PaymentStatus string
	Role          string
	DateFrom      string
	DateTo        string
}

// ParseReportFilter validates raw values. Malformed dates and IDs fail
// loudly with ErrInvalidFilter; everything else narrows silently.
func ParseReportFilter(raw RawReportFilter) (ReportFilter, error) {
	filter := ReportFilter{
		Status:        strings.TrimSpace(raw.Status),
		PaymentStatus: strings.TrimSpace(raw.PaymentStatus),
		Role:          strings.TrimSpace(raw.Role),
	}

	if raw.TrainingID != "" {
		id, err := strconv.ParseInt(raw.TrainingID, 10, 64)
		if err != nil {
			return ReportFilter{}, appErrors.Clone(appErrors.ErrInvalidFilter, "training_id must be an integer")
		}
		filter.TrainingID = &id
	}
	if raw.SessionID != "" {
		id, err := strconv.ParseInt(raw.SessionID, 10, 64)
		if err != nil {
			return ReportFilter{}, appErrors.Clone(appErrors.ErrInvalidFilter, "session_id must be an integer")
		}
		filter.SessionID = &id
	}
	if raw.DateFrom != "" {
		from, err := parseFilterDate(raw.DateFrom, false)
		if err != nil {
			return ReportFilter{}, appErrors.Clone(appErrors.ErrInvalidFilter, "date_from must be an ISO-8601 date")
		}
		filter.DateFrom = &from
	}
	if raw.DateTo != "" {
		to, err := parseFilterDate(raw.DateTo, true)
		if err != nil {
			return ReportFilter{}, appErrors.Clone(appErrors.ErrInvalidFilter, "date_to must be an ISO-8601 date")
		}
		filter.DateTo = &to
	}
	return filter, nil
}

// parseFilterDate accepts date-only or full RFC3339 values. Date-only
// upper bounds extend to the end of the day to keep the range inclusive.
func parseFilterDate(raw string, upperBound bool) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		if upperBound {
			return t.Add(24*time.Hour - time.Nanosecond), nil
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ReportService composes the filterable aggregation reports. All
// computation happens over materialized in-memory snapshots; builders
// never mutate records and degrade to zero values on empty input.
type ReportService struct {
	enrollments reportEnrollmentStore
	attendances reportAttendanceStore
	trainings   reportTrainingStore
	users       reportUserStore
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	cacheTTL    time.Duration
}

// ReportServiceParams groups constructor dependencies.
type ReportServiceParams struct {
	Enrollments reportEnrollmentStore
	Attendances reportAttendanceStore
	Trainings   reportTrainingStore
	Users       reportUserStore
	Cache       *CacheService
	Metrics     *MetricsService
	Logger      *zap.Logger
	CacheTTL    time.Duration
}

// NewReportService constructs a ReportService.
func NewReportService(params ReportServiceParams) *ReportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ReportService{
		enrollments: params.Enrollments,
		attendances: params.Attendances,
		trainings:   params.Trainings,
		users:       params.Users,
		cache:       params.Cache,
		metrics:     params.Metrics,
		logger:      logger,
		cacheTTL:    ttl,
	}
}

// Enrollments builds the enrollment report. The boolean reports cache use.
func (s *ReportService) Enrollments(ctx context.Context, filter ReportFilter) (*dto.EnrollmentReportResponse, bool, error) {
	cacheKey := reportCacheKey("enrollments", filter)
	var cached dto.EnrollmentReportResponse
	if hit, err := s.tryCache(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	rows, err := s.loadEnrollments(ctx)
	if err != nil {
		return nil, false, err
	}
	rows = filterEnrollments(rows, filter)

	summary := dto.EnrollmentReportSummary{
		Total:           len(rows),
		ByStatus:        map[string]int{},
		ByPaymentStatus: map[string]int{},
	}
	for _, row := range rows {
		summary.ByStatus[string(row.Status)]++
		summary.ByPaymentStatus[string(row.PaymentStatus)]++
	}

	result := &dto.EnrollmentReportResponse{Enrollments: rows, Summary: summary}
	s.persistCache(ctx, cacheKey, result)
	return result, false, nil
}

// Attendance builds the attendance report. Training scoping applies
// transitively through each record's session.
func (s *ReportService) Attendance(ctx context.Context, filter ReportFilter) (*dto.AttendanceReportResponse, bool, error) {
	cacheKey := reportCacheKey("attendance", filter)
	var cached dto.AttendanceReportResponse
	if hit, err := s.tryCache(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	rows, err := s.loadAttendances(ctx)
	if err != nil {
		return nil, false, err
	}
	rows = filterAttendances(rows, filter)

	summary := dto.AttendanceReportSummary{
		Total:    len(rows),
		ByStatus: map[string]int{},
	}
	flat := make([]models.Attendance, 0, len(rows))
	for _, row := range rows {
		summary.ByStatus[string(row.Status)]++
		flat = append(flat, row.Attendance)
	}
	summary.AttendanceRate = stats.AttendanceRate(flat)

	result := &dto.AttendanceReportResponse{Attendances: rows, Summary: summary}
	s.persistCache(ctx, cacheKey, result)
	return result, false, nil
}

// Revenue builds the revenue report over paid enrollments. Prices are
// read from the current training rows, not enrollment-time snapshots.
func (s *ReportService) Revenue(ctx context.Context, filter ReportFilter) (*dto.RevenueReportResponse, bool, error) {
	cacheKey := reportCacheKey("revenue", filter)
	var cached dto.RevenueReportResponse
	if hit, err := s.tryCache(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	enrollments, err := s.loadEnrollments(ctx)
	if err != nil {
		return nil, false, err
	}
	trainings, err := s.loadTrainings(ctx)
	if err != nil {
		return nil, false, err
	}

	paidFilter := filter
	paidFilter.PaymentStatus = string(models.PaymentStatusPaid)
	paid := filterEnrollments(enrollments, paidFilter)

	trainingIndex := make(map[int64]models.Training, len(trainings))
	for _, t := range trainings {
		trainingIndex[t.ID] = t
	}

	result := &dto.RevenueReportResponse{
		RevenueByTraining: []dto.TrainingRevenueItem{},
		RevenueByMonth:    []dto.MonthlyRevenueItem{},
	}

	// Group keys keep first-occurrence order; consumers re-sort if needed.
	byTraining := map[int64]int{}
	byMonth := map[string]int{}
	for _, e := range paid {
		training, ok := trainingIndex[e.TrainingID]
		if !ok {
			continue
		}
		result.TotalRevenue += training.Price

		idx, seen := byTraining[e.TrainingID]
		if !seen {
			idx = len(result.RevenueByTraining)
			byTraining[e.TrainingID] = idx
			result.RevenueByTraining = append(result.RevenueByTraining, dto.TrainingRevenueItem{
				TrainingID: e.TrainingID,
				Title:      training.Title,
			})
		}
		result.RevenueByTraining[idx].EnrollmentCount++
		result.RevenueByTraining[idx].Revenue = stats.Round2(result.RevenueByTraining[idx].Revenue + training.Price)

		month := e.CreatedAt.UTC().Format("2006-01")
		mIdx, seen := byMonth[month]
		if !seen {
			mIdx = len(result.RevenueByMonth)
			byMonth[month] = mIdx
			result.RevenueByMonth = append(result.RevenueByMonth, dto.MonthlyRevenueItem{Month: month})
		}
		result.RevenueByMonth[mIdx].EnrollmentCount++
		result.RevenueByMonth[mIdx].Revenue = stats.Round2(result.RevenueByMonth[mIdx].Revenue + training.Price)
	}
	result.TotalRevenue = stats.Round2(result.TotalRevenue)

	s.persistCache(ctx, cacheKey, result)
	return result, false, nil
}

// UserActivity builds the user-activity report: users narrowed by
// role/date, annotated with enrollment counts and attendance rates.
func (s *ReportService) UserActivity(ctx context.Context, filter ReportFilter) (*dto.UserActivityReportResponse, bool, error) {
	cacheKey := reportCacheKey("user_activity", filter)
	var cached dto.UserActivityReportResponse
	if hit, err := s.tryCache(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, false, err
	}
	users = filterUsers(users, filter)

	enrollments, err := s.loadEnrollments(ctx)
	if err != nil {
		return nil, false, err
	}
	attendances, err := s.loadAttendances(ctx)
	if err != nil {
		return nil, false, err
	}

	enrollmentCounts := map[int64]int{}
	for _, e := range enrollments {
		enrollmentCounts[e.UserID]++
	}
	attendanceByUser := map[int64][]models.Attendance{}
	for _, a := range attendances {
		attendanceByUser[a.UserID] = append(attendanceByUser[a.UserID], a.Attendance)
	}

	result := &dto.UserActivityReportResponse{
		Users: make([]dto.UserActivityItem, 0, len(users)),
		Summary: dto.UserActivitySummary{
			TotalUsers: len(users),
			ByRole:     map[string]int{},
		},
	}
	totalEnrollments := 0
	for _, u := range users {
		count := enrollmentCounts[u.ID]
		totalEnrollments += count
		result.Users = append(result.Users, dto.UserActivityItem{
			ID:               u.ID,
			Name:             u.Name,
			Email:            u.Email,
			Role:             u.Role,
			EnrollmentsCount: count,
			AttendanceRate:   stats.AttendanceRate(attendanceByUser[u.ID]),
		})
		result.Summary.ByRole[string(u.Role)]++
	}
	if len(users) > 0 {
		result.Summary.AverageEnrollments = stats.Round2(float64(totalEnrollments) / float64(len(users)))
	}

	s.persistCache(ctx, cacheKey, result)
	return result, false, nil
}

func (s *ReportService) loadEnrollments(ctx context.Context) ([]models.EnrollmentDetail, error) {
	start := time.Now()
	rows, err := s.enrollments.List(ctx, models.EnrollmentFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("report_enrollments", time.Since(start))
	}
	return rows, nil
}

func (s *ReportService) loadAttendances(ctx context.Context) ([]models.AttendanceDetail, error) {
	start := time.Now()
	rows, err := s.attendances.List(ctx, models.AttendanceFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("report_attendance", time.Since(start))
	}
	return rows, nil
}

func (s *ReportService) loadTrainings(ctx context.Context) ([]models.Training, error) {
	start := time.Now()
	rows, err := s.trainings.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainings")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("report_trainings", time.Since(start))
	}
	return rows, nil
}

func (s *ReportService) loadUsers(ctx context.Context) ([]models.User, error) {
	start := time.Now()
	rows, err := s.users.List(ctx, models.UserFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load users")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("report_users", time.Since(start))
	}
	return rows, nil
}

func (s *ReportService) tryCache(ctx context.Context, key string, dest interface{}) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	return s.cache.Get(ctx, key, dest)
}

func (s *ReportService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// filterEnrollments narrows the collection in memory. Each set key is
// an independent predicate, so application order never changes results.
func filterEnrollments(rows []models.EnrollmentDetail, filter ReportFilter) []models.EnrollmentDetail {
	result := make([]models.EnrollmentDetail, 0, len(rows))
	for _, row := range rows {
		if filter.TrainingID != nil && row.TrainingID != *filter.TrainingID {
			continue
		}
		if filter.Status != "" && string(row.Status) != filter.Status {
			continue
		}
		if filter.PaymentStatus != "" && string(row.PaymentStatus) != filter.PaymentStatus {
			continue
		}
		if !withinRange(row.CreatedAt, filter.DateFrom, filter.DateTo) {
			continue
		}
		result = append(result, row)
	}
	return result
}

// filterAttendances narrows attendance records. Training and date
// constraints resolve through the parent session; records whose session
// join is missing are excluded when such a constraint is set.
func filterAttendances(rows []models.AttendanceDetail, filter ReportFilter) []models.AttendanceDetail {
	result := make([]models.AttendanceDetail, 0, len(rows))
	for _, row := range rows {
		if filter.SessionID != nil && row.SessionID != *filter.SessionID {
			continue
		}
		if filter.TrainingID != nil {
			if row.TrainingID == nil || *row.TrainingID != *filter.TrainingID {
				continue
			}
		}
		if filter.Status != "" && string(row.Status) != filter.Status {
			continue
		}
		if filter.DateFrom != nil || filter.DateTo != nil {
			if row.SessionStartTime == nil {
				continue
			}
			if !withinRange(*row.SessionStartTime, filter.DateFrom, filter.DateTo) {
				continue
			}
		}
		result = append(result, row)
	}
	return result
}

func filterUsers(rows []models.User, filter ReportFilter) []models.User {
	result := make([]models.User, 0, len(rows))
	for _, row := range rows {
		if filter.Role != "" && string(row.Role) != filter.Role {
			continue
		}
		if !withinRange(row.CreatedAt, filter.DateFrom, filter.DateTo) {
			continue
		}
		result = append(result, row)
	}
	return result
}

// withinRange checks an inclusive timestamp range; nil bounds pass.
func withinRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func reportCacheKey(kind string, filter ReportFilter) string {
	var builder strings.Builder
	builder.WriteString("report:")
	builder.WriteString(kind)
	appendKey := func(name, value string) {
		if value == "" {
			return
		}
		builder.WriteByte(':')
		builder.WriteString(name)
		builder.WriteByte('=')
		builder.WriteString(value)
	}
	if filter.TrainingID != nil {
		appendKey("training", strconv.FormatInt(*filter.TrainingID, 10))
	}
	if filter.SessionID != nil {
		appendKey("session", strconv.FormatInt(*filter.SessionID, 10))
	}
	appendKey("status", filter.Status)
	appendKey("payment", filter.PaymentStatus)
	appendKey("role", filter.Role)
	if filter.DateFrom != nil {
		appendKey("from", fmt.Sprintf("%d", filter.DateFrom.Unix()))
	}
	if filter.DateTo != nil {
		appendKey("to", fmt.Sprintf("%d", filter.DateTo.Unix()))
	}
	return builder.String()
}
