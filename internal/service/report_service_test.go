package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rzouga01/learnhub-api/internal/models"
	appErrors "github.com/Rzouga01/learnhub-api/pkg/errors"
)

type fakeEnrollmentStore struct {
	rows []models.EnrollmentDetail
	err  error
}

func (f *fakeEnrollmentStore) List(context.Context, models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	return f.rows, f.err
}

type fakeAttendanceStore struct {
	rows []models.AttendanceDetail
	err  error
}

func (f *fakeAttendanceStore) List(context.Context, models.AttendanceFilter) ([]models.AttendanceDetail, error) {
	return f.rows, f.err
}

type fakeTrainingStore struct {
	rows []models.Training
	err  error
}

func (f *fakeTrainingStore) ListAll(context.Context) ([]models.Training, error) {
	return f.rows, f.err
}

type fakeUserStore struct {
	rows []models.User
	err  error
}

func (f *fakeUserStore) List(context.Context, models.UserFilter) ([]models.User, error) {
	return f.rows, f.err
}

func strPtr(s string) *string { return &s }

func detail(id, userID, trainingID int64, status models.EnrollmentStatus, payment models.PaymentStatus, progress int, createdAt time.Time) models.EnrollmentDetail {
	return models.EnrollmentDetail{
		Enrollment: models.Enrollment{
			ID:            id,
			UserID:        userID,
			TrainingID:    trainingID,
			Status:        status,
			PaymentStatus: payment,
			Progress:      progress,
			CreatedAt:     createdAt,
		},
	}
}

func newTestReportService(enr *fakeEnrollmentStore, att *fakeAttendanceStore, trn *fakeTrainingStore, usr *fakeUserStore) *ReportService {
	return NewReportService(ReportServiceParams{
		Enrollments: enr,
		Attendances: att,
		Trainings:   trn,
		Users:       usr,
	})
}

func TestParseReportFilterRejectsMalformedDate(t *testing.T) {
	_, err := ParseReportFilter(RawReportFilter{DateFrom: "not-a-date"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidFilter.Code, appErr.Code)

	_, err = ParseReportFilter(RawReportFilter{DateTo: "2024-13-40"})
	require.Error(t, err)
}

func TestParseReportFilterRejectsBadID(t *testing.T) {
	_, err := ParseReportFilter(RawReportFilter{TrainingID: "abc"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidFilter.Code, appErrors.FromError(err).Code)
}

func TestParseReportFilterDateOnlyUpperBoundInclusive(t *testing.T) {
	filter, err := ParseReportFilter(RawReportFilter{DateTo: "2024-03-10"})
	require.NoError(t, err)
	require.NotNil(t, filter.DateTo)

	lateThatDay := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)
	assert.True(t, withinRange(lateThatDay, nil, filter.DateTo))
	nextDay := time.Date(2024, 3, 11, 0, 0, 1, 0, time.UTC)
	assert.False(t, withinRange(nextDay, nil, filter.DateTo))
}

func TestEnrollmentReportSummary(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	enr := &fakeEnrollmentStore{rows: []models.EnrollmentDetail{
		detail(1, 1, 1, models.EnrollmentStatusActive, models.PaymentStatusPaid, 100, base),
		detail(2, 2, 1, models.EnrollmentStatusActive, models.PaymentStatusPending, 40, base.Add(time.Hour)),
		detail(3, 3, 2, models.EnrollmentStatusPending, models.PaymentStatusPending, 0, base.Add(2*time.Hour)),
	}}
	svc := newTestReportService(enr, &fakeAttendanceStore{}, &fakeTrainingStore{}, &fakeUserStore{})

	report, cacheHit, err := svc.Enrollments(context.Background(), ReportFilter{})
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, 2, report.Summary.ByStatus["active"])
	assert.Equal(t, 1, report.Summary.ByStatus["pending"])
	assert.Equal(t, 1, report.Summary.ByPaymentStatus["paid"])
}

func TestEnrollmentReportFiltersCommute(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := []models.EnrollmentDetail{
		detail(1, 1, 1, models.EnrollmentStatusActive, models.PaymentStatusPaid, 50, base),
		detail(2, 2, 1, models.EnrollmentStatusCompleted, models.PaymentStatusPaid, 100, base),
		detail(3, 3, 2, models.EnrollmentStatusActive, models.PaymentStatusPaid, 10, base),
	}

	trainingID := int64(1)
	oneThenOther := filterEnrollments(filterEnrollments(rows, ReportFilter{TrainingID: &trainingID}), ReportFilter{Status: "active"})
	otherThenOne := filterEnrollments(filterEnrollments(rows, ReportFilter{Status: "active"}), ReportFilter{TrainingID: &trainingID})
	combined := filterEnrollments(rows, ReportFilter{TrainingID: &trainingID, Status: "active"})

	assert.Equal(t, combined, oneThenOther)
	assert.Equal(t, combined, otherThenOne)
	require.Len(t, combined, 1)
	assert.Equal(t, int64(1), combined[0].ID)
}

func TestAttendanceReportScopesThroughSession(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	trainingA := int64(1)
	trainingB := int64(2)
	att := &fakeAttendanceStore{rows: []models.AttendanceDetail{
		{
			Attendance: models.Attendance{ID: 1, UserID: 1, SessionID: 10, Status: models.AttendanceStatusPresent, CreatedAt: start},
			TrainingID: &trainingA, SessionTitle: strPtr("Week 1"), SessionStartTime: &start,
		},
		{
			Attendance: models.Attendance{ID: 2, UserID: 1, SessionID: 20, Status: models.AttendanceStatusAbsent, CreatedAt: start},
			TrainingID: &trainingB, SessionStartTime: &start,
		},
		{
			// Orphaned record: session join missing.
			Attendance: models.Attendance{ID: 3, UserID: 2, SessionID: 30, Status: models.AttendanceStatusPresent, CreatedAt: start},
		},
	}}
	svc := newTestReportService(&fakeEnrollmentStore{}, att, &fakeTrainingStore{}, &fakeUserStore{})

	report, _, err := svc.Attendance(context.Background(), ReportFilter{TrainingID: &trainingA})
	require.NoError(t, err)
	require.Len(t, report.Attendances, 1)
	assert.Equal(t, int64(1), report.Attendances[0].ID)
	assert.Equal(t, 100.0, report.Summary.AttendanceRate)
}

func TestAttendanceReportRate(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	att := &fakeAttendanceStore{rows: []models.AttendanceDetail{
		{Attendance: models.Attendance{ID: 1, Status: models.AttendanceStatusPresent, CreatedAt: start}},
		{Attendance: models.Attendance{ID: 2, Status: models.AttendanceStatusAbsent, CreatedAt: start}},
		{Attendance: models.Attendance{ID: 3, Status: models.AttendanceStatusPresent, CreatedAt: start}},
	}}
	svc := newTestReportService(&fakeEnrollmentStore{}, att, &fakeTrainingStore{}, &fakeUserStore{})

	report, _, err := svc.Attendance(context.Background(), ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, 66.67, report.Summary.AttendanceRate)
}

func TestRevenueReportGroupsInInsertionOrder(t *testing.T) {
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	enr := &fakeEnrollmentStore{rows: []models.EnrollmentDetail{
		detail(1, 1, 2, models.EnrollmentStatusActive, models.PaymentStatusPaid, 10, march),
		detail(2, 2, 1, models.EnrollmentStatusActive, models.PaymentStatusPaid, 10, march),
		detail(3, 3, 2, models.EnrollmentStatusActive, models.PaymentStatusPaid, 10, april),
		detail(4, 4, 1, models.EnrollmentStatusActive, models.PaymentStatusPending, 10, april),
		detail(5, 5, 99, models.EnrollmentStatusActive, models.PaymentStatusPaid, 10, april),
	}}
	trn := &fakeTrainingStore{rows: []models.Training{
		{ID: 1, Title: "Go Basics", Price: 100},
		{ID: 2, Title: "SQL Deep Dive", Price: 50},
	}}
	svc := newTestReportService(enr, &fakeAttendanceStore{}, trn, &fakeUserStore{})

	report, _, err := svc.Revenue(context.Background(), ReportFilter{})
	require.NoError(t, err)
	// Paid enrollment for a missing training contributes nothing.
	assert.Equal(t, 200.0, report.TotalRevenue)

	require.Len(t, report.RevenueByTraining, 2)
	assert.Equal(t, int64(2), report.RevenueByTraining[0].TrainingID)
	assert.Equal(t, 100.0, report.RevenueByTraining[0].Revenue)
	assert.Equal(t, 2, report.RevenueByTraining[0].EnrollmentCount)
	assert.Equal(t, int64(1), report.RevenueByTraining[1].TrainingID)

	require.Len(t, report.RevenueByMonth, 2)
	assert.Equal(t, "2024-03", report.RevenueByMonth[0].Month)
	assert.Equal(t, 150.0, report.RevenueByMonth[0].Revenue)
	assert.Equal(t, "2024-04", report.RevenueByMonth[1].Month)
	assert.Equal(t, 50.0, report.RevenueByMonth[1].Revenue)
}

func TestRevenueReportEmpty(t *testing.T) {
	svc := newTestReportService(&fakeEnrollmentStore{}, &fakeAttendanceStore{}, &fakeTrainingStore{}, &fakeUserStore{})
	report, _, err := svc.Revenue(context.Background(), ReportFilter{})
	require.NoError(t, err)
	assert.Zero(t, report.TotalRevenue)
	assert.Empty(t, report.RevenueByTraining)
	assert.Empty(t, report.RevenueByMonth)
}

func TestUserActivityReport(t *testing.T) {
	created := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	usr := &fakeUserStore{rows: []models.User{
		{ID: 1, Name: "Lea", Email: "lea@example.com", Role: models.RoleStudent, CreatedAt: created},
		{ID: 2, Name: "Sam", Email: "sam@example.com", Role: models.RoleStudent, CreatedAt: created},
		{ID: 3, Name: "Ana", Email: "ana@example.com", Role: models.RoleTrainer, CreatedAt: created},
	}}
	enr := &fakeEnrollmentStore{rows: []models.EnrollmentDetail{
		detail(1, 1, 1, models.EnrollmentStatusActive, models.PaymentStatusPaid, 10, created),
		detail(2, 1, 2, models.EnrollmentStatusActive, models.PaymentStatusPaid, 10, created),
		detail(3, 2, 1, models.EnrollmentStatusActive, models.PaymentStatusPaid, 10, created),
	}}
	att := &fakeAttendanceStore{rows: []models.AttendanceDetail{
		{Attendance: models.Attendance{ID: 1, UserID: 1, Status: models.AttendanceStatusPresent, CreatedAt: created}},
		{Attendance: models.Attendance{ID: 2, UserID: 1, Status: models.AttendanceStatusAbsent, CreatedAt: created}},
	}}
	svc := newTestReportService(enr, att, &fakeTrainingStore{}, usr)

	report, _, err := svc.UserActivity(context.Background(), ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Summary.TotalUsers)
	assert.Equal(t, 2, report.Summary.ByRole["student"])
	assert.Equal(t, 1.0, report.Summary.AverageEnrollments)

	require.Len(t, report.Users, 3)
	assert.Equal(t, 2, report.Users[0].EnrollmentsCount)
	assert.Equal(t, 50.0, report.Users[0].AttendanceRate)
	assert.Equal(t, 0, report.Users[2].EnrollmentsCount)
	assert.Zero(t, report.Users[2].AttendanceRate)
}

func TestUserActivityReportRoleFilter(t *testing.T) {
	created := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	usr := &fakeUserStore{rows: []models.User{
		{ID: 1, Role: models.RoleStudent, CreatedAt: created},
		{ID: 2, Role: models.RoleTrainer, CreatedAt: created},
	}}
	svc := newTestReportService(&fakeEnrollmentStore{}, &fakeAttendanceStore{}, &fakeTrainingStore{}, usr)

	report, _, err := svc.UserActivity(context.Background(), ReportFilter{Role: "trainer"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.TotalUsers)
	assert.Zero(t, report.Summary.AverageEnrollments)
}

func TestReportServiceWrapsStoreErrors(t *testing.T) {
	enr := &fakeEnrollmentStore{err: errors.New("boom")}
	svc := newTestReportService(enr, &fakeAttendanceStore{}, &fakeTrainingStore{}, &fakeUserStore{})

	_, _, err := svc.Enrollments(context.Background(), ReportFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
