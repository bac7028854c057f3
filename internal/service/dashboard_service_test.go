package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rzouga01/learnhub-api/internal/dto"
	"github.com/Rzouga01/learnhub-api/internal/models"
)

type fakeDashEnrollments struct {
	byUser  []models.EnrollmentDetail
	all     []models.EnrollmentDetail
	pending int
}

func (f *fakeDashEnrollments) ListByUser(context.Context, int64) ([]models.EnrollmentDetail, error) {
	return f.byUser, nil
}

func (f *fakeDashEnrollments) List(context.Context, models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	return f.all, nil
}

func (f *fakeDashEnrollments) CountByStatus(context.Context, models.EnrollmentStatus) (int, error) {
	return f.pending, nil
}

type fakeDashAttendances struct {
	byUser []models.AttendanceDetail
}

func (f *fakeDashAttendances) ListByUser(context.Context, int64) ([]models.AttendanceDetail, error) {
	return f.byUser, nil
}

type fakeDashTrainings struct {
	all   []models.Training
	owned []models.Training
}

func (f *fakeDashTrainings) ListAll(context.Context) ([]models.Training, error) {
	return f.all, nil
}

func (f *fakeDashTrainings) ListByOwner(context.Context, int64) ([]models.Training, error) {
	return f.owned, nil
}

type fakeDashSessions struct {
	sessions []models.Session
}

func (f *fakeDashSessions) List(context.Context, models.SessionFilter) ([]models.Session, error) {
	return f.sessions, nil
}

type fakeDashUsers struct {
	counts map[models.UserRole]int
}

func (f *fakeDashUsers) CountByRole(_ context.Context, role models.UserRole) (int, error) {
	return f.counts[role], nil
}

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestDashboardService(enr *fakeDashEnrollments, att *fakeDashAttendances, trn *fakeDashTrainings, ses *fakeDashSessions, usr *fakeDashUsers) *DashboardService {
	return NewDashboardService(DashboardServiceParams{
		Enrollments: enr,
		Attendances: att,
		Trainings:   trn,
		Sessions:    ses,
		Users:       usr,
		Now:         func() time.Time { return testNow },
	})
}

func TestStudentDashboardEmpty(t *testing.T) {
	svc := newTestDashboardService(&fakeDashEnrollments{}, &fakeDashAttendances{}, &fakeDashTrainings{}, &fakeDashSessions{}, &fakeDashUsers{})

	result, cacheHit, err := svc.Student(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Zero(t, result.CoursesEnrolled)
	assert.Zero(t, result.CoursesCompleted)
	assert.Zero(t, result.TotalHours)
	assert.Zero(t, result.Streak)
	assert.Zero(t, result.XP)
	assert.Equal(t, 1, result.Level)
	assert.Equal(t, 1000, result.NextLevelXP)
	assert.Empty(t, result.ActiveCourses)
}

func TestStudentDashboardAggregates(t *testing.T) {
	title := "Go Fundamentals"
	trainer := "Sam Doe"
	rating := 4.5
	enr := &fakeDashEnrollments{byUser: []models.EnrollmentDetail{
		{
			Enrollment:    models.Enrollment{ID: 1, UserID: 7, TrainingID: 1, Status: models.EnrollmentStatusActive, Progress: 50, CreatedAt: testNow.Add(-48 * time.Hour)},
			TrainingTitle: &title, TrainerName: &trainer, Rating: &rating,
		},
		{
			Enrollment: models.Enrollment{ID: 2, UserID: 7, TrainingID: 2, Status: models.EnrollmentStatusCompleted, Progress: 100, CreatedAt: testNow.Add(-24 * time.Hour)},
		},
	}}
	att := &fakeDashAttendances{byUser: []models.AttendanceDetail{
		{Attendance: models.Attendance{ID: 1, UserID: 7, Status: models.AttendanceStatusPresent, CreatedAt: testNow.Add(-24 * time.Hour)}},
		{Attendance: models.Attendance{ID: 2, UserID: 7, Status: models.AttendanceStatusPresent, CreatedAt: testNow.Add(-48 * time.Hour)}},
		{Attendance: models.Attendance{ID: 3, UserID: 7, Status: models.AttendanceStatusAbsent, CreatedAt: testNow.Add(-72 * time.Hour)}},
	}}
	svc := newTestDashboardService(enr, att, &fakeDashTrainings{}, &fakeDashSessions{}, &fakeDashUsers{})

	result, _, err := svc.Student(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 2, result.CoursesEnrolled)
	assert.Equal(t, 1, result.CoursesCompleted)
	assert.Equal(t, 1, result.Certificates)
	assert.Equal(t, 4, result.TotalHours)
	assert.Equal(t, 2, result.Streak)
	assert.Equal(t, 1500, result.XP)
	assert.Equal(t, 2, result.Level)
	assert.Equal(t, 2000, result.NextLevelXP)

	require.Len(t, result.ActiveCourses, 2)
	assert.Equal(t, title, result.ActiveCourses[0].Title)
	assert.Equal(t, trainer, result.ActiveCourses[0].Trainer)
	assert.Equal(t, rating, result.ActiveCourses[0].Rating)
	assert.Equal(t, "Untitled Course", result.ActiveCourses[1].Title)
	assert.Equal(t, "Unknown", result.ActiveCourses[1].Trainer)
	assert.Zero(t, result.ActiveCourses[1].Rating)
}

func TestTrainerDashboard(t *testing.T) {
	trn := &fakeDashTrainings{owned: []models.Training{
		{ID: 1, OwnerUserID: 9, Title: "Go Basics", Price: 100, Rating: 4.0},
		{ID: 2, OwnerUserID: 9, Title: "SQL Deep Dive", Price: 50, Rating: 0},
	}}
	enr := &fakeDashEnrollments{all: []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{ID: 1, UserID: 1, TrainingID: 1, Status: models.EnrollmentStatusCompleted, PaymentStatus: models.PaymentStatusPaid, Progress: 100}},
		{Enrollment: models.Enrollment{ID: 2, UserID: 2, TrainingID: 1, Status: models.EnrollmentStatusActive, PaymentStatus: models.PaymentStatusPaid, Progress: 20}},
		{Enrollment: models.Enrollment{ID: 3, UserID: 1, TrainingID: 2, Status: models.EnrollmentStatusActive, PaymentStatus: models.PaymentStatusPending, Progress: 0}},
		// Enrollment in someone else's training is out of scope.
		{Enrollment: models.Enrollment{ID: 4, UserID: 3, TrainingID: 5, Status: models.EnrollmentStatusActive, PaymentStatus: models.PaymentStatusPaid, Progress: 0}},
	}}
	ses := &fakeDashSessions{sessions: []models.Session{
		{ID: 1, TrainingID: 1, StartTime: testNow.Add(time.Hour)},
		{ID: 2, TrainingID: 1, StartTime: testNow.Add(-time.Hour)},
		{ID: 3, TrainingID: 5, StartTime: testNow.Add(time.Hour)},
	}}
	svc := newTestDashboardService(enr, &fakeDashAttendances{}, trn, ses, &fakeDashUsers{})

	result, _, err := svc.Trainer(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalCourses)
	assert.Equal(t, 2, result.TotalStudents)
	assert.Equal(t, 33.33, result.CompletionRate)
	assert.Equal(t, 4.0, result.AvgRating)
	assert.Equal(t, 1, result.UpcomingSessions)
	assert.Equal(t, 200.0, result.TotalRevenue)
}

func TestCoordinatorDashboard(t *testing.T) {
	past := testNow.Add(-24 * time.Hour)
	future := testNow.Add(24 * time.Hour)
	trn := &fakeDashTrainings{all: []models.Training{
		{ID: 1, EndDate: &future},
		{ID: 2, EndDate: &past},
		{ID: 3},
	}}
	enr := &fakeDashEnrollments{
		pending: 4,
		all: []models.EnrollmentDetail{
			{Enrollment: models.Enrollment{ID: 1, Status: models.EnrollmentStatusCompleted, Progress: 100}},
			{Enrollment: models.Enrollment{ID: 2, Status: models.EnrollmentStatusActive, Progress: 10}},
		},
	}
	usr := &fakeDashUsers{counts: map[models.UserRole]int{
		models.RoleTrainer: 3,
		models.RoleStudent: 25,
	}}
	svc := newTestDashboardService(enr, &fakeDashAttendances{}, trn, &fakeDashSessions{}, usr)

	result, _, err := svc.Coordinator(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalTrainings)
	assert.Equal(t, 3, result.TotalTrainers)
	assert.Equal(t, 25, result.TotalLearners)
	assert.Equal(t, 2, result.ActiveTrainings)
	assert.Equal(t, 4, result.PendingApplications)
	assert.Equal(t, 50.0, result.CompletionRate)
}

func TestSummaryDispatchesOnRole(t *testing.T) {
	svc := newTestDashboardService(&fakeDashEnrollments{}, &fakeDashAttendances{}, &fakeDashTrainings{}, &fakeDashSessions{}, &fakeDashUsers{})

	studentView, _, err := svc.Summary(context.Background(), 1, models.RoleStudent)
	require.NoError(t, err)
	assert.IsType(t, &dto.StudentDashboardResponse{}, studentView)

	coordinatorView, _, err := svc.Summary(context.Background(), 1, models.RoleCoordinator)
	require.NoError(t, err)
	assert.IsType(t, &dto.CoordinatorDashboardResponse{}, coordinatorView)

	adminView, _, err := svc.Summary(context.Background(), 1, models.RoleAdmin)
	require.NoError(t, err)
	assert.IsType(t, &dto.CoordinatorDashboardResponse{}, adminView)

	_, _, err = svc.Summary(context.Background(), 1, models.UserRole("ghost"))
	require.Error(t, err)
}

func TestRecentActivityOrdersByTimestamp(t *testing.T) {
	title := "Go Fundamentals"
	session := "Week 3"
	enr := &fakeDashEnrollments{byUser: []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{ID: 1, CreatedAt: testNow.Add(-30 * time.Hour)}, TrainingTitle: &title},
		{Enrollment: models.Enrollment{ID: 2, CreatedAt: testNow.Add(-2 * time.Hour)}, TrainingTitle: &title},
		{Enrollment: models.Enrollment{ID: 3, CreatedAt: testNow.Add(-100 * time.Hour)}, TrainingTitle: &title},
		{Enrollment: models.Enrollment{ID: 4, CreatedAt: testNow.Add(-200 * time.Hour)}, TrainingTitle: &title},
	}}
	att := &fakeDashAttendances{byUser: []models.AttendanceDetail{
		{Attendance: models.Attendance{ID: 10, Status: models.AttendanceStatusPresent, CreatedAt: testNow.Add(-time.Hour)}, SessionTitle: &session},
		{Attendance: models.Attendance{ID: 11, Status: models.AttendanceStatusAbsent, CreatedAt: testNow.Add(-time.Minute)}, SessionTitle: &session},
		{Attendance: models.Attendance{ID: 12, Status: models.AttendanceStatusPresent, CreatedAt: testNow.Add(-50 * time.Hour)}, SessionTitle: &session},
	}}
	svc := newTestDashboardService(enr, att, &fakeDashTrainings{}, &fakeDashSessions{}, &fakeDashUsers{})

	items, err := svc.RecentActivity(context.Background(), 7)
	require.NoError(t, err)
	// 3 newest enrollments + 2 newest present attendances, newest first.
	require.Len(t, items, 5)
	assert.Equal(t, int64(10), items[0].ID)
	assert.Equal(t, "Attended Week 3", items[0].Title)
	assert.Equal(t, "1 hour ago", items[0].RelativeTime)
	assert.Equal(t, int64(2), items[1].ID)
	assert.Equal(t, "Enrolled in Go Fundamentals", items[1].Title)
	assert.Equal(t, int64(1), items[2].ID)
	assert.Equal(t, int64(12), items[3].ID)
	assert.Equal(t, int64(3), items[4].ID)
}

func TestRelativeTimeLabels(t *testing.T) {
	assert.Equal(t, "just now", relativeTime(testNow, testNow.Add(-30*time.Second)))
	assert.Equal(t, "1 minute ago", relativeTime(testNow, testNow.Add(-90*time.Second)))
	assert.Equal(t, "5 minutes ago", relativeTime(testNow, testNow.Add(-5*time.Minute)))
	assert.Equal(t, "2 hours ago", relativeTime(testNow, testNow.Add(-2*time.Hour)))
	assert.Equal(t, "1 day ago", relativeTime(testNow, testNow.Add(-25*time.Hour)))
	assert.Equal(t, "3 days ago", relativeTime(testNow, testNow.Add(-80*time.Hour)))
}
