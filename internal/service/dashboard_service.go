package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Rzouga01/learnhub-api/internal/dto"
	"github.com/Rzouga01/learnhub-api/internal/models"
	"github.com/Rzouga01/learnhub-api/internal/stats"
	appErrors "github.com/Rzouga01/learnhub-api/pkg/errors"
)

const (
	fallbackTrainerName = "Unknown"
	fallbackCourseTitle = "Untitled Course"
)

type dashboardEnrollmentStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.EnrollmentDetail, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error)
	CountByStatus(ctx context.Context, status models.EnrollmentStatus) (int, error)
}

type dashboardAttendanceStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.AttendanceDetail, error)
}

type dashboardTrainingStore interface {
	ListAll(ctx context.Context) ([]models.Training, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Training, error)
}

type dashboardSessionStore interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, error)
}

type dashboardUserStore interface {
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
}

// DashboardService assembles the role-specific summary payloads. All
// statistics degrade to zero values on empty data; a missing relation
// substitutes a display fallback instead of failing the request.
type DashboardService struct {
	enrollments  dashboardEnrollmentStore
	attendances  dashboardAttendanceStore
	trainings    dashboardTrainingStore
	sessions     dashboardSessionStore
	users        dashboardUserStore
	cache        *CacheService
	metrics      *MetricsService
	logger       *zap.Logger
	now          func() time.Time
	cacheTTL     time.Duration
	sessionHours int
	streakWindow int
	activityMax  int
}

// DashboardServiceParams groups constructor dependencies. Now defaults
// to time.Now so tests can pin the clock.
type DashboardServiceParams struct {
	Enrollments  dashboardEnrollmentStore
	Attendances  dashboardAttendanceStore
	Trainings    dashboardTrainingStore
	Sessions     dashboardSessionStore
	Users        dashboardUserStore
	Cache        *CacheService
	Metrics      *MetricsService
	Logger       *zap.Logger
	Now          func() time.Time
	CacheTTL     time.Duration
	SessionHours int
	StreakWindow int
	ActivityMax  int
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	sessionHours := params.SessionHours
	if sessionHours <= 0 {
		sessionHours = 2
	}
	window := params.StreakWindow
	if window <= 0 {
		window = stats.DefaultStreakWindow
	}
	activityMax := params.ActivityMax
	if activityMax <= 0 {
		activityMax = 5
	}
	return &DashboardService{
		enrollments:  params.Enrollments,
		attendances:  params.Attendances,
		trainings:    params.Trainings,
		sessions:     params.Sessions,
		users:        params.Users,
		cache:        params.Cache,
		metrics:      params.Metrics,
		logger:       logger,
		now:          now,
		cacheTTL:     ttl,
		sessionHours: sessionHours,
		streakWindow: window,
		activityMax:  activityMax,
	}
}

// Summary dispatches on the caller's role. Admins receive the
// coordinator view.
func (s *DashboardService) Summary(ctx context.Context, userID int64, role models.UserRole) (interface{}, bool, error) {
	switch role {
	case models.RoleStudent:
		return s.Student(ctx, userID)
	case models.RoleTrainer:
		return s.Trainer(ctx, userID)
	case models.RoleCoordinator, models.RoleAdmin:
		return s.Coordinator(ctx)
	default:
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "no dashboard for role "+string(role))
	}
}

// Student assembles the learner dashboard.
func (s *DashboardService) Student(ctx context.Context, userID int64) (*dto.StudentDashboardResponse, bool, error) {
	cacheKey := fmt.Sprintf("dashboard:student:%d", userID)
	var cached dto.StudentDashboardResponse
	if hit, err := s.tryCache(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	enrollments, err := s.enrollments.ListByUser(ctx, userID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	attendanceRows, err := s.attendances.ListByUser(ctx, userID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}

	attendances := make([]models.Attendance, 0, len(attendanceRows))
	presentCount := 0
	for _, row := range attendanceRows {
		attendances = append(attendances, row.Attendance)
		if row.Status == models.AttendanceStatusPresent {
			presentCount++
		}
	}

	completed := 0
	flat := make([]models.Enrollment, 0, len(enrollments))
	active := make([]dto.ActiveCourseItem, 0, len(enrollments))
	for _, e := range enrollments {
		flat = append(flat, e.Enrollment)
		if e.Progress >= 100 {
			completed++
		}
		active = append(active, activeCourseItem(e))
	}

	progression := stats.ComputeProgression(flat)

	result := &dto.StudentDashboardResponse{
		CoursesEnrolled:  len(enrollments),
		CoursesCompleted: completed,
		TotalHours:       presentCount * s.sessionHours,
		Certificates:     completed,
		Streak:           stats.Streak(attendances, s.streakWindow),
		Level:            progression.Level,
		XP:               progression.XP,
		NextLevelXP:      progression.NextLevelXP,
		ActiveCourses:    active,
	}

	s.persistCache(ctx, cacheKey, result)
	return result, false, nil
}

func activeCourseItem(e models.EnrollmentDetail) dto.ActiveCourseItem {
	item := dto.ActiveCourseItem{
		ID:       e.TrainingID,
		Title:    fallbackCourseTitle,
		Trainer:  fallbackTrainerName,
		Progress: e.Progress,
	}
	if item.Progress < 0 {
		item.Progress = 0
	}
	if e.TrainingTitle != nil && *e.TrainingTitle != "" {
		item.Title = *e.TrainingTitle
	}
	if e.TrainerName != nil && *e.TrainerName != "" {
		item.Trainer = *e.TrainerName
	}
	if e.Rating != nil {
		item.Rating = *e.Rating
	}
	return item
}

// Trainer assembles the trainer dashboard over the user's owned trainings.
func (s *DashboardService) Trainer(ctx context.Context, userID int64) (*dto.TrainerDashboardResponse, bool, error) {
	cacheKey := fmt.Sprintf("dashboard:trainer:%d", userID)
	var cached dto.TrainerDashboardResponse
	if hit, err := s.tryCache(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	owned, err := s.trainings.ListByOwner(ctx, userID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainings")
	}

	ownedIDs := make(map[int64]struct{}, len(owned))
	trainingIndex := make(map[int64]models.Training, len(owned))
	ratingSum := 0.0
	ratingCount := 0
	for _, t := range owned {
		ownedIDs[t.ID] = struct{}{}
		trainingIndex[t.ID] = t
		if t.Rating > 0 {
			ratingSum += t.Rating
			ratingCount++
		}
	}

	allEnrollments, err := s.enrollments.List(ctx, models.EnrollmentFilter{})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	scoped := make([]models.Enrollment, 0, len(allEnrollments))
	students := map[int64]struct{}{}
	for _, e := range allEnrollments {
		if _, ok := ownedIDs[e.TrainingID]; !ok {
			continue
		}
		scoped = append(scoped, e.Enrollment)
		students[e.UserID] = struct{}{}
	}

	now := s.now()
	sessions, err := s.sessions.List(ctx, models.SessionFilter{})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	upcoming := 0
	for _, sess := range sessions {
		if _, ok := ownedIDs[sess.TrainingID]; !ok {
			continue
		}
		if !sess.StartTime.Before(now) {
			upcoming++
		}
	}

	var avgRating float64
	if ratingCount > 0 {
		avgRating = stats.Round2(ratingSum / float64(ratingCount))
	}

	result := &dto.TrainerDashboardResponse{
		TotalCourses:     len(owned),
		TotalStudents:    len(students),
		CompletionRate:   stats.CompletionRate(scoped),
		AvgRating:        avgRating,
		UpcomingSessions: upcoming,
		TotalRevenue:     stats.Revenue(scoped, trainingIndex),
	}

	s.persistCache(ctx, cacheKey, result)
	return result, false, nil
}

// Coordinator assembles the system-wide dashboard.
func (s *DashboardService) Coordinator(ctx context.Context) (*dto.CoordinatorDashboardResponse, bool, error) {
	cacheKey := "dashboard:coordinator"
	var cached dto.CoordinatorDashboardResponse
	if hit, err := s.tryCache(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	trainings, err := s.trainings.ListAll(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainings")
	}
	trainers, err := s.users.CountByRole(ctx, models.RoleTrainer)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count trainers")
	}
	learners, err := s.users.CountByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count learners")
	}
	pending, err := s.enrollments.CountByStatus(ctx, models.EnrollmentStatusPending)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending applications")
	}
	allEnrollments, err := s.enrollments.List(ctx, models.EnrollmentFilter{})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	now := s.now()
	activeTrainings := 0
	for _, t := range trainings {
		if t.EndDate == nil || !t.EndDate.Before(now) {
			activeTrainings++
		}
	}

	flat := make([]models.Enrollment, 0, len(allEnrollments))
	for _, e := range allEnrollments {
		flat = append(flat, e.Enrollment)
	}

	result := &dto.CoordinatorDashboardResponse{
		TotalTrainings:      len(trainings),
		TotalTrainers:       trainers,
		TotalLearners:       learners,
		ActiveTrainings:     activeTrainings,
		PendingApplications: pending,
		CompletionRate:      stats.CompletionRate(flat),
	}

	s.persistCache(ctx, cacheKey, result)
	return result, false, nil
}

// RecentActivity merges the user's 3 most-recent enrollments and 2
// most-recent present attendances, newest first, capped at activityMax.
// Items are ordered by their underlying timestamps; the relative-time
// label is presentation only.
func (s *DashboardService) RecentActivity(ctx context.Context, userID int64) ([]dto.ActivityItem, error) {
	enrollments, err := s.enrollments.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	attendanceRows, err := s.attendances.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}

	type event struct {
		item dto.ActivityItem
		at   time.Time
	}

	sort.Slice(enrollments, func(i, j int) bool {
		return enrollments[i].CreatedAt.After(enrollments[j].CreatedAt)
	})
	present := make([]models.AttendanceDetail, 0, len(attendanceRows))
	for _, row := range attendanceRows {
		if row.Status == models.AttendanceStatusPresent {
			present = append(present, row)
		}
	}
	sort.Slice(present, func(i, j int) bool {
		return present[i].CreatedAt.After(present[j].CreatedAt)
	})

	now := s.now()
	events := make([]event, 0, 5)
	for i, e := range enrollments {
		if i >= 3 {
			break
		}
		title := fallbackCourseTitle
		if e.TrainingTitle != nil && *e.TrainingTitle != "" {
			title = *e.TrainingTitle
		}
		events = append(events, event{
			item: dto.ActivityItem{
				ID:           e.ID,
				Title:        "Enrolled in " + title,
				RelativeTime: relativeTime(now, e.CreatedAt),
				Icon:         "book",
			},
			at: e.CreatedAt,
		})
	}
	for i, a := range present {
		if i >= 2 {
			break
		}
		title := "a session"
		if a.SessionTitle != nil && *a.SessionTitle != "" {
			title = *a.SessionTitle
		}
		events = append(events, event{
			item: dto.ActivityItem{
				ID:           a.ID,
				Title:        "Attended " + title,
				RelativeTime: relativeTime(now, a.CreatedAt),
				Icon:         "calendar",
			},
			at: a.CreatedAt,
		})
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].at.After(events[j].at)
	})

	items := make([]dto.ActivityItem, 0, s.activityMax)
	for i, ev := range events {
		if i >= s.activityMax {
			break
		}
		items = append(items, ev.item)
	}
	return items, nil
}

// relativeTime renders a coarse human label for the elapsed time.
func relativeTime(now, at time.Time) string {
	d := now.Sub(at)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		minutes := int(d / time.Minute)
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case d < 24*time.Hour:
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func (s *DashboardService) tryCache(ctx context.Context, key string, dest interface{}) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	return s.cache.Get(ctx, key, dest)
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
