package dto

// Field names in this file are the wire contract consumed by the
// existing front end; do not rename them.

// StudentDashboardResponse is the learner-facing summary payload.
type StudentDashboardResponse struct {
	CoursesEnrolled  int                `json:"coursesEnrolled"`
	CoursesCompleted int                `json:"coursesCompleted"`
	TotalHours       int                `json:"totalHours"`
	Certificates     int                `json:"certificates"`
	Streak           int                `json:"streak"`
	Level            int                `json:"level"`
	XP               int                `json:"xp"`
	NextLevelXP      int                `json:"nextLevelXp"`
	ActiveCourses    []ActiveCourseItem `json:"activeCourses"`
}

// ActiveCourseItem is the display projection of one enrollment.
type ActiveCourseItem struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Trainer  string  `json:"trainer"`
	Progress int     `json:"progress"`
	Rating   float64 `json:"rating"`
}

// TrainerDashboardResponse summarises a trainer's portfolio.
type TrainerDashboardResponse struct {
	TotalCourses     int     `json:"totalCourses"`
	TotalStudents    int     `json:"totalStudents"`
	CompletionRate   float64 `json:"completionRate"`
	AvgRating        float64 `json:"avgRating"`
	UpcomingSessions int     `json:"upcomingSessions"`
	TotalRevenue     float64 `json:"totalRevenue"`
}

// CoordinatorDashboardResponse is the system-wide summary.
type CoordinatorDashboardResponse struct {
	TotalTrainings      int     `json:"totalTrainings"`
	TotalTrainers       int     `json:"totalTrainers"`
	TotalLearners       int     `json:"totalLearners"`
	ActiveTrainings     int     `json:"activeTrainings"`
	PendingApplications int     `json:"pendingApplications"`
	CompletionRate      float64 `json:"completionRate"`
}

// ActivityItem is one entry of the recent-activity feed.
type ActivityItem struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	RelativeTime string `json:"relative_time"`
	Icon         string `json:"icon"`
}
