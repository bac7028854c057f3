package stats

import (
	"sort"
	"time"

	"github.com/Rzouga01/learnhub-api/internal/models"
)

// DefaultStreakWindow bounds how many recent attendance records the
// streak computation considers. Streaks longer than the window are
// truncated to the window size.
const DefaultStreakWindow = 30

// Streak counts consecutive calendar days with at least one present
// attendance, ending at the most recent day. Input may be unordered and
// may contain non-present records, which are ignored. Only the most
// recent window records (after sorting) are considered; window <= 0
// falls back to DefaultStreakWindow.
func Streak(attendances []models.Attendance, window int) int {
	if window <= 0 {
		window = DefaultStreakWindow
	}

	days := make([]time.Time, 0, len(attendances))
	for _, a := range attendances {
		if a.Status != models.AttendanceStatusPresent {
			continue
		}
		days = append(days, day(a.CreatedAt))
	}
	if len(days) == 0 {
		return 0
	}

	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	if len(days) > window {
		days = days[:window]
	}

	streak := 1
	current := days[0]
	for _, d := range days[1:] {
		if d.Equal(current) {
			continue
		}
		if current.Sub(d) > 24*time.Hour {
			break
		}
		streak++
		current = d
	}
	return streak
}

// day truncates a timestamp to calendar-day granularity in UTC.
func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
