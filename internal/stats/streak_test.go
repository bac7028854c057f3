package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Rzouga01/learnhub-api/internal/models"
)

func presentAt(t time.Time) models.Attendance {
	return models.Attendance{Status: models.AttendanceStatusPresent, CreatedAt: t}
}

func TestStreakEmpty(t *testing.T) {
	assert.Equal(t, 0, Streak(nil, 0))
}

func TestStreakSingleDay(t *testing.T) {
	today := time.Now().UTC()
	assert.Equal(t, 1, Streak([]models.Attendance{presentAt(today)}, 0))
}

func TestStreakSameDayDedup(t *testing.T) {
	today := time.Now().UTC()
	records := []models.Attendance{
		presentAt(today),
		presentAt(today.Add(-2 * time.Hour)),
	}
	assert.Equal(t, 1, Streak(records, 0))
}

func TestStreakConsecutiveDays(t *testing.T) {
	today := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	records := []models.Attendance{
		presentAt(today.AddDate(0, 0, -2)),
		presentAt(today),
		presentAt(today.AddDate(0, 0, -1)),
	}
	assert.Equal(t, 3, Streak(records, 0))
}

func TestStreakGapBreaksRun(t *testing.T) {
	today := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	records := []models.Attendance{
		presentAt(today),
		presentAt(today.AddDate(0, 0, -3)),
	}
	assert.Equal(t, 1, Streak(records, 0))
}

func TestStreakIgnoresNonPresent(t *testing.T) {
	today := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	records := []models.Attendance{
		presentAt(today),
		{Status: models.AttendanceStatusAbsent, CreatedAt: today.AddDate(0, 0, -1)},
		presentAt(today.AddDate(0, 0, -2)),
	}
	assert.Equal(t, 1, Streak(records, 0))
}

func TestStreakWindowTruncates(t *testing.T) {
	today := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	records := make([]models.Attendance, 0, 10)
	for i := 0; i < 10; i++ {
		records = append(records, presentAt(today.AddDate(0, 0, -i)))
	}
	assert.Equal(t, 10, Streak(records, 0))
	assert.Equal(t, 5, Streak(records, 5))
}

func TestStreakCrossesDaylightBoundaries(t *testing.T) {
	// Records late at night and early in the morning still count as
	// distinct consecutive calendar days.
	records := []models.Attendance{
		presentAt(time.Date(2025, 6, 10, 0, 30, 0, 0, time.UTC)),
		presentAt(time.Date(2025, 6, 9, 23, 45, 0, 0, time.UTC)),
	}
	assert.Equal(t, 2, Streak(records, 0))
}
