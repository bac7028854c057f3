package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rzouga01/learnhub-api/internal/models"
)

func TestCompletionRateEmpty(t *testing.T) {
	assert.Equal(t, 0.0, CompletionRate(nil))
	assert.Equal(t, 0.0, CompletionRate([]models.Enrollment{}))
}

func TestCompletionRateOneOfThree(t *testing.T) {
	enrollments := []models.Enrollment{
		{Progress: 100},
		{Progress: 40},
		{Progress: 0},
	}
	assert.Equal(t, 33.33, CompletionRate(enrollments))
}

func TestCompletionRateCountsCompletedStatus(t *testing.T) {
	enrollments := []models.Enrollment{
		{Progress: 50, Status: models.EnrollmentStatusCompleted},
		{Progress: 50, Status: models.EnrollmentStatusActive},
	}
	assert.Equal(t, 50.0, CompletionRate(enrollments))
}

func TestCompletionRateBounds(t *testing.T) {
	all := []models.Enrollment{{Progress: 100}, {Progress: 100}}
	assert.Equal(t, 100.0, CompletionRate(all))

	none := []models.Enrollment{{Progress: 10}, {Progress: 20}}
	assert.Equal(t, 0.0, CompletionRate(none))
}

func TestAttendanceRateEmpty(t *testing.T) {
	assert.Equal(t, 0.0, AttendanceRate(nil))
}

func TestAttendanceRate(t *testing.T) {
	attendances := []models.Attendance{
		{Status: models.AttendanceStatusPresent},
		{Status: models.AttendanceStatusPresent},
		{Status: models.AttendanceStatusAbsent},
		{Status: models.AttendanceStatusExcused},
	}
	assert.Equal(t, 50.0, AttendanceRate(attendances))
}

func TestComputeProgression(t *testing.T) {
	enrollments := []models.Enrollment{{Progress: 50}, {Progress: 100}}
	progression := ComputeProgression(enrollments)
	assert.Equal(t, 1500, progression.XP)
	assert.Equal(t, 2, progression.Level)
	assert.Equal(t, 2000, progression.NextLevelXP)
}

func TestComputeProgressionEmpty(t *testing.T) {
	progression := ComputeProgression(nil)
	assert.Equal(t, 0, progression.XP)
	assert.Equal(t, 1, progression.Level)
	assert.Equal(t, 1000, progression.NextLevelXP)
}

func TestRevenueSkipsUnpaidAndMissingTrainings(t *testing.T) {
	trainings := map[int64]models.Training{
		1: {ID: 1, Price: 100},
	}
	enrollments := []models.Enrollment{
		{TrainingID: 1, PaymentStatus: models.PaymentStatusPaid},
		{TrainingID: 1, PaymentStatus: models.PaymentStatusPaid},
		{TrainingID: 2, PaymentStatus: models.PaymentStatusPending},
		{TrainingID: 99, PaymentStatus: models.PaymentStatusPaid}, // training deleted
	}
	assert.Equal(t, 200.0, Revenue(enrollments, trainings))
}

func TestRevenueEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Revenue(nil, nil))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 33.33, Round2(100.0/3.0))
	assert.Equal(t, 66.67, Round2(200.0/3.0))
}
