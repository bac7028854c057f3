// Package stats holds the pure metric functions shared by the report
// builders and dashboard assemblers. Every function tolerates empty
// input and missing relations, degrading to zero values.
package stats

import (
	"math"

	"github.com/Rzouga01/learnhub-api/internal/models"
)

// Round2 rounds to two decimal places.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// CompletionRate returns the percentage of enrollments considered
// complete (progress at 100 or status completed), rounded to 2 decimals.
// Returns 0 for an empty collection.
func CompletionRate(enrollments []models.Enrollment) float64 {
	if len(enrollments) == 0 {
		return 0
	}
	completed := 0
	for _, e := range enrollments {
		if e.Progress >= 100 || e.Status == models.EnrollmentStatusCompleted {
			completed++
		}
	}
	return Round2(float64(completed) / float64(len(enrollments)) * 100)
}

// AttendanceRate returns the percentage of attendance records marked
// present, rounded to 2 decimals. Returns 0 for an empty collection.
func AttendanceRate(attendances []models.Attendance) float64 {
	if len(attendances) == 0 {
		return 0
	}
	present := 0
	for _, a := range attendances {
		if a.Status == models.AttendanceStatusPresent {
			present++
		}
	}
	return Round2(float64(present) / float64(len(attendances)) * 100)
}

// Progression captures the gamified XP state derived from enrollments.
type Progression struct {
	XP          int
	Level       int
	NextLevelXP int
}

// ComputeProgression derives XP and level from enrollment progress:
// xp is the summed progress times ten, levels are 1000 XP apart.
func ComputeProgression(enrollments []models.Enrollment) Progression {
	xp := 0
	for _, e := range enrollments {
		xp += e.Progress * 10
	}
	level := xp/1000 + 1
	return Progression{
		XP:          xp,
		Level:       level,
		NextLevelXP: level * 1000,
	}
}

// Revenue sums the current training price over paid enrollments.
// Enrollments whose training row is missing contribute nothing.
// The price is the live catalogue value, not a snapshot taken at
// enrollment time.
func Revenue(enrollments []models.Enrollment, trainings map[int64]models.Training) float64 {
	var total float64
	for _, e := range enrollments {
		if e.PaymentStatus != models.PaymentStatusPaid {
			continue
		}
		training, ok := trainings[e.TrainingID]
		if !ok {
			continue
		}
		total += training.Price
	}
	return Round2(total)
}
