package engine

import (
	"testing"
	"time"

	"github.com/lenshub/lenshub-backend/internal/apperrors"
	"github.com/lenshub/lenshub-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestActiveAtNonRecurringWindow(t *testing.T) {
	end := day(2026, time.March, 10)
	sched := models.Schedule{StartDate: day(2026, time.March, 1), EndDate: &end}

	assert.False(t, ActiveAt(sched, at(2026, time.February, 28, 12)))
	assert.True(t, ActiveAt(sched, at(2026, time.March, 1, 0)))
	assert.True(t, ActiveAt(sched, at(2026, time.March, 5, 23)))
	assert.True(t, ActiveAt(sched, day(2026, time.March, 10)))
	assert.False(t, ActiveAt(sched, at(2026, time.March, 10, 1)))
}

func TestActiveAtDailyInterval(t *testing.T) {
	sched := models.Schedule{
		StartDate:   day(2026, time.March, 2),
		IsRecurring: true,
		Recurrence:  &models.Recurrence{Frequency: models.FrequencyDaily, Interval: 3},
	}
	assert.True(t, ActiveAt(sched, at(2026, time.March, 2, 9)))
	assert.False(t, ActiveAt(sched, at(2026, time.March, 3, 9)))
	assert.False(t, ActiveAt(sched, at(2026, time.March, 4, 9)))
	assert.True(t, ActiveAt(sched, at(2026, time.March, 5, 9)))
}

func TestActiveAtWeeklyDays(t *testing.T) {
	// 2026-03-02 is a Monday.
	sched := models.Schedule{
		StartDate:   day(2026, time.March, 2),
		IsRecurring: true,
		Recurrence: &models.Recurrence{
			Frequency:  models.FrequencyWeekly,
			Interval:   1,
			DaysOfWeek: []int{1, 3}, // Mon, Wed
		},
	}
	assert.True(t, ActiveAt(sched, at(2026, time.March, 2, 10)), "Monday")
	assert.False(t, ActiveAt(sched, at(2026, time.March, 3, 10)), "Tuesday")
	assert.True(t, ActiveAt(sched, at(2026, time.March, 4, 10)), "Wednesday")
	assert.False(t, ActiveAt(sched, at(2026, time.March, 6, 10)), "Friday")
	assert.True(t, ActiveAt(sched, at(2026, time.March, 9, 10)), "next Monday")
}

func TestActiveAtWeeklyMaxOccurrences(t *testing.T) {
	// Mon/Wed with a three-occurrence ceiling stops after the second Monday.
	sched := models.Schedule{
		StartDate:   day(2026, time.March, 2),
		IsRecurring: true,
		Recurrence: &models.Recurrence{
			Frequency:      models.FrequencyWeekly,
			Interval:       1,
			DaysOfWeek:     []int{1, 3},
			MaxOccurrences: 3,
		},
	}
	assert.True(t, ActiveAt(sched, at(2026, time.March, 2, 10)))  // 1st
	assert.True(t, ActiveAt(sched, at(2026, time.March, 4, 10)))  // 2nd
	assert.True(t, ActiveAt(sched, at(2026, time.March, 9, 10)))  // 3rd
	assert.False(t, ActiveAt(sched, at(2026, time.March, 11, 10))) // would be 4th
}

func TestActiveAtMonthlyClampsShortMonths(t *testing.T) {
	sched := models.Schedule{
		StartDate:   day(2026, time.January, 31),
		IsRecurring: true,
		Recurrence:  &models.Recurrence{Frequency: models.FrequencyMonthly, Interval: 1, DayOfMonth: 31},
	}
	assert.True(t, ActiveAt(sched, at(2026, time.January, 31, 8)))
	// February has 28 days in 2026; the occurrence lands on the 28th.
	assert.True(t, ActiveAt(sched, at(2026, time.February, 28, 8)))
	assert.False(t, ActiveAt(sched, at(2026, time.February, 27, 8)))
	assert.True(t, ActiveAt(sched, at(2026, time.March, 31, 8)))
}

func TestNextOccurrence(t *testing.T) {
	sched := models.Schedule{
		StartDate:   day(2026, time.March, 2),
		IsRecurring: true,
		Recurrence: &models.Recurrence{
			Frequency:  models.FrequencyWeekly,
			Interval:   1,
			DaysOfWeek: []int{1}, // Mondays
		},
	}

	next, ok := NextOccurrence(sched, day(2026, time.February, 1))
	require.True(t, ok)
	assert.Equal(t, day(2026, time.March, 2), next, "first occurrence is the start date")

	next, ok = NextOccurrence(sched, at(2026, time.March, 2, 12))
	require.True(t, ok)
	assert.Equal(t, day(2026, time.March, 9), next, "strictly after t")
}

func TestNextOccurrenceExhausted(t *testing.T) {
	end := day(2026, time.March, 3)
	sched := models.Schedule{StartDate: day(2026, time.March, 1), EndDate: &end}

	_, ok := NextOccurrence(sched, day(2026, time.March, 5))
	assert.False(t, ok, "no occurrence past endDate")

	capped := models.Schedule{
		StartDate:   day(2026, time.March, 2),
		IsRecurring: true,
		Recurrence: &models.Recurrence{
			Frequency:      models.FrequencyDaily,
			Interval:       1,
			MaxOccurrences: 2,
		},
	}
	_, ok = NextOccurrence(capped, at(2026, time.March, 3, 12))
	assert.False(t, ok, "maxOccurrences already consumed")
}

func TestValidateSchedule(t *testing.T) {
	end := day(2026, time.March, 10)
	valid := models.Schedule{
		StartDate:   day(2026, time.March, 1),
		EndDate:     &end,
		IsRecurring: true,
		Recurrence:  &models.Recurrence{Frequency: models.FrequencyWeekly, Interval: 1, DaysOfWeek: []int{1, 5}},
	}
	require.NoError(t, ValidateSchedule(valid))

	cases := []struct {
		name  string
		sched models.Schedule
	}{
		{"missing start", models.Schedule{}},
		{"end before start", models.Schedule{StartDate: day(2026, time.March, 10), EndDate: &end}},
		{"recurrence without flag", models.Schedule{
			StartDate:  day(2026, time.March, 1),
			Recurrence: &models.Recurrence{Frequency: models.FrequencyDaily, Interval: 1},
		}},
		{"flag without recurrence", models.Schedule{StartDate: day(2026, time.March, 1), IsRecurring: true}},
		{"weekly without days", models.Schedule{
			StartDate:   day(2026, time.March, 1),
			IsRecurring: true,
			Recurrence:  &models.Recurrence{Frequency: models.FrequencyWeekly, Interval: 1},
		}},
		{"day of week out of range", models.Schedule{
			StartDate:   day(2026, time.March, 1),
			IsRecurring: true,
			Recurrence:  &models.Recurrence{Frequency: models.FrequencyWeekly, Interval: 1, DaysOfWeek: []int{7}},
		}},
		{"daysOfWeek on daily", models.Schedule{
			StartDate:   day(2026, time.March, 1),
			IsRecurring: true,
			Recurrence:  &models.Recurrence{Frequency: models.FrequencyDaily, Interval: 1, DaysOfWeek: []int{1}},
		}},
		{"monthly without dayOfMonth", models.Schedule{
			StartDate:   day(2026, time.March, 1),
			IsRecurring: true,
			Recurrence:  &models.Recurrence{Frequency: models.FrequencyMonthly, Interval: 1},
		}},
		{"zero interval", models.Schedule{
			StartDate:   day(2026, time.March, 1),
			IsRecurring: true,
			Recurrence:  &models.Recurrence{Frequency: models.FrequencyDaily},
		}},
		{"unknown frequency", models.Schedule{
			StartDate:   day(2026, time.March, 1),
			IsRecurring: true,
			Recurrence:  &models.Recurrence{Frequency: "yearly", Interval: 1},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSchedule(tc.sched)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
		})
	}
}
