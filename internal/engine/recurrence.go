package engine

import (
	"time"

	"github.com/lenshub/lenshub-backend/internal/apperrors"
	"github.com/lenshub/lenshub-backend/internal/models"
)

// startOfDay truncates t to midnight in the schedule's reference location.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// daysBetween returns whole calendar days from a to b (a <= b assumed).
func daysBetween(a, b time.Time, loc *time.Location) int {
	return int(startOfDay(b, loc).Sub(startOfDay(a, loc)).Hours() / 24)
}

// clampDayOfMonth clamps day to the last day of the given month.
func clampDayOfMonth(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}

// inWindow reports whether t falls inside the schedule's overall
// [startDate, endDate] window. A nil endDate means unbounded.
func inWindow(sched models.Schedule, t time.Time) bool {
	if t.Before(sched.StartDate) {
		return false
	}
	if sched.EndDate != nil && t.After(*sched.EndDate) {
		return false
	}
	return true
}

// ActiveAt reports whether the schedule has an active occurrence at t.
// A non-recurring schedule is active for every instant inside the window.
func ActiveAt(sched models.Schedule, t time.Time) bool {
	if !inWindow(sched, t) {
		return false
	}
	if !sched.IsRecurring || sched.Recurrence == nil {
		return true
	}
	rec := sched.Recurrence
	interval := rec.Interval
	if interval < 1 {
		interval = 1
	}
	loc := sched.StartDate.Location()

	if !occurrenceDay(sched, rec, interval, t, loc) {
		return false
	}
	if rec.MaxOccurrences > 0 {
		if countOccurrences(sched, rec, interval, t, loc) > rec.MaxOccurrences {
			return false
		}
	}
	return true
}

// occurrenceDay reports whether t's calendar day is an occurrence day of
// the recurrence rule, ignoring the maxOccurrences ceiling.
func occurrenceDay(sched models.Schedule, rec *models.Recurrence, interval int, t time.Time, loc *time.Location) bool {
	switch rec.Frequency {
	case models.FrequencyDaily:
		return daysBetween(sched.StartDate, t, loc)%interval == 0
	case models.FrequencyWeekly:
		weeks := daysBetween(sched.StartDate, t, loc) / 7
		if weeks%interval != 0 {
			return false
		}
		return containsDay(rec.DaysOfWeek, int(t.In(loc).Weekday()))
	case models.FrequencyMonthly:
		start := sched.StartDate.In(loc)
		now := t.In(loc)
		months := (now.Year()-start.Year())*12 + int(now.Month()) - int(start.Month())
		if months < 0 || months%interval != 0 {
			return false
		}
		want := clampDayOfMonth(now.Year(), now.Month(), rec.DayOfMonth)
		return now.Day() == want
	default:
		return false
	}
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

// countOccurrences counts occurrence days from startDate up to and
// including t's day. The current day counts as the Nth occurrence.
func countOccurrences(sched models.Schedule, rec *models.Recurrence, interval int, t time.Time, loc *time.Location) int {
	days := daysBetween(sched.StartDate, t, loc)
	switch rec.Frequency {
	case models.FrequencyDaily:
		return days/interval + 1
	case models.FrequencyWeekly:
		count := 0
		start := startOfDay(sched.StartDate, loc)
		end := startOfDay(t, loc)
		for week := 0; ; week += interval {
			weekStart := start.AddDate(0, 0, week*7)
			if weekStart.After(end) {
				break
			}
			for d := 0; d < 7; d++ {
				day := weekStart.AddDate(0, 0, d)
				if day.Before(start) || day.After(end) {
					continue
				}
				if containsDay(rec.DaysOfWeek, int(day.Weekday())) {
					count++
				}
			}
			if rec.MaxOccurrences > 0 && count > rec.MaxOccurrences {
				break
			}
		}
		return count
	case models.FrequencyMonthly:
		start := sched.StartDate.In(loc)
		end := startOfDay(t, loc)
		count := 0
		for m := 0; ; m += interval {
			year, month := addMonths(start.Year(), start.Month(), m)
			day := clampDayOfMonth(year, month, rec.DayOfMonth)
			occ := time.Date(year, month, day, 0, 0, 0, 0, loc)
			if occ.After(end) {
				break
			}
			if !occ.Before(startOfDay(sched.StartDate, loc)) {
				count++
			}
			if rec.MaxOccurrences > 0 && count > rec.MaxOccurrences {
				break
			}
		}
		return count
	default:
		return 0
	}
}

func addMonths(year int, month time.Month, n int) (int, time.Month) {
	m := int(month) - 1 + n
	return year + m/12, time.Month(m%12 + 1)
}

// NextOccurrence returns the start of the first occurrence strictly after
// t, for scheduling UIs. The second return is false when no further
// occurrence exists (past endDate or maxOccurrences reached).
func NextOccurrence(sched models.Schedule, t time.Time) (time.Time, bool) {
	loc := sched.StartDate.Location()
	day := sched.StartDate
	if !day.After(t) {
		day = startOfDay(t, loc).AddDate(0, 0, 1)
	}
	// Bounded walk: occurrence days are at most a few years out for any
	// rule the validator accepts.
	for i := 0; i < 3660; i++ {
		probe := day.AddDate(0, 0, i)
		if sched.EndDate != nil && probe.After(*sched.EndDate) {
			return time.Time{}, false
		}
		if ActiveAt(sched, probe) {
			return probe, true
		}
	}
	return time.Time{}, false
}

// ValidateSchedule checks a schedule for internal consistency before the
// schedule transition accepts it.
func ValidateSchedule(sched models.Schedule) error {
	if sched.StartDate.IsZero() {
		return apperrors.Validation("schedule startDate is required")
	}
	if sched.EndDate != nil && !sched.StartDate.Before(*sched.EndDate) {
		return apperrors.Validation("schedule startDate must be before endDate")
	}
	if !sched.IsRecurring {
		if sched.Recurrence != nil {
			return apperrors.Validation("recurrence set on a non-recurring schedule")
		}
		return nil
	}
	rec := sched.Recurrence
	if rec == nil {
		return apperrors.Validation("recurring schedule is missing a recurrence rule")
	}
	if rec.Interval < 1 {
		return apperrors.Validation("recurrence interval must be >= 1, got %d", rec.Interval)
	}
	if rec.MaxOccurrences < 0 {
		return apperrors.Validation("recurrence maxOccurrences cannot be negative")
	}
	switch rec.Frequency {
	case models.FrequencyDaily:
		if len(rec.DaysOfWeek) > 0 {
			return apperrors.Validation("daysOfWeek is only valid for weekly recurrence")
		}
		if rec.DayOfMonth != 0 {
			return apperrors.Validation("dayOfMonth is only valid for monthly recurrence")
		}
	case models.FrequencyWeekly:
		if len(rec.DaysOfWeek) == 0 {
			return apperrors.Validation("weekly recurrence requires at least one day of week")
		}
		for _, d := range rec.DaysOfWeek {
			if d < 0 || d > 6 {
				return apperrors.Validation("day of week %d out of range 0..6", d)
			}
		}
		if rec.DayOfMonth != 0 {
			return apperrors.Validation("dayOfMonth is only valid for monthly recurrence")
		}
	case models.FrequencyMonthly:
		if rec.DayOfMonth < 1 || rec.DayOfMonth > 31 {
			return apperrors.Validation("monthly recurrence requires dayOfMonth in 1..31, got %d", rec.DayOfMonth)
		}
		if len(rec.DaysOfWeek) > 0 {
			return apperrors.Validation("daysOfWeek is only valid for weekly recurrence")
		}
	default:
		return apperrors.Validation("unknown recurrence frequency %q", rec.Frequency)
	}
	return nil
}
