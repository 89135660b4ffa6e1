// Package grid derives weekly countdown statistics from a date range,
// a set of special periods and per-user completion records. Everything
// here is pure: no store access, no clock, safe for concurrent use.
package grid

import (
	"time"

	"weeksuntil/internal/models"
)

// DateOnly truncates t to midnight UTC so day arithmetic is exact.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	d := DateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return d.AddDate(0, 0, -offset)
}

// DaysBetween counts calendar days from a to b (b-a), negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)) / (24 * time.Hour))
}

// OverlapDays counts the inclusive days of [pStart, pEnd] that fall inside
// [rStart, rEnd]. A period covering one calendar day counts as 1 day.
// Returns 0 when the clamped interval is inverted.
func OverlapDays(pStart, pEnd, rStart, rEnd time.Time) int {
	start := DateOnly(pStart)
	if rs := DateOnly(rStart); rs.After(start) {
		start = rs
	}
	end := DateOnly(pEnd)
	if re := DateOnly(rEnd); re.Before(end) {
		end = re
	}
	if start.After(end) {
		return 0
	}
	return DaysBetween(start, end) + 1
}

// Range is the countdown window. Either bound may be absent.
type Range struct {
	Start    *time.Time
	Deadline *time.Time
}

// RangeOf builds a Range from a user's profile dates.
func RangeOf(u *models.User) Range {
	if u == nil {
		return Range{}
	}
	return Range{Start: u.StartDate, Deadline: u.Deadline}
}

// ComputeStats derives the five countdown counters.
//
// A missing start or deadline collapses everything to zero. An inverted
// range floors total weeks to zero. Partial special weeks truncate down,
// biasing toward more effective weeks. Completed weeks are counted
// independently of whether they fall inside the range.
func ComputeStats(r Range, periods []models.SpecialPeriod, completedWeeks int) models.GridStats {
	if r.Start == nil || r.Deadline == nil {
		return models.GridStats{}
	}

	totalDays := DaysBetween(*r.Start, *r.Deadline)
	totalWeeks := totalDays/models.DaysPerWeek + 1
	if totalDays < 0 {
		totalWeeks = 0
	}

	specialDays := 0
	for _, p := range periods {
		specialDays += OverlapDays(p.StartDate, p.EndDate, *r.Start, *r.Deadline)
	}
	specialWeeks := specialDays / models.DaysPerWeek

	effectiveWeeks := totalWeeks - specialWeeks
	if effectiveWeeks < 0 {
		effectiveWeeks = 0
	}

	if completedWeeks < 0 {
		completedWeeks = 0
	}

	remainingWeeks := effectiveWeeks - completedWeeks
	if remainingWeeks < 0 {
		remainingWeeks = 0
	}

	return models.GridStats{
		TotalWeeks:     totalWeeks,
		SpecialWeeks:   specialWeeks,
		EffectiveWeeks: effectiveWeeks,
		CompletedWeeks: completedWeeks,
		RemainingWeeks: remainingWeeks,
	}
}
