package recurrence

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const week = 7 * 24 * time.Hour

// Clock is a wall-clock time of day with minute precision
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses an "HH:MM" string
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Clock{}, fmt.Errorf("time %q must be in HH:MM format", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return Clock{}, fmt.Errorf("time %q has an invalid hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("time %q has an invalid minute", s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// on places the clock on a calendar day. Out-of-range days are normalized by time.Date.
func (c Clock) on(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, c.Hour, c.Minute, 0, 0, loc)
}

// daysIn returns the number of days of a month
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NextWeekday returns the next instant strictly after now that falls on day at the given clock.
// An occurrence on the current weekday whose time has been reached moves to the following week.
func NextWeekday(now time.Time, day time.Weekday, at Clock) time.Time {
	offset := (int(day) - int(now.Weekday()) + 7) % 7
	next := at.on(now.Year(), now.Month(), now.Day()+offset, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// NextDaily returns one upcoming instant per active weekday, sorted ascending
func NextDaily(now time.Time, days [7]bool, at Clock) []time.Time {
	var next []time.Time
	for wd, active := range days {
		if active {
			next = append(next, NextWeekday(now, time.Weekday(wd), at))
		}
	}
	sort.Slice(next, func(i, j int) bool { return next[i].Before(next[j]) })
	return next
}

// NthWeekday returns the order-th (1-based) occurrence of weekday in the given month.
// It scans from the 1st to the first matching weekday and adds whole weeks.
func NthWeekday(year int, month time.Month, order int, weekday time.Weekday, at Clock, loc *time.Location) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	day := 1 + (int(weekday)-int(first.Weekday())+7)%7
	return at.on(year, month, day+(order-1)*7, loc)
}

// NextNWeekly returns the next occurrence of a rule repeating every weeks weeks from the anchor date.
// An anchor still in the future is itself the next occurrence.
func NextNWeekly(now, anchor time.Time, weeks int, at Clock) (time.Time, error) {
	if weeks <= 0 {
		return time.Time{}, fmt.Errorf("weeks must be positive, got %d", weeks)
	}

	loc := now.Location()
	anchor = anchor.In(loc)
	start := at.on(anchor.Year(), anchor.Month(), anchor.Day(), loc)
	if now.Before(start) {
		return start, nil
	}

	elapsed := int(now.Sub(start) / week)
	periods := (elapsed + weeks) / weeks // ceil((elapsed+1)/weeks)
	next := start.AddDate(0, 0, 7*periods*weeks)
	// AddDate keeps the wall clock across DST shifts, so the duration based estimate may lag a period
	for !next.After(now) {
		next = next.AddDate(0, 0, 7*weeks)
	}
	return next, nil
}

// NextMonthlyByDate returns the next occurrence of a day of the month.
// Months that do not have the day are skipped.
func NextMonthlyByDate(now time.Time, day int, at Clock) (time.Time, error) {
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("day of month must be within 1..31, got %d", day)
	}

	loc := now.Location()
	for i := 0; i <= 12; i++ {
		month := time.Date(now.Year(), now.Month()+time.Month(i), 1, 0, 0, 0, 0, loc)
		if day > daysIn(month.Year(), month.Month()) {
			continue
		}
		next := at.on(month.Year(), month.Month(), day, loc)
		if next.After(now) {
			return next, nil
		}
	}
	return time.Time{}, fmt.Errorf("no month has day %d", day)
}

// NextMonthlyByWeekday returns the next order-th weekday of a month, this month's if still ahead
func NextMonthlyByWeekday(now time.Time, order int, weekday time.Weekday, at Clock) (time.Time, error) {
	if order < 1 || order > 4 {
		return time.Time{}, fmt.Errorf("order must be within 1..4, got %d", order)
	}

	loc := now.Location()
	next := NthWeekday(now.Year(), now.Month(), order, weekday, at, loc)
	if !next.After(now) {
		month := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, loc)
		next = NthWeekday(month.Year(), month.Month(), order, weekday, at, loc)
	}
	return next, nil
}

// NextYearlyByDate returns the next occurrence of month/day.
// Years lacking the day (February 29) are skipped.
func NextYearlyByDate(now time.Time, month time.Month, day int, at Clock) (time.Time, error) {
	return nextYearly(now, 1, now.Year(), func(year int) (time.Time, bool) {
		return dateInYear(year, month, day, at, now.Location())
	})
}

// NextYearlyByWeekday returns the next order-th weekday of month, this year's if still ahead
func NextYearlyByWeekday(now time.Time, month time.Month, order int, weekday time.Weekday, at Clock) (time.Time, error) {
	if order < 1 || order > 4 {
		return time.Time{}, fmt.Errorf("order must be within 1..4, got %d", order)
	}
	return nextYearly(now, 1, now.Year(), func(year int) (time.Time, bool) {
		return NthWeekday(year, month, order, weekday, at, now.Location()), true
	})
}

// NextNYearlyByDate is NextYearlyByDate restricted to years where (year - referenceYear) mod years == 0
func NextNYearlyByDate(now time.Time, month time.Month, day int, at Clock, years, referenceYear int) (time.Time, error) {
	if years <= 0 {
		return time.Time{}, fmt.Errorf("years must be positive, got %d", years)
	}
	return nextYearly(now, years, referenceYear, func(year int) (time.Time, bool) {
		return dateInYear(year, month, day, at, now.Location())
	})
}

// NextNYearlyByWeekday is NextYearlyByWeekday restricted to years where (year - referenceYear) mod years == 0
func NextNYearlyByWeekday(now time.Time, month time.Month, order int, weekday time.Weekday, at Clock, years, referenceYear int) (time.Time, error) {
	if years <= 0 {
		return time.Time{}, fmt.Errorf("years must be positive, got %d", years)
	}
	if order < 1 || order > 4 {
		return time.Time{}, fmt.Errorf("order must be within 1..4, got %d", order)
	}
	return nextYearly(now, years, referenceYear, func(year int) (time.Time, bool) {
		return NthWeekday(year, month, order, weekday, at, now.Location()), true
	})
}

// nextYearly walks year by year from the later of now's year and referenceYear.
// candidate reports false for years in which the date does not exist.
func nextYearly(now time.Time, years, referenceYear int, candidate func(year int) (time.Time, bool)) (time.Time, error) {
	from := now.Year()
	if referenceYear > from {
		from = referenceYear
	}
	// a leap day recurs at least every 8 years
	limit := from + 8*years + 1
	for year := from; year <= limit; year++ {
		if mod(year-referenceYear, years) != 0 {
			continue
		}
		next, ok := candidate(year)
		if ok && next.After(now) {
			return next, nil
		}
	}
	return time.Time{}, fmt.Errorf("no occurrence found up to year %d", limit)
}

func dateInYear(year int, month time.Month, day int, at Clock, loc *time.Location) (time.Time, bool) {
	if day < 1 || day > daysIn(year, month) {
		return time.Time{}, false
	}
	return at.on(year, month, day, loc), true
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
