package recurrence

import (
	"fmt"
	"sort"
	"time"
)

// WarningUnit is the unit of the interval between warnings
type WarningUnit string

const (
	UnitMinute WarningUnit = "minute"
	UnitHour   WarningUnit = "hour"
	UnitDay    WarningUnit = "day"
	UnitWeek   WarningUnit = "week"
	UnitMonth  WarningUnit = "month"
	UnitYear   WarningUnit = "year"
)

// Duration returns the fixed length of the unit. Months count 30 days and years 365 days.
func (u WarningUnit) Duration() (time.Duration, error) {
	switch u {
	case UnitMinute:
		return time.Minute, nil
	case UnitHour:
		return time.Hour, nil
	case UnitDay:
		return 24 * time.Hour, nil
	case UnitWeek:
		return week, nil
	case UnitMonth:
		return 30 * 24 * time.Hour, nil
	case UnitYear:
		return 365 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: unknown warning interval %q", ErrMisconfigured, u)
	}
}

// Warnings configures pre-notifications: Count warnings spaced Every Units apart before each occurrence
type Warnings struct {
	Count int
	Unit  WarningUnit
	Every int
}

// Validate checks the warning configuration
func (w Warnings) Validate() error {
	if w.Count <= 0 {
		return fmt.Errorf("%w: warning number must be positive", ErrMisconfigured)
	}
	if w.Every <= 0 {
		return fmt.Errorf("%w: warning interval number must be positive", ErrMisconfigured)
	}
	_, err := w.Unit.Duration()
	return err
}

// Occurrence is a single materializable event
type Occurrence struct {
	At        time.Time
	IsWarning bool
}

// Options carries reminder context needed by some kinds
type Options struct {
	// Warnings is nil when the reminder has no warnings
	Warnings *Warnings
	// CreatedAt is the default reference year of n-yearly rules
	CreatedAt time.Time
}

// Primary returns the next primary occurrences of rule strictly after now.
// Daily rules yield one occurrence per active weekday, one-time rules in the past yield none.
func Primary(rule Rule, now time.Time, opts Options) ([]time.Time, error) {
	var (
		next time.Time
		err  error
	)

	switch r := rule.(type) {
	case OneTime:
		if !r.At.After(now) {
			return nil, nil
		}
		return []time.Time{r.At.In(now.Location())}, nil
	case Daily:
		return NextDaily(now, r.Days, r.At), nil
	case Weekly:
		next = NextWeekday(now, r.Day, r.At)
	case NWeekly:
		next, err = NextNWeekly(now, r.Anchor, r.Weeks, r.At)
	case Monthly:
		if r.Pattern.Kind == ByDate {
			next, err = NextMonthlyByDate(now, r.Pattern.Day, r.At)
		} else {
			next, err = NextMonthlyByWeekday(now, r.Pattern.Order, r.Pattern.Weekday, r.At)
		}
	case Yearly:
		if r.Pattern.Kind == ByDate {
			next, err = NextYearlyByDate(now, r.Month, r.Pattern.Day, r.At)
		} else {
			next, err = NextYearlyByWeekday(now, r.Month, r.Pattern.Order, r.Pattern.Weekday, r.At)
		}
	case NYearly:
		ref := r.StartYear
		if ref == 0 {
			ref = referenceYear(opts.CreatedAt, now)
		}
		if r.Pattern.Kind == ByDate {
			next, err = NextNYearlyByDate(now, r.Month, r.Pattern.Day, r.At, r.Years, ref)
		} else {
			next, err = NextNYearlyByWeekday(now, r.Month, r.Pattern.Order, r.Pattern.Weekday, r.At, r.Years, ref)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported rule %T", ErrMisconfigured, rule)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMisconfigured, err)
	}
	return []time.Time{next}, nil
}

func referenceYear(createdAt, now time.Time) int {
	if createdAt.IsZero() {
		return now.Year()
	}
	return createdAt.In(now.Location()).Year()
}

// WarningTimes returns primary - i*Every*Unit for i = 1..Count, keeping only instants after now
func WarningTimes(primary, now time.Time, w Warnings) ([]time.Time, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	unit, _ := w.Unit.Duration()
	step := time.Duration(w.Every) * unit

	var times []time.Time
	for i := 1; i <= w.Count; i++ {
		at := primary.Add(-time.Duration(i) * step)
		if at.After(now) {
			times = append(times, at)
		}
	}
	return times, nil
}

// Occurrences computes the primary occurrences of rule and their warnings, ordered by time
func Occurrences(rule Rule, now time.Time, opts Options) ([]Occurrence, error) {
	primaries, err := Primary(rule, now, opts)
	if err != nil {
		return nil, err
	}

	occurrences := make([]Occurrence, 0, len(primaries))
	for _, at := range primaries {
		occurrences = append(occurrences, Occurrence{At: at})
		if opts.Warnings == nil {
			continue
		}
		warnings, err := WarningTimes(at, now, *opts.Warnings)
		if err != nil {
			return nil, err
		}
		for _, w := range warnings {
			occurrences = append(occurrences, Occurrence{At: w, IsWarning: true})
		}
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		return occurrences[i].At.Before(occurrences[j].At)
	})
	return occurrences, nil
}
