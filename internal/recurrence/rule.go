// Package recurrence computes reminder occurrences from typed recurrence rules.
//
// Rules are decoded from the JSON config stored with a reminder. All calendar
// arithmetic happens in the location of the reference instant passed in.
package recurrence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMisconfigured wraps every error caused by an invalid rule configuration
var ErrMisconfigured = errors.New("misconfigured recurrence rule")

// Kind is the recurrence kind of a reminder
type Kind string

const (
	KindOneTime Kind = "one-time"
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindNWeekly Kind = "n-weekly"
	KindMonthly Kind = "monthly"
	KindYearly  Kind = "yearly"
	KindNYearly Kind = "n-yearly"
)

// Kinds lists all supported kinds
var Kinds = []Kind{KindOneTime, KindDaily, KindWeekly, KindNWeekly, KindMonthly, KindYearly, KindNYearly}

// Repeats reports whether the kind produces more than one occurrence over time
func (k Kind) Repeats() bool {
	return k != KindOneTime
}

// Rule is one of OneTime, Daily, Weekly, NWeekly, Monthly, Yearly or NYearly
type Rule interface {
	Kind() Kind
	isRule()
}

// OneTime fires once at an absolute instant
type OneTime struct {
	At time.Time
}

// Daily fires at the same time on every active weekday
type Daily struct {
	At   Clock
	Days [7]bool // indexed by time.Weekday
}

// Weekly fires once a week
type Weekly struct {
	Day time.Weekday
	At  Clock
}

// NWeekly fires every Weeks weeks counted from the anchor date
type NWeekly struct {
	Weeks  int
	Anchor time.Time
	At     Clock
}

// Monthly fires once a month
type Monthly struct {
	Pattern DayPattern
	At      Clock
}

// Yearly fires once a year in Month
type Yearly struct {
	Month   time.Month
	Pattern DayPattern
	At      Clock
}

// NYearly fires every Years years in Month.
// StartYear anchors the cadence, zero means the reminder's creation year.
type NYearly struct {
	Month     time.Month
	Pattern   DayPattern
	At        Clock
	Years     int
	StartYear int
}

func (OneTime) Kind() Kind { return KindOneTime }
func (Daily) Kind() Kind   { return KindDaily }
func (Weekly) Kind() Kind  { return KindWeekly }
func (NWeekly) Kind() Kind { return KindNWeekly }
func (Monthly) Kind() Kind { return KindMonthly }
func (Yearly) Kind() Kind  { return KindYearly }
func (NYearly) Kind() Kind { return KindNYearly }

func (OneTime) isRule() {}
func (Daily) isRule()   {}
func (Weekly) isRule()  {}
func (NWeekly) isRule() {}
func (Monthly) isRule() {}
func (Yearly) isRule()  {}
func (NYearly) isRule() {}

// PatternKind selects how a day within a month is chosen
type PatternKind string

const (
	// ByDate selects a fixed day of the month
	ByDate PatternKind = "monthlyType1"
	// ByWeekday selects the n-th weekday of the month
	ByWeekday PatternKind = "monthlyType2"
)

// DayPattern picks a day within a month
type DayPattern struct {
	Kind    PatternKind
	Day     int // ByDate
	Order   int // ByWeekday, 1..4
	Weekday time.Weekday
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var orderNames = map[string]int{
	"first":  1,
	"second": 2,
	"third":  3,
	"fourth": 4,
}

var monthNames = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// ParseWeekday maps an English weekday name to time.Weekday
func ParseWeekday(name string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", name)
	}
	return wd, nil
}

// ParseOrder maps an ordinal name (first..fourth) to its number
func ParseOrder(name string) (int, error) {
	order, ok := orderNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown order number %q", name)
	}
	return order, nil
}

// ParseMonth maps an English month name to time.Month
func ParseMonth(name string) (time.Month, error) {
	month, ok := monthNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown month %q", name)
	}
	return month, nil
}

func orderName(order int) string {
	for name, n := range orderNames {
		if n == order {
			return name
		}
	}
	return strconv.Itoa(order)
}

// flexInt accepts both JSON numbers and numeric strings
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("expected an integer, got %s", data)
	}
	*f = flexInt(n)
	return nil
}

// flexString accepts both JSON strings and numbers
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

// config is the stored JSON shape shared by all kinds
type config struct {
	Timestamp   *flexInt        `json:"timestamp,omitempty"`
	Time        string          `json:"time,omitempty"`
	Repeat      map[string]bool `json:"repeat,omitempty"`
	Day         flexString      `json:"day,omitempty"`
	Weeks       *flexInt        `json:"weeks,omitempty"`
	Date        *flexInt        `json:"date,omitempty"`
	Type        string          `json:"type,omitempty"`
	OrderNumber string          `json:"orderNumber,omitempty"`
	WeekDay     string          `json:"weekDay,omitempty"`
	Month       string          `json:"month,omitempty"`
	Years       *flexInt        `json:"years,omitempty"`
	StartYear   *flexInt        `json:"startYear,omitempty"`
}

func misconfigured(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMisconfigured, fmt.Sprintf(format, args...))
}

// Parse decodes the config of a reminder of the given kind into a typed rule.
// Every failure wraps ErrMisconfigured.
func Parse(kind Kind, raw []byte) (Rule, error) {
	var cfg config
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, misconfigured("config is empty")
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, misconfigured("invalid config: %v", err)
	}

	if kind == KindOneTime {
		if cfg.Timestamp == nil {
			return nil, misconfigured("timestamp is required")
		}
		at := time.Unix(int64(*cfg.Timestamp), 0).UTC().Truncate(time.Minute)
		return OneTime{At: at}, nil
	}

	if cfg.Time == "" {
		return nil, misconfigured("time is required")
	}
	at, err := ParseClock(cfg.Time)
	if err != nil {
		return nil, misconfigured("%v", err)
	}

	switch kind {
	case KindDaily:
		return parseDaily(cfg, at)
	case KindWeekly:
		if cfg.Day == "" {
			return nil, misconfigured("day is required")
		}
		day, err := ParseWeekday(string(cfg.Day))
		if err != nil {
			return nil, misconfigured("%v", err)
		}
		return Weekly{Day: day, At: at}, nil
	case KindNWeekly:
		if cfg.Weeks == nil || *cfg.Weeks <= 0 {
			return nil, misconfigured("weeks must be a positive number")
		}
		if cfg.Date == nil {
			return nil, misconfigured("date is required")
		}
		return NWeekly{Weeks: int(*cfg.Weeks), Anchor: time.Unix(int64(*cfg.Date), 0).UTC(), At: at}, nil
	case KindMonthly:
		pattern, err := parsePattern(cfg, 0)
		if err != nil {
			return nil, err
		}
		return Monthly{Pattern: pattern, At: at}, nil
	case KindYearly:
		month, pattern, err := parseYearly(cfg)
		if err != nil {
			return nil, err
		}
		return Yearly{Month: month, Pattern: pattern, At: at}, nil
	case KindNYearly:
		month, pattern, err := parseYearly(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Years == nil || *cfg.Years <= 0 {
			return nil, misconfigured("years must be a positive number")
		}
		rule := NYearly{Month: month, Pattern: pattern, At: at, Years: int(*cfg.Years)}
		if cfg.StartYear != nil {
			rule.StartYear = int(*cfg.StartYear)
		}
		return rule, nil
	default:
		return nil, misconfigured("unknown reminder type %q", kind)
	}
}

func parseDaily(cfg config, at Clock) (Rule, error) {
	if len(cfg.Repeat) == 0 {
		return nil, misconfigured("repeat is required")
	}
	rule := Daily{At: at}
	active := 0
	for name, on := range cfg.Repeat {
		wd, err := ParseWeekday(name)
		if err != nil {
			return nil, misconfigured("%v", err)
		}
		rule.Days[wd] = on
		if on {
			active++
		}
	}
	if active == 0 {
		return nil, misconfigured("repeat must enable at least one weekday")
	}
	return rule, nil
}

func parseYearly(cfg config) (time.Month, DayPattern, error) {
	if cfg.Month == "" {
		return 0, DayPattern{}, misconfigured("month is required")
	}
	month, err := ParseMonth(cfg.Month)
	if err != nil {
		return 0, DayPattern{}, misconfigured("%v", err)
	}
	pattern, err := parsePattern(cfg, month)
	if err != nil {
		return 0, DayPattern{}, err
	}
	return month, pattern, nil
}

// parsePattern reads the monthly/yearly sub-type. month is zero for monthly rules.
func parsePattern(cfg config, month time.Month) (DayPattern, error) {
	switch cfg.Type {
	case "monthlyType1", "yearlyType1":
		if cfg.Day == "" {
			return DayPattern{}, misconfigured("day is required")
		}
		day, err := strconv.Atoi(strings.TrimSpace(string(cfg.Day)))
		if err != nil {
			return DayPattern{}, misconfigured("day must be a number, got %q", cfg.Day)
		}
		maxDay := 31
		if month != 0 {
			// 2024 is a leap year, so February 29 stays valid
			maxDay = daysIn(2024, month)
		}
		if day < 1 || day > maxDay {
			return DayPattern{}, misconfigured("day must be within 1..%d, got %d", maxDay, day)
		}
		return DayPattern{Kind: ByDate, Day: day}, nil
	case "monthlyType2", "yearlyType2":
		if cfg.OrderNumber == "" {
			return DayPattern{}, misconfigured("orderNumber is required")
		}
		order, err := ParseOrder(cfg.OrderNumber)
		if err != nil {
			return DayPattern{}, misconfigured("%v", err)
		}
		if cfg.WeekDay == "" {
			return DayPattern{}, misconfigured("weekDay is required")
		}
		wd, err := ParseWeekday(cfg.WeekDay)
		if err != nil {
			return DayPattern{}, misconfigured("%v", err)
		}
		return DayPattern{Kind: ByWeekday, Order: order, Weekday: wd}, nil
	case "":
		return DayPattern{}, misconfigured("type is required")
	default:
		return DayPattern{}, misconfigured("unknown type %q", cfg.Type)
	}
}

// Marshal encodes a rule into its canonical stored config
func Marshal(rule Rule) (json.RawMessage, error) {
	var cfg config
	switch r := rule.(type) {
	case OneTime:
		ts := flexInt(r.At.Unix())
		cfg.Timestamp = &ts
	case Daily:
		cfg.Time = r.At.String()
		cfg.Repeat = make(map[string]bool, 7)
		for wd, on := range r.Days {
			cfg.Repeat[strings.ToLower(time.Weekday(wd).String())] = on
		}
	case Weekly:
		cfg.Time = r.At.String()
		cfg.Day = flexString(strings.ToLower(r.Day.String()))
	case NWeekly:
		cfg.Time = r.At.String()
		weeks := flexInt(r.Weeks)
		date := flexInt(r.Anchor.Unix())
		cfg.Weeks, cfg.Date = &weeks, &date
	case Monthly:
		cfg.Time = r.At.String()
		setPattern(&cfg, r.Pattern)
	case Yearly:
		cfg.Time = r.At.String()
		cfg.Month = strings.ToLower(r.Month.String())
		setPattern(&cfg, r.Pattern)
	case NYearly:
		cfg.Time = r.At.String()
		cfg.Month = strings.ToLower(r.Month.String())
		setPattern(&cfg, r.Pattern)
		years := flexInt(r.Years)
		cfg.Years = &years
		if r.StartYear != 0 {
			start := flexInt(r.StartYear)
			cfg.StartYear = &start
		}
	default:
		return nil, fmt.Errorf("unsupported rule %T", rule)
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rule: %w", err)
	}
	return data, nil
}

func setPattern(cfg *config, p DayPattern) {
	cfg.Type = string(p.Kind)
	if p.Kind == ByDate {
		cfg.Day = flexString(strconv.Itoa(p.Day))
		return
	}
	cfg.OrderNumber = orderName(p.Order)
	cfg.WeekDay = strings.ToLower(p.Weekday.String())
}
