package recurrence

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Describe returns a short English summary of a rule, e.g. "Every 3 weeks on Monday at 12:00"
func Describe(rule Rule, loc *time.Location) string {
	switch r := rule.(type) {
	case OneTime:
		return "Once on " + r.At.In(loc).Format("2006-01-02 15:04")
	case Daily:
		var days []string
		for wd, on := range r.Days {
			if on {
				days = append(days, time.Weekday(wd).String()[:3])
			}
		}
		if len(days) == 7 {
			return "Every day at " + r.At.String()
		}
		return fmt.Sprintf("Every %s at %s", strings.Join(days, ", "), r.At)
	case Weekly:
		return fmt.Sprintf("Every %s at %s", r.Day, r.At)
	case NWeekly:
		return fmt.Sprintf("Every %d weeks on %s at %s", r.Weeks, r.Anchor.In(loc).Weekday(), r.At)
	case Monthly:
		return fmt.Sprintf("Monthly on %s at %s", describePattern(r.Pattern), r.At)
	case Yearly:
		return fmt.Sprintf("Yearly on %s at %s", describeYearly(r.Month, r.Pattern), r.At)
	case NYearly:
		return fmt.Sprintf("Every %d years on %s at %s", r.Years, describeYearly(r.Month, r.Pattern), r.At)
	default:
		return string(rule.Kind())
	}
}

func describePattern(p DayPattern) string {
	if p.Kind == ByDate {
		return fmt.Sprintf("day %d", p.Day)
	}
	return fmt.Sprintf("the %s %s", titleOrder(p.Order), p.Weekday)
}

func describeYearly(month time.Month, p DayPattern) string {
	if p.Kind == ByDate {
		return fmt.Sprintf("%s %d", month, p.Day)
	}
	return fmt.Sprintf("the %s %s of %s", titleOrder(p.Order), p.Weekday, month)
}

// titleOrder builds its own Caser, a Caser must not be used from several goroutines
func titleOrder(order int) string {
	return cases.Title(language.English).String(orderName(order))
}
