package inventory

import (
	"fmt"
	"time"

	"github.com/abctrack/abctrack/internal/platform/apperr"
)

// Period is a half-open reporting interval [From, To).
type Period struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.From) && t.Before(p.To)
}

// MonthPeriod covers a whole calendar month.
func MonthPeriod(year int, month time.Month) Period {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{From: from, To: from.AddDate(0, 1, 0)}
}

// WeekOfMonth returns one of the five fixed week bands of a month:
// days 1-7, 8-14, 15-21, 22-28 and 29 to month end.
func WeekOfMonth(year int, month time.Month, week int) (Period, error) {
	if week < 1 || week > 5 {
		return Period{}, apperr.InputField("week", "must be between 1 and 5")
	}
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	startDay := (week-1)*7 + 1
	from := time.Date(year, month, startDay, 0, 0, 0, 0, time.UTC)
	if from.After(monthEnd) || from.Equal(monthEnd) {
		// Short months have no 5th band.
		return Period{From: monthEnd, To: monthEnd}, nil
	}

	to := from.AddDate(0, 0, 7)
	if week == 5 || to.After(monthEnd) {
		to = monthEnd
	}
	return Period{From: from, To: to}, nil
}

// CustomPeriod covers [from, to] as whole days.
func CustomPeriod(from, to time.Time) (Period, error) {
	if to.Before(from) {
		return Period{}, apperr.InputField("to", "must not precede from")
	}
	return Period{
		From: from.Truncate(24 * time.Hour),
		To:   to.Truncate(24 * time.Hour).AddDate(0, 0, 1),
	}, nil
}

// ParsePeriod resolves the usage-report query parameters into a Period.
// kind is "month", "week" or "custom"; month is formatted 2006-01 and the
// custom bounds 2006-01-02.
func ParsePeriod(kind, monthStr, weekStr, fromStr, toStr string) (Period, error) {
	switch kind {
	case "", "month":
		m, err := time.Parse("2006-01", monthStr)
		if err != nil {
			return Period{}, apperr.InputField("month", "expected format 2006-01")
		}
		return MonthPeriod(m.Year(), m.Month()), nil

	case "week":
		m, err := time.Parse("2006-01", monthStr)
		if err != nil {
			return Period{}, apperr.InputField("month", "expected format 2006-01")
		}
		var week int
		if _, err := fmt.Sscanf(weekStr, "%d", &week); err != nil {
			return Period{}, apperr.InputField("week", "expected a number between 1 and 5")
		}
		return WeekOfMonth(m.Year(), m.Month(), week)

	case "custom":
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return Period{}, apperr.InputField("from", "expected format 2006-01-02")
		}
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return Period{}, apperr.InputField("to", "expected format 2006-01-02")
		}
		return CustomPeriod(from, to)

	default:
		return Period{}, apperr.InputField("period", fmt.Sprintf("unknown period kind %q", kind))
	}
}
