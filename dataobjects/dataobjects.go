package dataobjects

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rickb777/date"
)

var sdb sq.StatementBuilderType

func init() {
	sdb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// ErrInvalidISOWeek is returned when an ISO week identifier does not have the
// expected "2006-W02" form
var ErrInvalidISOWeek = errors.New(`ISOWeekParseError: should be a string formatted as "2006-W02"`)

var isoWeekRegexp = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// ISOWeekOf returns the ISO week identifier ("2006-W02") of the given instant
func ISOWeekOf(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// CurrentISOWeek returns the ISO week identifier of the current instant
func CurrentISOWeek() string {
	return ISOWeekOf(time.Now())
}

// ParseISOWeek splits an ISO week identifier into its year and week number
func ParseISOWeek(week string) (int, int, error) {
	match := isoWeekRegexp.FindStringSubmatch(week)
	if match == nil {
		return 0, 0, ErrInvalidISOWeek
	}
	var y, w int
	fmt.Sscanf(match[1], "%d", &y)
	fmt.Sscanf(match[2], "%d", &w)
	if w < 1 || w > 53 {
		return 0, 0, ErrInvalidISOWeek
	}
	return y, w, nil
}

// ISOWeekStart returns the Monday of the given ISO week.
// January 4th is always in ISO week 1.
func ISOWeekStart(week string) (date.Date, error) {
	year, weekNum, err := ParseISOWeek(week)
	if err != nil {
		return date.Date{}, err
	}
	jan4 := date.New(year, time.January, 4)
	backToMonday := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.Add(date.PeriodOfDays(-backToMonday + (weekNum-1)*7))
	// week 53 only exists in some ISO years; a Monday that does not
	// round-trip to its own identifier belongs to the next year's W01
	if ISOWeekOf(monday.UTC()) != week {
		return date.Date{}, ErrInvalidISOWeek
	}
	return monday, nil
}
