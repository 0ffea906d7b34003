package forecast

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidInput is returned when text is not a date, month or year.
var ErrInvalidInput = errors.New("invalid format: enter a date (YYYY-MM-DD), a month (YYYY-MM), or a year (YYYY)")

type Mode string

const (
	ModeDate  Mode = "date"
	ModeMonth Mode = "month"
	ModeYear  Mode = "year"
)

// Query is a parsed request. Date is the parsed value: the day itself, the
// first of the month, or January 1st.
type Query struct {
	Input string
	Mode  Mode
	Date  time.Time
}

var queryLayouts = []struct {
	layout string
	mode   Mode
}{
	{"2006-01-02", ModeDate},
	{"2006-01", ModeMonth},
	{"2006", ModeYear},
}

// ParseQuery tries a full date, then year-month, then year. The first
// layout that parses wins.
func ParseQuery(text string) (Query, error) {
	input := strings.TrimSpace(text)
	for _, l := range queryLayouts {
		if t, err := time.Parse(l.layout, input); err == nil {
			return Query{Input: input, Mode: l.mode, Date: t}, nil
		}
	}
	return Query{}, fmt.Errorf("%w: %q", ErrInvalidInput, text)
}
