package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPeriod is returned for lookback periods outside the supported set.
var ErrInvalidPeriod = errors.New("invalid period")

// Period is a dashboard lookback selection such as "1y".
type Period string

const (
	Period1Month  Period = "1mo"
	Period3Months Period = "3mo"
	Period6Months Period = "6mo"
	Period1Year   Period = "1y"
	Period2Years  Period = "2y"
	Period5Years  Period = "5y"
)

// DefaultPeriod is used when a request does not name one.
const DefaultPeriod = Period1Year

var periodDays = map[Period]int{
	Period1Month:  30,
	Period3Months: 90,
	Period6Months: 180,
	Period1Year:   365,
	Period2Years:  730,
	Period5Years:  1825,
}

// Periods lists the supported periods from shortest to longest.
func Periods() []Period {
	return []Period{Period1Month, Period3Months, Period6Months, Period1Year, Period2Years, Period5Years}
}

// ParsePeriod validates s. An empty string yields DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultPeriod, nil
	}
	p := Period(s)
	if _, ok := periodDays[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return p, nil
}

// Days returns the calendar-day lookback, or 0 for an unknown period.
func (p Period) Days() int {
	return periodDays[p]
}
