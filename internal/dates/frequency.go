package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FrequencyUnit is the calendar unit of a frequency token.
type FrequencyUnit byte

const (
	UnitDay   FrequencyUnit = 'D'
	UnitWeek  FrequencyUnit = 'W'
	UnitMonth FrequencyUnit = 'M'
	UnitYear  FrequencyUnit = 'Y'
)

// Frequency is a parsed tenor token such as "3M" or "1Y".
// The zero value means "no frequency" (blank or zero-count tokens).
type Frequency struct {
	Count int
	Unit  FrequencyUnit
}

var frequencyPattern = regexp.MustCompile(`^(\d+)([DWMY])$`)

// ErrInvalidFrequency is wrapped by ParseFrequency on malformed tokens.
var ErrInvalidFrequency = fmt.Errorf("invalid frequency token")

// ParseFrequency parses a frequency token. Grammar: ^(\d+)[DWMY]$, plus
// the overnight aliases ON and O/N (both equal to 1D). Blank strings and
// zero-count tokens (0D, 0W, 0M, 0Y) parse to the zero Frequency.
// Unknown tokens fail with ErrInvalidFrequency.
func ParseFrequency(s string) (Frequency, error) {
	token := strings.ToUpper(strings.TrimSpace(s))
	if token == "" {
		return Frequency{}, nil
	}
	if token == "ON" || token == "O/N" {
		return Frequency{Count: 1, Unit: UnitDay}, nil
	}
	m := frequencyPattern.FindStringSubmatch(token)
	if m == nil {
		return Frequency{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	count, err := strconv.Atoi(m[1])
	if err != nil {
		return Frequency{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	if count == 0 {
		return Frequency{}, nil
	}
	return Frequency{Count: count, Unit: FrequencyUnit(m[2][0])}, nil
}

// IsZero reports whether the frequency is "no frequency".
func (f Frequency) IsZero() bool {
	return f.Count == 0
}

// AddTo advances a date by the frequency using calendar arithmetic:
// months and years roll into exact calendar months, days and weeks add
// actual days. Adding a zero frequency returns the date unchanged.
func (f Frequency) AddTo(d time.Time) time.Time {
	switch f.Unit {
	case UnitDay:
		return d.AddDate(0, 0, f.Count)
	case UnitWeek:
		return d.AddDate(0, 0, 7*f.Count)
	case UnitMonth:
		return d.AddDate(0, f.Count, 0)
	case UnitYear:
		return d.AddDate(f.Count, 0, 0)
	}
	return d
}

// Years returns the approximate length of one period in years. Used for
// curve lookups at a frequency tenor.
func (f Frequency) Years() float64 {
	switch f.Unit {
	case UnitDay:
		return float64(f.Count) / 365.25
	case UnitWeek:
		return float64(f.Count) * 7.0 / 365.25
	case UnitMonth:
		return float64(f.Count) / 12.0
	case UnitYear:
		return float64(f.Count)
	}
	return 0
}

// String renders the canonical token form.
func (f Frequency) String() string {
	if f.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d%c", f.Count, f.Unit)
}
