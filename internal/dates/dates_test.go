package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestYearFraction(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		dc       Daycount
		expected float64
	}{
		{"act360 one year", d(2026, 1, 1), d(2027, 1, 1), Act360, 365.0 / 360.0},
		{"act360 half year", d(2026, 1, 1), d(2026, 7, 1), Act360, 181.0 / 360.0},
		{"act365 one year", d(2026, 1, 1), d(2027, 1, 1), Act365, 365.0 / 365.25},
		{"30/360 one year", d(2026, 1, 1), d(2027, 1, 1), Thirty360, 1.0},
		{"30/360 month end cap", d(2026, 1, 31), d(2026, 7, 31), Thirty360, 0.5},
		{"negative interval", d(2026, 7, 1), d(2026, 1, 1), Act360, -181.0 / 360.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, YearFraction(tt.start, tt.end, tt.dc), 1e-12)
		})
	}
}

func TestParseDaycount(t *testing.T) {
	dc, err := ParseDaycount(" act/360 ")
	require.NoError(t, err)
	assert.Equal(t, Act360, dc)

	_, err = ParseDaycount("ACT/ACT")
	assert.Error(t, err)
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		token    string
		expected Frequency
		wantErr  bool
	}{
		{"3M", Frequency{3, UnitMonth}, false},
		{"1Y", Frequency{1, UnitYear}, false},
		{"14D", Frequency{14, UnitDay}, false},
		{"2W", Frequency{2, UnitWeek}, false},
		{"ON", Frequency{1, UnitDay}, false},
		{"O/N", Frequency{1, UnitDay}, false},
		{"", Frequency{}, false},
		{"0M", Frequency{}, false},
		{"0Y", Frequency{}, false},
		{"13X", Frequency{}, true},
		{"M3", Frequency{}, true},
		{"-1M", Frequency{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			f, err := ParseFrequency(tt.token)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidFrequency)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestFrequencyAddTo(t *testing.T) {
	start := d(2026, 1, 31)

	// Month arithmetic follows the calendar (Go normalises 2026-02-31
	// to 2026-03-03, same as the source system).
	assert.Equal(t, d(2026, 3, 3), Frequency{1, UnitMonth}.AddTo(start))
	assert.Equal(t, d(2026, 4, 30), Frequency{3, UnitMonth}.AddTo(d(2026, 1, 30)))
	assert.Equal(t, d(2027, 1, 31), Frequency{1, UnitYear}.AddTo(start))
	assert.Equal(t, d(2026, 2, 14), Frequency{2, UnitWeek}.AddTo(start))
	assert.Equal(t, start, Frequency{}.AddTo(start))
}

func TestFrequencyYears(t *testing.T) {
	assert.InDelta(t, 0.25, Frequency{3, UnitMonth}.Years(), 1e-12)
	assert.InDelta(t, 2.0, Frequency{2, UnitYear}.Years(), 1e-12)
	assert.InDelta(t, 7.0/365.25, Frequency{1, UnitWeek}.Years(), 1e-12)
}
