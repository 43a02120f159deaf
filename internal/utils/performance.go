package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// Timer measures the duration of one engine operation and logs it on
// Stop. Calculations over large balances routinely run for seconds, so
// slow runs are promoted to a warning.
type Timer struct {
	start time.Time
	name  string
	log   zerolog.Logger
}

// NewTimer starts a timer for the named operation.
func NewTimer(name string, log zerolog.Logger) *Timer {
	return &Timer{start: time.Now(), name: name, log: log}
}

// Stop logs the measured duration and returns it.
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.start)

	t.log.Debug().
		Str("operation", t.name).
		Dur("duration_ms", duration).
		Msg("operation timed")

	if duration > 30*time.Second {
		t.log.Warn().
			Str("operation", t.name).
			Dur("duration", duration).
			Msg("slow operation (>30s)")
	}
	return duration
}

// StopWith logs the duration with extra context fields.
func (t *Timer) StopWith(fields map[string]interface{}) time.Duration {
	duration := time.Since(t.start)

	event := t.log.Debug().
		Str("operation", t.name).
		Dur("duration_ms", duration)
	for key, value := range fields {
		event = event.Interface(key, value)
	}
	event.Msg("operation timed")
	return duration
}
