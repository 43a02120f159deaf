package cashflows

import (
	"time"

	"github.com/riskfolio/irrbb/internal/curves"
	"github.com/riskfolio/irrbb/internal/dates"
	"github.com/riskfolio/irrbb/internal/domain"
)

// maxScheduleSteps guards schedule walks against non-advancing or
// runaway frequencies.
const maxScheduleSteps = 10000

// paymentSchedule returns the coupon/payment dates of a contract cycle:
// start + k*freq for every date strictly inside (start, maturity), plus
// maturity itself. Without a frequency the schedule is the single
// maturity date. Each step is computed from the cycle start so month-end
// dates do not drift.
func paymentSchedule(start, maturity time.Time, freq dates.Frequency) ([]time.Time, error) {
	if freq.IsZero() || !maturity.After(start) {
		return []time.Time{maturity}, nil
	}
	var out []time.Time
	for k := 1; ; k++ {
		if k > maxScheduleSteps {
			return nil, domain.NewInvalidInput(
				"payment schedule from %s to %s with frequency %s exceeds %d steps",
				start.Format("2006-01-02"), maturity.Format("2006-01-02"), freq, maxScheduleSteps)
		}
		d := dates.Frequency{Count: freq.Count * k, Unit: freq.Unit}.AddTo(start)
		if !d.Before(maturity) {
			break
		}
		out = append(out, d)
	}
	return append(out, maturity), nil
}

// resetSchedule walks the reprice anchor forward by the repricing
// frequency until strictly past accrualStart, then emits every date
// strictly before accrualEnd. resetAtStart reports whether a reset fell
// exactly on accrualStart, which disables the current-coupon stub.
// Without an anchor or frequency no resets are produced and the position
// is fixed across the cycle.
func resetSchedule(accrualStart, accrualEnd, anchor time.Time, freq dates.Frequency) (resets []time.Time, resetAtStart bool, err error) {
	if anchor.IsZero() || freq.IsZero() {
		return nil, false, nil
	}
	d := anchor
	steps := 0
	for !d.After(accrualStart) {
		if d.Equal(accrualStart) {
			resetAtStart = true
		}
		next := freq.AddTo(d)
		if !next.After(d) {
			return nil, false, domain.NewInvalidInput("reset schedule does not advance from %s", d.Format("2006-01-02"))
		}
		d = next
		if steps++; steps > maxScheduleSteps {
			return nil, false, domain.NewInvalidInput("reset schedule exceeds %d steps", maxScheduleSteps)
		}
	}
	for d.Before(accrualEnd) {
		resets = append(resets, d)
		next := freq.AddTo(d)
		if !next.After(d) {
			return nil, false, domain.NewInvalidInput("reset schedule does not advance from %s", d.Format("2006-01-02"))
		}
		d = next
		if steps++; steps > maxScheduleSteps {
			return nil, false, domain.NewInvalidInput("reset schedule exceeds %d steps", maxScheduleSteps)
		}
	}
	return resets, resetAtStart, nil
}

// segmentBounds splices the resets falling strictly inside (start, end)
// between the two period boundaries.
func segmentBounds(start, end time.Time, resets []time.Time) []time.Time {
	bounds := []time.Time{start}
	for _, r := range resets {
		if r.After(start) && r.Before(end) {
			bounds = append(bounds, r)
		}
	}
	return append(bounds, end)
}

// rater resolves the all-in accrual rate of a floating contract segment
// under the current-coupon stub rule: until the first reset the stub
// coupon (the contract's fixed_rate) applies untouched; from the first
// reset on, each segment accrues at index(segment start) + spread with
// the floor/cap applied to the all-in rate.
type rater struct {
	stubRate   float64
	spread     float64
	floor      *float64
	cap        *float64
	curve      *curves.ForwardCurve
	set        *curves.Set
	firstReset time.Time
	hasReset   bool
}

// newRater builds the rate resolver and reset schedule of one contract
// cycle spanning [accrualStart, accrualEnd).
func newRater(c *domain.Contract, set *curves.Set, accrualStart, accrualEnd time.Time) (*rater, []time.Time, error) {
	resets, resetAtStart, err := resetSchedule(accrualStart, accrualEnd, c.NextRepriceDate, c.RepricingFreq)
	if err != nil {
		return nil, nil, err
	}
	r := &rater{
		stubRate: c.FixedRate,
		spread:   c.Spread,
		floor:    c.FloorRate,
		cap:      c.CapRate,
		set:      set,
	}
	if c.IndexName != "" {
		curve, err := set.Curve(c.IndexName)
		if err != nil {
			return nil, nil, err
		}
		r.curve = curve
	}
	switch {
	case resetAtStart:
		r.hasReset = true
		r.firstReset = accrualStart
	case len(resets) > 0:
		r.hasReset = true
		r.firstReset = resets[0]
	}
	return r, resets, nil
}

// rateAt returns the all-in rate of the segment starting at segStart.
func (r *rater) rateAt(segStart time.Time) float64 {
	if !r.hasReset || segStart.Before(r.firstReset) || r.curve == nil {
		return r.stubRate
	}
	rate := r.curve.Rate(r.set.YearsTo(segStart)) + r.spread
	if r.floor != nil && rate < *r.floor {
		rate = *r.floor
	}
	if r.cap != nil && rate > *r.cap {
		rate = *r.cap
	}
	return rate
}
