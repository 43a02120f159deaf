// Package curves implements the discount/projection curve model: a
// piecewise log-linear discount-factor curve per index, grouped into a
// ForwardCurveSet keyed by index name and anchored at the analysis date.
package curves

import (
	"math"
	"sort"

	"github.com/riskfolio/irrbb/internal/domain"
)

// Sample is one (t, rate) node of a curve. T is years from the analysis
// date; Rate is the continuously-compounded rate at that tenor.
type Sample struct {
	T    float64
	Rate float64
}

// ForwardCurve is an immutable yield curve built from sorted samples.
// Discount factors at the nodes are exp(-r·t); between nodes DFs are
// log-linearly interpolated, which is equivalent to a piecewise-constant
// instantaneous forward. Extrapolation is flat in rate at both ends.
type ForwardCurve struct {
	samples []Sample
}

// NewForwardCurve builds a curve from samples. Samples are copied, sorted
// by tenor and de-duplicated (last value wins on equal tenors). At least
// one sample is required.
func NewForwardCurve(samples []Sample) (*ForwardCurve, error) {
	if len(samples) == 0 {
		return nil, domain.NewInvalidInput("curve requires at least one sample")
	}
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].T < sorted[j].T })

	dedup := sorted[:0]
	for _, s := range sorted {
		if len(dedup) > 0 && s.T == dedup[len(dedup)-1].T {
			dedup[len(dedup)-1] = s
			continue
		}
		dedup = append(dedup, s)
	}
	return &ForwardCurve{samples: dedup}, nil
}

// Samples returns a copy of the curve's nodes. Used by the scenario
// engine to build shifted curves.
func (c *ForwardCurve) Samples() []Sample {
	out := make([]Sample, len(c.samples))
	copy(out, c.samples)
	return out
}

// Rate returns the equivalent continuously-compounded zero rate at tenor
// t (years). For t at or before the first node, the first node's rate;
// past the last node, the last node's rate.
func (c *ForwardCurve) Rate(t float64) float64 {
	first := c.samples[0]
	last := c.samples[len(c.samples)-1]
	if t <= first.T {
		return first.Rate
	}
	if t >= last.T {
		return last.Rate
	}
	// log-linear DF interpolation between the bracketing nodes
	i := sort.Search(len(c.samples), func(i int) bool { return c.samples[i].T >= t })
	lo, hi := c.samples[i-1], c.samples[i]
	lnLo := -lo.Rate * lo.T
	lnHi := -hi.Rate * hi.T
	w := (t - lo.T) / (hi.T - lo.T)
	lnDF := lnLo + w*(lnHi-lnLo)
	if t <= 0 {
		return lo.Rate
	}
	return -lnDF / t
}

// DF returns the discount factor at tenor t (years). DF(t) = 1 for t <= 0.
func (c *ForwardCurve) DF(t float64) float64 {
	if t <= 0 {
		return 1.0
	}
	return math.Exp(-c.Rate(t) * t)
}
