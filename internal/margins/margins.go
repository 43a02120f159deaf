// Package margins calibrates renewal margins from recent originations and
// serves them through a most-specific-first fallback lookup. The margin of
// a fixed contract is its coupon over the risk-free curve at the relevant
// tenor; the margin of a floating contract is its contractual spread.
package margins

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/riskfolio/irrbb/internal/curves"
	"github.com/riskfolio/irrbb/internal/dates"
	"github.com/riskfolio/irrbb/internal/domain"
)

// DefaultLookbackMonths is the origination window used when the caller
// does not override it.
const DefaultLookbackMonths = 12

// observation is one calibrated origination.
type observation struct {
	rateType      domain.RateType
	contractType  domain.ContractType
	side          domain.Side
	repricingFreq string
	indexName     string
	margin        float64
	weight        float64
}

// Set is a calibrated margin set. Immutable once built; shared read-only
// across scenario workers.
type Set struct {
	observations []observation
}

// Query selects the margin dimensions of a renewal lookup.
type Query struct {
	RateType      domain.RateType
	ContractType  domain.ContractType
	Side          domain.Side
	RepricingFreq string
	IndexName     string
}

// Calibrate builds a margin set from the originations of the lookback
// window: contracts whose start_date lies within lookbackMonths before
// the curve set's analysis date. Rows are weighted by |notional|, with
// zero notionals weighted 1.0.
func Calibrate(contracts []domain.Contract, base *curves.Set, riskFreeIndex string, lookbackMonths int) (*Set, error) {
	if lookbackMonths <= 0 {
		lookbackMonths = DefaultLookbackMonths
	}
	analysis := base.AnalysisDate
	windowStart := analysis.AddDate(0, -lookbackMonths, 0)

	set := &Set{}
	for i := range contracts {
		c := &contracts[i]
		if c.Type == domain.StaticPosition {
			continue
		}
		if c.StartDate.Before(windowStart) || c.StartDate.After(analysis) {
			continue
		}
		margin, err := originationMargin(c, base, riskFreeIndex)
		if err != nil {
			return nil, err
		}
		weight := c.Notional
		if weight < 0 {
			weight = -weight
		}
		if weight == 0 {
			weight = 1.0
		}
		set.observations = append(set.observations, observation{
			rateType:      c.RateType,
			contractType:  c.Type,
			side:          c.Side,
			repricingFreq: c.RepricingFreq.String(),
			indexName:     c.IndexName,
			margin:        margin,
			weight:        weight,
		})
	}
	return set, nil
}

// Origination returns the originating margin of a contract: the renewal
// default when no calibrated observation matches.
func Origination(c *domain.Contract, base *curves.Set, riskFreeIndex string) (float64, error) {
	return originationMargin(c, base, riskFreeIndex)
}

// originationMargin computes a single row's margin. Fixed contracts are
// benchmarked against the risk-free curve at the repricing tenor when one
// exists, else at the original term, else at one year.
func originationMargin(c *domain.Contract, base *curves.Set, riskFreeIndex string) (float64, error) {
	if c.RateType == domain.RateFloat {
		return c.Spread, nil
	}
	benchmark := benchmarkDate(c, base.AnalysisDate)
	rf, err := base.RateOnDate(riskFreeIndex, benchmark)
	if err != nil {
		return 0, err
	}
	return c.FixedRate - rf, nil
}

func benchmarkDate(c *domain.Contract, analysis time.Time) time.Time {
	if !c.RepricingFreq.IsZero() {
		return c.RepricingFreq.AddTo(analysis)
	}
	if !c.MaturityDate.IsZero() && !c.StartDate.IsZero() && c.MaturityDate.After(c.StartDate) {
		return analysis.Add(c.MaturityDate.Sub(c.StartDate))
	}
	return dates.Frequency{Count: 1, Unit: dates.UnitYear}.AddTo(analysis)
}

// profile lists which dimensions a fallback level matches on.
type profile struct {
	contractType, side, freq, index bool
}

// fallbackProfiles is the most-specific-first lookup sequence.
var fallbackProfiles = []profile{
	{true, true, true, true},
	{true, true, true, false},
	{true, false, true, false},
	{true, true, false, false},
	{true, false, false, false},
	{false, false, true, false},
	{false, false, false, false},
}

// Lookup returns the weighted-average margin at the first non-empty
// fallback level. When every level is empty it returns the supplied
// default, or a MissingMargin error when none is given.
func (s *Set) Lookup(q Query, fallback *float64) (float64, error) {
	for _, p := range fallbackProfiles {
		values, weights := s.collect(q, p)
		if len(values) > 0 {
			return stat.Mean(values, weights), nil
		}
	}
	if fallback != nil {
		return *fallback, nil
	}
	return 0, domain.NewMissingMargin(
		"no calibrated margin for rate_type=%s type=%s side=%s freq=%s index=%s",
		q.RateType, q.ContractType, q.Side, q.RepricingFreq, q.IndexName)
}

// collect gathers the margins matching a query under a fallback profile.
// The rate type always participates in the match.
func (s *Set) collect(q Query, p profile) (values, weights []float64) {
	for _, o := range s.observations {
		if o.rateType != q.RateType {
			continue
		}
		if p.contractType && o.contractType != q.ContractType {
			continue
		}
		if p.side && o.side != q.Side {
			continue
		}
		if p.freq && o.repricingFreq != q.RepricingFreq {
			continue
		}
		if p.index && o.indexName != q.IndexName {
			continue
		}
		values = append(values, o.margin)
		weights = append(weights, o.weight)
	}
	return values, weights
}

// Size returns the number of calibrated observations.
func (s *Set) Size() int {
	return len(s.observations)
}
