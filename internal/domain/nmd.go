package domain

import "math"

// NMDParams are the behavioural parameters of fixed non-maturity
// deposits. Proportions and the pass-through rate are percentages in
// [0, 100]; the distribution maps EBA bucket names to percentages of the
// total balance and must sum to CoreProportion.
type NMDParams struct {
	CoreProportion      float64
	PassThroughRate     float64
	CoreAverageMaturity float64
	Distribution        map[string]float64
}

// distributionTolerance absorbs percentage round-off in bank-supplied
// distributions.
const distributionTolerance = 1e-6

// Validate checks ranges and the distribution sum.
func (p *NMDParams) Validate() error {
	if p.CoreProportion < 0 || p.CoreProportion > 100 {
		return NewInvalidInput("nmd core_proportion %.4f outside [0,100]", p.CoreProportion)
	}
	if p.PassThroughRate < 0 || p.PassThroughRate > 100 {
		return NewInvalidInput("nmd pass_through_rate %.4f outside [0,100]", p.PassThroughRate)
	}
	known := make(map[string]bool, len(EBABuckets))
	for _, b := range EBABuckets {
		known[b.Name] = true
	}
	sum := 0.0
	for name, pct := range p.Distribution {
		if !known[name] {
			return NewInvalidInput("nmd distribution references unknown bucket %q", name)
		}
		sum += pct
	}
	if math.Abs(sum-p.CoreProportion) > distributionTolerance {
		return NewInvalidInput("nmd distribution sums to %.6f, expected core proportion %.6f",
			sum, p.CoreProportion)
	}
	return nil
}

// Beta returns the pass-through rate as a fraction.
func (p *NMDParams) Beta() float64 {
	return p.PassThroughRate / 100.0
}
