package scenarios

import (
	"math"

	"github.com/riskfolio/irrbb/internal/curves"
	"github.com/riskfolio/irrbb/internal/domain"
)

// ShockParams are the Annex Part A magnitudes for one currency, in basis
// points.
type ShockParams struct {
	Parallel float64
	Short    float64
	Long     float64
}

// annexPartA is the closed per-currency shock table from the delegated
// regulation. Magnitudes in basis points.
var annexPartA = map[string]ShockParams{
	"ARS": {400, 500, 300},
	"AUD": {300, 450, 200},
	"BRL": {400, 500, 300},
	"CAD": {200, 300, 150},
	"CHF": {100, 150, 100},
	"CNY": {250, 300, 150},
	"EUR": {200, 250, 100},
	"GBP": {250, 300, 150},
	"HKD": {200, 250, 100},
	"IDR": {400, 500, 350},
	"INR": {400, 500, 300},
	"JPY": {100, 100, 100},
	"KRW": {300, 400, 200},
	"MXN": {400, 500, 300},
	"RUB": {400, 500, 300},
	"SAR": {200, 300, 150},
	"SEK": {200, 300, 150},
	"SGD": {150, 200, 100},
	"TRY": {400, 500, 300},
	"USD": {200, 300, 150},
	"ZAR": {400, 500, 300},
}

// Params returns the shock magnitudes for a currency, or a
// MissingCurrencyShock error for currencies outside Annex Part A.
func Params(currency string) (ShockParams, error) {
	p, ok := annexPartA[currency]
	if !ok {
		return ShockParams{}, domain.NewMissingCurrencyShock("currency %q not in Annex Part A", currency)
	}
	return p, nil
}

// shortDecay is the tenor decay of the short-rate shock, exp(-t/4).
func shortDecay(t float64) float64 {
	return math.Exp(-t / 4.0)
}

// Delta returns the scenario's shift function delta(t), in decimal rate
// units, for the given currency. The base scenario's delta is zero
// everywhere.
func Delta(scenario Scenario, currency string) (func(t float64) float64, error) {
	if _, err := Parse(string(scenario)); err != nil {
		return nil, err
	}
	if scenario == Base {
		return func(float64) float64 { return 0 }, nil
	}
	p, err := Params(currency)
	if err != nil {
		return nil, err
	}
	parallel := p.Parallel / 10000.0
	short := p.Short / 10000.0
	long := p.Long / 10000.0

	switch scenario {
	case ParallelUp:
		return func(float64) float64 { return parallel }, nil
	case ParallelDown:
		return func(float64) float64 { return -parallel }, nil
	case ShortUp:
		return func(t float64) float64 { return short * shortDecay(t) }, nil
	case ShortDown:
		return func(t float64) float64 { return -short * shortDecay(t) }, nil
	case LongUp:
		return func(t float64) float64 { return long * (1 - shortDecay(t)) }, nil
	case LongDown:
		return func(t float64) float64 { return -long * (1 - shortDecay(t)) }, nil
	case Steepener:
		return func(t float64) float64 {
			return -0.65*math.Abs(short*shortDecay(t)) + 0.9*math.Abs(long*(1-shortDecay(t)))
		}, nil
	case Flattener:
		return func(t float64) float64 {
			return 0.8*math.Abs(short*shortDecay(t)) - 0.6*math.Abs(long*(1-shortDecay(t)))
		}, nil
	}
	return nil, domain.NewUnsupportedScenario("scenario %q has no shape function", scenario)
}

// MaturityFloor is the post-shock regulatory floor at maturity t:
// min(0, -1.5% + 0.03% per year).
func MaturityFloor(t float64) float64 {
	return math.Min(0, -0.015+0.0003*t)
}

// floorShockedRate applies the post-shock floor with the
// observed-lower-rate carve-out: a base rate already below the floor is
// never raised.
func floorShockedRate(shocked, base, t float64) float64 {
	return math.Max(shocked, math.Min(MaturityFloor(t), base))
}

// BuildSet builds the shifted curve set of one scenario from the base
// set. The risk-free index is shocked and floored; every other (basis)
// index receives the same shift without the floor, preserving basis. The
// base scenario returns the base set unchanged.
func BuildSet(base *curves.Set, scenario Scenario, currency, riskFreeIndex string) (*curves.Set, error) {
	if scenario == Base {
		return base, nil
	}
	delta, err := Delta(scenario, currency)
	if err != nil {
		return nil, err
	}

	shifted := make(map[string]*curves.ForwardCurve)
	for _, index := range base.Indices() {
		curve, err := base.Curve(index)
		if err != nil {
			return nil, err
		}
		samples := curve.Samples()
		for i, s := range samples {
			shocked := s.Rate + delta(s.T)
			if index == riskFreeIndex {
				shocked = floorShockedRate(shocked, s.Rate, s.T)
			}
			samples[i].Rate = shocked
		}
		shiftedCurve, err := curves.NewForwardCurve(samples)
		if err != nil {
			return nil, err
		}
		shifted[index] = shiftedCurve
	}
	return base.WithCurves(shifted), nil
}

// BuildSets builds one shifted set per scenario id. The base scenario may
// be included and maps to the base set itself.
func BuildSets(base *curves.Set, ids []Scenario, currency, riskFreeIndex string) (map[Scenario]*curves.Set, error) {
	sets := make(map[Scenario]*curves.Set, len(ids))
	for _, id := range ids {
		set, err := BuildSet(base, id, currency, riskFreeIndex)
		if err != nil {
			return nil, err
		}
		sets[id] = set
	}
	return sets, nil
}
