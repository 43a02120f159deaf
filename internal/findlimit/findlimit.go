// Package findlimit solves for the loan parameter that drives a
// portfolio metric to a limit: linear scaling for notionals, bisection
// for rates, maturities and spreads. Non-convergence is reported in the
// result, never as an error.
package findlimit

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/riskfolio/irrbb/internal/domain"
	"github.com/riskfolio/irrbb/internal/whatif"
)

// Variable selects the loan parameter to solve for.
type Variable string

const (
	VarNotional Variable = "notional"
	VarRate     Variable = "rate"
	VarMaturity Variable = "maturity"
	VarSpread   Variable = "spread" // basis points
)

// MinMaturityYears is the shortest maturity MutateSpec will produce.
const MinMaturityYears = 0.25

// DefaultMaxIterations bounds the bisection walk.
const DefaultMaxIterations = 15

// DefaultAbsTolerance is the metric tolerance when the caller does not
// supply a scenario-appropriate one.
const DefaultAbsTolerance = 1.0

// referenceEpsilon is the smallest reference delta the linear notional
// solve accepts; below it the template has no effect on the metric.
const referenceEpsilon = 1e-9

// Metric evaluates the portfolio-level target metric with the candidate
// loan included.
type Metric func(spec *whatif.LoanSpec) (float64, error)

// Options tune a solve. Zero values fall back to the per-variable
// defaults.
type Options struct {
	Lo            *float64
	Hi            *float64
	MaxIterations int
	AbsTolerance  float64
}

// Solver runs find-limit searches against a metric function.
type Solver struct {
	metric Metric
	log    zerolog.Logger
}

// New builds a solver around the caller's metric.
func New(metric Metric, log zerolog.Logger) *Solver {
	return &Solver{metric: metric, log: log.With().Str("component", "findlimit").Logger()}
}

// Solve finds the value of the variable that brings the metric from
// baseMetric to limit. The spec is the loan template; its current field
// value is the reference point for the notional solve and is never
// modified.
func (s *Solver) Solve(spec *whatif.LoanSpec, variable Variable, baseMetric, limit float64, opts Options) (domain.FindLimitResult, error) {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.AbsTolerance <= 0 {
		opts.AbsTolerance = DefaultAbsTolerance
	}
	if variable == VarNotional {
		return s.solveLinear(spec, baseMetric, limit, opts)
	}
	return s.bisect(spec, variable, limit, opts)
}

// solveLinear exploits that cashflows, and hence the metric delta, scale
// linearly with the notional: one evaluation at the reference notional
// fixes the slope.
func (s *Solver) solveLinear(spec *whatif.LoanSpec, baseMetric, limit float64, opts Options) (domain.FindLimitResult, error) {
	ref, err := s.metric(spec)
	if err != nil {
		return domain.FindLimitResult{}, err
	}
	deltaRef := ref - baseMetric
	if math.Abs(deltaRef) < referenceEpsilon {
		s.log.Warn().Float64("reference_notional", spec.Notional).
			Msg("candidate loan does not move the metric")
		return domain.FindLimitResult{
			FoundValue:     spec.Notional,
			AchievedMetric: ref,
			Converged:      false,
			Iterations:     1,
			Tolerance:      opts.AbsTolerance,
		}, nil
	}
	found := spec.Notional * (limit - baseMetric) / deltaRef
	if found < 0 {
		found = 0
	}
	mutated, err := MutateSpec(spec, VarNotional, found)
	if err != nil {
		return domain.FindLimitResult{}, err
	}
	achieved, err := s.metric(mutated)
	if err != nil {
		return domain.FindLimitResult{}, err
	}
	return domain.FindLimitResult{
		FoundValue:     found,
		AchievedMetric: achieved,
		Converged:      true,
		Iterations:     1,
		Tolerance:      opts.AbsTolerance,
	}, nil
}

// bisect runs a bracketed search over the variable's range. An
// unbracketed limit returns the closest endpoint, flagged
// non-converged.
func (s *Solver) bisect(spec *whatif.LoanSpec, variable Variable, limit float64, opts Options) (domain.FindLimitResult, error) {
	lo, hi, err := bracket(variable, opts)
	if err != nil {
		return domain.FindLimitResult{}, err
	}
	fLo, err := s.at(spec, variable, lo)
	if err != nil {
		return domain.FindLimitResult{}, err
	}
	fHi, err := s.at(spec, variable, hi)
	if err != nil {
		return domain.FindLimitResult{}, err
	}

	if (fLo-limit)*(fHi-limit) > 0 {
		value, achieved := lo, fLo
		if math.Abs(fHi-limit) < math.Abs(fLo-limit) {
			value, achieved = hi, fHi
		}
		s.log.Warn().Str("variable", string(variable)).
			Float64("lo", lo).Float64("hi", hi).
			Msg("limit not bracketed, returning closest endpoint")
		return domain.FindLimitResult{
			FoundValue:     value,
			AchievedMetric: achieved,
			Converged:      false,
			Iterations:     0,
			Tolerance:      opts.AbsTolerance,
		}, nil
	}

	var mid, fMid float64
	iterations := 0
	for i := 0; i < opts.MaxIterations; i++ {
		iterations++
		mid = 0.5 * (lo + hi)
		fMid, err = s.at(spec, variable, mid)
		if err != nil {
			return domain.FindLimitResult{}, err
		}
		if math.Abs(fMid-limit) < opts.AbsTolerance || hi-lo < opts.AbsTolerance {
			return domain.FindLimitResult{
				FoundValue:     mid,
				AchievedMetric: fMid,
				Converged:      true,
				Iterations:     iterations,
				Tolerance:      opts.AbsTolerance,
			}, nil
		}
		if (fLo-limit)*(fMid-limit) <= 0 {
			hi = mid
		} else {
			lo, fLo = mid, fMid
		}
	}
	return domain.FindLimitResult{
		FoundValue:     mid,
		AchievedMetric: fMid,
		Converged:      false,
		Iterations:     iterations,
		Tolerance:      opts.AbsTolerance,
	}, nil
}

func (s *Solver) at(spec *whatif.LoanSpec, variable Variable, value float64) (float64, error) {
	mutated, err := MutateSpec(spec, variable, value)
	if err != nil {
		return 0, err
	}
	return s.metric(mutated)
}

// bracket resolves the search range, caller overrides first.
func bracket(variable Variable, opts Options) (lo, hi float64, err error) {
	switch variable {
	case VarRate:
		lo, hi = 0, 0.20
	case VarMaturity:
		lo, hi = MinMaturityYears, 50.0
	case VarSpread:
		lo, hi = 0, 1000 // bps
	default:
		return 0, 0, domain.NewInvalidInput("unknown find-limit variable %q", string(variable))
	}
	if opts.Lo != nil {
		lo = *opts.Lo
	}
	if opts.Hi != nil {
		hi = *opts.Hi
	}
	if hi <= lo {
		return 0, 0, domain.NewInvalidInput("find-limit bracket [%f, %f] is empty", lo, hi)
	}
	return lo, hi, nil
}

// MutateSpec returns a copy of the spec with one variable updated. The
// original is never touched; maturities are clamped to the minimum
// term.
func MutateSpec(spec *whatif.LoanSpec, variable Variable, value float64) (*whatif.LoanSpec, error) {
	out := *spec
	switch variable {
	case VarNotional:
		out.Notional = value
	case VarRate:
		out.FixedRate = value
	case VarMaturity:
		if value < MinMaturityYears {
			value = MinMaturityYears
		}
		out.TermYears = value
	case VarSpread:
		out.SpreadBps = value
	default:
		return nil, domain.NewInvalidInput("unknown find-limit variable %q", string(variable))
	}
	return &out, nil
}
