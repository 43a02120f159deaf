// Package whatif turns a user-described loan into motor-native position
// rows. Grace periods and mixed fixed-then-variable structures are not
// projectable shapes, so they decompose into bullet/amortising legs plus
// zero-rate offset legs whose summed cashflows equal the economics of
// the described loan.
package whatif

import (
	"math"
	"time"

	"github.com/riskfolio/irrbb/internal/dates"
	"github.com/riskfolio/irrbb/internal/domain"
)

// SpecRateType is the rate structure of a What-If loan.
type SpecRateType string

const (
	SpecFixed    SpecRateType = "fixed"
	SpecVariable SpecRateType = "variable"
	SpecMixed    SpecRateType = "mixed"
)

// Amortization is the repayment profile of a What-If loan.
type Amortization string

const (
	AmortBullet  Amortization = "bullet"
	AmortLinear  Amortization = "linear"
	AmortAnnuity Amortization = "annuity"
)

// LoanSpec describes a hypothetical loan or deposit the way a user would:
// one product, one rate structure, an optional grace period. SpreadBps is
// in basis points.
type LoanSpec struct {
	ID              string
	Notional        float64
	TermYears       float64
	Side            domain.Side
	Currency        string
	RateType        SpecRateType
	FixedRate       float64
	VariableIndex   string
	SpreadBps       float64
	MixedFixedYears float64
	Amortization    Amortization
	GraceYears      float64
	Daycount        dates.Daycount
	PaymentFreq     dates.Frequency
	RepricingFreq   dates.Frequency
	StartDate       time.Time // zero means the analysis date
	FloorRate       *float64
	CapRate         *float64
}

// Validate checks the spec's internal consistency.
func (s *LoanSpec) Validate() error {
	if s.Notional <= 0 {
		return domain.NewDecomposition("loan notional must be positive, got %f", s.Notional)
	}
	if s.TermYears <= 0 {
		return domain.NewDecomposition("loan term must be positive, got %f years", s.TermYears)
	}
	if s.Side != domain.SideAsset && s.Side != domain.SideLiability {
		return domain.NewDecomposition("loan side must be A or L, got %q", string(s.Side))
	}
	switch s.Amortization {
	case AmortBullet, AmortLinear, AmortAnnuity:
	default:
		return domain.NewDecomposition("unknown amortization %q", string(s.Amortization))
	}
	switch s.RateType {
	case SpecFixed:
	case SpecVariable:
		if s.VariableIndex == "" {
			return domain.NewDecomposition("variable loan requires variable_index")
		}
	case SpecMixed:
		if s.MixedFixedYears <= 0 {
			return domain.NewDecomposition("mixed loan requires mixed_fixed_years")
		}
		if s.MixedFixedYears >= s.TermYears {
			return domain.NewDecomposition("mixed_fixed_years %f must be below the term %f",
				s.MixedFixedYears, s.TermYears)
		}
		if s.VariableIndex == "" {
			return domain.NewDecomposition("mixed loan requires variable_index")
		}
	default:
		return domain.NewDecomposition("unknown rate_type %q", string(s.RateType))
	}
	if s.GraceYears < 0 {
		return domain.NewDecomposition("grace must be non-negative, got %f years", s.GraceYears)
	}
	if s.Amortization != AmortBullet && s.GraceYears >= s.TermYears {
		return domain.NewDecomposition("grace %f years consumes the whole term %f",
			s.GraceYears, s.TermYears)
	}
	return nil
}

// Spread returns the contractual spread as a rate.
func (s *LoanSpec) Spread() float64 {
	return s.SpreadBps / 10000.0
}

// Decompose expands the spec into position rows. The per-period cashflows
// of the rows, summed, equal the economics of the described loan.
func Decompose(spec *LoanSpec, analysis time.Time) ([]domain.Contract, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	start := spec.StartDate
	if start.IsZero() {
		start = analysis
	}
	maturity := addYears(start, spec.TermYears)

	// grace on a bullet changes nothing: the whole term is
	// interest-only already
	grace := spec.GraceYears
	if spec.Amortization == AmortBullet {
		grace = 0
	}

	switch spec.RateType {
	case SpecMixed:
		return decomposeMixed(spec, start, maturity, grace)
	default:
		return decomposePure(spec, start, maturity, grace)
	}
}

// decomposePure handles single-rate loans: one row, or grace leg + amort
// leg + offset when a grace period precedes an amortising profile.
func decomposePure(spec *LoanSpec, start, maturity time.Time, grace float64) ([]domain.Contract, error) {
	if grace == 0 {
		return []domain.Contract{spec.leg(spec.ID, spec.Side, spec.RateType, spec.Amortization, start, maturity, spec.Notional)}, nil
	}
	graceEnd := addYears(start, grace)
	return []domain.Contract{
		spec.leg(spec.ID+"_grace", spec.Side, spec.RateType, AmortBullet, start, graceEnd, spec.Notional),
		spec.leg(spec.ID+"_amort", spec.Side, spec.RateType, spec.Amortization, graceEnd, maturity, spec.Notional),
		spec.offsetLeg(spec.ID+"_offset", graceEnd),
	}, nil
}

// decomposeMixed splits a fixed-then-variable loan at the switch date.
// Bullets cancel the intermediate principal with a zero-rate offset;
// amortising profiles run the fixed schedule to maturity and swap the
// post-switch remainder to the variable rate with an opposite-side fixed
// leg of the switch balance.
func decomposeMixed(spec *LoanSpec, start, maturity time.Time, grace float64) ([]domain.Contract, error) {
	switchDate := addYears(start, spec.MixedFixedYears)
	if !switchDate.Before(maturity) || !switchDate.After(start) {
		return nil, domain.NewDecomposition("switch date %s outside (%s, %s)",
			switchDate.Format("2006-01-02"), start.Format("2006-01-02"), maturity.Format("2006-01-02"))
	}

	if spec.Amortization == AmortBullet {
		return []domain.Contract{
			spec.leg(spec.ID+"_fixed", spec.Side, SpecFixed, AmortBullet, start, switchDate, spec.Notional),
			spec.leg(spec.ID+"_var", spec.Side, SpecVariable, AmortBullet, switchDate, maturity, spec.Notional),
			spec.offsetLeg(spec.ID+"_cancel", switchDate),
		}, nil
	}

	amortStart := start
	var rows []domain.Contract
	if grace > 0 {
		amortStart = addYears(start, grace)
		if !switchDate.After(amortStart) {
			return nil, domain.NewDecomposition("switch date %s inside the grace period ending %s",
				switchDate.Format("2006-01-02"), amortStart.Format("2006-01-02"))
		}
		rows = append(rows,
			spec.leg(spec.ID+"_grace", spec.Side, SpecFixed, AmortBullet, start, amortStart, spec.Notional))
	}

	balance, err := balanceAt(spec, amortStart, maturity, switchDate)
	if err != nil {
		return nil, err
	}
	rows = append(rows,
		spec.leg(spec.ID+"_fixed", spec.Side, SpecFixed, spec.Amortization, amortStart, maturity, spec.Notional),
		spec.leg(spec.ID+"_cancel", opposite(spec.Side), SpecFixed, spec.Amortization, switchDate, maturity, balance),
		spec.leg(spec.ID+"_var", spec.Side, SpecVariable, spec.Amortization, switchDate, maturity, balance),
	)
	if grace > 0 {
		rows = append(rows, spec.offsetLeg(spec.ID+"_goffset", amortStart))
	}
	return rows, nil
}

// leg builds one motor-native row. Variable legs reset at their own
// start so they follow the scenario forwards from day one.
func (s *LoanSpec) leg(id string, side domain.Side, rate SpecRateType, amort Amortization, start, maturity time.Time, notional float64) domain.Contract {
	c := domain.Contract{
		ContractID:   id,
		Side:         side,
		StartDate:    start,
		MaturityDate: maturity,
		Notional:     notional,
		Daycount:     s.Daycount,
		PaymentFreq:  s.PaymentFreq,
	}
	switch amort {
	case AmortLinear:
		c.Type = domain.FixedLinear
	case AmortAnnuity:
		c.Type = domain.FixedAnnuity
	default:
		c.Type = domain.FixedBullet
	}
	if rate == SpecVariable {
		switch amort {
		case AmortLinear:
			c.Type = domain.VariableLinear
		case AmortAnnuity:
			c.Type = domain.VariableAnnuity
		default:
			c.Type = domain.VariableBullet
		}
		c.RateType = domain.RateFloat
		c.IndexName = s.VariableIndex
		c.Spread = s.Spread()
		c.RepricingFreq = s.RepricingFreq
		c.NextRepriceDate = start
		c.FloorRate = s.FloorRate
		c.CapRate = s.CapRate
		return c
	}
	c.RateType = domain.RateFixed
	c.FixedRate = s.FixedRate
	c.FloorRate = s.FloorRate
	c.CapRate = s.CapRate
	return c
}

// offsetLeg is the opposite-side one-day zero-rate bullet that cancels a
// principal emission at the given date.
func (s *LoanSpec) offsetLeg(id string, at time.Time) domain.Contract {
	return domain.Contract{
		ContractID:   id,
		Side:         opposite(s.Side),
		StartDate:    at.AddDate(0, 0, -1),
		MaturityDate: at,
		Notional:     s.Notional,
		Daycount:     s.Daycount,
		Type:         domain.FixedBullet,
		RateType:     domain.RateFixed,
		FixedRate:    0,
	}
}

// balanceAt returns the outstanding balance of the fixed amortising leg
// at the switch date. Linear balances decay with remaining time; annuity
// balances follow the level-payment schedule at the fixed rate.
func balanceAt(spec *LoanSpec, amortStart, maturity, at time.Time) (float64, error) {
	if spec.Amortization == AmortLinear {
		total := maturity.Sub(amortStart).Hours()
		if total <= 0 {
			return 0, domain.NewDecomposition("amortisation window %s to %s is empty",
				amortStart.Format("2006-01-02"), maturity.Format("2006-01-02"))
		}
		return spec.Notional * maturity.Sub(at).Hours() / total, nil
	}
	return annuityBalanceAt(spec, amortStart, maturity, at)
}

// annuityBalanceAt amortises the level-payment schedule up to and
// including the switch date.
func annuityBalanceAt(spec *LoanSpec, amortStart, maturity, at time.Time) (float64, error) {
	schedule, err := scheduleDates(amortStart, maturity, spec.PaymentFreq)
	if err != nil {
		return 0, err
	}
	yfs := make([]float64, len(schedule))
	prev := amortStart
	for i, pd := range schedule {
		yfs[i] = dates.YearFraction(prev, pd, spec.Daycount)
		prev = pd
	}
	factor := 1.0
	sum := 0.0
	for _, yf := range yfs {
		factor *= 1 + spec.FixedRate*yf
		sum += 1 / factor
	}
	if sum == 0 {
		return spec.Notional, nil
	}
	payment := spec.Notional / sum

	balance := spec.Notional
	for i, pd := range schedule {
		if pd.After(at) {
			break
		}
		interest := balance * spec.FixedRate * yfs[i]
		balance -= payment - interest
		if balance < 0 {
			balance = 0
		}
	}
	return balance, nil
}

// scheduleDates mirrors the projection payment schedule: start + k*freq
// strictly inside the window, plus maturity.
func scheduleDates(start, maturity time.Time, freq dates.Frequency) ([]time.Time, error) {
	if freq.IsZero() || !maturity.After(start) {
		return []time.Time{maturity}, nil
	}
	var out []time.Time
	for k := 1; ; k++ {
		if k > 10000 {
			return nil, domain.NewDecomposition("payment schedule from %s to %s exceeds 10000 steps",
				start.Format("2006-01-02"), maturity.Format("2006-01-02"))
		}
		d := dates.Frequency{Count: freq.Count * k, Unit: freq.Unit}.AddTo(start)
		if !d.Before(maturity) {
			break
		}
		out = append(out, d)
	}
	return append(out, maturity), nil
}

func opposite(s domain.Side) domain.Side {
	if s == domain.SideAsset {
		return domain.SideLiability
	}
	return domain.SideAsset
}

// addYears advances a date by a fractional year count using the average
// year length, matching the behavioural bucket convention.
func addYears(t time.Time, years float64) time.Time {
	return t.AddDate(0, 0, int(math.Round(years*365.25)))
}
