package cashflows

import (
	"time"

	"github.com/riskfolio/irrbb/internal/dates"
	"github.com/riskfolio/irrbb/internal/domain"
)

// balanceEpsilon clamps amortising balances so rounding never drives
// them negative.
const balanceEpsilon = 1e-10

// rateFunc resolves the accrual rate of a segment from its start date.
// Fixed shapes use a constant; variable shapes use the rater.
type rateFunc func(segStart time.Time) float64

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// bullet accrues interest on the full notional across each coupon
// sub-period (split by resets for variable contracts) and returns the
// notional at maturity. Periods ending at or before the analysis date
// are history and emit nothing.
func (g *Generator) bullet(c *domain.Contract, rate rateFunc, resets []time.Time) (flowMap, error) {
	analysis := g.set.AnalysisDate
	schedule, err := paymentSchedule(c.StartDate, c.MaturityDate, c.PaymentFreq)
	if err != nil {
		return nil, err
	}
	m := flowMap{}
	prev := c.StartDate
	for _, pd := range schedule {
		if pd.After(analysis) {
			accStart := maxTime(prev, analysis)
			bounds := segmentBounds(accStart, pd, resets)
			for i := 0; i+1 < len(bounds); i++ {
				yf := dates.YearFraction(bounds[i], bounds[i+1], c.Daycount)
				m.addInterest(pd, c.Notional*rate(bounds[i])*yf)
			}
		}
		prev = pd
	}
	m.addPrincipal(c.MaturityDate, c.Notional)
	return m, nil
}

// linear amortises the outstanding balance linearly in time from the
// effective start to zero at maturity. Interest per segment accrues on
// the average balance between the segment endpoints and posts at the
// segment's payment date.
func (g *Generator) linear(c *domain.Contract, rate rateFunc, resets []time.Time) (flowMap, error) {
	analysis := g.set.AnalysisDate
	effStart := maxTime(c.StartDate, analysis)
	schedule, err := paymentSchedule(c.StartDate, c.MaturityDate, c.PaymentFreq)
	if err != nil {
		return nil, err
	}
	spanDays := c.MaturityDate.Sub(effStart).Hours() / 24.0
	outstanding := func(d time.Time) float64 {
		if spanDays <= 0 || !d.Before(c.MaturityDate) {
			return 0
		}
		remaining := c.MaturityDate.Sub(d).Hours() / 24.0
		return c.Notional * remaining / spanDays
	}

	m := flowMap{}
	prev := effStart
	prevOut := c.Notional
	for _, pd := range schedule {
		if !pd.After(effStart) {
			continue
		}
		out := outstanding(pd)
		bounds := segmentBounds(prev, pd, resets)
		for i := 0; i+1 < len(bounds); i++ {
			avg := 0.5 * (outstanding(bounds[i]) + outstanding(bounds[i+1]))
			yf := dates.YearFraction(bounds[i], bounds[i+1], c.Daycount)
			m.addInterest(pd, avg*rate(bounds[i])*yf)
		}
		m.addPrincipal(pd, prevOut-out)
		prev = pd
		prevOut = out
	}
	return m, nil
}

// annuity produces level payments over the remaining schedule. In
// reprice-on-reset mode the payment is recomputed at every payment
// period whose preceding period contained a reset, on the remaining
// balance over the remaining schedule; in fixed-payment mode the payment
// is computed once at cycle start and resets only change the accrual of
// subsequent segments. In both modes principal is non-negative, capped
// at the balance, and the last payment absorbs the residual.
func (g *Generator) annuity(c *domain.Contract, rate rateFunc, resets []time.Time, mode domain.AnnuityPaymentMode) (flowMap, error) {
	analysis := g.set.AnalysisDate
	effStart := maxTime(c.StartDate, analysis)
	schedule, err := paymentSchedule(c.StartDate, c.MaturityDate, c.PaymentFreq)
	if err != nil {
		return nil, err
	}
	var payDates []time.Time
	for _, pd := range schedule {
		if pd.After(effStart) {
			payDates = append(payDates, pd)
		}
	}
	if len(payDates) == 0 {
		return flowMap{}, nil
	}
	yfs := make([]float64, len(payDates))
	prev := effStart
	for i, pd := range payDates {
		yfs[i] = dates.YearFraction(prev, pd, c.Daycount)
		prev = pd
	}

	m := flowMap{}
	bal := c.Notional
	switch mode {
	case domain.FixedPayment:
		payment := levelPayment(bal, rate(effStart), yfs)
		periodStart := effStart
		for i, pd := range payDates {
			accrued := 0.0
			bounds := segmentBounds(periodStart, pd, resets)
			for j := 0; j+1 < len(bounds); j++ {
				yf := dates.YearFraction(bounds[j], bounds[j+1], c.Daycount)
				accrued += bal * rate(bounds[j]) * yf
			}
			m.addInterest(pd, accrued)
			principal := clampPrincipal(payment-accrued, bal, i == len(payDates)-1)
			m.addPrincipal(pd, principal)
			bal -= principal
			if bal < balanceEpsilon {
				bal = 0
			}
			periodStart = pd
		}
	default: // reprice on reset
		resetIdx := 0
		currentRate := rate(effStart)
		payment := levelPayment(bal, currentRate, yfs)
		periodStart := effStart
		prevPeriodStart := effStart
		for i, pd := range payDates {
			repriced := false
			for resetIdx < len(resets) && !resets[resetIdx].After(periodStart) {
				if resets[resetIdx].After(prevPeriodStart) {
					repriced = true
				}
				resetIdx++
			}
			if repriced {
				currentRate = rate(periodStart)
				payment = levelPayment(bal, currentRate, yfs[i:])
			}
			interest := bal * currentRate * yfs[i]
			m.addInterest(pd, interest)
			principal := clampPrincipal(payment-interest, bal, i == len(payDates)-1)
			m.addPrincipal(pd, principal)
			bal -= principal
			if bal < balanceEpsilon {
				bal = 0
			}
			prevPeriodStart = periodStart
			periodStart = pd
		}
	}
	return m, nil
}

// levelPayment solves the annuity payment for a balance over the period
// year fractions at a constant rate: balance / sum of inverse compounded
// accrual factors.
func levelPayment(balance, rate float64, yfs []float64) float64 {
	if len(yfs) == 0 {
		return 0
	}
	factor := 1.0
	sum := 0.0
	for _, yf := range yfs {
		factor *= 1 + rate*yf
		sum += 1 / factor
	}
	if sum == 0 {
		return 0
	}
	return balance / sum
}

// clampPrincipal applies the annuity principal rules: non-negative, at
// most the balance, and the final payment repays the balance in full.
func clampPrincipal(principal, balance float64, last bool) float64 {
	if last {
		return balance
	}
	if principal < 0 {
		return 0
	}
	if principal > balance {
		return balance
	}
	return principal
}

// scheduled walks the explicit principal flows attributed to the
// half-open cycle window (cycleStart, maturity]. Interest accrues on the
// running balance between consecutive flow dates, segmented by resets
// for variable contracts; any residual balance is returned at maturity.
func (g *Generator) scheduled(c *domain.Contract, rate rateFunc, resets []time.Time, flows []domain.ScheduledFlow) (flowMap, error) {
	analysis := g.set.AnalysisDate
	cycleStart := maxTime(c.StartDate, analysis)

	m := flowMap{}
	bal := c.Notional
	prev := cycleStart
	for _, f := range flows {
		if !f.FlowDate.After(cycleStart) || f.FlowDate.After(c.MaturityDate) {
			continue
		}
		bounds := segmentBounds(prev, f.FlowDate, resets)
		for i := 0; i+1 < len(bounds); i++ {
			yf := dates.YearFraction(bounds[i], bounds[i+1], c.Daycount)
			m.addInterest(f.FlowDate, bal*rate(bounds[i])*yf)
		}
		amount := f.Principal
		if amount > bal {
			amount = bal
		}
		m.addPrincipal(f.FlowDate, amount)
		bal -= amount
		if bal < balanceEpsilon {
			bal = 0
		}
		prev = f.FlowDate
	}
	if bal > 0 {
		bounds := segmentBounds(prev, c.MaturityDate, resets)
		for i := 0; i+1 < len(bounds); i++ {
			yf := dates.YearFraction(bounds[i], bounds[i+1], c.Daycount)
			m.addInterest(c.MaturityDate, bal*rate(bounds[i])*yf)
		}
		m.addPrincipal(c.MaturityDate, bal)
	}
	return m, nil
}
