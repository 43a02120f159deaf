// Package nii accrues the cashflow table into the 12-month net interest
// income profile: per-month income and expense buckets, the
// balance-constant rollover of contracts maturing inside the horizon,
// and the pass-through repricing correction of non-maturity deposits.
package nii

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/riskfolio/irrbb/internal/curves"
	"github.com/riskfolio/irrbb/internal/dates"
	"github.com/riskfolio/irrbb/internal/domain"
	"github.com/riskfolio/irrbb/internal/margins"
)

// DefaultHorizonMonths is the projection horizon when the caller does
// not override it.
const DefaultHorizonMonths = 12

// maxRolloverCycles guards the rollover walk against degenerate
// sub-day terms.
const maxRolloverCycles = 10000

// Config carries the projection options of one scenario run.
type Config struct {
	HorizonMonths   int
	BalanceConstant bool
	RiskFreeIndex   string
	// RiskFreeDelta is the scenario's short-rate shift on the risk-free
	// index, used by the NMD pass-through correction. Zero for base.
	RiskFreeDelta float64
	NMD           *domain.NMDParams
}

// Projector accrues one scenario's table into monthly income/expense
// rows. The margin set is calibrated once on the base curve and shared
// read-only across scenarios.
type Projector struct {
	set     *curves.Set
	base    *curves.Set
	margins *margins.Set
	cfg     Config
	log     zerolog.Logger
}

// New builds a projector over a scenario curve set. Renewal margins are
// benchmarked against the base set so fixed rollovers keep their
// scenario sensitivity; base may be nil for the base scenario.
func New(set, base *curves.Set, marginSet *margins.Set, cfg Config, log zerolog.Logger) *Projector {
	if cfg.HorizonMonths <= 0 {
		cfg.HorizonMonths = DefaultHorizonMonths
	}
	if base == nil {
		base = set
	}
	return &Projector{
		set:     set,
		base:    base,
		margins: marginSet,
		cfg:     cfg,
		log:     log.With().Str("component", "nii").Logger(),
	}
}

// Profile accrues the table into the monthly breakdown and returns the
// rows plus the horizon scalar. Contracts are needed for rollover and
// the NMD correction; the table alone does not carry notionals.
func (p *Projector) Profile(table domain.CashflowTable, contracts []domain.Contract) ([]domain.NIIMonthRow, float64, error) {
	h := p.cfg.HorizonMonths
	income := make([]float64, h+1)
	expense := make([]float64, h+1)

	add := func(side domain.Side, month int, amount float64) {
		if month < 1 || month > h {
			return
		}
		if side == domain.SideAsset {
			income[month] += amount
		} else {
			expense[month] += amount
		}
	}

	for i := range table {
		row := &table[i]
		add(row.Side, p.monthIndex(row.FlowDate), row.Interest)
	}

	if p.cfg.BalanceConstant {
		if err := p.rollovers(contracts, add); err != nil {
			return nil, 0, err
		}
	}
	p.nmdCorrection(contracts, add)

	analysis := p.set.AnalysisDate
	rows := make([]domain.NIIMonthRow, h)
	total := 0.0
	for m := 1; m <= h; m++ {
		net := income[m] + expense[m]
		rows[m-1] = domain.NIIMonthRow{
			MonthIndex:      m,
			MonthLabel:      analysis.AddDate(0, m-1, 0).Format("2006-01"),
			InterestIncome:  income[m],
			InterestExpense: expense[m],
			NetNII:          net,
		}
		total += net
	}
	return rows, total, nil
}

// monthIndex maps a flow date to its 1-based horizon month, where month
// m covers (analysis + (m-1) months, analysis + m months]. Dates at or
// before the analysis date return 0.
func (p *Projector) monthIndex(d time.Time) int {
	a := p.set.AnalysisDate
	if !d.After(a) {
		return 0
	}
	delta := (d.Year()-a.Year())*12 + int(d.Month()) - int(a.Month())
	if d.After(a.AddDate(0, delta, 0)) {
		delta++
	}
	return delta
}

// rollovers accrues the renewals of every bullet/linear/annuity contract
// maturing inside the horizon: the balance stays constant and the rate
// reprices cycle after cycle until the horizon end. Fixed renewals earn
// the scenario risk-free rate at the cycle maturity plus the renewal
// margin; floating renewals earn the scenario forward at the cycle start
// plus their contractual spread, floor and cap applied. Renewal interest
// is accrued into the months it covers, unpaid stubs at the horizon end
// included.
func (p *Projector) rollovers(contracts []domain.Contract, add func(domain.Side, int, float64)) error {
	analysis := p.set.AnalysisDate
	horizonEnd := analysis.AddDate(0, p.cfg.HorizonMonths, 0)

	for i := range contracts {
		c := &contracts[i]
		if !rollable(c.Type) {
			continue
		}
		if !c.MaturityDate.After(analysis) || c.MaturityDate.After(horizonEnd) {
			continue
		}
		term := c.MaturityDate.Sub(c.StartDate)
		if term <= 0 {
			continue
		}

		cycleStart := c.MaturityDate
		for cycles := 0; cycleStart.Before(horizonEnd); cycles++ {
			if cycles >= maxRolloverCycles {
				return domain.NewInvalidInput(
					"contract %s: rollover exceeds %d cycles inside the horizon",
					c.ContractID, maxRolloverCycles)
			}
			cycleEnd := cycleStart.Add(term)
			rate, err := p.renewalRate(c, cycleStart, cycleEnd)
			if err != nil {
				return err
			}
			p.accrueCycle(c, rate, cycleStart, minTime(cycleEnd, horizonEnd), add)
			cycleStart = cycleEnd
		}
	}
	return nil
}

// accrueCycle posts the cycle's interest month by month on the constant
// renewal balance.
func (p *Projector) accrueCycle(c *domain.Contract, rate float64, from, to time.Time, add func(domain.Side, int, float64)) {
	analysis := p.set.AnalysisDate
	for m := p.monthIndex(from.AddDate(0, 0, 1)); m <= p.cfg.HorizonMonths && m > 0; m++ {
		monthStart := analysis.AddDate(0, m-1, 0)
		monthEnd := analysis.AddDate(0, m, 0)
		lo := maxTime(from, monthStart)
		hi := minTime(to, monthEnd)
		if !hi.After(lo) {
			break
		}
		yf := dates.YearFraction(lo, hi, c.Daycount)
		add(c.Side, m, c.Side.Sign()*c.Notional*rate*yf)
	}
}

// renewalRate resolves the all-in rate of one renewal cycle.
func (p *Projector) renewalRate(c *domain.Contract, cycleStart, cycleEnd time.Time) (float64, error) {
	if c.RateType == domain.RateFloat {
		rate, err := p.set.RateOnDate(c.IndexName, cycleStart)
		if err != nil {
			return 0, err
		}
		rate += c.Spread
		if c.FloorRate != nil && rate < *c.FloorRate {
			rate = *c.FloorRate
		}
		if c.CapRate != nil && rate > *c.CapRate {
			rate = *c.CapRate
		}
		return rate, nil
	}
	margin, err := p.renewalMargin(c)
	if err != nil {
		return 0, err
	}
	rf, err := p.set.RateOnDate(p.cfg.RiskFreeIndex, cycleEnd)
	if err != nil {
		return 0, err
	}
	return rf + margin, nil
}

func rollable(t domain.ContractType) bool {
	switch t {
	case domain.FixedBullet, domain.FixedLinear, domain.FixedAnnuity,
		domain.VariableBullet, domain.VariableLinear, domain.VariableAnnuity:
		return true
	}
	return false
}

// renewalMargin resolves the margin of a fixed renewal from the
// calibrated set, with the contract's own originating margin as default.
func (p *Projector) renewalMargin(c *domain.Contract) (float64, error) {
	origination, err := margins.Origination(c, p.base, p.cfg.RiskFreeIndex)
	if err != nil {
		return 0, err
	}
	if p.margins == nil {
		return origination, nil
	}
	return p.margins.Lookup(margins.Query{
		RateType:      c.RateType,
		ContractType:  c.Type,
		Side:          c.Side,
		RepricingFreq: c.RepricingFreq.String(),
		IndexName:     c.IndexName,
	}, &origination)
}

// nmdCorrection accrues the pass-through repricing of fixed NMDs under a
// shocked scenario: each deposit's client rate moves by beta times the
// risk-free shift, floored at zero, and the balance accrues that move
// month by month across the horizon.
func (p *Projector) nmdCorrection(contracts []domain.Contract, add func(domain.Side, int, float64)) {
	if p.cfg.NMD == nil || p.cfg.RiskFreeDelta == 0 {
		return
	}
	beta := p.cfg.NMD.Beta()
	analysis := p.set.AnalysisDate

	for i := range contracts {
		c := &contracts[i]
		if c.Type != domain.FixedNonMaturity {
			continue
		}
		shocked := c.FixedRate + beta*p.cfg.RiskFreeDelta
		if shocked < 0 {
			shocked = 0
		}
		delta := shocked - c.FixedRate
		if delta == 0 {
			continue
		}
		for m := 1; m <= p.cfg.HorizonMonths; m++ {
			yf := dates.YearFraction(analysis.AddDate(0, m-1, 0), analysis.AddDate(0, m, 0), c.Daycount)
			add(c.Side, m, c.Side.Sign()*c.Notional*delta*yf)
		}
	}
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
