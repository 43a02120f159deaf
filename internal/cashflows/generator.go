// Package cashflows is the projection heart of the engine: it turns
// canonical positions into the signed cashflow table of one curve set.
// Eight contractual shapes (bullet, linear, annuity, scheduled - each
// fixed and floating) share a reset-schedule helper and the
// current-coupon stub rule; behavioural overlays run on the per-contract
// flows before signs are applied.
package cashflows

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/riskfolio/irrbb/internal/behaviour"
	"github.com/riskfolio/irrbb/internal/curves"
	"github.com/riskfolio/irrbb/internal/domain"
)

// Config carries the projection options recognised by the generator.
type Config struct {
	CPRAnnual   float64
	TDRRAnnual  float64
	NMD         *domain.NMDParams
	AnnuityMode domain.AnnuityPaymentMode // defaults to reprice-on-reset
}

// Generator projects contracts against one curve set. Generators are
// cheap; workers build one per scenario task.
type Generator struct {
	set *curves.Set
	cfg Config
	log zerolog.Logger
}

// New creates a generator over a curve set.
func New(set *curves.Set, cfg Config, log zerolog.Logger) *Generator {
	return &Generator{set: set, cfg: cfg, log: log.With().Str("component", "cashflows").Logger()}
}

// Table projects every position and returns the sorted signed cashflow
// table plus the silent-exclusion counts. Missing projection curves fail
// eagerly before any contract is projected.
func (g *Generator) Table(contracts []domain.Contract, flows map[string][]domain.ScheduledFlow) (domain.CashflowTable, domain.ExclusionCounts, error) {
	analysis := g.set.AnalysisDate
	projectable, fixedNMDs, excl := behaviour.Prepare(contracts, g.cfg.NMD, analysis)

	indices := make([]string, 0, len(projectable))
	for i := range projectable {
		if projectable[i].RateType == domain.RateFloat {
			indices = append(indices, projectable[i].IndexName)
		}
	}
	if err := g.set.RequireIndices(indices); err != nil {
		return nil, excl, err
	}

	var table domain.CashflowTable
	for i := range projectable {
		c := &projectable[i]
		entries, err := g.Project(c, flows[c.ContractID])
		if err != nil {
			return nil, excl, err
		}
		table = appendSigned(table, c, entries)
	}
	for i := range fixedNMDs {
		c := &fixedNMDs[i]
		entries := behaviour.ExpandNMD(c, g.cfg.NMD, analysis)
		table = appendSigned(table, c, entries)
	}

	table.Sort()
	g.log.Debug().
		Int("contracts", len(contracts)).
		Int("rows", len(table)).
		Int("static_excluded", excl.StaticPositions).
		Int("nmd_excluded", excl.NMDsWithoutParams).
		Msg("cashflow table built")
	return table, excl, nil
}

// Project generates the unsigned flow entries of a single projectable
// contract, behavioural decay included. Contracts already matured at the
// analysis date produce nothing.
func (g *Generator) Project(c *domain.Contract, sched []domain.ScheduledFlow) ([]behaviour.Entry, error) {
	analysis := g.set.AnalysisDate
	if !c.MaturityDate.After(analysis) {
		return nil, nil
	}

	m, err := g.dispatch(c, sched)
	if err != nil {
		return nil, err
	}
	entries := m.entries()

	decay := behaviour.DecayRate(c, g.cfg.CPRAnnual, g.cfg.TDRRAnnual)
	if decay > 0 {
		entries = behaviour.ApplyPrepayment(entries, c.Notional, decay, c.Daycount.Base(), analysis)
	}
	return entries, nil
}

// dispatch routes a contract to its shape generator.
func (g *Generator) dispatch(c *domain.Contract, sched []domain.ScheduledFlow) (flowMap, error) {
	fixed := func(time.Time) float64 { return c.FixedRate }

	switch c.Type {
	case domain.FixedBullet:
		return g.bullet(c, fixed, nil)
	case domain.FixedLinear:
		return g.linear(c, fixed, nil)
	case domain.FixedAnnuity:
		return g.annuity(c, fixed, nil, domain.RepriceOnReset)
	case domain.FixedScheduled:
		return g.scheduled(c, fixed, nil, sched)
	case domain.VariableBullet, domain.VariableLinear, domain.VariableAnnuity, domain.VariableScheduled:
		accrualStart := maxTime(c.StartDate, g.set.AnalysisDate)
		r, resets, err := newRater(c, g.set, accrualStart, c.MaturityDate)
		if err != nil {
			return nil, err
		}
		switch c.Type {
		case domain.VariableBullet:
			return g.bullet(c, r.rateAt, resets)
		case domain.VariableLinear:
			return g.linear(c, r.rateAt, resets)
		case domain.VariableAnnuity:
			mode := c.AnnuityPaymentMode
			if mode == "" {
				mode = g.cfg.AnnuityMode
			}
			if mode == "" {
				mode = domain.RepriceOnReset
			}
			return g.annuity(c, r.rateAt, resets, mode)
		default:
			return g.scheduled(c, r.rateAt, resets, sched)
		}
	}
	return nil, domain.NewInvalidInput("contract %s: type %q is not projectable", c.ContractID, c.Type)
}

// appendSigned applies the side sign and appends a contract's entries to
// the table. Total = interest + principal is what EVE discounts.
func appendSigned(table domain.CashflowTable, c *domain.Contract, entries []behaviour.Entry) domain.CashflowTable {
	sign := c.Side.Sign()
	for _, e := range entries {
		if e.Interest == 0 && e.Principal == 0 {
			continue
		}
		interest := sign * e.Interest
		principal := sign * e.Principal
		table = append(table, domain.Cashflow{
			ContractID: c.ContractID,
			Type:       c.Type,
			RateType:   c.RateType,
			Side:       c.Side,
			IndexName:  c.IndexName,
			FlowDate:   e.Date,
			Interest:   interest,
			Principal:  principal,
			Total:      interest + principal,
		})
	}
	return table
}
