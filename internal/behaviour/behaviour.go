// Package behaviour implements the behavioural overlays that sit between
// contractual projection and the cashflow table: non-maturity-deposit
// core/non-core expansion, the synthetic maturity of variable NMDs, and
// the CPR/TDRR prepayment decay.
package behaviour

import (
	"math"
	"time"

	"github.com/riskfolio/irrbb/internal/domain"
)

// SyntheticNMDMaturityYears is the synthetic maturity assigned to
// variable NMDs so they flow through the normal variable-rate engine.
// Their EVE sensitivity is driven by the repricing frequency, not by this
// horizon.
const SyntheticNMDMaturityYears = 30

// Entry is one unsigned projected flow of a single contract. The driver
// applies the side sign when appending to the cashflow table.
type Entry struct {
	Date      time.Time
	Interest  float64
	Principal float64
}

// Prepare splits raw positions into projectable contracts and fixed NMDs
// awaiting behavioural expansion, counting silent exclusions. Variable
// NMDs are rewritten to variable bullets with the synthetic maturity;
// static positions are skipped; fixed NMDs without parameters are
// skipped.
func Prepare(contracts []domain.Contract, nmd *domain.NMDParams, analysis time.Time) (projectable, fixedNMDs []domain.Contract, excl domain.ExclusionCounts) {
	for _, c := range contracts {
		switch c.Type {
		case domain.StaticPosition:
			excl.StaticPositions++
		case domain.FixedNonMaturity:
			if nmd == nil {
				excl.NMDsWithoutParams++
				continue
			}
			fixedNMDs = append(fixedNMDs, c)
		case domain.VariableNonMaturity:
			rewritten := c
			rewritten.Type = domain.VariableBullet
			rewritten.RateType = domain.RateFloat
			rewritten.MaturityDate = analysis.AddDate(SyntheticNMDMaturityYears, 0, 0)
			projectable = append(projectable, rewritten)
		default:
			projectable = append(projectable, c)
		}
	}
	return projectable, fixedNMDs, excl
}

// ExpandNMD expands a fixed NMD into its behavioural principal schedule:
// the non-core share one day after the analysis date and the core share
// at the EBA bucket midpoints, all at zero interest.
func ExpandNMD(c *domain.Contract, params *domain.NMDParams, analysis time.Time) []Entry {
	core := params.CoreProportion / 100.0
	entries := make([]Entry, 0, 1+len(params.Distribution))

	nonCore := c.Notional * (1 - core)
	if nonCore != 0 {
		entries = append(entries, Entry{
			Date:      analysis.AddDate(0, 0, 1),
			Principal: nonCore,
		})
	}
	for _, bucket := range domain.EBABuckets {
		pct, ok := params.Distribution[bucket.Name]
		if !ok || pct == 0 {
			continue
		}
		days := int(math.Round(bucket.MidYears * 365.25))
		entries = append(entries, Entry{
			Date:      analysis.AddDate(0, 0, days),
			Principal: c.Notional * pct / 100.0,
		})
	}
	return entries
}

// DecayRate routes the behavioural decay rate of a contract: CPR for
// assets, TDRR for term-deposit liabilities, nothing for any other
// liability.
func DecayRate(c *domain.Contract, cprAnnual, tdrrAnnual float64) float64 {
	if c.Side == domain.SideAsset {
		return cprAnnual
	}
	if c.IsTermDeposit {
		return tdrrAnnual
	}
	return 0
}

// ApplyPrepayment applies the dual-schedule prepayment decay to a
// contract's ordered flow entries. DRm (behavioural) and DRc
// (contractual) balances both start at the outstanding notional; each
// period the contractual amortisation rate is topped up by the period
// prepayment rate, capped at one, and behavioural interest is scaled by
// the surviving balance ratio. Total behavioural principal still sums to
// the notional.
func ApplyPrepayment(entries []Entry, notional, annualRate, base float64, analysis time.Time) []Entry {
	if annualRate <= 0 || notional == 0 || len(entries) == 0 {
		return entries
	}
	out := make([]Entry, len(entries))
	drm := notional // behavioural balance
	drc := notional // contractual balance
	prev := analysis
	for i, e := range entries {
		days := e.Date.Sub(prev).Hours() / 24.0
		periodRate := 1 - math.Pow(1-annualRate, days/base)
		prev = e.Date

		interest := e.Interest
		principal := e.Principal
		if drc > 1e-10 {
			amortRate := principal / drc
			combined := math.Min(1, amortRate+periodRate)
			survival := drm / drc
			principal = drm * combined
			interest = e.Interest * survival
		} else {
			principal = 0
			interest = 0
		}
		out[i] = Entry{Date: e.Date, Interest: interest, Principal: principal}

		drc -= e.Principal
		drm -= principal
		if drc < 1e-10 {
			drc = 0
		}
		if drm < 1e-10 {
			drm = 0
		}
	}
	// Residual behavioural balance from rounding is absorbed by the last
	// flow so principal still sums to the notional.
	if drm > 1e-10 {
		out[len(out)-1].Principal += drm
	}
	return out
}
