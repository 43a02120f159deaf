package orchestrator

import (
	"context"
	"sort"

	"github.com/riskfolio/irrbb/internal/domain"
	"github.com/riskfolio/irrbb/internal/margins"
	"github.com/riskfolio/irrbb/internal/whatif"
)

// Modification describes a What-If: hypothetical loans to add and
// existing balance to remove, by contract id or whole subcategory.
type Modification struct {
	Additions         []whatif.LoanSpec
	RemoveContracts   []string
	RemoveSubcategory string
}

func (m *Modification) empty() bool {
	return len(m.Additions) == 0 && len(m.RemoveContracts) == 0 && m.RemoveSubcategory == ""
}

// WhatIf computes the signed deltas of a modification against the
// portfolio: calculation(additions) minus calculation(removals), bucket-
// and scenario-aligned. Renewal margins are calibrated once from the
// full portfolio so both legs roll at the same margins. An empty
// modification returns zeros.
func (o *Orchestrator) WhatIf(ctx context.Context, portfolio []domain.Contract, flows []domain.ScheduledFlow, mod Modification) (*domain.WhatIfResult, error) {
	out := &domain.WhatIfResult{
		ScenarioEVEDeltas: map[string]float64{},
		ScenarioNIIDeltas: map[string]float64{},
	}
	if mod.empty() {
		return out, nil
	}

	additions, err := o.additions(mod)
	if err != nil {
		return nil, err
	}
	removals := removalSet(portfolio, mod)

	grouped := domain.GroupScheduledFlows(flows)
	marginSet, err := margins.Calibrate(portfolio, o.base, o.cfg.RiskFreeIndex, o.cfg.MarginLookbackMonths)
	if err != nil {
		return nil, err
	}

	addRes, err := o.calculate(ctx, additions, grouped, marginSet)
	if err != nil {
		return nil, err
	}
	remRes, err := o.calculate(ctx, removals, grouped, marginSet)
	if err != nil {
		return nil, err
	}

	out.BaseEVEDelta = addRes.Base.EVE - remRes.Base.EVE
	out.BaseNIIDelta = addRes.Base.NII - remRes.Base.NII

	ids := make([]string, 0, len(addRes.Scenarios))
	for id := range addRes.Scenarios {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	first := true
	for _, id := range ids {
		add := addRes.Scenarios[id]
		rem := remRes.Scenarios[id]
		eveDelta := add.EVE - rem.EVE
		niiDelta := add.NII - rem.NII
		out.ScenarioEVEDeltas[id] = eveDelta
		out.ScenarioNIIDeltas[id] = niiDelta
		if first || eveDelta < out.WorstEVEDelta {
			out.WorstEVEDelta = eveDelta
		}
		if first || niiDelta < out.WorstNIIDelta {
			out.WorstNIIDelta = niiDelta
		}
		first = false

		out.EVEBucketDeltas = append(out.EVEBucketDeltas, bucketDeltas(id, add, rem)...)
		out.NIIMonthDeltas = append(out.NIIMonthDeltas, monthDeltas(id, add, rem)...)
	}
	return out, nil
}

// additions decomposes every hypothetical loan of the modification.
func (o *Orchestrator) additions(mod Modification) ([]domain.Contract, error) {
	var rows []domain.Contract
	for i := range mod.Additions {
		legs, err := whatif.Decompose(&mod.Additions[i], o.base.AnalysisDate)
		if err != nil {
			return nil, err
		}
		rows = append(rows, legs...)
	}
	return rows, nil
}

// removalSet selects the existing balance named by the modification.
func removalSet(portfolio []domain.Contract, mod Modification) []domain.Contract {
	ids := make(map[string]bool, len(mod.RemoveContracts))
	for _, id := range mod.RemoveContracts {
		ids[id] = true
	}
	var out []domain.Contract
	for i := range portfolio {
		c := portfolio[i]
		if ids[c.ContractID] || (mod.RemoveSubcategory != "" && c.Subcategory == mod.RemoveSubcategory) {
			out = append(out, c)
		}
	}
	return out
}

// bucketDeltas diffs the two legs' EVE breakdowns, asset and liability
// side by side.
func bucketDeltas(scenario string, add, rem domain.ScenarioResult) []domain.WhatIfBucketDelta {
	type pv struct{ asset, liability float64 }
	byBucket := map[string]*pv{}
	starts := map[string]float64{}
	var order []string

	accumulate := func(rows []domain.EVEBucketRow, sign float64) {
		for _, r := range rows {
			cell, ok := byBucket[r.BucketName]
			if !ok {
				cell = &pv{}
				byBucket[r.BucketName] = cell
				starts[r.BucketName] = r.BucketStartYears
				order = append(order, r.BucketName)
			}
			switch r.SideGroup {
			case domain.GroupAsset:
				cell.asset += sign * r.PVTotal
			case domain.GroupLiability:
				cell.liability += sign * r.PVTotal
			}
		}
	}
	accumulate(add.EVEBuckets, 1)
	accumulate(rem.EVEBuckets, -1)

	out := make([]domain.WhatIfBucketDelta, 0, len(order))
	for _, name := range order {
		out = append(out, domain.WhatIfBucketDelta{
			Scenario:         scenario,
			BucketName:       name,
			BucketStartYears: starts[name],
			AssetPVDelta:     byBucket[name].asset,
			LiabilityPVDelta: byBucket[name].liability,
		})
	}
	return out
}

// monthDeltas diffs the two legs' monthly NII profiles.
func monthDeltas(scenario string, add, rem domain.ScenarioResult) []domain.WhatIfMonthDelta {
	remByMonth := make(map[int]domain.NIIMonthRow, len(rem.NIIMonthly))
	for _, r := range rem.NIIMonthly {
		remByMonth[r.MonthIndex] = r
	}
	out := make([]domain.WhatIfMonthDelta, 0, len(add.NIIMonthly))
	for _, a := range add.NIIMonthly {
		r := remByMonth[a.MonthIndex]
		out = append(out, domain.WhatIfMonthDelta{
			Scenario:     scenario,
			MonthIndex:   a.MonthIndex,
			MonthLabel:   a.MonthLabel,
			IncomeDelta:  a.InterestIncome - r.InterestIncome,
			ExpenseDelta: a.InterestExpense - r.InterestExpense,
		})
	}
	return out
}
