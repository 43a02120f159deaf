// Package orchestrator fans a calculation out over the scenario catalog:
// one worker per shocked curve set builds cashflows, EVE and NII on the
// same set, and the reduction keeps the worst scenario and the bucketed
// breakdowns. What-If and find-limit are expressed on top of the same
// calculation path.
package orchestrator

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/riskfolio/irrbb/internal/cashflows"
	"github.com/riskfolio/irrbb/internal/curves"
	"github.com/riskfolio/irrbb/internal/domain"
	"github.com/riskfolio/irrbb/internal/eve"
	"github.com/riskfolio/irrbb/internal/margins"
	"github.com/riskfolio/irrbb/internal/nii"
	"github.com/riskfolio/irrbb/internal/scenarios"
	"github.com/riskfolio/irrbb/internal/utils"
)

// shortRateTenorYears is where the risk-free shift is sampled for the
// NMD pass-through correction.
const shortRateTenorYears = 0.25

// Config carries one calculation's parameters.
type Config struct {
	Currency      string
	DiscountIndex string
	RiskFreeIndex string
	// ScenarioIDs defaults to the regulatory EVE catalog. The base
	// scenario is always included.
	ScenarioIDs          []scenarios.Scenario
	HorizonMonths        int
	BalanceConstant      bool
	CPRAnnual            float64
	TDRRAnnual           float64
	NMD                  *domain.NMDParams
	AnnuityMode          domain.AnnuityPaymentMode
	MarginLookbackMonths int
	Workers              int
}

// Orchestrator runs calculations against one base curve set.
type Orchestrator struct {
	base *curves.Set
	cfg  Config
	log  zerolog.Logger
}

// New builds an orchestrator. The base set's analysis date anchors every
// projection.
func New(base *curves.Set, cfg Config, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{base: base, cfg: cfg, log: log.With().Str("component", "orchestrator").Logger()}
}

// Calculate validates the portfolio, calibrates the renewal margins on
// the base curve and runs every scenario. All worker failures are
// aggregated; no partial result accompanies an error.
func (o *Orchestrator) Calculate(ctx context.Context, contracts []domain.Contract, flows []domain.ScheduledFlow) (*domain.CalculationResult, error) {
	grouped := domain.GroupScheduledFlows(flows)
	if err := domain.ValidatePortfolio(contracts, grouped); err != nil {
		return nil, err
	}
	marginSet, err := margins.Calibrate(contracts, o.base, o.cfg.RiskFreeIndex, o.cfg.MarginLookbackMonths)
	if err != nil {
		return nil, err
	}
	return o.calculate(ctx, contracts, grouped, marginSet)
}

func (o *Orchestrator) calculate(ctx context.Context, contracts []domain.Contract, flows map[string][]domain.ScheduledFlow, marginSet *margins.Set) (*domain.CalculationResult, error) {
	timer := utils.NewTimer("calculate", o.log)
	defer timer.Stop()

	ids := o.scenarioIDs()
	sets, err := scenarios.BuildSets(o.base, ids, o.cfg.Currency, o.cfg.RiskFreeIndex)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		result     domain.ScenarioResult
		exclusions domain.ExclusionCounts
		err        error
		id         scenarios.Scenario
	}

	tasks := make(chan scenarios.Scenario, len(ids))
	outcomes := make(chan outcome, len(ids))
	workers := workerCount(o.cfg.Workers)
	if workers > len(ids) {
		workers = len(ids)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range tasks {
				if ctx.Err() != nil {
					outcomes <- outcome{id: id, err: ctx.Err()}
					continue
				}
				res, excl, err := o.runScenario(id, sets[id], contracts, flows, marginSet)
				outcomes <- outcome{result: res, exclusions: excl, err: err, id: id}
			}
		}()
	}
	for _, id := range ids {
		tasks <- id
	}
	close(tasks)
	wg.Wait()
	close(outcomes)

	out := &domain.CalculationResult{Scenarios: make(map[string]domain.ScenarioResult, len(ids))}
	var failures []domain.WorkerError
	for oc := range outcomes {
		if oc.err != nil {
			failures = append(failures, domain.WorkerError{ScenarioID: string(oc.id), Err: oc.err})
			continue
		}
		if oc.id == scenarios.Base {
			out.Base = oc.result
			out.Exclusions = oc.exclusions
		} else {
			out.Scenarios[string(oc.id)] = oc.result
		}
	}
	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].ScenarioID < failures[j].ScenarioID })
		return nil, domain.NewWorkerAggregated(failures)
	}

	out.WorstScenario, out.WorstDeltaEVE = worst(out.Base.EVE, out.Scenarios)
	o.log.Info().
		Int("scenarios", len(out.Scenarios)).
		Float64("base_eve", out.Base.EVE).
		Str("worst_scenario", out.WorstScenario).
		Float64("worst_delta_eve", out.WorstDeltaEVE).
		Msg("calculation complete")
	return out, nil
}

// runScenario builds the cashflow table, EVE and NII of one scenario on
// its curve set. Projection is strictly sequential inside the worker.
func (o *Orchestrator) runScenario(id scenarios.Scenario, set *curves.Set, contracts []domain.Contract, flows map[string][]domain.ScheduledFlow, marginSet *margins.Set) (domain.ScenarioResult, domain.ExclusionCounts, error) {
	gen := cashflows.New(set, cashflows.Config{
		CPRAnnual:   o.cfg.CPRAnnual,
		TDRRAnnual:  o.cfg.TDRRAnnual,
		NMD:         o.cfg.NMD,
		AnnuityMode: o.cfg.AnnuityMode,
	}, o.log)
	table, excl, err := gen.Table(contracts, flows)
	if err != nil {
		return domain.ScenarioResult{}, excl, err
	}

	valuer, err := eve.New(set, o.cfg.DiscountIndex, o.log)
	if err != nil {
		return domain.ScenarioResult{}, excl, err
	}
	eveValue := valuer.Value(table)
	buckets := valuer.Breakdown(table, domain.RegulatoryEVEBuckets)

	delta, err := o.riskFreeDelta(set)
	if err != nil {
		return domain.ScenarioResult{}, excl, err
	}
	projector := nii.New(set, o.base, marginSet, nii.Config{
		HorizonMonths:   o.cfg.HorizonMonths,
		BalanceConstant: o.cfg.BalanceConstant,
		RiskFreeIndex:   o.cfg.RiskFreeIndex,
		RiskFreeDelta:   delta,
		NMD:             o.cfg.NMD,
	}, o.log)
	monthly, niiValue, err := projector.Profile(table, contracts)
	if err != nil {
		return domain.ScenarioResult{}, excl, err
	}

	return domain.ScenarioResult{
		ScenarioID: string(id),
		EVE:        eveValue,
		NII:        niiValue,
		EVEBuckets: buckets,
		NIIMonthly: monthly,
	}, excl, nil
}

// riskFreeDelta samples the scenario's shift of the risk-free index at
// the short tenor.
func (o *Orchestrator) riskFreeDelta(set *curves.Set) (float64, error) {
	if set == o.base {
		return 0, nil
	}
	shocked, err := set.Curve(o.cfg.RiskFreeIndex)
	if err != nil {
		return 0, err
	}
	base, err := o.base.Curve(o.cfg.RiskFreeIndex)
	if err != nil {
		return 0, err
	}
	return shocked.Rate(shortRateTenorYears) - base.Rate(shortRateTenorYears), nil
}

// scenarioIDs resolves the run list with the base scenario always first.
func (o *Orchestrator) scenarioIDs() []scenarios.Scenario {
	requested := o.cfg.ScenarioIDs
	if len(requested) == 0 {
		requested = scenarios.EVEScenarios
	}
	ids := make([]scenarios.Scenario, 0, len(requested)+1)
	ids = append(ids, scenarios.Base)
	for _, id := range requested {
		if id != scenarios.Base {
			ids = append(ids, id)
		}
	}
	return ids
}

// worst returns the scenario minimising EVE(s) - EVE(base). Empty when
// only the base scenario ran.
func worst(baseEVE float64, results map[string]domain.ScenarioResult) (string, float64) {
	worstID := ""
	worstDelta := 0.0
	first := true
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		delta := results[id].EVE - baseEVE
		if first || delta < worstDelta {
			worstID, worstDelta, first = id, delta, false
		}
	}
	return worstID, worstDelta
}
