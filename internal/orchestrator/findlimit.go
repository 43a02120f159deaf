package orchestrator

import (
	"context"

	"github.com/riskfolio/irrbb/internal/domain"
	"github.com/riskfolio/irrbb/internal/findlimit"
	"github.com/riskfolio/irrbb/internal/margins"
	"github.com/riskfolio/irrbb/internal/scenarios"
	"github.com/riskfolio/irrbb/internal/whatif"
)

// TargetMetric selects which scalar the find-limit search drives.
type TargetMetric string

const (
	MetricEVE TargetMetric = "eve"
	MetricNII TargetMetric = "nii"
)

// FindLimit searches for the loan parameter that brings the portfolio's
// metric under the target scenario to the limit. Each probe runs the
// portfolio plus the decomposed candidate through the single-scenario
// calculation path.
func (o *Orchestrator) FindLimit(ctx context.Context, portfolio []domain.Contract, flows []domain.ScheduledFlow, template *whatif.LoanSpec, variable findlimit.Variable, scenario scenarios.Scenario, metric TargetMetric, limit float64, opts findlimit.Options) (domain.FindLimitResult, error) {
	if metric != MetricEVE && metric != MetricNII {
		return domain.FindLimitResult{}, domain.NewInvalidInput("unknown find-limit metric %q", string(metric))
	}
	if _, err := scenarios.Parse(string(scenario)); err != nil {
		return domain.FindLimitResult{}, err
	}

	grouped := domain.GroupScheduledFlows(flows)
	if err := domain.ValidatePortfolio(portfolio, grouped); err != nil {
		return domain.FindLimitResult{}, err
	}
	marginSet, err := margins.Calibrate(portfolio, o.base, o.cfg.RiskFreeIndex, o.cfg.MarginLookbackMonths)
	if err != nil {
		return domain.FindLimitResult{}, err
	}

	single := *o
	single.cfg.ScenarioIDs = []scenarios.Scenario{scenario}

	evaluate := func(spec *whatif.LoanSpec) (float64, error) {
		combined := portfolio
		if spec != nil {
			legs, err := whatif.Decompose(spec, o.base.AnalysisDate)
			if err != nil {
				return 0, err
			}
			combined = make([]domain.Contract, 0, len(portfolio)+len(legs))
			combined = append(combined, portfolio...)
			combined = append(combined, legs...)
		}
		res, err := single.calculate(ctx, combined, grouped, marginSet)
		if err != nil {
			return 0, err
		}
		target := res.Base
		if scenario != scenarios.Base {
			target = res.Scenarios[string(scenario)]
		}
		if metric == MetricNII {
			return target.NII, nil
		}
		return target.EVE, nil
	}

	baseMetric, err := evaluate(nil)
	if err != nil {
		return domain.FindLimitResult{}, err
	}
	solver := findlimit.New(evaluate, o.log)
	return solver.Solve(template, variable, baseMetric, limit, opts)
}
