package nii

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskfolio/irrbb/internal/cashflows"
	"github.com/riskfolio/irrbb/internal/curves"
	"github.com/riskfolio/irrbb/internal/dates"
	"github.com/riskfolio/irrbb/internal/domain"
)

var analysis = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func flatSet(t *testing.T, rate float64) *curves.Set {
	t.Helper()
	curve, err := curves.NewForwardCurve([]curves.Sample{{T: 0.01, Rate: rate}, {T: 40, Rate: rate}})
	require.NoError(t, err)
	return curves.NewSet(analysis, dates.Act365,
		map[string]*curves.ForwardCurve{"ESTR": curve})
}

func buildTable(t *testing.T, set *curves.Set, contracts []domain.Contract) domain.CashflowTable {
	t.Helper()
	table, _, err := cashflows.New(set, cashflows.Config{}, zerolog.Nop()).Table(contracts, nil)
	require.NoError(t, err)
	return table
}

func TestMonthIndex(t *testing.T) {
	p := New(flatSet(t, 0.02), nil, nil, Config{}, zerolog.Nop())

	assert.Equal(t, 0, p.monthIndex(analysis))
	assert.Equal(t, 0, p.monthIndex(d(2025, 12, 31)))
	assert.Equal(t, 1, p.monthIndex(d(2026, 1, 2)))
	assert.Equal(t, 1, p.monthIndex(d(2026, 2, 1)))
	assert.Equal(t, 2, p.monthIndex(d(2026, 2, 2)))
	assert.Equal(t, 12, p.monthIndex(d(2027, 1, 1)))
	assert.Equal(t, 13, p.monthIndex(d(2027, 1, 2)))
}

func TestProfileFixedBullet(t *testing.T) {
	set := flatSet(t, 0.02)
	contracts := []domain.Contract{{
		ContractID: "A1", Side: domain.SideAsset,
		StartDate: d(2025, 1, 1), MaturityDate: d(2028, 1, 1),
		Notional: 100, Daycount: dates.Act360,
		Type: domain.FixedBullet, RateType: domain.RateFixed,
		FixedRate:   0.05,
		PaymentFreq: dates.Frequency{Count: 1, Unit: dates.UnitYear},
	}}
	table := buildTable(t, set, contracts)

	p := New(set, nil, nil, Config{RiskFreeIndex: "ESTR"}, zerolog.Nop())
	rows, total, err := p.Profile(table, contracts)
	require.NoError(t, err)
	require.Len(t, rows, 12)

	// the 2027-01-01 coupon lands in month 12; nothing else accrues
	assert.InDelta(t, 100*0.05*365.0/360.0, total, 1e-9)
	assert.InDelta(t, total, rows[11].InterestIncome, 1e-9)
	for _, r := range rows[:11] {
		assert.Zero(t, r.NetNII, "month %d", r.MonthIndex)
	}
	assert.Equal(t, "2026-01", rows[0].MonthLabel)
	assert.Equal(t, "2026-12", rows[11].MonthLabel)
}

func TestRolloverScenarioOrdering(t *testing.T) {
	contracts := []domain.Contract{{
		ContractID: "A1", Side: domain.SideAsset,
		StartDate: d(2025, 1, 1), MaturityDate: d(2026, 4, 1),
		Notional: 100, Daycount: dates.Act360,
		Type: domain.FixedBullet, RateType: domain.RateFixed, FixedRate: 0.05,
	}}
	base := flatSet(t, 0.02)

	run := func(set *curves.Set) float64 {
		table := buildTable(t, set, contracts)
		p := New(set, base, nil, Config{BalanceConstant: true, RiskFreeIndex: "ESTR"}, zerolog.Nop())
		_, total, err := p.Profile(table, contracts)
		require.NoError(t, err)
		return total
	}

	niiBase := run(base)
	niiUp := run(flatSet(t, 0.04))
	niiDown := run(flatSet(t, 0.005))

	// origination margin over the base curve is 3%; the base renewal
	// reprices to 2% + 3% = the original coupon, so the whole year
	// accrues at 5%
	assert.InDelta(t, 100*0.05*365.0/360.0, niiBase, 1e-6)
	assert.InDelta(t, 1.25+100*0.07*275.0/360.0, niiUp, 1e-6)
	assert.InDelta(t, 1.25+100*0.035*275.0/360.0, niiDown, 1e-6)

	assert.Greater(t, niiUp, niiBase)
	assert.Greater(t, niiBase, niiDown)
}

func TestRolloverRepeatsCycles(t *testing.T) {
	contracts := []domain.Contract{{
		ContractID: "TD", Side: domain.SideLiability,
		StartDate: d(2025, 11, 1), MaturityDate: d(2026, 2, 1),
		Notional: 1000, Daycount: dates.Act360,
		Type: domain.FixedBullet, RateType: domain.RateFixed, FixedRate: 0.03,
	}}
	set := flatSet(t, 0.02)
	table := buildTable(t, set, contracts)

	p := New(set, set, nil, Config{BalanceConstant: true, RiskFreeIndex: "ESTR"}, zerolog.Nop())
	rows, total, err := p.Profile(table, contracts)
	require.NoError(t, err)

	// the deposit renews cycle after cycle, so every month carries
	// expense: month 1 from the maturing coupon, the rest from renewals
	for _, r := range rows {
		assert.Negative(t, r.InterestExpense, "month %d", r.MonthIndex)
		assert.Zero(t, r.InterestIncome)
	}
	assert.Negative(t, total)
}

func TestFloatingRolloverFollowsForwards(t *testing.T) {
	contracts := []domain.Contract{{
		ContractID: "F1", Side: domain.SideAsset,
		StartDate: d(2025, 7, 1), MaturityDate: d(2026, 7, 1),
		Notional: 100, Daycount: dates.Act360,
		Type: domain.VariableBullet, RateType: domain.RateFloat,
		FixedRate: 0.02, IndexName: "ESTR", Spread: 0.01,
		RepricingFreq:   dates.Frequency{Count: 12, Unit: dates.UnitMonth},
		NextRepriceDate: d(2026, 7, 1),
	}}

	run := func(rate float64) float64 {
		set := flatSet(t, rate)
		table := buildTable(t, set, contracts)
		p := New(set, flatSet(t, 0.02), nil, Config{BalanceConstant: true, RiskFreeIndex: "ESTR"}, zerolog.Nop())
		_, total, err := p.Profile(table, contracts)
		require.NoError(t, err)
		return total
	}

	// the renewal accrues index + spread from 2026-07-01 on
	assert.Greater(t, run(0.04), run(0.02))
}

func TestNMDBetaCorrection(t *testing.T) {
	set := flatSet(t, 0.02)
	params := &domain.NMDParams{CoreProportion: 0, PassThroughRate: 5}
	contracts := []domain.Contract{{
		ContractID: "NMD1", Side: domain.SideLiability,
		StartDate: d(2020, 1, 1), Notional: 1000000, Daycount: dates.Act365,
		Type: domain.FixedNonMaturity, RateType: domain.RateFixed, FixedRate: 0,
	}}

	t.Run("shocked up", func(t *testing.T) {
		p := New(set, nil, nil, Config{RiskFreeIndex: "ESTR", RiskFreeDelta: 0.02, NMD: params}, zerolog.Nop())
		rows, total, err := p.Profile(nil, contracts)
		require.NoError(t, err)

		// 1M balance repricing by beta 5% of +200 bp over one year
		assert.InDelta(t, -1000, total, 50)
		for _, r := range rows {
			assert.Negative(t, r.InterestExpense)
		}
	})

	t.Run("client rate floored at zero", func(t *testing.T) {
		p := New(set, nil, nil, Config{RiskFreeIndex: "ESTR", RiskFreeDelta: -0.02, NMD: params}, zerolog.Nop())
		_, total, err := p.Profile(nil, contracts)
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("base scenario untouched", func(t *testing.T) {
		p := New(set, nil, nil, Config{RiskFreeIndex: "ESTR", NMD: params}, zerolog.Nop())
		_, total, err := p.Profile(nil, contracts)
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}
