package behaviour

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskfolio/irrbb/internal/dates"
	"github.com/riskfolio/irrbb/internal/domain"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

var analysis = d(2026, 1, 1)

func TestPrepare(t *testing.T) {
	contracts := []domain.Contract{
		{ContractID: "loan", Type: domain.FixedBullet, Side: domain.SideAsset},
		{ContractID: "static", Type: domain.StaticPosition, Side: domain.SideAsset},
		{ContractID: "sight", Type: domain.FixedNonMaturity, Side: domain.SideLiability},
		{ContractID: "vnmd", Type: domain.VariableNonMaturity, Side: domain.SideLiability,
			StartDate: d(2020, 1, 1), IndexName: "ESTR",
			RepricingFreq: dates.Frequency{Count: 3, Unit: dates.UnitMonth}},
	}

	t.Run("without nmd params", func(t *testing.T) {
		projectable, nmds, excl := Prepare(contracts, nil, analysis)
		require.Len(t, projectable, 2)
		assert.Empty(t, nmds)
		assert.Equal(t, 1, excl.StaticPositions)
		assert.Equal(t, 1, excl.NMDsWithoutParams)

		// variable NMD rewritten to a 30y synthetic bullet
		vnmd := projectable[1]
		assert.Equal(t, domain.VariableBullet, vnmd.Type)
		assert.Equal(t, domain.RateFloat, vnmd.RateType)
		assert.Equal(t, analysis.AddDate(30, 0, 0), vnmd.MaturityDate)
	})

	t.Run("with nmd params", func(t *testing.T) {
		params := &domain.NMDParams{CoreProportion: 50, Distribution: map[string]float64{"5Y_6Y": 50}}
		projectable, nmds, excl := Prepare(contracts, params, analysis)
		assert.Len(t, projectable, 2)
		require.Len(t, nmds, 1)
		assert.Equal(t, "sight", nmds[0].ContractID)
		assert.Equal(t, 0, excl.NMDsWithoutParams)
	})
}

func TestExpandNMD(t *testing.T) {
	params := &domain.NMDParams{
		CoreProportion:  60,
		PassThroughRate: 25,
		Distribution:    map[string]float64{"1M_3M": 20, "5Y_6Y": 40},
	}
	require.NoError(t, params.Validate())

	c := &domain.Contract{ContractID: "sight", Side: domain.SideLiability, Notional: 1000,
		Type: domain.FixedNonMaturity}
	entries := ExpandNMD(c, params, analysis)
	require.Len(t, entries, 3)

	// non-core at analysis + 1 day
	assert.Equal(t, analysis.AddDate(0, 0, 1), entries[0].Date)
	assert.InDelta(t, 400, entries[0].Principal, 1e-9)
	assert.Zero(t, entries[0].Interest)

	// core slices at bucket midpoints, ordered by the EBA grid
	assert.InDelta(t, 200, entries[1].Principal, 1e-9)
	assert.Equal(t, analysis.AddDate(0, 0, 61), entries[1].Date) // 2/12y ~ 61 days
	assert.InDelta(t, 400, entries[2].Principal, 1e-9)

	// expansion preserves the balance
	total := 0.0
	for _, e := range entries {
		total += e.Principal
	}
	assert.InDelta(t, 1000, total, 1e-9)
}

func TestDecayRate(t *testing.T) {
	asset := &domain.Contract{Side: domain.SideAsset}
	td := &domain.Contract{Side: domain.SideLiability, IsTermDeposit: true}
	sight := &domain.Contract{Side: domain.SideLiability}

	assert.Equal(t, 0.05, DecayRate(asset, 0.05, 0.10))
	assert.Equal(t, 0.10, DecayRate(td, 0.05, 0.10))
	assert.Zero(t, DecayRate(sight, 0.05, 0.10))
}

func TestApplyPrepayment(t *testing.T) {
	// Annual bullet coupons, principal at maturity.
	entries := []Entry{
		{Date: d(2027, 1, 1), Interest: 50},
		{Date: d(2028, 1, 1), Interest: 50},
		{Date: d(2029, 1, 1), Interest: 50, Principal: 1000},
	}

	out := ApplyPrepayment(entries, 1000, 0.05, 360, analysis)
	require.Len(t, out, 3)

	// Early periods now carry prepaid principal.
	assert.Greater(t, out[0].Principal, 0.0)
	assert.Greater(t, out[1].Principal, 0.0)
	// The final principal shrinks below the contractual notional.
	assert.Less(t, out[2].Principal, 1000.0)

	// Total principal is preserved.
	total := 0.0
	for _, e := range out {
		total += e.Principal
	}
	assert.InDelta(t, 1000, total, 0.01)

	// Interest decays with the surviving balance.
	assert.InDelta(t, 50, out[0].Interest, 1e-9)
	assert.Less(t, out[1].Interest, 50.0)
	assert.Less(t, out[2].Interest, out[1].Interest)
}

func TestApplyPrepaymentZeroRate(t *testing.T) {
	entries := []Entry{{Date: d(2027, 1, 1), Interest: 10, Principal: 100}}
	out := ApplyPrepayment(entries, 100, 0, 360, analysis)
	assert.Equal(t, entries, out)
}
