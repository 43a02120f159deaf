package eve

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestNewMissingDiscountCurve(t *testing.T) {
	_, err := New(flatSet(t, 0.03), "EURIBOR3M", zerolog.Nop())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindMissingCurve))
}

func TestValue(t *testing.T) {
	v, err := New(flatSet(t, 0.03), "ESTR", zerolog.Nop())
	require.NoError(t, err)

	table := domain.CashflowTable{
		{ContractID: "A", Side: domain.SideAsset, FlowDate: d(2027, 1, 1), Total: 100},
		{ContractID: "L", Side: domain.SideLiability, FlowDate: d(2027, 1, 1), Total: -40},
	}
	yf := 365.0 / 365.25
	want := 60 * math.Exp(-0.03*yf)
	assert.InDelta(t, want, v.Value(table), 1e-12)
}

func TestValueEmptyTable(t *testing.T) {
	v, err := New(flatSet(t, 0.03), "ESTR", zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, v.Value(nil))
}

func TestBreakdown(t *testing.T) {
	v, err := New(flatSet(t, 0.02), "ESTR", zerolog.Nop())
	require.NoError(t, err)

	table := domain.CashflowTable{
		{ContractID: "A", Side: domain.SideAsset, FlowDate: d(2026, 7, 1),
			Interest: 2, Principal: 98, Total: 100},
		{ContractID: "L", Side: domain.SideLiability, FlowDate: d(2030, 7, 1),
			Interest: -1, Principal: -49, Total: -50},
	}
	rows := v.Breakdown(table, domain.RegulatoryEVEBuckets)
	require.Len(t, rows, len(domain.RegulatoryEVEBuckets)*3)

	byKey := map[string]domain.EVEBucketRow{}
	for _, r := range rows {
		byKey[r.BucketName+"/"+string(r.SideGroup)] = r
	}

	// 181 days is just under half a year: 3M-6M bucket
	asset := byKey["3M-6M/asset"]
	assert.Equal(t, 1, asset.FlowCount)
	assert.InDelta(t, 100, asset.CashflowTotal, 1e-12)
	assert.InDelta(t, asset.PVInterest+asset.PVPrincipal, asset.PVTotal, 1e-12)
	assert.Greater(t, asset.PVTotal, 0.0)
	assert.Less(t, asset.PVTotal, 100.0)

	liab := byKey["4Y-5Y/liability"]
	assert.Equal(t, 1, liab.FlowCount)
	assert.Less(t, liab.PVTotal, 0.0)

	// net mirrors the single-sided buckets here
	assert.InDelta(t, asset.PVTotal, byKey["3M-6M/net"].PVTotal, 1e-12)
	assert.InDelta(t, liab.PVTotal, byKey["4Y-5Y/net"].PVTotal, 1e-12)

	// empty cells are present with zero values
	assert.Zero(t, byKey["20Y+/net"].FlowCount)

	// bucket PVs reconcile with the scalar EVE
	sum := 0.0
	for _, r := range rows {
		if r.SideGroup == domain.GroupNet {
			sum += r.PVTotal
		}
	}
	assert.InDelta(t, v.Value(table), sum, 1e-12)
}

func TestDFCache(t *testing.T) {
	v, err := New(flatSet(t, 0.025), "ESTR", zerolog.Nop())
	require.NoError(t, err)

	first := v.DF(d(2028, 1, 1))
	assert.Equal(t, first, v.DF(d(2028, 1, 1)))
	assert.Less(t, first, 1.0)
}
