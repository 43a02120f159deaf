package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskfolio/irrbb/internal/dates"
	"github.com/riskfolio/irrbb/internal/domain"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadPositions(t *testing.T) {
	path := writeCSV(t, "positions.csv", `contract_id,subcategory,side,start_date,maturity_date,notional,daycount,source_contract_type,rate_type,fixed_rate,index_name,spread,repricing_freq,next_reprice_date,floor_rate,cap_rate,payment_freq,is_term_deposit
LOAN1,mortgages,A,2024-01-01,2031-01-01,100000,ACT/360,fixed_bullet,fixed,0.05,,,,,,,1Y,
DEP1,wholesale,L,2025-06-01,2027-06-01,50000,ACT/365,variable_bullet,float,0.02,EURIBOR3M,0.001,3M,2026-03-01,0.0,0.06,3M,true
`)

	contracts, err := LoadPositions(path)
	require.NoError(t, err)
	require.Len(t, contracts, 2)

	loan := contracts[0]
	assert.Equal(t, "LOAN1", loan.ContractID)
	assert.Equal(t, "mortgages", loan.Subcategory)
	assert.Equal(t, domain.SideAsset, loan.Side)
	assert.Equal(t, domain.FixedBullet, loan.Type)
	assert.Equal(t, dates.Act360, loan.Daycount)
	assert.Equal(t, 100000.0, loan.Notional)
	assert.Equal(t, 0.05, loan.FixedRate)
	assert.Equal(t, time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC), loan.MaturityDate)
	assert.Equal(t, dates.Frequency{Count: 1, Unit: dates.UnitYear}, loan.PaymentFreq)
	assert.Nil(t, loan.FloorRate)
	assert.False(t, loan.IsTermDeposit)

	dep := contracts[1]
	assert.Equal(t, domain.SideLiability, dep.Side)
	assert.Equal(t, domain.RateFloat, dep.RateType)
	assert.Equal(t, "EURIBOR3M", dep.IndexName)
	assert.Equal(t, 0.001, dep.Spread)
	assert.Equal(t, dates.Frequency{Count: 3, Unit: dates.UnitMonth}, dep.RepricingFreq)
	require.NotNil(t, dep.FloorRate)
	assert.Equal(t, 0.0, *dep.FloorRate)
	require.NotNil(t, dep.CapRate)
	assert.Equal(t, 0.06, *dep.CapRate)
	assert.True(t, dep.IsTermDeposit)
}

func TestLoadPositionsColumnOrderIrrelevant(t *testing.T) {
	path := writeCSV(t, "positions.csv", `notional,SIDE,source_contract_type,contract_id,start_date,maturity_date
1000,A,fixed_bullet,X1,2025-01-01,2026-01-01
`)
	contracts, err := LoadPositions(path)
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, "X1", contracts[0].ContractID)
	assert.Equal(t, dates.Act365, contracts[0].Daycount)
	assert.Equal(t, domain.RateFixed, contracts[0].RateType)
}

func TestLoadPositionsRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing column", "contract_id,side,notional\nX1,A,1000\n"},
		{"bad side", "contract_id,side,notional,source_contract_type\nX1,Q,1000,fixed_bullet\n"},
		{"bad type", "contract_id,side,notional,source_contract_type\nX1,A,1000,perpetual\n"},
		{"bad notional", "contract_id,side,notional,source_contract_type\nX1,A,lots,fixed_bullet\n"},
		{"bad date", "contract_id,side,notional,source_contract_type,start_date\nX1,A,1000,fixed_bullet,01/02/2025\n"},
		{"bad frequency", "contract_id,side,notional,source_contract_type,payment_freq\nX1,A,1000,fixed_bullet,3X\n"},
		{"bad rate type", "contract_id,side,notional,source_contract_type,rate_type\nX1,A,1000,fixed_bullet,inverse\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeCSV(t, "positions.csv", tc.content)
			_, err := LoadPositions(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadScheduledFlows(t *testing.T) {
	path := writeCSV(t, "flows.csv", `contract_id,flow_date,principal_amount
SCHED1,2026-06-30,250
SCHED1,2026-12-31,250
SCHED2,2027-01-15,1000
`)
	flows, err := LoadScheduledFlows(path)
	require.NoError(t, err)
	require.Len(t, flows, 3)
	assert.Equal(t, "SCHED1", flows[0].ContractID)
	assert.Equal(t, 250.0, flows[0].Principal)
	assert.Equal(t, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), flows[0].FlowDate)

	grouped := domain.GroupScheduledFlows(flows)
	assert.Len(t, grouped["SCHED1"], 2)
	assert.Len(t, grouped["SCHED2"], 1)
}

func TestLoadScheduledFlowsRejectsEmptyDate(t *testing.T) {
	path := writeCSV(t, "flows.csv", "contract_id,flow_date,principal_amount\nSCHED1,,250\n")
	_, err := LoadScheduledFlows(path)
	assert.Error(t, err)
}

func TestLoadCurvePoints(t *testing.T) {
	path := writeCSV(t, "curves.csv", `index_name,tenor,forward_rate,tenor_date,year_fraction
ESTR,3M,0.021,,
ESTR,10Y,0.028,,
EURIBOR3M,,0.024,2026-04-01,
EURIBOR3M,,0.027,,5.0
`)
	points, err := LoadCurvePoints(path)
	require.NoError(t, err)
	require.Len(t, points, 4)
	assert.Equal(t, "ESTR", points[0].IndexName)
	assert.Equal(t, "3M", points[0].TenorToken)
	assert.Equal(t, 0.021, points[0].ForwardRate)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), points[2].TenorDate)
	assert.Equal(t, 5.0, points[3].YearFraction)
}

func TestLoadCurvePointsRejectsTenorlessRow(t *testing.T) {
	path := writeCSV(t, "curves.csv", "index_name,tenor,forward_rate\nESTR,,0.02\n")
	_, err := LoadCurvePoints(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tenor")
}
