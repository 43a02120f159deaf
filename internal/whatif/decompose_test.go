package whatif

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskfolio/irrbb/internal/dates"
	"github.com/riskfolio/irrbb/internal/domain"
)

var analysis = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func baseSpec() *LoanSpec {
	return &LoanSpec{
		ID:           "wf1",
		Notional:     100000,
		TermYears:    10,
		Side:         domain.SideAsset,
		Currency:     "EUR",
		RateType:     SpecFixed,
		FixedRate:    0.04,
		Amortization: AmortBullet,
		Daycount:     dates.Act360,
		PaymentFreq:  dates.Frequency{Count: 1, Unit: dates.UnitYear},
	}
}

func ids(rows []domain.Contract) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ContractID
	}
	return out
}

func TestDecomposePureBullet(t *testing.T) {
	spec := baseSpec()
	rows, err := Decompose(spec, analysis)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "wf1", r.ContractID)
	assert.Equal(t, domain.FixedBullet, r.Type)
	assert.Equal(t, analysis, r.StartDate)
	assert.Equal(t, analysis.AddDate(0, 0, 3653), r.MaturityDate)
	assert.Equal(t, 0.04, r.FixedRate)
}

func TestDecomposeBulletIgnoresGrace(t *testing.T) {
	spec := baseSpec()
	spec.GraceYears = 2
	rows, err := Decompose(spec, analysis)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestDecomposeVariableAnnuity(t *testing.T) {
	spec := baseSpec()
	spec.RateType = SpecVariable
	spec.VariableIndex = "EURIBOR6M"
	spec.SpreadBps = 150
	spec.Amortization = AmortAnnuity
	spec.RepricingFreq = dates.Frequency{Count: 6, Unit: dates.UnitMonth}

	rows, err := Decompose(spec, analysis)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, domain.VariableAnnuity, r.Type)
	assert.Equal(t, domain.RateFloat, r.RateType)
	assert.Equal(t, "EURIBOR6M", r.IndexName)
	assert.InDelta(t, 0.015, r.Spread, 1e-12)
	assert.Equal(t, r.StartDate, r.NextRepriceDate)
}

func TestDecomposeGraceLinear(t *testing.T) {
	spec := baseSpec()
	spec.Amortization = AmortLinear
	spec.GraceYears = 2

	rows, err := Decompose(spec, analysis)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"wf1_grace", "wf1_amort", "wf1_offset"}, ids(rows))

	graceEnd := analysis.AddDate(0, 0, 731)
	grace, amort, offset := rows[0], rows[1], rows[2]

	assert.Equal(t, domain.FixedBullet, grace.Type)
	assert.Equal(t, graceEnd, grace.MaturityDate)
	assert.Equal(t, spec.Notional, grace.Notional)

	assert.Equal(t, domain.FixedLinear, amort.Type)
	assert.Equal(t, graceEnd, amort.StartDate)
	assert.Equal(t, spec.Notional, amort.Notional)

	// the offset's principal cancels the grace leg's maturity emission
	assert.Equal(t, domain.SideLiability, offset.Side)
	assert.Equal(t, graceEnd, offset.MaturityDate)
	assert.Equal(t, graceEnd.AddDate(0, 0, -1), offset.StartDate)
	assert.Zero(t, offset.FixedRate)
	assert.Equal(t, spec.Notional, offset.Notional)
}

func TestDecomposeMixedBullet(t *testing.T) {
	spec := baseSpec()
	spec.RateType = SpecMixed
	spec.MixedFixedYears = 3
	spec.VariableIndex = "EURIBOR6M"
	spec.SpreadBps = 100

	rows, err := Decompose(spec, analysis)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"wf1_fixed", "wf1_var", "wf1_cancel"}, ids(rows))

	switchDate := analysis.AddDate(0, 0, 1096)
	fixed, variable, cancel := rows[0], rows[1], rows[2]

	assert.Equal(t, domain.FixedBullet, fixed.Type)
	assert.Equal(t, switchDate, fixed.MaturityDate)

	assert.Equal(t, domain.VariableBullet, variable.Type)
	assert.Equal(t, switchDate, variable.StartDate)
	assert.Equal(t, switchDate, variable.NextRepriceDate)

	assert.Equal(t, domain.SideLiability, cancel.Side)
	assert.Equal(t, switchDate, cancel.MaturityDate)
	assert.Zero(t, cancel.FixedRate)
}

func TestDecomposeMixedLinear(t *testing.T) {
	spec := baseSpec()
	spec.RateType = SpecMixed
	spec.MixedFixedYears = 4
	spec.VariableIndex = "EURIBOR6M"
	spec.Amortization = AmortLinear

	rows, err := Decompose(spec, analysis)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"wf1_fixed", "wf1_cancel", "wf1_var"}, ids(rows))

	fixed, cancel, variable := rows[0], rows[1], rows[2]
	assert.Equal(t, domain.FixedLinear, fixed.Type)
	assert.Equal(t, spec.Notional, fixed.Notional)

	// six of ten years remain at the switch
	assert.InDelta(t, 60000, cancel.Notional, 100)
	assert.Equal(t, domain.SideLiability, cancel.Side)
	assert.Equal(t, domain.FixedLinear, cancel.Type)

	assert.Equal(t, domain.VariableLinear, variable.Type)
	assert.Equal(t, domain.SideAsset, variable.Side)
	assert.InDelta(t, cancel.Notional, variable.Notional, 1e-9)
	assert.Equal(t, variable.StartDate, variable.NextRepriceDate)
}

func TestDecomposeMixedAnnuityWithGrace(t *testing.T) {
	spec := baseSpec()
	spec.RateType = SpecMixed
	spec.MixedFixedYears = 5
	spec.VariableIndex = "EURIBOR6M"
	spec.Amortization = AmortAnnuity
	spec.GraceYears = 1

	rows, err := Decompose(spec, analysis)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"wf1_grace", "wf1_fixed", "wf1_cancel", "wf1_var", "wf1_goffset"}, ids(rows))

	// annuity balance at the switch sits between linear decay and the
	// full notional
	cancel := rows[2]
	assert.Greater(t, cancel.Notional, 0.0)
	assert.Less(t, cancel.Notional, spec.Notional)

	amortStart := analysis.AddDate(0, 0, 365)
	assert.Equal(t, amortStart, rows[1].StartDate)
	assert.Equal(t, amortStart, rows[4].MaturityDate)
}

func TestDecomposeValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*LoanSpec)
	}{
		{"zero notional", func(s *LoanSpec) { s.Notional = 0 }},
		{"zero term", func(s *LoanSpec) { s.TermYears = 0 }},
		{"bad side", func(s *LoanSpec) { s.Side = "X" }},
		{"bad amortization", func(s *LoanSpec) { s.Amortization = "balloon" }},
		{"bad rate type", func(s *LoanSpec) { s.RateType = "step" }},
		{"variable without index", func(s *LoanSpec) { s.RateType = SpecVariable }},
		{"mixed without switch", func(s *LoanSpec) {
			s.RateType = SpecMixed
			s.VariableIndex = "EURIBOR6M"
		}},
		{"mixed switch past maturity", func(s *LoanSpec) {
			s.RateType = SpecMixed
			s.VariableIndex = "EURIBOR6M"
			s.MixedFixedYears = 12
		}},
		{"grace consumes term", func(s *LoanSpec) {
			s.Amortization = AmortLinear
			s.GraceYears = 10
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := baseSpec()
			tc.mutate(spec)
			_, err := Decompose(spec, analysis)
			require.Error(t, err)
			assert.True(t, domain.IsKind(err, domain.KindDecomposition))
		})
	}
}

func TestDecomposeExplicitStartDate(t *testing.T) {
	spec := baseSpec()
	spec.StartDate = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	rows, err := Decompose(spec, analysis)
	require.NoError(t, err)
	assert.Equal(t, spec.StartDate, rows[0].StartDate)
}
