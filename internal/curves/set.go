package curves

import (
	"sort"
	"time"

	"github.com/riskfolio/irrbb/internal/dates"
	"github.com/riskfolio/irrbb/internal/domain"
)

// CurvePoint is one row of the yield-curve long table produced by the
// ingestion collaborator. T is resolved from YearFraction when supplied,
// else from TenorDate against the analysis date, else from the token.
type CurvePoint struct {
	IndexName    string
	TenorToken   string
	ForwardRate  float64
	TenorDate    time.Time
	YearFraction float64
}

// Set is a ForwardCurveSet: the per-index curves of one market state,
// anchored at an analysis date with a single time basis. Sets are built
// once per calculation and shared read-only across scenario workers.
type Set struct {
	AnalysisDate time.Time
	Daycount     dates.Daycount
	curves       map[string]*ForwardCurve
}

// NewSet builds a set from already-constructed curves.
func NewSet(analysis time.Time, dc dates.Daycount, curves map[string]*ForwardCurve) *Set {
	return &Set{AnalysisDate: analysis, Daycount: dc, curves: curves}
}

// NewSetFromLongTable groups long-table rows by index and builds each
// curve.
func NewSetFromLongTable(analysis time.Time, dc dates.Daycount, rows []CurvePoint) (*Set, error) {
	byIndex := make(map[string][]Sample)
	for _, row := range rows {
		if row.IndexName == "" {
			return nil, domain.NewInvalidInput("curve row with empty index_name")
		}
		t := row.YearFraction
		if t == 0 && !row.TenorDate.IsZero() {
			t = dates.YearFraction(analysis, row.TenorDate, dc)
		}
		if t == 0 && row.TenorToken != "" {
			freq, err := dates.ParseFrequency(row.TenorToken)
			if err != nil {
				return nil, domain.NewInvalidInput("curve row for %s: %v", row.IndexName, err)
			}
			t = freq.Years()
		}
		byIndex[row.IndexName] = append(byIndex[row.IndexName], Sample{T: t, Rate: row.ForwardRate})
	}
	curvesByIndex := make(map[string]*ForwardCurve, len(byIndex))
	for index, samples := range byIndex {
		curve, err := NewForwardCurve(samples)
		if err != nil {
			return nil, err
		}
		curvesByIndex[index] = curve
	}
	return NewSet(analysis, dc, curvesByIndex), nil
}

// Indices lists the set's index names, sorted for determinism.
func (s *Set) Indices() []string {
	names := make([]string, 0, len(s.curves))
	for name := range s.curves {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Curve returns the curve of an index, or a MissingCurve error.
func (s *Set) Curve(index string) (*ForwardCurve, error) {
	curve, ok := s.curves[index]
	if !ok {
		return nil, domain.NewMissingCurve("index %q not in curve set", index)
	}
	return curve, nil
}

// Has reports whether the set carries the index.
func (s *Set) Has(index string) bool {
	_, ok := s.curves[index]
	return ok
}

// YearsTo converts a date to the set's time axis.
func (s *Set) YearsTo(d time.Time) float64 {
	return dates.YearFraction(s.AnalysisDate, d, s.Daycount)
}

// RateOnDate returns the equivalent rate of an index at a date.
func (s *Set) RateOnDate(index string, d time.Time) (float64, error) {
	curve, err := s.Curve(index)
	if err != nil {
		return 0, err
	}
	return curve.Rate(s.YearsTo(d)), nil
}

// DFOnDate returns the discount factor of an index at a date.
func (s *Set) DFOnDate(index string, d time.Time) (float64, error) {
	curve, err := s.Curve(index)
	if err != nil {
		return 0, err
	}
	return curve.DF(s.YearsTo(d)), nil
}

// RequireIndices fails with MissingCurve if any of the given indices is
// absent. The orchestrator calls this before any projection starts.
func (s *Set) RequireIndices(indices []string) error {
	for _, index := range indices {
		if index == "" {
			continue
		}
		if !s.Has(index) {
			return domain.NewMissingCurve("index %q required by positions but not in curve set", index)
		}
	}
	return nil
}

// WithCurves returns a new set sharing the analysis date and daycount but
// carrying the given curves. Used by the scenario engine.
func (s *Set) WithCurves(curves map[string]*ForwardCurve) *Set {
	return NewSet(s.AnalysisDate, s.Daycount, curves)
}
