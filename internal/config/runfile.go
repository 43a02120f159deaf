package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RunFile is one calculation's definition: input file locations and the
// engine parameters. Paths are relative to the run file's data
// directory unless absolute.
type RunFile struct {
	AnalysisDate  string `yaml:"analysis_date"` // 2006-01-02
	Currency      string `yaml:"currency"`
	DiscountIndex string `yaml:"discount_index"`
	RiskFreeIndex string `yaml:"risk_free_index"`

	PositionsFile string `yaml:"positions_file"`
	FlowsFile     string `yaml:"flows_file,omitempty"`
	CurvesFile    string `yaml:"curves_file"`

	Scenarios       []string `yaml:"scenarios,omitempty"` // empty = regulatory EVE catalog
	HorizonMonths   int      `yaml:"horizon_months,omitempty"`
	BalanceConstant bool     `yaml:"balance_constant,omitempty"`
	Daycount        string   `yaml:"curve_daycount,omitempty"` // default ACT/365

	CPRAnnual            float64 `yaml:"cpr_annual,omitempty"`
	TDRRAnnual           float64 `yaml:"tdrr_annual,omitempty"`
	AnnuityMode          string  `yaml:"variable_annuity_payment_mode,omitempty"`
	MarginLookbackMonths int     `yaml:"margin_lookback_months,omitempty"`

	NMD *NMDSection `yaml:"nmd,omitempty"`
}

// NMDSection carries the behavioural deposit parameters of a run.
type NMDSection struct {
	CoreProportion      float64            `yaml:"core_proportion"`
	PassThroughRate     float64            `yaml:"pass_through_rate"`
	CoreAverageMaturity float64            `yaml:"core_average_maturity,omitempty"`
	Distribution        map[string]float64 `yaml:"distribution"`
}

// LoadRunFile parses and validates a YAML run definition.
func LoadRunFile(path string) (*RunFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run file %s: %w", path, err)
	}
	var run RunFile
	if err := yaml.Unmarshal(raw, &run); err != nil {
		return nil, fmt.Errorf("failed to parse run file %s: %w", path, err)
	}
	if err := run.Validate(); err != nil {
		return nil, fmt.Errorf("run file %s: %w", path, err)
	}
	return &run, nil
}

// Validate checks the required fields and the date format.
func (r *RunFile) Validate() error {
	if r.AnalysisDate == "" {
		return fmt.Errorf("analysis_date is required")
	}
	if _, err := time.Parse("2006-01-02", r.AnalysisDate); err != nil {
		return fmt.Errorf("analysis_date %q is not YYYY-MM-DD: %w", r.AnalysisDate, err)
	}
	if r.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if r.DiscountIndex == "" {
		return fmt.Errorf("discount_index is required")
	}
	if r.RiskFreeIndex == "" {
		return fmt.Errorf("risk_free_index is required")
	}
	if r.PositionsFile == "" {
		return fmt.Errorf("positions_file is required")
	}
	if r.CurvesFile == "" {
		return fmt.Errorf("curves_file is required")
	}
	if r.HorizonMonths < 0 {
		return fmt.Errorf("horizon_months must be non-negative, got %d", r.HorizonMonths)
	}
	return nil
}

// Analysis returns the parsed analysis date.
func (r *RunFile) Analysis() time.Time {
	t, _ := time.Parse("2006-01-02", r.AnalysisDate)
	return t
}
