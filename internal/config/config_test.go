package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("IRRBB_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.Workers)
	assert.NotEmpty(t, cfg.ResultsDB)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("IRRBB_DATA_DIR", t.TempDir())
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("IRRBB_WORKERS", "4")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.LogPretty)
}

func TestLoadRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	content := `
analysis_date: "2026-01-01"
currency: EUR
discount_index: ESTR
risk_free_index: ESTR
positions_file: positions.csv
curves_file: curves.csv
horizon_months: 12
balance_constant: true
cpr_annual: 0.05
nmd:
  core_proportion: 60
  pass_through_rate: 25
  distribution:
    4Y_5Y: 60
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	run, err := LoadRunFile(path)
	require.NoError(t, err)
	assert.Equal(t, "EUR", run.Currency)
	assert.True(t, run.BalanceConstant)
	assert.Equal(t, 12, run.HorizonMonths)
	assert.Equal(t, 0.05, run.CPRAnnual)
	require.NotNil(t, run.NMD)
	assert.Equal(t, 60.0, run.NMD.CoreProportion)
	assert.Equal(t, 60.0, run.NMD.Distribution["4Y_5Y"])
	assert.Equal(t, 2026, run.Analysis().Year())
}

func TestLoadRunFileValidation(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name    string
		content string
	}{
		{"missing date", "currency: EUR\ndiscount_index: ESTR\nrisk_free_index: ESTR\npositions_file: p.csv\ncurves_file: c.csv\n"},
		{"bad date", "analysis_date: 01/02/2026\ncurrency: EUR\ndiscount_index: ESTR\nrisk_free_index: ESTR\npositions_file: p.csv\ncurves_file: c.csv\n"},
		{"missing currency", "analysis_date: \"2026-01-01\"\ndiscount_index: ESTR\nrisk_free_index: ESTR\npositions_file: p.csv\ncurves_file: c.csv\n"},
		{"missing positions", "analysis_date: \"2026-01-01\"\ncurrency: EUR\ndiscount_index: ESTR\nrisk_free_index: ESTR\ncurves_file: c.csv\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0644))
			_, err := LoadRunFile(path)
			assert.Error(t, err)
		})
	}
}
