// Package main is the entry point of the IRRBB calculation engine. It
// reads a YAML run definition naming the input tables and engine
// parameters, loads the position, flow and curve files, runs the full
// scenario calculation and persists the result to the local results
// database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/riskfolio/irrbb/internal/config"
	"github.com/riskfolio/irrbb/internal/curves"
	"github.com/riskfolio/irrbb/internal/dates"
	"github.com/riskfolio/irrbb/internal/domain"
	"github.com/riskfolio/irrbb/internal/ingest"
	"github.com/riskfolio/irrbb/internal/orchestrator"
	"github.com/riskfolio/irrbb/internal/scenarios"
	"github.com/riskfolio/irrbb/internal/store"
	"github.com/riskfolio/irrbb/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <run-file.yaml>\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}
	runPath := os.Args[1]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, runPath, log); err != nil {
		log.Fatal().Err(err).Msg("Calculation failed")
	}
}

func run(ctx context.Context, cfg *config.Config, runPath string, log zerolog.Logger) error {
	runFile, err := config.LoadRunFile(runPath)
	if err != nil {
		return err
	}
	analysis := runFile.Analysis()
	log.Info().
		Str("run_file", runPath).
		Str("analysis_date", runFile.AnalysisDate).
		Str("currency", runFile.Currency).
		Msg("Starting calculation")

	runDir := filepath.Dir(runPath)
	contracts, err := ingest.LoadPositions(resolve(runDir, runFile.PositionsFile))
	if err != nil {
		return err
	}
	var flows []domain.ScheduledFlow
	if runFile.FlowsFile != "" {
		if flows, err = ingest.LoadScheduledFlows(resolve(runDir, runFile.FlowsFile)); err != nil {
			return err
		}
	}
	points, err := ingest.LoadCurvePoints(resolve(runDir, runFile.CurvesFile))
	if err != nil {
		return err
	}

	dc := dates.Act365
	if runFile.Daycount != "" {
		if dc, err = dates.ParseDaycount(runFile.Daycount); err != nil {
			return err
		}
	}
	base, err := curves.NewSetFromLongTable(analysis, dc, points)
	if err != nil {
		return err
	}

	ocfg, err := orchestratorConfig(cfg, runFile)
	if err != nil {
		return err
	}
	orch := orchestrator.New(base, ocfg, log)
	result, err := orch.Calculate(ctx, contracts, flows)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.ResultsDB)
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := db.SaveCalculation(ctx, analysis, runFile.Currency, result)
	if err != nil {
		return err
	}

	log.Info().
		Str("run_id", runID).
		Float64("base_eve", result.Base.EVE).
		Float64("base_nii", result.Base.NII).
		Str("worst_scenario", result.WorstScenario).
		Float64("worst_delta_eve", result.WorstDeltaEVE).
		Int("scenarios", len(result.Scenarios)).
		Msg("Calculation complete")
	return nil
}

// orchestratorConfig maps the run definition onto the engine
// configuration, validating scenario ids and behavioural parameters up
// front so a bad run file fails before any projection.
func orchestratorConfig(cfg *config.Config, runFile *config.RunFile) (orchestrator.Config, error) {
	ocfg := orchestrator.Config{
		Currency:             runFile.Currency,
		DiscountIndex:        runFile.DiscountIndex,
		RiskFreeIndex:        runFile.RiskFreeIndex,
		HorizonMonths:        runFile.HorizonMonths,
		BalanceConstant:      runFile.BalanceConstant,
		CPRAnnual:            runFile.CPRAnnual,
		TDRRAnnual:           runFile.TDRRAnnual,
		MarginLookbackMonths: runFile.MarginLookbackMonths,
		Workers:              cfg.Workers,
	}
	for _, id := range runFile.Scenarios {
		s, err := scenarios.Parse(id)
		if err != nil {
			return ocfg, err
		}
		ocfg.ScenarioIDs = append(ocfg.ScenarioIDs, s)
	}
	if runFile.AnnuityMode != "" {
		switch mode := domain.AnnuityPaymentMode(runFile.AnnuityMode); mode {
		case domain.RepriceOnReset, domain.FixedPayment:
			ocfg.AnnuityMode = mode
		default:
			return ocfg, domain.NewInvalidInput("unknown variable_annuity_payment_mode %q", runFile.AnnuityMode)
		}
	}
	if runFile.NMD != nil {
		params := &domain.NMDParams{
			CoreProportion:      runFile.NMD.CoreProportion,
			PassThroughRate:     runFile.NMD.PassThroughRate,
			CoreAverageMaturity: runFile.NMD.CoreAverageMaturity,
			Distribution:        runFile.NMD.Distribution,
		}
		if err := params.Validate(); err != nil {
			return ocfg, err
		}
		ocfg.NMD = params
	}
	return ocfg, nil
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
