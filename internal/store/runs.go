package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/riskfolio/irrbb/internal/domain"
)

// RunSummary is one row of the run listing, scalars only.
type RunSummary struct {
	RunID         string
	CreatedAt     time.Time
	AnalysisDate  time.Time
	Currency      string
	BaseEVE       float64
	BaseNII       float64
	WorstScenario string
	WorstDeltaEVE float64
}

// SaveCalculation persists a calculation result and returns its run id.
func (d *DB) SaveCalculation(ctx context.Context, analysis time.Time, currency string, result *domain.CalculationResult) (string, error) {
	blob, err := msgpack.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode calculation result: %w", err)
	}
	runID := uuid.NewString()
	_, err = d.conn.ExecContext(ctx, `
		INSERT INTO calculation_runs
			(run_id, created_at, analysis_date, currency, base_eve, base_nii, worst_scenario, worst_delta_eve, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		time.Now().UTC().Format(time.RFC3339),
		analysis.Format("2006-01-02"),
		currency,
		result.Base.EVE,
		result.Base.NII,
		result.WorstScenario,
		result.WorstDeltaEVE,
		blob,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert calculation run: %w", err)
	}
	return runID, nil
}

// GetCalculation loads a persisted run's full result.
func (d *DB) GetCalculation(ctx context.Context, runID string) (*domain.CalculationResult, error) {
	var blob []byte
	err := d.conn.QueryRowContext(ctx,
		`SELECT result FROM calculation_runs WHERE run_id = ?`, runID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("calculation run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load calculation run %s: %w", runID, err)
	}
	var result domain.CalculationResult
	if err := msgpack.Unmarshal(blob, &result); err != nil {
		return nil, fmt.Errorf("failed to decode calculation run %s: %w", runID, err)
	}
	return &result, nil
}

// DeleteRun removes a persisted run.
func (d *DB) DeleteRun(ctx context.Context, runID string) error {
	res, err := d.conn.ExecContext(ctx,
		`DELETE FROM calculation_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete calculation run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("calculation run %s not found", runID)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.conn.QueryContext(ctx, `
		SELECT run_id, created_at, analysis_date, currency, base_eve, base_nii, worst_scenario, worst_delta_eve
		FROM calculation_runs
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list calculation runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var created, analysis string
		if err := rows.Scan(&s.RunID, &created, &analysis, &s.Currency,
			&s.BaseEVE, &s.BaseNII, &s.WorstScenario, &s.WorstDeltaEVE); err != nil {
			return nil, fmt.Errorf("failed to scan calculation run row: %w", err)
		}
		if s.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("failed to parse created_at %q: %w", created, err)
		}
		if s.AnalysisDate, err = time.Parse("2006-01-02", analysis); err != nil {
			return nil, fmt.Errorf("failed to parse analysis_date %q: %w", analysis, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
