// Package ingest reads the canonical CSV inputs of a calculation run:
// the position table, the scheduled principal flows and the yield-curve
// long table. Columns are matched by header name, case-insensitively, so
// extra columns and arbitrary ordering are tolerated. Parsing is strict
// on the columns the engine consumes: a malformed value fails the load
// with the offending line number.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskfolio/irrbb/internal/curves"
	"github.com/riskfolio/irrbb/internal/dates"
	"github.com/riskfolio/irrbb/internal/domain"
)

const dateLayout = "2006-01-02"

// table is a header-indexed CSV. Lookups go through the lowercased
// header name; line numbers are 1-based including the header row.
type table struct {
	columns map[string]int
	rows    [][]string
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &table{columns: columns, rows: rows}, nil
}

func (t *table) require(path string, names ...string) error {
	for _, name := range names {
		if _, ok := t.columns[name]; !ok {
			return domain.NewInvalidInput("%s: missing required column %q", path, name)
		}
	}
	return nil
}

// cell returns the trimmed value of a named column, empty when the
// column is absent or the row is short.
func (t *table) cell(row []string, name string) string {
	idx, ok := t.columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseFloatCell(raw, column string, line int) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, domain.NewInvalidInput("line %d: %s %q is not a number", line, column, raw)
	}
	return v, nil
}

func parseDateCell(raw, column string, line int) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, domain.NewInvalidInput("line %d: %s %q is not YYYY-MM-DD", line, column, raw)
	}
	return d, nil
}

// LoadPositions reads the position table. Validation of the parsed rows
// is the caller's business (ValidatePortfolio); the loader only rejects
// values it cannot represent.
func LoadPositions(path string) ([]domain.Contract, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(path, "contract_id", "side", "notional", "source_contract_type"); err != nil {
		return nil, err
	}

	contracts := make([]domain.Contract, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		c, err := parsePosition(t, row, line)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		contracts = append(contracts, c)
	}
	return contracts, nil
}

func parsePosition(t *table, row []string, line int) (domain.Contract, error) {
	var c domain.Contract
	var err error

	c.ContractID = t.cell(row, "contract_id")
	c.Subcategory = t.cell(row, "subcategory")

	if c.Side, err = domain.ParseSide(t.cell(row, "side")); err != nil {
		return c, fmt.Errorf("line %d: %w", line, err)
	}
	if c.Type, err = domain.ParseContractType(t.cell(row, "source_contract_type")); err != nil {
		return c, fmt.Errorf("line %d: %w", line, err)
	}
	if c.StartDate, err = parseDateCell(t.cell(row, "start_date"), "start_date", line); err != nil {
		return c, err
	}
	if c.MaturityDate, err = parseDateCell(t.cell(row, "maturity_date"), "maturity_date", line); err != nil {
		return c, err
	}
	if c.Notional, err = parseFloatCell(t.cell(row, "notional"), "notional", line); err != nil {
		return c, err
	}
	if raw := t.cell(row, "daycount"); raw != "" {
		if c.Daycount, err = dates.ParseDaycount(raw); err != nil {
			return c, fmt.Errorf("line %d: %w", line, err)
		}
	} else {
		c.Daycount = dates.Act365
	}

	switch strings.ToLower(t.cell(row, "rate_type")) {
	case "", "fixed":
		c.RateType = domain.RateFixed
	case "float", "floating":
		c.RateType = domain.RateFloat
	default:
		return c, domain.NewInvalidInput("line %d: rate_type %q is not fixed or float", line, t.cell(row, "rate_type"))
	}

	if c.FixedRate, err = parseFloatCell(t.cell(row, "fixed_rate"), "fixed_rate", line); err != nil {
		return c, err
	}
	c.IndexName = t.cell(row, "index_name")
	if c.Spread, err = parseFloatCell(t.cell(row, "spread"), "spread", line); err != nil {
		return c, err
	}
	if c.RepricingFreq, err = parseFrequencyCell(t.cell(row, "repricing_freq"), "repricing_freq", line); err != nil {
		return c, err
	}
	if c.NextRepriceDate, err = parseDateCell(t.cell(row, "next_reprice_date"), "next_reprice_date", line); err != nil {
		return c, err
	}
	if c.PaymentFreq, err = parseFrequencyCell(t.cell(row, "payment_freq"), "payment_freq", line); err != nil {
		return c, err
	}
	if c.FloorRate, err = parseOptionalFloat(t.cell(row, "floor_rate"), "floor_rate", line); err != nil {
		return c, err
	}
	if c.CapRate, err = parseOptionalFloat(t.cell(row, "cap_rate"), "cap_rate", line); err != nil {
		return c, err
	}

	switch strings.ToLower(t.cell(row, "is_term_deposit")) {
	case "", "0", "false", "no", "n":
	case "1", "true", "yes", "y":
		c.IsTermDeposit = true
	default:
		return c, domain.NewInvalidInput("line %d: is_term_deposit %q is not a boolean", line, t.cell(row, "is_term_deposit"))
	}

	switch mode := t.cell(row, "annuity_payment_mode"); mode {
	case "":
	case string(domain.RepriceOnReset), string(domain.FixedPayment):
		c.AnnuityPaymentMode = domain.AnnuityPaymentMode(mode)
	default:
		return c, domain.NewInvalidInput("line %d: unknown annuity_payment_mode %q", line, mode)
	}
	return c, nil
}

func parseFrequencyCell(raw, column string, line int) (dates.Frequency, error) {
	f, err := dates.ParseFrequency(raw)
	if err != nil {
		return dates.Frequency{}, domain.NewInvalidInput("line %d: %s: %v", line, column, err)
	}
	return f, nil
}

func parseOptionalFloat(raw, column string, line int) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := parseFloatCell(raw, column, line)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// LoadScheduledFlows reads the principal flow table for *_scheduled
// positions. Amounts stay unsigned; the projector applies sign.
func LoadScheduledFlows(path string) ([]domain.ScheduledFlow, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(path, "contract_id", "flow_date", "principal_amount"); err != nil {
		return nil, err
	}

	flows := make([]domain.ScheduledFlow, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		var f domain.ScheduledFlow
		f.ContractID = t.cell(row, "contract_id")
		if f.ContractID == "" {
			return nil, domain.NewInvalidInput("%s: line %d: empty contract_id", path, line)
		}
		if f.FlowDate, err = parseDateCell(t.cell(row, "flow_date"), "flow_date", line); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if f.FlowDate.IsZero() {
			return nil, domain.NewInvalidInput("%s: line %d: empty flow_date", path, line)
		}
		if f.Principal, err = parseFloatCell(t.cell(row, "principal_amount"), "principal_amount", line); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		flows = append(flows, f)
	}
	return flows, nil
}

// LoadCurvePoints reads the yield-curve long table. Each row carries the
// tenor as a token ("3M"), a date, or an explicit year fraction; the
// curve set builder resolves whichever is present.
func LoadCurvePoints(path string) ([]curves.CurvePoint, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require(path, "index_name", "forward_rate"); err != nil {
		return nil, err
	}

	points := make([]curves.CurvePoint, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		var p curves.CurvePoint
		p.IndexName = t.cell(row, "index_name")
		if p.IndexName == "" {
			return nil, domain.NewInvalidInput("%s: line %d: empty index_name", path, line)
		}
		p.TenorToken = t.cell(row, "tenor")
		if p.ForwardRate, err = parseFloatCell(t.cell(row, "forward_rate"), "forward_rate", line); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if p.TenorDate, err = parseDateCell(t.cell(row, "tenor_date"), "tenor_date", line); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if p.YearFraction, err = parseFloatCell(t.cell(row, "year_fraction"), "year_fraction", line); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if p.TenorToken == "" && p.TenorDate.IsZero() && p.YearFraction == 0 {
			return nil, domain.NewInvalidInput("%s: line %d: curve row for %s has no tenor, tenor_date or year_fraction",
				path, line, p.IndexName)
		}
		points = append(points, p)
	}
	return points, nil
}
