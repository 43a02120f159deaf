// Package domain holds the canonical in-memory tables and result types of
// the projection engine: positions, scheduled principal flows, cashflow
// rows, regulatory time buckets, behavioural parameters and the typed
// error kinds. Everything here is built by the ingestion collaborator and
// treated as immutable by the engine.
package domain

import (
	"sort"
	"time"

	"github.com/riskfolio/irrbb/internal/dates"
)

// Side distinguishes asset and liability positions.
type Side string

const (
	SideAsset     Side = "A"
	SideLiability Side = "L"
)

// Sign returns +1 for assets and -1 for liabilities. Applied exactly once,
// when a contract's flow map is appended to the cashflow table.
func (s Side) Sign() float64 {
	if s == SideLiability {
		return -1.0
	}
	return 1.0
}

// Group maps a side to its breakdown side group.
func (s Side) Group() SideGroup {
	if s == SideLiability {
		return GroupLiability
	}
	return GroupAsset
}

// ParseSide validates a side token.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideAsset, SideLiability:
		return Side(s), nil
	}
	return "", NewInvalidInput("side must be A or L, got %q", s)
}

// RateType distinguishes fixed-rate and floating-rate contracts.
type RateType string

const (
	RateFixed RateType = "fixed"
	RateFloat RateType = "float"
)

// ContractType is the closed set of projectable contract shapes.
type ContractType string

const (
	FixedBullet         ContractType = "fixed_bullet"
	FixedLinear         ContractType = "fixed_linear"
	FixedAnnuity        ContractType = "fixed_annuity"
	FixedScheduled      ContractType = "fixed_scheduled"
	VariableBullet      ContractType = "variable_bullet"
	VariableLinear      ContractType = "variable_linear"
	VariableAnnuity     ContractType = "variable_annuity"
	VariableScheduled   ContractType = "variable_scheduled"
	FixedNonMaturity    ContractType = "fixed_non_maturity"
	VariableNonMaturity ContractType = "variable_non_maturity"
	StaticPosition      ContractType = "static_position"
)

// ParseContractType validates a source_contract_type token.
func ParseContractType(s string) (ContractType, error) {
	switch ContractType(s) {
	case FixedBullet, FixedLinear, FixedAnnuity, FixedScheduled,
		VariableBullet, VariableLinear, VariableAnnuity, VariableScheduled,
		FixedNonMaturity, VariableNonMaturity, StaticPosition:
		return ContractType(s), nil
	}
	return "", NewInvalidInput("unknown source_contract_type %q", s)
}

// IsScheduled reports whether the shape carries explicit principal flows.
func (t ContractType) IsScheduled() bool {
	return t == FixedScheduled || t == VariableScheduled
}

// IsVariable reports whether the shape reprices from the projection curve.
func (t ContractType) IsVariable() bool {
	switch t {
	case VariableBullet, VariableLinear, VariableAnnuity, VariableScheduled, VariableNonMaturity:
		return true
	}
	return false
}

// AnnuityPaymentMode selects how a variable annuity handles resets.
type AnnuityPaymentMode string

const (
	// RepriceOnReset recomputes the level payment at each reset on the
	// remaining balance over the remaining payment schedule.
	RepriceOnReset AnnuityPaymentMode = "reprice_on_reset"
	// FixedPayment computes the payment once at cycle start; resets only
	// change the accrual rate of subsequent segments.
	FixedPayment AnnuityPaymentMode = "fixed_payment"
)

// Contract is a canonical position row. Optional dates use the zero
// time.Time; optional rates use nil pointers.
type Contract struct {
	ContractID   string
	Subcategory  string
	Side         Side
	StartDate    time.Time
	MaturityDate time.Time // zero for non-maturity types
	Notional     float64
	Daycount     dates.Daycount
	Type         ContractType

	RateType        RateType
	FixedRate       float64 // coupon for fixed, current-coupon stub for float
	IndexName       string
	Spread          float64
	RepricingFreq   dates.Frequency
	NextRepriceDate time.Time
	FloorRate       *float64
	CapRate         *float64
	PaymentFreq     dates.Frequency

	IsTermDeposit      bool
	AnnuityPaymentMode AnnuityPaymentMode
}

// Validate enforces the §3 position invariants. It does not look at other
// rows; cross-row checks (unique ids, scheduled flows present) belong to
// ValidatePortfolio.
func (c *Contract) Validate() error {
	if c.ContractID == "" {
		return NewInvalidInput("contract with empty contract_id")
	}
	if c.Side != SideAsset && c.Side != SideLiability {
		return NewInvalidInput("contract %s: side must be A or L, got %q", c.ContractID, string(c.Side))
	}
	if c.Notional < 0 {
		return NewInvalidInput("contract %s: negative notional %f", c.ContractID, c.Notional)
	}
	if c.Type == StaticPosition {
		return nil // excluded from projection, nothing else to check
	}
	if c.StartDate.IsZero() {
		return NewInvalidInput("contract %s: missing start_date", c.ContractID)
	}
	isNMD := c.Type == FixedNonMaturity || c.Type == VariableNonMaturity
	if !isNMD {
		if c.MaturityDate.IsZero() {
			return NewInvalidInput("contract %s: missing maturity_date", c.ContractID)
		}
		if c.MaturityDate.Before(c.StartDate) {
			return NewInconsistentSchedule("contract %s: maturity %s before start %s",
				c.ContractID, c.MaturityDate.Format("2006-01-02"), c.StartDate.Format("2006-01-02"))
		}
	}
	if c.RateType == RateFloat && c.IndexName == "" {
		return NewInconsistentSchedule("contract %s: floating contract without index_name", c.ContractID)
	}
	return nil
}

// ValidatePortfolio runs per-row validation plus the cross-row invariants:
// unique contract ids and scheduled flows supplied for every scheduled
// position when any flows exist at all.
func ValidatePortfolio(contracts []Contract, flows map[string][]ScheduledFlow) error {
	seen := make(map[string]bool, len(contracts))
	for i := range contracts {
		c := &contracts[i]
		if err := c.Validate(); err != nil {
			return err
		}
		if seen[c.ContractID] {
			return NewInvalidInput("duplicate contract_id %s", c.ContractID)
		}
		seen[c.ContractID] = true
		if c.Type.IsScheduled() && len(flows) > 0 && len(flows[c.ContractID]) == 0 {
			return NewInconsistentSchedule("contract %s: scheduled type with no principal flows supplied", c.ContractID)
		}
	}
	return nil
}

// ScheduledFlow is an explicit principal repayment for a *_scheduled
// position. Amounts are unsigned magnitudes; the projector applies sign.
type ScheduledFlow struct {
	ContractID string
	FlowDate   time.Time
	Principal  float64
}

// GroupScheduledFlows groups flows per contract and sorts each group by
// date. Done once per calculation and shared read-only across scenarios.
func GroupScheduledFlows(flows []ScheduledFlow) map[string][]ScheduledFlow {
	grouped := make(map[string][]ScheduledFlow)
	for _, f := range flows {
		grouped[f.ContractID] = append(grouped[f.ContractID], f)
	}
	for id := range grouped {
		g := grouped[id]
		sort.Slice(g, func(i, j int) bool { return g[i].FlowDate.Before(g[j].FlowDate) })
		grouped[id] = g
	}
	return grouped
}
