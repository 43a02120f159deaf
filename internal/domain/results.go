package domain

// SideGroup labels rows of the bucketed EVE breakdown.
type SideGroup string

const (
	GroupAsset     SideGroup = "asset"
	GroupLiability SideGroup = "liability"
	GroupNet       SideGroup = "net"
)

// EVEBucketRow is one (bucket, side group) cell of a scenario's EVE
// breakdown.
type EVEBucketRow struct {
	BucketName       string
	BucketStartYears float64
	BucketEndYears   float64
	SideGroup        SideGroup
	PVTotal          float64
	PVInterest       float64
	PVPrincipal      float64
	CashflowTotal    float64
	FlowCount        int
}

// NIIMonthRow is one month of a scenario's NII profile. Income carries
// asset interest (positive), expense carries liability interest
// (negative); NetNII is their sum.
type NIIMonthRow struct {
	MonthIndex      int
	MonthLabel      string // "2026-01"
	InterestIncome  float64
	InterestExpense float64
	NetNII          float64
}

// ScenarioResult is the full outcome of projecting one scenario.
type ScenarioResult struct {
	ScenarioID string
	EVE        float64
	NII        float64
	EVEBuckets []EVEBucketRow
	NIIMonthly []NIIMonthRow
}

// ExclusionCounts reports silently skipped positions for observability.
// Exclusions are not errors.
type ExclusionCounts struct {
	StaticPositions   int
	NMDsWithoutParams int
}

// CalculationResult is the outcome of a full base-plus-scenarios run.
type CalculationResult struct {
	Base          ScenarioResult
	Scenarios     map[string]ScenarioResult
	WorstScenario string
	WorstDeltaEVE float64
	Exclusions    ExclusionCounts
}

// WhatIfBucketDelta is one (scenario, bucket) row of a What-If EVE delta
// breakdown.
type WhatIfBucketDelta struct {
	Scenario         string
	BucketName       string
	BucketStartYears float64
	AssetPVDelta     float64
	LiabilityPVDelta float64
}

// WhatIfMonthDelta is one (scenario, month) row of a What-If NII delta
// breakdown.
type WhatIfMonthDelta struct {
	Scenario     string
	MonthIndex   int
	MonthLabel   string
	IncomeDelta  float64
	ExpenseDelta float64
}

// WhatIfResult carries the signed deltas of a modification: additions
// minus removals, bucket- and scenario-aligned.
type WhatIfResult struct {
	BaseEVEDelta      float64
	WorstEVEDelta     float64
	BaseNIIDelta      float64
	WorstNIIDelta     float64
	ScenarioEVEDeltas map[string]float64
	ScenarioNIIDeltas map[string]float64
	EVEBucketDeltas   []WhatIfBucketDelta
	NIIMonthDeltas    []WhatIfMonthDelta
}

// FindLimitResult reports a find-limit solve. Non-convergence is a flag,
// never an error.
type FindLimitResult struct {
	FoundValue     float64
	AchievedMetric float64
	Converged      bool
	Iterations     int
	Tolerance      float64
}
