package domain

import (
	"sort"
	"time"
)

// Cashflow is one signed projected flow. Asset flows are positive,
// liability flows negative; Total = Interest + Principal and is the field
// the EVE evaluator consumes.
type Cashflow struct {
	ContractID string
	Type       ContractType
	RateType   RateType
	Side       Side
	IndexName  string
	FlowDate   time.Time
	Interest   float64
	Principal  float64
	Total      float64
}

// CashflowTable is the projected flow set of one scenario.
type CashflowTable []Cashflow

// Sort orders the table deterministically by
// (flow_date, source_contract_type, contract_id).
func (t CashflowTable) Sort() {
	sort.SliceStable(t, func(i, j int) bool {
		if !t[i].FlowDate.Equal(t[j].FlowDate) {
			return t[i].FlowDate.Before(t[j].FlowDate)
		}
		if t[i].Type != t[j].Type {
			return t[i].Type < t[j].Type
		}
		return t[i].ContractID < t[j].ContractID
	})
}

// Window returns the rows with analysis < FlowDate <= end. The table must
// already be sorted.
func (t CashflowTable) Window(analysis, end time.Time) CashflowTable {
	out := make(CashflowTable, 0, len(t))
	for _, cf := range t {
		if cf.FlowDate.After(analysis) && !cf.FlowDate.After(end) {
			out = append(out, cf)
		}
	}
	return out
}
