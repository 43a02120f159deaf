package cashflows

import (
	"sort"
	"time"

	"github.com/riskfolio/irrbb/internal/behaviour"
)

// flowAmount accumulates interest and principal landing on one date.
type flowAmount struct {
	interest  float64
	principal float64
}

// flowMap is the per-contract date -> amounts accumulator every shape
// generator writes into before the flows are ordered and appended to the
// table.
type flowMap map[time.Time]*flowAmount

func (m flowMap) at(d time.Time) *flowAmount {
	f, ok := m[d]
	if !ok {
		f = &flowAmount{}
		m[d] = f
	}
	return f
}

func (m flowMap) addInterest(d time.Time, amount float64) {
	m.at(d).interest += amount
}

func (m flowMap) addPrincipal(d time.Time, amount float64) {
	m.at(d).principal += amount
}

// entries returns the accumulated flows ordered by date.
func (m flowMap) entries() []behaviour.Entry {
	out := make([]behaviour.Entry, 0, len(m))
	for d, f := range m {
		out = append(out, behaviour.Entry{Date: d, Interest: f.interest, Principal: f.principal})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
