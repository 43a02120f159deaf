// Package eve discounts a signed cashflow table into the economic value
// of equity: the scalar present value the scenario engine compares, and
// the bucketed asset/liability/net breakdown the reporting surface
// consumes.
package eve

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/riskfolio/irrbb/internal/curves"
	"github.com/riskfolio/irrbb/internal/domain"
)

// Valuer discounts cashflows on one scenario's risk-free curve. Distinct
// flow dates are few compared to rows, so discount factors are cached
// per date.
type Valuer struct {
	set      *curves.Set
	discount *curves.ForwardCurve
	dfCache  map[time.Time]float64
	log      zerolog.Logger
}

// New builds a valuer discounting on the named risk-free index of the
// set.
func New(set *curves.Set, discountIndex string, log zerolog.Logger) (*Valuer, error) {
	curve, err := set.Curve(discountIndex)
	if err != nil {
		return nil, err
	}
	return &Valuer{
		set:      set,
		discount: curve,
		dfCache:  make(map[time.Time]float64),
		log:      log.With().Str("component", "eve").Logger(),
	}, nil
}

// DF returns the cached discount factor of a flow date.
func (v *Valuer) DF(d time.Time) float64 {
	if df, ok := v.dfCache[d]; ok {
		return df
	}
	df := v.discount.DF(v.set.YearsTo(d))
	v.dfCache[d] = df
	return df
}

// Value returns the EVE of the table: the sum of total amounts times
// their discount factors. Signs are already applied in the table, so the
// result is assets minus liabilities.
func (v *Valuer) Value(table domain.CashflowTable) float64 {
	total := 0.0
	for i := range table {
		total += table[i].Total * v.DF(table[i].FlowDate)
	}
	return total
}

// Breakdown slots the table's present values into the given time buckets
// and returns one row per (bucket, side group), net rows included. Rows
// are ordered bucket-major, asset/liability/net within each bucket.
func (v *Valuer) Breakdown(table domain.CashflowTable, buckets []domain.TimeBucket) []domain.EVEBucketRow {
	type cell struct {
		pvTotal     float64
		pvInterest  float64
		pvPrincipal float64
		cfTotal     float64
		count       int
	}
	groups := []domain.SideGroup{domain.GroupAsset, domain.GroupLiability, domain.GroupNet}
	cells := make([]cell, len(buckets)*len(groups))
	idx := func(bucket int, group int) int { return bucket*len(groups) + group }

	for i := range table {
		row := &table[i]
		t := v.set.YearsTo(row.FlowDate)
		b := domain.FindBucket(buckets, t)
		df := v.DF(row.FlowDate)

		var side int
		if row.Side == domain.SideAsset {
			side = 0
		} else {
			side = 1
		}
		for _, g := range []int{side, 2} {
			c := &cells[idx(b, g)]
			c.pvTotal += row.Total * df
			c.pvInterest += row.Interest * df
			c.pvPrincipal += row.Principal * df
			c.cfTotal += row.Total
			c.count++
		}
	}

	rows := make([]domain.EVEBucketRow, 0, len(cells))
	for b, bucket := range buckets {
		for g, group := range groups {
			c := cells[idx(b, g)]
			rows = append(rows, domain.EVEBucketRow{
				BucketName:       bucket.Name,
				BucketStartYears: bucket.Start,
				BucketEndYears:   bucket.End,
				SideGroup:        group,
				PVTotal:          c.pvTotal,
				PVInterest:       c.pvInterest,
				PVPrincipal:      c.pvPrincipal,
				CashflowTotal:    c.cfTotal,
				FlowCount:        c.count,
			})
		}
	}
	return rows
}
