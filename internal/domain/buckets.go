package domain

import "math"

// TimeBucket is a contiguous year-fraction interval [Start, End). The
// final bucket of a set is open-ended (End = +Inf).
type TimeBucket struct {
	Name  string
	Start float64
	End   float64
}

// Open reports whether the bucket is the open-ended tail.
func (b TimeBucket) Open() bool {
	return math.IsInf(b.End, 1)
}

// Representative returns the bucket's fallback representative maturity:
// the midpoint, or openEndYears for the open-ended bucket.
func (b TimeBucket) Representative(openEndYears float64) float64 {
	if b.Open() {
		return openEndYears
	}
	return 0.5 * (b.Start + b.End)
}

// DefaultOpenBucketYears is the representative maturity of the open-ended
// bucket when the caller does not override it.
const DefaultOpenBucketYears = 10.0

// RegulatoryEVEBuckets is the default bucket set for EVE compliance
// breakdowns (years).
var RegulatoryEVEBuckets = []TimeBucket{
	{"0M-1M", 0, 1.0 / 12}, {"1M-3M", 1.0 / 12, 3.0 / 12}, {"3M-6M", 3.0 / 12, 6.0 / 12},
	{"6M-9M", 6.0 / 12, 9.0 / 12}, {"9M-1Y", 9.0 / 12, 1}, {"1Y-18M", 1, 1.5},
	{"18M-2Y", 1.5, 2}, {"2Y-3Y", 2, 3}, {"3Y-4Y", 3, 4}, {"4Y-5Y", 4, 5},
	{"5Y-6Y", 5, 6}, {"6Y-7Y", 6, 7}, {"7Y-8Y", 7, 8}, {"8Y-9Y", 8, 9},
	{"9Y-10Y", 9, 10}, {"10Y-15Y", 10, 15}, {"15Y-20Y", 15, 20},
	{"20Y+", 20, math.Inf(1)},
}

// VisualisationBuckets is the coarser, reporting-friendly set used by the
// UI collaborator.
var VisualisationBuckets = []TimeBucket{
	{"0-1Y", 0, 1}, {"1Y-2Y", 1, 2}, {"2Y-5Y", 2, 5}, {"5Y-10Y", 5, 10},
	{"10Y-20Y", 10, 20}, {"20Y+", 20, math.Inf(1)},
}

// FindBucket returns the index of the bucket containing t, or the last
// bucket for t beyond every closed bucket. Negative t lands in bucket 0.
func FindBucket(buckets []TimeBucket, t float64) int {
	for i, b := range buckets {
		if t < b.End {
			return i
		}
	}
	return len(buckets) - 1
}

// NMDBucket is one cell of the EBA 19-bucket grid used to slot core
// non-maturity-deposit balances.
type NMDBucket struct {
	Name     string
	MidYears float64
}

// EBABuckets is the EBA repricing grid for NMD core distributions.
// Midpoints are in years; the open 20Y+ bucket uses 25 years.
var EBABuckets = []NMDBucket{
	{"ON", 1.0 / 365.25},
	{"ON_1M", 0.5 / 12},
	{"1M_3M", 2.0 / 12},
	{"3M_6M", 4.5 / 12},
	{"6M_9M", 7.5 / 12},
	{"9M_1Y", 10.5 / 12},
	{"1Y_18M", 1.25},
	{"18M_2Y", 1.75},
	{"2Y_3Y", 2.5},
	{"3Y_4Y", 3.5},
	{"4Y_5Y", 4.5},
	{"5Y_6Y", 5.5},
	{"6Y_7Y", 6.5},
	{"7Y_8Y", 7.5},
	{"8Y_9Y", 8.5},
	{"9Y_10Y", 9.5},
	{"10Y_15Y", 12.5},
	{"15Y_20Y", 17.5},
	{"20Y_PLUS", 25},
}
