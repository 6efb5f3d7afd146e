package report

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Aging bucket labels, ordered youngest to oldest. Boundaries are closed-open
// in days past due except the final bucket, which is unbounded above.
const (
	BucketCurrent  = "Current"
	Bucket1To30    = "1-30"
	Bucket31To60   = "31-60"
	Bucket61To90   = "61-90"
	BucketOver90   = "90+"
)

var bucketOrder = []string{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, BucketOver90}

// BucketLabels returns the fixed bucket labels in ascending age order
func BucketLabels() []string {
	out := make([]string, len(bucketOrder))
	copy(out, bucketOrder)
	return out
}

// BucketFor assigns a days-past-due figure to exactly one aging bucket. Zero
// and negative values (not yet due) are Current.
func BucketFor(daysPastDue int) string {
	switch {
	case daysPastDue <= 0:
		return BucketCurrent
	case daysPastDue <= 30:
		return Bucket1To30
	case daysPastDue <= 60:
		return Bucket31To60
	case daysPastDue <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// AgingRow is one outstanding document carrying its already-assigned bucket
// label. Aggregation trusts the label rather than re-deriving it, so callers
// can bucket with business rules of their own (grace periods, disputes).
type AgingRow struct {
	Bucket      string
	Outstanding decimal.Decimal
	DaysPastDue int
}

// BucketSummary is the aggregate of one non-empty aging bucket
type BucketSummary struct {
	Bucket         string          `json:"bucket"`
	Count          int             `json:"count"`
	Total          decimal.Decimal `json:"total"`
	MinDaysPastDue int             `json:"minDaysPastDue"`
	MaxDaysPastDue int             `json:"maxDaysPastDue"`
	AvgDaysPastDue decimal.Decimal `json:"avgDaysPastDue"`
}

// aggregateAging folds rows into per-bucket summaries, returned in bucket
// order with empty buckets omitted. Rows with a negative outstanding amount
// or an unknown bucket label fail the whole aggregation.
func aggregateAging(rows []AgingRow) ([]BucketSummary, error) {
	byBucket := make(map[string]*BucketSummary, len(bucketOrder))
	dayTotals := make(map[string]int, len(bucketOrder))

	for _, row := range rows {
		if row.Outstanding.IsNegative() {
			return nil, fmt.Errorf("%w: negative outstanding amount %s", ErrAggregationInput, row.Outstanding)
		}
		summary, ok := byBucket[row.Bucket]
		if !ok {
			if !isKnownBucket(row.Bucket) {
				return nil, fmt.Errorf("%w: unknown aging bucket %q", ErrAggregationInput, row.Bucket)
			}
			summary = &BucketSummary{
				Bucket:         row.Bucket,
				Total:          decimal.Zero,
				MinDaysPastDue: row.DaysPastDue,
				MaxDaysPastDue: row.DaysPastDue,
			}
			byBucket[row.Bucket] = summary
		}
		summary.Count++
		summary.Total = summary.Total.Add(row.Outstanding)
		if row.DaysPastDue < summary.MinDaysPastDue {
			summary.MinDaysPastDue = row.DaysPastDue
		}
		if row.DaysPastDue > summary.MaxDaysPastDue {
			summary.MaxDaysPastDue = row.DaysPastDue
		}
		dayTotals[row.Bucket] += row.DaysPastDue
	}

	out := make([]BucketSummary, 0, len(byBucket))
	for _, label := range bucketOrder {
		summary, ok := byBucket[label]
		if !ok {
			continue
		}
		summary.AvgDaysPastDue = decimal.NewFromInt(int64(dayTotals[label])).
			Div(decimal.NewFromInt(int64(summary.Count)))
		out = append(out, *summary)
	}
	return out, nil
}

func isKnownBucket(label string) bool {
	for _, known := range bucketOrder {
		if label == known {
			return true
		}
	}
	return false
}
