package report

import "errors"

var (
	// ErrReportDataFetch indicates the underlying store read failed before any
	// aggregation ran
	ErrReportDataFetch = errors.New("report data fetch failed")

	// ErrAggregationInput indicates the fetched rows are not aggregatable, for
	// example a negative outstanding amount. The figure is surfaced, never
	// silently corrected.
	ErrAggregationInput = errors.New("invalid aggregation input")
)
