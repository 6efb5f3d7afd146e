package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finsight/backend/internal/domain/ledger"
)

var (
	oneHundred  = decimal.NewFromInt(100)
	daysPerYear = decimal.NewFromInt(365)
)

// ---------------------------------------------------------------------------
// Options and result types
// ---------------------------------------------------------------------------

// AgingOptions narrows an aging report. Zero AsOf means now.
type AgingOptions struct {
	AsOf            time.Time
	ContactCategory string
}

// AgingReport is a bucketed view of outstanding receivables or payables
type AgingReport struct {
	AsOf          time.Time       `json:"asOf"`
	DocumentCount int             `json:"documentCount"`
	Total         decimal.Decimal `json:"total"`
	Buckets       []BucketSummary `json:"buckets"`
}

// CashflowOptions narrows the cash-flow summary. TrailingDays bounds the
// revenue and purchase window used for DSO/DPO; zero means one year.
type CashflowOptions struct {
	AsOf             time.Time
	TrailingDays     int
	IncludeInventory bool
}

// CashflowSummary carries working-capital metrics as of one instant
type CashflowSummary struct {
	AsOf                time.Time       `json:"asOf"`
	ReceivablesTotal    decimal.Decimal `json:"receivablesTotal"`
	PayablesTotal       decimal.Decimal `json:"payablesTotal"`
	TrailingRevenue     decimal.Decimal `json:"trailingRevenue"`
	TrailingPurchases   decimal.Decimal `json:"trailingPurchases"`
	DaysSalesOut        decimal.Decimal `json:"daysSalesOutstanding"`
	DaysPayablesOut     decimal.Decimal `json:"daysPayablesOutstanding"`
	DaysInventory       decimal.Decimal `json:"daysInventoryOnHand"`
	CashConversionCycle decimal.Decimal `json:"cashConversionCycle"`
}

// PeriodOptions bounds a period-based report: inclusive start, exclusive end.
// Streams optionally restricts to the named revenue streams.
type PeriodOptions struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Streams     []string
}

// StreamComparison compares one revenue stream across the current period and
// the equal-length period immediately before it
type StreamComparison struct {
	Stream        string          `json:"stream"`
	Current       decimal.Decimal `json:"current"`
	Prior         decimal.Decimal `json:"prior"`
	PercentChange decimal.Decimal `json:"percentChange"`
	UnitCount     decimal.Decimal `json:"unitCount"`
	InvoiceCount  int64           `json:"invoiceCount"`
}

// RevenueStreamReport is the per-stream period-over-period comparison
type RevenueStreamReport struct {
	PeriodStart time.Time          `json:"periodStart"`
	PeriodEnd   time.Time          `json:"periodEnd"`
	Streams     []StreamComparison `json:"streams"`
	Total       StreamComparison   `json:"total"`
}

// StreamMargin is the gross-margin breakdown for one revenue stream
type StreamMargin struct {
	Stream          string          `json:"stream"`
	GrossRevenue    decimal.Decimal `json:"grossRevenue"`
	NetRevenue      decimal.Decimal `json:"netRevenue"`
	COGS            decimal.Decimal `json:"cogs"`
	GrossProfit     decimal.Decimal `json:"grossProfit"`
	MarginPercent   decimal.Decimal `json:"marginPercent"`
	UnitCount       decimal.Decimal `json:"unitCount"`
	AvgSellingPrice decimal.Decimal `json:"avgSellingPrice"`
}

// MarginReport is the per-stream and combined margin analysis for a period
type MarginReport struct {
	PeriodStart time.Time      `json:"periodStart"`
	PeriodEnd   time.Time      `json:"periodEnd"`
	Streams     []StreamMargin `json:"streams"`
	Total       StreamMargin   `json:"total"`
}

// InventoryOptions narrows the inventory report. TrailingDays bounds the COGS
// window used for turnover; zero means one year.
type InventoryOptions struct {
	AsOf         time.Time
	TrailingDays int
}

// ReorderAlert flags one tracked item whose on-hand quantity has fallen below
// its reorder level
type ReorderAlert struct {
	ItemCode       string          `json:"itemCode"`
	Name           string          `json:"name"`
	QuantityOnHand decimal.Decimal `json:"quantityOnHand"`
	ReorderLevel   decimal.Decimal `json:"reorderLevel"`
}

// InventoryReport summarizes tracked-item holdings and velocity
type InventoryReport struct {
	AsOf          time.Time       `json:"asOf"`
	ItemCount     int             `json:"itemCount"`
	TotalQuantity decimal.Decimal `json:"totalQuantity"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	TrailingCOGS  decimal.Decimal `json:"trailingCogs"`
	Turnover      decimal.Decimal `json:"turnover"`
	DaysOnHand    decimal.Decimal `json:"daysOnHand"`
	ReorderAlerts []ReorderAlert  `json:"reorderAlerts"`
}

// OverdueContact aggregates the outstanding documents of one counterparty
// that has at least one document past the Current bucket
type OverdueContact struct {
	ContactID         uuid.UUID       `json:"contactId"`
	ContactName       string          `json:"contactName"`
	DocumentCount     int             `json:"documentCount"`
	Outstanding       decimal.Decimal `json:"outstanding"`
	OldestDaysPastDue int             `json:"oldestDaysPastDue"`
}

// OverdueReport lists overdue counterparties across receivables and payables
type OverdueReport struct {
	AsOf       time.Time        `json:"asOf"`
	Customers  []OverdueContact `json:"customers"`
	Suppliers  []OverdueContact `json:"suppliers"`
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// ReportService computes financial reports from synchronized ledger rows. All
// computations are read-only and never suspend beyond the initial store
// fetches.
type ReportService struct {
	store  ledger.Repository
	logger *zap.Logger

	now func() time.Time
}

// NewReportService creates a report service over the ledger store
func NewReportService(store ledger.Repository, logger *zap.Logger) *ReportService {
	return &ReportService{
		store:  store,
		logger: logger.Named("report_service"),
		now:    time.Now,
	}
}

// AgedReceivables buckets outstanding customer invoices by days past due
func (s *ReportService) AgedReceivables(ctx context.Context, tenantID uuid.UUID, opts AgingOptions) (*AgingReport, error) {
	return s.agedDocuments(ctx, tenantID, opts, s.store.OutstandingReceivables)
}

// AgedPayables buckets outstanding supplier bills by days past due
func (s *ReportService) AgedPayables(ctx context.Context, tenantID uuid.UUID, opts AgingOptions) (*AgingReport, error) {
	return s.agedDocuments(ctx, tenantID, opts, s.store.OutstandingPayables)
}

type outstandingFetch func(ctx context.Context, tenantID uuid.UUID, filter ledger.OutstandingFilter) ([]ledger.OutstandingDocument, error)

func (s *ReportService) agedDocuments(ctx context.Context, tenantID uuid.UUID, opts AgingOptions, fetch outstandingFetch) (*AgingReport, error) {
	asOf := s.asOf(opts.AsOf)
	docs, err := fetch(ctx, tenantID, ledger.OutstandingFilter{
		ContactCategory: opts.ContactCategory,
		AsOf:            asOf,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: outstanding documents: %v", ErrReportDataFetch, err)
	}

	rows := make([]AgingRow, len(docs))
	total := decimal.Zero
	for i, doc := range docs {
		dpd := daysPastDue(asOf, doc.DueDate)
		rows[i] = AgingRow{Bucket: BucketFor(dpd), Outstanding: doc.Outstanding, DaysPastDue: dpd}
		total = total.Add(doc.Outstanding)
	}
	buckets, err := aggregateAging(rows)
	if err != nil {
		return nil, err
	}
	return &AgingReport{
		AsOf:          asOf,
		DocumentCount: len(docs),
		Total:         total,
		Buckets:       buckets,
	}, nil
}

// CashflowSummary computes AR/AP totals, DSO, DPO and the cash conversion
// cycle over a trailing window ending at AsOf. Zero denominators yield zero
// metrics rather than errors.
func (s *ReportService) CashflowSummary(ctx context.Context, tenantID uuid.UUID, opts CashflowOptions) (*CashflowSummary, error) {
	asOf := s.asOf(opts.AsOf)
	trailing := trailingPeriod(asOf, opts.TrailingDays)

	arTotal, err := s.outstandingTotal(ctx, tenantID, asOf, s.store.OutstandingReceivables)
	if err != nil {
		return nil, err
	}
	apTotal, err := s.outstandingTotal(ctx, tenantID, asOf, s.store.OutstandingPayables)
	if err != nil {
		return nil, err
	}

	streams, err := s.store.RevenueByStream(ctx, tenantID, trailing)
	if err != nil {
		return nil, fmt.Errorf("%w: trailing revenue: %v", ErrReportDataFetch, err)
	}
	revenue := decimal.Zero
	for _, stream := range streams {
		revenue = revenue.Add(stream.NetAmount)
	}

	purchases, err := s.store.PurchasesTotal(ctx, tenantID, trailing)
	if err != nil {
		return nil, fmt.Errorf("%w: trailing purchases: %v", ErrReportDataFetch, err)
	}

	summary := &CashflowSummary{
		AsOf:              asOf,
		ReceivablesTotal:  arTotal,
		PayablesTotal:     apTotal,
		TrailingRevenue:   revenue,
		TrailingPurchases: purchases,
		DaysSalesOut:      annualizedDays(arTotal, revenue),
		DaysPayablesOut:   annualizedDays(apTotal, purchases),
		DaysInventory:     decimal.Zero,
	}

	if opts.IncludeInventory {
		cogs, err := s.store.COGSTotal(ctx, tenantID, trailing)
		if err != nil {
			return nil, fmt.Errorf("%w: trailing cogs: %v", ErrReportDataFetch, err)
		}
		items, err := s.store.TrackedItems(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("%w: tracked items: %v", ErrReportDataFetch, err)
		}
		value := decimal.Zero
		for i := range items {
			value = value.Add(items[i].TotalCostPool)
		}
		summary.DaysInventory = annualizedDays(value, cogs)
	}

	summary.CashConversionCycle = summary.DaysSalesOut.
		Add(summary.DaysInventory).
		Sub(summary.DaysPayablesOut)
	return summary, nil
}

// RevenueStreams compares per-stream revenue for the requested period against
// the equal-length period immediately before it
func (s *ReportService) RevenueStreams(ctx context.Context, tenantID uuid.UUID, opts PeriodOptions) (*RevenueStreamReport, error) {
	if !opts.PeriodEnd.After(opts.PeriodStart) {
		return nil, fmt.Errorf("%w: period end %s is not after start %s",
			ErrAggregationInput, opts.PeriodEnd.Format(time.RFC3339), opts.PeriodStart.Format(time.RFC3339))
	}

	current, err := s.store.RevenueByStream(ctx, tenantID, ledger.RevenueFilter{
		Streams:     opts.Streams,
		PeriodStart: opts.PeriodStart,
		PeriodEnd:   opts.PeriodEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: current period revenue: %v", ErrReportDataFetch, err)
	}

	length := opts.PeriodEnd.Sub(opts.PeriodStart)
	prior, err := s.store.RevenueByStream(ctx, tenantID, ledger.RevenueFilter{
		Streams:     opts.Streams,
		PeriodStart: opts.PeriodStart.Add(-length),
		PeriodEnd:   opts.PeriodStart,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: prior period revenue: %v", ErrReportDataFetch, err)
	}

	priorByStream := make(map[string]decimal.Decimal, len(prior))
	for _, stream := range prior {
		priorByStream[stream.Stream] = stream.NetAmount
	}

	comparisons := make([]StreamComparison, 0, len(current))
	total := StreamComparison{Stream: "total", Current: decimal.Zero, Prior: decimal.Zero, UnitCount: decimal.Zero}
	seen := make(map[string]bool, len(current))
	for _, stream := range current {
		priorNet := decimal.Zero
		if v, ok := priorByStream[stream.Stream]; ok {
			priorNet = v
		}
		seen[stream.Stream] = true
		comparisons = append(comparisons, StreamComparison{
			Stream:        stream.Stream,
			Current:       stream.NetAmount,
			Prior:         priorNet,
			PercentChange: percentChange(stream.NetAmount, priorNet),
			UnitCount:     stream.UnitCount,
			InvoiceCount:  stream.InvoiceCount,
		})
		total.Current = total.Current.Add(stream.NetAmount)
		total.UnitCount = total.UnitCount.Add(stream.UnitCount)
		total.InvoiceCount += stream.InvoiceCount
	}
	// Streams with prior revenue but none in the current period still appear,
	// reported as a full decline.
	for _, stream := range prior {
		if seen[stream.Stream] {
			continue
		}
		comparisons = append(comparisons, StreamComparison{
			Stream:        stream.Stream,
			Current:       decimal.Zero,
			Prior:         stream.NetAmount,
			PercentChange: percentChange(decimal.Zero, stream.NetAmount),
			UnitCount:     decimal.Zero,
		})
	}
	for _, stream := range prior {
		total.Prior = total.Prior.Add(stream.NetAmount)
	}
	total.PercentChange = percentChange(total.Current, total.Prior)

	sort.Slice(comparisons, func(i, j int) bool {
		return comparisons[i].Current.GreaterThan(comparisons[j].Current)
	})
	return &RevenueStreamReport{
		PeriodStart: opts.PeriodStart,
		PeriodEnd:   opts.PeriodEnd,
		Streams:     comparisons,
		Total:       total,
	}, nil
}

// Margins computes per-stream and combined gross margin for a period, matching
// revenue against cost-of-goods-sold posted to direct-cost accounts
func (s *ReportService) Margins(ctx context.Context, tenantID uuid.UUID, opts PeriodOptions) (*MarginReport, error) {
	if !opts.PeriodEnd.After(opts.PeriodStart) {
		return nil, fmt.Errorf("%w: period end %s is not after start %s",
			ErrAggregationInput, opts.PeriodEnd.Format(time.RFC3339), opts.PeriodStart.Format(time.RFC3339))
	}
	filter := ledger.RevenueFilter{
		Streams:     opts.Streams,
		PeriodStart: opts.PeriodStart,
		PeriodEnd:   opts.PeriodEnd,
	}

	revenue, err := s.store.RevenueByStream(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: period revenue: %v", ErrReportDataFetch, err)
	}
	cogs, err := s.store.COGSByStream(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: period cogs: %v", ErrReportDataFetch, err)
	}
	cogsByStream := make(map[string]decimal.Decimal, len(cogs))
	for _, c := range cogs {
		cogsByStream[c.Stream] = c.Amount
	}

	margins := make([]StreamMargin, 0, len(revenue))
	total := StreamMargin{
		Stream:       "total",
		GrossRevenue: decimal.Zero,
		NetRevenue:   decimal.Zero,
		COGS:         decimal.Zero,
		UnitCount:    decimal.Zero,
	}
	for _, stream := range revenue {
		streamCOGS := decimal.Zero
		if v, ok := cogsByStream[stream.Stream]; ok {
			streamCOGS = v
		}
		margin := buildMargin(stream.Stream, stream.GrossAmount, stream.NetAmount, streamCOGS, stream.UnitCount)
		margins = append(margins, margin)

		total.GrossRevenue = total.GrossRevenue.Add(stream.GrossAmount)
		total.NetRevenue = total.NetRevenue.Add(stream.NetAmount)
		total.COGS = total.COGS.Add(streamCOGS)
		total.UnitCount = total.UnitCount.Add(stream.UnitCount)
	}
	total = buildMargin(total.Stream, total.GrossRevenue, total.NetRevenue, total.COGS, total.UnitCount)

	sort.Slice(margins, func(i, j int) bool {
		return margins[i].NetRevenue.GreaterThan(margins[j].NetRevenue)
	})
	return &MarginReport{
		PeriodStart: opts.PeriodStart,
		PeriodEnd:   opts.PeriodEnd,
		Streams:     margins,
		Total:       total,
	}, nil
}

// Inventory reports tracked-item value, turnover and reorder alerts
func (s *ReportService) Inventory(ctx context.Context, tenantID uuid.UUID, opts InventoryOptions) (*InventoryReport, error) {
	asOf := s.asOf(opts.AsOf)

	items, err := s.store.TrackedItems(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: tracked items: %v", ErrReportDataFetch, err)
	}
	cogs, err := s.store.COGSTotal(ctx, tenantID, trailingPeriod(asOf, opts.TrailingDays))
	if err != nil {
		return nil, fmt.Errorf("%w: trailing cogs: %v", ErrReportDataFetch, err)
	}

	report := &InventoryReport{
		AsOf:          asOf,
		ItemCount:     len(items),
		TotalQuantity: decimal.Zero,
		TotalValue:    decimal.Zero,
		TrailingCOGS:  cogs,
		ReorderAlerts: []ReorderAlert{},
	}
	for i := range items {
		item := &items[i]
		if item.QuantityOnHand.IsNegative() {
			return nil, fmt.Errorf("%w: item %s has negative quantity on hand %s",
				ErrAggregationInput, item.Code, item.QuantityOnHand)
		}
		report.TotalQuantity = report.TotalQuantity.Add(item.QuantityOnHand)
		report.TotalValue = report.TotalValue.Add(item.TotalCostPool)
		if item.BelowReorderLevel() {
			report.ReorderAlerts = append(report.ReorderAlerts, ReorderAlert{
				ItemCode:       item.Code,
				Name:           item.Name,
				QuantityOnHand: item.QuantityOnHand,
				ReorderLevel:   item.ReorderLevel,
			})
		}
	}

	report.Turnover = ratioOrZero(cogs, report.TotalValue)
	report.DaysOnHand = annualizedDays(report.TotalValue, cogs)
	return report, nil
}

// OverdueContacts groups outstanding documents by counterparty, keeping only
// contacts with at least one document past the Current bucket
func (s *ReportService) OverdueContacts(ctx context.Context, tenantID uuid.UUID, opts AgingOptions) (*OverdueReport, error) {
	asOf := s.asOf(opts.AsOf)
	filter := ledger.OutstandingFilter{ContactCategory: opts.ContactCategory, AsOf: asOf}

	receivables, err := s.store.OutstandingReceivables(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: outstanding receivables: %v", ErrReportDataFetch, err)
	}
	payables, err := s.store.OutstandingPayables(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: outstanding payables: %v", ErrReportDataFetch, err)
	}

	customers, err := overdueByContact(asOf, receivables)
	if err != nil {
		return nil, err
	}
	suppliers, err := overdueByContact(asOf, payables)
	if err != nil {
		return nil, err
	}
	return &OverdueReport{AsOf: asOf, Customers: customers, Suppliers: suppliers}, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *ReportService) asOf(requested time.Time) time.Time {
	if requested.IsZero() {
		return s.now().UTC()
	}
	return requested.UTC()
}

func (s *ReportService) outstandingTotal(ctx context.Context, tenantID uuid.UUID, asOf time.Time, fetch outstandingFetch) (decimal.Decimal, error) {
	docs, err := fetch(ctx, tenantID, ledger.OutstandingFilter{AsOf: asOf})
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: outstanding documents: %v", ErrReportDataFetch, err)
	}
	total := decimal.Zero
	for _, doc := range docs {
		if doc.Outstanding.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: negative outstanding amount %s on document %s",
				ErrAggregationInput, doc.Outstanding, doc.InvoiceID)
		}
		total = total.Add(doc.Outstanding)
	}
	return total, nil
}

func overdueByContact(asOf time.Time, docs []ledger.OutstandingDocument) ([]OverdueContact, error) {
	type entry struct {
		contact OverdueContact
		overdue bool
	}
	byContact := make(map[uuid.UUID]*entry, len(docs))
	for _, doc := range docs {
		if doc.Outstanding.IsNegative() {
			return nil, fmt.Errorf("%w: negative outstanding amount %s on document %s",
				ErrAggregationInput, doc.Outstanding, doc.InvoiceID)
		}
		e, ok := byContact[doc.ContactID]
		if !ok {
			e = &entry{contact: OverdueContact{
				ContactID:   doc.ContactID,
				ContactName: doc.ContactName,
				Outstanding: decimal.Zero,
			}}
			byContact[doc.ContactID] = e
		}
		dpd := daysPastDue(asOf, doc.DueDate)
		e.contact.DocumentCount++
		e.contact.Outstanding = e.contact.Outstanding.Add(doc.Outstanding)
		if dpd > e.contact.OldestDaysPastDue {
			e.contact.OldestDaysPastDue = dpd
		}
		if BucketFor(dpd) != BucketCurrent {
			e.overdue = true
		}
	}

	out := make([]OverdueContact, 0, len(byContact))
	for _, e := range byContact {
		if e.overdue {
			out = append(out, e.contact)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Outstanding.Equal(out[j].Outstanding) {
			return out[i].ContactName < out[j].ContactName
		}
		return out[i].Outstanding.GreaterThan(out[j].Outstanding)
	})
	return out, nil
}

// daysPastDue counts whole days between the due date and the as-of instant.
// Documents without a due date are treated as current.
func daysPastDue(asOf, dueDate time.Time) int {
	if dueDate.IsZero() {
		return 0
	}
	return int(asOf.Sub(dueDate) / (24 * time.Hour))
}

func trailingPeriod(asOf time.Time, days int) ledger.RevenueFilter {
	if days <= 0 {
		days = 365
	}
	return ledger.RevenueFilter{
		PeriodStart: asOf.AddDate(0, 0, -days),
		PeriodEnd:   asOf,
	}
}

// percentChange implements ((new − old) / |old|) × 100, with a zero prior
// value mapping to 0 when the current value is also zero and 100 otherwise
func percentChange(current, prior decimal.Decimal) decimal.Decimal {
	if prior.IsZero() {
		if current.IsZero() {
			return decimal.Zero
		}
		return oneHundred
	}
	return current.Sub(prior).Div(prior.Abs()).Mul(oneHundred)
}

// annualizedDays scales amount/total to a 365-day year, multiplying before
// dividing so exact ratios stay exact
func annualizedDays(amount, total decimal.Decimal) decimal.Decimal {
	return ratioOrZero(amount.Mul(daysPerYear), total)
}

// ratioOrZero divides, returning zero on a zero denominator
func ratioOrZero(numerator, denominator decimal.Decimal) decimal.Decimal {
	if denominator.IsZero() {
		return decimal.Zero
	}
	return numerator.Div(denominator)
}

func buildMargin(stream string, gross, net, cogs, units decimal.Decimal) StreamMargin {
	profit := net.Sub(cogs)
	return StreamMargin{
		Stream:          stream,
		GrossRevenue:    gross,
		NetRevenue:      net,
		COGS:            cogs,
		GrossProfit:     profit,
		MarginPercent:   ratioOrZero(profit, net).Mul(oneHundred),
		UnitCount:       units,
		AvgSellingPrice: ratioOrZero(net, units),
	}
}
