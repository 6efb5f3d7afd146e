package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OutstandingFilter narrows outstanding-document queries. Nil/zero fields are
// not applied.
type OutstandingFilter struct {
	// ContactCategory restricts to contacts in the given category (optional)
	ContactCategory string
	// AsOf excludes documents updated after this instant; zero means now
	AsOf time.Time
}

// RevenueFilter narrows revenue and purchase queries
type RevenueFilter struct {
	// Streams restricts to the named revenue streams (optional)
	Streams []string
	// PeriodStart and PeriodEnd bound the document dates (inclusive start,
	// exclusive end)
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// OutstandingDocument is one unpaid invoice or bill as read back for
// aggregation
type OutstandingDocument struct {
	InvoiceID    uuid.UUID
	DocumentType string
	ContactID    uuid.UUID
	ContactName  string
	Outstanding  decimal.Decimal
	DueDate      time.Time
	Date         time.Time
}

// RevenueStreamTotal is aggregate revenue for one stream in one period
type RevenueStreamTotal struct {
	Stream       string
	NetAmount    decimal.Decimal
	GrossAmount  decimal.Decimal
	TaxAmount    decimal.Decimal
	UnitCount    decimal.Decimal
	InvoiceCount int64
}

// StreamCOGS is aggregate cost of goods sold attributed to one stream
type StreamCOGS struct {
	Stream string
	Amount decimal.Decimal
}

// Repository is the typed store contract for synchronized accounting rows.
// Upserts are keyed by (tenant, Xero identifier) with insert-or-replace
// semantics so redelivery is idempotent.
type Repository interface {
	// UpsertBatch writes one transformed page and returns the number of
	// records written
	UpsertBatch(ctx context.Context, tenantID uuid.UUID, batch *Batch) (int, error)

	// OutstandingReceivables returns unpaid ACCREC documents for a tenant
	OutstandingReceivables(ctx context.Context, tenantID uuid.UUID, filter OutstandingFilter) ([]OutstandingDocument, error)

	// OutstandingPayables returns unpaid ACCPAY documents for a tenant
	OutstandingPayables(ctx context.Context, tenantID uuid.UUID, filter OutstandingFilter) ([]OutstandingDocument, error)

	// RevenueByStream returns per-stream revenue totals over a period,
	// computed from ACCREC document lines
	RevenueByStream(ctx context.Context, tenantID uuid.UUID, filter RevenueFilter) ([]RevenueStreamTotal, error)

	// PurchasesTotal returns the total of ACCPAY documents over a period
	PurchasesTotal(ctx context.Context, tenantID uuid.UUID, filter RevenueFilter) (decimal.Decimal, error)

	// COGSTotal returns the cost-of-goods-sold total over a period, from
	// ACCPAY lines posted to direct-cost accounts
	COGSTotal(ctx context.Context, tenantID uuid.UUID, filter RevenueFilter) (decimal.Decimal, error)

	// COGSByStream splits the period COGS total across revenue streams
	COGSByStream(ctx context.Context, tenantID uuid.UUID, filter RevenueFilter) ([]StreamCOGS, error)

	// TrackedItems returns inventory-tracked items for a tenant
	TrackedItems(ctx context.Context, tenantID uuid.UUID) ([]Item, error)

	// COGSAccountCodes returns the codes of direct-cost accounts, used when
	// classifying purchase lines
	COGSAccountCodes(ctx context.Context, tenantID uuid.UUID) ([]string, error)
}
