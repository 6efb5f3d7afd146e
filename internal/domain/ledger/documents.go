package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Document types as reported by Xero: ACCREC documents are receivables
// (sales invoices), ACCPAY documents are payables (bills).
const (
	DocumentTypeReceivable = "ACCREC"
	DocumentTypePayable    = "ACCPAY"
)

// Invoice statuses relevant to aggregation
const (
	InvoiceStatusAuthorised = "AUTHORISED"
	InvoiceStatusPaid       = "PAID"
	InvoiceStatusVoided     = "VOIDED"
	InvoiceStatusDeleted    = "DELETED"
)

// Invoice is one synchronized sales invoice or bill. Both the invoices and
// bills entity types land here, distinguished by DocumentType, because Xero
// serves both from the same endpoint.
type Invoice struct {
	TenantID       uuid.UUID
	InvoiceID      uuid.UUID
	DocumentType   string
	InvoiceNumber  string
	ContactID      uuid.UUID
	ContactName    string
	Status         string
	SubTotal       decimal.Decimal
	TotalTax       decimal.Decimal
	Total          decimal.Decimal
	AmountDue      decimal.Decimal
	AmountPaid     decimal.Decimal
	CurrencyCode   string
	Date           time.Time
	DueDate        time.Time
	UpdatedDateUTC time.Time
	Lines          []InvoiceLine
}

// Outstanding reports whether the document still carries an unpaid balance
func (inv *Invoice) Outstanding() bool {
	return inv.Status == InvoiceStatusAuthorised && inv.AmountDue.IsPositive()
}

// DaysPastDue returns how many days past the due date the document is at the
// given instant; zero or negative means not yet due
func (inv *Invoice) DaysPastDue(asOf time.Time) int {
	return int(asOf.Sub(inv.DueDate).Hours() / 24)
}

// InvoiceLine is one flattened document line. LineItemID is the Xero line
// identifier; the invoice identifier ties the line back to its document.
type InvoiceLine struct {
	TenantID      uuid.UUID
	LineItemID    uuid.UUID
	InvoiceID     uuid.UUID
	Description   string
	Quantity      decimal.Decimal
	UnitAmount    decimal.Decimal
	LineAmount    decimal.Decimal
	TaxAmount     decimal.Decimal
	AccountCode   string
	ItemCode      string
	RevenueStream string
}

// Payment is one synchronized payment applied to an invoice or bill
type Payment struct {
	TenantID       uuid.UUID
	PaymentID      uuid.UUID
	InvoiceID      uuid.UUID
	AccountID      uuid.UUID
	Date           time.Time
	Amount         decimal.Decimal
	CurrencyRate   decimal.Decimal
	PaymentType    string
	Status         string
	UpdatedDateUTC time.Time
}

// CreditNote is one synchronized credit note
type CreditNote struct {
	TenantID        uuid.UUID
	CreditNoteID    uuid.UUID
	DocumentType    string
	ContactID       uuid.UUID
	Status          string
	Total           decimal.Decimal
	RemainingCredit decimal.Decimal
	Date            time.Time
	UpdatedDateUTC  time.Time
}

// BankTransaction is one synchronized spend or receive money transaction
type BankTransaction struct {
	TenantID          uuid.UUID
	BankTransactionID uuid.UUID
	Type              string
	ContactID         uuid.UUID
	BankAccountCode   string
	Status            string
	Total             decimal.Decimal
	Date              time.Time
	UpdatedDateUTC    time.Time
}

// ManualJournal is one synchronized manual journal header
type ManualJournal struct {
	TenantID        uuid.UUID
	ManualJournalID uuid.UUID
	Narration       string
	Status          string
	Date            time.Time
	UpdatedDateUTC  time.Time
}
