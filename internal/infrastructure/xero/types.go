package xero

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Wire date format
// ---------------------------------------------------------------------------

// Xero serializes timestamps as "/Date(1539632904577+0000)/" — milliseconds
// since the Unix epoch plus a display offset. The millis are already UTC.
var wireDatePattern = regexp.MustCompile(`^/Date\((-?\d+)(?:[+-]\d{4})?\)/$`)

// WireTime wraps time.Time with Xero's .NET-style JSON encoding.
type WireTime struct {
	time.Time
}

func (w *WireTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		w.Time = time.Time{}
		return nil
	}
	if m := wireDatePattern.FindStringSubmatch(s); m != nil {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return fmt.Errorf("xero: invalid wire date %q: %w", s, err)
		}
		w.Time = time.UnixMilli(ms).UTC()
		return nil
	}
	// Some endpoints return plain ISO 8601 instead
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			w.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("xero: unrecognized wire date %q", s)
}

// ---------------------------------------------------------------------------
// OAuth wire types
// ---------------------------------------------------------------------------

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// TenantConnection is one organisation the user granted access to.
type TenantConnection struct {
	ConnectionID string `json:"id"`
	TenantID     string `json:"tenantId"`
	TenantType   string `json:"tenantType"`
	TenantName   string `json:"tenantName"`
}

// ---------------------------------------------------------------------------
// Accounting API wire types
// ---------------------------------------------------------------------------

type wireAccount struct {
	AccountID      string   `json:"AccountID"`
	Code           string   `json:"Code"`
	Name           string   `json:"Name"`
	Type           string   `json:"Type"`
	Class          string   `json:"Class"`
	Status         string   `json:"Status"`
	Description    string   `json:"Description"`
	SystemAccount  string   `json:"SystemAccount"`
	UpdatedDateUTC WireTime `json:"UpdatedDateUTC"`
}

type wireContact struct {
	ContactID      string   `json:"ContactID"`
	Name           string   `json:"Name"`
	EmailAddress   string   `json:"EmailAddress"`
	ContactStatus  string   `json:"ContactStatus"`
	IsCustomer     bool     `json:"IsCustomer"`
	IsSupplier     bool     `json:"IsSupplier"`
	UpdatedDateUTC WireTime `json:"UpdatedDateUTC"`
}

type wireItemDetails struct {
	UnitPrice       decimal.Decimal `json:"UnitPrice"`
	AccountCode     string          `json:"AccountCode"`
	COGSAccountCode string          `json:"COGSAccountCode"`
}

type wireItem struct {
	ItemID               string          `json:"ItemID"`
	Code                 string          `json:"Code"`
	Name                 string          `json:"Name"`
	Description          string          `json:"Description"`
	IsTrackedAsInventory bool            `json:"IsTrackedAsInventory"`
	IsSold               bool            `json:"IsSold"`
	IsPurchased          bool            `json:"IsPurchased"`
	QuantityOnHand       decimal.Decimal `json:"QuantityOnHand"`
	TotalCostPool        decimal.Decimal `json:"TotalCostPool"`
	SalesDetails         wireItemDetails `json:"SalesDetails"`
	PurchaseDetails      wireItemDetails `json:"PurchaseDetails"`
	UpdatedDateUTC       WireTime        `json:"UpdatedDateUTC"`
}

type wireLineItem struct {
	LineItemID  string          `json:"LineItemID"`
	Description string          `json:"Description"`
	Quantity    decimal.Decimal `json:"Quantity"`
	UnitAmount  decimal.Decimal `json:"UnitAmount"`
	ItemCode    string          `json:"ItemCode"`
	AccountCode string          `json:"AccountCode"`
	TaxAmount   decimal.Decimal `json:"TaxAmount"`
	LineAmount  decimal.Decimal `json:"LineAmount"`
}

type wireContactRef struct {
	ContactID string `json:"ContactID"`
	Name      string `json:"Name"`
}

type wireInvoice struct {
	InvoiceID      string          `json:"InvoiceID"`
	InvoiceNumber  string          `json:"InvoiceNumber"`
	Type           string          `json:"Type"`
	Contact        wireContactRef  `json:"Contact"`
	Status         string          `json:"Status"`
	LineItems      []wireLineItem  `json:"LineItems"`
	SubTotal       decimal.Decimal `json:"SubTotal"`
	TotalTax       decimal.Decimal `json:"TotalTax"`
	Total          decimal.Decimal `json:"Total"`
	AmountDue      decimal.Decimal `json:"AmountDue"`
	AmountPaid     decimal.Decimal `json:"AmountPaid"`
	AmountCredited decimal.Decimal `json:"AmountCredited"`
	CurrencyCode   string          `json:"CurrencyCode"`
	Date           WireTime        `json:"Date"`
	DueDate        WireTime        `json:"DueDate"`
	UpdatedDateUTC WireTime        `json:"UpdatedDateUTC"`
}

type wireInvoiceRef struct {
	InvoiceID     string `json:"InvoiceID"`
	InvoiceNumber string `json:"InvoiceNumber"`
}

type wireAccountRef struct {
	AccountID string `json:"AccountID"`
	Code      string `json:"Code"`
}

type wirePayment struct {
	PaymentID      string          `json:"PaymentID"`
	Invoice        wireInvoiceRef  `json:"Invoice"`
	Account        wireAccountRef  `json:"Account"`
	Amount         decimal.Decimal `json:"Amount"`
	CurrencyRate   decimal.Decimal `json:"CurrencyRate"`
	Date           WireTime        `json:"Date"`
	PaymentType    string          `json:"PaymentType"`
	Status         string          `json:"Status"`
	Reference      string          `json:"Reference"`
	UpdatedDateUTC WireTime        `json:"UpdatedDateUTC"`
}

type wireCreditNote struct {
	CreditNoteID     string          `json:"CreditNoteID"`
	CreditNoteNumber string          `json:"CreditNoteNumber"`
	Type             string          `json:"Type"`
	Contact          wireContactRef  `json:"Contact"`
	Status           string          `json:"Status"`
	SubTotal         decimal.Decimal `json:"SubTotal"`
	TotalTax         decimal.Decimal `json:"TotalTax"`
	Total            decimal.Decimal `json:"Total"`
	RemainingCredit  decimal.Decimal `json:"RemainingCredit"`
	Date             WireTime        `json:"Date"`
	UpdatedDateUTC   WireTime        `json:"UpdatedDateUTC"`
}

type wireBankTransaction struct {
	BankTransactionID string          `json:"BankTransactionID"`
	Type              string          `json:"Type"`
	Contact           wireContactRef  `json:"Contact"`
	BankAccount       wireAccountRef  `json:"BankAccount"`
	Status            string          `json:"Status"`
	IsReconciled      bool            `json:"IsReconciled"`
	SubTotal          decimal.Decimal `json:"SubTotal"`
	TotalTax          decimal.Decimal `json:"TotalTax"`
	Total             decimal.Decimal `json:"Total"`
	Date              WireTime        `json:"Date"`
	UpdatedDateUTC    WireTime        `json:"UpdatedDateUTC"`
}

type wireJournalLine struct {
	AccountCode string          `json:"AccountCode"`
	Description string          `json:"Description"`
	LineAmount  decimal.Decimal `json:"LineAmount"`
	TaxAmount   decimal.Decimal `json:"TaxAmount"`
}

type wireManualJournal struct {
	ManualJournalID string            `json:"ManualJournalID"`
	Narration       string            `json:"Narration"`
	Status          string            `json:"Status"`
	JournalLines    []wireJournalLine `json:"JournalLines"`
	Date            WireTime          `json:"Date"`
	UpdatedDateUTC  WireTime          `json:"UpdatedDateUTC"`
}

// envelope is the top-level shape every accounting endpoint returns; only the
// field for the requested entity is populated.
type envelope struct {
	Accounts         []wireAccount         `json:"Accounts"`
	Contacts         []wireContact         `json:"Contacts"`
	Items            []wireItem            `json:"Items"`
	Invoices         []wireInvoice         `json:"Invoices"`
	Payments         []wirePayment         `json:"Payments"`
	CreditNotes      []wireCreditNote      `json:"CreditNotes"`
	BankTransactions []wireBankTransaction `json:"BankTransactions"`
	ManualJournals   []wireManualJournal   `json:"ManualJournals"`
}

type apiErrorResponse struct {
	Type    string `json:"Type"`
	Title   string `json:"Title"`
	Detail  string `json:"Detail"`
	Message string `json:"Message"`
}
