package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finsight/backend/internal/domain/ledger"
)

// Synchronized accounting rows are keyed by (tenant_id, Xero identifier) so
// redelivered records replace in place.

// AccountModel is the persistence model for a chart-of-accounts row
type AccountModel struct {
	TenantID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code           string    `gorm:"type:varchar(50);index"`
	Name           string    `gorm:"type:varchar(255)"`
	Type           string    `gorm:"type:varchar(50);index"`
	Class          string    `gorm:"type:varchar(50)"`
	Status         string    `gorm:"type:varchar(50)"`
	Description    string    `gorm:"type:text"`
	UpdatedDateUTC time.Time `gorm:"not null;index"`
}

func (AccountModel) TableName() string { return "xero_accounts" }

func (m *AccountModel) ToDomain() ledger.Account {
	return ledger.Account{
		TenantID:       m.TenantID,
		AccountID:      m.AccountID,
		Code:           m.Code,
		Name:           m.Name,
		Type:           m.Type,
		Class:          m.Class,
		Status:         m.Status,
		Description:    m.Description,
		UpdatedDateUTC: m.UpdatedDateUTC,
	}
}

func (m *AccountModel) FromDomain(a *ledger.Account) {
	m.TenantID = a.TenantID
	m.AccountID = a.AccountID
	m.Code = a.Code
	m.Name = a.Name
	m.Type = a.Type
	m.Class = a.Class
	m.Status = a.Status
	m.Description = a.Description
	m.UpdatedDateUTC = a.UpdatedDateUTC
}

// ContactModel is the persistence model for a customer or supplier
type ContactModel struct {
	TenantID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	ContactID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name           string    `gorm:"type:varchar(255);index"`
	EmailAddress   string    `gorm:"type:varchar(255)"`
	IsCustomer     bool      `gorm:"not null;default:false"`
	IsSupplier     bool      `gorm:"not null;default:false"`
	Status         string    `gorm:"type:varchar(50)"`
	Category       string    `gorm:"type:varchar(32);index"`
	UpdatedDateUTC time.Time `gorm:"not null;index"`
}

func (ContactModel) TableName() string { return "xero_contacts" }

func (m *ContactModel) ToDomain() ledger.Contact {
	return ledger.Contact{
		TenantID:       m.TenantID,
		ContactID:      m.ContactID,
		Name:           m.Name,
		EmailAddress:   m.EmailAddress,
		IsCustomer:     m.IsCustomer,
		IsSupplier:     m.IsSupplier,
		Status:         m.Status,
		Category:       m.Category,
		UpdatedDateUTC: m.UpdatedDateUTC,
	}
}

func (m *ContactModel) FromDomain(c *ledger.Contact) {
	m.TenantID = c.TenantID
	m.ContactID = c.ContactID
	m.Name = c.Name
	m.EmailAddress = c.EmailAddress
	m.IsCustomer = c.IsCustomer
	m.IsSupplier = c.IsSupplier
	m.Status = c.Status
	m.Category = c.Category
	m.UpdatedDateUTC = c.UpdatedDateUTC
}

// ItemModel is the persistence model for a product or service
type ItemModel struct {
	TenantID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ItemID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Code                 string          `gorm:"type:varchar(50);index"`
	Name                 string          `gorm:"type:varchar(255)"`
	Description          string          `gorm:"type:text"`
	IsTrackedAsInventory bool            `gorm:"not null;default:false;index"`
	QuantityOnHand       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalCostPool        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReorderLevel         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PurchasePrice        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SalesPrice           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RevenueStream        string          `gorm:"type:varchar(50);index"`
	UpdatedDateUTC       time.Time       `gorm:"not null;index"`
}

func (ItemModel) TableName() string { return "xero_items" }

func (m *ItemModel) ToDomain() ledger.Item {
	return ledger.Item{
		TenantID:             m.TenantID,
		ItemID:               m.ItemID,
		Code:                 m.Code,
		Name:                 m.Name,
		Description:          m.Description,
		IsTrackedAsInventory: m.IsTrackedAsInventory,
		QuantityOnHand:       m.QuantityOnHand,
		TotalCostPool:        m.TotalCostPool,
		ReorderLevel:         m.ReorderLevel,
		PurchasePrice:        m.PurchasePrice,
		SalesPrice:           m.SalesPrice,
		RevenueStream:        m.RevenueStream,
		UpdatedDateUTC:       m.UpdatedDateUTC,
	}
}

func (m *ItemModel) FromDomain(i *ledger.Item) {
	m.TenantID = i.TenantID
	m.ItemID = i.ItemID
	m.Code = i.Code
	m.Name = i.Name
	m.Description = i.Description
	m.IsTrackedAsInventory = i.IsTrackedAsInventory
	m.QuantityOnHand = i.QuantityOnHand
	m.TotalCostPool = i.TotalCostPool
	m.ReorderLevel = i.ReorderLevel
	m.PurchasePrice = i.PurchasePrice
	m.SalesPrice = i.SalesPrice
	m.RevenueStream = i.RevenueStream
	m.UpdatedDateUTC = i.UpdatedDateUTC
}

// InvoiceModel is the persistence model for an invoice or bill header
type InvoiceModel struct {
	TenantID       uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DocumentType   string          `gorm:"type:varchar(16);not null;index"`
	InvoiceNumber  string          `gorm:"type:varchar(100);index"`
	ContactID      uuid.UUID       `gorm:"type:uuid;index"`
	ContactName    string          `gorm:"type:varchar(255)"`
	Status         string          `gorm:"type:varchar(32);not null;index"`
	SubTotal       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalTax       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Total          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AmountDue      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AmountPaid     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CurrencyCode   string          `gorm:"type:varchar(8)"`
	Date           time.Time       `gorm:"index"`
	DueDate        time.Time       `gorm:"index"`
	UpdatedDateUTC time.Time       `gorm:"not null;index"`
}

func (InvoiceModel) TableName() string { return "xero_invoices" }

func (m *InvoiceModel) ToDomain() ledger.Invoice {
	return ledger.Invoice{
		TenantID:       m.TenantID,
		InvoiceID:      m.InvoiceID,
		DocumentType:   m.DocumentType,
		InvoiceNumber:  m.InvoiceNumber,
		ContactID:      m.ContactID,
		ContactName:    m.ContactName,
		Status:         m.Status,
		SubTotal:       m.SubTotal,
		TotalTax:       m.TotalTax,
		Total:          m.Total,
		AmountDue:      m.AmountDue,
		AmountPaid:     m.AmountPaid,
		CurrencyCode:   m.CurrencyCode,
		Date:           m.Date,
		DueDate:        m.DueDate,
		UpdatedDateUTC: m.UpdatedDateUTC,
	}
}

func (m *InvoiceModel) FromDomain(inv *ledger.Invoice) {
	m.TenantID = inv.TenantID
	m.InvoiceID = inv.InvoiceID
	m.DocumentType = inv.DocumentType
	m.InvoiceNumber = inv.InvoiceNumber
	m.ContactID = inv.ContactID
	m.ContactName = inv.ContactName
	m.Status = inv.Status
	m.SubTotal = inv.SubTotal
	m.TotalTax = inv.TotalTax
	m.Total = inv.Total
	m.AmountDue = inv.AmountDue
	m.AmountPaid = inv.AmountPaid
	m.CurrencyCode = inv.CurrencyCode
	m.Date = inv.Date
	m.DueDate = inv.DueDate
	m.UpdatedDateUTC = inv.UpdatedDateUTC
}

// InvoiceLineModel is the persistence model for a flattened document line
type InvoiceLineModel struct {
	TenantID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	LineItemID    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description   string          `gorm:"type:text"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LineAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AccountCode   string          `gorm:"type:varchar(50);index"`
	ItemCode      string          `gorm:"type:varchar(50);index"`
	RevenueStream string          `gorm:"type:varchar(50);index"`
}

func (InvoiceLineModel) TableName() string { return "xero_invoice_lines" }

func (m *InvoiceLineModel) ToDomain() ledger.InvoiceLine {
	return ledger.InvoiceLine{
		TenantID:      m.TenantID,
		LineItemID:    m.LineItemID,
		InvoiceID:     m.InvoiceID,
		Description:   m.Description,
		Quantity:      m.Quantity,
		UnitAmount:    m.UnitAmount,
		LineAmount:    m.LineAmount,
		TaxAmount:     m.TaxAmount,
		AccountCode:   m.AccountCode,
		ItemCode:      m.ItemCode,
		RevenueStream: m.RevenueStream,
	}
}

func (m *InvoiceLineModel) FromDomain(l *ledger.InvoiceLine) {
	m.TenantID = l.TenantID
	m.LineItemID = l.LineItemID
	m.InvoiceID = l.InvoiceID
	m.Description = l.Description
	m.Quantity = l.Quantity
	m.UnitAmount = l.UnitAmount
	m.LineAmount = l.LineAmount
	m.TaxAmount = l.TaxAmount
	m.AccountCode = l.AccountCode
	m.ItemCode = l.ItemCode
	m.RevenueStream = l.RevenueStream
}

// PaymentModel is the persistence model for an applied payment
type PaymentModel struct {
	TenantID       uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PaymentID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID      uuid.UUID       `gorm:"type:uuid;index"`
	AccountID      uuid.UUID       `gorm:"type:uuid"`
	Date           time.Time       `gorm:"index"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CurrencyRate   decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	PaymentType    string          `gorm:"type:varchar(32)"`
	Status         string          `gorm:"type:varchar(32);index"`
	UpdatedDateUTC time.Time       `gorm:"not null;index"`
}

func (PaymentModel) TableName() string { return "xero_payments" }

func (m *PaymentModel) ToDomain() ledger.Payment {
	return ledger.Payment{
		TenantID:       m.TenantID,
		PaymentID:      m.PaymentID,
		InvoiceID:      m.InvoiceID,
		AccountID:      m.AccountID,
		Date:           m.Date,
		Amount:         m.Amount,
		CurrencyRate:   m.CurrencyRate,
		PaymentType:    m.PaymentType,
		Status:         m.Status,
		UpdatedDateUTC: m.UpdatedDateUTC,
	}
}

func (m *PaymentModel) FromDomain(p *ledger.Payment) {
	m.TenantID = p.TenantID
	m.PaymentID = p.PaymentID
	m.InvoiceID = p.InvoiceID
	m.AccountID = p.AccountID
	m.Date = p.Date
	m.Amount = p.Amount
	m.CurrencyRate = p.CurrencyRate
	m.PaymentType = p.PaymentType
	m.Status = p.Status
	m.UpdatedDateUTC = p.UpdatedDateUTC
}

// CreditNoteModel is the persistence model for a credit note
type CreditNoteModel struct {
	TenantID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CreditNoteID    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DocumentType    string          `gorm:"type:varchar(16);not null;index"`
	ContactID       uuid.UUID       `gorm:"type:uuid;index"`
	Status          string          `gorm:"type:varchar(32);index"`
	Total           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RemainingCredit decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Date            time.Time       `gorm:"index"`
	UpdatedDateUTC  time.Time       `gorm:"not null;index"`
}

func (CreditNoteModel) TableName() string { return "xero_credit_notes" }

func (m *CreditNoteModel) ToDomain() ledger.CreditNote {
	return ledger.CreditNote{
		TenantID:        m.TenantID,
		CreditNoteID:    m.CreditNoteID,
		DocumentType:    m.DocumentType,
		ContactID:       m.ContactID,
		Status:          m.Status,
		Total:           m.Total,
		RemainingCredit: m.RemainingCredit,
		Date:            m.Date,
		UpdatedDateUTC:  m.UpdatedDateUTC,
	}
}

func (m *CreditNoteModel) FromDomain(c *ledger.CreditNote) {
	m.TenantID = c.TenantID
	m.CreditNoteID = c.CreditNoteID
	m.DocumentType = c.DocumentType
	m.ContactID = c.ContactID
	m.Status = c.Status
	m.Total = c.Total
	m.RemainingCredit = c.RemainingCredit
	m.Date = c.Date
	m.UpdatedDateUTC = c.UpdatedDateUTC
}

// BankTransactionModel is the persistence model for a spend/receive money row
type BankTransactionModel struct {
	TenantID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BankTransactionID uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Type              string          `gorm:"type:varchar(32);index"`
	ContactID         uuid.UUID       `gorm:"type:uuid;index"`
	BankAccountCode   string          `gorm:"type:varchar(50)"`
	Status            string          `gorm:"type:varchar(32);index"`
	Total             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Date              time.Time       `gorm:"index"`
	UpdatedDateUTC    time.Time       `gorm:"not null;index"`
}

func (BankTransactionModel) TableName() string { return "xero_bank_transactions" }

func (m *BankTransactionModel) ToDomain() ledger.BankTransaction {
	return ledger.BankTransaction{
		TenantID:          m.TenantID,
		BankTransactionID: m.BankTransactionID,
		Type:              m.Type,
		ContactID:         m.ContactID,
		BankAccountCode:   m.BankAccountCode,
		Status:            m.Status,
		Total:             m.Total,
		Date:              m.Date,
		UpdatedDateUTC:    m.UpdatedDateUTC,
	}
}

func (m *BankTransactionModel) FromDomain(b *ledger.BankTransaction) {
	m.TenantID = b.TenantID
	m.BankTransactionID = b.BankTransactionID
	m.Type = b.Type
	m.ContactID = b.ContactID
	m.BankAccountCode = b.BankAccountCode
	m.Status = b.Status
	m.Total = b.Total
	m.Date = b.Date
	m.UpdatedDateUTC = b.UpdatedDateUTC
}

// ManualJournalModel is the persistence model for a manual journal header
type ManualJournalModel struct {
	TenantID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ManualJournalID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Narration       string    `gorm:"type:text"`
	Status          string    `gorm:"type:varchar(32);index"`
	Date            time.Time `gorm:"index"`
	UpdatedDateUTC  time.Time `gorm:"not null;index"`
}

func (ManualJournalModel) TableName() string { return "xero_manual_journals" }

func (m *ManualJournalModel) ToDomain() ledger.ManualJournal {
	return ledger.ManualJournal{
		TenantID:        m.TenantID,
		ManualJournalID: m.ManualJournalID,
		Narration:       m.Narration,
		Status:          m.Status,
		Date:            m.Date,
		UpdatedDateUTC:  m.UpdatedDateUTC,
	}
}

func (m *ManualJournalModel) FromDomain(j *ledger.ManualJournal) {
	m.TenantID = j.TenantID
	m.ManualJournalID = j.ManualJournalID
	m.Narration = j.Narration
	m.Status = j.Status
	m.Date = j.Date
	m.UpdatedDateUTC = j.UpdatedDateUTC
}
