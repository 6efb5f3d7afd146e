package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/finsight/backend/internal/domain/ledger"
	"github.com/finsight/backend/internal/infrastructure/persistence/models"
)

// revenueStatuses are the document statuses counted by revenue, purchase and
// COGS aggregations
var revenueStatuses = []string{ledger.InvoiceStatusAuthorised, ledger.InvoiceStatusPaid}

// GormLedgerRepository implements ledger.Repository using GORM
type GormLedgerRepository struct {
	db *gorm.DB
}

var _ ledger.Repository = (*GormLedgerRepository)(nil)

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// ---------------------------------------------------------------------------
// Upserts
// ---------------------------------------------------------------------------

// upsertAll is the insert-or-replace clause for rows keyed by
// (tenant_id, entity id)
var upsertAll = clause.OnConflict{UpdateAll: true}

// UpsertBatch writes one transformed page inside a single transaction and
// returns the number of records written. Re-fetched boundary records replace
// their previous rows, keeping redelivery idempotent.
func (r *GormLedgerRepository) UpsertBatch(ctx context.Context, tenantID uuid.UUID, batch *ledger.Batch) (int, error) {
	if batch.Count() == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch batch.EntityType {
		case ledger.EntityAccounts:
			return upsertAccounts(tx, batch.Accounts)
		case ledger.EntityContacts:
			return upsertContacts(tx, batch.Contacts)
		case ledger.EntityItems:
			return upsertItems(tx, batch.Items)
		case ledger.EntityInvoices, ledger.EntityBills:
			return upsertInvoices(tx, batch.Invoices)
		case ledger.EntityPayments:
			return upsertPayments(tx, batch.Payments)
		case ledger.EntityCreditNotes:
			return upsertCreditNotes(tx, batch.CreditNotes)
		case ledger.EntityBankTransactions:
			return upsertBankTransactions(tx, batch.BankTransactions)
		case ledger.EntityManualJournals:
			return upsertManualJournals(tx, batch.ManualJournals)
		default:
			return nil
		}
	})
	if err != nil {
		return 0, err
	}
	return batch.Count(), nil
}

func upsertAccounts(tx *gorm.DB, rows []ledger.Account) error {
	batch := make([]models.AccountModel, len(rows))
	for i := range rows {
		batch[i].FromDomain(&rows[i])
	}
	return tx.Clauses(upsertAll).Create(&batch).Error
}

func upsertContacts(tx *gorm.DB, rows []ledger.Contact) error {
	batch := make([]models.ContactModel, len(rows))
	for i := range rows {
		batch[i].FromDomain(&rows[i])
	}
	return tx.Clauses(upsertAll).Create(&batch).Error
}

func upsertItems(tx *gorm.DB, rows []ledger.Item) error {
	batch := make([]models.ItemModel, len(rows))
	for i := range rows {
		batch[i].FromDomain(&rows[i])
	}
	return tx.Clauses(upsertAll).Create(&batch).Error
}

// upsertInvoices replaces each document's lines wholesale: lines carry no
// watermark of their own, so a redelivered header rewrites its line set
func upsertInvoices(tx *gorm.DB, rows []ledger.Invoice) error {
	headers := make([]models.InvoiceModel, len(rows))
	invoiceIDs := make([]uuid.UUID, len(rows))
	var lines []models.InvoiceLineModel
	for i := range rows {
		headers[i].FromDomain(&rows[i])
		invoiceIDs[i] = rows[i].InvoiceID
		for j := range rows[i].Lines {
			var lm models.InvoiceLineModel
			lm.FromDomain(&rows[i].Lines[j])
			lines = append(lines, lm)
		}
	}
	if err := tx.Clauses(upsertAll).Create(&headers).Error; err != nil {
		return err
	}
	if err := tx.Where("tenant_id = ? AND invoice_id IN ?", rows[0].TenantID, invoiceIDs).
		Delete(&models.InvoiceLineModel{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return tx.Clauses(upsertAll).Create(&lines).Error
}

func upsertPayments(tx *gorm.DB, rows []ledger.Payment) error {
	batch := make([]models.PaymentModel, len(rows))
	for i := range rows {
		batch[i].FromDomain(&rows[i])
	}
	return tx.Clauses(upsertAll).Create(&batch).Error
}

func upsertCreditNotes(tx *gorm.DB, rows []ledger.CreditNote) error {
	batch := make([]models.CreditNoteModel, len(rows))
	for i := range rows {
		batch[i].FromDomain(&rows[i])
	}
	return tx.Clauses(upsertAll).Create(&batch).Error
}

func upsertBankTransactions(tx *gorm.DB, rows []ledger.BankTransaction) error {
	batch := make([]models.BankTransactionModel, len(rows))
	for i := range rows {
		batch[i].FromDomain(&rows[i])
	}
	return tx.Clauses(upsertAll).Create(&batch).Error
}

func upsertManualJournals(tx *gorm.DB, rows []ledger.ManualJournal) error {
	batch := make([]models.ManualJournalModel, len(rows))
	for i := range rows {
		batch[i].FromDomain(&rows[i])
	}
	return tx.Clauses(upsertAll).Create(&batch).Error
}

// ---------------------------------------------------------------------------
// Aggregation reads
// ---------------------------------------------------------------------------

// OutstandingReceivables returns unpaid ACCREC documents for a tenant
func (r *GormLedgerRepository) OutstandingReceivables(ctx context.Context, tenantID uuid.UUID, filter ledger.OutstandingFilter) ([]ledger.OutstandingDocument, error) {
	return r.outstanding(ctx, tenantID, ledger.DocumentTypeReceivable, filter)
}

// OutstandingPayables returns unpaid ACCPAY documents for a tenant
func (r *GormLedgerRepository) OutstandingPayables(ctx context.Context, tenantID uuid.UUID, filter ledger.OutstandingFilter) ([]ledger.OutstandingDocument, error) {
	return r.outstanding(ctx, tenantID, ledger.DocumentTypePayable, filter)
}

func (r *GormLedgerRepository) outstanding(ctx context.Context, tenantID uuid.UUID, docType string, filter ledger.OutstandingFilter) ([]ledger.OutstandingDocument, error) {
	query := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("xero_invoices.invoice_id, xero_invoices.document_type, xero_invoices.contact_id, xero_invoices.contact_name, xero_invoices.amount_due AS outstanding, xero_invoices.due_date, xero_invoices.date").
		Where("xero_invoices.tenant_id = ? AND xero_invoices.document_type = ?", tenantID, docType).
		Where("xero_invoices.status = ? AND xero_invoices.amount_due > 0", ledger.InvoiceStatusAuthorised)

	if filter.ContactCategory != "" {
		query = query.Joins("JOIN xero_contacts ON xero_contacts.tenant_id = xero_invoices.tenant_id AND xero_contacts.contact_id = xero_invoices.contact_id").
			Where("xero_contacts.category IN ?", categoryMatches(filter.ContactCategory))
	}
	if !filter.AsOf.IsZero() {
		query = query.Where("xero_invoices.updated_date_utc <= ?", filter.AsOf)
	}

	var docs []ledger.OutstandingDocument
	if err := query.Order("xero_invoices.due_date ASC").Scan(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// categoryMatches expands a requested category to stored values: contacts
// flagged as both customer and supplier match either side
func categoryMatches(category string) []string {
	switch category {
	case ledger.ContactCategoryCustomer, ledger.ContactCategorySupplier:
		return []string{category, ledger.ContactCategoryBoth}
	default:
		return []string{category}
	}
}

// RevenueByStream returns per-stream revenue totals over a period
func (r *GormLedgerRepository) RevenueByStream(ctx context.Context, tenantID uuid.UUID, filter ledger.RevenueFilter) ([]ledger.RevenueStreamTotal, error) {
	query := r.db.WithContext(ctx).
		Table("xero_invoice_lines").
		Select(`xero_invoice_lines.revenue_stream AS stream,
			COALESCE(SUM(xero_invoice_lines.line_amount), 0) AS net_amount,
			COALESCE(SUM(xero_invoice_lines.line_amount + xero_invoice_lines.tax_amount), 0) AS gross_amount,
			COALESCE(SUM(xero_invoice_lines.tax_amount), 0) AS tax_amount,
			COALESCE(SUM(xero_invoice_lines.quantity), 0) AS unit_count,
			COUNT(DISTINCT xero_invoice_lines.invoice_id) AS invoice_count`).
		Joins("JOIN xero_invoices ON xero_invoices.tenant_id = xero_invoice_lines.tenant_id AND xero_invoices.invoice_id = xero_invoice_lines.invoice_id").
		Where("xero_invoice_lines.tenant_id = ?", tenantID).
		Where("xero_invoices.document_type = ?", ledger.DocumentTypeReceivable).
		Where("xero_invoices.status IN ?", revenueStatuses)

	query = applyPeriod(query, "xero_invoices.date", filter.PeriodStart, filter.PeriodEnd)
	if len(filter.Streams) > 0 {
		query = query.Where("xero_invoice_lines.revenue_stream IN ?", filter.Streams)
	}

	var totals []ledger.RevenueStreamTotal
	if err := query.Group("xero_invoice_lines.revenue_stream").
		Order("net_amount DESC").
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}

// PurchasesTotal returns the total of ACCPAY documents over a period
func (r *GormLedgerRepository) PurchasesTotal(ctx context.Context, tenantID uuid.UUID, filter ledger.RevenueFilter) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("COALESCE(SUM(sub_total), 0)").
		Where("tenant_id = ? AND document_type = ? AND status IN ?",
			tenantID, ledger.DocumentTypePayable, revenueStatuses)
	query = applyPeriod(query, "date", filter.PeriodStart, filter.PeriodEnd)

	var total decimal.Decimal
	if err := query.Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// COGSTotal returns the cost-of-goods-sold total over a period, from ACCPAY
// lines posted to direct-cost accounts
func (r *GormLedgerRepository) COGSTotal(ctx context.Context, tenantID uuid.UUID, filter ledger.RevenueFilter) (decimal.Decimal, error) {
	query := r.cogsLines(ctx, tenantID, filter).
		Select("COALESCE(SUM(xero_invoice_lines.line_amount), 0)")

	var total decimal.Decimal
	if err := query.Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// COGSByStream splits the period COGS total across revenue streams
func (r *GormLedgerRepository) COGSByStream(ctx context.Context, tenantID uuid.UUID, filter ledger.RevenueFilter) ([]ledger.StreamCOGS, error) {
	query := r.cogsLines(ctx, tenantID, filter).
		Select("xero_invoice_lines.revenue_stream AS stream, COALESCE(SUM(xero_invoice_lines.line_amount), 0) AS amount").
		Group("xero_invoice_lines.revenue_stream")

	var rows []ledger.StreamCOGS
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// cogsLines is the shared base query for COGS aggregations: payable document
// lines posted to direct-cost account codes
func (r *GormLedgerRepository) cogsLines(ctx context.Context, tenantID uuid.UUID, filter ledger.RevenueFilter) *gorm.DB {
	cogsCodes := r.db.Model(&models.AccountModel{}).
		Select("code").
		Where("tenant_id = ? AND type = ?", tenantID, ledger.AccountTypeDirectCosts)

	query := r.db.WithContext(ctx).
		Table("xero_invoice_lines").
		Joins("JOIN xero_invoices ON xero_invoices.tenant_id = xero_invoice_lines.tenant_id AND xero_invoices.invoice_id = xero_invoice_lines.invoice_id").
		Where("xero_invoice_lines.tenant_id = ?", tenantID).
		Where("xero_invoices.document_type = ?", ledger.DocumentTypePayable).
		Where("xero_invoices.status IN ?", revenueStatuses).
		Where("xero_invoice_lines.account_code IN (?)", cogsCodes)

	query = applyPeriod(query, "xero_invoices.date", filter.PeriodStart, filter.PeriodEnd)
	if len(filter.Streams) > 0 {
		query = query.Where("xero_invoice_lines.revenue_stream IN ?", filter.Streams)
	}
	return query
}

// TrackedItems returns inventory-tracked items for a tenant
func (r *GormLedgerRepository) TrackedItems(ctx context.Context, tenantID uuid.UUID) ([]ledger.Item, error) {
	var itemModels []models.ItemModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_tracked_as_inventory = ?", tenantID, true).
		Order("code ASC").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}
	items := make([]ledger.Item, len(itemModels))
	for i := range itemModels {
		items[i] = itemModels[i].ToDomain()
	}
	return items, nil
}

// COGSAccountCodes returns the codes of direct-cost accounts
func (r *GormLedgerRepository) COGSAccountCodes(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	var codes []string
	if err := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("tenant_id = ? AND type = ?", tenantID, ledger.AccountTypeDirectCosts).
		Order("code ASC").
		Pluck("code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// applyPeriod bounds a date column: inclusive start, exclusive end
func applyPeriod(query *gorm.DB, column string, start, end time.Time) *gorm.DB {
	if !start.IsZero() {
		query = query.Where(column+" >= ?", start)
	}
	if !end.IsZero() {
		query = query.Where(column+" < ?", end)
	}
	return query
}
