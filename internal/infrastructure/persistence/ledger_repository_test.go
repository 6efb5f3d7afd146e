package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/backend/internal/domain/ledger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedInvoice(tenantID uuid.UUID, docType, status string, amountDue string, date, due time.Time, lines ...ledger.InvoiceLine) ledger.Invoice {
	inv := ledger.Invoice{
		TenantID:       tenantID,
		InvoiceID:      uuid.New(),
		DocumentType:   docType,
		Status:         status,
		AmountDue:      dec(amountDue),
		SubTotal:       dec(amountDue),
		Total:          dec(amountDue),
		Date:           date,
		DueDate:        due,
		UpdatedDateUTC: date,
	}
	for i := range lines {
		lines[i].TenantID = tenantID
		lines[i].LineItemID = uuid.New()
		lines[i].InvoiceID = inv.InvoiceID
	}
	inv.Lines = lines
	return inv
}

func TestUpsertBatchIdempotent(t *testing.T) {
	repo := NewGormLedgerRepository(newTestDB(t))
	ctx := context.Background()
	tenantID := uuid.New()

	contact := ledger.Contact{
		TenantID:       tenantID,
		ContactID:      uuid.New(),
		Name:           "Acme",
		IsCustomer:     true,
		Category:       ledger.ContactCategoryCustomer,
		UpdatedDateUTC: time.Now().UTC(),
	}
	batch := ledger.NewBatch(ledger.EntityContacts)
	batch.Contacts = []ledger.Contact{contact}

	n, err := repo.UpsertBatch(ctx, tenantID, batch)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Redelivering the same record with a newer name replaces in place
	batch.Contacts[0].Name = "Acme Ltd"
	n, err = repo.UpsertBatch(ctx, tenantID, batch)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var count int64
	require.NoError(t, repo.db.Table("xero_contacts").Where("tenant_id = ?", tenantID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpsertBatchEmptyIsNoop(t *testing.T) {
	repo := NewGormLedgerRepository(newTestDB(t))

	n, err := repo.UpsertBatch(context.Background(), uuid.New(), ledger.NewBatch(ledger.EntityItems))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUpsertInvoicesReplacesLines(t *testing.T) {
	repo := NewGormLedgerRepository(newTestDB(t))
	ctx := context.Background()
	tenantID := uuid.New()
	now := time.Now().UTC()

	inv := seedInvoice(tenantID, ledger.DocumentTypeReceivable, ledger.InvoiceStatusAuthorised,
		"100", now, now.AddDate(0, 0, 14),
		ledger.InvoiceLine{LineAmount: dec("60"), RevenueStream: "WIDGET"},
		ledger.InvoiceLine{LineAmount: dec("40"), RevenueStream: "GADGET"},
	)
	batch := ledger.NewBatch(ledger.EntityInvoices)
	batch.Invoices = []ledger.Invoice{inv}
	_, err := repo.UpsertBatch(ctx, tenantID, batch)
	require.NoError(t, err)

	// Redelivery with one line must fully replace the previous line set
	inv.Lines = inv.Lines[:1]
	inv.Lines[0].LineItemID = uuid.New()
	batch.Invoices = []ledger.Invoice{inv}
	_, err = repo.UpsertBatch(ctx, tenantID, batch)
	require.NoError(t, err)

	var count int64
	require.NoError(t, repo.db.Table("xero_invoice_lines").
		Where("tenant_id = ? AND invoice_id = ?", tenantID, inv.InvoiceID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestOutstandingReceivables(t *testing.T) {
	repo := NewGormLedgerRepository(newTestDB(t))
	ctx := context.Background()
	tenantID := uuid.New()
	now := time.Now().UTC()

	open := seedInvoice(tenantID, ledger.DocumentTypeReceivable, ledger.InvoiceStatusAuthorised,
		"150", now.AddDate(0, 0, -30), now.AddDate(0, 0, -10))
	paid := seedInvoice(tenantID, ledger.DocumentTypeReceivable, ledger.InvoiceStatusPaid,
		"0", now.AddDate(0, 0, -30), now.AddDate(0, 0, -10))
	bill := seedInvoice(tenantID, ledger.DocumentTypePayable, ledger.InvoiceStatusAuthorised,
		"75", now.AddDate(0, 0, -20), now.AddDate(0, 0, 5))

	batch := ledger.NewBatch(ledger.EntityInvoices)
	batch.Invoices = []ledger.Invoice{open, paid, bill}
	_, err := repo.UpsertBatch(ctx, tenantID, batch)
	require.NoError(t, err)

	receivables, err := repo.OutstandingReceivables(ctx, tenantID, ledger.OutstandingFilter{})
	require.NoError(t, err)
	require.Len(t, receivables, 1)
	assert.Equal(t, open.InvoiceID, receivables[0].InvoiceID)
	assert.Equal(t, "150", receivables[0].Outstanding.String())

	payables, err := repo.OutstandingPayables(ctx, tenantID, ledger.OutstandingFilter{})
	require.NoError(t, err)
	require.Len(t, payables, 1)
	assert.Equal(t, bill.InvoiceID, payables[0].InvoiceID)
}

func TestOutstandingReceivablesContactCategoryFilter(t *testing.T) {
	repo := NewGormLedgerRepository(newTestDB(t))
	ctx := context.Background()
	tenantID := uuid.New()
	now := time.Now().UTC()

	customer := ledger.Contact{TenantID: tenantID, ContactID: uuid.New(), Name: "Cust",
		Category: ledger.ContactCategoryCustomer, UpdatedDateUTC: now}
	both := ledger.Contact{TenantID: tenantID, ContactID: uuid.New(), Name: "Both",
		Category: ledger.ContactCategoryBoth, UpdatedDateUTC: now}
	other := ledger.Contact{TenantID: tenantID, ContactID: uuid.New(), Name: "Other",
		Category: ledger.ContactCategoryOther, UpdatedDateUTC: now}

	cb := ledger.NewBatch(ledger.EntityContacts)
	cb.Contacts = []ledger.Contact{customer, both, other}
	_, err := repo.UpsertBatch(ctx, tenantID, cb)
	require.NoError(t, err)

	invoices := []ledger.Invoice{
		seedInvoice(tenantID, ledger.DocumentTypeReceivable, ledger.InvoiceStatusAuthorised, "10", now, now),
		seedInvoice(tenantID, ledger.DocumentTypeReceivable, ledger.InvoiceStatusAuthorised, "20", now, now),
		seedInvoice(tenantID, ledger.DocumentTypeReceivable, ledger.InvoiceStatusAuthorised, "30", now, now),
	}
	invoices[0].ContactID = customer.ContactID
	invoices[1].ContactID = both.ContactID
	invoices[2].ContactID = other.ContactID
	ib := ledger.NewBatch(ledger.EntityInvoices)
	ib.Invoices = invoices
	_, err = repo.UpsertBatch(ctx, tenantID, ib)
	require.NoError(t, err)

	// Dual-role contacts count as customers too
	docs, err := repo.OutstandingReceivables(ctx, tenantID, ledger.OutstandingFilter{
		ContactCategory: ledger.ContactCategoryCustomer,
	})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestRevenueByStream(t *testing.T) {
	repo := NewGormLedgerRepository(newTestDB(t))
	ctx := context.Background()
	tenantID := uuid.New()
	periodStart := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	inPeriod := periodStart.AddDate(0, 0, 10)

	invoices := []ledger.Invoice{
		seedInvoice(tenantID, ledger.DocumentTypeReceivable, ledger.InvoiceStatusAuthorised,
			"100", inPeriod, inPeriod,
			ledger.InvoiceLine{LineAmount: dec("60"), TaxAmount: dec("9"), Quantity: dec("2"), RevenueStream: "WIDGET"},
			ledger.InvoiceLine{LineAmount: dec("40"), TaxAmount: dec("6"), Quantity: dec("1"), RevenueStream: "GADGET"}),
		seedInvoice(tenantID, ledger.DocumentTypeReceivable, ledger.InvoiceStatusPaid,
			"0", inPeriod, inPeriod,
			ledger.InvoiceLine{LineAmount: dec("30"), TaxAmount: dec("4.5"), Quantity: dec("1"), RevenueStream: "WIDGET"}),
		// Outside the period, must not count
		seedInvoice(tenantID, ledger.DocumentTypeReceivable, ledger.InvoiceStatusAuthorised,
			"50", periodStart.AddDate(0, -1, 0), periodStart,
			ledger.InvoiceLine{LineAmount: dec("50"), RevenueStream: "WIDGET"}),
		// Draft revenue does not count
		seedInvoice(tenantID, ledger.DocumentTypeReceivable, "DRAFT",
			"80", inPeriod, inPeriod,
			ledger.InvoiceLine{LineAmount: dec("80"), RevenueStream: "WIDGET"}),
	}
	batch := ledger.NewBatch(ledger.EntityInvoices)
	batch.Invoices = invoices
	_, err := repo.UpsertBatch(ctx, tenantID, batch)
	require.NoError(t, err)

	totals, err := repo.RevenueByStream(ctx, tenantID, ledger.RevenueFilter{
		PeriodStart: periodStart,
		PeriodEnd:   periodStart.AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	require.Len(t, totals, 2)

	byStream := map[string]ledger.RevenueStreamTotal{}
	for _, tot := range totals {
		byStream[tot.Stream] = tot
	}
	assert.Equal(t, "90", byStream["WIDGET"].NetAmount.String())
	assert.Equal(t, "103.5", byStream["WIDGET"].GrossAmount.String())
	assert.Equal(t, "3", byStream["WIDGET"].UnitCount.String())
	assert.Equal(t, int64(2), byStream["WIDGET"].InvoiceCount)
	assert.Equal(t, "40", byStream["GADGET"].NetAmount.String())
}

func TestCOGSQueries(t *testing.T) {
	repo := NewGormLedgerRepository(newTestDB(t))
	ctx := context.Background()
	tenantID := uuid.New()
	now := time.Now().UTC()

	accounts := ledger.NewBatch(ledger.EntityAccounts)
	accounts.Accounts = []ledger.Account{
		{TenantID: tenantID, AccountID: uuid.New(), Code: "310", Type: ledger.AccountTypeDirectCosts, Class: ledger.AccountClassExpense, UpdatedDateUTC: now},
		{TenantID: tenantID, AccountID: uuid.New(), Code: "400", Type: "OVERHEADS", Class: ledger.AccountClassExpense, UpdatedDateUTC: now},
	}
	_, err := repo.UpsertBatch(ctx, tenantID, accounts)
	require.NoError(t, err)

	codes, err := repo.COGSAccountCodes(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, []string{"310"}, codes)

	bills := ledger.NewBatch(ledger.EntityBills)
	bills.Invoices = []ledger.Invoice{
		seedInvoice(tenantID, ledger.DocumentTypePayable, ledger.InvoiceStatusAuthorised,
			"100", now, now,
			ledger.InvoiceLine{LineAmount: dec("70"), AccountCode: "310", RevenueStream: "WIDGET"},
			ledger.InvoiceLine{LineAmount: dec("30"), AccountCode: "400", RevenueStream: "WIDGET"}),
	}
	_, err = repo.UpsertBatch(ctx, tenantID, bills)
	require.NoError(t, err)

	total, err := repo.COGSTotal(ctx, tenantID, ledger.RevenueFilter{})
	require.NoError(t, err)
	assert.Equal(t, "70", total.String())

	byStream, err := repo.COGSByStream(ctx, tenantID, ledger.RevenueFilter{})
	require.NoError(t, err)
	require.Len(t, byStream, 1)
	assert.Equal(t, "WIDGET", byStream[0].Stream)
	assert.Equal(t, "70", byStream[0].Amount.String())

	purchases, err := repo.PurchasesTotal(ctx, tenantID, ledger.RevenueFilter{})
	require.NoError(t, err)
	assert.Equal(t, "100", purchases.String())
}

func TestTrackedItems(t *testing.T) {
	repo := NewGormLedgerRepository(newTestDB(t))
	ctx := context.Background()
	tenantID := uuid.New()
	now := time.Now().UTC()

	items := ledger.NewBatch(ledger.EntityItems)
	items.Items = []ledger.Item{
		{TenantID: tenantID, ItemID: uuid.New(), Code: "WIDGET", IsTrackedAsInventory: true,
			QuantityOnHand: dec("10"), TotalCostPool: dec("55"), UpdatedDateUTC: now},
		{TenantID: tenantID, ItemID: uuid.New(), Code: "CONSULTING", IsTrackedAsInventory: false,
			UpdatedDateUTC: now},
	}
	_, err := repo.UpsertBatch(ctx, tenantID, items)
	require.NoError(t, err)

	tracked, err := repo.TrackedItems(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, tracked, 1)
	assert.Equal(t, "WIDGET", tracked[0].Code)
	assert.Equal(t, "5.5", tracked[0].UnitValue().String())
}
