package xero

import (
	"github.com/google/uuid"

	"github.com/finsight/backend/internal/domain/ledger"
)

// ---------------------------------------------------------------------------
// Wire to domain transforms
// ---------------------------------------------------------------------------

// transformEnvelope converts one decoded API page into domain rows. Records
// whose primary identifier is not a valid UUID are dropped rather than
// upserted under a zero key.
func transformEnvelope(tenantID uuid.UUID, entity ledger.EntityType, env *envelope) *ledger.Batch {
	batch := ledger.NewBatch(entity)

	switch entity {
	case ledger.EntityAccounts:
		for i := range env.Accounts {
			if row, ok := transformAccount(tenantID, &env.Accounts[i]); ok {
				batch.Accounts = append(batch.Accounts, row)
			}
		}
	case ledger.EntityContacts:
		for i := range env.Contacts {
			if row, ok := transformContact(tenantID, &env.Contacts[i]); ok {
				batch.Contacts = append(batch.Contacts, row)
			}
		}
	case ledger.EntityItems:
		for i := range env.Items {
			if row, ok := transformItem(tenantID, &env.Items[i]); ok {
				batch.Items = append(batch.Items, row)
			}
		}
	case ledger.EntityInvoices, ledger.EntityBills:
		for i := range env.Invoices {
			if row, ok := transformInvoice(tenantID, &env.Invoices[i]); ok {
				batch.Invoices = append(batch.Invoices, row)
			}
		}
	case ledger.EntityPayments:
		for i := range env.Payments {
			if row, ok := transformPayment(tenantID, &env.Payments[i]); ok {
				batch.Payments = append(batch.Payments, row)
			}
		}
	case ledger.EntityCreditNotes:
		for i := range env.CreditNotes {
			if row, ok := transformCreditNote(tenantID, &env.CreditNotes[i]); ok {
				batch.CreditNotes = append(batch.CreditNotes, row)
			}
		}
	case ledger.EntityBankTransactions:
		for i := range env.BankTransactions {
			if row, ok := transformBankTransaction(tenantID, &env.BankTransactions[i]); ok {
				batch.BankTransactions = append(batch.BankTransactions, row)
			}
		}
	case ledger.EntityManualJournals:
		for i := range env.ManualJournals {
			if row, ok := transformManualJournal(tenantID, &env.ManualJournals[i]); ok {
				batch.ManualJournals = append(batch.ManualJournals, row)
			}
		}
	}
	return batch
}

func transformAccount(tenantID uuid.UUID, w *wireAccount) (ledger.Account, bool) {
	id, err := uuid.Parse(w.AccountID)
	if err != nil {
		return ledger.Account{}, false
	}
	return ledger.Account{
		TenantID:       tenantID,
		AccountID:      id,
		Code:           w.Code,
		Name:           w.Name,
		Type:           w.Type,
		Class:          w.Class,
		Status:         w.Status,
		Description:    w.Description,
		UpdatedDateUTC: w.UpdatedDateUTC.Time,
	}, true
}

func transformContact(tenantID uuid.UUID, w *wireContact) (ledger.Contact, bool) {
	id, err := uuid.Parse(w.ContactID)
	if err != nil {
		return ledger.Contact{}, false
	}
	return ledger.Contact{
		TenantID:       tenantID,
		ContactID:      id,
		Name:           w.Name,
		EmailAddress:   w.EmailAddress,
		IsCustomer:     w.IsCustomer,
		IsSupplier:     w.IsSupplier,
		Status:         w.ContactStatus,
		Category:       contactCategory(w.IsCustomer, w.IsSupplier),
		UpdatedDateUTC: w.UpdatedDateUTC.Time,
	}, true
}

func contactCategory(isCustomer, isSupplier bool) string {
	switch {
	case isCustomer && isSupplier:
		return ledger.ContactCategoryBoth
	case isCustomer:
		return ledger.ContactCategoryCustomer
	case isSupplier:
		return ledger.ContactCategorySupplier
	default:
		return ledger.ContactCategoryOther
	}
}

func transformItem(tenantID uuid.UUID, w *wireItem) (ledger.Item, bool) {
	id, err := uuid.Parse(w.ItemID)
	if err != nil {
		return ledger.Item{}, false
	}
	return ledger.Item{
		TenantID:             tenantID,
		ItemID:               id,
		Code:                 w.Code,
		Name:                 w.Name,
		Description:          w.Description,
		IsTrackedAsInventory: w.IsTrackedAsInventory,
		QuantityOnHand:       w.QuantityOnHand,
		TotalCostPool:        w.TotalCostPool,
		PurchasePrice:        w.PurchaseDetails.UnitPrice,
		SalesPrice:           w.SalesDetails.UnitPrice,
		RevenueStream:        w.Code,
		UpdatedDateUTC:       w.UpdatedDateUTC.Time,
	}, true
}

func transformInvoice(tenantID uuid.UUID, w *wireInvoice) (ledger.Invoice, bool) {
	id, err := uuid.Parse(w.InvoiceID)
	if err != nil {
		return ledger.Invoice{}, false
	}
	inv := ledger.Invoice{
		TenantID:       tenantID,
		InvoiceID:      id,
		DocumentType:   w.Type,
		InvoiceNumber:  w.InvoiceNumber,
		ContactID:      parseOptionalID(w.Contact.ContactID),
		ContactName:    w.Contact.Name,
		Status:         w.Status,
		SubTotal:       w.SubTotal,
		TotalTax:       w.TotalTax,
		Total:          w.Total,
		AmountDue:      w.AmountDue,
		AmountPaid:     w.AmountPaid,
		CurrencyCode:   w.CurrencyCode,
		Date:           w.Date.Time,
		DueDate:        w.DueDate.Time,
		UpdatedDateUTC: w.UpdatedDateUTC.Time,
	}
	for j := range w.LineItems {
		wl := &w.LineItems[j]
		lineID := parseOptionalID(wl.LineItemID)
		if lineID == uuid.Nil {
			// Summary-only invoices can omit line identifiers; derive a
			// stable one so re-syncs stay idempotent
			lineID = uuid.NewSHA1(id, []byte(wl.Description+wl.AccountCode+wl.ItemCode))
		}
		inv.Lines = append(inv.Lines, ledger.InvoiceLine{
			TenantID:      tenantID,
			LineItemID:    lineID,
			InvoiceID:     id,
			Description:   wl.Description,
			Quantity:      wl.Quantity,
			UnitAmount:    wl.UnitAmount,
			LineAmount:    wl.LineAmount,
			TaxAmount:     wl.TaxAmount,
			AccountCode:   wl.AccountCode,
			ItemCode:      wl.ItemCode,
			RevenueStream: revenueStreamFor(wl.ItemCode, wl.AccountCode),
		})
	}
	return inv, true
}

// revenueStreamFor labels a document line: item code when present, otherwise
// the posting account code
func revenueStreamFor(itemCode, accountCode string) string {
	if itemCode != "" {
		return itemCode
	}
	return accountCode
}

func transformPayment(tenantID uuid.UUID, w *wirePayment) (ledger.Payment, bool) {
	id, err := uuid.Parse(w.PaymentID)
	if err != nil {
		return ledger.Payment{}, false
	}
	return ledger.Payment{
		TenantID:       tenantID,
		PaymentID:      id,
		InvoiceID:      parseOptionalID(w.Invoice.InvoiceID),
		AccountID:      parseOptionalID(w.Account.AccountID),
		Date:           w.Date.Time,
		Amount:         w.Amount,
		CurrencyRate:   w.CurrencyRate,
		PaymentType:    w.PaymentType,
		Status:         w.Status,
		UpdatedDateUTC: w.UpdatedDateUTC.Time,
	}, true
}

func transformCreditNote(tenantID uuid.UUID, w *wireCreditNote) (ledger.CreditNote, bool) {
	id, err := uuid.Parse(w.CreditNoteID)
	if err != nil {
		return ledger.CreditNote{}, false
	}
	return ledger.CreditNote{
		TenantID:        tenantID,
		CreditNoteID:    id,
		DocumentType:    w.Type,
		ContactID:       parseOptionalID(w.Contact.ContactID),
		Status:          w.Status,
		Total:           w.Total,
		RemainingCredit: w.RemainingCredit,
		Date:            w.Date.Time,
		UpdatedDateUTC:  w.UpdatedDateUTC.Time,
	}, true
}

func transformBankTransaction(tenantID uuid.UUID, w *wireBankTransaction) (ledger.BankTransaction, bool) {
	id, err := uuid.Parse(w.BankTransactionID)
	if err != nil {
		return ledger.BankTransaction{}, false
	}
	return ledger.BankTransaction{
		TenantID:          tenantID,
		BankTransactionID: id,
		Type:              w.Type,
		ContactID:         parseOptionalID(w.Contact.ContactID),
		BankAccountCode:   w.BankAccount.Code,
		Status:            w.Status,
		Total:             w.Total,
		Date:              w.Date.Time,
		UpdatedDateUTC:    w.UpdatedDateUTC.Time,
	}, true
}

func transformManualJournal(tenantID uuid.UUID, w *wireManualJournal) (ledger.ManualJournal, bool) {
	id, err := uuid.Parse(w.ManualJournalID)
	if err != nil {
		return ledger.ManualJournal{}, false
	}
	return ledger.ManualJournal{
		TenantID:        tenantID,
		ManualJournalID: id,
		Narration:       w.Narration,
		Status:          w.Status,
		Date:            w.Date.Time,
		UpdatedDateUTC:  w.UpdatedDateUTC.Time,
	}, true
}

// parseOptionalID parses a reference identifier, returning uuid.Nil when the
// reference is absent or malformed
func parseOptionalID(s string) uuid.UUID {
	if s == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
