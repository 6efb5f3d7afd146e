package ledger

import "time"

// Batch is one transformed page of records for a single entity type, ready to
// be upserted. Only the slice matching the entity type is populated.
type Batch struct {
	EntityType       EntityType
	Accounts         []Account
	Contacts         []Contact
	Items            []Item
	Invoices         []Invoice
	Payments         []Payment
	CreditNotes      []CreditNote
	BankTransactions []BankTransaction
	ManualJournals   []ManualJournal
}

// NewBatch returns an empty batch for the given entity type
func NewBatch(entityType EntityType) *Batch {
	return &Batch{EntityType: entityType}
}

// Count returns the number of records carried by the batch
func (b *Batch) Count() int {
	switch b.EntityType {
	case EntityAccounts:
		return len(b.Accounts)
	case EntityContacts:
		return len(b.Contacts)
	case EntityItems:
		return len(b.Items)
	case EntityInvoices, EntityBills:
		return len(b.Invoices)
	case EntityPayments:
		return len(b.Payments)
	case EntityCreditNotes:
		return len(b.CreditNotes)
	case EntityBankTransactions:
		return len(b.BankTransactions)
	case EntityManualJournals:
		return len(b.ManualJournals)
	default:
		return 0
	}
}

// MaxUpdatedUTC returns the greatest UpdatedDateUTC seen across the batch,
// the zero time for an empty batch. This drives watermark advancement.
func (b *Batch) MaxUpdatedUTC() time.Time {
	var maxSeen time.Time
	track := func(t time.Time) {
		if t.After(maxSeen) {
			maxSeen = t
		}
	}
	for i := range b.Accounts {
		track(b.Accounts[i].UpdatedDateUTC)
	}
	for i := range b.Contacts {
		track(b.Contacts[i].UpdatedDateUTC)
	}
	for i := range b.Items {
		track(b.Items[i].UpdatedDateUTC)
	}
	for i := range b.Invoices {
		track(b.Invoices[i].UpdatedDateUTC)
	}
	for i := range b.Payments {
		track(b.Payments[i].UpdatedDateUTC)
	}
	for i := range b.CreditNotes {
		track(b.CreditNotes[i].UpdatedDateUTC)
	}
	for i := range b.BankTransactions {
		track(b.BankTransactions[i].UpdatedDateUTC)
	}
	for i := range b.ManualJournals {
		track(b.ManualJournals[i].UpdatedDateUTC)
	}
	return maxSeen
}
