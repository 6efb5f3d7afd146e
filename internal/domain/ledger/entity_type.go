package ledger

// EntityType identifies one category of accounting record synchronized from
// Xero. The declared order matters: referenced entities sync before the
// entities that reference them.
type EntityType string

const (
	EntityAccounts         EntityType = "accounts"
	EntityContacts         EntityType = "contacts"
	EntityItems            EntityType = "items"
	EntityInvoices         EntityType = "invoices"
	EntityBills            EntityType = "bills"
	EntityPayments         EntityType = "payments"
	EntityCreditNotes      EntityType = "credit_notes"
	EntityBankTransactions EntityType = "bank_transactions"
	EntityManualJournals   EntityType = "manual_journals"
)

// SyncOrder returns every entity type in dependency order: accounts and
// contacts before the documents that reference them, payments after the
// invoices they settle.
func SyncOrder() []EntityType {
	return []EntityType{
		EntityAccounts,
		EntityContacts,
		EntityItems,
		EntityInvoices,
		EntityBills,
		EntityPayments,
		EntityCreditNotes,
		EntityBankTransactions,
		EntityManualJournals,
	}
}

// IsValid returns true if the entity type is one of the known types
func (e EntityType) IsValid() bool {
	for _, known := range SyncOrder() {
		if e == known {
			return true
		}
	}
	return false
}

// String returns the string representation of EntityType
func (e EntityType) String() string {
	return string(e)
}
