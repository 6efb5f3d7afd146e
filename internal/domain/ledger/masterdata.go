package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account class constants as reported by Xero
const (
	AccountClassRevenue   = "REVENUE"
	AccountClassExpense   = "EXPENSE"
	AccountClassAsset     = "ASSET"
	AccountClassLiability = "LIABILITY"
	AccountClassEquity    = "EQUITY"
)

// AccountTypeDirectCosts marks cost-of-goods-sold accounts
const AccountTypeDirectCosts = "DIRECTCOSTS"

// Contact categories derived from the customer/supplier flags
const (
	ContactCategoryCustomer = "customer"
	ContactCategorySupplier = "supplier"
	ContactCategoryBoth     = "customer_supplier"
	ContactCategoryOther    = "other"
)

// Account is one row of the synchronized chart of accounts. AccountID is the
// Xero identifier and the upsert key together with the tenant.
type Account struct {
	TenantID       uuid.UUID
	AccountID      uuid.UUID
	Code           string
	Name           string
	Type           string
	Class          string
	Status         string
	Description    string
	UpdatedDateUTC time.Time
}

// IsCOGS reports whether the account carries cost of goods sold
func (a *Account) IsCOGS() bool {
	return a.Type == AccountTypeDirectCosts
}

// Contact is one synchronized customer or supplier
type Contact struct {
	TenantID       uuid.UUID
	ContactID      uuid.UUID
	Name           string
	EmailAddress   string
	IsCustomer     bool
	IsSupplier     bool
	Status         string
	Category       string
	UpdatedDateUTC time.Time
}

// Item is one synchronized product or service. Tracked items carry inventory
// quantities and a cost pool; untracked items only carry prices.
type Item struct {
	TenantID             uuid.UUID
	ItemID               uuid.UUID
	Code                 string
	Name                 string
	Description          string
	IsTrackedAsInventory bool
	QuantityOnHand       decimal.Decimal
	TotalCostPool        decimal.Decimal
	ReorderLevel         decimal.Decimal
	PurchasePrice        decimal.Decimal
	SalesPrice           decimal.Decimal
	RevenueStream        string
	UpdatedDateUTC       time.Time
}

// UnitValue returns the average unit cost of the tracked quantity, zero when
// nothing is on hand
func (i *Item) UnitValue() decimal.Decimal {
	if i.QuantityOnHand.IsZero() {
		return decimal.Zero
	}
	return i.TotalCostPool.Div(i.QuantityOnHand)
}

// BelowReorderLevel reports whether the on-hand quantity has fallen below the
// configured reorder level
func (i *Item) BelowReorderLevel() bool {
	return i.ReorderLevel.IsPositive() && i.QuantityOnHand.LessThan(i.ReorderLevel)
}
