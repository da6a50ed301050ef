package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction types.
const (
	TypeReceivable = "receivable"
	TypePayable    = "payable"
)

// Transaction statuses.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

// Transaction categories.
const (
	CategoryRent        = "rent"
	CategorySale        = "sale"
	CategoryCommission  = "commission"
	CategoryMaintenance = "maintenance"
	CategoryTax         = "tax"
	CategoryOther       = "other"
)

// TransactionTypes lists the valid values for Transaction.Type.
var TransactionTypes = []string{TypeReceivable, TypePayable}

// TransactionStatuses lists the valid values for Transaction.Status.
var TransactionStatuses = []string{StatusPending, StatusPaid, StatusCancelled}

// TransactionCategories lists the valid values for Transaction.Category.
var TransactionCategories = []string{
	CategoryRent, CategorySale, CategoryCommission,
	CategoryMaintenance, CategoryTax, CategoryOther,
}

// Transaction is one ledger entry: a receivable or payable amount tied to
// the brokerage's people, contracts and properties. Deleted entries are
// soft-deleted and excluded from all default queries.
type Transaction struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Type        string          `gorm:"size:16;not null;index" json:"type"`
	Description string          `gorm:"size:255;not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	DueDate     time.Time       `gorm:"not null;index" json:"due_date"`
	PaymentDate *time.Time      `json:"payment_date"`
	Status      string          `gorm:"size:16;not null;default:'pending';index" json:"status"`
	Category    string          `gorm:"size:32;not null;index" json:"category"`

	PersonID      *uint        `gorm:"index" json:"person_id"`
	Person        *Person      `json:"person,omitempty"`
	ContractID    *uint        `gorm:"index" json:"contract_id"`
	Contract      *Contract    `json:"contract,omitempty"`
	BankAccountID *uint        `json:"bank_account_id"`
	BankAccount   *BankAccount `json:"bank_account,omitempty"`
	PaymentTypeID *uint        `json:"payment_type_id"`
	PaymentType   *PaymentType `json:"payment_type,omitempty"`
	PropertyID    *uint        `gorm:"index" json:"property_id"`
	Property      *Property    `json:"property,omitempty"`

	Notes string `gorm:"type:text" json:"notes"`

	// Single-slot receipt attachment. A new receipt replaces the old one;
	// there is never more than one file per transaction.
	ReceiptPath        string `gorm:"size:512" json:"-"`
	ReceiptName        string `gorm:"size:255" json:"receipt_name,omitempty"`
	ReceiptContentType string `gorm:"size:128" json:"-"`
}

// HasReceipt reports whether a receipt file is attached.
func (t *Transaction) HasReceipt() bool {
	return t.ReceiptPath != ""
}
