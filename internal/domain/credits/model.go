package credits

import "time"

// TransactionType categorises ledger entries.
type TransactionType string

const (
	TxDeduction    TransactionType = "DEDUCTION"    // paid operation consumption
	TxAddition     TransactionType = "ADDITION"     // monthly reset, admin grant
	TxRefund       TransactionType = "REFUND"       // compensation for a failed paid operation
	TxSubscription TransactionType = "SUBSCRIPTION" // allocation granted on subscription activation
	TxPurchase     TransactionType = "PURCHASE"     // credit pack purchase
)

// Transaction is an immutable ledger entry. Rows are only ever inserted;
// the sum of signed amounts reconciles with the account balance.
type Transaction struct {
	ID           uint              `json:"id" gorm:"primaryKey"`
	UserID       uint              `json:"user_id" gorm:"index"`
	Type         TransactionType   `json:"type" gorm:"type:varchar(20);index"`
	Amount       int               `json:"amount"` // positive = credit, negative = debit
	BalanceAfter int               `json:"balance_after"`
	Reason       string            `json:"reason" gorm:"index"` // machine-readable code, e.g. "logo_generation"
	Description  string            `json:"description,omitempty"`
	AssetID      *string           `json:"asset_id,omitempty" gorm:"index"` // generation artifact that triggered it
	Metadata     map[string]string `json:"metadata,omitempty" gorm:"serializer:json"`
	CreatedAt    time.Time         `json:"created_at"`
}
