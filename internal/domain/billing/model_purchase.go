package billing

import (
	"time"

	"brandkit-app/internal/domain/users"
)

// Purchase types.
const (
	PurchaseSubscription = "SUBSCRIPTION"
	PurchaseCreditPack   = "CREDIT_PACK"
)

// Payment providers.
const (
	ProviderStripe       = "STRIPE"
	ProviderLemonSqueezy = "LEMONSQUEEZY"
)

// Purchase statuses.
const (
	StatusCompleted = "COMPLETED"
	StatusPending   = "PENDING"
	StatusFailed    = "FAILED"
)

// Purchase is a one-shot payment record. A purchase may trigger one or
// more ledger transactions (e.g. a renewal triggers a monthly addition).
type Purchase struct {
	ID     uint       `json:"id" gorm:"primaryKey"`
	UserID uint       `json:"user_id" gorm:"index"`
	User   users.User `json:"-"`

	Type     string `json:"type" gorm:"type:varchar(20)"`     // SUBSCRIPTION | CREDIT_PACK
	Provider string `json:"provider" gorm:"type:varchar(20)"` // STRIPE | LEMONSQUEEZY

	Plan    string `json:"plan,omitempty" gorm:"type:varchar(20)"`
	Credits int    `json:"credits,omitempty"`

	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency" gorm:"type:varchar(10)"`

	ProviderCustomerID     string  `json:"provider_customer_id"`
	ProviderPaymentID      string  `json:"provider_payment_id" gorm:"uniqueIndex"`
	ProviderSubscriptionID *string `json:"provider_subscription_id,omitempty"`
	ProviderProductID      string  `json:"provider_product_id"`

	Status   string            `json:"status" gorm:"type:varchar(20)"`
	Metadata map[string]string `json:"metadata,omitempty" gorm:"serializer:json"`

	CreatedAt time.Time `json:"created_at"`
}
