package users

import (
	"time"
)

type User struct {
	ID           uint `gorm:"primaryKey"`
	Name         string
	Email        string  `gorm:"not null;uniqueIndex:idx_users_email"`
	Password     *string `gorm:""`
	AuthProvider string  `gorm:"type:varchar(20);not null;default:'local'"`
	GoogleSub    *string `gorm:"uniqueIndex:idx_users_google_sub"`
	Role         string
	IsVerified   bool

	// Credit balance. Never negative; every mutation goes through the
	// credits service together with a ledger append.
	Credits int `gorm:"not null;default:0"`

	Plan       string `gorm:"type:varchar(20);not null;default:'FREE'"`
	PlanStatus string `gorm:"type:varchar(20);not null;default:'ACTIVE'"`

	CurrentPeriodStart *time.Time `gorm:"column:current_period_start"`
	CurrentPeriodEnd   *time.Time `gorm:"column:current_period_end"`
	CancelAtPeriodEnd  bool       `gorm:"not null;default:false"`

	SubscriptionProvider *string `gorm:"type:varchar(20)"` // STRIPE | LEMONSQUEEZY
	SubscriptionID       *string `gorm:"column:subscription_id;uniqueIndex:idx_users_subscription_id"`
	SubscriptionStatus   *string `gorm:"column:subscription_status"` // raw provider status

	StripeCustomerID *string `gorm:"column:stripe_customer_id;uniqueIndex:idx_users_stripe_customer_id"`
	LSCustomerID     *string `gorm:"column:ls_customer_id;uniqueIndex:idx_users_ls_customer_id"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
