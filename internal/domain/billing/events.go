package billing

import "time"

// Normalized billing events. Each inbound provider webhook is translated
// into one of these before it touches accounts or the ledger, so provider
// schema churn stays inside the webhook packages.

type Event interface {
	eventName() string
}

// PlanActivated covers subscription created and updated webhooks.
type PlanActivated struct {
	UserID         uint
	PlanKey        string
	Provider       string // STRIPE | LEMONSQUEEZY
	SubscriptionID string
	RawStatus      string // provider's own status string
	PlanStatus     string // normalized
	PeriodStart    time.Time
	PeriodEnd      time.Time

	// Purchase record fields; AmountCents == 0 means no purchase row.
	AmountCents        int64
	Currency           string
	ProviderCustomerID string
	ProviderPaymentID  string
	ProviderProductID  string
}

// PlanCanceled marks the subscription to lapse at period end.
type PlanCanceled struct {
	UserID    uint
	RawStatus string
}

// PlanResumed undoes a pending cancellation.
type PlanResumed struct {
	UserID    uint
	RawStatus string
}

// PlanExpired drops the account back to the free tier.
type PlanExpired struct {
	UserID    uint
	RawStatus string
}

// CreditsPurchased is a one-shot credit pack order.
type CreditsPurchased struct {
	UserID             uint
	PackID             string
	Credits            int
	Provider           string
	AmountCents        int64
	Currency           string
	ProviderCustomerID string
	ProviderPaymentID  string
	ProviderProductID  string
}

// RenewalSucceeded is a successful recurring payment.
type RenewalSucceeded struct {
	UserID uint
}

// PaymentFailed is a failed recurring payment.
type PaymentFailed struct {
	UserID    uint
	RawStatus string
}

func (PlanActivated) eventName() string    { return "plan_activated" }
func (PlanCanceled) eventName() string     { return "plan_canceled" }
func (PlanResumed) eventName() string      { return "plan_resumed" }
func (PlanExpired) eventName() string      { return "plan_expired" }
func (CreditsPurchased) eventName() string { return "credits_purchased" }
func (RenewalSucceeded) eventName() string { return "renewal_succeeded" }
func (PaymentFailed) eventName() string    { return "payment_failed" }
