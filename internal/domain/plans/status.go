package plans

import "strings"

// Plan status values stored on the account.
const (
	StatusActive   = "ACTIVE"
	StatusTrialing = "TRIALING"
	StatusPastDue  = "PAST_DUE"
	StatusCanceled = "CANCELED"
	StatusPaused   = "PAUSED"
)

// NormalizeStripeStatus maps a raw Stripe subscription status onto the
// account's plan status.
func NormalizeStripeStatus(s string) string {
	switch strings.TrimSpace(s) {
	case "active":
		return StatusActive
	case "trialing":
		return StatusTrialing
	case "past_due", "unpaid", "incomplete":
		return StatusPastDue
	case "paused":
		return StatusPaused
	case "canceled", "incomplete_expired":
		return StatusCanceled
	default:
		return StatusActive
	}
}

// NormalizeLSStatus maps a raw Lemon Squeezy subscription status onto the
// account's plan status.
func NormalizeLSStatus(s string) string {
	switch strings.TrimSpace(s) {
	case "active":
		return StatusActive
	case "on_trial":
		return StatusTrialing
	case "past_due", "unpaid":
		return StatusPastDue
	case "paused":
		return StatusPaused
	case "cancelled", "expired":
		return StatusCanceled
	default:
		return StatusActive
	}
}
