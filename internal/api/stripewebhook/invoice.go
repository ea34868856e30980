package stripewebhook

import (
	"brandkit-app/internal/domain/billing"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

func (h *Handler) handleInvoice(c *gin.Context, eventType string, invoice *stripe.Invoice) error {
	customerID := ""
	if invoice.Customer != nil {
		customerID = invoice.Customer.ID
	}
	user, err := h.userByCustomerID(customerID)
	if err != nil {
		// Invoice for a customer we don't track; ack and move on.
		return nil
	}

	ctx := c.Request.Context()

	if eventType == "invoice.payment_failed" {
		return h.adapter.Apply(ctx, billing.PaymentFailed{
			UserID:    user.ID,
			RawStatus: "past_due",
		})
	}

	// Only recurring cycle invoices reset the allocation; the initial
	// invoice is already covered by the activation grant.
	if invoice.BillingReason != stripe.InvoiceBillingReasonSubscriptionCycle {
		return nil
	}
	return h.adapter.Apply(ctx, billing.RenewalSucceeded{UserID: user.ID})
}
