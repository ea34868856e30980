package stripewebhook

import (
	"fmt"
	"time"

	"brandkit-app/internal/domain/billing"
	"brandkit-app/internal/domain/plans"
	"brandkit-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

func (h *Handler) handleSubscriptionUpdated(c *gin.Context, sub *stripe.Subscription) error {
	if sub.ID == "" || sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return fmt.Errorf("subscription missing id/items/price")
	}

	user, err := h.subscriptionUser(sub)
	if err != nil {
		// Acknowledge to avoid Stripe retries if the user is gone.
		return nil
	}

	rawStatus := string(sub.Status)
	ctx := c.Request.Context()

	if sub.CancelAtPeriodEnd {
		return h.adapter.Apply(ctx, billing.PlanCanceled{UserID: user.ID, RawStatus: rawStatus})
	}
	if user.CancelAtPeriodEnd {
		return h.adapter.Apply(ctx, billing.PlanResumed{UserID: user.ID, RawStatus: rawStatus})
	}

	priceID := sub.Items.Data[0].Price.ID
	plan, ok := plans.FromStripePriceID(priceID)
	if !ok {
		return nil
	}

	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}

	return h.adapter.Apply(ctx, billing.PlanActivated{
		UserID:             user.ID,
		PlanKey:            plan.Key,
		Provider:           billing.ProviderStripe,
		SubscriptionID:     sub.ID,
		RawStatus:          rawStatus,
		PlanStatus:         plans.NormalizeStripeStatus(rawStatus),
		PeriodStart:        time.Unix(sub.CurrentPeriodStart, 0),
		PeriodEnd:          time.Unix(sub.CurrentPeriodEnd, 0),
		ProviderCustomerID: customerID,
		ProviderProductID:  priceID,
	})
}

func (h *Handler) handleSubscriptionDeleted(c *gin.Context, sub *stripe.Subscription) error {
	if sub.ID == "" {
		return nil
	}

	user, err := h.subscriptionUser(sub)
	if err != nil {
		return nil
	}

	return h.adapter.Apply(c.Request.Context(), billing.PlanExpired{
		UserID:    user.ID,
		RawStatus: string(sub.Status),
	})
}

func (h *Handler) subscriptionUser(sub *stripe.Subscription) (*users.User, error) {
	if sub.Metadata != nil && sub.Metadata["user_id"] != "" {
		if uid, err := parseUserID(sub.Metadata["user_id"]); err == nil {
			var user users.User
			if err := h.db.First(&user, uid).Error; err == nil {
				return &user, nil
			}
		}
	}
	var user users.User
	if err := h.db.Where("subscription_id = ?", sub.ID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
