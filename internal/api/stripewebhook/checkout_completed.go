package stripewebhook

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"brandkit-app/internal/domain/billing"
	"brandkit-app/internal/domain/plans"
	"brandkit-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/subscription"
)

func (h *Handler) handleCheckoutCompleted(c *gin.Context, session *stripe.CheckoutSession) error {
	userID, err := userIDFromMetadata(session.Metadata)
	if err != nil && session.ClientReferenceID != "" {
		userID, err = parseUserID(session.ClientReferenceID)
	}
	if err != nil {
		return err
	}

	switch session.Mode {
	case stripe.CheckoutSessionModeSubscription:
		return h.subscriptionCheckout(c, session, userID)
	case stripe.CheckoutSessionModePayment:
		return h.creditPackCheckout(c, session, userID)
	default:
		return fmt.Errorf("unexpected checkout mode %q", session.Mode)
	}
}

func (h *Handler) subscriptionCheckout(c *gin.Context, session *stripe.CheckoutSession, userID uint) error {
	if session.Subscription == nil || session.Subscription.ID == "" {
		return errors.New("checkout session missing subscription")
	}

	subData, err := subscription.Get(session.Subscription.ID, nil)
	if err != nil || subData == nil || subData.Items == nil || len(subData.Items.Data) == 0 || subData.Items.Data[0].Price == nil {
		return fmt.Errorf("failed to fetch subscription items: %w", err)
	}

	priceID := subData.Items.Data[0].Price.ID
	plan, ok := plans.FromStripePriceID(priceID)
	if !ok {
		return fmt.Errorf("no plan for stripe price_id=%s", priceID)
	}

	customerID := ""
	if session.Customer != nil {
		customerID = session.Customer.ID
	}

	rawStatus := string(subData.Status)
	return h.adapter.Apply(c.Request.Context(), billing.PlanActivated{
		UserID:             userID,
		PlanKey:            plan.Key,
		Provider:           billing.ProviderStripe,
		SubscriptionID:     subData.ID,
		RawStatus:          rawStatus,
		PlanStatus:         plans.NormalizeStripeStatus(rawStatus),
		PeriodStart:        time.Unix(subData.CurrentPeriodStart, 0),
		PeriodEnd:          time.Unix(subData.CurrentPeriodEnd, 0),
		AmountCents:        session.AmountTotal,
		Currency:           string(session.Currency),
		ProviderCustomerID: customerID,
		ProviderPaymentID:  session.ID,
		ProviderProductID:  priceID,
	})
}

func (h *Handler) creditPackCheckout(c *gin.Context, session *stripe.CheckoutSession, userID uint) error {
	packID := session.Metadata["pack_id"]
	pack, ok := plans.PackByID(packID)
	if !ok {
		return fmt.Errorf("checkout session has unknown pack_id %q", packID)
	}

	customerID := ""
	if session.Customer != nil {
		customerID = session.Customer.ID
	}

	return h.adapter.Apply(c.Request.Context(), billing.CreditsPurchased{
		UserID:             userID,
		PackID:             pack.ID,
		Credits:            pack.Credits,
		Provider:           billing.ProviderStripe,
		AmountCents:        session.AmountTotal,
		Currency:           string(session.Currency),
		ProviderCustomerID: customerID,
		ProviderPaymentID:  session.ID,
		ProviderProductID:  pack.StripePriceID,
	})
}

func userIDFromMetadata(md map[string]string) (uint, error) {
	if md == nil || md["user_id"] == "" {
		return 0, errors.New("missing user_id metadata")
	}
	return parseUserID(md["user_id"])
}

func parseUserID(s string) (uint, error) {
	uid, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user_id %q: %w", s, err)
	}
	return uint(uid), nil
}

// userByCustomerID resolves the account for subscription and invoice
// events, which carry no metadata of ours.
func (h *Handler) userByCustomerID(customerID string) (*users.User, error) {
	if customerID == "" {
		return nil, errors.New("missing customer id")
	}
	var user users.User
	if err := h.db.Where("stripe_customer_id = ?", customerID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
