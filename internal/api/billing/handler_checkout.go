package billing

import (
	"fmt"
	"net/http"

	"brandkit-app/config"
	"brandkit-app/database"
	"brandkit-app/internal/domain/plans"
	"brandkit-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	portalsession "github.com/stripe/stripe-go/v75/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"github.com/stripe/stripe-go/v75/customer"
)

// POST /billing/checkout
func CreateCheckoutSession(c *gin.Context) {
	var body struct {
		Type     string `json:"type"` // "subscription" | "credit_pack"
		PlanKey  string `json:"plan_key"`
		Interval string `json:"interval"` // "monthly" | "annual"
		PackID   string `json:"pack_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	stripe.Key = config.STRIPE_SECRET_KEY
	if stripe.Key == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe key not configured"})
		return
	}

	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	var user users.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	if !user.IsVerified {
		c.JSON(http.StatusForbidden, gin.H{"error": "Please verify your email first"})
		return
	}

	customerID, err := ensureStripeCustomer(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Stripe customer"})
		return
	}

	params := &stripe.CheckoutSessionParams{
		Customer:          stripe.String(customerID),
		SuccessURL:        stripe.String(config.APP_URL + "/payment?success=true"),
		CancelURL:         stripe.String(config.APP_URL + "/pricing?canceled=true"),
		ClientReferenceID: stripe.String(fmt.Sprint(user.ID)),
	}

	switch body.Type {
	case "subscription":
		plan, ok := plans.Catalog[body.PlanKey]
		if !ok || plan.Key == plans.PlanFree {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan"})
			return
		}
		priceID := plan.Stripe.MonthlyPriceID
		if body.Interval == "annual" {
			priceID = plan.Stripe.AnnualPriceID
		}
		if priceID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Price not configured for this plan"})
			return
		}

		params.Mode = stripe.String(string(stripe.CheckoutSessionModeSubscription))
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		}
		params.Metadata = map[string]string{
			"user_id": fmt.Sprint(user.ID),
			"type":    "subscription",
			"plan":    plan.Key,
		}
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"user_id": fmt.Sprint(user.ID)},
		}

	case "credit_pack":
		pack, ok := plans.PackByID(body.PackID)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pack"})
			return
		}
		if pack.StripePriceID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Price not configured for this pack"})
			return
		}

		params.Mode = stripe.String(string(stripe.CheckoutSessionModePayment))
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(pack.StripePriceID), Quantity: stripe.Int64(1)},
		}
		params.Metadata = map[string]string{
			"user_id": fmt.Sprint(user.ID),
			"type":    "credit_pack",
			"pack_id": pack.ID,
		}

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid checkout type"})
		return
	}

	s, err := checkoutsession.New(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": s.URL})
}

// POST /billing/portal
func CreateBillingPortal(c *gin.Context) {
	stripe.Key = config.STRIPE_SECRET_KEY
	if stripe.Key == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe key not configured"})
		return
	}

	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	var user users.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "No Stripe customer yet (subscribe first)"})
		return
	}

	portal, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(*user.StripeCustomerID),
		ReturnURL: stripe.String(config.APP_URL + "/settings/billing"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create billing portal session", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": portal.URL})
}

func ensureStripeCustomer(user *users.User) (string, error) {
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}

	cus, err := customer.New(&stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Name:  stripe.String(user.Name),
		Metadata: map[string]string{
			"user_id": fmt.Sprint(user.ID),
		},
	})
	if err != nil {
		return "", err
	}

	if err := database.DB.Model(&users.User{}).
		Where("id = ?", user.ID).
		Update("stripe_customer_id", cus.ID).Error; err != nil {
		return "", err
	}

	user.StripeCustomerID = stripe.String(cus.ID)
	return cus.ID, nil
}
