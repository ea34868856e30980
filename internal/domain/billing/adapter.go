package billing

import (
	"context"
	"errors"
	"fmt"

	"brandkit-app/internal/domain/credits"
	"brandkit-app/internal/domain/plans"
	"brandkit-app/internal/domain/users"

	"gorm.io/gorm"
)

// Adapter applies normalized billing events: each event maps to a pair of
// (account update, ledger call) per the subscription lifecycle, plus a
// Purchase record where money changed hands.
type Adapter struct {
	db     *gorm.DB
	ledger *credits.Service
}

func NewAdapter(db *gorm.DB, ledger *credits.Service) *Adapter {
	return &Adapter{db: db, ledger: ledger}
}

func (a *Adapter) Apply(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case PlanActivated:
		return a.planActivated(ctx, e)
	case PlanCanceled:
		return a.update(ctx, e.UserID, map[string]interface{}{
			"cancel_at_period_end": true,
			"subscription_status":  e.RawStatus,
		})
	case PlanResumed:
		return a.update(ctx, e.UserID, map[string]interface{}{
			"cancel_at_period_end": false,
			"plan_status":          plans.StatusActive,
			"subscription_status":  e.RawStatus,
		})
	case PlanExpired:
		return a.update(ctx, e.UserID, map[string]interface{}{
			"plan":                plans.PlanFree,
			"plan_status":         plans.StatusCanceled,
			"subscription_status": e.RawStatus,
		})
	case CreditsPurchased:
		return a.creditsPurchased(ctx, e)
	case RenewalSucceeded:
		return a.renewalSucceeded(ctx, e)
	case PaymentFailed:
		return a.update(ctx, e.UserID, map[string]interface{}{
			"plan_status":         plans.StatusPastDue,
			"subscription_status": e.RawStatus,
		})
	default:
		return fmt.Errorf("unknown billing event %T", ev)
	}
}

func (a *Adapter) planActivated(ctx context.Context, e PlanActivated) error {
	var user users.User
	if err := a.db.WithContext(ctx).First(&user, e.UserID).Error; err != nil {
		return fmt.Errorf("user %d not found: %w", e.UserID, err)
	}

	plan := plans.ByKey(e.PlanKey)

	// Only a genuinely new subscription grants the allocation; Stripe and
	// Lemon Squeezy both resend update events for the same subscription.
	isNew := e.PlanStatus == plans.StatusActive &&
		(user.SubscriptionID == nil || *user.SubscriptionID != e.SubscriptionID)

	updates := map[string]interface{}{
		"plan":                  plan.Key,
		"plan_status":           e.PlanStatus,
		"subscription_provider": e.Provider,
		"subscription_id":       e.SubscriptionID,
		"subscription_status":   e.RawStatus,
		"current_period_start":  e.PeriodStart,
		"current_period_end":    e.PeriodEnd,
		"cancel_at_period_end":  false,
	}
	switch e.Provider {
	case ProviderStripe:
		if e.ProviderCustomerID != "" {
			updates["stripe_customer_id"] = e.ProviderCustomerID
		}
	case ProviderLemonSqueezy:
		if e.ProviderCustomerID != "" {
			updates["ls_customer_id"] = e.ProviderCustomerID
		}
	}

	if err := a.db.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", user.ID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update user after activation: %w", err)
	}

	if isNew {
		_, err := a.ledger.Add(ctx, credits.AddParams{
			UserID:      user.ID,
			Amount:      plan.MonthlyCredits,
			Type:        credits.TxSubscription,
			Reason:      "subscription_activated",
			Description: fmt.Sprintf("%s plan activated - %d credits", plan.Name, plan.MonthlyCredits),
		})
		if err != nil {
			return err
		}
	}

	if e.AmountCents > 0 {
		return a.recordPurchase(ctx, &Purchase{
			UserID:                 user.ID,
			Type:                   PurchaseSubscription,
			Provider:               e.Provider,
			Plan:                   plan.Key,
			AmountCents:            e.AmountCents,
			Currency:               e.Currency,
			ProviderCustomerID:     e.ProviderCustomerID,
			ProviderPaymentID:      e.ProviderPaymentID,
			ProviderSubscriptionID: &e.SubscriptionID,
			ProviderProductID:      e.ProviderProductID,
			Status:                 StatusCompleted,
		})
	}
	return nil
}

func (a *Adapter) creditsPurchased(ctx context.Context, e CreditsPurchased) error {
	pack, ok := plans.PackByID(e.PackID)
	if !ok {
		return fmt.Errorf("unknown credit pack %q", e.PackID)
	}

	_, err := a.ledger.Add(ctx, credits.AddParams{
		UserID:      e.UserID,
		Amount:      pack.Credits,
		Type:        credits.TxPurchase,
		Reason:      "credit_pack_purchase",
		Description: fmt.Sprintf("Purchased %s - %d credits", pack.Name, pack.Credits),
	})
	if err != nil {
		return err
	}

	return a.recordPurchase(ctx, &Purchase{
		UserID:             e.UserID,
		Type:               PurchaseCreditPack,
		Provider:           e.Provider,
		Credits:            pack.Credits,
		AmountCents:        e.AmountCents,
		Currency:           e.Currency,
		ProviderCustomerID: e.ProviderCustomerID,
		ProviderPaymentID:  e.ProviderPaymentID,
		ProviderProductID:  e.ProviderProductID,
		Status:             StatusCompleted,
		Metadata:           map[string]string{"pack_id": pack.ID},
	})
}

func (a *Adapter) renewalSucceeded(ctx context.Context, e RenewalSucceeded) error {
	var user users.User
	if err := a.db.WithContext(ctx).First(&user, e.UserID).Error; err != nil {
		return fmt.Errorf("user %d not found: %w", e.UserID, err)
	}
	if user.Plan == plans.PlanFree {
		return nil
	}
	return a.ledger.MonthlyReset(ctx, user.ID)
}

func (a *Adapter) update(ctx context.Context, userID uint, updates map[string]interface{}) error {
	res := a.db.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", userID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("user not found")
	}
	return nil
}

// recordPurchase tolerates redelivered webhooks: the unique index on
// provider_payment_id rejects the duplicate row and we move on.
func (a *Adapter) recordPurchase(ctx context.Context, p *Purchase) error {
	if p.ProviderPaymentID == "" {
		return nil
	}
	if err := a.db.WithContext(ctx).Create(p).Error; err != nil {
		var existing Purchase
		if a.db.WithContext(ctx).
			Where("provider_payment_id = ?", p.ProviderPaymentID).
			First(&existing).Error == nil {
			return nil
		}
		return err
	}
	return nil
}
