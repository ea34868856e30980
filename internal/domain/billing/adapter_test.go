package billing

import (
	"context"
	"testing"
	"time"

	"brandkit-app/internal/domain/credits"
	"brandkit-app/internal/domain/plans"
	"brandkit-app/internal/domain/users"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&users.User{}, &credits.Transaction{}, &Purchase{}))
	return db
}

func newTestAdapter(t *testing.T) (*Adapter, *gorm.DB) {
	t.Helper()

	plans.Load()
	db := openTestDB(t)
	return NewAdapter(db, credits.New(db)), db
}

func seedFreeUser(t *testing.T, db *gorm.DB, balance int) *users.User {
	t.Helper()

	u := &users.User{
		Email:      "billing@example.com",
		Plan:       plans.PlanFree,
		PlanStatus: plans.StatusActive,
		Credits:    balance,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func activation(userID uint) PlanActivated {
	now := time.Now()
	return PlanActivated{
		UserID:             userID,
		PlanKey:            plans.PlanPro,
		Provider:           ProviderStripe,
		SubscriptionID:     "sub_123",
		RawStatus:          "active",
		PlanStatus:         plans.StatusActive,
		PeriodStart:        now,
		PeriodEnd:          now.AddDate(0, 1, 0),
		AmountCents:        1900,
		Currency:           "usd",
		ProviderCustomerID: "cus_123",
		ProviderPaymentID:  "in_123",
		ProviderProductID:  "price_pro_monthly",
	}
}

func TestPlanActivated_GrantsCreditsOnce(t *testing.T) {
	a, db := newTestAdapter(t)
	u := seedFreeUser(t, db, 25)
	ctx := context.Background()

	require.NoError(t, a.Apply(ctx, activation(u.ID)))

	var got users.User
	require.NoError(t, db.First(&got, u.ID).Error)
	require.Equal(t, plans.PlanPro, got.Plan)
	require.Equal(t, plans.StatusActive, got.PlanStatus)
	require.NotNil(t, got.SubscriptionID)
	require.Equal(t, "sub_123", *got.SubscriptionID)
	require.NotNil(t, got.StripeCustomerID)
	require.Equal(t, "cus_123", *got.StripeCustomerID)
	require.Equal(t, 225, got.Credits) // 25 remaining + 200 PRO allocation

	var tx credits.Transaction
	require.NoError(t, db.Where("user_id = ? AND reason = ?", u.ID, "subscription_activated").First(&tx).Error)
	require.Equal(t, credits.TxSubscription, tx.Type)
	require.Equal(t, 200, tx.Amount)

	var purchase Purchase
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&purchase).Error)
	require.Equal(t, PurchaseSubscription, purchase.Type)
	require.Equal(t, int64(1900), purchase.AmountCents)
	require.Equal(t, StatusCompleted, purchase.Status)

	// A redelivered update for the same subscription must not grant again
	// or duplicate the purchase row.
	require.NoError(t, a.Apply(ctx, activation(u.ID)))

	require.NoError(t, db.First(&got, u.ID).Error)
	require.Equal(t, 225, got.Credits)

	var purchases int64
	db.Model(&Purchase{}).Where("user_id = ?", u.ID).Count(&purchases)
	require.Equal(t, int64(1), purchases)
}

func TestPlanCanceled_MarksCancelAtPeriodEnd(t *testing.T) {
	a, db := newTestAdapter(t)
	u := seedFreeUser(t, db, 25)
	ctx := context.Background()

	require.NoError(t, a.Apply(ctx, activation(u.ID)))
	require.NoError(t, a.Apply(ctx, PlanCanceled{UserID: u.ID, RawStatus: "active"}))

	var got users.User
	require.NoError(t, db.First(&got, u.ID).Error)
	require.True(t, got.CancelAtPeriodEnd)
	// Access continues until the period lapses.
	require.Equal(t, plans.PlanPro, got.Plan)
	require.Equal(t, 225, got.Credits)
}

func TestPlanResumed_ClearsCancellation(t *testing.T) {
	a, db := newTestAdapter(t)
	u := seedFreeUser(t, db, 25)
	ctx := context.Background()

	require.NoError(t, a.Apply(ctx, activation(u.ID)))
	require.NoError(t, a.Apply(ctx, PlanCanceled{UserID: u.ID, RawStatus: "active"}))
	require.NoError(t, a.Apply(ctx, PlanResumed{UserID: u.ID, RawStatus: "active"}))

	var got users.User
	require.NoError(t, db.First(&got, u.ID).Error)
	require.False(t, got.CancelAtPeriodEnd)
	require.Equal(t, plans.StatusActive, got.PlanStatus)
}

func TestPlanExpired_DropsToFree(t *testing.T) {
	a, db := newTestAdapter(t)
	u := seedFreeUser(t, db, 25)
	ctx := context.Background()

	require.NoError(t, a.Apply(ctx, activation(u.ID)))
	require.NoError(t, a.Apply(ctx, PlanExpired{UserID: u.ID, RawStatus: "canceled"}))

	var got users.User
	require.NoError(t, db.First(&got, u.ID).Error)
	require.Equal(t, plans.PlanFree, got.Plan)
	require.Equal(t, plans.StatusCanceled, got.PlanStatus)
	// Remaining credits are kept; only the plan lapses.
	require.Equal(t, 225, got.Credits)
}

func TestCreditsPurchased_AddsPackAndRecordsPurchase(t *testing.T) {
	a, db := newTestAdapter(t)
	u := seedFreeUser(t, db, 25)
	ctx := context.Background()

	require.NoError(t, a.Apply(ctx, CreditsPurchased{
		UserID:             u.ID,
		PackID:             "starter",
		Provider:           ProviderStripe,
		AmountCents:        900,
		Currency:           "usd",
		ProviderCustomerID: "cus_123",
		ProviderPaymentID:  "pi_123",
	}))

	var got users.User
	require.NoError(t, db.First(&got, u.ID).Error)
	require.Equal(t, 125, got.Credits)

	var tx credits.Transaction
	require.NoError(t, db.Where("user_id = ? AND reason = ?", u.ID, "credit_pack_purchase").First(&tx).Error)
	require.Equal(t, credits.TxPurchase, tx.Type)
	require.Equal(t, 100, tx.Amount)

	var purchase Purchase
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&purchase).Error)
	require.Equal(t, PurchaseCreditPack, purchase.Type)
	require.Equal(t, 100, purchase.Credits)
	require.Equal(t, "starter", purchase.Metadata["pack_id"])
}

func TestCreditsPurchased_UnknownPack(t *testing.T) {
	a, db := newTestAdapter(t)
	u := seedFreeUser(t, db, 25)

	err := a.Apply(context.Background(), CreditsPurchased{UserID: u.ID, PackID: "nonexistent"})
	require.Error(t, err)
	require.Equal(t, 25, balanceOf(t, db, u.ID))
}

func TestRenewalSucceeded_ResetsPaidPlan(t *testing.T) {
	a, db := newTestAdapter(t)
	u := seedFreeUser(t, db, 25)
	ctx := context.Background()

	require.NoError(t, a.Apply(ctx, activation(u.ID))) // 225 credits, PRO

	require.NoError(t, a.Apply(ctx, RenewalSucceeded{UserID: u.ID}))
	require.Equal(t, 200, balanceOf(t, db, u.ID))
}

func TestRenewalSucceeded_FreePlanIsNoop(t *testing.T) {
	a, db := newTestAdapter(t)
	u := seedFreeUser(t, db, 17)

	require.NoError(t, a.Apply(context.Background(), RenewalSucceeded{UserID: u.ID}))
	require.Equal(t, 17, balanceOf(t, db, u.ID))
}

func TestPaymentFailed_SetsPastDue(t *testing.T) {
	a, db := newTestAdapter(t)
	u := seedFreeUser(t, db, 25)
	ctx := context.Background()

	require.NoError(t, a.Apply(ctx, activation(u.ID)))
	require.NoError(t, a.Apply(ctx, PaymentFailed{UserID: u.ID, RawStatus: "past_due"}))

	var got users.User
	require.NoError(t, db.First(&got, u.ID).Error)
	require.Equal(t, plans.StatusPastDue, got.PlanStatus)
	// Credits are untouched by a failed payment.
	require.Equal(t, 225, got.Credits)
}

func balanceOf(t *testing.T, db *gorm.DB, userID uint) int {
	t.Helper()

	var u users.User
	require.NoError(t, db.First(&u, userID).Error)
	return u.Credits
}
