package lemonwebhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"brandkit-app/internal/domain/billing"
	"brandkit-app/internal/domain/credits"
	"brandkit-app/internal/domain/plans"
	"brandkit-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "whsec_test"

// fakeDedup mirrors the claim-then-release semantics of the Redis store.
type fakeDedup struct {
	seen map[string]bool
}

func newFakeDedup() *fakeDedup { return &fakeDedup{seen: map[string]bool{}} }

func (f *fakeDedup) Seen(ctx context.Context, provider, eventID string) bool {
	if eventID == "" {
		return false
	}
	k := provider + ":" + eventID
	if f.seen[k] {
		return true
	}
	f.seen[k] = true
	return false
}

func (f *fakeDedup) Forget(ctx context.Context, provider, eventID string) {
	delete(f.seen, provider+":"+eventID)
}

func openTestDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models...))
	return db
}

func setupHandler(t *testing.T) (*Handler, *gorm.DB, *fakeDedup) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("LS_VARIANT_PRO_MONTHLY", "2001")
	t.Setenv("LS_VARIANT_BUSINESS_MONTHLY", "2002")
	t.Setenv("LS_VARIANT_PACK_STARTER", "3001")
	plans.Load()

	db := openTestDB(t, &users.User{}, &credits.Transaction{}, &billing.Purchase{})
	dedup := newFakeDedup()
	adapter := billing.NewAdapter(db, credits.New(db))
	return NewHandler(db, adapter, dedup, testSecret), db, dedup
}

func seedLSUser(t *testing.T, db *gorm.DB, plan string) *users.User {
	t.Helper()

	customerID := "1001"
	u := &users.User{
		Email:        "ls@example.com",
		Plan:         plan,
		PlanStatus:   plans.StatusActive,
		Credits:      25,
		LSCustomerID: &customerID,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func post(h *Handler, body []byte, signature, eventID string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/webhooks/lemonsqueezy", h.Webhook)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/lemonsqueezy", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Signature", signature)
	}
	if eventID != "" {
		req.Header.Set("X-Event-Id", eventID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var subscriptionCreated = []byte(`{
	"meta": {"event_name": "subscription_created"},
	"data": {
		"id": "sub_ls_1",
		"attributes": {
			"customer_id": 1001,
			"variant_id": 2001,
			"status": "active",
			"currency": "USD",
			"first_subscription_item": {"id": 9001, "price": 1900}
		}
	}
}`)

func TestWebhook_RejectsInvalidSignature(t *testing.T) {
	h, db, _ := setupHandler(t)
	u := seedLSUser(t, db, plans.PlanFree)

	w := post(h, subscriptionCreated, "deadbeef", "ev_1")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// No side effects before signature verification.
	var got users.User
	require.NoError(t, db.First(&got, u.ID).Error)
	require.Equal(t, plans.PlanFree, got.Plan)
	require.Equal(t, 25, got.Credits)
}

func TestWebhook_RejectsMissingSignature(t *testing.T) {
	h, _, _ := setupHandler(t)

	w := post(h, subscriptionCreated, "", "ev_1")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhook_SubscriptionCreated(t *testing.T) {
	h, db, _ := setupHandler(t)
	u := seedLSUser(t, db, plans.PlanFree)

	w := post(h, subscriptionCreated, sign(subscriptionCreated), "ev_1")
	require.Equal(t, http.StatusOK, w.Code)

	var got users.User
	require.NoError(t, db.First(&got, u.ID).Error)
	require.Equal(t, plans.PlanPro, got.Plan)
	require.Equal(t, plans.StatusActive, got.PlanStatus)
	require.NotNil(t, got.SubscriptionProvider)
	require.Equal(t, billing.ProviderLemonSqueezy, *got.SubscriptionProvider)
	require.NotNil(t, got.SubscriptionID)
	require.Equal(t, "sub_ls_1", *got.SubscriptionID)
	require.Equal(t, 225, got.Credits)

	var purchase billing.Purchase
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&purchase).Error)
	require.Equal(t, int64(1900), purchase.AmountCents)
	require.Equal(t, billing.ProviderLemonSqueezy, purchase.Provider)
}

func TestWebhook_RedeliveredEventSkipped(t *testing.T) {
	h, db, _ := setupHandler(t)
	u := seedLSUser(t, db, plans.PlanFree)

	w := post(h, subscriptionCreated, sign(subscriptionCreated), "ev_1")
	require.Equal(t, http.StatusOK, w.Code)

	// Same delivery ID again: acked as duplicate, nothing applied twice.
	w = post(h, subscriptionCreated, sign(subscriptionCreated), "ev_1")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"duplicate":true`)

	var got users.User
	require.NoError(t, db.First(&got, u.ID).Error)
	require.Equal(t, 225, got.Credits)
}

func TestWebhook_PlanChangeWithSameStatusNotDeduped(t *testing.T) {
	h, db, _ := setupHandler(t)
	u := seedLSUser(t, db, plans.PlanFree)

	w := post(h, subscriptionCreated, sign(subscriptionCreated), "ev_1")
	require.Equal(t, http.StatusOK, w.Code)

	// A mid-cycle upgrade arrives as subscription_updated with the same
	// subscription ID and status but its own delivery ID; it must be
	// applied, not skipped.
	upgraded := []byte(`{
		"meta": {"event_name": "subscription_updated"},
		"data": {
			"id": "sub_ls_1",
			"attributes": {
				"customer_id": 1001,
				"variant_id": 2002,
				"status": "active",
				"currency": "USD"
			}
		}
	}`)
	w = post(h, upgraded, sign(upgraded), "ev_2")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "duplicate")

	var got users.User
	require.NoError(t, db.First(&got, u.ID).Error)
	require.Equal(t, plans.PlanBusiness, got.Plan)
}

func TestWebhook_FailedDispatchReleasesClaim(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("LS_VARIANT_PRO_MONTHLY", "2001")
	plans.Load()

	// No transactions table, so the renewal's ledger write fails.
	db := openTestDB(t, &users.User{})
	dedup := newFakeDedup()
	h := NewHandler(db, billing.NewAdapter(db, credits.New(db)), dedup, testSecret)
	seedLSUser(t, db, plans.PlanPro)

	renewal := []byte(`{
		"meta": {"event_name": "subscription_payment_success"},
		"data": {
			"id": "sub_ls_1",
			"attributes": {"customer_id": 1001, "status": "active"}
		}
	}`)
	w := post(h, renewal, sign(renewal), "ev_9")
	require.Equal(t, http.StatusOK, w.Code)

	// The claim was released, so redelivery gets processed again rather
	// than being swallowed as a duplicate.
	require.False(t, dedup.seen["lemonsqueezy:ev_9"])
	w = post(h, renewal, sign(renewal), "ev_9")
	require.NotContains(t, w.Body.String(), "duplicate")
}

func TestWebhook_SubscriptionCancelled(t *testing.T) {
	h, db, _ := setupHandler(t)
	u := seedLSUser(t, db, plans.PlanFree)

	w := post(h, subscriptionCreated, sign(subscriptionCreated), "ev_1")
	require.Equal(t, http.StatusOK, w.Code)

	cancelled := []byte(`{
		"meta": {"event_name": "subscription_cancelled"},
		"data": {
			"id": "sub_ls_1",
			"attributes": {"customer_id": 1001, "status": "cancelled"}
		}
	}`)
	w = post(h, cancelled, sign(cancelled), "ev_2")
	require.Equal(t, http.StatusOK, w.Code)

	var got users.User
	require.NoError(t, db.First(&got, u.ID).Error)
	require.True(t, got.CancelAtPeriodEnd)
	require.Equal(t, plans.PlanPro, got.Plan)
}

func TestWebhook_OrderCreated_CreditPack(t *testing.T) {
	h, db, _ := setupHandler(t)
	u := seedLSUser(t, db, plans.PlanFree)

	order := []byte(`{
		"meta": {"event_name": "order_created"},
		"data": {
			"id": "order_1",
			"attributes": {
				"customer_id": 1001,
				"status": "paid",
				"total": 900,
				"currency": "USD",
				"first_order_item": {"variant_id": 3001}
			}
		}
	}`)
	w := post(h, order, sign(order), "ev_1")
	require.Equal(t, http.StatusOK, w.Code)

	var got users.User
	require.NoError(t, db.First(&got, u.ID).Error)
	require.Equal(t, 125, got.Credits) // 25 + starter pack

	var purchase billing.Purchase
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&purchase).Error)
	require.Equal(t, billing.PurchaseCreditPack, purchase.Type)
	require.Equal(t, "order_1", purchase.ProviderPaymentID)
}

func TestWebhook_OrderCreated_SubscriptionOrderIgnored(t *testing.T) {
	h, db, _ := setupHandler(t)
	u := seedLSUser(t, db, plans.PlanFree)

	// order_created also fires for subscription checkouts; a variant that
	// is not a pack must not touch the ledger.
	order := []byte(`{
		"meta": {"event_name": "order_created"},
		"data": {
			"id": "order_2",
			"attributes": {
				"customer_id": 1001,
				"status": "paid",
				"first_order_item": {"variant_id": 2001}
			}
		}
	}`)
	w := post(h, order, sign(order), "ev_1")
	require.Equal(t, http.StatusOK, w.Code)

	var got users.User
	require.NoError(t, db.First(&got, u.ID).Error)
	require.Equal(t, 25, got.Credits)
}

func TestWebhook_UnknownCustomerAcked(t *testing.T) {
	h, _, _ := setupHandler(t)

	body := []byte(`{
		"meta": {"event_name": "subscription_created"},
		"data": {
			"id": "sub_ls_9",
			"attributes": {"customer_id": 4242, "variant_id": 2001, "status": "active"}
		}
	}`)
	w := post(h, body, sign(body), "ev_1")
	// Always 200 after the signature passes; retries won't help here.
	require.Equal(t, http.StatusOK, w.Code)
}

func TestWebhook_PaymentFailed(t *testing.T) {
	h, db, _ := setupHandler(t)
	u := seedLSUser(t, db, plans.PlanFree)

	w := post(h, subscriptionCreated, sign(subscriptionCreated), "ev_1")
	require.Equal(t, http.StatusOK, w.Code)

	failed := []byte(`{
		"meta": {"event_name": "subscription_payment_failed"},
		"data": {
			"id": "sub_ls_1",
			"attributes": {"customer_id": 1001, "status": "past_due"}
		}
	}`)
	w = post(h, failed, sign(failed), "ev_2")
	require.Equal(t, http.StatusOK, w.Code)

	var got users.User
	require.NoError(t, db.First(&got, u.ID).Error)
	require.Equal(t, plans.StatusPastDue, got.PlanStatus)
}
