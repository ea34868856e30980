package lemonwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"brandkit-app/internal/domain/billing"
	"brandkit-app/internal/domain/plans"
	"brandkit-app/internal/domain/users"
	"brandkit-app/internal/infra/events"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	db      *gorm.DB
	adapter *billing.Adapter
	dedup   events.Store
	secret  string
}

func NewHandler(db *gorm.DB, adapter *billing.Adapter, dedup events.Store, secret string) *Handler {
	return &Handler{db: db, adapter: adapter, dedup: dedup, secret: secret}
}

type payload struct {
	Meta struct {
		EventName string `json:"event_name"`
	} `json:"meta"`
	Data struct {
		ID         string     `json:"id"`
		Attributes attributes `json:"attributes"`
	} `json:"data"`
}

type attributes struct {
	CustomerID json.Number `json:"customer_id"`
	VariantID  json.Number `json:"variant_id"`
	Status     string      `json:"status"`
	RenewsAt   *time.Time  `json:"renews_at"`
	EndsAt     *time.Time  `json:"ends_at"`
	Cancelled  bool        `json:"cancelled"`
	Total      int64       `json:"total"`
	Currency   string      `json:"currency"`

	FirstSubscriptionItem *struct {
		ID    json.Number `json:"id"`
		Price int64       `json:"price"`
	} `json:"first_subscription_item"`

	FirstOrderItem *struct {
		VariantID json.Number `json:"variant_id"`
	} `json:"first_order_item"`
}

// POST /webhooks/lemonsqueezy
//
// Provider contract: after the signature passes we always ack with 200;
// per-event problems are logged, never surfaced to Lemon Squeezy.
func (h *Handler) Webhook(c *gin.Context) {
	if h.secret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lemon Squeezy webhook secret not configured"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 65536))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	if !h.verifySignature(body, c.GetHeader("X-Signature")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		log.Println("Lemon Squeezy webhook: malformed payload:", err)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	// Every delivery carries a unique event ID; redeliveries of the same
	// event reuse it, while distinct events that happen to share a
	// subscription ID and status do not.
	eventID := c.GetHeader("X-Event-Id")
	if h.dedup.Seen(c.Request.Context(), "lemonsqueezy", eventID) {
		c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
		return
	}

	if err := h.dispatch(c, &p); err != nil {
		log.Printf("Lemon Squeezy webhook %s failed: %v", p.Meta.EventName, err)
		// Release the claim so a manual resend of this event is not
		// swallowed as a duplicate.
		h.dedup.Forget(c.Request.Context(), "lemonsqueezy", eventID)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	digest := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(digest))
}

func (h *Handler) dispatch(c *gin.Context, p *payload) error {
	ctx := c.Request.Context()
	attrs := p.Data.Attributes

	user, err := h.userByCustomerID(attrs.CustomerID.String())
	if err != nil {
		log.Println("Lemon Squeezy webhook: user not found for customer", attrs.CustomerID)
		return nil
	}

	switch p.Meta.EventName {
	case "subscription_created", "subscription_updated":
		return h.subscriptionUpdate(ctx, p, user)

	case "subscription_cancelled":
		return h.adapter.Apply(ctx, billing.PlanCanceled{UserID: user.ID, RawStatus: attrs.Status})

	case "subscription_resumed":
		return h.adapter.Apply(ctx, billing.PlanResumed{UserID: user.ID, RawStatus: "active"})

	case "subscription_expired":
		return h.adapter.Apply(ctx, billing.PlanExpired{UserID: user.ID, RawStatus: "expired"})

	case "order_created":
		return h.orderCreated(ctx, p, user)

	case "subscription_payment_success":
		return h.adapter.Apply(ctx, billing.RenewalSucceeded{UserID: user.ID})

	case "subscription_payment_failed":
		return h.adapter.Apply(ctx, billing.PaymentFailed{UserID: user.ID, RawStatus: "past_due"})

	default:
		log.Println("Unhandled Lemon Squeezy event:", p.Meta.EventName)
		return nil
	}
}

func (h *Handler) subscriptionUpdate(ctx context.Context, p *payload, user *users.User) error {
	attrs := p.Data.Attributes

	plan, ok := plans.FromLSVariantID(attrs.VariantID.String())
	if !ok {
		log.Println("Lemon Squeezy webhook: unknown variant", attrs.VariantID)
		return nil
	}

	periodStart := time.Now()
	periodEnd := periodStart.AddDate(0, 1, 0)
	if attrs.RenewsAt != nil {
		periodEnd = *attrs.RenewsAt
	}

	var amountCents int64
	paymentID := ""
	if attrs.FirstSubscriptionItem != nil {
		amountCents = attrs.FirstSubscriptionItem.Price
		paymentID = attrs.FirstSubscriptionItem.ID.String()
	}

	ev := billing.PlanActivated{
		UserID:             user.ID,
		PlanKey:            plan.Key,
		Provider:           billing.ProviderLemonSqueezy,
		SubscriptionID:     p.Data.ID,
		RawStatus:          attrs.Status,
		PlanStatus:         plans.NormalizeLSStatus(attrs.Status),
		PeriodStart:        periodStart,
		PeriodEnd:          periodEnd,
		AmountCents:        amountCents,
		Currency:           attrs.Currency,
		ProviderCustomerID: attrs.CustomerID.String(),
		ProviderPaymentID:  paymentID,
		ProviderProductID:  attrs.VariantID.String(),
	}
	if err := h.adapter.Apply(ctx, ev); err != nil {
		return err
	}

	// LS reports a pending cancellation through the same update event.
	if attrs.Cancelled {
		return h.adapter.Apply(ctx, billing.PlanCanceled{UserID: user.ID, RawStatus: attrs.Status})
	}
	return nil
}

func (h *Handler) orderCreated(ctx context.Context, p *payload, user *users.User) error {
	attrs := p.Data.Attributes
	if attrs.FirstOrderItem == nil {
		return nil
	}

	pack, ok := plans.PackByLSVariantID(attrs.FirstOrderItem.VariantID.String())
	if !ok {
		// Subscription orders also emit order_created; only packs matter here.
		return nil
	}

	return h.adapter.Apply(ctx, billing.CreditsPurchased{
		UserID:             user.ID,
		PackID:             pack.ID,
		Credits:            pack.Credits,
		Provider:           billing.ProviderLemonSqueezy,
		AmountCents:        attrs.Total,
		Currency:           attrs.Currency,
		ProviderCustomerID: attrs.CustomerID.String(),
		ProviderPaymentID:  p.Data.ID,
		ProviderProductID:  pack.LSVariantID,
	})
}

func (h *Handler) userByCustomerID(customerID string) (*users.User, error) {
	if customerID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var user users.User
	if err := h.db.Where("ls_customer_id = ?", customerID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
