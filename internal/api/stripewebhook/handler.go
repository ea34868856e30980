package stripewebhook

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"brandkit-app/config"
	"brandkit-app/internal/domain/billing"
	"brandkit-app/internal/infra/events"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
	"gorm.io/gorm"
)

type Handler struct {
	db      *gorm.DB
	adapter *billing.Adapter
	dedup   events.Store
}

func NewHandler(db *gorm.DB, adapter *billing.Adapter, dedup events.Store) *Handler {
	return &Handler{db: db, adapter: adapter, dedup: dedup}
}

// POST /webhooks/stripe
func (h *Handler) Webhook(c *gin.Context) {
	// Stripe key is required for follow-up API calls (subscription.Get).
	stripe.Key = config.STRIPE_SECRET_KEY
	if stripe.Key == "" || config.STRIPE_WEBHOOK_SECRET == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe not configured"})
		return
	}

	payload, err := readBody(c, 65536)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		config.STRIPE_WEBHOOK_SECRET,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		log.Println("Stripe signature verification failed:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	// Seen claims the event ID up front so a concurrent redelivery is not
	// processed twice; on failure the claim is released below so Stripe's
	// retry can succeed.
	if h.dedup.Seen(c.Request.Context(), "stripe", event.ID) {
		c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
		return
	}

	if status, err := h.process(c, &event); err != nil {
		h.dedup.Forget(c.Request.Context(), "stripe", event.ID)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) process(c *gin.Context, event *stripe.Event) (int, error) {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return http.StatusBadRequest, errors.New("failed to parse session")
		}
		if err := h.handleCheckoutCompleted(c, &session); err != nil {
			return http.StatusInternalServerError, err
		}

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return http.StatusBadRequest, errors.New("failed to parse subscription")
		}
		if err := h.handleSubscriptionUpdated(c, &sub); err != nil {
			return http.StatusInternalServerError, err
		}

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return http.StatusBadRequest, errors.New("failed to parse subscription")
		}
		if err := h.handleSubscriptionDeleted(c, &sub); err != nil {
			return http.StatusInternalServerError, err
		}

	case "invoice.payment_succeeded", "invoice.payment_failed":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return http.StatusBadRequest, errors.New("failed to parse invoice")
		}
		if err := h.handleInvoice(c, string(event.Type), &invoice); err != nil {
			return http.StatusInternalServerError, err
		}

	default:
		// Acknowledge unknown events to avoid retries.
		log.Println("Ignoring Stripe event:", event.Type)
	}

	return http.StatusOK, nil
}

func readBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
