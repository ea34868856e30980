package waitlist

import (
	"errors"
	"log"
	"net/http"
	"time"

	"brandkit-app/internal/domain/waitlist"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB

	// SendWelcome is swapped out in tests; a failed email never fails
	// the signup.
	SendWelcome func(email, name, referralCode string, position int64) error
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db, SendWelcome: sendWelcomeEmail}
}

type joinRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name"`
	Referral string `json:"referral"`
}

// POST /waitlist
func (h *Handler) Join(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		return
	}

	var existing waitlist.WaitlistUser
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusOK, gin.H{
			"message":        "You're already on the waitlist!",
			"referral_code":  existing.ReferralCode,
			"already_joined": true,
		})
		return
	}

	var referredByID *uint
	if req.Referral != "" {
		var referrer waitlist.WaitlistUser
		if err := h.db.Where("referral_code = ?", req.Referral).First(&referrer).Error; err == nil {
			referredByID = &referrer.ID
		}
	}

	entry := waitlist.WaitlistUser{
		Email:        req.Email,
		Name:         req.Name,
		ReferralCode: waitlist.NewReferralCode(),
		ReferredByID: referredByID,
	}
	if err := h.db.Create(&entry).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Could not join the waitlist"})
		return
	}

	var position int64
	h.db.Model(&waitlist.WaitlistUser{}).
		Where("created_at <= ?", entry.CreatedAt).
		Count(&position)

	if h.SendWelcome != nil {
		if err := h.SendWelcome(entry.Email, entry.Name, entry.ReferralCode, position); err != nil {
			log.Println("Failed to send waitlist welcome email:", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Successfully joined the waitlist!",
		"referral_code": entry.ReferralCode,
		"position":      position,
	})
}

// GET /waitlist/stats
func (h *Handler) Stats(c *gin.Context) {
	var total int64
	if err := h.db.Model(&waitlist.WaitlistUser{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}

	var recent int64
	weekAgo := time.Now().AddDate(0, 0, -7)
	h.db.Model(&waitlist.WaitlistUser{}).Where("created_at >= ?", weekAgo).Count(&recent)

	c.JSON(http.StatusOK, gin.H{"total": total, "recent": recent})
}

// GET /waitlist/lookup?email=
func (h *Handler) Lookup(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing email"})
		return
	}

	var entry waitlist.WaitlistUser
	if err := h.db.Where("email = ?", email).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not on the waitlist"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lookup failed"})
		return
	}

	var position int64
	h.db.Model(&waitlist.WaitlistUser{}).
		Where("created_at <= ?", entry.CreatedAt).
		Count(&position)

	var referrals int64
	h.db.Model(&waitlist.WaitlistUser{}).
		Where("referred_by_id = ?", entry.ID).
		Count(&referrals)

	c.JSON(http.StatusOK, gin.H{
		"referral_code": entry.ReferralCode,
		"position":      position,
		"referrals":     referrals,
	})
}
