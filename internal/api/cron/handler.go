package cron

import (
	"log"
	"net/http"
	"time"

	"brandkit-app/internal/domain/credits"
	"brandkit-app/internal/domain/plans"
	"brandkit-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	db     *gorm.DB
	ledger *credits.Service
	secret string
}

func NewHandler(db *gorm.DB, ledger *credits.Service, secret string) *Handler {
	return &Handler{db: db, ledger: ledger, secret: secret}
}

// GET /cron/monthly-reset
//
// Triggered externally (platform cron). Sweeps paid accounts whose
// billing period has elapsed; each account is reset independently so one
// failure never aborts the batch.
func (h *Handler) MonthlyReset(c *gin.Context) {
	if h.secret == "" || c.GetHeader("Authorization") != "Bearer "+h.secret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	now := time.Now()

	var due []users.User
	if err := h.db.
		Where("plan IN ?", []string{plans.PlanPro, plans.PlanBusiness}).
		Where("plan_status = ?", plans.StatusActive).
		Where("current_period_end <= ?", now).
		Find(&due).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query accounts"})
		return
	}

	log.Printf("Monthly reset: %d accounts due", len(due))

	reset := 0
	for _, user := range due {
		if err := h.ledger.MonthlyReset(c.Request.Context(), user.ID); err != nil {
			log.Printf("Failed to reset credits for user %d: %v", user.ID, err)
			continue
		}

		nextPeriod := now.AddDate(0, 1, 0)
		if err := h.db.Model(&users.User{}).
			Where("id = ?", user.ID).
			Update("current_period_end", nextPeriod).Error; err != nil {
			log.Printf("Failed to advance period for user %d: %v", user.ID, err)
			continue
		}
		reset++
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"users_reset": reset,
	})
}
