package credits

import (
	"net/http"
	"time"

	creditsdomain "brandkit-app/internal/domain/credits"
	"brandkit-app/internal/domain/plans"
	"brandkit-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	db     *gorm.DB
	ledger *creditsdomain.Service
}

func NewHandler(db *gorm.DB, ledger *creditsdomain.Service) *Handler {
	return &Handler{db: db, ledger: ledger}
}

type balanceResponse struct {
	Balance           int            `json:"balance"`
	Plan              string         `json:"plan"`
	MonthlyAllocation int            `json:"monthly_allocation"`
	UsedThisMonth     int            `json:"used_this_month"`
	ResetDate         *time.Time     `json:"reset_date"`
	Usage             map[string]int `json:"usage"`
}

// GET /credits/balance
func (h *Handler) GetBalance(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user users.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	stats, err := h.ledger.UsageStats(c.Request.Context(), userID, 30)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load usage stats"})
		return
	}

	plan := plans.ByKey(user.Plan)

	c.JSON(http.StatusOK, balanceResponse{
		Balance:           user.Credits,
		Plan:              user.Plan,
		MonthlyAllocation: plan.MonthlyCredits,
		UsedThisMonth:     stats.TotalUsed,
		ResetDate:         user.CurrentPeriodEnd,
		Usage:             stats.ByFeature,
	})
}

// GET /credits/history
func (h *Handler) GetHistory(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txs, err := h.ledger.History(c.Request.Context(), userID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
