package billing

import (
	"net/http"

	"brandkit-app/database"
	"brandkit-app/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

// GET /billing/purchases
func GetPurchaseHistory(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var purchases []billing.Purchase
	if err := database.DB.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&purchases).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load purchases"})
		return
	}

	c.JSON(http.StatusOK, purchases)
}
