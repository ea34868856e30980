package middleware

import (
	"net/http"

	"brandkit-app/database"
	"brandkit-app/internal/domain/plans"
	"brandkit-app/internal/domain/users"

	"github.com/gin-gonic/gin"
)

// RequirePaidPlan gates endpoints reserved for subscribers in good
// standing. PAST_DUE accounts keep read access elsewhere but are blocked
// here until the provider reports a successful payment.
func RequirePaidPlan() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")

		var user users.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Account not found",
			})
			return
		}

		if user.Plan == plans.PlanFree {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error": "This feature requires a paid plan",
			})
			return
		}

		switch user.PlanStatus {
		case plans.StatusActive, plans.StatusTrialing:
			c.Next()
		default:
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error": "Your subscription is not active",
			})
		}
	}
}
