package users

import (
	"net/http"
	"time"

	"brandkit-app/database"
	"brandkit-app/internal/domain/plans"
	"brandkit-app/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type UserDTO struct {
	ID         uint   `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	IsVerified bool   `json:"is_verified"`
}

type BillingDTO struct {
	Plan               string     `json:"plan"`
	PlanName           string     `json:"plan_name"`
	PlanStatus         string     `json:"plan_status"`
	MonthlyCredits     int        `json:"monthly_credits"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	Provider           *string    `json:"provider,omitempty"`
}

type MeResponse struct {
	User    UserDTO    `json:"user"`
	Billing BillingDTO `json:"billing"`
	Credits int        `json:"credits"`
}

// GET /me
func GetCurrentUser(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user users.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	plan := plans.ByKey(user.Plan)

	c.JSON(http.StatusOK, MeResponse{
		User: UserDTO{
			ID:         user.ID,
			Email:      user.Email,
			Name:       user.Name,
			Role:       user.Role,
			IsVerified: user.IsVerified,
		},
		Billing: BillingDTO{
			Plan:               user.Plan,
			PlanName:           plan.Name,
			PlanStatus:         user.PlanStatus,
			MonthlyCredits:     plan.MonthlyCredits,
			CurrentPeriodStart: user.CurrentPeriodStart,
			CurrentPeriodEnd:   user.CurrentPeriodEnd,
			CancelAtPeriodEnd:  user.CancelAtPeriodEnd,
			Provider:           user.SubscriptionProvider,
		},
		Credits: user.Credits,
	})
}
