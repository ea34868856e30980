package admin

import (
	"net/http"
	"strconv"
	"time"

	"brandkit-app/database"
	"brandkit-app/internal/domain/assets"
	"brandkit-app/internal/domain/billing"
	"brandkit-app/internal/domain/credits"
	"brandkit-app/internal/domain/users"
	"brandkit-app/internal/domain/waitlist"

	"github.com/gin-gonic/gin"
)

type planCount struct {
	Plan  string `json:"plan"`
	Count int64  `json:"count"`
}

// GET /admin/dashboard
func GetDashboard(c *gin.Context) {
	db := database.DB

	var totalUsers int64
	db.Model(&users.User{}).Count(&totalUsers)

	var usersPerPlan []planCount
	db.Model(&users.User{}).
		Select("plan, COUNT(*) as count").
		Group("plan").
		Scan(&usersPerPlan)

	var revenueCents int64
	db.Model(&billing.Purchase{}).
		Where("status = ?", billing.StatusCompleted).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&revenueCents)

	var creditsIssued int64
	db.Model(&credits.Transaction{}).
		Where("amount > 0").
		Select("COALESCE(SUM(amount), 0)").
		Scan(&creditsIssued)

	var creditsSpent int64
	db.Model(&credits.Transaction{}).
		Where("amount < 0").
		Select("COALESCE(SUM(-amount), 0)").
		Scan(&creditsSpent)

	var assetsGenerated int64
	db.Model(&assets.BrandAsset{}).
		Where("status = ?", assets.StatusCompleted).
		Count(&assetsGenerated)

	var waitlistTotal int64
	db.Model(&waitlist.WaitlistUser{}).Count(&waitlistTotal)

	c.JSON(http.StatusOK, gin.H{
		"total_users":      totalUsers,
		"users_per_plan":   usersPerPlan,
		"revenue_cents":    revenueCents,
		"credits_issued":   creditsIssued,
		"credits_spent":    creditsSpent,
		"assets_generated": assetsGenerated,
		"waitlist_total":   waitlistTotal,
	})
}

// GET /admin/users
func ListUsers(c *gin.Context) {
	limit, offset := pagination(c)

	var list []users.User
	if err := database.DB.
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	out := make([]gin.H, 0, len(list))
	for _, u := range list {
		out = append(out, gin.H{
			"id":          u.ID,
			"email":       u.Email,
			"name":        u.Name,
			"role":        u.Role,
			"plan":        u.Plan,
			"plan_status": u.PlanStatus,
			"credits":     u.Credits,
			"is_verified": u.IsVerified,
			"created_at":  u.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// GET /admin/users/:id
func GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var user users.User
	if err := database.DB.First(&user, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var transactions []credits.Transaction
	database.DB.
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(20).
		Find(&transactions)

	var purchases []billing.Purchase
	database.DB.
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(20).
		Find(&purchases)

	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"transactions": transactions,
		"purchases":    purchases,
	})
}

// GET /admin/purchases
func ListPurchases(c *gin.Context) {
	limit, offset := pagination(c)

	var purchases []billing.Purchase
	q := database.DB.Order("created_at DESC").Limit(limit).Offset(offset)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&purchases).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch purchases"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchases": purchases})
}

// GET /admin/waitlist
func GetWaitlist(c *gin.Context) {
	limit, offset := pagination(c)

	var total int64
	database.DB.Model(&waitlist.WaitlistUser{}).Count(&total)

	var entries []waitlist.WaitlistUser
	if err := database.DB.
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch waitlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"total": total, "entries": entries})
}

// GET /admin/assets/stale
//
// Lists PROCESSING assets older than 10 minutes. Each one marks a
// deduction whose generation never finished; resolution (refund or
// mark failed) is a manual call.
func ListStaleAssets(c *gin.Context) {
	cutoff := time.Now().Add(-10 * time.Minute)

	var stale []assets.BrandAsset
	if err := database.DB.
		Where("status = ? AND created_at < ?", assets.StatusProcessing, cutoff).
		Order("created_at ASC").
		Find(&stale).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(stale), "assets": stale})
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
