package assets

import (
	"net/http"

	"brandkit-app/database"
	"brandkit-app/internal/domain/assets"
	"brandkit-app/internal/domain/plans"
	"brandkit-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GET /assets
func ListAssets(c *gin.Context) {
	userID := c.GetUint("user_id")

	query := database.DB.Where("user_id = ?", userID)
	if projectID := c.Query("project_id"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}

	var list []assets.BrandAsset
	if err := query.Order("created_at DESC").Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load assets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"assets": list})
}

// GET /assets/:id
func GetAsset(c *gin.Context) {
	userID := c.GetUint("user_id")

	var asset assets.BrandAsset
	if err := database.DB.
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		First(&asset).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
		return
	}

	c.JSON(http.StatusOK, asset)
}

// POST /projects
func CreateProject(c *gin.Context) {
	userID := c.GetUint("user_id")

	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing project name"})
		return
	}

	var user users.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	max := plans.ByKey(user.Plan).Features.MaxProjects
	if max > 0 {
		var count int64
		database.DB.Model(&assets.Project{}).Where("user_id = ?", userID).Count(&count)
		if count >= int64(max) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Project limit reached for your plan",
				"limit": max,
			})
			return
		}
	}

	project := assets.Project{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   body.Name,
	}
	if err := database.DB.Create(&project).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, project)
}

// GET /projects
func ListProjects(c *gin.Context) {
	userID := c.GetUint("user_id")

	var projects []assets.Project
	if err := database.DB.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load projects"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// DELETE /projects/:id
func DeleteProject(c *gin.Context) {
	userID := c.GetUint("user_id")

	res := database.DB.
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		Delete(&assets.Project{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
