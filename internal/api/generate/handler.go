package generate

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"brandkit-app/internal/domain/assets"
	"brandkit-app/internal/domain/credits"
	"brandkit-app/internal/domain/plans"
	"brandkit-app/internal/domain/users"
	"brandkit-app/internal/infra/openai"
	"brandkit-app/internal/infra/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Handler struct {
	db        *gorm.DB
	ledger    *credits.Service
	generator openai.ImageGenerator
	uploader  storage.Uploader
}

func NewHandler(db *gorm.DB, ledger *credits.Service, generator openai.ImageGenerator, uploader storage.Uploader) *Handler {
	return &Handler{db: db, ledger: ledger, generator: generator, uploader: uploader}
}

type generateLogoRequest struct {
	Prompt    string `json:"prompt" binding:"required"`
	ProjectID string `json:"project_id" binding:"required"`
	Style     string `json:"style"`
}

// POST /generate/logo
//
// Credits are deducted before generation and refunded if the downstream
// call fails. A crash in between leaves the PROCESSING asset row as the
// trace for manual reconciliation.
func (h *Handler) GenerateLogo(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req generateLogoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing prompt or project_id"})
		return
	}

	var user users.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var project assets.Project
	if err := h.db.Where("id = ? AND user_id = ?", req.ProjectID, userID).First(&project).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	features := plans.ByKey(user.Plan).Features
	cost := plans.CostLogoGeneration

	ok, err := h.ledger.HasCredits(c.Request.Context(), userID, cost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check credits"})
		return
	}
	if !ok {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":     "Insufficient credits",
			"required":  cost,
			"available": user.Credits,
		})
		return
	}

	asset := assets.BrandAsset{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProjectID:   project.ID,
		Type:        assets.TypeLogo,
		Status:      assets.StatusProcessing,
		Prompt:      req.Prompt,
		CreditsUsed: cost,
		Model:       "dall-e-3",
		Data:        map[string]string{"style": req.Style},
	}
	if err := h.db.Create(&asset).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create asset"})
		return
	}

	deduct, err := h.ledger.Deduct(c.Request.Context(), credits.DeductParams{
		UserID:      userID,
		Amount:      cost,
		Reason:      "logo_generation",
		Description: "Generated logo: " + truncate(req.Prompt, 50),
		AssetID:     &asset.ID,
		Metadata:    map[string]string{"style": req.Style, "quality": features.LogoQuality},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deduct credits"})
		return
	}
	if !deduct.Success {
		// Lost a race with another request since the HasCredits check.
		h.db.Model(&asset).Update("status", assets.StatusFailed)
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":     "Insufficient credits",
			"required":  deduct.Required,
			"available": deduct.Available,
		})
		return
	}

	completed, genErr := h.runGeneration(c, &asset, req, features.LogoQuality)
	if genErr != nil {
		log.Println("Logo generation failed:", genErr)

		if _, err := h.ledger.Refund(c.Request.Context(), credits.RefundParams{
			UserID:  userID,
			Amount:  cost,
			Reason:  "generation_failed",
			AssetID: &asset.ID,
		}); err != nil {
			// Refund failure means credits were consumed with no artifact
			// produced; needs manual reconciliation.
			log.Printf("CRITICAL: refund failed for user %d asset %s: %v", userID, asset.ID, err)
		}

		h.db.Model(&asset).Updates(map[string]interface{}{
			"status":        assets.StatusFailed,
			"error_message": genErr.Error(),
		})

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":            "Generation failed",
			"message":          genErr.Error(),
			"credits_refunded": true,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"asset":             completed,
		"credits_used":      cost,
		"remaining_credits": deduct.NewBalance,
	})
}

func (h *Handler) runGeneration(c *gin.Context, asset *assets.BrandAsset, req generateLogoRequest, quality string) (*assets.BrandAsset, error) {
	ctx := c.Request.Context()
	start := time.Now()

	image, err := h.generator.GenerateImage(ctx, openai.GenerateRequest{
		Prompt:  buildLogoPrompt(req.Prompt, req.Style),
		Quality: quality,
	})
	if err != nil {
		return nil, err
	}

	data, err := h.generator.FetchImage(ctx, image.URL)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%d/logos/%s.png", asset.UserID, asset.ID)
	url, err := h.uploader.Upload(ctx, path, "image/png", data)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":             assets.StatusCompleted,
		"url":                url,
		"storage_path":       path,
		"file_size":          int64(len(data)),
		"mime_type":          "image/png",
		"generation_time_ms": time.Since(start).Milliseconds(),
	}
	if err := h.db.Model(asset).Updates(updates).Error; err != nil {
		return nil, err
	}

	var completed assets.BrandAsset
	if err := h.db.First(&completed, "id = ?", asset.ID).Error; err != nil {
		return nil, err
	}
	return &completed, nil
}

func buildLogoPrompt(userPrompt, style string) string {
	p := "Professional logo design: " + userPrompt
	if style != "" {
		p += "\nStyle: " + style
	}
	p += "\nClean, scalable, centered composition, no text or letters, suitable for light and dark backgrounds"
	return p
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
