package plans

import (
	"net/http"
	"sort"

	"brandkit-app/internal/domain/plans"

	"github.com/gin-gonic/gin"
)

type PlanDTO struct {
	Key            string  `json:"key"`
	Name           string  `json:"name"`
	MonthlyCredits int     `json:"monthly_credits"`
	PriceUSD       float64 `json:"price_usd"`
	LogoQuality    string  `json:"logo_quality"`
	MaxProjects    int     `json:"max_projects"`
}

type PackDTO struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Credits  int     `json:"credits"`
	PriceUSD float64 `json:"price_usd"`
}

// GET /plans
func ListPlans(c *gin.Context) {
	out := make([]PlanDTO, 0, len(plans.Catalog))
	for _, p := range plans.Catalog {
		out = append(out, PlanDTO{
			Key:            p.Key,
			Name:           p.Name,
			MonthlyCredits: p.MonthlyCredits,
			PriceUSD:       p.PriceUSD,
			LogoQuality:    p.Features.LogoQuality,
			MaxProjects:    p.Features.MaxProjects,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriceUSD < out[j].PriceUSD })

	packs := make([]PackDTO, 0, len(plans.Packs))
	for _, p := range plans.Packs {
		packs = append(packs, PackDTO{
			ID:       p.ID,
			Name:     p.Name,
			Credits:  p.Credits,
			PriceUSD: p.PriceUSD,
		})
	}
	sort.Slice(packs, func(i, j int) bool { return packs[i].PriceUSD < packs[j].PriceUSD })

	c.JSON(http.StatusOK, gin.H{"plans": out, "packs": packs})
}
