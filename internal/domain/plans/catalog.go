package plans

import "os"

// Plan keys (single source of truth)
const (
	PlanFree     = "FREE"
	PlanPro      = "PRO"
	PlanBusiness = "BUSINESS"
)

// Credit costs per paid operation, in credits.
const (
	CostLogoGeneration = 10
)

type StripeIDs struct {
	MonthlyPriceID string
	AnnualPriceID  string
}

type LemonSqueezyIDs struct {
	MonthlyVariantID string
	AnnualVariantID  string
}

type Features struct {
	LogoQuality string // "standard" | "hd"
	MaxProjects int    // 0 = unlimited
}

type Plan struct {
	Key            string
	Name           string
	MonthlyCredits int
	PriceUSD       float64
	Stripe         StripeIDs
	LemonSqueezy   LemonSqueezyIDs
	Features       Features
}

type CreditPack struct {
	ID            string
	Name          string
	Credits       int
	PriceUSD      float64
	StripePriceID string
	LSVariantID   string
}

// Catalog is static configuration, not runtime data. Provider price/variant
// identifiers come from the environment so test-mode and live-mode keys can
// coexist across deployments.
var (
	Catalog map[string]Plan
	Packs   map[string]CreditPack
)

func Load() {
	Catalog = map[string]Plan{
		PlanFree: {
			Key:            PlanFree,
			Name:           "Free",
			MonthlyCredits: 25,
			PriceUSD:       0,
			Features:       Features{LogoQuality: "standard", MaxProjects: 1},
		},
		PlanPro: {
			Key:            PlanPro,
			Name:           "Pro",
			MonthlyCredits: 200,
			PriceUSD:       19,
			Stripe: StripeIDs{
				MonthlyPriceID: os.Getenv("STRIPE_PRICE_PRO_MONTHLY"),
				AnnualPriceID:  os.Getenv("STRIPE_PRICE_PRO_ANNUAL"),
			},
			LemonSqueezy: LemonSqueezyIDs{
				MonthlyVariantID: os.Getenv("LS_VARIANT_PRO_MONTHLY"),
				AnnualVariantID:  os.Getenv("LS_VARIANT_PRO_ANNUAL"),
			},
			Features: Features{LogoQuality: "hd", MaxProjects: 10},
		},
		PlanBusiness: {
			Key:            PlanBusiness,
			Name:           "Business",
			MonthlyCredits: 1000,
			PriceUSD:       49,
			Stripe: StripeIDs{
				MonthlyPriceID: os.Getenv("STRIPE_PRICE_BUSINESS_MONTHLY"),
				AnnualPriceID:  os.Getenv("STRIPE_PRICE_BUSINESS_ANNUAL"),
			},
			LemonSqueezy: LemonSqueezyIDs{
				MonthlyVariantID: os.Getenv("LS_VARIANT_BUSINESS_MONTHLY"),
				AnnualVariantID:  os.Getenv("LS_VARIANT_BUSINESS_ANNUAL"),
			},
			Features: Features{LogoQuality: "hd", MaxProjects: 0},
		},
	}

	Packs = map[string]CreditPack{
		"starter": {
			ID:            "starter",
			Name:          "Starter Pack",
			Credits:       100,
			PriceUSD:      9,
			StripePriceID: os.Getenv("STRIPE_PRICE_PACK_STARTER"),
			LSVariantID:   os.Getenv("LS_VARIANT_PACK_STARTER"),
		},
		"growth": {
			ID:            "growth",
			Name:          "Growth Pack",
			Credits:       500,
			PriceUSD:      39,
			StripePriceID: os.Getenv("STRIPE_PRICE_PACK_GROWTH"),
			LSVariantID:   os.Getenv("LS_VARIANT_PACK_GROWTH"),
		},
		"scale": {
			ID:            "scale",
			Name:          "Scale Pack",
			Credits:       1500,
			PriceUSD:      99,
			StripePriceID: os.Getenv("STRIPE_PRICE_PACK_SCALE"),
			LSVariantID:   os.Getenv("LS_VARIANT_PACK_SCALE"),
		},
	}
}

// ByKey returns the plan for a key, falling back to FREE for unknown values
// so a bad row never leaves an account without an allocation.
func ByKey(key string) Plan {
	if p, ok := Catalog[key]; ok {
		return p
	}
	return Catalog[PlanFree]
}

func FromStripePriceID(priceID string) (Plan, bool) {
	if priceID == "" {
		return Plan{}, false
	}
	for _, p := range Catalog {
		if p.Stripe.MonthlyPriceID == priceID || p.Stripe.AnnualPriceID == priceID {
			return p, true
		}
	}
	return Plan{}, false
}

func FromLSVariantID(variantID string) (Plan, bool) {
	if variantID == "" {
		return Plan{}, false
	}
	for _, p := range Catalog {
		if p.LemonSqueezy.MonthlyVariantID == variantID || p.LemonSqueezy.AnnualVariantID == variantID {
			return p, true
		}
	}
	return Plan{}, false
}

func PackByID(id string) (CreditPack, bool) {
	p, ok := Packs[id]
	return p, ok
}

func PackByStripePriceID(priceID string) (CreditPack, bool) {
	if priceID == "" {
		return CreditPack{}, false
	}
	for _, p := range Packs {
		if p.StripePriceID == priceID {
			return p, true
		}
	}
	return CreditPack{}, false
}

func PackByLSVariantID(variantID string) (CreditPack, bool) {
	if variantID == "" {
		return CreditPack{}, false
	}
	for _, p := range Packs {
		if p.LSVariantID == variantID {
			return p, true
		}
	}
	return CreditPack{}, false
}
