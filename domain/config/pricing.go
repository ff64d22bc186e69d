package config

// PricingTier is a purchasable plan as shown on the pricing page
type PricingTier struct {
	Plan              string   `json:"plan"`
	Name              string   `json:"name"`
	MonthlyPriceCents int64    `json:"monthly_price_cents"`
	IterationLimit    int      `json:"iteration_limit"`
	Features          []string `json:"features"`
	PriceID           string   `json:"-"`
}

// PricingTiers returns the static catalogue ordered from cheapest to most expensive
func PricingTiers() []PricingTier {
	return []PricingTier{
		{
			Plan:              "free",
			Name:              "Free",
			MonthlyPriceCents: 0,
			IterationLimit:    10,
			Features:          []string{"Learning roadmaps", "10 AI iterations per month"},
		},
		{
			Plan:              "pro",
			Name:              "Pro",
			MonthlyPriceCents: 1900,
			IterationLimit:    100,
			Features:          []string{"Everything in Free", "100 AI iterations per month", "Interview prep plans"},
		},
		{
			Plan:              "premium",
			Name:              "Premium",
			MonthlyPriceCents: 4900,
			IterationLimit:    500,
			Features:          []string{"Everything in Pro", "500 AI iterations per month", "Priority generation"},
		},
	}
}

// IterationLimitFor returns the monthly iteration allowance of a plan.
// Unknown plans get the free allowance.
func IterationLimitFor(plan string) int {
	tiers := PricingTiers()
	for _, t := range tiers {
		if t.Plan == plan {
			return t.IterationLimit
		}
	}
	return tiers[0].IterationLimit
}
