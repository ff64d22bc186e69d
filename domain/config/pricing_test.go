package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIterationLimitFor(t *testing.T) {
	assert.Equal(t, 10, IterationLimitFor("free"))
	assert.Equal(t, 100, IterationLimitFor("pro"))
	assert.Equal(t, 500, IterationLimitFor("premium"))
	assert.Equal(t, 10, IterationLimitFor("enterprise"))
}

func TestPricingTiersAreOrdered(t *testing.T) {
	tiers := PricingTiers()
	for i := 1; i < len(tiers); i++ {
		assert.Greater(t, tiers[i].MonthlyPriceCents, tiers[i-1].MonthlyPriceCents)
		assert.Greater(t, tiers[i].IterationLimit, tiers[i-1].IterationLimit)
	}
}
