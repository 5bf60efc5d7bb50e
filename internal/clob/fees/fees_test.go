package fees

import (
	"testing"

	"github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeKnownTier(t *testing.T) {
	c := NewCalculator(map[string]Tier{
		"vip": {MakerRate: clobdecimal.MustParse("0.0002"), TakerRate: clobdecimal.MustParse("0.0005")},
	}, "USD", 8)

	rate, amount, currency := c.Compute(clobdecimal.MustParse("50000"), clobdecimal.MustParse("2"), true, "vip")
	assert.True(t, rate.Equal(clobdecimal.MustParse("0.0002")))
	assert.True(t, amount.Equal(clobdecimal.MustParse("20")))
	assert.Equal(t, "USD", currency)

	rate, amount, _ = c.Compute(clobdecimal.MustParse("50000"), clobdecimal.MustParse("2"), false, "vip")
	assert.True(t, rate.Equal(clobdecimal.MustParse("0.0005")))
	assert.True(t, amount.Equal(clobdecimal.MustParse("50")))
}

func TestComputeUnknownTierFallsBackToDefault(t *testing.T) {
	c := NewCalculator(map[string]Tier{
		DefaultTier: {MakerRate: clobdecimal.MustParse("0.001"), TakerRate: clobdecimal.MustParse("0.002")},
	}, "USD", 8)

	rate, _, _ := c.Compute(clobdecimal.MustParse("100"), clobdecimal.MustParse("1"), true, "nonexistent")
	assert.True(t, rate.Equal(clobdecimal.MustParse("0.001")))
}

func TestComputeWithNoDefaultConfiguredSynthesizesZero(t *testing.T) {
	c := NewCalculator(map[string]Tier{}, "USD", 8)
	rate, amount, _ := c.Compute(clobdecimal.MustParse("100"), clobdecimal.MustParse("1"), true, "anything")
	assert.True(t, rate.IsZero())
	assert.True(t, amount.IsZero())
}
