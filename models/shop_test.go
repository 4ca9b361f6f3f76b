package models_test

import (
	"testing"

	"tryonapi/models"
	"tryonapi/test"

	"github.com/stretchr/testify/assert"
)

func TestMonthlyTryOnLimitPerPlan(t *testing.T) {
	assert.Equal(t, int32(50), (&models.Shop{Plan: "free"}).MonthlyTryOnLimit())
	assert.Equal(t, int32(500), (&models.Shop{Plan: "starter"}).MonthlyTryOnLimit())
	assert.Equal(t, int32(5000), (&models.Shop{Plan: "growth"}).MonthlyTryOnLimit())

	// unknown plans fall back to the free tier
	assert.Equal(t, int32(50), (&models.Shop{Plan: "legacy"}).MonthlyTryOnLimit())
}

func TestMonthlyTryOnLimitEnforcedOverride(t *testing.T) {
	shop := models.Shop{
		Domain:                    "vip-store.myshopify.com",
		Plan:                      "free",
		EnforcedMonthlyTryOnLimit: test.Int32Pointer(1200),
		ContactEmail:              test.NewRefString("ops@vip-store.myshopify.com"),
	}
	assert.Equal(t, int32(1200), shop.MonthlyTryOnLimit())
}
