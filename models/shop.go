package models

// Shop is one storefront integration. The widget token carries the shop
// domain; everything else about the shop is looked up here.
type Shop struct {
	JsonModel
	Domain string `gorm:"uniqueIndex" json:"domain"`
	Name   string `json:"name"`
	Active bool   `gorm:"default:true" json:"active"`
	// free, starter, growth
	Plan string `gorm:"default:free" json:"plan"`
	// overrides the plan default when set
	EnforcedMonthlyTryOnLimit *int32  `json:"enforced_monthly_try_on_limit"`
	ContactEmail              *string `json:"contact_email"`
}

var planMonthlyTryOnLimits = map[string]int32{
	"free":    50,
	"starter": 500,
	"growth":  5000,
}

// MonthlyTryOnLimit resolves the shop's effective monthly quota.
func (s *Shop) MonthlyTryOnLimit() int32 {
	if s.EnforcedMonthlyTryOnLimit != nil {
		return *s.EnforcedMonthlyTryOnLimit
	}
	if limit, ok := planMonthlyTryOnLimits[s.Plan]; ok {
		return limit
	}
	return planMonthlyTryOnLimits["free"]
}

// ShopUsage is the durable monthly counter, mirrored from the redis gate by
// the outbox worker. Month is formatted as "2006-01".
type ShopUsage struct {
	JsonModel
	ShopDomain string `gorm:"uniqueIndex:idx_shop_month" json:"shop_domain"`
	Month      string `gorm:"uniqueIndex:idx_shop_month" json:"month"`
	Used       int64  `json:"used"`
}
