package models

import "github.com/lib/pq"

// TryOnHistory records one completed generation attempt. Written by the
// outbox worker, never by the request path itself.
type TryOnHistory struct {
	JsonModel
	SessionID  string  `json:"session_id"`
	ShopDomain string  `gorm:"index" json:"shop_domain"`
	CustomerID *string `json:"customer_id"`
	ProductID  *string `json:"product_id"`

	ProductName      string `json:"product_name"`
	DetectedCategory string `json:"detected_category"`
	CategoryType     string `json:"category_type"`

	// storage object keys, not presigned URLs
	InputImageKeys pq.StringArray `gorm:"type:text[]" json:"input_image_keys"`
	OutputImageKey string         `json:"output_image_key"`

	// completed, failed
	Status             string         `json:"status"`
	DurationMS         int64          `json:"duration_ms"`
	UsedFallback       bool           `json:"used_fallback"`
	UsedReconstruction bool           `json:"used_reconstruction"`
	Warnings           pq.StringArray `gorm:"type:text[]" json:"warnings"`
	ErrorMessage       *string        `json:"error_message"`
}
