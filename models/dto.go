package models

type TryOnMetadataOut struct {
	DetectedCategory   string   `json:"detected_category"`
	CategoryType       string   `json:"category_type"`
	UsedFallback       bool     `json:"used_fallback"`
	UsedReconstruction bool     `json:"used_reconstruction"`
	ProcessingMS       int64    `json:"processing_ms"`
	Warnings           []string `json:"warnings"`
}

type TryOnOut struct {
	ImageURL string           `json:"image_url"`
	Metadata TryOnMetadataOut `json:"metadata"`
}

type ErrorOut struct {
	ErrorCode string   `json:"error_code"`
	Message   string   `json:"message"`
	Details   []string `json:"details,omitempty"`
}

type TryOnHistoryItemOut struct {
	ID               uint     `json:"id"`
	SessionID        string   `json:"session_id"`
	ProductID        *string  `json:"product_id"`
	ProductName      string   `json:"product_name"`
	DetectedCategory string   `json:"detected_category"`
	CategoryType     string   `json:"category_type"`
	Status           string   `json:"status"`
	DurationMS       int64    `json:"duration_ms"`
	OutputImageURL   string   `json:"output_image_url"`
	InputImageURLs   []string `json:"input_image_urls"`
	CreatedAt        int64    `json:"created_at"`
}

type TryOnHistoryListOut struct {
	Items []TryOnHistoryItemOut `json:"items"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
}
