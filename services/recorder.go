package services

import "context"

// TryOnRecord is everything the side-effect stage persists about one
// successful generation.
type TryOnRecord struct {
	SessionID        string
	ShopDomain       string
	CustomerID       *string
	ProductID        *string
	ProductName      string
	DetectedCategory string
	CategoryType     CategoryType

	InputImageKeys []string
	OutputImageKey string

	DurationMS         int64
	UsedFallback       bool
	UsedReconstruction bool
	Warnings           []string
}

// Recorder hands a finished try-on to the side-effect outbox. Implementations
// are best effort: a recording failure is logged and swallowed, it never
// changes the success response already computed for the shopper.
type Recorder interface {
	RecordSuccess(ctx context.Context, record TryOnRecord)
}
