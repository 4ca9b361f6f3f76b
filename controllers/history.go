package controllers

import (
	"context"
	"log"
	"net/http"
	"sync"

	"tryonapi/models"
	"tryonapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type HistoryController struct {
	AWSService services.AWSServiceProvider
	URLCache   services.URLCacheServiceProvider
}

func (controller *HistoryController) HistoryRoutes(g *echo.Group) {
	g.GET("/tryons", controller.ListTryOns)
}

const historyPageSize = 20

// ListTryOns returns the shop's recent try-on records with presigned image
// URLs resolved through the cache.
func (controller *HistoryController) ListTryOns(c echo.Context) error {
	shop, ok := c.Get("currentShop").(models.Shop)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.ErrorOut{ErrorCode: "UNAUTHORIZED", Message: "Unknown shop"})
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{ErrorCode: string(services.CodeInternal), Message: "Database connection error"})
	}

	page := pageQuery(c)

	var total int64
	if err := db.Model(&models.TryOnHistory{}).Where("shop_domain = ?", shop.Domain).Count(&total).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{ErrorCode: string(services.CodeInternal), Message: "Failed to fetch try-on history"})
	}

	var records []models.TryOnHistory
	if err := db.Where("shop_domain = ?", shop.Domain).Order("created_at desc").
		Offset((page - 1) * historyPageSize).Limit(historyPageSize).Find(&records).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorOut{ErrorCode: string(services.CodeInternal), Message: "Failed to fetch try-on history"})
	}

	items := controller.populatePresignedHistoryImages(c.Request().Context(), records)
	return c.JSON(http.StatusOK, models.TryOnHistoryListOut{Items: items, Total: total, Page: page})
}

// populatePresignedHistoryImages resolves stored object keys into presigned
// URLs concurrently, with a direct R2 failsafe when the cache system itself
// fails. A single bad record never fails the whole listing.
func (controller *HistoryController) populatePresignedHistoryImages(ctx context.Context, records []models.TryOnHistory) []models.TryOnHistoryItemOut {
	if len(records) == 0 {
		return []models.TryOnHistoryItemOut{}
	}

	bucketName := services.GetEnv("R2_BUCKET_NAME", "")
	items := make([]models.TryOnHistoryItemOut, len(records))
	var wg sync.WaitGroup

	resolveKey := func(objectKey string) string {
		if objectKey == "" {
			return ""
		}
		url, err := controller.URLCache.GetReadURL(ctx, objectKey)
		if err == nil {
			return url
		}
		log.Printf("CACHE WARNING: Cache system failed for key '%s': %v. Triggering manual R2 fallback.", objectKey, err)
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("failure_type", "cache_system")
			scope.SetExtra("objectKey", objectKey)
			sentry.CaptureException(err)
		})
		fallbackURL, fallbackErr := controller.AWSService.GetPresignedR2FileReadURL(ctx, bucketName, objectKey)
		if fallbackErr != nil {
			log.Printf("CRITICAL: Manual R2 fallback also failed for key '%s': %v", objectKey, fallbackErr)
			sentry.CaptureException(fallbackErr)
			return ""
		}
		return fallbackURL
	}

	for i, record := range records {
		wg.Add(1)
		go func(index int, record models.TryOnHistory) {
			defer wg.Done()

			inputURLs := make([]string, 0, len(record.InputImageKeys))
			for _, key := range record.InputImageKeys {
				if url := resolveKey(key); url != "" {
					inputURLs = append(inputURLs, url)
				}
			}

			items[index] = models.TryOnHistoryItemOut{
				ID:               record.ID,
				SessionID:        record.SessionID,
				ProductID:        record.ProductID,
				ProductName:      record.ProductName,
				DetectedCategory: record.DetectedCategory,
				CategoryType:     record.CategoryType,
				Status:           record.Status,
				DurationMS:       record.DurationMS,
				OutputImageURL:   resolveKey(record.OutputImageKey),
				InputImageURLs:   inputURLs,
				CreatedAt:        record.CreatedAt.UnixMilli(),
			}
		}(i, record)
	}

	wg.Wait()
	return items
}
