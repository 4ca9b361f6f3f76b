package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tryonapi/models"
	"tryonapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	TypeRecordHistory = "record:history"
	TypeRecordUsage   = "record:usage"

	// RecordQueue is the outbox queue. Retries belong here, not in the
	// request path: the response has already been sent when these run.
	RecordQueue    = "record"
	RecordMaxRetry = 5
)

type RecordHistoryPayload struct {
	Record services.TryOnRecord `json:"record"`
}

type RecordUsagePayload struct {
	ShopDomain string `json:"shop_domain"`
}

func NewRecordHistoryTask(record services.TryOnRecord) (*asynq.Task, error) {
	payload, err := json.Marshal(RecordHistoryPayload{Record: record})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRecordHistory, payload), nil
}

func NewRecordUsageTask(shopDomain string) (*asynq.Task, error) {
	payload, err := json.Marshal(RecordUsagePayload{ShopDomain: shopDomain})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRecordUsage, payload), nil
}

// HandleRecordHistoryTask inserts the history row for a finished try-on.
func HandleRecordHistoryTask(ctx context.Context, t *asynq.Task, db *gorm.DB) error {
	var payload RecordHistoryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}
	record := payload.Record
	fmt.Printf("[TryOn: %s] Recording history for shop %s\n", record.SessionID, record.ShopDomain)

	history := models.TryOnHistory{
		SessionID:          record.SessionID,
		ShopDomain:         record.ShopDomain,
		CustomerID:         record.CustomerID,
		ProductID:          record.ProductID,
		ProductName:        record.ProductName,
		DetectedCategory:   record.DetectedCategory,
		CategoryType:       string(record.CategoryType),
		InputImageKeys:     pq.StringArray(record.InputImageKeys),
		OutputImageKey:     record.OutputImageKey,
		Status:             "completed",
		DurationMS:         record.DurationMS,
		UsedFallback:       record.UsedFallback,
		UsedReconstruction: record.UsedReconstruction,
		Warnings:           pq.StringArray(record.Warnings),
	}
	if err := db.Create(&history).Error; err != nil {
		sentry.CaptureException(fmt.Errorf("[TryOn: %s] Error inserting history: %w", record.SessionID, err))
		return err
	}
	return nil
}

// HandleRecordUsageTask writes the durable ShopUsage row and mirrors the new
// count into redis. The row update is a single conflict-upsert increment so
// concurrent workers never lose updates. Order matters: the row goes first,
// and once it is written the handler never returns an error, because an asynq
// retry would re-run the upsert and charge the shop twice for one try-on.
func HandleRecordUsageTask(ctx context.Context, t *asynq.Task, db *gorm.DB, gate services.UsageGate) error {
	var payload RecordUsagePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}

	month := time.Now().Format("2006-01")
	usage := models.ShopUsage{ShopDomain: payload.ShopDomain, Month: month, Used: 1}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop_domain"}, {Name: "month"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"used": gorm.Expr("shop_usages.used + 1")}),
	}).Create(&usage).Error
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[Usage: %s] Error upserting usage row: %w", payload.ShopDomain, err))
		return err
	}

	if _, err := gate.IncrementUsage(ctx, payload.ShopDomain); err != nil {
		sentry.CaptureException(fmt.Errorf("[Usage: %s] Error incrementing redis counter: %w", payload.ShopDomain, err))
	}
	fmt.Printf("[Usage: %s] Recorded try-on for month %s\n", payload.ShopDomain, month)
	return nil
}

// OutboxRecorder enqueues the side-effect tasks after a validated success.
// Enqueue failures are logged and reported, never propagated: the shopper's
// response is already final.
type OutboxRecorder struct {
	Client *asynq.Client
}

func (r *OutboxRecorder) RecordSuccess(ctx context.Context, record services.TryOnRecord) {
	historyTask, err := NewRecordHistoryTask(record)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[TryOn: %s] Error building history task: %w", record.SessionID, err))
	} else if _, err := r.Client.Enqueue(historyTask, asynq.Queue(RecordQueue), asynq.MaxRetry(RecordMaxRetry)); err != nil {
		fmt.Printf("[TryOn: %s] Error enqueueing history task: %v\n", record.SessionID, err)
		sentry.CaptureException(fmt.Errorf("[TryOn: %s] Error enqueueing history task: %w", record.SessionID, err))
	}

	usageTask, err := NewRecordUsageTask(record.ShopDomain)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[TryOn: %s] Error building usage task: %w", record.SessionID, err))
	} else if _, err := r.Client.Enqueue(usageTask, asynq.Queue(RecordQueue), asynq.MaxRetry(RecordMaxRetry)); err != nil {
		fmt.Printf("[TryOn: %s] Error enqueueing usage task: %v\n", record.SessionID, err)
		sentry.CaptureException(fmt.Errorf("[TryOn: %s] Error enqueueing usage task: %w", record.SessionID, err))
	}
}
