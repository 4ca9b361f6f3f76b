package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"tryonapi/dbhelper"
	"tryonapi/models"
	"tryonapi/services"
	"tryonapi/test"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() services.TryOnRecord {
	return services.TryOnRecord{
		SessionID:          "sess-1",
		ShopDomain:         "demo-store.myshopify.com",
		ProductName:        "Running Shoes",
		DetectedCategory:   "Running Shoes",
		CategoryType:       services.CategoryFootwear,
		InputImageKeys:     []string{"inputs/sess-1/selfie-abc.jpg", "inputs/sess-1/shoe-def.jpg"},
		OutputImageKey:     "generated/abc.png",
		DurationMS:         4200,
		UsedFallback:       true,
		UsedReconstruction: true,
		Warnings:           []string{"product description is missing or low quality"},
	}
}

func TestHandleRecordHistoryTask(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	task, err := NewRecordHistoryTask(sampleRecord())
	require.NoError(t, err)
	require.NoError(t, HandleRecordHistoryTask(context.Background(), task, db))

	var history models.TryOnHistory
	require.NoError(t, db.Where("session_id = ?", "sess-1").First(&history).Error)
	assert.Equal(t, "demo-store.myshopify.com", history.ShopDomain)
	assert.Equal(t, "FOOTWEAR", history.CategoryType)
	assert.Equal(t, "completed", history.Status)
	assert.Equal(t, "generated/abc.png", history.OutputImageKey)
	assert.Len(t, []string(history.InputImageKeys), 2)
	assert.True(t, history.UsedFallback)
	assert.True(t, history.UsedReconstruction)
	assert.Len(t, []string(history.Warnings), 1)
}

func TestHandleRecordHistoryTaskBadPayload(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()

	task := asynq.NewTask(TypeRecordHistory, []byte("{not-json"))
	assert.Error(t, HandleRecordHistoryTask(context.Background(), task, db))
}

func TestHandleRecordUsageTaskUpserts(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	gate := &test.GateMock{}

	task, err := NewRecordUsageTask("demo-store.myshopify.com")
	require.NoError(t, err)

	require.NoError(t, HandleRecordUsageTask(context.Background(), task, db, gate))
	require.NoError(t, HandleRecordUsageTask(context.Background(), task, db, gate))

	var usage models.ShopUsage
	require.NoError(t, db.Where("shop_domain = ?", "demo-store.myshopify.com").First(&usage).Error)
	assert.Equal(t, int64(2), usage.Used)
	assert.Equal(t, int64(2), gate.UsageCount)

	var count int64
	db.Model(&models.ShopUsage{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestHandleRecordUsageTaskFailedUpsertLeavesRedisAlone(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	gate := &test.GateMock{}

	task, err := NewRecordUsageTask("demo-store.myshopify.com")
	require.NoError(t, err)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	// The upsert fails, asynq will retry, and the retry must start from a
	// quota counter that was never touched.
	assert.Error(t, HandleRecordUsageTask(context.Background(), task, db.WithContext(canceled), gate))
	assert.Equal(t, int64(0), gate.UsageCount)
}

func TestHandleRecordUsageTaskSwallowsRedisFailure(t *testing.T) {
	db := dbhelper.SetupTestDB()
	cleaner := dbhelper.SetupCleaner(db)
	defer cleaner()
	gate := &test.GateMock{IncrementErr: errors.New("redis unavailable")}

	task, err := NewRecordUsageTask("demo-store.myshopify.com")
	require.NoError(t, err)

	// Once the row is written the handler must not error: a retry would
	// upsert again and charge the shop twice for one try-on.
	require.NoError(t, HandleRecordUsageTask(context.Background(), task, db, gate))

	var usage models.ShopUsage
	require.NoError(t, db.Where("shop_domain = ?", "demo-store.myshopify.com").First(&usage).Error)
	assert.Equal(t, int64(1), usage.Used)
}

func TestOutboxRecorderTaskPayloads(t *testing.T) {
	record := sampleRecord()

	historyTask, err := NewRecordHistoryTask(record)
	require.NoError(t, err)
	assert.Equal(t, TypeRecordHistory, historyTask.Type())

	var historyPayload RecordHistoryPayload
	require.NoError(t, json.Unmarshal(historyTask.Payload(), &historyPayload))
	assert.Equal(t, record.SessionID, historyPayload.Record.SessionID)
	assert.Equal(t, record.OutputImageKey, historyPayload.Record.OutputImageKey)

	usageTask, err := NewRecordUsageTask(record.ShopDomain)
	require.NoError(t, err)
	assert.Equal(t, TypeRecordUsage, usageTask.Type())

	var usagePayload RecordUsagePayload
	require.NoError(t, json.Unmarshal(usageTask.Payload(), &usagePayload))
	assert.Equal(t, record.ShopDomain, usagePayload.ShopDomain)
}
