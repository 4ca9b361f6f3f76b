package main

import (
	"context"
	"log"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"tryonapi/dbhelper"
	"tryonapi/services"
	"tryonapi/tasks"
)

func main() {
	godotenv.Load()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")},
		asynq.Config{Concurrency: 10, Queues: map[string]int{
			tasks.RecordQueue: 7,
		}},
	)

	db := dbhelper.SetupDB()
	gate := services.NewRedisGate(os.Getenv("ASYNC_BROKER_ADDRESS"))

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeRecordHistory, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleRecordHistoryTask(ctx, t, db)
	})
	mux.HandleFunc(tasks.TypeRecordUsage, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleRecordUsageTask(ctx, t, db, gate)
	})

	if err := srv.Run(mux); err != nil {
		log.Fatal(err)
	}
}
