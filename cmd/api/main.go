package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4/middleware"

	"tryonapi/controllers"
	"tryonapi/dbhelper"
	"tryonapi/services"
	"tryonapi/tasks"
	"tryonapi/telegram"
)

func main() {
	godotenv.Load()

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              os.Getenv("SENTRY_DSN"),
		Environment:      services.GetEnv("ENV", "local"),
		Release:          "tryonapi@1.0.0",
		Debug:            false,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Recover()
	defer sentry.Flush(2 * time.Second)

	db := dbhelper.SetupDB()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")})
	bucketName := services.GetEnv("R2_BUCKET_NAME", "")
	awsService := &services.AWSService{}
	urlCache, err := services.NewURLCacheService(awsService, bucketName)
	if err != nil {
		log.Fatal("Failed to initialize URL cache service")
	}
	gate := services.NewRedisGate(os.Getenv("ASYNC_BROKER_ADDRESS"))

	genAI, err := services.NewGoogleGenAIService(context.Background(), os.Getenv("GEMINI_API_KEY"), awsService, bucketName)
	if err != nil {
		log.Fatalf("Failed to initialize GenAI service: %v", err)
	}
	pages, err := services.NewCachedPageTextProvider(&services.HTTPPageTextProvider{})
	if err != nil {
		log.Fatal("Failed to initialize page text cache")
	}

	pipeline := &services.TryOnPipeline{
		Storage:    awsService,
		Bucket:     bucketName,
		Visibility: services.FilenameVisibilityClassifier{},
		Analyzer: &services.MetadataAnalyzer{
			Vision: genAI,
			Text:   genAI,
			Pages:  pages,
		},
		Invoker:  &services.GenerationInvoker{Client: genAI},
		Recorder: &tasks.OutboxRecorder{Client: asynqClient},
	}

	var bot *telegram.AlertBot
	var alerts controllers.FailureAlerter
	if os.Getenv("TG_TOKEN") != "" {
		bot, err = telegram.NewAlertBot()
		if err != nil {
			log.Fatalf("Failed to initialize telegram bot: %v", err)
		}
		alerts = bot
	}

	e := controllers.SetupServer(db, awsService, gate, pipeline, urlCache, asynqClient, alerts)
	e.Debug = true

	if os.Getenv("TELEGRAM_BOT") == "true" {
		if bot == nil {
			log.Fatal("TELEGRAM_BOT mode requires TG_TOKEN")
		}
		bot.Run(db)
	} else {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
		e.Use(middleware.Logger())
		e.Use(middleware.Recover())
		e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
		e.Logger.Fatal(e.Start(":8083"))
	}
}
