package controllers

import (
	"context"
	"log"
	"net/http"
	"os"

	"tryonapi/services"

	"github.com/go-playground/validator"
	"github.com/hibiken/asynq"
	echojwt "github.com/labstack/echo-jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

// FailureAlerter pushes a generation failure to the ops channel. Best
// effort, may be nil.
type FailureAlerter interface {
	NotifyFailure(shopDomain string, errorCode string, message string)
}

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func SetupServer(
	db *gorm.DB,
	awsService services.AWSServiceProvider,
	gate services.UsageGate,
	pipeline *services.TryOnPipeline,
	urlCache services.URLCacheServiceProvider,
	asynqClient *asynq.Client,
	alerts FailureAlerter,
) *echo.Echo {
	err := awsService.InitPresignClient(context.Background())
	if err != nil {
		log.Fatal("Failed to initialize AWS provider: S3")
	}

	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("__db", db)
			c.Set("__asynqclient", asynqClient)
			return next(c)
		}
	})

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	shopGroup := e.Group("/shop", echojwt.JWT([]byte(os.Getenv("JWT_SECRET"))), ShopMiddleware)

	tryOnController := TryOnController{Pipeline: pipeline, Gate: gate, Alerts: alerts}
	tryOnController.TryOnRoutes(shopGroup)

	historyController := HistoryController{AWSService: awsService, URLCache: urlCache}
	historyController.HistoryRoutes(shopGroup)

	return e
}
