package controllers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"tryonapi/models"
	"tryonapi/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type TryOnIn struct {
	ProductName         string `form:"product_name" validate:"required,max=200"`
	ProductCategoryHint string `form:"product_category" validate:"omitempty,max=200"`
	ProductPageURL      string `form:"product_page_url" validate:"omitempty,max=2000"`
	SessionID           string `form:"session_id" validate:"omitempty,max=100"`
	ProductID           string `form:"product_id" validate:"omitempty,max=100"`
	CustomerID          string `form:"customer_id" validate:"omitempty,max=100"`
}

type TryOnController struct {
	Pipeline *services.TryOnPipeline
	Gate     services.UsageGate
	Alerts   FailureAlerter
}

func (controller *TryOnController) TryOnRoutes(g *echo.Group) {
	g.POST("/tryon", controller.CreateTryOn)
}

// CreateTryOn runs one try-on request end to end: gate checks, multipart
// parsing, then the synchronous pipeline. The response is final when it
// leaves here; history and usage recording happen in the outbox.
func (controller *TryOnController) CreateTryOn(c echo.Context) error {
	shop, ok := c.Get("currentShop").(models.Shop)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.ErrorOut{ErrorCode: "UNAUTHORIZED", Message: "Unknown shop"})
	}
	ctx := c.Request().Context()

	if err := controller.Gate.CheckRateLimit(ctx, c.RealIP()); err != nil {
		return pipelineErrorResponse(c, err)
	}
	if err := controller.Gate.CheckUsage(ctx, shop.Domain, shop.MonthlyTryOnLimit()); err != nil {
		return pipelineErrorResponse(c, err)
	}

	var req TryOnIn
	if err := c.Bind(&req); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, models.ErrorOut{ErrorCode: string(services.CodeValidation), Message: "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorOut{ErrorCode: string(services.CodeValidation), Message: err.Error()})
	}

	userPhoto, err := readFormPhoto(c, "user_photo")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorOut{ErrorCode: string(services.CodeValidation), Message: "user_photo file is required"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorOut{ErrorCode: string(services.CodeValidation), Message: "Invalid multipart form"})
	}
	var productImages []services.UploadedPhoto
	for _, header := range form.File["product_images"] {
		photo, err := readPhotoHeader(header)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorOut{ErrorCode: string(services.CodeValidation), Message: fmt.Sprintf("could not read product image %s", header.Filename)})
		}
		productImages = append(productImages, photo)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result, err := controller.Pipeline.Run(ctx, services.TryOnRequest{
		SessionID:           sessionID,
		ShopDomain:          shop.Domain,
		CustomerID:          services.StrPointer(req.CustomerID),
		ProductID:           services.StrPointer(req.ProductID),
		ProductName:         req.ProductName,
		ProductCategoryHint: req.ProductCategoryHint,
		ProductPageURL:      req.ProductPageURL,
		UserPhoto:           userPhoto,
		ProductImages:       productImages,
	})
	if err != nil {
		if pipelineErr, ok := services.AsPipelineError(err); ok && controller.Alerts != nil && pipelineErr.HTTPStatus() >= http.StatusInternalServerError {
			go controller.Alerts.NotifyFailure(shop.Domain, string(pipelineErr.Code), pipelineErr.Message)
		}
		return pipelineErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.TryOnOut{
		ImageURL: result.ImageURL,
		Metadata: models.TryOnMetadataOut{
			DetectedCategory:   result.DetectedCategory,
			CategoryType:       string(result.CategoryType),
			UsedFallback:       result.UsedFallback,
			UsedReconstruction: result.UsedReconstruction,
			ProcessingMS:       result.ProcessingMS,
			Warnings:           result.Warnings,
		},
	})
}

// pipelineErrorResponse maps typed pipeline failures to statuses. Anything
// untyped is an internal error and its details stay out of the response.
func pipelineErrorResponse(c echo.Context, err error) error {
	if pipelineErr, ok := services.AsPipelineError(err); ok {
		return c.JSON(pipelineErr.HTTPStatus(), models.ErrorOut{
			ErrorCode: string(pipelineErr.Code),
			Message:   pipelineErr.Message,
			Details:   pipelineErr.Details,
		})
	}
	fmt.Println("Unclassified pipeline failure:", err)
	return c.JSON(http.StatusInternalServerError, models.ErrorOut{ErrorCode: string(services.CodeInternal), Message: "Something went wrong, please try again"})
}

func readFormPhoto(c echo.Context, field string) (services.UploadedPhoto, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return services.UploadedPhoto{}, err
	}
	return readPhotoHeader(header)
}

func readPhotoHeader(header *multipart.FileHeader) (services.UploadedPhoto, error) {
	file, err := header.Open()
	if err != nil {
		return services.UploadedPhoto{}, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return services.UploadedPhoto{}, err
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return services.UploadedPhoto{
		FileName: header.Filename,
		MIMEType: mimeType,
		Data:     data,
	}, nil
}
