package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"tryonapi/nameutil"
)

// TryOnRequest is one shopper's parsed try-on submission.
type TryOnRequest struct {
	SessionID           string
	ShopDomain          string
	CustomerID          *string
	ProductID           *string
	ProductName         string
	ProductCategoryHint string
	ProductPageURL      string
	UserPhoto           UploadedPhoto
	ProductImages       []UploadedPhoto
}

// TryOnResult is the successful outcome plus the observability metadata the
// widget shows and the history record carries.
type TryOnResult struct {
	ImageURL           string
	DetectedCategory   string
	CategoryType       CategoryType
	UsedFallback       bool
	UsedReconstruction bool
	ProcessingMS       int64
	Warnings           []string
}

// TryOnPipeline runs one request through the full generation flow:
// category resolution, visibility classification, reconstruction planning,
// metadata analysis, prompt composition, validation, generation and the
// side-effect outbox. Every dependency is injected; nothing here is global.
type TryOnPipeline struct {
	Storage    AWSServiceProvider
	Bucket     string
	Visibility VisibilityClassifier
	Analyzer   *MetadataAnalyzer
	Invoker    *GenerationInvoker
	Recorder   Recorder
	Timeout    time.Duration
}

const defaultPipelineTimeout = 90 * time.Second

// Run executes the pipeline. The returned error is always a *PipelineError
// so the handler can map it to a status without inspecting messages.
func (p *TryOnPipeline) Run(ctx context.Context, request TryOnRequest) (*TryOnResult, error) {
	started := time.Now()

	timeout := p.Timeout
	if timeout == 0 {
		timeout = defaultPipelineTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	preValidation := ValidateUserPhoto(request.UserPhoto)
	preValidation.Merge(ValidateProductImages(request.ProductImages))
	if !preValidation.IsValid {
		return nil, &PipelineError{Code: CodeValidation, Message: "input validation failed", Details: preValidation.Errors}
	}
	warnings := preValidation.Warnings

	categoryType, config := ResolveCategory(request.ProductCategoryHint)
	if categoryType == CategoryUnknown {
		categoryType, config = ResolveCategory(request.ProductName)
	}

	visibility := p.Visibility.Classify(request.UserPhoto)
	plan := PlanReconstruction(categoryType, config, visibility)
	fmt.Printf("[TryOn: %s] category=%s visibility=%s reconstruction=%v\n", request.SessionID, categoryType, visibility, plan.Needed)

	if err := checkDeadline(ctx, "image upload"); err != nil {
		return nil, err
	}
	inputKeys, inputURLs, err := p.uploadInputImages(ctx, request)
	if err != nil {
		return nil, err
	}

	if err := checkDeadline(ctx, "product analysis"); err != nil {
		return nil, err
	}
	metadata, err := p.Analyzer.Analyze(ctx, request.UserPhoto, request.ProductImages, request.ProductPageURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewPipelineError(CodeTimeout, "product analysis timed out")
		}
		return nil, err
	}

	enhanced := EnhanceMetadata(metadata, request.ProductName, request.ProductCategoryHint, config)
	warnings = append(warnings, ValidateMetadata(metadata).Warnings...)

	bundle := ComposePrompt(enhanced, config, plan)
	prompt, invariantWarnings := EnforcePromptInvariants(bundle.PositivePrompt, config)
	warnings = append(warnings, invariantWarnings...)

	promptValidation := ValidateFinalPrompt(prompt, categoryType)
	if !promptValidation.IsValid {
		return nil, &PipelineError{Code: CodeValidation, Message: "composed prompt failed validation", Details: promptValidation.Errors}
	}
	warnings = append(warnings, promptValidation.Warnings...)

	if err := checkDeadline(ctx, "image generation"); err != nil {
		return nil, err
	}
	imageURL, err := p.Invoker.Invoke(ctx, prompt, bundle.NegativePrompt, inputURLs)
	if err != nil {
		return nil, err
	}

	outputValidation := ValidateOutputURL(imageURL)
	if !outputValidation.IsValid {
		return nil, &PipelineError{Code: CodeOutputValidation, Message: "generation produced an unusable image URL", Details: outputValidation.Errors}
	}

	result := &TryOnResult{
		ImageURL:           imageURL,
		DetectedCategory:   enhanced.Category.Or(request.ProductName),
		CategoryType:       categoryType,
		UsedFallback:       enhanced.UsedFallback,
		UsedReconstruction: plan.Needed,
		ProcessingMS:       time.Since(started).Milliseconds(),
		Warnings:           warnings,
	}

	if p.Recorder != nil {
		p.Recorder.RecordSuccess(context.WithoutCancel(ctx), TryOnRecord{
			SessionID:          request.SessionID,
			ShopDomain:         request.ShopDomain,
			CustomerID:         request.CustomerID,
			ProductID:          request.ProductID,
			ProductName:        request.ProductName,
			DetectedCategory:   result.DetectedCategory,
			CategoryType:       categoryType,
			InputImageKeys:     inputKeys,
			OutputImageKey:     ObjectKeyFromURL(imageURL, p.Bucket),
			DurationMS:         result.ProcessingMS,
			UsedFallback:       result.UsedFallback,
			UsedReconstruction: result.UsedReconstruction,
			Warnings:           warnings,
		})
	}

	fmt.Printf("[TryOn: %s] completed in %dms, fallback=%v\n", request.SessionID, result.ProcessingMS, result.UsedFallback)
	return result, nil
}

// uploadInputImages stores the user photo and every product image, returning
// object keys and presigned read URLs. Product image uploads run
// concurrently; all must finish before the prompt stage since the generation
// request embeds their URLs.
func (p *TryOnPipeline) uploadInputImages(ctx context.Context, request TryOnRequest) ([]string, []string, error) {
	photos := append([]UploadedPhoto{request.UserPhoto}, request.ProductImages...)
	keys := make([]string, len(photos))
	urls := make([]string, len(photos))
	uploadErrs := make([]error, len(photos))

	var wg sync.WaitGroup
	for i, photo := range photos {
		wg.Add(1)
		go func(i int, photo UploadedPhoto) {
			defer wg.Done()

			data := photo.Data
			if normalized, err := NormalizeUploadImage(photo.Data); err == nil {
				data = normalized
			} else {
				fmt.Printf("[TryOn: %s] keeping original bytes for %s: %v\n", request.SessionID, photo.FileName, err)
			}

			key := fmt.Sprintf("inputs/%s/%s", request.SessionID, nameutil.ObjectKey(photo.FileName))
			if err := p.Storage.UploadBytes(ctx, p.Bucket, key, data); err != nil {
				uploadErrs[i] = err
				return
			}
			readURL, err := p.Storage.GetPresignedR2FileReadURL(ctx, p.Bucket, key)
			if err != nil {
				uploadErrs[i] = err
				return
			}
			keys[i] = key
			urls[i] = readURL
		}(i, photo)
	}
	wg.Wait()

	for _, err := range uploadErrs {
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil, nil, NewPipelineError(CodeTimeout, "image upload timed out")
			}
			return nil, nil, WrapPipelineError(CodeInternal, "failed to store input images", err)
		}
	}
	return keys, urls, nil
}

func checkDeadline(ctx context.Context, stage string) error {
	if ctx.Err() != nil {
		return NewPipelineError(CodeTimeout, "request deadline exceeded before "+stage)
	}
	return nil
}

// ObjectKeyFromURL recovers the storage key from a presigned URL so history
// rows store durable keys, never expiring URLs.
func ObjectKeyFromURL(rawURL, bucket string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	path := strings.TrimPrefix(parsed.Path, "/")
	path = strings.TrimPrefix(path, bucket+"/")
	return path
}
