package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// LLMModelName selects the Gemini model for a call.
type LLMModelName int32

const (
	Pro25 LLMModelName = iota
	Flash25
	FlashLite25
	Flash20
	Flash25Image
)

func (t LLMModelName) String() string {
	switch t {
	case Pro25:
		return "gemini-2.5-pro"
	case Flash25:
		return "gemini-2.5-flash"
	case FlashLite25:
		return "gemini-2.5-flash-lite-preview-06-17"
	case Flash25Image:
		return "gemini-2.5-flash-image-preview"
	default:
		return "gemini-2.0-flash"
	}
}

func floatPointer(f float32) *float32 {
	return &f
}

// GoogleGenAIService backs all three model-facing contracts of the pipeline:
// vision analysis, text generation and image generation. Constructed once and
// injected; generated images are stored in the object bucket so the caller
// always receives a fetchable URL.
type GoogleGenAIService struct {
	client      *genai.Client
	storage     AWSServiceProvider
	bucket      string
	VisionModel LLMModelName
	TextModel   LLMModelName
	ImageModel  LLMModelName
}

func NewGoogleGenAIService(ctx context.Context, apiKey string, storage AWSServiceProvider, bucket string) (*GoogleGenAIService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %v", err)
	}
	return &GoogleGenAIService{
		client:      client,
		storage:     storage,
		bucket:      bucket,
		VisionModel: Flash25,
		TextModel:   FlashLite25,
		ImageModel:  Flash25Image,
	}, nil
}

// uploadPhotoWithRetry stages an in-memory photo as a temp file and uploads
// it to the model file store, retrying transient upload failures.
func (s *GoogleGenAIService) uploadPhotoWithRetry(ctx context.Context, photo UploadedPhoto) (*genai.File, error) {
	tempPath, err := CreateTempFile(photo.Data, photo.FileName)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tempPath)

	maxUploadTimes := 3
	var genFile *genai.File
	for i := range maxUploadTimes {
		genFile, err = s.client.Files.UploadFromPath(ctx, tempPath, &genai.UploadFileConfig{MIMEType: photo.MIMEType})
		if err == nil {
			return genFile, nil
		}
		fmt.Printf("Error uploading file %s, attempt %d: %v\n", photo.FileName, i+1, err)
	}
	return nil, fmt.Errorf("failed to upload file after %d attempts: %s", maxUploadTimes, photo.FileName)
}

// AnalyzeImages sends the customer photo plus the product images to the
// vision model and returns the raw response text.
func (s *GoogleGenAIService) AnalyzeImages(ctx context.Context, instruction string, images []UploadedPhoto) (string, error) {
	var parts []*genai.Part
	for _, image := range images {
		genFile, err := s.uploadPhotoWithRetry(ctx, image)
		if err != nil {
			return "", err
		}
		parts = append(parts, &genai.Part{
			FileData: &genai.FileData{
				FileURI:  genFile.URI,
				MIMEType: genFile.MIMEType,
			},
		})
	}
	parts = append(parts, &genai.Part{Text: instruction})

	result, err := s.client.Models.GenerateContent(ctx, s.VisionModel.String(), []*genai.Content{{Parts: parts}}, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		CandidateCount:   1,
		MaxOutputTokens:  8000,
		Temperature:      floatPointer(0.2),
	})
	if err != nil {
		fmt.Println("Error in GenerateContent:", err)
		return "", fmt.Errorf("vision analysis call failed: %v", err)
	}
	if result.PromptFeedback != nil {
		fmt.Println(result.PromptFeedback.BlockReason, result.PromptFeedback.BlockReasonMessage)
		return "", fmt.Errorf("content violation: %s", result.PromptFeedback.BlockReasonMessage)
	}
	return firstCandidateText(result)
}

// GenerateText runs a plain text prompt against the light text model.
func (s *GoogleGenAIService) GenerateText(ctx context.Context, prompt string) (string, error) {
	result, err := s.client.Models.GenerateContent(ctx, s.TextModel.String(), []*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}}, &genai.GenerateContentConfig{
		CandidateCount:  1,
		MaxOutputTokens: 2000,
		Temperature:     floatPointer(0.4),
	})
	if err != nil {
		return "", fmt.Errorf("text generation call failed: %v", err)
	}
	if result.PromptFeedback != nil {
		return "", fmt.Errorf("content violation: %s", result.PromptFeedback.BlockReasonMessage)
	}
	return firstCandidateText(result)
}

// Generate runs the try-on image generation. Input images are fetched from
// their public URLs, handed to the image model together with the prompts, and
// the generated frame is stored in the bucket. The returned output always
// resolves to a presigned read URL.
func (s *GoogleGenAIService) Generate(ctx context.Context, request GenerationRequest) (GenerationOutput, error) {
	var parts []*genai.Part
	for i, imageURL := range request.InputImageURLs {
		content, err := ReadFileFromUrl(imageURL)
		if err != nil {
			return GenerationOutput{}, fmt.Errorf("error fetching input image %d: %v", i+1, err)
		}
		mimeType, err := DetectUploadMIME(content)
		if err != nil {
			return GenerationOutput{}, fmt.Errorf("input image %d: %v", i+1, err)
		}
		genFile, err := s.uploadPhotoWithRetry(ctx, UploadedPhoto{
			FileName: fmt.Sprintf("input-%d%s", i+1, uploadExtension(mimeType)),
			MIMEType: mimeType,
			Data:     content,
		})
		if err != nil {
			return GenerationOutput{}, err
		}
		parts = append(parts, &genai.Part{
			FileData: &genai.FileData{
				FileURI:  genFile.URI,
				MIMEType: genFile.MIMEType,
			},
		})
	}

	prompt := request.Prompt
	if request.NegativePrompt != "" {
		prompt += "\n\nAvoid: " + request.NegativePrompt
	}
	prompt += fmt.Sprintf("\n\nAspect ratio %s portrait size, single output image.", request.AspectRatio)
	parts = append(parts, &genai.Part{Text: prompt})

	result, err := s.client.Models.GenerateContent(ctx, s.ImageModel.String(), []*genai.Content{{Parts: parts}}, &genai.GenerateContentConfig{
		CandidateCount:  1,
		MaxOutputTokens: 50000,
		Temperature:     floatPointer(1),
	})
	if err != nil {
		fmt.Println("Error in GenerateContent:", err)
		return GenerationOutput{}, fmt.Errorf("image generation call failed: %v", err)
	}
	if result.PromptFeedback != nil {
		fmt.Println(result.PromptFeedback.BlockReason, result.PromptFeedback.BlockReasonMessage)
		return GenerationOutput{}, fmt.Errorf("content violation: %s", result.PromptFeedback.BlockReasonMessage)
	}

	imagesBytes, err := extractInlineImages(result)
	if err != nil {
		return GenerationOutput{}, err
	}
	if len(imagesBytes) == 0 {
		return GenerationOutput{}, fmt.Errorf("image model returned no image: %s", result.Text())
	}

	objectKey := fmt.Sprintf("generated/%s.png", uuid.NewString())
	if err := s.storage.UploadBytes(ctx, s.bucket, objectKey, imagesBytes[0]); err != nil {
		return GenerationOutput{}, fmt.Errorf("error storing generated image: %v", err)
	}
	readURL, err := s.storage.GetPresignedR2FileReadURL(ctx, s.bucket, objectKey)
	if err != nil {
		return GenerationOutput{}, fmt.Errorf("error presigning generated image: %v", err)
	}
	return GenerationOutput{Kind: OutputURLString, Value: readURL}, nil
}

func uploadExtension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/heic", "image/heif":
		return ".heic"
	default:
		return ".jpg"
	}
}

// extractInlineImages collects the inline image payloads from a response,
// rejecting safety-blocked candidates.
func extractInlineImages(result *genai.GenerateContentResponse) ([][]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("empty generation response")
	}
	var allImageData [][]byte
	for _, cand := range result.Candidates {
		for _, rating := range cand.SafetyRatings {
			if rating.Blocked {
				return nil, fmt.Errorf("content blocked by safety setting: %s", rating.Category)
			}
		}
		if cand.Content == nil || len(cand.Content.Parts) == 0 {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && strings.HasPrefix(part.InlineData.MIMEType, "image/") && len(part.InlineData.Data) > 0 {
				allImageData = append(allImageData, part.InlineData.Data)
			}
		}
	}
	return allImageData, nil
}

func firstCandidateText(result *genai.GenerateContentResponse) (string, error) {
	for _, cand := range result.Candidates {
		for _, rating := range cand.SafetyRatings {
			if rating.Blocked {
				return "", fmt.Errorf("content blocked by safety setting: %s", rating.Category)
			}
		}
	}
	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("model returned no text")
	}
	return text, nil
}
