package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"

	"tryonapi/models"
	"tryonapi/services"
)

func JsonString(model interface{}) string {
	bytes, _ := json.Marshal(model)
	return string(bytes)
}

func NewJSONRequest(method string, target string, param interface{}) *http.Request {

	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	return req
}

func GenerateShopToken(shopDomain string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   shopDomain,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	t, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		log.Fatalf("Error when signing shop token for %s. Error %s ", shopDomain, err)
	}
	return t
}

func NewRefString(data string) *string {
	return &data
}

func Int32Pointer(i int32) *int32 {
	return &i
}

func FakeShop(db *gorm.DB, domain string, plan string) *models.Shop {
	if domain == "" {
		domain = "demo-store.myshopify.com"
	}
	if plan == "" {
		plan = "free"
	}
	shop := &models.Shop{
		Domain: domain,
		Name:   "Demo Store",
		Active: true,
		Plan:   plan,
	}
	db.Create(&shop)
	return shop
}

// FakeJPEGBytes returns bytes that sniff as image/jpeg and pad out to the
// requested size, so upload validation sees a real-sized photo.
func FakeJPEGBytes(size int) []byte {
	data := make([]byte, size)
	copy(data, []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00})
	return data
}

func FakePhoto(fileName string, size int) services.UploadedPhoto {
	return services.UploadedPhoto{
		FileName: fileName,
		MIMEType: "image/jpeg",
		Data:     FakeJPEGBytes(size),
	}
}

// NewMultipartTryOnRequest builds the widget's form submission: text fields
// plus a user_photo part and any number of product_images parts, all jpeg.
func NewMultipartTryOnRequest(target string, token string, fields map[string]string, userPhoto []byte, productImages ...[]byte) *http.Request {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, value := range fields {
		writer.WriteField(key, value)
	}
	if userPhoto != nil {
		part, _ := writer.CreatePart(imagePartHeader("user_photo", "user-photo.jpg"))
		part.Write(userPhoto)
	}
	for i, image := range productImages {
		part, _ := writer.CreatePart(imagePartHeader("product_images", fmt.Sprintf("product-%d.jpg", i)))
		part.Write(image)
	}
	writer.Close()

	req := httptest.NewRequest("POST", target, body)
	req.Header.Add("Content-Type", writer.FormDataContentType())
	req.Header.Add("Accept", "application/json")
	if token != "" {
		req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	return req
}

func imagePartHeader(fieldName string, fileName string) textproto.MIMEHeader {
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldName, fileName))
	h.Set("Content-Type", "image/jpeg")
	return h
}

// SampleAnalysisJSON is a complete vision response used across tests.
const SampleAnalysisJSON = `{
	"productCategory": "Denim Jacket",
	"detailedVisualDescription": "A medium-wash blue denim jacket with brass buttons, two chest flap pockets and contrast orange stitching along the seams.",
	"imageGenerationPrompt": "The person wears a medium-wash blue denim jacket with brass buttons, fitted at the shoulders, worn open over their existing outfit.",
	"colors": ["blue", "brass"],
	"material": "cotton denim",
	"style": "casual",
	"backgroundSuggestion": "soft neutral studio backdrop",
	"negativePrompt": "no logos, no graphic prints",
	"productScaleRatioToHead": 2.4,
	"userCharacteristics": {
		"gender": "woman",
		"ageRange": "25-34",
		"bodyType": "athletic",
		"skinTone": "medium",
		"hairStyle": "shoulder-length wavy hair"
	}
}`

type AWSProviderMock struct {
	MockUrl string

	mu       sync.Mutex
	Uploaded map[string][]byte
}

func (awsService *AWSProviderMock) InitPresignClient(ctx context.Context) error {
	return nil
}

func (awsService *AWSProviderMock) PresignLink(ctx context.Context, bucketName string, fileName string) (string, error) {

	return fmt.Sprintf("https://fakebucketurl.com/%s", fileName), nil
}

func (awsService *AWSProviderMock) GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error) {
	if awsService.MockUrl != "" {
		return awsService.MockUrl, nil
	}
	return fmt.Sprintf("https://fakebucketurl.com/%s/%s", bucketName, fileKey), nil
}

func (awsService *AWSProviderMock) UploadToPresignedURL(ctx context.Context, bucketName, url string, fileContent []byte) (string, int, error) {
	return url, 204, nil
}

func (awsService *AWSProviderMock) UploadBytes(ctx context.Context, bucketName, fileKey string, fileContent []byte) error {
	awsService.mu.Lock()
	defer awsService.mu.Unlock()
	if awsService.Uploaded == nil {
		awsService.Uploaded = map[string][]byte{}
	}
	awsService.Uploaded[fileKey] = fileContent
	return nil
}

type VisionClientMock struct {
	Response string
	Err      error
}

func (m VisionClientMock) AnalyzeImages(ctx context.Context, instruction string, images []services.UploadedPhoto) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response == "" {
		return SampleAnalysisJSON, nil
	}
	return m.Response, nil
}

type TextClientMock struct {
	Response string
	Err      error
}

func (m TextClientMock) GenerateText(ctx context.Context, prompt string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

type PageTextProviderMock struct {
	Text string
	Err  error

	RequestedURLs []string
}

func (m *PageTextProviderMock) FetchPageText(ctx context.Context, pageURL string) (string, error) {
	m.RequestedURLs = append(m.RequestedURLs, pageURL)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}

type ImageGenClientMock struct {
	Output services.GenerationOutput
	Err    error

	LastRequest *services.GenerationRequest
}

func (m *ImageGenClientMock) Generate(ctx context.Context, request services.GenerationRequest) (services.GenerationOutput, error) {
	m.LastRequest = &request
	if m.Err != nil {
		return services.GenerationOutput{}, m.Err
	}
	return m.Output, nil
}

type RecorderMock struct {
	mu      sync.Mutex
	Records []services.TryOnRecord
}

func (m *RecorderMock) RecordSuccess(ctx context.Context, record services.TryOnRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, record)
}

type URLCacheMock struct {
	MockUrl string
}

func (m *URLCacheMock) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	if m.MockUrl != "" {
		return m.MockUrl, nil
	}
	return fmt.Sprintf("https://fakebucketurl.com/%s", objectKey), nil
}

type GateMock struct {
	RateLimitErr error
	UsageErr     error
	IncrementErr error
	UsageCount   int64
}

func (m *GateMock) CheckRateLimit(ctx context.Context, clientIP string) error {
	return m.RateLimitErr
}

func (m *GateMock) CheckUsage(ctx context.Context, shopDomain string, limit int32) error {
	return m.UsageErr
}

func (m *GateMock) IncrementUsage(ctx context.Context, shopDomain string) (int64, error) {
	if m.IncrementErr != nil {
		return 0, m.IncrementErr
	}
	m.UsageCount++
	return m.UsageCount, nil
}

// NewTestPipeline wires a full pipeline over mocks. Callers override
// individual clients before running requests.
func NewTestPipeline(storage *AWSProviderMock, vision VisionClientMock, gen *ImageGenClientMock, recorder *RecorderMock) *services.TryOnPipeline {
	return &services.TryOnPipeline{
		Storage:    storage,
		Bucket:     "tryon-test",
		Visibility: services.FilenameVisibilityClassifier{},
		Analyzer: &services.MetadataAnalyzer{
			Vision: vision,
			Text:   TextClientMock{},
			Pages:  &PageTextProviderMock{},
		},
		Invoker:  &services.GenerationInvoker{Client: gen},
		Recorder: recorder,
		Timeout:  30 * time.Second,
	}
}
