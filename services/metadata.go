package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"golang.org/x/net/html"
)

// Field is an optional analysis value. The vision service reports absent
// attributes as the literal string "Unknown" or as an empty string; both are
// normalized to Missing here at the client boundary so the rest of the
// pipeline never compares against sentinel strings.
type Field struct {
	value   string
	present bool
}

func PresentField(value string) Field {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.EqualFold(trimmed, "unknown") {
		return Field{}
	}
	return Field{value: trimmed, present: true}
}

func MissingField() Field {
	return Field{}
}

func (f Field) Present() bool {
	return f.present
}

func (f Field) Value() string {
	return f.value
}

// Or returns the field's value when present, otherwise the fallback.
func (f Field) Or(fallback string) string {
	if f.present {
		return f.value
	}
	return fallback
}

// UserCharacteristics describes the person in the uploaded photo, as far as
// the vision service could tell. Every field is optional at this stage; the
// enhancement pass guarantees all of them resolve to usable values.
type UserCharacteristics struct {
	Gender    Field
	AgeRange  Field
	BodyType  Field
	SkinTone  Field
	HairStyle Field
}

// ProductMetadata is the two-pass analysis record. Analyze fills it from the
// vision and text services, EnhanceMetadata resolves every missing field.
type ProductMetadata struct {
	Category             Field
	Description          Field
	GenerationPrompt     Field
	Colors               []string
	Material             Field
	Style                Field
	BackgroundSuggestion Field
	NegativePrompt       Field
	ScaleRatioToHead     float64
	User                 UserCharacteristics
	PageSummary          Field
	UsedFallback         bool
}

// rawAnalysis is the wire shape of the vision service's JSON response.
type rawAnalysis struct {
	ProductCategory           string   `json:"productCategory"`
	DetailedVisualDescription string   `json:"detailedVisualDescription"`
	ImageGenerationPrompt     string   `json:"imageGenerationPrompt"`
	Colors                    []string `json:"colors"`
	Material                  string   `json:"material"`
	Style                     string   `json:"style"`
	BackgroundSuggestion      string   `json:"backgroundSuggestion"`
	NegativePrompt            string   `json:"negativePrompt"`
	ProductScaleRatioToHead   float64  `json:"productScaleRatioToHead"`
	UserCharacteristics       struct {
		Gender    string `json:"gender"`
		AgeRange  string `json:"ageRange"`
		BodyType  string `json:"bodyType"`
		SkinTone  string `json:"skinTone"`
		HairStyle string `json:"hairStyle"`
	} `json:"userCharacteristics"`
}

// VisionClient analyzes a set of images against an instruction and returns
// the raw model text.
type VisionClient interface {
	AnalyzeImages(ctx context.Context, instruction string, images []UploadedPhoto) (string, error)
}

// TextClient generates text from a plain prompt.
type TextClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// PageTextProvider fetches the readable text of a product page.
type PageTextProvider interface {
	FetchPageText(ctx context.Context, pageURL string) (string, error)
}

const maxPageTextChars = 6000

const visionAnalysisInstruction = `You are a fashion product analyst. The first image is a customer photo, the remaining images show one product. Analyze the product and the person and return ONLY a JSON object with these fields:
{"productCategory": string, "detailedVisualDescription": string, "imageGenerationPrompt": string, "colors": [string], "material": string, "style": string, "backgroundSuggestion": string, "negativePrompt": string, "productScaleRatioToHead": number, "userCharacteristics": {"gender": string, "ageRange": string, "bodyType": string, "skinTone": string, "hairStyle": string}}
Use the literal string "Unknown" for any attribute you cannot determine. detailedVisualDescription must describe fabric, cut, color and distinctive details. imageGenerationPrompt must be a self-contained prompt fragment describing the product being worn. Do not wrap the JSON in markdown fences or add commentary.`

// MetadataAnalyzer runs the two analysis sub-steps against the external
// services. Pages is optional; when nil the page step is skipped.
type MetadataAnalyzer struct {
	Vision VisionClient
	Text   TextClient
	Pages  PageTextProvider
}

// Analyze produces the raw metadata record for one try-on request. Page
// analysis is enrichment only and every failure in it is swallowed; a vision
// response that cannot be parsed aborts the request because everything
// downstream depends on the metadata.
func (m *MetadataAnalyzer) Analyze(ctx context.Context, userPhoto UploadedPhoto, productImages []UploadedPhoto, productPageURL string) (*ProductMetadata, error) {
	pageSummary := m.analyzePage(ctx, productPageURL)

	images := append([]UploadedPhoto{userPhoto}, productImages...)
	rawText, err := m.Vision.AnalyzeImages(ctx, visionAnalysisInstruction, images)
	if err != nil {
		return nil, WrapPipelineError(CodeAnalysis, "product analysis failed", err)
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(cleanModelResponseText(rawText)), &raw); err != nil {
		fmt.Printf("[Analysis] unparseable vision response: %v\n", err)
		return nil, WrapPipelineError(CodeAnalysis, "product analysis returned an unreadable result", err)
	}

	metadata := &ProductMetadata{
		Category:             PresentField(raw.ProductCategory),
		Description:          PresentField(raw.DetailedVisualDescription),
		GenerationPrompt:     PresentField(raw.ImageGenerationPrompt),
		Colors:               raw.Colors,
		Material:             PresentField(raw.Material),
		Style:                PresentField(raw.Style),
		BackgroundSuggestion: PresentField(raw.BackgroundSuggestion),
		NegativePrompt:       PresentField(raw.NegativePrompt),
		ScaleRatioToHead:     raw.ProductScaleRatioToHead,
		User: UserCharacteristics{
			Gender:    PresentField(raw.UserCharacteristics.Gender),
			AgeRange:  PresentField(raw.UserCharacteristics.AgeRange),
			BodyType:  PresentField(raw.UserCharacteristics.BodyType),
			SkinTone:  PresentField(raw.UserCharacteristics.SkinTone),
			HairStyle: PresentField(raw.UserCharacteristics.HairStyle),
		},
		PageSummary: pageSummary,
	}

	if metadata.PageSummary.Present() && metadata.Description.Present() {
		metadata.Description = PresentField(metadata.Description.Value() + " " + metadata.PageSummary.Value())
	} else if metadata.PageSummary.Present() {
		metadata.Description = metadata.PageSummary
	}

	return metadata, nil
}

// analyzePage summarizes the product page when a usable http URL was given.
// Returns Missing on any failure.
func (m *MetadataAnalyzer) analyzePage(ctx context.Context, pageURL string) Field {
	if m.Pages == nil || m.Text == nil {
		return MissingField()
	}
	if !strings.HasPrefix(pageURL, "http") {
		if pageURL != "" {
			fmt.Printf("[Analysis] skipping non-http product page url: %s\n", pageURL)
		}
		return MissingField()
	}

	pageText, err := m.Pages.FetchPageText(ctx, pageURL)
	if err != nil {
		fmt.Printf("[Analysis] page fetch failed for %s: %v\n", pageURL, err)
		return MissingField()
	}
	if len(pageText) < 40 {
		return MissingField()
	}

	summary, err := m.Text.GenerateText(ctx, "Summarize the following fashion product page in 2-3 sentences focused on the product's visual appearance, fit and material. Page text:\n\n"+pageText)
	if err != nil {
		fmt.Printf("[Analysis] page summary failed for %s: %v\n", pageURL, err)
		sentry.CaptureException(fmt.Errorf("page summary failed for %s: %w", pageURL, err))
		return MissingField()
	}
	return PresentField(summary)
}

// cleanModelResponseText removes markdown code fences the model sometimes
// wraps JSON in despite instructions.
func cleanModelResponseText(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// HTTPPageTextProvider fetches a product page and strips its markup down to
// readable text, truncated to a bounded size.
type HTTPPageTextProvider struct {
	Client *http.Client
}

func (p *HTTPPageTextProvider) FetchPageText(ctx context.Context, pageURL string) (string, error) {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create page request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to fetch page, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return "", fmt.Errorf("failed to read page body: %v", err)
	}
	return StripPageMarkup(string(body)), nil
}

// StripPageMarkup extracts visible text from an HTML document, skipping
// script and style contents, and truncates the result.
func StripPageMarkup(markup string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder
	skipDepth := 0

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			return truncateText(collapseWhitespace(b.String()), maxPageTextChars)
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); tag == "script" || tag == "style" || tag == "noscript" {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); tag == "script" || tag == "style" || tag == "noscript" {
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(tokenizer.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func truncateText(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
