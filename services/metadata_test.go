package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVision struct {
	response string
	err      error
}

func (s stubVision) AnalyzeImages(ctx context.Context, instruction string, images []UploadedPhoto) (string, error) {
	return s.response, s.err
}

type stubText struct {
	response string
	err      error
	called   *bool
}

func (s stubText) GenerateText(ctx context.Context, prompt string) (string, error) {
	if s.called != nil {
		*s.called = true
	}
	return s.response, s.err
}

type stubPages struct {
	text string
	err  error
	urls *[]string
}

func (s stubPages) FetchPageText(ctx context.Context, pageURL string) (string, error) {
	if s.urls != nil {
		*s.urls = append(*s.urls, pageURL)
	}
	return s.text, s.err
}

const sampleAnalysis = `{
	"productCategory": "Denim Jacket",
	"detailedVisualDescription": "A medium-wash blue denim jacket with brass buttons and contrast stitching.",
	"imageGenerationPrompt": "The person wears a medium-wash blue denim jacket with brass buttons, fitted at the shoulders.",
	"colors": ["blue"],
	"material": "cotton denim",
	"style": "casual",
	"backgroundSuggestion": "studio backdrop",
	"negativePrompt": "no logos",
	"productScaleRatioToHead": 2.4,
	"userCharacteristics": {"gender": "woman", "ageRange": "25-34", "bodyType": "athletic", "skinTone": "medium", "hairStyle": "wavy"}
}`

func TestPresentFieldNormalization(t *testing.T) {
	assert.True(t, PresentField("blue").Present())
	assert.Equal(t, "blue", PresentField("  blue  ").Value())

	assert.False(t, PresentField("").Present())
	assert.False(t, PresentField("   ").Present())
	assert.False(t, PresentField("Unknown").Present())
	assert.False(t, PresentField("unknown").Present())
	assert.False(t, PresentField("  UNKNOWN  ").Present())
	assert.False(t, MissingField().Present())
}

func TestFieldOr(t *testing.T) {
	assert.Equal(t, "blue", PresentField("blue").Or("red"))
	assert.Equal(t, "red", MissingField().Or("red"))
	assert.Equal(t, "red", PresentField("Unknown").Or("red"))
}

func TestAnalyzeParsesVisionResponse(t *testing.T) {
	analyzer := &MetadataAnalyzer{Vision: stubVision{response: sampleAnalysis}}

	metadata, err := analyzer.Analyze(context.Background(), UploadedPhoto{}, []UploadedPhoto{{}}, "")
	require.NoError(t, err)
	assert.Equal(t, "Denim Jacket", metadata.Category.Value())
	assert.Equal(t, []string{"blue"}, metadata.Colors)
	assert.Equal(t, 2.4, metadata.ScaleRatioToHead)
	assert.Equal(t, "woman", metadata.User.Gender.Value())
	assert.False(t, metadata.PageSummary.Present())
}

func TestAnalyzeStripsCodeFences(t *testing.T) {
	analyzer := &MetadataAnalyzer{Vision: stubVision{response: "```json\n" + sampleAnalysis + "\n```"}}

	metadata, err := analyzer.Analyze(context.Background(), UploadedPhoto{}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Denim Jacket", metadata.Category.Value())
}

func TestAnalyzeNormalizesUnknownAttributes(t *testing.T) {
	response := `{"productCategory": "Unknown", "detailedVisualDescription": "", "userCharacteristics": {"gender": "Unknown"}}`
	analyzer := &MetadataAnalyzer{Vision: stubVision{response: response}}

	metadata, err := analyzer.Analyze(context.Background(), UploadedPhoto{}, nil, "")
	require.NoError(t, err)
	assert.False(t, metadata.Category.Present())
	assert.False(t, metadata.Description.Present())
	assert.False(t, metadata.User.Gender.Present())
}

func TestAnalyzeVisionFailure(t *testing.T) {
	analyzer := &MetadataAnalyzer{Vision: stubVision{err: errors.New("backend down")}}

	_, err := analyzer.Analyze(context.Background(), UploadedPhoto{}, nil, "")
	require.Error(t, err)
	pipelineErr, ok := AsPipelineError(err)
	require.True(t, ok)
	assert.Equal(t, CodeAnalysis, pipelineErr.Code)
}

func TestAnalyzeUnparseableResponse(t *testing.T) {
	analyzer := &MetadataAnalyzer{Vision: stubVision{response: "I could not analyze this image, sorry."}}

	_, err := analyzer.Analyze(context.Background(), UploadedPhoto{}, nil, "")
	require.Error(t, err)
	pipelineErr, ok := AsPipelineError(err)
	require.True(t, ok)
	assert.Equal(t, CodeAnalysis, pipelineErr.Code)
}

func TestAnalyzeSkipsNonHTTPPageURL(t *testing.T) {
	var requested []string
	analyzer := &MetadataAnalyzer{
		Vision: stubVision{response: sampleAnalysis},
		Text:   stubText{response: "summary"},
		Pages:  stubPages{urls: &requested},
	}

	metadata, err := analyzer.Analyze(context.Background(), UploadedPhoto{}, nil, "ftp://example.com/product")
	require.NoError(t, err)
	assert.False(t, metadata.PageSummary.Present())
	assert.Empty(t, requested)
}

func TestAnalyzePageFailureIsSwallowed(t *testing.T) {
	analyzer := &MetadataAnalyzer{
		Vision: stubVision{response: sampleAnalysis},
		Text:   stubText{response: "summary"},
		Pages:  stubPages{err: errors.New("connection refused")},
	}

	metadata, err := analyzer.Analyze(context.Background(), UploadedPhoto{}, nil, "https://example.com/product")
	require.NoError(t, err)
	assert.False(t, metadata.PageSummary.Present())
}

func TestAnalyzeShortPageTextSkipsSummary(t *testing.T) {
	summaryCalled := false
	analyzer := &MetadataAnalyzer{
		Vision: stubVision{response: sampleAnalysis},
		Text:   stubText{response: "summary", called: &summaryCalled},
		Pages:  stubPages{text: "too short"},
	}

	_, err := analyzer.Analyze(context.Background(), UploadedPhoto{}, nil, "https://example.com/product")
	require.NoError(t, err)
	assert.False(t, summaryCalled)
}

func TestAnalyzeAppendsPageSummaryToDescription(t *testing.T) {
	pageText := "A long product page body with enough characters to clear the minimum threshold for summarization."
	analyzer := &MetadataAnalyzer{
		Vision: stubVision{response: sampleAnalysis},
		Text:   stubText{response: "Relaxed-fit jacket in mid-weight denim."},
		Pages:  stubPages{text: pageText},
	}

	metadata, err := analyzer.Analyze(context.Background(), UploadedPhoto{}, nil, "https://example.com/product")
	require.NoError(t, err)
	assert.True(t, metadata.PageSummary.Present())
	assert.Contains(t, metadata.Description.Value(), "brass buttons")
	assert.Contains(t, metadata.Description.Value(), "Relaxed-fit jacket")
}

func TestStripPageMarkup(t *testing.T) {
	page := `<html><head><title>Shop</title><style>.a{color:red}</style><script>var x = 1;</script></head>
	<body><h1>Denim Jacket</h1><p>Classic   fit, <b>brass</b> buttons.</p><noscript>enable js</noscript></body></html>`

	text := StripPageMarkup(page)
	assert.Contains(t, text, "Denim Jacket")
	assert.Contains(t, text, "Classic fit, brass buttons.")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "enable js")
}

func TestCleanModelResponseText(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanModelResponseText("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanModelResponseText(`{"a":1}`))
}
