package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubImageGen struct {
	output  GenerationOutput
	err     error
	request *GenerationRequest
}

func (s *stubImageGen) Generate(ctx context.Context, request GenerationRequest) (GenerationOutput, error) {
	s.request = &request
	return s.output, s.err
}

func TestGenerationOutputNormalization(t *testing.T) {
	const want = "https://cdn.example.com/generated/abc.png"

	outputs := []GenerationOutput{
		{Kind: OutputURLString, Value: want},
		{Kind: OutputURLObject, Value: want},
		{Kind: OutputURLFunc, URLFunc: func() string { return want }},
	}
	for _, output := range outputs {
		url, err := output.URL()
		require.NoError(t, err)
		assert.Equal(t, want, url)
	}
}

func TestGenerationOutputUnresolvableShapes(t *testing.T) {
	cases := []GenerationOutput{
		{Kind: OutputURLString},
		{Kind: OutputURLObject},
		{Kind: OutputURLFunc},
		{Kind: OutputURLFunc, URLFunc: func() string { return "" }},
		{Kind: GenerationOutputKind(42), Value: "ignored"},
	}
	for _, output := range cases {
		_, err := output.URL()
		assert.Error(t, err)
	}
}

func TestInvokeSuccess(t *testing.T) {
	gen := &stubImageGen{output: GenerationOutput{Kind: OutputURLString, Value: "https://cdn.example.com/out.png"}}
	invoker := &GenerationInvoker{Client: gen}

	url, err := invoker.Invoke(context.Background(), "prompt", "negative", []string{"https://in/1.png"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/out.png", url)

	require.NotNil(t, gen.request)
	assert.Equal(t, 864, gen.request.Width)
	assert.Equal(t, 1536, gen.request.Height)
	assert.Equal(t, "9:16", gen.request.AspectRatio)
	assert.Equal(t, 1, gen.request.OutputCount)
	assert.Equal(t, "negative", gen.request.NegativePrompt)
}

func TestInvokeTimeoutClassification(t *testing.T) {
	invoker := &GenerationInvoker{Client: &stubImageGen{err: context.DeadlineExceeded}}

	_, err := invoker.Invoke(context.Background(), "prompt", "", nil)
	pipelineErr, ok := AsPipelineError(err)
	require.True(t, ok)
	assert.Equal(t, CodeTimeout, pipelineErr.Code)

	invoker = &GenerationInvoker{Client: &stubImageGen{err: context.Canceled}}
	_, err = invoker.Invoke(context.Background(), "prompt", "", nil)
	pipelineErr, ok = AsPipelineError(err)
	require.True(t, ok)
	assert.Equal(t, CodeTimeout, pipelineErr.Code)
}

func TestInvokeSanitizesBackendErrors(t *testing.T) {
	invoker := &GenerationInvoker{Client: &stubImageGen{err: errors.New("403 invalid api key sk-12345 for project")}}

	_, err := invoker.Invoke(context.Background(), "prompt", "", nil)
	pipelineErr, ok := AsPipelineError(err)
	require.True(t, ok)
	assert.Equal(t, CodeGeneration, pipelineErr.Code)
	assert.NotContains(t, pipelineErr.Message, "sk-12345")
	assert.Contains(t, pipelineErr.Message, "generation backend failed")
}

func TestInvokeUnexpectedOutputShape(t *testing.T) {
	invoker := &GenerationInvoker{Client: &stubImageGen{output: GenerationOutput{Kind: OutputURLFunc}}}

	_, err := invoker.Invoke(context.Background(), "prompt", "", nil)
	pipelineErr, ok := AsPipelineError(err)
	require.True(t, ok)
	assert.Equal(t, CodeGeneration, pipelineErr.Code)
	assert.Contains(t, pipelineErr.Message, "unexpected output format")
}
