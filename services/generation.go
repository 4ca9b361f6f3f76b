package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// GenerationOutputKind enumerates the shapes generation backends return.
type GenerationOutputKind int

const (
	// OutputURLString is a plain URL string.
	OutputURLString GenerationOutputKind = iota
	// OutputURLObject is an object carrying a url property.
	OutputURLObject
	// OutputURLFunc is an object exposing a callable URL accessor.
	OutputURLFunc
)

// GenerationOutput is the closed variant a generation client returns. The
// invoker normalizes it to one canonical URL immediately; nothing downstream
// ever inspects the shape again.
type GenerationOutput struct {
	Kind    GenerationOutputKind
	Value   string
	URLFunc func() string
}

// URL normalizes the variant to its canonical URL string. Unresolvable
// shapes return an error instead of a guess.
func (o GenerationOutput) URL() (string, error) {
	switch o.Kind {
	case OutputURLString:
		if o.Value == "" {
			return "", errors.New("generation output string is empty")
		}
		return o.Value, nil
	case OutputURLObject:
		if o.Value == "" {
			return "", errors.New("generation output object has no url property")
		}
		return o.Value, nil
	case OutputURLFunc:
		if o.URLFunc == nil {
			return "", errors.New("generation output has no url accessor")
		}
		if url := o.URLFunc(); url != "" {
			return url, nil
		}
		return "", errors.New("generation output url accessor returned nothing")
	default:
		return "", fmt.Errorf("unexpected generation output format: kind %d", o.Kind)
	}
}

// GenerationRequest is the fixed request shape sent to the backend. One
// output image, fixed resolution and aspect ratio, public input URLs.
type GenerationRequest struct {
	Prompt         string
	NegativePrompt string
	InputImageURLs []string
	Width          int
	Height         int
	AspectRatio    string
	OutputCount    int
}

// ImageGenClient calls one external image generation backend.
type ImageGenClient interface {
	Generate(ctx context.Context, request GenerationRequest) (GenerationOutput, error)
}

const (
	generationWidth       = 864
	generationHeight      = 1536
	generationAspectRatio = "9:16"
)

// GenerationInvoker wraps a backend client with the fixed request shape,
// failure classification and output normalization. Backend errors never
// reach the caller raw.
type GenerationInvoker struct {
	Client ImageGenClient
}

// Invoke runs one generation attempt. No retry: generation is costly and not
// idempotent in billing terms, retries belong to the caller.
func (g *GenerationInvoker) Invoke(ctx context.Context, prompt, negativePrompt string, inputImageURLs []string) (string, error) {
	request := GenerationRequest{
		Prompt:         prompt,
		NegativePrompt: negativePrompt,
		InputImageURLs: inputImageURLs,
		Width:          generationWidth,
		Height:         generationHeight,
		AspectRatio:    generationAspectRatio,
		OutputCount:    1,
	}

	started := time.Now()
	output, err := g.Client.Generate(ctx, request)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", WrapPipelineError(CodeTimeout, "image generation timed out", err)
		}
		sanitized := SanitizeProviderError(err)
		fmt.Printf("[Generation] backend call failed after %s: %v\n", time.Since(started).Round(time.Millisecond), err)
		return "", NewPipelineError(CodeGeneration, "image generation failed: "+sanitized)
	}

	imageURL, err := output.URL()
	if err != nil {
		return "", WrapPipelineError(CodeGeneration, "image generation returned an unexpected output format", err)
	}
	if strings.TrimSpace(imageURL) == "" {
		return "", NewPipelineError(CodeGeneration, "image generation returned an empty result")
	}
	return imageURL, nil
}
