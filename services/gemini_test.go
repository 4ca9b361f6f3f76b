package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUploadExtensionMatchesMIME(t *testing.T) {
	assert.Equal(t, ".jpg", uploadExtension("image/jpeg"))
	assert.Equal(t, ".png", uploadExtension("image/png"))
	assert.Equal(t, ".webp", uploadExtension("image/webp"))
	assert.Equal(t, ".heic", uploadExtension("image/heic"))
	assert.Equal(t, ".heic", uploadExtension("image/heif"))
}

func TestLLMModelNames(t *testing.T) {
	assert.Equal(t, "gemini-2.5-flash", Flash25.String())
	assert.Equal(t, "gemini-2.5-flash-image-preview", Flash25Image.String())
	assert.Equal(t, "gemini-2.0-flash", LLMModelName(99).String())
}
