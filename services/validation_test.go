package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func photoOfSize(size int) UploadedPhoto {
	return UploadedPhoto{FileName: "photo.jpg", MIMEType: "image/jpeg", Data: make([]byte, size)}
}

func TestValidateUserPhotoSizeBoundaries(t *testing.T) {
	assert.True(t, ValidateUserPhoto(photoOfSize(minPhotoBytes)).IsValid)
	assert.True(t, ValidateUserPhoto(photoOfSize(maxUserPhotoBytes)).IsValid)

	tooSmall := ValidateUserPhoto(photoOfSize(minPhotoBytes - 1))
	require.False(t, tooSmall.IsValid)
	assert.Contains(t, tooSmall.Errors[0], "too small")

	tooLarge := ValidateUserPhoto(photoOfSize(maxUserPhotoBytes + 1))
	require.False(t, tooLarge.IsValid)
	assert.Contains(t, tooLarge.Errors[0], "too large")
}

func TestValidateUserPhotoMIMEType(t *testing.T) {
	photo := photoOfSize(minPhotoBytes)
	photo.MIMEType = "application/pdf"
	result := ValidateUserPhoto(photo)
	require.False(t, result.IsValid)
	assert.Contains(t, result.Errors[0], "unsupported type")

	photo.MIMEType = "IMAGE/JPEG"
	assert.True(t, ValidateUserPhoto(photo).IsValid)

	photo.MIMEType = "image/heic"
	assert.True(t, ValidateUserPhoto(photo).IsValid)
}

func TestValidateProductImagesCount(t *testing.T) {
	empty := ValidateProductImages(nil)
	require.False(t, empty.IsValid)
	assert.Contains(t, empty.Errors[0], "at least one")

	var tooMany []UploadedPhoto
	for i := 0; i < maxProductImages+1; i++ {
		tooMany = append(tooMany, photoOfSize(minPhotoBytes))
	}
	result := ValidateProductImages(tooMany)
	require.False(t, result.IsValid)
	assert.Contains(t, result.Errors[0], "too many")

	assert.True(t, ValidateProductImages(tooMany[:maxProductImages]).IsValid)
}

func TestValidateProductImagesLargerLimitThanUserPhoto(t *testing.T) {
	oversizedForUser := photoOfSize(maxUserPhotoBytes + 1)
	assert.True(t, ValidateProductImages([]UploadedPhoto{oversizedForUser}).IsValid)
	assert.False(t, ValidateProductImages([]UploadedPhoto{photoOfSize(maxProductPhotoBytes + 1)}).IsValid)
}

func TestValidateProductImagesReportsEachBadImage(t *testing.T) {
	result := ValidateProductImages([]UploadedPhoto{
		photoOfSize(minPhotoBytes),
		photoOfSize(0),
		photoOfSize(0),
	})
	require.False(t, result.IsValid)
	assert.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "product image 2")
}

func TestValidateMetadataWarningsOnly(t *testing.T) {
	result := ValidateMetadata(&ProductMetadata{})
	assert.True(t, result.IsValid)
	assert.NotEmpty(t, result.Warnings)
	assert.Empty(t, result.Errors)
}

func TestValidateFinalPromptLength(t *testing.T) {
	short := ValidateFinalPrompt("short prompt", CategoryUnknown)
	require.False(t, short.IsValid)
	assert.Contains(t, short.Errors[0], "too short")

	long := strings.Repeat("A realistic fashion photograph. ", 20) + singlePersonClause
	assert.True(t, ValidateFinalPrompt(long, CategoryUnknown).IsValid)
}

func TestValidateFinalPromptPlaceholders(t *testing.T) {
	prompt := strings.Repeat("A realistic fashion photograph. ", 20) + "Wearing {{product_name}} in studio light."
	result := ValidateFinalPrompt(prompt, CategoryUnknown)
	require.False(t, result.IsValid)
	assert.Contains(t, result.Errors[0], "{{product_name}}")
}

func TestValidateFinalPromptWarnings(t *testing.T) {
	prompt := strings.Repeat("A realistic fashion photograph. ", 20)
	result := ValidateFinalPrompt(prompt, CategoryFootwear)
	assert.True(t, result.IsValid)
	assert.Contains(t, result.Warnings, "final prompt lacks the single-person enforcement phrase")
	assert.Contains(t, result.Warnings, "final prompt does not mention the footwear framing")

	withClauses := prompt + singlePersonClause + " Framing: full body shot from head to toe, footwear fully visible."
	result = ValidateFinalPrompt(withClauses, CategoryFootwear)
	assert.Empty(t, result.Warnings)
}

func TestValidateOutputURL(t *testing.T) {
	assert.True(t, ValidateOutputURL("https://cdn.example.com/generated/abc.png").IsValid)
	assert.True(t, ValidateOutputURL("http://cdn.example.com/generated/abc.png").IsValid)

	assert.False(t, ValidateOutputURL("").IsValid)
	assert.False(t, ValidateOutputURL("   ").IsValid)
	assert.False(t, ValidateOutputURL("ftp://cdn.example.com/file.png").IsValid)
	assert.False(t, ValidateOutputURL("https:///generated/abc.png").IsValid)
	assert.False(t, ValidateOutputURL("::not-a-url::").IsValid)
}

func TestValidationResultMerge(t *testing.T) {
	result := newValidationResult()
	other := newValidationResult()
	other.addError("broken")
	other.addWarning("iffy")

	result.Merge(other)
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"broken"}, result.Errors)
	assert.Equal(t, []string{"iffy"}, result.Warnings)
}
