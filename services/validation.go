package services

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// ValidationResult aggregates one validation pass. Errors block the pipeline,
// warnings travel in the response metadata only.
type ValidationResult struct {
	IsValid  bool
	Errors   []string
	Warnings []string
}

func (r *ValidationResult) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.IsValid = false
}

func (r *ValidationResult) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Merge folds another result into this one.
func (r *ValidationResult) Merge(other ValidationResult) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	if !other.IsValid {
		r.IsValid = false
	}
}

func newValidationResult() ValidationResult {
	return ValidationResult{IsValid: true}
}

const (
	minPhotoBytes        = 10 * 1024
	maxUserPhotoBytes    = 10 * 1024 * 1024
	maxProductPhotoBytes = 15 * 1024 * 1024
	maxProductImages     = 5
	minFinalPromptLen    = 200
)

var allowedImageMIMETypes = []string{
	"image/jpeg", "image/png", "image/webp", "image/heic", "image/heif",
}

var placeholderPattern = regexp.MustCompile(`\{\{[^}]*\}\}`)

// ValidateUserPhoto checks type and size constraints for the customer photo.
func ValidateUserPhoto(photo UploadedPhoto) ValidationResult {
	return validatePhoto(photo, "user photo", maxUserPhotoBytes)
}

// ValidateProductImages checks count plus per-image type and size constraints.
func ValidateProductImages(photos []UploadedPhoto) ValidationResult {
	result := newValidationResult()
	if len(photos) == 0 {
		result.addError("at least one product image is required")
		return result
	}
	if len(photos) > maxProductImages {
		result.addError("too many product images: %d, maximum is %d", len(photos), maxProductImages)
		return result
	}
	for i, photo := range photos {
		result.Merge(validatePhoto(photo, fmt.Sprintf("product image %d", i+1), maxProductPhotoBytes))
	}
	return result
}

func validatePhoto(photo UploadedPhoto, label string, maxBytes int64) ValidationResult {
	result := newValidationResult()
	if !slices.Contains(allowedImageMIMETypes, strings.ToLower(photo.MIMEType)) {
		result.addError("%s has unsupported type %q, allowed: %s", label, photo.MIMEType, strings.Join(allowedImageMIMETypes, ", "))
	}
	size := photo.Size()
	if size < minPhotoBytes {
		result.addError("%s is too small: %d bytes, minimum is %d", label, size, int64(minPhotoBytes))
	}
	if size > maxBytes {
		result.addError("%s is too large: %d bytes, maximum is %d", label, size, maxBytes)
	}
	return result
}

// ValidateMetadata never blocks generation; it only reports quality warnings.
func ValidateMetadata(metadata *ProductMetadata) ValidationResult {
	result := newValidationResult()
	if !metadata.Category.Present() {
		result.addWarning("product category could not be determined")
	}
	if !metadata.Description.Present() || len(metadata.Description.Value()) < minUsableDescriptionLen {
		result.addWarning("product description is missing or low quality")
	}
	if !metadata.GenerationPrompt.Present() || len(metadata.GenerationPrompt.Value()) < minUsablePromptLen {
		result.addWarning("analysis produced no usable prompt hint")
	}
	if !metadata.User.Gender.Present() || metadata.User.Gender.Value() == "person" {
		result.addWarning("person's gender presentation could not be determined")
	}
	return result
}

// ValidateFinalPrompt gates the composed prompt before generation. Length and
// unresolved placeholders are hard errors; missing phrases are warnings since
// the model can usually still produce acceptable output.
func ValidateFinalPrompt(prompt string, categoryType CategoryType) ValidationResult {
	result := newValidationResult()
	if len(prompt) < minFinalPromptLen {
		result.addError("final prompt is too short: %d characters, minimum is %d", len(prompt), minFinalPromptLen)
	}
	if match := placeholderPattern.FindString(prompt); match != "" {
		result.addError("final prompt contains unresolved placeholder %q", match)
	}
	if !strings.Contains(prompt, singlePersonClause) {
		result.addWarning("final prompt lacks the single-person enforcement phrase")
	}
	if phrase := categoryPhrase(categoryType); phrase != "" && !strings.Contains(strings.ToLower(prompt), phrase) {
		result.addWarning("final prompt does not mention the %s framing", phrase)
	}
	return result
}

// categoryPhrase is the noun a compliant prompt mentions for a given type.
func categoryPhrase(categoryType CategoryType) string {
	switch categoryType {
	case CategoryFootwear:
		return "footwear"
	case CategoryClothingUpper:
		return "three-quarter shot"
	case CategoryClothingLower:
		return "full body"
	case CategoryHeadwear:
		return "headwear"
	case CategoryBag:
		return "bag"
	case CategoryAccessory:
		return "accessory"
	default:
		return ""
	}
}

// ValidateOutputURL gates the generation result. An unusable URL is
// operationally a failed generation.
func ValidateOutputURL(rawURL string) ValidationResult {
	result := newValidationResult()
	if strings.TrimSpace(rawURL) == "" {
		result.addError("generation returned an empty image URL")
		return result
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		result.addError("generation returned an unparseable image URL")
		return result
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		result.addError("generation returned an image URL with unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		result.addError("generation returned an image URL without a host")
	}
	return result
}
