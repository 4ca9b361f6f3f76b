package services

import (
	"fmt"
	"strings"
)

const (
	minUsableDescriptionLen = 20
	minUsablePromptLen      = 50
)

// EnhanceMetadata resolves every optional field of the analysis record so
// that downstream prompt composition never sees a missing value. Each field
// falls back independently: the service value when usable, then the category
// config default, then a generic value templated from the product name. A
// partially-good analysis keeps its good fields.
func EnhanceMetadata(metadata *ProductMetadata, productName, categoryHint string, config CategoryConfig) *ProductMetadata {
	enhanced := *metadata
	usedFallback := false

	fallbackName := strings.TrimSpace(productName)
	if fallbackName == "" {
		fallbackName = "the product"
	}

	if !enhanced.Category.Present() {
		enhanced.Category = PresentField(PresentField(categoryHint).Or(fallbackName))
		usedFallback = true
	}

	if !enhanced.Description.Present() || len(enhanced.Description.Value()) < minUsableDescriptionLen {
		enhanced.Description = PresentField(fmt.Sprintf(
			"%s, a %s product photographed for an online store, shown with its true colors, materials and proportions",
			fallbackName, strings.ToLower(enhanced.Category.Or("fashion")),
		))
		usedFallback = true
	}

	if !enhanced.GenerationPrompt.Present() || len(enhanced.GenerationPrompt.Value()) < minUsablePromptLen {
		enhanced.GenerationPrompt = PresentField(fmt.Sprintf(
			"The person is wearing %s exactly as it appears in the product photos: same color, same material, same shape and all distinctive details preserved",
			fallbackName,
		))
		usedFallback = true
	}

	if len(enhanced.Colors) == 0 {
		enhanced.Colors = []string{"original product colors"}
		usedFallback = true
	}

	if !enhanced.Material.Present() {
		enhanced.Material = PresentField("quality fabric as shown in the product photos")
		usedFallback = true
	}

	if !enhanced.Style.Present() {
		enhanced.Style = PresentField("contemporary everyday style")
		usedFallback = true
	}

	if !enhanced.BackgroundSuggestion.Present() {
		enhanced.BackgroundSuggestion = PresentField(config.BackgroundInstruction)
		usedFallback = true
	}

	if !enhanced.NegativePrompt.Present() {
		enhanced.NegativePrompt = PresentField(config.NegativePromptDefault)
		usedFallback = true
	}

	if enhanced.ScaleRatioToHead == 0 {
		enhanced.ScaleRatioToHead = config.ProductScaleRatioToHead
		usedFallback = true
	}

	enhanced.User, usedFallback = enhanceUserCharacteristics(enhanced.User, usedFallback)

	enhanced.UsedFallback = metadata.UsedFallback || usedFallback
	return &enhanced
}

// enhanceUserCharacteristics fills unresolved person attributes with neutral
// values that keep the prompt grammatical without inventing specifics.
func enhanceUserCharacteristics(user UserCharacteristics, usedFallback bool) (UserCharacteristics, bool) {
	if !user.Gender.Present() {
		user.Gender = PresentField("person")
		usedFallback = true
	}
	if !user.AgeRange.Present() {
		user.AgeRange = PresentField("adult")
		usedFallback = true
	}
	if !user.BodyType.Present() {
		user.BodyType = PresentField("average build")
		usedFallback = true
	}
	if !user.SkinTone.Present() {
		user.SkinTone = PresentField("natural skin tone")
		usedFallback = true
	}
	if !user.HairStyle.Present() {
		user.HairStyle = PresentField("natural hairstyle")
		usedFallback = true
	}
	return user, usedFallback
}
