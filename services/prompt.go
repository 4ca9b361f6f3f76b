package services

import (
	"fmt"
	"strings"
)

// PromptBundle is the pair of prompts handed to the generation service.
// Built once per request, immutable afterwards.
type PromptBundle struct {
	PositivePrompt string
	NegativePrompt string
}

// Invariant clauses the final prompt must carry. EnforcePromptInvariants
// checks for these literally, so composition uses the same constants.
const (
	singlePersonClause    = "Render exactly one person in the image, the person from the customer photo, with no duplicates, reflections of people or partial extra figures."
	facialFidelityClause  = "Preserve the customer's facial identity completely unchanged: same face, same features, same expression fidelity as the source photo."
	productFidelityClause = "The product must match the product photos exactly: identical color, material, shape, logos and stitching details."
)

const photographicQualityClause = "Shot as a professional e-commerce fashion photograph, natural soft lighting, high resolution, sharp focus, realistic fabric texture."

const fixedNegativeClause = "blurry, low quality, multiple people, deformed body, extra limbs, distorted face, watermark, text overlay"

// ComposePrompt merges the enhanced metadata, the category configuration and
// the reconstruction plan into one positive and one negative prompt. The
// reconstruction block goes first so the generation model reads the
// anatomical constraints before anything else.
func ComposePrompt(metadata *ProductMetadata, config CategoryConfig, plan ReconstructionPlan) PromptBundle {
	var clauses []string

	if plan.Needed {
		clauses = append(clauses, plan.Instructions)
	}

	clauses = append(clauses, fmt.Sprintf(
		"A photorealistic virtual try-on image of the %s from the customer photo wearing the product, presented as %s.",
		describePerson(metadata.User), strings.ToLower(metadata.Category.Or("a fashion product")),
	))
	clauses = append(clauses, facialFidelityClause)

	clauses = append(clauses, userCharacteristicClauses(metadata.User)...)

	clauses = append(clauses, "Product: "+metadata.Description.Or("the product from the product photos")+".")
	clauses = append(clauses, metadata.GenerationPrompt.Or(""))
	clauses = append(clauses, productFidelityClause)

	clauses = append(clauses,
		"Camera: "+config.CameraHint+".",
		"Framing: "+config.TargetFraming+".",
		"Pose: "+config.PoseDescription+".",
		"Background: "+metadata.BackgroundSuggestion.Or(config.BackgroundInstruction)+".",
	)

	if len(metadata.Colors) > 0 {
		clauses = append(clauses, "Product colors: "+strings.Join(metadata.Colors, ", ")+".")
	}
	if metadata.Material.Present() {
		clauses = append(clauses, "Material: "+metadata.Material.Value()+".")
	}
	if metadata.Style.Present() {
		clauses = append(clauses, "Style: "+metadata.Style.Value()+".")
	}
	if metadata.ScaleRatioToHead > 0 {
		clauses = append(clauses, fmt.Sprintf("Keep the product scaled naturally, roughly %.1f head-heights relative to the person's head.", metadata.ScaleRatioToHead))
	}

	clauses = append(clauses, singlePersonClause)
	clauses = append(clauses, photographicQualityClause)

	return PromptBundle{
		PositivePrompt: joinClauses(clauses),
		NegativePrompt: composeNegativePrompt(metadata, config),
	}
}

func describePerson(user UserCharacteristics) string {
	gender := user.Gender.Or("person")
	if strings.EqualFold(gender, "person") {
		return "person"
	}
	return strings.ToLower(gender)
}

func userCharacteristicClauses(user UserCharacteristics) []string {
	var clauses []string
	if user.AgeRange.Present() {
		clauses = append(clauses, "Age range: "+user.AgeRange.Value()+".")
	}
	if user.BodyType.Present() {
		clauses = append(clauses, "Body type: "+user.BodyType.Value()+".")
	}
	if user.SkinTone.Present() {
		clauses = append(clauses, "Skin tone: "+user.SkinTone.Value()+".")
	}
	if user.HairStyle.Present() {
		clauses = append(clauses, "Hair: "+user.HairStyle.Value()+".")
	}
	return clauses
}

// composeNegativePrompt combines the metadata override or the category
// default with the fixed quality clause, without duplicating a clause when
// the metadata value already equals the default.
func composeNegativePrompt(metadata *ProductMetadata, config CategoryConfig) string {
	parts := []string{metadata.NegativePrompt.Or(config.NegativePromptDefault)}
	if metadata.NegativePrompt.Present() && metadata.NegativePrompt.Value() != config.NegativePromptDefault && config.NegativePromptDefault != "" {
		parts = append(parts, config.NegativePromptDefault)
	}
	parts = append(parts, fixedNegativeClause)
	return strings.Join(dedupeClauses(parts), ", ")
}

// EnforcePromptInvariants guarantees the prompt carries the single-person,
// facial-fidelity and product-fidelity clauses. Missing clauses are appended
// and reported as warnings, never as errors. Idempotent: running it on an
// already-compliant prompt returns it unchanged.
func EnforcePromptInvariants(prompt string, config CategoryConfig) (string, []string) {
	var warnings []string

	required := []struct {
		clause  string
		warning string
	}{
		{singlePersonClause, "prompt was missing the single-person enforcement clause"},
		{facialFidelityClause, "prompt was missing the facial-fidelity clause"},
		{productFidelityClause, "prompt was missing the product-fidelity clause"},
	}

	for _, r := range required {
		if !strings.Contains(prompt, r.clause) {
			prompt = joinClauses([]string{prompt, r.clause})
			warnings = append(warnings, r.warning)
		}
	}

	return prompt, warnings
}

func joinClauses(clauses []string) string {
	var nonEmpty []string
	for _, clause := range clauses {
		if trimmed := strings.TrimSpace(clause); trimmed != "" {
			nonEmpty = append(nonEmpty, trimmed)
		}
	}
	return strings.Join(nonEmpty, " ")
}

func dedupeClauses(clauses []string) []string {
	seen := make(map[string]bool, len(clauses))
	var out []string
	for _, clause := range clauses {
		trimmed := strings.TrimSpace(clause)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	return out
}
