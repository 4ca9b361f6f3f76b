package services

import "strings"

// ReconstructionPlan says whether the generation prompt needs synthetic body
// reconstruction instructions and, when it does, carries the exact
// anatomically-constrained text block. Derived purely from the category
// config and the visibility classification, no external calls.
type ReconstructionPlan struct {
	Needed       bool
	Instructions string
}

// PlanReconstruction decides whether missing body parts must be synthesized:
// the category demands a full-body rendering but the photo doesn't show one.
// The instruction text is deterministic for a given (type, visibility) pair.
func PlanReconstruction(categoryType CategoryType, config CategoryConfig, visibility BodyVisibility) ReconstructionPlan {
	if !config.RequiresFullBody || visibility == VisibilityFullBody {
		return ReconstructionPlan{}
	}

	var b strings.Builder
	b.WriteString("BODY RECONSTRUCTION REQUIRED. ")
	b.WriteString("Preserve the head, face and any visible upper body exactly as in the source photo, with zero changes to identity. ")

	switch visibility {
	case VisibilityHeadOnly:
		b.WriteString("Only the head is visible: synthesize the entire body below the neck with realistic adult proportions. ")
	default:
		b.WriteString("Only the upper body is visible: synthesize the lower body with realistic adult proportions matching the visible half. ")
	}

	b.WriteString("Target proportions: shoulder width about 2 to 2.5 head-widths, torso about 2.5 to 3 head-heights, ")
	b.WriteString("leg length about 3.5 to 4 head-heights, full body about 7 to 8 head-heights total. ")
	b.WriteString("Dress all synthesized body parts in neutral, well-fitted garments that do not compete with the product. ")
	b.WriteString("Render exactly one person, no duplicates or partial extra figures. ")

	switch categoryType {
	case CategoryFootwear:
		b.WriteString("Footwear shot: both feet must be fully visible, placed shoulder-width apart with natural weight distribution on both legs.")
	case CategoryClothingLower:
		b.WriteString("Lower-body garment shot: legs must be fully visible from hip to ankle with no cropping.")
	}

	return ReconstructionPlan{
		Needed:       true,
		Instructions: strings.TrimSpace(b.String()),
	}
}
