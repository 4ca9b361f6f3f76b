package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanReconstructionOnlyForFullBodyCategories(t *testing.T) {
	cases := []struct {
		categoryType CategoryType
		visibility   BodyVisibility
		needed       bool
	}{
		{CategoryFootwear, VisibilityHeadOnly, true},
		{CategoryFootwear, VisibilityUpperBody, true},
		{CategoryFootwear, VisibilityFullBody, false},
		{CategoryClothingLower, VisibilityHeadOnly, true},
		{CategoryClothingLower, VisibilityUpperBody, true},
		{CategoryClothingLower, VisibilityFullBody, false},
		{CategoryClothingUpper, VisibilityHeadOnly, false},
		{CategoryClothingUpper, VisibilityUpperBody, false},
		{CategoryHeadwear, VisibilityHeadOnly, false},
		{CategoryBag, VisibilityUpperBody, false},
		{CategoryAccessory, VisibilityHeadOnly, false},
		{CategoryUnknown, VisibilityHeadOnly, false},
	}

	for _, c := range cases {
		plan := PlanReconstruction(c.categoryType, CategoryConfigFor(c.categoryType), c.visibility)
		assert.Equal(t, c.needed, plan.Needed, "%s / %s", c.categoryType, c.visibility)
		if !c.needed {
			assert.Empty(t, plan.Instructions)
		}
	}
}

func TestPlanReconstructionHeadOnlyInstructions(t *testing.T) {
	plan := PlanReconstruction(CategoryFootwear, CategoryConfigFor(CategoryFootwear), VisibilityHeadOnly)
	require.True(t, plan.Needed)

	assert.Contains(t, plan.Instructions, "BODY RECONSTRUCTION REQUIRED")
	assert.Contains(t, plan.Instructions, "Preserve the head, face")
	assert.Contains(t, plan.Instructions, "synthesize the entire body below the neck")
	assert.Contains(t, plan.Instructions, "7 to 8 head-heights total")
	assert.Contains(t, plan.Instructions, "exactly one person")
}

func TestPlanReconstructionUpperBodyInstructions(t *testing.T) {
	plan := PlanReconstruction(CategoryClothingLower, CategoryConfigFor(CategoryClothingLower), VisibilityUpperBody)
	require.True(t, plan.Needed)

	assert.Contains(t, plan.Instructions, "synthesize the lower body")
	assert.NotContains(t, plan.Instructions, "entire body below the neck")
}

func TestPlanReconstructionCategoryAddenda(t *testing.T) {
	footwear := PlanReconstruction(CategoryFootwear, CategoryConfigFor(CategoryFootwear), VisibilityUpperBody)
	assert.Contains(t, footwear.Instructions, "both feet must be fully visible")
	assert.Contains(t, footwear.Instructions, "shoulder-width apart")

	lower := PlanReconstruction(CategoryClothingLower, CategoryConfigFor(CategoryClothingLower), VisibilityUpperBody)
	assert.Contains(t, lower.Instructions, "legs must be fully visible from hip to ankle")
	assert.NotContains(t, lower.Instructions, "both feet")
}

func TestPlanReconstructionDeterministic(t *testing.T) {
	first := PlanReconstruction(CategoryFootwear, CategoryConfigFor(CategoryFootwear), VisibilityHeadOnly)
	second := PlanReconstruction(CategoryFootwear, CategoryConfigFor(CategoryFootwear), VisibilityHeadOnly)
	assert.Equal(t, first, second)
}
