package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCategoryKeywords(t *testing.T) {
	cases := []struct {
		input    string
		expected CategoryType
	}{
		{"Running Shoes", CategoryFootwear},
		{"Chelsea Boot", CategoryFootwear},
		{"Slim Fit Jeans", CategoryClothingLower},
		{"Denim Jacket", CategoryClothingUpper},
		{"Summer Dress", CategoryClothingUpper},
		{"Wool Beanie", CategoryHeadwear},
		{"Leather Tote", CategoryBag},
		{"Silver Necklace", CategoryAccessory},
		{"Aviator Sunglasses", CategoryAccessory},
	}

	for _, c := range cases {
		categoryType, config := ResolveCategory(c.input)
		assert.Equal(t, c.expected, categoryType, "input %q", c.input)
		assert.NotEmpty(t, config.TargetFraming, "input %q must carry a config", c.input)
	}
}

func TestResolveCategoryFirstMatchWins(t *testing.T) {
	// "running shorts" contains both a lower-body and (sub-string wise) no
	// footwear keyword; the lower-body row comes before the upper-body row.
	categoryType, _ := ResolveCategory("running shorts")
	assert.Equal(t, CategoryClothingLower, categoryType)

	// "trainer shirt" matches footwear first because that row is ordered first.
	categoryType, _ = ResolveCategory("trainer shirt")
	assert.Equal(t, CategoryFootwear, categoryType)
}

func TestResolveCategoryUnknown(t *testing.T) {
	categoryType, config := ResolveCategory("mystery gadget")
	assert.Equal(t, CategoryUnknown, categoryType)
	assert.False(t, config.RequiresFullBody)
	assert.NotEmpty(t, config.BackgroundInstruction)

	categoryType, _ = ResolveCategory("")
	assert.Equal(t, CategoryUnknown, categoryType)
}

func TestResolveCategoryCaseInsensitive(t *testing.T) {
	categoryType, _ := ResolveCategory("SNEAKER DROP 2024")
	assert.Equal(t, CategoryFootwear, categoryType)
}

func TestEveryKeywordRowHasConfig(t *testing.T) {
	for _, entry := range categoryKeywordTable {
		config, ok := categoryConfigs[entry.Type]
		require.True(t, ok, "missing config for %s", entry.Type)
		assert.NotEmpty(t, config.CameraHint)
		assert.NotEmpty(t, config.TargetFraming)
		assert.NotEmpty(t, config.NegativePromptDefault)
		assert.Greater(t, config.ProductScaleRatioToHead, 0.0)
	}
}

func TestFullBodyCategories(t *testing.T) {
	assert.True(t, CategoryConfigFor(CategoryFootwear).RequiresFullBody)
	assert.True(t, CategoryConfigFor(CategoryClothingLower).RequiresFullBody)
	assert.False(t, CategoryConfigFor(CategoryClothingUpper).RequiresFullBody)
	assert.False(t, CategoryConfigFor(CategoryHeadwear).RequiresFullBody)
	assert.False(t, CategoryConfigFor(CategoryBag).RequiresFullBody)
	assert.False(t, CategoryConfigFor(CategoryAccessory).RequiresFullBody)
}

func TestCategoryConfigForUnknownType(t *testing.T) {
	config := CategoryConfigFor(CategoryType("SOMETHING_NEW"))
	assert.Equal(t, categoryConfigs[CategoryUnknown], config)
}
