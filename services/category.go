package services

import "strings"

// CategoryType is the closed set of product classes the pipeline knows how to
// frame. Everything that doesn't match a keyword lands on CategoryUnknown.
type CategoryType string

const (
	CategoryFootwear      CategoryType = "FOOTWEAR"
	CategoryClothingUpper CategoryType = "CLOTHING_UPPER"
	CategoryClothingLower CategoryType = "CLOTHING_LOWER"
	CategoryHeadwear      CategoryType = "HEADWEAR"
	CategoryBag           CategoryType = "BAG"
	CategoryAccessory     CategoryType = "ACCESSORY"
	CategoryUnknown       CategoryType = "UNKNOWN"
)

// CategoryConfig holds the static per-category prompt configuration. Loaded
// once at process start, read-only afterwards.
type CategoryConfig struct {
	CameraHint              string
	TargetFraming           string
	BackgroundInstruction   string
	NegativePromptDefault   string
	RequiresFullBody        bool
	ProductScaleCategory    string
	ProductScaleRatioToHead float64
	PoseDescription         string
}

type categoryKeywords struct {
	Type     CategoryType
	Keywords []string
}

// Ordered: first match wins. Footwear and lower-body garments come first so
// "running shorts" never falls through to an upper-body match on "shirt"-like
// substrings.
var categoryKeywordTable = []categoryKeywords{
	{CategoryFootwear, []string{"shoe", "sneaker", "boot", "sandal", "heel", "loafer", "trainer", "footwear", "slipper", "moccasin"}},
	{CategoryClothingLower, []string{"pant", "jean", "trouser", "skirt", "short", "legging", "chino", "jogger"}},
	{CategoryClothingUpper, []string{"shirt", "top", "jacket", "hoodie", "sweater", "blouse", "coat", "dress", "cardigan", "vest", "tee", "polo", "pullover"}},
	{CategoryHeadwear, []string{"hat", "cap", "beanie", "headband", "beret", "fedora"}},
	{CategoryBag, []string{"bag", "backpack", "purse", "tote", "handbag", "satchel", "clutch"}},
	{CategoryAccessory, []string{"watch", "necklace", "ring", "bracelet", "scarf", "belt", "sunglass", "glasses", "earring", "jewelry", "tie"}},
}

var categoryConfigs = map[CategoryType]CategoryConfig{
	CategoryFootwear: {
		CameraHint:              "slightly low camera angle emphasizing the lower body and footwear",
		TargetFraming:           "full body shot from head to toe, feet fully visible in frame",
		BackgroundInstruction:   "clean urban sidewalk or minimalist studio floor",
		NegativePromptDefault:   "cropped feet, cut off shoes, floating feet, mismatched shoes",
		RequiresFullBody:        true,
		ProductScaleCategory:    "footwear",
		ProductScaleRatioToHead: 1.1,
		PoseDescription:         "standing naturally with weight evenly distributed, feet shoulder-width apart",
	},
	CategoryClothingUpper: {
		CameraHint:              "eye-level camera, portrait lens compression",
		TargetFraming:           "three-quarter shot from head to mid-thigh",
		BackgroundInstruction:   "soft neutral studio backdrop",
		NegativePromptDefault:   "wrinkled fabric artifacts, misaligned buttons, distorted sleeves",
		RequiresFullBody:        false,
		ProductScaleCategory:    "garment",
		ProductScaleRatioToHead: 2.2,
		PoseDescription:         "relaxed upright stance, arms natural at the sides",
	},
	CategoryClothingLower: {
		CameraHint:              "eye-level camera, slight distance for leg proportions",
		TargetFraming:           "full body shot with complete legs visible from hip to ankle",
		BackgroundInstruction:   "neutral studio backdrop with visible floor line",
		NegativePromptDefault:   "cropped legs, bent leg distortion, fabric merging with background",
		RequiresFullBody:        true,
		ProductScaleCategory:    "garment",
		ProductScaleRatioToHead: 3.0,
		PoseDescription:         "standing straight with legs fully visible, natural stance",
	},
	CategoryHeadwear: {
		CameraHint:              "close head-and-shoulders camera framing",
		TargetFraming:           "portrait shot from chest up, headwear fully in frame",
		BackgroundInstruction:   "softly blurred outdoor or studio background",
		NegativePromptDefault:   "floating hat, wrong head size, hat clipping through hair",
		RequiresFullBody:        false,
		ProductScaleCategory:    "headwear",
		ProductScaleRatioToHead: 1.2,
		PoseDescription:         "head facing camera with slight natural tilt",
	},
	CategoryBag: {
		CameraHint:              "eye-level camera showing torso and carried bag",
		TargetFraming:           "three-quarter shot showing the bag carried naturally",
		BackgroundInstruction:   "city street or cafe setting, softly blurred",
		NegativePromptDefault:   "floating bag, bag merged into body, duplicated straps",
		RequiresFullBody:        false,
		ProductScaleCategory:    "carried",
		ProductScaleRatioToHead: 1.5,
		PoseDescription:         "carrying the bag naturally on shoulder or in hand",
	},
	CategoryAccessory: {
		CameraHint:              "close-up capable camera, sharp focus on the accessory",
		TargetFraming:           "upper body shot with the accessory clearly visible",
		BackgroundInstruction:   "clean minimal backdrop that does not compete with the product",
		NegativePromptDefault:   "deformed jewelry, melted metal look, accessory floating off body",
		RequiresFullBody:        false,
		ProductScaleCategory:    "accessory",
		ProductScaleRatioToHead: 0.4,
		PoseDescription:         "natural pose that keeps the accessory visible and unobstructed",
	},
	CategoryUnknown: {
		CameraHint:              "eye-level camera, balanced composition",
		TargetFraming:           "three-quarter shot with the product clearly visible",
		BackgroundInstruction:   "neutral studio backdrop",
		NegativePromptDefault:   "distorted product, wrong proportions",
		RequiresFullBody:        false,
		ProductScaleCategory:    "generic",
		ProductScaleRatioToHead: 1.0,
		PoseDescription:         "natural relaxed pose facing the camera",
	},
}

// ResolveCategory maps free-text product category input to a CategoryType and
// its static configuration. Total: never errors, unmatched text maps to
// CategoryUnknown.
func ResolveCategory(detectedCategoryText string) (CategoryType, CategoryConfig) {
	lowered := strings.ToLower(detectedCategoryText)
	if lowered != "" {
		for _, entry := range categoryKeywordTable {
			for _, keyword := range entry.Keywords {
				if strings.Contains(lowered, keyword) {
					return entry.Type, categoryConfigs[entry.Type]
				}
			}
		}
	}
	return CategoryUnknown, categoryConfigs[CategoryUnknown]
}

// CategoryConfigFor returns the static config for a known type. Unknown types
// get the generic config.
func CategoryConfigFor(categoryType CategoryType) CategoryConfig {
	config, ok := categoryConfigs[categoryType]
	if !ok {
		return categoryConfigs[CategoryUnknown]
	}
	return config
}
