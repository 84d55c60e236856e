package models

// Category identifies the product category a scan belongs to
type Category string

const (
	CategoryFood      Category = "food"
	CategoryCosmetic  Category = "cosmetic"
	CategoryHousehold Category = "household"
)

// Valid reports whether the category is one of the known product categories
func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryCosmetic, CategoryHousehold:
		return true
	}
	return false
}

// HazardLevel is the coarse safety bucket driving score penalties
type HazardLevel string

const (
	HazardSafe   HazardLevel = "safe"
	HazardLow    HazardLevel = "low"
	HazardMedium HazardLevel = "medium"
	HazardHigh   HazardLevel = "high"
	HazardDanger HazardLevel = "danger"
)

// Ingredient is a single parsed (and possibly enriched) label ingredient.
// Instances are owned by the scoring call that created them and are never
// shared across calls.
type Ingredient struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	NormalizedName string          `json:"normalized_name"`
	Category       Category        `json:"category"`
	IsKnown        bool            `json:"is_known"`
	SafetyScore    float64         `json:"safety_score"` // 0-100
	HazardLevel    HazardLevel     `json:"hazard_level"`
	Synonyms       []string        `json:"synonyms,omitempty"`
	RawText        string          `json:"raw_text"`
	Knowledge      *KnowledgeEntry `json:"knowledge,omitempty"` // attached by enrichment
}

// NeutralSafetyScore is assigned to ingredients the knowledge base can't resolve
const NeutralSafetyScore = 50.0
