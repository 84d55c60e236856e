package models

// ScoreLevel is the tier label for a final product score
type ScoreLevel string

const (
	LevelExcellent ScoreLevel = "excellent"
	LevelGood      ScoreLevel = "good"
	LevelFair      ScoreLevel = "fair"
	LevelPoor      ScoreLevel = "poor"
	LevelDanger    ScoreLevel = "danger"
	LevelUnknown   ScoreLevel = "unknown"
)

// ScoreLevelFromScore maps a final 0-100 score to its tier
func ScoreLevelFromScore(score float64) ScoreLevel {
	switch {
	case score >= 80:
		return LevelExcellent
	case score >= 60:
		return LevelGood
	case score >= 40:
		return LevelFair
	case score >= 20:
		return LevelPoor
	default:
		return LevelDanger
	}
}

// Warning severities, highest first
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Warning types
const (
	WarningAllergen       = "allergen"
	WarningBannedAdditive = "banned_additive"
	WarningHazard         = "hazard"
	WarningSensitivity    = "sensitivity"
	WarningUnknown        = "unknown_ingredient"
	WarningGeneric        = "general"
)

// Warning is one ranked safety warning attached to a score result
type Warning struct {
	Severity   string `json:"severity"`
	Type       string `json:"type"`
	Ingredient string `json:"ingredient,omitempty"`
	Message    string `json:"message"`
}

// IngredientConcern labels one of the lowest-scoring ingredients in a breakdown
type IngredientConcern struct {
	Name          string  `json:"name"`
	AdjustedScore float64 `json:"adjusted_score"`
	Concern       string  `json:"concern"` // dominant concern label
}

// ScoreBreakdown explains how the final score came together
type ScoreBreakdown struct {
	TierCounts      map[HazardLevel]int `json:"tier_counts"`
	AverageBase     float64             `json:"average_base_score"`
	AverageAdjusted float64             `json:"average_adjusted_score"`
	TopConcerns     []IngredientConcern `json:"top_concerns,omitempty"`
}

// ScoreResult is the immutable outcome of one scoring call.
// Persistence is the caller's responsibility.
type ScoreResult struct {
	Score            float64           `json:"score"` // 0-100
	Level            ScoreLevel        `json:"level"`
	Warnings         []Warning         `json:"warnings,omitempty"` // severity-first, capped
	Breakdown        ScoreBreakdown    `json:"breakdown"`
	AdditiveAnalysis *AdditiveAnalysis `json:"additive_analysis,omitempty"`
}
