package scoring

import (
	"fmt"
	"sort"
	"strings"

	"labelsense/internal/models"
)

// maxWarnings caps the ranked warning list
const maxWarnings = 8

// hazard-level score multipliers
var hazardMultipliers = map[models.HazardLevel]float64{
	models.HazardSafe:   1.0,
	models.HazardLow:    0.9,
	models.HazardMedium: 0.7,
	models.HazardHigh:   0.4,
	models.HazardDanger: 0.1,
}

// per-category concern keywords and their multipliers
var categoryConcerns = map[models.Category]map[string]float64{
	models.CategoryFood: {
		"artificial":    0.8,
		"hydrogenated":  0.6,
		"high fructose": 0.7,
		"shortening":    0.8,
	},
	models.CategoryCosmetic: {
		"fragrance": 0.7,
		"parfum":    0.7,
		"paraben":   0.6,
		"sulfate":   0.8,
	},
	models.CategoryHousehold: {
		"bleach":   0.5,
		"ammonia":  0.6,
		"chlorine": 0.6,
	},
}

// fixed conservatism multiplier applied after aggregation
var categoryConservatism = map[models.Category]float64{
	models.CategoryFood:      1.0,
	models.CategoryCosmetic:  0.95,
	models.CategoryHousehold: 0.9,
}

const (
	allergyMultiplier     = 0.1
	sensitivityMultiplier = 0.6
	unknownMultiplier     = 0.8
)

// Engine converts enriched ingredients, the user profile and the additive
// analysis into a single 0-100 safety score with ranked warnings
type Engine struct{}

// New creates a score engine
func New() *Engine {
	return &Engine{}
}

// adjusted carries one ingredient's scoring state through aggregation
type adjusted struct {
	ingredient  *models.Ingredient
	base        float64
	score       float64
	allergy     bool
	sensitivity bool
}

// Score produces the score result for one ingredient list
func (e *Engine) Score(ingredients []models.Ingredient, category models.Category, profile *models.UserProfile, additives *models.AdditiveAnalysis) *models.ScoreResult {
	if len(ingredients) == 0 {
		return &models.ScoreResult{
			Score:            50,
			Level:            models.LevelUnknown,
			Breakdown:        models.ScoreBreakdown{TierCounts: map[models.HazardLevel]int{}},
			AdditiveAnalysis: additives,
		}
	}
	if profile == nil {
		profile = &models.UserProfile{}
	}

	var warnings []models.Warning
	adjustedScores := make([]adjusted, 0, len(ingredients))
	tierCounts := make(map[models.HazardLevel]int)

	baseSum, adjustedSum := 0.0, 0.0
	for i := range ingredients {
		ing := &ingredients[i]
		entry := e.adjust(ing, category, profile)
		adjustedScores = append(adjustedScores, entry)
		warnings = append(warnings, ingredientWarnings(ing, entry)...)

		tierCounts[ing.HazardLevel]++
		baseSum += entry.base
		adjustedSum += entry.score
	}

	score := adjustedSum / float64(len(adjustedScores))
	score *= additivePenalty(additives)
	if factor, ok := categoryConservatism[category]; ok {
		score *= factor
	}
	score = clamp(score)

	if additives != nil {
		for _, banned := range additives.Banned {
			warnings = append(warnings, models.Warning{
				Severity:   models.SeverityHigh,
				Type:       models.WarningBannedAdditive,
				Ingredient: banned,
				Message:    fmt.Sprintf("%s is not approved in every jurisdiction", banned),
			})
		}
	}

	return &models.ScoreResult{
		Score:            score,
		Level:            models.ScoreLevelFromScore(score),
		Warnings:         rankWarnings(warnings),
		Breakdown:        buildBreakdown(adjustedScores, tierCounts, baseSum, adjustedSum),
		AdditiveAnalysis: additives,
	}
}

// adjust computes one ingredient's adjusted score and concern flags
func (e *Engine) adjust(ing *models.Ingredient, category models.Category, profile *models.UserProfile) adjusted {
	base := ing.SafetyScore
	if base <= 0 {
		base = models.NeutralSafetyScore
	}

	score := base * hazardMultipliers[ing.HazardLevel]

	entry := adjusted{ingredient: ing, base: base}

	if matchesAny(ing, profile.Allergies) {
		// Declared allergen: the multiplier floor dominates everything else.
		score = base * allergyMultiplier
		entry.allergy = true
	} else if matchesAny(ing, profile.Sensitivities) {
		score *= sensitivityMultiplier
		entry.sensitivity = true
	}

	if concerns, ok := categoryConcerns[category]; ok {
		lower := strings.ToLower(ing.Name)
		for keyword, factor := range concerns {
			if strings.Contains(lower, keyword) {
				score *= factor
			}
		}
	}

	if !ing.IsKnown {
		score *= unknownMultiplier
	}

	entry.score = clamp(score)
	return entry
}

// matchesAny checks the ingredient name and synonyms against declared terms
// with case-insensitive bidirectional substring matching
func matchesAny(ing *models.Ingredient, declared []string) bool {
	if len(declared) == 0 {
		return false
	}
	candidates := append([]string{ing.Name, ing.NormalizedName}, ing.Synonyms...)
	for _, term := range declared {
		lowerTerm := strings.ToLower(strings.TrimSpace(term))
		if lowerTerm == "" {
			continue
		}
		for _, candidate := range candidates {
			lowerCandidate := strings.ToLower(candidate)
			if lowerCandidate == "" {
				continue
			}
			if strings.Contains(lowerCandidate, lowerTerm) || strings.Contains(lowerTerm, lowerCandidate) {
				return true
			}
		}
	}
	return false
}

// additivePenalty derives the multiplicative penalty from the additive
// analysis. The shape matters more than the constants: penalties grow
// monotonically with additive load and concern count.
func additivePenalty(additives *models.AdditiveAnalysis) float64 {
	if additives == nil {
		return 1.0
	}

	penalty := 1.0
	switch {
	case additives.TotalAdditives > 10:
		penalty *= 0.9
	case additives.TotalAdditives > 5:
		penalty *= 0.95
	}

	if additives.ConcerningCount > 0 {
		concern := 1.0 - 0.1*float64(additives.ConcerningCount)
		if concern < 0.6 {
			concern = 0.6
		}
		penalty *= concern
	}

	if len(additives.Banned) > 0 {
		penalty *= 0.5
	}
	if len(additives.RegulatoryDiffs) > 0 {
		penalty *= 0.8
	}

	return penalty
}

func ingredientWarnings(ing *models.Ingredient, entry adjusted) []models.Warning {
	var warnings []models.Warning
	if entry.allergy {
		warnings = append(warnings, models.Warning{
			Severity:   models.SeverityHigh,
			Type:       models.WarningAllergen,
			Ingredient: ing.Name,
			Message:    fmt.Sprintf("%s matches a declared allergy", ing.Name),
		})
	}
	if entry.sensitivity {
		warnings = append(warnings, models.Warning{
			Severity:   models.SeverityMedium,
			Type:       models.WarningSensitivity,
			Ingredient: ing.Name,
			Message:    fmt.Sprintf("%s matches a declared sensitivity", ing.Name),
		})
	}
	if ing.HazardLevel == models.HazardHigh || ing.HazardLevel == models.HazardDanger {
		warnings = append(warnings, models.Warning{
			Severity:   models.SeverityMedium,
			Type:       models.WarningHazard,
			Ingredient: ing.Name,
			Message:    fmt.Sprintf("%s carries a %s hazard rating", ing.Name, ing.HazardLevel),
		})
	}
	return warnings
}

// severity rank for ordering, highest first
var severityRank = map[string]int{
	models.SeverityHigh:   0,
	models.SeverityMedium: 1,
	models.SeverityLow:    2,
}

// allergen and banned-additive alerts outrank other warnings of the same severity
var typeRank = map[string]int{
	models.WarningAllergen:       0,
	models.WarningBannedAdditive: 1,
	models.WarningHazard:         2,
	models.WarningSensitivity:    3,
	models.WarningUnknown:        4,
	models.WarningGeneric:        5,
}

// rankWarnings deduplicates, orders severity-first and caps the list
func rankWarnings(warnings []models.Warning) []models.Warning {
	seen := make(map[string]bool)
	deduped := warnings[:0]
	for _, warning := range warnings {
		key := warning.Type + "|" + strings.ToLower(warning.Ingredient)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, warning)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		if severityRank[deduped[i].Severity] != severityRank[deduped[j].Severity] {
			return severityRank[deduped[i].Severity] < severityRank[deduped[j].Severity]
		}
		return typeRank[deduped[i].Type] < typeRank[deduped[j].Type]
	})

	if len(deduped) > maxWarnings {
		deduped = deduped[:maxWarnings]
	}
	return deduped
}

// buildBreakdown assembles the tier histogram, averages and the three
// lowest-scoring ingredients with their dominant concern
func buildBreakdown(entries []adjusted, tierCounts map[models.HazardLevel]int, baseSum, adjustedSum float64) models.ScoreBreakdown {
	count := float64(len(entries))

	sorted := make([]adjusted, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].score < sorted[j].score
	})

	var concerns []models.IngredientConcern
	for _, entry := range sorted {
		if len(concerns) == 3 {
			break
		}
		concerns = append(concerns, models.IngredientConcern{
			Name:          entry.ingredient.Name,
			AdjustedScore: entry.score,
			Concern:       dominantConcern(entry),
		})
	}

	return models.ScoreBreakdown{
		TierCounts:      tierCounts,
		AverageBase:     baseSum / count,
		AverageAdjusted: adjustedSum / count,
		TopConcerns:     concerns,
	}
}

// dominantConcern picks a single label by fixed precedence:
// allergy > high hazard > sensitivity > unknown > generic
func dominantConcern(entry adjusted) string {
	switch {
	case entry.allergy:
		return "allergy"
	case entry.ingredient.HazardLevel == models.HazardHigh || entry.ingredient.HazardLevel == models.HazardDanger:
		return "high hazard"
	case entry.sensitivity:
		return "sensitivity"
	case !entry.ingredient.IsKnown:
		return "unknown ingredient"
	default:
		return "general"
	}
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
