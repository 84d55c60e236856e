package knowledge

import (
	"fmt"

	"labelsense/internal/models"
)

// additive tier thresholds
const (
	safeTierFloor     = 70.0
	moderateTierFloor = 40.0
)

// AnalyzeList buckets an ingredient list by additive safety tier and derives
// the overall additive score plus the severity-ordered recommendation list.
// An empty resolution set scores 100: no additives is the best case.
func (b *Base) AnalyzeList(ingredients []models.Ingredient) *models.AdditiveAnalysis {
	analysis := &models.AdditiveAnalysis{
		ByCategory: make(map[string]int),
	}

	scoreSum := 0.0
	for i := range ingredients {
		entry := ingredients[i].Knowledge
		if entry == nil {
			entry = b.Lookup(ingredients[i].NormalizedName)
		}
		if entry == nil {
			entry = b.Lookup(ingredients[i].Name)
		}
		if entry == nil {
			continue
		}

		analysis.TotalAdditives++
		analysis.ByCategory[entry.Category]++
		scoreSum += entry.SafetyScore

		switch {
		case entry.SafetyScore >= safeTierFloor:
			analysis.SafeCount++
		case entry.SafetyScore >= moderateTierFloor:
			analysis.ModerateCount++
		default:
			analysis.ConcerningCount++
		}

		if entry.BannedAnywhere() {
			analysis.Banned = append(analysis.Banned, entry.Name)
		}
		if len(entry.Controversies) > 0 {
			analysis.Controversial = append(analysis.Controversial, entry.Name)
		}
		if entry.HasRegulatoryDifference() {
			analysis.RegulatoryDiffs = append(analysis.RegulatoryDiffs, entry.Name)
		}
	}

	if analysis.TotalAdditives > 0 {
		analysis.OverallAdditiveScore = scoreSum / float64(analysis.TotalAdditives)
	} else {
		analysis.OverallAdditiveScore = 100
	}

	analysis.Recommendations = recommend(analysis)
	return analysis
}

// recommendation rules, fixed severity order
var recommendationRules = []struct {
	severity string
	applies  func(a *models.AdditiveAnalysis) bool
	message  func(a *models.AdditiveAnalysis) string
}{
	{
		severity: "danger",
		applies:  func(a *models.AdditiveAnalysis) bool { return a.ConcerningCount > 0 },
		message: func(a *models.AdditiveAnalysis) string {
			return fmt.Sprintf("%d additive(s) fall in the concerning safety tier", a.ConcerningCount)
		},
	},
	{
		severity: "warning",
		applies:  func(a *models.AdditiveAnalysis) bool { return len(a.Banned) > 0 },
		message: func(a *models.AdditiveAnalysis) string {
			return fmt.Sprintf("Contains additives not approved in every jurisdiction: %s", joinMax(a.Banned, 3))
		},
	},
	{
		severity: "warning",
		applies:  func(a *models.AdditiveAnalysis) bool { return a.TotalAdditives > 10 },
		message: func(a *models.AdditiveAnalysis) string {
			return fmt.Sprintf("High additive load: %d recognized additives", a.TotalAdditives)
		},
	},
	{
		severity: "info",
		applies:  func(a *models.AdditiveAnalysis) bool { return len(a.RegulatoryDiffs) > 0 },
		message: func(a *models.AdditiveAnalysis) string {
			return fmt.Sprintf("Regulators disagree about: %s", joinMax(a.RegulatoryDiffs, 3))
		},
	},
	{
		severity: "success",
		applies:  func(a *models.AdditiveAnalysis) bool { return a.TotalAdditives == 0 },
		message: func(a *models.AdditiveAnalysis) string {
			return "No recognized additives in this ingredient list"
		},
	},
}

func recommend(analysis *models.AdditiveAnalysis) []models.Recommendation {
	var recommendations []models.Recommendation
	for _, rule := range recommendationRules {
		if rule.applies(analysis) {
			recommendations = append(recommendations, models.Recommendation{
				Severity: rule.severity,
				Message:  rule.message(analysis),
			})
		}
	}
	return recommendations
}

func joinMax(names []string, max int) string {
	if len(names) <= max {
		result := ""
		for i, name := range names {
			if i > 0 {
				result += ", "
			}
			result += name
		}
		return result
	}
	return fmt.Sprintf("%s and %d more", joinMax(names[:max], max), len(names)-max)
}
