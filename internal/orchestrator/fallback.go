package orchestrator

import (
	"fmt"
	"strings"

	"labelsense/internal/knowledge"
	"labelsense/internal/models"
)

// fallbackConfidence marks locally synthesized results so downstream logic
// treats them conservatively
const fallbackConfidence = 0.3

// Name fragments that indicate elevated risk regardless of what the
// knowledge base knows about the ingredient
var hazardFragments = []string{
	"paraben", "phthalate", "formaldehyde", "benzene", "toluene", "lead",
	"mercury", "ammonia", "chlorine", "peroxide", "nitrite", "nitrate",
	"bleach", "fragrance", "parfum", "bha", "bht", "triclosan", "dye",
}

// category-keyed templates for synthesized expert text
var fallbackTemplates = map[models.Category]struct {
	mechanism string
	benefit   string
	concern   string
}{
	models.CategoryFood: {
		mechanism: "Functions as a processing or preservation aid in food formulations",
		benefit:   "Extends shelf life or improves texture, taste or appearance",
		concern:   "Long-term intake effects depend on dose and individual sensitivity",
	},
	models.CategoryCosmetic: {
		mechanism: "Acts on the skin surface as a carrier, stabilizer or active",
		benefit:   "Improves product stability, feel or efficacy",
		concern:   "May irritate sensitive skin or accumulate with repeated application",
	},
	models.CategoryHousehold: {
		mechanism: "Contributes to cleaning, disinfecting or surface action",
		benefit:   "Increases cleaning power or product stability",
		concern:   "Skin and respiratory exposure should be minimized during use",
	},
}

// Fallback synthesizes capability results locally when every source is
// exhausted. Output is deterministic for the same input.
type Fallback struct {
	base *knowledge.Base
}

// NewFallback creates a fallback generator over the knowledge base
func NewFallback(base *knowledge.Base) *Fallback {
	return &Fallback{base: base}
}

// Generate produces a capability-specific local result for the query
func (f *Fallback) Generate(capability models.Capability, query string, opts map[string]string) *models.EnrichedResult {
	category := models.Category(opts["category"])
	entry := f.base.Lookup(query)

	score := models.NeutralSafetyScore
	if entry != nil {
		score = entry.SafetyScore
	}
	score = score - 15*float64(countHazardFragments(query))
	if score < 5 {
		score = 5
	}

	fields := make(map[string]string)
	switch capability {
	case models.CapabilityBasicInfo:
		fields["name"] = query
		if entry != nil {
			fields["name"] = entry.Name
			fields["category"] = entry.Category
			fields["function"] = entry.Function
		} else {
			fields["category"] = "unclassified"
			fields["function"] = "No local record for this ingredient"
		}
	case models.CapabilitySafetyData:
		fields["safety_score"] = fmt.Sprintf("%.0f", score)
		fields["risk_level"] = string(models.HazardLevelFromScore(score))
		if entry != nil && len(entry.HealthConcerns) > 0 {
			fields["concerns"] = strings.Join(entry.HealthConcerns, "; ")
		}
	case models.CapabilityExpertAnalysis:
		template := fallbackTemplates[category]
		if template.mechanism == "" {
			template = fallbackTemplates[models.CategoryFood]
		}
		fields["mechanism"] = template.mechanism
		fields["benefits"] = template.benefit
		fields["concerns"] = template.concern
	case models.CapabilityRecentResearch:
		fields["summary"] = "No recent research available offline"
	case models.CapabilityAlternatives:
		fields["alternatives"] = suggestAlternatives(f.base, entry)
	}

	return &models.EnrichedResult{
		Resolved:   models.ResolutionFallback,
		Confidence: fallbackConfidence,
		Fields:     fields,
	}
}

func countHazardFragments(query string) int {
	lower := strings.ToLower(query)
	count := 0
	for _, fragment := range hazardFragments {
		if strings.Contains(lower, fragment) {
			count++
		}
	}
	return count
}

// suggestAlternatives names safer entries from the same additive category
func suggestAlternatives(base *knowledge.Base, entry *models.KnowledgeEntry) string {
	if entry == nil {
		return ""
	}
	var names []string
	for _, candidate := range base.ByCategory(entry.Category) {
		if candidate.ID != entry.ID && candidate.SafetyScore > entry.SafetyScore+10 {
			names = append(names, candidate.Name)
		}
		if len(names) == 3 {
			break
		}
	}
	return strings.Join(names, ", ")
}
