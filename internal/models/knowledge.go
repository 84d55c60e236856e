package models

// Jurisdiction is a regulatory region with independent approval state
type Jurisdiction string

const (
	JurisdictionUS Jurisdiction = "us"
	JurisdictionEU Jurisdiction = "eu"
)

// RegulatoryStatus is one jurisdiction's position on an additive
type RegulatoryStatus struct {
	Approved     bool   `json:"approved"`
	Restrictions string `json:"restrictions,omitempty"`
}

// KnowledgeEntry is one immutable record of the bundled additive table.
// Loaded once at process start; every alias maps to exactly one entry.
type KnowledgeEntry struct {
	ID             string                            `json:"id"` // canonical id, e.g. additive code "E129"
	Name           string                            `json:"name"`
	Aliases        []string                          `json:"aliases,omitempty"`
	Category       string                            `json:"category"` // colorant, preservative, sweetener, ...
	Function       string                            `json:"function"`
	SafetyScore    float64                           `json:"safety_score"` // 0-100
	Regulatory     map[Jurisdiction]RegulatoryStatus `json:"regulatory"`
	HealthConcerns []string                          `json:"health_concerns,omitempty"`
	Controversies  []string                          `json:"controversies,omitempty"`
	AllergenInfo   string                            `json:"allergen_info,omitempty"`
}

// HazardLevelFromScore maps a 0-100 safety score to its hazard bucket
func HazardLevelFromScore(score float64) HazardLevel {
	switch {
	case score >= 80:
		return HazardSafe
	case score >= 60:
		return HazardLow
	case score >= 40:
		return HazardMedium
	case score >= 20:
		return HazardHigh
	default:
		return HazardDanger
	}
}

// BannedAnywhere reports whether any jurisdiction withholds approval
func (e *KnowledgeEntry) BannedAnywhere() bool {
	for _, status := range e.Regulatory {
		if !status.Approved {
			return true
		}
	}
	return false
}

// HasRegulatoryDifference reports whether jurisdictions disagree on approval
// or one region restricts the additive while another does not
func (e *KnowledgeEntry) HasRegulatoryDifference() bool {
	var first *RegulatoryStatus
	for _, status := range e.Regulatory {
		s := status
		if first == nil {
			first = &s
			continue
		}
		if s.Approved != first.Approved {
			return true
		}
		if (s.Restrictions == "") != (first.Restrictions == "") {
			return true
		}
	}
	return false
}

// AdditiveAnalysis summarizes the knowledge-base view of an ingredient list
type AdditiveAnalysis struct {
	TotalAdditives       int              `json:"total_additives"` // resolved against the knowledge base
	SafeCount            int              `json:"safe_count"`      // score >= 70
	ModerateCount        int              `json:"moderate_count"`  // 40-69
	ConcerningCount      int              `json:"concerning_count"`
	ByCategory           map[string]int   `json:"by_category,omitempty"`
	Banned               []string         `json:"banned,omitempty"`
	Controversial        []string         `json:"controversial,omitempty"`
	RegulatoryDiffs      []string         `json:"regulatory_differences,omitempty"`
	OverallAdditiveScore float64          `json:"overall_additive_score"` // 100 when no additives resolve
	Recommendations      []Recommendation `json:"recommendations,omitempty"`
}

// Recommendation is one entry of the severity-ordered advice list
type Recommendation struct {
	Severity string `json:"severity"` // danger, warning, info, success
	Message  string `json:"message"`
}
