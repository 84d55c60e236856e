package models

// Capability names a class of enrichment the orchestrator can resolve
type Capability string

const (
	CapabilityBasicInfo      Capability = "basic-info"
	CapabilitySafetyData     Capability = "safety-data"
	CapabilityExpertAnalysis Capability = "expert-analysis"
	CapabilityRecentResearch Capability = "recent-research"
	CapabilityAlternatives   Capability = "alternatives"
)

// Resolution records how an enriched result was obtained
type Resolution string

const (
	ResolutionSource   Resolution = "source"   // an external source answered
	ResolutionFallback Resolution = "fallback" // synthesized locally after exhaustion
	ResolutionCache    Resolution = "cache"    // served from the TTL cache
)

// EnrichedResult is the orchestrator's normalized answer for one capability.
// It is always non-nil: failure modes degrade to a fallback-sourced result.
type EnrichedResult struct {
	Resolved   Resolution        `json:"resolved"`
	Source     string            `json:"source,omitempty"` // adapter name, empty for fallback
	Confidence float64           `json:"confidence"`       // 0-1
	Fields     map[string]string `json:"fields,omitempty"`
}

// IngredientIntelligence merges the independently resolved enrichment branches
// for one ingredient. A failed branch is simply absent.
type IngredientIntelligence struct {
	Name         string          `json:"name"`
	Category     Category        `json:"category"`
	BasicInfo    *EnrichedResult `json:"basic_info,omitempty"`
	SafetyData   *EnrichedResult `json:"safety_data,omitempty"`
	Expert       *EnrichedResult `json:"expert_analysis,omitempty"`
	Research     *EnrichedResult `json:"recent_research,omitempty"`
	Alternatives *EnrichedResult `json:"alternatives,omitempty"`
	Degraded     bool            `json:"degraded"` // true when any branch fell back
}
