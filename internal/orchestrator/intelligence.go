package orchestrator

import (
	"context"
	"sync"

	"labelsense/internal/models"
)

// IngredientIntelligence resolves the basic-info, safety-data and
// expert-analysis branches for one ingredient concurrently. Branches are
// joined with isolated failure handling: a failing or slow branch neither
// cancels its siblings nor the overall resolution, it is simply absent or
// fallback-sourced in the merged result.
func (o *Orchestrator) IngredientIntelligence(ctx context.Context, name string, category models.Category) *models.IngredientIntelligence {
	opts := map[string]string{"category": string(category)}

	intelligence := &models.IngredientIntelligence{
		Name:     name,
		Category: category,
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		intelligence.BasicInfo = o.Resolve(ctx, models.CapabilityBasicInfo, name, opts)
	}()
	go func() {
		defer wg.Done()
		intelligence.SafetyData = o.Resolve(ctx, models.CapabilitySafetyData, name, opts)
	}()
	go func() {
		defer wg.Done()
		intelligence.Expert = o.Resolve(ctx, models.CapabilityExpertAnalysis, name, opts)
	}()
	wg.Wait()

	// Secondary lookups only make sense once basic info resolved against a
	// real source; they follow the same no-throw contract.
	if fromSource(intelligence.BasicInfo) && ctx.Err() == nil {
		intelligence.Research = o.Resolve(ctx, models.CapabilityRecentResearch, name, opts)
		intelligence.Alternatives = o.Resolve(ctx, models.CapabilityAlternatives, name, opts)
	}

	intelligence.Degraded = isFallback(intelligence.BasicInfo) ||
		isFallback(intelligence.SafetyData) ||
		isFallback(intelligence.Expert) ||
		isFallback(intelligence.Research) ||
		isFallback(intelligence.Alternatives)

	return intelligence
}

func fromSource(result *models.EnrichedResult) bool {
	return result != nil && result.Source != ""
}

// isFallback treats any locally synthesized branch as degraded, including
// fallbacks later served from the cache
func isFallback(result *models.EnrichedResult) bool {
	return result != nil && result.Source == ""
}
