package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"labelsense/internal/config"
	"labelsense/internal/knowledge"
	"labelsense/internal/models"
)

// fakeSource is a scriptable in-memory source
type fakeSource struct {
	name      string
	priority  int
	limit     *config.RateLimitConfig
	result    *SourceResult
	err       error
	delay     time.Duration
	callCount atomic.Int64
}

func (f *fakeSource) Name() string                       { return f.name }
func (f *fakeSource) Priority() int                      { return f.priority }
func (f *fakeSource) Timeout() time.Duration             { return 200 * time.Millisecond }
func (f *fakeSource) RateLimit() *config.RateLimitConfig { return f.limit }
func (f *fakeSource) Supports(models.Capability) bool    { return true }

func (f *fakeSource) Fetch(ctx context.Context, capability models.Capability, query string, opts map[string]string) (*SourceResult, error) {
	f.callCount.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testConfig() *config.Config {
	return &config.Config{
		IntelligenceTTL:   time.Hour,
		GlobalSourceRate:  1000,
		GlobalSourceBurst: 1000,
	}
}

func newTestOrchestrator(t *testing.T, sources ...Source) *Orchestrator {
	t.Helper()
	base, err := knowledge.New()
	if err != nil {
		t.Fatalf("failed to load knowledge base: %v", err)
	}
	return NewWithSources(sources, base, testConfig())
}

func TestResolvePrefersHighestPrioritySource(t *testing.T) {
	primary := &fakeSource{name: "primary", priority: 1,
		result: &SourceResult{Confidence: 0.9, Fields: map[string]string{"name": "from primary"}}}
	secondary := &fakeSource{name: "secondary", priority: 2,
		result: &SourceResult{Confidence: 0.9, Fields: map[string]string{"name": "from secondary"}}}

	o := newTestOrchestrator(t, secondary, primary)
	result := o.Resolve(context.Background(), models.CapabilityBasicInfo, "aspartame", nil)

	if result.Source != "primary" {
		t.Errorf("result source = %q, want primary", result.Source)
	}
	if result.Resolved != models.ResolutionSource {
		t.Errorf("resolution = %s, want source", result.Resolved)
	}
	if secondary.callCount.Load() != 0 {
		t.Error("secondary should not be called when primary answers")
	}
}

func TestResolveFailsOverToNextSource(t *testing.T) {
	broken := &fakeSource{name: "broken", priority: 1, err: errors.New("boom")}
	backup := &fakeSource{name: "backup", priority: 2,
		result: &SourceResult{Confidence: 0.8, Fields: map[string]string{"name": "ok"}}}

	o := newTestOrchestrator(t, broken, backup)
	result := o.Resolve(context.Background(), models.CapabilityBasicInfo, "aspartame", nil)

	if result.Source != "backup" {
		t.Errorf("result source = %q, want backup", result.Source)
	}
	if broken.callCount.Load() != 1 {
		t.Errorf("broken source called %d times, want 1", broken.callCount.Load())
	}
}

func TestResolveSkipsLowConfidenceAnswers(t *testing.T) {
	vague := &fakeSource{name: "vague", priority: 1,
		result: &SourceResult{Confidence: 0.1, Fields: map[string]string{"name": "guess"}}}
	confident := &fakeSource{name: "confident", priority: 2,
		result: &SourceResult{Confidence: 0.9, Fields: map[string]string{"name": "sure"}}}

	o := newTestOrchestrator(t, vague, confident)
	result := o.Resolve(context.Background(), models.CapabilityBasicInfo, "aspartame", nil)

	if result.Source != "confident" {
		t.Errorf("result source = %q, want confident", result.Source)
	}
}

func TestResolveFallsBackWhenAllSourcesFail(t *testing.T) {
	down1 := &fakeSource{name: "down1", priority: 1, err: errors.New("unreachable")}
	down2 := &fakeSource{name: "down2", priority: 2, err: errors.New("unreachable")}

	o := newTestOrchestrator(t, down1, down2)
	result := o.Resolve(context.Background(), models.CapabilitySafetyData, "aspartame", nil)

	if result == nil {
		t.Fatal("Resolve must never return nil")
	}
	if result.Resolved != models.ResolutionFallback {
		t.Errorf("resolution = %s, want fallback", result.Resolved)
	}
	if result.Source != "" {
		t.Errorf("fallback result carries source %q", result.Source)
	}
	// Knowledge base score for aspartame flows into the fallback
	if result.Fields["safety_score"] != "40" {
		t.Errorf("fallback safety_score = %q, want 40", result.Fields["safety_score"])
	}
}

func TestResolveServesSecondCallFromCache(t *testing.T) {
	source := &fakeSource{name: "one-shot", priority: 1,
		result: &SourceResult{Confidence: 0.9, Fields: map[string]string{"name": "cached"}}}

	o := newTestOrchestrator(t, source)

	first := o.Resolve(context.Background(), models.CapabilityBasicInfo, "aspartame", nil)
	second := o.Resolve(context.Background(), models.CapabilityBasicInfo, "Aspartame", nil) // case differs

	if source.callCount.Load() != 1 {
		t.Fatalf("source called %d times, want 1 (second call cached)", source.callCount.Load())
	}
	if second.Resolved != models.ResolutionCache {
		t.Errorf("second resolution = %s, want cache", second.Resolved)
	}
	if second.Source != first.Source {
		t.Errorf("cache lost source attribution: %q vs %q", second.Source, first.Source)
	}

	// Mutating the returned copy must not poison the cache
	second.Fields["name"] = "mutated"
	third := o.Resolve(context.Background(), models.CapabilityBasicInfo, "aspartame", nil)
	if third.Fields["name"] != "cached" {
		t.Errorf("cache entry was mutated through a returned copy: %q", third.Fields["name"])
	}
}

func TestResolveCachesFallbackResults(t *testing.T) {
	down := &fakeSource{name: "down", priority: 1, err: errors.New("unreachable")}

	o := newTestOrchestrator(t, down)

	o.Resolve(context.Background(), models.CapabilitySafetyData, "aspartame", nil)
	result := o.Resolve(context.Background(), models.CapabilitySafetyData, "aspartame", nil)

	if down.callCount.Load() != 1 {
		t.Errorf("source called %d times, want 1 (fallback cached)", down.callCount.Load())
	}
	if result.Resolved != models.ResolutionCache {
		t.Errorf("second resolution = %s, want cache", result.Resolved)
	}
	if result.Source != "" {
		t.Error("cached fallback must keep empty source attribution")
	}
}

// memoryPersistentCache is a map-backed PersistentCache double
type memoryPersistentCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func (c *memoryPersistentCache) PutCached(_ context.Context, key string, payload []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string][]byte)
	}
	c.entries[key] = append([]byte(nil), payload...)
	return nil
}

func (c *memoryPersistentCache) GetCached(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.entries[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return payload, nil
}

func TestResolveRestoresFromPersistentCacheAfterRestart(t *testing.T) {
	durable := &memoryPersistentCache{}

	source := &fakeSource{name: "upstream", priority: 1,
		result: &SourceResult{Confidence: 0.9, Fields: map[string]string{"name": "persisted"}}}
	before := newTestOrchestrator(t, source)
	before.UsePersistentCache(durable)
	before.Resolve(context.Background(), models.CapabilityBasicInfo, "aspartame", nil)

	// A fresh orchestrator with a dead source simulates a restart while offline
	dead := &fakeSource{name: "upstream", priority: 1, err: errors.New("unreachable")}
	after := newTestOrchestrator(t, dead)
	after.UsePersistentCache(durable)

	result := after.Resolve(context.Background(), models.CapabilityBasicInfo, "aspartame", nil)
	if result.Resolved != models.ResolutionCache {
		t.Errorf("resolution = %s, want cache", result.Resolved)
	}
	if result.Source != "upstream" {
		t.Errorf("restored result source = %q, want upstream", result.Source)
	}
	if result.Fields["name"] != "persisted" {
		t.Errorf("restored fields = %v", result.Fields)
	}
	if dead.callCount.Load() != 0 {
		t.Errorf("dead source called %d times, want 0 (served durably)", dead.callCount.Load())
	}
}

func TestResolveDistinguishesOptionSets(t *testing.T) {
	source := &fakeSource{name: "src", priority: 1,
		result: &SourceResult{Confidence: 0.9, Fields: map[string]string{"name": "x"}}}

	o := newTestOrchestrator(t, source)

	o.Resolve(context.Background(), models.CapabilityBasicInfo, "aspartame", map[string]string{"category": "food"})
	o.Resolve(context.Background(), models.CapabilityBasicInfo, "aspartame", map[string]string{"category": "cosmetic"})

	if source.callCount.Load() != 2 {
		t.Errorf("source called %d times, want 2 (different option sets)", source.callCount.Load())
	}
}

func TestResolveRateLimitedSourceIsSkippedNotWaited(t *testing.T) {
	limited := &fakeSource{name: "limited", priority: 1,
		limit:  &config.RateLimitConfig{MaxPerWindow: 1, WindowMs: 60_000},
		result: &SourceResult{Confidence: 0.9, Fields: map[string]string{"name": "limited"}}}
	backup := &fakeSource{name: "backup", priority: 2,
		result: &SourceResult{Confidence: 0.9, Fields: map[string]string{"name": "backup"}}}

	o := newTestOrchestrator(t, limited, backup)

	first := o.Resolve(context.Background(), models.CapabilityBasicInfo, "sugar", nil)
	if first.Source != "limited" {
		t.Fatalf("first result source = %q, want limited", first.Source)
	}

	started := time.Now()
	second := o.Resolve(context.Background(), models.CapabilityBasicInfo, "salt", nil)
	if second.Source != "backup" {
		t.Errorf("second result source = %q, want backup (limited saturated)", second.Source)
	}
	if limited.callCount.Load() != 1 {
		t.Errorf("limited source called %d times, want 1", limited.callCount.Load())
	}
	if elapsed := time.Since(started); elapsed > 100*time.Millisecond {
		t.Errorf("rate-limited source blocked for %v, skip must not wait", elapsed)
	}
}

func TestIngredientIntelligenceDegradedFlag(t *testing.T) {
	down := &fakeSource{name: "down", priority: 1, err: errors.New("unreachable")}
	o := newTestOrchestrator(t, down)

	intel := o.IngredientIntelligence(context.Background(), "aspartame", models.CategoryFood)

	if !intel.Degraded {
		t.Error("intelligence built entirely from fallbacks must be degraded")
	}
	if intel.BasicInfo == nil || intel.SafetyData == nil || intel.Expert == nil {
		t.Error("primary branches must always be populated")
	}
	// Secondary branches require a source-confirmed basic info
	if intel.Research != nil || intel.Alternatives != nil {
		t.Error("secondary branches must be skipped when basic info is fallback-sourced")
	}
}

func TestIngredientIntelligenceFullResolution(t *testing.T) {
	source := &fakeSource{name: "full", priority: 1,
		result: &SourceResult{Confidence: 0.9, Fields: map[string]string{"name": "aspartame"}}}
	o := newTestOrchestrator(t, source)

	intel := o.IngredientIntelligence(context.Background(), "aspartame", models.CategoryFood)

	if intel.Degraded {
		t.Error("fully source-resolved intelligence must not be degraded")
	}
	if intel.Research == nil || intel.Alternatives == nil {
		t.Error("secondary branches must run after source-confirmed basic info")
	}
}

func TestSlidingWindowLimiter(t *testing.T) {
	limiter := NewSlidingWindowLimiter()
	current := time.Unix(1000, 0)
	limiter.now = func() time.Time { return current }

	window := time.Minute
	max := 3

	for i := 0; i < max; i++ {
		if !limiter.Allow("src", max, window) {
			t.Fatalf("call %d inside the window should be allowed", i+1)
		}
	}
	if limiter.Allow("src", max, window) {
		t.Error("call max+1 inside the window must be rejected")
	}

	// Other sources are tracked independently
	if !limiter.Allow("other", max, window) {
		t.Error("independent source must not share the window")
	}

	// Once the window slides past the old events, calls are allowed again
	current = current.Add(window + time.Second)
	if !limiter.Allow("src", max, window) {
		t.Error("call after the window slides must be allowed")
	}
}

func TestSlidingWindowLimiterZeroConfigAllowsAll(t *testing.T) {
	limiter := NewSlidingWindowLimiter()
	for i := 0; i < 100; i++ {
		if !limiter.Allow("src", 0, 0) {
			t.Fatal("zero limit must disable limiting")
		}
	}
}
