package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"log/slog"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"labelsense/internal/config"
	"labelsense/internal/knowledge"
	"labelsense/internal/logging"
	"labelsense/internal/models"
)

// Sources answering below this confidence are treated as misses and the
// chain moves on
const confidenceFloor = 0.2

// PersistentCache mirrors resolved results into durable storage so cached
// intelligence survives process restarts. Implemented by database.Store.
type PersistentCache interface {
	PutCached(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	GetCached(ctx context.Context, key string) ([]byte, error)
}

// Orchestrator fans enrichment requests out to prioritized capability
// sources with per-source timeout, sliding-window rate limiting, TTL
// caching and degrade-to-local-fallback on exhaustion.
//
// Resolve never returns an error: every failure mode ends in a locally
// synthesized result.
type Orchestrator struct {
	sources    map[models.Capability][]Source
	cache      *gocache.Cache
	persistent PersistentCache
	limiter    *SlidingWindowLimiter
	global     *rate.Limiter
	fallback   *Fallback
	ttl        time.Duration
}

// New builds an orchestrator from the declared source registry
func New(registry *config.SourceRegistry, base *knowledge.Base, cfg *config.Config) *Orchestrator {
	sources := make([]Source, 0, len(registry.Sources))
	for _, sourceCfg := range registry.Sources {
		sources = append(sources, NewHTTPSource(sourceCfg))
	}
	return NewWithSources(sources, base, cfg)
}

// UsePersistentCache layers durable storage under the in-memory cache.
// Misses fall through to it and every resolved result is written through,
// so intelligence resolved before a restart still serves offline.
func (o *Orchestrator) UsePersistentCache(cache PersistentCache) {
	o.persistent = cache
}

// NewWithSources builds an orchestrator over explicit source adapters
func NewWithSources(sources []Source, base *knowledge.Base, cfg *config.Config) *Orchestrator {
	byCapability := make(map[models.Capability][]Source)
	capabilities := []models.Capability{
		models.CapabilityBasicInfo,
		models.CapabilitySafetyData,
		models.CapabilityExpertAnalysis,
		models.CapabilityRecentResearch,
		models.CapabilityAlternatives,
	}
	for _, capability := range capabilities {
		for _, source := range sources {
			if source.Supports(capability) {
				byCapability[capability] = append(byCapability[capability], source)
			}
		}
		sort.SliceStable(byCapability[capability], func(i, j int) bool {
			return byCapability[capability][i].Priority() < byCapability[capability][j].Priority()
		})
	}

	ttl := cfg.IntelligenceTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Orchestrator{
		sources:  byCapability,
		cache:    gocache.New(ttl, 10*time.Minute),
		limiter:  NewSlidingWindowLimiter(),
		global:   rate.NewLimiter(rate.Limit(cfg.GlobalSourceRate), cfg.GlobalSourceBurst),
		fallback: NewFallback(base),
		ttl:      ttl,
	}
}

// Resolve answers one capability request. The caller's context gates only
// result consumption: source calls run under their own timeouts so an
// in-flight call may still finish and populate the cache after the caller
// walks away.
func (o *Orchestrator) Resolve(ctx context.Context, capability models.Capability, query string, opts map[string]string) *models.EnrichedResult {
	key := cacheKey(capability, query, opts)

	if cached, found := o.cache.Get(key); found {
		cacheHits.Inc()
		return fromCache(cached.(*models.EnrichedResult))
	}
	cacheMisses.Inc()

	if restored := o.restoreCached(ctx, key); restored != nil {
		return fromCache(restored)
	}

	for _, source := range o.sources[capability] {
		if limit := source.RateLimit(); limit != nil {
			if !o.limiter.Allow(source.Name(), limit.MaxPerWindow, limit.Window()) {
				rateLimitSkips.WithLabelValues(source.Name()).Inc()
				continue
			}
		}

		result := o.trySource(source, capability, query, opts)
		if result == nil {
			continue
		}

		o.cache.Set(key, result, o.ttl)
		o.persistCached(ctx, key, result)
		return copyResult(result)
	}

	// All sources exhausted: synthesize locally. The fallback populates the
	// cache under the same TTL policy as a real answer.
	fallbackResults.WithLabelValues(string(capability)).Inc()
	result := o.fallback.Generate(capability, query, opts)
	o.cache.Set(key, result, o.ttl)
	o.persistCached(ctx, key, result)
	return copyResult(result)
}

// restoreCached promotes a durable cache entry back into memory. Corrupt or
// missing entries are treated as misses.
func (o *Orchestrator) restoreCached(ctx context.Context, key string) *models.EnrichedResult {
	if o.persistent == nil {
		return nil
	}
	payload, err := o.persistent.GetCached(ctx, key)
	if err != nil {
		return nil
	}
	var result models.EnrichedResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil
	}
	o.cache.Set(key, &result, o.ttl)
	return &result
}

// persistCached writes a resolved result through to durable storage. The
// write runs under its own context so a cancelled caller still leaves the
// entry behind for future callers. Best effort: a failure costs a
// re-resolve after restart, nothing more.
func (o *Orchestrator) persistCached(_ context.Context, key string, result *models.EnrichedResult) {
	if o.persistent == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.persistent.PutCached(writeCtx, key, payload, o.ttl); err != nil {
		log.Printf("[ORCHESTRATOR] failed to persist cached result %s: %v", key, err)
	}
}

// trySource runs one source under its own timeout. A slow or failing source
// never blocks consideration of the next one beyond its own deadline.
func (o *Orchestrator) trySource(source Source, capability models.Capability, query string, opts map[string]string) *models.EnrichedResult {
	sourceAttempts.WithLabelValues(source.Name()).Inc()

	callCtx, cancel := context.WithTimeout(context.Background(), source.Timeout())
	defer cancel()

	if err := o.global.Wait(callCtx); err != nil {
		sourceFailures.WithLabelValues(source.Name()).Inc()
		return nil
	}

	answer, err := source.Fetch(callCtx, capability, query, opts)
	if err != nil {
		sourceFailures.WithLabelValues(source.Name()).Inc()
		logging.WithSource(slog.Default(), source.Name(), string(capability)).
			Warn("source failed", "error", err)
		return nil
	}
	if answer.Confidence < confidenceFloor {
		log.Printf("[ORCHESTRATOR] source %s answered %s below confidence floor (%.2f)",
			source.Name(), capability, answer.Confidence)
		return nil
	}

	return &models.EnrichedResult{
		Resolved:   models.ResolutionSource,
		Source:     source.Name(),
		Confidence: answer.Confidence,
		Fields:     answer.Fields,
	}
}

// cacheKey is (capability, query, optionsHash)
func cacheKey(capability models.Capability, query string, opts map[string]string) string {
	return fmt.Sprintf("%s|%s|%d", capability, knowledge.Normalize(query), optionsHash(opts))
}

func optionsHash(opts map[string]string) uint32 {
	if len(opts) == 0 {
		return 0
	}
	keys := make([]string, 0, len(opts))
	for key := range opts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	hasher := fnv.New32a()
	for _, key := range keys {
		hasher.Write([]byte(key))
		hasher.Write([]byte{0})
		hasher.Write([]byte(opts[key]))
		hasher.Write([]byte{0})
	}
	return hasher.Sum32()
}

// fromCache returns a copy marked as cache-served, preserving the original
// source attribution and confidence
func fromCache(cached *models.EnrichedResult) *models.EnrichedResult {
	result := copyResult(cached)
	result.Resolved = models.ResolutionCache
	return result
}

// copyResult shields the cached entry from caller mutation
func copyResult(result *models.EnrichedResult) *models.EnrichedResult {
	fields := make(map[string]string, len(result.Fields))
	for key, value := range result.Fields {
		fields[key] = value
	}
	return &models.EnrichedResult{
		Resolved:   result.Resolved,
		Source:     result.Source,
		Confidence: result.Confidence,
		Fields:     fields,
	}
}
