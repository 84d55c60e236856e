package services

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"labelsense/internal/database"
	"labelsense/internal/knowledge"
	"labelsense/internal/logging"
	"labelsense/internal/models"
	"labelsense/internal/orchestrator"
	"labelsense/internal/parser"
	"labelsense/internal/scoring"
)

// enrichmentWorkers bounds concurrent per-ingredient enrichment
const enrichmentWorkers = 4

// AnalysisService runs the full pipeline: parse the raw label text, enrich
// each ingredient through the source orchestrator, analyze additives against
// the knowledge base, score the list and persist the result.
type AnalysisService struct {
	parser       *parser.Parser
	orchestrator *orchestrator.Orchestrator
	engine       *scoring.Engine
	base         *knowledge.Base
	store        *database.Store
	connectivity *ConnectivityService
	sync         *SyncService
	metrics      *Metrics
}

// NewAnalysisService wires the pipeline stages together
func NewAnalysisService(
	p *parser.Parser,
	o *orchestrator.Orchestrator,
	engine *scoring.Engine,
	base *knowledge.Base,
	store *database.Store,
	connectivity *ConnectivityService,
	syncService *SyncService,
	metrics *Metrics,
) *AnalysisService {
	return &AnalysisService{
		parser:       p,
		orchestrator: o,
		engine:       engine,
		base:         base,
		store:        store,
		connectivity: connectivity,
		sync:         syncService,
		metrics:      metrics,
	}
}

// Analyze runs one label through the pipeline and persists the scan.
// Offline operation degrades, it never fails: enrichment falls back to
// local knowledge and the scan is queued for sync once connectivity
// resumes.
func (s *AnalysisService) Analyze(ctx context.Context, rawText string, category models.Category) (*models.ScanRecord, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, errors.Join(models.ErrValidation, errors.New("label text is required"))
	}
	if !category.Valid() {
		return nil, errors.Join(models.ErrValidation, errors.New("unknown category"))
	}

	started := time.Now()
	if s.metrics != nil {
		s.metrics.AnalyzeRequests.WithLabelValues(string(category)).Inc()
	}

	ingredients := s.parser.Parse(rawText, category)
	if s.metrics != nil {
		s.metrics.IngredientsParsed.Observe(float64(len(ingredients)))
	}

	degraded := s.enrich(ctx, ingredients, category)

	profile, err := s.store.GetProfile(ctx)
	if err != nil {
		return nil, err
	}

	additives := s.base.AnalyzeList(ingredients)
	score := s.engine.Score(ingredients, category, profile, additives)

	record := &models.ScanRecord{
		ID:       uuid.New().String(),
		Category: category,
		RawText:  rawText,
		Synced:   s.connectivity.Online(),
		Result: &models.AnalysisResult{
			Ingredients: ingredients,
			Score:       *score,
			Degraded:    degraded,
		},
	}

	if err := s.store.PutScan(ctx, record); err != nil {
		return nil, err
	}
	if !record.Synced {
		// Offline write: mirror the payload into the sync queue so replay can
		// deliver it once connectivity resumes.
		if err := s.sync.QueueScan(ctx, record); err != nil {
			// The scan itself is safe locally; a queue failure only delays sync.
			log.Printf("⚠️ [ANALYSIS] Failed to queue scan %s for sync: %v", record.ID, err)
		}
	}

	if s.metrics != nil {
		s.metrics.AnalyzeLatency.Observe(time.Since(started).Seconds())
		if degraded {
			s.metrics.AnalyzeDegraded.Inc()
		}
	}

	logging.WithScan(record.ID, string(category)).Info("analysis complete",
		"ingredients", len(ingredients),
		"score", score.Score,
		"level", string(score.Level),
		"degraded", degraded,
		"duration", time.Since(started).String(),
	)
	return record, nil
}

// enrich resolves intelligence for every ingredient through a bounded worker
// pool and reports whether any branch was fallback-sourced. Source-confirmed
// safety scores override the local knowledge base figure.
func (s *AnalysisService) enrich(ctx context.Context, ingredients []models.Ingredient, category models.Category) bool {
	if len(ingredients) == 0 {
		return false
	}

	indexes := make(chan int)
	degraded := make([]bool, len(ingredients))

	var wg sync.WaitGroup
	workers := enrichmentWorkers
	if workers > len(ingredients) {
		workers = len(ingredients)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				intel := s.orchestrator.IngredientIntelligence(ctx, ingredients[i].Name, category)
				applyIntelligence(&ingredients[i], intel)
				degraded[i] = intel.Degraded
			}
		}()
	}
	for i := range ingredients {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	for _, d := range degraded {
		if d {
			return true
		}
	}
	return false
}

// applyIntelligence folds source-confirmed safety data back into the
// ingredient. Fallback-sourced data never overrides the knowledge base.
func applyIntelligence(ing *models.Ingredient, intel *models.IngredientIntelligence) {
	safety := intel.SafetyData
	if safety == nil || safety.Source == "" {
		return
	}
	raw, ok := safety.Fields["safety_score"]
	if !ok {
		return
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil || score < 0 || score > 100 {
		return
	}
	ing.SafetyScore = score
	ing.HazardLevel = models.HazardLevelFromScore(score)
}

// History pages through stored scans, newest first
func (s *AnalysisService) History(ctx context.Context, category models.Category, limit, offset int) ([]models.ScanRecord, error) {
	if category != "" && !category.Valid() {
		return nil, errors.Join(models.ErrValidation, errors.New("unknown category"))
	}
	return s.store.QueryScans(ctx, category, limit, offset)
}

// Get loads one stored scan
func (s *AnalysisService) Get(ctx context.Context, id string) (*models.ScanRecord, error) {
	return s.store.GetScan(ctx, id)
}

// Delete removes one stored scan
func (s *AnalysisService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteScan(ctx, id)
}
