package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"labelsense/internal/database"
	"labelsense/internal/models"
)

// SyncTarget delivers one queued item to the remote side
type SyncTarget interface {
	Deliver(ctx context.Context, item *models.SyncQueueItem) error
}

// HTTPSyncTarget posts queue items to a remote sync endpoint
type HTTPSyncTarget struct {
	endpoint string
	client   *http.Client
}

// NewHTTPSyncTarget creates a sync target for the given endpoint URL
func NewHTTPSyncTarget(endpoint string) *HTTPSyncTarget {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.HTTPClient.Timeout = 10 * time.Second
	retryClient.Logger = nil

	return &HTTPSyncTarget{
		endpoint: endpoint,
		client:   retryClient.StandardClient(),
	}
}

// Deliver posts one item; any non-2xx response is a failure
func (t *HTTPSyncTarget) Deliver(ctx context.Context, item *models.SyncQueueItem) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode sync item: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sync delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sync endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// ReplayReport summarizes one replay pass over the sync queue
type ReplayReport struct {
	Attempted int `json:"attempted"`
	Delivered int `json:"delivered"`
	Dropped   int `json:"dropped"`
	Remaining int `json:"remaining"`
}

// SyncService queues writes made while offline and replays them in insertion
// order once connectivity resumes. A nil target means no remote is
// configured; items are then considered delivered as soon as a replay runs.
type SyncService struct {
	store        *database.Store
	connectivity *ConnectivityService
	target       SyncTarget
	metrics      *Metrics

	mu sync.Mutex // serializes replay passes
}

// NewSyncService creates the sync service. Target may be nil when no remote
// endpoint is configured.
func NewSyncService(store *database.Store, connectivity *ConnectivityService, target SyncTarget, metrics *Metrics) *SyncService {
	return &SyncService{
		store:        store,
		connectivity: connectivity,
		target:       target,
		metrics:      metrics,
	}
}

// QueueScan defers one scan record for later delivery
func (s *SyncService) QueueScan(ctx context.Context, record *models.ScanRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode scan for sync: %w", err)
	}

	item := &models.SyncQueueItem{
		ID:      uuid.New().String(),
		Type:    models.SyncTypeScan,
		Payload: payload,
	}
	if err := s.store.EnqueueSync(ctx, item); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.SyncDeferred.Inc()
	}
	return nil
}

// Pending reports the number of queued items
func (s *SyncService) Pending(ctx context.Context) (int, error) {
	items, err := s.store.PendingSync(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Replay drains the sync queue in insertion order. The pass stops at the
// first failed delivery so later items never overtake earlier ones; the
// failed item's retry count is bumped and, past the cap, the item is
// dropped so one poison record cannot wedge the queue forever.
func (s *SyncService) Replay(ctx context.Context) (*ReplayReport, error) {
	if !s.connectivity.Online() {
		return &ReplayReport{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.PendingSync(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return &ReplayReport{}, nil
	}

	report := &ReplayReport{Remaining: len(items)}
	for i := range items {
		item := &items[i]
		report.Attempted++

		if err := s.deliver(ctx, item); err != nil {
			log.Printf("⚠️ [SYNC] Delivery of item %s failed: %v", item.ID, err)

			dropped, bumpErr := s.store.BumpSyncRetry(ctx, item.ID)
			if bumpErr != nil {
				return report, bumpErr
			}
			if dropped {
				log.Printf("🗑️ [SYNC] Dropped item %s after exhausting retries", item.ID)
				report.Dropped++
				report.Remaining--
				if s.metrics != nil {
					s.metrics.SyncDropped.Inc()
				}
				continue
			}
			break
		}

		if err := s.finalize(ctx, item); err != nil {
			return report, err
		}
		report.Delivered++
		report.Remaining--
		if s.metrics != nil {
			s.metrics.SyncDelivered.Inc()
		}
	}

	if report.Delivered > 0 || report.Dropped > 0 {
		log.Printf("🔄 [SYNC] Replay: %d delivered, %d dropped, %d remaining",
			report.Delivered, report.Dropped, report.Remaining)
	}
	return report, nil
}

func (s *SyncService) deliver(ctx context.Context, item *models.SyncQueueItem) error {
	if s.target == nil {
		return nil
	}
	return s.target.Deliver(ctx, item)
}

// finalize removes a delivered item and updates dependent records
func (s *SyncService) finalize(ctx context.Context, item *models.SyncQueueItem) error {
	if err := s.store.RemoveSync(ctx, item.ID); err != nil {
		return err
	}

	if item.Type == models.SyncTypeScan {
		var record models.ScanRecord
		if err := json.Unmarshal(item.Payload, &record); err != nil {
			log.Printf("⚠️ [SYNC] Corrupt scan payload in item %s: %v", item.ID, err)
			return nil
		}
		if err := s.store.MarkScanSynced(ctx, record.ID); err != nil {
			return err
		}
	}
	return nil
}
