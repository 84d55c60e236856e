package models

import (
	"errors"
	"time"
)

// ErrValidation marks malformed input rejected before persistence.
// Distinct from storage failures so callers can tell a bad request
// from a retryable I/O error.
var ErrValidation = errors.New("validation failed")

// ScanRecord is one persisted analysis result
type ScanRecord struct {
	ID        string          `json:"id"`
	Category  Category        `json:"category"`
	RawText   string          `json:"raw_text"`
	Result    *AnalysisResult `json:"result"`
	Synced    bool            `json:"synced"`
	CreatedAt time.Time       `json:"created_at"`
}

// Validate rejects records that must not reach the store
func (r *ScanRecord) Validate() error {
	if r.ID == "" {
		return errors.Join(ErrValidation, errors.New("scan record requires an id"))
	}
	if !r.Category.Valid() {
		return errors.Join(ErrValidation, errors.New("unknown category"))
	}
	if r.Result != nil && (r.Result.Score.Score < 0 || r.Result.Score.Score > 100) {
		return errors.Join(ErrValidation, errors.New("score out of range"))
	}
	return nil
}

// AnalysisResult is the full pipeline output returned to callers and persisted
// as the scan payload
type AnalysisResult struct {
	Ingredients []Ingredient `json:"ingredients"`
	Score       ScoreResult  `json:"score"`
	Degraded    bool         `json:"degraded"` // any enrichment branch fell back
}

// Sync item types
const (
	SyncTypeScan = "scan"
)

// SyncQueueItem is one deferred write made while offline, replayed in
// insertion order once connectivity resumes
type SyncQueueItem struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Payload   []byte    `json:"payload"`
	Retries   int       `json:"retries"`
	CreatedAt time.Time `json:"created_at"`
}

// UserProfile holds user-declared allergies, sensitivities and preferences
type UserProfile struct {
	Allergies     []string          `json:"allergies,omitempty"`
	Sensitivities []string          `json:"sensitivities,omitempty"`
	Preferences   map[string]string `json:"preferences,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
