package knowledge

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"labelsense/internal/models"
)

//go:embed additives.json
var bundledTable []byte

type tableFile struct {
	Version string                  `json:"version"`
	Entries []models.KnowledgeEntry `json:"entries"`
}

// Base is the immutable regulated-substance knowledge base. It is built once
// at process start from the bundled table; all operations are pure reads.
type Base struct {
	version string
	entries []models.KnowledgeEntry
	index   map[string]int // normalized id/name/alias -> entry position
}

// New builds the knowledge base from the bundled table
func New() (*Base, error) {
	return NewFromJSON(bundledTable)
}

// NewFromJSON builds a knowledge base from raw table JSON
func NewFromJSON(data []byte) (*Base, error) {
	var file tableFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge table: %w", err)
	}

	base := &Base{
		version: file.Version,
		entries: file.Entries,
		index:   make(map[string]int),
	}

	for i, entry := range base.entries {
		keys := append([]string{entry.ID, entry.Name}, entry.Aliases...)
		for _, key := range keys {
			normalized := Normalize(key)
			if normalized == "" {
				continue
			}
			if existing, ok := base.index[normalized]; ok && existing != i {
				return nil, fmt.Errorf("alias %q maps to both %s and %s",
					key, base.entries[existing].ID, entry.ID)
			}
			base.index[normalized] = i
		}
	}

	return base, nil
}

// Normalize lowercases an identifier and collapses interior whitespace so
// lookups are case- and spacing-insensitive
func Normalize(identifier string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(identifier))), " ")
}

// Version returns the bundled table version
func (b *Base) Version() string {
	return b.version
}

// Len returns the number of entries in the table
func (b *Base) Len() int {
	return len(b.entries)
}

// Lookup resolves a canonical id, name or alias to its entry.
// Returns nil when the identifier is unknown.
func (b *Base) Lookup(identifier string) *models.KnowledgeEntry {
	if i, ok := b.index[Normalize(identifier)]; ok {
		return &b.entries[i]
	}
	return nil
}

// All returns every entry in table order
func (b *Base) All() []models.KnowledgeEntry {
	entries := make([]models.KnowledgeEntry, len(b.entries))
	copy(entries, b.entries)
	return entries
}

// ByCategory returns all entries of one additive category
func (b *Base) ByCategory(category string) []models.KnowledgeEntry {
	normalized := Normalize(category)
	var matches []models.KnowledgeEntry
	for _, entry := range b.entries {
		if Normalize(entry.Category) == normalized {
			matches = append(matches, entry)
		}
	}
	return matches
}

// Controversial returns all entries carrying at least one controversy
func (b *Base) Controversial() []models.KnowledgeEntry {
	var matches []models.KnowledgeEntry
	for _, entry := range b.entries {
		if len(entry.Controversies) > 0 {
			matches = append(matches, entry)
		}
	}
	return matches
}

// RegulatoryDifferences returns entries where jurisdictions disagree on
// approval or restriction status
func (b *Base) RegulatoryDifferences() []models.KnowledgeEntry {
	var matches []models.KnowledgeEntry
	for i := range b.entries {
		if b.entries[i].HasRegulatoryDifference() {
			matches = append(matches, b.entries[i])
		}
	}
	return matches
}
