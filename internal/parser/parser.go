package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"labelsense/internal/knowledge"
	"labelsense/internal/models"
)

// Parser turns raw recognized label text into an ordered, deduplicated
// ingredient list. Parse never fails: garbled input yields an empty list.
type Parser struct {
	base *knowledge.Base
}

// New creates a parser backed by the given knowledge base
func New(base *knowledge.Base) *Parser {
	return &Parser{base: base}
}

// Separators tried in fixed priority order. Each separator is applied to all
// current fragments before the next is tried, so segmentation does not depend
// on which separator appears first in the text.
var separators = []string{",", ";", ":", "、", "，", "；", "\n", "."}

var ingredientMarkers = []string{"ingredients:", "ingredients", "ingrédients", "composition:"}

var allergenMarkers = []string{"allergen", "may contain", "contains traces", "produced in a facility"}

var nutritionVocabulary = []string{
	"calories", "nutrition facts", "serving size", "per serving", "daily value",
	"per 100g", "per 100 g", "energy", "kcal", "carbohydrate", "cholesterol",
}

var storageVocabulary = []string{
	"store in", "keep refrigerated", "keep frozen", "best before", "use by",
	"refrigerate after", "keep away from",
}

var baseIngredientTokens = []string{
	"water", "aqua", "sugar", "salt", "oil", "acid", "flour", "milk", "syrup",
	"starch", "extract", "glycerin", "alcohol", "fragrance", "sodium",
}

var stopwords = map[string]bool{
	"and": true, "the": true, "with": true, "from": true, "less": true,
	"may": true, "contains": true, "ingredients": true, "organic": true,
	"following": true, "than": true,
}

var (
	parentheticalRe = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]|\{[^}]*\}`)
	// Quantity tokens only: a bare number can be part of a name ("red 40"),
	// so a unit or percent sign is required.
	numericTokenRe = regexp.MustCompile(`\d+(\.\d+)?\s*(%|(mg|g|kg|ml|l|oz|ppm)\b)`)
)

// Parse extracts ingredients from raw label text
func (p *Parser) Parse(rawText string, category models.Category) []models.Ingredient {
	cleaned := stripControl(rawText)
	if strings.TrimSpace(cleaned) == "" {
		return nil
	}

	section := locateSection(cleaned)
	if section == "" {
		return nil
	}

	fragments := splitFragments(section)

	var ingredients []models.Ingredient
	seen := make(map[string]bool)
	for _, fragment := range fragments {
		name := cleanFragment(fragment)
		if len(name) < 3 || stopwords[strings.ToLower(name)] {
			continue
		}

		normalized := knowledge.Normalize(name)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true

		ingredients = append(ingredients, p.buildIngredient(name, normalized, fragment, category))
	}

	return ingredients
}

// buildIngredient resolves the cleaned name against the knowledge base,
// trying generated variants until one matches
func (p *Parser) buildIngredient(name, normalized, raw string, category models.Category) models.Ingredient {
	ingredient := models.Ingredient{
		ID:             uuid.New().String(),
		Name:           name,
		NormalizedName: normalized,
		Category:       category,
		SafetyScore:    models.NeutralSafetyScore,
		RawText:        strings.TrimSpace(raw),
	}

	for _, candidate := range nameVariants(normalized) {
		if entry := p.base.Lookup(candidate); entry != nil {
			ingredient.IsKnown = true
			ingredient.SafetyScore = entry.SafetyScore
			ingredient.Synonyms = entry.Aliases
			ingredient.Knowledge = entry
			break
		}
	}

	ingredient.HazardLevel = models.HazardLevelFromScore(ingredient.SafetyScore)
	return ingredient
}

var variantPrefixes = []string{"organic ", "natural ", "pure ", "modified ", "enriched "}

var variantSuffixes = []string{" powder", " extract", " concentrate", " solids"}

// nameVariants generates lookup candidates: the name itself, singular/plural
// forms, and common prefix/suffix trims
func nameVariants(normalized string) []string {
	variants := []string{normalized}

	if strings.HasSuffix(normalized, "es") {
		variants = append(variants, strings.TrimSuffix(normalized, "es"))
	}
	if strings.HasSuffix(normalized, "s") {
		variants = append(variants, strings.TrimSuffix(normalized, "s"))
	} else {
		variants = append(variants, normalized+"s")
	}

	for _, prefix := range variantPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			variants = append(variants, strings.TrimPrefix(normalized, prefix))
		}
	}
	for _, suffix := range variantSuffixes {
		if strings.HasSuffix(normalized, suffix) {
			variants = append(variants, strings.TrimSuffix(normalized, suffix))
		}
	}

	return variants
}

// locateSection finds the ingredient portion of the text: the span after an
// explicit ingredients marker up to any allergen disclosure, falling back to
// line-level heuristics when no marker is present
func locateSection(text string) string {
	lower := strings.ToLower(text)

	for _, marker := range ingredientMarkers {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		section := text[idx+len(marker):]
		sectionLower := lower[idx+len(marker):]
		for _, stop := range allergenMarkers {
			if stopIdx := strings.Index(sectionLower, stop); stopIdx >= 0 {
				section = section[:stopIdx]
				break
			}
		}
		return section
	}

	// No marker: keep lines that look like ingredient enumerations and drop
	// nutrition-facts or storage-instruction lines.
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lowerLine := strings.ToLower(trimmed)
		if containsAny(lowerLine, nutritionVocabulary) || containsAny(lowerLine, storageVocabulary) {
			continue
		}
		if strings.ContainsAny(trimmed, ",;、，；") || containsAny(lowerLine, baseIngredientTokens) {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}

// splitFragments applies each separator in priority order across all
// current fragments
func splitFragments(section string) []string {
	fragments := []string{section}
	for _, sep := range separators {
		var next []string
		for _, fragment := range fragments {
			next = append(next, strings.Split(fragment, sep)...)
		}
		fragments = next
	}
	return fragments
}

// cleanFragment strips parenthetical content, numeric and percentage tokens,
// and surrounding punctuation from one fragment
func cleanFragment(fragment string) string {
	cleaned := parentheticalRe.ReplaceAllString(fragment, " ")
	cleaned = numericTokenRe.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimFunc(cleaned, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	return strings.Join(strings.Fields(cleaned), " ")
}

// stripControl removes control characters and normalizes whitespace noise
// while preserving newlines for line heuristics
func stripControl(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case unicode.IsControl(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
