package parser

import (
	"testing"

	"labelsense/internal/knowledge"
	"labelsense/internal/models"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	base, err := knowledge.New()
	if err != nil {
		t.Fatalf("failed to load knowledge base: %v", err)
	}
	return New(base)
}

func names(ingredients []models.Ingredient) []string {
	out := make([]string, len(ingredients))
	for i, ing := range ingredients {
		out[i] = ing.NormalizedName
	}
	return out
}

func TestParseTypicalLabel(t *testing.T) {
	p := newTestParser(t)

	ingredients := p.Parse("Ingredients: Water, Sugar, Red 40, Citric Acid", models.CategoryFood)

	want := []string{"water", "sugar", "red 40", "citric acid"}
	if len(ingredients) != len(want) {
		t.Fatalf("parsed %v, want %v", names(ingredients), want)
	}
	for i, name := range want {
		if ingredients[i].NormalizedName != name {
			t.Errorf("ingredient[%d] = %q, want %q", i, ingredients[i].NormalizedName, name)
		}
	}

	// Red 40 must resolve against the knowledge base through its alias
	red := ingredients[2]
	if !red.IsKnown {
		t.Fatal("red 40 should resolve against the knowledge base")
	}
	if red.Knowledge == nil || red.Knowledge.ID != "E129" {
		t.Errorf("red 40 resolved to %+v, want E129", red.Knowledge)
	}
	if red.SafetyScore != 35 {
		t.Errorf("red 40 safety score = %.0f, want 35", red.SafetyScore)
	}

	// Water is not in the additive table
	if ingredients[0].IsKnown {
		t.Error("water should not resolve against the additive table")
	}
	if ingredients[0].SafetyScore != models.NeutralSafetyScore {
		t.Errorf("unknown ingredient score = %.0f, want %.0f",
			ingredients[0].SafetyScore, models.NeutralSafetyScore)
	}
}

func TestParseEmptyAndGarbage(t *testing.T) {
	p := newTestParser(t)

	for _, input := range []string{"", "   ", "\x00\x01\x02", "\n\t\n"} {
		if got := p.Parse(input, models.CategoryFood); len(got) != 0 {
			t.Errorf("Parse(%q) = %v, want empty", input, names(got))
		}
	}
}

func TestParseDeduplicatesFirstSeen(t *testing.T) {
	p := newTestParser(t)

	ingredients := p.Parse("Ingredients: Sugar, Water, SUGAR, sugar, Water", models.CategoryFood)
	if len(ingredients) != 2 {
		t.Fatalf("parsed %v, want exactly sugar and water", names(ingredients))
	}
	if ingredients[0].NormalizedName != "sugar" || ingredients[1].NormalizedName != "water" {
		t.Errorf("order = %v, want first-seen order preserved", names(ingredients))
	}
}

func TestParseStripsParentheticalsAndQuantities(t *testing.T) {
	p := newTestParser(t)

	ingredients := p.Parse(
		"Ingredients: Sugar (from cane), Salt 2%, Citric Acid 500 mg, Xanthan Gum [stabilizer]",
		models.CategoryFood)

	want := []string{"sugar", "salt", "citric acid", "xanthan gum"}
	got := names(ingredients)
	if len(got) != len(want) {
		t.Fatalf("parsed %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ingredient[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseStopsAtAllergenDisclosure(t *testing.T) {
	p := newTestParser(t)

	ingredients := p.Parse(
		"Ingredients: Water, Sugar. May contain traces of peanuts and milk.",
		models.CategoryFood)

	for _, ing := range ingredients {
		if ing.NormalizedName == "peanuts" || ing.NormalizedName == "milk" {
			t.Errorf("allergen disclosure leaked into ingredients: %v", names(ingredients))
		}
	}
}

func TestParseWithoutMarkerUsesLineHeuristics(t *testing.T) {
	p := newTestParser(t)

	ingredients := p.Parse(
		"Nutrition Facts\nCalories 120 per serving\nWater, Sugar, Citric Acid\nStore in a cool dry place",
		models.CategoryFood)

	got := names(ingredients)
	want := []string{"water", "sugar", "citric acid"}
	if len(got) != len(want) {
		t.Fatalf("parsed %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ingredient[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseMultilingualSeparators(t *testing.T) {
	p := newTestParser(t)

	ingredients := p.Parse("Ingredients: Water、Sugar，Citric Acid；Salt", models.CategoryFood)
	if len(ingredients) != 4 {
		t.Fatalf("parsed %v, want 4 ingredients", names(ingredients))
	}
}

func TestNameVariantsResolveModifiedForms(t *testing.T) {
	p := newTestParser(t)

	ingredients := p.Parse("Ingredients: Organic Lecithin, Lecithins", models.CategoryFood)
	if len(ingredients) != 2 {
		t.Fatalf("parsed %v, want 2", names(ingredients))
	}
	for _, ing := range ingredients {
		if !ing.IsKnown {
			t.Errorf("%q should resolve to the lecithin entry via name variants", ing.Name)
		}
	}
}

func TestParseAssignsCategoryAndIDs(t *testing.T) {
	p := newTestParser(t)

	ingredients := p.Parse("Ingredients: Fragrance, Aqua", models.CategoryCosmetic)
	if len(ingredients) != 2 {
		t.Fatalf("parsed %v, want 2", names(ingredients))
	}
	seen := make(map[string]bool)
	for _, ing := range ingredients {
		if ing.Category != models.CategoryCosmetic {
			t.Errorf("%q category = %s, want cosmetic", ing.Name, ing.Category)
		}
		if ing.ID == "" || seen[ing.ID] {
			t.Errorf("%q has missing or duplicate id", ing.Name)
		}
		seen[ing.ID] = true
	}
}
