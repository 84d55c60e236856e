package scoring

import (
	"testing"

	"labelsense/internal/models"
)

func ingredient(name string, score float64) models.Ingredient {
	return models.Ingredient{
		Name:           name,
		NormalizedName: name,
		IsKnown:        true,
		SafetyScore:    score,
		HazardLevel:    models.HazardLevelFromScore(score),
	}
}

func TestScoreEmptyListIsNeutralUnknown(t *testing.T) {
	engine := New()
	result := engine.Score(nil, models.CategoryFood, nil, nil)

	if result.Score != 50 {
		t.Errorf("empty list score = %.1f, want 50", result.Score)
	}
	if result.Level != models.LevelUnknown {
		t.Errorf("empty list level = %s, want unknown", result.Level)
	}
}

func TestScoreSafeListScoresHigh(t *testing.T) {
	engine := New()
	ingredients := []models.Ingredient{
		ingredient("water", 95),
		ingredient("citric acid", 90),
	}

	result := engine.Score(ingredients, models.CategoryFood, nil, nil)
	if result.Score < 80 {
		t.Errorf("safe list score = %.1f, want >= 80", result.Score)
	}
	if result.Level != models.LevelExcellent {
		t.Errorf("level = %s, want excellent", result.Level)
	}
}

func TestDeclaredAllergenDominatesScore(t *testing.T) {
	engine := New()
	ingredients := []models.Ingredient{
		{
			Name:           "Peanut Oil",
			NormalizedName: "peanut oil",
			IsKnown:        true,
			SafetyScore:    90,
			HazardLevel:    models.HazardSafe,
		},
	}
	profile := &models.UserProfile{Allergies: []string{"peanut"}}

	result := engine.Score(ingredients, models.CategoryFood, profile, nil)

	if result.Score >= 10 {
		t.Errorf("allergen-bearing product scored %.1f, want < 10", result.Score)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected an allergen warning")
	}
	first := result.Warnings[0]
	if first.Type != models.WarningAllergen || first.Severity != models.SeverityHigh {
		t.Errorf("first warning = %s/%s, want allergen/high", first.Type, first.Severity)
	}
}

func TestAllergenMatchingIsBidirectionalAndCaseInsensitive(t *testing.T) {
	engine := New()
	ingredients := []models.Ingredient{
		{Name: "Milk", NormalizedName: "milk", SafetyScore: 90, HazardLevel: models.HazardSafe},
	}
	// Declared term is broader than the ingredient name
	profile := &models.UserProfile{Allergies: []string{"MILK PROTEIN"}}

	result := engine.Score(ingredients, models.CategoryFood, profile, nil)
	if result.Score >= 10 {
		t.Errorf("score = %.1f, want allergy floor applied", result.Score)
	}
}

func TestAllergenMatchesSynonyms(t *testing.T) {
	engine := New()
	ingredients := []models.Ingredient{
		{
			Name:           "E322",
			NormalizedName: "e322",
			SafetyScore:    85,
			HazardLevel:    models.HazardSafe,
			Synonyms:       []string{"soy lecithin", "soya lecithin"},
		},
	}
	profile := &models.UserProfile{Allergies: []string{"soy"}}

	result := engine.Score(ingredients, models.CategoryFood, profile, nil)
	if result.Score >= 10 {
		t.Errorf("score = %.1f, synonym match should trigger the allergy floor", result.Score)
	}
}

func TestSensitivityIsSofterThanAllergy(t *testing.T) {
	engine := New()
	build := func() []models.Ingredient {
		return []models.Ingredient{ingredient("msg", 60)}
	}

	baseline := engine.Score(build(), models.CategoryFood, nil, nil)
	sensitive := engine.Score(build(), models.CategoryFood,
		&models.UserProfile{Sensitivities: []string{"msg"}}, nil)
	allergic := engine.Score(build(), models.CategoryFood,
		&models.UserProfile{Allergies: []string{"msg"}}, nil)

	if !(allergic.Score < sensitive.Score && sensitive.Score < baseline.Score) {
		t.Errorf("want allergic(%.1f) < sensitive(%.1f) < baseline(%.1f)",
			allergic.Score, sensitive.Score, baseline.Score)
	}
}

func TestUnknownIngredientsArePenalized(t *testing.T) {
	engine := New()
	known := []models.Ingredient{ingredient("citric acid", 50)}
	unknown := []models.Ingredient{{
		Name:           "mysterium",
		NormalizedName: "mysterium",
		IsKnown:        false,
		SafetyScore:    50,
		HazardLevel:    models.HazardMedium,
	}}

	knownResult := engine.Score(known, models.CategoryFood, nil, nil)
	unknownResult := engine.Score(unknown, models.CategoryFood, nil, nil)

	if unknownResult.Score >= knownResult.Score {
		t.Errorf("unknown %.1f should score below known %.1f", unknownResult.Score, knownResult.Score)
	}
}

func TestCategoryConservatism(t *testing.T) {
	engine := New()
	build := func() []models.Ingredient {
		return []models.Ingredient{ingredient("glycerin", 80)}
	}

	food := engine.Score(build(), models.CategoryFood, nil, nil)
	household := engine.Score(build(), models.CategoryHousehold, nil, nil)

	if household.Score >= food.Score {
		t.Errorf("household (%.1f) should score below food (%.1f) for identical input",
			household.Score, food.Score)
	}
}

func TestBannedAdditivesPenalizeAndWarn(t *testing.T) {
	engine := New()
	ingredients := []models.Ingredient{ingredient("titanium dioxide", 20)}
	additives := &models.AdditiveAnalysis{
		TotalAdditives: 1,
		Banned:         []string{"Titanium Dioxide"},
	}

	with := engine.Score(ingredients, models.CategoryFood, nil, additives)
	without := engine.Score([]models.Ingredient{ingredient("titanium dioxide", 20)},
		models.CategoryFood, nil, nil)

	if with.Score >= without.Score {
		t.Errorf("banned additive should lower score: %.1f vs %.1f", with.Score, without.Score)
	}

	found := false
	for _, warning := range with.Warnings {
		if warning.Type == models.WarningBannedAdditive {
			found = true
		}
	}
	if !found {
		t.Error("expected a banned-additive warning")
	}
}

func TestWarningsRankedSeverityFirstAndCapped(t *testing.T) {
	engine := New()

	var ingredients []models.Ingredient
	for _, name := range []string{"dye one", "dye two", "dye three", "dye four", "dye five",
		"dye six", "dye seven", "dye eight", "dye nine"} {
		ing := ingredient(name, 25) // high hazard, medium-severity warning each
		ingredients = append(ingredients, ing)
	}
	// One declared allergen must outrank all hazard warnings
	ingredients = append(ingredients, ingredient("peanut flour", 90))
	profile := &models.UserProfile{Allergies: []string{"peanut"}}

	result := engine.Score(ingredients, models.CategoryFood, profile, nil)

	if len(result.Warnings) > 8 {
		t.Errorf("warning list length = %d, want capped at 8", len(result.Warnings))
	}
	if result.Warnings[0].Type != models.WarningAllergen {
		t.Errorf("first warning = %s, want allergen first", result.Warnings[0].Type)
	}
}

func TestScoreStaysInRange(t *testing.T) {
	engine := New()
	ingredients := []models.Ingredient{
		{Name: "bleach", NormalizedName: "bleach", SafetyScore: 5, HazardLevel: models.HazardDanger},
		{Name: "ammonia", NormalizedName: "ammonia", SafetyScore: 10, HazardLevel: models.HazardDanger},
	}
	additives := &models.AdditiveAnalysis{
		TotalAdditives:  12,
		ConcerningCount: 6,
		Banned:          []string{"x"},
		RegulatoryDiffs: []string{"y"},
	}
	profile := &models.UserProfile{Allergies: []string{"bleach"}, Sensitivities: []string{"ammonia"}}

	result := engine.Score(ingredients, models.CategoryHousehold, profile, additives)
	if result.Score < 0 || result.Score > 100 {
		t.Errorf("score %.1f outside [0,100]", result.Score)
	}
	if result.Level != models.LevelDanger {
		t.Errorf("level = %s, want danger", result.Level)
	}
}

func TestBreakdownListsLowestScoringIngredients(t *testing.T) {
	engine := New()
	ingredients := []models.Ingredient{
		ingredient("water", 95),
		ingredient("sugar", 70),
		ingredient("red dye", 25),
		ingredient("preservative", 35),
	}

	result := engine.Score(ingredients, models.CategoryFood, nil, nil)

	if len(result.Breakdown.TopConcerns) != 3 {
		t.Fatalf("top concerns = %d entries, want 3", len(result.Breakdown.TopConcerns))
	}
	if result.Breakdown.TopConcerns[0].Name != "red dye" {
		t.Errorf("lowest-scoring ingredient = %s, want red dye", result.Breakdown.TopConcerns[0].Name)
	}
	if result.Breakdown.TopConcerns[0].Concern != "high hazard" {
		t.Errorf("dominant concern = %s, want high hazard", result.Breakdown.TopConcerns[0].Concern)
	}

	total := 0
	for _, count := range result.Breakdown.TierCounts {
		total += count
	}
	if total != len(ingredients) {
		t.Errorf("tier histogram covers %d ingredients, want %d", total, len(ingredients))
	}
}
