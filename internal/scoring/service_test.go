package scoring

import (
	"context"
	"testing"

	"github.com/surveyforge/surveyforge/internal/catalog"
)

func seedStore(t *testing.T) catalog.Store {
	t.Helper()
	store := catalog.NewInMemoryStore()
	ctx := context.Background()

	qs := []catalog.Question{
		{ID: "Q1", Params: catalog.Params{
			Mode: "qcu_cat",
			Options: []catalog.Option{
				{Label: "Red", Profile: "X", Value: fp(1)},
				{Label: "Blue", Profile: "Y", Value: fp(1)},
			},
		}},
		{ID: "Q2", Params: catalog.Params{Mode: "ECHELLE_NOTE", Profile: "X"}},
	}
	if err := store.PutQuestions(ctx, "Colors", "EN", qs); err != nil {
		t.Fatalf("seed questions: %v", err)
	}
	ps := []catalog.Profile{
		{Code: "X", Name: "Crimson", Description: "warm", Extra: map[string]string{"career_advice": "paint"}},
		{Code: "Y", Name: "Azure"},
	}
	if err := store.PutProfiles(ctx, "Colors", "EN", ps); err != nil {
		t.Fatalf("seed profiles: %v", err)
	}
	return store
}

func TestComputeHappyPath(t *testing.T) {
	svc := NewService(seedStore(t), nil)
	res, err := svc.Compute(context.Background(), map[string]string{
		"Q1: color": "Red",
		"Q2: size":  "3",
	}, "Colors", "EN", "EN")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if res.Profile != "X" {
		t.Fatalf("final profile %q, want X", res.Profile)
	}
	if res.Scores["X"] != 4 {
		t.Fatalf("X score %v, want 4", res.Scores["X"])
	}
	if res.Fields["profile_name"] != "Crimson" {
		t.Fatalf("profile metadata not merged: %v", res.Fields)
	}
	if res.Fields["career_advice"] != "paint" {
		t.Fatalf("extra display columns not merged: %v", res.Fields)
	}
	if res.Fields["score_X"] != "4" {
		t.Fatalf("score fields not flattened: %v", res.Fields)
	}
	if res.CodeToName["Y"] != "Azure" {
		t.Fatalf("code-to-name map missing: %v", res.CodeToName)
	}
}

func TestComputeMissingCatalogIsNotAnError(t *testing.T) {
	svc := NewService(catalog.NewInMemoryStore(), nil)
	res, err := svc.Compute(context.Background(), map[string]string{"Q1: a": "b"}, "Nope", "EN", "EN")
	if err != nil {
		t.Fatalf("missing catalog must not error: %v", err)
	}
	if res.Profile != Undetermined || len(res.Scores) != 0 {
		t.Fatalf("missing catalog must yield an empty result, got %+v", res)
	}
}

func TestComputeNormalizesLanguages(t *testing.T) {
	svc := NewService(seedStore(t), nil)
	res, err := svc.Compute(context.Background(), map[string]string{"Q1: color": "Red"}, "Colors", "english", "English")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if res.Profile != "X" {
		t.Fatalf("language normalization failed, profile %q", res.Profile)
	}
}

func TestComputeEnvironmentScanPath(t *testing.T) {
	svc := NewService(catalog.NewInMemoryStore(), nil)
	res, err := svc.Compute(context.Background(), envAnswers("8"), "r&K_Environnement", "FR", "FR")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if res.Scores["K"] != 8 || res.Scores["r"] != 8 {
		t.Fatalf("scan scores %v, want K:8 r:8", res.Scores)
	}
	if res.Profile == "" {
		t.Fatalf("scan path must set a quadrant title as final profile")
	}
	if res.Fields["profile_final"] != res.Profile {
		t.Fatalf("flattened profile_final mismatch")
	}
}

func TestResultPrecedenceOnCollision(t *testing.T) {
	profiles := map[string]catalog.Profile{
		"X": {Code: "X", Name: "Crimson", Extra: map[string]string{"profile_final": "stale", "motto": "be bold"}},
	}
	res := AssembleResult(ScoreMap{"X": 2}, Resolution{Profile: "X"}, profiles)
	if res.Fields["profile_final"] != "X" {
		t.Fatalf("resolver fields must win on collision, got %q", res.Fields["profile_final"])
	}
	if res.Fields["motto"] != "be bold" {
		t.Fatalf("non-colliding metadata must survive")
	}
}

func TestScoreLinesSortedDescending(t *testing.T) {
	res := AssembleResult(ScoreMap{"A": 1, "B": 5, "C": 3}, Resolution{Profile: "B"},
		map[string]catalog.Profile{"B": {Code: "B", Name: "Best"}})
	lines := res.ScoreLines()
	if len(lines) != 3 || lines[0].Code != "B" || lines[1].Code != "C" || lines[2].Code != "A" {
		t.Fatalf("score lines out of order: %+v", lines)
	}
	if lines[0].Name != "Best" {
		t.Fatalf("display name not applied: %+v", lines[0])
	}
}
