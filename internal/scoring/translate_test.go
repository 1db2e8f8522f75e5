package scoring

import (
	"testing"

	"github.com/surveyforge/surveyforge/internal/catalog"
)

func bilingualCatalogs() (origin, target map[string]catalog.Question) {
	origin = map[string]catalog.Question{
		"Q1": {
			ID:   "Q1",
			Mode: catalog.ModeSingle,
			Params: catalog.Params{
				Mode: catalog.ModeSingle,
				Options: []catalog.Option{
					{Label: "Rouge", Profile: "X", Value: fp(1)},
					{Label: "Bleu", Profile: "Y", Value: fp(1)},
				},
			},
		},
		"Q2": {
			ID:     "Q2",
			Mode:   catalog.ModeScale,
			Params: catalog.Params{Mode: catalog.ModeScale, Profile: "X"},
		},
	}
	target = map[string]catalog.Question{
		"Q1": {
			ID:   "Q1",
			Mode: catalog.ModeSingle,
			Params: catalog.Params{
				Mode: catalog.ModeSingle,
				Options: []catalog.Option{
					{Label: "Red", Profile: "X", Value: fp(2)},
					{Label: "Blue", Profile: "Y", Value: fp(2)},
				},
			},
		},
		"Q2": {
			ID:     "Q2",
			Mode:   catalog.ModeScale,
			Params: catalog.Params{Mode: catalog.ModeScale, Profile: "X"},
		},
	}
	return origin, target
}

func TestScoreTranslatedByPosition(t *testing.T) {
	origin, target := bilingualCatalogs()
	e := NewEngine(nil)

	scores := e.ScoreTranslated(map[string]string{"Q1: couleur": "Bleu"}, origin, target)
	// "Bleu" is origin option 2, mapped onto target "Blue" and scored with
	// the TARGET catalog's weight.
	if scores["Y"] != 2 {
		t.Fatalf("Y = %v, want 2 (target option weight)", scores["Y"])
	}
}

func TestScoreTranslatedNumericBypassesOptions(t *testing.T) {
	origin, target := bilingualCatalogs()
	e := NewEngine(nil)

	scores := e.ScoreTranslated(map[string]string{"Q2: taille": "4"}, origin, target)
	if scores["X"] != 4 {
		t.Fatalf("X = %v, want 4 (scale answers score directly)", scores["X"])
	}
}

func TestScoreTranslatedMultiSelect(t *testing.T) {
	origin, target := bilingualCatalogs()
	for id, q := range origin {
		if id == "Q1" {
			q.Mode = catalog.ModeMulti
			q.Params.Mode = catalog.ModeMulti
			origin[id] = q
		}
	}
	for id, q := range target {
		if id == "Q1" {
			q.Mode = catalog.ModeMulti
			q.Params.Mode = catalog.ModeMulti
			target[id] = q
		}
	}
	e := NewEngine(nil)
	scores := e.ScoreTranslated(map[string]string{"Q1: couleur": "Rouge, Bleu"}, origin, target)
	if scores["X"] != 2 || scores["Y"] != 2 {
		t.Fatalf("scores %v, want X:2 Y:2", scores)
	}
}

func TestScoreTranslatedUnmatchedOrigin(t *testing.T) {
	origin, target := bilingualCatalogs()
	e := NewEngine(nil)
	scores := e.ScoreTranslated(map[string]string{"Q1: couleur": "Vert"}, origin, target)
	if len(scores) != 0 {
		t.Fatalf("unmatched origin label contributed %v", scores)
	}
}
