package catalog

import (
	"context"
	"testing"
)

func fp(v float64) *float64 { return &v }

func TestCanonicalMode(t *testing.T) {
	cases := []struct{ in, want string }{
		{"qcu_cat", "QCU_CAT"},
		{"  QRM_CAT  ", "QRM_CAT"},
		{"echelle note", "ECHELLE NOTE"},
		{"Echelle_Note", "ECHELLE_NOTE"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := CanonicalMode(tc.in); got != tc.want {
			t.Fatalf("CanonicalMode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseQuestionRowsSkipsCorruptRows(t *testing.T) {
	rows := []map[string]string{
		{"id": "Q1", "title": "color", "params": `{"mode":"QCU_CAT","options":[{"label":"Red","profile":"X","value":1}]}`},
		{"id": "Q2", "title": "broken", "params": `{not json`},
		{"id": "", "title": "no id", "params": `{"mode":"QCU_CAT"}`},
		{"id": "Q4", "title": "no mode", "params": `{"profile":"X"}`},
		{"id": "Q5", "title": "scale", "params": `{"mode":" echelle_note ","profile":"X","min":1,"max":9}`},
	}
	qs := ParseQuestionRows(rows)
	if len(qs) != 2 {
		t.Fatalf("expected 2 surviving rows, got %d", len(qs))
	}
	if qs[0].ID != "Q1" || qs[0].Mode != ModeSingle {
		t.Fatalf("row 1 parsed wrong: %+v", qs[0])
	}
	if qs[1].Mode != ModeScale {
		t.Fatalf("mode not canonicalized at load: %q", qs[1].Mode)
	}
	if v := qs[0].Params.Options[0].Value; v == nil || *v != 1 {
		t.Fatalf("option value lost: %+v", qs[0].Params.Options[0])
	}
	if qs[1].Params.Min == nil || *qs[1].Params.Min != 1 {
		t.Fatalf("scale bounds lost: %+v", qs[1].Params)
	}
}

func TestParseProfileRowsLegacyColumn(t *testing.T) {
	rows := []map[string]string{
		{"code": "X", "name": "Crimson", "description": "warm", "career_advice": "paint"},
		{"profile": "Y", "name": "Azure"}, // legacy key column
		{"name": "orphan"},                // no key at all
	}
	ps := ParseProfileRows(rows)
	if len(ps) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(ps))
	}
	if ps[0].Code != "X" || ps[0].Extra["career_advice"] != "paint" {
		t.Fatalf("extra columns not captured: %+v", ps[0])
	}
	if ps[1].Code != "Y" {
		t.Fatalf("legacy profile column not honored: %+v", ps[1])
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	qs := []Question{{ID: "Q1", Params: Params{Mode: "QCU_CAT", Options: []Option{{Label: "A", Profile: "P", Value: fp(2)}}}}}
	if err := store.PutQuestions(ctx, "T", "EN", qs); err != nil {
		t.Fatalf("put: %v", err)
	}

	loaded, err := store.LoadQuestions(ctx, "T", "EN")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded["Q1"].Mode != ModeSingle {
		t.Fatalf("mode not canonicalized: %+v", loaded["Q1"])
	}

	missing, err := store.LoadQuestions(ctx, "T", "FR")
	if err != nil || missing != nil {
		t.Fatalf("missing partition must be (nil, nil), got (%v, %v)", missing, err)
	}

	if got := store.LoadProfiles(ctx, "T", "FR"); got == nil || len(got) != 0 {
		t.Fatalf("profiles must degrade to an empty map, got %v", got)
	}

	langs, err := store.Languages(ctx, "T")
	if err != nil || len(langs) != 1 || langs[0] != "EN" {
		t.Fatalf("languages = %v, %v", langs, err)
	}
}
