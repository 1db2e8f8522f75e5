package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/surveyforge/surveyforge/internal/catalog"
	"github.com/surveyforge/surveyforge/internal/lang"
)

// Catalog uploads arrive as tabular rows (one map per spreadsheet row). The
// parsers skip corrupt rows, so the response reports how many survived.

func UploadQuestionsHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testType := chi.URLParam(r, "testType")
		code := lang.LanguageCode(chi.URLParam(r, "lang"))

		var rows []map[string]string
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		qs := catalog.ParseQuestionRows(rows)
		if err := store.PutQuestions(r.Context(), testType, code, qs); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{"status": "ok", "stored": len(qs)})
	}
}

func UploadProfilesHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testType := chi.URLParam(r, "testType")
		code := lang.LanguageCode(chi.URLParam(r, "lang"))

		var rows []map[string]string
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		ps := catalog.ParseProfileRows(rows)
		if err := store.PutProfiles(r.Context(), testType, code, ps); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{"status": "ok", "stored": len(ps)})
	}
}

func UploadThresholdsHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testType := chi.URLParam(r, "testType")
		code := lang.LanguageCode(chi.URLParam(r, "lang"))

		var rules []catalog.ThresholdRule
		if err := json.NewDecoder(r.Body).Decode(&rules); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := store.PutThresholds(r.Context(), testType, code, rules); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{"status": "ok", "stored": len(rules)})
	}
}

func GetCatalogHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testType := chi.URLParam(r, "testType")
		code := lang.LanguageCode(chi.URLParam(r, "lang"))

		questions, err := store.ListQuestions(r.Context(), testType, code)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if questions == nil {
			http.Error(w, "no catalog for this test type and language", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]interface{}{
			"questions":  questions,
			"profiles":   store.LoadProfiles(r.Context(), testType, code),
			"thresholds": store.LoadThresholds(r.Context(), testType, code),
		})
	}
}

func ListLanguagesHandler(store catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testType := chi.URLParam(r, "testType")
		codes, err := store.Languages(r.Context(), testType)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{"languages": codes})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
