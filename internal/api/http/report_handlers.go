package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/surveyforge/surveyforge/internal/lang"
	"github.com/surveyforge/surveyforge/internal/report"
)

// UploadBlocksHandler replaces the email composition table for one language.
func UploadBlocksHandler(store report.BlockStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := lang.LanguageCode(chi.URLParam(r, "lang"))

		var blocks []report.Block
		if err := json.NewDecoder(r.Body).Decode(&blocks); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := store.PutBlocks(r.Context(), code, blocks); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{"status": "ok", "stored": len(blocks)})
	}
}

func GetBlocksHandler(store report.BlockStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := lang.LanguageCode(chi.URLParam(r, "lang"))
		blocks, err := store.LoadBlocks(r.Context(), code)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{"blocks": blocks})
	}
}

// FileDirectory is the writable side of the [FILE_LINK:...] name registry.
type FileDirectory interface {
	Put(ctx context.Context, name, url string) error
}

func PutFileLinkHandler(dir FileDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Name == "" || req.URL == "" {
			http.Error(w, "name and url required", http.StatusBadRequest)
			return
		}
		if err := dir.Put(r.Context(), req.Name, req.URL); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]string{"status": "ok"})
	}
}
