package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/surveyforge/surveyforge/internal/factory"
)

// CreateDeploymentHandler registers a deployment, generates its form and
// activates it in one go. The generated form comes back in the response so
// the operator can inspect (and render) it immediately.
func CreateDeploymentHandler(store factory.DeploymentStore, builder *factory.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req factory.Deployment
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := req.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		d := factory.NewDeployment(req)
		form, err := builder.Build(r.Context(), d)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := factory.Activate(&d); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if err := store.CreateDeployment(r.Context(), d); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{"deployment": d, "form": form})
	}
}

func GetDeploymentHandler(store factory.DeploymentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := store.GetDeployment(r.Context(), chi.URLParam(r, "deploymentID"))
		if errors.Is(err, factory.ErrDeploymentNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, d)
	}
}

func ListDeploymentsHandler(store factory.DeploymentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, err := store.ListDeployments(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]interface{}{"deployments": ds})
	}
}

// GetDeploymentFormHandler regenerates the form definition from the current
// catalog. Useful after a catalog re-upload.
func GetDeploymentFormHandler(store factory.DeploymentStore, builder *factory.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := store.GetDeployment(r.Context(), chi.URLParam(r, "deploymentID"))
		if errors.Is(err, factory.ErrDeploymentNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		form, err := builder.Build(r.Context(), d)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, form)
	}
}
