// Package web provides the JSON admin API: extension catalog queries,
// setup recipe listing, and tenant provisioning.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/artpar/shellhost/adapters/metrics"
	"github.com/artpar/shellhost/adapters/shell"
	"github.com/artpar/shellhost/app"
	"github.com/artpar/shellhost/core/catalog"
	"github.com/artpar/shellhost/domain/tenant"
)

// Deps carries the handler's collaborators.
type Deps struct {
	Catalog *catalog.Manager
	Setup   *app.SetupService
	Shell   *shell.Host
	Metrics *metrics.Collector
	Logger  zerolog.Logger

	// Shutdown is the process-shutdown context. Setup runs under it
	// rather than the request context, so a client disconnect cannot
	// abort a half-provisioned tenant but a process shutdown cancels
	// the recipe and rolls the tenant back.
	Shutdown context.Context
}

// Handler provides the admin API endpoints.
type Handler struct {
	deps Deps
}

// NewHandler creates the admin API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// Router builds the admin API router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Get("/extensions", h.listExtensions)
	r.Get("/extensions/{id}", h.getExtension)
	r.Get("/features", h.listFeatures)
	r.Get("/recipes", h.listRecipes)
	r.Get("/tenants", h.listTenants)
	r.Post("/tenants/{name}/setup", h.setupTenant)

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type extensionResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Version  string   `json:"version,omitempty"`
	Features []string `json:"features"`
}

func (h *Handler) listExtensions(w http.ResponseWriter, r *http.Request) {
	entries := h.deps.Catalog.Catalog().Entries()

	out := make([]extensionResponse, 0, len(entries))
	for _, e := range entries {
		features := make([]string, 0, len(e.Features))
		for _, f := range e.Features {
			features = append(features, f.ID)
		}
		out = append(out, extensionResponse{
			ID:       e.Descriptor.ID,
			Name:     e.Manifest.Name,
			Version:  e.Manifest.Version,
			Features: features,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getExtension(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, ok := h.deps.Catalog.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "extension not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) listFeatures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Catalog.Features())
}

func (h *Handler) listRecipes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Setup.ListSetupRecipes(r.Context()))
}

type tenantResponse struct {
	Name             string `json:"name"`
	State            string `json:"state"`
	DatabaseProvider string `json:"database_provider"`
	RecipeName       string `json:"recipe_name,omitempty"`
}

func (h *Handler) listTenants(w http.ResponseWriter, r *http.Request) {
	all := h.deps.Shell.AllSettings()

	out := make([]tenantResponse, 0, len(all))
	for _, s := range all {
		out = append(out, tenantResponse{
			Name:             s.Name,
			State:            s.State.String(),
			DatabaseProvider: s.DatabaseProvider,
			RecipeName:       s.RecipeName,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type setupRequest struct {
	DatabaseProvider string            `json:"database_provider"`
	ConnectionString string            `json:"connection_string"`
	TablePrefix      string            `json:"table_prefix"`
	Schema           string            `json:"schema"`
	RecipeName       string            `json:"recipe_name"`
	Features         []string          `json:"features"`
	Properties       map[string]string `json:"properties"`
}

type setupResponse struct {
	ExecutionID string   `json:"execution_id,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

func (h *Handler) setupTenant(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req setupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sc := &tenant.SetupContext{
		Settings: &tenant.Config{
			Name:             name,
			DatabaseProvider: req.DatabaseProvider,
			ConnectionString: req.ConnectionString,
			TablePrefix:      req.TablePrefix,
			Schema:           req.Schema,
			RecipeName:       req.RecipeName,
		},
		EnabledFeatures: req.Features,
		Properties:      req.Properties,
	}

	if req.RecipeName != "" {
		recipe, ok := h.deps.Setup.FindSetupRecipe(r.Context(), req.RecipeName)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown setup recipe")
			return
		}
		sc.Recipe = &recipe
	}

	if h.deps.Metrics != nil {
		h.deps.Metrics.SetupAttempts.Inc()
	}
	start := time.Now()

	ctx := h.deps.Shutdown
	if ctx == nil {
		ctx = r.Context()
	}
	executionID, err := h.deps.Setup.Setup(ctx, sc)

	if h.deps.Metrics != nil {
		h.deps.Metrics.SetupDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		if h.deps.Metrics != nil {
			h.deps.Metrics.SetupOutcomes.WithLabelValues("fault").Inc()
		}
		h.deps.Logger.Error().Err(err).Str("tenant", name).Msg("tenant setup fault")
		writeError(w, http.StatusInternalServerError, "tenant setup failed unexpectedly")
		return
	}

	if sc.HasErrors() {
		if h.deps.Metrics != nil {
			h.deps.Metrics.SetupOutcomes.WithLabelValues("rejected").Inc()
		}
		msgs := make([]string, 0, len(sc.Errors))
		for _, e := range sc.Errors {
			msgs = append(msgs, e.Error())
		}
		writeJSON(w, http.StatusUnprocessableEntity, setupResponse{Errors: msgs})
		return
	}

	if h.deps.Metrics != nil {
		h.deps.Metrics.SetupOutcomes.WithLabelValues("success").Inc()
		h.deps.Metrics.TenantsRunning.Inc()
	}
	writeJSON(w, http.StatusCreated, setupResponse{ExecutionID: executionID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
