// Package server exposes the engine's classifications over a read-only JSON
// API. All writes happen through the CLI commands; the API only reads.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/store"
	"github.com/parcelworks/landscout/internal/zone"
)

// Handler serves the read-only API over a store and a zone analyzer.
type Handler struct {
	store    store.Store
	analyzer *zone.Analyzer
}

// New creates a Handler.
func New(st store.Store, analyzer *zone.Analyzer) *Handler {
	return &Handler{store: st, analyzer: analyzer}
}

// Router builds the chi router with all API routes mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/zones/streets", h.listStreetZones)
		r.Get("/zones/area", h.scoreArea)
		r.Get("/market", h.listMarketHeat)
		r.Get("/market/{postalCode}", h.getMarketHeat)
		r.Get("/opportunities", h.listOpportunities)
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listStreetZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.store.ListStreetZones(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, zones)
}

func (h *Handler) listMarketHeat(w http.ResponseWriter, r *http.Request) {
	heat, err := h.store.ListMarketHeat(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, heat)
}

func (h *Handler) getMarketHeat(w http.ResponseWriter, r *http.Request) {
	heat, err := h.store.GetMarketHeat(r.Context(), chi.URLParam(r, "postalCode"))
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "postal code not classified"})
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, heat)
}

func (h *Handler) listOpportunities(w http.ResponseWriter, r *http.Request) {
	filter := store.OpportunityFilter{}
	if level := r.URL.Query().Get("level"); level != "" {
		filter.Level = model.UrgencyLevel(level)
	}
	if r.URL.Query().Get("pending") == "true" {
		filter.NotAlerted = true
	}

	opps, err := h.store.ListOpportunities(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, opps)
}

func (h *Handler) scoreArea(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lat and lon are required"})
		return
	}

	radius := zone.DefaultRadiusMiles
	if v, err := strconv.ParseFloat(q.Get("radius"), 64); err == nil && v > 0 {
		radius = v
	}
	minSample := zone.DefaultMinSample
	if v, err := strconv.Atoi(q.Get("min_sample")); err == nil && v > 0 {
		minSample = v
	}

	score, err := h.analyzer.ScoreArea(r.Context(), model.Coordinate{Lat: lat, Lon: lon}, radius, minSample)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("response encode failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeJSON(w, status, map[string]string{"error": "internal error"})
}
