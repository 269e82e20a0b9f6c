package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bobiz-backend/internal/domain"
	"bobiz-backend/internal/logger"
	"bobiz-backend/internal/service"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler serves health, metrics and the read-only event status view
type OpsHandler struct {
	catalog service.EventCatalog
	store   Pinger
}

func NewOpsHandler(catalog service.EventCatalog, store Pinger) *OpsHandler {
	return &OpsHandler{catalog: catalog, store: store}
}

// HandleHealth answers 200 when storage responds and 503 otherwise
func (h *OpsHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		logger.Warn("Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleEventStatus returns the aggregate fulfillment of one event
func (h *OpsHandler) HandleEventStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		http.Error(w, "Invalid event id", http.StatusBadRequest)
		return
	}

	agg, err := h.catalog.AggregateStatus(r.Context(), int32(id))
	switch {
	case errors.Is(err, domain.ErrUnknownEvent):
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	case err != nil:
		logger.Error("Failed to aggregate event status", "eventID", id, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}

// RegisterOpsRoutes registers the ops and read-only routes on router
func RegisterOpsRoutes(router *mux.Router, h *OpsHandler) {
	router.HandleFunc("/healthz", h.HandleHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/v1/events/{id:[0-9]+}/status", h.HandleEventStatus).Methods("GET")
}
