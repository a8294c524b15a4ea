package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"streeteasy-monitor/models"
	"streeteasy-monitor/services"
	"streeteasy-monitor/storage"
	"streeteasy-monitor/utils"
)

const defaultLimit = 100

// Handler serves a read-only JSON view of the listing store.
type Handler struct {
	store    storage.ListingStore
	insights *services.InsightService
	logger   *utils.Logger
}

func NewHandler(store storage.ListingStore, logger *utils.Logger) *Handler {
	return &Handler{
		store:    store,
		insights: services.NewInsightService(logger),
		logger:   logger,
	}
}

// Router returns the routes served by the dashboard.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/listings", h.handleListings).Methods(http.MethodGet)
	api.HandleFunc("/listings/{id}", h.handleListing).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.handleStats).Methods(http.MethodGet)
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type listingQuery struct {
	neighborhood string
	minPrice     int
	maxPrice     int
	limit        int
}

func parseListingQuery(r *http.Request) (listingQuery, error) {
	q := r.URL.Query()
	lq := listingQuery{
		neighborhood: strings.TrimSpace(q.Get("neighborhood")),
		limit:        defaultLimit,
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"min_price", &lq.minPrice},
		{"max_price", &lq.maxPrice},
		{"limit", &lq.limit},
	}
	for _, p := range ints {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return lq, errors.New(p.name + " must be a non-negative integer")
		}
		*p.dst = n
	}
	return lq, nil
}

func (q listingQuery) matches(l *models.Listing) bool {
	if q.neighborhood != "" && !strings.EqualFold(l.Neighborhood, q.neighborhood) {
		return false
	}
	if q.minPrice > 0 && l.Price < q.minPrice {
		return false
	}
	if q.maxPrice > 0 && l.Price > q.maxPrice {
		return false
	}
	return true
}

func (h *Handler) handleListings(w http.ResponseWriter, r *http.Request) {
	q, err := parseListingQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	all, err := h.store.List(r.Context(), 0)
	if err != nil {
		h.logger.Error("[dashboard] List failed: %v", err)
		http.Error(w, "failed to load listings", http.StatusInternalServerError)
		return
	}

	out := make([]*models.Listing, 0, len(all))
	for _, l := range all {
		if q.limit > 0 && len(out) == q.limit {
			break
		}
		if q.matches(l) {
			out = append(out, l)
		}
	}
	h.writeJSON(w, out)
}

func (h *Handler) handleListing(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	l, err := h.store.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "listing not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("[dashboard] Get %s failed: %v", id, err)
		http.Error(w, "failed to load listing", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, l)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	all, err := h.store.List(r.Context(), 0)
	if err != nil {
		h.logger.Error("[dashboard] List failed: %v", err)
		http.Error(w, "failed to load listings", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, h.insights.Generate(all))
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("[dashboard] Encode response: %v", err)
	}
}
