package crawljob

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"konduit/backend/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type enqueueRequest struct {
	URLs  []string `json:"urls"`
	URL   string   `json:"url"`
	URL2  string   `json:"url2"`
	Query string   `json:"query"`
}

// seeds merges the list form and the legacy url/url2 form of the request.
func (r enqueueRequest) seeds() []string {
	seeds := append([]string{}, r.URLs...)
	if r.URL != "" {
		seeds = append(seeds, r.URL)
	}
	if r.URL2 != "" {
		seeds = append(seeds, r.URL2)
	}
	return seeds
}

func (h *Handler) Enqueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, "INVALID_BODY", "Request body must be valid JSON.", http.StatusBadRequest)
		return
	}

	job, err := h.service.Enqueue(ctx, req.seeds(), req.Query)
	if err != nil {
		if errors.Is(err, ErrNoSeeds) {
			writeError(ctx, w, "MISSING_URLS", "Please provide at least one URL.", http.StatusBadRequest)
			return
		}
		slog.ErrorContext(ctx, "failed to enqueue crawl job", "error", err)
		writeError(ctx, w, "ENQUEUE_FAILED", "Unable to accept crawl job.", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	job, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(ctx, w, "NOT_FOUND", "Crawl job not found.", http.StatusNotFound)
			return
		}
		slog.ErrorContext(ctx, "failed to get crawl job", "job_id", id, "error", err)
		writeError(ctx, w, "GET_FAILED", "Unable to load crawl job.", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobs, err := h.service.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list crawl jobs", "error", err)
		writeError(ctx, w, "LIST_FAILED", "Unable to list crawl jobs.", http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []Job{}
	}

	writeJSON(w, http.StatusOK, jobs)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	})
}
