package search

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"konduit/backend/internal/index"
	"konduit/backend/internal/retrieval"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type searchRequest struct {
	Query string `json:"query"`
	URL   string `json:"url"`
	URL2  string `json:"url2"`
	Smart bool   `json:"smart"`
}

type searchResponse struct {
	Success bool                     `json:"success"`
	Summary string                   `json:"summary,omitempty"`
	Results []retrieval.SearchResult `json:"results"`
	Blocked []string                 `json:"blocked,omitempty"`
	Message string                   `json:"message,omitempty"`
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, searchResponse{Message: "Request body must be valid JSON."})
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeJSON(w, http.StatusBadRequest, searchResponse{Message: "Query is required."})
		return
	}

	var seeds []string
	for _, u := range []string{req.URL, req.URL2} {
		if u = strings.TrimSpace(u); u != "" {
			seeds = append(seeds, u)
		}
	}
	if len(seeds) == 0 {
		writeJSON(w, http.StatusBadRequest, searchResponse{Message: "Please provide at least one URL."})
		return
	}

	res, err := h.service.Search(ctx, Request{Query: query, Seeds: seeds, Smart: req.Smart})
	if err != nil {
		switch {
		case errors.Is(err, ErrNoContent):
			writeJSON(w, http.StatusNotFound, searchResponse{
				Message: "No readable content found.",
				Blocked: res.Blocked,
				Results: []retrieval.SearchResult{},
			})
		case errors.Is(err, index.ErrNotBuilt):
			writeJSON(w, http.StatusNotFound, searchResponse{Message: "No content has been indexed yet.", Results: []retrieval.SearchResult{}})
		default:
			slog.ErrorContext(ctx, "search failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, searchResponse{Message: "Search failed.", Results: []retrieval.SearchResult{}})
		}
		return
	}

	results := res.Results
	if results == nil {
		results = []retrieval.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Success: true,
		Summary: res.Summary,
		Results: results,
		Blocked: res.Blocked,
	})
}

func writeJSON(w http.ResponseWriter, status int, body searchResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
