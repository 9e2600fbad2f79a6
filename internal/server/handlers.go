package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sw33tLie/jirascope/internal/utils"
	"github.com/sw33tLie/jirascope/pkg/federated"
	"github.com/sw33tLie/jirascope/pkg/storage"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Log.Debugf("Writing response: %v", err)
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := federated.Query{
		Text:      q.Get("q"),
		Status:    q.Get("status"),
		Project:   q.Get("project"),
		IssueType: q.Get("type"),
	}
	if p := q.Get("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}
		query.Page = page
	}

	page, err := s.Fed.Search(r.Context(), query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, page)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Fed.Stats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := s.Fed.FilterOptions(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, opts)
}

func (s *Server) handleTicket(w http.ResponseWriter, r *http.Request) {
	key := storage.NormalizeKey(chi.URLParam(r, "key"))

	detail, err := s.Fed.Ticket(r.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "ticket not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, detail)
}
