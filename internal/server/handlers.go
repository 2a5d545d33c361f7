package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/blogsearch/internal/models"
	"github.com/hyperjump/blogsearch/internal/search"
	"go.uber.org/zap"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.search(w, r, &query)
}

func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	query, err := queryFromURL(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.search(w, r, query)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, query *models.SearchQuery) {
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), query)
	if err != nil {
		s.respondEngineError(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

// queryFromURL reads q, limit, offset, fuzzy, prefix and combine from the query string.
func queryFromURL(r *http.Request) (*models.SearchQuery, error) {
	v := r.URL.Query()
	query := &models.SearchQuery{
		Query:       v.Get("q"),
		CombineWith: v.Get("combine"),
	}
	if raw := v.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("limit must be an integer")
		}
		query.Limit = n
	}
	if raw := v.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("offset must be an integer")
		}
		query.Offset = n
	}
	if raw := v.Get("fuzzy"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.New("fuzzy must be a number")
		}
		query.Fuzzy = &f
	}
	if raw := v.Get("prefix"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.New("prefix must be true or false")
		}
		query.Prefix = &b
	}
	return query, nil
}

func (s *Server) handleTeaser(w http.ResponseWriter, r *http.Request) {
	var req models.TeaserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.respondJSON(w, http.StatusOK, models.TeaserResponse{Teaser: s.engine.Teaser(req.Body, req.Terms)})
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	page, err := s.engine.Page(id)
	if err != nil {
		s.respondEngineError(w, "get page failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.reloader == nil {
		s.respondError(w, http.StatusNotImplemented, "reload not configured")
		return
	}
	n, err := s.reloader.Sync(r.Context())
	if err != nil {
		s.logger.Error("reload failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{"status": "reloaded", "pages": n}
	if stats, ok := s.engine.Stats(); ok {
		resp["generation"] = stats.Generation
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"loaded": false}
	if stats, ok := s.engine.Stats(); ok {
		resp["loaded"] = true
		resp["pages"] = stats.Pages
		resp["generation"] = stats.Generation
		resp["loaded_at"] = stats.LoadedAt
		resp["cache_entries"] = stats.CacheSize
	}
	if s.reloader != nil {
		resp["source"] = s.reloader.Source()
		if last := s.reloader.LastSync(); !last.IsZero() {
			resp["last_sync"] = last
		}
		if err := s.reloader.LastError(); err != nil {
			resp["last_error"] = err.Error()
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondEngineError maps engine errors onto status codes.
func (s *Server) respondEngineError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidQuery):
		s.respondError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), models.ErrInvalidQuery.Error()+": "))
	case errors.Is(err, search.ErrPageNotFound):
		s.respondError(w, http.StatusNotFound, "page not found")
	case errors.Is(err, search.ErrNotLoaded):
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error(msg, zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
