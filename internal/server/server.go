// Package server implements the factline content service: the figure content
// endpoint, the rate-limited batch article endpoint, and a websocket feed of
// content updates.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"time"

	"go.uber.org/zap"

	"factline/internal/api"
	"factline/internal/store"
	"factline/internal/timeline"
)

const (
	// DefaultRateLimit is the per-client batch request budget per window.
	DefaultRateLimit = 30
	// RateWindow is the sliding rate-limit window.
	RateWindow = 60 * time.Second
)

// articleIDPattern allow-lists id characters. Ids failing it are silently
// dropped rather than erroring the whole request.
var articleIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type Server struct {
	log     *zap.Logger
	store   *store.Store
	limiter *rateLimiter
	hub     *Hub
}

func New(log *zap.Logger, st *store.Store, rateLimit int) *Server {
	if rateLimit <= 0 {
		rateLimit = DefaultRateLimit
	}
	return &Server{
		log:     log,
		store:   st,
		limiter: newRateLimiter(rateLimit, RateWindow),
		hub:     NewHub(log),
	}
}

// Hub exposes the update hub so the content watcher can broadcast through it.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/articles/batch", s.handleBatch)
	mux.HandleFunc("GET /api/figures/{figureID}/content", s.handleFigureContent)
	mux.HandleFunc("GET /api/updates", s.hub.HandleUpdates)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req api.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "articleIds must be an array of strings")
		return
	}
	if req.ArticleIDs == nil {
		s.writeError(w, http.StatusBadRequest, "articleIds is required")
		return
	}
	if len(req.ArticleIDs) > api.MaxBatchIDs {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("too many articleIds: %d exceeds the limit of %d", len(req.ArticleIDs), api.MaxBatchIDs))
		return
	}

	// Empty is not an error: answer with an empty array, no lookup, no
	// rate-limit charge.
	if len(req.ArticleIDs) == 0 {
		s.writeJSON(w, api.BatchResponse{Articles: []timeline.Article{}})
		return
	}

	if !s.limiter.allow(clientKey(r)) {
		s.log.Debug("rate limited", zap.String("client", clientKey(r)))
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}

	// Ids that fail the character allow-list are dropped, not fatal.
	ids := sanitizeIDs(req.ArticleIDs)
	if len(ids) == 0 {
		s.writeJSON(w, api.BatchResponse{Articles: []timeline.Article{}})
		return
	}

	found, err := s.store.ArticlesByIDs(ids)
	if err != nil {
		s.log.Error("article lookup failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "article lookup failed")
		return
	}

	// Preserve request order for the ids that resolved.
	articles := make([]timeline.Article, 0, len(found))
	for _, id := range ids {
		if a, ok := found[id]; ok {
			articles = append(articles, a)
		}
	}
	s.writeJSON(w, api.BatchResponse{Articles: articles})
}

func (s *Server) handleFigureContent(w http.ResponseWriter, r *http.Request) {
	figureID := r.PathValue("figureID")

	overview, tl, err := s.store.FigureContent(figureID)
	switch {
	case errors.Is(err, store.ErrNoFigure):
		s.writeError(w, http.StatusNotFound, "figure not found")
		return
	case errors.Is(err, store.ErrNoTimeline):
		s.writeError(w, http.StatusNotFound, "no timeline content for figure")
		return
	case err != nil:
		s.log.Error("figure content failed", zap.String("figure", figureID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "figure content failed")
		return
	}

	s.writeJSON(w, api.FigureContentResponse{
		MainOverview:    overview,
		TimelineContent: api.TimelineContent{Data: tl},
	})
}

func sanitizeIDs(ids []string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if articleIDPattern.MatchString(id) {
			out = append(out, id)
		}
	}
	return out
}

// clientKey derives the rate-limit key from the client network address.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("writing response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: msg})
}
