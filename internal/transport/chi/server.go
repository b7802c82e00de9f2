// Package chi exposes the ranking and recommendation engine over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/campusworks/studyrank/internal/domain"
	"github.com/campusworks/studyrank/internal/domain/resource"
	rankuc "github.com/campusworks/studyrank/internal/usecase/rank"
	recommenduc "github.com/campusworks/studyrank/internal/usecase/recommend"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// resourceStore is the transport's view of the resource repository.
type resourceStore interface {
	ListApproved(ctx context.Context, faculty string) ([]resource.Resource, error)
	Get(ctx context.Context, category resource.Category, id string) (resource.Resource, error)
	Upsert(ctx context.Context, res *resource.Resource) (bool, error)
	IncrView(ctx context.Context, category resource.Category, id string, at time.Time) error
	IncrDownload(ctx context.Context, category resource.Category, id string) error
}

// activityLog is the transport's view of the activity repository.
type activityLog interface {
	Record(ctx context.Context, entry resource.ActivityEntry) error
}

// pinger checks backing store connectivity for the health endpoint.
type pinger interface {
	Ping(ctx context.Context) error
}

// Limits bounds client-supplied result counts.
type Limits struct {
	SearchDefault    int
	SearchMax        int
	PerCategory      int
	RecommendDefault int
	RecommendMax     int
}

// Server routes HTTP requests to the use case services.
type Server struct {
	ranker        *rankuc.Service
	recommender   *recommenduc.Service
	resources     resourceStore
	activity      activityLog
	health        pinger
	limits        Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ranker *rankuc.Service,
	recommender *recommenduc.Service,
	resources resourceStore,
	activity activityLog,
	health pinger,
	limits Limits,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ranker:      ranker,
		recommender: recommender,
		resources:   resources,
		activity:    activity,
		health:      health,
		limits:      limits,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrResourceNotFound, http.StatusNotFound, errCodeResourceNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, errCodeNotFound),
		sentinelHandler(domain.ErrUnknownCategory, http.StatusBadRequest, errCodeUnknownCategory),
		sentinelHandler(domain.ErrInvalidResource, http.StatusBadRequest, errCodeValidationFailed),
	}
	return s
}

// Routes mounts every API route on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.getHealth)
	r.Get("/search", s.getSearch)
	r.Get("/recommendations", s.getRecommendations)
	r.Get("/recommendations/trending", s.getTrending)
	r.Get("/recommendations/personalized", s.getPersonalized)
	r.Get("/recommendations/overview", s.getFacultyOverview)
	r.Route("/resources/{category}/{id}", func(r chi.Router) {
		r.Put("/", s.putResource)
		r.Get("/similar", s.getSimilar)
		r.Post("/views", s.postView)
		r.Post("/downloads", s.postDownload)
	})
}

// getSearch handles GET /search.
func (s *Server) getSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, errCodeValidationFailed, "query parameter q is required")
		return
	}
	faculty := r.URL.Query().Get("faculty")

	candidates, err := s.resources.ListApproved(r.Context(), faculty)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if r.URL.Query().Get("grouped") == "true" {
		grouped := s.ranker.RankGrouped(r.Context(), q, candidates, s.limits.PerCategory)
		stats := rankuc.Stats(q, grouped)
		resp := searchGroupedResponse{
			Query:  q,
			Total:  stats.TotalResults,
			Counts: stats.PerCategory,
			Groups: make(map[string][]searchResult, len(grouped)),
		}
		for slug, scored := range grouped {
			resp.Groups[slug] = scoredToResults(scored)
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	limit := clampLimit(r, s.limits.SearchDefault, s.limits.SearchMax)
	scored := s.ranker.Rank(r.Context(), q, candidates)
	if len(scored) > limit {
		scored = scored[:limit]
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Query:   q,
		Count:   len(scored),
		Results: scoredToResults(scored),
	})
}

// getRecommendations handles GET /recommendations (the full bundle).
func (s *Server) getRecommendations(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeError(w, http.StatusBadRequest, errCodeValidationFailed, "query parameter user is required")
		return
	}
	limit := clampLimit(r, s.limits.RecommendDefault, s.limits.RecommendMax)

	bundle, err := s.recommender.Bundle(r.Context(), user, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bundleResponse{
		Trending:     scoredToResults(bundle.Trending),
		Similar:      scoredToResults(bundle.Similar),
		Personalized: scoredToResults(bundle.Personalized),
	})
}

// getTrending handles GET /recommendations/trending. Without a faculty
// it falls back to the cross-faculty global list.
func (s *Server) getTrending(w http.ResponseWriter, r *http.Request) {
	faculty := r.URL.Query().Get("faculty")
	limit := clampLimit(r, s.limits.RecommendDefault, s.limits.RecommendMax)

	var (
		scored []resource.Scored
		err    error
	)
	if faculty == "" {
		scored, err = s.recommender.GlobalTrending(r.Context(), limit)
	} else {
		scored, err = s.recommender.Trending(r.Context(), faculty, limit)
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendResponse{Results: scoredToResults(scored)})
}

// getPersonalized handles GET /recommendations/personalized.
func (s *Server) getPersonalized(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeError(w, http.StatusBadRequest, errCodeValidationFailed, "query parameter user is required")
		return
	}
	limit := clampLimit(r, s.limits.RecommendDefault, s.limits.RecommendMax)

	scored, err := s.recommender.Personalized(r.Context(), user, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendResponse{Results: scoredToResults(scored)})
}

// getFacultyOverview handles GET /recommendations/overview (a faculty
// landing page bundle: trending only, no per-user tiers).
func (s *Server) getFacultyOverview(w http.ResponseWriter, r *http.Request) {
	faculty := r.URL.Query().Get("faculty")
	if faculty == "" {
		writeError(w, http.StatusBadRequest, errCodeValidationFailed, "query parameter faculty is required")
		return
	}
	limit := clampLimit(r, s.limits.RecommendDefault, s.limits.RecommendMax)

	bundle, err := s.recommender.FacultyOverview(r.Context(), faculty, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bundleResponse{
		Trending:     scoredToResults(bundle.Trending),
		Similar:      scoredToResults(bundle.Similar),
		Personalized: scoredToResults(bundle.Personalized),
	})
}

// getSimilar handles GET /resources/{category}/{id}/similar.
func (s *Server) getSimilar(w http.ResponseWriter, r *http.Request) {
	category, id, err := resourceParams(r)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	limit := clampLimit(r, s.limits.RecommendDefault, s.limits.RecommendMax)

	base, err := s.resources.Get(r.Context(), category, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	scored, err := s.recommender.Similar(r.Context(), base, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendResponse{Results: scoredToResults(scored)})
}

// putResource handles PUT /resources/{category}/{id}.
func (s *Server) putResource(w http.ResponseWriter, r *http.Request) {
	category, id, err := resourceParams(r)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	var req upsertResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res, err := req.toDomain(category, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	// Preserve counters accrued by a previous snapshot of this resource.
	if prev, err := s.resources.Get(r.Context(), category, id); err == nil {
		res = resource.Reconstruct(
			id, category, res.Title(), res.Description(), res.Content(),
			res.Subject(), res.Faculty(), res.Status(),
			prev.ViewCount(), prev.DownloadCount(), prev.LastViewed(),
		)
	}

	created, err := s.resources.Upsert(r.Context(), &res)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resourceToResult(res))
}

// postView handles POST /resources/{category}/{id}/views.
func (s *Server) postView(w http.ResponseWriter, r *http.Request) {
	s.recordActivity(w, r, resource.ActivityView)
}

// postDownload handles POST /resources/{category}/{id}/downloads.
func (s *Server) postDownload(w http.ResponseWriter, r *http.Request) {
	s.recordActivity(w, r, resource.ActivityDownload)
}

func (s *Server) recordActivity(w http.ResponseWriter, r *http.Request, kind resource.ActivityKind) {
	category, id, err := resourceParams(r)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	var req recordActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	now := time.Now()
	switch kind {
	case resource.ActivityView:
		err = s.resources.IncrView(r.Context(), category, id, now)
	case resource.ActivityDownload:
		err = s.resources.IncrDownload(r.Context(), category, id)
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	// Anonymous hits bump counters without an activity log entry.
	if req.User != "" {
		entry := resource.ActivityEntry{
			User: req.User, Kind: kind,
			Category: category, ContentID: id, OccurredAt: now,
		}
		if err := s.activity.Record(r.Context(), entry); err != nil {
			s.handleDomainError(w, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// getHealth handles GET /health.
func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func resourceParams(r *http.Request) (resource.Category, string, error) {
	category, err := resource.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		return "", "", err
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		return "", "", fmt.Errorf("%w: id is required", domain.ErrInvalidResource)
	}
	return category, id, nil
}

func clampLimit(r *http.Request, def, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrResourceNotFound,
		domain.ErrNotFound,
		domain.ErrUnknownCategory,
		domain.ErrInvalidResource,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, errCodeInternalError, "internal error")
}
