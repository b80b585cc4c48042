// Package api implements the HTTP API for SkillBridge.
//
// Conventions:
//   - Session simulation via the X-Profile-ID header: the header names the
//     acting profile and is stored in the request context unvalidated,
//     mirroring the client-stored identity of the original frontend
//   - Per-profile rate limiting via token bucket
//   - Error body {"error": ...} on every failure path
//   - TLS expected via reverse proxy (not handled here)
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jkaninda/okapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/skillbridge/skillbridge/internal/domain"
	"github.com/skillbridge/skillbridge/internal/observability"
	"github.com/skillbridge/skillbridge/internal/ratelimit"
	"github.com/skillbridge/skillbridge/internal/storage"
	"github.com/skillbridge/skillbridge/internal/suggest"
)

const defaultMaxRequestSize = 1 << 20 // 1 MB

// ErrorBody is the standard error response used in OpenAPI documentation.
type ErrorBody struct {
	Error string `json:"error"`
}

// Config configures the HTTP API server.
type Config struct {
	ListenAddr     string // e.g., ":8080"
	EnableDocs     bool
	MaxRequestSize int64 // Maximum request body in bytes. 0 = 1 MB default.

	// Observability
	MetricsRegistry *prometheus.Registry            // Custom Prometheus registry for /metrics.
	MetricsPath     string                          // Path for metrics endpoint. Default: "/metrics".
	HealthChecker   *observability.HealthChecker    // Health checker for /readyz.
	Metrics         *observability.MetricsCollector // Metrics collector for HTTP middleware.
	Tracer          trace.Tracer                    // OTel tracer for HTTP middleware.
}

// Server is the SkillBridge HTTP API server.
type Server struct {
	config    Config
	store     storage.Store
	suggester *suggest.Service
	limiter   *ratelimit.Limiter
	logger    *slog.Logger
	server    *http.Server

	// Extra handlers mounted on the HTTP mux (e.g., the chat WebSocket endpoint).
	extraRoutes []extraRoute

	okapi *okapi.Okapi
	group *okapi.Group
}

// extraRoute stores an additional handler to be mounted on the HTTP mux.
type extraRoute struct {
	pattern string
	handler http.Handler
}

// NewServer creates the HTTP API server.
func NewServer(cfg Config, store storage.Store, suggester *suggest.Service, rl *ratelimit.Limiter, logger *slog.Logger) *Server {
	maxSize := cfg.MaxRequestSize
	if maxSize <= 0 {
		maxSize = defaultMaxRequestSize
	}
	return &Server{
		config:    cfg,
		store:     store,
		suggester: suggester,
		limiter:   rl,
		logger:    logger,
		okapi:     okapi.New(okapi.WithMaxMultipartMemory(maxSize)),
	}
}

// WithHandler mounts an additional handler on the HTTP mux at the given pattern.
// Used for the challenge chat WebSocket endpoint.
func (s *Server) WithHandler(pattern string, handler http.Handler) *Server {
	s.extraRoutes = append(s.extraRoutes, extraRoute{pattern: pattern, handler: handler})
	return s
}

// WithOpenAPIDocs enables the interactive OpenAPI documentation.
func (s *Server) WithOpenAPIDocs() *Server {
	s.okapi.WithOpenAPIDocs(
		okapi.OpenAPI{
			Title:   "SkillBridge",
			Version: "v0.1.0",
		},
	)
	return s
}

// Start launches the HTTP server and blocks until it exits or ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.register()

	s.server = &http.Server{
		Addr:              s.config.ListenAddr,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	s.logger.Info("http api starting", slog.String("addr", s.config.ListenAddr))

	return s.okapi.StartServer(s.server)
}

// register wires middleware and routes onto the router. Called once, from
// either Start or Handler.
func (s *Server) register() {
	// Metrics/tracing middleware (applied globally).
	if s.config.Metrics != nil || s.config.Tracer != nil {
		s.okapi.UseMiddleware(func(next http.Handler) http.Handler {
			return observability.HTTPMetricsMiddleware(s.config.Metrics, s.config.Tracer, next)
		})
	}

	// /v1 group with session identification.
	s.group = s.okapi.Group("/v1", s.session)

	// Profiles.
	s.group.Post("/profiles", s.handleProfileCreate,
		okapi.DocSummary("Create a profile"),
		okapi.DocTags("Profiles"),
		okapi.DocRequestBody(ProfileRequest{}),
		okapi.DocResponse(http.StatusCreated, ProfileResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
	)
	s.group.Get("/profiles", s.handleProfileList,
		okapi.DocSummary("List all profiles"),
		okapi.DocTags("Profiles"),
		okapi.DocResponse([]ProfileResponse{}),
	)
	s.group.Get("/profiles/{id}", s.handleProfileGet,
		okapi.DocSummary("Get a profile by ID"),
		okapi.DocTags("Profiles"),
		okapi.DocPathParam("id", "string", "Profile ID (UUID)"),
		okapi.DocResponse(ProfileResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	s.group.Put("/profiles/{id}", s.handleProfileUpdate,
		okapi.DocSummary("Update a profile (replaces the skill list)"),
		okapi.DocTags("Profiles"),
		okapi.DocPathParam("id", "string", "Profile ID (UUID)"),
		okapi.DocRequestBody(ProfileRequest{}),
		okapi.DocResponse(ProfileResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	s.group.Get("/profiles/{id}/similar", s.handleProfileSimilar,
		okapi.DocSummary("Find profiles with similar skills"),
		okapi.DocTags("Profiles"),
		okapi.DocPathParam("id", "string", "Profile ID (UUID)"),
		okapi.DocResponse([]SimilarProfileResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	s.group.Get("/profiles/{id}/suggested-challenges", s.handleProfileSuggestedChallenges,
		okapi.DocSummary("Suggest ongoing challenges matching a profile's skills"),
		okapi.DocTags("Profiles"),
		okapi.DocPathParam("id", "string", "Profile ID (UUID)"),
		okapi.DocResponse([]ChallengeResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	s.group.Get("/profiles/{id}/stats", s.handleProfileStats,
		okapi.DocSummary("Get a profile's challenge statistics"),
		okapi.DocTags("Profiles"),
		okapi.DocPathParam("id", "string", "Profile ID (UUID)"),
		okapi.DocResponse(ProfileStatsResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)

	// Challenges.
	s.group.Post("/challenges", s.handleChallengeCreate,
		okapi.DocSummary("Create a challenge (runs the profile suggestion pipeline)"),
		okapi.DocTags("Challenges"),
		okapi.DocRequestBody(ChallengeRequest{}),
		okapi.DocResponse(http.StatusCreated, ChallengeResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
		okapi.DocResponse(http.StatusUnauthorized, ErrorBody{}),
	)
	s.group.Get("/challenges", s.handleChallengeList,
		okapi.DocSummary("List all challenges, newest first"),
		okapi.DocTags("Challenges"),
		okapi.DocResponse([]ChallengeResponse{}),
	)
	s.group.Get("/challenges/status/{status}", s.handleChallengeListByStatus,
		okapi.DocSummary("List challenges by status"),
		okapi.DocTags("Challenges"),
		okapi.DocPathParam("status", "string", "ongoing or completed"),
		okapi.DocResponse([]ChallengeResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
	)
	s.group.Get("/challenges/{id}", s.handleChallengeGet,
		okapi.DocSummary("Get a challenge with its display-ranked suggested profiles"),
		okapi.DocTags("Challenges"),
		okapi.DocPathParam("id", "string", "Challenge ID (UUID)"),
		okapi.DocResponse(ChallengeDetailResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	s.group.Post("/challenges/{id}/join", s.handleChallengeJoin,
		okapi.DocSummary("Join a challenge"),
		okapi.DocTags("Challenges"),
		okapi.DocPathParam("id", "string", "Challenge ID (UUID)"),
		okapi.DocResponse(ChallengeResponse{}),
		okapi.DocResponse(http.StatusConflict, ErrorBody{}),
	)
	s.group.Post("/challenges/{id}/leave", s.handleChallengeLeave,
		okapi.DocSummary("Leave a challenge"),
		okapi.DocTags("Challenges"),
		okapi.DocPathParam("id", "string", "Challenge ID (UUID)"),
		okapi.DocResponse(ChallengeResponse{}),
		okapi.DocResponse(http.StatusConflict, ErrorBody{}),
	)
	s.group.Post("/challenges/{id}/participants", s.handleChallengeParticipants,
		okapi.DocSummary("Add or remove participants (creator only)"),
		okapi.DocTags("Challenges"),
		okapi.DocPathParam("id", "string", "Challenge ID (UUID)"),
		okapi.DocRequestBody(ParticipantsRequest{}),
		okapi.DocResponse(ChallengeResponse{}),
		okapi.DocResponse(http.StatusForbidden, ErrorBody{}),
	)
	s.group.Post("/challenges/{id}/complete", s.handleChallengeComplete,
		okapi.DocSummary("Complete a challenge and rate participants (creator only)"),
		okapi.DocTags("Challenges"),
		okapi.DocPathParam("id", "string", "Challenge ID (UUID)"),
		okapi.DocRequestBody(CompleteRequest{}),
		okapi.DocResponse(ChallengeResponse{}),
		okapi.DocResponse(http.StatusConflict, ErrorBody{}),
		okapi.DocResponse(http.StatusForbidden, ErrorBody{}),
	)
	s.group.Get("/challenges/{id}/messages", s.handleMessageList,
		okapi.DocSummary("List a challenge's chat messages"),
		okapi.DocTags("Messages"),
		okapi.DocPathParam("id", "string", "Challenge ID (UUID)"),
		okapi.DocResponse([]MessageResponse{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	s.group.Post("/challenges/{id}/messages", s.handleMessageCreate,
		okapi.DocSummary("Post a chat message to a challenge"),
		okapi.DocTags("Messages"),
		okapi.DocPathParam("id", "string", "Challenge ID (UUID)"),
		okapi.DocRequestBody(MessageRequest{}),
		okapi.DocResponse(http.StatusCreated, MessageResponse{}),
		okapi.DocResponse(http.StatusConflict, ErrorBody{}),
	)

	// Suggestions.
	s.group.Post("/suggestions", s.handleSuggestions,
		okapi.DocSummary("Suggest profiles for a challenge description"),
		okapi.DocTags("Suggestions"),
		okapi.DocRequestBody(SuggestionsRequest{}),
		okapi.DocResponse(SuggestionsResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
	)

	// Leaderboard.
	s.group.Get("/leaderboard", s.handleLeaderboard,
		okapi.DocSummary("Get the challenge leaderboard"),
		okapi.DocTags("Leaderboard"),
		okapi.DocResponse([]LeaderboardEntryResponse{}),
	)

	// Extra handlers (e.g., the chat WebSocket endpoint).
	for _, er := range s.extraRoutes {
		s.okapi.HandleStd("GET", er.pattern, er.handler.ServeHTTP)
	}

	// Observability endpoints (no session required).
	s.okapi.Get("/healthz", s.handleLiveness)
	s.okapi.Get("/readyz", s.handleReadiness)

	if s.config.MetricsRegistry != nil {
		path := s.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.okapi.HandleStd("GET", path, promhttp.HandlerFor(s.config.MetricsRegistry, promhttp.HandlerOpts{}).ServeHTTP)
	}
	if s.config.EnableDocs {
		s.WithOpenAPIDocs()
	}
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("http api stopping")
	return s.okapi.Shutdown(s.server)
}

// Handler builds the routes and returns the router as an http.Handler.
// Used by tests; Start is the production entry point.
func (s *Server) Handler() http.Handler {
	s.register()
	return s.okapi
}

// --- Session identification ---

// session reads the acting profile from the X-Profile-ID header and stores it
// in the request context. The header is not validated; identity is
// client-asserted.
func (s *Server) session(next okapi.HandlerFunc) okapi.HandlerFunc {
	return func(c *okapi.Context) error {
		if id := c.Header("X-Profile-ID"); id != "" {
			c.Set("profileID", id)
		}
		return next(c)
	}
}

// requireProfile returns the acting profile id or an unauthorized response.
func (s *Server) requireProfile(c *okapi.Context) (string, error) {
	profileID := c.GetString("profileID")
	if profileID == "" {
		return "", c.AbortUnauthorized("X-Profile-ID header is required")
	}
	return profileID, nil
}

// allow applies the per-profile rate limit. Anonymous requests are keyed by
// client address.
func (s *Server) allow(c *okapi.Context) error {
	if s.limiter == nil {
		return nil
	}
	key := c.GetString("profileID")
	if key == "" {
		key = c.Request().RemoteAddr
	}
	if err := s.limiter.Allow(key); err != nil {
		return c.AbortTooManyRequests("rate limit exceeded")
	}
	return nil
}

// --- Ops handlers ---

// HealthResponse is the JSON response for liveness/readiness endpoints.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleLiveness is the Kubernetes liveness probe.
func (s *Server) handleLiveness(c *okapi.Context) error {
	return c.OK(&HealthResponse{Status: "ok"})
}

// handleReadiness checks all registered dependencies and returns 200 or 503.
func (s *Server) handleReadiness(c *okapi.Context) error {
	if s.config.HealthChecker == nil {
		return c.OK(&HealthResponse{Status: "ok"})
	}

	status := s.config.HealthChecker.CheckReady(c.Context())
	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

// --- Helpers ---

// notFoundOrInternal maps store errors to 404 or 500.
func notFoundOrInternal(c *okapi.Context, err error, entity string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return c.JSON(http.StatusNotFound, okapi.M{"error": entity + " not found"})
	}
	return c.AbortInternalServerError("storage error")
}
