package server

import (
	"net/http"
	"strconv"

	"github.com/aimerfeng/SkillSwap/internal/cache"
	"github.com/aimerfeng/SkillSwap/internal/catalog"
	"github.com/aimerfeng/SkillSwap/internal/config"
	"github.com/aimerfeng/SkillSwap/internal/conversation"
	apierrors "github.com/aimerfeng/SkillSwap/internal/errors"
	"github.com/aimerfeng/SkillSwap/internal/exchange"
	"github.com/aimerfeng/SkillSwap/internal/logging"
	"github.com/aimerfeng/SkillSwap/internal/middleware"
	"github.com/aimerfeng/SkillSwap/internal/monitoring"
	"github.com/aimerfeng/SkillSwap/internal/offering"
	"github.com/aimerfeng/SkillSwap/internal/participant"
	"github.com/aimerfeng/SkillSwap/internal/rating"
	"github.com/aimerfeng/SkillSwap/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// APIServer represents the main API server
type APIServer struct {
	config           *config.Config
	router           *gin.Engine
	store            store.Store
	redis            *cache.Redis
	jwtAuthenticator *middleware.JWTAuthenticator

	participants  *participant.Service
	catalog       *catalog.Service
	offerings     *offering.Service
	exchanges     *exchange.Service
	reputation    *rating.Aggregator
	conversations *conversation.Service
}

// NewAPIServer creates a new API server instance over the given store.
// redis may be nil; the reputation cache and rate limiter then bypass it.
func NewAPIServer(cfg *config.Config, st store.Store, redis *cache.Redis) *APIServer {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware in order
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	router.Use(monitoring.MetricsMiddleware())
	router.Use(logging.RequestLogger())

	participants := participant.NewService(st)
	skills := catalog.NewService(st)
	offerings := offering.NewService(st, skills, participants)
	reputation := rating.NewAggregator(st, redis, cfg.Redis.ReputationTTL)
	exchanges := exchange.NewService(st, participants, offerings, reputation)
	conversations := conversation.NewService(st, exchanges, participants)

	srv := &APIServer{
		config:           cfg,
		router:           router,
		store:            st,
		redis:            redis,
		jwtAuthenticator: middleware.NewJWTAuthenticator(&cfg.JWT),
		participants:     participants,
		catalog:          skills,
		offerings:        offerings,
		exchanges:        exchanges,
		reputation:       reputation,
		conversations:    conversations,
	}

	srv.setupRoutes()
	return srv
}

// Router returns the gin router
func (s *APIServer) Router() http.Handler {
	return s.router
}

// Exchanges exposes the lifecycle service for background jobs
func (s *APIServer) Exchanges() *exchange.Service {
	return s.exchanges
}

// setupRoutes configures all API routes
func (s *APIServer) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	v1 := s.router.Group("/api/v1")
	v1.Use(s.jwtAuthenticator.JWTAuth())
	if s.config.RateLimit.Enabled {
		v1.Use(middleware.RateLimit(cache.NewRateLimiter(s.redis, &s.config.RateLimit)))
	}
	{
		participants := v1.Group("/participants")
		{
			participants.POST("", middleware.RequireAdmin(), s.handleRegisterParticipant)
			participants.GET("/:id", s.handleGetParticipant)
			participants.GET("/:id/reputation", s.handleGetReputation)
			participants.GET("/:id/offerings", s.handleParticipantOfferings)
		}

		skills := v1.Group("/skills")
		{
			skills.GET("", s.handleListSkills)
			skills.GET("/search", s.handleSearchSkills)
			skills.GET("/categories", s.handleListCategories)
			skills.GET("/popular", s.handlePopularSkills)
			skills.GET("/:id", s.handleGetSkill)
			skills.GET("/:id/offerings", s.handleAvailableOfferings)
			skills.GET("/:id/providers/count", s.handleCountProviders)

			skills.POST("", middleware.RequireAdmin(), s.handleRegisterSkill)
			skills.PUT("/:id", middleware.RequireAdmin(), s.handleUpdateSkill)
			skills.POST("/:id/deactivate", middleware.RequireAdmin(), s.handleDeactivateSkill)
			skills.POST("/:id/reactivate", middleware.RequireAdmin(), s.handleReactivateSkill)
		}

		offerings := v1.Group("/offerings")
		{
			offerings.POST("", s.handleRegisterOffering)
			offerings.GET("/me", s.handleMyOfferings)
			offerings.GET("/category/:category", s.handleOfferingsByCategory)
			offerings.GET("/search", s.handleSearchOfferings)
			offerings.GET("/:id", s.handleGetOffering)
			offerings.PUT("/:id", s.handleUpdateOffering)
			offerings.DELETE("/:id", s.handleDeleteOffering)
		}

		exchanges := v1.Group("/exchanges")
		{
			exchanges.POST("", s.handleCreateExchange)
			exchanges.GET("", s.handleListExchanges)
			exchanges.GET("/active", s.handleActiveExchanges)
			exchanges.GET("/:id", s.handleGetExchange)
			exchanges.GET("/:id/messages", s.handleExchangeThread)
			exchanges.POST("/:id/accept", s.handleAcceptExchange)
			exchanges.POST("/:id/reject", s.handleRejectExchange)
			exchanges.POST("/:id/schedule", s.handleScheduleExchange)
			exchanges.POST("/:id/start", s.handleStartExchange)
			exchanges.POST("/:id/cancel", s.handleCancelExchange)
			exchanges.POST("/:id/rate", s.handleRateExchange)
		}

		messages := v1.Group("/messages")
		{
			messages.POST("", s.handleSendMessage)
			messages.GET("/partners", s.handleConversationPartners)
			messages.GET("/unread", s.handleUnreadCount)
			messages.GET("/with/:participantId", s.handleConversation)
			messages.POST("/:id/attach", s.handleAttachMessage)
		}
	}
}

// Health check handler
func (s *APIServer) healthCheck(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	if err := s.store.Ping(c.Request.Context()); err != nil {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":  status,
		"service": "api",
		"cache":   s.redis.Available(),
		"breaker": s.redis.BreakerState(),
	})
}

// respondError sends a standardized error response
func respondError(c *gin.Context, err *apierrors.APIError) {
	response := apierrors.NewErrorResponse(
		err,
		middleware.GetRequestIDFromContext(c),
		middleware.GetCorrelationIDFromContext(c),
		c.Request.URL.Path,
		c.Request.Method,
	)
	c.JSON(response.Error.HTTPStatus, response)
}

// respondDomainError maps a service error onto the API envelope, logging
// anything that is not part of the domain taxonomy
func respondDomainError(c *gin.Context, operation string, err error) {
	apiErr := apierrors.FromDomain(err)
	if apiErr.Code == apierrors.ErrInternalServer {
		logging.LogError(err, middleware.GetRequestIDFromContext(c), "api", operation)
	}
	respondError(c, apiErr)
}

// actor returns the authenticated participant, responding 401 when absent
func actor(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetParticipantIDFromContext(c)
	if !ok {
		respondError(c, apierrors.ErrUnauthorizedError)
	}
	return id, ok
}

// uuidParam parses a path parameter, responding 400 when malformed
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the request body, responding 400 on failure
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return false
	}
	return true
}

// queryLimit reads ?limit=, falling back to def for missing or invalid values
func queryLimit(c *gin.Context, def int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}
