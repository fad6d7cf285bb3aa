package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aimerfeng/SkillSwap/internal/cache"
	"github.com/aimerfeng/SkillSwap/internal/config"
	apierrors "github.com/aimerfeng/SkillSwap/internal/errors"
	"github.com/aimerfeng/SkillSwap/internal/logging"
	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Context keys for storing participant information
const (
	ContextKeyParticipantID = "participant_id"
	ContextKeyRole          = "role"
	ContextKeyUsername      = "username"
	ContextKeyClaims        = "claims"
)

// Claims represents JWT claims. Tokens are issued by the identity service;
// this API only validates them.
type Claims struct {
	ParticipantID string `json:"participant_id"`
	Role          string `json:"role"`
	Username      string `json:"username"`
	jwt.RegisteredClaims
}

// JWTAuthenticator handles JWT token validation
type JWTAuthenticator struct {
	config *config.JWTConfig
}

// NewJWTAuthenticator creates a new JWT authenticator
func NewJWTAuthenticator(cfg *config.JWTConfig) *JWTAuthenticator {
	return &JWTAuthenticator{
		config: cfg,
	}
}

// JWTAuth creates a middleware that validates JWT tokens from the Authorization header
// and sets the acting participant in the context
func (j *JWTAuthenticator) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respondWithError(c, apierrors.ErrUnauthorizedError)
			c.Abort()
			return
		}

		tokenString, err := extractBearerToken(authHeader)
		if err != nil {
			respondWithError(c, apierrors.ErrUnauthorizedError)
			c.Abort()
			return
		}

		claims, err := j.ValidateAccessToken(tokenString)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				respondWithError(c, apierrors.ErrTokenExpiredError)
			} else {
				logging.LogSecurityEvent("invalid_token", "", c.ClientIP(), err.Error())
				respondWithError(c, apierrors.ErrUnauthorizedError)
			}
			c.Abort()
			return
		}

		c.Set(ContextKeyParticipantID, claims.ParticipantID)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeyUsername, claims.Username)
		c.Set(ContextKeyClaims, claims)

		c.Next()
	}
}

// ValidateAccessToken validates an access token and returns claims
func (j *JWTAuthenticator) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := j.validateToken(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.Subject != "access" {
		return nil, ErrInvalidToken
	}
	if j.config.Issuer != "" && claims.Issuer != j.config.Issuer {
		return nil, ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.ParticipantID); err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// validateToken parses and validates a JWT token
func (j *JWTAuthenticator) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.config.Secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// extractBearerToken extracts the token from a Bearer authorization header
func extractBearerToken(authHeader string) (string, error) {
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) || len(authHeader) == len(bearerPrefix) {
		return "", ErrInvalidToken
	}
	return authHeader[len(bearerPrefix):], nil
}

// JWT validation errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, err *apierrors.APIError) {
	reqIDStr := GetRequestIDFromContext(c)
	corrIDStr := GetCorrelationIDFromContext(c)
	if corrIDStr == "" {
		corrIDStr = reqIDStr
	}

	response := apierrors.NewErrorResponse(
		err,
		reqIDStr,
		corrIDStr,
		c.Request.URL.Path,
		c.Request.Method,
	)

	c.JSON(response.Error.HTTPStatus, response)
}

// RequireRole creates a middleware that checks if the participant has one of the required roles
// This middleware must be used after JWTAuth middleware
func RequireRole(allowedRoles ...models.ParticipantRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRoleFromContext(c)
		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}

		respondWithError(c, &apierrors.APIError{
			Code:       apierrors.ErrForbidden,
			Message:    fmt.Sprintf("Access denied. Required role: %v", allowedRoles),
			HTTPStatus: http.StatusForbidden,
		})
		c.Abort()
	}
}

// RequireAdmin is a convenience middleware that requires the admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.ParticipantRoleAdmin)
}

// GetParticipantIDFromContext returns the acting participant set by JWTAuth
func GetParticipantIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(ContextKeyParticipantID)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// GetRoleFromContext extracts the participant role from the gin context
func GetRoleFromContext(c *gin.Context) models.ParticipantRole {
	return models.ParticipantRole(c.GetString(ContextKeyRole))
}

// GetClaimsFromContext extracts the full claims from the gin context
// Returns nil if not found
func GetClaimsFromContext(c *gin.Context) *Claims {
	claims, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	return claims.(*Claims)
}

// RequestID adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// CorrelationID adds a correlation ID for distributed tracing
// It can be passed from upstream services or generated if not present
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader("X-Correlation-ID")
		if correlationID == "" {
			correlationID = c.GetString("request_id")
			if correlationID == "" {
				correlationID = uuid.New().String()
			}
		}
		c.Set("correlation_id", correlationID)
		c.Header("X-Correlation-ID", correlationID)
		c.Next()
	}
}

// GetCorrelationIDFromContext extracts the correlation ID from the gin context
func GetCorrelationIDFromContext(c *gin.Context) string {
	return c.GetString("correlation_id")
}

// GetRequestIDFromContext extracts the request ID from the gin context
func GetRequestIDFromContext(c *gin.Context) string {
	return c.GetString("request_id")
}

// CORS configures CORS headers
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, o := range allowedOrigins {
			if o == origin || o == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID, X-Correlation-ID")
			c.Header("Access-Control-Expose-Headers", "X-Request-ID, X-RateLimit-Remaining")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Max-Age", "43200") // 12 hours
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RateLimit applies the sliding window limiter per participant, or per client
// IP for anonymous requests
func RateLimit(limiter *cache.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, subjectType := c.GetString(ContextKeyParticipantID), "participant"
		if subject == "" {
			subject, subjectType = c.ClientIP(), "anonymous"
		}

		result, err := limiter.Check(c.Request.Context(), subject)
		if err != nil {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))

		if !result.Allowed {
			monitoring.RecordRateLimitHit(subjectType)
			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())+1))
			respondWithError(c, apierrors.ErrRateLimitedError)
			c.Abort()
			return
		}

		c.Next()
	}
}
