package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aimerfeng/SkillSwap/internal/catalog"
	"github.com/aimerfeng/SkillSwap/internal/config"
	apierrors "github.com/aimerfeng/SkillSwap/internal/errors"
	"github.com/aimerfeng/SkillSwap/internal/middleware"
	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/participant"
	"github.com/aimerfeng/SkillSwap/internal/rating"
	"github.com/aimerfeng/SkillSwap/internal/store/memory"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing-32chars"

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	t      *testing.T
	srv    *APIServer
	admin  *models.Participant
	tokens map[uuid.UUID]string
}

func newTestEnv(t *testing.T) *testEnv {
	cfg := &config.Config{
		Server: config.ServerConfig{Env: "test"},
		JWT:    config.JWTConfig{Secret: testSecret, Issuer: "skillswap"},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Redis:  config.RedisConfig{ReputationTTL: time.Minute},
	}
	env := &testEnv{
		t:      t,
		srv:    NewAPIServer(cfg, memory.New(), nil),
		tokens: make(map[uuid.UUID]string),
	}
	env.admin = env.participant("admin", models.ParticipantRoleAdmin)
	return env
}

// Helper function to create a test JWT token
func createTestJWTToken(secret string, p *models.Participant, subject string, expiry time.Duration) string {
	now := time.Now()
	claims := &middleware.Claims{
		ParticipantID: p.ID.String(),
		Role:          string(p.Role),
		Username:      p.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    "skillswap",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(secret))
	return tokenString
}

func (env *testEnv) participant(username string, role models.ParticipantRole) *models.Participant {
	p, err := env.srv.participants.Register(context.Background(), &participant.RegisterRequest{Username: username, Role: role})
	require.NoError(env.t, err)
	env.tokens[p.ID] = createTestJWTToken(testSecret, p, "access", 15*time.Minute)
	return p
}

func (env *testEnv) skill(name, category string) *models.Skill {
	sk, err := env.srv.catalog.Register(context.Background(), &catalog.RegisterSkillRequest{Name: name, Category: category})
	require.NoError(env.t, err)
	return sk
}

// do sends a JSON request as p (anonymous when p is nil) and decodes the response into out
func (env *testEnv) do(p *models.Participant, method, path string, body any, out any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(env.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p != nil {
		req.Header.Set("Authorization", "Bearer "+env.tokens[p.ID])
	}
	w := httptest.NewRecorder()
	env.srv.Router().ServeHTTP(w, req)

	if out != nil && w.Body.Len() > 0 {
		require.NoError(env.t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w
}

func (env *testEnv) requireError(w *httptest.ResponseRecorder, status int, code apierrors.ErrorCode) {
	env.t.Helper()
	require.Equal(env.t, status, w.Code, w.Body.String())
	var resp apierrors.ErrorResponse
	require.NoError(env.t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(env.t, code, resp.Error.Code)
	require.NotEmpty(env.t, resp.RequestID)
}

func (env *testEnv) offer(p *models.Participant, skill *models.Skill) {
	w := env.do(p, "POST", "/api/v1/offerings", map[string]any{
		"skill_id":    skill.ID,
		"polarity":    "OFFER",
		"proficiency": 4,
	}, nil)
	require.Equal(env.t, http.StatusCreated, w.Code, w.Body.String())
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)
	var body map[string]any
	w := env.do(nil, "GET", "/health", nil, &body)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, false, body["cache"])
	require.Equal(t, "closed", body["breaker"])
}

func TestAPI_RequiresBearerToken(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(nil, "GET", "/api/v1/skills", nil, nil)
	env.requireError(w, http.StatusUnauthorized, apierrors.ErrUnauthorized)
}

func TestAPI_SkillAdministrationRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	member := env.participant("member", models.ParticipantRoleMember)

	body := map[string]any{"name": "Guitar", "category": "Music"}
	w := env.do(member, "POST", "/api/v1/skills", body, nil)
	env.requireError(w, http.StatusForbidden, apierrors.ErrForbidden)

	var created models.Skill
	w = env.do(env.admin, "POST", "/api/v1/skills", body, &created)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(env.admin, "POST", "/api/v1/skills", map[string]any{"name": "guitar", "category": "Music"}, nil)
	env.requireError(w, http.StatusConflict, apierrors.ErrDuplicateName)

	var deactivated models.Skill
	w = env.do(env.admin, "POST", "/api/v1/skills/"+created.ID.String()+"/deactivate", nil, &deactivated)
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, deactivated.Active)

	var list struct {
		Skills []models.Skill `json:"skills"`
	}
	w = env.do(member, "GET", "/api/v1/skills", nil, &list)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, list.Skills)
}

func TestAPI_MalformedIDs(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(env.admin, "GET", "/api/v1/exchanges/not-a-uuid", nil, nil)
	env.requireError(w, http.StatusBadRequest, apierrors.ErrInvalidRequest)

	w = env.do(env.admin, "GET", "/api/v1/exchanges/"+uuid.NewString(), nil, nil)
	env.requireError(w, http.StatusNotFound, apierrors.ErrExchangeNotFound)
}

// TestAPI_ExchangeLifecycle walks an exchange from proposal to completion
// and checks the resulting reputation
func TestAPI_ExchangeLifecycle(t *testing.T) {
	env := newTestEnv(t)
	requester := env.participant("rita", models.ParticipantRoleMember)
	provider := env.participant("paul", models.ParticipantRoleMember)
	outsider := env.participant("olga", models.ParticipantRoleMember)
	guitar := env.skill("Guitar", "Music")
	spanish := env.skill("Spanish", "Languages")

	env.offer(provider, guitar)

	create := map[string]any{
		"provider_id":        provider.ID,
		"requested_skill_id": guitar.ID,
		"offered_skill_id":   spanish.ID,
	}
	w := env.do(requester, "POST", "/api/v1/exchanges", create, nil)
	env.requireError(w, http.StatusBadRequest, apierrors.ErrInvalidPairing)

	env.offer(requester, spanish)

	var e models.Exchange
	w = env.do(requester, "POST", "/api/v1/exchanges", create, &e)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, models.ExchangeStatusPending, e.Status)
	base := "/api/v1/exchanges/" + e.ID.String()

	w = env.do(outsider, "GET", base, nil, nil)
	env.requireError(w, http.StatusForbidden, apierrors.ErrForbidden)

	w = env.do(requester, "POST", base+"/accept", nil, nil)
	env.requireError(w, http.StatusForbidden, apierrors.ErrForbidden)

	w = env.do(provider, "POST", base+"/accept", nil, &e)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.ExchangeStatusAccepted, e.Status)

	w = env.do(provider, "POST", base+"/rate", map[string]any{"rating": 4}, nil)
	env.requireError(w, http.StatusConflict, apierrors.ErrIllegalTransition)

	when := time.Date(2030, 1, 2, 15, 0, 0, 0, time.UTC)
	w = env.do(requester, "POST", base+"/schedule", map[string]any{"scheduled_at": when}, &e)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, models.ExchangeStatusInProgress, e.Status)
	require.NotNil(t, e.ScheduledAt)
	require.True(t, when.Equal(*e.ScheduledAt))

	w = env.do(requester, "POST", base+"/rate", map[string]any{"rating": 9}, nil)
	env.requireError(w, http.StatusBadRequest, apierrors.ErrInvalidRating)

	w = env.do(requester, "POST", base+"/rate", map[string]any{"rating": 5, "feedback": "great teacher"}, &e)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.ExchangeStatusInProgress, e.Status)

	w = env.do(requester, "POST", base+"/rate", map[string]any{"rating": 5}, nil)
	env.requireError(w, http.StatusConflict, apierrors.ErrDuplicateRating)

	w = env.do(provider, "POST", base+"/rate", map[string]any{"rating": 4}, &e)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.ExchangeStatusCompleted, e.Status)
	require.NotNil(t, e.CompletedAt)

	w = env.do(provider, "POST", base+"/cancel", map[string]any{"reason": "too late"}, nil)
	env.requireError(w, http.StatusConflict, apierrors.ErrIllegalTransition)

	var summary rating.Summary
	w = env.do(outsider, "GET", "/api/v1/participants/"+provider.ID.String()+"/reputation", nil, &summary)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, summary.AverageAsProvider.Valid)
	require.True(t, summary.AverageAsProvider.Decimal.Equal(decimal.NewFromInt(5)))
	require.False(t, summary.AverageAsRequester.Valid)
	require.EqualValues(t, 1, summary.CompletedCount)

	var list struct {
		Exchanges []models.Exchange `json:"exchanges"`
	}
	w = env.do(requester, "GET", "/api/v1/exchanges?status=completed", nil, &list)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, list.Exchanges, 1)

	w = env.do(requester, "GET", "/api/v1/exchanges/active", nil, &list)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, list.Exchanges)

	w = env.do(requester, "GET", "/api/v1/exchanges?status=UNKNOWN", nil, nil)
	env.requireError(w, http.StatusBadRequest, apierrors.ErrValidationFailed)
}

func TestAPI_CancelStoresReason(t *testing.T) {
	env := newTestEnv(t)
	requester := env.participant("rita", models.ParticipantRoleMember)
	provider := env.participant("paul", models.ParticipantRoleMember)
	guitar := env.skill("Guitar", "Music")
	spanish := env.skill("Spanish", "Languages")
	env.offer(provider, guitar)
	env.offer(requester, spanish)

	var e models.Exchange
	w := env.do(requester, "POST", "/api/v1/exchanges", map[string]any{
		"provider_id":        provider.ID,
		"requested_skill_id": guitar.ID,
		"offered_skill_id":   spanish.ID,
	}, &e)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(requester, "POST", "/api/v1/exchanges/"+e.ID.String()+"/cancel", map[string]any{"reason": "changed my mind"}, &e)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.ExchangeStatusCancelled, e.Status)
	require.NotNil(t, e.RequesterFeedback)
	require.Equal(t, "changed my mind", *e.RequesterFeedback)
}

func TestAPI_MessagesLinkedToExchange(t *testing.T) {
	env := newTestEnv(t)
	requester := env.participant("rita", models.ParticipantRoleMember)
	provider := env.participant("paul", models.ParticipantRoleMember)
	outsider := env.participant("olga", models.ParticipantRoleMember)
	guitar := env.skill("Guitar", "Music")
	spanish := env.skill("Spanish", "Languages")
	env.offer(provider, guitar)
	env.offer(requester, spanish)

	var e models.Exchange
	w := env.do(requester, "POST", "/api/v1/exchanges", map[string]any{
		"provider_id":        provider.ID,
		"requested_skill_id": guitar.ID,
		"offered_skill_id":   spanish.ID,
	}, &e)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(outsider, "POST", "/api/v1/messages", map[string]any{
		"receiver_id": provider.ID,
		"content":     "hi",
		"exchange_id": e.ID,
	}, nil)
	env.requireError(w, http.StatusBadRequest, apierrors.ErrInvalidLink)

	var m models.Message
	w = env.do(requester, "POST", "/api/v1/messages", map[string]any{
		"receiver_id": provider.ID,
		"content":     "when are you free?",
		"exchange_id": e.ID,
	}, &m)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var unread map[string]int64
	w = env.do(provider, "GET", "/api/v1/messages/unread", nil, &unread)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 1, unread["unread"])

	var thread struct {
		Messages []models.Message `json:"messages"`
	}
	w = env.do(provider, "GET", "/api/v1/exchanges/"+e.ID.String()+"/messages", nil, &thread)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, thread.Messages, 1)
	require.Equal(t, m.ID, thread.Messages[0].ID)

	w = env.do(outsider, "GET", "/api/v1/exchanges/"+e.ID.String()+"/messages", nil, nil)
	env.requireError(w, http.StatusForbidden, apierrors.ErrForbidden)

	w = env.do(provider, "GET", "/api/v1/messages/with/"+requester.ID.String(), nil, &thread)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, thread.Messages, 1)

	w = env.do(provider, "GET", "/api/v1/messages/unread", nil, &unread)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 0, unread["unread"])
}

func TestAPI_OfferingOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.participant("owner", models.ParticipantRoleMember)
	other := env.participant("other", models.ParticipantRoleMember)
	guitar := env.skill("Guitar", "Music")

	var o models.SkillOffering
	w := env.do(owner, "POST", "/api/v1/offerings", map[string]any{
		"skill_id":    guitar.ID,
		"polarity":    "OFFER",
		"proficiency": 3,
	}, &o)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(owner, "POST", "/api/v1/offerings", map[string]any{
		"skill_id":    guitar.ID,
		"polarity":    "OFFER",
		"proficiency": 5,
	}, nil)
	env.requireError(w, http.StatusConflict, apierrors.ErrConflict)

	w = env.do(other, "DELETE", "/api/v1/offerings/"+o.ID.String(), nil, nil)
	env.requireError(w, http.StatusForbidden, apierrors.ErrNotOwner)

	var count map[string]any
	w = env.do(other, "GET", "/api/v1/skills/"+guitar.ID.String()+"/providers/count", nil, &count)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 1, count["providers"])

	w = env.do(other, "GET", "/api/v1/offerings/search?q=guit", nil, nil)
	env.requireError(w, http.StatusBadRequest, apierrors.ErrValidationFailed)

	var found struct {
		Offerings []models.SkillOffering `json:"offerings"`
	}
	w = env.do(other, "GET", "/api/v1/offerings/search?q=guit&polarity=OFFER", nil, &found)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, found.Offerings, 1)

	w = env.do(owner, "DELETE", "/api/v1/offerings/"+o.ID.String(), nil, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
}
