package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appsuggestion "github.com/kruger4712/mealprep/internal/application/suggestion"
	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	apperrors "github.com/kruger4712/mealprep/pkg/errors"
)

type stubService struct {
	result *appsuggestion.Result
	err    error

	lastReq  suggestion.SuggestionRequest
	lastTier string
}

func (s *stubService) GenerateSuggestions(ctx context.Context, req suggestion.SuggestionRequest, tier string) (*appsuggestion.Result, error) {
	s.lastReq = req
	s.lastTier = tier
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newTestRouter(service *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handler := NewSuggestionHandler(service, zap.NewNop())
	engine.POST("/api/v1/suggestions", handler.Generate)
	return engine
}

func postSuggestion(t *testing.T, engine *gin.Engine, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/suggestions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func validBody() map[string]interface{} {
	return map[string]interface{}{
		"requester_id": uuid.New().String(),
		"type":         "meal_suggestion",
		"prompt":       "easy weeknight dinner",
		"tier":         "premium",
		"constraints": map[string]interface{}{
			"budget_cents": 1500,
			"servings":     4,
		},
	}
}

func TestGenerateHappyPath(t *testing.T) {
	service := &stubService{
		result: &appsuggestion.Result{
			Candidates: []suggestion.ParsedCandidate{{Name: "Chicken Stir Fry", Servings: 4}},
			ServedFrom: suggestion.LevelPrimary,
			Decisions: []suggestion.FallbackDecision{
				{Level: suggestion.LevelPrimary, Succeeded: true},
			},
		},
	}
	engine := newTestRouter(service)

	rec := postSuggestion(t, engine, validBody())

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "primary", body["served_from"])
	assert.NotEmpty(t, body["request_id"])

	candidates, ok := body["candidates"].([]interface{})
	require.True(t, ok)
	require.Len(t, candidates, 1)

	assert.Equal(t, "premium", service.lastTier)
	assert.Equal(t, suggestion.TypeMealSuggestion, service.lastReq.Type)
	assert.Equal(t, 1500, service.lastReq.Constraints.BudgetCents)
}

func TestGenerateRejectsMissingFields(t *testing.T) {
	engine := newTestRouter(&stubService{})

	body := validBody()
	delete(body, "prompt")

	rec := postSuggestion(t, engine, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateRejectsBadRequesterID(t *testing.T) {
	engine := newTestRouter(&stubService{})

	body := validBody()
	body["requester_id"] = "not-a-uuid"

	rec := postSuggestion(t, engine, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "exhausted",
			err:    apperrors.NewOrchestrationExhausted([]string{"primary"}, []string{"timeout"}),
			status: http.StatusServiceUnavailable,
			code:   "ORCHESTRATION_EXHAUSTED",
		},
		{
			name:   "budget",
			err:    apperrors.NewBudgetExceeded("projected spend over hard limit", 40),
			status: http.StatusPaymentRequired,
			code:   "BUDGET_EXCEEDED",
		},
		{
			name:   "rate",
			err:    apperrors.NewRateLimited("hourly ceiling reached"),
			status: http.StatusTooManyRequests,
			code:   "RATE_LIMITED",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := newTestRouter(&stubService{err: tc.err})

			rec := postSuggestion(t, engine, validBody())

			assert.Equal(t, tc.status, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body["code"])
		})
	}
}

func TestGenerateHidesInternalErrorText(t *testing.T) {
	engine := newTestRouter(&stubService{err: fmt.Errorf("dial tcp 10.0.0.5:11434: connection refused")})

	rec := postSuggestion(t, engine, validBody())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handler := NewHealthHandler(stubHealth{})
	engine.GET("/health", handler.Check)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])

	providers, ok := body["providers"].([]interface{})
	require.True(t, ok)
	assert.Len(t, providers, 2)
}

type stubHealth struct{}

func (stubHealth) Status(provider string) suggestion.HealthStatus {
	return suggestion.HealthStatus{
		Provider:    provider,
		WindowStart: time.Now().Add(-5 * time.Minute),
	}
}
