package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinical-cds-server/internal/config"
	"github.com/clinical-cds-server/internal/domain"
	"github.com/clinical-cds-server/internal/feedback"
	"github.com/clinical-cds-server/internal/knowledge"
	"github.com/clinical-cds-server/internal/service"
)

// stubDecisionSupport records calls and returns a canned result
type stubDecisionSupport struct {
	lastPatientID string
	result        *domain.ComprehensiveResult
	err           error
}

func (s *stubDecisionSupport) AssessAndDiagnose(ctx context.Context, patientID string, symptoms []string, patientCtx domain.PatientContext, findings []domain.ClinicalFinding) (*domain.ComprehensiveResult, error) {
	s.lastPatientID = patientID
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestServer(t *testing.T, stub *stubDecisionSupport) *Server {
	t.Helper()

	logger := testLogger()
	provider, err := knowledge.NewProvider(logger)
	require.NoError(t, err)

	tmpDir, err := os.MkdirTemp("", "api-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	store, err := feedback.NewSQLiteStore(filepath.Join(tmpDir, "feedback.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		Server:    config.ServerConfig{Host: "127.0.0.1", Port: 0},
		RateLimit: config.RateLimitConfig{Enabled: false},
		Logging:   config.LoggingConfig{Level: "info"},
	}

	return NewServer(cfg, logger, Dependencies{
		Service:   stub,
		Risk:      service.NewRiskAssessor(logger),
		Knowledge: provider,
		Feedback:  store,
	})
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, &stubDecisionSupport{})

	w := doJSON(t, srv, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHandleDiagnose(t *testing.T) {
	stub := &stubDecisionSupport{
		result: &domain.ComprehensiveResult{
			PatientID: "PT-1",
			Risk:      domain.RiskAssessmentResult{Level: domain.MODERATE_RISK},
			Diagnoses: []domain.DiagnosticSuggestion{},
		},
	}
	srv := newTestServer(t, stub)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/diagnose", DiagnoseRequest{
		PatientID:      "PT-1",
		Symptoms:       []string{"chest_pain"},
		PatientContext: domain.PatientContext{Age: 55, Gender: "male"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PT-1", stub.lastPatientID)

	var resp domain.ComprehensiveResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.MODERATE_RISK, resp.Risk.Level)
}

func TestHandleDiagnose_MissingPatientID(t *testing.T) {
	srv := newTestServer(t, &stubDecisionSupport{})

	w := doJSON(t, srv, http.MethodPost, "/api/v1/diagnose", map[string]interface{}{
		"symptoms": []string{"chest_pain"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrInvalidInput)
}

func TestHandleDiagnose_ValidationErrorFromService(t *testing.T) {
	stub := &stubDecisionSupport{err: domain.NewValidationError("symptoms", "at least one symptom or clinical finding is required", nil)}
	srv := newTestServer(t, stub)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/diagnose", DiagnoseRequest{PatientID: "PT-2"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRisk(t *testing.T) {
	srv := newTestServer(t, &stubDecisionSupport{})

	w := doJSON(t, srv, http.MethodPost, "/api/v1/risk", RiskRequest{
		Symptoms:       []string{"chest_pain", "shortness_of_breath", "diaphoresis"},
		PatientContext: domain.PatientContext{Age: 60, Gender: "male", MedicalHistory: []string{"hypertension"}},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp domain.RiskAssessmentResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.GreaterOrEqual(t, resp.SymptomScore, 0.9)
	assert.Equal(t, domain.CRITICAL_RISK, resp.Level)
}

func TestHandleRisk_EmptyInput(t *testing.T) {
	srv := newTestServer(t, &stubDecisionSupport{})

	w := doJSON(t, srv, http.MethodPost, "/api/v1/risk", RiskRequest{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetCondition(t *testing.T) {
	srv := newTestServer(t, &stubDecisionSupport{})

	w := doJSON(t, srv, http.MethodGet, "/api/v1/conditions/myocardial_infarction", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var profile domain.ConditionProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "myocardial_infarction", profile.Key)
	assert.True(t, profile.Emergency)
}

func TestHandleGetCondition_NotFound(t *testing.T) {
	srv := newTestServer(t, &stubDecisionSupport{})

	w := doJSON(t, srv, http.MethodGet, "/api/v1/conditions/unknown_condition", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrKnowledgeLookupMiss)
}

func TestHandleSaveFeedback(t *testing.T) {
	srv := newTestServer(t, &stubDecisionSupport{})

	w := doJSON(t, srv, http.MethodPost, "/api/v1/feedback", FeedbackRequest{
		PatientID:         "PT-1",
		ConditionKey:      "pneumonia",
		SuggestedCategory: "differential",
		SuggestedPriority: "urgent",
		Verdict:           "agree",
	})

	require.Equal(t, http.StatusCreated, w.Code)

	// Listed back
	w = doJSON(t, srv, http.MethodGet, "/api/v1/feedback", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pneumonia")
}

func TestHandleSaveFeedback_InvalidVerdict(t *testing.T) {
	srv := newTestServer(t, &stubDecisionSupport{})

	w := doJSON(t, srv, http.MethodPost, "/api/v1/feedback", FeedbackRequest{
		PatientID:    "PT-1",
		ConditionKey: "pneumonia",
		Verdict:      "maybe",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetAlerts_NoStore(t *testing.T) {
	srv := newTestServer(t, &stubDecisionSupport{})

	w := doJSON(t, srv, http.MethodGet, "/api/v1/alerts/PT-1", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
