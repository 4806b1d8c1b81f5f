package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinical-cds-server/internal/domain"
	"github.com/clinical-cds-server/internal/knowledge"
)

// recordingSink captures emitted alerts and optionally fails
type recordingSink struct {
	alerts []domain.ClinicalAlert
	err    error
}

func (r *recordingSink) EmitAlert(ctx context.Context, alert domain.ClinicalAlert) error {
	r.alerts = append(r.alerts, alert)
	return r.err
}

// recordingStore captures persisted results and optionally fails
type recordingStore struct {
	results []*domain.ComprehensiveResult
	err     error
}

func (r *recordingStore) StoreResult(ctx context.Context, result *domain.ComprehensiveResult) error {
	r.results = append(r.results, result)
	return r.err
}

func newTestService(t *testing.T, sink domain.AlertSink, store domain.ResultStore) *DecisionSupportService {
	t.Helper()
	logger := testLogger()
	provider, err := knowledge.NewProvider(logger)
	require.NoError(t, err)
	return NewDecisionSupportService(logger, provider, nil, sink, store, nil)
}

func TestAssessAndDiagnose_EmptyPatientID(t *testing.T) {
	sink := &recordingSink{}
	store := &recordingStore{}
	svc := newTestService(t, sink, store)

	result, err := svc.AssessAndDiagnose(context.Background(), "", []string{"cough"}, domain.PatientContext{}, nil)

	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
	assert.Nil(t, result)
	assert.Empty(t, sink.alerts, "nothing downstream runs on input errors")
	assert.Empty(t, store.results)
}

func TestAssessAndDiagnose_NoSymptomsOrFindings(t *testing.T) {
	sink := &recordingSink{}
	store := &recordingStore{}
	svc := newTestService(t, sink, store)

	result, err := svc.AssessAndDiagnose(context.Background(), "PT-1", nil, domain.PatientContext{}, nil)

	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
	assert.Nil(t, result)
	assert.Empty(t, sink.alerts)
	assert.Empty(t, store.results)
}

func TestAssessAndDiagnose_EmergencyScenario(t *testing.T) {
	sink := &recordingSink{}
	store := &recordingStore{}
	svc := newTestService(t, sink, store)

	result, err := svc.AssessAndDiagnose(
		context.Background(),
		"PT-1",
		[]string{"chest_pain", "shortness_of_breath", "diaphoresis"},
		domain.PatientContext{Age: 60, Gender: "male", MedicalHistory: []string{"hypertension"}},
		nil,
	)

	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "PT-1", result.PatientID)
	assert.Equal(t, domain.CRITICAL_RISK, result.Risk.Level)

	// Alert emitted with critical severity, immediate timeline, 24h expiry
	require.Len(t, result.Alerts, 1)
	alert := result.Alerts[0]
	assert.Equal(t, domain.SEVERITY_CRITICAL, alert.Severity)
	assert.Equal(t, "immediate", alert.RecommendedTimeline)
	assert.NotEmpty(t, alert.ID)
	assert.Equal(t, "PT-1", alert.PatientID)
	assert.Equal(t, 24*time.Hour, alert.ExpiresAt.Sub(alert.CreatedAt))

	require.Len(t, sink.alerts, 1)
	assert.Equal(t, alert.ID, sink.alerts[0].ID)

	// Differential leads with myocardial infarction
	require.NotEmpty(t, result.Diagnoses)
	assert.Equal(t, "myocardial_infarction", result.Diagnoses[0].Hypothesis.ConditionKey)

	// Workup and confidence populated
	assert.NotNil(t, result.Workup.Immediate)
	assert.Equal(t, result.Diagnoses[0].Hypothesis.Probability, result.Confidence.DiagnosticConfidence)
	assert.Equal(t, 3, result.Confidence.EvidenceCount)

	// Result persisted
	require.Len(t, store.results, 1)
	assert.Equal(t, result, store.results[0])
}

func TestAssessAndDiagnose_LowRiskNoAlert(t *testing.T) {
	sink := &recordingSink{}
	store := &recordingStore{}
	svc := newTestService(t, sink, store)

	result, err := svc.AssessAndDiagnose(
		context.Background(),
		"PT-2",
		[]string{"heartburn"},
		domain.PatientContext{Age: 30, Gender: "female"},
		nil,
	)

	require.NoError(t, err)
	assert.Equal(t, domain.LOW_RISK, result.Risk.Level)
	assert.Empty(t, result.Alerts)
	assert.Empty(t, sink.alerts)
}

func TestAssessAndDiagnose_SinkFailureDoesNotFail(t *testing.T) {
	sink := &recordingSink{err: errors.New("sink down")}
	store := &recordingStore{err: errors.New("db down")}
	svc := newTestService(t, sink, store)

	result, err := svc.AssessAndDiagnose(
		context.Background(),
		"PT-3",
		[]string{"chest_pain", "shortness_of_breath", "diaphoresis"},
		domain.PatientContext{Age: 60, Gender: "male"},
		nil,
	)

	require.NoError(t, err, "sink and store failures never surface")
	require.NotNil(t, result)
	assert.Len(t, result.Alerts, 1, "alert still included in the result")
}

func TestAssessAndDiagnose_NilSinksSkipped(t *testing.T) {
	svc := newTestService(t, nil, nil)

	result, err := svc.AssessAndDiagnose(
		context.Background(),
		"PT-4",
		[]string{"chest_pain", "shortness_of_breath", "diaphoresis"},
		domain.PatientContext{Age: 60},
		nil,
	)

	require.NoError(t, err)
	assert.Len(t, result.Alerts, 1)
}

func TestAssessAndDiagnose_EmptyDifferentialIsNonNil(t *testing.T) {
	logger := testLogger()
	svc := NewDecisionSupportService(logger, &missProvider{}, nil, nil, nil, nil)

	result, err := svc.AssessAndDiagnose(
		context.Background(),
		"PT-5",
		[]string{"cough"},
		domain.PatientContext{Age: 40},
		nil,
	)

	require.NoError(t, err)
	assert.NotNil(t, result.Diagnoses)
	assert.Empty(t, result.Diagnoses)
	assert.Equal(t, 0, result.Confidence.HypothesisCount)
}
