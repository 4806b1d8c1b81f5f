package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/clinical-cds-server/internal/cache"
	"github.com/clinical-cds-server/internal/domain"
)

// DecisionSupportService sequences risk assessment, differential diagnosis,
// suggestion generation, and workup planning into one composite response.
// It is request-scoped and stateless apart from the read-only knowledge
// tables, so concurrent requests need no coordination.
type DecisionSupportService struct {
	logger      *logrus.Logger
	risk        *RiskAssessor
	reasoning   *ReasoningEngine
	suggestions *SuggestionEngine
	workup      *WorkupPlanner
	alertSink   domain.AlertSink
	store       domain.ResultStore
	assessments *cache.AssessmentCache
}

// NewDecisionSupportService wires the pipeline stages together. alertSink,
// store, and assessments may be nil; the corresponding step is skipped.
func NewDecisionSupportService(
	logger *logrus.Logger,
	knowledge domain.KnowledgeProvider,
	enricher domain.NarrativeEnricher,
	alertSink domain.AlertSink,
	store domain.ResultStore,
	assessments *cache.AssessmentCache,
) *DecisionSupportService {
	return &DecisionSupportService{
		logger:      logger,
		risk:        NewRiskAssessor(logger),
		reasoning:   NewReasoningEngine(logger, knowledge),
		suggestions: NewSuggestionEngine(logger, enricher),
		workup:      NewWorkupPlanner(logger),
		alertSink:   alertSink,
		store:       store,
		assessments: assessments,
	}
}

// AssessAndDiagnose runs the full pipeline for one patient presentation.
// Input errors fail fast; sink and persistence failures are logged and never
// change the returned result.
func (d *DecisionSupportService) AssessAndDiagnose(ctx context.Context, patientID string, symptoms []string, patientCtx domain.PatientContext, findings []domain.ClinicalFinding) (*domain.ComprehensiveResult, error) {
	startTime := time.Now()

	if patientID == "" {
		return nil, domain.NewValidationError("patient_id", "patient ID is required", patientID)
	}
	if len(symptoms) == 0 && len(findings) == 0 {
		return nil, domain.NewValidationError("symptoms", "at least one symptom or clinical finding is required", symptoms)
	}

	if cached, ok := d.assessments.Get(ctx, patientID, symptoms, patientCtx, findings); ok {
		d.logger.WithField("patient_id", patientID).Debug("Serving assessment from cache")
		return cached, nil
	}

	d.logger.WithFields(logrus.Fields{
		"patient_id": patientID,
		"symptoms":   len(symptoms),
		"findings":   len(findings),
	}).Info("Starting clinical decision support pipeline")

	// Stage 1: risk assessment, independent of the diagnostic stages
	riskResult := d.risk.AssessRisk(symptoms, patientCtx, findings)

	alerts := make([]domain.ClinicalAlert, 0, 1)
	if riskResult.Level == domain.CRITICAL_RISK || riskResult.Level == domain.HIGH_RISK {
		alert := buildAlert(patientID, riskResult)
		d.emitAlert(ctx, alert)
		alerts = append(alerts, alert)
	}

	// Stage 2: differential diagnosis
	hypotheses, err := d.reasoning.DifferentialDiagnosis(ctx, symptoms, patientCtx, findings)
	if err != nil {
		return nil, fmt.Errorf("differential diagnosis failed: %w", err)
	}
	if len(hypotheses) == 0 {
		d.logger.WithField("patient_id", patientID).Warn("No diagnostic hypotheses produced, returning empty differential")
	}

	// Stages 3 and 4: suggestions and workup
	suggestions := d.suggestions.GenerateSuggestions(ctx, hypotheses, patientCtx)
	plan := d.workup.BuildPlan(suggestions, patientCtx)

	result := &domain.ComprehensiveResult{
		PatientID:      patientID,
		Risk:           riskResult,
		Diagnoses:      suggestions,
		Workup:         plan,
		Alerts:         alerts,
		Confidence:     confidenceMetrics(riskResult, hypotheses, symptoms, findings),
		ProcessingTime: time.Since(startTime),
		Timestamp:      time.Now().UTC(),
	}

	d.persistResult(ctx, result)
	d.assessments.Set(ctx, patientID, symptoms, patientCtx, findings, result)

	d.logger.WithFields(logrus.Fields{
		"patient_id":      patientID,
		"risk_level":      riskResult.Level,
		"hypotheses":      len(hypotheses),
		"alerts":          len(alerts),
		"processing_time": result.ProcessingTime,
	}).Info("Clinical decision support pipeline completed")

	return result, nil
}

// buildAlert constructs the clinical alert for a high or critical assessment
func buildAlert(patientID string, risk domain.RiskAssessmentResult) domain.ClinicalAlert {
	severity := domain.SEVERITY_HIGH
	timeline := "within 1 hour"
	if risk.Level == domain.CRITICAL_RISK {
		severity = domain.SEVERITY_CRITICAL
		timeline = "immediate"
	}

	now := time.Now().UTC()
	return domain.ClinicalAlert{
		ID:                  uuid.NewString(),
		PatientID:           patientID,
		Severity:            severity,
		Message:             fmt.Sprintf("Overall risk score %.2f classified as %s", risk.OverallScore, risk.Level),
		RiskScore:           risk.OverallScore,
		RecommendedTimeline: timeline,
		CreatedAt:           now,
		ExpiresAt:           now.Add(24 * time.Hour),
	}
}

// emitAlert is fire-and-forget: failures are logged, never surfaced
func (d *DecisionSupportService) emitAlert(ctx context.Context, alert domain.ClinicalAlert) {
	if d.alertSink == nil {
		return
	}
	if err := d.alertSink.EmitAlert(ctx, alert); err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{
			"alert_id":   alert.ID,
			"patient_id": alert.PatientID,
			"severity":   alert.Severity,
		}).Warn("Failed to emit clinical alert")
	}
}

// persistResult is fire-and-forget: failures are logged, never surfaced
func (d *DecisionSupportService) persistResult(ctx context.Context, result *domain.ComprehensiveResult) {
	if d.store == nil {
		return
	}
	if err := d.store.StoreResult(ctx, result); err != nil {
		d.logger.WithError(err).WithField("patient_id", result.PatientID).Warn("Failed to persist assessment result")
	}
}

func confidenceMetrics(risk domain.RiskAssessmentResult, hypotheses []domain.DiagnosticHypothesis, symptoms []string, findings []domain.ClinicalFinding) domain.ConfidenceMetrics {
	diagnostic := 0.0
	if len(hypotheses) > 0 {
		diagnostic = hypotheses[0].Probability
	}
	return domain.ConfidenceMetrics{
		DiagnosticConfidence: diagnostic,
		RiskConfidence:       risk.Confidence,
		EvidenceCount:        len(symptoms) + len(findings),
		HypothesisCount:      len(hypotheses),
	}
}
