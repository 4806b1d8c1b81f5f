package domain

import (
	"context"
)

// KnowledgeProvider serves the static condition knowledge loaded at startup.
// Implementations must be side-effect-free from the pipeline's perspective;
// absence of a profile is non-fatal and the condition is skipped.
type KnowledgeProvider interface {
	GetConditionProfile(conditionKey string) (*ConditionProfile, bool)
	Priors() PriorTable
	Likelihoods() LikelihoodTable
}

// NarrativeEnricher produces advisory human-readable rationale text for a
// hypothesis. Output never alters probability, category, or priority; on error
// or timeout the caller keeps the rule-derived reasoning string.
type NarrativeEnricher interface {
	Enrich(ctx context.Context, hypothesis DiagnosticHypothesis, patientCtx PatientContext) (string, error)
}

// AlertSink receives emitted clinical alerts. Fire-and-forget: errors are
// logged by the caller and never surfaced.
type AlertSink interface {
	EmitAlert(ctx context.Context, alert ClinicalAlert) error
}

// ResultStore persists composite results. Fire-and-forget: errors are logged
// by the caller and never surfaced.
type ResultStore interface {
	StoreResult(ctx context.Context, result *ComprehensiveResult) error
}

// DecisionSupport is the inbound contract exposed to transport handlers
type DecisionSupport interface {
	AssessAndDiagnose(ctx context.Context, patientID string, symptoms []string, patientCtx PatientContext, findings []ClinicalFinding) (*ComprehensiveResult, error)
}
