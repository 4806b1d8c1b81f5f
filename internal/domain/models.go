package domain

import (
	"time"
)

// Core Enums and Types

// EvidenceSource identifies where a piece of evidence originated
type EvidenceSource string

const (
	PATIENT_REPORT       EvidenceSource = "patient_report"
	CLINICAL_EXAMINATION EvidenceSource = "clinical_examination"
)

// EvidenceStrength represents the tiered reliability of an evidence item
type EvidenceStrength string

const (
	STRONG_EVIDENCE   EvidenceStrength = "strong"
	MODERATE_EVIDENCE EvidenceStrength = "moderate"
	WEAK_EVIDENCE     EvidenceStrength = "weak"
	EXPERT_OPINION    EvidenceStrength = "expert_opinion"
)

// CertaintyTier bands posterior probability into clinical confidence language
type CertaintyTier string

const (
	DEFINITIVE CertaintyTier = "definitive"
	PROBABLE   CertaintyTier = "probable"
	POSSIBLE   CertaintyTier = "possible"
	UNLIKELY   CertaintyTier = "unlikely"
	EXCLUDED   CertaintyTier = "excluded"
)

// UrgencyTier classifies how time-sensitive a hypothesis is
type UrgencyTier string

const (
	CRITICAL_URGENCY UrgencyTier = "critical"
	HIGH_URGENCY     UrgencyTier = "high"
	MODERATE_URGENCY UrgencyTier = "moderate"
)

// SuggestionCategory classifies a diagnostic suggestion by rank and probability
type SuggestionCategory string

const (
	PRIMARY      SuggestionCategory = "primary"
	DIFFERENTIAL SuggestionCategory = "differential"
	RULE_OUT     SuggestionCategory = "rule_out"
	SCREENING    SuggestionCategory = "screening"
	INCIDENTAL   SuggestionCategory = "incidental"
)

// SuggestionPriority orders how quickly a suggestion should be acted on
type SuggestionPriority string

const (
	IMMEDIATE SuggestionPriority = "immediate"
	URGENT    SuggestionPriority = "urgent"
	ROUTINE   SuggestionPriority = "routine"
	FOLLOW_UP SuggestionPriority = "follow_up"
)

// RiskLevel is the threshold-derived overall patient risk classification
type RiskLevel string

const (
	CRITICAL_RISK RiskLevel = "critical"
	HIGH_RISK     RiskLevel = "high"
	MODERATE_RISK RiskLevel = "moderate"
	LOW_RISK      RiskLevel = "low"
)

// AlertSeverity mirrors the risk level of the assessment that fired the alert
type AlertSeverity string

const (
	SEVERITY_CRITICAL AlertSeverity = "critical"
	SEVERITY_HIGH     AlertSeverity = "high"
)

// ConfidenceLevel represents confidence in a risk assessment
type ConfidenceLevel string

const (
	HIGH_CONFIDENCE   ConfidenceLevel = "high"
	MEDIUM_CONFIDENCE ConfidenceLevel = "medium"
	LOW_CONFIDENCE    ConfidenceLevel = "low"
)

// Request Models

// PatientContext carries the demographic and history fields the pipeline consumes
type PatientContext struct {
	Age            int      `json:"age"`
	Gender         string   `json:"gender"`
	MedicalHistory []string `json:"medical_history,omitempty"`
	Comorbidities  []string `json:"comorbidities,omitempty"`
	Medications    []string `json:"medications,omitempty"`
}

// ClinicalFinding is a structured examination finding supplied by the caller.
// Weight and Confidence are optional; zero values are replaced by defaults
// during evidence extraction.
type ClinicalFinding struct {
	Name       string  `json:"name"`
	Present    bool    `json:"present"`
	Weight     float64 `json:"weight,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Evidence Models

// EvidenceItem is a normalized, weighted, sourced piece of diagnostic evidence.
// Items are immutable once produced by the extractor.
type EvidenceItem struct {
	Finding    string           `json:"finding"`
	Present    bool             `json:"present"`
	Weight     float64          `json:"weight"`
	Confidence float64          `json:"confidence"`
	Source     EvidenceSource   `json:"source"`
	Strength   EvidenceStrength `json:"strength"`
}

// LikelihoodRatio holds the positive and negative likelihood ratios for one
// (finding, condition) pair. Both ratios are strictly positive.
type LikelihoodRatio struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
}

// LikelihoodTable maps finding token -> condition key -> likelihood ratios.
// Loaded once at process start and never mutated afterwards.
type LikelihoodTable map[string]map[string]LikelihoodRatio

// PriorTable maps condition key -> prior probability in (0,1). Static.
type PriorTable map[string]float64

// ConditionProfile is the static knowledge record for one condition
type ConditionProfile struct {
	Key             string   `json:"key"`
	Name            string   `json:"name"`
	ICDCodes        []string `json:"icd_codes"`
	TypicalSymptoms []string `json:"typical_symptoms"`
	Guidelines      []string `json:"guidelines,omitempty"`
	Emergency       bool     `json:"emergency"`
	HighUrgency     bool     `json:"high_urgency"`
}

// Diagnosis Models

// DiagnosticHypothesis is one ranked candidate condition with its posterior
// probability and the evidence partition that produced it.
type DiagnosticHypothesis struct {
	ConditionKey          string         `json:"condition_key"`
	Condition             string         `json:"condition"`
	ICDCode               string         `json:"icd_code,omitempty"`
	Probability           float64        `json:"probability"`
	Certainty             CertaintyTier  `json:"certainty"`
	Urgency               UrgencyTier    `json:"urgency"`
	SupportingEvidence    []EvidenceItem `json:"supporting_evidence"`
	ContradictingEvidence []EvidenceItem `json:"contradicting_evidence"`
	Reasoning             string         `json:"reasoning"`
	NextSteps             []string       `json:"next_steps,omitempty"`
}

// RecommendedTest is one test with its rationale, as attached to a suggestion
type RecommendedTest struct {
	Name      string `json:"name"`
	Rationale string `json:"rationale"`
}

// SpecialistReferral is an optional referral decision attached to a suggestion
type SpecialistReferral struct {
	Specialty    string `json:"specialty"`
	ReferralType string `json:"referral_type"`
}

// DiagnosticSuggestion enriches a hypothesis into an actionable suggestion
type DiagnosticSuggestion struct {
	Hypothesis       DiagnosticHypothesis `json:"hypothesis"`
	Rank             int                  `json:"rank"`
	Category         SuggestionCategory   `json:"category"`
	Priority         SuggestionPriority   `json:"priority"`
	RecommendedTests []RecommendedTest    `json:"recommended_tests"`
	Referral         *SpecialistReferral  `json:"referral,omitempty"`
	UrgencyScore     float64              `json:"urgency_score"`
}

// Workup Models

// PlannedTest is one deduplicated entry in a workup phase
type PlannedTest struct {
	Test      string             `json:"test"`
	Rationale string             `json:"rationale"`
	Urgency   SuggestionPriority `json:"urgency"`
}

// TimelineEstimate is the fixed heuristic timeline for the workup phases
type TimelineEstimate struct {
	Immediate   string `json:"immediate,omitempty"`
	Sequential  string `json:"sequential,omitempty"`
	Conditional string `json:"conditional,omitempty"`
	Total       string `json:"total"`
}

// QualityEstimate carries fixed heuristic quality figures for a workup plan
type QualityEstimate struct {
	ExpectedAccuracy  float64 `json:"expected_accuracy"`
	FalsePositiveRisk float64 `json:"false_positive_risk"`
	FalseNegativeRisk float64 `json:"false_negative_risk"`
}

// WorkupPlan sequences recommended tests into three ordered phases
type WorkupPlan struct {
	Immediate   []PlannedTest    `json:"immediate"`
	Sequential  []PlannedTest    `json:"sequential"`
	Conditional []PlannedTest    `json:"conditional"`
	Timeline    TimelineEstimate `json:"timeline"`
	Resources   []string         `json:"resources"`
	Quality     QualityEstimate  `json:"quality"`
}

// Risk Models

// RiskAssessmentResult is the weighted multi-factor risk score for one request
type RiskAssessmentResult struct {
	SymptomScore       float64         `json:"symptom_score"`
	DemographicScore   float64         `json:"demographic_score"`
	ComorbidityScore   float64         `json:"comorbidity_score"`
	MedicationScore    float64         `json:"medication_score"`
	OverallScore       float64         `json:"overall_score"`
	Level              RiskLevel       `json:"level"`
	RiskFactors        []string        `json:"risk_factors"`
	ProtectiveFactors  []string        `json:"protective_factors,omitempty"`
	RecommendedActions []string        `json:"recommended_actions"`
	EscalationCriteria []string        `json:"escalation_criteria"`
	Confidence         ConfidenceLevel `json:"confidence"`
}

// ClinicalAlert is emitted when overall risk exceeds the high threshold
type ClinicalAlert struct {
	ID                  string        `json:"id"`
	PatientID           string        `json:"patient_id"`
	Severity            AlertSeverity `json:"severity"`
	Message             string        `json:"message"`
	RiskScore           float64       `json:"risk_score"`
	RecommendedTimeline string        `json:"recommended_timeline"`
	CreatedAt           time.Time     `json:"created_at"`
	ExpiresAt           time.Time     `json:"expires_at"`
}

// Composite Result Models

// ConfidenceMetrics summarizes how much signal backed the composite result
type ConfidenceMetrics struct {
	DiagnosticConfidence float64         `json:"diagnostic_confidence"`
	RiskConfidence       ConfidenceLevel `json:"risk_confidence"`
	EvidenceCount        int             `json:"evidence_count"`
	HypothesisCount      int             `json:"hypothesis_count"`
}

// ComprehensiveResult is the composite response of the decision support pipeline
type ComprehensiveResult struct {
	PatientID      string                 `json:"patient_id"`
	Risk           RiskAssessmentResult   `json:"risk_assessment"`
	Diagnoses      []DiagnosticSuggestion `json:"differential_diagnoses"`
	Workup         WorkupPlan             `json:"workup_plan"`
	Alerts         []ClinicalAlert        `json:"alerts"`
	Confidence     ConfidenceMetrics      `json:"confidence_metrics"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Timestamp      time.Time              `json:"timestamp"`
}
