package service

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/clinical-cds-server/internal/domain"
)

// Sub-score weights; the remaining 0.10 is reserved for a future clinical
// judgment input and intentionally unused, so a maximal patient scores 0.90.
const (
	symptomWeight     = 0.30
	demographicWeight = 0.20
	comorbidityWeight = 0.25
	medicationWeight  = 0.15
)

// Risk level thresholds on the weighted overall score
const (
	criticalRiskThreshold = 0.85
	highRiskThreshold     = 0.70
	moderateRiskThreshold = 0.50
)

// emergencyCombinations are symptom triads that imply an emergency
// presentation when all members are reported.
var emergencyCombinations = [][]string{
	{"chest_pain", "shortness_of_breath", "diaphoresis"},
	{"fever", "confusion", "hypotension"},
	{"sudden_weakness", "slurred_speech", "facial_droop"},
	{"abdominal_pain", "fever", "vomiting"},
}

// highRiskSymptoms each add 0.15 to the symptom sub-score
var highRiskSymptoms = []string{
	"chest_pain",
	"shortness_of_breath",
	"diaphoresis",
	"confusion",
	"syncope",
	"hemoptysis",
	"hypotension",
	"sudden_weakness",
	"slurred_speech",
}

// highRiskConditionKeywords each add 0.1 to the comorbidity sub-score when
// matched in medical history or comorbidities.
var highRiskConditionKeywords = []string{
	"diabetes",
	"hypertension",
	"coronary",
	"heart",
	"cancer",
	"kidney",
	"renal",
	"copd",
	"stroke",
	"liver",
	"immunocompromised",
}

// highRiskMedicationKeywords each add 0.05 to the medication sub-score
var highRiskMedicationKeywords = []string{
	"warfarin",
	"anticoagulant",
	"insulin",
	"digoxin",
	"chemotherapy",
	"immunosuppress",
	"opioid",
	"steroid",
	"amiodarone",
}

// RiskAssessor scores overall patient risk from four independent, pure
// sub-scorers and classifies a threshold-derived risk level.
type RiskAssessor struct {
	logger *logrus.Logger
}

// NewRiskAssessor creates a new risk assessor
func NewRiskAssessor(logger *logrus.Logger) *RiskAssessor {
	return &RiskAssessor{logger: logger}
}

// AssessRisk computes the four sub-scores, the weighted overall score, risk
// level, contributing factors, and recommended actions.
func (r *RiskAssessor) AssessRisk(symptoms []string, patientCtx domain.PatientContext, findings []domain.ClinicalFinding) domain.RiskAssessmentResult {
	tokens := normalizeSymptomSet(symptoms, findings)

	symptomScore, symptomFactors, emergencyMatched := scoreSymptoms(tokens)
	demographicScore, demographicFactors := scoreDemographics(patientCtx)
	comorbidityScore, comorbidityFactors := scoreComorbidities(patientCtx)
	medicationScore, medicationFactors := scoreMedications(patientCtx)

	overall := symptomScore*symptomWeight +
		demographicScore*demographicWeight +
		comorbidityScore*comorbidityWeight +
		medicationScore*medicationWeight

	level := ClassifyRiskLevel(overall)

	// A matched emergency combination overrides the weighted classification.
	// The combined presentation is an emergency regardless of how little the
	// demographic and history sub-scores contribute.
	if emergencyMatched && level != domain.CRITICAL_RISK {
		r.logger.WithFields(logrus.Fields{
			"weighted_level": level,
			"overall_score":  overall,
		}).Warn("Escalating risk level to critical on emergency symptom combination")
		level = domain.CRITICAL_RISK
	}

	riskFactors := make([]string, 0)
	riskFactors = append(riskFactors, symptomFactors...)
	riskFactors = append(riskFactors, demographicFactors...)
	riskFactors = append(riskFactors, comorbidityFactors...)
	riskFactors = append(riskFactors, medicationFactors...)

	result := domain.RiskAssessmentResult{
		SymptomScore:       symptomScore,
		DemographicScore:   demographicScore,
		ComorbidityScore:   comorbidityScore,
		MedicationScore:    medicationScore,
		OverallScore:       overall,
		Level:              level,
		RiskFactors:        riskFactors,
		ProtectiveFactors:  protectiveFactors(patientCtx, comorbidityScore),
		RecommendedActions: recommendedActions(level),
		EscalationCriteria: escalationCriteria(),
		Confidence:         assessConfidence(symptoms, patientCtx, findings),
	}

	r.logger.WithFields(logrus.Fields{
		"symptom_score":     symptomScore,
		"demographic_score": demographicScore,
		"comorbidity_score": comorbidityScore,
		"medication_score":  medicationScore,
		"overall_score":     overall,
		"level":             level,
	}).Info("Completed risk assessment")

	return result
}

// ClassifyRiskLevel maps the weighted overall score onto a risk level
func ClassifyRiskLevel(score float64) domain.RiskLevel {
	switch {
	case score >= criticalRiskThreshold:
		return domain.CRITICAL_RISK
	case score >= highRiskThreshold:
		return domain.HIGH_RISK
	case score >= moderateRiskThreshold:
		return domain.MODERATE_RISK
	default:
		return domain.LOW_RISK
	}
}

// normalizeSymptomSet merges symptom strings and present findings into one
// canonical token set.
func normalizeSymptomSet(symptoms []string, findings []domain.ClinicalFinding) map[string]bool {
	tokens := make(map[string]bool, len(symptoms)+len(findings))
	for _, s := range symptoms {
		if token := NormalizeFindingToken(s); token != "" {
			tokens[token] = true
		}
	}
	for _, f := range findings {
		if !f.Present {
			continue
		}
		if token := NormalizeFindingToken(f.Name); token != "" {
			tokens[token] = true
		}
	}
	return tokens
}

// scoreSymptoms returns 0.9 and a match flag when a full emergency
// combination is present, otherwise 0.15 per high-risk symptom. Capped at 1.0.
func scoreSymptoms(tokens map[string]bool) (float64, []string, bool) {
	for _, combo := range emergencyCombinations {
		matched := true
		for _, member := range combo {
			if !tokens[member] {
				matched = false
				break
			}
		}
		if matched {
			return 0.9, []string{fmt.Sprintf("emergency symptom combination: %s", strings.Join(combo, ", "))}, true
		}
	}

	score := 0.0
	factors := make([]string, 0)
	for _, symptom := range highRiskSymptoms {
		if tokens[symptom] {
			score += 0.15
			factors = append(factors, fmt.Sprintf("high-risk symptom: %s", symptom))
		}
	}
	return capScore(score), factors, false
}

// scoreDemographics applies age bands plus a male-over-45 adjustment
func scoreDemographics(patientCtx domain.PatientContext) (float64, []string) {
	score := 0.0
	factors := make([]string, 0)

	switch {
	case patientCtx.Age > 75:
		score += 0.4
		factors = append(factors, "age over 75")
	case patientCtx.Age > 65:
		score += 0.3
		factors = append(factors, "age over 65")
	case patientCtx.Age > 50:
		score += 0.2
		factors = append(factors, "age over 50")
	}

	if strings.EqualFold(patientCtx.Gender, "male") && patientCtx.Age > 45 {
		score += 0.1
		factors = append(factors, "male over 45")
	}

	return capScore(score), factors
}

// scoreComorbidities adds 0.1 per high-risk condition keyword matched across
// medical history and comorbidities.
func scoreComorbidities(patientCtx domain.PatientContext) (float64, []string) {
	entries := make([]string, 0, len(patientCtx.MedicalHistory)+len(patientCtx.Comorbidities))
	entries = append(entries, patientCtx.MedicalHistory...)
	entries = append(entries, patientCtx.Comorbidities...)

	score := 0.0
	factors := make([]string, 0)
	for _, entry := range entries {
		lowered := strings.ToLower(entry)
		for _, keyword := range highRiskConditionKeywords {
			if strings.Contains(lowered, keyword) {
				score += 0.1
				factors = append(factors, fmt.Sprintf("comorbidity: %s", entry))
				break
			}
		}
	}
	return capScore(score), factors
}

// scoreMedications adds 0.05 per high-risk medication keyword, plus 0.1 for
// polypharmacy (more than five medications).
func scoreMedications(patientCtx domain.PatientContext) (float64, []string) {
	score := 0.0
	factors := make([]string, 0)

	for _, med := range patientCtx.Medications {
		lowered := strings.ToLower(med)
		for _, keyword := range highRiskMedicationKeywords {
			if strings.Contains(lowered, keyword) {
				score += 0.05
				factors = append(factors, fmt.Sprintf("high-risk medication: %s", med))
				break
			}
		}
	}

	if len(patientCtx.Medications) > 5 {
		score += 0.1
		factors = append(factors, "polypharmacy (more than 5 medications)")
	}

	return capScore(score), factors
}

func protectiveFactors(patientCtx domain.PatientContext, comorbidityScore float64) []string {
	factors := make([]string, 0)
	if patientCtx.Age > 0 && patientCtx.Age < 40 {
		factors = append(factors, "age under 40")
	}
	if comorbidityScore == 0 {
		factors = append(factors, "no documented high-risk comorbidities")
	}
	if len(patientCtx.Medications) == 0 {
		factors = append(factors, "no current medications")
	}
	return factors
}

func recommendedActions(level domain.RiskLevel) []string {
	switch level {
	case domain.CRITICAL_RISK:
		return []string{
			"Immediate clinical evaluation",
			"Continuous vital sign monitoring",
			"Prepare for emergency intervention",
		}
	case domain.HIGH_RISK:
		return []string{
			"Clinical evaluation within 1 hour",
			"Repeat vital signs every 15 minutes",
		}
	case domain.MODERATE_RISK:
		return []string{
			"Clinical evaluation within 4 hours",
			"Reassess if symptoms progress",
		}
	default:
		return []string{
			"Routine evaluation",
			"Safety-net advice for symptom progression",
		}
	}
}

func escalationCriteria() []string {
	return []string{
		"New or worsening chest pain",
		"Altered level of consciousness",
		"Systolic blood pressure below 90 mmHg",
		"Oxygen saturation below 92%",
	}
}

// assessConfidence grades how complete the inputs were
func assessConfidence(symptoms []string, patientCtx domain.PatientContext, findings []domain.ClinicalFinding) domain.ConfidenceLevel {
	provided := 0
	if len(symptoms) > 0 || len(findings) > 0 {
		provided++
	}
	if patientCtx.Age > 0 {
		provided++
	}
	if len(patientCtx.MedicalHistory) > 0 || len(patientCtx.Comorbidities) > 0 {
		provided++
	}
	if len(patientCtx.Medications) > 0 {
		provided++
	}

	switch {
	case provided >= 3:
		return domain.HIGH_CONFIDENCE
	case provided == 2:
		return domain.MEDIUM_CONFIDENCE
	default:
		return domain.LOW_CONFIDENCE
	}
}

func capScore(score float64) float64 {
	if score > 1.0 {
		return 1.0
	}
	return score
}
