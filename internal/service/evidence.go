package service

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/clinical-cds-server/internal/domain"
)

// Default weights and confidences assigned during extraction. Patient-reported
// symptoms carry less confidence than examination findings.
const (
	defaultSymptomWeight     = 1.0
	defaultSymptomConfidence = 0.7
	defaultFindingWeight     = 1.0
	defaultFindingConfidence = 0.9
)

// highSignalSymptoms get an elevated diagnostic weight during extraction
var highSignalSymptoms = map[string]float64{
	"chest_pain":                1.5,
	"shortness_of_breath":       1.4,
	"sudden_weakness":           1.5,
	"slurred_speech":            1.5,
	"facial_droop":              1.5,
	"hypotension":               1.4,
	"right_lower_quadrant_pain": 1.3,
}

// EvidenceExtractor converts raw symptom strings and structured clinical
// findings into a normalized list of weighted, sourced evidence items.
type EvidenceExtractor struct {
	logger *logrus.Logger
}

// NewEvidenceExtractor creates a new evidence extractor
func NewEvidenceExtractor(logger *logrus.Logger) *EvidenceExtractor {
	return &EvidenceExtractor{logger: logger}
}

// Extract normalizes symptoms and findings into evidence items. Duplicate
// finding tokens keep the first occurrence; examination findings take
// precedence over patient reports for the same token.
func (e *EvidenceExtractor) Extract(symptoms []string, findings []domain.ClinicalFinding) []domain.EvidenceItem {
	items := make([]domain.EvidenceItem, 0, len(symptoms)+len(findings))
	seen := make(map[string]bool, len(symptoms)+len(findings))

	// Examination findings first so they win over patient reports
	for _, f := range findings {
		token := NormalizeFindingToken(f.Name)
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true

		weight := f.Weight
		if weight <= 0 {
			weight = defaultFindingWeight
		}
		confidence := f.Confidence
		if confidence <= 0 || confidence > 1 {
			confidence = defaultFindingConfidence
		}

		items = append(items, domain.EvidenceItem{
			Finding:    token,
			Present:    f.Present,
			Weight:     weight,
			Confidence: confidence,
			Source:     domain.CLINICAL_EXAMINATION,
			Strength:   domain.STRONG_EVIDENCE,
		})
	}

	for _, s := range symptoms {
		token := NormalizeFindingToken(s)
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true

		weight := defaultSymptomWeight
		strength := domain.WEAK_EVIDENCE
		if w, ok := highSignalSymptoms[token]; ok {
			weight = w
			strength = domain.MODERATE_EVIDENCE
		}

		items = append(items, domain.EvidenceItem{
			Finding:    token,
			Present:    true,
			Weight:     weight,
			Confidence: defaultSymptomConfidence,
			Source:     domain.PATIENT_REPORT,
			Strength:   strength,
		})
	}

	e.logger.WithFields(logrus.Fields{
		"symptoms": len(symptoms),
		"findings": len(findings),
		"evidence": len(items),
	}).Debug("Extracted evidence items")

	return items
}

// NormalizeFindingToken lowercases a finding name and collapses separators
// into the canonical underscore token form used by the likelihood table.
func NormalizeFindingToken(name string) string {
	token := strings.ToLower(strings.TrimSpace(name))
	token = strings.ReplaceAll(token, "-", " ")
	token = strings.Join(strings.Fields(token), "_")
	return token
}
