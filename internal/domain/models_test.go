package domain

import (
	"testing"
)

func TestCertaintyTierConstants(t *testing.T) {
	tests := []struct {
		name     string
		value    CertaintyTier
		expected string
	}{
		{"Definitive", DEFINITIVE, "definitive"},
		{"Probable", PROBABLE, "probable"},
		{"Possible", POSSIBLE, "possible"},
		{"Unlikely", UNLIKELY, "unlikely"},
		{"Excluded", EXCLUDED, "excluded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.value) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, string(tt.value))
			}
		})
	}
}

func TestRiskLevelConstants(t *testing.T) {
	tests := []struct {
		name     string
		value    RiskLevel
		expected string
	}{
		{"Critical", CRITICAL_RISK, "critical"},
		{"High", HIGH_RISK, "high"},
		{"Moderate", MODERATE_RISK, "moderate"},
		{"Low", LOW_RISK, "low"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.value) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, string(tt.value))
			}
		})
	}
}

func TestSuggestionCategoryConstants(t *testing.T) {
	tests := []struct {
		name     string
		value    SuggestionCategory
		expected string
	}{
		{"Primary", PRIMARY, "primary"},
		{"Differential", DIFFERENTIAL, "differential"},
		{"Rule Out", RULE_OUT, "rule_out"},
		{"Screening", SCREENING, "screening"},
		{"Incidental", INCIDENTAL, "incidental"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.value) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, string(tt.value))
			}
		})
	}
}

func TestEvidenceSourceConstants(t *testing.T) {
	tests := []struct {
		name     string
		value    EvidenceSource
		expected string
	}{
		{"Patient Report", PATIENT_REPORT, "patient_report"},
		{"Clinical Examination", CLINICAL_EXAMINATION, "clinical_examination"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.value) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, string(tt.value))
			}
		})
	}
}
