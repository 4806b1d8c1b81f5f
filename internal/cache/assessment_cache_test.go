package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clinical-cds-server/internal/domain"
)

func TestRequestFingerprint_Deterministic(t *testing.T) {
	findings := []domain.ClinicalFinding{{Name: "fever", Present: true}}
	patientCtx := domain.PatientContext{
		Age:         58,
		Gender:      "male",
		Medications: []string{"aspirin", "metformin"},
	}
	reordered := domain.PatientContext{
		Age:         58,
		Gender:      "male",
		Medications: []string{"metformin", "aspirin"},
	}

	a := RequestFingerprint("patient-1", []string{"chest_pain", "nausea"}, patientCtx, findings)
	b := RequestFingerprint("patient-1", []string{"nausea", "chest_pain"}, reordered, findings)

	assert.Equal(t, a, b, "symptom and medication order must not change the fingerprint")
}

func TestRequestFingerprint_DistinguishesInputs(t *testing.T) {
	patientCtx := domain.PatientContext{Age: 58, Gender: "male"}
	base := RequestFingerprint("patient-1", []string{"chest_pain"}, patientCtx, nil)

	assert.NotEqual(t, base, RequestFingerprint("patient-2", []string{"chest_pain"}, patientCtx, nil))
	assert.NotEqual(t, base, RequestFingerprint("patient-1", []string{"nausea"}, patientCtx, nil))
	assert.NotEqual(t, base, RequestFingerprint("patient-1", []string{"chest_pain"}, patientCtx, []domain.ClinicalFinding{{Name: "fever", Present: true}}))
	assert.NotEqual(t,
		RequestFingerprint("patient-1", nil, patientCtx, []domain.ClinicalFinding{{Name: "fever", Present: true}}),
		RequestFingerprint("patient-1", nil, patientCtx, []domain.ClinicalFinding{{Name: "fever", Present: false}}),
	)
}

// Risk levels, urgency tiers, and alerts all derive from the patient
// context, so any context change must miss the cache.
func TestRequestFingerprint_DistinguishesPatientContext(t *testing.T) {
	symptoms := []string{"chest_pain"}
	base := domain.PatientContext{
		Age:            58,
		Gender:         "male",
		MedicalHistory: []string{"hypertension"},
		Medications:    []string{"aspirin"},
	}
	key := RequestFingerprint("patient-1", symptoms, base, nil)

	tests := []struct {
		name   string
		mutate func(domain.PatientContext) domain.PatientContext
	}{
		{"age corrected", func(c domain.PatientContext) domain.PatientContext {
			c.Age = 85
			return c
		}},
		{"gender changed", func(c domain.PatientContext) domain.PatientContext {
			c.Gender = "female"
			return c
		}},
		{"history extended", func(c domain.PatientContext) domain.PatientContext {
			c.MedicalHistory = append(c.MedicalHistory, "diabetes")
			return c
		}},
		{"comorbidity added", func(c domain.PatientContext) domain.PatientContext {
			c.Comorbidities = []string{"heart_failure"}
			return c
		}},
		{"medication list updated", func(c domain.PatientContext) domain.PatientContext {
			c.Medications = []string{"aspirin", "warfarin"}
			return c
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed := RequestFingerprint("patient-1", symptoms, tt.mutate(base), nil)
			assert.NotEqual(t, key, changed)
		})
	}
}

func TestAssessmentCache_NilSafe(t *testing.T) {
	var c *AssessmentCache
	patientCtx := domain.PatientContext{Age: 58, Gender: "male"}

	result, ok := c.Get(context.Background(), "patient-1", []string{"chest_pain"}, patientCtx, nil)
	assert.False(t, ok)
	assert.Nil(t, result)

	// Set and Close on a nil cache are no-ops
	c.Set(context.Background(), "patient-1", []string{"chest_pain"}, patientCtx, nil, &domain.ComprehensiveResult{})
	assert.NoError(t, c.Close())
}
