package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinical-cds-server/internal/domain"
)

// fakeEnricher returns canned text or an error
type fakeEnricher struct {
	text string
	err  error
}

func (f *fakeEnricher) Enrich(ctx context.Context, hypothesis domain.DiagnosticHypothesis, patientCtx domain.PatientContext) (string, error) {
	return f.text, f.err
}

func miHypothesis(p float64, urgency domain.UrgencyTier) domain.DiagnosticHypothesis {
	return domain.DiagnosticHypothesis{
		ConditionKey: "myocardial_infarction",
		Condition:    "Myocardial infarction",
		Probability:  p,
		Urgency:      urgency,
		Reasoning:    "rule-derived reasoning",
	}
}

func TestClassifyCategory(t *testing.T) {
	tests := []struct {
		rank     int
		p        float64
		expected domain.SuggestionCategory
	}{
		{0, 0.7, domain.PRIMARY},
		{0, 0.6, domain.DIFFERENTIAL}, // top rank but not above 0.6
		{1, 0.7, domain.DIFFERENTIAL}, // high probability but not top rank
		{2, 0.31, domain.DIFFERENTIAL},
		{2, 0.3, domain.RULE_OUT},
		{3, 0.11, domain.RULE_OUT},
		{3, 0.1, domain.SCREENING},
		{4, 0.06, domain.SCREENING},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, classifyCategory(tt.rank, tt.p), "rank=%d p=%v", tt.rank, tt.p)
	}
}

func TestClassifyPriority(t *testing.T) {
	assert.Equal(t, domain.IMMEDIATE, classifyPriority(domain.CRITICAL_URGENCY, 0.2))
	assert.Equal(t, domain.URGENT, classifyPriority(domain.HIGH_URGENCY, 0.2))
	assert.Equal(t, domain.URGENT, classifyPriority(domain.MODERATE_URGENCY, 0.71))
	assert.Equal(t, domain.ROUTINE, classifyPriority(domain.MODERATE_URGENCY, 0.31))
	assert.Equal(t, domain.FOLLOW_UP, classifyPriority(domain.MODERATE_URGENCY, 0.2))
}

func TestRecommendTests_ProbabilityGates(t *testing.T) {
	// Above 0.6 both immediate and sequential sets apply
	tests := recommendTests("myocardial_infarction", 0.7, 40)
	require.Len(t, tests, 4)
	assert.Equal(t, "12-lead ECG", tests[0].Name)

	// Between 0.3 and 0.6 only the sequential set applies
	tests = recommendTests("myocardial_infarction", 0.4, 40)
	require.Len(t, tests, 2)
	assert.Equal(t, "Chest X-ray", tests[0].Name)

	// At or below 0.3 no tests
	tests = recommendTests("myocardial_infarction", 0.3, 40)
	assert.Empty(t, tests)

	// Unknown condition yields an empty, non-nil slice
	tests = recommendTests("unknown", 0.9, 40)
	assert.NotNil(t, tests)
	assert.Empty(t, tests)
}

func TestRecommendTests_ElderlyAnnotation(t *testing.T) {
	tests := recommendTests("myocardial_infarction", 0.7, 70)
	require.NotEmpty(t, tests)
	for _, test := range tests {
		assert.Contains(t, test.Rationale, "age-related baseline")
	}
}

func TestFindReferral(t *testing.T) {
	// Cardiology referral above threshold, typed by urgency
	ref := findReferral(miHypothesis(0.5, domain.CRITICAL_URGENCY))
	require.NotNil(t, ref)
	assert.Equal(t, "cardiology", ref.Specialty)
	assert.Equal(t, "emergency", ref.ReferralType)

	ref = findReferral(miHypothesis(0.5, domain.MODERATE_URGENCY))
	require.NotNil(t, ref)
	assert.Equal(t, "routine", ref.ReferralType)

	// Below threshold no referral
	assert.Nil(t, findReferral(miHypothesis(0.2, domain.CRITICAL_URGENCY)))

	// Condition with no rule
	assert.Nil(t, findReferral(domain.DiagnosticHypothesis{ConditionKey: "anxiety_disorder", Probability: 0.9}))
}

func TestUrgencyScore(t *testing.T) {
	assert.InDelta(t, 0.45, urgencyScore(0.3, domain.CRITICAL_URGENCY, 40), 1e-9)
	assert.InDelta(t, 0.375, urgencyScore(0.3, domain.HIGH_URGENCY, 40), 1e-9)
	assert.InDelta(t, 0.3, urgencyScore(0.3, domain.MODERATE_URGENCY, 40), 1e-9)

	// Age adjustments
	assert.InDelta(t, 0.495, urgencyScore(0.3, domain.CRITICAL_URGENCY, 80), 1e-9)
	assert.InDelta(t, 0.4725, urgencyScore(0.3, domain.CRITICAL_URGENCY, 10), 1e-9)

	// Cap at 1.0
	assert.Equal(t, 1.0, urgencyScore(0.9, domain.CRITICAL_URGENCY, 80))
}

func TestGenerateSuggestions_RanksAndFields(t *testing.T) {
	engine := NewSuggestionEngine(testLogger(), nil)

	hypotheses := []domain.DiagnosticHypothesis{
		miHypothesis(0.7, domain.CRITICAL_URGENCY),
		{ConditionKey: "pneumonia", Condition: "Pneumonia", Probability: 0.4, Urgency: domain.MODERATE_URGENCY},
	}

	suggestions := engine.GenerateSuggestions(context.Background(), hypotheses, domain.PatientContext{Age: 50})

	require.Len(t, suggestions, 2)
	assert.Equal(t, 0, suggestions[0].Rank)
	assert.Equal(t, domain.PRIMARY, suggestions[0].Category)
	assert.Equal(t, domain.IMMEDIATE, suggestions[0].Priority)
	assert.NotEmpty(t, suggestions[0].RecommendedTests)
	assert.NotNil(t, suggestions[0].Referral)

	assert.Equal(t, 1, suggestions[1].Rank)
	assert.Equal(t, domain.DIFFERENTIAL, suggestions[1].Category)
}

func TestGenerateSuggestions_EnricherReplacesTopReasoning(t *testing.T) {
	engine := NewSuggestionEngine(testLogger(), &fakeEnricher{text: "advisory narrative"})

	hypotheses := []domain.DiagnosticHypothesis{
		miHypothesis(0.7, domain.CRITICAL_URGENCY),
		{ConditionKey: "pneumonia", Condition: "Pneumonia", Probability: 0.4, Urgency: domain.MODERATE_URGENCY, Reasoning: "second"},
	}

	suggestions := engine.GenerateSuggestions(context.Background(), hypotheses, domain.PatientContext{})

	assert.Equal(t, "advisory narrative", suggestions[0].Hypothesis.Reasoning)
	assert.Equal(t, "second", suggestions[1].Hypothesis.Reasoning, "only the top suggestion is enriched")
	assert.Equal(t, 0.7, suggestions[0].Hypothesis.Probability, "enrichment never changes numbers")
}

func TestGenerateSuggestions_EnricherFailureKeepsReasoning(t *testing.T) {
	engine := NewSuggestionEngine(testLogger(), &fakeEnricher{err: errors.New("timeout")})

	suggestions := engine.GenerateSuggestions(context.Background(),
		[]domain.DiagnosticHypothesis{miHypothesis(0.7, domain.CRITICAL_URGENCY)},
		domain.PatientContext{})

	require.Len(t, suggestions, 1)
	assert.Equal(t, "rule-derived reasoning", suggestions[0].Hypothesis.Reasoning)
}

func TestGenerateSuggestions_EmptyInput(t *testing.T) {
	engine := NewSuggestionEngine(testLogger(), nil)

	suggestions := engine.GenerateSuggestions(context.Background(), nil, domain.PatientContext{})

	assert.NotNil(t, suggestions)
	assert.Empty(t, suggestions)
}
