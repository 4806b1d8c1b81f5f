package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinical-cds-server/internal/domain"
)

func suggestionWithTests(priority domain.SuggestionPriority, tests ...string) domain.DiagnosticSuggestion {
	recommended := make([]domain.RecommendedTest, 0, len(tests))
	for _, name := range tests {
		recommended = append(recommended, domain.RecommendedTest{Name: name, Rationale: "r"})
	}
	return domain.DiagnosticSuggestion{
		Priority:         priority,
		RecommendedTests: recommended,
	}
}

func TestBuildPlan_PhaseBucketing(t *testing.T) {
	planner := NewWorkupPlanner(testLogger())

	plan := planner.BuildPlan([]domain.DiagnosticSuggestion{
		suggestionWithTests(domain.IMMEDIATE, "12-lead ECG"),
		suggestionWithTests(domain.URGENT, "Chest X-ray"),
		suggestionWithTests(domain.ROUTINE, "Urinalysis"),
		suggestionWithTests(domain.FOLLOW_UP, "Thyroid function tests"),
	}, domain.PatientContext{})

	require.Len(t, plan.Immediate, 1)
	assert.Equal(t, "12-lead ECG", plan.Immediate[0].Test)

	require.Len(t, plan.Sequential, 1)
	assert.Equal(t, "Chest X-ray", plan.Sequential[0].Test)

	require.Len(t, plan.Conditional, 2)
}

func TestBuildPlan_DeduplicatesWithinPhase(t *testing.T) {
	planner := NewWorkupPlanner(testLogger())

	plan := planner.BuildPlan([]domain.DiagnosticSuggestion{
		suggestionWithTests(domain.URGENT, "Chest X-ray", "Complete blood count"),
		suggestionWithTests(domain.URGENT, "Chest X-ray"),
	}, domain.PatientContext{})

	assert.Len(t, plan.Sequential, 2, "duplicate test appears once")
}

func TestBuildPlan_DedupIdempotent(t *testing.T) {
	tests := []domain.PlannedTest{
		{Test: "Chest X-ray", Urgency: domain.URGENT},
		{Test: "Chest X-ray", Urgency: domain.URGENT},
		{Test: "Urinalysis", Urgency: domain.ROUTINE},
	}

	once := dedupeAndSort(tests)
	twice := dedupeAndSort(once)

	assert.Equal(t, once, twice)
}

func TestBuildPlan_Timeline(t *testing.T) {
	planner := NewWorkupPlanner(testLogger())

	// Immediate tests present
	plan := planner.BuildPlan([]domain.DiagnosticSuggestion{
		suggestionWithTests(domain.IMMEDIATE, "12-lead ECG"),
	}, domain.PatientContext{})
	assert.Equal(t, "within 2 hours", plan.Timeline.Immediate)
	assert.Equal(t, "initial results within 2 hours", plan.Timeline.Total)

	// Only sequential tests
	plan = planner.BuildPlan([]domain.DiagnosticSuggestion{
		suggestionWithTests(domain.URGENT, "Chest X-ray"),
	}, domain.PatientContext{})
	assert.Equal(t, "within 24-72 hours", plan.Timeline.Sequential)
	assert.Equal(t, "initial results within 72 hours", plan.Timeline.Total)

	// Nothing planned
	plan = planner.BuildPlan(nil, domain.PatientContext{})
	assert.Equal(t, "as clinically indicated", plan.Timeline.Total)
}

func TestBuildPlan_Resources(t *testing.T) {
	planner := NewWorkupPlanner(testLogger())

	plan := planner.BuildPlan([]domain.DiagnosticSuggestion{
		suggestionWithTests(domain.IMMEDIATE, "12-lead ECG", "Non-contrast head CT"),
		suggestionWithTests(domain.URGENT, "Blood cultures"),
	}, domain.PatientContext{})

	assert.Equal(t, []string{"ct_scanner", "ecg_machine", "microbiology_lab"}, plan.Resources)
}

func TestBuildPlan_Quality(t *testing.T) {
	planner := NewWorkupPlanner(testLogger())

	plan := planner.BuildPlan(nil, domain.PatientContext{})

	assert.Equal(t, 0.85, plan.Quality.ExpectedAccuracy)
	assert.Equal(t, 0.10, plan.Quality.FalsePositiveRisk)
	assert.Equal(t, 0.08, plan.Quality.FalseNegativeRisk)
}
