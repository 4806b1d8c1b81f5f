package service

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/clinical-cds-server/internal/domain"
)

// priorityOrder fixes the stable sort order inside each workup phase
var priorityOrder = map[domain.SuggestionPriority]int{
	domain.IMMEDIATE: 0,
	domain.URGENT:    1,
	domain.ROUTINE:   2,
	domain.FOLLOW_UP: 3,
}

// testResources maps test name substrings to the resource needed to run them
var testResources = map[string]string{
	"ecg":        "ecg_machine",
	"ct":         "ct_scanner",
	"mri":        "mri_scanner",
	"x-ray":      "radiology",
	"doppler":    "ultrasound",
	"echocardio": "ultrasound",
	"culture":    "microbiology_lab",
	"urinalysis": "clinical_lab",
	"endoscopy":  "endoscopy_suite",
	"blood gas":  "clinical_lab",
}

// WorkupPlanner sequences recommended tests into immediate, sequential, and
// conditional phases. Timeline and resource figures come from fixed lookups,
// a deterministic heuristic rather than a cost model.
type WorkupPlanner struct {
	logger *logrus.Logger
}

// NewWorkupPlanner creates a new workup planner
func NewWorkupPlanner(logger *logrus.Logger) *WorkupPlanner {
	return &WorkupPlanner{logger: logger}
}

// BuildPlan buckets each suggestion's tests by the suggestion's priority,
// deduplicates per phase (first occurrence wins), and stable-sorts each phase
// by the fixed priority order. Running the dedup twice yields the same plan.
func (w *WorkupPlanner) BuildPlan(suggestions []domain.DiagnosticSuggestion, patientCtx domain.PatientContext) domain.WorkupPlan {
	var immediate, sequential, conditional []domain.PlannedTest

	for _, s := range suggestions {
		for _, test := range s.RecommendedTests {
			planned := domain.PlannedTest{
				Test:      test.Name,
				Rationale: test.Rationale,
				Urgency:   s.Priority,
			}
			switch s.Priority {
			case domain.IMMEDIATE:
				immediate = append(immediate, planned)
			case domain.URGENT:
				sequential = append(sequential, planned)
			default:
				conditional = append(conditional, planned)
			}
		}
	}

	immediate = dedupeAndSort(immediate)
	sequential = dedupeAndSort(sequential)
	conditional = dedupeAndSort(conditional)

	plan := domain.WorkupPlan{
		Immediate:   immediate,
		Sequential:  sequential,
		Conditional: conditional,
		Timeline:    estimateTimeline(immediate, sequential, conditional),
		Resources:   collectResources(immediate, sequential, conditional),
		Quality: domain.QualityEstimate{
			ExpectedAccuracy:  0.85,
			FalsePositiveRisk: 0.10,
			FalseNegativeRisk: 0.08,
		},
	}

	w.logger.WithFields(logrus.Fields{
		"immediate":   len(immediate),
		"sequential":  len(sequential),
		"conditional": len(conditional),
	}).Debug("Built workup plan")

	return plan
}

// dedupeAndSort removes duplicate tests keeping the first occurrence, then
// stable-sorts by priority order.
func dedupeAndSort(tests []domain.PlannedTest) []domain.PlannedTest {
	seen := make(map[string]bool, len(tests))
	out := make([]domain.PlannedTest, 0, len(tests))
	for _, t := range tests {
		if seen[t.Test] {
			continue
		}
		seen[t.Test] = true
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return priorityOrder[out[i].Urgency] < priorityOrder[out[j].Urgency]
	})

	return out
}

// estimateTimeline returns the fixed heuristic timeline for the populated phases
func estimateTimeline(immediate, sequential, conditional []domain.PlannedTest) domain.TimelineEstimate {
	timeline := domain.TimelineEstimate{Total: "as clinically indicated"}

	if len(immediate) > 0 {
		timeline.Immediate = "within 2 hours"
		timeline.Total = "initial results within 2 hours"
	}
	if len(sequential) > 0 {
		timeline.Sequential = "within 24-72 hours"
		if len(immediate) == 0 {
			timeline.Total = "initial results within 72 hours"
		}
	}
	if len(conditional) > 0 {
		timeline.Conditional = "pending earlier results"
	}

	return timeline
}

// collectResources unions the fixed per-test resource lookups, sorted for
// deterministic output.
func collectResources(phases ...[]domain.PlannedTest) []string {
	set := make(map[string]bool)
	for _, phase := range phases {
		for _, t := range phase {
			name := strings.ToLower(t.Test)
			for needle, resource := range testResources {
				if strings.Contains(name, needle) {
					set[resource] = true
				}
			}
		}
	}

	resources := make([]string, 0, len(set))
	for r := range set {
		resources = append(resources, r)
	}
	sort.Strings(resources)
	return resources
}
