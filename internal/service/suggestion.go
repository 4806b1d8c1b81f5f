package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/clinical-cds-server/internal/domain"
)

// testAlgorithm holds the static test sets for one condition. Immediate tests
// are included when the posterior exceeds 0.6, sequential tests above 0.3.
type testAlgorithm struct {
	Immediate  []domain.RecommendedTest
	Sequential []domain.RecommendedTest
}

var testAlgorithms = map[string]testAlgorithm{
	"myocardial_infarction": {
		Immediate: []domain.RecommendedTest{
			{Name: "12-lead ECG", Rationale: "Detect ST-segment changes"},
			{Name: "High-sensitivity troponin", Rationale: "Confirm myocardial injury"},
		},
		Sequential: []domain.RecommendedTest{
			{Name: "Chest X-ray", Rationale: "Exclude alternative thoracic pathology"},
			{Name: "Echocardiogram", Rationale: "Assess wall motion abnormalities"},
		},
	},
	"stroke": {
		Immediate: []domain.RecommendedTest{
			{Name: "Non-contrast head CT", Rationale: "Differentiate ischemic from hemorrhagic stroke"},
			{Name: "Blood glucose", Rationale: "Exclude hypoglycemia mimicking stroke"},
		},
		Sequential: []domain.RecommendedTest{
			{Name: "MRI brain", Rationale: "Characterize infarct territory"},
			{Name: "Carotid doppler", Rationale: "Identify embolic source"},
		},
	},
	"sepsis": {
		Immediate: []domain.RecommendedTest{
			{Name: "Blood cultures", Rationale: "Identify causative organism before antibiotics"},
			{Name: "Serum lactate", Rationale: "Gauge tissue hypoperfusion"},
		},
		Sequential: []domain.RecommendedTest{
			{Name: "Complete blood count", Rationale: "Quantify leukocytosis"},
			{Name: "Procalcitonin", Rationale: "Support bacterial etiology"},
		},
	},
	"pulmonary_embolism": {
		Immediate: []domain.RecommendedTest{
			{Name: "CT pulmonary angiogram", Rationale: "Visualize embolus"},
		},
		Sequential: []domain.RecommendedTest{
			{Name: "D-dimer", Rationale: "Exclude PE in low pretest probability"},
			{Name: "Lower limb doppler", Rationale: "Detect source thrombus"},
		},
	},
	"heart_failure": {
		Immediate: []domain.RecommendedTest{
			{Name: "NT-proBNP", Rationale: "Confirm cardiac origin of dyspnea"},
		},
		Sequential: []domain.RecommendedTest{
			{Name: "Echocardiogram", Rationale: "Measure ejection fraction"},
			{Name: "Chest X-ray", Rationale: "Assess pulmonary congestion"},
		},
	},
	"pneumonia": {
		Immediate: []domain.RecommendedTest{
			{Name: "Chest X-ray", Rationale: "Demonstrate consolidation"},
		},
		Sequential: []domain.RecommendedTest{
			{Name: "Sputum culture", Rationale: "Target antimicrobial therapy"},
			{Name: "Complete blood count", Rationale: "Quantify inflammatory response"},
		},
	},
	"appendicitis": {
		Immediate: []domain.RecommendedTest{
			{Name: "Abdominal CT", Rationale: "Confirm appendiceal inflammation"},
		},
		Sequential: []domain.RecommendedTest{
			{Name: "Complete blood count", Rationale: "Support inflammatory picture"},
			{Name: "Urinalysis", Rationale: "Exclude urinary pathology"},
		},
	},
	"copd_exacerbation": {
		Immediate: []domain.RecommendedTest{
			{Name: "Arterial blood gas", Rationale: "Assess ventilatory failure"},
		},
		Sequential: []domain.RecommendedTest{
			{Name: "Chest X-ray", Rationale: "Exclude pneumothorax and infection"},
		},
	},
	"gastroesophageal_reflux": {
		Sequential: []domain.RecommendedTest{
			{Name: "Upper endoscopy", Rationale: "Evaluate refractory or alarm symptoms"},
		},
	},
	"migraine": {
		Sequential: []domain.RecommendedTest{
			{Name: "Neurological examination", Rationale: "Exclude secondary headache"},
		},
	},
	"urinary_tract_infection": {
		Sequential: []domain.RecommendedTest{
			{Name: "Urinalysis", Rationale: "Demonstrate pyuria and nitrites"},
			{Name: "Urine culture", Rationale: "Identify organism and sensitivities"},
		},
	},
	"anxiety_disorder": {
		Sequential: []domain.RecommendedTest{
			{Name: "Thyroid function tests", Rationale: "Exclude hyperthyroidism"},
		},
	},
}

// referralRule maps a specialty to the conditions and probability threshold
// that trigger a referral; evaluated in order, first match wins.
type referralRule struct {
	Specialty      string
	Conditions     []string
	MinProbability float64
	ByUrgency      map[domain.UrgencyTier]string
}

var referralRules = []referralRule{
	{
		Specialty:      "cardiology",
		Conditions:     []string{"myocardial_infarction", "heart_failure"},
		MinProbability: 0.3,
		ByUrgency: map[domain.UrgencyTier]string{
			domain.CRITICAL_URGENCY: "emergency",
			domain.HIGH_URGENCY:     "urgent",
			domain.MODERATE_URGENCY: "routine",
		},
	},
	{
		Specialty:      "neurology",
		Conditions:     []string{"stroke", "migraine"},
		MinProbability: 0.3,
		ByUrgency: map[domain.UrgencyTier]string{
			domain.CRITICAL_URGENCY: "emergency",
			domain.HIGH_URGENCY:     "urgent",
			domain.MODERATE_URGENCY: "routine",
		},
	},
	{
		Specialty:      "general_surgery",
		Conditions:     []string{"appendicitis"},
		MinProbability: 0.4,
		ByUrgency: map[domain.UrgencyTier]string{
			domain.CRITICAL_URGENCY: "emergency",
			domain.HIGH_URGENCY:     "urgent",
			domain.MODERATE_URGENCY: "routine",
		},
	},
	{
		Specialty:      "pulmonology",
		Conditions:     []string{"pulmonary_embolism", "copd_exacerbation", "pneumonia"},
		MinProbability: 0.5,
		ByUrgency: map[domain.UrgencyTier]string{
			domain.CRITICAL_URGENCY: "emergency",
			domain.HIGH_URGENCY:     "urgent",
			domain.MODERATE_URGENCY: "routine",
		},
	},
}

// urgencyMultipliers scale the posterior into the urgency score
var urgencyMultipliers = map[domain.UrgencyTier]float64{
	domain.CRITICAL_URGENCY: 1.5,
	domain.HIGH_URGENCY:     1.25,
	domain.MODERATE_URGENCY: 1.0,
}

// SuggestionEngine enriches ranked hypotheses into actionable suggestions
// using deterministic rule tables. It performs no I/O aside from the optional
// narrative-enrichment call, whose output is advisory text only.
type SuggestionEngine struct {
	logger   *logrus.Logger
	enricher domain.NarrativeEnricher
}

// NewSuggestionEngine creates a new suggestion engine. The enricher may be
// nil; suggestions then keep the rule-derived reasoning strings.
func NewSuggestionEngine(logger *logrus.Logger, enricher domain.NarrativeEnricher) *SuggestionEngine {
	return &SuggestionEngine{logger: logger, enricher: enricher}
}

// GenerateSuggestions converts hypotheses into suggestions with category,
// priority, recommended tests, referral decision, and urgency score.
func (s *SuggestionEngine) GenerateSuggestions(ctx context.Context, hypotheses []domain.DiagnosticHypothesis, patientCtx domain.PatientContext) []domain.DiagnosticSuggestion {
	suggestions := make([]domain.DiagnosticSuggestion, 0, len(hypotheses))

	for i, hyp := range hypotheses {
		suggestion := domain.DiagnosticSuggestion{
			Hypothesis:       hyp,
			Rank:             i,
			Category:         classifyCategory(i, hyp.Probability),
			Priority:         classifyPriority(hyp.Urgency, hyp.Probability),
			RecommendedTests: recommendTests(hyp.ConditionKey, hyp.Probability, patientCtx.Age),
			Referral:         findReferral(hyp),
			UrgencyScore:     urgencyScore(hyp.Probability, hyp.Urgency, patientCtx.Age),
		}
		suggestions = append(suggestions, suggestion)
	}

	// Advisory narrative for the leading suggestion only; failure keeps the
	// deterministic reasoning string.
	if s.enricher != nil && len(suggestions) > 0 {
		if text, err := s.enricher.Enrich(ctx, suggestions[0].Hypothesis, patientCtx); err != nil {
			s.logger.WithError(err).Warn("Narrative enrichment failed, keeping rule-derived reasoning")
		} else if text != "" {
			suggestions[0].Hypothesis.Reasoning = text
		}
	}

	s.logger.WithField("suggestions", len(suggestions)).Debug("Generated diagnostic suggestions")
	return suggestions
}

// classifyCategory derives the suggestion category from rank and probability
func classifyCategory(rank int, p float64) domain.SuggestionCategory {
	switch {
	case rank == 0 && p > 0.6:
		return domain.PRIMARY
	case p > 0.3:
		return domain.DIFFERENTIAL
	case p > 0.1:
		return domain.RULE_OUT
	default:
		return domain.SCREENING
	}
}

// classifyPriority derives the action priority from urgency tier and probability
func classifyPriority(urgency domain.UrgencyTier, p float64) domain.SuggestionPriority {
	switch {
	case urgency == domain.CRITICAL_URGENCY:
		return domain.IMMEDIATE
	case urgency == domain.HIGH_URGENCY || p > 0.7:
		return domain.URGENT
	case p > 0.3:
		return domain.ROUTINE
	default:
		return domain.FOLLOW_UP
	}
}

// recommendTests pulls tests from the static table, gated by probability, and
// annotates rationales for older patients.
func recommendTests(conditionKey string, p float64, age int) []domain.RecommendedTest {
	algo, ok := testAlgorithms[conditionKey]
	if !ok {
		return []domain.RecommendedTest{}
	}

	tests := make([]domain.RecommendedTest, 0, len(algo.Immediate)+len(algo.Sequential))
	if p > 0.6 {
		tests = append(tests, algo.Immediate...)
	}
	if p > 0.3 {
		tests = append(tests, algo.Sequential...)
	}

	if age > 65 {
		for i := range tests {
			tests[i].Rationale += "; interpret against age-related baseline changes"
		}
	}

	return tests
}

// findReferral evaluates the referral rules in order; first match wins
func findReferral(hyp domain.DiagnosticHypothesis) *domain.SpecialistReferral {
	for _, rule := range referralRules {
		if hyp.Probability < rule.MinProbability {
			continue
		}
		for _, key := range rule.Conditions {
			if key == hyp.ConditionKey {
				return &domain.SpecialistReferral{
					Specialty:    rule.Specialty,
					ReferralType: rule.ByUrgency[hyp.Urgency],
				}
			}
		}
	}
	return nil
}

// urgencyScore scales probability by the urgency multiplier and age
// adjustment, capped at 1.0.
func urgencyScore(p float64, urgency domain.UrgencyTier, age int) float64 {
	score := p * urgencyMultipliers[urgency]
	if age > 75 {
		score *= 1.1
	} else if age > 0 && age < 18 {
		score *= 1.05
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
