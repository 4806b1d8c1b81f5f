package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/clinical-cds-server/internal/domain"
)

const (
	posteriorCap      = 0.99
	discardThreshold  = 0.05
	maxHypotheses     = 5
	emergencyUrgencyP = 0.3
	highUrgencyP      = 0.5
	elderlyUrgencyP   = 0.4
	elderlyUrgencyAge = 75
)

// ReasoningEngine computes a ranked differential diagnosis from prior
// probabilities and per-finding likelihood ratios.
//
// Evidence is applied as sequential odds-form Bayes updates, which assumes
// conditional independence between findings. That is a known simplification
// kept for compatibility with the established scoring behavior.
type ReasoningEngine struct {
	logger    *logrus.Logger
	knowledge domain.KnowledgeProvider
	extractor *EvidenceExtractor
}

// NewReasoningEngine creates a new Bayesian reasoning engine
func NewReasoningEngine(logger *logrus.Logger, knowledge domain.KnowledgeProvider) *ReasoningEngine {
	return &ReasoningEngine{
		logger:    logger,
		knowledge: knowledge,
		extractor: NewEvidenceExtractor(logger),
	}
}

// DifferentialDiagnosis scores every known condition against the extracted
// evidence and returns up to five hypotheses ranked by posterior probability,
// ties broken by condition key for determinism. A missing condition profile
// skips that condition; it never aborts the pass. The returned slice is
// non-nil even when empty.
func (r *ReasoningEngine) DifferentialDiagnosis(ctx context.Context, symptoms []string, patientCtx domain.PatientContext, findings []domain.ClinicalFinding) ([]domain.DiagnosticHypothesis, error) {
	evidence := r.extractor.Extract(symptoms, findings)
	priors := r.knowledge.Priors()
	ratios := r.knowledge.Likelihoods()

	// Sorted key order keeps the evaluation deterministic
	keys := make([]string, 0, len(priors))
	for key := range priors {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	hypotheses := make([]domain.DiagnosticHypothesis, 0, len(keys))
	lookupMisses := 0

	for _, key := range keys {
		profile, ok := r.knowledge.GetConditionProfile(key)
		if !ok {
			lookupMisses++
			r.logger.WithField("condition", key).Warn("Knowledge lookup miss, skipping condition")
			continue
		}

		hypothesis := r.scoreCondition(key, profile, priors[key], ratios, evidence, patientCtx)
		if hypothesis.Probability <= discardThreshold {
			continue
		}
		hypotheses = append(hypotheses, hypothesis)
	}

	if lookupMisses == len(keys) && len(keys) > 0 {
		r.logger.WithField("conditions", len(keys)).Warn("All knowledge lookups failed, returning empty differential")
	}

	sort.SliceStable(hypotheses, func(i, j int) bool {
		if hypotheses[i].Probability != hypotheses[j].Probability {
			return hypotheses[i].Probability > hypotheses[j].Probability
		}
		return hypotheses[i].ConditionKey < hypotheses[j].ConditionKey
	})

	if len(hypotheses) > maxHypotheses {
		hypotheses = hypotheses[:maxHypotheses]
	}

	r.logger.WithFields(logrus.Fields{
		"evidence_items": len(evidence),
		"hypotheses":     len(hypotheses),
		"lookup_misses":  lookupMisses,
	}).Info("Completed differential diagnosis")

	return hypotheses, nil
}

// scoreCondition runs the sequential Bayes updates for one condition and
// assembles the hypothesis record.
func (r *ReasoningEngine) scoreCondition(key string, profile *domain.ConditionProfile, prior float64, ratios domain.LikelihoodTable, evidence []domain.EvidenceItem, patientCtx domain.PatientContext) domain.DiagnosticHypothesis {
	p := prior
	var supporting, contradicting []domain.EvidenceItem

	for _, item := range evidence {
		conditionRatios, ok := ratios[item.Finding]
		if !ok {
			continue
		}
		lr, ok := conditionRatios[key]
		if !ok {
			continue
		}

		ratio := lr.Positive
		if !item.Present {
			ratio = lr.Negative
		}

		// Odds-form update followed by a confidence blend toward the prior
		p = p * ratio / (p*ratio + (1 - p))
		p = p*item.Confidence + prior*(1-item.Confidence)

		if ratio > 1 {
			supporting = append(supporting, item)
		} else if ratio < 1 {
			contradicting = append(contradicting, item)
		}
	}

	if p > posteriorCap {
		p = posteriorCap
	}
	if p < 0 {
		p = 0
	}

	icdCode := ""
	if len(profile.ICDCodes) > 0 {
		icdCode = profile.ICDCodes[0]
	}

	return domain.DiagnosticHypothesis{
		ConditionKey:          key,
		Condition:             profile.Name,
		ICDCode:               icdCode,
		Probability:           p,
		Certainty:             ClassifyCertainty(p),
		Urgency:               classifyUrgency(profile, p, patientCtx.Age),
		SupportingEvidence:    supporting,
		ContradictingEvidence: contradicting,
		Reasoning:             buildReasoning(profile, prior, p, len(supporting), len(contradicting)),
		NextSteps:             nextSteps(profile),
	}
}

// ClassifyCertainty maps a posterior probability onto its certainty tier
func ClassifyCertainty(p float64) domain.CertaintyTier {
	switch {
	case p >= 0.90:
		return domain.DEFINITIVE
	case p >= 0.70:
		return domain.PROBABLE
	case p >= 0.40:
		return domain.POSSIBLE
	case p >= 0.10:
		return domain.UNLIKELY
	default:
		return domain.EXCLUDED
	}
}

// classifyUrgency derives the urgency tier from the condition profile,
// posterior probability, and patient age.
func classifyUrgency(profile *domain.ConditionProfile, p float64, age int) domain.UrgencyTier {
	if profile.Emergency && p > emergencyUrgencyP {
		return domain.CRITICAL_URGENCY
	}
	if profile.HighUrgency && p > highUrgencyP {
		return domain.HIGH_URGENCY
	}
	if age > elderlyUrgencyAge && p > elderlyUrgencyP {
		return domain.HIGH_URGENCY
	}
	return domain.MODERATE_URGENCY
}

// buildReasoning produces the deterministic rule-derived rationale string.
// Narrative enrichment may replace it with advisory text later, but never the
// numbers behind it.
func buildReasoning(profile *domain.ConditionProfile, prior, posterior float64, supporting, contradicting int) string {
	return fmt.Sprintf(
		"%s: posterior probability %.2f (prior %.2f) based on %d supporting and %d contradicting findings",
		profile.Name, posterior, prior, supporting, contradicting,
	)
}

func nextSteps(profile *domain.ConditionProfile) []string {
	if len(profile.Guidelines) > 0 {
		steps := make([]string, len(profile.Guidelines))
		copy(steps, profile.Guidelines)
		return steps
	}
	return []string{fmt.Sprintf("Correlate clinically and reassess for %s", profile.Name)}
}
