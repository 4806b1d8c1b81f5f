package knowledge

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/clinical-cds-server/internal/domain"
)

const profileCacheSize = 128

// Provider serves the static clinical knowledge tables behind a bounded LRU
// cache. The tables themselves are immutable after construction, so concurrent
// readers need no locking; the cache carries its own synchronization.
type Provider struct {
	logger   *logrus.Logger
	profiles map[string]*domain.ConditionProfile
	priors   domain.PriorTable
	ratios   domain.LikelihoodTable
	cache    *lru.Cache[string, *domain.ConditionProfile]
}

// NewProvider creates a knowledge provider over the built-in tables and
// validates the table invariants once at load time.
func NewProvider(logger *logrus.Logger) (*Provider, error) {
	return newProviderWithTables(logger, conditionProfiles, priorTable, likelihoodTable)
}

func newProviderWithTables(logger *logrus.Logger, profiles map[string]*domain.ConditionProfile, priors domain.PriorTable, ratios domain.LikelihoodTable) (*Provider, error) {
	if err := validateTables(priors, ratios); err != nil {
		return nil, fmt.Errorf("invalid knowledge tables: %w", err)
	}

	cache, err := lru.New[string, *domain.ConditionProfile](profileCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating profile cache: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"conditions": len(priors),
		"findings":   len(ratios),
		"profiles":   len(profiles),
	}).Info("Clinical knowledge tables loaded")

	return &Provider{
		logger:   logger,
		profiles: profiles,
		priors:   priors,
		ratios:   ratios,
		cache:    cache,
	}, nil
}

// validateTables enforces the load-time invariants: priors in (0,1) and
// strictly positive likelihood ratios.
func validateTables(priors domain.PriorTable, ratios domain.LikelihoodTable) error {
	for key, prior := range priors {
		if prior <= 0 || prior >= 1 {
			return fmt.Errorf("prior for %s out of range (0,1): %f", key, prior)
		}
	}
	for finding, conditions := range ratios {
		for key, lr := range conditions {
			if lr.Positive <= 0 || lr.Negative <= 0 {
				return fmt.Errorf("non-positive likelihood ratio for (%s, %s)", finding, key)
			}
		}
	}
	return nil
}

// GetConditionProfile returns the static profile for a condition key. A miss
// is not an error; callers skip conditions without a profile.
func (p *Provider) GetConditionProfile(conditionKey string) (*domain.ConditionProfile, bool) {
	if profile, ok := p.cache.Get(conditionKey); ok {
		return profile, true
	}

	profile, ok := p.profiles[conditionKey]
	if !ok {
		p.logger.WithField("condition", conditionKey).Debug("Condition profile not found")
		return nil, false
	}

	p.cache.Add(conditionKey, profile)
	return profile, true
}

// Priors returns the static prior probability table
func (p *Provider) Priors() domain.PriorTable {
	return p.priors
}

// Likelihoods returns the static likelihood ratio table
func (p *Provider) Likelihoods() domain.LikelihoodTable {
	return p.ratios
}
