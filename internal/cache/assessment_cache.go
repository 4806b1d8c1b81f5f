package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/clinical-cds-server/internal/domain"
)

// Config holds cache configuration
type Config struct {
	RedisURL    string
	DefaultTTL  time.Duration
	MaxRetries  int
	PoolSize    int
	PoolTimeout time.Duration
}

// AssessmentCache caches composite assessment results in Redis, keyed by a
// fingerprint of the request inputs. A nil *AssessmentCache is valid and
// behaves as an always-miss cache, so redis stays optional.
type AssessmentCache struct {
	redis      *redis.Client
	defaultTTL time.Duration
	logger     *logrus.Logger
}

// cachedResult wraps a stored result with expiry metadata
type cachedResult struct {
	Data      *domain.ComprehensiveResult `json:"data"`
	CachedAt  time.Time                   `json:"cached_at"`
	ExpiresAt time.Time                   `json:"expires_at"`
}

// NewAssessmentCache creates a cache client and verifies connectivity
func NewAssessmentCache(config Config, logger *logrus.Logger) (*AssessmentCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.PoolSize
	opts.PoolTimeout = config.PoolTimeout
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &AssessmentCache{
		redis:      client,
		defaultTTL: config.DefaultTTL,
		logger:     logger,
	}, nil
}

// Get retrieves a cached result for the given request inputs
func (c *AssessmentCache) Get(ctx context.Context, patientID string, symptoms []string, patientCtx domain.PatientContext, findings []domain.ClinicalFinding) (*domain.ComprehensiveResult, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}

	key := RequestFingerprint(patientID, symptoms, patientCtx, findings)

	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).Warn("Assessment cache read failed")
		return nil, false
	}

	var cached cachedResult
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		c.redis.Del(ctx, key)
		return nil, false
	}

	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return nil, false
	}

	return cached.Data, true
}

// Set stores a result under the request fingerprint
func (c *AssessmentCache) Set(ctx context.Context, patientID string, symptoms []string, patientCtx domain.PatientContext, findings []domain.ClinicalFinding, result *domain.ComprehensiveResult) {
	if c == nil || c.redis == nil {
		return
	}

	key := RequestFingerprint(patientID, symptoms, patientCtx, findings)

	cached := cachedResult{
		Data:      result,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(c.defaultTTL),
	}

	jsonData, err := json.Marshal(cached)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to marshal assessment for cache")
		return
	}

	if err := c.redis.Set(ctx, key, jsonData, c.defaultTTL).Err(); err != nil {
		c.logger.WithError(err).Warn("Assessment cache write failed")
	}
}

// Close releases the underlying redis connection
func (c *AssessmentCache) Close() error {
	if c == nil || c.redis == nil {
		return nil
	}
	return c.redis.Close()
}

// RequestFingerprint builds a deterministic cache key from the request
// inputs. Symptoms, findings, and list-valued context fields are sorted so
// ordering does not change the fingerprint. The patient context is part of
// the key because risk levels, urgency tiers, and alerts all depend on it.
func RequestFingerprint(patientID string, symptoms []string, patientCtx domain.PatientContext, findings []domain.ClinicalFinding) string {
	sortedSymptoms := make([]string, len(symptoms))
	copy(sortedSymptoms, symptoms)
	sort.Strings(sortedSymptoms)

	parts := make([]string, 0, len(findings))
	for _, f := range findings {
		parts = append(parts, fmt.Sprintf("%s=%t", f.Name, f.Present))
	}
	sort.Strings(parts)

	ctxParts := []string{
		fmt.Sprintf("age=%d", patientCtx.Age),
		"gender=" + patientCtx.Gender,
		"history=" + sortedJoin(patientCtx.MedicalHistory),
		"comorbidities=" + sortedJoin(patientCtx.Comorbidities),
		"medications=" + sortedJoin(patientCtx.Medications),
	}

	payload := patientID + "|" + strings.Join(sortedSymptoms, ",") + "|" +
		strings.Join(parts, ",") + "|" + strings.Join(ctxParts, ";")
	sum := sha256.Sum256([]byte(payload))
	return fmt.Sprintf("assessment:%x", sum)
}

func sortedJoin(values []string) string {
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
