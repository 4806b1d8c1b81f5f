package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/clinical-cds-server/internal/domain"
)

// Config holds narrative enrichment configuration
type Config struct {
	Enabled bool
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls a hosted language model to produce advisory rationale text for
// a diagnostic hypothesis. The call is timeout-bounded and wrapped in a
// circuit breaker; callers fall back to the rule-derived reasoning string on
// any failure. The model never decides probabilities or priorities.
type Client struct {
	config  Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *logrus.Logger
}

// generateRequest is the wire format sent to the generation endpoint
type generateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// generateResponse is the wire format returned by the generation endpoint
type generateResponse struct {
	Text string `json:"text"`
}

// NewClient creates a narrative enrichment client
func NewClient(config Config, logger *logrus.Logger) *Client {
	if config.Timeout <= 0 || config.Timeout > 2*time.Second {
		config.Timeout = 2 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "narrative-enrichment",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Enrichment circuit breaker state changed")
		},
	})

	return &Client{
		config:  config,
		http:    &http.Client{Timeout: config.Timeout},
		breaker: breaker,
		logger:  logger,
	}
}

// Enrich produces advisory narrative text for the hypothesis. Errors and
// timeouts are returned to the caller, which keeps the deterministic
// reasoning string.
func (c *Client) Enrich(ctx context.Context, hypothesis domain.DiagnosticHypothesis, patientCtx domain.PatientContext) (string, error) {
	if !c.config.Enabled {
		return "", errors.New("narrative enrichment is disabled")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.generate(ctx, hypothesis, patientCtx)
	})
	if err != nil {
		return "", fmt.Errorf("narrative enrichment: %w", err)
	}

	return result.(string), nil
}

func (c *Client) generate(ctx context.Context, hypothesis domain.DiagnosticHypothesis, patientCtx domain.PatientContext) (string, error) {
	payload := generateRequest{
		Model:       c.config.Model,
		Prompt:      buildPrompt(hypothesis, patientCtx),
		MaxTokens:   256,
		Temperature: 0.2,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling enrichment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building enrichment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling enrichment endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("enrichment endpoint returned status %d", resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding enrichment response: %w", err)
	}

	return parsed.Text, nil
}

// buildPrompt frames the deterministic findings for the language model. The
// numbers are already decided; the model only phrases them.
func buildPrompt(hypothesis domain.DiagnosticHypothesis, patientCtx domain.PatientContext) string {
	return fmt.Sprintf(
		"Rephrase the following diagnostic rationale for a clinician, without changing any probability or recommendation. "+
			"Patient: age %d, gender %s. Hypothesis: %s (certainty %s, urgency %s). Rationale: %s",
		patientCtx.Age, patientCtx.Gender,
		hypothesis.Condition, hypothesis.Certainty, hypothesis.Urgency,
		hypothesis.Reasoning,
	)
}
