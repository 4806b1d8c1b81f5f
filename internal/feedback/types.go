// Package feedback provides clinician feedback storage for diagnostic
// suggestions. It stores agreements and corrections so suggestion quality
// can be reviewed over time.
package feedback

import (
	"context"
	"io"
	"time"
)

// Assessment represents the clinician's verdict on a suggestion.
type Assessment string

const (
	AssessmentAgree    Assessment = "agree"
	AssessmentDisagree Assessment = "disagree"
	AssessmentModified Assessment = "modified"
)

// Feedback represents a clinician's feedback on a diagnostic suggestion.
type Feedback struct {
	ID                 int64      `json:"id,omitempty"`
	PatientID          string     `json:"patient_id"`
	ConditionKey       string     `json:"condition_key"`      // Suggested condition
	SuggestedCategory  string     `json:"suggested_category"` // System's category
	SuggestedPriority  string     `json:"suggested_priority"` // System's priority
	Verdict            Assessment `json:"verdict"`            // Clinician's decision
	ConfirmedCondition string     `json:"confirmed_condition,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Stats summarizes feedback agreement for one condition.
type Stats struct {
	ConditionKey string `json:"condition_key"`
	Total        int64  `json:"total"`
	Agreed       int64  `json:"agreed"`
	Disagreed    int64  `json:"disagreed"`
	Modified     int64  `json:"modified"`
}

// Store defines the interface for feedback storage operations.
type Store interface {
	// Save stores or updates feedback for a suggestion.
	// If feedback for the same patient+condition exists, it will be updated.
	Save(ctx context.Context, feedback *Feedback) error

	// Get retrieves feedback for a patient and condition.
	// Returns nil without error when no feedback exists.
	Get(ctx context.Context, patientID string, conditionKey string) (*Feedback, error)

	// List returns all feedback entries with pagination.
	List(ctx context.Context, limit, offset int) ([]*Feedback, error)

	// Count returns the total number of feedback entries.
	Count(ctx context.Context) (int64, error)

	// StatsByCondition aggregates verdict counts per condition.
	StatsByCondition(ctx context.Context) ([]Stats, error)

	// Delete removes a feedback entry by ID.
	Delete(ctx context.Context, id int64) error

	// ExportJSON exports all feedback to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON imports feedback from a JSON reader.
	// Returns the number of imported and skipped entries.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// FeedbackExport represents the JSON export format.
type FeedbackExport struct {
	Version    string      `json:"version"`
	ExportedAt time.Time   `json:"exported_at"`
	Count      int         `json:"count"`
	Feedback   []*Feedback `json:"feedback"`
}
