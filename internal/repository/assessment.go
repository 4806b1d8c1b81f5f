package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/clinical-cds-server/internal/domain"
)

// AssessmentRepository persists composite assessment results
type AssessmentRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db *pgxpool.Pool, logger *logrus.Logger) *AssessmentRepository {
	return &AssessmentRepository{
		db:  db,
		log: logger,
	}
}

// StoreResult inserts a composite result into the assessments table
func (r *AssessmentRepository) StoreResult(ctx context.Context, result *domain.ComprehensiveResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling assessment result: %w", err)
	}

	query := `
		INSERT INTO assessments (
			patient_id, risk_level, risk_score, result
		) VALUES (
			$1, $2, $3, $4
		)`

	_, err = r.db.Exec(ctx, query,
		result.PatientID,
		string(result.Risk.Level),
		result.Risk.OverallScore,
		resultJSON,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id": result.PatientID,
			"risk_level": result.Risk.Level,
			"error":      err,
		}).Error("Failed to store assessment result")
		return fmt.Errorf("storing assessment result: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"patient_id": result.PatientID,
		"risk_level": result.Risk.Level,
	}).Debug("Assessment result stored")

	return nil
}

// AssessmentRecord is a stored assessment row returned by history queries
type AssessmentRecord struct {
	ID        int64                       `json:"id"`
	PatientID string                      `json:"patient_id"`
	RiskLevel domain.RiskLevel            `json:"risk_level"`
	RiskScore float64                     `json:"risk_score"`
	Result    *domain.ComprehensiveResult `json:"result"`
	CreatedAt time.Time                   `json:"created_at"`
}

// GetByPatientID retrieves the most recent assessments for a patient
func (r *AssessmentRepository) GetByPatientID(ctx context.Context, patientID string, limit int) ([]AssessmentRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, patient_id, risk_level, risk_score, result, created_at
		FROM assessments
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying assessments: %w", err)
	}
	defer rows.Close()

	records := make([]AssessmentRecord, 0, limit)
	for rows.Next() {
		var rec AssessmentRecord
		var resultJSON []byte

		err := rows.Scan(&rec.ID, &rec.PatientID, &rec.RiskLevel, &rec.RiskScore, &resultJSON, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning assessment row: %w", err)
		}

		rec.Result = &domain.ComprehensiveResult{}
		if err := json.Unmarshal(resultJSON, rec.Result); err != nil {
			return nil, fmt.Errorf("unmarshaling assessment result: %w", err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assessment rows: %w", err)
	}

	return records, nil
}

// GetLatest retrieves the newest assessment for a patient, or pgx.ErrNoRows
func (r *AssessmentRepository) GetLatest(ctx context.Context, patientID string) (*AssessmentRecord, error) {
	query := `
		SELECT id, patient_id, risk_level, risk_score, result, created_at
		FROM assessments
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var rec AssessmentRecord
	var resultJSON []byte

	err := r.db.QueryRow(ctx, query, patientID).Scan(
		&rec.ID, &rec.PatientID, &rec.RiskLevel, &rec.RiskScore, &resultJSON, &rec.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("querying latest assessment: %w", err)
	}

	rec.Result = &domain.ComprehensiveResult{}
	if err := json.Unmarshal(resultJSON, rec.Result); err != nil {
		return nil, fmt.Errorf("unmarshaling assessment result: %w", err)
	}

	return &rec, nil
}
