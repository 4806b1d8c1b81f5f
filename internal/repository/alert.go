package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/clinical-cds-server/internal/domain"
)

// AlertRepository persists clinical alerts
type AlertRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *pgxpool.Pool, logger *logrus.Logger) *AlertRepository {
	return &AlertRepository{
		db:  db,
		log: logger,
	}
}

// EmitAlert inserts an alert into the clinical_alerts table
func (r *AlertRepository) EmitAlert(ctx context.Context, alert domain.ClinicalAlert) error {
	query := `
		INSERT INTO clinical_alerts (
			id, patient_id, severity, message, action_timeline,
			risk_score, created_at, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)`

	_, err := r.db.Exec(ctx, query,
		alert.ID,
		alert.PatientID,
		string(alert.Severity),
		alert.Message,
		alert.RecommendedTimeline,
		alert.RiskScore,
		alert.CreatedAt,
		alert.ExpiresAt,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"alert_id":   alert.ID,
			"patient_id": alert.PatientID,
			"severity":   alert.Severity,
			"error":      err,
		}).Error("Failed to store clinical alert")
		return fmt.Errorf("storing clinical alert: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"alert_id":   alert.ID,
		"patient_id": alert.PatientID,
		"severity":   alert.Severity,
	}).Info("Clinical alert stored")

	return nil
}

// GetActiveByPatientID retrieves unexpired, unacknowledged alerts for a patient
func (r *AlertRepository) GetActiveByPatientID(ctx context.Context, patientID string) ([]domain.ClinicalAlert, error) {
	query := `
		SELECT id, patient_id, severity, message, action_timeline,
			risk_score, created_at, expires_at
		FROM clinical_alerts
		WHERE patient_id = $1 AND acknowledged = FALSE AND expires_at > $2
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, patientID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("querying active alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]domain.ClinicalAlert, 0)
	for rows.Next() {
		var a domain.ClinicalAlert
		var severity string

		err := rows.Scan(&a.ID, &a.PatientID, &severity, &a.Message,
			&a.RecommendedTimeline, &a.RiskScore, &a.CreatedAt, &a.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("scanning alert row: %w", err)
		}

		a.Severity = domain.AlertSeverity(severity)
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alert rows: %w", err)
	}

	return alerts, nil
}

// Acknowledge marks an alert as acknowledged so it no longer appears active
func (r *AlertRepository) Acknowledge(ctx context.Context, alertID string) error {
	query := `UPDATE clinical_alerts SET acknowledged = TRUE WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, alertID)
	if err != nil {
		return fmt.Errorf("acknowledging alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("alert %s not found", alertID)
	}

	return nil
}
