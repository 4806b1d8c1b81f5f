package repository

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/clinical-cds-server/internal/domain"
)

// LoggingAlertSink writes alerts to the structured log only. It is used when
// the server runs without a database so alerts are still visible.
type LoggingAlertSink struct {
	log *logrus.Logger
}

// NewLoggingAlertSink creates an alert sink that logs instead of persisting
func NewLoggingAlertSink(logger *logrus.Logger) *LoggingAlertSink {
	return &LoggingAlertSink{log: logger}
}

// EmitAlert logs the alert at warning level and never fails
func (s *LoggingAlertSink) EmitAlert(ctx context.Context, alert domain.ClinicalAlert) error {
	s.log.WithFields(logrus.Fields{
		"alert_id":   alert.ID,
		"patient_id": alert.PatientID,
		"severity":   alert.Severity,
		"risk_score": alert.RiskScore,
		"timeline":   alert.RecommendedTimeline,
		"expires_at": alert.ExpiresAt,
	}).Warn(alert.Message)
	return nil
}
