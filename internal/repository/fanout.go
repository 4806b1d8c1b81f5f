package repository

import (
	"context"
	"errors"

	"github.com/clinical-cds-server/internal/domain"
)

// FanoutAlertSink delivers each alert to every configured sink. A failing
// sink does not stop delivery to the others.
type FanoutAlertSink struct {
	sinks []domain.AlertSink
}

// NewFanoutAlertSink creates a sink that fans out to the given sinks.
// Nil entries are skipped.
func NewFanoutAlertSink(sinks ...domain.AlertSink) *FanoutAlertSink {
	kept := make([]domain.AlertSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &FanoutAlertSink{sinks: kept}
}

// EmitAlert forwards the alert to all sinks and joins any errors
func (f *FanoutAlertSink) EmitAlert(ctx context.Context, alert domain.ClinicalAlert) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.EmitAlert(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
