package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"settlement-portal/internal/config"
	"settlement-portal/internal/models"
	"settlement-portal/internal/reconciliation"
)

// ValidationService orchestrates the core reconciliation pipeline: parse
// the uploaded workbook, build the lookup context from the caller-supplied
// snapshot, run the rule battery. It holds only configuration and is safe
// for concurrent use.
type ValidationService struct {
	deserializer *reconciliation.Deserializer
	tolerance    decimal.Decimal
	logger       *logrus.Logger
}

func NewValidationService(cfg *config.Config, logger *logrus.Logger) (*ValidationService, error) {
	layout, err := reconciliation.LayoutForVersion(cfg.ReportLayout)
	if err != nil {
		return nil, err
	}
	tolerance, err := decimal.NewFromString(cfg.ReconTolerance)
	if err != nil {
		return nil, fmt.Errorf("invalid RECON_TOLERANCE %q: %w", cfg.ReconTolerance, err)
	}
	format := reconciliation.NumericFormat{
		GroupSeparator:   cfg.GroupSeparator,
		DecimalSeparator: cfg.DecimalSeparator,
	}
	return &ValidationService{
		deserializer: reconciliation.NewDeserializer(layout, format),
		tolerance:    tolerance,
		logger:       logger,
	}, nil
}

// ParseReport decodes the uploaded workbook buffer. The buffer is consumed
// in memory and never written to disk.
func (s *ValidationService) ParseReport(buf []byte) (*models.SettlementReport, error) {
	return s.deserializer.Deserialize(buf)
}

// ValidateReport runs the full rule battery against a parsed report.
func (s *ValidationService) ValidateReport(report *models.SettlementReport, snapshot *models.LedgerSnapshot) (map[string][]reconciliation.Finding, error) {
	ctx, err := reconciliation.NewContext(snapshot)
	if err != nil {
		return nil, err
	}
	results := reconciliation.Validate(report, ctx, &snapshot.Settlement, s.tolerance)

	errors, warnings := CountFindings(results)
	s.logger.WithFields(logrus.Fields{
		"settlement_id": report.SettlementID,
		"entries":       len(report.Entries),
		"errors":        errors,
		"warnings":      warnings,
	}).Info("validation run completed")

	return results, nil
}

// CountFindings tallies findings by severity across all rules.
func CountFindings(results map[string][]reconciliation.Finding) (errors, warnings int) {
	for _, findings := range results {
		for _, f := range findings {
			if f.Severity == reconciliation.SeverityError {
				errors++
			} else {
				warnings++
			}
		}
	}
	return errors, warnings
}

// FindingsToModels flattens a validation result into persistable rows, in
// the engine's fixed rule order so stored findings stay deterministic.
func FindingsToModels(runID int, results map[string][]reconciliation.Finding) []models.ValidationFinding {
	now := time.Now()
	var rows []models.ValidationFinding
	for _, rule := range reconciliation.Rules() {
		for _, f := range results[rule.Name] {
			rows = append(rows, models.ValidationFinding{
				RunID:           runID,
				Rule:            rule.Name,
				Kind:            string(f.Kind),
				Severity:        string(f.Severity),
				AccountID:       f.AccountID,
				ParticipantID:   f.ParticipantID,
				ParticipantName: f.ParticipantName,
				Expected:        f.Expected,
				Actual:          f.Actual,
				Description:     f.Description,
				CreatedAt:       now,
			})
		}
	}
	return rows
}
