package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"settlement-portal/internal/config"
	"settlement-portal/internal/models"
	"settlement-portal/internal/repository"
	"settlement-portal/internal/service"
	"settlement-portal/internal/utils"
)

const TaskReportValidate = "report:validate"

type ValidationTaskHandler struct {
	db                *sqlx.DB
	redis             *redis.Client
	cfg               *config.Config
	validationService *service.ValidationService
	validationRepo    *repository.ValidationRepository
	logger            *logrus.Logger
}

func NewValidationTaskHandler(db *sqlx.DB, redisClient *redis.Client, cfg *config.Config) (*ValidationTaskHandler, error) {
	logger := utils.GetLogger()
	validationService, err := service.NewValidationService(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &ValidationTaskHandler{
		db:                db,
		redis:             redisClient,
		cfg:               cfg,
		validationService: validationService,
		validationRepo:    repository.NewValidationRepository(db),
		logger:            logger,
	}, nil
}

type ValidationTaskPayload struct {
	RunID   int    `json:"run_id"`
	RunCode string `json:"run_code"`
}

func (h *ValidationTaskHandler) Handle(ctx context.Context, task *asynq.Task) error {
	var payload ValidationTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	log := h.logger.WithFields(logrus.Fields{
		"run_id":   payload.RunID,
		"run_code": payload.RunCode,
	})
	log.Info("starting validation run")

	run, err := h.validationRepo.GetRunByID(payload.RunID)
	if err != nil {
		return fmt.Errorf("failed to get validation run: %w", err)
	}

	// A run that already reached a terminal state was superseded by a
	// newer submission; its queued task is simply discarded.
	if run.Status == models.RunStatusCompleted || run.Status == models.RunStatusFailed {
		log.WithField("status", run.Status).Info("run already in terminal state, skipping")
		return nil
	}

	if err := h.validationRepo.UpdateRunStatus(run.ID, models.RunStatusRunning); err != nil {
		return fmt.Errorf("failed to mark run as running: %w", err)
	}
	h.setProgress(ctx, run.ID, "running")

	var report models.SettlementReport
	if err := json.Unmarshal(run.ReportJSON, &report); err != nil {
		return h.fail(ctx, run.ID, log, fmt.Errorf("failed to decode stored report: %w", err))
	}
	var snapshot models.LedgerSnapshot
	if err := json.Unmarshal(run.SnapshotJSON, &snapshot); err != nil {
		return h.fail(ctx, run.ID, log, fmt.Errorf("failed to decode stored snapshot: %w", err))
	}

	results, err := h.validationService.ValidateReport(&report, &snapshot)
	if err != nil {
		return h.fail(ctx, run.ID, log, fmt.Errorf("validation could not be run: %w", err))
	}

	findings := service.FindingsToModels(run.ID, results)
	if err := h.validationRepo.InsertFindings(findings); err != nil {
		return h.fail(ctx, run.ID, log, fmt.Errorf("failed to store findings: %w", err))
	}

	errorCount, warningCount := service.CountFindings(results)
	if err := h.validationRepo.CompleteRun(run.ID, models.RunStatusCompleted, "", errorCount, warningCount); err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	h.setProgress(ctx, run.ID, "completed")

	log.WithFields(logrus.Fields{
		"errors":   errorCount,
		"warnings": warningCount,
	}).Info("validation run finished")
	return nil
}

func (h *ValidationTaskHandler) fail(ctx context.Context, runID int, log *logrus.Entry, err error) error {
	log.WithError(err).Error("validation run failed")
	if updateErr := h.validationRepo.CompleteRun(runID, models.RunStatusFailed, err.Error(), 0, 0); updateErr != nil {
		log.WithError(updateErr).Error("failed to record run failure")
	}
	h.setProgress(ctx, runID, "failed")
	return err
}

func (h *ValidationTaskHandler) setProgress(ctx context.Context, runID int, state string) {
	if h.redis == nil {
		return
	}
	key := fmt.Sprintf("validation:progress:%d", runID)
	h.redis.Set(ctx, key, state, time.Hour)
}
