package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"settlement-portal/internal/config"
	"settlement-portal/internal/models"
	"settlement-portal/internal/reconciliation"
	"settlement-portal/internal/repository"
	"settlement-portal/internal/service"
	"settlement-portal/internal/utils"
)

const TaskReportValidate = "report:validate"

type ValidationHandler struct {
	validationRepo    *repository.ValidationRepository
	validationService *service.ValidationService
	excelService      *service.ExcelService
	asynqClient       *asynq.Client
	cfg               *config.Config
}

func NewValidationHandler(
	validationRepo *repository.ValidationRepository,
	validationService *service.ValidationService,
	excelService *service.ExcelService,
	asynqClient *asynq.Client,
	cfg *config.Config,
) *ValidationHandler {
	return &ValidationHandler{
		validationRepo:    validationRepo,
		validationService: validationService,
		excelService:      excelService,
		asynqClient:       asynqClient,
		cfg:               cfg,
	}
}

// readSubmission pulls the report workbook and ledger snapshot out of a
// multipart request and parses the report. The workbook is read straight
// from the request into memory and never written to disk.
func (h *ValidationHandler) readSubmission(c *fiber.Ctx) (*models.SettlementReport, *models.LedgerSnapshot, string, error) {
	file, err := c.FormFile("report")
	if err != nil {
		return nil, nil, "", fiber.NewError(fiber.StatusBadRequest, "Report file is required")
	}

	ext := filepath.Ext(file.Filename)
	if ext != ".xlsx" {
		return nil, nil, "", fiber.NewError(fiber.StatusBadRequest, "Only Excel files (.xlsx) are allowed")
	}
	if file.Size > int64(h.cfg.UploadMaxSize) {
		return nil, nil, "", fiber.NewError(fiber.StatusBadRequest, "File size exceeds maximum limit")
	}

	src, err := file.Open()
	if err != nil {
		return nil, nil, "", fiber.NewError(fiber.StatusBadRequest, "Failed to read report file")
	}
	defer src.Close()

	buf, err := io.ReadAll(src)
	if err != nil {
		return nil, nil, "", fiber.NewError(fiber.StatusBadRequest, "Failed to read report file")
	}

	report, err := h.validationService.ParseReport(buf)
	if err != nil {
		var parseErr *reconciliation.ParseError
		if errors.As(err, &parseErr) {
			return nil, nil, "", fiber.NewError(fiber.StatusBadRequest, parseErr.Error())
		}
		return nil, nil, "", fiber.NewError(fiber.StatusBadRequest, "Failed to parse report: "+err.Error())
	}

	snapshotText := c.FormValue("snapshot")
	if snapshotText == "" {
		return nil, nil, "", fiber.NewError(fiber.StatusBadRequest, "Ledger snapshot is required")
	}
	var snapshot models.LedgerSnapshot
	if err := json.Unmarshal([]byte(snapshotText), &snapshot); err != nil {
		return nil, nil, "", fiber.NewError(fiber.StatusBadRequest, "Invalid ledger snapshot: "+err.Error())
	}

	return report, &snapshot, file.Filename, nil
}

// CreateRun accepts a finalization report plus ledger snapshot, records a
// validation run and queues it for the worker.
func (h *ValidationHandler) CreateRun(c *fiber.Ctx) error {
	report, snapshot, filename, err := h.readSubmission(c)
	if err != nil {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return utils.ErrorResponse(c, fiberErr.Code, fiberErr.Message, nil)
		}
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid submission", err)
	}

	if h.asynqClient == nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Background job processing is not available (Redis not connected)", nil)
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to encode report", err)
	}
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to encode snapshot", err)
	}

	run := &models.ValidationRun{
		RunCode:      fmt.Sprintf("RUN-%s", uuid.New().String()[:8]),
		SettlementID: report.SettlementID,
		Filename:     filename,
		EntryCount:   len(report.Entries),
		Status:       models.RunStatusQueued,
		ReportJSON:   reportJSON,
		SnapshotJSON: snapshotJSON,
	}
	if err := h.validationRepo.CreateRun(run); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create validation run", err)
	}

	payload, err := json.Marshal(fiber.Map{
		"run_id":   run.ID,
		"run_code": run.RunCode,
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to encode task payload", err)
	}
	task := asynq.NewTask(TaskReportValidate, payload)
	info, err := h.asynqClient.Enqueue(task)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to queue validation task", err)
	}

	return utils.SuccessResponse(c, "Validation run queued", fiber.Map{
		"job_id": info.ID,
		"run":    run,
	})
}

// ValidateSync runs the full rule battery inline and returns all findings
// without persisting anything. This backs the interactive finalization
// modal, where the operator needs every discrepancy on screen before
// deciding whether to proceed.
func (h *ValidationHandler) ValidateSync(c *fiber.Ctx) error {
	report, snapshot, _, err := h.readSubmission(c)
	if err != nil {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return utils.ErrorResponse(c, fiberErr.Code, fiberErr.Message, nil)
		}
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid submission", err)
	}

	results, err := h.validationService.ValidateReport(report, snapshot)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Validation could not be run", err)
	}

	errorCount, warningCount := service.CountFindings(results)
	return utils.SuccessResponse(c, "Validation completed", fiber.Map{
		"settlement_id": report.SettlementID,
		"entry_count":   len(report.Entries),
		"errors":        errorCount,
		"warnings":      warningCount,
		"findings":      results,
	})
}

func (h *ValidationHandler) GetRuns(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)
	offset := utils.GetOffset(params.Page, params.Limit)

	runs, total, err := h.validationRepo.GetRuns(params.Limit, offset)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve validation runs", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponse(c, "Validation runs retrieved successfully", fiber.Map{
		"runs": runs,
	}, pagination)
}

func (h *ValidationHandler) GetRunDetail(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid run ID", err)
	}

	run, err := h.validationRepo.GetRunByID(id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Validation run not found", err)
	}

	return h.runDetail(c, run)
}

// GetRunDetailByCode resolves a run by the run code handed back when the
// run was created, for callers that never saw the numeric id.
func (h *ValidationHandler) GetRunDetailByCode(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Run code is required", nil)
	}

	run, err := h.validationRepo.GetRunByCode(code)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Validation run not found", err)
	}

	return h.runDetail(c, run)
}

func (h *ValidationHandler) runDetail(c *fiber.Ctx, run *models.ValidationRun) error {
	findings, err := h.validationRepo.GetFindingsByRun(run.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve findings", err)
	}

	return utils.SuccessResponse(c, "Validation run retrieved successfully", fiber.Map{
		"run":      run,
		"findings": GroupFindingsByRule(findings),
	})
}

// GroupFindingsByRule buckets stored findings under their rule name, with
// every rule present even when it produced none, so clients can render the
// full battery without knowing the rule list.
func GroupFindingsByRule(findings []models.ValidationFinding) map[string][]models.ValidationFinding {
	grouped := make(map[string][]models.ValidationFinding)
	for _, rule := range reconciliation.Rules() {
		grouped[rule.Name] = []models.ValidationFinding{}
	}
	for _, f := range findings {
		grouped[f.Rule] = append(grouped[f.Rule], f)
	}
	return grouped
}

func (h *ValidationHandler) ExportRun(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid run ID", err)
	}

	run, err := h.validationRepo.GetRunByID(id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Validation run not found", err)
	}

	findings, err := h.validationRepo.GetFindingsByRun(id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve findings", err)
	}

	buf, err := h.excelService.ExportFindings(run, findings)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export findings", err)
	}

	filename := fmt.Sprintf("findings_%s.xlsx", run.RunCode)
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Send(buf.Bytes())
}
