package repository

import (
	"github.com/jmoiron/sqlx"

	"settlement-portal/internal/models"
)

type ValidationRepository struct {
	db *sqlx.DB
}

func NewValidationRepository(db *sqlx.DB) *ValidationRepository {
	return &ValidationRepository{db: db}
}

// Validation runs

func (r *ValidationRepository) CreateRun(run *models.ValidationRun) error {
	query := `INSERT INTO validation_runs (run_code, settlement_id, filename, entry_count,
	          status, report_json, snapshot_json) VALUES (:run_code, :settlement_id, :filename,
	          :entry_count, :status, :report_json, :snapshot_json)`
	result, err := r.db.NamedExec(query, run)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	run.ID = int(id)
	return nil
}

func (r *ValidationRepository) GetRunByID(id int) (*models.ValidationRun, error) {
	var run models.ValidationRun
	query := "SELECT * FROM validation_runs WHERE id = ? LIMIT 1"
	err := r.db.Get(&run, query, id)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *ValidationRepository) GetRunByCode(code string) (*models.ValidationRun, error) {
	var run models.ValidationRun
	query := "SELECT * FROM validation_runs WHERE run_code = ? LIMIT 1"
	err := r.db.Get(&run, query, code)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *ValidationRepository) GetRuns(limit, offset int) ([]models.ValidationRun, int, error) {
	var runs []models.ValidationRun
	var total int

	countQuery := "SELECT COUNT(*) FROM validation_runs"
	err := r.db.Get(&total, countQuery)
	if err != nil {
		return nil, 0, err
	}

	// The snapshot columns are excluded: they are large, transient and
	// cleared after the run completes anyway.
	query := `SELECT id, run_code, settlement_id, filename, entry_count, status, error_message,
	          error_count, warning_count, created_at, updated_at
	          FROM validation_runs ORDER BY created_at DESC LIMIT ? OFFSET ?`
	err = r.db.Select(&runs, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return runs, total, nil
}

func (r *ValidationRepository) UpdateRunStatus(id int, status string) error {
	query := "UPDATE validation_runs SET status = ?, updated_at = NOW() WHERE id = ?"
	_, err := r.db.Exec(query, status, id)
	return err
}

// CompleteRun records the run outcome and clears the transient report and
// snapshot payloads; uploaded financial data is not retained once findings
// are stored.
func (r *ValidationRepository) CompleteRun(id int, status, errorMessage string, errorCount, warningCount int) error {
	query := `UPDATE validation_runs SET status = ?, error_message = ?, error_count = ?,
	          warning_count = ?, report_json = '', snapshot_json = '', updated_at = NOW()
	          WHERE id = ?`
	_, err := r.db.Exec(query, status, errorMessage, errorCount, warningCount, id)
	return err
}

// Findings

func (r *ValidationRepository) InsertFindings(findings []models.ValidationFinding) error {
	if len(findings) == 0 {
		return nil
	}
	query := `INSERT INTO validation_findings (run_id, rule, kind, severity, account_id,
	          participant_id, participant_name, expected, actual, description, created_at)
	          VALUES (:run_id, :rule, :kind, :severity, :account_id, :participant_id,
	          :participant_name, :expected, :actual, :description, :created_at)`
	_, err := r.db.NamedExec(query, findings)
	return err
}

func (r *ValidationRepository) GetFindingsByRun(runID int) ([]models.ValidationFinding, error) {
	findings := []models.ValidationFinding{}
	query := "SELECT * FROM validation_findings WHERE run_id = ? ORDER BY id ASC"
	err := r.db.Select(&findings, query, runID)
	if err != nil {
		return nil, err
	}
	return findings, nil
}
