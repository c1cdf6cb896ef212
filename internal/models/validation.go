package models

import "time"

// Validation run statuses.
const (
	RunStatusQueued    = "queued"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ValidationRun is the persisted audit record of one finalization report
// validation. The uploaded workbook itself is never stored; the snapshot
// columns hold the caller-supplied ledger/settlement state only while the
// run is pending and are cleared once it completes.
type ValidationRun struct {
	ID           int       `db:"id" json:"id"`
	RunCode      string    `db:"run_code" json:"run_code"`
	SettlementID int       `db:"settlement_id" json:"settlement_id"`
	Filename     string    `db:"filename" json:"filename"`
	EntryCount   int       `db:"entry_count" json:"entry_count"`
	Status       string    `db:"status" json:"status"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	ErrorCount   int       `db:"error_count" json:"error_count"`
	WarningCount int       `db:"warning_count" json:"warning_count"`
	ReportJSON   []byte    `db:"report_json" json:"-"`
	SnapshotJSON []byte    `db:"snapshot_json" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ValidationFinding is the persisted form of a single rule finding.
type ValidationFinding struct {
	ID              int64     `db:"id" json:"id"`
	RunID           int       `db:"run_id" json:"run_id"`
	Rule            string    `db:"rule" json:"rule"`
	Kind            string    `db:"kind" json:"kind"`
	Severity        string    `db:"severity" json:"severity"`
	AccountID       int       `db:"account_id" json:"account_id"`
	ParticipantID   int       `db:"participant_id" json:"participant_id"`
	ParticipantName string    `db:"participant_name" json:"participant_name"`
	Expected        string    `db:"expected" json:"expected"`
	Actual          string    `db:"actual" json:"actual"`
	Description     string    `db:"description" json:"description"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// LedgerSnapshot bundles the externally fetched ledger and settlement
// state a validation run reconciles the report against. The portal
// front-end retrieves these from the switch APIs and submits them
// alongside the report file.
type LedgerSnapshot struct {
	Participants      []LedgerParticipant `json:"participants"`
	ParticipantLimits []ParticipantLimit  `json:"participantLimits"`
	AccountPositions  []AccountPosition   `json:"accountPositions"`
	Settlement        Settlement          `json:"settlement"`
}
