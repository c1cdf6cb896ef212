package models

// ReportParticipant identifies the participant a report row claims to
// describe, exactly as printed in the composite cell of the finalization
// report. It is compared against the ledger's own records during
// validation and must never be trusted on its own.
type ReportParticipant struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ReportEntry is one decoded data row of the settlement finalization report.
type ReportEntry struct {
	Participant       ReportParticipant `json:"participant"`
	PositionAccountID int               `json:"position_account_id"`
	Balance           float64           `json:"balance"`
	TransferAmount    float64           `json:"transfer_amount"`
	// Row is the 1-based sheet row the entry was decoded from, kept for
	// error reporting and operator diagnosis.
	Row int `json:"row"`
}

// SettlementReport is the parsed representation of an uploaded settlement
// finalization report. It is held in memory for the duration of a
// validation run and never persisted.
type SettlementReport struct {
	SettlementID int           `json:"settlement_id"`
	Entries      []ReportEntry `json:"entries"`
}
