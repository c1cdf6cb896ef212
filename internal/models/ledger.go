package models

// Ledger account types as reported by the switch's central ledger.
const (
	AccountTypePosition   = "POSITION"
	AccountTypeSettlement = "SETTLEMENT"
)

type LedgerAccount struct {
	ID                int     `json:"id"`
	LedgerAccountType string  `json:"ledgerAccountType"`
	Currency          string  `json:"currency"`
	IsActive          bool    `json:"isActive"`
	Value             float64 `json:"value"`
}

type LedgerParticipant struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Accounts []LedgerAccount `json:"accounts"`
}

// Limit is a configured ceiling on a participant's exposure, e.g. the
// net debit cap.
type Limit struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// ParticipantLimit is one row of the flat limits list the ledger returns.
type ParticipantLimit struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Limit    Limit  `json:"limit"`
}

// AccountPosition is the current ledger balance snapshot for one account.
type AccountPosition struct {
	ID       int     `json:"id"`
	Currency string  `json:"currency"`
	Value    float64 `json:"value"`
}
