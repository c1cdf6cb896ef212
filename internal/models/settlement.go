package models

// Settlement states relevant to finalization.
const (
	SettlementStatePendingSettlement = "PENDING_SETTLEMENT"
	SettlementStateSettled           = "SETTLED"
	SettlementAccountStateSettled    = "SETTLED"
)

type NetSettlementAmount struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// SettlementAccount is one position account referenced by a settlement,
// with the net amount the participant owes or is owed on it.
type SettlementAccount struct {
	ID                  int                 `json:"id"`
	NetSettlementAmount NetSettlementAmount `json:"netSettlementAmount"`
	State               string              `json:"state"`
}

type SettlementParticipant struct {
	ID       int                 `json:"id"`
	Accounts []SettlementAccount `json:"accounts"`
}

// Settlement is the settlement record being finalized, as returned by the
// central settlement service and supplied to validation by the caller.
type Settlement struct {
	ID           int                     `json:"id"`
	State        string                  `json:"state"`
	Participants []SettlementParticipant `json:"participants"`
}
