package reconciliation

import (
	"fmt"

	"settlement-portal/internal/models"
)

// AccountParticipant pairs a ledger account with the participant that
// owns it.
type AccountParticipant struct {
	ParticipantID   int
	ParticipantName string
	Account         models.LedgerAccount
}

// Context is the set of lookup indices one validation run reconciles the
// report against. It is built per run from caller-supplied snapshots,
// never persisted, and immutable once built.
type Context struct {
	AccountsParticipants   map[int]AccountParticipant
	ParticipantsAccounts   map[string][]models.LedgerAccount
	ParticipantsLimits     map[string]map[string]models.Limit
	SettlementAccounts     map[int]models.SettlementAccount
	SettlementParticipants map[int]struct{}
	AccountsPositions      map[int]models.AccountPosition
}

// BuildAccountsParticipants flattens each participant's account list into
// an account-id index. Account ids are globally unique by construction of
// the upstream ledger; a collision means the snapshot itself is corrupt
// and is reported as an error rather than silently overwritten.
func BuildAccountsParticipants(participants []models.LedgerParticipant) (map[int]AccountParticipant, error) {
	index := make(map[int]AccountParticipant)
	for _, p := range participants {
		for _, a := range p.Accounts {
			if existing, ok := index[a.ID]; ok {
				return nil, fmt.Errorf(
					"ledger data integrity error: account %d owned by both %s and %s",
					a.ID, existing.ParticipantName, p.Name,
				)
			}
			index[a.ID] = AccountParticipant{
				ParticipantID:   p.ID,
				ParticipantName: p.Name,
				Account:         a,
			}
		}
	}
	return index, nil
}

func BuildParticipantsAccounts(participants []models.LedgerParticipant) map[string][]models.LedgerAccount {
	index := make(map[string][]models.LedgerAccount)
	for _, p := range participants {
		index[p.Name] = append(index[p.Name], p.Accounts...)
	}
	return index
}

// BuildParticipantsLimits groups the flat limits list by participant then
// currency. A duplicate participant/currency pair is a caller error; the
// last entry wins, matching the upstream ledger's own behavior when limits
// are re-submitted.
func BuildParticipantsLimits(limits []models.ParticipantLimit) map[string]map[string]models.Limit {
	index := make(map[string]map[string]models.Limit)
	for _, l := range limits {
		if index[l.Name] == nil {
			index[l.Name] = make(map[string]models.Limit)
		}
		index[l.Name][l.Currency] = l.Limit
	}
	return index
}

func BuildSettlementAccounts(settlement *models.Settlement) map[int]models.SettlementAccount {
	index := make(map[int]models.SettlementAccount)
	if settlement == nil {
		return index
	}
	for _, p := range settlement.Participants {
		for _, a := range p.Accounts {
			index[a.ID] = a
		}
	}
	return index
}

func BuildSettlementParticipants(settlement *models.Settlement) map[int]struct{} {
	index := make(map[int]struct{})
	if settlement == nil {
		return index
	}
	for _, p := range settlement.Participants {
		index[p.ID] = struct{}{}
	}
	return index
}

func BuildAccountsPositions(positions []models.AccountPosition) map[int]models.AccountPosition {
	index := make(map[int]models.AccountPosition)
	for _, pos := range positions {
		index[pos.ID] = pos
	}
	return index
}

// NewContext assembles the full reconciliation context from one snapshot.
func NewContext(snapshot *models.LedgerSnapshot) (*Context, error) {
	accountsParticipants, err := BuildAccountsParticipants(snapshot.Participants)
	if err != nil {
		return nil, err
	}
	return &Context{
		AccountsParticipants:   accountsParticipants,
		ParticipantsAccounts:   BuildParticipantsAccounts(snapshot.Participants),
		ParticipantsLimits:     BuildParticipantsLimits(snapshot.ParticipantLimits),
		SettlementAccounts:     BuildSettlementAccounts(&snapshot.Settlement),
		SettlementParticipants: BuildSettlementParticipants(&snapshot.Settlement),
		AccountsPositions:      BuildAccountsPositions(snapshot.AccountPositions),
	}, nil
}
