package reconciliation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settlement-portal/internal/models"
)

func testLedgerParticipants() []models.LedgerParticipant {
	return []models.LedgerParticipant{
		{
			ID:   1,
			Name: "testfsp1",
			Accounts: []models.LedgerAccount{
				{ID: 3, LedgerAccountType: models.AccountTypePosition, Currency: "USD", IsActive: true},
				{ID: 5, LedgerAccountType: models.AccountTypeSettlement, Currency: "USD", IsActive: true},
			},
		},
		{
			ID:   2,
			Name: "testfsp2",
			Accounts: []models.LedgerAccount{
				{ID: 4, LedgerAccountType: models.AccountTypePosition, Currency: "USD", IsActive: true},
				{ID: 6, LedgerAccountType: models.AccountTypeSettlement, Currency: "USD", IsActive: true},
			},
		},
	}
}

func TestBuildAccountsParticipants(t *testing.T) {
	index, err := BuildAccountsParticipants(testLedgerParticipants())
	require.NoError(t, err)

	require.Len(t, index, 4)
	assert.Equal(t, "testfsp1", index[3].ParticipantName)
	assert.Equal(t, 1, index[3].ParticipantID)
	assert.Equal(t, models.AccountTypePosition, index[3].Account.LedgerAccountType)
	assert.Equal(t, models.AccountTypeSettlement, index[6].Account.LedgerAccountType)
}

func TestBuildAccountsParticipantsCollision(t *testing.T) {
	participants := testLedgerParticipants()
	// Same account id owned by two participants: corrupt snapshot.
	participants[1].Accounts[0].ID = 3

	_, err := BuildAccountsParticipants(participants)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account 3")
	assert.Contains(t, err.Error(), "testfsp1")
	assert.Contains(t, err.Error(), "testfsp2")
}

func TestBuildParticipantsAccounts(t *testing.T) {
	index := BuildParticipantsAccounts(testLedgerParticipants())
	require.Len(t, index, 2)
	assert.Len(t, index["testfsp1"], 2)
	assert.Len(t, index["testfsp2"], 2)
}

func TestBuildParticipantsLimits(t *testing.T) {
	limits := []models.ParticipantLimit{
		{Name: "testfsp1", Currency: "USD", Limit: models.Limit{Type: "NET_DEBIT_CAP", Value: 10000}},
		{Name: "testfsp1", Currency: "EUR", Limit: models.Limit{Type: "NET_DEBIT_CAP", Value: 8000}},
		{Name: "testfsp2", Currency: "USD", Limit: models.Limit{Type: "NET_DEBIT_CAP", Value: 5000}},
		// Duplicate pair: last one wins.
		{Name: "testfsp1", Currency: "USD", Limit: models.Limit{Type: "NET_DEBIT_CAP", Value: 12000}},
	}

	index := BuildParticipantsLimits(limits)
	assert.Equal(t, 12000.0, index["testfsp1"]["USD"].Value)
	assert.Equal(t, 8000.0, index["testfsp1"]["EUR"].Value)
	assert.Equal(t, 5000.0, index["testfsp2"]["USD"].Value)
}

func TestBuildSettlementIndices(t *testing.T) {
	settlement := &models.Settlement{
		ID:    1234,
		State: models.SettlementStatePendingSettlement,
		Participants: []models.SettlementParticipant{
			{ID: 1, Accounts: []models.SettlementAccount{
				{ID: 3, NetSettlementAmount: models.NetSettlementAmount{Amount: -250, Currency: "USD"}},
			}},
			{ID: 2, Accounts: []models.SettlementAccount{
				{ID: 4, NetSettlementAmount: models.NetSettlementAmount{Amount: 250, Currency: "USD"}},
			}},
		},
	}

	accounts := BuildSettlementAccounts(settlement)
	require.Len(t, accounts, 2)
	assert.Equal(t, -250.0, accounts[3].NetSettlementAmount.Amount)

	participants := BuildSettlementParticipants(settlement)
	assert.Contains(t, participants, 1)
	assert.Contains(t, participants, 2)
	assert.NotContains(t, participants, 3)

	assert.Empty(t, BuildSettlementAccounts(nil))
	assert.Empty(t, BuildSettlementParticipants(nil))
}

func TestBuildAccountsPositions(t *testing.T) {
	index := BuildAccountsPositions([]models.AccountPosition{
		{ID: 5, Currency: "USD", Value: 5000},
		{ID: 6, Currency: "USD", Value: 5000},
	})
	require.Len(t, index, 2)
	assert.Equal(t, 5000.0, index[5].Value)
}

func TestNewContext(t *testing.T) {
	snapshot := &models.LedgerSnapshot{
		Participants: testLedgerParticipants(),
		ParticipantLimits: []models.ParticipantLimit{
			{Name: "testfsp1", Currency: "USD", Limit: models.Limit{Type: "NET_DEBIT_CAP", Value: 10000}},
		},
		AccountPositions: []models.AccountPosition{
			{ID: 5, Currency: "USD", Value: 5000},
		},
		Settlement: models.Settlement{
			ID: 1234,
			Participants: []models.SettlementParticipant{
				{ID: 1, Accounts: []models.SettlementAccount{{ID: 3}}},
			},
		},
	}

	ctx, err := NewContext(snapshot)
	require.NoError(t, err)
	assert.Len(t, ctx.AccountsParticipants, 4)
	assert.Len(t, ctx.SettlementAccounts, 1)
	assert.Contains(t, ctx.SettlementParticipants, 1)
	assert.Equal(t, 10000.0, ctx.ParticipantsLimits["testfsp1"]["USD"].Value)

	// Collisions propagate.
	snapshot.Participants[1].Accounts[0].ID = 3
	_, err = NewContext(snapshot)
	assert.Error(t, err)
}
