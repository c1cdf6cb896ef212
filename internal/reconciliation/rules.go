package reconciliation

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"settlement-portal/internal/models"
)

type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// FindingKind is the closed enumeration of discrepancy categories the
// rule battery can produce.
type FindingKind string

const (
	KindInvalidAccountID                  FindingKind = "INVALID_ACCOUNT_ID"
	KindAccountIsIncorrectType            FindingKind = "ACCOUNT_IS_INCORRECT_TYPE"
	KindTransferAmountInvalid             FindingKind = "TRANSFER_AMOUNT_INVALID"
	KindNewBalanceAmountInvalid           FindingKind = "NEW_BALANCE_AMOUNT_INVALID"
	KindExtraAccountsPresentInReport      FindingKind = "EXTRA_ACCOUNTS_PRESENT_IN_REPORT"
	KindReportIdentifiersNonMatching      FindingKind = "REPORT_IDENTIFIERS_NON_MATCHING"
	KindAccountsMissingFromReport         FindingKind = "ACCOUNTS_MISSING_FROM_REPORT"
	KindSettlementIDNonMatching           FindingKind = "SETTLEMENT_ID_NON_MATCHING"
	KindTransfersDoNotMatchNetSettlements FindingKind = "TRANSFERS_DO_NOT_MATCH_NET_SETTLEMENTS"
	KindTransfersSumNonZero               FindingKind = "TRANSFERS_SUM_NON_ZERO"
)

// Finding is one semantic discrepancy between an otherwise well-formed
// report and the switch's own records. It carries enough structure to be
// rendered without re-deriving the context.
type Finding struct {
	Kind            FindingKind `json:"kind"`
	Severity        Severity    `json:"severity"`
	AccountID       int         `json:"account_id,omitempty"`
	ParticipantID   int         `json:"participant_id,omitempty"`
	ParticipantName string      `json:"participant_name,omitempty"`
	Expected        string      `json:"expected,omitempty"`
	Actual          string      `json:"actual,omitempty"`
	Description     string      `json:"description"`
}

// RuleFunc is a single validation rule. Rules are pure and independent of
// each other; none consumes another's output. An empty result is a pass.
type RuleFunc func(report *models.SettlementReport, ctx *Context, settlement *models.Settlement, tolerance decimal.Decimal) []Finding

type Rule struct {
	Name string
	Fn   RuleFunc
}

// Rule names, keyed into the validation result.
const (
	RuleAccountsValid             = "accountsValid"
	RuleAccountType               = "accountType"
	RuleAmounts                   = "amounts"
	RuleBalancesAsExpected        = "balancesAsExpected"
	RuleExtraAccountsPresent      = "extraAccountsPresent"
	RuleReportIdentifiers         = "reportIdentifiersCongruent"
	RuleUnprocessedAccounts       = "unprocessedSettlementAccountsPresentInReport"
	RuleSettlementID              = "settlementId"
	RuleTransfersMatchSettlements = "transfersMatchNetSettlements"
	RuleTransfersSum              = "transfersSum"
)

// Rules returns the fixed, ordered rule battery. Extending validation
// means adding an entry here; the engine itself never changes.
func Rules() []Rule {
	return []Rule{
		{RuleAccountsValid, accountsValid},
		{RuleAccountType, accountType},
		{RuleAmounts, amounts},
		{RuleBalancesAsExpected, balancesAsExpected},
		{RuleExtraAccountsPresent, extraAccountsPresent},
		{RuleReportIdentifiers, reportIdentifiersCongruent},
		{RuleUnprocessedAccounts, unprocessedSettlementAccounts},
		{RuleSettlementID, settlementID},
		{RuleTransfersMatchSettlements, transfersMatchNetSettlements},
		{RuleTransfersSum, transfersSum},
	}
}

// Validate runs every rule and collects every finding; it never
// short-circuits, because financial review requires seeing all
// discrepancies at once rather than the first one. The result maps rule
// name to its findings; an empty slice means the rule passed.
func Validate(report *models.SettlementReport, ctx *Context, settlement *models.Settlement, tolerance decimal.Decimal) map[string][]Finding {
	result := make(map[string][]Finding, len(Rules()))
	for _, rule := range Rules() {
		findings := rule.Fn(report, ctx, settlement, tolerance)
		if findings == nil {
			findings = []Finding{}
		}
		result[rule.Name] = findings
	}
	return result
}

func accountsValid(report *models.SettlementReport, ctx *Context, _ *models.Settlement, _ decimal.Decimal) []Finding {
	var findings []Finding
	for _, e := range report.Entries {
		if _, ok := ctx.AccountsParticipants[e.PositionAccountID]; !ok {
			findings = append(findings, Finding{
				Kind:            KindInvalidAccountID,
				Severity:        SeverityError,
				AccountID:       e.PositionAccountID,
				ParticipantID:   e.Participant.ID,
				ParticipantName: e.Participant.Name,
				Actual:          fmt.Sprintf("%d", e.PositionAccountID),
				Description:     fmt.Sprintf("account %d in row %d does not exist in the ledger", e.PositionAccountID, e.Row),
			})
		}
	}
	return findings
}

func accountType(report *models.SettlementReport, ctx *Context, _ *models.Settlement, _ decimal.Decimal) []Finding {
	var findings []Finding
	for _, e := range report.Entries {
		ap, ok := ctx.AccountsParticipants[e.PositionAccountID]
		if !ok {
			continue
		}
		if ap.Account.LedgerAccountType != models.AccountTypePosition {
			findings = append(findings, Finding{
				Kind:            KindAccountIsIncorrectType,
				Severity:        SeverityError,
				AccountID:       e.PositionAccountID,
				ParticipantID:   ap.ParticipantID,
				ParticipantName: ap.ParticipantName,
				Expected:        models.AccountTypePosition,
				Actual:          ap.Account.LedgerAccountType,
				Description:     fmt.Sprintf("account %d is a %s account, not a position account", e.PositionAccountID, ap.Account.LedgerAccountType),
			})
		}
	}
	return findings
}

func isFiniteAmount(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func amounts(report *models.SettlementReport, _ *Context, _ *models.Settlement, _ decimal.Decimal) []Finding {
	var findings []Finding
	for _, e := range report.Entries {
		if math.IsNaN(e.TransferAmount) || math.IsInf(e.TransferAmount, 0) {
			findings = append(findings, Finding{
				Kind:            KindTransferAmountInvalid,
				Severity:        SeverityError,
				AccountID:       e.PositionAccountID,
				ParticipantID:   e.Participant.ID,
				ParticipantName: e.Participant.Name,
				Actual:          fmt.Sprintf("%v", e.TransferAmount),
				Description:     fmt.Sprintf("transfer amount for account %d in row %d is not a valid number", e.PositionAccountID, e.Row),
			})
		}
	}
	return findings
}

// balancesAsExpected checks that each reported balance equals the current
// ledger settlement-account balance plus the reported transfer amount, for
// the settlement account matching the entry's currency. Entries whose
// account, settlement account or position snapshot cannot be resolved are
// skipped here; the resolution rules report those.
func balancesAsExpected(report *models.SettlementReport, ctx *Context, _ *models.Settlement, tolerance decimal.Decimal) []Finding {
	var findings []Finding
	for _, e := range report.Entries {
		// NaN/Inf amounts are reported by the amounts rule and cannot be
		// compared meaningfully.
		if !isFiniteAmount(e.TransferAmount) || !isFiniteAmount(e.Balance) {
			continue
		}
		ap, ok := ctx.AccountsParticipants[e.PositionAccountID]
		if !ok {
			continue
		}

		var settlementAccountID int
		found := false
		for _, a := range ctx.ParticipantsAccounts[ap.ParticipantName] {
			if a.LedgerAccountType == models.AccountTypeSettlement && a.Currency == ap.Account.Currency {
				settlementAccountID = a.ID
				found = true
				break
			}
		}
		if !found {
			continue
		}
		pos, ok := ctx.AccountsPositions[settlementAccountID]
		if !ok {
			continue
		}

		expected := decimal.NewFromFloat(pos.Value).Add(decimal.NewFromFloat(e.TransferAmount))
		actual := decimal.NewFromFloat(e.Balance)
		if expected.Sub(actual).Abs().GreaterThan(tolerance) {
			findings = append(findings, Finding{
				Kind:            KindNewBalanceAmountInvalid,
				Severity:        SeverityError,
				AccountID:       e.PositionAccountID,
				ParticipantID:   ap.ParticipantID,
				ParticipantName: ap.ParticipantName,
				Expected:        expected.String(),
				Actual:          actual.String(),
				Description: fmt.Sprintf(
					"reported balance %s for account %d does not equal current settlement balance %s plus transfer %s",
					actual.String(), e.PositionAccountID,
					decimal.NewFromFloat(pos.Value).String(),
					decimal.NewFromFloat(e.TransferAmount).String(),
				),
			})
		}
	}
	return findings
}

func extraAccountsPresent(report *models.SettlementReport, ctx *Context, _ *models.Settlement, _ decimal.Decimal) []Finding {
	var findings []Finding
	for _, e := range report.Entries {
		if _, ok := ctx.SettlementAccounts[e.PositionAccountID]; !ok {
			findings = append(findings, Finding{
				Kind:            KindExtraAccountsPresentInReport,
				Severity:        SeverityWarning,
				AccountID:       e.PositionAccountID,
				ParticipantID:   e.Participant.ID,
				ParticipantName: e.Participant.Name,
				Description:     fmt.Sprintf("account %d in row %d is not part of the settlement", e.PositionAccountID, e.Row),
			})
		}
	}
	return findings
}

func reportIdentifiersCongruent(report *models.SettlementReport, ctx *Context, _ *models.Settlement, _ decimal.Decimal) []Finding {
	var findings []Finding
	for _, e := range report.Entries {
		ap, ok := ctx.AccountsParticipants[e.PositionAccountID]
		if !ok {
			continue
		}
		if ap.ParticipantID != e.Participant.ID || ap.ParticipantName != e.Participant.Name {
			findings = append(findings, Finding{
				Kind:            KindReportIdentifiersNonMatching,
				Severity:        SeverityError,
				AccountID:       e.PositionAccountID,
				ParticipantID:   e.Participant.ID,
				ParticipantName: e.Participant.Name,
				Expected:        fmt.Sprintf("%d %s", ap.ParticipantID, ap.ParticipantName),
				Actual:          fmt.Sprintf("%d %s", e.Participant.ID, e.Participant.Name),
				Description: fmt.Sprintf(
					"report row %d identifies account %d as %d %s but the ledger records it as %d %s",
					e.Row, e.PositionAccountID, e.Participant.ID, e.Participant.Name, ap.ParticipantID, ap.ParticipantName,
				),
			})
		}
	}
	return findings
}

// unprocessedSettlementAccounts is the inverse coverage check: every
// account the settlement references must appear in the report.
func unprocessedSettlementAccounts(report *models.SettlementReport, ctx *Context, _ *models.Settlement, _ decimal.Decimal) []Finding {
	reported := make(map[int]struct{}, len(report.Entries))
	for _, e := range report.Entries {
		reported[e.PositionAccountID] = struct{}{}
	}

	missing := make([]int, 0)
	for id := range ctx.SettlementAccounts {
		if _, ok := reported[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Ints(missing)

	var findings []Finding
	for _, id := range missing {
		findings = append(findings, Finding{
			Kind:        KindAccountsMissingFromReport,
			Severity:    SeverityWarning,
			AccountID:   id,
			Description: fmt.Sprintf("settlement account %d does not appear in the report", id),
		})
	}
	return findings
}

func settlementID(report *models.SettlementReport, _ *Context, settlement *models.Settlement, _ decimal.Decimal) []Finding {
	if settlement == nil || report.SettlementID == settlement.ID {
		return nil
	}
	return []Finding{{
		Kind:        KindSettlementIDNonMatching,
		Severity:    SeverityError,
		Expected:    fmt.Sprintf("%d", settlement.ID),
		Actual:      fmt.Sprintf("%d", report.SettlementID),
		Description: fmt.Sprintf("report is for settlement %d, not settlement %d", report.SettlementID, settlement.ID),
	}}
}

// transfersMatchNetSettlements compares the summed report transfer amounts
// per settlement account against the settlement's net settlement amount
// for that account.
func transfersMatchNetSettlements(report *models.SettlementReport, ctx *Context, _ *models.Settlement, tolerance decimal.Decimal) []Finding {
	sums := make(map[int]decimal.Decimal)
	for _, e := range report.Entries {
		if !isFiniteAmount(e.TransferAmount) {
			continue
		}
		sums[e.PositionAccountID] = sums[e.PositionAccountID].Add(decimal.NewFromFloat(e.TransferAmount))
	}

	ids := make([]int, 0, len(sums))
	for id := range sums {
		if _, ok := ctx.SettlementAccounts[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	var findings []Finding
	for _, id := range ids {
		acc := ctx.SettlementAccounts[id]
		expected := decimal.NewFromFloat(acc.NetSettlementAmount.Amount)
		actual := sums[id]
		if expected.Sub(actual).Abs().GreaterThan(tolerance) {
			ap := ctx.AccountsParticipants[id]
			findings = append(findings, Finding{
				Kind:            KindTransfersDoNotMatchNetSettlements,
				Severity:        SeverityError,
				AccountID:       id,
				ParticipantID:   ap.ParticipantID,
				ParticipantName: ap.ParticipantName,
				Expected:        expected.String(),
				Actual:          actual.String(),
				Description: fmt.Sprintf(
					"reported transfers for account %d sum to %s but the settlement records a net settlement amount of %s %s",
					id, actual.String(), expected.String(), acc.NetSettlementAmount.Currency,
				),
			})
		}
	}
	return findings
}

// transfersSum checks that all transfer amounts across the report net to
// zero within tolerance; a settlement moves money between participants,
// it does not create or destroy it.
func transfersSum(report *models.SettlementReport, _ *Context, _ *models.Settlement, tolerance decimal.Decimal) []Finding {
	sum := decimal.Zero
	for _, e := range report.Entries {
		if !isFiniteAmount(e.TransferAmount) {
			// Reported by the amounts rule; an unusable value cannot
			// contribute to a meaningful sum.
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(e.TransferAmount))
	}
	if sum.Abs().LessThanOrEqual(tolerance) {
		return nil
	}
	return []Finding{{
		Kind:        KindTransfersSumNonZero,
		Severity:    SeverityWarning,
		Expected:    "0",
		Actual:      sum.String(),
		Description: fmt.Sprintf("report transfer amounts sum to %s, expected zero", sum.String()),
	}}
}
