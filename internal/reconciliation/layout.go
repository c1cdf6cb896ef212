package reconciliation

import "fmt"

// ReportLayout is the declarative cell grammar of the settlement bank's
// finalization report export. The layout is a contract with an external
// party: cell roles are named here once and versioned, so a format change
// on the bank's side becomes a new layout value rather than edits
// scattered through the decoder.
type ReportLayout struct {
	Version string

	// SettlementIDCell holds the settlement identifier as a string of
	// decimal digits.
	SettlementIDCell string

	// DataStartRow is the first row of tabular data. The end-of-data scan
	// starts at this same row and stops at the first empty participant
	// cell. The scan deliberately starts where the data starts; deviating
	// from the bank's actual export behavior risks silent off-by-one
	// truncation or a phantom row.
	DataStartRow int

	// ParticipantCol holds the composite
	// "<participantId> <positionAccountId> <participantName>" triple.
	ParticipantCol string

	// BalanceCol holds the new settlement-account balance stated by the
	// bank; TransferCol holds the net transfer amount.
	BalanceCol  string
	TransferCol string
}

// LayoutV1 matches the export format the settlement bank produces today.
var LayoutV1 = ReportLayout{
	Version:          "1",
	SettlementIDCell: "B1",
	DataStartRow:     7,
	ParticipantCol:   "A",
	BalanceCol:       "C",
	TransferCol:      "D",
}

func LayoutForVersion(version string) (ReportLayout, error) {
	switch version {
	case "1":
		return LayoutV1, nil
	default:
		return ReportLayout{}, fmt.Errorf("unknown report layout version %q", version)
	}
}
