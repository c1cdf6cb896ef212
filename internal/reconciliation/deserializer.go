package reconciliation

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"settlement-portal/internal/models"
)

// ParseError is a structural failure of the uploaded workbook. It always
// names the offending cell and quotes its literal text verbatim so an
// operator can diagnose the bank's export without re-opening the file.
type ParseError struct {
	Cell   string
	Found  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s from cell %s. Found: %q", e.Reason, e.Cell, e.Found)
}

// participantInfoPattern decodes the composite participant cell. The name
// must start with a letter and be alphanumeric, at least two characters.
var participantInfoPattern = regexp.MustCompile(`^(\d+) (\d+) ([a-zA-Z][a-zA-Z0-9]+)$`)

var settlementIDPattern = regexp.MustCompile(`^[0-9]+$`)

// Deserializer decodes settlement finalization report workbooks against a
// fixed layout. It holds no mutable state and is safe for concurrent use.
type Deserializer struct {
	layout ReportLayout
	format NumericFormat
}

func NewDeserializer(layout ReportLayout, format NumericFormat) *Deserializer {
	return &Deserializer{layout: layout, format: format}
}

// Deserialize decodes a workbook buffer into a SettlementReport.
//
// Any structural violation aborts the whole parse; rows are never skipped,
// because a silently skipped row changes the set of participants being
// reconciled, which is exactly the failure mode validation exists to
// prevent. A workbook whose first data row is already empty is a valid
// report with zero entries.
func (d *Deserializer) Deserialize(buf []byte) (*models.SettlementReport, error) {
	f, err := excelize.OpenReader(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to open report workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in report workbook")
	}
	sheet := sheets[0]

	settlementID, err := d.readSettlementID(f, sheet)
	if err != nil {
		return nil, err
	}

	report := &models.SettlementReport{
		SettlementID: settlementID,
		Entries:      []models.ReportEntry{},
	}

	for row := d.layout.DataStartRow; ; row++ {
		addr := fmt.Sprintf("%s%d", d.layout.ParticipantCol, row)
		text, err := f.GetCellValue(sheet, addr)
		if err != nil {
			return nil, fmt.Errorf("failed to read cell %s: %w", addr, err)
		}
		if strings.TrimSpace(text) == "" {
			break
		}

		m := participantInfoPattern.FindStringSubmatch(text)
		if m == nil {
			return nil, &ParseError{
				Cell:   addr,
				Found:  text,
				Reason: "Unable to extract participant info",
			}
		}
		participantID, _ := strconv.Atoi(m[1])
		accountID, _ := strconv.Atoi(m[2])

		balance, err := d.readAmount(f, sheet, d.layout.BalanceCol, row, "balance")
		if err != nil {
			return nil, err
		}
		transfer, err := d.readAmount(f, sheet, d.layout.TransferCol, row, "transfer amount")
		if err != nil {
			return nil, err
		}

		report.Entries = append(report.Entries, models.ReportEntry{
			Participant: models.ReportParticipant{
				ID:   participantID,
				Name: m[3],
			},
			PositionAccountID: accountID,
			Balance:           balance,
			TransferAmount:    transfer,
			Row:               row,
		})
	}

	return report, nil
}

func (d *Deserializer) readSettlementID(f *excelize.File, sheet string) (int, error) {
	addr := d.layout.SettlementIDCell
	text, err := f.GetCellValue(sheet, addr)
	if err != nil {
		return 0, fmt.Errorf("failed to read cell %s: %w", addr, err)
	}
	trimmed := strings.TrimSpace(text)
	if !settlementIDPattern.MatchString(trimmed) {
		return 0, &ParseError{
			Cell:   addr,
			Found:  text,
			Reason: "Unable to extract settlement ID",
		}
	}
	id, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, &ParseError{
			Cell:   addr,
			Found:  text,
			Reason: "Unable to extract settlement ID",
		}
	}
	return id, nil
}

// readAmount enforces two distinct failure modes: a cell whose spreadsheet
// type cannot carry an amount at all, and a cell whose text fails quantity
// extraction. Both name the cell; the messages differ so the operator can
// tell a formatting problem from a content problem.
func (d *Deserializer) readAmount(f *excelize.File, sheet, col string, row int, field string) (float64, error) {
	addr := fmt.Sprintf("%s%d", col, row)
	text, err := f.GetCellValue(sheet, addr)
	if err != nil {
		return 0, fmt.Errorf("failed to read cell %s: %w", addr, err)
	}

	cellType, err := f.GetCellType(sheet, addr)
	if err != nil {
		return 0, fmt.Errorf("failed to read cell type of %s: %w", addr, err)
	}
	// Banks export amounts both as true numeric cells (plain ones report
	// as unset, no explicit type attribute in the xlsx container) and as
	// text, which is where the accounting notation like "(1,234.56)"
	// lives. All of those go through extraction. Only cell types that can
	// never hold an amount are rejected outright.
	switch cellType {
	case excelize.CellTypeBool, excelize.CellTypeDate, excelize.CellTypeError, excelize.CellTypeFormula:
		return 0, &ParseError{
			Cell:   addr,
			Found:  text,
			Reason: fmt.Sprintf("Unable to extract %s: cell is not numeric", field),
		}
	}

	v, ok := ExtractQuantity(text, d.format)
	if !ok {
		return 0, &ParseError{
			Cell:   addr,
			Found:  text,
			Reason: fmt.Sprintf("Unable to extract %s", field),
		}
	}
	return v, nil
}
