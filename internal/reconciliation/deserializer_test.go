package reconciliation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type reportRow struct {
	participant interface{}
	balance     interface{}
	transfer    interface{}
}

// buildWorkbook assembles an in-memory workbook in the v1 bank layout.
func buildWorkbook(t *testing.T, settlementID interface{}, rows []reportRow) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetList()[0]

	require.NoError(t, f.SetCellValue(sheet, "A1", "Settlement ID"))
	require.NoError(t, f.SetCellValue(sheet, LayoutV1.SettlementIDCell, settlementID))

	for i, r := range rows {
		row := LayoutV1.DataStartRow + i
		require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.participant))
		require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.balance))
		require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.transfer))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func newTestDeserializer() *Deserializer {
	return NewDeserializer(LayoutV1, DefaultNumericFormat)
}

func TestDeserializeRoundTrip(t *testing.T) {
	buf := buildWorkbook(t, "1234", []reportRow{
		{"1 3 testfsp1", 4750.0, -250.0},
		{"2 4 testfsp2", 5250.0, 250.0},
	})

	report, err := newTestDeserializer().Deserialize(buf)
	require.NoError(t, err)

	assert.Equal(t, 1234, report.SettlementID)
	require.Len(t, report.Entries, 2)

	first := report.Entries[0]
	assert.Equal(t, 1, first.Participant.ID)
	assert.Equal(t, "testfsp1", first.Participant.Name)
	assert.Equal(t, 3, first.PositionAccountID)
	assert.Equal(t, 4750.0, first.Balance)
	assert.Equal(t, -250.0, first.TransferAmount)
	assert.Equal(t, LayoutV1.DataStartRow, first.Row)

	second := report.Entries[1]
	assert.Equal(t, "testfsp2", second.Participant.Name)
	assert.Equal(t, 4, second.PositionAccountID)
	assert.Equal(t, LayoutV1.DataStartRow+1, second.Row)
}

func TestDeserializeEmptyReport(t *testing.T) {
	buf := buildWorkbook(t, "77", nil)

	report, err := newTestDeserializer().Deserialize(buf)
	require.NoError(t, err)
	assert.Equal(t, 77, report.SettlementID)
	assert.Empty(t, report.Entries)
}

func TestDeserializeAccountingNotation(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetList()[0]
	require.NoError(t, f.SetCellValue(sheet, LayoutV1.SettlementIDCell, "5"))
	row := LayoutV1.DataStartRow
	require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "9 11 testfsp9"))
	// Accounting-style text written through the raw cell setter.
	require.NoError(t, f.SetCellDefault(sheet, fmt.Sprintf("C%d", row), "(1,234.56)"))
	require.NoError(t, f.SetCellDefault(sheet, fmt.Sprintf("D%d", row), "-1,234.56"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	report, err := newTestDeserializer().Deserialize(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, -1234.56, report.Entries[0].Balance)
	assert.Equal(t, -1234.56, report.Entries[0].TransferAmount)
}

func TestDeserializeBadSettlementID(t *testing.T) {
	buf := buildWorkbook(t, "whatever", nil)

	_, err := newTestDeserializer().Deserialize(buf)
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, LayoutV1.SettlementIDCell, parseErr.Cell)
	assert.Equal(t, "whatever", parseErr.Found)
	assert.Contains(t, err.Error(), "settlement ID")
	assert.Contains(t, err.Error(), LayoutV1.SettlementIDCell)
}

func TestDeserializeBadParticipantCell(t *testing.T) {
	tests := []struct {
		name string
		cell string
	}{
		{"name too short", "1 2 x"},
		{"name starts with digit", "1 2 9fsp"},
		{"name with punctuation", "1 2 fsp-one"},
		{"missing account id", "1 fspone"},
		{"non-numeric ids", "a b fspone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := buildWorkbook(t, "1", []reportRow{{tt.cell, 1.0, 1.0}})

			_, err := newTestDeserializer().Deserialize(buf)
			require.Error(t, err)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			wantCell := fmt.Sprintf("A%d", LayoutV1.DataStartRow)
			assert.Equal(t, wantCell, parseErr.Cell)
			assert.Equal(t, tt.cell, parseErr.Found)
			assert.Contains(t, err.Error(), wantCell)
		})
	}
}

func TestDeserializeNonNumericAmountCell(t *testing.T) {
	// A boolean cell in the balance column can never hold an amount and is
	// rejected for its cell type, before extraction is even attempted.
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetList()[0]
	require.NoError(t, f.SetCellValue(sheet, LayoutV1.SettlementIDCell, "1"))
	row := LayoutV1.DataStartRow
	require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "1 3 testfsp1"))
	require.NoError(t, f.SetCellBool(sheet, fmt.Sprintf("C%d", row), true))
	require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("D%d", row), 1.0))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = newTestDeserializer().Deserialize(buf.Bytes())
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, fmt.Sprintf("C%d", row), parseErr.Cell)
	assert.Contains(t, err.Error(), "not numeric")
}

func TestDeserializeTextAmountCell(t *testing.T) {
	// String-typed cells are where banks put accounting notation, so they
	// go through extraction; unextractable text is a content failure, not
	// a cell-type failure.
	buf := buildWorkbook(t, "1", []reportRow{{"1 3 testfsp1", "(2,500.00)", "abc"}})

	_, err := newTestDeserializer().Deserialize(buf)
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, fmt.Sprintf("D%d", LayoutV1.DataStartRow), parseErr.Cell)
	assert.Equal(t, "abc", parseErr.Found)
	assert.Contains(t, err.Error(), "Unable to extract transfer amount")
	assert.NotContains(t, err.Error(), "not numeric")
}

func TestDeserializeAccountingNotationStringCells(t *testing.T) {
	// Accounting-style text stored as ordinary string cells must extract.
	buf := buildWorkbook(t, "8", []reportRow{
		{"1 3 testfsp1", "(1,234.56)", "-1,234.56"},
	})

	report, err := newTestDeserializer().Deserialize(buf)
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, -1234.56, report.Entries[0].Balance)
	assert.Equal(t, -1234.56, report.Entries[0].TransferAmount)
}

func TestDeserializeUnextractableAmountCell(t *testing.T) {
	// A text cell whose content fails quantity extraction is a distinct
	// failure from a cell type that cannot hold an amount.
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetList()[0]
	require.NoError(t, f.SetCellValue(sheet, LayoutV1.SettlementIDCell, "1"))
	row := LayoutV1.DataStartRow
	require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "1 3 testfsp1"))
	require.NoError(t, f.SetCellDefault(sheet, fmt.Sprintf("C%d", row), "1.2.3"))
	require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("D%d", row), 1.0))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = newTestDeserializer().Deserialize(buf.Bytes())
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, fmt.Sprintf("C%d", row), parseErr.Cell)
	assert.Equal(t, "1.2.3", parseErr.Found)
	assert.NotContains(t, err.Error(), "not numeric")
}

func TestDeserializeStopsAtFirstEmptyRow(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetList()[0]
	require.NoError(t, f.SetCellValue(sheet, LayoutV1.SettlementIDCell, "1"))
	row := LayoutV1.DataStartRow
	require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "1 3 testfsp1"))
	require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("C%d", row), 100.0))
	require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("D%d", row), 100.0))
	// Row after the gap must not be picked up.
	require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("A%d", row+2), "2 4 testfsp2"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	report, err := newTestDeserializer().Deserialize(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, 3, report.Entries[0].PositionAccountID)
}
