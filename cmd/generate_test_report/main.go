package main

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"settlement-portal/internal/reconciliation"
)

// Generates a sample settlement finalization report in the v1 bank layout
// for manual testing against a local portal instance.
func main() {
	layout := reconciliation.LayoutV1

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetList()[0]

	f.SetCellValue(sheet, "A1", "Settlement ID")
	f.SetCellValue(sheet, layout.SettlementIDCell, "1234")
	f.SetCellValue(sheet, "A3", "Settlement finalization report")
	f.SetCellValue(sheet, fmt.Sprintf("A%d", layout.DataStartRow-1), "Participant")
	f.SetCellValue(sheet, fmt.Sprintf("%s%d", layout.BalanceCol, layout.DataStartRow-1), "Balance")
	f.SetCellValue(sheet, fmt.Sprintf("%s%d", layout.TransferCol, layout.DataStartRow-1), "Transfer Amount")

	// Two participants netting to zero: testfsp1 pays testfsp2.
	rows := []struct {
		participant string
		balance     float64
		transfer    float64
	}{
		{"1 3 testfsp1", 4750, -250},
		{"2 4 testfsp2", 5250, 250},
	}

	for i, r := range rows {
		row := layout.DataStartRow + i
		f.SetCellValue(sheet, fmt.Sprintf("%s%d", layout.ParticipantCol, row), r.participant)
		f.SetCellValue(sheet, fmt.Sprintf("%s%d", layout.BalanceCol, row), r.balance)
		f.SetCellValue(sheet, fmt.Sprintf("%s%d", layout.TransferCol, row), r.transfer)
	}

	output := "test_finalization_report.xlsx"
	if err := f.SaveAs(output); err != nil {
		fmt.Printf("Error saving file: %v\n", err)
		return
	}
	fmt.Printf("Generated %s (layout v%s)\n", output, layout.Version)
}
