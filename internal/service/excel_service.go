package service

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"settlement-portal/internal/models"
)

type ExcelService struct{}

func NewExcelService() *ExcelService {
	return &ExcelService{}
}

// ExportFindings renders a validation run's findings to an Excel workbook
// and returns it as an in-memory buffer for download. Nothing is written
// to disk.
func (s *ExcelService) ExportFindings(run *models.ValidationRun, findings []models.ValidationFinding) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Validation Findings"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}

	// Run summary block above the findings table
	summary := [][]interface{}{
		{"Run Code", run.RunCode},
		{"Settlement ID", run.SettlementID},
		{"Report File", run.Filename},
		{"Entries", run.EntryCount},
		{"Errors", run.ErrorCount},
		{"Warnings", run.WarningCount},
	}
	for i, pair := range summary {
		for j, value := range pair {
			cell := fmt.Sprintf("%s%d", getColumnName(j), i+1)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	headers := []string{
		"Rule", "Kind", "Severity", "Account ID", "Participant ID",
		"Participant", "Expected", "Actual", "Description",
	}

	headerRow := len(summary) + 2
	for i, header := range headers {
		cell := fmt.Sprintf("%s%d", getColumnName(i), headerRow)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIdx, finding := range findings {
		row := headerRow + 1 + rowIdx

		values := []interface{}{
			finding.Rule,
			finding.Kind,
			finding.Severity,
			finding.AccountID,
			finding.ParticipantID,
			finding.ParticipantName,
			finding.Expected,
			finding.Actual,
			finding.Description,
		}

		for colIdx, value := range values {
			cell := fmt.Sprintf("%s%d", getColumnName(colIdx), row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	// Set header style
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName,
		fmt.Sprintf("A%d", headerRow),
		fmt.Sprintf("%s%d", getColumnName(len(headers)-1), headerRow),
		headerStyle)

	// Set column widths for better readability
	columnWidths := []float64{30, 32, 12, 12, 14, 20, 20, 20, 70}
	for i, width := range columnWidths {
		colName := getColumnName(i)
		f.SetColWidth(sheetName, colName, colName, width)
	}

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	return f.WriteToBuffer()
}

func getColumnName(index int) string {
	result := ""
	for index >= 0 {
		result = string(rune('A'+(index%26))) + result
		index = index/26 - 1
	}
	return result
}
