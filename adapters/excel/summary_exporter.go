// Package excel exports search space summaries as spreadsheets.
package excel

import (
	"fmt"
	"log"
	"os"

	"gotune/domain/searchspace"

	"github.com/xuri/excelize/v2"
)

const summarySheet = "Parameters"

// SummaryExporter writes parameter summary tables to .xlsx workbooks
type SummaryExporter struct{}

// NewSummaryExporter creates a summary exporter
func NewSummaryExporter() *SummaryExporter {
	return &SummaryExporter{}
}

// Export writes the summary rows of a search space to filePath
func (e *SummaryExporter) Export(rows []searchspace.SummaryRow, spaceName, filePath string) error {
	data, err := e.ExportBytes(rows)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	log.Printf("[SummaryExporter] Exported %d parameters of %s to %s", len(rows), spaceName, filePath)
	return nil
}

// ExportBytes renders the workbook in memory, for HTTP download handlers
func (e *SummaryExporter) ExportBytes(rows []searchspace.SummaryRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	for col, header := range searchspace.SummaryColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(summarySheet, cell, header); err != nil {
			return nil, err
		}
	}

	for i, row := range rows {
		values := []string{
			row.Name, row.Type, row.Domain, row.Datatype,
			row.Flags, row.TargetValue, row.Dependents,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}
