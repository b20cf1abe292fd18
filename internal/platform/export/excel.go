// Package export builds xlsx workbooks for admin downloads.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Workbook builds a single-sheet workbook with a bold header row followed by
// the data rows. Sheet names are truncated to Excel's 31-character limit.
func Workbook(sheet string, headers []string, rows [][]interface{}) (*excelize.File, error) {
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheet)

	for i, col := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return nil, fmt.Errorf("write header %q: %w", col, err)
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheet, startCell, endCell, style)
	}

	for r, row := range rows {
		for i, v := range row {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", r+1, err)
			}
		}
	}

	return f, nil
}
