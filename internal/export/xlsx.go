package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// XLSX renders rows into a single-sheet workbook with a bold header row.
func XLSX(sheet string, rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, row := range rows {
		values := make([]any, len(row))
		for j, cell := range row {
			values[j] = xlsxValue(cell)
		}

		addr, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, addr, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if len(rows) > 0 {
		header, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		})
		if err != nil {
			return nil, fmt.Errorf("header style: %w", err)
		}
		if err := f.SetRowStyle(sheet, 1, 1, header); err != nil {
			return nil, fmt.Errorf("apply header style: %w", err)
		}

		last, err := excelize.ColumnNumberToName(len(rows[0]))
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, "A", last, 24); err != nil {
			return nil, fmt.Errorf("column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func xlsxValue(c Cell) any {
	if !c.Label && c.Numeric() {
		if n, err := strconv.Atoi(c.Value); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(c.Value, 64); err == nil {
			return f
		}
	}
	return c.Value
}
