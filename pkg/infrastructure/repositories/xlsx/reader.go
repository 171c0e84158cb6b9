// Package xlsx reads repair records, asset sheets and price tables from
// Excel workbooks as plain string rows.
package xlsx

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// IsWorkbook reports whether the file name has an Excel workbook extension
func IsWorkbook(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return true
	default:
		return false
	}
}

// ReadRows returns every row of a sheet. An empty sheet name selects the
// first sheet of the workbook.
func ReadRows(filename, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", filename, err)
	}
	defer f.Close()

	return rowsOf(f, sheet)
}

// ReadRowsFrom is ReadRows over an in-memory or streamed workbook
func ReadRowsFrom(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return rowsOf(f, sheet)
}

func rowsOf(f *excelize.File, sheet string) ([][]string, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}
