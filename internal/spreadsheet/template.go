package spreadsheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const templateSheet = "Data WP"

// templateSamples shows one full NOP row and two short-code rows for the
// same taxpayer.
var templateSamples = [][]interface{}{
	{"Asep Saepudin", "Dusun Manis RT 01", "3204123456780001", "081234567890", "320513000500010007", "Sawah Lega", 50000, 2024, "BELUM", "H. Dadang", "10a", "001"},
	{"Budi Santoso", "Dusun Pahing RT 02", "3204876543210002", "085798765432", "2001", "Rumah Tinggal", 125000, 2024, "LUNAS", "-", "12b", "005"},
	{"Budi Santoso", "Dusun Pahing RT 02", "3204876543210002", "085798765432", "2002", "Kebun Jati", 75000, 2024, "BELUM", "-", "12c", "005"},
}

// WriteTemplate writes the import template workbook to w.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return fmt.Errorf("failed to name template sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(templateSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write template header: %w", err)
	}

	for i, sample := range templateSamples {
		row := sample
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(templateSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write template row %d: %w", i+2, err)
		}
	}

	// Wide enough for 18-digit NOPs and 16-digit NIKs.
	if err := f.SetColWidth(templateSheet, "A", "L", 20); err != nil {
		return fmt.Errorf("failed to size template columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	return nil
}
