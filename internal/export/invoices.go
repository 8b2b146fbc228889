// Package export renders account data to spreadsheet files the user can
// keep outside the app.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"shifa/internal/models"
)

var invoiceColumns = []string{"Invoice #", "Date", "Amount (SAR)", "Status"}

// WriteInvoices renders the invoice list as an xlsx workbook.
func WriteInvoices(w io.Writer, invoices []models.Invoice) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Invoices"
	f.SetSheetName("Sheet1", sheet)

	for i, col := range invoiceColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(invoiceColumns), 1)
		_ = f.SetCellStyle(sheet, "A1", endCell, style)
	}

	for row, inv := range invoices {
		values := []interface{}{inv.Number, inv.Date, inv.Amount, inv.Status}
		for col, val := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
