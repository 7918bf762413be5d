package reconciliation

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const auditSheet = "Audit"

var auditHeadings = []string{"ID", "Name", "Stored", "Outstanding", "Payments", "Computed", "Diff"}

// WriteXLSX renders an audit report as a spreadsheet with one row per party
// and a totals footer.
func WriteXLSX(w io.Writer, report Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", auditSheet); err != nil {
		return err
	}
	for i, heading := range auditHeadings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(auditSheet, cell, heading); err != nil {
			return err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(auditSheet, 1, 1, bold); err != nil {
		return err
	}

	for i, row := range report.Rows {
		r := i + 2
		values := []any{
			row.ID,
			row.Name,
			row.Stored.InexactFloat64(),
			row.Outstanding.InexactFloat64(),
			row.PaymentAdjustment.InexactFloat64(),
			row.Computed.InexactFloat64(),
			row.Diff.InexactFloat64(),
		}
		if err := f.SetSheetRow(auditSheet, fmt.Sprintf("A%d", r), &values); err != nil {
			return err
		}
	}

	footer := len(report.Rows) + 3
	if err := f.SetCellValue(auditSheet, fmt.Sprintf("A%d", footer), "Drifted parties"); err != nil {
		return err
	}
	if err := f.SetCellValue(auditSheet, fmt.Sprintf("B%d", footer), report.Summary.Drifted); err != nil {
		return err
	}
	if err := f.SetCellValue(auditSheet, fmt.Sprintf("F%d", footer), "Total drift"); err != nil {
		return err
	}
	if err := f.SetCellValue(auditSheet, fmt.Sprintf("G%d", footer), report.Summary.TotalDrift.InexactFloat64()); err != nil {
		return err
	}
	return f.Write(w)
}
