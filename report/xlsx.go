/*
xlsx.go - Reconciliation workbook export

PURPOSE:
  Payroll reviews reconciliation results in a spreadsheet. The workbook has
  three sheets:
    Summary: one row per run (salary paid, entitlement, shortfall, ...)
    Shifts:  one row per priced shift of every run
    Lines:   every line item of every shift breakdown

  Money cells are numbers formatted to the cent; hours to 4dp. The JSON
  export of a run remains the exact record; the workbook is for people.
*/
package report

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/pay"
	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary = "Summary"
	SheetShifts  = "Shifts"
	SheetLines   = "Lines"
)

var (
	summaryHeader = []string{"Run", "Staff", "Award", "Period start", "Period end", "Salary paid", "Entitlement",
		"Absorbed", "Covered by salary", "Shortfall", "Surplus", "Hours", "Overtime hours", "Compliant"}
	shiftsHeader = []string{"Run", "Staff", "Shift", "Start", "End", "Paid hours", "Overtime hours",
		"Absorbed hours", "Total", "Breakdown"}
	linesHeader = []string{"Breakdown", "Staff", "Shift", "Component", "Kind", "Hours", "Rate", "Amount"}
)

// workbook wraps an excelize file with the styles the sheets share.
type workbook struct {
	f      *excelize.File
	header int
	money  int
	hours  int
}

// ReconciliationWorkbook renders runs into an .xlsx document.
func ReconciliationWorkbook(runs []pay.RunRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	wb, err := newWorkbook(f)
	if err != nil {
		return nil, err
	}

	if err := wb.sheet(SheetSummary, summaryHeader, []float64{38, 14, 20, 13, 13, 13, 13, 12, 18, 12, 12, 10, 15, 11}); err != nil {
		return nil, err
	}
	if err := wb.sheet(SheetShifts, shiftsHeader, []float64{38, 14, 18, 22, 22, 12, 15, 15, 12, 38}); err != nil {
		return nil, err
	}
	if err := wb.sheet(SheetLines, linesHeader, []float64{38, 14, 18, 26, 11, 10, 10, 12}); err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")

	summaryRow, shiftRow, lineRow := 2, 2, 2
	for _, run := range runs {
		r := run.Report
		compliant := "yes"
		if !r.Compliant() {
			compliant = "no"
		}
		wb.row(SheetSummary, summaryRow, run.ID.String(), string(run.StaffID), string(run.AwardID),
			run.Period.Start.String(), run.Period.End.String(),
			money(r.SalaryPaid), money(r.Entitlement), money(r.Absorbed), money(r.CoveredBySalary),
			money(r.Shortfall), money(r.Surplus), hours(r.Hours), hours(r.OvertimeHours), compliant)
		summaryRow++

		for _, d := range r.Details {
			b := d.Breakdown
			wb.row(SheetShifts, shiftRow, run.ID.String(), string(run.StaffID), d.Shift.ID,
				b.Start.Format("2006-01-02 15:04"), b.End.Format("2006-01-02 15:04"),
				hours(b.PaidHours), hours(b.OvertimeHours), hours(b.AbsorbedHours), money(b.Total), b.ID.String())
			shiftRow++

			for _, l := range b.Lines() {
				wb.row(SheetLines, lineRow, b.ID.String(), string(run.StaffID), d.Shift.ID,
					l.Component, string(l.Kind), hours(l.Hours), rate(l.Rate), money(l.Amount))
				lineRow++
			}
		}
	}

	if idx, err := f.GetSheetIndex(SheetSummary); err == nil {
		f.SetActiveSheet(idx)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

func newWorkbook(f *excelize.File) (*workbook, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	moneyFmt := "#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return nil, fmt.Errorf("failed to create money style: %w", err)
	}
	hoursFmt := "0.0000"
	hoursStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &hoursFmt})
	if err != nil {
		return nil, fmt.Errorf("failed to create hours style: %w", err)
	}
	return &workbook{f: f, header: header, money: moneyStyle, hours: hoursStyle}, nil
}

func (wb *workbook) sheet(name string, header []string, widths []float64) error {
	if _, err := wb.f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	for i, title := range header {
		col, _ := excelize.ColumnNumberToName(i + 1)
		wb.f.SetCellValue(name, col+"1", title)
		if i < len(widths) {
			wb.f.SetColWidth(name, col, col, widths[i])
		}
	}
	last, _ := excelize.ColumnNumberToName(len(header))
	wb.f.SetCellStyle(name, "A1", last+"1", wb.header)
	wb.f.SetPanes(name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	return nil
}

// Typed cell values pick their number style in row.
type (
	moneyCell decimal.Decimal
	hoursCell decimal.Decimal
	rateCell  decimal.Decimal
)

func money(d decimal.Decimal) moneyCell { return moneyCell(d.Round(2)) }
func hours(d decimal.Decimal) hoursCell { return hoursCell(d.Round(4)) }
func rate(d decimal.Decimal) rateCell   { return rateCell(d.Round(4)) }

func (wb *workbook) row(sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		switch v := v.(type) {
		case moneyCell:
			wb.f.SetCellValue(sheet, cell, decimal.Decimal(v).InexactFloat64())
			wb.f.SetCellStyle(sheet, cell, cell, wb.money)
		case hoursCell:
			wb.f.SetCellValue(sheet, cell, decimal.Decimal(v).InexactFloat64())
			wb.f.SetCellStyle(sheet, cell, cell, wb.hours)
		case rateCell:
			wb.f.SetCellValue(sheet, cell, decimal.Decimal(v).InexactFloat64())
			wb.f.SetCellStyle(sheet, cell, cell, wb.hours)
		default:
			wb.f.SetCellValue(sheet, cell, v)
		}
	}
}
