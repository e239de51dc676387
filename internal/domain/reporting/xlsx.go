package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/abctrack/abctrack/internal/domain/inventory"
)

const dateLayout = "02/01/2006"

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// MonthlyLogXLSX renders the monthly log as a spreadsheet.
func MonthlyLogXLSX(log *MonthlyLog) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Monthly Log"
	f.SetSheetName(f.GetSheetName(0), sheet)

	header := []interface{}{
		"Case Number", "Caught On", "Address", "Gender", "Surgery Date",
		"Surgery Type", "Cancelled", "Released On", "Status",
	}
	if err := writeRow(f, sheet, 1, header); err != nil {
		return nil, err
	}
	if style, err := headerStyle(f); err == nil {
		f.SetCellStyle(sheet, "A1", "I1", style)
	}

	for i, row := range log.Rows {
		values := []interface{}{
			row.CaseNumber,
			row.CaughtAt.Format(dateLayout),
			row.Address,
			deref(row.Gender),
			"", "", "", "",
			row.State,
		}
		if row.SurgeryDate != nil {
			values[4] = row.SurgeryDate.Format(dateLayout)
		}
		values[5] = deref(row.SurgeryType)
		if row.Cancelled != nil {
			values[6] = yesNo(*row.Cancelled)
		}
		if row.ReleasedAt != nil {
			values[7] = row.ReleasedAt.Format(dateLayout)
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return nil, err
		}
	}

	// Summary block under the table.
	base := len(log.Rows) + 3
	summary := [][]interface{}{
		{"Male surgeries", log.Summary.Male},
		{"Female surgeries", log.Summary.Female},
		{"Male cancelled", log.Summary.MaleCancelled},
		{"Female cancelled", log.Summary.FemaleCancelled},
		{"Total cancelled", log.Summary.TotalCancelled},
		{"Total surgeries", log.Summary.TotalSurgeries},
		{"Released", log.Summary.Released},
	}
	for i, line := range summary {
		if err := writeRow(f, sheet, base+i, line); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// MedicineUsageXLSX renders the usage report as a spreadsheet.
func MedicineUsageXLSX(rows []*inventory.UsageRow) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Medicine Usage"
	f.SetSheetName(f.GetSheetName(0), sheet)

	header := []interface{}{"Medicine", "Unit", "Restocked", "Consumed", "Current Stock"}
	if err := writeRow(f, sheet, 1, header); err != nil {
		return nil, err
	}
	if style, err := headerStyle(f); err == nil {
		f.SetCellStyle(sheet, "A1", "E1", style)
	}

	for i, row := range rows {
		values := []interface{}{
			row.Name,
			row.Unit,
			fmt.Sprintf("%.1f", row.Restocked),
			fmt.Sprintf("%.1f", row.Consumed),
			fmt.Sprintf("%.1f", row.CurrentStock),
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
