// Package bulkupload lets field teams import pre-printed catching sheets and
// surgery logs from spreadsheets. Rows are validated one by one and committed
// through the same lifecycle actions as the live API.
package bulkupload

import (
	"github.com/xuri/excelize/v2"

	"github.com/abctrack/abctrack/internal/platform/apperr"
)

const (
	KindCatching = "catching"
	KindSurgery  = "surgery"
)

// hintPrefix marks the example row in templates; uploads skip rows whose
// first cell starts with it.
const hintPrefix = "E.g"

var catchingColumns = []string{
	"Case Number", "Date (DD/MM/YYYY)", "Time (HH:MM)", "Latitude", "Longitude",
	"Address", "Ward Number", "Remarks",
}

var catchingHint = []string{
	hintPrefix + " JS-TAL-JAN-0001", "15/01/2025", "09:30", "18.5204", "73.8567",
	"Near Shivaji Market", "12", "black male near temple",
}

var surgeryColumns = []string{
	"Case Number", "Surgery Date (DD/MM/YYYY)", "Weight (kg)", "Cancelled (Yes/No)",
	"Cancellation Reason", "Remarks",
}

var surgeryHint = []string{
	hintPrefix + " JS-TAL-JAN-0001", "17/01/2025", "14.5", "No", "", "",
}

// Template builds the upload spreadsheet for a kind: a styled header row, a
// hint row and an empty grid.
func Template(kind string) (*excelize.File, error) {
	var columns, hint []string
	switch kind {
	case KindCatching:
		columns, hint = catchingColumns, catchingHint
	case KindSurgery:
		columns, hint = surgeryColumns, surgeryHint
	default:
		return nil, apperr.InputField("kind", "must be catching or surgery")
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err == nil {
		end, _ := excelize.CoordinatesToCellName(len(columns), 1)
		f.SetCellStyle(sheet, "A1", end, style)
	}

	example := make([]interface{}, len(hint))
	for i, c := range hint {
		example[i] = c
	}
	if err := f.SetSheetRow(sheet, "A2", &example); err != nil {
		return nil, err
	}
	f.SetColWidth(sheet, "A", "H", 22)
	return f, nil
}
