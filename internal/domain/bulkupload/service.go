package bulkupload

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/abctrack/abctrack/internal/domain/cases"
	"github.com/abctrack/abctrack/internal/platform/apperr"
	"github.com/abctrack/abctrack/internal/platform/metrics"
)

// Engine is the subset of lifecycle actions uploads commit through.
// Implemented by the cases service.
type Engine interface {
	CatchWithNumber(ctx context.Context, projectID uuid.UUID, number string, in cases.CatchingInput, userID string) (*cases.Case, error)
	GetByNumber(ctx context.Context, projectID uuid.UUID, number string) (*cases.Case, error)
	RecordSurgery(ctx context.Context, projectID, id uuid.UUID, in cases.SurgeryInput, userID string) (*cases.Case, error)
}

type Service struct {
	engine Engine
	log    zerolog.Logger
}

func NewService(engine Engine, log zerolog.Logger) *Service {
	return &Service{engine: engine, log: log}
}

// Result summarizes an upload. Errors carry "Row N: message" strings.
type Result struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// Process parses and commits an uploaded sheet. Valid rows commit
// individually; a bad row never blocks the rest.
func (s *Service) Process(ctx context.Context, projectID uuid.UUID, kind string, r io.Reader, userID string) (*Result, error) {
	if kind != KindCatching && kind != KindSurgery {
		return nil, apperr.InputField("kind", "must be catching or surgery")
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Input("could not read spreadsheet: " + err.Error())
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, apperr.Input("could not read spreadsheet: " + err.Error())
	}

	result := &Result{Errors: []string{}}
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) == 0 || emptyRow(row) {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(cell(row, 0)), hintPrefix) {
			continue
		}

		var rowErr error
		switch kind {
		case KindCatching:
			rowErr = s.commitCatchingRow(ctx, projectID, row, userID)
		case KindSurgery:
			rowErr = s.commitSurgeryRow(ctx, projectID, row, userID)
		}
		if rowErr != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", i+1, rowErr.Error()))
			metrics.BulkUploadRow(kind, "failed")
			continue
		}
		result.Success++
		metrics.BulkUploadRow(kind, "success")
	}

	s.log.Info().Str("kind", kind).Int("success", result.Success).
		Int("failed", result.Failed).Msg("bulk upload processed")
	return result, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func (s *Service) commitCatchingRow(ctx context.Context, projectID uuid.UUID, row []string, userID string) error {
	number := cell(row, 0)
	if !cases.ValidCaseNumber(number) {
		return fmt.Errorf("invalid case number %q", number)
	}
	caughtAt, err := parseDateTime(cell(row, 1), cell(row, 2))
	if err != nil {
		return err
	}
	lat, err := strconv.ParseFloat(cell(row, 3), 64)
	if err != nil {
		return fmt.Errorf("invalid latitude %q", cell(row, 3))
	}
	lng, err := strconv.ParseFloat(cell(row, 4), 64)
	if err != nil {
		return fmt.Errorf("invalid longitude %q", cell(row, 4))
	}
	address := cell(row, 5)
	if address == "" {
		return fmt.Errorf("address is required")
	}

	in := cases.CatchingInput{
		CaughtAt:  caughtAt,
		Latitude:  lat,
		Longitude: lng,
		Address:   address,
		PhotoIDs:  []string{"bulk-import"},
	}
	if ward := cell(row, 6); ward != "" {
		in.Ward = &ward
	}
	if remarks := cell(row, 7); remarks != "" {
		in.Remarks = &remarks
	}

	_, err = s.engine.CatchWithNumber(ctx, projectID, number, in, userID)
	return err
}

func (s *Service) commitSurgeryRow(ctx context.Context, projectID uuid.UUID, row []string, userID string) error {
	number := cell(row, 0)
	if !cases.ValidCaseNumber(number) {
		return fmt.Errorf("invalid case number %q", number)
	}
	c, err := s.engine.GetByNumber(ctx, projectID, number)
	if err != nil {
		return fmt.Errorf("case %s not found", number)
	}

	surgeryDate, err := parseDate(cell(row, 1))
	if err != nil {
		return err
	}

	in := cases.SurgeryInput{SurgeryDate: surgeryDate, PhotoIDs: []string{"bulk-import"}}
	switch strings.ToLower(cell(row, 3)) {
	case "yes":
		in.Cancelled = true
		reason := cell(row, 4)
		if reason == "" {
			return fmt.Errorf("cancellation reason is required when cancelled")
		}
		in.CancellationReason = &reason
	case "no", "":
		weight, err := strconv.ParseFloat(cell(row, 2), 64)
		if err != nil {
			return fmt.Errorf("invalid weight %q", cell(row, 2))
		}
		in.Weight = weight
	default:
		return fmt.Errorf("cancelled must be Yes or No, got %q", cell(row, 3))
	}
	if remarks := cell(row, 5); remarks != "" {
		in.Remarks = &remarks
	}

	_, err = s.engine.RecordSurgery(ctx, projectID, c.ID, in, userID)
	return err
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("02/01/2006", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected DD/MM/YYYY", s)
	}
	return t, nil
}

func parseDateTime(date, clock string) (time.Time, error) {
	day, err := parseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	if clock == "" {
		return day, nil
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM", clock)
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
}
