package reporting

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/abctrack/abctrack/internal/domain/cases"
	"github.com/abctrack/abctrack/internal/domain/inventory"
	"github.com/abctrack/abctrack/internal/domain/kennel"
	"github.com/abctrack/abctrack/internal/platform/apperr"
)

// CaseSource reads case projections. Satisfied by the cases repository.
type CaseSource interface {
	Get(ctx context.Context, projectID, id uuid.UUID) (*cases.Case, error)
	ListByCatchDate(ctx context.Context, projectID uuid.UUID, day time.Time) ([]*cases.Case, error)
}

// Kennels reads occupancy. Implemented by the kennel service.
type Kennels interface {
	Counts(ctx context.Context, projectID uuid.UUID) (*kennel.Occupancy, error)
}

// Stock reads inventory projections. Implemented by the inventory service.
type Stock interface {
	LowStock(ctx context.Context, projectID uuid.UUID) ([]*inventory.Medicine, error)
	UsageReport(ctx context.Context, projectID uuid.UUID, p inventory.Period) ([]*inventory.UsageRow, error)
	EntriesForCase(ctx context.Context, caseID uuid.UUID) ([]*inventory.LedgerEntry, error)
}

type Service struct {
	repo    Repository
	source  CaseSource
	kennels Kennels
	stock   Stock
	log     zerolog.Logger
}

func NewService(repo Repository, source CaseSource, kennels Kennels, stock Stock, log zerolog.Logger) *Service {
	return &Service{repo: repo, source: source, kennels: kennels, stock: stock, log: log}
}

// DailyCatching returns the cases caught on a day, ordered by case number.
func (s *Service) DailyCatching(ctx context.Context, projectID uuid.UUID, day time.Time) ([]*cases.Case, error) {
	list, err := s.source.ListByCatchDate(ctx, projectID, day)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*cases.Case{}
	}
	return list, nil
}

// MonthlyLog builds the sterilization log for a month ("2006-01").
func (s *Service) MonthlyLog(ctx context.Context, projectID uuid.UUID, month string) (*MonthlyLog, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, apperr.InputField("month", "must be YYYY-MM")
	}
	rows, err := s.repo.MonthlyRows(ctx, projectID, start, start.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*MonthlyRow{}
	}

	var sum MonthlySummary
	for _, row := range rows {
		cancelled := row.Cancelled != nil && *row.Cancelled
		if row.Gender != nil && row.SurgeryDate != nil {
			switch *row.Gender {
			case cases.GenderMale:
				if cancelled {
					sum.MaleCancelled++
				} else {
					sum.Male++
				}
			case cases.GenderFemale:
				if cancelled {
					sum.FemaleCancelled++
				} else {
					sum.Female++
				}
			}
		}
		if row.ReleasedAt != nil {
			sum.Released++
		}
	}
	sum.TotalCancelled = sum.MaleCancelled + sum.FemaleCancelled
	sum.TotalSurgeries = sum.Male + sum.Female

	return &MonthlyLog{Month: month, Rows: rows, Summary: sum}, nil
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }

// CasePaper assembles the printable projection of one case. Dosages are
// rounded to one decimal for print.
func (s *Service) CasePaper(ctx context.Context, projectID, id uuid.UUID) (*CasePaper, error) {
	c, err := s.source.Get(ctx, projectID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("case", id.String())
		}
		return nil, err
	}

	paper := &CasePaper{
		CaseNumber:     c.CaseNumber,
		State:          c.State,
		CatchingPhotos: []string{},
		MedicinesUsed:  map[string]float64{},
		Treatments:     []*TreatmentLine{},
	}
	if c.Catching != nil {
		paper.CaughtAt = &c.Catching.CaughtAt
		paper.CatchingSite = c.Catching.Address
		paper.CatchingPhotos = c.Catching.PhotoIDs
		paper.Signatures.Catcher = c.Catching.CreatedBy
	}
	if c.Observation != nil {
		paper.Gender = &c.Observation.Gender
		paper.Age = &c.Observation.Age
		paper.Colors = c.Observation.Colors
		paper.KennelNumber = &c.Observation.KennelNumber
	}
	if c.Surgery != nil {
		paper.Weight = &c.Surgery.Weight
		paper.SurgeryDate = &c.Surgery.SurgeryDate
		paper.SurgeryType = c.Surgery.SurgeryType
		paper.SurgeryPhotos = c.Surgery.PhotoIDs
		paper.Signatures.VetDoctor = c.Surgery.CreatedBy
		for name, units := range c.Surgery.Medicines {
			paper.MedicinesUsed[name] = round1(units)
		}
	}
	for _, tr := range c.Treatments {
		meds := make(map[string]float64, len(tr.Medicines))
		for name, units := range tr.Medicines {
			meds[name] = round1(units)
		}
		paper.Treatments = append(paper.Treatments, &TreatmentLine{
			Date:           tr.TreatmentDate,
			DayPostSurgery: tr.DayPostSurgery,
			WoundCondition: tr.WoundCondition,
			FoodIntake:     tr.FoodIntake,
			WaterIntake:    tr.WaterIntake,
			Medicines:      meds,
			Remarks:        tr.Remarks,
		})
		paper.Signatures.Caretaker = tr.CreatedBy
	}
	if c.Release != nil {
		paper.ReleasedAt = &c.Release.ReleasedAt
		paper.ReleaseSite = &c.Release.Address
	}

	entries, err := s.stock.EntriesForCase(ctx, id)
	if err != nil {
		return nil, err
	}
	paper.Adjustments = []*inventory.LedgerEntry{}
	for _, e := range entries {
		if e.Kind == inventory.KindAdjustment {
			paper.Adjustments = append(paper.Adjustments, e)
		}
	}
	return paper, nil
}

// Dashboard aggregates the landing-page statistics.
func (s *Service) Dashboard(ctx context.Context, projectID uuid.UUID) (*DashboardStats, error) {
	counts, err := s.repo.Counts(ctx, projectID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	occupancy, err := s.kennels.Counts(ctx, projectID)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.stock.LowStock(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if lowStock == nil {
		lowStock = []*inventory.Medicine{}
	}
	return &DashboardStats{
		TotalCases:     counts.Total,
		ActiveCases:    counts.Active,
		TotalSurgeries: counts.TotalSurgeries,
		TodayCatchings: counts.TodayCatchings,
		TodaySurgeries: counts.TodaySurgeries,
		Kennels:        *occupancy,
		LowStock:       lowStock,
	}, nil
}

// MedicineUsage re-exposes the ledger usage report for export.
func (s *Service) MedicineUsage(ctx context.Context, projectID uuid.UUID, p inventory.Period) ([]*inventory.UsageRow, error) {
	rows, err := s.stock.UsageReport(ctx, projectID, p)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*inventory.UsageRow{}
	}
	return rows, nil
}
