package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/abctrack/abctrack/internal/domain/cases"
	"github.com/abctrack/abctrack/internal/domain/inventory"
	"github.com/abctrack/abctrack/internal/domain/kennel"
	"github.com/abctrack/abctrack/internal/platform/apperr"
)

type mockRepo struct {
	rows   []*MonthlyRow
	counts CaseCounts
}

func (m *mockRepo) MonthlyRows(_ context.Context, _ uuid.UUID, from, to time.Time) ([]*MonthlyRow, error) {
	var out []*MonthlyRow
	for _, r := range m.rows {
		if !r.CaughtAt.Before(from) && r.CaughtAt.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRepo) Counts(_ context.Context, _ uuid.UUID, _ time.Time) (*CaseCounts, error) {
	c := m.counts
	return &c, nil
}

type fakeSource struct {
	cases map[uuid.UUID]*cases.Case
	err   error
}

func (f *fakeSource) Get(_ context.Context, _, id uuid.UUID) (*cases.Case, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.cases[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeSource) ListByCatchDate(_ context.Context, _ uuid.UUID, _ time.Time) ([]*cases.Case, error) {
	return nil, nil
}

type fakeKennels struct{ occ kennel.Occupancy }

func (f *fakeKennels) Counts(_ context.Context, _ uuid.UUID) (*kennel.Occupancy, error) {
	o := f.occ
	return &o, nil
}

type fakeStock struct {
	low     []*inventory.Medicine
	entries []*inventory.LedgerEntry
}

func (f *fakeStock) LowStock(_ context.Context, _ uuid.UUID) ([]*inventory.Medicine, error) {
	return f.low, nil
}

func (f *fakeStock) UsageReport(_ context.Context, _ uuid.UUID, _ inventory.Period) ([]*inventory.UsageRow, error) {
	return nil, nil
}

func (f *fakeStock) EntriesForCase(_ context.Context, _ uuid.UUID) ([]*inventory.LedgerEntry, error) {
	return f.entries, nil
}

func newTestService(repo *mockRepo, source *fakeSource) *Service {
	return newTestServiceStock(repo, source, &fakeStock{})
}

func newTestServiceStock(repo *mockRepo, source *fakeSource, stock *fakeStock) *Service {
	if source == nil {
		source = &fakeSource{cases: map[uuid.UUID]*cases.Case{}}
	}
	return NewService(repo, source, &fakeKennels{occ: kennel.Occupancy{Free: 8, Occupied: 2, Total: 10}},
		stock, zerolog.Nop())
}

func str(s string) *string { return &s }
func b(v bool) *bool       { return &v }

func TestMonthlyLogSummary(t *testing.T) {
	jun := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	surgery := jun.AddDate(0, 0, 2)
	released := jun.AddDate(0, 0, 5)

	repo := &mockRepo{rows: []*MonthlyRow{
		{CaseNumber: "JS-TAL-JUN-0001", CaughtAt: jun, Gender: str(cases.GenderMale), SurgeryDate: &surgery, Cancelled: b(false), ReleasedAt: &released},
		{CaseNumber: "JS-TAL-JUN-0002", CaughtAt: jun.AddDate(0, 0, 1), Gender: str(cases.GenderFemale), SurgeryDate: &surgery, Cancelled: b(false)},
		{CaseNumber: "JS-TAL-JUN-0003", CaughtAt: jun.AddDate(0, 0, 1), Gender: str(cases.GenderFemale), SurgeryDate: &surgery, Cancelled: b(true)},
		{CaseNumber: "JS-TAL-JUN-0004", CaughtAt: jun.AddDate(0, 0, 3)}, // still Caught, no observation
		{CaseNumber: "JS-TAL-MAY-0009", CaughtAt: jun.AddDate(0, -1, 0)},
	}}
	svc := newTestService(repo, nil)

	log, err := svc.MonthlyLog(context.Background(), uuid.New(), "2025-06")
	if err != nil {
		t.Fatal(err)
	}
	if len(log.Rows) != 4 {
		t.Fatalf("rows = %d", len(log.Rows))
	}
	want := MonthlySummary{
		Male: 1, Female: 1, FemaleCancelled: 1,
		TotalCancelled: 1, TotalSurgeries: 2, Released: 1,
	}
	if log.Summary != want {
		t.Fatalf("summary = %+v", log.Summary)
	}
}

func TestMonthlyLogRejectsBadMonth(t *testing.T) {
	svc := newTestService(&mockRepo{}, nil)
	_, err := svc.MonthlyLog(context.Background(), uuid.New(), "June 2025")
	var ie *apperr.InputError
	if !errors.As(err, &ie) {
		t.Fatalf("want InputError, got %v", err)
	}
}

func TestMonthlyLogEmptyMonth(t *testing.T) {
	svc := newTestService(&mockRepo{}, nil)
	log, err := svc.MonthlyLog(context.Background(), uuid.New(), "2025-01")
	if err != nil {
		t.Fatal(err)
	}
	if len(log.Rows) != 0 || log.Summary != (MonthlySummary{}) {
		t.Fatalf("log = %+v", log)
	}
}

func TestCasePaperRoundsDosages(t *testing.T) {
	id := uuid.New()
	now := time.Now()
	st := cases.SurgeryOvariohysterectomy
	source := &fakeSource{cases: map[uuid.UUID]*cases.Case{
		id: {
			ID:         id,
			CaseNumber: "JS-TAL-JUN-0001",
			State:      cases.StateUnderTreatment,
			Catching: &cases.CatchingRecord{
				CaughtAt: now, Address: "Market Road", PhotoIDs: []string{"p1", "p2"}, CreatedBy: "catcher1",
			},
			Observation: &cases.ObservationRecord{
				Gender: cases.GenderFemale, Age: "Adult 2-8 years", KennelNumber: 7,
			},
			Surgery: &cases.SurgeryRecord{
				SurgeryDate: now, Weight: 17.5, SurgeryType: &st,
				Medicines: map[string]float64{"Xylazine": 1.75, "Intacef Tazo": 700},
				PhotoIDs:  []string{"s1"}, CreatedBy: "vet1",
			},
			Treatments: []*cases.TreatmentRecord{
				{TreatmentDate: now, DayPostSurgery: 1, WoundCondition: "Normal Healing",
					FoodIntake: true, WaterIntake: true,
					Medicines: map[string]float64{"Melonex": 0.95}, CreatedBy: "care1"},
			},
		},
	}}
	svc := newTestService(&mockRepo{}, source)

	paper, err := svc.CasePaper(context.Background(), uuid.New(), id)
	if err != nil {
		t.Fatal(err)
	}
	if paper.MedicinesUsed["Xylazine"] != 1.8 {
		t.Errorf("Xylazine = %v, want 1.8", paper.MedicinesUsed["Xylazine"])
	}
	if paper.MedicinesUsed["Intacef Tazo"] != 700 {
		t.Errorf("Intacef Tazo = %v", paper.MedicinesUsed["Intacef Tazo"])
	}
	if len(paper.Treatments) != 1 || paper.Treatments[0].Medicines["Melonex"] != 1.0 {
		t.Errorf("treatments = %+v", paper.Treatments)
	}
	sig := paper.Signatures
	if sig.Catcher != "catcher1" || sig.VetDoctor != "vet1" || sig.Caretaker != "care1" {
		t.Errorf("signatures = %+v", sig)
	}
}

func TestCasePaperNotFound(t *testing.T) {
	svc := newTestService(&mockRepo{}, nil)
	_, err := svc.CasePaper(context.Background(), uuid.New(), uuid.New())
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}

func TestCasePaperPropagatesStorageErrors(t *testing.T) {
	boom := errors.New("connection reset")
	svc := newTestService(&mockRepo{}, &fakeSource{err: boom})
	_, err := svc.CasePaper(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, boom) {
		t.Fatalf("want storage error back, got %v", err)
	}
	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		t.Fatalf("storage error masked as NotFound: %v", err)
	}
}

func TestCasePaperListsAdjustments(t *testing.T) {
	id := uuid.New()
	now := time.Now()
	source := &fakeSource{cases: map[uuid.UUID]*cases.Case{
		id: {
			ID:         id,
			CaseNumber: "JS-TAL-JUN-0002",
			State:      cases.StateReleased,
			Catching:   &cases.CatchingRecord{CaughtAt: now, Address: "Temple Street", CreatedBy: "catcher1"},
		},
	}}
	stock := &fakeStock{entries: []*inventory.LedgerEntry{
		{Kind: inventory.KindSurgeryConsumption, Delta: -1.5, Reference: id.String()},
		{Kind: inventory.KindAdjustment, Delta: 0.5, Reference: id.String()},
	}}
	svc := newTestServiceStock(&mockRepo{}, source, stock)

	paper, err := svc.CasePaper(context.Background(), uuid.New(), id)
	if err != nil {
		t.Fatal(err)
	}
	if len(paper.Adjustments) != 1 {
		t.Fatalf("adjustments = %d, want 1", len(paper.Adjustments))
	}
	if paper.Adjustments[0].Delta != 0.5 {
		t.Errorf("delta = %v, want 0.5", paper.Adjustments[0].Delta)
	}
}

func TestDashboard(t *testing.T) {
	repo := &mockRepo{counts: CaseCounts{
		Total: 40, Active: 12, TotalSurgeries: 25, TodayCatchings: 3, TodaySurgeries: 2,
	}}
	svc := newTestService(repo, nil)

	stats, err := svc.Dashboard(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalCases != 40 || stats.ActiveCases != 12 || stats.TotalSurgeries != 25 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.Kennels.Total != 10 || stats.Kennels.Occupied != 2 {
		t.Fatalf("kennels = %+v", stats.Kennels)
	}
	if stats.LowStock == nil {
		t.Fatal("low stock should be an empty list, not nil")
	}
}
