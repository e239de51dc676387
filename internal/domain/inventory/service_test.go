package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/abctrack/abctrack/internal/platform/apperr"
)

type mockRepo struct {
	medicines map[uuid.UUID]*Medicine
	food      map[uuid.UUID]*FoodItem
	entries   []*LedgerEntry
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		medicines: make(map[uuid.UUID]*Medicine),
		food:      make(map[uuid.UUID]*FoodItem),
	}
}

func (m *mockRepo) CreateMedicine(_ context.Context, med *Medicine) error {
	if med.ID == uuid.Nil {
		med.ID = uuid.New()
	}
	med.CreatedAt = time.Now()
	m.medicines[med.ID] = med
	return nil
}

func (m *mockRepo) UpdateMedicine(_ context.Context, med *Medicine) error {
	m.medicines[med.ID] = med
	return nil
}

func (m *mockRepo) stock(id uuid.UUID) float64 {
	var sum float64
	for _, e := range m.entries {
		if e.ItemID == id {
			sum += e.Delta
		}
	}
	return sum
}

func (m *mockRepo) GetMedicine(_ context.Context, _, id uuid.UUID) (*Medicine, error) {
	med, ok := m.medicines[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *med
	out.CurrentStock = m.stock(id)
	return &out, nil
}

func (m *mockRepo) GetMedicineByName(_ context.Context, _ uuid.UUID, name string) (*Medicine, error) {
	for _, med := range m.medicines {
		if med.Name == name {
			out := *med
			out.CurrentStock = m.stock(med.ID)
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockRepo) ListMedicines(_ context.Context, _ uuid.UUID) ([]*Medicine, error) {
	var out []*Medicine
	for _, med := range m.medicines {
		c := *med
		c.CurrentStock = m.stock(med.ID)
		out = append(out, &c)
	}
	return out, nil
}

func (m *mockRepo) CreateFoodItem(_ context.Context, f *FoodItem) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	m.food[f.ID] = f
	return nil
}

func (m *mockRepo) GetFoodItem(_ context.Context, _, id uuid.UUID) (*FoodItem, error) {
	f, ok := m.food[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return f, nil
}

func (m *mockRepo) ListFoodItems(_ context.Context, _ uuid.UUID) ([]*FoodItem, error) {
	var out []*FoodItem
	for _, f := range m.food {
		out = append(out, f)
	}
	return out, nil
}

func (m *mockRepo) HasEntries(_ context.Context, itemID uuid.UUID) (bool, error) {
	for _, e := range m.entries {
		if e.ItemID == itemID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) AppendEntry(_ context.Context, e *LedgerEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockRepo) CurrentStock(_ context.Context, _, itemID uuid.UUID) (float64, error) {
	return m.stock(itemID), nil
}

func (m *mockRepo) UsageTotals(_ context.Context, _ uuid.UUID, p Period) ([]*UsageRow, error) {
	var rows []*UsageRow
	for _, med := range m.medicines {
		row := &UsageRow{ItemID: med.ID, Name: med.Name, Unit: med.Unit, PackSize: med.PackSize}
		for _, e := range m.entries {
			if e.ItemID != med.ID {
				continue
			}
			row.CurrentStock += e.Delta
			if !p.Contains(e.CreatedAt) {
				continue
			}
			if e.Delta > 0 {
				row.Restocked += e.Delta
			} else {
				row.Consumed += -e.Delta
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (m *mockRepo) History(_ context.Context, _, itemID uuid.UUID, limit, offset int) ([]*LedgerEntry, int, error) {
	var all []*LedgerEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].ItemID == itemID {
			all = append(all, m.entries[i])
		}
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockRepo) LowStock(_ context.Context, _ uuid.UUID, threshold float64) ([]*Medicine, error) {
	var out []*Medicine
	for _, med := range m.medicines {
		if m.stock(med.ID) < threshold {
			c := *med
			c.CurrentStock = m.stock(med.ID)
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *mockRepo) EntriesForCase(_ context.Context, caseID uuid.UUID) ([]*LedgerEntry, error) {
	var out []*LedgerEntry
	for _, e := range m.entries {
		if e.Reference == caseID.String() {
			out = append(out, e)
		}
	}
	return out, nil
}

func newTestMedicine(t *testing.T, svc *Service, projectID uuid.UUID, name string, packSize float64) *Medicine {
	t.Helper()
	m, err := svc.CreateMedicine(context.Background(), projectID, CreateMedicineInput{
		Name: name, Unit: UnitMl, Packing: PackingBottle, PackSize: packSize,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m
}

func TestCreateMedicineValidation(t *testing.T) {
	svc := NewService(newMockRepo())
	projectID := uuid.New()

	tests := []struct {
		name  string
		in    CreateMedicineInput
		valid bool
	}{
		{"ok", CreateMedicineInput{Name: "Xylazine", Unit: UnitMl, Packing: PackingBottle, PackSize: 30}, true},
		{"missing name", CreateMedicineInput{Unit: UnitMl, Packing: PackingBottle, PackSize: 30}, false},
		{"bad unit", CreateMedicineInput{Name: "X", Unit: "Liters", Packing: PackingBottle, PackSize: 30}, false},
		{"bad packing", CreateMedicineInput{Name: "X", Unit: UnitMl, Packing: "Box", PackSize: 30}, false},
		{"zero pack size", CreateMedicineInput{Name: "X", Unit: UnitMl, Packing: PackingBottle, PackSize: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateMedicine(context.Background(), projectID, tt.in)
			if tt.valid && err != nil {
				t.Errorf("expected success, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestUnitImmutableOnceUsed(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	projectID := uuid.New()
	ctx := context.Background()

	m := newTestMedicine(t, svc, projectID, "Xylazine", 30)

	// Before any ledger entries the unit may change.
	in := CreateMedicineInput{Name: m.Name, Unit: UnitMg, Packing: m.Packing, PackSize: m.PackSize}
	if _, err := svc.UpdateMedicine(ctx, projectID, m.ID, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.RestockMedicine(ctx, projectID, RestockInput{MedicineID: m.ID, Packs: 1}, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in.Unit = UnitPcs
	_, err = svc.UpdateMedicine(ctx, projectID, m.ID, in)
	var invErr *apperr.InvariantError
	if !errors.As(err, &invErr) {
		t.Fatalf("expected InvariantError, got %v", err)
	}
}

func TestRestockAddsPacksTimesPackSize(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	projectID := uuid.New()
	ctx := context.Background()

	m := newTestMedicine(t, svc, projectID, "Melonex", 30)
	entry, err := svc.RestockMedicine(ctx, projectID, RestockInput{MedicineID: m.ID, Packs: 3}, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Delta != 90 {
		t.Errorf("expected delta 90, got %v", entry.Delta)
	}
	stock, _ := svc.CurrentStock(ctx, projectID, m.ID)
	if stock != 90 {
		t.Errorf("expected stock 90, got %v", stock)
	}
}

func TestConsumptionMayDriveStockNegative(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	projectID := uuid.New()
	caseID := uuid.New()
	ctx := context.Background()

	m := newTestMedicine(t, svc, projectID, "Xylazine", 30)

	err := svc.PostConsumption(ctx, projectID, caseID, "surgery", map[string]float64{"Xylazine": 1.2}, "u1")
	if err != nil {
		t.Fatalf("surgery must be recordable during a stockout, got %v", err)
	}
	stock, _ := svc.CurrentStock(ctx, projectID, m.ID)
	if stock != -1.2 {
		t.Errorf("expected stock -1.2, got %v", stock)
	}

	entries, _ := repo.EntriesForCase(ctx, caseID)
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	if entries[0].Delta != -1.2 || entries[0].Kind != KindSurgeryConsumption || entries[0].Stage != "surgery" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestConsumptionUnknownMedicine(t *testing.T) {
	svc := NewService(newMockRepo())
	err := svc.PostConsumption(context.Background(), uuid.New(), uuid.New(), "surgery",
		map[string]float64{"Unobtainium": 1}, "u1")
	var inputErr *apperr.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError, got %v", err)
	}
}

func TestMiscUseIsStockChecked(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	projectID := uuid.New()
	ctx := context.Background()

	m := newTestMedicine(t, svc, projectID, "Tincture", 500)
	_, _ = svc.RestockMedicine(ctx, projectID, RestockInput{MedicineID: m.ID, Packs: 1}, "u1")

	if _, err := svc.MiscUse(ctx, projectID, m.ID, 100, "cleaning", "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.MiscUse(ctx, projectID, m.ID, 1000, "too much", "u1")
	var inputErr *apperr.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError on insufficient stock, got %v", err)
	}
}

// Restock +3 packs of 30 ml, consume 4.2 ml across surgeries: the report
// shows restocked=90, consumed=4.2, current stock 85.8.
func TestUsageReportBalances(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	projectID := uuid.New()
	ctx := context.Background()

	m := newTestMedicine(t, svc, projectID, "Melonex", 30)
	_, _ = svc.RestockMedicine(ctx, projectID, RestockInput{MedicineID: m.ID, Packs: 3}, "u1")
	for _, units := range []float64{0.8, 0.9, 1.0, 0.8, 0.7} {
		if err := svc.PostConsumption(ctx, projectID, uuid.New(), "surgery",
			map[string]float64{"Melonex": units}, "u1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	now := time.Now()
	rows, err := svc.UsageReport(ctx, projectID, MonthPeriod(now.Year(), now.Month()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.Restocked != 90 {
		t.Errorf("expected restocked 90, got %v", row.Restocked)
	}
	if diff := row.Consumed - 4.2; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected consumed 4.2, got %v", row.Consumed)
	}
	if diff := row.CurrentStock - 85.8; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected stock 85.8, got %v", row.CurrentStock)
	}
	// restocked - consumed = net movement over the period
	if diff := (row.Restocked - row.Consumed) - row.CurrentStock; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("report inconsistent: %v - %v != %v", row.Restocked, row.Consumed, row.CurrentStock)
	}
}

func TestAdjustCorrectsRecordedCaseUsage(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	projectID := uuid.New()
	caseID := uuid.New()
	ctx := context.Background()

	m := newTestMedicine(t, svc, projectID, "Ketamine", 30)
	_, _ = svc.RestockMedicine(ctx, projectID, RestockInput{MedicineID: m.ID, Packs: 1}, "u1")
	if err := svc.PostConsumption(ctx, projectID, caseID, "surgery",
		map[string]float64{"Ketamine": 6.0}, "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Half a unit was logged but never drawn; credit it back against the case.
	entry, err := svc.Adjust(ctx, projectID, m.ID, 0.5, caseID.String(), "over-recorded at surgery", "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Kind != KindAdjustment || entry.Delta != 0.5 || entry.Reference != caseID.String() {
		t.Errorf("unexpected entry: %+v", entry)
	}

	stock, _ := svc.CurrentStock(ctx, projectID, m.ID)
	if diff := stock - 24.5; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected stock 24.5 after correction, got %v", stock)
	}

	entries, err := svc.EntriesForCase(ctx, caseID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected consumption plus correction, got %d entries", len(entries))
	}
	if entries[1].Kind != KindAdjustment {
		t.Errorf("expected second entry to be the adjustment, got %s", entries[1].Kind)
	}
}

func TestAdjustValidation(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	projectID := uuid.New()
	ctx := context.Background()

	m := newTestMedicine(t, svc, projectID, "Avil", 10)

	_, err := svc.Adjust(ctx, projectID, m.ID, 0, "", "", "u1")
	var inputErr *apperr.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError for zero delta, got %v", err)
	}

	_, err = svc.Adjust(ctx, projectID, uuid.New(), 1, "", "", "u1")
	var nfErr *apperr.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("expected NotFoundError for unknown medicine, got %v", err)
	}
}

// Opening 0, restock 30, consume 5, correct +2: restocked must include the
// upward adjustment so restocked - consumed still equals the closing stock.
func TestUsageReportIncludesUpwardAdjustments(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	projectID := uuid.New()
	ctx := context.Background()

	m := newTestMedicine(t, svc, projectID, "Melonex", 30)
	_, _ = svc.RestockMedicine(ctx, projectID, RestockInput{MedicineID: m.ID, Packs: 1}, "u1")
	if err := svc.PostConsumption(ctx, projectID, uuid.New(), "surgery",
		map[string]float64{"Melonex": 5}, "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Adjust(ctx, projectID, m.ID, 2, "", "stocktake surplus", "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := time.Now()
	rows, err := svc.UsageReport(ctx, projectID, MonthPeriod(now.Year(), now.Month()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.Restocked != 32 {
		t.Errorf("expected restocked 32 (30 restock + 2 adjustment), got %v", row.Restocked)
	}
	if row.Consumed != 5 {
		t.Errorf("expected consumed 5, got %v", row.Consumed)
	}
	if diff := (row.Restocked - row.Consumed) - row.CurrentStock; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("report inconsistent: %v - %v != %v", row.Restocked, row.Consumed, row.CurrentStock)
	}
}

func TestLowStock(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	projectID := uuid.New()
	ctx := context.Background()

	low := newTestMedicine(t, svc, projectID, "Atropine", 30)
	ok := newTestMedicine(t, svc, projectID, "Ketamine", 30)
	_, _ = svc.RestockMedicine(ctx, projectID, RestockInput{MedicineID: ok.ID, Packs: 2}, "u1")

	meds, err := svc.LowStock(ctx, projectID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meds) != 1 || meds[0].ID != low.ID {
		t.Errorf("expected only %s on the low stock list, got %d entries", low.Name, len(meds))
	}
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	projectID := uuid.New()
	ctx := context.Background()

	if err := svc.SeedDefaults(ctx, projectID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.SeedDefaults(ctx, projectID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	meds, _ := svc.ListMedicines(ctx, projectID)
	if len(meds) != len(DefaultCatalog) {
		t.Errorf("expected %d medicines, got %d", len(DefaultCatalog), len(meds))
	}
	food, _ := svc.ListFoodItems(ctx, projectID)
	if len(food) != len(DefaultFoodItems) {
		t.Errorf("expected %d food items, got %d", len(DefaultFoodItems), len(food))
	}
}
