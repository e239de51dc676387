package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/abctrack/abctrack/internal/platform/apperr"
	"github.com/abctrack/abctrack/internal/platform/metrics"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateMedicineInput carries the catalog fields of a medicine.
type CreateMedicineInput struct {
	Name        string  `json:"name"`
	GenericName *string `json:"generic_name"`
	Unit        string  `json:"unit"`
	Packing     string  `json:"packing"`
	PackSize    float64 `json:"pack_size"`
}

func (in *CreateMedicineInput) validate() error {
	if in.Name == "" {
		return apperr.InputField("name", "is required")
	}
	if !validMedicineUnits[in.Unit] {
		return apperr.InputField("unit", fmt.Sprintf("must be one of Ml, Mg, Pcs; got %q", in.Unit))
	}
	if !validPackings[in.Packing] {
		return apperr.InputField("packing", fmt.Sprintf("unknown packing kind %q", in.Packing))
	}
	if in.PackSize <= 0 {
		return apperr.InputField("pack_size", "must be greater than 0")
	}
	return nil
}

func (s *Service) CreateMedicine(ctx context.Context, projectID uuid.UUID, in CreateMedicineInput) (*Medicine, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	m := &Medicine{
		ProjectID:   projectID,
		Name:        in.Name,
		GenericName: in.GenericName,
		Unit:        in.Unit,
		Packing:     in.Packing,
		PackSize:    in.PackSize,
	}
	if err := s.repo.CreateMedicine(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateMedicine edits catalog fields. The unit is immutable once the item
// has ledger entries; changing it would silently rescale every recorded
// movement.
func (s *Service) UpdateMedicine(ctx context.Context, projectID, id uuid.UUID, in CreateMedicineInput) (*Medicine, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	m, err := s.repo.GetMedicine(ctx, projectID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("medicine", id.String())
		}
		return nil, err
	}

	if in.Unit != m.Unit {
		used, err := s.repo.HasEntries(ctx, id)
		if err != nil {
			return nil, err
		}
		if used {
			return nil, apperr.Invariant("unit of %s cannot change once ledger entries exist", m.Name)
		}
	}

	m.Name = in.Name
	m.GenericName = in.GenericName
	m.Unit = in.Unit
	m.Packing = in.Packing
	m.PackSize = in.PackSize
	if err := s.repo.UpdateMedicine(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) GetMedicine(ctx context.Context, projectID, id uuid.UUID) (*Medicine, error) {
	m, err := s.repo.GetMedicine(ctx, projectID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("medicine", id.String())
	}
	return m, err
}

func (s *Service) ListMedicines(ctx context.Context, projectID uuid.UUID) ([]*Medicine, error) {
	return s.repo.ListMedicines(ctx, projectID)
}

func (s *Service) CreateFoodItem(ctx context.Context, projectID uuid.UUID, name, unit string) (*FoodItem, error) {
	if name == "" {
		return nil, apperr.InputField("name", "is required")
	}
	if !validFoodUnits[unit] {
		return nil, apperr.InputField("unit", fmt.Sprintf("must be one of Kg, Liter, Piece; got %q", unit))
	}
	f := &FoodItem{ProjectID: projectID, Name: name, Unit: unit}
	if err := s.repo.CreateFoodItem(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) ListFoodItems(ctx context.Context, projectID uuid.UUID) ([]*FoodItem, error) {
	return s.repo.ListFoodItems(ctx, projectID)
}

// RestockInput records the arrival of whole packs of a medicine.
type RestockInput struct {
	MedicineID  uuid.UUID  `json:"medicine_id"`
	Packs       float64    `json:"packs"`
	BatchNumber *string    `json:"batch_number"`
	Expiry      *time.Time `json:"expiry"`
}

// RestockMedicine appends a positive ledger entry of packs x pack_size
// units. The entry's reference is a fresh batch id.
func (s *Service) RestockMedicine(ctx context.Context, projectID uuid.UUID, in RestockInput, userID string) (*LedgerEntry, error) {
	if in.Packs <= 0 {
		return nil, apperr.InputField("packs", "must be greater than 0")
	}
	m, err := s.repo.GetMedicine(ctx, projectID, in.MedicineID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("medicine", in.MedicineID.String())
		}
		return nil, err
	}

	e := &LedgerEntry{
		ProjectID:   projectID,
		ItemKind:    ItemMedicine,
		ItemID:      m.ID,
		Delta:       in.Packs * m.PackSize,
		Kind:        KindRestock,
		Reference:   uuid.New().String(),
		BatchNumber: in.BatchNumber,
		Expiry:      in.Expiry,
		CreatedBy:   userID,
	}
	if err := s.repo.AppendEntry(ctx, e); err != nil {
		return nil, err
	}
	metrics.LedgerEntry(KindRestock)
	return e, nil
}

// RestockFood appends a positive ledger entry in the food item's base unit.
func (s *Service) RestockFood(ctx context.Context, projectID, foodID uuid.UUID, units float64, userID string) (*LedgerEntry, error) {
	if units <= 0 {
		return nil, apperr.InputField("units", "must be greater than 0")
	}
	f, err := s.repo.GetFoodItem(ctx, projectID, foodID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("food item", foodID.String())
		}
		return nil, err
	}

	e := &LedgerEntry{
		ProjectID: projectID,
		ItemKind:  ItemFood,
		ItemID:    f.ID,
		Delta:     units,
		Kind:      KindRestock,
		Reference: uuid.New().String(),
		CreatedBy: userID,
	}
	if err := s.repo.AppendEntry(ctx, e); err != nil {
		return nil, err
	}
	metrics.LedgerEntry(KindRestock)
	return e, nil
}

// PostConsumption appends one negative entry per medicine in the stage's
// dosage map, referencing the case. Consumption may drive stock negative:
// a surgery must be recordable even during a stockout. Unknown medicine
// names are rejected so every recorded unit stays traceable to a catalog
// item.
func (s *Service) PostConsumption(ctx context.Context, projectID, caseID uuid.UUID, stage string, medicines map[string]float64, userID string) error {
	kind := KindTreatmentConsumption
	if stage == "surgery" {
		kind = KindSurgeryConsumption
	}

	// Deterministic entry order keeps the ledger readable.
	names := make([]string, 0, len(medicines))
	for name := range medicines {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		units := medicines[name]
		if units <= 0 {
			continue
		}
		m, err := s.repo.GetMedicineByName(ctx, projectID, name)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.InputField("medicines", fmt.Sprintf("unknown medicine %q", name))
			}
			return err
		}
		e := &LedgerEntry{
			ProjectID: projectID,
			ItemKind:  ItemMedicine,
			ItemID:    m.ID,
			Delta:     -units,
			Kind:      kind,
			Reference: caseID.String(),
			Stage:     stage,
			CreatedBy: userID,
		}
		if err := s.repo.AppendEntry(ctx, e); err != nil {
			return err
		}
		metrics.LedgerEntry(kind)
	}
	return nil
}

// PostFeedingConsumption deducts the food consumed by a daily feeding round.
func (s *Service) PostFeedingConsumption(ctx context.Context, projectID, feedingID uuid.UUID, consumed map[uuid.UUID]float64, userID string) error {
	ids := make([]uuid.UUID, 0, len(consumed))
	for id := range consumed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, id := range ids {
		units := consumed[id]
		if units <= 0 {
			continue
		}
		if _, err := s.repo.GetFoodItem(ctx, projectID, id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.InputField("food_consumed", fmt.Sprintf("unknown food item %s", id))
			}
			return err
		}
		e := &LedgerEntry{
			ProjectID: projectID,
			ItemKind:  ItemFood,
			ItemID:    id,
			Delta:     -units,
			Kind:      KindFeedingConsumption,
			Reference: feedingID.String(),
			CreatedBy: userID,
		}
		if err := s.repo.AppendEntry(ctx, e); err != nil {
			return err
		}
		metrics.LedgerEntry(KindFeedingConsumption)
	}
	return nil
}

// MiscUse appends a manual negative adjustment. Unlike stage consumption it
// is stock-checked: ad-hoc deductions may not overdraw the shelf.
func (s *Service) MiscUse(ctx context.Context, projectID, medicineID uuid.UUID, units float64, note, userID string) (*LedgerEntry, error) {
	if units <= 0 {
		return nil, apperr.InputField("units", "must be greater than 0")
	}
	m, err := s.repo.GetMedicine(ctx, projectID, medicineID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("medicine", medicineID.String())
		}
		return nil, err
	}
	if m.CurrentStock < units {
		return nil, apperr.InputField("units",
			fmt.Sprintf("insufficient stock of %s: have %.1f, requested %.1f", m.Name, m.CurrentStock, units))
	}

	e := &LedgerEntry{
		ProjectID: projectID,
		ItemKind:  ItemMedicine,
		ItemID:    m.ID,
		Delta:     -units,
		Kind:      KindAdjustment,
		CreatedBy: userID,
	}
	if note != "" {
		e.Note = &note
	}
	if err := s.repo.AppendEntry(ctx, e); err != nil {
		return nil, err
	}
	metrics.LedgerEntry(KindAdjustment)
	return e, nil
}

// Adjust appends a signed correction entry referencing a case, used to fix
// recorded medicine usage without rewriting history.
func (s *Service) Adjust(ctx context.Context, projectID, medicineID uuid.UUID, delta float64, reference, note, userID string) (*LedgerEntry, error) {
	if delta == 0 {
		return nil, apperr.InputField("delta", "must be non-zero")
	}
	if _, err := s.repo.GetMedicine(ctx, projectID, medicineID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("medicine", medicineID.String())
		}
		return nil, err
	}

	e := &LedgerEntry{
		ProjectID: projectID,
		ItemKind:  ItemMedicine,
		ItemID:    medicineID,
		Delta:     delta,
		Kind:      KindAdjustment,
		Reference: reference,
		CreatedBy: userID,
	}
	if note != "" {
		e.Note = &note
	}
	if err := s.repo.AppendEntry(ctx, e); err != nil {
		return nil, err
	}
	metrics.LedgerEntry(KindAdjustment)
	return e, nil
}

func (s *Service) CurrentStock(ctx context.Context, projectID, itemID uuid.UUID) (float64, error) {
	return s.repo.CurrentStock(ctx, projectID, itemID)
}

// EntriesForCase returns every ledger entry referencing the case, stage
// consumption and later corrections alike, oldest first.
func (s *Service) EntriesForCase(ctx context.Context, caseID uuid.UUID) ([]*LedgerEntry, error) {
	return s.repo.EntriesForCase(ctx, caseID)
}

// UsageReport summarizes restocked and consumed units per medicine over the
// period. Rows for medicines with no movement are included with zeros so
// the report always covers the whole catalog.
func (s *Service) UsageReport(ctx context.Context, projectID uuid.UUID, p Period) ([]*UsageRow, error) {
	rows, err := s.repo.UsageTotals(ctx, projectID, p)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*UsageRow{}
	}
	return rows, nil
}

func (s *Service) History(ctx context.Context, projectID, itemID uuid.UUID, limit, offset int) ([]*LedgerEntry, int, error) {
	return s.repo.History(ctx, projectID, itemID, limit, offset)
}

func (s *Service) LowStock(ctx context.Context, projectID uuid.UUID) ([]*Medicine, error) {
	return s.repo.LowStock(ctx, projectID, LowStockThreshold)
}

// SeedDefaults copies the default medicine catalog and food items into a
// freshly provisioned project. Existing names are skipped so reseeding is
// safe.
func (s *Service) SeedDefaults(ctx context.Context, projectID uuid.UUID) error {
	for _, d := range DefaultCatalog {
		if _, err := s.repo.GetMedicineByName(ctx, projectID, d.Name); err == nil {
			continue
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		m := &Medicine{
			ProjectID: projectID,
			Name:      d.Name,
			Unit:      d.Unit,
			Packing:   d.Packing,
			PackSize:  d.PackSize,
			IsDefault: true,
		}
		if d.Generic != "" {
			generic := d.Generic
			m.GenericName = &generic
		}
		if err := s.repo.CreateMedicine(ctx, m); err != nil {
			return err
		}
	}

	existing, err := s.repo.ListFoodItems(ctx, projectID)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, f := range existing {
		have[f.Name] = true
	}
	for _, d := range DefaultFoodItems {
		if have[d.Name] {
			continue
		}
		if err := s.repo.CreateFoodItem(ctx, &FoodItem{ProjectID: projectID, Name: d.Name, Unit: d.Unit}); err != nil {
			return err
		}
	}
	return nil
}
