package inventory

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Catalog
	CreateMedicine(ctx context.Context, m *Medicine) error
	UpdateMedicine(ctx context.Context, m *Medicine) error
	GetMedicine(ctx context.Context, projectID, id uuid.UUID) (*Medicine, error)
	GetMedicineByName(ctx context.Context, projectID uuid.UUID, name string) (*Medicine, error)
	ListMedicines(ctx context.Context, projectID uuid.UUID) ([]*Medicine, error)
	CreateFoodItem(ctx context.Context, f *FoodItem) error
	GetFoodItem(ctx context.Context, projectID, id uuid.UUID) (*FoodItem, error)
	ListFoodItems(ctx context.Context, projectID uuid.UUID) ([]*FoodItem, error)
	// HasEntries reports whether any ledger entry references the item; the
	// unit becomes immutable once one does.
	HasEntries(ctx context.Context, itemID uuid.UUID) (bool, error)

	// Ledger. Entries are append-only: there is no update or delete.
	AppendEntry(ctx context.Context, e *LedgerEntry) error
	CurrentStock(ctx context.Context, projectID, itemID uuid.UUID) (float64, error)
	UsageTotals(ctx context.Context, projectID uuid.UUID, p Period) ([]*UsageRow, error)
	History(ctx context.Context, projectID, itemID uuid.UUID, limit, offset int) ([]*LedgerEntry, int, error)
	LowStock(ctx context.Context, projectID uuid.UUID, threshold float64) ([]*Medicine, error)
	EntriesForCase(ctx context.Context, caseID uuid.UUID) ([]*LedgerEntry, error)
}
