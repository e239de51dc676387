// Package inventory holds the medicine and food catalogs and the append-only
// stock ledger. Stock is never stored as a column; it is always the sum of
// the item's ledger deltas, so every unit consumed or restocked stays
// auditable and any period total can be reconstructed.
package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Medicine units and food units.
const (
	UnitMl  = "Ml"
	UnitMg  = "Mg"
	UnitPcs = "Pcs"

	FoodUnitKg    = "Kg"
	FoodUnitLiter = "Liter"
	FoodUnitPiece = "Piece"
)

// Packing kinds.
const (
	PackingBottle  = "Bottle"
	PackingVial    = "Vial"
	PackingPack    = "Pack"
	PackingAmpoule = "Ampoule"
	PackingTube    = "Tube"
)

// Ledger movement kinds.
const (
	KindRestock              = "restock"
	KindSurgeryConsumption   = "surgery_consumption"
	KindTreatmentConsumption = "treatment_consumption"
	KindFeedingConsumption   = "feeding_consumption"
	KindAdjustment           = "adjustment"
)

// Ledger item kinds.
const (
	ItemMedicine = "medicine"
	ItemFood     = "food"
)

// LowStockThreshold is the unit count below which a medicine appears on the
// dashboard's low stock list.
const LowStockThreshold = 10.0

// Medicine maps to the medicines table. CurrentStock and Packs are derived
// from the ledger on read; they are never written.
type Medicine struct {
	ID           uuid.UUID `db:"id" json:"id"`
	ProjectID    uuid.UUID `db:"project_id" json:"project_id"`
	Name         string    `db:"name" json:"name"`
	GenericName  *string   `db:"generic_name" json:"generic_name,omitempty"`
	Unit         string    `db:"unit" json:"unit"`
	Packing      string    `db:"packing" json:"packing"`
	PackSize     float64   `db:"pack_size" json:"pack_size"`
	IsDefault    bool      `db:"is_default" json:"is_default"`
	CurrentStock float64   `db:"-" json:"current_stock"`
	Packs        float64   `db:"-" json:"packs"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// FoodItem maps to the food_items table.
type FoodItem struct {
	ID           uuid.UUID `db:"id" json:"id"`
	ProjectID    uuid.UUID `db:"project_id" json:"project_id"`
	Name         string    `db:"name" json:"name"`
	Unit         string    `db:"unit" json:"unit"`
	CurrentStock float64   `db:"-" json:"current_stock"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// LedgerEntry maps to the inventory_ledger table. Entries are immutable;
// corrections are new adjustment entries.
type LedgerEntry struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	ProjectID   uuid.UUID  `db:"project_id" json:"project_id"`
	ItemKind    string     `db:"item_kind" json:"item_kind"`
	ItemID      uuid.UUID  `db:"item_id" json:"item_id"`
	Delta       float64    `db:"delta" json:"delta"`
	Kind        string     `db:"kind" json:"kind"`
	Reference   string     `db:"reference" json:"reference"`
	Stage       string     `db:"stage" json:"stage,omitempty"`
	BatchNumber *string    `db:"batch_number" json:"batch_number,omitempty"`
	Expiry      *time.Time `db:"expiry" json:"expiry,omitempty"`
	Note        *string    `db:"note" json:"note,omitempty"`
	CreatedBy   string     `db:"created_by" json:"created_by"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// UsageRow is one line of the medicine usage report. Restocked and Consumed
// are both reported as positive unit counts over the period; CurrentStock is
// the item's all-time balance and may be negative after a stockout.
type UsageRow struct {
	ItemID       uuid.UUID `json:"item_id"`
	Name         string    `json:"name"`
	Unit         string    `json:"unit"`
	PackSize     float64   `json:"pack_size"`
	Restocked    float64   `json:"restocked_units"`
	Consumed     float64   `json:"consumed_units"`
	CurrentStock float64   `json:"current_stock"`
}

var validMedicineUnits = map[string]bool{UnitMl: true, UnitMg: true, UnitPcs: true}

var validFoodUnits = map[string]bool{FoodUnitKg: true, FoodUnitLiter: true, FoodUnitPiece: true}

var validPackings = map[string]bool{
	PackingBottle: true, PackingVial: true, PackingPack: true,
	PackingAmpoule: true, PackingTube: true,
}
