package inventory

// defaultMedicine is one row of the seed catalog copied into every new
// project.
type defaultMedicine struct {
	Name     string
	Generic  string
	Unit     string
	Packing  string
	PackSize float64
}

// DefaultCatalog is the surgical protocol medicine set. Names must match the
// dosage calculator's keys so auto-filled surgery dosages resolve to catalog
// entries.
var DefaultCatalog = []defaultMedicine{
	{Name: "ARV", Generic: "Anti-Rabies Vaccine", Unit: UnitMl, Packing: PackingVial, PackSize: 1},
	{Name: "Xylazine", Unit: UnitMl, Packing: PackingBottle, PackSize: 30},
	{Name: "Ketamine", Unit: UnitMl, Packing: PackingBottle, PackSize: 30},
	{Name: "Melonex", Generic: "Meloxicam", Unit: UnitMl, Packing: PackingBottle, PackSize: 30},
	{Name: "Atropine", Unit: UnitMl, Packing: PackingBottle, PackSize: 30},
	{Name: "Intacef Tazo", Generic: "Ceftriaxone + Tazobactam", Unit: UnitMg, Packing: PackingVial, PackSize: 4500},
	{Name: "Tribivet", Unit: UnitMl, Packing: PackingBottle, PackSize: 30},
	{Name: "Avil", Generic: "Pheniramine Maleate", Unit: UnitMl, Packing: PackingBottle, PackSize: 10},
	{Name: "Ethamsylate", Unit: UnitMl, Packing: PackingBottle, PackSize: 30},
	{Name: "Tincture", Generic: "Tincture Iodine", Unit: UnitMl, Packing: PackingBottle, PackSize: 500},
	{Name: "Alu Spray", Unit: UnitMl, Packing: PackingBottle, PackSize: 250},
	{Name: "Metronidazole", Unit: UnitMl, Packing: PackingBottle, PackSize: 100},
	{Name: "Prednisolone", Unit: UnitMl, Packing: PackingBottle, PackSize: 30},
	{Name: "B-Complex", Unit: UnitMl, Packing: PackingBottle, PackSize: 30},
	{Name: "Vicryl-1", Generic: "Polyglactin 910 No. 1", Unit: UnitPcs, Packing: PackingPack, PackSize: 12},
	{Name: "Vicryl-2", Generic: "Polyglactin 910 No. 2", Unit: UnitPcs, Packing: PackingPack, PackSize: 12},
	{Name: "Catgut", Unit: UnitPcs, Packing: PackingPack, PackSize: 12},
	{Name: "Povidone Iodine", Unit: UnitMl, Packing: PackingBottle, PackSize: 500},
}

// DefaultFoodItems are created alongside the medicine catalog.
var DefaultFoodItems = []struct {
	Name string
	Unit string
}{
	{Name: "Rice", Unit: FoodUnitKg},
	{Name: "Chicken", Unit: FoodUnitKg},
	{Name: "Dog Food", Unit: FoodUnitKg},
}
