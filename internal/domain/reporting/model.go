// Package reporting is the read-only projection layer: daily catching
// sheets, the monthly sterilization log, printable case papers and
// dashboard statistics. It never mutates domain state.
package reporting

import (
	"time"

	"github.com/google/uuid"

	"github.com/abctrack/abctrack/internal/domain/inventory"
	"github.com/abctrack/abctrack/internal/domain/kennel"
)

// MonthlyRow is one line of the monthly sterilization log.
type MonthlyRow struct {
	CaseID      uuid.UUID  `json:"case_id"`
	CaseNumber  string     `json:"case_number"`
	State       string     `json:"state"`
	CaughtAt    time.Time  `json:"caught_at"`
	Address     string     `json:"address"`
	Gender      *string    `json:"gender,omitempty"`
	SurgeryDate *time.Time `json:"surgery_date,omitempty"`
	SurgeryType *string    `json:"surgery_type,omitempty"`
	Cancelled   *bool      `json:"cancelled,omitempty"`
	ReleasedAt  *time.Time `json:"released_at,omitempty"`
}

// MonthlySummary aggregates a month's rows.
type MonthlySummary struct {
	Male            int `json:"male"`
	Female          int `json:"female"`
	MaleCancelled   int `json:"male_cancelled"`
	FemaleCancelled int `json:"female_cancelled"`
	TotalCancelled  int `json:"total_cancelled"`
	TotalSurgeries  int `json:"total_surgeries"`
	Released        int `json:"released"`
}

type MonthlyLog struct {
	Month   string         `json:"month"`
	Rows    []*MonthlyRow  `json:"rows"`
	Summary MonthlySummary `json:"summary"`
}

// TreatmentLine is one entry of a case paper's treatment timeline.
type TreatmentLine struct {
	Date           time.Time          `json:"date"`
	DayPostSurgery int                `json:"day_post_surgery"`
	WoundCondition string             `json:"wound_condition"`
	FoodIntake     bool               `json:"food_intake"`
	WaterIntake    bool               `json:"water_intake"`
	Medicines      map[string]float64 `json:"medicines"`
	Remarks        *string            `json:"remarks,omitempty"`
}

// CasePaper is the printable projection of one case.
type CasePaper struct {
	CaseNumber     string             `json:"case_number"`
	State          string             `json:"state"`
	CaughtAt       *time.Time         `json:"caught_at,omitempty"`
	CatchingSite   string             `json:"catching_site"`
	CatchingPhotos []string           `json:"catching_photos"`
	Gender         *string            `json:"gender,omitempty"`
	Age            *string            `json:"age,omitempty"`
	Colors         []string           `json:"colors,omitempty"`
	KennelNumber   *int               `json:"kennel_number,omitempty"`
	Weight         *float64           `json:"weight,omitempty"`
	SurgeryDate    *time.Time         `json:"surgery_date,omitempty"`
	SurgeryType    *string            `json:"surgery_type,omitempty"`
	SurgeryPhotos  []string           `json:"surgery_photos,omitempty"`
	MedicinesUsed  map[string]float64 `json:"medicines_used"`
	Treatments     []*TreatmentLine   `json:"treatments"`
	ReleasedAt     *time.Time         `json:"released_at,omitempty"`
	ReleaseSite    *string            `json:"release_site,omitempty"`
	// Adjustments are post-hoc ledger corrections referencing this case;
	// recorded stage medicines themselves are immutable.
	Adjustments []*inventory.LedgerEntry `json:"adjustments"`
	Signatures  SignatureBlock           `json:"signatures"`
}

// SignatureBlock names who signs a printed case paper. Values come from the
// stage records' created_by fields.
type SignatureBlock struct {
	Catcher   string `json:"catcher"`
	VetDoctor string `json:"vet_doctor"`
	Caretaker string `json:"caretaker"`
}

// DashboardStats is the landing-page aggregate.
type DashboardStats struct {
	TotalCases     int                   `json:"total_cases"`
	ActiveCases    int                   `json:"active_cases"`
	TotalSurgeries int                   `json:"total_surgeries"`
	TodayCatchings int                   `json:"today_catchings"`
	TodaySurgeries int                   `json:"today_surgeries"`
	Kennels        kennel.Occupancy      `json:"kennels"`
	LowStock       []*inventory.Medicine `json:"low_stock"`
}
