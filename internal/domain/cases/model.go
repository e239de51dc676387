// Package cases implements the case lifecycle engine: the state machine an
// animal case moves through from catching to release, the per-month case
// number allocator, and the stage records each transition writes. Every
// stage action commits as one bundle: stage record, state change, kennel
// side effect and ledger entries succeed or fail together.
package cases

import (
	"time"

	"github.com/google/uuid"
)

// Case states. A case's state is cached on the case row and always derivable
// from which stage records exist.
const (
	StateCaught           = "Caught"
	StateInKennel         = "In Kennel"
	StateSurgeryCompleted = "Surgery Completed"
	StateSurgeryCancelled = "Surgery Cancelled"
	StateUnderTreatment   = "Under Treatment"
	StateReleased         = "Released"
	StateDeceased         = "Deceased"
)

// Stage actions.
const (
	ActionCatching    = "catching"
	ActionObservation = "initial_observation"
	ActionSurgery     = "surgery"
	ActionTreatment   = "treatment"
	ActionRelease     = "release"
	ActionDeceased    = "deceased"
)

// predecessors maps each action to the states it may be applied from.
// Catching is absent: it creates the case.
var predecessors = map[string][]string{
	ActionObservation: {StateCaught},
	ActionSurgery:     {StateInKennel},
	ActionTreatment:   {StateSurgeryCompleted, StateUnderTreatment},
	ActionRelease:     {StateSurgeryCompleted, StateUnderTreatment, StateSurgeryCancelled},
	ActionDeceased:    {StateCaught, StateInKennel, StateSurgeryCompleted, StateSurgeryCancelled, StateUnderTreatment},
}

// allowedActions maps each state to the actions that may be applied to a
// case in it. Released and Deceased are terminal.
var allowedActions = map[string][]string{
	StateCaught:           {ActionObservation, ActionDeceased},
	StateInKennel:         {ActionSurgery, ActionDeceased},
	StateSurgeryCompleted: {ActionTreatment, ActionRelease, ActionDeceased},
	StateUnderTreatment:   {ActionTreatment, ActionRelease, ActionDeceased},
	StateSurgeryCancelled: {ActionRelease, ActionDeceased},
	StateReleased:         {},
	StateDeceased:         {},
}

// actionAllowed reports whether the action may fire from the state.
func actionAllowed(action, state string) bool {
	for _, s := range predecessors[action] {
		if s == state {
			return true
		}
	}
	return false
}

// IsActive reports whether the state counts toward the dashboard's active
// case total.
func IsActive(state string) bool {
	switch state {
	case StateReleased, StateDeceased, StateSurgeryCancelled:
		return false
	}
	return true
}

// Genders.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Surgery types, derived from gender when not supplied.
const (
	SurgeryCastration         = "Castration"
	SurgeryOvariohysterectomy = "Ovariohysterectomy"
)

var validGenders = map[string]bool{GenderMale: true, GenderFemale: true}

var validAgeBands = map[string]bool{
	"Puppy < 6 months":   true,
	"Young 6-24 months":  true,
	"Adult 2-8 years":    true,
	"Senior > 8 years":   true,
}

var validBodyConditions = map[string]bool{
	"Emaciated": true, "Thin": true, "Normal": true, "Overweight": true,
}

var validTemperaments = map[string]bool{
	"Calm": true, "Aggressive": true, "Fearful": true,
}

var validSkinConditions = map[string]bool{
	"Normal": true, "Rough": true, "Visible Infection": true,
}

var validCancellationReasons = map[string]bool{
	"Too weak": true, "Under age": true, "Looks ill": true,
	"Contagious disease": true, "Already sterilized": true,
	"Advanced pregnant": true, "Lactating": true, "Other": true,
}

var validWoundConditions = map[string]bool{
	"Normal Healing": true, "Inflammation": true, "Infection": true, "Other": true,
}

var validCausesOfDeath = map[string]bool{
	"Post-surgery complication": true, "Post-surgical complications": true,
	"Pre-existing condition": true, "Disease": true, "Injury": true,
	"Unknown": true, "Other": true,
}

// Surgical weight bounds in kg.
const (
	MinSurgeryWeight = 10.0
	MaxSurgeryWeight = 30.0
)

// Case is the root record. Stage sub-records are nil until their transition
// commits; Treatments accumulate.
type Case struct {
	ID            uuid.UUID          `db:"id" json:"id"`
	ProjectID     uuid.UUID          `db:"project_id" json:"project_id"`
	CaseNumber    string             `db:"case_number" json:"case_number"`
	State         string             `db:"state" json:"state"`
	CurrentKennel *int               `db:"current_kennel" json:"current_kennel,omitempty"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`
	Catching      *CatchingRecord    `db:"-" json:"catching,omitempty"`
	Observation   *ObservationRecord `db:"-" json:"observation,omitempty"`
	Surgery       *SurgeryRecord     `db:"-" json:"surgery,omitempty"`
	Treatments    []*TreatmentRecord `db:"-" json:"treatments,omitempty"`
	Release       *ReleaseRecord     `db:"-" json:"release,omitempty"`
	Deceased      *DeceasedRecord    `db:"-" json:"deceased,omitempty"`
}

// CatchingRecord maps to case_catching.
type CatchingRecord struct {
	CaseID    uuid.UUID `db:"case_id" json:"case_id"`
	CaughtAt  time.Time `db:"caught_at" json:"caught_at"`
	Latitude  float64   `db:"latitude" json:"latitude"`
	Longitude float64   `db:"longitude" json:"longitude"`
	Address   string    `db:"address" json:"address"`
	Ward      *string   `db:"ward" json:"ward,omitempty"`
	PhotoIDs  []string  `db:"photo_ids" json:"photo_ids"`
	Remarks   *string   `db:"remarks" json:"remarks,omitempty"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ObservationRecord maps to case_observation.
type ObservationRecord struct {
	CaseID            uuid.UUID `db:"case_id" json:"case_id"`
	KennelNumber      int       `db:"kennel_number" json:"kennel_number"`
	Gender            string    `db:"gender" json:"gender"`
	Age               string    `db:"age" json:"age"`
	Colors            []string  `db:"colors" json:"colors"`
	BodyCondition     string    `db:"body_condition" json:"body_condition"`
	Temperament       string    `db:"temperament" json:"temperament"`
	HasInjuries       bool      `db:"has_injuries" json:"has_injuries"`
	InjuryDescription *string   `db:"injury_description" json:"injury_description,omitempty"`
	PhotoID           *string   `db:"photo_id" json:"photo_id,omitempty"`
	ObservedAt        time.Time `db:"observed_at" json:"observed_at"`
	CreatedBy         string    `db:"created_by" json:"created_by"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// SurgeryRecord maps to case_surgery. Medicines records the units actually
// consumed; correcting it afterwards goes through a ledger adjustment, never
// a rewrite.
type SurgeryRecord struct {
	CaseID             uuid.UUID          `db:"case_id" json:"case_id"`
	SurgeryDate        time.Time          `db:"surgery_date" json:"surgery_date"`
	Weight             float64            `db:"weight" json:"weight"`
	SkinCondition      string             `db:"skin_condition" json:"skin_condition"`
	Cancelled          bool               `db:"cancelled" json:"cancelled"`
	CancellationReason *string            `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	SurgeryType        *string            `db:"surgery_type" json:"surgery_type,omitempty"`
	Medicines          map[string]float64 `db:"medicines" json:"medicines"`
	PhotoIDs           []string           `db:"photo_ids" json:"photo_ids"`
	Remarks            *string            `db:"remarks" json:"remarks,omitempty"`
	CreatedBy          string             `db:"created_by" json:"created_by"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updated_at"`
}

// TreatmentRecord maps to case_treatment; one row per daily treatment.
type TreatmentRecord struct {
	ID             uuid.UUID          `db:"id" json:"id"`
	CaseID         uuid.UUID          `db:"case_id" json:"case_id"`
	TreatmentDate  time.Time          `db:"treatment_date" json:"treatment_date"`
	DayPostSurgery int                `db:"day_post_surgery" json:"day_post_surgery"`
	Medicines      map[string]float64 `db:"medicines" json:"medicines"`
	WoundCondition string             `db:"wound_condition" json:"wound_condition"`
	FoodIntake     bool               `db:"food_intake" json:"food_intake"`
	WaterIntake    bool               `db:"water_intake" json:"water_intake"`
	Remarks        *string            `db:"remarks" json:"remarks,omitempty"`
	PhotoIDs       []string           `db:"photo_ids" json:"photo_ids"`
	CreatedBy      string             `db:"created_by" json:"created_by"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
}

// ReleaseRecord maps to case_release.
type ReleaseRecord struct {
	CaseID     uuid.UUID `db:"case_id" json:"case_id"`
	ReleasedAt time.Time `db:"released_at" json:"released_at"`
	Latitude   float64   `db:"latitude" json:"latitude"`
	Longitude  float64   `db:"longitude" json:"longitude"`
	Address    string    `db:"address" json:"address"`
	PhotoIDs   []string  `db:"photo_ids" json:"photo_ids"`
	CreatedBy  string    `db:"created_by" json:"created_by"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// DeceasedRecord maps to case_deceased.
type DeceasedRecord struct {
	CaseID    uuid.UUID `db:"case_id" json:"case_id"`
	DiedAt    time.Time `db:"died_at" json:"died_at"`
	Cause     string    `db:"cause" json:"cause"`
	Remarks   *string   `db:"remarks" json:"remarks,omitempty"`
	CreatedBy string    `db:"created_by" json:"created_by"`
}
