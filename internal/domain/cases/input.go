package cases

import (
	"fmt"
	"time"

	"github.com/abctrack/abctrack/internal/platform/apperr"
)

// Stage action payloads. Each validates its own shape; state preconditions
// are the engine's job.

type CatchingInput struct {
	CaughtAt  time.Time `json:"caught_at"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Address   string    `json:"address"`
	Ward      *string   `json:"ward"`
	PhotoIDs  []string  `json:"photo_ids"`
	Remarks   *string   `json:"remarks"`
}

func validatePhotos(field string, ids []string, required bool) error {
	if required && len(ids) == 0 {
		return apperr.InputField(field, "at least one photo is required")
	}
	if len(ids) > 4 {
		return apperr.InputField(field, "at most 4 photos are allowed")
	}
	return nil
}

func validateCoords(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return apperr.InputField("latitude", "must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return apperr.InputField("longitude", "must be between -180 and 180")
	}
	return nil
}

func (in *CatchingInput) Validate() error {
	if in.CaughtAt.IsZero() {
		return apperr.InputField("caught_at", "is required")
	}
	if err := validateCoords(in.Latitude, in.Longitude); err != nil {
		return err
	}
	return validatePhotos("photo_ids", in.PhotoIDs, true)
}

type ObservationInput struct {
	KennelNumber      int       `json:"kennel_number"`
	Gender            string    `json:"gender"`
	Age               string    `json:"age"`
	Colors            []string  `json:"colors"`
	BodyCondition     string    `json:"body_condition"`
	Temperament       string    `json:"temperament"`
	HasInjuries       bool      `json:"has_injuries"`
	InjuryDescription *string   `json:"injury_description"`
	PhotoID           *string   `json:"photo_id"`
	ObservedAt        time.Time `json:"observed_at"`
}

func (in *ObservationInput) Validate() error {
	if in.KennelNumber < 1 {
		return apperr.InputField("kennel_number", "is required")
	}
	if !validGenders[in.Gender] {
		return apperr.InputField("gender", fmt.Sprintf("must be Male or Female; got %q", in.Gender))
	}
	if !validAgeBands[in.Age] {
		return apperr.InputField("age", fmt.Sprintf("unknown age band %q", in.Age))
	}
	if len(in.Colors) == 0 {
		return apperr.InputField("colors", "at least one color is required")
	}
	if !validBodyConditions[in.BodyCondition] {
		return apperr.InputField("body_condition", fmt.Sprintf("unknown body condition %q", in.BodyCondition))
	}
	if !validTemperaments[in.Temperament] {
		return apperr.InputField("temperament", fmt.Sprintf("unknown temperament %q", in.Temperament))
	}
	if in.HasInjuries && (in.InjuryDescription == nil || *in.InjuryDescription == "") {
		return apperr.InputField("injury_description", "is required when injuries are reported")
	}
	if in.ObservedAt.IsZero() {
		return apperr.InputField("observed_at", "is required")
	}
	return nil
}

type SurgeryInput struct {
	SurgeryDate        time.Time          `json:"surgery_date"`
	Weight             float64            `json:"weight"`
	SkinCondition      string             `json:"skin_condition"`
	Cancelled          bool               `json:"cancelled"`
	CancellationReason *string            `json:"cancellation_reason"`
	Medicines          map[string]float64 `json:"medicines"`
	PhotoIDs           []string           `json:"photo_ids"`
	Remarks            *string            `json:"remarks"`
}

func (in *SurgeryInput) Validate() error {
	if in.SurgeryDate.IsZero() {
		return apperr.InputField("surgery_date", "is required")
	}
	if in.SkinCondition == "" {
		in.SkinCondition = "Normal"
	}
	if !validSkinConditions[in.SkinCondition] {
		return apperr.InputField("skin_condition", fmt.Sprintf("unknown skin condition %q", in.SkinCondition))
	}
	if in.Cancelled {
		if in.CancellationReason == nil || !validCancellationReasons[*in.CancellationReason] {
			return apperr.InputField("cancellation_reason", "a valid reason is required when surgery is cancelled")
		}
		return nil
	}
	if in.Weight < MinSurgeryWeight || in.Weight > MaxSurgeryWeight {
		return apperr.InputField("weight",
			fmt.Sprintf("must be between %.0f and %.0f kg; got %.1f", MinSurgeryWeight, MaxSurgeryWeight, in.Weight))
	}
	for name, units := range in.Medicines {
		if units < 0 {
			return apperr.InputField("medicines", fmt.Sprintf("negative units for %s", name))
		}
	}
	return validatePhotos("photo_ids", in.PhotoIDs, true)
}

type TreatmentInput struct {
	TreatmentDate  time.Time          `json:"treatment_date"`
	DayPostSurgery int                `json:"day_post_surgery"`
	Medicines      map[string]float64 `json:"medicines"`
	WoundCondition string             `json:"wound_condition"`
	FoodIntake     bool               `json:"food_intake"`
	WaterIntake    bool               `json:"water_intake"`
	Remarks        *string            `json:"remarks"`
	PhotoIDs       []string           `json:"photo_ids"`
}

func (in *TreatmentInput) Validate() error {
	if in.TreatmentDate.IsZero() {
		return apperr.InputField("treatment_date", "is required")
	}
	if !validWoundConditions[in.WoundCondition] {
		return apperr.InputField("wound_condition", fmt.Sprintf("unknown wound condition %q", in.WoundCondition))
	}
	for name, units := range in.Medicines {
		if units < 0 {
			return apperr.InputField("medicines", fmt.Sprintf("negative units for %s", name))
		}
	}
	return validatePhotos("photo_ids", in.PhotoIDs, false)
}

type ReleaseInput struct {
	ReleasedAt time.Time `json:"released_at"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Address    string    `json:"address"`
	PhotoIDs   []string  `json:"photo_ids"`
}

func (in *ReleaseInput) Validate() error {
	if in.ReleasedAt.IsZero() {
		return apperr.InputField("released_at", "is required")
	}
	if err := validateCoords(in.Latitude, in.Longitude); err != nil {
		return err
	}
	return validatePhotos("photo_ids", in.PhotoIDs, true)
}

type DeceasedInput struct {
	DiedAt  time.Time `json:"died_at"`
	Cause   string    `json:"cause"`
	Remarks *string   `json:"remarks"`
}

func (in *DeceasedInput) Validate() error {
	if in.DiedAt.IsZero() {
		return apperr.InputField("died_at", "is required")
	}
	if !validCausesOfDeath[in.Cause] {
		return apperr.InputField("cause", fmt.Sprintf("unknown cause of death %q", in.Cause))
	}
	return nil
}

// ListFilter narrows case listings.
type ListFilter struct {
	State          string
	From           *time.Time
	To             *time.Time
	NumberContains string
}
