// Package kennel tracks the fixed per-project pool of kennels and their
// occupancy. The lifecycle engine is the only writer of occupancy state.
package kennel

import (
	"time"

	"github.com/google/uuid"
)

// Kennel states.
const (
	StateFree     = "free"
	StateOccupied = "occupied"
)

// Kennel maps to the kennels table. CaseID is set exactly when the kennel
// is occupied.
type Kennel struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	ProjectID uuid.UUID  `db:"project_id" json:"project_id"`
	Number    int        `db:"number" json:"number"`
	State     string     `db:"state" json:"state"`
	CaseID    *uuid.UUID `db:"case_id" json:"case_id,omitempty"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Occupancy summarizes the pool for the dashboard.
type Occupancy struct {
	Free     int `json:"free"`
	Occupied int `json:"occupied"`
	Total    int `json:"total"`
}
