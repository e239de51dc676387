// Package feeding records daily kennel feeding rounds. A round is not tied
// to a case; food consumption posts against the inventory ledger.
package feeding

import (
	"time"

	"github.com/google/uuid"
)

const (
	MealMorning = "Morning"
	MealEvening = "Evening"
)

var validMeals = map[string]bool{MealMorning: true, MealEvening: true}

type Record struct {
	ID            uuid.UUID             `db:"id" json:"id"`
	ProjectID     uuid.UUID             `db:"project_id" json:"project_id"`
	FeedDate      time.Time             `db:"feed_date" json:"feed_date"`
	Meal          string                `db:"meal" json:"meal"`
	KennelsFed    []int                 `db:"kennels_fed" json:"kennels_fed"`
	KennelsNotFed []int                 `db:"kennels_not_fed" json:"kennels_not_fed"`
	FoodConsumed  map[uuid.UUID]float64 `db:"food_consumed" json:"food_consumed"`
	PhotoIDs      []string              `db:"photo_ids" json:"photo_ids"`
	CreatedBy     string                `db:"created_by" json:"created_by"`
	CreatedAt     time.Time             `db:"created_at" json:"created_at"`
}
