package feeding

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Record) error
	// ListByDate returns the rounds recorded on a calendar day, morning
	// first.
	ListByDate(ctx context.Context, projectID uuid.UUID, day time.Time) ([]*Record, error)
	// Exists reports whether a round for (day, meal) is already recorded.
	Exists(ctx context.Context, projectID uuid.UUID, day time.Time, meal string) (bool, error)
}
