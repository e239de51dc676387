package kennel

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// InitPool inserts kennels numbered from..to (inclusive) in the free
	// state. Existing numbers are left untouched.
	InitPool(ctx context.Context, projectID uuid.UUID, from, to int) error
	List(ctx context.Context, projectID uuid.UUID, state string) ([]*Kennel, error)
	Get(ctx context.Context, projectID uuid.UUID, number int) (*Kennel, error)
	// Occupy marks the kennel occupied by caseID if and only if it is
	// currently free. Returns false when the guard fails.
	Occupy(ctx context.Context, projectID uuid.UUID, number int, caseID uuid.UUID) (bool, error)
	// Free releases whatever kennel caseID occupies. A no-op when the case
	// occupies none.
	Free(ctx context.Context, projectID, caseID uuid.UUID) error
	Counts(ctx context.Context, projectID uuid.UUID) (*Occupancy, error)
	// OccupiedAbove counts occupied kennels with number > n; used to guard
	// pool shrinks.
	OccupiedAbove(ctx context.Context, projectID uuid.UUID, n int) (int, error)
	DeleteAbove(ctx context.Context, projectID uuid.UUID, n int) error
}
