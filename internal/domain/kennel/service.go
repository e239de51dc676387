package kennel

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/abctrack/abctrack/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var validFilters = map[string]string{
	"":         "",
	"all":      "",
	"free":     StateFree,
	"occupied": StateOccupied,
}

// List returns the project's kennels filtered by occupancy.
func (s *Service) List(ctx context.Context, projectID uuid.UUID, filter string) ([]*Kennel, error) {
	state, ok := validFilters[filter]
	if !ok {
		return nil, apperr.InputField("status", fmt.Sprintf("unknown filter %q", filter))
	}
	return s.repo.List(ctx, projectID, state)
}

// Assign occupies a kennel for a case. The kennel must exist and be free.
func (s *Service) Assign(ctx context.Context, projectID uuid.UUID, number int, caseID uuid.UUID) error {
	ok, err := s.repo.Occupy(ctx, projectID, number, caseID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	// Distinguish an occupied kennel from a missing one.
	k, err := s.repo.Get(ctx, projectID, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("kennel", fmt.Sprintf("%d", number))
		}
		return err
	}
	return apperr.Invariant("kennel %d is already occupied by case %s", number, k.CaseID)
}

// Release frees whatever kennel the case occupies. Idempotent.
func (s *Service) Release(ctx context.Context, projectID, caseID uuid.UUID) error {
	return s.repo.Free(ctx, projectID, caseID)
}

// Counts reports pool occupancy for the dashboard.
func (s *Service) Counts(ctx context.Context, projectID uuid.UUID) (*Occupancy, error) {
	return s.repo.Counts(ctx, projectID)
}

// InitPool creates kennels 1..max for a freshly provisioned project.
func (s *Service) InitPool(ctx context.Context, projectID uuid.UUID, max int) error {
	if max < 1 {
		return apperr.InputField("max_kennels", "must be at least 1")
	}
	return s.repo.InitPool(ctx, projectID, 1, max)
}

// Resize grows or shrinks the pool when a project's max_kennels changes.
// Growing appends free kennels; shrinking refuses while any kennel above the
// new maximum is occupied.
func (s *Service) Resize(ctx context.Context, projectID uuid.UUID, oldMax, newMax int) error {
	switch {
	case newMax == oldMax:
		return nil
	case newMax > oldMax:
		return s.repo.InitPool(ctx, projectID, oldMax+1, newMax)
	default:
		occupied, err := s.repo.OccupiedAbove(ctx, projectID, newMax)
		if err != nil {
			return err
		}
		if occupied > 0 {
			return apperr.Invariant("cannot shrink kennel pool to %d: %d kennels above that number are occupied", newMax, occupied)
		}
		return s.repo.DeleteAbove(ctx, projectID, newMax)
	}
}
