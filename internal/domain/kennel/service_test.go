package kennel

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/abctrack/abctrack/internal/platform/apperr"
)

type mockRepo struct {
	kennels map[int]*Kennel
}

func newMockRepo() *mockRepo {
	return &mockRepo{kennels: make(map[int]*Kennel)}
}

func (m *mockRepo) InitPool(_ context.Context, projectID uuid.UUID, from, to int) error {
	for n := from; n <= to; n++ {
		if _, ok := m.kennels[n]; ok {
			continue
		}
		m.kennels[n] = &Kennel{ID: uuid.New(), ProjectID: projectID, Number: n, State: StateFree}
	}
	return nil
}

func (m *mockRepo) List(_ context.Context, _ uuid.UUID, state string) ([]*Kennel, error) {
	var out []*Kennel
	for _, k := range m.kennels {
		if state == "" || k.State == state {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *mockRepo) Get(_ context.Context, _ uuid.UUID, number int) (*Kennel, error) {
	k, ok := m.kennels[number]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return k, nil
}

func (m *mockRepo) Occupy(_ context.Context, _ uuid.UUID, number int, caseID uuid.UUID) (bool, error) {
	k, ok := m.kennels[number]
	if !ok || k.State != StateFree {
		return false, nil
	}
	k.State = StateOccupied
	k.CaseID = &caseID
	return true, nil
}

func (m *mockRepo) Free(_ context.Context, _, caseID uuid.UUID) error {
	for _, k := range m.kennels {
		if k.CaseID != nil && *k.CaseID == caseID {
			k.State = StateFree
			k.CaseID = nil
		}
	}
	return nil
}

func (m *mockRepo) Counts(_ context.Context, _ uuid.UUID) (*Occupancy, error) {
	o := &Occupancy{}
	for _, k := range m.kennels {
		o.Total++
		if k.State == StateFree {
			o.Free++
		} else {
			o.Occupied++
		}
	}
	return o, nil
}

func (m *mockRepo) OccupiedAbove(_ context.Context, _ uuid.UUID, n int) (int, error) {
	count := 0
	for _, k := range m.kennels {
		if k.Number > n && k.State == StateOccupied {
			count++
		}
	}
	return count, nil
}

func (m *mockRepo) DeleteAbove(_ context.Context, _ uuid.UUID, n int) error {
	for num, k := range m.kennels {
		if num > n && k.State == StateFree {
			delete(m.kennels, num)
		}
	}
	return nil
}

func TestAssignOccupiesFreeKennel(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	projectID := uuid.New()
	caseID := uuid.New()
	ctx := context.Background()

	if err := svc.InitPool(ctx, projectID, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Assign(ctx, projectID, 7, caseID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	k, _ := repo.Get(ctx, projectID, 7)
	if k.State != StateOccupied {
		t.Errorf("expected occupied, got %s", k.State)
	}
	if k.CaseID == nil || *k.CaseID != caseID {
		t.Errorf("expected case %s to hold kennel 7", caseID)
	}
}

func TestAssignOccupiedKennelFails(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	projectID := uuid.New()
	ctx := context.Background()

	_ = svc.InitPool(ctx, projectID, 10)
	if err := svc.Assign(ctx, projectID, 7, uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := svc.Assign(ctx, projectID, 7, uuid.New())
	var invErr *apperr.InvariantError
	if !errors.As(err, &invErr) {
		t.Fatalf("expected InvariantError, got %v", err)
	}
}

func TestAssignMissingKennel(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	projectID := uuid.New()
	ctx := context.Background()

	_ = svc.InitPool(ctx, projectID, 5)

	err := svc.Assign(ctx, projectID, 42, uuid.New())
	var nfErr *apperr.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	projectID := uuid.New()
	caseID := uuid.New()
	ctx := context.Background()

	_ = svc.InitPool(ctx, projectID, 5)
	_ = svc.Assign(ctx, projectID, 3, caseID)

	if err := svc.Release(ctx, projectID, caseID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Release(ctx, projectID, caseID); err != nil {
		t.Fatalf("second release should be a no-op, got %v", err)
	}

	k, _ := repo.Get(ctx, projectID, 3)
	if k.State != StateFree {
		t.Errorf("expected free, got %s", k.State)
	}
}

func TestListFilters(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	projectID := uuid.New()
	ctx := context.Background()

	_ = svc.InitPool(ctx, projectID, 4)
	_ = svc.Assign(ctx, projectID, 1, uuid.New())

	free, err := svc.List(ctx, projectID, "free")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(free) != 3 {
		t.Errorf("expected 3 free kennels, got %d", len(free))
	}

	occupied, _ := svc.List(ctx, projectID, "occupied")
	if len(occupied) != 1 {
		t.Errorf("expected 1 occupied kennel, got %d", len(occupied))
	}

	if _, err := svc.List(ctx, projectID, "broken"); err == nil {
		t.Error("expected InputError for unknown filter")
	}
}

func TestResize(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	projectID := uuid.New()
	ctx := context.Background()

	_ = svc.InitPool(ctx, projectID, 10)

	// Grow
	if err := svc.Resize(ctx, projectID, 10, 15); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	counts, _ := svc.Counts(ctx, projectID)
	if counts.Total != 15 {
		t.Errorf("expected 15 kennels after grow, got %d", counts.Total)
	}

	// Shrink blocked by occupancy above the new max
	_ = svc.Assign(ctx, projectID, 14, uuid.New())
	err := svc.Resize(ctx, projectID, 15, 12)
	var invErr *apperr.InvariantError
	if !errors.As(err, &invErr) {
		t.Fatalf("expected InvariantError, got %v", err)
	}

	// Shrink succeeds once nothing above the new max is occupied
	if err := svc.Resize(ctx, projectID, 15, 14); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	counts, _ = svc.Counts(ctx, projectID)
	if counts.Total != 14 {
		t.Errorf("expected 14 kennels after shrink, got %d", counts.Total)
	}
}
