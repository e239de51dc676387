package user

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/abctrack/abctrack/internal/platform/apperr"
	"github.com/abctrack/abctrack/internal/platform/auth"
)

type mockRepo struct {
	users map[uuid.UUID]*User
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockRepo) Get(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]*User, error) {
	var out []*User
	for _, u := range m.users {
		if u.ProjectID != nil && *u.ProjectID == projectID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Active = active
	return nil
}

func (m *mockRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, auth.NewTokenIssuer("test-secret", 24), zerolog.Nop()), repo
}

func TestLoginRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	projectID := uuid.New()

	created, err := svc.Create(ctx, projectID, CreateInput{
		Email:     "Vet@Example.org",
		Password:  "secret123",
		FirstName: "Asha",
		Mobile:    "9876543210",
		Role:      auth.RoleVetDoctor,
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.GeneratedPassword != nil {
		t.Fatal("explicit password should not be regenerated")
	}

	out, err := svc.Login(ctx, LoginInput{Email: "vet@example.org", Password: "secret123"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Token == "" {
		t.Fatal("empty token")
	}
	if out.User.Role != auth.RoleVetDoctor {
		t.Fatalf("role = %s", out.User.Role)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	projectID := uuid.New()

	if _, err := svc.Create(ctx, projectID, CreateInput{
		Email: "a@b.co", Password: "right", FirstName: "A", Role: auth.RoleDriver,
	}); err != nil {
		t.Fatal(err)
	}

	for _, in := range []LoginInput{
		{Email: "a@b.co", Password: "wrong"},
		{Email: "nobody@b.co", Password: "right"},
	} {
		_, err := svc.Login(ctx, in)
		var ae *apperr.AuthError
		if !errors.As(err, &ae) {
			t.Errorf("%s: want AuthError, got %v", in.Email, err)
		}
	}
}

func TestLoginRejectsInactive(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	projectID := uuid.New()

	created, err := svc.Create(ctx, projectID, CreateInput{
		Email: "a@b.co", Password: "pw", FirstName: "A", Role: auth.RoleDriver,
	})
	if err != nil {
		t.Fatal(err)
	}
	repo.users[created.User.ID].Active = false

	_, err = svc.Login(ctx, LoginInput{Email: "a@b.co", Password: "pw"})
	var ae *apperr.AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("want AuthError, got %v", err)
	}
}

func TestDefaultPassword(t *testing.T) {
	if got := DefaultPassword("Ravi", "9876543210"); got != "Ravi#3210" {
		t.Fatalf("got %s", got)
	}
	if got := DefaultPassword("Ravi", "321"); got != "Ravi#321" {
		t.Fatalf("got %s", got)
	}
}

func TestCreateGeneratesDefaultPassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	projectID := uuid.New()

	created, err := svc.Create(ctx, projectID, CreateInput{
		Email:     "ravi@example.org",
		FirstName: "Ravi",
		Mobile:    "9876543210",
		Role:      auth.RoleCatcher,
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.GeneratedPassword == nil || *created.GeneratedPassword != "Ravi#3210" {
		t.Fatalf("generated = %v", created.GeneratedPassword)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "ravi@example.org", Password: "Ravi#3210"}); err != nil {
		t.Fatal(err)
	}
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	projectID := uuid.New()

	in := CreateInput{Email: "x@y.co", Password: "pw", FirstName: "X", Role: auth.RoleDriver}
	if _, err := svc.Create(ctx, projectID, in); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Create(ctx, projectID, in)
	var ce *apperr.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("want ConflictError, got %v", err)
	}
}

func TestCreateRejectsSuperAdminRole(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Email: "x@y.co", FirstName: "X", Role: auth.RoleSuperAdmin,
	})
	var ie *apperr.InputError
	if !errors.As(err, &ie) {
		t.Fatalf("want InputError, got %v", err)
	}
}

func TestSetActiveScopesToProject(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	projectA, projectB := uuid.New(), uuid.New()

	created, err := svc.Create(ctx, projectA, CreateInput{
		Email: "x@y.co", Password: "pw", FirstName: "X", Role: auth.RoleDriver,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.SetActive(ctx, projectB, created.User.ID, false)
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}

	u, err := svc.SetActive(ctx, projectA, created.User.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if u.Active {
		t.Fatal("still active")
	}
}

func TestEnsureSuperAdminIdempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	u1, err := svc.EnsureSuperAdmin(ctx, "root@abctrack.org", "pw")
	if err != nil {
		t.Fatal(err)
	}
	u2, err := svc.EnsureSuperAdmin(ctx, "root@abctrack.org", "other")
	if err != nil {
		t.Fatal(err)
	}
	if u1.ID != u2.ID {
		t.Fatal("super admin duplicated")
	}
	if len(repo.users) != 1 {
		t.Fatalf("users = %d", len(repo.users))
	}
}
