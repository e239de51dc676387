package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/abctrack/abctrack/internal/platform/apperr"
	"github.com/abctrack/abctrack/internal/platform/auth"
)

type Service struct {
	repo   Repository
	tokens *auth.TokenIssuer
	log    zerolog.Logger
}

func NewService(repo Repository, tokens *auth.TokenIssuer, log zerolog.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, log: log}
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// Login checks credentials and issues a session token. Bad credentials and
// inactive accounts share the same error message.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if in.Email == "" || in.Password == "" {
		return nil, apperr.Input("email and password are required")
	}
	u, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Auth("invalid email or password")
		}
		return nil, err
	}
	if !auth.VerifyPassword(u.PasswordHash, in.Password) {
		return nil, apperr.Auth("invalid email or password")
	}
	if !u.Active {
		return nil, apperr.Auth("account is deactivated")
	}

	token, expiresAt, err := s.tokens.Issue(u.ID, u.Email, u.FullName(), u.Role, u.ProjectID)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("email", u.Email).Str("role", u.Role).Msg("user logged in")
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user", id.String())
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*User, error) {
	return s.repo.ListByProject(ctx, projectID)
}

type CreateInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Mobile    string `json:"mobile"`
	Role      string `json:"role"`
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func (in *CreateInput) validate() error {
	if !emailPattern.MatchString(in.Email) {
		return apperr.InputField("email", "must be a valid email address")
	}
	if in.FirstName == "" {
		return apperr.InputField("first_name", "is required")
	}
	if !auth.KnownRole(in.Role) || in.Role == auth.RoleSuperAdmin {
		return apperr.InputField("role", fmt.Sprintf("unknown role %q", in.Role))
	}
	return nil
}

// DefaultPassword derives the provisioning password from a user's name and
// mobile number.
func DefaultPassword(firstName, mobile string) string {
	last4 := mobile
	if len(mobile) > 4 {
		last4 = mobile[len(mobile)-4:]
	}
	return firstName + "#" + last4
}

// CreateResult carries the generated password when the caller supplied none;
// it is shown once and never stored in the clear.
type CreateResult struct {
	User              *User   `json:"user"`
	GeneratedPassword *string `json:"generated_password,omitempty"`
}

// Create provisions a project user. An empty password falls back to the
// default rule.
func (s *Service) Create(ctx context.Context, projectID uuid.UUID, in CreateInput) (*CreateResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	exists, err := s.repo.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("email %s is already registered", in.Email)
	}

	var generated *string
	password := in.Password
	if password == "" {
		p := DefaultPassword(in.FirstName, in.Mobile)
		password = p
		generated = &p
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.New(),
		ProjectID:    &projectID,
		Email:        strings.ToLower(in.Email),
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Mobile:       in.Mobile,
		Role:         in.Role,
		Active:       true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info().Str("email", u.Email).Str("role", u.Role).Msg("user created")
	return &CreateResult{User: u, GeneratedPassword: generated}, nil
}

// SetActive toggles an account. Deactivation takes effect at the next token
// check, not mid-session.
func (s *Service) SetActive(ctx context.Context, projectID, id uuid.UUID, active bool) (*User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.ProjectID == nil || *u.ProjectID != projectID {
		return nil, apperr.NotFound("user", id.String())
	}
	if u.Role == auth.RoleSuperAdmin {
		return nil, apperr.Forbidden("super admin accounts cannot be deactivated")
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	u.Active = active
	return u, nil
}

// EnsureSuperAdmin creates the super-admin account if it does not exist.
// Used by CLI seeding; idempotent.
func (s *Service) EnsureSuperAdmin(ctx context.Context, email, password string) (*User, error) {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           uuid.New(),
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		FirstName:    "Super",
		LastName:     "Admin",
		Role:         auth.RoleSuperAdmin,
		Active:       true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info().Str("email", u.Email).Msg("super admin created")
	return u, nil
}

// CreateProjectAdmin provisions the admin account for a newly created
// project, with the default password rule. Called by project provisioning
// inside its transaction.
func (s *Service) CreateProjectAdmin(ctx context.Context, projectID uuid.UUID, email, firstName, lastName, mobile string) (*CreateResult, error) {
	return s.Create(ctx, projectID, CreateInput{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Mobile:    mobile,
		Role:      auth.RoleAdmin,
	})
}
