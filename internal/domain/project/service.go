package project

import (
	"context"
	"errors"
	"regexp"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/abctrack/abctrack/internal/domain/user"
	"github.com/abctrack/abctrack/internal/platform/apperr"
	"github.com/abctrack/abctrack/internal/platform/db"
)

// Kennels initializes and resizes a project's kennel pool. Implemented by
// the kennel service.
type Kennels interface {
	InitPool(ctx context.Context, projectID uuid.UUID, max int) error
	Resize(ctx context.Context, projectID uuid.UUID, oldMax, newMax int) error
}

// Catalog seeds the default medicine and food catalogs. Implemented by the
// inventory service.
type Catalog interface {
	SeedDefaults(ctx context.Context, projectID uuid.UUID) error
}

// Users provisions the project admin. Implemented by the user service.
type Users interface {
	CreateProjectAdmin(ctx context.Context, projectID uuid.UUID, email, firstName, lastName, mobile string) (*user.CreateResult, error)
}

type Service struct {
	repo    Repository
	runner  db.Runner
	kennels Kennels
	catalog Catalog
	users   Users
	log     zerolog.Logger
}

func NewService(repo Repository, runner db.Runner, kennels Kennels, catalog Catalog, users Users, log zerolog.Logger) *Service {
	return &Service{repo: repo, runner: runner, kennels: kennels, catalog: catalog, users: users, log: log}
}

var codePattern = regexp.MustCompile(`^[A-Z]{2,5}$`)

type AdminInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Mobile    string `json:"mobile"`
}

type CreateInput struct {
	OrgCode    string      `json:"org_code"`
	OrgName    string      `json:"org_name"`
	Code       string      `json:"code"`
	Name       string      `json:"name"`
	Address    *string     `json:"address"`
	MaxKennels int         `json:"max_kennels"`
	Admin      *AdminInput `json:"admin"`
}

func (in *CreateInput) validate() error {
	if !codePattern.MatchString(in.OrgCode) {
		return apperr.InputField("org_code", "must be 2-5 uppercase letters")
	}
	if !codePattern.MatchString(in.Code) {
		return apperr.InputField("code", "must be 2-5 uppercase letters")
	}
	if in.OrgName == "" {
		return apperr.InputField("org_name", "is required")
	}
	if in.Name == "" {
		return apperr.InputField("name", "is required")
	}
	if in.MaxKennels == 0 {
		in.MaxKennels = MaxKennelLimit
	}
	if in.MaxKennels < 1 || in.MaxKennels > MaxKennelLimit {
		return apperr.InputField("max_kennels", "must be between 1 and 300")
	}
	return nil
}

// CreateResult bundles the project with its admin credentials, returned once.
type CreateResult struct {
	Project *Project           `json:"project"`
	Admin   *user.CreateResult `json:"admin,omitempty"`
}

// Create provisions a project: the row itself, kennels 1..max, the default
// medicine and food catalogs and optionally the admin account. One
// transaction; a half-provisioned project never becomes visible.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var out CreateResult
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByCodes(ctx, in.OrgCode, in.Code); err == nil {
			return apperr.Conflict("project %s-%s already exists", in.OrgCode, in.Code)
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		p := &Project{
			ID:         uuid.New(),
			OrgCode:    in.OrgCode,
			OrgName:    in.OrgName,
			Code:       in.Code,
			Name:       in.Name,
			Address:    in.Address,
			MaxKennels: in.MaxKennels,
			Status:     StatusActive,
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		if err := s.kennels.InitPool(ctx, p.ID, p.MaxKennels); err != nil {
			return err
		}
		if err := s.catalog.SeedDefaults(ctx, p.ID); err != nil {
			return err
		}
		out.Project = p

		if in.Admin != nil {
			admin, err := s.users.CreateProjectAdmin(ctx, p.ID,
				in.Admin.Email, in.Admin.FirstName, in.Admin.LastName, in.Admin.Mobile)
			if err != nil {
				return err
			}
			out.Admin = admin
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("org_code", out.Project.OrgCode).Str("code", out.Project.Code).
		Int("max_kennels", out.Project.MaxKennels).Msg("project provisioned")
	return &out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("project", id.String())
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*Project, error) {
	return s.repo.List(ctx)
}

type UpdateInput struct {
	OrgName    *string `json:"org_name"`
	Name       *string `json:"name"`
	Address    *string `json:"address"`
	MaxKennels *int    `json:"max_kennels"`
}

// Update edits project settings. A max_kennels change resizes the pool:
// growth appends, shrinking refuses to drop occupied kennels.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Project, error) {
	var p *Project
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.Get(ctx, id)
		if err != nil {
			return err
		}
		if in.OrgName != nil {
			if *in.OrgName == "" {
				return apperr.InputField("org_name", "must not be empty")
			}
			p.OrgName = *in.OrgName
		}
		if in.Name != nil {
			if *in.Name == "" {
				return apperr.InputField("name", "must not be empty")
			}
			p.Name = *in.Name
		}
		if in.Address != nil {
			p.Address = in.Address
		}
		if in.MaxKennels != nil && *in.MaxKennels != p.MaxKennels {
			if *in.MaxKennels < 1 || *in.MaxKennels > MaxKennelLimit {
				return apperr.InputField("max_kennels", "must be between 1 and 300")
			}
			if err := s.kennels.Resize(ctx, id, p.MaxKennels, *in.MaxKennels); err != nil {
				return err
			}
			p.MaxKennels = *in.MaxKennels
		}
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// EnsureDefault creates the default project if the codes are unclaimed.
// Used by CLI seeding; idempotent.
func (s *Service) EnsureDefault(ctx context.Context, orgCode, orgName, code, name string) (*Project, error) {
	existing, err := s.repo.GetByCodes(ctx, orgCode, code)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	out, err := s.Create(ctx, CreateInput{
		OrgCode: orgCode,
		OrgName: orgName,
		Code:    code,
		Name:    name,
	})
	if err != nil {
		return nil, err
	}
	return out.Project, nil
}
