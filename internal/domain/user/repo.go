package user

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	EmailExists(ctx context.Context, email string) (bool, error)
}
