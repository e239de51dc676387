// Package project covers provisioning: creating a project brings up its
// kennel pool, default catalog and admin account in one transaction.
package project

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// MaxKennelLimit bounds the kennel pool per project.
const MaxKennelLimit = 300

type Project struct {
	ID         uuid.UUID `db:"id" json:"id"`
	OrgCode    string    `db:"org_code" json:"org_code"`
	OrgName    string    `db:"org_name" json:"org_name"`
	Code       string    `db:"code" json:"code"`
	Name       string    `db:"name" json:"name"`
	Address    *string   `db:"address" json:"address,omitempty"`
	MaxKennels int       `db:"max_kennels" json:"max_kennels"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
