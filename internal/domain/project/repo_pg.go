package project

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abctrack/abctrack/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const projectCols = `id, org_code, org_name, code, name, address, max_kennels, status, created_at, updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.OrgCode, &p.OrgName, &p.Code, &p.Name, &p.Address,
		&p.MaxKennels, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO projects (id, org_code, org_name, code, name, address, max_kennels, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.OrgCode, p.OrgName, p.Code, p.Name, p.Address, p.MaxKennels, p.Status)
	return err
}

func (r *repoPG) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	return scanProject(r.conn(ctx).QueryRow(ctx,
		`SELECT `+projectCols+` FROM projects WHERE id=$1`, id))
}

func (r *repoPG) GetByCodes(ctx context.Context, orgCode, code string) (*Project, error) {
	return scanProject(r.conn(ctx).QueryRow(ctx,
		`SELECT `+projectCols+` FROM projects WHERE org_code=$1 AND code=$2`, orgCode, code))
}

func (r *repoPG) List(ctx context.Context) ([]*Project, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+projectCols+` FROM projects ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, p *Project) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE projects SET org_name=$2, name=$3, address=$4, max_kennels=$5, status=$6, updated_at=NOW()
		WHERE id=$1`,
		p.ID, p.OrgName, p.Name, p.Address, p.MaxKennels, p.Status)
	return err
}
