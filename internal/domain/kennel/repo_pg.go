package kennel

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

const kennelCols = `id, project_id, number, state, case_id, updated_at`

func scanKennel(row pgx.Row) (*Kennel, error) {
	var k Kennel
	err := row.Scan(&k.ID, &k.ProjectID, &k.Number, &k.State, &k.CaseID, &k.UpdatedAt)
	return &k, err
}

func (r *repoPG) InitPool(ctx context.Context, projectID uuid.UUID, from, to int) error {
	for n := from; n <= to; n++ {
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO kennels (id, project_id, number, state)
			VALUES ($1, $2, $3, 'free')
			ON CONFLICT (project_id, number) DO NOTHING`,
			uuid.New(), projectID, n)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, projectID uuid.UUID, state string) ([]*Kennel, error) {
	query := `SELECT ` + kennelCols + ` FROM kennels WHERE project_id = $1`
	args := []interface{}{projectID}
	if state != "" {
		query += ` AND state = $2`
		args = append(args, state)
	}
	query += ` ORDER BY number`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var kennels []*Kennel
	for rows.Next() {
		k, err := scanKennel(rows)
		if err != nil {
			return nil, err
		}
		kennels = append(kennels, k)
	}
	return kennels, rows.Err()
}

func (r *repoPG) Get(ctx context.Context, projectID uuid.UUID, number int) (*Kennel, error) {
	return scanKennel(r.conn(ctx).QueryRow(ctx,
		`SELECT `+kennelCols+` FROM kennels WHERE project_id = $1 AND number = $2`,
		projectID, number))
}

func (r *repoPG) Occupy(ctx context.Context, projectID uuid.UUID, number int, caseID uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE kennels SET state = 'occupied', case_id = $3, updated_at = NOW()
		WHERE project_id = $1 AND number = $2 AND state = 'free'`,
		projectID, number, caseID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) Free(ctx context.Context, projectID, caseID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE kennels SET state = 'free', case_id = NULL, updated_at = NOW()
		WHERE project_id = $1 AND case_id = $2`,
		projectID, caseID)
	return err
}

func (r *repoPG) Counts(ctx context.Context, projectID uuid.UUID) (*Occupancy, error) {
	var o Occupancy
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE state = 'free'),
			COUNT(*) FILTER (WHERE state = 'occupied'),
			COUNT(*)
		FROM kennels WHERE project_id = $1`, projectID).
		Scan(&o.Free, &o.Occupied, &o.Total)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repoPG) OccupiedAbove(ctx context.Context, projectID uuid.UUID, n int) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM kennels
		WHERE project_id = $1 AND number > $2 AND state = 'occupied'`,
		projectID, n).Scan(&count)
	return count, err
}

func (r *repoPG) DeleteAbove(ctx context.Context, projectID uuid.UUID, n int) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM kennels WHERE project_id = $1 AND number > $2 AND state = 'free'`,
		projectID, n)
	return err
}
