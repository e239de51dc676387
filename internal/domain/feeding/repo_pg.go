package feeding

import (
	"context"
	"time"

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

const feedingCols = `id, project_id, feed_date, meal, kennels_fed, kennels_not_fed, food_consumed, photo_ids, created_by, created_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.ProjectID, &rec.FeedDate, &rec.Meal, &rec.KennelsFed,
		&rec.KennelsNotFed, &rec.FoodConsumed, &rec.PhotoIDs, &rec.CreatedBy, &rec.CreatedAt)
	return &rec, err
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO feeding_records (id, project_id, feed_date, meal, kennels_fed, kennels_not_fed, food_consumed, photo_ids, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rec.ID, rec.ProjectID, rec.FeedDate, rec.Meal, rec.KennelsFed,
		rec.KennelsNotFed, rec.FoodConsumed, rec.PhotoIDs, rec.CreatedBy)
	return err
}

func (r *repoPG) ListByDate(ctx context.Context, projectID uuid.UUID, day time.Time) ([]*Record, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+feedingCols+` FROM feeding_records
		WHERE project_id=$1 AND feed_date=$2
		ORDER BY meal DESC, created_at`,
		projectID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repoPG) Exists(ctx context.Context, projectID uuid.UUID, day time.Time, meal string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM feeding_records
			WHERE project_id=$1 AND feed_date=$2 AND meal=$3
		)`, projectID, day, meal).Scan(&exists)
	return exists, err
}
