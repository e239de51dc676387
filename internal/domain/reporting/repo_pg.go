package reporting

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

func (r *repoPG) MonthlyRows(ctx context.Context, projectID uuid.UUID, from, to time.Time) ([]*MonthlyRow, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT c.id, c.case_number, c.state, cc.caught_at, cc.address,
			o.gender, s.surgery_date, s.surgery_type, s.cancelled, rel.released_at
		FROM cases c
		JOIN case_catching cc ON cc.case_id = c.id
		LEFT JOIN case_observation o ON o.case_id = c.id
		LEFT JOIN case_surgery s ON s.case_id = c.id
		LEFT JOIN case_release rel ON rel.case_id = c.id
		WHERE c.project_id = $1 AND cc.caught_at >= $2 AND cc.caught_at < $3
		ORDER BY c.case_number`,
		projectID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*MonthlyRow
	for rows.Next() {
		var row MonthlyRow
		if err := rows.Scan(&row.CaseID, &row.CaseNumber, &row.State, &row.CaughtAt,
			&row.Address, &row.Gender, &row.SurgeryDate, &row.SurgeryType,
			&row.Cancelled, &row.ReleasedAt); err != nil {
			return nil, err
		}
		out = append(out, &row)
	}
	return out, rows.Err()
}

func (r *repoPG) Counts(ctx context.Context, projectID uuid.UUID, today time.Time) (*CaseCounts, error) {
	dayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var c CaseCounts
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE c.state NOT IN ('Released', 'Deceased', 'Surgery Cancelled')),
			(SELECT COUNT(*) FROM case_surgery s JOIN cases cs ON cs.id = s.case_id
				WHERE cs.project_id = $1 AND NOT s.cancelled),
			(SELECT COUNT(*) FROM case_catching cc JOIN cases cj ON cj.id = cc.case_id
				WHERE cj.project_id = $1 AND cc.caught_at >= $2 AND cc.caught_at < $3),
			(SELECT COUNT(*) FROM case_surgery s JOIN cases cs ON cs.id = s.case_id
				WHERE cs.project_id = $1 AND NOT s.cancelled
				AND s.surgery_date >= $2 AND s.surgery_date < $3)
		FROM cases c
		WHERE c.project_id = $1`,
		projectID, dayStart, dayEnd).
		Scan(&c.Total, &c.Active, &c.TotalSurgeries, &c.TodayCatchings, &c.TodaySurgeries)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
