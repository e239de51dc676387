package photostore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// photoTables are the tables whose photo_ids arrays can claim an upload.
var photoTables = []string{
	"case_catching",
	"case_surgery",
	"case_treatment",
	"case_release",
	"feeding_records",
}

// PGReferenceChecker answers reference checks against the stage tables.
type PGReferenceChecker struct {
	pool  *pgxpool.Pool
	query string
}

func NewPGReferenceChecker(pool *pgxpool.Pool) *PGReferenceChecker {
	clauses := make([]string, len(photoTables))
	for i, table := range photoTables {
		clauses[i] = fmt.Sprintf("SELECT 1 FROM %s WHERE $1 = ANY(photo_ids)", table)
	}
	return &PGReferenceChecker{
		pool:  pool,
		query: "SELECT EXISTS (" + strings.Join(clauses, " UNION ALL ") + ")",
	}
}

func (r *PGReferenceChecker) PhotoReferenced(ctx context.Context, id string) (bool, error) {
	var referenced bool
	if err := r.pool.QueryRow(ctx, r.query, id).Scan(&referenced); err != nil {
		return false, fmt.Errorf("check photo references: %w", err)
	}
	return referenced, nil
}
