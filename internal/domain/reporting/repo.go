package reporting

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CaseCounts aggregates case totals for the dashboard.
type CaseCounts struct {
	Total          int
	Active         int
	TotalSurgeries int
	TodayCatchings int
	TodaySurgeries int
}

type Repository interface {
	// MonthlyRows returns the log lines for cases caught in [from, to),
	// ordered by case number.
	MonthlyRows(ctx context.Context, projectID uuid.UUID, from, to time.Time) ([]*MonthlyRow, error)
	Counts(ctx context.Context, projectID uuid.UUID, today time.Time) (*CaseCounts, error)
}
