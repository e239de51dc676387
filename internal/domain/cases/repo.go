package cases

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Case) error
	// Get loads the case with all its stage records.
	Get(ctx context.Context, projectID, id uuid.UUID) (*Case, error)
	GetByNumber(ctx context.Context, projectID uuid.UUID, number string) (*Case, error)
	// GetForUpdate locks the case row for the duration of the enclosing
	// transaction, serializing concurrent stage actions on the same case.
	GetForUpdate(ctx context.Context, projectID, id uuid.UUID) (*Case, error)
	UpdateState(ctx context.Context, id uuid.UUID, state string, currentKennel *int) error
	List(ctx context.Context, projectID uuid.UUID, f ListFilter, limit, offset int) ([]*Case, int, error)
	// ListByCatchDate returns cases caught on the given day, ordered by
	// case number.
	ListByCatchDate(ctx context.Context, projectID uuid.UUID, day time.Time) ([]*Case, error)
	CaseNumberExists(ctx context.Context, number string) (bool, error)

	// Counter operations for the identifier allocator. NextSerial
	// atomically increments and returns the (project, year, month)
	// counter; AdvanceSerial raises it to at least serial.
	NextSerial(ctx context.Context, projectID uuid.UUID, year int, month time.Month) (int, error)
	AdvanceSerial(ctx context.Context, projectID uuid.UUID, year int, month time.Month, serial int) error

	// ProjectCodes resolves the org and project codes the case number is
	// built from.
	ProjectCodes(ctx context.Context, projectID uuid.UUID) (orgCode, projectCode string, err error)

	InsertCatching(ctx context.Context, r *CatchingRecord) error
	UpdateCatching(ctx context.Context, r *CatchingRecord) error
	InsertObservation(ctx context.Context, r *ObservationRecord) error
	UpdateObservation(ctx context.Context, r *ObservationRecord) error
	InsertSurgery(ctx context.Context, r *SurgeryRecord) error
	UpdateSurgery(ctx context.Context, r *SurgeryRecord) error
	InsertTreatment(ctx context.Context, r *TreatmentRecord) error
	InsertRelease(ctx context.Context, r *ReleaseRecord) error
	UpdateRelease(ctx context.Context, r *ReleaseRecord) error
	InsertDeceased(ctx context.Context, r *DeceasedRecord) error
}
