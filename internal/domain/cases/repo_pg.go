package cases

import (
	"context"
	"errors"
	"fmt"
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

const caseCols = `id, project_id, case_number, state, current_kennel, created_at, updated_at`

func scanCase(row pgx.Row) (*Case, error) {
	var c Case
	err := row.Scan(&c.ID, &c.ProjectID, &c.CaseNumber, &c.State, &c.CurrentKennel,
		&c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Case) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO cases (id, project_id, case_number, state, current_kennel)
		VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.ProjectID, c.CaseNumber, c.State, c.CurrentKennel)
	return err
}

func (r *repoPG) Get(ctx context.Context, projectID, id uuid.UUID) (*Case, error) {
	c, err := scanCase(r.conn(ctx).QueryRow(ctx,
		`SELECT `+caseCols+` FROM cases WHERE project_id=$1 AND id=$2`, projectID, id))
	if err != nil {
		return nil, err
	}
	return c, r.loadStages(ctx, c)
}

func (r *repoPG) GetByNumber(ctx context.Context, projectID uuid.UUID, number string) (*Case, error) {
	c, err := scanCase(r.conn(ctx).QueryRow(ctx,
		`SELECT `+caseCols+` FROM cases WHERE project_id=$1 AND case_number=$2`, projectID, number))
	if err != nil {
		return nil, err
	}
	return c, r.loadStages(ctx, c)
}

func (r *repoPG) GetForUpdate(ctx context.Context, projectID, id uuid.UUID) (*Case, error) {
	c, err := scanCase(r.conn(ctx).QueryRow(ctx,
		`SELECT `+caseCols+` FROM cases WHERE project_id=$1 AND id=$2 FOR UPDATE`, projectID, id))
	if err != nil {
		return nil, err
	}
	return c, r.loadStages(ctx, c)
}

func (r *repoPG) loadStages(ctx context.Context, c *Case) error {
	conn := r.conn(ctx)

	var catching CatchingRecord
	err := conn.QueryRow(ctx, `
		SELECT case_id, caught_at, latitude, longitude, address, ward, photo_ids, remarks, created_by, updated_at
		FROM case_catching WHERE case_id=$1`, c.ID).
		Scan(&catching.CaseID, &catching.CaughtAt, &catching.Latitude, &catching.Longitude,
			&catching.Address, &catching.Ward, &catching.PhotoIDs, &catching.Remarks,
			&catching.CreatedBy, &catching.UpdatedAt)
	if err == nil {
		c.Catching = &catching
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	var obs ObservationRecord
	err = conn.QueryRow(ctx, `
		SELECT case_id, kennel_number, gender, age, colors, body_condition, temperament,
			has_injuries, injury_description, photo_id, observed_at, created_by, updated_at
		FROM case_observation WHERE case_id=$1`, c.ID).
		Scan(&obs.CaseID, &obs.KennelNumber, &obs.Gender, &obs.Age, &obs.Colors,
			&obs.BodyCondition, &obs.Temperament, &obs.HasInjuries, &obs.InjuryDescription,
			&obs.PhotoID, &obs.ObservedAt, &obs.CreatedBy, &obs.UpdatedAt)
	if err == nil {
		c.Observation = &obs
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	var surgery SurgeryRecord
	err = conn.QueryRow(ctx, `
		SELECT case_id, surgery_date, weight, skin_condition, cancelled, cancellation_reason,
			surgery_type, medicines, photo_ids, remarks, created_by, updated_at
		FROM case_surgery WHERE case_id=$1`, c.ID).
		Scan(&surgery.CaseID, &surgery.SurgeryDate, &surgery.Weight, &surgery.SkinCondition,
			&surgery.Cancelled, &surgery.CancellationReason, &surgery.SurgeryType,
			&surgery.Medicines, &surgery.PhotoIDs, &surgery.Remarks, &surgery.CreatedBy, &surgery.UpdatedAt)
	if err == nil {
		c.Surgery = &surgery
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	rows, err := conn.Query(ctx, `
		SELECT id, case_id, treatment_date, day_post_surgery, medicines, wound_condition,
			food_intake, water_intake, remarks, photo_ids, created_by, created_at
		FROM case_treatment WHERE case_id=$1 ORDER BY created_at`, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var tr TreatmentRecord
		if err := rows.Scan(&tr.ID, &tr.CaseID, &tr.TreatmentDate, &tr.DayPostSurgery,
			&tr.Medicines, &tr.WoundCondition, &tr.FoodIntake, &tr.WaterIntake,
			&tr.Remarks, &tr.PhotoIDs, &tr.CreatedBy, &tr.CreatedAt); err != nil {
			return err
		}
		c.Treatments = append(c.Treatments, &tr)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var release ReleaseRecord
	err = conn.QueryRow(ctx, `
		SELECT case_id, released_at, latitude, longitude, address, photo_ids, created_by, updated_at
		FROM case_release WHERE case_id=$1`, c.ID).
		Scan(&release.CaseID, &release.ReleasedAt, &release.Latitude, &release.Longitude,
			&release.Address, &release.PhotoIDs, &release.CreatedBy, &release.UpdatedAt)
	if err == nil {
		c.Release = &release
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	var deceased DeceasedRecord
	err = conn.QueryRow(ctx, `
		SELECT case_id, died_at, cause, remarks, created_by
		FROM case_deceased WHERE case_id=$1`, c.ID).
		Scan(&deceased.CaseID, &deceased.DiedAt, &deceased.Cause, &deceased.Remarks, &deceased.CreatedBy)
	if err == nil {
		c.Deceased = &deceased
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	return nil
}

func (r *repoPG) UpdateState(ctx context.Context, id uuid.UUID, state string, currentKennel *int) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE cases SET state=$2, current_kennel=$3, updated_at=NOW() WHERE id=$1`,
		id, state, currentKennel)
	return err
}

func (r *repoPG) List(ctx context.Context, projectID uuid.UUID, f ListFilter, limit, offset int) ([]*Case, int, error) {
	where := `WHERE project_id = $1`
	args := []interface{}{projectID}

	if f.State != "" {
		args = append(args, f.State)
		where += fmt.Sprintf(` AND state = $%d`, len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where += fmt.Sprintf(` AND created_at < $%d`, len(args))
	}
	if f.NumberContains != "" {
		args = append(args, "%"+f.NumberContains+"%")
		where += fmt.Sprintf(` AND case_number ILIKE $%d`, len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM cases `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := `SELECT ` + caseCols + ` FROM cases ` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repoPG) ListByCatchDate(ctx context.Context, projectID uuid.UUID, day time.Time) ([]*Case, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT c.id, c.project_id, c.case_number, c.state, c.current_kennel, c.created_at, c.updated_at
		FROM cases c
		JOIN case_catching cc ON cc.case_id = c.id
		WHERE c.project_id = $1 AND cc.caught_at >= $2 AND cc.caught_at < $3
		ORDER BY c.case_number`,
		projectID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, c := range out {
		if err := r.loadStages(ctx, c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *repoPG) CaseNumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM cases WHERE case_number = $1)`, number).Scan(&exists)
	return exists, err
}

func (r *repoPG) NextSerial(ctx context.Context, projectID uuid.UUID, year int, month time.Month) (int, error) {
	var serial int
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO case_counters (project_id, year, month, last_serial)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (project_id, year, month)
		DO UPDATE SET last_serial = case_counters.last_serial + 1
		RETURNING last_serial`,
		projectID, year, int(month)).Scan(&serial)
	return serial, err
}

func (r *repoPG) AdvanceSerial(ctx context.Context, projectID uuid.UUID, year int, month time.Month, serial int) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO case_counters (project_id, year, month, last_serial)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, year, month)
		DO UPDATE SET last_serial = GREATEST(case_counters.last_serial, $4)`,
		projectID, year, int(month), serial)
	return err
}

func (r *repoPG) ProjectCodes(ctx context.Context, projectID uuid.UUID) (string, string, error) {
	var org, code string
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT org_code, code FROM projects WHERE id = $1`, projectID).Scan(&org, &code)
	return org, code, err
}

func (r *repoPG) InsertCatching(ctx context.Context, rec *CatchingRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO case_catching (case_id, caught_at, latitude, longitude, address, ward, photo_ids, remarks, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rec.CaseID, rec.CaughtAt, rec.Latitude, rec.Longitude, rec.Address, rec.Ward,
		rec.PhotoIDs, rec.Remarks, rec.CreatedBy)
	return err
}

func (r *repoPG) UpdateCatching(ctx context.Context, rec *CatchingRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE case_catching SET caught_at=$2, latitude=$3, longitude=$4, address=$5,
			ward=$6, photo_ids=$7, remarks=$8, updated_at=NOW()
		WHERE case_id=$1`,
		rec.CaseID, rec.CaughtAt, rec.Latitude, rec.Longitude, rec.Address,
		rec.Ward, rec.PhotoIDs, rec.Remarks)
	return err
}

func (r *repoPG) InsertObservation(ctx context.Context, rec *ObservationRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO case_observation (case_id, kennel_number, gender, age, colors, body_condition,
			temperament, has_injuries, injury_description, photo_id, observed_at, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		rec.CaseID, rec.KennelNumber, rec.Gender, rec.Age, rec.Colors, rec.BodyCondition,
		rec.Temperament, rec.HasInjuries, rec.InjuryDescription, rec.PhotoID,
		rec.ObservedAt, rec.CreatedBy)
	return err
}

func (r *repoPG) UpdateObservation(ctx context.Context, rec *ObservationRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE case_observation SET gender=$2, age=$3, colors=$4, body_condition=$5,
			temperament=$6, has_injuries=$7, injury_description=$8, photo_id=$9, updated_at=NOW()
		WHERE case_id=$1`,
		rec.CaseID, rec.Gender, rec.Age, rec.Colors, rec.BodyCondition,
		rec.Temperament, rec.HasInjuries, rec.InjuryDescription, rec.PhotoID)
	return err
}

func (r *repoPG) InsertSurgery(ctx context.Context, rec *SurgeryRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO case_surgery (case_id, surgery_date, weight, skin_condition, cancelled,
			cancellation_reason, surgery_type, medicines, photo_ids, remarks, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		rec.CaseID, rec.SurgeryDate, rec.Weight, rec.SkinCondition, rec.Cancelled,
		rec.CancellationReason, rec.SurgeryType, rec.Medicines, rec.PhotoIDs,
		rec.Remarks, rec.CreatedBy)
	return err
}

func (r *repoPG) UpdateSurgery(ctx context.Context, rec *SurgeryRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE case_surgery SET surgery_date=$2, weight=$3, skin_condition=$4,
			photo_ids=$5, remarks=$6, updated_at=NOW()
		WHERE case_id=$1`,
		rec.CaseID, rec.SurgeryDate, rec.Weight, rec.SkinCondition, rec.PhotoIDs, rec.Remarks)
	return err
}

func (r *repoPG) InsertTreatment(ctx context.Context, rec *TreatmentRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO case_treatment (id, case_id, treatment_date, day_post_surgery, medicines,
			wound_condition, food_intake, water_intake, remarks, photo_ids, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		rec.ID, rec.CaseID, rec.TreatmentDate, rec.DayPostSurgery, rec.Medicines,
		rec.WoundCondition, rec.FoodIntake, rec.WaterIntake, rec.Remarks,
		rec.PhotoIDs, rec.CreatedBy)
	return err
}

func (r *repoPG) InsertRelease(ctx context.Context, rec *ReleaseRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO case_release (case_id, released_at, latitude, longitude, address, photo_ids, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rec.CaseID, rec.ReleasedAt, rec.Latitude, rec.Longitude, rec.Address,
		rec.PhotoIDs, rec.CreatedBy)
	return err
}

func (r *repoPG) UpdateRelease(ctx context.Context, rec *ReleaseRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE case_release SET released_at=$2, latitude=$3, longitude=$4, address=$5,
			photo_ids=$6, updated_at=NOW()
		WHERE case_id=$1`,
		rec.CaseID, rec.ReleasedAt, rec.Latitude, rec.Longitude, rec.Address, rec.PhotoIDs)
	return err
}

func (r *repoPG) InsertDeceased(ctx context.Context, rec *DeceasedRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO case_deceased (case_id, died_at, cause, remarks, created_by)
		VALUES ($1,$2,$3,$4,$5)`,
		rec.CaseID, rec.DiedAt, rec.Cause, rec.Remarks, rec.CreatedBy)
	return err
}
