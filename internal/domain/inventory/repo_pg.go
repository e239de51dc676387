package inventory

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

// medicineCols selects the medicine row together with its derived stock.
const medicineCols = `m.id, m.project_id, m.name, m.generic_name, m.unit, m.packing,
	m.pack_size, m.is_default, m.created_at, m.updated_at,
	COALESCE((SELECT SUM(l.delta) FROM inventory_ledger l WHERE l.item_id = m.id), 0) AS stock`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.ProjectID, &m.Name, &m.GenericName, &m.Unit, &m.Packing,
		&m.PackSize, &m.IsDefault, &m.CreatedAt, &m.UpdatedAt, &m.CurrentStock)
	if err != nil {
		return nil, err
	}
	if m.PackSize > 0 {
		m.Packs = m.CurrentStock / m.PackSize
	}
	return &m, nil
}

func (r *repoPG) CreateMedicine(ctx context.Context, m *Medicine) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medicines (id, project_id, name, generic_name, unit, packing, pack_size, is_default)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		m.ID, m.ProjectID, m.Name, m.GenericName, m.Unit, m.Packing, m.PackSize, m.IsDefault)
	return err
}

func (r *repoPG) UpdateMedicine(ctx context.Context, m *Medicine) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medicines SET name=$3, generic_name=$4, unit=$5, packing=$6, pack_size=$7, updated_at=NOW()
		WHERE project_id=$1 AND id=$2`,
		m.ProjectID, m.ID, m.Name, m.GenericName, m.Unit, m.Packing, m.PackSize)
	return err
}

func (r *repoPG) GetMedicine(ctx context.Context, projectID, id uuid.UUID) (*Medicine, error) {
	return scanMedicine(r.conn(ctx).QueryRow(ctx,
		`SELECT `+medicineCols+` FROM medicines m WHERE m.project_id=$1 AND m.id=$2`,
		projectID, id))
}

func (r *repoPG) GetMedicineByName(ctx context.Context, projectID uuid.UUID, name string) (*Medicine, error) {
	return scanMedicine(r.conn(ctx).QueryRow(ctx,
		`SELECT `+medicineCols+` FROM medicines m WHERE m.project_id=$1 AND m.name=$2`,
		projectID, name))
}

func (r *repoPG) ListMedicines(ctx context.Context, projectID uuid.UUID) ([]*Medicine, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+medicineCols+` FROM medicines m WHERE m.project_id=$1 ORDER BY m.name`,
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meds []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

const foodCols = `f.id, f.project_id, f.name, f.unit, f.created_at,
	COALESCE((SELECT SUM(l.delta) FROM inventory_ledger l WHERE l.item_id = f.id), 0) AS stock`

func scanFood(row pgx.Row) (*FoodItem, error) {
	var f FoodItem
	err := row.Scan(&f.ID, &f.ProjectID, &f.Name, &f.Unit, &f.CreatedAt, &f.CurrentStock)
	return &f, err
}

func (r *repoPG) CreateFoodItem(ctx context.Context, f *FoodItem) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO food_items (id, project_id, name, unit) VALUES ($1,$2,$3,$4)`,
		f.ID, f.ProjectID, f.Name, f.Unit)
	return err
}

func (r *repoPG) GetFoodItem(ctx context.Context, projectID, id uuid.UUID) (*FoodItem, error) {
	return scanFood(r.conn(ctx).QueryRow(ctx,
		`SELECT `+foodCols+` FROM food_items f WHERE f.project_id=$1 AND f.id=$2`,
		projectID, id))
}

func (r *repoPG) ListFoodItems(ctx context.Context, projectID uuid.UUID) ([]*FoodItem, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+foodCols+` FROM food_items f WHERE f.project_id=$1 ORDER BY f.name`,
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*FoodItem
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

func (r *repoPG) HasEntries(ctx context.Context, itemID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM inventory_ledger WHERE item_id = $1)`, itemID).Scan(&exists)
	return exists, err
}

const entryCols = `id, project_id, item_kind, item_id, delta, kind, reference, stage,
	batch_number, expiry, note, created_by, created_at`

func scanEntry(row pgx.Row) (*LedgerEntry, error) {
	var e LedgerEntry
	err := row.Scan(&e.ID, &e.ProjectID, &e.ItemKind, &e.ItemID, &e.Delta, &e.Kind,
		&e.Reference, &e.Stage, &e.BatchNumber, &e.Expiry, &e.Note, &e.CreatedBy, &e.CreatedAt)
	return &e, err
}

func (r *repoPG) AppendEntry(ctx context.Context, e *LedgerEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO inventory_ledger (id, project_id, item_kind, item_id, delta, kind,
			reference, stage, batch_number, expiry, note, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		e.ID, e.ProjectID, e.ItemKind, e.ItemID, e.Delta, e.Kind,
		e.Reference, e.Stage, e.BatchNumber, e.Expiry, e.Note, e.CreatedBy)
	return err
}

func (r *repoPG) CurrentStock(ctx context.Context, projectID, itemID uuid.UUID) (float64, error) {
	var stock float64
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(delta), 0) FROM inventory_ledger
		WHERE project_id = $1 AND item_id = $2`,
		projectID, itemID).Scan(&stock)
	return stock, err
}

// UsageTotals folds every positive delta (restocks and upward adjustments)
// into the restocked column so restocked - consumed equals the period's net
// movement.
func (r *repoPG) UsageTotals(ctx context.Context, projectID uuid.UUID, p Period) ([]*UsageRow, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT m.id, m.name, m.unit, m.pack_size,
			COALESCE(SUM(l.delta) FILTER (WHERE l.delta > 0
				AND l.created_at >= $2 AND l.created_at < $3), 0) AS restocked,
			COALESCE(-SUM(l.delta) FILTER (WHERE l.delta < 0
				AND l.created_at >= $2 AND l.created_at < $3), 0) AS consumed,
			COALESCE(SUM(l.delta), 0) AS stock
		FROM medicines m
		LEFT JOIN inventory_ledger l ON l.item_id = m.id
		WHERE m.project_id = $1
		GROUP BY m.id, m.name, m.unit, m.pack_size
		ORDER BY m.name`,
		projectID, p.From, p.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var report []*UsageRow
	for rows.Next() {
		var u UsageRow
		if err := rows.Scan(&u.ItemID, &u.Name, &u.Unit, &u.PackSize,
			&u.Restocked, &u.Consumed, &u.CurrentStock); err != nil {
			return nil, err
		}
		report = append(report, &u)
	}
	return report, rows.Err()
}

func (r *repoPG) History(ctx context.Context, projectID, itemID uuid.UUID, limit, offset int) ([]*LedgerEntry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM inventory_ledger WHERE project_id=$1 AND item_id=$2`,
		projectID, itemID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+entryCols+` FROM inventory_ledger
		WHERE project_id=$1 AND item_id=$2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		projectID, itemID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (r *repoPG) LowStock(ctx context.Context, projectID uuid.UUID, threshold float64) ([]*Medicine, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+medicineCols+` FROM medicines m
		WHERE m.project_id = $1
		AND COALESCE((SELECT SUM(l.delta) FROM inventory_ledger l WHERE l.item_id = m.id), 0) < $2
		ORDER BY m.name`,
		projectID, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meds []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

func (r *repoPG) EntriesForCase(ctx context.Context, caseID uuid.UUID) ([]*LedgerEntry, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+entryCols+` FROM inventory_ledger WHERE reference = $1 ORDER BY created_at`,
		caseID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
