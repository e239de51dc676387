// Package audit persists the mutation trail produced by the audit
// middleware. Writes are best-effort with a short deadline so a slow insert
// never delays a field device.
package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abctrack/abctrack/internal/platform/middleware"
)

type Recorder struct {
	pool *pgxpool.Pool
}

func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

func (r *Recorder) Record(entry middleware.AuditEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (user_id, user_role, project_id, resource, action, method, path, status_code, ip_address, request_id, created_at)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.UserID, entry.UserRole, entry.ProjectID, entry.Resource, entry.Action,
		entry.Method, entry.Path, entry.StatusCode, entry.IPAddress, entry.RequestID,
		entry.Timestamp,
	)
	return err
}
