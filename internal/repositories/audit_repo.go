package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/colabhq/workspace-core/internal/models"
)

// AuditFilter narrows a query. Nil/empty fields are unconstrained;
// set fields combine with AND.
type AuditFilter struct {
	UserID       *uuid.UUID
	Action       string
	ResourceType string
	Limit        int
}

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// Insert appends one audit entry. created_at is assigned by the store.
func (r *AuditRepo) Insert(ctx context.Context, entry models.AuditEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_entries (user_id, user_name, action, resource_type, resource_id, resource_name, metadata, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, entry.UserID, entry.UserName, entry.Action, entry.ResourceType, entry.ResourceID, entry.ResourceName, entry.Metadata, entry.IPAddress, entry.UserAgent)
	return err
}

// Query returns matching entries newest-first. The caller is expected
// to have clamped Limit already; a non-positive limit falls back to 50.
func (r *AuditRepo) Query(ctx context.Context, filter AuditFilter) ([]models.AuditEntry, error) {
	sql, args := buildAuditQuery(filter)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserName, &e.Action, &e.ResourceType,
			&e.ResourceID, &e.ResourceName, &e.Metadata, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func buildAuditQuery(filter AuditFilter) (string, []any) {
	var (
		where []string
		args  []any
	)

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		where = append(where, fmt.Sprintf("action = $%d", len(args)))
	}
	if filter.ResourceType != "" {
		args = append(args, filter.ResourceType)
		where = append(where, fmt.Sprintf("resource_type = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	sql := `
		SELECT id, user_id, user_name, action, resource_type, resource_id, resource_name, metadata, ip_address, user_agent, created_at
		FROM audit_entries`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	return sql, args
}
