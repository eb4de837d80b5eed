package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/esportshub/esports-hub/models"
)

var ErrAuditEntryNotFound = errors.New("audit entry not found")

// AuditRepository — append-only: записи создаются и читаются, но никогда
// не изменяются и не удаляются.
type AuditRepository interface {
	Create(ctx context.Context, exec SQLExecutor, entry *models.AuditLog) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error)
	ListAll(ctx context.Context) ([]models.AuditLog, error)
}

type postgresAuditRepository struct {
	db *sql.DB
}

func NewPostgresAuditRepository(db *sql.DB) AuditRepository {
	return &postgresAuditRepository{db: db}
}

func (r *postgresAuditRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresAuditRepository) Create(ctx context.Context, exec SQLExecutor, entry *models.AuditLog) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO audit_logs (user_id, action, target_type, target_id, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	details := entry.Details
	if len(details) == 0 {
		details = []byte("{}")
	}

	err := executor.QueryRowContext(ctx, query,
		entry.UserID,
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		details,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}
	return nil
}

// List возвращает страницу записей в обратном хронологическом порядке
// вместе с общим количеством.
func (r *postgresAuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	query := `
		SELECT id, user_id, action, target_type, target_id, details, created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	entries, err := r.list(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListAll отдаёт весь журнал в прямом хронологическом порядке для экспорта.
func (r *postgresAuditRepository) ListAll(ctx context.Context) ([]models.AuditLog, error) {
	query := `
		SELECT id, user_id, action, target_type, target_id, details, created_at
		FROM audit_logs
		ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query)
}

func (r *postgresAuditRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.AuditLog, 0)
	for rows.Next() {
		var e models.AuditLog
		if scanErr := rows.Scan(
			&e.ID, &e.UserID, &e.Action, &e.TargetType, &e.TargetID, &e.Details, &e.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", scanErr)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}
	return entries, nil
}
