package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vendora/vendora/application/port/outbound"
	"github.com/vendora/vendora/domain/entity"
)

const changeLogColumns = `id, product_id, action, changed_by, changed_at, changes`

// ChangeLogRepository stores change records. Rows are only ever inserted.
type ChangeLogRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewChangeLogRepository(db *sql.DB, dialect Dialect) *ChangeLogRepository {
	return &ChangeLogRepository{db: db, dialect: dialect}
}

var _ outbound.ChangeLogRepository = (*ChangeLogRepository)(nil)

func (r *ChangeLogRepository) Append(ctx context.Context, rec *entity.ChangeRecord) error {
	if rec == nil {
		return fmt.Errorf("change record cannot be nil")
	}
	if !rec.Action.Valid() {
		return fmt.Errorf("invalid change action %q", rec.Action)
	}

	changes, err := json.Marshal(rec.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal changes: %w", err)
	}

	query := r.dialect.Rebind(`
		INSERT INTO product_change_logs (` + changeLogColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err = conn(ctx, r.db).ExecContext(ctx, query,
		rec.ID,
		rec.ProductID,
		string(rec.Action),
		nullString(rec.ChangedBy),
		rec.ChangedAt.UTC(),
		string(changes),
	)
	if err != nil {
		return fmt.Errorf("failed to append change record: %w", err)
	}
	return nil
}

func (r *ChangeLogRepository) List(ctx context.Context, filter entity.ChangeLogFilter) ([]*entity.ChangeRecord, error) {
	where, args := buildChangeLogWhere(filter)

	query := `SELECT ` + changeLogColumns + ` FROM product_change_logs` + where +
		` ORDER BY changed_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list change records: %w", err)
	}
	defer rows.Close()

	records := make([]*entity.ChangeRecord, 0)
	for rows.Next() {
		var (
			rec       entity.ChangeRecord
			action    string
			changedBy sql.NullString
			changes   []byte
		)
		if err := rows.Scan(&rec.ID, &rec.ProductID, &action, &changedBy, &rec.ChangedAt, &changes); err != nil {
			return nil, fmt.Errorf("failed to scan change record: %w", err)
		}
		if err := json.Unmarshal(changes, &rec.Changes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal changes of %s: %w", rec.ID, err)
		}
		rec.Action = entity.ChangeAction(action)
		rec.ChangedBy = stringPtr(changedBy)
		rec.ChangedAt = rec.ChangedAt.UTC()
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate change records: %w", err)
	}
	return records, nil
}

func (r *ChangeLogRepository) Count(ctx context.Context, filter entity.ChangeLogFilter) (int, error) {
	where, args := buildChangeLogWhere(filter)

	var total int
	err := conn(ctx, r.db).QueryRowContext(ctx, r.dialect.Rebind(`SELECT COUNT(*) FROM product_change_logs`+where), args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count change records: %w", err)
	}
	return total, nil
}

func buildChangeLogWhere(f entity.ChangeLogFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if f.ProductID != "" {
		conds = append(conds, `product_id = ?`)
		args = append(args, f.ProductID)
	}
	if f.Action != "" {
		conds = append(conds, `action = ?`)
		args = append(args, string(f.Action))
	}
	if f.ChangedBy != "" {
		conds = append(conds, `changed_by = ?`)
		args = append(args, f.ChangedBy)
	}
	if f.From != nil {
		conds = append(conds, `changed_at >= ?`)
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		conds = append(conds, `changed_at <= ?`)
		args = append(args, f.To.UTC())
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
