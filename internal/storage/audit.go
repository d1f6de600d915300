package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func (q *queries) AppendAuditEvent(ctx context.Context, event *AuditEvent) error {
	res, err := q.ext.ExecContext(ctx,
		"INSERT INTO audit_log (description, user_id) VALUES (?, ?)",
		event.Description, event.UserID)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	event.ID, err = res.LastInsertId()
	return err
}

func (q *queries) ListAuditEvents(ctx context.Context, limit int) ([]AuditEvent, error) {
	var out []AuditEvent
	err := sqlx.SelectContext(ctx, q.ext, &out,
		"SELECT * FROM audit_log ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return out, nil
}
