// Package audit emits structured facts about state changes. Delivery is
// fire-and-forget from the caller's perspective; a failed write is logged
// and never propagated.
package audit

import (
	"context"
	"log/slog"

	"room-reservation/internal/storage"
)

// Emitter records an audit fact. userID is nil for system-initiated
// actions such as autocancel.
type Emitter interface {
	Emit(ctx context.Context, description string, userID *int64)
}

// StoreSink persists audit events into the audit log table.
type StoreSink struct {
	store  storage.AuditStore
	logger *slog.Logger
}

func NewStoreSink(store storage.AuditStore) *StoreSink {
	return &StoreSink{
		store:  store,
		logger: slog.With("component", "audit"),
	}
}

func (s *StoreSink) Emit(ctx context.Context, description string, userID *int64) {
	event := &storage.AuditEvent{
		Description: description,
		UserID:      userID,
	}
	if err := s.store.AppendAuditEvent(ctx, event); err != nil {
		s.logger.Error("Failed to append audit event", "error", err, "description", description)
	}
}

// Discard drops events. Used where no audit trail is wanted, e.g. tests.
type Discard struct{}

func (Discard) Emit(ctx context.Context, description string, userID *int64) {}
