package repository

import (
	"context"

	"github.com/pawkeep/pawkeep/internal/datastore/entities"
)

// OutboxRepository persists queued offline mutations.
type OutboxRepository interface {
	Enqueue(ctx context.Context, op *entities.OutboxOperation) error
	// ListPending returns pending operations oldest first, up to limit
	// (0 means no limit).
	ListPending(ctx context.Context, limit int) ([]entities.OutboxOperation, error)
	// Acknowledge removes an operation after the backend confirmed it.
	Acknowledge(ctx context.Context, id uint) error
	// RecordFailure increments the retry counter and stores the error.
	RecordFailure(ctx context.Context, id uint, cause string) error
	// MarkFailed takes an operation out of the pending set permanently.
	MarkFailed(ctx context.Context, id uint, cause string) error
	CountPending(ctx context.Context) (int64, error)
}
