package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pawkeep/pawkeep/internal/datastore/entities"
)

// ErrOperationNotFound is returned when an outbox lookup finds no row.
var ErrOperationNotFound = errors.New("outbox operation not found")

// outboxRepository implements OutboxRepository.
type outboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

// Enqueue persists a queued operation.
func (r *outboxRepository) Enqueue(ctx context.Context, op *entities.OutboxOperation) error {
	if op.Status == "" {
		op.Status = entities.OutboxStatusPending
	}
	if err := r.db.WithContext(ctx).Create(op).Error; err != nil {
		return fmt.Errorf("failed to enqueue outbox operation: %w", err)
	}
	return nil
}

// ListPending returns pending operations oldest first.
func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]entities.OutboxOperation, error) {
	var ops []entities.OutboxOperation
	query := r.db.WithContext(ctx).
		Where("status = ?", entities.OutboxStatusPending).
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&ops).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending outbox operations: %w", err)
	}
	return ops, nil
}

// Acknowledge deletes an acknowledged operation.
func (r *outboxRepository) Acknowledge(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.OutboxOperation{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to acknowledge outbox operation %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOperationNotFound
	}
	return nil
}

// RecordFailure increments the retry counter and stores the cause.
func (r *outboxRepository) RecordFailure(ctx context.Context, id uint, cause string) error {
	result := r.db.WithContext(ctx).Model(&entities.OutboxOperation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"retries":    gorm.Expr("retries + 1"),
			"last_error": truncateCause(cause),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to record outbox failure for %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOperationNotFound
	}
	return nil
}

// MarkFailed permanently removes an operation from the pending set.
func (r *outboxRepository) MarkFailed(ctx context.Context, id uint, cause string) error {
	result := r.db.WithContext(ctx).Model(&entities.OutboxOperation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     entities.OutboxStatusFailed,
			"last_error": truncateCause(cause),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark outbox operation %d failed: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOperationNotFound
	}
	return nil
}

// CountPending returns the number of pending operations.
func (r *outboxRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.OutboxOperation{}).
		Where("status = ?", entities.OutboxStatusPending).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending outbox operations: %w", err)
	}
	return count, nil
}

// truncateCause keeps stored error strings inside the column size.
func truncateCause(cause string) string {
	const max = 500
	if len(cause) > max {
		return cause[:max]
	}
	return cause
}
