package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pawkeep/pawkeep/internal/datastore/entities"
)

// ReminderRepository persists fired reminder history.
type ReminderRepository interface {
	SaveHistory(ctx context.Context, history *entities.ReminderHistory) error
	ListHistory(ctx context.Context, filter ReminderHistoryFilter) ([]entities.ReminderHistory, int64, error)
	DeleteHistoryBefore(ctx context.Context, before time.Time) (int64, error)
}

// ReminderHistoryFilter controls history listing queries.
type ReminderHistoryFilter struct {
	MedicationID uint
	Limit        int
	Offset       int
}

// reminderRepository implements ReminderRepository.
type reminderRepository struct {
	db *gorm.DB
}

// NewReminderRepository creates a new ReminderRepository.
func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

// SaveHistory saves a fired reminder entry.
func (r *reminderRepository) SaveHistory(ctx context.Context, history *entities.ReminderHistory) error {
	if err := r.db.WithContext(ctx).Create(history).Error; err != nil {
		return fmt.Errorf("failed to save reminder history: %w", err)
	}
	return nil
}

// ListHistory returns reminder history entries newest first, with the
// total count for pagination.
func (r *reminderRepository) ListHistory(ctx context.Context, filter ReminderHistoryFilter) ([]entities.ReminderHistory, int64, error) {
	var items []entities.ReminderHistory
	var total int64

	countQuery := r.db.WithContext(ctx).Model(&entities.ReminderHistory{})
	if filter.MedicationID > 0 {
		countQuery = countQuery.Where("medication_id = ?", filter.MedicationID)
	}
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reminder history: %w", err)
	}

	query := r.db.WithContext(ctx).Order("fired_at DESC")
	if filter.MedicationID > 0 {
		query = query.Where("medication_id = ?", filter.MedicationID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reminder history: %w", err)
	}
	return items, total, nil
}

// DeleteHistoryBefore deletes reminder history older than the given time.
func (r *reminderRepository) DeleteHistoryBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("fired_at < ?", before).Delete(&entities.ReminderHistory{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete reminder history before %v: %w", before, result.Error)
	}
	return result.RowsAffected, nil
}
