package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pawkeep/pawkeep/internal/datastore/entities"
)

// ErrPetNotFound is returned when a pet lookup finds no row.
var ErrPetNotFound = errors.New("pet not found")

// ErrMedicationNotFound is returned when a medication lookup finds no row.
var ErrMedicationNotFound = errors.New("medication record not found")

// petRepository implements PetRepository.
type petRepository struct {
	db *gorm.DB
}

// NewPetRepository creates a new PetRepository.
func NewPetRepository(db *gorm.DB) PetRepository {
	return &petRepository{db: db}
}

// ListPets returns all pets owned by the given user.
func (r *petRepository) ListPets(ctx context.Context, ownerID uint) ([]entities.Pet, error) {
	var pets []entities.Pet
	query := r.db.WithContext(ctx)
	if ownerID > 0 {
		query = query.Where("owner_id = ?", ownerID)
	}
	if err := query.Order("id ASC").Find(&pets).Error; err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	return pets, nil
}

// GetPet returns a pet with its medications and health records preloaded.
// Returns ErrPetNotFound if the pet does not exist.
func (r *petRepository) GetPet(ctx context.Context, id uint) (*entities.Pet, error) {
	var pet entities.Pet
	if err := r.db.WithContext(ctx).Preload("Medications").Preload("HealthRecords").First(&pet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPetNotFound
		}
		return nil, fmt.Errorf("failed to get pet %d: %w", id, err)
	}
	return &pet, nil
}

// CreatePet creates a pet profile.
func (r *petRepository) CreatePet(ctx context.Context, pet *entities.Pet) error {
	if err := r.db.WithContext(ctx).Create(pet).Error; err != nil {
		return fmt.Errorf("failed to create pet: %w", err)
	}
	return nil
}

// UpdatePet saves changes to an existing pet.
func (r *petRepository) UpdatePet(ctx context.Context, pet *entities.Pet) error {
	if pet.ID == 0 {
		return fmt.Errorf("failed to update pet: missing pet ID")
	}
	if err := r.db.WithContext(ctx).Save(pet).Error; err != nil {
		return fmt.Errorf("failed to update pet %d: %w", pet.ID, err)
	}
	return nil
}

// DeletePet deletes a pet and its records via cascade.
func (r *petRepository) DeletePet(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Pet{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete pet %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPetNotFound
	}
	return nil
}

// ListMedications returns all medication records for a pet.
func (r *petRepository) ListMedications(ctx context.Context, petID uint) ([]entities.MedicationRecord, error) {
	var meds []entities.MedicationRecord
	if err := r.db.WithContext(ctx).Where("pet_id = ?", petID).Order("id ASC").Find(&meds).Error; err != nil {
		return nil, fmt.Errorf("failed to list medications for pet %d: %w", petID, err)
	}
	return meds, nil
}

// CreateMedication creates a medication record.
func (r *petRepository) CreateMedication(ctx context.Context, med *entities.MedicationRecord) error {
	if err := r.db.WithContext(ctx).Create(med).Error; err != nil {
		return fmt.Errorf("failed to create medication record: %w", err)
	}
	return nil
}

// UpdateMedication saves changes to an existing medication record.
func (r *petRepository) UpdateMedication(ctx context.Context, med *entities.MedicationRecord) error {
	if med.ID == 0 {
		return fmt.Errorf("failed to update medication record: missing ID")
	}
	if err := r.db.WithContext(ctx).Save(med).Error; err != nil {
		return fmt.Errorf("failed to update medication record %d: %w", med.ID, err)
	}
	return nil
}

// DueMedications returns active medications due at or before the given time.
func (r *petRepository) DueMedications(ctx context.Context, before time.Time) ([]entities.MedicationRecord, error) {
	var meds []entities.MedicationRecord
	err := r.db.WithContext(ctx).
		Preload("Pet").
		Where("active = ? AND next_due_at <= ?", true, before).
		Order("next_due_at ASC").
		Find(&meds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due medications: %w", err)
	}
	return meds, nil
}

// MarkAdministered advances NextDueAt by the medication's interval.
// Scoped to the owning pet so a medication ID from another pet's record
// cannot be advanced through it.
func (r *petRepository) MarkAdministered(ctx context.Context, petID, medID uint, administeredAt time.Time) error {
	var med entities.MedicationRecord
	err := r.db.WithContext(ctx).
		Where("id = ? AND pet_id = ?", medID, petID).
		First(&med).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMedicationNotFound
		}
		return fmt.Errorf("failed to get medication record %d: %w", medID, err)
	}
	next := administeredAt.Add(time.Duration(med.IntervalSec) * time.Second)
	result := r.db.WithContext(ctx).Model(&med).Update("next_due_at", next)
	if result.Error != nil {
		return fmt.Errorf("failed to mark medication %d administered: %w", medID, result.Error)
	}
	return nil
}

// SaveHealthRecord saves a health record.
func (r *petRepository) SaveHealthRecord(ctx context.Context, rec *entities.HealthRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to save health record: %w", err)
	}
	return nil
}

// ListHealthRecords returns health records for a pet, newest first.
func (r *petRepository) ListHealthRecords(ctx context.Context, petID uint, filter HealthRecordFilter) ([]entities.HealthRecord, error) {
	var recs []entities.HealthRecord
	query := r.db.WithContext(ctx).Where("pet_id = ?", petID).Order("recorded_at DESC")
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if err := query.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list health records for pet %d: %w", petID, err)
	}
	return recs, nil
}
