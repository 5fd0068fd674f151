package repository

import (
	"context"
	"time"

	"github.com/pawkeep/pawkeep/internal/datastore/entities"
)

// PetRepository handles pet, medication, and health record operations.
type PetRepository interface {
	// Pets
	ListPets(ctx context.Context, ownerID uint) ([]entities.Pet, error)
	GetPet(ctx context.Context, id uint) (*entities.Pet, error)
	CreatePet(ctx context.Context, pet *entities.Pet) error
	UpdatePet(ctx context.Context, pet *entities.Pet) error
	DeletePet(ctx context.Context, id uint) error

	// Medications
	ListMedications(ctx context.Context, petID uint) ([]entities.MedicationRecord, error)
	CreateMedication(ctx context.Context, med *entities.MedicationRecord) error
	UpdateMedication(ctx context.Context, med *entities.MedicationRecord) error
	// DueMedications returns active medications due at or before the
	// given time, with their pet preloaded.
	DueMedications(ctx context.Context, before time.Time) ([]entities.MedicationRecord, error)
	// MarkAdministered advances a medication's next due time by its
	// interval, anchored at the administration time. The medication must
	// belong to petID; a mismatch reports ErrMedicationNotFound.
	MarkAdministered(ctx context.Context, petID, medID uint, administeredAt time.Time) error

	// Health records
	SaveHealthRecord(ctx context.Context, rec *entities.HealthRecord) error
	ListHealthRecords(ctx context.Context, petID uint, filter HealthRecordFilter) ([]entities.HealthRecord, error)
}

// HealthRecordFilter controls health record listing queries.
type HealthRecordFilter struct {
	Kind   string
	Limit  int
	Offset int
}
