package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/pawkeep/pawkeep/internal/datastore/entities"
)

// setupTestDB creates an isolated in-memory SQLite database. The name is
// derived from the test so parallel tests never share state; a single
// connection keeps every operation on the same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=ON", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	require.NoError(t, err, "failed to open in-memory database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "failed to get sql.DB")
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&entities.User{},
		&entities.Pet{},
		&entities.MedicationRecord{},
		&entities.HealthRecord{},
		&entities.OutboxOperation{},
		&entities.ReminderHistory{},
	), "failed to migrate tables")
	return db
}

func createTestPet(t *testing.T, repo PetRepository, name string) *entities.Pet {
	t.Helper()
	pet := &entities.Pet{
		OwnerID: 1,
		Name:    name,
		Species: "dog",
		Breed:   "labrador",
	}
	require.NoError(t, repo.CreatePet(t.Context(), pet))
	require.NotZero(t, pet.ID)
	return pet
}

func TestPetCRUD(t *testing.T) {
	t.Parallel()

	repo := NewPetRepository(setupTestDB(t))
	pet := createTestPet(t, repo, "Max")

	got, err := repo.GetPet(t.Context(), pet.ID)
	require.NoError(t, err)
	assert.Equal(t, "Max", got.Name)
	assert.Equal(t, "dog", got.Species)

	got.Breed = "golden retriever"
	require.NoError(t, repo.UpdatePet(t.Context(), got))

	updated, err := repo.GetPet(t.Context(), pet.ID)
	require.NoError(t, err)
	assert.Equal(t, "golden retriever", updated.Breed)

	require.NoError(t, repo.DeletePet(t.Context(), pet.ID))
	_, err = repo.GetPet(t.Context(), pet.ID)
	assert.ErrorIs(t, err, ErrPetNotFound)
}

func TestListPetsFiltersByOwner(t *testing.T) {
	t.Parallel()

	repo := NewPetRepository(setupTestDB(t))
	createTestPet(t, repo, "Max")
	other := &entities.Pet{OwnerID: 2, Name: "Luna", Species: "cat"}
	require.NoError(t, repo.CreatePet(t.Context(), other))

	pets, err := repo.ListPets(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, pets, 1)
	assert.Equal(t, "Max", pets[0].Name)
}

func TestDueMedications(t *testing.T) {
	t.Parallel()

	repo := NewPetRepository(setupTestDB(t))
	pet := createTestPet(t, repo, "Max")

	now := time.Now()
	due := &entities.MedicationRecord{
		PetID:       pet.ID,
		Name:        "Heartgard",
		Dosage:      "1 chew",
		IntervalSec: 86400,
		NextDueAt:   now.Add(-time.Hour),
		Active:      true,
	}
	notYet := &entities.MedicationRecord{
		PetID:       pet.ID,
		Name:        "Apoquel",
		IntervalSec: 43200,
		NextDueAt:   now.Add(2 * time.Hour),
		Active:      true,
	}
	inactive := &entities.MedicationRecord{
		PetID:       pet.ID,
		Name:        "Old med",
		IntervalSec: 86400,
		NextDueAt:   now.Add(-time.Hour),
		Active:      false,
	}
	for _, med := range []*entities.MedicationRecord{due, notYet, inactive} {
		require.NoError(t, repo.CreateMedication(t.Context(), med))
	}

	got, err := repo.DueMedications(t.Context(), now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Heartgard", got[0].Name)
	require.NotNil(t, got[0].Pet, "pet must be preloaded for reminder rendering")
	assert.Equal(t, "Max", got[0].Pet.Name)
}

func TestMarkAdministeredAdvancesDueTime(t *testing.T) {
	t.Parallel()

	repo := NewPetRepository(setupTestDB(t))
	pet := createTestPet(t, repo, "Max")

	administeredAt := time.Now().Truncate(time.Second)
	med := &entities.MedicationRecord{
		PetID:       pet.ID,
		Name:        "Heartgard",
		IntervalSec: 3600,
		NextDueAt:   administeredAt.Add(-time.Minute),
		Active:      true,
	}
	require.NoError(t, repo.CreateMedication(t.Context(), med))
	require.NoError(t, repo.MarkAdministered(t.Context(), pet.ID, med.ID, administeredAt))

	meds, err := repo.ListMedications(t.Context(), pet.ID)
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.WithinDuration(t, administeredAt.Add(time.Hour), meds[0].NextDueAt, time.Second)

	assert.ErrorIs(t, repo.MarkAdministered(t.Context(), pet.ID, 9999, administeredAt), ErrMedicationNotFound)
}

func TestMarkAdministeredScopedToPet(t *testing.T) {
	t.Parallel()

	repo := NewPetRepository(setupTestDB(t))
	mine := createTestPet(t, repo, "Max")
	other := createTestPet(t, repo, "Bella")

	due := time.Now().Add(time.Minute).Truncate(time.Second)
	med := &entities.MedicationRecord{
		PetID:       other.ID,
		Name:        "Insulin",
		IntervalSec: 43200,
		NextDueAt:   due,
		Active:      true,
	}
	require.NoError(t, repo.CreateMedication(t.Context(), med))

	err := repo.MarkAdministered(t.Context(), mine.ID, med.ID, time.Now())
	assert.ErrorIs(t, err, ErrMedicationNotFound)

	meds, err := repo.ListMedications(t.Context(), other.ID)
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.True(t, meds[0].NextDueAt.Equal(due), "due time must not move")
}

func TestHealthRecords(t *testing.T) {
	t.Parallel()

	repo := NewPetRepository(setupTestDB(t))
	pet := createTestPet(t, repo, "Max")

	base := time.Now().Add(-time.Hour)
	for i := range 3 {
		rec := &entities.HealthRecord{
			PetID:      pet.ID,
			Kind:       "weight",
			Value:      fmt.Sprintf("%d kg", 30+i),
			RecordedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.SaveHealthRecord(t.Context(), rec))
	}
	vet := &entities.HealthRecord{PetID: pet.ID, Kind: "vet-visit", RecordedAt: base}
	require.NoError(t, repo.SaveHealthRecord(t.Context(), vet))

	weights, err := repo.ListHealthRecords(t.Context(), pet.ID, HealthRecordFilter{Kind: "weight"})
	require.NoError(t, err)
	require.Len(t, weights, 3)
	assert.Equal(t, "32 kg", weights[0].Value, "newest first")

	limited, err := repo.ListHealthRecords(t.Context(), pet.ID, HealthRecordFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
