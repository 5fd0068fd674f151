package reminder

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/pawkeep/pawkeep/internal/datastore/entities"
	"github.com/pawkeep/pawkeep/internal/datastore/repository"
	"github.com/pawkeep/pawkeep/internal/logger"
)

func setupReminderDB(t *testing.T) (repository.PetRepository, repository.ReminderRepository) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=ON", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&entities.Pet{}, &entities.MedicationRecord{}, &entities.ReminderHistory{}))
	return repository.NewPetRepository(db), repository.NewReminderRepository(db)
}

func seedDueMedication(t *testing.T, pets repository.PetRepository, petName, medName string, dueAt time.Time) *entities.MedicationRecord {
	t.Helper()
	pet := &entities.Pet{OwnerID: 1, Name: petName, Species: "dog"}
	require.NoError(t, pets.CreatePet(t.Context(), pet))
	med := &entities.MedicationRecord{
		PetID:       pet.ID,
		Name:        medName,
		Dosage:      "1 chew",
		IntervalSec: 86400,
		NextDueAt:   dueAt,
		Active:      true,
	}
	require.NoError(t, pets.CreateMedication(t.Context(), med))
	return med
}

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
}

func TestCheckDueFiresAndRecordsHistory(t *testing.T) {
	t.Parallel()

	pets, history := setupReminderDB(t)
	now := time.Now()
	med := seedDueMedication(t, pets, "Max", "Heartgard", now.Add(-time.Minute))

	bus := NewEventBus()
	t.Cleanup(bus.Stop)
	events := make(chan *ReminderEvent, 1)
	bus.Subscribe(func(e *ReminderEvent) { events <- e })

	engine := NewEngine(pets, history, bus, testLogger())
	t.Cleanup(engine.Stop)

	fired, err := engine.CheckDue(t.Context(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	select {
	case event := <-events:
		assert.Equal(t, med.ID, event.MedicationID)
		assert.Equal(t, "Max", event.PetName)
		assert.Equal(t, "Heartgard", event.MedicationName)
	case <-time.After(time.Second):
		t.Fatal("no reminder event published")
	}

	items, total, err := history.ListHistory(t.Context(), repository.ReminderHistoryFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Give Max their Heartgard (1 chew)", items[0].Message)
	assert.Equal(t, ReminderTitle, items[0].Title)
}

func TestCheckDueHonorsCooldown(t *testing.T) {
	t.Parallel()

	pets, history := setupReminderDB(t)
	now := time.Now()
	seedDueMedication(t, pets, "Max", "Heartgard", now.Add(-time.Minute))

	engine := NewEngine(pets, history, nil, testLogger(), WithCooldown(time.Hour))
	t.Cleanup(engine.Stop)

	fired, err := engine.CheckDue(t.Context(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	// Still due, but inside the cooldown window.
	fired, err = engine.CheckDue(t.Context(), now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, fired)

	// Past the cooldown it fires again.
	fired, err = engine.CheckDue(t.Context(), now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
}

func TestCheckDueSkipsFutureAndInactive(t *testing.T) {
	t.Parallel()

	pets, history := setupReminderDB(t)
	now := time.Now()

	pet := &entities.Pet{OwnerID: 1, Name: "Luna", Species: "cat"}
	require.NoError(t, pets.CreatePet(t.Context(), pet))
	future := &entities.MedicationRecord{
		PetID: pet.ID, Name: "Apoquel", IntervalSec: 3600,
		NextDueAt: now.Add(time.Hour), Active: true,
	}
	inactive := &entities.MedicationRecord{
		PetID: pet.ID, Name: "Old med", IntervalSec: 3600,
		NextDueAt: now.Add(-time.Hour), Active: false,
	}
	require.NoError(t, pets.CreateMedication(t.Context(), future))
	require.NoError(t, pets.CreateMedication(t.Context(), inactive))

	engine := NewEngine(pets, history, nil, testLogger())
	t.Cleanup(engine.Stop)

	fired, err := engine.CheckDue(t.Context(), now)
	require.NoError(t, err)
	assert.Zero(t, fired)
}

func TestSchedulerFiresPeriodically(t *testing.T) {
	t.Parallel()

	pets, history := setupReminderDB(t)
	seedDueMedication(t, pets, "Max", "Heartgard", time.Now().Add(-time.Minute))

	bus := NewEventBus()
	t.Cleanup(bus.Stop)
	events := make(chan *ReminderEvent, 4)
	bus.Subscribe(func(e *ReminderEvent) { events <- e })

	engine := NewEngine(pets, history, bus, testLogger(),
		WithCheckInterval(20*time.Millisecond),
		WithCooldown(time.Hour))
	engine.Start(t.Context())
	t.Cleanup(engine.Stop)

	select {
	case <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler never fired")
	}
}
