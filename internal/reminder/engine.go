package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/pawkeep/pawkeep/internal/datastore/entities"
	"github.com/pawkeep/pawkeep/internal/datastore/repository"
	"github.com/pawkeep/pawkeep/internal/logger"
)

const (
	// saveHistoryTimeout is the context deadline for persisting fired
	// reminders.
	saveHistoryTimeout = 3 * time.Second
	// cleanupTimeout is the context deadline for the periodic history
	// deletion.
	cleanupTimeout = 5 * time.Second
	// cleanupInterval is how often the history cleanup goroutine runs.
	cleanupInterval = 1 * time.Hour

	defaultCheckInterval = time.Minute
	defaultCooldown      = time.Hour
)

// Engine periodically scans for due medications and publishes a
// reminder event per medication, with an in-memory cooldown so a
// medication that stays due does not fire on every scan.
type Engine struct {
	pets    repository.PetRepository
	history repository.ReminderRepository
	bus     *EventBus
	log     logger.Logger

	checkInterval time.Duration
	cooldown      time.Duration

	// Cooldown tracking (in-memory, resets on restart)
	cooldowns   map[uint]time.Time // medication ID → last fired time
	cooldownsMu sync.RWMutex

	mu          sync.Mutex
	schedStop   chan struct{}
	cleanupStop chan struct{}
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithCheckInterval sets how often the due scan runs.
func WithCheckInterval(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.checkInterval = d
		}
	}
}

// WithCooldown sets the minimum interval between reminders for the
// same medication.
func WithCooldown(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.cooldown = d
		}
	}
}

// NewEngine creates a reminder engine publishing to the given bus.
func NewEngine(pets repository.PetRepository, history repository.ReminderRepository, bus *EventBus, log logger.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		pets:          pets,
		history:       history,
		bus:           bus,
		log:           log,
		checkInterval: defaultCheckInterval,
		cooldown:      defaultCooldown,
		cooldowns:     make(map[uint]time.Time),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckDue scans for medications due at the given time and fires a
// reminder for each one not in cooldown. Returns how many fired.
func (e *Engine) CheckDue(ctx context.Context, now time.Time) (int, error) {
	meds, err := e.pets.DueMedications(ctx, now)
	if err != nil {
		return 0, err
	}

	fired := 0
	for i := range meds {
		med := &meds[i]
		if e.isInCooldown(med.ID, now) {
			continue
		}
		e.fireReminder(med, now)
		fired++
	}
	return fired, nil
}

func (e *Engine) isInCooldown(medicationID uint, now time.Time) bool {
	if e.cooldown <= 0 {
		return false
	}
	e.cooldownsMu.RLock()
	lastFired, exists := e.cooldowns[medicationID]
	e.cooldownsMu.RUnlock()
	if !exists {
		return false
	}
	return now.Sub(lastFired) < e.cooldown
}

func (e *Engine) fireReminder(med *entities.MedicationRecord, now time.Time) {
	e.cooldownsMu.Lock()
	e.cooldowns[med.ID] = now
	e.cooldownsMu.Unlock()

	petName := ""
	var petID uint
	if med.Pet != nil {
		petName = med.Pet.Name
		petID = med.Pet.ID
	}

	event := &ReminderEvent{
		MedicationID:   med.ID,
		PetID:          petID,
		PetName:        petName,
		MedicationName: med.Name,
		Dosage:         med.Dosage,
		DueAt:          med.NextDueAt,
		Timestamp:      now,
	}

	history := &entities.ReminderHistory{
		MedicationID: med.ID,
		PetName:      petName,
		Title:        ReminderTitle,
		Message:      RenderMessage(event),
		FiredAt:      now,
	}
	saveCtx, saveCancel := context.WithTimeout(context.Background(), saveHistoryTimeout)
	defer saveCancel()
	if err := e.history.SaveHistory(saveCtx, history); err != nil {
		e.log.Error("failed to save reminder history",
			logger.Uint64("medication_id", uint64(med.ID)),
			logger.Error(err))
	}

	e.log.Info("medication reminder fired",
		logger.Uint64("medication_id", uint64(med.ID)),
		logger.String("pet", petName),
		logger.String("medication", med.Name))

	if e.bus != nil {
		e.bus.Publish(event)
	}
}

// Start runs the periodic due scan until Stop or context cancellation.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.schedStop != nil {
		e.mu.Unlock()
		return
	}
	e.schedStop = make(chan struct{})
	stopCh := e.schedStop
	e.mu.Unlock()

	go func() {
		ticker := time.NewTicker(e.checkInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := e.CheckDue(ctx, time.Now()); err != nil {
					e.log.Error("due medication scan failed", logger.Error(err))
				}
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// StartHistoryCleanup starts a background goroutine that periodically
// deletes reminder history older than retentionDays. A value of 0
// disables cleanup.
func (e *Engine) StartHistoryCleanup(retentionDays int) {
	if retentionDays <= 0 {
		return
	}
	e.stopCleanup()
	e.mu.Lock()
	e.cleanupStop = make(chan struct{})
	stopCh := e.cleanupStop
	e.mu.Unlock()
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cutoff := time.Now().AddDate(0, 0, -retentionDays)
				cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), cleanupTimeout)
				deleted, err := e.history.DeleteHistoryBefore(cleanupCtx, cutoff)
				cleanupCancel()
				if err != nil {
					e.log.Error("reminder history cleanup failed", logger.Error(err))
				} else if deleted > 0 {
					e.log.Info("reminder history cleanup completed",
						logger.Int64("deleted", deleted),
						logger.Int("retention_days", retentionDays))
				}
			case <-stopCh:
				return
			}
		}
	}()
}

// stopCleanup signals the cleanup goroutine to exit. Uses mu to make
// the nil-check-then-close atomic, preventing double-close panics.
func (e *Engine) stopCleanup() {
	e.mu.Lock()
	ch := e.cleanupStop
	e.cleanupStop = nil
	e.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

func (e *Engine) stopScheduler() {
	e.mu.Lock()
	ch := e.schedStop
	e.schedStop = nil
	e.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

// Stop shuts down the scheduler and history cleanup goroutines.
func (e *Engine) Stop() {
	e.stopScheduler()
	e.stopCleanup()
}
