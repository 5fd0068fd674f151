package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pawkeep/pawkeep/internal/auth"
	"github.com/pawkeep/pawkeep/internal/datastore/entities"
	"github.com/pawkeep/pawkeep/internal/datastore/repository"
	"github.com/pawkeep/pawkeep/internal/logger"
)

const maxHistoryLimit = 200

// initPetRoutes registers pet, medication, and health record endpoints.
func (s *Server) initPetRoutes(g *echo.Group) {
	pets := g.Group("/pets")

	pets.GET("", s.ListPets)
	pets.POST("", s.CreatePet, s.idempotency())
	pets.GET("/:id", s.GetPet)
	pets.PUT("/:id", s.UpdatePet, s.idempotency())
	pets.DELETE("/:id", s.DeletePet, s.idempotency())

	pets.GET("/:id/medications", s.ListMedications)
	pets.POST("/:id/medications", s.CreateMedication, s.idempotency())
	pets.POST("/:id/medications/:medID/administered", s.MarkAdministered, s.idempotency())

	pets.GET("/:id/health", s.ListHealthRecords)
	pets.POST("/:id/health", s.SaveHealthRecord, s.idempotency())
}

// ListPets returns the authenticated user's pets.
func (s *Server) ListPets(ctx echo.Context) error {
	user := auth.UserFromContext(ctx)
	pets, err := s.pets.ListPets(ctx.Request().Context(), user.ID)
	if err != nil {
		s.log.Error("failed to list pets", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list pets")
	}
	return ctx.JSON(http.StatusOK, pets)
}

// CreatePet creates a pet profile for the authenticated user.
func (s *Server) CreatePet(ctx echo.Context) error {
	var pet entities.Pet
	if err := ctx.Bind(&pet); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if pet.Name == "" || pet.Species == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Name and species are required"})
	}
	pet.ID = 0
	pet.OwnerID = auth.UserFromContext(ctx).ID

	if err := s.pets.CreatePet(ctx.Request().Context(), &pet); err != nil {
		s.log.Error("failed to create pet", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create pet")
	}
	s.log.Info("pet created",
		logger.Uint64("id", uint64(pet.ID)),
		logger.String("name", pet.Name))
	return ctx.JSON(http.StatusCreated, pet)
}

// GetPet returns one pet with medications and health records.
func (s *Server) GetPet(ctx echo.Context) error {
	pet, err := s.ownedPet(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pet)
}

// UpdatePet replaces pet profile fields. Updates race offline replays;
// the stored row wins and stale replays get a conflict.
func (s *Server) UpdatePet(ctx echo.Context) error {
	pet, err := s.ownedPet(ctx)
	if err != nil {
		return err
	}

	var in entities.Pet
	if err := ctx.Bind(&in); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if in.Name != "" {
		pet.Name = in.Name
	}
	if in.Species != "" {
		pet.Species = in.Species
	}
	pet.Breed = in.Breed
	pet.BirthDate = in.BirthDate

	if !in.UpdatedAt.IsZero() && in.UpdatedAt.Before(pet.UpdatedAt) {
		return ctx.JSON(http.StatusConflict, map[string]string{"error": "Pet was modified by another device"})
	}

	if err := s.pets.UpdatePet(ctx.Request().Context(), pet); err != nil {
		s.log.Error("failed to update pet", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update pet")
	}
	return ctx.JSON(http.StatusOK, pet)
}

// DeletePet removes a pet and its records.
func (s *Server) DeletePet(ctx echo.Context) error {
	pet, err := s.ownedPet(ctx)
	if err != nil {
		return err
	}
	if err := s.pets.DeletePet(ctx.Request().Context(), pet.ID); err != nil {
		if errors.Is(err, repository.ErrPetNotFound) {
			return ctx.JSON(http.StatusGone, map[string]string{"error": "Pet already deleted"})
		}
		s.log.Error("failed to delete pet", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete pet")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ListMedications returns a pet's medication records.
func (s *Server) ListMedications(ctx echo.Context) error {
	pet, err := s.ownedPet(ctx)
	if err != nil {
		return err
	}
	meds, err := s.pets.ListMedications(ctx.Request().Context(), pet.ID)
	if err != nil {
		s.log.Error("failed to list medications", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list medications")
	}
	return ctx.JSON(http.StatusOK, meds)
}

// CreateMedication adds a recurring medication record to a pet.
func (s *Server) CreateMedication(ctx echo.Context) error {
	pet, err := s.ownedPet(ctx)
	if err != nil {
		return err
	}

	var med entities.MedicationRecord
	if err := ctx.Bind(&med); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if med.Name == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Medication name is required"})
	}
	if med.IntervalSec <= 0 {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Interval must be positive"})
	}
	med.ID = 0
	med.PetID = pet.ID
	med.Active = true
	if med.NextDueAt.IsZero() {
		med.NextDueAt = time.Now().Add(time.Duration(med.IntervalSec) * time.Second)
	}

	if err := s.pets.CreateMedication(ctx.Request().Context(), &med); err != nil {
		s.log.Error("failed to create medication", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create medication")
	}
	return ctx.JSON(http.StatusCreated, med)
}

// MarkAdministered records that a dose was given, advancing the next
// due time.
func (s *Server) MarkAdministered(ctx echo.Context) error {
	pet, err := s.ownedPet(ctx)
	if err != nil {
		return err
	}
	medID, err := parseUintParam(ctx, "medID")
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid medication ID"})
	}

	if err := s.pets.MarkAdministered(ctx.Request().Context(), pet.ID, medID, time.Now()); err != nil {
		if errors.Is(err, repository.ErrMedicationNotFound) {
			return ctx.JSON(http.StatusGone, map[string]string{"error": "Medication no longer exists"})
		}
		s.log.Error("failed to mark medication administered", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to record administration")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ListHealthRecords returns a pet's health records, newest first.
func (s *Server) ListHealthRecords(ctx echo.Context) error {
	pet, err := s.ownedPet(ctx)
	if err != nil {
		return err
	}

	filter := repository.HealthRecordFilter{Kind: ctx.QueryParam("kind")}
	if limitParam := ctx.QueryParam("limit"); limitParam != "" {
		limit, convErr := strconv.Atoi(limitParam)
		if convErr != nil || limit < 0 {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid limit"})
		}
		filter.Limit = min(limit, maxHistoryLimit)
	}

	recs, err := s.pets.ListHealthRecords(ctx.Request().Context(), pet.ID, filter)
	if err != nil {
		s.log.Error("failed to list health records", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list health records")
	}
	return ctx.JSON(http.StatusOK, recs)
}

// SaveHealthRecord appends a dated health observation.
func (s *Server) SaveHealthRecord(ctx echo.Context) error {
	pet, err := s.ownedPet(ctx)
	if err != nil {
		return err
	}

	var rec entities.HealthRecord
	if err := ctx.Bind(&rec); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if rec.Kind == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Record kind is required"})
	}
	rec.ID = 0
	rec.PetID = pet.ID
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}

	if err := s.pets.SaveHealthRecord(ctx.Request().Context(), &rec); err != nil {
		s.log.Error("failed to save health record", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save health record")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

// ownedPet loads the pet in the :id param and verifies the
// authenticated user owns it.
func (s *Server) ownedPet(ctx echo.Context) (*entities.Pet, error) {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid pet ID")
	}
	pet, err := s.pets.GetPet(ctx.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPetNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "pet not found")
		}
		s.log.Error("failed to get pet", logger.Error(err))
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to get pet")
	}
	// Ownership failures surface as not-found.
	if user := auth.UserFromContext(ctx); user == nil || pet.OwnerID != user.ID {
		return nil, echo.NewHTTPError(http.StatusNotFound, "pet not found")
	}
	return pet, nil
}

func parseUintParam(ctx echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
