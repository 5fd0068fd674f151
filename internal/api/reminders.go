package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/pawkeep/pawkeep/internal/datastore/repository"
	"github.com/pawkeep/pawkeep/internal/logger"
)

// initReminderRoutes registers reminder history endpoints.
func (s *Server) initReminderRoutes(g *echo.Group) {
	r := g.Group("/reminders")
	r.GET("/history", s.ListReminderHistory)
}

// ListReminderHistory returns fired reminders, newest first.
func (s *Server) ListReminderHistory(ctx echo.Context) error {
	filter := repository.ReminderHistoryFilter{Limit: 50}
	if limitParam := ctx.QueryParam("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil || limit < 0 {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid limit"})
		}
		filter.Limit = min(limit, maxHistoryLimit)
	}
	if medParam := ctx.QueryParam("medication_id"); medParam != "" {
		medID, err := strconv.ParseUint(medParam, 10, 32)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid medication ID"})
		}
		filter.MedicationID = uint(medID)
	}

	items, total, err := s.reminders.ListHistory(ctx.Request().Context(), filter)
	if err != nil {
		s.log.Error("failed to list reminder history", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list reminder history")
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"items": items,
		"total": total,
	})
}
