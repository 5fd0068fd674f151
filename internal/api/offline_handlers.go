package api

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pawkeep/pawkeep/internal/logger"
	"github.com/pawkeep/pawkeep/internal/offline"
)

// syncRequest names the background sync tag to fire.
type syncRequest struct {
	Tag string `json:"tag"`
}

// clickRequest describes a notification activation.
type clickRequest struct {
	NotificationID string `json:"notification_id"`
	URL            string `json:"url"`
}

// initOfflineRoutes registers offline cache control endpoints. These
// bridge host events (sync, push, notification click) into the cache
// manager and expose its status.
func (s *Server) initOfflineRoutes(g *echo.Group) {
	if s.offline == nil {
		return
	}
	o := g.Group("/offline")
	o.GET("/status", s.OfflineStatus)
	o.POST("/sync", s.TriggerSync)
	o.POST("/push", s.DeliverPush)
	o.POST("/notification-click", s.NotificationClick)
	if s.flusher != nil {
		o.GET("/outbox", s.OutboxStatus)
		o.POST("/outbox/flush", s.FlushOutbox)
	}
}

// OutboxStatus reports the number of queued offline mutations.
func (s *Server) OutboxStatus(ctx echo.Context) error {
	pending, err := s.flusher.Pending(ctx.Request().Context())
	if err != nil {
		s.log.Error("outbox count failed", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "outbox unavailable")
	}
	return ctx.JSON(http.StatusOK, map[string]any{"pending": pending})
}

// FlushOutbox replays queued mutations immediately instead of waiting
// for the next sync event.
func (s *Server) FlushOutbox(ctx echo.Context) error {
	if err := s.flusher.Flush(ctx.Request().Context()); err != nil {
		s.log.Error("outbox flush failed", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "flush failed")
	}
	return ctx.NoContent(http.StatusAccepted)
}

// OfflineStatus reports the cache manager lifecycle state and stores.
func (s *Server) OfflineStatus(ctx echo.Context) error {
	m, ok := s.offline.(*offline.Manager)
	if !ok {
		return ctx.JSON(http.StatusOK, map[string]any{"available": true})
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"installed": m.Installed(),
		"active":    m.Active(),
		"stores":    m.Stores().Names(),
	})
}

// TriggerSync fires a background sync event by tag.
func (s *Server) TriggerSync(ctx echo.Context) error {
	var req syncRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := s.offline.HandleSync(ctx.Request().Context(), req.Tag); err != nil {
		s.log.Error("sync failed", logger.String("tag", req.Tag), logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "sync failed")
	}
	return ctx.NoContent(http.StatusAccepted)
}

// DeliverPush hands a raw push payload to the cache manager.
func (s *Server) DeliverPush(ctx echo.Context) error {
	payload, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Unreadable payload"})
	}
	if err := s.offline.HandlePush(ctx.Request().Context(), payload); err != nil {
		s.log.Error("push delivery failed", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "push delivery failed")
	}
	return ctx.NoContent(http.StatusAccepted)
}

// NotificationClick dismisses a displayed notification and opens its
// target.
func (s *Server) NotificationClick(ctx echo.Context) error {
	var req clickRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	click := offline.Click{NotificationID: req.NotificationID, URL: req.URL}
	if err := s.offline.HandleNotificationClick(ctx.Request().Context(), click); err != nil {
		s.log.Error("notification click failed", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "notification click failed")
	}
	return ctx.NoContent(http.StatusNoContent)
}
