package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pawkeep/pawkeep/internal/logger"
	"github.com/pawkeep/pawkeep/internal/notification"
)

const (
	heartbeatInterval = 30 * time.Second
	// maxSSEConnectionDuration bounds a single stream; clients reconnect.
	maxSSEConnectionDuration = 30 * time.Minute
)

// initNotificationRoutes registers notification endpoints.
func (s *Server) initNotificationRoutes(g *echo.Group) {
	n := g.Group("/notifications")
	n.GET("", s.ListNotifications)
	n.GET("/stream", s.StreamNotifications)
	n.POST("/:id/read", s.MarkNotificationRead)
	n.DELETE("/:id", s.DeleteNotification)
}

// ListNotifications returns stored notifications, optionally filtered
// by status and type.
func (s *Server) ListNotifications(ctx echo.Context) error {
	if !notification.IsInitialized() {
		return ctx.JSON(http.StatusOK, []any{})
	}
	service := notification.GetService()

	filter := &notification.FilterOptions{}
	if statusParam := ctx.QueryParam("status"); statusParam != "" {
		filter.Status = []notification.Status{notification.Status(statusParam)}
	}
	if typeParam := ctx.QueryParam("type"); typeParam != "" {
		filter.Types = []notification.Type{notification.Type(typeParam)}
	}

	items, err := service.List(filter)
	if err != nil {
		s.log.Error("failed to list notifications", logger.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list notifications")
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"notifications": items,
		"unread":        service.UnreadCount(),
	})
}

// MarkNotificationRead marks one notification as read.
func (s *Server) MarkNotificationRead(ctx echo.Context) error {
	if !notification.IsInitialized() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "notifications not available")
	}
	if err := notification.GetService().MarkAsRead(ctx.Param("id")); err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Notification not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to mark notification read")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// DeleteNotification removes one notification.
func (s *Server) DeleteNotification(ctx echo.Context) error {
	if !notification.IsInitialized() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "notifications not available")
	}
	if err := notification.GetService().Delete(ctx.Param("id")); err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Notification not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete notification")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// StreamNotifications delivers notifications over SSE as they are
// created.
func (s *Server) StreamNotifications(ctx echo.Context) error {
	if !notification.IsInitialized() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "notifications not available")
	}
	service := notification.GetService()

	setSSEHeaders(ctx)
	clientID := uuid.New().String()
	subscriberCh, subCtx := service.Subscribe()
	defer service.Unsubscribe(subscriberCh)

	if err := sendSSEMessage(ctx, "connected", fmt.Sprintf(`{"clientId":%q}`, clientID)); err != nil {
		return err
	}
	s.log.Debug("notification stream connected", logger.String("client_id", clientID))

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	connectionStart := time.Now()

	for {
		select {
		case notif, ok := <-subscriberCh:
			if !ok {
				return nil
			}
			data, err := json.Marshal(notif)
			if err != nil {
				s.log.Error("failed to marshal notification", logger.Error(err))
				continue
			}
			if err := sendSSEMessage(ctx, "notification", string(data)); err != nil {
				return err
			}
		case <-ticker.C:
			if time.Since(connectionStart) > maxSSEConnectionDuration {
				return nil
			}
			if err := sendSSEMessage(ctx, "heartbeat", `{}`); err != nil {
				return err
			}
		case <-ctx.Request().Context().Done():
			s.log.Debug("notification stream disconnected", logger.String("client_id", clientID))
			return nil
		case <-subCtx.Done():
			return nil
		}
	}
}

func setSSEHeaders(ctx echo.Context) {
	h := ctx.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
}

func sendSSEMessage(ctx echo.Context, event, data string) error {
	if _, err := fmt.Fprintf(ctx.Response(), "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	ctx.Response().Flush()
	return nil
}
