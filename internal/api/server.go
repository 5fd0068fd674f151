// Package api provides the HTTP surface: the app shell, static assets,
// the JSON API, and the notification event stream.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pawkeep/pawkeep/internal/auth"
	"github.com/pawkeep/pawkeep/internal/conf"
	"github.com/pawkeep/pawkeep/internal/datastore/repository"
	"github.com/pawkeep/pawkeep/internal/logger"
	"github.com/pawkeep/pawkeep/internal/offline"
	"github.com/pawkeep/pawkeep/internal/outbox"
)

// Server hosts the PawKeep HTTP application.
type Server struct {
	echo         *echo.Echo
	settings     *conf.Settings
	staticServer *StaticFileServer
	log          logger.Logger

	auth      *auth.Manager
	pets      repository.PetRepository
	reminders repository.ReminderRepository
	flusher   *outbox.Flusher
	offline   offline.Handler
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithOfflineHandler exposes offline cache status and event endpoints.
func WithOfflineHandler(h offline.Handler) ServerOption {
	return func(s *Server) { s.offline = h }
}

// WithOutboxFlusher enables the queued-mutation endpoints.
func WithOutboxFlusher(f *outbox.Flusher) ServerOption {
	return func(s *Server) { s.flusher = f }
}

// NewServer builds the echo application with all routes registered.
func NewServer(
	settings *conf.Settings,
	authManager *auth.Manager,
	pets repository.PetRepository,
	reminders repository.ReminderRepository,
	log logger.Logger,
	opts ...ServerOption,
) *Server {
	s := &Server{
		echo:         echo.New(),
		settings:     settings,
		staticServer: NewStaticFileServer(),
		log:          log,
		auth:         authManager,
		pets:         pets,
		reminders:    reminders,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.echo.HideBanner = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.registerShellRoutes()
	s.registerPWARoutes()
	s.registerAssetRoutes()
	s.registerAPIRoutes()

	return s
}

// Echo exposes the underlying router, used by tests and the serve
// command.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start begins serving on the configured address.
func (s *Server) Start() error {
	s.log.Info("http server starting", logger.String("addr", s.settings.Server.Addr))
	err := s.echo.Start(s.settings.Server.Addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// registerShellRoutes serves the precached application shell pages.
// All shell pages are public, including the dashboard: the page itself
// holds no user data and must be installable into the precache by an
// unauthenticated fetch. Its data endpoints stay behind RequireAuth, so
// an anonymous visit renders an empty shell that bounces to login.
func (s *Server) registerShellRoutes() {
	s.echo.GET("/", func(c echo.Context) error {
		return s.staticServer.servePage(c, "index.html")
	})
	s.echo.GET("/auth/login", func(c echo.Context) error {
		return s.staticServer.servePage(c, "login.html")
	})
	s.echo.GET("/dashboard", func(c echo.Context) error {
		return s.staticServer.servePage(c, "dashboard.html")
	})
	s.echo.GET("/offline", func(c echo.Context) error {
		return s.staticServer.servePage(c, "offline.html")
	})
}

// registerAssetRoutes serves hashed bundles and fixed-name images.
func (s *Server) registerAssetRoutes() {
	s.echo.GET("/assets/:file", func(c echo.Context) error {
		return s.staticServer.serveFromEmbed(c, "assets/"+c.Param("file"))
	})
	s.echo.GET("/icon-192.png", func(c echo.Context) error {
		return s.staticServer.serveFromEmbed(c, "icon-192.png")
	})
	s.echo.GET("/badge-72.png", func(c echo.Context) error {
		return s.staticServer.serveFromEmbed(c, "badge-72.png")
	})
}

// registerAPIRoutes mounts the JSON API under /api/v1.
func (s *Server) registerAPIRoutes() {
	v1 := s.echo.Group("/api/v1")

	s.initAuthRoutes(v1)

	protected := v1.Group("", s.auth.RequireAuth)
	s.initPetRoutes(protected)
	s.initReminderRoutes(protected)
	s.initNotificationRoutes(protected)
	s.initOfflineRoutes(protected)
}

const shutdownTimeout = 10 * time.Second

// ShutdownTimeout is the grace period used by the serve command.
func ShutdownTimeout() time.Duration {
	return shutdownTimeout
}
