package api

import (
	"github.com/labstack/echo/v4"
)

// registerPWARoutes registers routes for PWA support files.
// The manifest must be served from a root path so the installable app
// scope covers the entire application.
func (s *Server) registerPWARoutes() {
	s.echo.GET("/manifest.webmanifest", func(c echo.Context) error {
		return s.staticServer.handlePWAFile(c, "manifest.webmanifest")
	})
}

// handlePWAFile serves a PWA file from the embedded build. PWA files
// have fixed (non-hashed) names, so the cache header is set before
// serveFromEmbed to override the immutable caching applied to hashed
// bundles.
func (sfs *StaticFileServer) handlePWAFile(c echo.Context, filename string) error {
	c.Response().Header().Set("Cache-Control", "no-cache")
	return sfs.serveFromEmbed(c, filename)
}
