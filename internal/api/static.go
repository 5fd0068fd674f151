package api

import (
	"io/fs"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pawkeep/pawkeep/frontend"
)

// hashedAssetPattern matches build-hashed bundle names like
// assets/app-3f2a1b8c.js. Hashed assets are immutable by construction.
var hashedAssetPattern = regexp.MustCompile(`^assets/[a-zA-Z0-9_]+-[a-f0-9]{8}\.(js|css|woff2?)$`)

const (
	cacheImmutable  = "public, max-age=31536000, immutable"
	cacheRevalidate = "no-cache, must-revalidate"
)

// StaticFileServer serves the embedded frontend build.
type StaticFileServer struct{}

// NewStaticFileServer creates a static file server over frontend.DistFS.
func NewStaticFileServer() *StaticFileServer {
	return &StaticFileServer{}
}

// isHashedAsset reports whether the path names a content-hashed bundle
// that may be cached forever.
func isHashedAsset(p string) bool {
	if p != path.Clean(p) {
		return false
	}
	return hashedAssetPattern.MatchString(p)
}

// serveFromEmbed writes an embedded file with cache headers chosen by
// whether its name is content hashed.
func (sfs *StaticFileServer) serveFromEmbed(c echo.Context, filePath string) error {
	data, err := fs.ReadFile(frontend.DistFS, filePath)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	}

	header := c.Response().Header()
	if header.Get("Cache-Control") == "" {
		if isHashedAsset(filePath) {
			header.Set("Cache-Control", cacheImmutable)
		} else {
			header.Set("Cache-Control", cacheRevalidate)
		}
	}
	return c.Blob(http.StatusOK, contentTypeFor(filePath), data)
}

// servePage serves an HTML shell page from the embedded pages directory.
func (sfs *StaticFileServer) servePage(c echo.Context, name string) error {
	return sfs.serveFromEmbed(c, "pages/"+name)
}

func contentTypeFor(filePath string) string {
	switch strings.ToLower(path.Ext(filePath)) {
	case ".html":
		return echo.MIMETextHTMLCharsetUTF8
	case ".js":
		return "text/javascript; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".webmanifest":
		return "application/manifest+json"
	case ".json":
		return echo.MIMEApplicationJSON
	case ".png":
		return "image/png"
	case ".woff2":
		return "font/woff2"
	default:
		return echo.MIMEOctetStream
	}
}
