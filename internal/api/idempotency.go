package api

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	gocache "github.com/patrickmn/go-cache"

	"github.com/pawkeep/pawkeep/internal/outbox"
)

const (
	idempotencyTTL     = 24 * time.Hour
	idempotencySweep   = time.Hour
	maxRecordedBodyLen = 64 << 10
)

// storedResponse is the replayed answer for a repeated idempotency key.
type storedResponse struct {
	status int
	header http.Header
	body   []byte
}

// idempotency deduplicates mutations replayed from offline queues. A
// request repeating a seen Idempotency-Key gets the recorded response
// instead of re-executing the mutation. Requests without the header
// pass through untouched.
func (s *Server) idempotency() echo.MiddlewareFunc {
	seen := gocache.New(idempotencyTTL, idempotencySweep)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(outbox.IdempotencyHeader)
			if key == "" {
				return next(c)
			}

			if cached, ok := seen.Get(key); ok {
				stored := cached.(*storedResponse)
				header := c.Response().Header()
				for name, values := range stored.header {
					for _, v := range values {
						header.Add(name, v)
					}
				}
				header.Set("X-Idempotent-Replay", "true")
				return c.Blob(stored.status, header.Get(echo.HeaderContentType), stored.body)
			}

			recorder := &responseRecorder{ResponseWriter: c.Response().Writer}
			c.Response().Writer = recorder

			if err := next(c); err != nil {
				return err
			}

			status := c.Response().Status
			// Only successful mutations are replayable. Failures may be
			// retried for real.
			if status >= 200 && status < 300 && recorder.body.Len() <= maxRecordedBodyLen {
				seen.Set(key, &storedResponse{
					status: status,
					header: c.Response().Header().Clone(),
					body:   bytes.Clone(recorder.body.Bytes()),
				}, gocache.DefaultExpiration)
			}
			return nil
		}
	}
}

// responseRecorder tees the response body while it streams out.
type responseRecorder struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
