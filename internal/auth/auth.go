// Package auth provides cookie session authentication backed by the
// user repository.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/pawkeep/pawkeep/internal/conf"
	"github.com/pawkeep/pawkeep/internal/datastore/entities"
	"github.com/pawkeep/pawkeep/internal/datastore/repository"
	"github.com/pawkeep/pawkeep/internal/errors"
	"github.com/pawkeep/pawkeep/internal/logger"
)

const (
	sessionName   = "pawkeep-session"
	sessionUserID = "user_id"

	defaultSessionMaxAge = 7 * 24 * time.Hour
)

// ErrInvalidCredentials is returned when email or password do not match
// an account. It deliberately does not distinguish the two cases.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials")

// Manager authenticates users and maintains their cookie sessions.
type Manager struct {
	store *sessions.CookieStore
	users repository.UserRepository
	log   logger.Logger
}

// NewManager builds a Manager from session settings. Missing keys are
// generated fresh, which invalidates existing sessions on restart.
func NewManager(settings *conf.SessionSettings, users repository.UserRepository) (*Manager, error) {
	if users == nil {
		return nil, errors.Newf("user repository is required").
			Component("auth").
			Category(errors.CategoryValidation).
			Build()
	}

	authKey := []byte(settings.AuthKey)
	if len(authKey) == 0 {
		authKey = securecookie.GenerateRandomKey(64)
	}
	var keyPairs [][]byte
	keyPairs = append(keyPairs, authKey)
	if settings.EncryptionKey != "" {
		keyPairs = append(keyPairs, []byte(settings.EncryptionKey))
	}

	maxAge := settings.MaxAge.Std()
	if maxAge <= 0 {
		maxAge = defaultSessionMaxAge
	}

	store := sessions.NewCookieStore(keyPairs...)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{
		store: store,
		users: users,
		log:   logger.Default().With(logger.String("service", "auth")),
	}, nil
}

// HashPassword returns a bcrypt digest for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Authenticate verifies email and password against the user store.
func (m *Manager) Authenticate(ctx context.Context, email, password string) (*entities.User, error) {
	user, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// EstablishSession writes the user's session cookie on the response.
func (m *Manager) EstablishSession(c echo.Context, user *entities.User) error {
	sess, _ := m.store.Get(c.Request(), sessionName)
	sess.Values[sessionUserID] = user.ID
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	m.log.Info("session established", logger.Uint64("user_id", uint64(user.ID)))
	return nil
}

// ClearSession expires the session cookie.
func (m *Manager) ClearSession(c echo.Context) error {
	sess, _ := m.store.Get(c.Request(), sessionName)
	sess.Options.MaxAge = -1
	delete(sess.Values, sessionUserID)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// CurrentUser resolves the session cookie to a user, or nil when the
// request carries no valid session.
func (m *Manager) CurrentUser(c echo.Context) *entities.User {
	sess, err := m.store.Get(c.Request(), sessionName)
	if err != nil {
		return nil
	}
	id, ok := sess.Values[sessionUserID].(uint)
	if !ok || id == 0 {
		return nil
	}
	user, err := m.users.GetByID(c.Request().Context(), id)
	if err != nil {
		return nil
	}
	return user
}

// RequireAuth is echo middleware that rejects unauthenticated requests.
// API requests get a 401 JSON body; navigations redirect to the login
// page.
func (m *Manager) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := m.CurrentUser(c)
		if user == nil {
			if isAPIRequest(c.Request()) {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return c.Redirect(http.StatusFound, "/auth/login")
		}
		c.Set("user", user)
		return next(c)
	}
}

// UserFromContext returns the user stored by RequireAuth, or nil.
func UserFromContext(c echo.Context) *entities.User {
	user, _ := c.Get("user").(*entities.User)
	return user
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}
