// Package session implements the mock login against a fixed user
// directory. It is a placeholder, not an authentication system: every
// account shares one password.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mr1hm/thirdeye/internal/models"
	"github.com/mr1hm/thirdeye/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoSession          = errors.New("no active session")
)

const (
	DefaultCallbackURL = "/dashboard"

	// InvalidCredentialsMessage is the only text shown for a failed login.
	InvalidCredentialsMessage = "Invalid email or password"
)

// Directory is the static list of accounts that may sign in.
var Directory = []models.User{
	{ID: "1", Name: "Admin User", Email: "admin@example.com", Role: models.RoleSuperadmin},
	{ID: "2", Name: "Warden User", Email: "warden@example.com", Role: models.RoleWarden},
	{ID: "3", Name: "Watchman User", Email: "guard@example.com", Role: models.RoleWatchman},
}

// Hooks observe session transitions.
type Hooks struct {
	OnLogin  func(ctx context.Context, s models.Session)
	OnLogout func(ctx context.Context, s models.Session)
}

type Manager struct {
	persist  *repository.Persistence
	password string
	users    map[string]models.User
	hooks    Hooks
	now      func() time.Time
	newToken func() string
}

func NewManager(persist *repository.Persistence, sharedPassword string, hooks Hooks) *Manager {
	users := make(map[string]models.User, len(Directory))
	for _, u := range Directory {
		users[u.Email] = u
	}
	return &Manager{
		persist:  persist,
		password: sharedPassword,
		users:    users,
		hooks:    hooks,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

// Login matches the email exactly and checks the shared password. Any
// mismatch yields ErrInvalidCredentials without saying which part failed.
func (m *Manager) Login(ctx context.Context, email, password string) (models.Session, error) {
	u, ok := m.users[email]
	if !ok || password != m.password {
		slog.Info("login rejected", "email", email)
		return models.Session{}, ErrInvalidCredentials
	}

	s := models.Session{
		Token:     m.newToken(),
		User:      u,
		CreatedAt: m.now(),
	}
	if err := m.persist.SaveSession(ctx, s); err != nil {
		return models.Session{}, fmt.Errorf("error saving session: %w", err)
	}

	slog.Info("user logged in", "user", u.Email, "role", u.Role)
	if m.hooks.OnLogin != nil {
		m.hooks.OnLogin(ctx, s)
	}
	return s, nil
}

// Lookup resolves a bearer token. Unknown tokens return ErrNoSession.
func (m *Manager) Lookup(ctx context.Context, token string) (models.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Session{}, ErrNoSession
	}

	s, err := m.persist.LoadSession(ctx, token)
	if err != nil {
		return models.Session{}, fmt.Errorf("error loading session: %w", err)
	}
	if s == nil {
		return models.Session{}, ErrNoSession
	}
	return *s, nil
}

// Logout destroys the session. Logging out twice is not an error.
func (m *Manager) Logout(ctx context.Context, token string) error {
	s, err := m.Lookup(ctx, token)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := m.persist.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}

	slog.Info("user logged out", "user", s.User.Email)
	if m.hooks.OnLogout != nil {
		m.hooks.OnLogout(ctx, s)
	}
	return nil
}

// CallbackURL picks where the client goes after login. Only local paths
// are honoured. Browsers read a backslash as a slash and drop tabs and
// newlines, so any of those makes the path suspect.
func CallbackURL(requested string) string {
	if !strings.HasPrefix(requested, "/") || strings.HasPrefix(requested, "//") {
		return DefaultCallbackURL
	}
	if strings.ContainsFunc(requested, func(r rune) bool {
		return r == '\\' || r < 0x20 || r == 0x7f
	}) {
		return DefaultCallbackURL
	}
	return requested
}
