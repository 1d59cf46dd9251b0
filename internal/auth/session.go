package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ifixandrepair/shop-api/internal/config"
	"github.com/ifixandrepair/shop-api/internal/database"
)

// CookieName is the admin session cookie.
const CookieName = "ifr_session"

// ErrInvalidPassword is returned by Login on a wrong password.
var ErrInvalidPassword = errors.New("invalid password")

// SessionStore defines the DB methods used for admin sessions.
// Satisfied by *database.Queries; narrow interface for testability.
type SessionStore interface {
	CreateSession(ctx context.Context, arg database.CreateSessionParams) (database.Session, error)
	GetSession(ctx context.Context, id string) (database.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Manager issues and verifies admin sessions. The password is held only as
// a bcrypt hash.
type Manager struct {
	store  SessionStore
	hash   []byte
	secret string
	ttl    time.Duration
	secure bool
	log    *zap.Logger
	now    func() time.Time
}

// NewManager hashes the admin password once; every login compares against
// that hash.
func NewManager(store SessionStore, cfg config.AuthConfig, secure bool, log *zap.Logger) (*Manager, error) {
	if cfg.AdminPassword == "" {
		return nil, errors.New("admin password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		store:  store,
		hash:   hash,
		secret: cfg.SessionSecret,
		ttl:    ttl,
		secure: secure,
		log:    log.Named("auth"),
		now:    time.Now,
	}, nil
}

// Login checks the password, stores a new session and returns its cookie.
func (m *Manager) Login(ctx context.Context, password string) (*http.Cookie, error) {
	if err := bcrypt.CompareHashAndPassword(m.hash, []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}

	now := m.now()
	if n, err := m.store.DeleteExpiredSessions(ctx, now); err != nil {
		m.log.Warn("purge expired sessions", zap.Error(err))
	} else if n > 0 {
		m.log.Debug("expired sessions purged", zap.Int64("count", n))
	}

	expires := now.Add(m.ttl)
	session, err := m.store.CreateSession(ctx, database.CreateSessionParams{
		ID:            uuid.NewString(),
		Authenticated: true,
		ExpiresAt:     expires,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := GenerateToken(m.secret, session.ID, now, expires)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return m.cookie(token, expires), nil
}

// Logout deletes the request's session, if any, and returns an expired
// cookie.
func (m *Manager) Logout(ctx context.Context, r *http.Request) (*http.Cookie, error) {
	expired := m.cookie("", time.Unix(0, 0))
	expired.MaxAge = -1

	id, ok := m.sessionID(r)
	if !ok {
		return expired, nil
	}
	if err := m.store.DeleteSession(ctx, id); err != nil {
		return expired, fmt.Errorf("delete session: %w", err)
	}
	return expired, nil
}

// Authenticated reports whether the request carries a signed cookie for an
// authenticated, unexpired session.
func (m *Manager) Authenticated(ctx context.Context, r *http.Request) (bool, error) {
	id, ok := m.sessionID(r)
	if !ok {
		return false, nil
	}
	session, err := m.store.GetSession(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get session: %w", err)
	}
	return session.Authenticated && m.now().Before(session.ExpiresAt), nil
}

func (m *Manager) sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	id, err := ValidateToken(m.secret, c.Value)
	if err != nil {
		return "", false
	}
	return id, true
}

func (m *Manager) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
