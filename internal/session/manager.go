package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/newthinker/strategylab/internal/analytics"
	"github.com/newthinker/strategylab/internal/core"
	"go.uber.org/zap"
)

// Options configures the session cookie.
type Options struct {
	CookieName string
	Secure     bool
	MaxAge     time.Duration
}

// TeardownFunc runs when the session with the given id logs out.
type TeardownFunc func(ctx context.Context, id string)

// Manager binds browser cookies to stored sessions.
type Manager struct {
	store     Store
	collector analytics.Collector
	opts      Options
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.RWMutex
	teardown []TeardownFunc
}

// NewManager creates a manager. A nil collector disables analytics.
func NewManager(store Store, collector analytics.Collector, opts Options, logger *zap.Logger) *Manager {
	if collector == nil {
		collector = analytics.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CookieName == "" {
		opts.CookieName = "strategylab_session"
	}
	return &Manager{
		store:     store,
		collector: collector,
		opts:      opts,
		logger:    logger.Named("session"),
		now:       time.Now,
	}
}

// OnLogout registers a hook run after a session is cleared.
func (m *Manager) OnLogout(fn TeardownFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardown = append(m.teardown, fn)
}

type ctxKey struct{}

type current struct {
	id      string
	session Session
}

// FromContext returns the session attached by Middleware.
func FromContext(ctx context.Context) (Session, bool) {
	c, ok := ctx.Value(ctxKey{}).(current)
	return c.session, ok
}

// IDFromContext returns the id of the session attached by Middleware.
func IDFromContext(ctx context.Context) string {
	c, _ := ctx.Value(ctxKey{}).(current)
	return c.id
}

// WithSession attaches a session to ctx.
func WithSession(ctx context.Context, id string, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, current{id: id, session: s})
}

// Restore resolves the request cookie to a stored session. Store failures
// are logged and treated as no session.
func (m *Manager) Restore(r *http.Request) (string, Session, bool) {
	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil || cookie.Value == "" {
		return "", Session{}, false
	}
	id := cookie.Value

	s, err := m.store.Load(r.Context(), id)
	if err != nil {
		if !errors.Is(err, core.ErrSessionNotFound) {
			m.logger.Warn("session load failed", zap.Error(err))
		}
		return "", Session{}, false
	}
	if !s.Valid() {
		return "", Session{}, false
	}

	if m.tokenExpired(s.AccessToken) {
		m.logger.Debug("dropping session with expired token", zap.String("email", s.Email))
		if err := m.store.Delete(r.Context(), id); err != nil {
			m.logger.Warn("session delete failed", zap.Error(err))
		}
		return "", Session{}, false
	}

	return id, s, true
}

// tokenExpired inspects the exp claim of JWT access tokens. Signatures are
// the backend's business; opaque tokens never expire here.
func (m *Manager) tokenExpired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(m.now())
}

// Middleware restores the session before any handler runs.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, s, ok := m.Restore(r); ok {
			r = r.WithContext(WithSession(r.Context(), id, s))
		}
		next.ServeHTTP(w, r)
	})
}

// Login stores the session under a fresh id and sets the cookie.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, s Session) (string, error) {
	id := uuid.NewString()
	if err := m.store.Save(ctx, id, s); err != nil {
		return "", err
	}

	http.SetCookie(w, m.cookie(id, int(m.opts.MaxAge/time.Second)))
	m.collector.Identify(ctx, s.Email, map[string]any{"email": s.Email})

	m.logger.Info("signed in", zap.String("email", s.Email))
	return id, nil
}

// Logout clears the stored session, expires the cookie and runs teardown
// hooks. It is safe to call without a session.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, m.cookie("", -1))

	id, s, ok := m.Restore(r)
	if !ok {
		if c, err := r.Cookie(m.opts.CookieName); err == nil {
			id = c.Value
		}
	}
	if id == "" {
		return
	}

	if err := m.store.Delete(ctx, id); err != nil {
		m.logger.Warn("session delete failed", zap.Error(err))
	}
	if ok {
		m.collector.Reset(ctx, s.Email)
	}

	m.mu.RLock()
	hooks := append([]TeardownFunc(nil), m.teardown...)
	m.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx, id)
	}

	if ok {
		m.logger.Info("signed out", zap.String("email", s.Email))
	}
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
