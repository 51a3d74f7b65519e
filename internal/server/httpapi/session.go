package httpapi

import (
	"context"
	"net/http"
	"errors"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/logging"
	"github.com/dmitrijs2005/clouddrive/internal/server/auth"
	"github.com/dmitrijs2005/clouddrive/internal/server/models"
	"github.com/dmitrijs2005/clouddrive/internal/timex"
)

// IdentityLoader resolves the identity a session token was issued for.
type IdentityLoader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// SessionOptions configures the session cookie.
type SessionOptions struct {
	CookieName  string
	Secure      bool
	TTL         time.Duration
	RememberTTL time.Duration
}

// SessionManager keeps the logged-in identity in an HttpOnly cookie that
// holds a signed session token.
type SessionManager struct {
	tokens *auth.TokenService
	users  IdentityLoader
	opts   SessionOptions
	log    logging.Logger
	now    timex.Clock
}

func NewSessionManager(tokens *auth.TokenService, users IdentityLoader, opts SessionOptions, log logging.Logger) *SessionManager {
	return &SessionManager{tokens: tokens, users: users, opts: opts, log: log, now: time.Now}
}

// Current returns the identity of the request's session, or nil when there
// is no valid session. A lookup failure other than a missing user is logged
// and the request continues as anonymous.
func (m *SessionManager) Current(r *http.Request) *models.User {
	c, err := r.Cookie(m.opts.CookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	id, err := m.tokens.Verify(c.Value, auth.PurposeSession)
	if err != nil {
		return nil
	}
	user, err := m.users.GetByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			m.log.Error(r.Context(), "session identity lookup failed", "user_id", id, "error", err)
		}
		return nil
	}
	return user
}

// Set starts a session for user. A remembered session outlives the browser
// session; otherwise the cookie has no expiry of its own.
func (m *SessionManager) Set(w http.ResponseWriter, user *models.User, remember bool) error {
	ttl := m.opts.TTL
	if remember {
		ttl = m.opts.RememberTTL
	}

	token, err := m.tokens.Issue(user.ID, auth.PurposeSession, ttl)
	if err != nil {
		return err
	}

	c := &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.opts.Secure,
	}
	if remember {
		c.Expires = m.now().Add(ttl)
	}
	http.SetCookie(w, c)
	return nil
}

func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.opts.Secure,
		MaxAge:   -1,
	})
}

type identityKey struct{}

func withIdentity(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, identityKey{}, u)
}

// IdentityFrom returns the identity loaded by the session middleware, or nil.
func IdentityFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(identityKey{}).(*models.User)
	return u
}
