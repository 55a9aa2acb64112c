package session

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/bainum/dashboard/core/access"
	"github.com/bainum/dashboard/core/user"
)

var (
	// ErrNotFound is returned by repositories and by Manager.Get for unknown or expired sessions.
	ErrNotFound = errors.New("session not found")

	// ErrSessionRestoreFailed means a persisted session could not be trusted anymore
	// (undecodable token, claims mismatch). The session is dropped.
	ErrSessionRestoreFailed = errors.New("session restore failed")

	ErrClosed = errors.New("session manager closed")
)

// Session is an authenticated browser session. The browser only knows its ID.
type Session struct {
	ID        string
	Token     string
	User      *user.Record
	Loading   bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Subject is what the access gate sees of the session.
func (s *Session) Subject() access.Subject {
	if s == nil {
		return access.Subject{}
	}
	return access.Subject{Loading: s.Loading, User: s.User}
}

func (s *Session) expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Record is the persisted form of a session: the opaque token plus the typed claims returned with it.
type Record struct {
	ID        string      `db:"id" json:"id"`
	Token     string      `db:"token" json:"token"`
	Claims    user.Record `db:"claims" json:"claims"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
	ExpiresAt time.Time   `db:"expires_at" json:"expiresAt"`
}

func (r Record) session() *Session {
	usr := r.Claims
	return &Session{
		ID:        r.ID,
		Token:     r.Token,
		User:      &usr,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}

func recordOf(s *Session) Record {
	rec := Record{
		ID:        s.ID,
		Token:     s.Token,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
	if s.User != nil {
		rec.Claims = *s.User
	}
	return rec
}

// Repository persists sessions.
type Repository interface {
	SaveSession(ctx context.Context, rec Record) error
	// GetSession returns ErrNotFound when there is no such session.
	GetSession(ctx context.Context, id string) (Record, error)
	DeleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context) ([]Record, error)
}

type ctxKey int

const sessionKey ctxKey = 1

// NewContext returns a copy of ctx carrying sess. Outgoing backend calls read the bearer token from it.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*Session)
	return sess, ok && sess != nil
}

// TokenFromContext returns the bearer token of the session carried by ctx, if any.
func TokenFromContext(ctx context.Context) string {
	if sess, ok := FromContext(ctx); ok {
		return sess.Token
	}
	return ""
}
