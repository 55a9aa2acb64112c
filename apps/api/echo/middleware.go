package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bainum/dashboard/core/access"
	"github.com/bainum/dashboard/core/session"
	"github.com/bainum/dashboard/core/user"
)

const contextSessionKey = "session"

// sessionMiddleware resolves the session cookie. The session (and its token, for the backend client)
// is carried by both the echo.Context and the request context. Stale cookies are cleared.
func sessionMiddleware(sessions *session.Manager, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			cookie, err := ctx.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				return next(ctx)
			}

			req := ctx.Request()
			sess, err := sessions.Get(req.Context(), cookie.Value)
			switch errors.Cause(err) {
			case nil:
				ctx.Set(contextSessionKey, sess)
				ctx.SetRequest(req.WithContext(session.NewContext(req.Context(), sess)))
			case session.ErrNotFound, session.ErrSessionRestoreFailed:
				clearSessionCookie(ctx, cookieName)
			default:
				return errors.Wrap(err, "getting session")
			}
			return next(ctx)
		}
	}
}

func setSessionCookie(ctx echo.Context, name string, sess *session.Session, secure bool) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !sess.ExpiresAt.IsZero() {
		cookie.Expires = sess.ExpiresAt
	}
	ctx.SetCookie(cookie)
}

func clearSessionCookie(ctx echo.Context, name string) {
	ctx.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

func getContextSession(ctx echo.Context) *session.Session {
	sess, _ := ctx.Get(contextSessionKey).(*session.Session)
	return sess
}

func contextSubject(ctx echo.Context) access.Subject {
	return getContextSession(ctx).Subject()
}

// getContextUser returns the authenticated user. Only call it behind a gate.
func getContextUser(ctx echo.Context) (user.Record, error) {
	if sess := getContextSession(ctx); sess != nil && sess.User != nil {
		return *sess.User, nil
	}
	return user.Record{}, errUnauthorized
}

// contextUserRecord is the user logged along with errors; empty when anonymous.
func contextUserRecord(ctx echo.Context) user.Record {
	usr, _ := getContextUser(ctx)
	return usr
}
