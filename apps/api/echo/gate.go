package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bainum/dashboard/core/access"
	"github.com/bainum/dashboard/core/user"
)

// loadingRetryAfter (seconds) is sent with the placeholder answered while sessions are being restored.
const loadingRetryAfter = 1

type (
	loadingView struct {
		Loading bool `json:"loading"`
	}

	denialView struct {
		Error        string          `json:"error"`
		RequiredRole user.Role       `json:"requiredRole,omitempty"`
		Actions      []access.Action `json:"actions"`
	}
)

// gateMiddleware guards a view with access.Decide.
func gateMiddleware(req access.Requirement, m *metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			d := access.Decide(contextSubject(ctx), req, ctx.Request().URL.Path)
			m.observeDecision(d)
			if _, ok := d.(access.Render); ok {
				return next(ctx)
			}
			return respondDecision(ctx, d)
		}
	}
}

// childGateMiddleware guards the child page (and everything under it) with access.DecideChild.
func childGateMiddleware(m *metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			d := access.DecideChild(contextSubject(ctx), ctx.Param("childId"))
			m.observeDecision(d)
			if _, ok := d.(access.Render); ok {
				return next(ctx)
			}
			return respondDecision(ctx, d)
		}
	}
}

// respondDecision is the only place a gate decision turns into navigation.
// Redirects are 303s: the guarded view never gets a history entry.
func respondDecision(ctx echo.Context, d access.Decision) error {
	switch d := d.(type) {
	case access.Loading:
		ctx.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(loadingRetryAfter))
		return ctx.JSON(http.StatusServiceUnavailable, loadingView{Loading: true})
	case access.Redirect:
		return ctx.Redirect(http.StatusSeeOther, d.To)
	case access.Deny:
		actions := d.Actions
		if actions == nil {
			actions = make([]access.Action, 0)
		}
		return ctx.JSON(http.StatusForbidden, denialView{
			Error:        d.Reason,
			RequiredRole: d.RequiredRole,
			Actions:      actions,
		})
	}
	return nil
}
