package echoapi

import (
	"context"
	"net"
	"net/http"
	"net/url"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/assessment"
	"github.com/bainum/dashboard/core/invitation"
	"github.com/bainum/dashboard/core/session"
	"github.com/bainum/dashboard/core/user"
	backendsvc "github.com/bainum/dashboard/services/backend"
)

const msgBackendUnavailable = "The service is temporarily unavailable, please try again"

var errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *backendsvc.Error:
			code, message = backendStatus(origErr), backendMessage(origErr)
			if code == http.StatusBadGateway {
				logger.Warn("backend error", err, contextUserRecord(ctx))
			}
		case *assessment.UploadError:
			code, message = backendStatus(origErr.Err), origErr.Message
		case *assessment.AcceptError:
			code, message = backendStatus(origErr.Err), origErr.Message
		case *assessment.StateError:
			code, message = http.StatusConflict, origErr.Error()
		case *url.Error, net.Error:
			code, message = http.StatusBadGateway, msgBackendUnavailable
			logger.Warn("backend unreachable", err)
		default:
			code, message = sentinelStatus(origErr)
			if code != 0 {
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, errors.Wrap(err, msg), contextUserRecord(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// backendStatus keeps the backend client errors (4xx) and reports everything else as a bad gateway.
func backendStatus(err error) int {
	code := backendsvc.StatusCode(err)
	if code >= 400 && code < 500 {
		return code
	}
	return http.StatusBadGateway
}

func backendMessage(err *backendsvc.Error) string {
	if msg := err.ServerMessage(); msg != "" {
		return msg
	}
	if err.StatusCode >= 500 {
		return msgBackendUnavailable
	}
	return http.StatusText(err.StatusCode)
}

// sentinelStatus maps the known sentinel errors; 0 when err is not one of them.
func sentinelStatus(err error) (int, string) {
	switch err {
	case assessment.ErrUploadInFlight, assessment.ErrReviewInFlight, assessment.ErrWorkflowReset:
		return http.StatusConflict, err.Error()
	case assessment.ErrIncompleteResult:
		return http.StatusBadGateway, err.Error()
	case invitation.ErrNoToken:
		return http.StatusBadRequest, "No invitation token provided"
	case invitation.ErrInvalidInvitation:
		return http.StatusBadRequest, "Invalid or expired invitation"
	case user.ErrInvalidToken, user.ErrClaimsMismatch, backendsvc.ErrNoToken:
		return http.StatusBadGateway, "Authentication failed, please try again"
	case session.ErrClosed:
		return http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable)
	case context.DeadlineExceeded:
		return http.StatusBadGateway, msgBackendUnavailable
	}
	return 0, ""
}
