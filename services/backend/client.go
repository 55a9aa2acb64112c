// Package backendsvc is the client of the REST API owning accounts, the roster and assessments.
package backendsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/session"
)

// Error is a non-2xx answer of the backend.
type Error struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("backend: %d %s", e.StatusCode, e.Message)
}

// ServerMessage is the message the backend meant for the user, if any.
func (e *Error) ServerMessage() string { return e.Message }

// StatusCode returns the status of a backend error, 0 for any other error.
func StatusCode(err error) int {
	if e, ok := errors.Cause(err).(*Error); ok {
		return e.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool     { return StatusCode(err) == http.StatusNotFound }
func IsUnauthorized(err error) bool { return StatusCode(err) == http.StatusUnauthorized }
func IsForbidden(err error) bool    { return StatusCode(err) == http.StatusForbidden }

type Client struct {
	http          *rest.Client
	baseURL       string
	timeout       time.Duration
	uploadTimeout time.Duration
	userAgent     string
}

func NewClient(conf *core.Config) *Client {
	return &Client{
		http:          &rest.Client{HTTPClient: &http.Client{}},
		baseURL:       conf.Backend.BaseURL,
		timeout:       conf.Backend.Timeout,
		uploadTimeout: conf.Backend.UploadTimeout,
		userAgent:     conf.AppName + "/" + conf.Build,
	}
}

func escape(id string) string { return url.PathEscape(id) }

type call struct {
	method  rest.Method
	path    string
	query   map[string]string
	body    []byte
	headers map[string]string
	timeout time.Duration
}

// send performs the call with the bearer token of the session carried by ctx.
// Non-2xx answers are returned as *Error, along with the response.
func (c *Client) send(ctx context.Context, cl call) (*rest.Response, error) {
	timeout := cl.timeout
	if timeout == 0 {
		timeout = c.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	headers := map[string]string{
		"Accept":     "application/json",
		"User-Agent": c.userAgent,
	}
	if cl.body != nil {
		headers["Content-Type"] = "application/json"
	}
	for k, v := range cl.headers {
		headers[k] = v
	}
	if token := session.TokenFromContext(ctx); token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	res, err := c.http.SendWithContext(ctx, rest.Request{
		Method:      cl.method,
		BaseURL:     c.baseURL + cl.path,
		Headers:     headers,
		QueryParams: cl.query,
		Body:        cl.body,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", cl.method, cl.path)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res, &Error{
			StatusCode: res.StatusCode,
			Message:    errorMessage(res.Body),
			Body:       []byte(res.Body),
		}
	}
	return res, nil
}

// errorMessage extracts `message` (or `error`) from an error body.
func errorMessage(body string) string {
	var v struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return ""
	}
	if v.Message != "" {
		return v.Message
	}
	return v.Error
}

// do sends in as JSON and decodes the answer into out (both optional).
func (c *Client) do(ctx context.Context, method rest.Method, path string, in, out interface{}) error {
	cl := call{method: method, path: path}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		cl.body = body
	}

	res, err := c.send(ctx, cl)
	if err != nil {
		return err
	}
	if out == nil || strings.TrimSpace(res.Body) == "" {
		return nil
	}
	if err = json.Unmarshal([]byte(res.Body), out); err != nil {
		return errors.Wrapf(err, "decoding %s %s", method, path)
	}
	return nil
}

// envelope decodes `{"<key>": ...}` bodies. Bodies without the key are decoded as the value itself,
// unless they only carry status fields such as `message`, which leaves the value untouched.
type envelope struct {
	key   string
	value interface{}
}

var statusFields = map[string]bool{"message": true, "error": true, "warning": true, "success": true, "status": true}

func (e envelope) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err == nil {
		if raw, ok := fields[e.key]; ok {
			if string(raw) == "null" {
				return nil
			}
			return json.Unmarshal(raw, e.value)
		}
		if onlyStatusFields(fields) {
			return nil
		}
	}
	return json.Unmarshal(data, e.value)
}

func onlyStatusFields(fields map[string]json.RawMessage) bool {
	for k := range fields {
		if !statusFields[k] {
			return false
		}
	}
	return true
}
