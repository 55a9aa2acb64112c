package backendsvc

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/bainum/dashboard/core/user"
)

var ErrNoToken = errors.New("no session token received")

var _ user.Authenticator = (*Client)(nil)

// authResponse: `user` is either the session token itself or the typed claims, with the token in `token`.
type authResponse struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
}

func (r authResponse) result() (user.AuthResult, error) {
	res := user.AuthResult{Token: r.Token}

	if len(r.User) > 0 && string(r.User) != "null" {
		var token string
		if err := json.Unmarshal(r.User, &token); err == nil {
			if res.Token == "" {
				res.Token = token
			}
		} else {
			var claims user.Claims
			if err = json.Unmarshal(r.User, &claims); err != nil {
				return res, errors.Wrap(err, "decoding user")
			}
			usr := claims.Record()
			res.User = &usr
		}
	}

	if res.Token == "" {
		return res, ErrNoToken
	}
	return res, nil
}

func (c *Client) authenticate(ctx context.Context, path string, payload interface{}) (user.AuthResult, error) {
	var resp authResponse
	if err := c.do(ctx, rest.Post, path, payload, &resp); err != nil {
		return user.AuthResult{}, err
	}
	return resp.result()
}

func (c *Client) Login(ctx context.Context, req user.LoginRequest) (user.AuthResult, error) {
	return c.authenticate(ctx, "/api/auth/login", req)
}

func (c *Client) Signup(ctx context.Context, req user.SignupRequest) (user.AuthResult, error) {
	return c.authenticate(ctx, "/api/auth/register", struct {
		Name     string    `json:"name"`
		Email    string    `json:"email"`
		Password string    `json:"password"`
		Role     user.Role `json:"role"`
	}{req.Name, req.Email, req.Password, req.Role})
}

func (c *Client) RegisterParent(ctx context.Context, req user.ParentRegistration) (user.AuthResult, error) {
	return c.authenticate(ctx, "/api/auth/register-parent", struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		InvitationToken string `json:"invitationToken"`
	}{req.Name, req.Email, req.Password, req.InvitationToken})
}

func (c *Client) RegisterTeacher(ctx context.Context, req user.TeacherRegistration) (user.AuthResult, error) {
	return c.authenticate(ctx, "/api/auth/register-teacher", struct {
		Password        string `json:"password"`
		InvitationToken string `json:"invitationToken"`
	}{req.Password, req.InvitationToken})
}
