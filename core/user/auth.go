package user

import "context"

type (
	// AuthResult is what the backend answers to a successful login or registration:
	// the opaque session token and, when provided, the typed claims of the user.
	AuthResult struct {
		Token string
		User  *Record
	}

	// Authenticator is the part of the REST API dealing with accounts.
	Authenticator interface {
		Login(ctx context.Context, req LoginRequest) (AuthResult, error)
		Signup(ctx context.Context, req SignupRequest) (AuthResult, error)
		RegisterParent(ctx context.Context, req ParentRegistration) (AuthResult, error)
		RegisterTeacher(ctx context.Context, req TeacherRegistration) (AuthResult, error)
	}
)
