package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/bainum/dashboard/core"
)

type (
	LoginRequest struct {
		Email    string `json:"email" form:"email" validate:"required,email"`
		Password string `json:"password" form:"password" validate:"required"`
	}

	SignupRequest struct {
		Name            string `json:"name" form:"name" validate:"required,notblank"`
		Email           string `json:"email" form:"email" validate:"required,email"`
		Password        string `json:"password" form:"password" validate:"required"`
		ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" validate:"required,eqfield=Password"`
		Role            Role   `json:"role" form:"role" validate:"required,signuprole"`
	}

	// ParentRegistration redeems a parent invitation.
	ParentRegistration struct {
		InvitationToken string `json:"invitationToken" form:"invitationToken" validate:"required"`
		Name            string `json:"name" form:"name" validate:"required,notblank"`
		Email           string `json:"email" form:"email" validate:"required,email"`
		Password        string `json:"password" form:"password" validate:"required"`
		ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" validate:"required,eqfield=Password"`
	}

	// TeacherRegistration redeems a teacher invitation; name and email come from the invitation.
	TeacherRegistration struct {
		InvitationToken string `json:"invitationToken" form:"invitationToken" validate:"required"`
		Password        string `json:"password" form:"password" validate:"required"`
		ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" validate:"required,eqfield=Password"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (sr *SignupRequest) Validate(validate *validator.Validate) error {
	sr.Name = core.CleanString(sr.Name)
	sr.Email = core.CleanString(sr.Email, true /* lower */)
	sr.Role = Role(core.CleanString(string(sr.Role), true /* lower */))
	return validate.Struct(sr)
}

func (pr *ParentRegistration) Validate(validate *validator.Validate) error {
	pr.InvitationToken = core.CleanString(pr.InvitationToken)
	pr.Name = core.CleanString(pr.Name)
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}

func (tr *TeacherRegistration) Validate(validate *validator.Validate) error {
	tr.InvitationToken = core.CleanString(tr.InvitationToken)
	return validate.Struct(tr)
}
