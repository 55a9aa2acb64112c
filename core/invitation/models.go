package invitation

import (
	"encoding/json"
	"net/url"

	"github.com/go-playground/validator/v10"

	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/user"
)

const (
	ParentRegisterPath  = "/parent/register"
	TeacherRegisterPath = "/teacher/register"
)

type (
	// Invitation as returned by the backend.
	Invitation struct {
		ID             string `json:"id,omitempty"`
		Email          string `json:"email"`
		Token          string `json:"token,omitempty"`
		ChildID        string `json:"childId,omitempty"`
		ChildName      string `json:"childName,omitempty"`
		FirstName      string `json:"firstName,omitempty"`
		LastName       string `json:"lastName,omitempty"`
		Center         string `json:"center,omitempty"`
		InvitationLink string `json:"invitationLink,omitempty"`
		ExpiresAt      string `json:"expiresAt,omitempty"`
	}

	// ParentInvitationRequest is sent to /api/invitations/send.
	ParentInvitationRequest struct {
		Email    string    `json:"email"`
		ChildID  string    `json:"childId"`
		UserID   string    `json:"userId,omitempty"`
		UserRole user.Role `json:"userRole,omitempty"`
		UserName string    `json:"userName,omitempty"`
	}

	// TeacherInvitationRequest is sent to /api/teacher-invitations/send.
	TeacherInvitationRequest struct {
		Email       string `json:"email"`
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		Education   string `json:"education"`
		DateOfBirth string `json:"dateOfBirth"`
		Center      string `json:"center"`
	}

	// SendResponse is the backend answer to an invitation request. A warning or a returned link
	// means the backend created the invitation but could not e-mail it.
	SendResponse struct {
		Message        string     `json:"message,omitempty"`
		Warning        string     `json:"warning,omitempty"`
		InvitationLink string     `json:"invitationLink,omitempty"`
		Invitation     Invitation `json:"invitation"`
	}

	Verification struct {
		Valid      bool       `json:"valid"`
		Invitation Invitation `json:"invitation"`
	}

	// InviteForm is the e-mail typed in the invitation modal.
	InviteForm struct {
		Email string `json:"email" form:"email" validate:"required,email"`
	}

	// SendResult tells the caller how the invitation reached (or should reach) its recipient.
	SendResult struct {
		Invitation  Invitation `json:"invitation"`
		Warning     string     `json:"warning,omitempty"`
		Link        string     `json:"invitationLink,omitempty"`
		EmailedByUs bool       `json:"emailedByDashboard"`
		ManualShare bool       `json:"manualShare"`
	}
)

func (i *Invitation) UnmarshalJSON(data []byte) error {
	type alias Invitation
	aux := struct {
		*alias
		ObjectID string `json:"_id"`
	}{alias: (*alias)(i)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if i.ID == "" {
		i.ID = aux.ObjectID
	}
	return nil
}

// Undelivered reports whether the backend could not e-mail the invitation.
func (r SendResponse) Undelivered() bool {
	return r.Warning != "" || r.Invitation.InvitationLink != "" || r.InvitationLink != ""
}

// Link is the registration link of the invitation: the one the backend built if any,
// otherwise one built from the token. Empty when neither is known.
func (r SendResponse) Link(frontendBaseURL, registerPath string) string {
	switch {
	case r.Invitation.InvitationLink != "":
		return r.Invitation.InvitationLink
	case r.InvitationLink != "":
		return r.InvitationLink
	case r.Invitation.Token != "":
		return RegisterLink(frontendBaseURL, registerPath, r.Invitation.Token)
	}
	return ""
}

// RegisterLink builds the link to the registration page of an invitation token.
func RegisterLink(frontendBaseURL, registerPath, token string) string {
	q := make(url.Values)
	q.Set("token", token)
	return frontendBaseURL + registerPath + "?" + q.Encode()
}

func (f *InviteForm) Validate(validate *validator.Validate) error {
	f.Email = core.CleanString(f.Email, true /* lower */)
	return validate.Struct(f)
}
