package backendsvc

import (
	"context"
	"encoding/json"

	"github.com/sendgrid/rest"

	"github.com/bainum/dashboard/core/invitation"
)

var _ invitation.Backend = (*Client)(nil)

// sendInvitation decodes the body even on error: the backend may have created the invitation
// and only failed to e-mail it.
func (c *Client) sendInvitation(ctx context.Context, path string, payload interface{}) (invitation.SendResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return invitation.SendResponse{}, err
	}

	var resp invitation.SendResponse
	res, err := c.send(ctx, call{method: rest.Post, path: path, body: body})
	if res != nil {
		_ = json.Unmarshal([]byte(res.Body), &resp)
	}
	return resp, err
}

func (c *Client) SendParentInvitation(ctx context.Context, req invitation.ParentInvitationRequest) (invitation.SendResponse, error) {
	return c.sendInvitation(ctx, "/api/invitations/send", req)
}

func (c *Client) SendTeacherInvitation(ctx context.Context, req invitation.TeacherInvitationRequest) (invitation.SendResponse, error) {
	return c.sendInvitation(ctx, "/api/teacher-invitations/send", req)
}

func (c *Client) VerifyParentInvitation(ctx context.Context, token string) (invitation.Verification, error) {
	var v invitation.Verification
	err := c.do(ctx, rest.Get, "/api/invitations/verify/"+escape(token), nil, &v)
	return v, err
}

func (c *Client) VerifyTeacherInvitation(ctx context.Context, token string) (invitation.Verification, error) {
	var v invitation.Verification
	err := c.do(ctx, rest.Get, "/api/teacher-invitations/verify/"+escape(token), nil, &v)
	return v, err
}
