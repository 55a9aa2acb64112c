package backendsvc

import (
	"context"

	"github.com/sendgrid/rest"

	"github.com/bainum/dashboard/core/roster"
)

var _ roster.Repository = (*Client)(nil)

// Centers

func (c *Client) ListCenters(ctx context.Context) ([]roster.Center, error) {
	centers := make([]roster.Center, 0)
	err := c.do(ctx, rest.Get, "/api/centers", nil, &envelope{key: "centers", value: &centers})
	return centers, err
}

func (c *Client) GetCenter(ctx context.Context, id string) (roster.Center, error) {
	var center roster.Center
	err := c.do(ctx, rest.Get, "/api/centers/"+escape(id), nil, &envelope{key: "center", value: &center})
	return center, err
}

func (c *Client) CreateCenter(ctx context.Context, center roster.Center) (roster.Center, error) {
	var created roster.Center
	err := c.do(ctx, rest.Post, "/api/centers", center, &envelope{key: "center", value: &created})
	return created, err
}

func (c *Client) UpdateCenter(ctx context.Context, id string, center roster.Center) (roster.Center, error) {
	var updated roster.Center
	err := c.do(ctx, rest.Put, "/api/centers/"+escape(id), center, &envelope{key: "center", value: &updated})
	return updated, err
}

func (c *Client) DeleteCenter(ctx context.Context, id string) error {
	return c.do(ctx, rest.Delete, "/api/centers/"+escape(id), nil, nil)
}

// Teachers

func (c *Client) ListTeachers(ctx context.Context) ([]roster.Teacher, error) {
	teachers := make([]roster.Teacher, 0)
	err := c.do(ctx, rest.Get, "/api/teachers", nil, &envelope{key: "teachers", value: &teachers})
	return teachers, err
}

func (c *Client) GetTeacher(ctx context.Context, id string) (roster.Teacher, error) {
	var teacher roster.Teacher
	err := c.do(ctx, rest.Get, "/api/teachers/"+escape(id), nil, &envelope{key: "teacher", value: &teacher})
	return teacher, err
}

func (c *Client) CreateTeacher(ctx context.Context, teacher roster.Teacher) (roster.Teacher, error) {
	var created roster.Teacher
	err := c.do(ctx, rest.Post, "/api/teachers", teacher, &envelope{key: "teacher", value: &created})
	return created, err
}

func (c *Client) UpdateTeacher(ctx context.Context, id string, teacher roster.Teacher) (roster.Teacher, error) {
	var updated roster.Teacher
	err := c.do(ctx, rest.Put, "/api/teachers/"+escape(id), teacher, &envelope{key: "teacher", value: &updated})
	return updated, err
}

func (c *Client) DeleteTeacher(ctx context.Context, id string) error {
	return c.do(ctx, rest.Delete, "/api/teachers/"+escape(id), nil, nil)
}

// Children

func (c *Client) ListChildren(ctx context.Context) ([]roster.Child, error) {
	children := make([]roster.Child, 0)
	err := c.do(ctx, rest.Get, "/api/children", nil, &envelope{key: "children", value: &children})
	return children, err
}

func (c *Client) GetChild(ctx context.Context, id string) (roster.Child, error) {
	var child roster.Child
	err := c.do(ctx, rest.Get, "/api/children/"+escape(id), nil, &envelope{key: "child", value: &child})
	return child, err
}

func (c *Client) CreateChild(ctx context.Context, child roster.Child) (roster.Child, error) {
	var created roster.Child
	err := c.do(ctx, rest.Post, "/api/children", child, &envelope{key: "child", value: &created})
	return created, err
}

func (c *Client) UpdateChild(ctx context.Context, id string, child roster.Child) (roster.Child, error) {
	var updated roster.Child
	err := c.do(ctx, rest.Put, "/api/children/"+escape(id), child, &envelope{key: "child", value: &updated})
	return updated, err
}

// Notes

// ChildNotes returns no notes, and no error, when the backend answers 404.
func (c *Client) ChildNotes(ctx context.Context, childID string) ([]roster.Note, error) {
	notes := make([]roster.Note, 0)
	err := c.do(ctx, rest.Get, "/api/notes/child/"+escape(childID), nil, &envelope{key: "notes", value: &notes})
	if IsNotFound(err) {
		return make([]roster.Note, 0), nil
	}
	return notes, err
}

func (c *Client) CreateNote(ctx context.Context, note roster.Note) (roster.Note, error) {
	payload := struct {
		ChildID  string `json:"childId"`
		Content  string `json:"content"`
		Author   string `json:"author"`
		AuthorID string `json:"authorId,omitempty"`
	}{note.ChildID, note.Content, note.Author, note.AuthorID}

	var created roster.Note
	err := c.do(ctx, rest.Post, "/api/notes", payload, &envelope{key: "note", value: &created})
	return created, err
}

func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.do(ctx, rest.Delete, "/api/notes/"+escape(id), nil, nil)
}
