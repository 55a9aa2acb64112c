package roster

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/user"
)

// noteAuthorFallback signs notes written by a user without a name.
const noteAuthorFallback = "Unknown User"

type (
	// Repository is the REST API holding the roster.
	Repository interface {
		ListCenters(ctx context.Context) ([]Center, error)
		GetCenter(ctx context.Context, id string) (Center, error)
		CreateCenter(ctx context.Context, c Center) (Center, error)
		UpdateCenter(ctx context.Context, id string, c Center) (Center, error)
		DeleteCenter(ctx context.Context, id string) error

		ListTeachers(ctx context.Context) ([]Teacher, error)
		GetTeacher(ctx context.Context, id string) (Teacher, error)
		CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		UpdateTeacher(ctx context.Context, id string, t Teacher) (Teacher, error)
		DeleteTeacher(ctx context.Context, id string) error

		ListChildren(ctx context.Context) ([]Child, error)
		GetChild(ctx context.Context, id string) (Child, error)
		CreateChild(ctx context.Context, c Child) (Child, error)
		UpdateChild(ctx context.Context, id string, c Child) (Child, error)

		// ChildNotes returns an empty list when the child has no notes.
		ChildNotes(ctx context.Context, childID string) ([]Note, error)
		CreateNote(ctx context.Context, n Note) (Note, error)
		DeleteNote(ctx context.Context, id string) error
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}

	TeacherRow struct {
		Teacher
		Children []Child `json:"children,omitempty"`
	}

	CenterRow struct {
		Center
		Teachers []Teacher `json:"teachers,omitempty"`
	}

	// DataView is the content of the data page.
	DataView struct {
		Teachers        []Teacher `json:"teachers"`
		Children        []Child   `json:"children"`
		SelectedTeacher string    `json:"selectedTeacher"`
		Filtered        []Child   `json:"filteredChildren"`
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Centers

func (svc *Service) QueryCenters(ctx context.Context) ([]Center, error) {
	return svc.repo.ListCenters(ctx)
}

// CenterRows lists the centers. Admins also get the teachers of each center; failing to load them
// is not fatal.
func (svc *Service) CenterRows(ctx context.Context, usr user.Record) ([]CenterRow, error) {
	centers, err := svc.repo.ListCenters(ctx)
	if err != nil {
		return nil, err
	}

	var teachers []Teacher
	if usr.IsAdmin() {
		if teachers, err = svc.repo.ListTeachers(ctx); err != nil {
			svc.logger.Warn("loading teachers of centers", err, usr)
			teachers = nil
		}
	}

	rows := make([]CenterRow, 0, len(centers))
	for _, c := range centers {
		row := CenterRow{Center: c}
		if usr.IsAdmin() {
			row.Teachers = TeachersAt(teachers, c.Name)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (svc *Service) GetCenter(ctx context.Context, id string) (Center, error) {
	return svc.repo.GetCenter(ctx, id)
}

func (svc *Service) CreateCenter(ctx context.Context, form CenterForm) (Center, error) {
	return svc.repo.CreateCenter(ctx, form.Center())
}

func (svc *Service) UpdateCenter(ctx context.Context, id string, form CenterForm) (Center, error) {
	return svc.repo.UpdateCenter(ctx, id, form.Center())
}

func (svc *Service) DeleteCenter(ctx context.Context, id string) error {
	return svc.repo.DeleteCenter(ctx, id)
}

// Teachers

func (svc *Service) QueryTeachers(ctx context.Context) ([]Teacher, error) {
	return svc.repo.ListTeachers(ctx)
}

// TeacherRows lists the teachers. Admins also get the children led by each teacher.
func (svc *Service) TeacherRows(ctx context.Context, usr user.Record) ([]TeacherRow, error) {
	teachers, err := svc.repo.ListTeachers(ctx)
	if err != nil {
		return nil, err
	}

	var children []Child
	if usr.IsAdmin() {
		if children, err = svc.repo.ListChildren(ctx); err != nil {
			svc.logger.Warn("loading children of teachers", err, usr)
			children = nil
		}
	}

	rows := make([]TeacherRow, 0, len(teachers))
	for _, t := range teachers {
		row := TeacherRow{Teacher: t}
		if usr.IsAdmin() {
			row.Children = ChildrenOf(children, t.Name)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (svc *Service) GetTeacher(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, id)
}

func (svc *Service) CreateTeacher(ctx context.Context, form TeacherForm) (Teacher, error) {
	return svc.repo.CreateTeacher(ctx, form.Teacher())
}

func (svc *Service) UpdateTeacher(ctx context.Context, id string, form TeacherForm) (Teacher, error) {
	return svc.repo.UpdateTeacher(ctx, id, form.Teacher())
}

func (svc *Service) DeleteTeacher(ctx context.Context, id string) error {
	return svc.repo.DeleteTeacher(ctx, id)
}

// Children

// DataView loads the data page. A teacher who did not pick a filter sees their own children;
// without a filter, admins see every child and everybody else none.
func (svc *Service) DataView(ctx context.Context, usr user.Record, selectedTeacher string) (DataView, error) {
	teachers, err := svc.repo.ListTeachers(ctx)
	if err != nil {
		return DataView{}, errors.Wrap(err, "loading teachers")
	}
	children, err := svc.repo.ListChildren(ctx)
	if err != nil {
		return DataView{}, errors.Wrap(err, "loading children")
	}
	return NewDataView(usr, teachers, children, selectedTeacher), nil
}

func NewDataView(usr user.Record, teachers []Teacher, children []Child, selectedTeacher string) DataView {
	selected := core.CleanString(selectedTeacher)
	if selected == "" && usr.IsTeacher() && usr.Name != "" {
		selected = usr.Name
	}

	view := DataView{
		Teachers:        teachers,
		Children:        children,
		SelectedTeacher: selected,
	}
	switch {
	case selected != "":
		view.Filtered = ChildrenOf(children, selected)
	case usr.IsAdmin():
		view.Filtered = children
	default:
		view.Filtered = make([]Child, 0)
	}
	return view
}

func (svc *Service) GetChild(ctx context.Context, id string) (Child, error) {
	return svc.repo.GetChild(ctx, id)
}

func (svc *Service) CreateChild(ctx context.Context, form ChildForm) (Child, error) {
	return svc.repo.CreateChild(ctx, form.Child())
}

func (svc *Service) UpdateChild(ctx context.Context, id string, form ChildForm) (Child, error) {
	return svc.repo.UpdateChild(ctx, id, form.Child())
}

// Notes

func (svc *Service) ChildNotes(ctx context.Context, childID string) ([]Note, error) {
	return svc.repo.ChildNotes(ctx, childID)
}

// AddNote writes a note about the child, signed by usr.
func (svc *Service) AddNote(ctx context.Context, usr user.Record, childID string, form NoteForm) (Note, error) {
	return svc.repo.CreateNote(ctx, Note{
		ChildID:  childID,
		Content:  form.Content,
		Author:   usr.DisplayName(noteAuthorFallback),
		AuthorID: usr.ID,
	})
}

func (svc *Service) DeleteNote(ctx context.Context, id string) error {
	return svc.repo.DeleteNote(ctx, id)
}
