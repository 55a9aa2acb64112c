package roster

import (
	"github.com/go-playground/validator/v10"

	"github.com/bainum/dashboard/core"
)

var (
	Genders   = []string{"Male", "Female"}
	Diagnoses = []string{"Yes", "No"}
	Languages = []string{
		"English", "Spanish", "Mandarin", "French", "German", "Arabic", "Hindi",
		"Portuguese", "Russian", "Japanese", "Korean", "Italian", "Other",
	}
)

type (
	CenterForm struct {
		Name        string `json:"name" form:"name" validate:"required,notblank"`
		Address     string `json:"address" form:"address"`
		Phone       string `json:"phone" form:"phone"`
		Email       string `json:"email" form:"email" validate:"omitempty,email"`
		Description string `json:"description" form:"description"`
	}

	TeacherForm struct {
		FirstName   string `json:"firstName" form:"firstName" validate:"required,notblank"`
		LastName    string `json:"lastName" form:"lastName" validate:"required,notblank"`
		Email       string `json:"email" form:"email" validate:"required,email"`
		Education   string `json:"education" form:"education" validate:"required"`
		DateOfBirth string `json:"dateOfBirth" form:"dateOfBirth" validate:"required,date,notfuture"`
		Center      string `json:"center" form:"center" validate:"required"`
	}

	ChildForm struct {
		FirstName       string `json:"firstName" form:"firstName" validate:"required,notblank"`
		LastName        string `json:"lastName" form:"lastName" validate:"required,notblank"`
		DateOfBirth     string `json:"dateOfBirth" form:"dateOfBirth" validate:"required,date,notfuture"`
		Gender          string `json:"gender" form:"gender" validate:"required,gender"`
		Diagnosis       string `json:"diagnosis" form:"diagnosis" validate:"required,diagnosis"`
		PrimaryLanguage string `json:"primaryLanguage" form:"primaryLanguage" validate:"required,language"`
		LeadTeacher     string `json:"leadTeacher" form:"leadTeacher" validate:"required"`
	}

	NoteForm struct {
		Content string `json:"content" form:"content" validate:"required,notblank"`
	}
)

func (cf *CenterForm) Validate(validate *validator.Validate) error {
	cf.Name = core.CleanString(cf.Name)
	cf.Address = core.CleanString(cf.Address)
	cf.Phone = core.CleanString(cf.Phone)
	cf.Email = core.CleanString(cf.Email, true /* lower */)
	cf.Description = core.CleanString(cf.Description)
	return validate.Struct(cf)
}

func (cf CenterForm) Center() Center {
	return Center{
		Name:        cf.Name,
		Address:     cf.Address,
		Phone:       cf.Phone,
		Email:       cf.Email,
		Description: cf.Description,
	}
}

// CenterFormOf pre-fills the edit form.
func CenterFormOf(c Center) CenterForm {
	return CenterForm{
		Name:        c.Name,
		Address:     c.Address,
		Phone:       c.Phone,
		Email:       c.Email,
		Description: c.Description,
	}
}

func (tf *TeacherForm) Validate(validate *validator.Validate) error {
	tf.FirstName = core.CleanString(tf.FirstName)
	tf.LastName = core.CleanString(tf.LastName)
	tf.Email = core.CleanString(tf.Email, true /* lower */)
	tf.Education = core.CleanString(tf.Education)
	tf.DateOfBirth = core.CleanString(tf.DateOfBirth)
	tf.Center = core.CleanString(tf.Center)
	return validate.Struct(tf)
}

func (tf TeacherForm) Teacher() Teacher {
	return Teacher{
		Name:        JoinName(tf.FirstName, tf.LastName),
		Email:       tf.Email,
		Center:      tf.Center,
		Education:   tf.Education,
		DateOfBirth: tf.DateOfBirth,
	}
}

func TeacherFormOf(t Teacher) TeacherForm {
	first, last := t.Names()
	return TeacherForm{
		FirstName:   first,
		LastName:    last,
		Email:       t.Email,
		Education:   t.Education,
		DateOfBirth: t.DateOfBirth,
		Center:      t.Center,
	}
}

func (cf *ChildForm) Validate(validate *validator.Validate) error {
	cf.FirstName = core.CleanString(cf.FirstName)
	cf.LastName = core.CleanString(cf.LastName)
	cf.DateOfBirth = core.CleanString(cf.DateOfBirth)
	cf.Gender = core.CleanString(cf.Gender)
	cf.Diagnosis = core.CleanString(cf.Diagnosis)
	cf.PrimaryLanguage = core.CleanString(cf.PrimaryLanguage)
	cf.LeadTeacher = core.CleanString(cf.LeadTeacher)
	return validate.Struct(cf)
}

func (cf ChildForm) Child() Child {
	return Child{
		Name:            JoinName(cf.FirstName, cf.LastName),
		DateOfBirth:     cf.DateOfBirth,
		Gender:          cf.Gender,
		Diagnosis:       cf.Diagnosis,
		PrimaryLanguage: cf.PrimaryLanguage,
		LeadTeacher:     cf.LeadTeacher,
	}
}

func ChildFormOf(c Child) ChildForm {
	first, last := c.Names()
	return ChildForm{
		FirstName:       first,
		LastName:        last,
		DateOfBirth:     c.DateOfBirth,
		Gender:          c.Gender,
		Diagnosis:       c.Diagnosis,
		PrimaryLanguage: c.PrimaryLanguage,
		LeadTeacher:     c.LeadTeacher,
	}
}

func (nf *NoteForm) Validate(validate *validator.Validate) error {
	nf.Content = core.CleanString(nf.Content)
	return validate.Struct(nf)
}
