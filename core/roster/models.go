package roster

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/bainum/dashboard/core"
)

type (
	Center struct {
		ID          string `json:"id,omitempty"`
		Name        string `json:"name"`
		Address     string `json:"address,omitempty"`
		Phone       string `json:"phone,omitempty"`
		Email       string `json:"email,omitempty"`
		Description string `json:"description,omitempty"`
	}

	Teacher struct {
		ID          string `json:"id,omitempty"`
		Name        string `json:"name"`
		Email       string `json:"email"`
		Center      string `json:"center"` // center name
		Education   string `json:"education,omitempty"`
		DateOfBirth string `json:"dateOfBirth,omitempty"`
	}

	Child struct {
		ID              string `json:"id,omitempty"`
		Name            string `json:"name"`
		DateOfBirth     string `json:"dateOfBirth,omitempty"`
		Gender          string `json:"gender,omitempty"`
		Diagnosis       string `json:"diagnosis,omitempty"`
		PrimaryLanguage string `json:"primaryLanguage,omitempty"`
		LeadTeacher     string `json:"leadTeacher,omitempty"` // teacher name
	}

	// Note is an observation written about a child.
	Note struct {
		ID        string    `json:"id,omitempty"`
		ChildID   string    `json:"childId"`
		Content   string    `json:"content"`
		Author    string    `json:"author"`
		AuthorID  string    `json:"authorId,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

// The backend identifies documents with `_id`; `id` is accepted as well.

func (c *Center) UnmarshalJSON(data []byte) error {
	type alias Center
	aux := struct {
		*alias
		ObjectID string `json:"_id"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = aux.ObjectID
	}
	return nil
}

func (t *Teacher) UnmarshalJSON(data []byte) error {
	type alias Teacher
	aux := struct {
		*alias
		ObjectID string `json:"_id"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = aux.ObjectID
	}
	t.DateOfBirth = DateOnly(t.DateOfBirth)
	return nil
}

func (c *Child) UnmarshalJSON(data []byte) error {
	type alias Child
	aux := struct {
		*alias
		ObjectID string `json:"_id"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = aux.ObjectID
	}
	c.DateOfBirth = DateOnly(c.DateOfBirth)
	return nil
}

func (n *Note) UnmarshalJSON(data []byte) error {
	type alias Note
	aux := struct {
		*alias
		ObjectID  string `json:"_id"`
		CreatedAt string `json:"createdAt"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if n.ID == "" {
		n.ID = aux.ObjectID
	}
	// a malformed timestamp is not worth dropping the note for
	n.CreatedAt, _ = time.Parse(time.RFC3339Nano, aux.CreatedAt)
	return nil
}

// Names splits the full name into first and last name, as the edit forms show them.
func (t Teacher) Names() (first, last string) { return SplitName(t.Name) }
func (c Child) Names() (first, last string)   { return SplitName(c.Name) }

// AgeInMonths of the child at `now`. ok is false when the date of birth is unknown.
func (c Child) AgeInMonths(now time.Time) (months int, ok bool) {
	return AgeInMonths(c.DateOfBirth, now)
}

// SplitName splits a full name on its first space.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// JoinName is the inverse of SplitName.
func JoinName(first, last string) string {
	return strings.TrimSpace(core.CleanString(first) + " " + core.CleanString(last))
}

// DateOnly reduces a backend timestamp (or date) to YYYY-MM-DD. Unparseable values are returned as is.
func DateOnly(s string) string {
	s = core.CleanString(s)
	if s == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC().Format(core.DateLayout)
	}
	if len(s) > len(core.DateLayout) {
		if _, err := time.Parse(core.DateLayout, s[:len(core.DateLayout)]); err == nil {
			return s[:len(core.DateLayout)]
		}
	}
	return s
}

// AgeInMonths counts whole months between dob and now. A month is only complete once its
// day-of-month is reached. Never negative.
func AgeInMonths(dob string, now time.Time) (int, bool) {
	dob = DateOnly(dob)
	if dob == "" {
		return 0, false
	}
	birth, err := time.Parse(core.DateLayout, dob)
	if err != nil {
		return 0, false
	}

	months := (now.Year()-birth.Year())*12 + int(now.Month()) - int(birth.Month())
	if now.Day() < birth.Day() {
		months--
	}
	if months < 0 {
		months = 0
	}
	return months, true
}

// AgeLabel is the age in months as shown on the child page.
func AgeLabel(dob string, now time.Time) string {
	months, ok := AgeInMonths(dob, now)
	if !ok {
		return "N/A"
	}
	return strconv.Itoa(months)
}

// ChildrenOf returns the children whose lead teacher is teacherName.
func ChildrenOf(children []Child, teacherName string) []Child {
	res := make([]Child, 0)
	for _, c := range children {
		if c.LeadTeacher == teacherName {
			res = append(res, c)
		}
	}
	return res
}

// TeachersAt returns the teachers working at the named center.
func TeachersAt(teachers []Teacher, centerName string) []Teacher {
	res := make([]Teacher, 0)
	for _, t := range teachers {
		if t.Center == centerName {
			res = append(res, t)
		}
	}
	return res
}
