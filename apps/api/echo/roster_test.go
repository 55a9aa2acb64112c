package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bainum/dashboard/core/invitation"
	"github.com/bainum/dashboard/core/roster"
	emailsvc "github.com/bainum/dashboard/services/email"
)

func TestTeacherApi(t *testing.T) {
	env := setup(t)
	sess := env.login(t, admin)

	tests := []httpTest{
		{
			name:     "list with children",
			method:   http.MethodGet,
			path:     "/teachers",
			session:  sess,
			wantCode: http.StatusOK,
			wantData: []byte(`{"teachers":[
				{"id":"t1","name":"Tess Teacher","email":"tess@example.com","center":"Main Street","education":"BA",
				 "children":[{"id":"c1","name":"Ada Lovelace","dateOfBirth":"2021-01-15","leadTeacher":"Tess Teacher"}]},
				{"id":"t2","name":"Bob Builder","email":"bob@example.com","center":"Main Street",
				 "children":[{"id":"c2","name":"Alan Turing","leadTeacher":"Bob Builder"}]}
			]}`),
		},
		{
			name:     "invalid form",
			method:   http.MethodPost,
			path:     "/teachers",
			session:  sess,
			body:     []byte(`{"firstName":"Nia","lastName":" ","email":"nia@example.com","education":"MA","dateOfBirth":"2999-01-01","center":"Main Street"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"lastName":"this field is required","dateOfBirth":"date cannot be in the future"}`),
		},
		{
			name:     "create",
			method:   http.MethodPost,
			path:     "/teachers",
			session:  sess,
			body:     []byte(`{"firstName":"Nia","lastName":"New","email":"NIA@example.com","education":"MA","dateOfBirth":"1990-04-02","center":"Main Street"}`),
			wantCode: http.StatusCreated,
			wantData: []byte(`{"teacher":{"id":"t101","name":"Nia New","email":"nia@example.com","center":"Main Street","education":"MA","dateOfBirth":"1990-04-02"}}`),
		},
		{
			name:     "retrieve with form",
			method:   http.MethodGet,
			path:     "/teachers/t101",
			session:  sess,
			wantCode: http.StatusOK,
			wantData: []byte(`{
				"teacher":{"id":"t101","name":"Nia New","email":"nia@example.com","center":"Main Street","education":"MA","dateOfBirth":"1990-04-02"},
				"form":{"firstName":"Nia","lastName":"New","email":"nia@example.com","education":"MA","dateOfBirth":"1990-04-02","center":"Main Street"}
			}`),
		},
		{
			name:     "update",
			method:   http.MethodPut,
			path:     "/teachers/t101",
			session:  sess,
			body:     []byte(`{"firstName":"Nia","lastName":"Newer","email":"nia@example.com","education":"PhD","dateOfBirth":"1990-04-02","center":"Main Street"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"teacher":{"id":"t101","name":"Nia Newer","email":"nia@example.com","center":"Main Street","education":"PhD","dateOfBirth":"1990-04-02"}}`),
		},
		{
			name:     "delete",
			method:   http.MethodDelete,
			path:     "/teachers/t101",
			session:  sess,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "not found",
			method:   http.MethodGet,
			path:     "/teachers/t101",
			session:  sess,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Teacher not found"}),
		},
	}
	runHTTPTests(t, env, tests)
}

func TestTeacherApi_invite(t *testing.T) {
	t.Run("delivered by the backend", func(t *testing.T) {
		env := setup(t)
		sess := env.login(t, admin)
		env.backend.sendResp = invitation.SendResponse{Message: "Invitation sent", Invitation: invitation.Invitation{ID: "i1", Email: "tess@example.com"}}

		rec := env.do(newAuthRequest(http.MethodPost, "/teachers/t1/invite", sess, []byte(`{"email":"tess@example.com"}`)))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusCreated,
			wantData: []byte(`{"invitation":{"id":"i1","email":"tess@example.com"},"emailedByDashboard":false,"manualShare":false}`),
		}, rec)
		assert.Contains(t, env.backend.Calls(), "inviteTeacher:tess@example.com:Tess:Teacher")
		_, sent := emailsvc.LastSentMessage()
		assert.False(t, sent)
	})

	t.Run("backend could not e-mail", func(t *testing.T) {
		env := setup(t)
		sess := env.login(t, admin)
		env.backend.sendResp = invitation.SendResponse{
			Warning:    "Email could not be sent",
			Invitation: invitation.Invitation{Email: "tess@example.com", Token: "tok1"},
		}

		rec := env.do(newAuthRequest(http.MethodPost, "/teachers/t1/invite", sess, []byte(`{"email":"tess@example.com"}`)))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusCreated,
			wantData: []byte(`{
				"invitation":{"email":"tess@example.com","token":"tok1"},
				"warning":"Email could not be sent",
				"invitationLink":"http://dash.test/teacher/register?token=tok1",
				"emailedByDashboard":true,
				"manualShare":true
			}`),
		}, rec)

		msg, sent := emailsvc.LastSentMessage()
		require.True(t, sent)
		assert.Equal(t, "tess@example.com", msg.To[0].Address)
		assert.Contains(t, msg.TextContent, "http://dash.test/teacher/register?token=tok1")
	})

	t.Run("backend failure without link", func(t *testing.T) {
		env := setup(t)
		sess := env.login(t, admin)
		env.backend.sendErr = backendErr(http.StatusInternalServerError, "")

		rec := env.do(newAuthRequest(http.MethodPost, "/teachers/t1/invite", sess, []byte(`{"email":"tess@example.com"}`)))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadGateway,
			wantData: marchallObj(t, httpErr{Error: "The service is temporarily unavailable, please try again"}),
		}, rec)
	})

	t.Run("invalid email", func(t *testing.T) {
		env := setup(t)
		sess := env.login(t, admin)

		rec := env.do(newAuthRequest(http.MethodPost, "/teachers/t1/invite", sess, []byte(`{"email":"tess"}`)))
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: []byte(`{"email":"enter a valid email address"}`)}, rec)
		assert.Empty(t, env.backend.Calls())
	})
}

func TestCenterApi(t *testing.T) {
	env := setup(t)
	sess := env.login(t, admin)

	tests := []httpTest{
		{
			name:     "list with teachers",
			method:   http.MethodGet,
			path:     "/centers",
			session:  sess,
			wantCode: http.StatusOK,
			wantData: []byte(`{"centers":[{"id":"m1","name":"Main Street","teachers":[
				{"id":"t1","name":"Tess Teacher","email":"tess@example.com","center":"Main Street","education":"BA"},
				{"id":"t2","name":"Bob Builder","email":"bob@example.com","center":"Main Street"}
			]}]}`),
		},
		{
			name:     "invalid form",
			method:   http.MethodPost,
			path:     "/centers",
			session:  sess,
			body:     []byte(`{"name":"","email":"front-desk"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"name":"this field is required","email":"enter a valid email address"}`),
		},
		{
			name:     "create",
			method:   http.MethodPost,
			path:     "/centers",
			session:  sess,
			body:     []byte(`{"name":" Oak Grove ","phone":"555-0100","email":""}`),
			wantCode: http.StatusCreated,
			wantData: []byte(`{"center":{"id":"m101","name":"Oak Grove","phone":"555-0100"}}`),
		},
		{
			name:     "update",
			method:   http.MethodPut,
			path:     "/centers/m101",
			session:  sess,
			body:     []byte(`{"name":"Oak Grove","address":"1 Oak St","email":"OAK@example.com"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"center":{"id":"m101","name":"Oak Grove","address":"1 Oak St","email":"oak@example.com"}}`),
		},
		{
			name:     "retrieve with form",
			method:   http.MethodGet,
			path:     "/centers/m101",
			session:  sess,
			wantCode: http.StatusOK,
			wantData: []byte(`{
				"center":{"id":"m101","name":"Oak Grove","address":"1 Oak St","email":"oak@example.com"},
				"form":{"name":"Oak Grove","address":"1 Oak St","phone":"","email":"oak@example.com","description":""}
			}`),
		},
		{
			name:     "delete",
			method:   http.MethodDelete,
			path:     "/centers/m101",
			session:  sess,
			wantCode: http.StatusNoContent,
		},
	}
	runHTTPTests(t, env, tests)
}

func TestChildrenApi_data(t *testing.T) {
	env := setup(t)

	decode := func(t *testing.T, rec []byte) roster.DataView {
		var view roster.DataView
		require.NoError(t, json.Unmarshal(rec, &view))
		return view
	}
	ids := func(children []roster.Child) []string {
		res := make([]string, 0, len(children))
		for _, c := range children {
			res = append(res, c.ID)
		}
		return res
	}

	tests := []struct {
		name         string
		sess         string
		path         string
		wantSelected string
		wantIDs      []string
	}{
		{name: "teacher sees their children", sess: env.login(t, teacher), path: "/data", wantSelected: "Tess Teacher", wantIDs: []string{"c1"}},
		{name: "teacher may pick another teacher", sess: env.login(t, teacher), path: "/data?teacher=Bob+Builder", wantSelected: "Bob Builder", wantIDs: []string{"c2"}},
		{name: "admin sees everyone", sess: env.login(t, admin), path: "/data", wantIDs: []string{"c1", "c2"}},
		{name: "admin filter", sess: env.login(t, admin), path: "/data?teacher=Tess%20Teacher", wantSelected: "Tess Teacher", wantIDs: []string{"c1"}},
		{name: "unknown teacher", sess: env.login(t, admin), path: "/data?teacher=Nobody", wantSelected: "Nobody", wantIDs: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(newAuthRequest(http.MethodGet, tt.path, tt.sess))
			require.Equal(t, http.StatusOK, rec.Code)
			view := decode(t, rec.Body.Bytes())
			assert.Equal(t, tt.wantSelected, view.SelectedTeacher)
			assert.Equal(t, tt.wantIDs, ids(view.Filtered))
			assert.Len(t, view.Teachers, 2)
			assert.Len(t, view.Children, 2)
		})
	}
}

func TestChildrenApi(t *testing.T) {
	env := setup(t)
	sess := env.login(t, teacher)

	tests := []httpTest{
		{
			name:     "choices",
			method:   http.MethodGet,
			path:     "/children/choices",
			session:  sess,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string][]string{
				"genders":   roster.Genders,
				"diagnoses": roster.Diagnoses,
				"languages": roster.Languages,
			}),
		},
		{
			name:     "invalid choices",
			method:   http.MethodPost,
			path:     "/children",
			session:  sess,
			body:     []byte(`{"firstName":"Grace","lastName":"Hopper","dateOfBirth":"2021-13-01","gender":"Other","diagnosis":"Maybe","primaryLanguage":"Klingon","leadTeacher":"Tess Teacher"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{
				"dateOfBirth":"enter a valid date (YYYY-MM-DD)",
				"gender":"select a valid gender",
				"diagnosis":"select Yes or No",
				"primaryLanguage":"select a valid language"
			}`),
		},
		{
			name:     "create",
			method:   http.MethodPost,
			path:     "/children",
			session:  sess,
			body:     []byte(`{"firstName":"Grace","lastName":"Hopper","dateOfBirth":"2021-12-09","gender":"Female","diagnosis":"No","primaryLanguage":"English","leadTeacher":"Tess Teacher"}`),
			wantCode: http.StatusCreated,
			wantData: []byte(`{"child":{"id":"c101","name":"Grace Hopper","dateOfBirth":"2021-12-09","gender":"Female","diagnosis":"No","primaryLanguage":"English","leadTeacher":"Tess Teacher"}}`),
		},
		{
			name:     "retrieve with form",
			method:   http.MethodGet,
			path:     "/children/c101",
			session:  sess,
			wantCode: http.StatusOK,
			wantData: []byte(`{
				"child":{"id":"c101","name":"Grace Hopper","dateOfBirth":"2021-12-09","gender":"Female","diagnosis":"No","primaryLanguage":"English","leadTeacher":"Tess Teacher"},
				"form":{"firstName":"Grace","lastName":"Hopper","dateOfBirth":"2021-12-09","gender":"Female","diagnosis":"No","primaryLanguage":"English","leadTeacher":"Tess Teacher"}
			}`),
		},
		{
			name:     "update",
			method:   http.MethodPut,
			path:     "/children/c101",
			session:  sess,
			body:     []byte(`{"firstName":"Grace","lastName":"Hopper","dateOfBirth":"2021-12-09","gender":"Female","diagnosis":"Yes","primaryLanguage":"Spanish","leadTeacher":"Bob Builder"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"child":{"id":"c101","name":"Grace Hopper","dateOfBirth":"2021-12-09","gender":"Female","diagnosis":"Yes","primaryLanguage":"Spanish","leadTeacher":"Bob Builder"}}`),
		},
	}
	runHTTPTests(t, env, tests)
}

func TestChildrenApi_invite(t *testing.T) {
	env := setup(t)
	sess := env.login(t, teacher)
	env.backend.sendErr = backendErr(http.StatusInternalServerError, "Failed to send email")
	env.backend.sendResp = invitation.SendResponse{
		Message:        "Failed to send email",
		InvitationLink: "http://dash.test/parent/register?token=p-tok",
	}

	rec := env.do(newAuthRequest(http.MethodPost, "/children/c1/invite", sess, []byte(`{"email":"Pat@Example.com"}`)))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusCreated,
		wantData: []byte(`{
			"invitation":{"email":""},
			"invitationLink":"http://dash.test/parent/register?token=p-tok",
			"emailedByDashboard":true,
			"manualShare":true
		}`),
	}, rec)
	assert.Contains(t, env.backend.Calls(), "inviteParent:pat@example.com:c1")

	msg, sent := emailsvc.LastSentMessage()
	require.True(t, sent)
	assert.Equal(t, "pat@example.com", msg.To[0].Address)
	assert.Contains(t, msg.TextContent, "Ada Lovelace")
}
