package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bainum/dashboard/core/session"
	"github.com/bainum/dashboard/core/user"
	inmemdb "github.com/bainum/dashboard/storage/database/inmem"
)

func TestGate(t *testing.T) {
	env := setup(t)
	adminSess := env.login(t, admin)
	teacherSess := env.login(t, teacher)
	parentSess := env.login(t, parent)
	orphanSess := env.login(t, user.Record{ID: "p9", Name: "Olly Orphan", Role: user.RoleParent})

	tests := []httpTest{
		{
			name:     "anonymous is sent to login",
			method:   http.MethodGet,
			path:     "/home",
			wantCode: http.StatusSeeOther,
			wantPath: "/",
		},
		{
			name:     "unknown session is sent to login",
			method:   http.MethodGet,
			path:     "/teachers",
			session:  "f47ac10b-58cc-4372-a567-0e02b2c3d479",
			wantCode: http.StatusSeeOther,
			wantPath: "/",
		},
		{
			name:     "parent is sent to their child page",
			method:   http.MethodGet,
			path:     "/home",
			session:  parentSess,
			wantCode: http.StatusSeeOther,
			wantPath: "/data/child/c1",
		},
		{
			name:     "parent without child renders home",
			method:   http.MethodGet,
			path:     "/home",
			session:  orphanSess,
			wantCode: http.StatusOK,
			wantData: []byte(`{"greeting":"Welcome, Olly Orphan","role":"Parent","links":[]}`),
		},
		{
			name:     "teacher home",
			method:   http.MethodGet,
			path:     "/home",
			session:  teacherSess,
			wantCode: http.StatusOK,
			wantData: []byte(`{"greeting":"Welcome, Tess Teacher","role":"Teacher","links":[{"label":"Data","href":"/data"}]}`),
		},
		{
			name:     "admin home",
			method:   http.MethodGet,
			path:     "/home",
			session:  adminSess,
			wantCode: http.StatusOK,
			wantData: []byte(`{"greeting":"Welcome, Ann Admin","role":"Administrator","links":[
				{"label":"Teachers","href":"/teachers"},{"label":"Centers","href":"/centers"},{"label":"Data","href":"/data"}
			]}`),
		},
		{
			name:     "teacher lacks the admin role",
			method:   http.MethodGet,
			path:     "/teachers",
			session:  teacherSess,
			wantCode: http.StatusForbidden,
			wantData: []byte(`{
				"error":"You don't have permission to access this page.",
				"requiredRole":"admin",
				"actions":[{"label":"Go Back","back":true},{"label":"Go Home","href":"/home"}]
			}`),
		},
		{
			name:     "parent is excluded from the data page",
			method:   http.MethodGet,
			path:     "/data",
			session:  parentSess,
			wantCode: http.StatusForbidden,
			wantData: []byte(`{
				"error":"This page is not available for your role.",
				"actions":[{"label":"Go to Child's Page","href":"/data/child/c1"}]
			}`),
		},
		{
			name:     "parent without child is excluded with back only",
			method:   http.MethodPost,
			path:     "/children",
			session:  orphanSess,
			wantCode: http.StatusForbidden,
			wantData: []byte(`{"error":"This page is not available for your role.","actions":[{"label":"Go Back","back":true}]}`),
		},
		{
			name:     "parent is kept on their own child",
			method:   http.MethodGet,
			path:     "/data/child/c2",
			session:  parentSess,
			wantCode: http.StatusSeeOther,
			wantPath: "/data/child/c1",
		},
		{
			name:     "parent child sub-routes are guarded too",
			method:   http.MethodGet,
			path:     "/data/child/c2/notes",
			session:  parentSess,
			wantCode: http.StatusSeeOther,
			wantPath: "/data/child/c1",
		},
		{
			name:     "anonymous child page",
			method:   http.MethodGet,
			path:     "/data/child/c1",
			wantCode: http.StatusSeeOther,
			wantPath: "/",
		},
	}
	runHTTPTests(t, env, tests)
}

func TestGate_clearsStaleCookie(t *testing.T) {
	env := setup(t)
	sess := env.login(t, teacher)
	require.NoError(t, env.sessions.Logout(context.Background(), sess))

	rec := env.do(newAuthRequest(http.MethodGet, "/data", sess))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

// blockingRepo holds the initial restore until released.
type blockingRepo struct {
	session.Repository
	started chan struct{}
	release chan struct{}
}

func (r *blockingRepo) ListSessions(ctx context.Context) ([]session.Record, error) {
	close(r.started)
	<-r.release
	return r.Repository.ListSessions(ctx)
}

func TestGate_loading(t *testing.T) {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	repo := &blockingRepo{
		Repository: inmemdb.NewSessionRepository(db),
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	env := setup(t, repo)

	done := make(chan error)
	go func() { done <- env.sessions.Init(context.Background()) }()
	<-repo.started

	rec := env.do(newAuthRequest(http.MethodGet, "/home", "some-session"))
	checkCodeAndData(t, httpTest{wantCode: http.StatusServiceUnavailable, wantData: []byte(`{"loading":true}`)}, rec)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	rec = env.do(newAuthRequest(http.MethodGet, "/data/child/c1", "some-session"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = env.do(newRequest(http.MethodGet, "/health"))
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"status":"loading","build":"test","sessions":0}`)}, rec)

	close(repo.release)
	require.NoError(t, <-done)

	rec = env.do(newAuthRequest(http.MethodGet, "/home", "some-session"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}
