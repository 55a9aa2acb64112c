package backendsvc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/assessment"
	"github.com/bainum/dashboard/core/invitation"
	"github.com/bainum/dashboard/core/roster"
	"github.com/bainum/dashboard/core/session"
	"github.com/bainum/dashboard/core/user"
)

type received struct {
	method string
	path   string
	auth   string
	body   []byte
	req    *http.Request
}

// newTestClient serves every request with handler and records the last one.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *received) {
	t.Helper()
	last := new(received)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last.method = r.Method
		last.path = r.URL.Path
		last.auth = r.Header.Get("Authorization")
		last.req = r
		if r.Header.Get("Content-Type") == "application/json" {
			last.body, _ = io.ReadAll(r.Body)
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	conf := &core.Config{AppName: "dashboard", Build: "test"}
	conf.Backend.BaseURL = srv.URL
	conf.Backend.Timeout = time.Second
	conf.Backend.UploadTimeout = 2 * time.Second
	return NewClient(conf), last
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func withToken(token string) context.Context {
	return session.NewContext(context.Background(), &session.Session{ID: "s1", Token: token})
}

func TestClient_bearerToken(t *testing.T) {
	client, last := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"centers":[{"_id":"m1","name":"Main"}]}`)
	})

	centers, err := client.ListCenters(withToken("tok"))
	require.NoError(t, err)
	assert.Equal(t, []roster.Center{{ID: "m1", Name: "Main"}}, centers)
	assert.Equal(t, "Bearer tok", last.auth)
	assert.Equal(t, "/api/centers", last.path)

	_, err = client.ListCenters(context.Background())
	require.NoError(t, err)
	assert.Empty(t, last.auth)
}

func TestClient_errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		check       func(error) bool
	}{
		{name: "message", status: http.StatusForbidden, body: `{"message":"Access denied"}`, wantMessage: "Access denied", check: IsForbidden},
		{name: "error key", status: http.StatusUnauthorized, body: `{"error":"Token expired"}`, wantMessage: "Token expired", check: IsUnauthorized},
		{name: "not json", status: http.StatusNotFound, body: `Not Found`, check: IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			_, err := client.GetChild(context.Background(), "c1")
			require.Error(t, err)
			assert.True(t, tt.check(err))
			assert.Equal(t, tt.status, StatusCode(err))

			var bErr *Error
			require.True(t, errors.As(err, &bErr))
			assert.Equal(t, tt.wantMessage, bErr.ServerMessage())
		})
	}

	assert.Equal(t, 0, StatusCode(errors.New("boom")))
}

func TestClient_Login(t *testing.T) {
	token, err := user.NewToken(user.ClaimsFor(user.Record{ID: "p1", Role: user.RoleParent}, jwt.StandardClaims{}), "k")
	require.NoError(t, err)

	tests := []struct {
		name     string
		body     string
		wantUser *user.Record
		wantErr  error
	}{
		{name: "token as user", body: `{"user":"` + token + `"}`},
		{
			name:     "typed claims",
			body:     `{"token":"` + token + `","user":{"_id":"p1","name":"Pat","role":"parent","childId":"c1"}}`,
			wantUser: &user.Record{ID: "p1", Name: "Pat", Role: user.RoleParent, ChildID: nullString("c1")},
		},
		{name: "no token", body: `{"user":{"_id":"p1"}}`, wantErr: ErrNoToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, last := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			})
			res, err := client.Login(context.Background(), user.LoginRequest{Email: "pat@example.com", Password: "secret"})
			assert.Equal(t, "/api/auth/login", last.path)
			assert.JSONEq(t, `{"email":"pat@example.com","password":"secret"}`, string(last.body))
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, token, res.Token)
			assert.Equal(t, tt.wantUser, res.User)
		})
	}
}

func TestClient_RegisterTeacher(t *testing.T) {
	client, last := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"user":"a.b.c"}`)
	})
	res, err := client.RegisterTeacher(context.Background(), user.TeacherRegistration{InvitationToken: "inv", Password: "pwd123", ConfirmPassword: "pwd123"})
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", res.Token)
	assert.Equal(t, "/api/auth/register-teacher", last.path)
	assert.JSONEq(t, `{"password":"pwd123","invitationToken":"inv"}`, string(last.body))
}

func TestClient_ChildNotes_notFound(t *testing.T) {
	client, last := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"message":"No notes found"}`)
	})
	notes, err := client.ChildNotes(context.Background(), "c 1")
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.NotNil(t, notes)
	assert.Equal(t, "/api/notes/child/c 1", last.path)
}

func TestClient_CreateNote(t *testing.T) {
	client, last := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"note":{"_id":"n1","childId":"c1","content":"hi","author":"Tess"}}`)
	})
	note, err := client.CreateNote(context.Background(), roster.Note{ChildID: "c1", Content: "hi", Author: "Tess", AuthorID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "n1", note.ID)
	assert.JSONEq(t, `{"childId":"c1","content":"hi","author":"Tess","authorId":"t1"}`, string(last.body))
}

func TestClient_LatestAssessment(t *testing.T) {
	status, body := http.StatusNotFound, `{"message":"No assessments found"}`
	client, last := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, body)
	})

	latest, err := client.LatestAssessment(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, latest)
	assert.Equal(t, "/api/assessments/child/c1/latest", last.path)

	status, body = http.StatusOK, `{"assessment":{"_id":"a1","scienceTalk":"12.5","keywordCounts":{"science":3}}}`
	latest, err = client.LatestAssessment(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "a1", latest.ID)
	assert.Equal(t, assessment.Score(12.5), latest.ScienceTalk)

	status, body = http.StatusOK, `{"message":"No assessment yet"}`
	latest, err = client.LatestAssessment(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	status, body = http.StatusInternalServerError, `{"message":"db down"}`
	_, err = client.LatestAssessment(context.Background(), "c1")
	assert.Error(t, err)
}

func TestClient_ChildAssessments_tolerant(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"assessments":[
			{"_id":"a1","date":"2024-01-10","keywordCounts":{"science":5}},
			{"_id":{"$oid":"a2"},"date":"2024-01-11","keywordCounts":"n/a"},
			"garbage",
			{"_id":"a3","date":"2024-02-01","keywordCounts":{"science":1e300}}
		]}`)
	})

	all, err := client.ChildAssessments(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a2", all[1].ID)
	assert.Nil(t, all[1].KeywordCounts)

	buckets := assessment.MonthlyKeywordCounts(all)
	assert.Equal(t, 5, buckets[0].Science)
	assert.True(t, buckets[1].Science > 0)
}

func TestEnvelope_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantID string
		wantOK bool
	}{
		{name: "wrapped", body: `{"message":"ok","child":{"_id":"c1"}}`, wantID: "c1", wantOK: true},
		{name: "bare", body: `{"_id":"c1","firstName":"Ada"}`, wantID: "c1", wantOK: true},
		{name: "null", body: `{"child":null}`},
		{name: "status only", body: `{"message":"none","success":true}`},
		{name: "empty", body: `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var child *roster.Child
			require.NoError(t, json.Unmarshal([]byte(tt.body), &envelope{key: "child", value: &child}))
			if !tt.wantOK {
				assert.Nil(t, child)
				return
			}
			require.NotNil(t, child)
			assert.Equal(t, tt.wantID, child.ID)
		})
	}
}

func TestClient_Transcribe(t *testing.T) {
	client, last := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, fh, err := r.FormFile("audio")
		require.NoError(t, err)
		content, _ := io.ReadAll(f)
		assert.Equal(t, `frog "pond".mp3`, fh.Filename)
		assert.Equal(t, "audio/mpeg", fh.Header.Get("Content-Type"))
		assert.Equal(t, "ID3 audio", string(content))
		assert.Equal(t, "c1", r.FormValue("childId"))
		assert.Equal(t, "Tess", r.FormValue("uploadedBy"))
		assert.Equal(t, "2024-06-01", r.FormValue("recordingDate"))
		writeJSON(w, http.StatusOK, `{"transcript":"we saw a frog","assessment":{"childId":"c1","scienceTalk":10}}`)
	})

	tr, err := client.Transcribe(withToken("tok"), assessment.TranscribeRequest{
		Audio:         assessment.AudioFile{Name: `frog "pond".mp3`, ContentType: "audio/mpeg", Content: []byte("ID3 audio")},
		ChildID:       "c1",
		UploadedBy:    "Tess",
		RecordingDate: "2024-06-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "/api/whisper", last.path)
	assert.Equal(t, "Bearer tok", last.auth)
	assert.Equal(t, "we saw a frog", tr.Transcript)
	require.NotNil(t, tr.Assessment)
	assert.Equal(t, assessment.Score(10), tr.Assessment.ScienceTalk)
}

func TestClient_AcceptAssessment_sendsRaw(t *testing.T) {
	raw := `{"childId":"c1","transcript":"t","extra":{"kept":true},"scienceTalk":10}`
	client, last := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"message":"saved","assessment":{"_id":"a9"}}`)
	})

	var pending assessment.Assessment
	require.NoError(t, json.Unmarshal([]byte(raw), &pending))
	saved, err := client.AcceptAssessment(context.Background(), pending)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "a9", saved.ID)
	assert.JSONEq(t, raw, string(last.body))
}

func TestClient_AcceptAssessment_noEcho(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"message":"saved"}`)
	})

	saved, err := client.AcceptAssessment(context.Background(), assessment.Assessment{ChildID: "c1"})
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestClient_uploadTimeout(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer close(release)
	client.uploadTimeout = 50 * time.Millisecond

	_, err := client.Transcribe(context.Background(), assessment.TranscribeRequest{Audio: assessment.AudioFile{Name: "a.mp3", Content: []byte("x")}})
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
}

func TestClient_SendParentInvitation(t *testing.T) {
	client, last := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"message":"Failed to send email","invitationLink":"http://x/parent/register?token=abc"}`)
	})

	resp, err := client.SendParentInvitation(context.Background(), invitation.ParentInvitationRequest{Email: "pat@example.com", ChildID: "c1"})
	require.Error(t, err)
	assert.Equal(t, "/api/invitations/send", last.path)
	assert.Equal(t, "http://x/parent/register?token=abc", resp.InvitationLink)
	assert.True(t, resp.Undelivered())
}

func TestClient_VerifyTeacherInvitation(t *testing.T) {
	client, last := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"valid":true,"invitation":{"email":"tess@example.com","firstName":"Tess"}}`)
	})
	v, err := client.VerifyTeacherInvitation(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, "Tess", v.Invitation.FirstName)
	assert.Equal(t, "/api/teacher-invitations/verify/abc", last.path)
}

func nullString(s string) null.String { return null.StringFrom(s) }
