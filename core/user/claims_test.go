package user

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"
)

func TestParseToken(t *testing.T) {
	secret := "secret"
	parent := Record{ID: "u1", Name: "Pat", Email: "pat@test.org", Role: RoleParent, ChildID: null.StringFrom("c1")}
	future := jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()}
	past := jwt.StandardClaims{ExpiresAt: time.Now().Add(-time.Hour).Unix()}

	mint := func(usr Record, std jwt.StandardClaims, key string) string {
		token, err := NewToken(ClaimsFor(usr, std), key)
		if err != nil {
			t.Fatalf("NewToken(): %v", err)
		}
		return token
	}

	tests := []struct {
		name    string
		token   string
		key     string
		want    Record
		wantErr bool
	}{
		{name: "empty token", token: "", wantErr: true},
		{name: "garbage", token: "not.a.jwt", wantErr: true},
		{name: "verified", token: mint(parent, future, secret), key: secret, want: parent},
		{name: "bad signature", token: mint(parent, future, "other"), key: secret, wantErr: true},
		{name: "unverified decode", token: mint(parent, future, "other"), want: parent},
		{name: "expired", token: mint(parent, past, secret), key: secret, wantErr: true},
		{name: "expired unverified", token: mint(parent, past, secret), wantErr: true},
		{name: "unknown role", token: mint(Record{ID: "u2", Role: "janitor"}, future, secret), key: secret, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseToken(tt.token, tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, ErrInvalidToken, errors.Cause(err))
				return
			}
			if assert.NoError(t, err) {
				assert.Equal(t, tt.want, claims.Record())
			}
		})
	}
}

func TestClaims_Record(t *testing.T) {
	assert.Equal(t, "sub", Claims{StandardClaims: jwt.StandardClaims{Subject: "sub"}}.Record().ID)
	assert.Equal(t, "oid", Claims{ObjectID: "oid", StandardClaims: jwt.StandardClaims{Subject: "sub"}}.Record().ID)
	assert.Equal(t, "id", Claims{UserID: "id", ObjectID: "oid"}.Record().ID)
}

func TestVerifyClaims(t *testing.T) {
	secret := "secret"
	teacher := Record{ID: "t1", Name: "Tess", Role: RoleTeacher}
	token, err := NewToken(ClaimsFor(teacher, jwt.StandardClaims{}), secret)
	if err != nil {
		t.Fatalf("NewToken(): %v", err)
	}

	got, err := VerifyClaims(token, secret, Record{ID: "t1", Role: RoleTeacher})
	assert.NoError(t, err)
	assert.Equal(t, teacher, got)

	_, err = VerifyClaims(token, secret, Record{ID: "t1", Role: RoleAdmin})
	assert.Equal(t, ErrClaimsMismatch, err)

	_, err = VerifyClaims(token, secret, Record{ID: "t2"})
	assert.Equal(t, ErrClaimsMismatch, err)

	_, err = VerifyClaims(token, secret, Record{ChildID: null.StringFrom("c9")})
	assert.Equal(t, ErrClaimsMismatch, err)
}

func TestRecord_LandingPath(t *testing.T) {
	tests := []struct {
		name string
		usr  Record
		want string
	}{
		{name: "parent with child", usr: Record{Role: RoleParent, ChildID: null.StringFrom("c1")}, want: "/data/child/c1"},
		{name: "parent without child", usr: Record{Role: RoleParent}, want: "/home"},
		{name: "parent with blank child", usr: Record{Role: RoleParent, ChildID: null.StringFrom("")}, want: "/home"},
		{name: "admin", usr: Record{Role: RoleAdmin}, want: "/home"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.usr.LandingPath())
		})
	}
}
