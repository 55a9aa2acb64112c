// Package storagetest holds the behaviour every session.Repository must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/bainum/dashboard/core/session"
	"github.com/bainum/dashboard/core/user"
)

func newRecord(usr user.Record, createdAt time.Time) session.Record {
	return session.Record{
		ID:        uuid.NewString(),
		Token:     "token-" + usr.ID,
		Claims:    usr,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(time.Hour),
	}
}

func ids(recs []session.Record) []string {
	res := make([]string, 0, len(recs))
	for _, rec := range recs {
		res = append(res, rec.ID)
	}
	return res
}

func assertRecordEqual(t *testing.T, want, got session.Record) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Token, got.Token)
	assert.Equal(t, want.Claims, got.Claims)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "createdAt = %v; want %v", got.CreatedAt, want.CreatedAt)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt), "expiresAt = %v; want %v", got.ExpiresAt, want.ExpiresAt)
}

// RunSessionRepositoryTests runs the shared checks against an empty repository.
func RunSessionRepositoryTests(t *testing.T, repo session.Repository) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	teacher := newRecord(user.Record{ID: "t1", Name: "Tess Teacher", Email: "tess@example.com", Role: user.RoleTeacher}, now.Add(-time.Minute))
	parent := newRecord(user.Record{ID: "p1", Name: "Pat Parent", Role: user.RoleParent, ChildID: null.StringFrom("c1")}, now)

	t.Run("get unknown", func(t *testing.T) {
		_, err := repo.GetSession(ctx, uuid.NewString())
		assert.Equal(t, session.ErrNotFound, errors.Cause(err))
	})

	t.Run("save and get", func(t *testing.T) {
		for _, rec := range []session.Record{teacher, parent} {
			require.NoError(t, repo.SaveSession(ctx, rec))
			got, err := repo.GetSession(ctx, rec.ID)
			require.NoError(t, err)
			assertRecordEqual(t, rec, got)
		}
	})

	t.Run("save replaces", func(t *testing.T) {
		updated := teacher
		updated.Token = "token-t1-refreshed"
		require.NoError(t, repo.SaveSession(ctx, updated))

		got, err := repo.GetSession(ctx, teacher.ID)
		require.NoError(t, err)
		assert.Equal(t, "token-t1-refreshed", got.Token)
	})

	t.Run("list", func(t *testing.T) {
		recs, err := repo.ListSessions(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{teacher.ID, parent.ID}, ids(recs))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteSession(ctx, teacher.ID))
		require.NoError(t, repo.DeleteSession(ctx, uuid.NewString()))

		_, err := repo.GetSession(ctx, teacher.ID)
		assert.Equal(t, session.ErrNotFound, errors.Cause(err))

		recs, err := repo.ListSessions(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{parent.ID}, ids(recs))
	})
}
