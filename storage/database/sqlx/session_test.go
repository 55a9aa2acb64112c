package sqlxrepos

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/session"
	"github.com/bainum/dashboard/storage/database"
	"github.com/bainum/dashboard/storage/storagetest"
)

// testConf points at the database named by TEST_DATABASE_*.
func testConf(t *testing.T) *core.Config {
	t.Helper()
	host := os.Getenv("TEST_DATABASE_HOST")
	if host == "" {
		t.Skip("TEST_DATABASE_HOST not set")
	}
	conf := &core.Config{TestMode: true}
	conf.Database = core.DatabaseConfig{
		Engine:        "postgres",
		Host:          host,
		Port:          "5432",
		Name:          "bainum_test",
		User:          os.Getenv("TEST_DATABASE_USER"),
		Password:      os.Getenv("TEST_DATABASE_PASSWORD"),
		AdminUser:     os.Getenv("TEST_DATABASE_ADMIN_USER"),
		AdminPassword: os.Getenv("TEST_DATABASE_ADMIN_PASSWORD"),
		DisableTLS:    true,
	}
	return conf
}

func TestSessionRepository(t *testing.T) {
	conf := testConf(t)
	require.NoError(t, database.CreateIfNotExist(conf))

	db, err := database.Open(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db.DB))
	_, err = db.Exec(`TRUNCATE dashboard_session`)
	require.NoError(t, err)

	storagetest.RunSessionRepositoryTests(t, NewSessionRepository(db))
}

func TestSessionRepository_nonUUID(t *testing.T) {
	repo := NewSessionRepository(nil)

	ctx := context.Background()

	// rejected before any query, so no connection is needed
	_, err := repo.GetSession(ctx, "not-a-uuid")
	assert.Equal(t, session.ErrNotFound, err)
	assert.NoError(t, repo.DeleteSession(ctx, "not-a-uuid"))
}
