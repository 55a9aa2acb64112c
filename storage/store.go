// Package storage opens the configured session store.
package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/session"
	"github.com/bainum/dashboard/storage/database"
	inmemdb "github.com/bainum/dashboard/storage/database/inmem"
	sqlxrepos "github.com/bainum/dashboard/storage/database/sqlx"
	redisdb "github.com/bainum/dashboard/storage/redis"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// SessionStore is the configured session repository and the connection behind it.
type SessionStore struct {
	Kind     string
	Sessions session.Repository
	// DB is only set for the postgres store.
	DB *sql.DB

	close func() error
}

// Persistent reports whether sessions outlive the process.
func (s SessionStore) Persistent() bool { return s.Kind != StoreMemory }

func (s SessionStore) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenSessionStore opens the store named by conf.Session.Store. The postgres store is created and
// migrated when needed.
func OpenSessionStore(ctx context.Context, conf *core.Config) (SessionStore, error) {
	switch conf.Session.Store {
	case "", StoreMemory, "inmem":
		db, err := inmemdb.Open()
		if err != nil {
			return SessionStore{}, err
		}
		return SessionStore{Kind: StoreMemory, Sessions: inmemdb.NewSessionRepository(db)}, nil

	case StoreRedis:
		client, err := redisdb.Open(ctx, conf)
		if err != nil {
			return SessionStore{}, err
		}
		return SessionStore{
			Kind:     StoreRedis,
			Sessions: redisdb.NewSessionRepository(client),
			close:    client.Close,
		}, nil

	case StorePostgres:
		if err := database.CreateIfNotExist(conf); err != nil {
			return SessionStore{}, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return SessionStore{}, err
		}
		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return SessionStore{}, err
		}
		return SessionStore{
			Kind:     StorePostgres,
			Sessions: sqlxrepos.NewSessionRepository(db),
			DB:       db.DB,
			close:    db.Close,
		}, nil
	}
	return SessionStore{}, errors.Errorf("unknown session store %q", conf.Session.Store)
}
