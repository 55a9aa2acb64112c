// Package redisdb stores sessions in Redis so several dashboard instances can share them.
package redisdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/session"
)

const (
	sessionKeyPrefix = "dashboard:session:"
	sessionIndexKey  = "dashboard:sessions"
)

func sessionKey(id string) string { return sessionKeyPrefix + id }

// Open connects to Redis and waits up to 5s for it to answer.
func Open(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return client, nil
}

type sessionRepository struct {
	client *redis.Client
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(client *redis.Client) session.Repository {
	return &sessionRepository{client: client}
}

func (repo *sessionRepository) SaveSession(ctx context.Context, rec session.Record) error {
	var ttl time.Duration
	if !rec.ExpiresAt.IsZero() {
		if ttl = rec.ExpiresAt.Sub(core.NowFunc()); ttl <= 0 {
			return nil // already expired
		}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}

	_, err = repo.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(rec.ID), data, ttl)
		pipe.SAdd(ctx, sessionIndexKey, rec.ID)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "saving session")
	}
	return nil
}

func (repo *sessionRepository) GetSession(ctx context.Context, id string) (session.Record, error) {
	value, err := repo.client.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return session.Record{}, session.ErrNotFound
	}
	if err != nil {
		return session.Record{}, errors.Wrap(err, "getting session")
	}

	var rec session.Record
	if err = json.Unmarshal(value, &rec); err != nil {
		return session.Record{}, errors.Wrapf(err, "decoding session %s", id)
	}
	return rec, nil
}

func (repo *sessionRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := repo.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		pipe.SRem(ctx, sessionIndexKey, id)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return nil
}

// ListSessions returns the live sessions. Index entries whose session expired are pruned.
func (repo *sessionRepository) ListSessions(ctx context.Context) ([]session.Record, error) {
	ids, err := repo.client.SMembers(ctx, sessionIndexKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "listing sessions")
	}

	recs := make([]session.Record, 0, len(ids))
	stale := make([]interface{}, 0)
	for _, id := range ids {
		rec, err := repo.GetSession(ctx, id)
		if errors.Cause(err) == session.ErrNotFound {
			stale = append(stale, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	if len(stale) > 0 {
		if err = repo.client.SRem(ctx, sessionIndexKey, stale...).Err(); err != nil {
			return nil, errors.Wrap(err, "pruning session index")
		}
	}
	return recs, nil
}
