package inmemdb

import (
	"context"
	"sort"

	"github.com/bainum/dashboard/core/session"
)

type sessionRepository struct {
	db *sessionTable
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) session.Repository {
	return &sessionRepository{db: db.session}
}

func (repo *sessionRepository) SaveSession(_ context.Context, rec session.Record) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.table[rec.ID] = rec
	return nil
}

func (repo *sessionRepository) GetSession(_ context.Context, id string) (session.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return rec, nil
	}
	return session.Record{}, session.ErrNotFound
}

func (repo *sessionRepository) DeleteSession(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.table, id)
	return nil
}

func (repo *sessionRepository) ListSessions(_ context.Context) ([]session.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recs := make([]session.Record, 0, len(repo.db.table))
	for _, rec := range repo.db.table {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.Before(recs[j].CreatedAt) })
	return recs, nil
}
