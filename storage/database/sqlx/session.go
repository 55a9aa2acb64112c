package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/bainum/dashboard/core/session"
	"github.com/bainum/dashboard/core/user"
)

const (
	selectSessions = `SELECT id, token, claims, created_at, expires_at FROM dashboard_session`

	upsertSession = `INSERT INTO dashboard_session (id, token, claims, created_at, expires_at)
VALUES (:id, :token, :claims, :created_at, :expires_at)
ON CONFLICT (id) DO UPDATE SET token = EXCLUDED.token, claims = EXCLUDED.claims, expires_at = EXCLUDED.expires_at`
)

type sessionRow struct {
	ID        string         `db:"id"`
	Token     string         `db:"token"`
	Claims    types.JSONText `db:"claims"`
	CreatedAt time.Time      `db:"created_at"`
	ExpiresAt null.Time      `db:"expires_at"`
}

func (row sessionRow) record() (session.Record, error) {
	rec := session.Record{
		ID:        row.ID,
		Token:     row.Token,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt.Time,
	}
	var claims user.Record
	if err := row.Claims.Unmarshal(&claims); err != nil {
		return rec, errors.Wrapf(err, "decoding claims of session %s", row.ID)
	}
	rec.Claims = claims
	return rec, nil
}

type sessionRepository struct {
	db *sqlx.DB
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *sqlx.DB) session.Repository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) SaveSession(ctx context.Context, rec session.Record) error {
	claims, err := json.Marshal(rec.Claims)
	if err != nil {
		return errors.Wrap(err, "encoding claims")
	}
	row := sessionRow{
		ID:        rec.ID,
		Token:     rec.Token,
		Claims:    claims,
		CreatedAt: rec.CreatedAt.UTC(),
		ExpiresAt: null.NewTime(rec.ExpiresAt.UTC(), !rec.ExpiresAt.IsZero()),
	}
	if _, err := repo.db.NamedExecContext(ctx, upsertSession, row); err != nil {
		return errors.Wrap(err, "saving session")
	}
	return nil
}

func (repo *sessionRepository) GetSession(ctx context.Context, id string) (session.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return session.Record{}, session.ErrNotFound
	}

	var row sessionRow
	if err := repo.db.GetContext(ctx, &row, selectSessions+` WHERE id = $1`, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return session.Record{}, session.ErrNotFound
		}
		return session.Record{}, errors.Wrap(err, "getting session")
	}
	return row.record()
}

func (repo *sessionRepository) DeleteSession(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM dashboard_session WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return nil
}

func (repo *sessionRepository) ListSessions(ctx context.Context) ([]session.Record, error) {
	var rows []sessionRow
	if err := repo.db.SelectContext(ctx, &rows, selectSessions+` ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "listing sessions")
	}

	recs := make([]session.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
