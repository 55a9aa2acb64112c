package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bainum/dashboard/core"
	"github.com/bainum/dashboard/core/access"
	"github.com/bainum/dashboard/core/user"
)

// EventType of a session Event.
type EventType int

const (
	LoggedIn EventType = iota + 1
	LoggedOut
	RestoreFailed
	Expired
)

func (t EventType) String() string {
	switch t {
	case LoggedIn:
		return "loggedIn"
	case LoggedOut:
		return "loggedOut"
	case RestoreFailed:
		return "restoreFailed"
	case Expired:
		return "expired"
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Event is sent to subscribers whenever a session starts or ends.
type Event struct {
	Type      EventType
	SessionID string
	User      *user.Record
	Err       error // RestoreFailed only
}

// Manager owns the live sessions and their persistence.
type Manager struct {
	repo      Repository
	logger    core.Logger
	secretKey string
	ttl       time.Duration

	initOnce sync.Once
	initErr  error

	mu       sync.RWMutex
	loading  bool
	closed   bool
	sessions map[string]*Session

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func(Event)
}

func NewManager(repo Repository, conf *core.Config, logger core.Logger) *Manager {
	return &Manager{
		repo:      repo,
		logger:    logger,
		secretKey: conf.SecretKey,
		ttl:       conf.Session.TTL,
		sessions:  make(map[string]*Session),
		subs:      make(map[int]func(Event)),
	}
}

// Init restores the persisted sessions. Only the first call does any work.
// Sessions whose token can no longer be trusted are deleted and reported as RestoreFailed.
func (m *Manager) Init(ctx context.Context) error {
	m.initOnce.Do(func() {
		m.mu.Lock()
		m.loading = true
		m.mu.Unlock()

		defer func() {
			m.mu.Lock()
			m.loading = false
			m.mu.Unlock()
		}()

		recs, err := m.repo.ListSessions(ctx)
		if err != nil {
			m.initErr = errors.Wrap(err, "listing sessions")
			return
		}

		var restored int
		for _, rec := range recs {
			sess, err := m.restore(ctx, rec)
			if err != nil {
				continue
			}
			m.mu.Lock()
			m.sessions[sess.ID] = sess
			m.mu.Unlock()
			restored++
		}
		m.logger.Info(fmt.Sprintf("%d/%d sessions restored", restored, len(recs)))
	})
	return m.initErr
}

// restore validates a persisted session, once. Invalid or expired records are deleted.
func (m *Manager) restore(ctx context.Context, rec Record) (*Session, error) {
	sess := rec.session()
	if sess.expired(core.NowFunc()) {
		if err := m.repo.DeleteSession(ctx, rec.ID); err != nil {
			m.logger.Error("deleting expired session", err)
		}
		return nil, ErrNotFound
	}

	usr, err := user.VerifyClaims(rec.Token, m.secretKey, rec.Claims)
	if err != nil {
		if dErr := m.repo.DeleteSession(ctx, rec.ID); dErr != nil {
			m.logger.Error("deleting invalid session", dErr)
		}
		m.notify(Event{Type: RestoreFailed, SessionID: rec.ID, User: sess.User, Err: err})
		return nil, errors.Wrap(ErrSessionRestoreFailed, err.Error())
	}
	sess.User = &usr
	return sess, nil
}

// Loading reports whether the initial restore is running.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Close drops the live sessions (they stay persisted) and every subscriber.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	m.subMu.Lock()
	m.subs = make(map[int]func(Event))
	m.subMu.Unlock()
	return nil
}

// Login starts a session for token. typed holds the claims returned alongside the token, if any;
// they must agree with the token.
func (m *Manager) Login(ctx context.Context, token string, typed *user.Record) (*Session, error) {
	var want user.Record
	if typed != nil {
		want = *typed
	}
	usr, err := user.VerifyClaims(token, m.secretKey, want)
	if err != nil {
		return nil, err
	}
	if typed != nil {
		// fields the token may not carry
		if usr.Name == "" {
			usr.Name = typed.Name
		}
		if usr.Email == "" {
			usr.Email = typed.Email
		}
	}

	now := core.NowFunc()
	sess := &Session{
		ID:        uuid.NewString(),
		Token:     token,
		User:      &usr,
		CreatedAt: now,
	}
	if m.ttl > 0 {
		sess.ExpiresAt = now.Add(m.ttl)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	if err := m.repo.SaveSession(ctx, recordOf(sess)); err != nil {
		m.mu.Lock()
		delete(m.sessions, sess.ID)
		m.mu.Unlock()
		return nil, errors.Wrap(err, "saving session")
	}

	m.notify(Event{Type: LoggedIn, SessionID: sess.ID, User: sess.User})
	return sess.copy(), nil
}

// Logout ends the session. Unknown sessions are ignored.
func (m *Manager) Logout(ctx context.Context, id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if err := m.repo.DeleteSession(ctx, id); err != nil && errors.Cause(err) != ErrNotFound {
		return errors.Wrap(err, "deleting session")
	}
	if ok {
		m.notify(Event{Type: LoggedOut, SessionID: id, User: sess.User})
	}
	return nil
}

// Get returns a copy of the session. Sessions unknown to this process (e.g. created by another
// instance sharing the repository) are restored on first access.
// While Init runs, Get returns a Loading session.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	if m.loading {
		m.mu.RUnlock()
		return &Session{ID: id, Loading: true}, nil
	}
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrClosed
	}
	sess, ok := m.sessions[id]
	m.mu.RUnlock()

	if id == "" {
		return nil, ErrNotFound
	}

	if ok {
		if sess.expired(core.NowFunc()) {
			m.expire(ctx, id)
			return nil, ErrNotFound
		}
		return sess.copy(), nil
	}

	rec, err := m.repo.GetSession(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "getting session")
	}
	sess, err = m.restore(ctx, rec)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()
	return sess.copy(), nil
}

// expire ends a session that reached its TTL and reports it as Expired.
func (m *Manager) expire(ctx context.Context, id string) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return
	}

	if err := m.repo.DeleteSession(ctx, id); err != nil && errors.Cause(err) != ErrNotFound {
		m.logger.Error("deleting expired session", err)
	}
	m.notify(Event{Type: Expired, SessionID: id, User: sess.User})
}

// Sweep expires every live session past its TTL and returns how many were expired.
func (m *Manager) Sweep(ctx context.Context) int {
	now := core.NowFunc()
	m.mu.RLock()
	ids := make([]string, 0)
	for id, sess := range m.sessions {
		if sess.expired(now) {
			ids = append(ids, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.expire(ctx, id)
	}
	return len(ids)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(ctx); n > 0 {
				m.logger.Info(fmt.Sprintf("%d expired session(s) swept", n))
			}
		}
	}
}

// Subject returns what the access gate needs to know about session id.
// Unknown or invalid sessions are anonymous.
func (m *Manager) Subject(ctx context.Context, id string) access.Subject {
	sess, err := m.Get(ctx, id)
	if err != nil {
		return access.Subject{}
	}
	return sess.Subject()
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Subscribe registers fn for every session event. Events are delivered synchronously,
// in the goroutine that caused them. The returned func unsubscribes.
func (m *Manager) Subscribe(fn func(Event)) (unsubscribe func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn

	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) notify(e Event) {
	m.subMu.Lock()
	subs := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.subMu.Unlock()

	for _, fn := range subs {
		fn(e)
	}
}

func (s *Session) copy() *Session {
	c := *s
	if s.User != nil {
		usr := *s.User
		c.User = &usr
	}
	return &c
}
