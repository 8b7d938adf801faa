package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Session is the client-side view of a login: the token pair plus the
// identity it was issued to. It lives only in memory; the refresh token is
// the sole credential that outlasts an access token.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       string
	Role         string
}

// ErrNoSession is returned when an authenticated call is made while logged out.
var ErrNoSession = errors.New("no active session")

// sessionManager owns the token pair and serializes refreshes: any number of
// callers hitting a 401 at once share exactly one refresh round trip, and a
// failed refresh clears the session and fires the forced-logout callback
// exactly once.
type sessionManager struct {
	mu      sync.RWMutex
	session *Session
	// generation increments on every set/clear so a caller that lost the
	// refresh race can tell its 401 is already stale.
	generation uint64

	sf             singleflight.Group
	refreshFn      func(ctx context.Context, refreshToken string) (*Session, error)
	onForcedLogout func()
}

func newSessionManager(refreshFn func(ctx context.Context, refreshToken string) (*Session, error), onForcedLogout func()) *sessionManager {
	return &sessionManager{refreshFn: refreshFn, onForcedLogout: onForcedLogout}
}

// current returns the session and its generation, or nil when logged out.
func (m *sessionManager) current() (*Session, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil, m.generation
	}
	cp := *m.session
	return &cp, m.generation
}

func (m *sessionManager) set(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
	m.generation++
}

// clear drops the session. Returns true when there was one to drop.
func (m *sessionManager) clear() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	had := m.session != nil
	m.session = nil
	m.generation++
	return had
}

// refresh exchanges the refresh token for a new pair. Concurrent callers are
// collapsed into one round trip. gen is the generation the caller observed
// when it decided a refresh was needed; if the session has moved on since
// (another caller already refreshed, or logged out), the caller just adopts
// the current state instead of forcing a second refresh.
func (m *sessionManager) refresh(ctx context.Context, gen uint64) (*Session, error) {
	v, err, _ := m.sf.Do("refresh", func() (interface{}, error) {
		m.mu.RLock()
		stale := m.generation != gen
		sess := m.session
		var refreshToken string
		if sess != nil {
			refreshToken = sess.RefreshToken
		}
		m.mu.RUnlock()

		if stale {
			if sess == nil {
				return nil, ErrNoSession
			}
			cp := *sess
			return &cp, nil
		}
		if sess == nil {
			return nil, ErrNoSession
		}

		next, err := m.refreshFn(ctx, refreshToken)
		if err != nil {
			m.forceLogout()
			return nil, err
		}
		m.set(next)
		cp := *next
		return &cp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// forceLogout clears the session and fires the callback. Firing happens only
// when a session was actually cleared, so repeated failures report once.
func (m *sessionManager) forceLogout() {
	if m.clear() && m.onForcedLogout != nil {
		m.onForcedLogout()
	}
}
