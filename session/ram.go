package session

import (
	"context"
	"sync"
	"time"

	"github.com/thejerf/abtime"
	"github.com/thejerf/debugtoolbar/secret"
)

var _ Server = &RAMServer{}

// SecretSource hands out per-session secrets. *secret.Generator is one.
type SecretSource interface {
	Get() *secret.Secret
}

type directSecrets struct{}

func (directSecrets) Get() *secret.Secret {
	return secret.Get()
}

const reapTimerID = 1

// A RAMServer serves out sessions held in RAM.
//
// Losing every session on restart is fine for a development server, which
// is what the toolbar is for. Expired sessions are purged by Reap, which
// Serve calls periodically; the purge holds the lock, so this does not
// scale to very large session counts.
type RAMServer struct {
	sessions map[SessionID]*RAMSession
	ids      IDSource
	secrets  SecretSource
	*RAMSettings

	// locks the session map and all the expiration times on the sessions
	sync.Mutex
}

// RAMSettings configures a RAMServer.
type RAMSettings struct {
	// Timeout is the idle time after which a session expires. Defaults
	// to one hour.
	Timeout time.Duration
	abtime.AbstractTime
}

// NewRAMServer returns a new RAM-based session server. Once the settings
// have been passed to this object you must not modify them. A nil
// secrets uses secret.Get directly.
func NewRAMServer(ids IDSource, secrets SecretSource, settings *RAMSettings) *RAMServer {
	if settings == nil {
		settings = &RAMSettings{}
	}
	if settings.Timeout == 0 {
		settings.Timeout = time.Hour
	}
	if settings.AbstractTime == nil {
		settings.AbstractTime = abtime.NewRealTime()
	}
	if secrets == nil {
		secrets = directSecrets{}
	}
	return &RAMServer{
		sessions:    map[SessionID]*RAMSession{},
		ids:         ids,
		secrets:     secrets,
		RAMSettings: settings,
	}
}

// GetSession implements Server. A successful lookup extends the session.
func (rs *RAMServer) GetSession(id SessionID) (Session, error) {
	if !rs.ids.Check(id) {
		return nil, ErrSessionNotFound
	}

	now := rs.Now()

	rs.Lock()
	defer rs.Unlock()

	session := rs.sessions[id]
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if now.After(session.expiration) {
		delete(rs.sessions, id)
		return nil, ErrSessionNotFound
	}
	session.expiration = now.Add(rs.Timeout)
	return session, nil
}

// NewSession implements Server.
func (rs *RAMServer) NewSession() (Session, error) {
	session := &RAMSession{
		id:     rs.ids.Get(),
		Secret: rs.secrets.Get(),
		values: map[string]interface{}{},
		rs:     rs,
	}

	rs.Lock()
	session.expiration = rs.Now().Add(rs.Timeout)
	rs.sessions[session.id] = session
	rs.Unlock()

	return session, nil
}

// Len returns the number of sessions held, expired or not.
func (rs *RAMServer) Len() int {
	rs.Lock()
	defer rs.Unlock()
	return len(rs.sessions)
}

// Reap drops all expired sessions and returns how many were dropped.
func (rs *RAMServer) Reap() int {
	now := rs.Now()
	reaped := 0

	rs.Lock()
	for id, session := range rs.sessions {
		if now.After(session.expiration) {
			delete(rs.sessions, id)
			reaped++
		}
	}
	rs.Unlock()

	return reaped
}

// Serve implements suture.Service, reaping expired sessions every half
// Timeout.
func (rs *RAMServer) Serve(ctx context.Context) error {
	for {
		select {
		case <-rs.After(rs.Timeout/2, reapTimerID):
			rs.Reap()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (rs *RAMServer) String() string {
	return "RAM session reaper"
}

// A RAMSession is a session handed out by a RAMServer.
type RAMSession struct {
	id SessionID
	*secret.Secret

	// guarded by rs's lock
	expiration time.Time
	rs         *RAMServer

	mu     sync.Mutex
	values map[string]interface{}
}

var expired = time.Unix(279835200, 0)

func (s *RAMSession) ID() SessionID {
	return s.id
}

func (s *RAMSession) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.values)
}

func (s *RAMSession) Get(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.values[key]
	return val, ok
}

func (s *RAMSession) Set(key string, val interface{}) {
	s.mu.Lock()
	s.values[key] = val
	s.mu.Unlock()
}

func (s *RAMSession) Delete(key string) {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
}

func (s *RAMSession) Expired() bool {
	now := s.rs.Now()
	s.rs.Lock()
	defer s.rs.Unlock()
	return now.After(s.expiration)
}

func (s *RAMSession) Expire() {
	s.rs.Lock()
	s.expiration = expired
	s.rs.Unlock()
}
