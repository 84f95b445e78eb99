package session

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"github.com/thejerf/debugtoolbar/logger"
	"github.com/thejerf/debugtoolbar/request"
	"github.com/thejerf/debugtoolbar/secret"
)

// DefaultCookieName is the cookie carrying the signed session ID.
const DefaultCookieName = "sessionid"

// Options configures Middleware.
type Options struct {
	// CookieName defaults to DefaultCookieName.
	CookieName string
	// Secret signs the session cookie. Required.
	Secret *secret.Secret
	// Secure marks the cookie Secure.
	Secure bool
	// Logger receives session storage errors. Defaults to logger.Nop.
	Logger logger.Logger
}

type sessionKey struct{}

// FromRequest returns the session Middleware attached to the request.
//
// The session is looked up in the request context first, and then in the
// shared request.State, which is where layers wrapped around Middleware
// find it.
func FromRequest(r *http.Request) (Session, bool) {
	if s, ok := r.Context().Value(sessionKey{}).(Session); ok {
		return s, true
	}
	if st := request.StateFrom(r); st != nil {
		if s, ok := st.Value(sessionKey{}).(Session); ok {
			return s, true
		}
	}
	return nil, false
}

// Middleware returns a handler that attaches a Session to every request
// before invoking h.
func Middleware(h http.Handler, server Server, o Options) http.Handler {
	if o.Secret.IsZero() {
		panic("session middleware needs a secret")
	}
	if o.CookieName == "" {
		o.CookieName = DefaultCookieName
	}
	if o.Logger == nil {
		o.Logger = logger.Nop{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ls := &lazySession{server: server}

		existing, err := loadSession(r, server, o)
		switch {
		case err == nil:
			ls.session = existing
		case errors.Cause(err) != ErrSessionNotFound && errors.Cause(err) != http.ErrNoCookie:
			logger.Printf(o.Logger, "session: %v", err)
		}

		if st := request.StateFrom(r); st != nil {
			st.Set(sessionKey{}, Session(ls))
		}
		r = r.WithContext(context.WithValue(r.Context(), sessionKey{}, Session(ls)))

		cw := &cookieWriter{ResponseWriter: w, ls: ls, o: o}
		h.ServeHTTP(cw, r)
		if !cw.wroteHeader {
			cw.writeCookie()
		}
	})
}

func loadSession(r *http.Request, server Server, o Options) (Session, error) {
	c, err := r.Cookie(o.CookieName)
	if err != nil {
		return nil, err
	}
	id, err := o.Secret.Unsign(o.CookieName, c.Value)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	s, err := server.GetSession(SessionID(id))
	if err != nil {
		return nil, errors.Wrapf(err, "loading session from cookie %s", o.CookieName)
	}
	return s, nil
}

// A lazySession stands in for a session until something is stored.
type lazySession struct {
	sync.Mutex
	server  Server
	session Session
	created bool
	err     error
}

func (ls *lazySession) current() Session {
	ls.Lock()
	defer ls.Unlock()
	return ls.session
}

func (ls *lazySession) materialize() Session {
	ls.Lock()
	defer ls.Unlock()
	if ls.session == nil && ls.err == nil {
		ls.session, ls.err = ls.server.NewSession()
		ls.created = ls.err == nil
	}
	return ls.session
}

func (ls *lazySession) ID() SessionID {
	if s := ls.current(); s != nil {
		return s.ID()
	}
	return NoSessionID
}

func (ls *lazySession) Keys() []string {
	if s := ls.current(); s != nil {
		return s.Keys()
	}
	return []string{}
}

func (ls *lazySession) Get(key string) (interface{}, bool) {
	if s := ls.current(); s != nil {
		return s.Get(key)
	}
	return nil, false
}

func (ls *lazySession) Set(key string, val interface{}) {
	if s := ls.materialize(); s != nil {
		s.Set(key, val)
	}
}

func (ls *lazySession) Delete(key string) {
	if s := ls.current(); s != nil {
		s.Delete(key)
	}
}

func (ls *lazySession) Expired() bool {
	if s := ls.current(); s != nil {
		return s.Expired()
	}
	return false
}

func (ls *lazySession) Expire() {
	if s := ls.current(); s != nil {
		s.Expire()
	}
}

func (ls *lazySession) Authenticate(b ...[]byte) ([]byte, error) {
	if s := ls.materialize(); s != nil {
		return s.Authenticate(b...)
	}
	return nil, secret.ErrNoSecretKey
}

func (ls *lazySession) UnwrapAuthentication(b ...[]byte) ([]byte, error) {
	if s := ls.current(); s != nil {
		return s.UnwrapAuthentication(b...)
	}
	return nil, secret.ErrNotAuthenticated
}

// cookieWriter adds the session cookie just before the response headers
// go out, so a session created anywhere in the handler before its first
// write is still delivered.
type cookieWriter struct {
	http.ResponseWriter
	ls          *lazySession
	o           Options
	wroteHeader bool
}

func (cw *cookieWriter) writeCookie() {
	cw.wroteHeader = true

	cw.ls.Lock()
	s, created, err := cw.ls.session, cw.ls.created, cw.ls.err
	cw.ls.Unlock()

	if err != nil {
		logger.Printf(cw.o.Logger, "session: creating session: %v", err)
	}

	switch {
	case s == nil:
	case s.Expired():
		http.SetCookie(cw.ResponseWriter, &http.Cookie{
			Name:     cw.o.CookieName,
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cw.o.Secure,
		})
	case created:
		signed, err := cw.o.Secret.Sign(cw.o.CookieName, string(s.ID()))
		if err != nil {
			logger.Printf(cw.o.Logger, "session: signing cookie: %v", err)
			return
		}
		http.SetCookie(cw.ResponseWriter, &http.Cookie{
			Name:     cw.o.CookieName,
			Value:    signed,
			Path:     "/",
			HttpOnly: true,
			Secure:   cw.o.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (cw *cookieWriter) WriteHeader(code int) {
	if !cw.wroteHeader {
		cw.writeCookie()
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *cookieWriter) Write(b []byte) (int, error) {
	if !cw.wroteHeader {
		cw.writeCookie()
	}
	return cw.ResponseWriter.Write(b)
}

func (cw *cookieWriter) Flush() {
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		if !cw.wroteHeader {
			cw.writeCookie()
		}
		f.Flush()
	}
}

// Hijack exposes the hijacking functionality of the underlying response
// writer, if any.
func (cw *cookieWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := cw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying ResponseWriter is not a Hijacker")
	}
	return hijacker.Hijack()
}
