/*

Package session provides server-side sessions for the applications the
debug toolbar observes.

Sessions live in a Server (RAMServer is the only implementation here),
are found through a signed cookie by Middleware, and are attached both to
the request context and to the shared request.State, so that outer
middleware such as the toolbar can see them after the handler returns.

A session is created lazily: Middleware always attaches a Session, but
nothing is stored and no cookie is sent until a value is Set.

Session IDs are based on the system CSPRNG. See
https://cheatsheetseries.owasp.org/cheatsheets/Session_Management_Cheat_Sheet.html .

*/
package session

import (
	"errors"
	"sort"

	"github.com/thejerf/debugtoolbar/secret"
)

// ErrSessionNotFound is returned by a Server for unknown or expired IDs.
var ErrSessionNotFound = errors.New("session not found")

// A Session is a handle for reading and writing one user's session.
type Session interface {
	// ID returns the session ID, or NoSessionID if the session has not
	// been stored yet.
	ID() SessionID

	// Keys returns the stored keys, sorted.
	Keys() []string
	Get(key string) (interface{}, bool)
	Set(key string, val interface{})
	Delete(key string)

	// Expired reports whether the session has timed out or been expired.
	Expired() bool

	// Expire terminates the session. Expiring an expired session is not
	// an error. Expire may be called from any goroutine.
	Expire()

	// Every session carries its own secret, so values can be signed as
	// belonging to this session.
	secret.Authenticator
	secret.AuthenticationUnwrapper
}

// A Server takes SessionIDs and returns Sessions.
type Server interface {
	// GetSession returns ErrSessionNotFound for unknown or expired
	// sessions. Callers never need to check expiry themselves.
	GetSession(SessionID) (Session, error)

	NewSession() (Session, error)
}

func sortedKeys(values map[string]interface{}) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
