package router

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/thejerf/debugtoolbar/logger"
)

// ErrNotFound is returned by Resolve when no route matches the path.
var ErrNotFound = errors.New("no route matches the path")

// A Match describes the handler a path resolves to, and what the route
// captured on the way.
type Match struct {
	Handler http.Handler

	// Args holds positional captures in path order; never nil.
	Args []string
	// Kwargs holds named captures; never nil.
	Kwargs map[string]string
	// URLName is the innermost route name, or "" if the route is unnamed.
	URLName string
	// Route is the pattern that matched, e.g. "/users/{id}/".
	Route string
}

type matchKey struct{}

// MatchFrom returns the Match the Mux served the request with, if any.
func MatchFrom(r *http.Request) (*Match, bool) {
	m, ok := r.Context().Value(matchKey{}).(*Match)
	return m, ok
}

// A Mux is the top-level router of an application.
type Mux struct {
	*RouteBlock

	// Logger receives routing errors. Defaults to logger.Nop.
	Logger logger.Logger
}

// New returns an empty Mux.
func New() *Mux {
	return &Mux{
		RouteBlock: NewRouteBlock(),
		Logger:     logger.Nop{},
	}
}

// Resolve returns the Match for the given path. It returns ErrNotFound
// when nothing matches, or the error a clause returned.
func (r *Mux) Resolve(path string) (*Match, error) {
	req := &http.Request{
		Method: http.MethodGet,
		URL:    &url.URL{Path: path},
		Header: http.Header{},
	}
	return r.ResolveRequest(req)
}

// ResolveRequest is Resolve for clauses that want to see the whole
// request.
func (r *Mux) ResolveRequest(req *http.Request) (*Match, error) {
	rr := newRequest(req)
	result := r.Route(rr)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.Handler == nil {
		return nil, ErrNotFound
	}
	m := rr.match(result.Handler)
	ddump("resolved", req.URL.Path, m)
	return m, nil
}

// ServeHTTP implements the http.Handler interface.
func (r *Mux) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	m, err := r.ResolveRequest(req)
	if err == ErrNotFound {
		http.NotFound(rw, req)
		return
	}
	if err != nil {
		logger.Printf(r.Logger, "router: error routing %s: %v", req.URL.Path, err)
		http.Error(rw, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	m.Handler.ServeHTTP(rw, req.WithContext(context.WithValue(req.Context(), matchKey{}, m)))
}
