/*

Package request carries mutable per-request state between middleware
layers.

net/http hands each layer its own *http.Request; a value attached with
WithContext by an inner layer is invisible to the outer one. Several things
the debug toolbar wants to report on (the session, the form body) are
established by inner layers, so the outermost layer attaches a State that
every inner layer shares by pointer.

*/
package request

import (
	"context"
	"net/http"
	"net/url"
	"sync"
)

type stateKey struct{}

// A State is a small concurrency-safe bag of values scoped to a single
// request.
type State struct {
	sync.Mutex
	values map[interface{}]interface{}

	form    url.Values
	hasForm bool
}

// Attach returns a request carrying a State, and that State. If the
// request already carries one, it is returned unchanged.
func Attach(r *http.Request) (*http.Request, *State) {
	if s := StateFrom(r); s != nil {
		return r, s
	}
	s := &State{values: map[interface{}]interface{}{}}
	return r.WithContext(context.WithValue(r.Context(), stateKey{}, s)), s
}

// StateFrom returns the State attached to the request, or nil.
func StateFrom(r *http.Request) *State {
	if r == nil {
		return nil
	}
	s, _ := r.Context().Value(stateKey{}).(*State)
	return s
}

// Set stores a value under the given key. Keys should be unexported
// types, as with context.WithValue.
func (s *State) Set(key, val interface{}) {
	s.Lock()
	s.values[key] = val
	s.Unlock()
}

// Value returns the value for the key, or nil.
func (s *State) Value(key interface{}) interface{} {
	s.Lock()
	defer s.Unlock()
	return s.values[key]
}

// SetForm records the parsed form body of the request.
func (s *State) SetForm(form url.Values) {
	s.Lock()
	s.form = form
	s.hasForm = true
	s.Unlock()
}

// Form returns the form body recorded by SnapshotForm, if any.
func (s *State) Form() (url.Values, bool) {
	s.Lock()
	defer s.Unlock()
	return s.form, s.hasForm
}
