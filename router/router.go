/*

Package router implements the clause router the debug toolbar resolves
views against.

Routing is done by walking a tree of RouteBlocks. Each RouteBlock holds
RouterClauses, tried in order; a clause may consume some of the path,
capture parameters, name the route, descend into a nested RouteBlock, or
return the final handler. Everything a clause records lives in a frame
that is thrown away if routing backs out of that clause, so only clauses
on the path actually taken contribute to the final Match.

Routes are matched exactly by default. A StaticLocation of "/a" followed
by a ReturnClause will not serve "/a_different_url"; use a ForwardClause
when the remainder of the path should be handed to the handler.

The same tree serves requests (ServeHTTP) and answers "which view would
handle this path" (Resolve), which is what the request panel of the
toolbar displays.

*/
package router

import (
	"fmt"
	"net/http"

	"github.com/davecgh/go-spew/spew"
)

// Debug can be used to debug the routing
var Debug = false

func dprintln(a ...interface{}) {
	if Debug {
		fmt.Println(a...)
	}
}

func ddump(a ...interface{}) {
	if Debug {
		spew.Dump(a...)
	}
}

type frame struct {
	// the remaining path to be processed after this frame
	path    []byte
	consume int

	args    []string
	kwargs  map[string]string
	name    string
	pattern string
}

func (f *frame) reset(path []byte) {
	f.path = path
	f.consume = 0
	f.args = nil
	f.kwargs = nil
	f.name = ""
	f.pattern = ""
}

func (f *frame) remainingPath() []byte {
	return f.path[f.consume:]
}

// A Request is the *http.Request being routed, plus the stack of frames
// tracking what the clauses along the current path have done.
type Request struct {
	*http.Request

	basePath []byte
	frames   []frame
	current  int
}

func newRequest(req *http.Request) *Request {
	frames := make([]frame, 1, 5)
	basePath := []byte(req.URL.Path)
	frames[0].path = basePath
	return &Request{
		Request:  req,
		basePath: basePath,
		frames:   frames,
	}
}

// CurrentPath returns the currently-remaining path under consideration.
//
// Callers MUST NOT modify the []byte.
func (rr *Request) CurrentPath() []byte {
	return rr.frames[rr.current].remainingPath()
}

// ConsumePath marks c more bytes of the current path as consumed by this
// frame, recording pattern as the route text that matched them.
func (rr *Request) ConsumePath(c int, pattern string) {
	dprintln("consuming", c, "bytes of path in frame", rr.current)
	f := &rr.frames[rr.current]
	f.consume += c
	f.pattern += pattern
}

// AddArg appends a positional argument for the handler.
func (rr *Request) AddArg(value string) {
	f := &rr.frames[rr.current]
	f.args = append(f.args, value)
}

// AddKwarg records a named argument for the handler.
func (rr *Request) AddKwarg(key, value string) {
	f := &rr.frames[rr.current]
	if f.kwargs == nil {
		f.kwargs = map[string]string{}
	}
	f.kwargs[key] = value
}

// SetName names the route currently being matched. The innermost name on
// the final path wins.
func (rr *Request) SetName(name string) {
	rr.frames[rr.current].name = name
}

// PathConsumed returns the portion of the path consumed so far.
func (rr *Request) PathConsumed() []byte {
	consumed := 0
	for _, f := range rr.frames[0 : rr.current+1] {
		consumed += f.consume
	}
	return rr.basePath[0:consumed]
}

func (rr *Request) advance() {
	dprintln("creating a new frame", rr.current+1, "from", rr.current)
	prev := rr.frames[rr.current]
	rr.current++
	if rr.current == len(rr.frames) {
		rr.frames = append(rr.frames, frame{})
	}
	rr.frames[rr.current].reset(prev.remainingPath())
}

func (rr *Request) retreat() {
	// by construction, this won't go negative
	ddump("retreating from frame:", rr.current)
	rr.current--
}

// match assembles the final Match from the frames on the path taken.
func (rr *Request) match(h http.Handler) *Match {
	m := &Match{
		Handler: h,
		Args:    []string{},
		Kwargs:  map[string]string{},
	}
	for _, f := range rr.frames[0 : rr.current+1] {
		m.Args = append(m.Args, f.args...)
		for k, v := range f.kwargs {
			m.Kwargs[k] = v
		}
		if f.name != "" {
			m.URLName = f.name
		}
		m.Route += f.pattern
	}
	return m
}

// A Router is something that can participate in the routing of the
// request.
//
// If Route returns a non-nil Handler, routing terminates with it. If it
// returns a non-nil RouteBlock, that block is recursed into. If it
// returns an Error, processing of the enclosing RouteBlock terminates.
// If all of these are nil, processing simply continues onwards.
type Router interface {
	Route(*Request) Result
}

// A Result is the result of calling a Route operation.
type Result struct {
	http.Handler
	*RouteBlock
	Error error
}

var emptyResult = Result{}

// A RouterClause is something that can route, and also describes itself
// well enough for the routing table to be audited.
type RouterClause interface {
	Router

	// Name is the constant name of this kind of clause.
	Name() string

	// Argument is the clause's configuration, as a string.
	Argument() string
}

// A RouteBlock is simply a collection of RouterClauses, which can also be
// used as a Router.
type RouteBlock struct {
	clauses []RouterClause
}

// Route implements the Router interface on a RouteBlock.
//
// As a special case, a call to this method will never itself yield a
// non-nil *RouteBlock.
func (rb *RouteBlock) Route(rr *Request) Result {
	rr.advance()

	for _, clause := range rb.clauses {
		dprintln("checking clause", clause.Name(), clause.Argument())
		res := clause.Route(rr)
		if res.Handler != nil {
			return res
		}
		if res.RouteBlock != nil {
			res2 := res.RouteBlock.Route(rr)
			if res2.Handler != nil {
				return res2
			}
			// by construction, RouteBlocks never return more RouteBlocks
			if res2.RouteBlock != nil {
				panic("RouteBlock.Route returned a non-nil RouteBlock")
			}
			if res2.Error != nil {
				return res2
			}
		}
		if res.Error != nil {
			return res
		}
		rr.frames[rr.current].reset(rr.frames[rr.current-1].remainingPath())
	}

	// NOT deferred; the advances without corresponding retreats represent
	// the path actually taken
	rr.retreat()
	return emptyResult
}

// NewRouteBlock is a convenience function for creating new RouteBlocks.
func NewRouteBlock(clauses ...RouterClause) *RouteBlock {
	return &RouteBlock{clauses}
}

// Add appends clauses to the RouteBlock.
func (rb *RouteBlock) Add(c ...RouterClause) {
	rb.clauses = append(rb.clauses, c...)
}

// Location adds a new StaticLocation and returns its RouteBlock for
// further modification.
func (rb *RouteBlock) Location(path string) *RouteBlock {
	rrb := NewRouteBlock()
	rb.Add(&StaticLocation{path, rrb})
	return rrb
}

// Capture adds a clause capturing one path segment as the named
// parameter, and returns its RouteBlock.
func (rb *RouteBlock) Capture(param string) *RouteBlock {
	rrb := NewRouteBlock()
	rb.Add(&Capture{param, rrb})
	return rrb
}

// Positional adds a clause capturing one path segment as a positional
// argument, and returns its RouteBlock.
func (rb *RouteBlock) Positional() *RouteBlock {
	rrb := NewRouteBlock()
	rb.Add(&Positional{rrb})
	return rrb
}

// AddLocationReturn adds h at exactly the given path.
func (rb *RouteBlock) AddLocationReturn(path string, h http.Handler) {
	rb.Add(&StaticLocation{path, DirectReturn(h)})
}

// AddNamedReturn adds h at exactly the given path, under the given route
// name.
func (rb *RouteBlock) AddNamedReturn(path, name string, h http.Handler) {
	rb.Add(&StaticLocation{path, NewRouteBlock(&Named{name, DirectReturn(h)})})
}

// AddLocationForward adds h at the given path and everything under it.
func (rb *RouteBlock) AddLocationForward(path string, h http.Handler) {
	rb.Add(&StaticLocation{path, NewRouteBlock(ForwardClause{h})})
}

// Return adds a ReturnClause for h, with an optional route name.
func (rb *RouteBlock) Return(name string, h http.Handler) {
	if name == "" {
		rb.Add(ReturnClause{h})
		return
	}
	rb.Add(&Named{name, DirectReturn(h)})
}

// DirectReturn is a RouteBlock that returns h if the path is consumed.
func DirectReturn(h http.Handler) *RouteBlock {
	return NewRouteBlock(ReturnClause{h})
}
