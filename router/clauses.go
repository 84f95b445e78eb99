package router

import (
	"bytes"
	"fmt"
	"net/http"
)

// A StaticLocation matches a given static portion of the URL.
//
// Note that StaticLocation only consumes the prefix; whether the rest of
// the path must be empty is up to the clauses in its RouteBlock.
type StaticLocation struct {
	Location string
	*RouteBlock
}

// Route implements the Router interface.
func (sl *StaticLocation) Route(rr *Request) (res Result) {
	if bytes.HasPrefix(rr.CurrentPath(), []byte(sl.Location)) {
		rr.ConsumePath(len(sl.Location), sl.Location)
		res.RouteBlock = sl.RouteBlock
	}
	return
}

func (sl *StaticLocation) Name() string {
	return "location"
}

func (sl *StaticLocation) Argument() string {
	return sl.Location
}

// A Capture consumes one non-empty path segment (up to the next '/') and
// records it as a named parameter.
type Capture struct {
	Param string
	*RouteBlock
}

// Route implements the Router interface.
func (c *Capture) Route(rr *Request) (res Result) {
	segment := nextSegment(rr.CurrentPath())
	if len(segment) == 0 {
		return
	}
	rr.AddKwarg(c.Param, string(segment))
	rr.ConsumePath(len(segment), "{"+c.Param+"}")
	res.RouteBlock = c.RouteBlock
	return
}

func (c *Capture) Name() string {
	return "capture"
}

func (c *Capture) Argument() string {
	return c.Param
}

// A Positional consumes one non-empty path segment and appends it to the
// positional arguments.
type Positional struct {
	*RouteBlock
}

// Route implements the Router interface.
func (p *Positional) Route(rr *Request) (res Result) {
	segment := nextSegment(rr.CurrentPath())
	if len(segment) == 0 {
		return
	}
	rr.AddArg(string(segment))
	rr.ConsumePath(len(segment), "{}")
	res.RouteBlock = p.RouteBlock
	return
}

func (p *Positional) Name() string {
	return "positional"
}

func (p *Positional) Argument() string {
	return ""
}

// Named gives a name to any route matched through its RouteBlock.
type Named struct {
	RouteName string
	*RouteBlock
}

// Route implements the Router interface.
func (n *Named) Route(rr *Request) (res Result) {
	rr.SetName(n.RouteName)
	res.RouteBlock = n.RouteBlock
	return
}

func (n *Named) Name() string {
	return "named"
}

func (n *Named) Argument() string {
	return n.RouteName
}

// A ReturnClause returns a constant handler, if the path is fully
// consumed.
type ReturnClause struct {
	http.Handler
}

// Route implements the Router interface.
func (rc ReturnClause) Route(rr *Request) (res Result) {
	if len(rr.CurrentPath()) == 0 {
		res.Handler = rc.Handler
	}
	return
}

func (rc ReturnClause) Name() string {
	return "return"
}

func (rc ReturnClause) Argument() string {
	return fmt.Sprintf("%T", rc.Handler)
}

// A ForwardClause returns a constant handler even if the path is not
// fully consumed.
//
// When writing routes, you should consider ReturnClauses the thing you use
// by default, until you find you need a ForwardClause.
type ForwardClause struct {
	http.Handler
}

// Route implements the Router interface.
func (fc ForwardClause) Route(*Request) (res Result) {
	res.Handler = fc.Handler
	return
}

func (fc ForwardClause) Name() string {
	return "forward"
}

func (fc ForwardClause) Argument() string {
	return fmt.Sprintf("%T", fc.Handler)
}

func nextSegment(path []byte) []byte {
	if idx := bytes.IndexByte(path, '/'); idx >= 0 {
		return path[:idx]
	}
	return path
}
