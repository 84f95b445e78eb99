// Package panels holds the panels shipped with the debug toolbar.
package panels

import (
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/thejerf/debugtoolbar/logger"
	"github.com/thejerf/debugtoolbar/request"
	"github.com/thejerf/debugtoolbar/router"
	"github.com/thejerf/debugtoolbar/session"
	"github.com/thejerf/debugtoolbar/toolbar"
)

// A Resolver finds the view a path routes to. *router.Mux is one.
type Resolver interface {
	Resolve(path string) (*router.Match, error)
}

// A NameReporter is a Resolver that can say whether its matches carry
// route names at all. Resolvers that do not implement it are assumed to.
type NameReporter interface {
	ReportsURLNames() bool
}

// RequestPanel displays the request's variables: GET, POST, cookies,
// session, and the view the path resolves to.
type RequestPanel struct {
	toolbar.Base

	resolver Resolver
	logger   logger.Logger
}

// NewRequestPanel returns a RequestPanel resolving views through res. res
// may be nil, in which case no view is ever shown.
func NewRequestPanel(res Resolver, l logger.Logger) *RequestPanel {
	if l == nil {
		l = logger.Nop{}
	}
	return &RequestPanel{resolver: res, logger: l}
}

// RequestPanelFactory returns a toolbar.PanelFactory for RequestPanels.
func RequestPanelFactory(res Resolver, l logger.Logger) toolbar.PanelFactory {
	return func() toolbar.Panel {
		return NewRequestPanel(res, l)
	}
}

func (p *RequestPanel) ID() string       { return "RequestPanel" }
func (p *RequestPanel) Title() string    { return "Request" }
func (p *RequestPanel) Template() string { return "request" }

// NavSubtitle shows the abbreviated name of the view function.
func (p *RequestPanel) NavSubtitle() string {
	viewFunc, _ := p.Stats()["view_func"].(string)
	return viewFunc[strings.LastIndex(viewFunc, ".")+1:]
}

func (p *RequestPanel) GenerateStats(r *http.Request, resp *toolbar.Response) {
	lang := toolbar.LanguageFor(r)

	p.RecordStats(toolbar.Stats{
		"get":     toolbar.SortedValues(r.URL.Query()),
		"post":    toolbar.SortedValues(postValues(r)),
		"cookies": sortedCookies(r),
	})

	viewInfo := toolbar.Stats{
		"view_func":    toolbar.T(lang, "<no view>"),
		"view_args":    "None",
		"view_kwargs":  "None",
		"view_urlname": "None",
	}
	if p.resolver != nil {
		match, err := p.resolver.Resolve(r.URL.Path)
		switch {
		case err == nil:
			viewInfo["view_func"] = toolbar.HandlerName(match.Handler)
			viewInfo["view_args"] = match.Args
			viewInfo["view_kwargs"] = match.Kwargs
			switch {
			case !reportsURLNames(p.resolver):
				viewInfo["view_urlname"] = toolbar.T(lang, "<unavailable>")
			case match.URLName != "":
				viewInfo["view_urlname"] = match.URLName
			}
		case err == router.ErrNotFound:
		default:
			logger.Printf(p.logger, "request panel: could not resolve %s: %v", r.URL.Path, err)
		}
	}
	p.RecordStats(viewInfo)

	if s, ok := session.FromRequest(r); ok {
		keys := s.Keys()
		sort.Strings(keys)
		pairs := make([]toolbar.Pair, 0, len(keys))
		for _, k := range keys {
			v, _ := s.Get(k)
			pairs = append(pairs, toolbar.Pair{Key: k, Value: v})
		}
		p.RecordStats(toolbar.Stats{"session": pairs})
	}
}

func reportsURLNames(res Resolver) bool {
	if nr, ok := res.(NameReporter); ok {
		return nr.ReportsURLNames()
	}
	return true
}

// postValues returns the form body as snapshotted before the handler ran,
// falling back to whatever the handler itself parsed. Only POST requests
// have POST data, even though net/http also parses PUT and PATCH bodies
// into PostForm.
func postValues(r *http.Request) url.Values {
	if r.Method != http.MethodPost {
		return url.Values{}
	}
	if s := request.StateFrom(r); s != nil {
		if form, ok := s.Form(); ok {
			return form
		}
	}
	if r.PostForm != nil {
		return r.PostForm
	}
	return url.Values{}
}

// sortedCookies returns the request's cookies by name. The first of
// several cookies with the same name wins.
func sortedCookies(r *http.Request) []toolbar.Pair {
	values := map[string]interface{}{}
	for _, c := range r.Cookies() {
		if _, seen := values[c.Name]; !seen {
			values[c.Name] = c.Value
		}
	}
	return toolbar.SortedMap(values)
}
