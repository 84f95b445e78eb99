/*

Package toolbar implements a debug toolbar for net/http servers.

The Middleware buffers each response of a client allowed to see the
toolbar, lets a set of Panels look at the request and response, keeps the
result in a bounded Store and inserts the rendered toolbar into HTML
pages. Panels can be refetched later through the render_panel endpoint
under the URL prefix.

*/
package toolbar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thejerf/abtime"
	"github.com/thejerf/debugtoolbar/logger"
	"github.com/thejerf/debugtoolbar/request"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
)

const (
	// DefaultURLPrefix is where the toolbar's own endpoints live.
	DefaultURLPrefix = "/__debug__/"
	// DefaultInsertBefore is the tag the toolbar is inserted before.
	DefaultInsertBefore = "</body>"
	// StoreIDHeader carries the store id of a response's toolbar.
	StoreIDHeader = "X-Debug-Toolbar-Store-Id"
)

// DefaultInternalIPs are the client addresses shown the toolbar by default.
var DefaultInternalIPs = []string{"127.0.0.1", "::1"}

// Options configure the Middleware. The zero value is usable.
type Options struct {
	// URLPrefix is the path the toolbar endpoints are served under.
	// Defaults to DefaultURLPrefix.
	URLPrefix string
	// InsertBefore is the tag the toolbar is inserted in front of.
	// Defaults to DefaultInsertBefore.
	InsertBefore string
	// ShowToolbar decides whether a request gets the toolbar. If nil, the
	// toolbar is shown to clients whose address is in InternalIPs.
	ShowToolbar func(*http.Request) bool
	// InternalIPs defaults to DefaultInternalIPs.
	InternalIPs []string

	// Panels build the panels for each request, in display order.
	Panels []PanelFactory
	// DisabledPanels lists panel IDs that are never run.
	DisabledPanels []string

	// Store keeps recent toolbars. If nil, one of ResultsCacheSize is
	// created.
	Store            *Store
	ResultsCacheSize int

	// MaxBodyBytes bounds the form body snapshot. Defaults to
	// request.DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// Logger receives panel failures and, if LogSummaries is set, a text
	// summary of every toolbar.
	Logger       logger.Logger
	LogSummaries bool

	// Time is used for toolbar timestamps. Defaults to real time.
	Time abtime.AbstractTime
}

func (o *Options) setDefaults() {
	if o.URLPrefix == "" {
		o.URLPrefix = DefaultURLPrefix
	}
	if !strings.HasSuffix(o.URLPrefix, "/") {
		o.URLPrefix += "/"
	}
	if o.InsertBefore == "" {
		o.InsertBefore = DefaultInsertBefore
	}
	if o.InternalIPs == nil {
		o.InternalIPs = DefaultInternalIPs
	}
	if o.ShowToolbar == nil {
		o.ShowToolbar = InternalIPs(o.InternalIPs...)
	}
	if o.Store == nil {
		o.Store = NewStore(o.ResultsCacheSize)
	}
	if o.MaxBodyBytes == 0 {
		o.MaxBodyBytes = request.DefaultMaxBodyBytes
	}
	if o.Logger == nil {
		o.Logger = logger.Nop{}
	}
	if o.Time == nil {
		o.Time = abtime.NewRealTime()
	}
}

// InternalIPs returns a ShowToolbar function accepting clients with one of
// the given addresses.
func InternalIPs(ips ...string) func(*http.Request) bool {
	allowed := map[string]bool{}
	for _, ip := range ips {
		if parsed := net.ParseIP(ip); parsed != nil {
			allowed[parsed.String()] = true
		}
	}
	return func(r *http.Request) bool {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip := net.ParseIP(host)
		return ip != nil && allowed[ip.String()]
	}
}

// A Toolbar is the record of one request: its panels and their stats.
type Toolbar struct {
	StoreID  string
	Created  time.Time
	TraceID  string
	Lang     language.Tag
	Request  *http.Request
	Response *Response
	Panels   []Panel
}

// Panel returns the panel with the given ID, or nil.
func (tb *Toolbar) Panel(id string) Panel {
	for _, p := range tb.Panels {
		if p.ID() == id {
			return p
		}
	}
	return nil
}

// PanelDisabledCookie returns the name of the cookie which, set to "off",
// disables the panel for a client.
func PanelDisabledCookie(panelID string) string {
	return "dtb" + panelID
}

func panelEnabled(r *http.Request, id string, disabled map[string]bool) bool {
	if disabled[id] {
		return false
	}
	c, err := r.Cookie(PanelDisabledCookie(id))
	return err != nil || c.Value != "off"
}

func traceID(r *http.Request) string {
	sc := trace.SpanContextFromContext(r.Context())
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

func newStoreID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")
}

type middleware struct {
	h        http.Handler
	o        Options
	disabled map[string]bool
}

// Middleware wraps h with the debug toolbar.
func Middleware(h http.Handler, o Options) http.Handler {
	o.setDefaults()
	disabled := map[string]bool{}
	for _, id := range o.DisabledPanels {
		disabled[id] = true
	}
	return &middleware{h, o, disabled}
}

func (m *middleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, m.o.URLPrefix) {
		m.serveEndpoint(w, r)
		return
	}
	if !m.o.ShowToolbar(r) {
		m.h.ServeHTTP(w, r)
		return
	}

	r, _ = request.Attach(r)
	if err := request.SnapshotForm(r, m.o.MaxBodyBytes); err != nil {
		logger.Printf(m.o.Logger, "debug toolbar: could not read form body: %v", err)
	}

	wrapper := NewResponseWrapper(w)
	m.h.ServeHTTP(wrapper, r)
	if wrapper.Hijacked {
		return
	}

	tb := m.newToolbar(r, wrapper.Response())
	m.o.Store.Add(tb)

	body := wrapper.Body.Bytes()
	header := w.Header()
	for k, v := range wrapper.Header() {
		header[k] = v
	}
	header.Set(StoreIDHeader, tb.StoreID)

	if injectable(wrapper.Code, header) {
		rendered, err := tb.Render(m.o.URLPrefix + "render_panel/")
		if err != nil {
			logger.Printf(m.o.Logger, "debug toolbar: could not render toolbar %s: %v", tb.StoreID, err)
		} else if inserted, ok := insertBefore(body, m.o.InsertBefore, rendered); ok {
			body = inserted
			header.Del("Content-Length")
		}
	}

	w.WriteHeader(wrapper.Code)
	w.Write(body)

	if m.o.LogSummaries {
		summary, err := Summary(tb)
		if err != nil {
			logger.Printf(m.o.Logger, "debug toolbar: could not summarize %s: %v", tb.StoreID, err)
			return
		}
		m.o.Logger.Print(summary)
	}
}

func (m *middleware) newToolbar(r *http.Request, resp *Response) *Toolbar {
	tb := &Toolbar{
		StoreID:  newStoreID(),
		Created:  m.o.Time.Now(),
		TraceID:  traceID(r),
		Lang:     LanguageFor(r),
		Request:  r,
		Response: resp,
	}
	for _, factory := range m.o.Panels {
		p := factory()
		if !panelEnabled(r, p.ID(), m.disabled) {
			continue
		}
		if m.generateStats(p, r, resp) {
			tb.Panels = append(tb.Panels, p)
		}
	}
	return tb
}

// generateStats runs one panel, reporting whether it completed.
func (m *middleware) generateStats(p Panel, r *http.Request, resp *Response) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Printf(m.o.Logger, "debug toolbar: panel %s panicked: %v", p.ID(), rec)
			ok = false
		}
	}()
	p.GenerateStats(r, resp)
	return true
}

func injectable(code int, header http.Header) bool {
	if code >= 300 && code < 400 {
		return false
	}
	if header.Get("Content-Encoding") != "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(header.Get("Content-Type")), "text/html")
}

// insertBefore inserts content before the last case-insensitive
// occurrence of tag in body.
func insertBefore(body []byte, tag string, content []byte) ([]byte, bool) {
	idx := bytes.LastIndex(bytes.ToLower(body), bytes.ToLower([]byte(tag)))
	if idx < 0 {
		return body, false
	}
	out := make([]byte, 0, len(body)+len(content))
	out = append(out, body[:idx]...)
	out = append(out, content...)
	out = append(out, body[idx:]...)
	return out, true
}

type panelContent struct {
	Content string   `json:"content"`
	Scripts []string `json:"scripts"`
}

func (m *middleware) serveEndpoint(w http.ResponseWriter, r *http.Request) {
	switch strings.TrimPrefix(r.URL.Path, m.o.URLPrefix) {
	case "render_panel/", "render_panel":
		m.renderPanel(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (m *middleware) renderPanel(w http.ResponseWriter, r *http.Request) {
	lang := LanguageFor(r)
	q := r.URL.Query()

	tb := m.o.Store.Get(q.Get("store_id"))
	if tb == nil {
		writeJSON(w, http.StatusNotFound, panelContent{
			Content: fmt.Sprintf("<p>%s</p>", T(lang, "Data for this panel isn't available anymore. Please reload the page and retry.")),
			Scripts: []string{},
		})
		return
	}
	p := tb.Panel(q.Get("panel_id"))
	if p == nil {
		writeJSON(w, http.StatusNotFound, panelContent{
			Content: fmt.Sprintf("<p>%s</p>", T(lang, "Panel not found")),
			Scripts: []string{},
		})
		return
	}

	content, err := renderPanel(lang, p)
	if err != nil {
		logger.Printf(m.o.Logger, "debug toolbar: could not render panel %s of %s: %v", p.ID(), tb.StoreID, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, panelContent{Content: string(content), Scripts: []string{}})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
