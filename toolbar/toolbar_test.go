package toolbar

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/abtime"
	"github.com/thejerf/debugtoolbar/request"
	"go.opentelemetry.io/otel/trace"
)

type testPanel struct {
	Base
	id      string
	explode bool
}

func (p *testPanel) ID() string       { return p.id }
func (p *testPanel) Title() string    { return "Request" }
func (p *testPanel) Template() string { return "test" }

func (p *testPanel) NavSubtitle() string {
	s, _ := p.Stats()["path"].(string)
	return s
}

func (p *testPanel) GenerateStats(r *http.Request, resp *Response) {
	if p.explode {
		panic("kaboom")
	}
	p.RecordStats(Stats{"path": r.URL.Path, "status": resp.StatusCode})
}

func init() {
	if err := RegisterTemplate("test", `<p class="path">{{.path}}</p><p>{{pformat .status}}</p>`); err != nil {
		panic(err)
	}
}

func factory(id string, explode bool) PanelFactory {
	return func() Panel {
		return &testPanel{id: id, explode: explode}
	}
}

type testLogger struct {
	lines []string
}

func (tl *testLogger) Print(v ...interface{}) {
	tl.lines = append(tl.lines, fmt.Sprint(v...))
}

func always(*http.Request) bool { return true }

const page = `<html><head></head><body><p>hello</p></BODY></html>`

func htmlHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		fmt.Fprint(w, body)
	})
}

func TestInsertsToolbar(t *testing.T) {
	store := NewStore(0)
	h := Middleware(htmlHandler(page), Options{
		ShowToolbar: always,
		Panels:      []PanelFactory{factory("TestPanel", false)},
		Store:       store,
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/page", nil))

	body := rec.Body.String()
	storeID := rec.Header().Get(StoreIDHeader)
	require.Len(t, storeID, 32)
	assert.Empty(t, rec.Header().Get("Content-Length"))

	idx := strings.Index(body, `<div id="dtb"`)
	require.True(t, idx > 0, "toolbar not inserted: %s", body)
	assert.True(t, idx < strings.Index(body, "</BODY>"), "toolbar must precede the closing body tag")
	assert.True(t, strings.HasPrefix(body, `<html><head></head><body><p>hello</p>`))
	assert.Contains(t, body, `<p class="path">/page</p>`)
	assert.Contains(t, body, `<small>/page</small>`)
	assert.Contains(t, body, `data-store-id="`+storeID+`"`)

	tb := store.Get(storeID)
	require.NotNil(t, tb)
	assert.Equal(t, 200, tb.Response.StatusCode)
	assert.Equal(t, 200, tb.Panel("TestPanel").Stats()["status"])
	assert.Nil(t, tb.Panel("Nope"))
}

func TestInsertsBeforeLastTag(t *testing.T) {
	out, ok := insertBefore([]byte("a</body>b</Body>c"), "</body>", []byte("X"))
	assert.True(t, ok)
	assert.Equal(t, "a</body>bX</Body>c", string(out))

	out, ok = insertBefore([]byte("no tag"), "</body>", []byte("X"))
	assert.False(t, ok)
	assert.Equal(t, "no tag", string(out))
}

func TestNotInjected(t *testing.T) {
	for name, h := range map[string]http.Handler{
		"redirect": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			http.Redirect(w, r, "/elsewhere", http.StatusFound)
		}),
		"encoded": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Header().Set("Content-Encoding", "gzip")
			fmt.Fprint(w, page)
		}),
		"json": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"body": "</body>"}`)
		}),
	} {
		rec := httptest.NewRecorder()
		Middleware(h, Options{ShowToolbar: always, Panels: []PanelFactory{factory("TestPanel", false)}}).
			ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		assert.NotContains(t, rec.Body.String(), `id="dtb"`, name)
		assert.NotEmpty(t, rec.Header().Get(StoreIDHeader), name)
	}
}

func TestHiddenFromOutsiders(t *testing.T) {
	h := Middleware(htmlHandler(page), Options{Panels: []PanelFactory{factory("TestPanel", false)}})

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.5:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, page, rec.Body.String())
	assert.Empty(t, rec.Header().Get(StoreIDHeader))

	r = httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "127.0.0.1:4000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Contains(t, rec.Body.String(), `id="dtb"`)

	show := InternalIPs("::1")
	r.RemoteAddr = "[::1]:80"
	assert.True(t, show(r))
	r.RemoteAddr = "garbage"
	assert.False(t, show(r))
}

func TestPanelsCanBeDisabled(t *testing.T) {
	store := NewStore(0)
	h := Middleware(htmlHandler(page), Options{
		ShowToolbar:    always,
		Store:          store,
		DisabledPanels: []string{"Configured"},
		Panels: []PanelFactory{
			factory("Configured", false),
			factory("ByCookie", false),
			factory("Kept", false),
		},
	})

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: PanelDisabledCookie("ByCookie"), Value: "off"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	tb := store.Get(rec.Header().Get(StoreIDHeader))
	require.NotNil(t, tb)
	require.Len(t, tb.Panels, 1)
	assert.Equal(t, "Kept", tb.Panels[0].ID())
}

func TestPanelPanicsAreRecovered(t *testing.T) {
	tl := &testLogger{}
	store := NewStore(0)
	h := Middleware(htmlHandler(page), Options{
		ShowToolbar: always,
		Store:       store,
		Logger:      tl,
		Panels:      []PanelFactory{factory("Broken", true), factory("Fine", false)},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello")
	tb := store.Get(rec.Header().Get(StoreIDHeader))
	require.NotNil(t, tb)
	require.Len(t, tb.Panels, 1)
	assert.Equal(t, "Fine", tb.Panels[0].ID())
	require.Len(t, tl.lines, 1)
	assert.Contains(t, tl.lines[0], "kaboom")
}

func TestFormSnapshotLeavesBody(t *testing.T) {
	var seen string
	var snapshot []string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		seen = r.PostForm.Get("name")
		if form, ok := request.StateFrom(r).Form(); ok {
			snapshot = form["name"]
		}
	}), Options{ShowToolbar: always})

	r := httptest.NewRequest("POST", "/", strings.NewReader("name=gopher"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "gopher", seen)
	assert.Equal(t, []string{"gopher"}, snapshot)
}

func TestRenderPanelEndpoint(t *testing.T) {
	store := NewStore(0)
	h := Middleware(htmlHandler(page), Options{
		ShowToolbar: always,
		Store:       store,
		Panels:      []PanelFactory{factory("TestPanel", false)},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/thing", nil))
	storeID := rec.Header().Get(StoreIDHeader)

	get := func(query string) (*httptest.ResponseRecorder, panelContent) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/__debug__/render_panel/?"+query, nil))
		var pc panelContent
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pc))
		return rec, pc
	}

	rec, pc := get("store_id=" + storeID + "&panel_id=TestPanel")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, pc.Content, `<p class="path">/thing</p>`)
	assert.Equal(t, []string{}, pc.Scripts)

	rec, pc = get("store_id=missing&panel_id=TestPanel")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "<p>Data for this panel isn't available anymore. Please reload the page and retry.</p>", pc.Content)

	rec, _ = get("store_id=" + storeID + "&panel_id=Nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/__debug__/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoreEvictsOldest(t *testing.T) {
	store := NewStore(2)
	for _, id := range []string{"a", "b", "c"} {
		store.Add(&Toolbar{StoreID: id})
	}
	assert.Equal(t, 2, store.Len())
	assert.Nil(t, store.Get("a"))
	assert.NotNil(t, store.Get("b"))
	assert.NotNil(t, store.Get("c"))

	store.Clear()
	assert.Equal(t, 0, store.Len())
}

func TestToolbarMetadata(t *testing.T) {
	manTime := abtime.NewManualAtTime(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	store := NewStore(0)
	tl := &testLogger{}
	h := Middleware(htmlHandler(page), Options{
		ShowToolbar:  always,
		Store:        store,
		Time:         manTime,
		Logger:       tl,
		LogSummaries: true,
		Panels:       []PanelFactory{factory("TestPanel", false)},
	})

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})

	r := httptest.NewRequest("GET", "/traced", nil)
	r = r.WithContext(trace.ContextWithSpanContext(r.Context(), sc))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	tb := store.Get(rec.Header().Get(StoreIDHeader))
	require.NotNil(t, tb)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", tb.TraceID)
	assert.Equal(t, manTime.Now(), tb.Created)
	assert.Contains(t, rec.Body.String(), `data-trace-id="4bf92f3577b34da6a3ce929d0e0e4736"`)

	require.Len(t, tl.lines, 1)
	assert.Equal(t,
		"["+tb.StoreID+"] GET /traced 200 "+fmt.Sprint(len(page))+"b trace=4bf92f3577b34da6a3ce929d0e0e4736\n  Request: /traced",
		tl.lines[0])
}

func TestGermanToolbar(t *testing.T) {
	h := Middleware(htmlHandler(page), Options{
		ShowToolbar: always,
		Panels:      []PanelFactory{factory("TestPanel", false)},
	})
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Accept-Language", "de-AT")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Contains(t, rec.Body.String(), "<h3>Anfrage</h3>")
	assert.Contains(t, rec.Body.String(), "Toolbar ausblenden")
}
