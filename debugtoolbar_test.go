package debugtoolbar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/debugtoolbar/config"
	"github.com/thejerf/debugtoolbar/logger"
	"github.com/thejerf/debugtoolbar/session"
	"github.com/thejerf/debugtoolbar/toolbar"
)

func page(w http.ResponseWriter, r *http.Request) {
	if s, ok := session.FromRequest(r); ok {
		s.Set("visits", 1)
	}
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte("<html><body>article</body></html>"))
}

func TestWiring(t *testing.T) {
	cfg := config.Default()
	cfg.Toolbar.InternalIPs = []string{"192.0.2.1"}

	dt := New(cfg, &Args{Logger: logger.Nop{}})
	dt.Router.Location("/articles/").Capture("slug").Return("article", http.HandlerFunc(page))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dt.ServeBackground(ctx)

	h := dt.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/articles/hello?ref=feed", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `id="dtb"`)
	assert.True(t, strings.HasSuffix(body, "</body></html>"))
	assert.NotEmpty(t, rec.Result().Cookies(), "session cookie missing")

	tb := dt.Store.Get(rec.Header().Get(toolbar.StoreIDHeader))
	require.NotNil(t, tb)
	p := tb.Panel("RequestPanel")
	require.NotNil(t, p)

	stats := p.Stats()
	assert.Equal(t, "github.com/thejerf/debugtoolbar.page", stats["view_func"])
	assert.Equal(t, map[string]string{"slug": "hello"}, stats["view_kwargs"])
	assert.Equal(t, "article", stats["view_urlname"])
	assert.Equal(t, []toolbar.Pair{{Key: "visits", Value: 1}}, stats["session"])
	assert.Equal(t, []toolbar.Pair{{Key: "ref", Value: []string{"feed"}}}, stats["get"])
}

func TestToolbarDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Toolbar.Enabled = false
	cfg.Toolbar.InternalIPs = []string{"192.0.2.1"}

	dt := New(cfg, &Args{Logger: logger.Nop{}})
	dt.Router.AddLocationReturn("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<body></body>"))
	}))

	rec := httptest.NewRecorder()
	dt.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, "<body></body>", rec.Body.String())
	assert.Empty(t, rec.Header().Get(toolbar.StoreIDHeader))
}
