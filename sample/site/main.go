// Command site is a small sample site with the debug toolbar enabled.
//
// Configuration comes from ./debugtoolbar.toml, the file named by
// DEBUGTOOLBAR_CONFIG, and DEBUGTOOLBAR_ environment variables.
package main

import (
	"context"
	"flag"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"

	"github.com/thejerf/debugtoolbar"
	"github.com/thejerf/debugtoolbar/config"
	"github.com/thejerf/debugtoolbar/session"
)

var bind = flag.String("bind", "", "bind specification for the server; overrides server.bind")

var templates = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html><head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>You have visited {{.Visits}} page(s) this session.</p>
<ul>
<li><a href="/articles/hello-world">an article</a></li>
<li><a href="/archive/2024/03">the archive</a></li>
<li><a href="/?q=search&q=again">the index with a query</a></li>
</ul>
<form method="post" action="/comment"><input name="comment"><button>Post</button></form>
</body></html>`))

type Page struct {
	Title  string
	Visits int
}

func countVisit(r *http.Request) int {
	s, ok := session.FromRequest(r)
	if !ok {
		return 0
	}
	visits, _ := s.Get("visits")
	n, _ := visits.(int)
	n++
	s.Set("visits", n)
	return n
}

func render(rw http.ResponseWriter, r *http.Request, title string) {
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := templates.Execute(rw, Page{title, countVisit(r)})
	if err != nil {
		fmt.Printf("Error while trying to build %s page: %v\n", title, err)
	}
}

func Index(rw http.ResponseWriter, r *http.Request) {
	render(rw, r, "Index")
}

func Article(rw http.ResponseWriter, r *http.Request) {
	render(rw, r, "Article")
}

func Archive(rw http.ResponseWriter, r *http.Request) {
	render(rw, r, "Archive")
}

func Comment(rw http.ResponseWriter, r *http.Request) {
	if s, ok := session.FromRequest(r); ok {
		s.Set("last_comment", r.PostFormValue("comment"))
	}
	render(rw, r, "Thanks for commenting")
}

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Could not load configuration: %v\n", err)
		os.Exit(1)
	}
	if *bind != "" {
		cfg.Server.Bind = *bind
	}

	dt := debugtoolbar.New(cfg, nil)
	dt.Router.Location("/articles/").Capture("slug").Return("article", http.HandlerFunc(Article))
	dt.Router.Location("/archive/").Positional().Location("/").Positional().Return("", http.HandlerFunc(Archive))
	dt.Router.AddNamedReturn("/comment", "comment", http.HandlerFunc(Comment))
	dt.Router.AddNamedReturn("/", "index", http.HandlerFunc(Index))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	server := &http.Server{
		Addr:           cfg.Server.Bind,
		MaxHeaderBytes: 1 << 20,
		Handler:        dt.Handler(),
	}

	fmt.Printf("Serving http://%s\n", cfg.Server.Bind)
	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			fmt.Printf("No longer serving: %v\n", err)
			cancel()
		}
	}()

	_ = dt.Serve(ctx)
	_ = server.Shutdown(context.Background())
}
