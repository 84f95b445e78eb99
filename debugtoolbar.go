/*

Package debugtoolbar provides the default wiring of the debug toolbar
around a routed application.

New brings up the services the toolbar's environment needs under a
supervisor, and Handler returns the composed chain:

    toolbar -> session -> router

so the toolbar observes the session and the view the router resolves.

*/
package debugtoolbar

import (
	"net/http"

	"github.com/thejerf/abtime"
	"github.com/thejerf/debugtoolbar/config"
	"github.com/thejerf/debugtoolbar/logger"
	"github.com/thejerf/debugtoolbar/panels"
	"github.com/thejerf/debugtoolbar/router"
	"github.com/thejerf/debugtoolbar/secret"
	"github.com/thejerf/debugtoolbar/session"
	"github.com/thejerf/debugtoolbar/toolbar"
	"github.com/thejerf/suture/v4"
)

// A DebugToolbar is a running toolbar environment. Routes are added to
// its Router; Serve must be running for sessions to be handed out.
type DebugToolbar struct {
	*suture.Supervisor
	Router        *router.Mux
	SessionServer session.Server
	Store         *toolbar.Store

	config config.Config
	args   *Args
	secret *secret.Secret
}

// Args override the default parts of a DebugToolbar. All are optional.
type Args struct {
	IDGenerator     *session.IDGenerator
	SecretGenerator *secret.Generator
	SessionServer   session.Server
	Logger          logger.Logger
	Time            abtime.AbstractTime

	// Panels are added after the built-in request panel.
	Panels []toolbar.PanelFactory
}

// New brings up a new debug toolbar environment.
//
// Sessions are entirely in RAM unless Args.SessionServer is given.
func New(cfg config.Config, args *Args) *DebugToolbar {
	if args == nil {
		args = &Args{}
	}
	if args.Logger == nil {
		args.Logger = logger.Std("debugtoolbar: ")
	}
	if args.Time == nil {
		args.Time = abtime.NewRealTime()
	}

	supervisor := suture.NewSimple("debug toolbar root supervisor")

	if args.IDGenerator == nil {
		args.IDGenerator = session.NewIDGenerator(128, nil)
	}
	supervisor.Add(args.IDGenerator)
	if args.SecretGenerator == nil {
		args.SecretGenerator = secret.NewGenerator(128)
	}
	supervisor.Add(args.SecretGenerator)
	if args.SessionServer == nil {
		ram := session.NewRAMServer(args.IDGenerator, args.SecretGenerator,
			&session.RAMSettings{Timeout: cfg.Session.Timeout, AbstractTime: args.Time})
		supervisor.Add(ram)
		args.SessionServer = ram
	}

	key := secret.Get()
	if cfg.Session.SecretKey != "" {
		key = secret.New([]byte(cfg.Session.SecretKey))
	}

	r := router.New()
	r.Logger = args.Logger

	return &DebugToolbar{
		Supervisor:    supervisor,
		Router:        r,
		SessionServer: args.SessionServer,
		Store:         toolbar.NewStore(cfg.Toolbar.ResultsCacheSize),
		config:        cfg,
		args:          args,
		secret:        key,
	}
}

// Handler returns the application handler, with sessions and, if enabled,
// the toolbar.
func (dt *DebugToolbar) Handler() http.Handler {
	h := session.Middleware(dt.Router, dt.SessionServer, session.Options{
		CookieName: dt.config.Session.CookieName,
		Secret:     dt.secret,
		Logger:     dt.args.Logger,
	})
	if !dt.config.Toolbar.Enabled {
		return h
	}

	tc := dt.config.Toolbar
	return toolbar.Middleware(h, toolbar.Options{
		URLPrefix:      tc.URLPrefix,
		InsertBefore:   tc.InsertBefore,
		InternalIPs:    tc.InternalIPs,
		Panels:         append([]toolbar.PanelFactory{panels.RequestPanelFactory(dt.Router, dt.args.Logger)}, dt.args.Panels...),
		DisabledPanels: tc.DisabledPanels,
		Store:          dt.Store,
		MaxBodyBytes:   tc.MaxBodyBytes,
		Logger:         dt.args.Logger,
		LogSummaries:   tc.LogSummaries,
		Time:           dt.args.Time,
	})
}
