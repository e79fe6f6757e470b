package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/travelrag/travel-cli/internal/client"
	"github.com/travelrag/travel-cli/internal/common"
	"github.com/travelrag/travel-cli/internal/config"
	"github.com/travelrag/travel-cli/internal/notify"
	"github.com/travelrag/travel-cli/internal/router"
	"github.com/travelrag/travel-cli/internal/sessions"
)

const (
	PathRoot     = "/"
	PathLogin    = "/login"
	PathRegister = "/register"
	PathSearch   = "/product-comparison"
	PathHistory  = "/history"
)

// App is the composition root. It owns one instance of every component
// and is the only consumer of ForceLogout commands.
type App struct {
	Config   *config.Config
	Client   *client.Client
	Storage  sessions.Storage
	Sessions *sessions.SessionManager
	Ledger   *sessions.ReturnLedger
	Router   *router.Router
	Notifier *notify.Notifier
	Bus      *common.Hub[client.ForceLogout]

	unsubscribe func()
}

type Option func(*options)

type options struct {
	storage sessions.Storage
}

// WithStorage replaces the storage selected from the configuration.
func WithStorage(storage sessions.Storage) Option {
	return func(o *options) {
		o.storage = storage
	}
}

func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	storage := o.storage
	if storage == nil {
		var err error
		storage, err = sessions.NewStorage(sessions.StorageOptions{
			Mode:      sessions.StorageMode(cfg.Storage.Mode),
			Path:      cfg.Storage.Path,
			Namespace: cfg.GetEndpoint(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to set up session storage: %w", err)
		}
	}

	a := &App{
		Config:   cfg,
		Storage:  storage,
		Ledger:   sessions.NewReturnLedger(storage),
		Notifier: notify.New(),
		Bus:      common.NewHub[client.ForceLogout](),
	}

	a.Client = client.New(client.Options{
		BaseURL:      cfg.GetEndpoint(),
		Timeout:      cfg.API.Timeout,
		ProbeTimeout: cfg.API.ProbeTimeout,
		UserAgent:    cfg.API.UserAgent,
	})

	a.Sessions = sessions.NewSessionManager(a.Client, sessions.NewCredentialStore(storage))
	a.Client.SetHeaderSource(a.Sessions)

	a.Router = router.New(router.NewAuthGuard(a.Sessions, a.Ledger, PathLogin))
	a.Router.Handle(router.Route{Path: PathRoot, RedirectTo: PathSearch})
	a.Router.Handle(router.Route{Path: PathLogin})
	a.Router.Handle(router.Route{Path: PathRegister})
	a.Router.Handle(router.Route{Path: PathSearch, Protected: true})
	a.Router.Handle(router.Route{Path: PathHistory, Protected: true})
	a.Router.Fallback(PathSearch)

	a.Client.Use(client.NewInterceptor(
		client.PublisherFunc(a.Bus.Publish),
		a.Router.URL,
	))
	a.unsubscribe = a.Bus.Subscribe(a.handleForceLogout)

	logrus.WithFields(logrus.Fields{
		"endpoint": cfg.GetEndpoint(),
		"storage":  storage.Mode(),
	}).Debugln("Travel client initialised")

	return a, nil
}

// Views are the renderers mounted on the routes.
type Views struct {
	Login    router.View
	Register router.View
	Search   router.View
	History  router.View
}

func (a *App) Mount(views Views) {
	a.Router.Handle(router.Route{Path: PathLogin, View: views.Login})
	a.Router.Handle(router.Route{Path: PathRegister, View: views.Register})
	a.Router.Handle(router.Route{Path: PathSearch, Protected: true, View: views.Search})
	a.Router.Handle(router.Route{Path: PathHistory, Protected: true, View: views.History})
}

// Start restores the identity of a stored credential. Failures are
// reported but never fatal.
func (a *App) Start(ctx context.Context) {
	if !a.Sessions.IsAuthenticated() {
		return
	}

	if _, err := a.Sessions.RefreshIdentity(ctx); err != nil {
		logrus.WithError(err).Debugln("Stored credential could not be restored")
		if client.IsAuthFailure(err) {
			a.Notifier.Warning(sessionExpiredMessage)
			return
		}
		a.Report(err)
	}
}

// Open navigates to target and renders views until the navigation settles.
// Navigation queued before the call is dropped: the user asked for target.
func (a *App) Open(ctx context.Context, target string) (router.Location, error) {
	if stale, ok := a.Router.Discard(); ok {
		logrus.WithFields(logrus.Fields{
			"dropped": stale,
			"target":  target,
		}).Debugln("Dropping queued navigation")
	}
	return a.Router.Navigate(ctx, target)
}

// Resume follows navigation queued outside a view, typically the login
// redirect after Start or a direct call found the credential rejected.
func (a *App) Resume(ctx context.Context) (router.Location, bool, error) {
	return a.Router.Resume(ctx)
}

func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

// handleForceLogout reacts to the service rejecting the credential: the
// session is cleared, the current location remembered and the login view
// queued. A second rejection while the redirect is still pending is
// ignored.
func (a *App) handleForceLogout(cmd client.ForceLogout) {
	if pending, ok := a.Router.Pending(); ok && router.ParseLocation(pending).Path == PathLogin {
		logrus.WithField("url", cmd.URL).Debugln("Login redirect already pending")
		return
	}

	a.Sessions.Expire()

	returnTo := cmd.ReturnTo
	switch router.ParseLocation(returnTo).Path {
	case PathLogin, PathRegister:
		returnTo = ""
	}

	if len(returnTo) > 0 {
		if err := a.Ledger.Set(returnTo); err != nil {
			logrus.WithError(err).Warnln("Failed to record return destination")
		}
	}

	a.Router.RequestNavigation(router.LoginRedirect(PathLogin, returnTo))
}

// Report routes a failure to the notifier as a readable message.
func (a *App) Report(err error) {
	if err == nil {
		return
	}
	switch client.KindOf(err) {
	case client.KindValidation, client.KindNotFound:
		a.Notifier.Warning(err.Error())
	default:
		a.Notifier.Error(err.Error())
	}
}
