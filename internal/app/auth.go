package app

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/travelrag/travel-cli/internal/client"
	"github.com/travelrag/travel-cli/internal/models"
	"github.com/travelrag/travel-cli/internal/router"
)

const (
	RegisteredParam   = "registered"
	registeredMessage = "Registration successful, please log in with your new account"
	loggedOutMessage  = "You have been logged out"

	sessionExpiredMessage = "Your session has expired, please log in again"
)

// EnterLogin prepares the login view for location. It reports false when
// the view should not be shown because the user is already signed in.
func (a *App) EnterLogin(location router.Location) bool {
	if a.Sessions.IsAuthenticated() {
		a.Router.RequestNavigation(PathRoot)
		return false
	}

	if location.Param(RegisteredParam) == "true" {
		a.Notifier.Success(registeredMessage)
	}

	if returnURL := location.Param(router.ReturnURLParam); len(returnURL) > 0 {
		if err := a.Ledger.Set(returnURL); err != nil {
			logrus.WithError(err).Warnln("Failed to record return destination")
		}
	}

	return true
}

// EnterRegister reports false when the user is already signed in.
func (a *App) EnterRegister(router.Location) bool {
	if a.Sessions.IsAuthenticated() {
		a.Router.RequestNavigation(PathRoot)
		return false
	}
	return true
}

// CheckBackend probes the service and reports a connectivity message when
// it does not answer.
func (a *App) CheckBackend(ctx context.Context) error {
	if err := a.Client.Probe(ctx); err != nil {
		a.Report(err)
		return err
	}
	return nil
}

// SubmitLogin signs in and queues navigation to the pending return
// destination, or the landing view.
func (a *App) SubmitLogin(ctx context.Context, username, password string) (*models.Identity, error) {
	identity, err := a.Sessions.Login(ctx, username, password)
	if err != nil {
		a.Report(err)
		return nil, err
	}

	if identity == nil {
		a.Notifier.Warning("Signed in, but no session storage is available so the session was not kept")
	} else {
		a.Notifier.Success("Welcome back, " + identity.GetName())
	}

	a.CompleteLogin()

	return identity, nil
}

// CompleteLogin consumes the return destination and queues it.
func (a *App) CompleteLogin() string {
	destination, ok := a.Ledger.TakeIfPresent()
	if !ok {
		destination = PathRoot
	}

	switch router.ParseLocation(destination).Path {
	case PathLogin, PathRegister:
		destination = PathRoot
	}

	a.Router.RequestNavigation(destination)
	return destination
}

// SubmitRegistration creates the account and queues the login view.
func (a *App) SubmitRegistration(ctx context.Context, user models.NewUser) error {
	if err := a.Sessions.Register(ctx, user); err != nil {
		a.Report(err)
		return err
	}

	a.Router.RequestNavigation(router.WithQuery(PathLogin, map[string]string{
		RegisteredParam: "true",
	}))

	return nil
}

func (a *App) Logout(ctx context.Context) {
	wasAuthenticated := a.Sessions.IsAuthenticated()

	a.Sessions.Logout(ctx)

	if err := a.Ledger.Clear(); err != nil {
		logrus.WithError(err).Debugln("Failed to clear return destination")
	}

	if wasAuthenticated {
		a.Notifier.Info(loggedOutMessage)
	}

	// Replaces the redirect a rejected logout call may have queued.
	a.Router.RequestNavigation(PathLogin)
}

// IsConnectivity reports whether err is a connectivity failure rather
// than a rejection.
func IsConnectivity(err error) bool {
	return errors.Is(err, client.ErrNetworkUnavailable)
}
