package router

import (
	"github.com/sirupsen/logrus"
)

const ReturnURLParam = "returnUrl"

type Authenticator interface {
	IsAuthenticated() bool
}

type DestinationRecorder interface {
	Set(path string) error
}

// AuthGuard admits navigation to protected routes only when a credential
// is stored. It never calls the service; an expired credential is caught
// by the first request the view makes.
type AuthGuard struct {
	auth      Authenticator
	ledger    DestinationRecorder
	loginPath string
}

func NewAuthGuard(auth Authenticator, ledger DestinationRecorder, loginPath string) *AuthGuard {
	return &AuthGuard{
		auth:      auth,
		ledger:    ledger,
		loginPath: loginPath,
	}
}

// CanActivate reports whether target may be entered, and otherwise where
// to go instead. A denied target is recorded as the return destination.
func (g *AuthGuard) CanActivate(target Location) (bool, string) {
	if g.auth.IsAuthenticated() {
		return true, ""
	}

	destination := target.String()

	logrus.WithField("target", destination).Debugln("Not authenticated, redirecting to login")

	if g.ledger != nil {
		if err := g.ledger.Set(destination); err != nil {
			logrus.WithError(err).Warnln("Failed to record return destination")
		}
	}

	return false, LoginRedirect(g.loginPath, destination)
}

// LoginRedirect builds the login location that returns to destination.
// The destination is query-escaped, so "/history" reads back from the
// returnUrl parameter unchanged.
func LoginRedirect(loginPath, destination string) string {
	if len(destination) == 0 || ParseLocation(destination).Path == ParseLocation(loginPath).Path {
		return loginPath
	}
	return WithQuery(loginPath, map[string]string{ReturnURLParam: destination})
}
