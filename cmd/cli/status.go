package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/travelrag/travel-cli/internal/app"
	"github.com/travelrag/travel-cli/internal/client"
	"github.com/travelrag/travel-cli/internal/common"
	"github.com/travelrag/travel-cli/internal/config/environment"
	"github.com/travelrag/travel-cli/internal/models"
	"golang.org/x/sync/errgroup"
)

type statusReport struct {
	endpoint   string
	platform   string
	storage    string
	backendErr error
	identity   *models.Identity
	refreshErr error
	credential *models.Credential
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the travel service and session status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		report := collectStatus(ctx)
		printStatus(report)

		// Without a terminal the printed hint stands in for the login view.
		if !isInteractive() {
			return nil
		}

		_, _, err := application.Resume(ctx)
		return err
	},
}

// collectStatus probes the service and refreshes the identity at the same
// time. Neither failure stops the other.
func collectStatus(ctx context.Context) statusReport {
	report := statusReport{
		endpoint: cfg.GetEndpoint(),
		platform: fmt.Sprintf("%s/%s", environment.DetectOperatingSystem(), environment.DetectPlatform()),
		storage:  string(application.Storage.Mode()),
	}

	if credential, ok := application.Sessions.Credential(); ok {
		report.credential = &credential
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		report.backendErr = application.Client.Probe(gctx)
		return nil
	})

	if report.credential != nil {
		g.Go(func() error {
			report.identity, report.refreshErr = application.Sessions.RefreshIdentity(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Debugln("Status collection interrupted")
	}

	return report
}

func printStatus(report statusReport) {
	fmt.Println(titleStyle.Render("Travel service status"))

	fmt.Printf("%s %s\n", headerStyle.Render("Endpoint:"), report.endpoint)

	if report.backendErr != nil {
		fmt.Printf("%s %s\n", headerStyle.Render("Service: "), errorStyle.Render("unreachable"))
		if hint, ok := connectivityHint(report.backendErr, report.endpoint); ok {
			fmt.Println(mutedStyle.Render(hint))
		}
	} else {
		fmt.Printf("%s %s\n", headerStyle.Render("Service: "), activeStyle.Render("reachable"))
	}

	fmt.Printf("%s %s\n", headerStyle.Render("Platform:"), report.platform)
	fmt.Printf("%s %s\n", headerStyle.Render("Storage: "), report.storage)

	switch {
	case report.credential == nil:
		fmt.Printf("%s %s\n", headerStyle.Render("Session: "), mutedStyle.Render("not signed in"))

	case report.identity != nil:
		fmt.Printf("%s %s\n", headerStyle.Render("Session: "),
			activeStyle.Render(fmt.Sprintf("signed in as %s", report.identity.GetName())))
		if len(report.identity.Email) > 0 {
			fmt.Printf("%s %s\n", headerStyle.Render("Email:   "), report.identity.Email)
		}
		if expiry, ok := tokenExpiry(report.credential.Token); ok {
			fmt.Printf("%s %s\n", headerStyle.Render("Expires: "), describeExpiry(expiry, time.Now()))
		}

	case client.IsAuthFailure(report.refreshErr):
		fmt.Printf("%s %s\n", headerStyle.Render("Session: "), expiredStyle.Render("expired"))
		fmt.Println(mutedStyle.Render("Run 'travel login' to sign in again"))

	case app.IsConnectivity(report.refreshErr):
		fmt.Printf("%s %s\n", headerStyle.Render("Session: "),
			warningStyle.Render("could not be verified, the service did not answer"))

	default:
		fmt.Printf("%s %s\n", headerStyle.Render("Session: "),
			warningStyle.Render(fmt.Sprintf("could not be verified: %v", report.refreshErr)))
	}
}

// tokenExpiry reads the exp claim of a JWT access token without verifying
// it. The expiry is only shown, never used to decide anything.
func tokenExpiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}

	expiry, err := parsed.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return time.Time{}, false
	}

	return expiry.Time, true
}

func describeExpiry(expiry, now time.Time) string {
	remaining := expiry.Sub(now)
	if remaining <= 0 {
		return expiredStyle.Render(fmt.Sprintf("expired %s ago", (-remaining).Round(time.Second)))
	}
	return fmt.Sprintf("in %s (%s)", remaining.Round(time.Second), expiry.Local().Format(time.RFC1123))
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
