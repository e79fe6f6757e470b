package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/travelrag/travel-cli/internal/app"
	"github.com/travelrag/travel-cli/internal/common"
	"github.com/travelrag/travel-cli/internal/models"
)

const (
	actionLogout = "logout"
	actionQuit   = "quit"
)

var shellCmd = &cobra.Command{
	Use:     "shell",
	Short:   "Start an interactive session",
	PreRunE: preRunStartE,
	RunE:    runShell,
}

// currentUser mirrors the session state for the shell header.
type currentUser struct {
	mu       sync.Mutex
	identity *models.Identity
}

func (c *currentUser) set(identity *models.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = identity
}

func (c *currentUser) header() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.identity == nil {
		return mutedStyle.Render("Not signed in")
	}
	return userBadgeStyle.Render(c.identity.GetName())
}

func runShell(cmd *cobra.Command, args []string) error {
	if !isInteractive() {
		return fmt.Errorf("%w, use the individual commands instead", errNotTerminal)
	}

	shellMode = true
	defer func() { shellMode = false }()

	ctx, cleanup := common.WithInterrupt(cmd.Context())
	defer cleanup()

	user := &currentUser{}
	unsubscribe := application.Sessions.State().Subscribe(user.set)
	defer unsubscribe()

	fmt.Println(titleStyle.Render("Travel assistant"))

	// A stored credential rejected at startup leaves the login view queued.
	followQueued(ctx)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Println(user.header())

		choice, err := shellMenu(application.Sessions.IsAuthenticated())
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}

		switch choice {
		case actionQuit:
			return nil
		case actionLogout:
			application.Logout(ctx)
			followQueued(ctx)
			continue
		}

		// View failures are already shown as notifications.
		if _, err := application.Open(ctx, choice); err != nil {
			printConnectivityHint(err)
		}

		fmt.Println()
	}
}

// followQueued follows a navigation queued while no view was running.
func followQueued(ctx context.Context) {
	if _, _, err := application.Resume(ctx); err != nil {
		printConnectivityHint(err)
	}
}

func printConnectivityHint(err error) {
	if hint, ok := connectivityHint(err, application.Config.GetEndpoint()); ok {
		fmt.Println(mutedStyle.Render(hint))
	}
}

func shellMenu(signedIn bool) (string, error) {
	var options []huh.Option[string]

	if signedIn {
		options = append(options,
			huh.NewOption("Ask a travel question", app.PathSearch),
			huh.NewOption("Browse history", app.PathHistory),
			huh.NewOption("Show latest answer", pathLatest),
			huh.NewOption("Log out", actionLogout),
		)
	} else {
		options = append(options,
			huh.NewOption("Log in", app.PathLogin),
			huh.NewOption("Create an account", app.PathRegister),
		)
	}
	options = append(options, huh.NewOption("Quit", actionQuit))

	var choice string
	err := huh.NewSelect[string]().
		Title("What would you like to do?").
		Options(options...).
		Value(&choice).
		Run()

	return choice, err
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
