package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/travelrag/travel-cli/internal/app"
	"github.com/travelrag/travel-cli/internal/client"
	"github.com/travelrag/travel-cli/internal/common"
	"github.com/travelrag/travel-cli/internal/config"
	"github.com/travelrag/travel-cli/internal/config/environment"
)

// Global configuration and application instances
var cfg *config.Config
var application *app.App

// isInteractive reports whether forms and spinners can be shown.
var isInteractive = environment.IsInteractive

// flagBindings maps persistent flags onto configuration keys so a flag
// overrides the file and the environment.
var flagBindings = map[string]string{
	"api-endpoint": "api.endpoint",
	"storage":      "storage.mode",
}

// loadConfig loads the configuration based on the --config flag or default locations
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	v, err := config.NewViper(configFile)
	if err != nil {
		return nil, err
	}

	if err := bindFlags(cmd, v); err != nil {
		return nil, err
	}

	return config.LoadFrom(v)
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for name, key := range flagBindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func preRunConfigE(cmd *cobra.Command, _ []string) error {
	// Load configuration before any command runs
	var err error
	cfg, err = loadConfig(cmd)

	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// check if verbose flag is set
	verbose, err := cmd.Flags().GetBool("verbose")
	if err == nil && verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	application, err = app.New(cfg)
	if err != nil {
		return err
	}

	attachNotifications(application.Notifier)
	mountViews(application)

	return nil
}

// preRunStartE also restores the stored identity, for commands that show
// who is signed in.
func preRunStartE(cmd *cobra.Command, _ []string) error {
	application.Start(cmd.Context())
	return nil
}

func postRun(*cobra.Command, []string) {
	if application != nil {
		application.Close()
	}
}

var rootCmd = &cobra.Command{
	Use:   "travel",
	Short: "Travel assistant - ask travel questions and browse your query history",
	Long: `Travel is a terminal client for the travel query service.

Sign in once and your session is kept between invocations. Ask questions with
'travel search', browse earlier answers with 'travel history', or run
'travel shell' for an interactive session.`,
	PersistentPreRunE: preRunConfigE,
	PersistentPostRun: postRun,
	PreRunE:           preRunStartE,
	SilenceUsage:      true,
	SilenceErrors:     true,
	RunE:              runShell,
}

func init() {

	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default is $HOME/.config/travel/config.yaml)")
	rootCmd.PersistentFlags().String("api-endpoint", "", "Override the travel service URL (e.g., http://localhost:8000)")
	rootCmd.PersistentFlags().String("storage", "", "Session storage: auto, file, memory or none")

}

func GetCommandOptions() *cobra.Command {
	return rootCmd
}

// openRoute navigates to target and stays until the views settle. A
// navigation queued by a rejected request is followed as well.
func openRoute(cmd *cobra.Command, target string) error {
	ctx, cleanup := common.WithInterrupt(cmd.Context())
	defer cleanup()

	_, err := application.Open(ctx, target)
	return err
}

// PrintError shows a command failure unless it was already shown as a
// notification.
func PrintError(err error) {
	if err == nil {
		return
	}
	if !reported(err) {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
	}
	if cfg != nil {
		if hint, ok := connectivityHint(err, cfg.GetEndpoint()); ok {
			fmt.Fprintln(os.Stderr, mutedStyle.Render(hint))
		}
	}
}

func reported(err error) bool {
	var apiErr *client.Error
	return errors.As(err, &apiErr) ||
		errors.Is(err, app.ErrEmptyQuery) ||
		errors.Is(err, app.ErrNoSuchPage) ||
		errors.Is(err, app.ErrSearchFailed) ||
		errors.Is(err, errInvalidID)
}
