package cli

import (
	"github.com/spf13/cobra"
	"github.com/travelrag/travel-cli/internal/app"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the travel service",
	Long: `Sign in with your username and password. The session is kept in the
session storage and reused by later commands until it expires.`,
	PreRunE: preRunStartE,
	RunE:    runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	loginInput.username, _ = cmd.Flags().GetString("username")
	loginInput.password, _ = cmd.Flags().GetString("password")
	loginInput.skipCheck, _ = cmd.Flags().GetBool("skip-check")

	return openRoute(cmd, app.PathLogin)
}

func init() {
	loginCmd.Flags().StringP("username", "u", "", "Username, prompted for when omitted")
	loginCmd.Flags().StringP("password", "p", "", "Password, prompted for when omitted")
	loginCmd.Flags().Bool("skip-check", false, "Do not check that the travel service is reachable first")

	rootCmd.AddCommand(loginCmd)
}
