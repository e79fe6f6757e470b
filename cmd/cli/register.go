package cli

import (
	"github.com/spf13/cobra"
	"github.com/travelrag/travel-cli/internal/app"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	Long: `Create an account on the travel service. Registering does not sign you
in; you are taken to the login prompt afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		registerInput.Username, _ = cmd.Flags().GetString("username")
		registerInput.Email, _ = cmd.Flags().GetString("email")
		registerInput.Password, _ = cmd.Flags().GetString("password")

		return openRoute(cmd, app.PathRegister)
	},
}

func init() {
	registerCmd.Flags().String("username", "", "Username for the new account")
	registerCmd.Flags().String("email", "", "Email address")
	registerCmd.Flags().String("password", "", "Password")

	rootCmd.AddCommand(registerCmd)
}
