package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/travelrag/travel-cli/internal/common"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	Run: func(cmd *cobra.Command, args []string) {
		if !application.Sessions.IsAuthenticated() {
			fmt.Println(mutedStyle.Render("Not signed in"))
			return
		}

		ctx, cleanup := common.WithInterrupt(cmd.Context())
		defer cleanup()

		// Logout always succeeds locally, even when the service is down.
		application.Logout(ctx)
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
