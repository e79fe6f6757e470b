package cli

import (
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <location>",
	Short: "Open a view by its location",
	Long: `Open a view by its location, for example /history?page=2 or
/product-comparison?q=rome. Unknown locations lead to the search view and
protected ones ask you to sign in first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return openRoute(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}
