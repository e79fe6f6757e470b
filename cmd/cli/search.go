package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/travelrag/travel-cli/internal/app"
	"github.com/travelrag/travel-cli/internal/router"
)

var searchCmd = &cobra.Command{
	Use:     "search <question>",
	Aliases: []string{"ask"},
	Short:   "Ask the travel assistant a question",
	Example: `  travel search "cheapest way from Berlin to Rome in May"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		return openRoute(cmd, router.WithQuery(app.PathSearch, map[string]string{
			queryParam: query,
		}))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
