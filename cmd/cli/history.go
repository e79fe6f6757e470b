package cli

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/travelrag/travel-cli/internal/router"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the questions you have asked",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")

		return openRoute(cmd, pageURL(page, size))
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single history record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return openRoute(cmd, router.WithQuery(pathRecord, map[string]string{
			idParam: args[0],
		}))
	},
}

var historyLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent answer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return openRoute(cmd, pathLatest)
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a history record",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		return openRoute(cmd, router.WithQuery(pathDelete, map[string]string{
			idParam:      args[0],
			confirmParam: strconv.FormatBool(yes),
		}))
	},
}

func init() {
	historyCmd.Flags().Int("page", 1, "Page to show, starting at 1")
	historyCmd.Flags().Int("size", 0, "Records per page (default from history.page_size)")

	historyDeleteCmd.Flags().BoolP("yes", "y", false, "Delete without asking for confirmation")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyLatestCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	rootCmd.AddCommand(historyCmd)
}
