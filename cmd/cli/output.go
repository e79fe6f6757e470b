package cli

import (
	"fmt"
	"os"

	"github.com/travelrag/travel-cli/internal/app"
	"github.com/travelrag/travel-cli/internal/models"
)

func printAnswer(query, answer string) {
	fmt.Println()
	fmt.Println(questionStyle.Render(query))
	fmt.Println(answerStyle.Render(answer))
}

// connectivityHint says what to check when the service did not answer at
// all. Rejections get no hint.
func connectivityHint(err error, endpoint string) (string, bool) {
	if !app.IsConnectivity(err) {
		return "", false
	}
	return fmt.Sprintf("Is the travel service running at %s? Pass --api-endpoint to use another one", endpoint), true
}

func printSearchHint(a *app.App) {
	if identity := a.Sessions.Current(); identity != nil {
		fmt.Println(activeStyle.Render(fmt.Sprintf("Signed in as %s", identity.GetName())))
	}
	fmt.Println(mutedStyle.Render(`Ask a question with: travel search "weekend trip from Paris"`))
}

func printHistoryPage(page *app.HistoryPage) {
	if len(page.Records) == 0 {
		fmt.Println(mutedStyle.Render("No questions asked yet"))
		return
	}

	fmt.Println(headerStyle.Render("Query history"))
	fmt.Println()

	if err := renderHistoryTable(os.Stdout, page.Records); err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("Failed to render history: %v", err)))
		return
	}

	fmt.Println()
	fmt.Println(mutedStyle.Render(fmt.Sprintf("Page %d of %d (%d records)",
		page.Page, page.TotalPages(), page.Total)))
}

func printRecord(record *models.QueryRecord) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("Record #%d", record.ID)))
	fmt.Println(mutedStyle.Render(fmt.Sprintf("Asked %s", record.CreatedAt.Display())))
	printAnswer(record.Query, record.Response)
}
