package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/travelrag/travel-cli/internal/models"
)

const previewLength = 60

var historyHeader = []string{"ID", "Asked", "Question", "Answer"}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)
}

func renderHistoryTable(w io.Writer, records []models.QueryRecord) error {
	table := newTable(w)
	table.Header(historyHeader)
	if err := table.Bulk(historyRows(records)); err != nil {
		return err
	}
	return table.Render()
}

func historyRows(records []models.QueryRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.ID),
			record.CreatedAt.Display(),
			preview(record.Query, previewLength),
			preview(record.Response, previewLength),
		})
	}
	return rows
}

// preview flattens text onto one line and shortens it to limit runes.
func preview(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}
