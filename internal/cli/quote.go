package cli

import (
	"github.com/spf13/cobra"

	"stockbot/internal/models"
)

type quoteRow struct {
	Symbol    string        `json:"symbol"`
	Market    models.Market `json:"market"`
	Quote     string        `json:"quote"`
	Available bool          `json:"available"`
}

func newQuoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote SYMBOL [SYMBOL...]",
		Short: "Fetch quotes from the command line",
		Long: `Fetch quotes the way the bot does. Digits are Hong Kong symbols,
anything with a slash is a forex pair, everything else is a US symbol.`,
		Example: "  stockbot quote 700 GOOG EUR/USD",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			client := app.httpClient()
			defer client.CloseIdleConnections()

			results := app.aggregator(client).Quotes(cmd.Context(), args)

			rows := make([]quoteRow, 0, len(results))
			for _, r := range results {
				rows = append(rows, quoteRow{
					Symbol:    r.Symbol,
					Market:    models.Classify(r.Symbol),
					Quote:     r.Quote,
					Available: r.Available(),
				})
			}

			if output.IsJSON() {
				return output.JSON(rows)
			}
			for _, row := range rows {
				output.Printf("%s %s %s\n", PadRight(row.Symbol, 10), PadRight(string(row.Market), 6), output.Quote(row.Quote))
			}
			return nil
		},
	}
}
