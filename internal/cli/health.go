package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stockbot/internal/health"
	"stockbot/internal/quote"
)

func newHealthCmd(app *App) *cobra.Command {
	var probes []string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the database, Telegram and the quote sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			output := NewOutput(cmd)

			client := app.httpClient()
			defer client.CloseIdleConnections()

			checker := health.NewChecker(app.Config.Quotes.FetchTimeout + 5*time.Second)

			st, storeErr := app.openStore(ctx)
			if storeErr != nil {
				checker.Register("database", health.Database(func(context.Context) error { return storeErr }, 0))
			} else {
				defer st.Close()
				checker.Register("database", health.Database(st.Ping, 100*time.Millisecond))
			}

			if tg, err := app.telegram(client); err != nil {
				checker.Register("telegram", health.Skipped("token not set"))
			} else {
				checker.Register("telegram", health.API(func(ctx context.Context) (string, error) {
					me, err := tg.GetMe(ctx)
					if err != nil {
						return "", err
					}
					return "@" + me.Username, nil
				}, 2*time.Second))
			}

			if len(probes) > 0 {
				checker.Register("quotes", health.API(probeQuotes(app.aggregator(client), probes), 10*time.Second))
			}

			report := checker.Run(ctx)
			if output.IsJSON() {
				if err := output.JSON(report); err != nil {
					return err
				}
			} else {
				printHealth(output, report)
			}
			if !report.Healthy() {
				return fmt.Errorf("health check failed: %s", report.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&probes, "probe", []string{"700", "AAPL"}, "symbols fetched to check the quote sources (empty to skip)")
	return cmd
}

// probeQuotes fails when none of the symbols has a quote.
func probeQuotes(src quote.Source, symbols []string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		results := src.Quotes(ctx, symbols)
		ok := 0
		for _, r := range results {
			if r.Available() {
				ok++
			}
		}
		msg := fmt.Sprintf("%d/%d available", ok, len(results))
		if ok == 0 {
			return "", fmt.Errorf("no quotes: %s", msg)
		}
		return msg, nil
	}
}

func printHealth(output *Output, report health.Report) {
	for _, c := range report.Components {
		line := fmt.Sprintf("%s %s %s (%s)", PadRight(c.Name, 10), PadRight(string(c.Status), 10), c.Message, FormatDuration(c.Latency))
		switch c.Status {
		case health.StatusHealthy:
			output.Success("%s", line)
		case health.StatusDegraded:
			output.Warning("%s", line)
		default:
			output.Error("%s", line)
		}
	}
	output.Bold("Overall: %s", report.Status)
}
