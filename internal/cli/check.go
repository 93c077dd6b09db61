package cli

import (
	"context"

	"github.com/spf13/cobra"

	"stockbot/internal/alert"
	"stockbot/internal/models"
	"stockbot/internal/notify"
	"stockbot/internal/quote"
	"stockbot/internal/store"
)

// previewRules reports every firing rule as won without disabling it.
type previewRules struct {
	store.Store
}

func (previewRules) DisableRule(context.Context, int64, string, models.RuleType) (bool, error) {
	return true, nil
}

func newCheckCmd(app *App) *cobra.Command {
	var send bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one notification cycle",
		Long: `Evaluate every active rule once. By default this is a preview: rules
stay enabled and the alerts are printed instead of sent. With --send the
cycle behaves exactly like the background loop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			output := NewOutput(cmd)

			st, err := app.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			client := app.httpClient()
			defer client.CloseIdleConnections()

			var (
				rules    alert.RuleStore = previewRules{st}
				sender   notify.Sender
				recorder = &notify.Recorder{}
			)
			if send {
				tg, err := app.telegram(client)
				if err != nil {
					return err
				}
				rules, sender = st, tg
			} else {
				sender = recorder
			}

			report, err := runCheck(ctx, rules, app.aggregator(client), sender, app)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]any{
					"report":   report,
					"messages": recorder.Messages(),
					"sent":     send,
				})
			}

			output.Bold("Cycle finished in %s", FormatDuration(report.Duration))
			output.Printf("  rules: %d  symbols: %d  triggered: %d  skipped: %d\n",
				report.Rules, report.Symbols, report.Triggered, report.Skipped)
			if report.SendFailures > 0 {
				output.Error("  %d alert(s) failed to send", report.SendFailures)
			}
			for _, m := range recorder.Messages() {
				output.Info("[%d] %s", m.UserID, m.Text)
			}
			if !send && report.Triggered > 0 {
				output.Dim("Preview only, rules were left enabled. Use --send to deliver.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&send, "send", false, "send alerts over Telegram and disable fired rules")
	return cmd
}

func runCheck(ctx context.Context, rules alert.RuleStore, quotes quote.Source, sender notify.Sender, app *App) (alert.CycleReport, error) {
	evaluator := alert.NewEvaluator(rules, quotes, sender, app.Logger)
	return alert.NewLoop(evaluator, app.Config.Notifications.Interval, app.Logger).RunOnce(ctx)
}
