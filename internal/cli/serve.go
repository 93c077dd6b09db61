package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"stockbot/internal/alert"
	"stockbot/internal/bot"
)

func newServeCmd(app *App) *cobra.Command {
	var noAlerts bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot and the notification loop",
		Long: `Run the bot until interrupted. Chat commands are answered from a
long-poll on getUpdates; notification rules are evaluated in the
background on the configured interval.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := app.Logger

			st, err := app.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			client := app.httpClient()
			defer client.CloseIdleConnections()

			tg, err := app.telegram(client)
			if err != nil {
				return err
			}
			if me, err := tg.GetMe(ctx); err != nil {
				logger.Warn().Err(err).Msg("Could not verify bot token")
			} else {
				logger = logger.With().Str("bot", me.Username).Logger()
			}

			fresh := app.aggregator(client)
			handler := bot.NewHandler(st, app.cachedQuotes(fresh), logger)
			poller := bot.NewPoller(tg, handler, tg, app.Config.Telegram.PollTimeout, logger)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return poller.Run(gctx) })

			if app.Config.Notifications.Enabled && !noAlerts {
				evaluator := alert.NewEvaluator(st, fresh, tg, logger)
				loop := alert.NewLoop(evaluator, app.Config.Notifications.Interval, logger)
				g.Go(func() error { return loop.Run(gctx) })
			} else {
				logger.Info().Msg("Notification loop disabled")
			}

			logger.Info().Str("version", Version).Msg("Bot started")
			err = g.Wait()
			logger.Info().Msg("Bot stopped")
			return err
		},
	}

	cmd.Flags().BoolVar(&noAlerts, "no-alerts", false, "answer chat commands only, skip the notification loop")
	return cmd
}
