package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/parcelworks/landscout/internal/alert"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Dispatch pending urgent-opportunity alerts",
}

var alertsDispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Send Telegram alerts for urgent opportunities not yet alerted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Telegram.BotToken == "" {
			return eris.New("telegram bot token is required (LANDSCOUT_TELEGRAM_BOT_TOKEN)")
		}
		if cfg.Telegram.ChatID == "" {
			return eris.New("telegram chat ID is required (LANDSCOUT_TELEGRAM_CHAT_ID)")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		dispatcher := alert.NewDispatcher(st, alert.NewTelegramNotifier(cfg.Telegram))
		sent, err := dispatcher.DispatchPending(ctx)
		if err != nil {
			return err
		}

		cmd.Printf("Dispatched %d alerts\n", sent)
		return nil
	},
}

func init() {
	alertsCmd.AddCommand(alertsDispatchCmd)
	rootCmd.AddCommand(alertsCmd)
}
