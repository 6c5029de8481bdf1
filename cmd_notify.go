package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oszuidwest/waytooloud/internal/notify"
	"github.com/spf13/cobra"
)

// notifyTestTimeout bounds a test email including authentication.
const notifyTestTimeout = 30 * time.Second

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Check notification channels",
}

var notifyTestCmd = &cobra.Command{
	Use:       "test <webhook|email|desktop>",
	Short:     "Send a test notification",
	Example:   `  waytooloud notify test email`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"webhook", "email", "desktop"},
	RunE:      runNotifyTest,
}

func init() {
	notifyCmd.AddCommand(notifyTestCmd)
	RootCmd.AddCommand(notifyCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	snap := cfg.Snapshot()

	switch args[0] {
	case "webhook":
		if !snap.HasWebhook() {
			return errors.New("no webhook URL configured")
		}
		err = notify.SendTestWebhook(snap.WebhookURL)
	case "email":
		graph := cfg.GraphConfig()
		ctx, cancel := context.WithTimeout(cmd.Context(), notifyTestTimeout)
		defer cancel()
		err = notify.SendTestEmail(ctx, &graph)
	case "desktop":
		err = notify.SendDesktop(notify.AppName, "This is a test notification.")
	}
	if err != nil {
		return fmt.Errorf("%s test failed: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s test sent\n", args[0])
	return nil
}
