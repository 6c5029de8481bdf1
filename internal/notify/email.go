package notify

import (
	"context"
	"fmt"

	"github.com/oszuidwest/waytooloud/internal/types"
	"github.com/oszuidwest/waytooloud/internal/util"
)

// GraphConfig is the configuration for email notifications.
type GraphConfig = types.GraphConfig

// limitEmail renders the subject and body of a limit alert.
func limitEmail(ev FireEvent) (subject, body string) {
	name := ev.LimitName
	if name == "" {
		name = ev.LimitID
	}
	subject = "[ALERT] Too Loud - " + name
	body = fmt.Sprintf(
		"The loudness limit %q was exceeded.\n\n"+
			"Level:     %.0f%%\n"+
			"Threshold: %.0f%%\n"+
			"Sound:     %s\n"+
			"Time:      %s",
		name, ev.Level, ev.Threshold, ev.SoundFile, util.FormatHumanTime(ev.Time),
	)
	return subject, body
}

// SendTestEmail sends a test email to verify email configuration.
func SendTestEmail(ctx context.Context, cfg *GraphConfig) error {
	if err := ValidateConfig(cfg); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	client, err := NewGraphClient(cfg)
	if err != nil {
		return fmt.Errorf("create Graph client: %w", err)
	}

	if err := client.ValidateAuth(ctx); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	subject := "[TEST] " + AppName
	body := fmt.Sprintf(
		"Test email from %s.\n\n"+
			"Time: %s\n\n"+
			"Microsoft Graph configuration is working correctly.",
		AppName, util.HumanTime(),
	)

	if err := client.SendMail(ctx, ParseRecipients(cfg.Recipients), subject, body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}
