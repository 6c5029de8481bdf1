// Package notify delivers limit alerts over webhook, Microsoft Graph email and
// desktop notifications.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oszuidwest/waytooloud/internal/config"
	"github.com/oszuidwest/waytooloud/internal/util"
)

// emailTimeout bounds one email delivery including retries.
const emailTimeout = 2 * time.Minute

// FireEvent describes a limit that fired.
type FireEvent struct {
	LimitID   string
	LimitName string
	Level     float64 // Loudness percentage when the limit fired
	Threshold float64 // Limit threshold percentage
	SoundFile string
	Time      time.Time
}

// AlertNotifier sends notifications when limits fire. Channels are read from
// the config on every event, so reloads take effect immediately.
type AlertNotifier struct {
	cfg     *config.Config
	desktop DesktopFunc

	// mu protects graphClient and graphKey
	mu          sync.Mutex
	graphClient *GraphClient
	graphKey    GraphConfig // settings graphClient was created with

	wg sync.WaitGroup
}

// NewAlertNotifier returns an AlertNotifier configured with the given config.
func NewAlertNotifier(cfg *config.Config) *AlertNotifier {
	return &AlertNotifier{cfg: cfg, desktop: SendDesktop}
}

// SetDesktop replaces the desktop notification function.
func (n *AlertNotifier) SetDesktop(fn DesktopFunc) {
	n.desktop = fn
}

// HandleFire dispatches notifications for a fired limit. It does not block;
// failures are logged.
func (n *AlertNotifier) HandleFire(ev FireEvent) {
	cfg := n.cfg.Snapshot()

	if cfg.HasWebhook() {
		n.wg.Go(func() {
			util.LogNotifyResult(func() error { return SendLimitWebhook(cfg.WebhookURL, ev) }, "Limit webhook")
		})
	}

	if cfg.HasGraph() {
		graphCfg := n.cfg.GraphConfig()
		n.wg.Go(func() {
			util.LogNotifyResult(func() error { return n.sendLimitEmail(&graphCfg, ev) }, "Limit email")
		})
	}

	if cfg.Desktop && n.desktop != nil {
		title, message := limitDesktopMessage(ev)
		n.wg.Go(func() {
			util.LogNotifyResult(func() error { return n.desktop(title, message) }, "Desktop notification")
		})
	}
}

// Wait blocks until all dispatched notifications have finished.
func (n *AlertNotifier) Wait() {
	n.wg.Wait()
}

// getOrCreateGraphClient returns the cached Graph client, creating a new one
// when the settings changed since it was built.
func (n *AlertNotifier) getOrCreateGraphClient(cfg *GraphConfig) (*GraphClient, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.graphClient != nil && n.graphKey == *cfg {
		return n.graphClient, nil
	}

	client, err := NewGraphClient(cfg)
	if err != nil {
		return nil, err
	}
	n.graphClient = client
	n.graphKey = *cfg
	return client, nil
}

func (n *AlertNotifier) sendLimitEmail(cfg *GraphConfig, ev FireEvent) error {
	client, err := n.getOrCreateGraphClient(cfg)
	if err != nil {
		return util.WrapError("create Graph client", err)
	}

	recipients := ParseRecipients(cfg.Recipients)
	if len(recipients) == 0 {
		return fmt.Errorf("no valid recipients")
	}

	ctx, cancel := context.WithTimeout(context.Background(), emailTimeout)
	defer cancel()

	subject, body := limitEmail(ev)
	if err := client.SendMail(ctx, recipients, subject, body); err != nil {
		return util.WrapError("send email via Graph", err)
	}
	return nil
}
