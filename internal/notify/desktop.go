package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"
)

// DesktopFunc shows a desktop notification.
type DesktopFunc func(title, message string) error

// SendDesktop shows a notification through the desktop environment.
func SendDesktop(title, message string) error {
	return beeep.Notify(title, message, "")
}

// limitDesktopMessage renders the desktop notification for a fired limit.
func limitDesktopMessage(ev FireEvent) (title, message string) {
	title = AppName + ": too loud"
	name := ev.LimitName
	if name == "" {
		name = ev.LimitID
	}
	message = fmt.Sprintf("%s: level %.0f%% is over the %.0f%% limit", name, ev.Level, ev.Threshold)
	return title, message
}
