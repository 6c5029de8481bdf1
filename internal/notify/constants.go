package notify

import "time"

// AppName is the application name used in notifications.
const AppName = "WayTooLoud"

// EventLimitExceeded is the webhook event name for a fired limit.
const EventLimitExceeded = "limit_exceeded"

// timestampUTC returns t in UTC, RFC3339 formatted.
func timestampUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
