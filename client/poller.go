package client

import (
	"context"
	"time"
)

// DefaultPollInterval is how often the notification poller fetches the inbox
// when no interval is given.
const DefaultPollInterval = 30 * time.Second

// PollNotifications fetches the inbox on a fixed interval and hands each
// result to handler. It blocks until ctx is cancelled; fetch errors are
// skipped, not fatal, so a transient outage does not kill the poller. An
// authentication failure still goes through the usual forced-logout path via
// the transport.
func (c *Client) PollNotifications(ctx context.Context, interval time.Duration, handler func(*Inbox)) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			inbox, err := c.FetchNotifications(ctx)
			if err != nil {
				continue
			}
			handler(inbox)
		}
	}
}
