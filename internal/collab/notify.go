// ABOUTME: Two-channel notification collaborator: direct user DM plus ops feed.
// ABOUTME: Channels succeed or fail independently; the sim records deliveries.

package collab

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Notification is one delivered message on either channel.
type Notification struct {
	UserID  string // empty for the ops/broadcast channel
	Title   string
	Body    string
	SentAt  time.Time
	Channel string // "direct" or "ops"
}

// SimNotifier simulates the two notification channels. Deliveries are
// recorded in memory and logged; each channel reports its own outcome.
type SimNotifier struct {
	mu     sync.Mutex
	sent   []Notification
	logger *slog.Logger
}

// NewSimNotifier creates a recording notifier. Pass nil logger for default.
func NewSimNotifier(logger *slog.Logger) *SimNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimNotifier{logger: logger.With("component", "notifier")}
}

// NotifyUser delivers a direct message keyed by wallet/user id.
func (n *SimNotifier) NotifyUser(ctx context.Context, userID, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.record(Notification{UserID: userID, Title: title, Body: body, SentAt: time.Now(), Channel: "direct"})
	n.logger.Info("direct notification sent", "user_id", userID, "title", title)
	return nil
}

// NotifyOps delivers to the broadcast/ops channel.
func (n *SimNotifier) NotifyOps(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.record(Notification{Title: title, Body: body, SentAt: time.Now(), Channel: "ops"})
	n.logger.Info("ops notification sent", "title", title)
	return nil
}

func (n *SimNotifier) record(msg Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

// Sent returns a copy of all recorded deliveries, oldest first.
func (n *SimNotifier) Sent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.sent...)
}
