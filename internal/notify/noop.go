package notify

import (
	"context"
	"log/slog"
)

// NoopNotifier implements Notifier by logging discarded messages. It is
// used when no webhook is configured.
type NoopNotifier struct {
	log *slog.Logger
}

// NewNoopNotifier creates a notifier that discards messages with a log line.
func NewNoopNotifier(log *slog.Logger) *NoopNotifier {
	return &NoopNotifier{log: log}
}

// Send logs and discards a message.
func (n *NoopNotifier) Send(_ context.Context, msg Message) error {
	n.log.Debug("notification discarded (no webhook configured)",
		"title", msg.Title,
		"details", len(msg.Details),
	)
	return nil
}
