// Package notify defines the notification interface and implementations
// for alert delivery.
package notify

import (
	"context"
	"time"
)

// Message is one renderable alert: a category-level summary plus an
// ordered list of per-product detail blocks. It is a pure value; the
// wire encoding is the transport's concern.
type Message struct {
	Title       string
	Description string
	Color       int
	Timestamp   time.Time
	Footer      string
	Details     []Detail
}

// Detail is one per-product block within a Message. OldStock is set for
// stock transitions where the prior value is part of the alert.
type Detail struct {
	Title     string
	URL       string
	Thumbnail string
	Price     string
	Stock     int
	OldStock  *int
}

// Notifier delivers alert messages to a downstream channel.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
